package models

// Table names shared by the remote backend and the local cache.
const (
	TableCustomers     = "clientes"
	TableProducts      = "produtos"
	TableAccessories   = "accessories"
	TableBudgets       = "orcamentos"
	TableVisits        = "visits"
	TableConfiguration = "configuracoes"
	TableSession       = "session"
)

// Record is implemented by every entity mirrored between the remote backend and the cache.
type Record interface {
	TableName() string
	Key() string
}

// EntityTables lists the tables pulled on every synchronization cycle.
var EntityTables = []string{
	TableCustomers,
	TableProducts,
	TableAccessories,
	TableBudgets,
	TableVisits,
	TableConfiguration,
}
