package models

// Snapshot is the full content of every mirrored table at one point in time.
type Snapshot struct {
	Customers     []Customer
	Products      []Product
	Accessories   []Accessory
	Budgets       []Budget
	Visits        []Visit
	Configuration *Configuration
}
