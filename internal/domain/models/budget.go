package models

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// BudgetStatus is the lifecycle state of a budget (quote).
type BudgetStatus string

const (
	BudgetPending   BudgetStatus = "pendente"
	BudgetFinalized BudgetStatus = "finalizado"
	BudgetCancelled BudgetStatus = "cancelado"
)

// Terminal reports whether no further transition is allowed from s.
func (s BudgetStatus) Terminal() bool {
	return s == BudgetFinalized || s == BudgetCancelled
}

// LineKind distinguishes the two line item variants of a budget.
type LineKind string

const (
	LineProduct   LineKind = "product"
	LineAccessory LineKind = "accessory"
)

// LineItem is implemented by ProductLine and AccessoryLine.
type LineItem interface {
	Kind() LineKind
	Amount() decimal.Decimal
}

// ProductLine is a priced product with the measured dimensions (meters).
type ProductLine struct {
	ProductID string          `json:"produto_id" validate:"required"`
	Name      string          `json:"nome"`
	Width     decimal.Decimal `json:"largura" validate:"gte=0"`
	Height    decimal.Decimal `json:"altura" validate:"gte=0"`
	// Price is the line total; null asks for the catalog price.
	Price decimal.NullDecimal `json:"preco" validate:"gte=0"`
}

func (ProductLine) Kind() LineKind { return LineProduct }

func (l ProductLine) Amount() decimal.Decimal { return l.Price.Decimal }

// AccessoryLine is a priced accessory in a chosen color.
type AccessoryLine struct {
	AccessoryID string              `json:"acessorio_id" validate:"required"`
	Name        string              `json:"nome"`
	Color       string              `json:"cor"`
	Price       decimal.NullDecimal `json:"preco" validate:"gte=0"`
}

func (AccessoryLine) Kind() LineKind { return LineAccessory }

func (l AccessoryLine) Amount() decimal.Decimal { return l.Price.Decimal }

// ProductLines decodes either a JSON array or the legacy string-encoded array.
type ProductLines []ProductLine

func (p *ProductLines) UnmarshalJSON(data []byte) error {
	var lines []ProductLine
	if err := unmarshalLines(data, &lines); err != nil {
		return err
	}
	*p = lines
	return nil
}

// AccessoryLines decodes either a JSON array or the legacy string-encoded array.
type AccessoryLines []AccessoryLine

func (a *AccessoryLines) UnmarshalJSON(data []byte) error {
	var lines []AccessoryLine
	if err := unmarshalLines(data, &lines); err != nil {
		return err
	}
	*a = lines
	return nil
}

func unmarshalLines(data []byte, dst any) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	if data[0] == '"' {
		var encoded string
		if err := json.Unmarshal(data, &encoded); err != nil {
			return err
		}
		if encoded == "" {
			return nil
		}
		data = []byte(encoded)
	}
	return json.Unmarshal(data, dst)
}

// Budget is a quote issued to a customer.
type Budget struct {
	ID          string          `json:"id,omitempty" gorm:"primaryKey"`
	CustomerID  string          `json:"cliente_id" gorm:"column:cliente_id;index" validate:"required"`
	Products    ProductLines    `json:"produtos_json" gorm:"column:produtos_json;serializer:json" validate:"dive"`
	Accessories AccessoryLines  `json:"acessorios_json" gorm:"column:acessorios_json;serializer:json" validate:"dive"`
	TotalValue  decimal.Decimal `json:"valor_total" gorm:"column:valor_total;type:numeric"`
	CreatedAt   time.Time       `json:"created_at" gorm:"column:created_at"`
	Status      BudgetStatus    `json:"status" gorm:"index"`
}

func (Budget) TableName() string { return TableBudgets }

func (b Budget) Key() string { return b.ID }

// LineItems returns product lines followed by accessory lines.
func (b Budget) LineItems() []LineItem {
	items := make([]LineItem, 0, len(b.Products)+len(b.Accessories))
	for _, l := range b.Products {
		items = append(items, l)
	}
	for _, l := range b.Accessories {
		items = append(items, l)
	}
	return items
}

// ComputeTotal sums the amount of every line item.
func (b Budget) ComputeTotal() decimal.Decimal {
	total := decimal.Zero
	for _, item := range b.LineItems() {
		total = total.Add(item.Amount())
	}
	return total
}

// ExpiresAt is the instant after which a pending budget lapses.
func (b Budget) ExpiresAt(validityDays int) time.Time {
	return b.CreatedAt.AddDate(0, 0, validityDays)
}
