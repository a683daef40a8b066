package models

import "github.com/shopspring/decimal"

// CalculationMethod selects how a product line is priced from its dimensions.
type CalculationMethod string

const (
	MethodArea   CalculationMethod = "area"
	MethodLinear CalculationMethod = "linear"
	MethodUnit   CalculationMethod = "unit"
)

var hundred = decimal.NewFromInt(100)

// Product is a curtain or blind model offered for sale.
type Product struct {
	ID                string            `json:"id,omitempty" gorm:"primaryKey"`
	Category          string            `json:"produto" gorm:"column:produto" validate:"required"`
	Model             string            `json:"modelo" gorm:"column:modelo"`
	Material          string            `json:"tecido" gorm:"column:tecido"`
	Name              string            `json:"nome" gorm:"column:nome" validate:"required"`
	Code              string            `json:"codigo" gorm:"column:codigo"`
	CostPrice         decimal.Decimal   `json:"preco_custo" gorm:"column:preco_custo;type:numeric" validate:"gte=0"`
	ProfitMargin      decimal.Decimal   `json:"margem_lucro" gorm:"column:margem_lucro;type:numeric" validate:"gte=0"`
	SalePrice         decimal.Decimal   `json:"preco_venda" gorm:"column:preco_venda;type:numeric"`
	CalculationMethod CalculationMethod `json:"metodo_calculo" gorm:"column:metodo_calculo" validate:"required,oneof=area linear unit"`
	MinHeight         decimal.Decimal   `json:"altura_minima" gorm:"column:altura_minima;type:numeric" validate:"gte=0"`
	MinWidth          decimal.Decimal   `json:"largura_minima" gorm:"column:largura_minima;type:numeric" validate:"gte=0"`
	MinArea           decimal.Decimal   `json:"area_minima" gorm:"column:area_minima;type:numeric" validate:"gte=0"`
}

func (Product) TableName() string { return TableProducts }

func (p Product) Key() string { return p.ID }

// SalePrice derives the sale price from cost and a percentage margin:
// cost * (1 + margin/100), rounded to cents.
func SalePrice(cost, margin decimal.Decimal) decimal.Decimal {
	factor := decimal.NewFromInt(1).Add(margin.Div(hundred))
	return cost.Mul(factor).Round(2)
}

// RecomputeSalePrice refreshes SalePrice from the current cost and margin.
// It must run before every save.
func (p *Product) RecomputeSalePrice() {
	p.SalePrice = SalePrice(p.CostPrice, p.ProfitMargin)
}

// LinePrice prices one product line of the given width and height (meters)
// according to the calculation method, honouring the minimum dimensions.
func (p Product) LinePrice(width, height decimal.Decimal) decimal.Decimal {
	switch p.CalculationMethod {
	case MethodArea:
		w := decimal.Max(width, p.MinWidth)
		h := decimal.Max(height, p.MinHeight)
		area := decimal.Max(w.Mul(h), p.MinArea)
		return area.Mul(p.SalePrice).Round(2)
	case MethodLinear:
		return decimal.Max(width, p.MinWidth).Mul(p.SalePrice).Round(2)
	default:
		return p.SalePrice.Round(2)
	}
}
