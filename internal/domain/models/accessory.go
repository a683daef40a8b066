package models

import "github.com/shopspring/decimal"

// ColorPrice is one color option of an accessory and its price.
type ColorPrice struct {
	Color string          `json:"color" validate:"required"`
	Price decimal.Decimal `json:"price" validate:"gte=0"`
}

// Accessory is an add-on (rails, brackets, cords) linked to a product.
type Accessory struct {
	ID            string       `json:"id,omitempty" gorm:"primaryKey"`
	Product       string       `json:"produto" gorm:"column:produto" validate:"required"`
	MeasurementMM int          `json:"measurement_mm" gorm:"column:measurement_mm" validate:"gte=0"`
	Unit          string       `json:"unit"`
	Colors        []ColorPrice `json:"colors" gorm:"serializer:json" validate:"min=1,dive"`
}

func (Accessory) TableName() string { return TableAccessories }

func (a Accessory) Key() string { return a.ID }

// PriceFor returns the price of the given color option.
func (a Accessory) PriceFor(color string) (decimal.Decimal, bool) {
	for _, c := range a.Colors {
		if c.Color == color {
			return c.Price, true
		}
	}
	return decimal.Zero, false
}
