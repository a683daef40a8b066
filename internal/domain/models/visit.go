package models

import "time"

// VisitStatus is the state of a scheduled measurement visit.
type VisitStatus string

const (
	VisitScheduled VisitStatus = "scheduled"
	VisitConfirmed VisitStatus = "confirmed"
)

// Visit is an appointment at a customer's address.
type Visit struct {
	ID           string      `json:"id,omitempty" gorm:"primaryKey"`
	CustomerName string      `json:"customerName" gorm:"column:customer_name" validate:"required"`
	PostalCode   string      `json:"cep" gorm:"column:cep"`
	Address      string      `json:"address" validate:"required"`
	Number       string      `json:"number"`
	Complement   string      `json:"complement"`
	Neighborhood string      `json:"neighborhood"`
	City         string      `json:"city"`
	State        string      `json:"state"`
	DateTime     time.Time   `json:"dateTime" gorm:"column:date_time" validate:"required"`
	Notes        string      `json:"notes"`
	Status       VisitStatus `json:"status"`
}

func (Visit) TableName() string { return TableVisits }

func (v Visit) Key() string { return v.ID }
