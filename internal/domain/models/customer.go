package models

// Customer is a person or company quotes are issued to.
type Customer struct {
	ID      string `json:"id,omitempty" gorm:"primaryKey"`
	Name    string `json:"name" validate:"required"`
	Email   string `json:"email" validate:"omitempty,email"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
	CPF     string `json:"cpf" gorm:"column:cpf"`
}

func (Customer) TableName() string { return TableCustomers }

func (c Customer) Key() string { return c.ID }
