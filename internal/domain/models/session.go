package models

// AccessLevel is the permission level of an authenticated user.
type AccessLevel string

const (
	AccessStandard AccessLevel = "standard"
	AccessAdmin    AccessLevel = "admin"
)

// Session is the locally persisted login. It never carries the password.
type Session struct {
	Username    string      `json:"username" gorm:"primaryKey"`
	AccessLevel AccessLevel `json:"accessLevel" gorm:"column:access_level"`
}

func (Session) TableName() string { return TableSession }
