package models

import "time"

// User is an account row owned by the dashboard; billing only reads it to
// attach payments to an existing account. Payments for unknown emails are
// never auto-provisioned.
type User struct {
	ID        string    `gorm:"column:id;type:uuid;primary_key" json:"id"`
	Email     string    `gorm:"column:email;type:varchar(255);not null;uniqueIndex" json:"email"`
	Name      string    `gorm:"column:name;type:varchar(255)" json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

func (User) TableName() string {
	return "users"
}
