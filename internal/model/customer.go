package model

import (
	"time"

	"gorm.io/gorm"
)

// CustomerStatus is the lifecycle state of a customer record
type CustomerStatus string

const (
	CustomerActive   CustomerStatus = "active"
	CustomerInactive CustomerStatus = "inactive"
)

// Customer is an end customer of a tenant. Passports and visas hang off the
// customer, so their tenant scope is resolved through this record.
type Customer struct {
	ID          uint           `json:"id" gorm:"primaryKey"`
	ClientID    uint           `json:"client_id" gorm:"index;not null"`
	FirstName   string         `json:"first_name" gorm:"type:varchar(100);not null"`
	LastName    string         `json:"last_name" gorm:"type:varchar(100);not null"`
	Email       string         `json:"email" gorm:"type:varchar(100)"`
	Phone       string         `json:"phone" gorm:"type:varchar(20)"`
	Address     string         `json:"address" gorm:"type:text"`
	DateOfBirth *Date          `json:"date_of_birth,omitempty" gorm:"type:date"`
	Nationality string         `json:"nationality" gorm:"type:varchar(100)"`
	Status      CustomerStatus `json:"status" gorm:"type:varchar(10);default:'active'"`
	CreatedBy   uint           `json:"created_by"`
	UpdatedBy   uint           `json:"updated_by"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `json:"-" gorm:"index"`

	Client Client `json:"client,omitempty" gorm:"foreignKey:ClientID"`
}

// FullName returns the customer's display name
func (c *Customer) FullName() string {
	return c.FirstName + " " + c.LastName
}
