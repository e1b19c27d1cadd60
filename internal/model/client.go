package model

import (
	"time"

	"gorm.io/gorm"
)

// ClientStatus is the lifecycle state of a tenant organization
type ClientStatus string

const (
	ClientActive    ClientStatus = "active"
	ClientInactive  ClientStatus = "inactive"
	ClientPending   ClientStatus = "pending"
	ClientSuspended ClientStatus = "suspended"
)

// Client is a tenant organization. Every scoped entity in the system belongs
// to exactly one client, directly or through its owning customer.
type Client struct {
	ID uint `json:"id" gorm:"primaryKey"`

	// Company information
	CompanyName  string `json:"company_name" gorm:"type:varchar(100);uniqueIndex;not null"`
	CompanyRegNo string `json:"company_reg_number,omitempty" gorm:"type:varchar(50)"`
	TaxID        string `json:"tax_id,omitempty" gorm:"type:varchar(50)"`

	// Contact information
	ContactPerson  string `json:"contact_person" gorm:"type:varchar(100)"`
	Phone          string `json:"phone" gorm:"type:varchar(17)"`
	AlternatePhone string `json:"alternate_phone,omitempty" gorm:"type:varchar(17)"`
	Email          string `json:"email" gorm:"type:varchar(100);uniqueIndex"`
	Website        string `json:"website,omitempty" gorm:"type:varchar(255)"`

	// Address information
	AddressLine1 string `json:"address_line1" gorm:"type:varchar(255)"`
	AddressLine2 string `json:"address_line2,omitempty" gorm:"type:varchar(255)"`
	City         string `json:"city" gorm:"type:varchar(100)"`
	State        string `json:"state" gorm:"type:varchar(100)"`
	PostalCode   string `json:"postal_code" gorm:"type:varchar(20)"`
	Country      string `json:"country" gorm:"type:varchar(100);default:'United States'"`

	Status     ClientStatus `json:"status" gorm:"type:varchar(10);default:'active';index"`
	IsVerified bool         `json:"is_verified" gorm:"default:false"`
	Notes      string       `json:"notes,omitempty" gorm:"type:text"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}
