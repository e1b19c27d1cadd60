package model

import (
	"time"

	"gorm.io/gorm"
)

// Role determines the scope of data a user can see. SUPERADMIN ignores the
// tenant assignment entirely; every other role is confined to its ClientID.
type Role string

const (
	RoleSuperAdmin  Role = "SUPERADMIN"
	RoleClientAdmin Role = "CLIENT_ADMIN"
	RoleStaff       Role = "STAFF"
	RoleCustomer    Role = "CUSTOMER"
)

// User represents the user model stored in the database
type User struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	Email     string         `json:"email" gorm:"type:varchar(100);uniqueIndex"`
	Password  string         `json:"-" gorm:"type:varchar(255)"`
	FirstName string         `json:"first_name" gorm:"type:varchar(100)"`
	LastName  string         `json:"last_name" gorm:"type:varchar(100)"`
	Role      Role           `json:"role" gorm:"type:varchar(20);not null;default:'STAFF'"`
	ClientID  *uint          `json:"client_id,omitempty" gorm:"index"`
	Phone     string         `json:"phone" gorm:"type:varchar(20)"`
	IsVisible bool           `json:"is_visible" gorm:"default:true"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

// IsSuperAdmin reports whether the user sees all tenants
func (u *User) IsSuperAdmin() bool {
	return u.Role == RoleSuperAdmin
}

// IsClientAdmin reports whether the user administers a single tenant
func (u *User) IsClientAdmin() bool {
	return u.Role == RoleClientAdmin
}
