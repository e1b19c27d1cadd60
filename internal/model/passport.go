package model

import (
	"errors"
	"time"

	"gorm.io/gorm"
)

// PassportStatus is the processing state of a passport
type PassportStatus string

const (
	PassportValid     PassportStatus = "valid"
	PassportExpired   PassportStatus = "expired"
	PassportLost      PassportStatus = "lost"
	PassportInProcess PassportStatus = "in_process"
)

// ErrExtensionCompleted is returned when completing an extension that already
// has a released date. Completion is one-way.
var ErrExtensionCompleted = errors.New("passport extension is already completed")

// Passport belongs to a customer; tenant scope resolves through the customer
type Passport struct {
	ID             uint           `json:"id" gorm:"primaryKey"`
	CustomerID     uint           `json:"customer_id" gorm:"index;not null"`
	PassportNumber string         `json:"passport_number" gorm:"type:varchar(50);uniqueIndex;not null"`
	IssuingCountry string         `json:"issuing_country" gorm:"type:varchar(100)"`
	IssueDate      Date           `json:"issue_date" gorm:"type:date"`
	ExpiryDate     Date           `json:"expiry_date" gorm:"type:date"`
	Status         PassportStatus `json:"status" gorm:"type:varchar(20);default:'valid'"`
	Notes          string         `json:"notes,omitempty" gorm:"type:text"`
	CreatedBy      uint           `json:"created_by"`
	UpdatedBy      uint           `json:"updated_by"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `json:"-" gorm:"index"`

	Customer   Customer            `json:"customer,omitempty" gorm:"foreignKey:CustomerID"`
	Extensions []PassportExtension `json:"extensions,omitempty" gorm:"foreignKey:PassportID"`
}

// IsExpired reports whether the passport's expiry date has passed
func (p *Passport) IsExpired(today Date) bool {
	return p.ExpiryDate.Before(today)
}

// PassportExtension is a renewal application against a passport. Creating one
// puts the passport in_process; completing it (setting the released date)
// restores the passport to valid and pushes its expiry out by the extension
// duration.
type PassportExtension struct {
	ID           uint           `json:"id" gorm:"primaryKey"`
	PassportID   uint           `json:"passport_id" gorm:"index;not null"`
	Duration     int            `json:"duration" gorm:"not null;default:6"` // months: 1, 3, 6, 12, 24
	Cost         float64        `json:"cost" gorm:"type:decimal(10,2)"`
	ApplyDate    Date           `json:"apply_date" gorm:"type:date"`
	ReleasedDate *Date          `json:"released_date,omitempty" gorm:"type:date"`
	PickedBy     string         `json:"picked_by,omitempty" gorm:"type:varchar(100)"`
	HandedByID   *uint          `json:"handed_by_id,omitempty"`
	Notes        string         `json:"notes,omitempty" gorm:"type:text"`
	CreatedBy    uint           `json:"created_by"`
	UpdatedBy    uint           `json:"updated_by"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `json:"-" gorm:"index"`

	Passport Passport `json:"passport,omitempty" gorm:"foreignKey:PassportID"`
}

// IsCompleted reports whether the extension has been released
func (e *PassportExtension) IsCompleted() bool {
	return e.ReleasedDate != nil
}

// ValidDurations are the extension lengths the original service sells
var ValidDurations = []int{1, 3, 6, 12, 24}

// ValidDuration reports whether months is an allowed extension length
func ValidDuration(months int) bool {
	for _, d := range ValidDurations {
		if d == months {
			return true
		}
	}
	return false
}

// Complete marks the extension released and applies the side effects to the
// passport: status back to valid, expiry pushed to released date + duration.
// The passport must be saved by the caller in the same transaction.
func (e *PassportExtension) Complete(passport *Passport, releasedDate Date) error {
	if e.IsCompleted() {
		return ErrExtensionCompleted
	}

	e.ReleasedDate = &releasedDate
	passport.Status = PassportValid
	passport.ExpiryDate = releasedDate.AddMonths(e.Duration)
	return nil
}
