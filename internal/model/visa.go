package model

import (
	"time"

	"gorm.io/gorm"
)

// VisaStatus is the processing state of a visa application
type VisaStatus string

const (
	VisaProcessing VisaStatus = "processing"
	VisaApproved   VisaStatus = "approved"
	VisaRejected   VisaStatus = "rejected"
	VisaIssued     VisaStatus = "issued"
	VisaExpired    VisaStatus = "expired"
	VisaReleased   VisaStatus = "released"
)

// VisaType categorizes the visa product
type VisaType string

const (
	VisaTourist  VisaType = "tourist"
	VisaBusiness VisaType = "business"
	VisaStudent  VisaType = "student"
	VisaWork     VisaType = "work"
)

// Visa belongs to a customer and references the passport it was issued
// against. Status is partly derived: a set released date forces released, a
// past expiry date forces expired.
type Visa struct {
	ID             uint           `json:"id" gorm:"primaryKey"`
	CustomerID     uint           `json:"customer_id" gorm:"index;not null"`
	PassportID     *uint          `json:"passport_id,omitempty" gorm:"index"`
	VisaType       VisaType       `json:"visa_type" gorm:"type:varchar(20)"`
	VisaNumber     string         `json:"visa_number" gorm:"type:varchar(50);uniqueIndex;not null"`
	IssuingCountry string         `json:"issuing_country" gorm:"type:varchar(100)"`
	IssueDate      Date           `json:"issue_date" gorm:"type:date"`
	ExpiryDate     Date           `json:"expiry_date" gorm:"type:date"`
	DurationDays   int            `json:"duration_days"`
	UnitCost       float64        `json:"unit_cost" gorm:"type:decimal(10,2)"`
	ServiceFee     float64        `json:"service_fee" gorm:"type:decimal(10,2);default:0"`
	TotalCost      float64        `json:"total_cost" gorm:"type:decimal(10,2)"`
	PaidDate       *Date          `json:"paid_date,omitempty" gorm:"type:date"`
	ReleasedDate   *Date          `json:"released_date,omitempty" gorm:"type:date"`
	PickedUpBy     string         `json:"picked_up_by,omitempty" gorm:"type:varchar(255)"`
	GivenByID      *uint          `json:"given_by_id,omitempty"`
	Status         VisaStatus     `json:"status" gorm:"type:varchar(20);default:'processing'"`
	Notes          string         `json:"notes,omitempty" gorm:"type:text"`
	CreatedBy      uint           `json:"created_by"`
	UpdatedBy      uint           `json:"updated_by"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `json:"-" gorm:"index"`

	// PreviousStatus holds the stored status before the current write, so
	// post-commit handlers can tell a real transition from a re-save.
	PreviousStatus VisaStatus `json:"-" gorm:"-"`

	Customer Customer `json:"customer,omitempty" gorm:"foreignKey:CustomerID"`
}

// Derive recomputes the derived fields from the stored ones. It is idempotent:
// applying it twice with unchanged inputs yields the same result.
func (v *Visa) Derive(today Date) {
	v.TotalCost = round2(v.UnitCost + v.ServiceFee)

	if v.ReleasedDate != nil {
		v.Status = VisaReleased
		return
	}
	if !v.ExpiryDate.IsZero() && v.ExpiryDate.Before(today) {
		v.Status = VisaExpired
	}
}

// BeforeSave keeps the derived fields consistent on every write
func (v *Visa) BeforeSave(tx *gorm.DB) error {
	v.Derive(DateOf(time.Now()))
	return nil
}
