package model

import (
	"fmt"
	"math"
	"time"

	"gorm.io/gorm"
)

// InvoiceStatus is the billing state of an invoice
type InvoiceStatus string

const (
	InvoiceDraft     InvoiceStatus = "draft"
	InvoiceSent      InvoiceStatus = "sent"
	InvoicePaid      InvoiceStatus = "paid"
	InvoiceOverdue   InvoiceStatus = "overdue"
	InvoiceCancelled InvoiceStatus = "cancelled"
)

// invoiceTransitions is the table of legal billing state changes.
// paid and cancelled are terminal.
var invoiceTransitions = map[InvoiceStatus][]InvoiceStatus{
	InvoiceDraft:   {InvoiceSent, InvoiceCancelled},
	InvoiceSent:    {InvoicePaid, InvoiceOverdue, InvoiceCancelled},
	InvoiceOverdue: {InvoicePaid, InvoiceCancelled},
}

// Invoice bills a customer of a tenant. The total is always recomputed from
// the line items, never accepted from the caller.
type Invoice struct {
	ID            uint           `json:"id" gorm:"primaryKey"`
	ClientID      uint           `json:"client_id" gorm:"index;not null"`
	CustomerID    uint           `json:"customer_id" gorm:"index;not null"`
	InvoiceNumber string         `json:"invoice_number" gorm:"type:varchar(50);uniqueIndex;not null"`
	IssueDate     Date           `json:"issue_date" gorm:"type:date"`
	DueDate       Date           `json:"due_date" gorm:"type:date"`
	Status        InvoiceStatus  `json:"status" gorm:"type:varchar(10);default:'draft'"`
	TotalAmount   float64        `json:"total_amount" gorm:"type:decimal(12,2)"`
	PaidAmount    float64        `json:"paid_amount" gorm:"type:decimal(12,2);default:0"`
	PaymentDate   *time.Time     `json:"payment_date,omitempty"`
	Notes         string         `json:"notes,omitempty" gorm:"type:text"`
	CreatedBy     uint           `json:"created_by"`
	UpdatedBy     uint           `json:"updated_by"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `json:"-" gorm:"index"`

	Customer Customer      `json:"customer,omitempty" gorm:"foreignKey:CustomerID"`
	Items    []InvoiceItem `json:"items,omitempty" gorm:"foreignKey:InvoiceID"`
}

// InvoiceItem is a single billable line on an invoice
type InvoiceItem struct {
	ID          uint    `json:"id" gorm:"primaryKey"`
	InvoiceID   uint    `json:"invoice_id" gorm:"index;not null"`
	Description string  `json:"description" gorm:"type:varchar(255)"`
	Quantity    int     `json:"quantity" gorm:"default:1"`
	UnitPrice   float64 `json:"unit_price" gorm:"type:decimal(10,2)"`
	TaxRate     float64 `json:"tax_rate" gorm:"type:decimal(5,2);default:0"` // percent
}

// Total is the line amount: quantity x unit price plus tax, rounded to cents
func (i *InvoiceItem) Total() float64 {
	return round2(float64(i.Quantity) * i.UnitPrice * (1 + i.TaxRate/100))
}

// RecomputeTotal sums the line items into the invoice total
func (inv *Invoice) RecomputeTotal() {
	var total float64
	for i := range inv.Items {
		total += inv.Items[i].Total()
	}
	inv.TotalAmount = round2(total)
}

// Transition applies a guarded billing state change. Marking paid stamps the
// payment date and settles the paid amount.
func (inv *Invoice) Transition(target InvoiceStatus, now time.Time) error {
	allowed := false
	for _, next := range invoiceTransitions[inv.Status] {
		if next == target {
			allowed = true
			break
		}
	}
	if !allowed {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, inv.Status, target)
	}

	if target == InvoicePaid {
		inv.PaymentDate = &now
		inv.PaidAmount = inv.TotalAmount
	}
	inv.Status = target
	return nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
