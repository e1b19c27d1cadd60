package model

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// TransportStatus is the state of a transport booking
type TransportStatus string

const (
	TransportScheduled TransportStatus = "scheduled"
	TransportInTransit TransportStatus = "in_transit"
	TransportDelivered TransportStatus = "delivered"
	TransportCancelled TransportStatus = "cancelled"
	TransportOnHold    TransportStatus = "on_hold"
)

// ErrInvalidTransition is returned when a requested status change is not in
// the transition table. The object is left unchanged.
var ErrInvalidTransition = errors.New("invalid status transition")

// transportTransitions is the full table of legal status changes.
// delivered and cancelled are terminal.
var transportTransitions = map[TransportStatus][]TransportStatus{
	TransportScheduled: {TransportInTransit, TransportCancelled, TransportOnHold},
	TransportInTransit: {TransportDelivered, TransportCancelled, TransportOnHold},
	TransportOnHold:    {TransportInTransit, TransportCancelled},
}

// TransportService is a vehicle booking for a customer
type TransportService struct {
	ID              uint            `json:"id" gorm:"primaryKey"`
	ClientID        uint            `json:"client_id" gorm:"index;not null"`
	CustomerID      uint            `json:"customer_id" gorm:"index;not null"`
	VehicleID       *uint           `json:"vehicle_id,omitempty" gorm:"index"`
	PickupLocation  string          `json:"pickup_location" gorm:"type:varchar(255)"`
	DropoffLocation string          `json:"dropoff_location" gorm:"type:varchar(255)"`
	PickupTime      time.Time       `json:"pickup_time"`
	ActualDeparture *time.Time      `json:"actual_departure,omitempty"`
	ActualArrival   *time.Time      `json:"actual_arrival,omitempty"`
	Price           float64         `json:"price" gorm:"type:decimal(10,2)"`
	Status          TransportStatus `json:"status" gorm:"type:varchar(20);default:'scheduled';index"`
	Notes           string          `json:"notes,omitempty" gorm:"type:text"`
	CreatedBy       uint            `json:"created_by"`
	UpdatedBy       uint            `json:"updated_by"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
	DeletedAt       gorm.DeletedAt  `json:"-" gorm:"index"`

	Customer Customer `json:"customer,omitempty" gorm:"foreignKey:CustomerID"`
	Vehicle  *Vehicle `json:"vehicle,omitempty" gorm:"foreignKey:VehicleID"`
}

// CanTransition reports whether the change from -> to is in the table
func CanTransition(from, to TransportStatus) bool {
	for _, next := range transportTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// TransitionTo applies a guarded status change. Entering in_transit stamps the
// actual departure; entering delivered stamps the actual arrival. An off-table
// transition returns ErrInvalidTransition and leaves the object untouched.
func (t *TransportService) TransitionTo(target TransportStatus, now time.Time) error {
	if !CanTransition(t.Status, target) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, t.Status, target)
	}

	switch target {
	case TransportInTransit:
		t.ActualDeparture = &now
	case TransportDelivered:
		t.ActualArrival = &now
	}
	t.Status = target
	return nil
}

// IsTerminal reports whether no further transitions are possible
func (t *TransportService) IsTerminal() bool {
	return len(transportTransitions[t.Status]) == 0
}
