package model

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

// VehicleStatus is the availability state of a vehicle
type VehicleStatus string

const (
	VehicleAvailable   VehicleStatus = "available"
	VehicleInUse       VehicleStatus = "in_use"
	VehicleMaintenance VehicleStatus = "maintenance"
)

// VehicleType categorizes the fleet
type VehicleType string

const (
	VehicleCar   VehicleType = "car"
	VehicleVan   VehicleType = "van"
	VehicleBus   VehicleType = "bus"
	VehicleTruck VehicleType = "truck"
)

// Vehicle is part of a tenant's fleet
type Vehicle struct {
	ID                 uint           `json:"id" gorm:"primaryKey"`
	ClientID           uint           `json:"client_id" gorm:"index;not null"`
	Make               string         `json:"make" gorm:"type:varchar(50)"`
	Model              string         `json:"model" gorm:"type:varchar(50)"`
	Year               int            `json:"year"`
	RegistrationNumber string         `json:"registration_number" gorm:"type:varchar(20);uniqueIndex;not null"`
	VehicleType        VehicleType    `json:"vehicle_type" gorm:"type:varchar(10)"`
	Capacity           int            `json:"capacity"`
	Status             VehicleStatus  `json:"status" gorm:"type:varchar(20);default:'available'"`
	LastMaintenance    *Date          `json:"last_maintenance,omitempty" gorm:"type:date"`
	NextMaintenance    *Date          `json:"next_maintenance,omitempty" gorm:"type:date"`
	CreatedBy          uint           `json:"created_by"`
	UpdatedBy          uint           `json:"updated_by"`
	CreatedAt          time.Time      `json:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at"`
	DeletedAt          gorm.DeletedAt `json:"-" gorm:"index"`
}

// BeforeSave normalizes the registration number
func (v *Vehicle) BeforeSave(tx *gorm.DB) error {
	v.RegistrationNumber = strings.ToUpper(strings.ReplaceAll(v.RegistrationNumber, " ", ""))
	return nil
}
