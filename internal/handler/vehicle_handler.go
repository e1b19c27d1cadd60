package handler

import (
	"net/http"
	"strconv"
	"time"

	"datapro-service/internal/audit"
	"datapro-service/internal/bulk"
	"datapro-service/internal/crud"
	"datapro-service/internal/model"
	"datapro-service/internal/tenancy"
	"datapro-service/pkg/database"
	"datapro-service/prometheus"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

// Vehicles is the CRUD resource for the tenant fleet
var Vehicles = &crud.Resource[model.Vehicle]{
	Name:         "vehicle",
	Searchable:   []string{"vehicles.registration_number", "vehicles.make", "vehicles.model"},
	Filterable:   []string{"status", "vehicle_type"},
	Scope:        tenancy.Direct("vehicles"),
	DefaultOrder: "vehicles.registration_number ASC",
	Validate:     validateVehicle,
	AfterCommit: func(op crud.Op, actor *tenancy.Actor, vehicle *model.Vehicle) {
		prometheus.RecordEntityOperation("vehicle", string(op))
	},
}

func validateVehicle(db *gorm.DB, actor *tenancy.Actor, vehicle *model.Vehicle, op crud.Op) error {
	forceTenant(actor, &vehicle.ClientID)

	if vehicle.RegistrationNumber == "" {
		return crud.Invalid("registration_number", "registration number is required")
	}
	if vehicle.ClientID == 0 {
		return crud.Invalid("client_id", "client is required")
	}
	if vehicle.Capacity < 0 {
		return crud.Invalid("capacity", "capacity cannot be negative")
	}
	if vehicle.Status == "" {
		vehicle.Status = model.VehicleAvailable
	}
	switch vehicle.Status {
	case model.VehicleAvailable, model.VehicleInUse, model.VehicleMaintenance:
	default:
		return crud.Invalid("status", "unknown status: %s", vehicle.Status)
	}

	unique, err := uniqueColumn(db, &model.Vehicle{}, "registration_number",
		normalizedRegistration(vehicle.RegistrationNumber), vehicle.ID)
	if err != nil {
		return err
	}
	if !unique {
		return crud.Invalid("registration_number", "registration number already registered: %s", vehicle.RegistrationNumber)
	}
	return nil
}

func normalizedRegistration(reg string) string {
	v := model.Vehicle{RegistrationNumber: reg}
	_ = v.BeforeSave(nil)
	return v.RegistrationNumber
}

type maintenanceRequest struct {
	NextMaintenance *model.Date `json:"next_maintenance"`
	Done            bool        `json:"done"`
}

// SetMaintenance handles POST /vehicles/:id/maintenance. It parks the vehicle
// for maintenance; {"done": true} returns it to service and stamps the
// maintenance dates.
func SetMaintenance(c echo.Context) error {
	actor := tenancy.ActorFromEcho(c)
	if actor == nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}
	if !actor.CanWrite() {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "permission denied"})
	}

	vehicle, err := Vehicles.Fetch(c, actor)
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "vehicle not found"})
	}

	var req maintenanceRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}

	db := database.GetDB()
	if err := tenancy.Authorize(db, actor, vehicle); err != nil {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "permission denied"})
	}

	today := model.DateOf(time.Now())
	action := "vehicle_maintenance_start"
	if req.Done {
		vehicle.Status = model.VehicleAvailable
		vehicle.LastMaintenance = &today
		vehicle.NextMaintenance = req.NextMaintenance
		action = "vehicle_maintenance_done"
	} else {
		vehicle.Status = model.VehicleMaintenance
		if req.NextMaintenance != nil {
			vehicle.NextMaintenance = req.NextMaintenance
		}
	}
	vehicle.UpdatedBy = actor.UserID

	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(vehicle).Error; err != nil {
			return err
		}
		audit.Record(tx, actor.UserID, "vehicle", vehicle.ID, action, string(vehicle.Status), c.RealIP())
		return nil
	})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
	prometheus.RecordEntityOperation("vehicle", "maintenance")
	return c.JSON(http.StatusOK, vehicle)
}

// vehicleSpec maps vehicles to tabular rows for bulk transfer
var vehicleSpec = &bulk.Spec[model.Vehicle]{
	Entity: "vehicles",
	Headers: []string{
		"id", "client_id", "make", "model", "year", "registration_number",
		"vehicle_type", "capacity", "status",
	},
	Row: func(vehicle *model.Vehicle) []string {
		return []string{
			strconv.FormatUint(uint64(vehicle.ID), 10),
			strconv.FormatUint(uint64(vehicle.ClientID), 10),
			vehicle.Make,
			vehicle.Model,
			strconv.Itoa(vehicle.Year),
			vehicle.RegistrationNumber,
			string(vehicle.VehicleType),
			strconv.Itoa(vehicle.Capacity),
			string(vehicle.Status),
		}
	},
	FromRow: func(db *gorm.DB, actor *tenancy.Actor, row map[string]string) (*model.Vehicle, error) {
		vehicle := &model.Vehicle{
			Make:               row["make"],
			Model:              row["model"],
			RegistrationNumber: row["registration_number"],
			VehicleType:        model.VehicleType(row["vehicle_type"]),
			Status:             model.VehicleStatus(row["status"]),
		}
		if vehicle.RegistrationNumber == "" {
			return nil, crud.Invalid("registration_number", "registration number is required")
		}

		var err error
		if vehicle.Year, err = bulk.ParseIntField(row, "year"); err != nil {
			return nil, err
		}
		if vehicle.Capacity, err = bulk.ParseIntField(row, "capacity"); err != nil {
			return nil, err
		}
		if clientID, err := bulk.ResolveFK(db, &model.Client{}, row, "client_id"); err != nil {
			return nil, err
		} else if clientID != nil {
			vehicle.ClientID = *clientID
		}
		forceTenant(actor, &vehicle.ClientID)
		if vehicle.Status == "" {
			vehicle.Status = model.VehicleAvailable
		}
		vehicle.CreatedBy = actor.UserID
		vehicle.UpdatedBy = actor.UserID
		return vehicle, nil
	},
}

// ExportVehicles streams the actor's fleet as CSV or XLSX
func ExportVehicles(c echo.Context) error {
	items, _, err := scopedAll[model.Vehicle](c, Vehicles.Scope, Vehicles.DefaultOrder)
	if err != nil {
		return err
	}
	return exportResponse(c, vehicleSpec, items)
}

// ImportVehicles runs the all-or-nothing vehicle import
func ImportVehicles(c echo.Context) error {
	return importUpload(c, vehicleSpec)
}
