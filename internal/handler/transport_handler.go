package handler

import (
	"errors"
	"net/http"
	"time"

	"datapro-service/internal/audit"
	"datapro-service/internal/crud"
	"datapro-service/internal/event"
	"datapro-service/internal/model"
	"datapro-service/internal/tenancy"
	"datapro-service/pkg/database"
	"datapro-service/pkg/logger"
	"datapro-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Transports is the CRUD resource for transport bookings. Status changes go
// through the dedicated transition action, not through update.
var Transports = &crud.Resource[model.TransportService]{
	Name:         "transport_service",
	Searchable:   []string{"transport_services.pickup_location", "transport_services.dropoff_location"},
	Filterable:   []string{"status", "customer_id", "vehicle_id"},
	Scope:        tenancy.Direct("transport_services"),
	DefaultOrder: "transport_services.pickup_time DESC",
	Validate:     validateTransport,
	AfterCommit: func(op crud.Op, actor *tenancy.Actor, transport *model.TransportService) {
		prometheus.RecordEntityOperation("transport_service", string(op))
	},
}

func validateTransport(db *gorm.DB, actor *tenancy.Actor, transport *model.TransportService, op crud.Op) error {
	forceTenant(actor, &transport.ClientID)

	if transport.CustomerID == 0 {
		return crud.Invalid("customer_id", "customer is required")
	}
	customer, err := customerInScope(db, actor, transport.CustomerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return crud.Invalid("customer_id", "customer not found: %d", transport.CustomerID)
		}
		return err
	}
	if transport.ClientID == 0 {
		transport.ClientID = customer.ClientID
	}
	if transport.ClientID != customer.ClientID {
		return crud.Invalid("customer_id", "customer belongs to a different client")
	}

	if transport.VehicleID != nil {
		var vehicle model.Vehicle
		query := tenancy.Direct("vehicles")(db.Model(&model.Vehicle{}), actor)
		if err := query.First(&vehicle, *transport.VehicleID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return crud.Invalid("vehicle_id", "vehicle not found: %d", *transport.VehicleID)
			}
			return err
		}
		if vehicle.ClientID != transport.ClientID {
			return crud.Invalid("vehicle_id", "vehicle belongs to a different client")
		}
	}
	if transport.PickupLocation == "" || transport.DropoffLocation == "" {
		return crud.Invalid("pickup_location", "pickup and dropoff locations are required")
	}
	if transport.Price < 0 {
		return crud.Invalid("price", "price cannot be negative")
	}

	if op == crud.OpCreate {
		transport.Status = model.TransportScheduled
		transport.ActualDeparture = nil
		transport.ActualArrival = nil
		return nil
	}

	// Update never changes the status or the stamped timestamps; the
	// transition endpoint owns those.
	var current model.TransportService
	if err := db.First(&current, transport.ID).Error; err != nil {
		return err
	}
	transport.Status = current.Status
	transport.ActualDeparture = current.ActualDeparture
	transport.ActualArrival = current.ActualArrival
	return nil
}

type transportStatusRequest struct {
	Status model.TransportStatus `json:"status"`
}

// TransportTransition handles POST /transport-services/:id/status. Off-table
// transitions leave the booking untouched and report the failure.
func TransportTransition(c echo.Context) error {
	actor := tenancy.ActorFromEcho(c)
	if actor == nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}
	if !actor.CanWrite() {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "permission denied"})
	}

	transport, err := Transports.Fetch(c, actor)
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "transport service not found"})
	}

	var req transportStatusRequest
	if err := c.Bind(&req); err != nil || req.Status == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "status is required"})
	}

	db := database.GetDB()
	if err := tenancy.Authorize(db, actor, transport); err != nil {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "permission denied"})
	}

	from := transport.Status
	if err := transport.TransitionTo(req.Status, time.Now()); err != nil {
		prometheus.InvalidTransitionCounter.WithLabelValues("transport_service").Inc()
		return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
	}
	transport.UpdatedBy = actor.UserID

	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Customer", "Vehicle").Save(transport).Error; err != nil {
			return err
		}
		audit.Record(tx, actor.UserID, "transport_service", transport.ID,
			"transport_status_change", string(from)+" -> "+string(req.Status), c.RealIP())
		return nil
	})
	if err != nil {
		logger.FromContext(c).Error("transport transition failed",
			zap.Uint("transport_id", transport.ID),
			zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}

	event.Publish(event.TransportStatusChanged, transport)
	prometheus.RecordEntityOperation("transport_service", "status_change")
	return c.JSON(http.StatusOK, transport)
}

// ActiveTransports handles GET /transport-services/active: bookings that are
// on the road or waiting to go.
func ActiveTransports(c echo.Context) error {
	return transportsByStatus(c, []model.TransportStatus{
		model.TransportScheduled, model.TransportInTransit, model.TransportOnHold,
	})
}

// CompletedTransports handles GET /transport-services/completed
func CompletedTransports(c echo.Context) error {
	return transportsByStatus(c, []model.TransportStatus{
		model.TransportDelivered, model.TransportCancelled,
	})
}

func transportsByStatus(c echo.Context, statuses []model.TransportStatus) error {
	actor := tenancy.ActorFromEcho(c)
	if actor == nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	var items []model.TransportService
	query := Transports.Scope(database.GetDB().Model(&model.TransportService{}), actor)
	if err := query.Where("status IN ?", statuses).
		Order(Transports.DefaultOrder).
		Find(&items).Error; err != nil {
		return internalListError(c, "transport_service", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items, "total": len(items)})
}

func internalListError(c echo.Context, entity string, err error) error {
	logger.FromContext(c).Error("database operation failed",
		zap.String("entity", entity),
		zap.Error(err))
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
}
