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

// Passports is the CRUD resource for customer passports. Tenant scope
// resolves through the owning customer.
var Passports = &crud.Resource[model.Passport]{
	Name:         "passport",
	Searchable:   []string{"passports.passport_number", "passports.issuing_country"},
	Filterable:   []string{"status"},
	Scope:        tenancy.ViaCustomer("passports"),
	DefaultOrder: "passports.expiry_date ASC",
	Validate:     validatePassport,
	AfterCommit: func(op crud.Op, actor *tenancy.Actor, passport *model.Passport) {
		prometheus.RecordEntityOperation("passport", string(op))
	},
}

func validatePassport(db *gorm.DB, actor *tenancy.Actor, passport *model.Passport, op crud.Op) error {
	if passport.PassportNumber == "" {
		return crud.Invalid("passport_number", "passport number is required")
	}
	if passport.CustomerID == 0 {
		return crud.Invalid("customer_id", "customer is required")
	}
	if _, err := customerInScope(db, actor, passport.CustomerID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return crud.Invalid("customer_id", "customer not found: %d", passport.CustomerID)
		}
		return err
	}
	if !passport.IssueDate.IsZero() && !passport.ExpiryDate.IsZero() &&
		passport.ExpiryDate.Before(passport.IssueDate) {
		return crud.Invalid("expiry_date", "expiry date must be after issue date")
	}
	if passport.Status == "" {
		passport.Status = model.PassportValid
	}
	switch passport.Status {
	case model.PassportValid, model.PassportExpired, model.PassportLost, model.PassportInProcess:
	default:
		return crud.Invalid("status", "unknown status: %s", passport.Status)
	}

	unique, err := uniqueColumn(db, &model.Passport{}, "passport_number", passport.PassportNumber, passport.ID)
	if err != nil {
		return err
	}
	if !unique {
		return crud.Invalid("passport_number", "passport number already registered: %s", passport.PassportNumber)
	}
	return nil
}

// PassportExtensions is the CRUD resource for passport renewal applications.
// Creating one moves the referenced passport to in_process.
var PassportExtensions = &crud.Resource[model.PassportExtension]{
	Name:         "passport_extension",
	Filterable:   []string{"passport_id"},
	Scope:        tenancy.ViaPassport("passport_extensions"),
	DefaultOrder: "passport_extensions.apply_date DESC",
	Validate:     validateExtension,
	BeforeSave: func(tx *gorm.DB, actor *tenancy.Actor, ext *model.PassportExtension, op crud.Op) error {
		if op != crud.OpCreate {
			return nil
		}
		return tx.Model(&model.Passport{}).
			Where("id = ?", ext.PassportID).
			Update("status", model.PassportInProcess).Error
	},
	AfterCommit: func(op crud.Op, actor *tenancy.Actor, ext *model.PassportExtension) {
		prometheus.RecordEntityOperation("passport_extension", string(op))
	},
}

func validateExtension(db *gorm.DB, actor *tenancy.Actor, ext *model.PassportExtension, op crud.Op) error {
	if ext.PassportID == 0 {
		return crud.Invalid("passport_id", "passport is required")
	}
	var passport model.Passport
	query := tenancy.ViaCustomer("passports")(db.Model(&model.Passport{}), actor)
	if err := query.First(&passport, ext.PassportID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return crud.Invalid("passport_id", "passport not found: %d", ext.PassportID)
		}
		return err
	}
	if ext.Duration == 0 {
		ext.Duration = 6
	}
	if !model.ValidDuration(ext.Duration) {
		return crud.Invalid("duration", "duration must be one of %v months", model.ValidDurations)
	}
	if ext.Cost < 0 {
		return crud.Invalid("cost", "cost cannot be negative")
	}
	if op == crud.OpCreate && ext.ApplyDate.IsZero() {
		ext.ApplyDate = model.DateOf(time.Now())
	}
	// A released extension is frozen; reopening it would rewrite passport
	// history.
	if op == crud.OpUpdate {
		var current model.PassportExtension
		if err := db.First(&current, ext.ID).Error; err != nil {
			return err
		}
		if current.IsCompleted() {
			return crud.Invalid("released_date", "extension is already completed")
		}
		// completion goes through the dedicated action, not a field edit
		ext.ReleasedDate = nil
	}
	return nil
}

type completeExtensionRequest struct {
	ReleasedDate model.Date `json:"released_date"`
	PickedBy     string     `json:"picked_by"`
}

// CompleteExtension handles POST /passport-extensions/:id/complete. It stamps
// the released date and applies the passport side effects in one transaction.
func CompleteExtension(c echo.Context) error {
	actor := tenancy.ActorFromEcho(c)
	if actor == nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}
	if !actor.CanWrite() {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "permission denied"})
	}

	ext, err := PassportExtensions.Fetch(c, actor)
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "passport extension not found"})
	}

	var req completeExtensionRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	released := req.ReleasedDate
	if released.IsZero() {
		released = model.DateOf(time.Now())
	}

	db := database.GetDB()
	if err := tenancy.Authorize(db, actor, ext); err != nil {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "permission denied"})
	}

	var passport model.Passport
	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&passport, ext.PassportID).Error; err != nil {
			return err
		}
		if err := ext.Complete(&passport, released); err != nil {
			return err
		}
		if req.PickedBy != "" {
			ext.PickedBy = req.PickedBy
		}
		ext.UpdatedBy = actor.UserID
		if err := tx.Save(ext).Error; err != nil {
			return err
		}
		if err := tx.Save(&passport).Error; err != nil {
			return err
		}
		audit.Record(tx, actor.UserID, "passport_extension", ext.ID, "passport_extension_complete", "", c.RealIP())
		return nil
	})
	if err != nil {
		if errors.Is(err, model.ErrExtensionCompleted) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
		}
		logger.FromContext(c).Error("extension completion failed",
			zap.Uint("extension_id", ext.ID),
			zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}

	event.Publish(event.ExtensionCompleted, ext)
	prometheus.RecordEntityOperation("passport_extension", "complete")
	return c.JSON(http.StatusOK, echo.Map{
		"extension": ext,
		"passport":  passport,
	})
}
