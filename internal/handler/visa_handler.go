package handler

import (
	"errors"
	"strconv"

	"datapro-service/internal/bulk"
	"datapro-service/internal/crud"
	"datapro-service/internal/event"
	"datapro-service/internal/model"
	"datapro-service/internal/tenancy"
	"datapro-service/prometheus"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

// Visas is the CRUD resource for visa applications. Cost and status
// derivation lives on the model and runs on every save.
var Visas = &crud.Resource[model.Visa]{
	Name:         "visa",
	Searchable:   []string{"visas.visa_number", "visas.issuing_country"},
	Filterable:   []string{"status", "visa_type"},
	Scope:        tenancy.ViaCustomer("visas"),
	DefaultOrder: "visas.created_at DESC",
	Validate:     validateVisa,
	BeforeSave: func(tx *gorm.DB, actor *tenancy.Actor, visa *model.Visa, op crud.Op) error {
		if op == crud.OpUpdate {
			var current model.Visa
			if err := tx.Select("status").First(&current, visa.ID).Error; err != nil {
				return err
			}
			visa.PreviousStatus = current.Status
		}
		return nil
	},
	AfterCommit: func(op crud.Op, actor *tenancy.Actor, visa *model.Visa) {
		prometheus.RecordEntityOperation("visa", string(op))
		if op == crud.OpDelete {
			return
		}
		if visa.Status != visa.PreviousStatus {
			event.Publish(event.VisaStatusChanged, visa)
		}
	},
}

func validateVisa(db *gorm.DB, actor *tenancy.Actor, visa *model.Visa, op crud.Op) error {
	if visa.VisaNumber == "" {
		return crud.Invalid("visa_number", "visa number is required")
	}
	if visa.CustomerID == 0 {
		return crud.Invalid("customer_id", "customer is required")
	}
	if _, err := customerInScope(db, actor, visa.CustomerID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return crud.Invalid("customer_id", "customer not found: %d", visa.CustomerID)
		}
		return err
	}
	if visa.PassportID != nil {
		var passport model.Passport
		if err := db.Select("customer_id").First(&passport, *visa.PassportID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return crud.Invalid("passport_id", "passport not found: %d", *visa.PassportID)
			}
			return err
		}
		if passport.CustomerID != visa.CustomerID {
			return crud.Invalid("passport_id", "passport belongs to a different customer")
		}
	}
	if !visa.IssueDate.IsZero() && !visa.ExpiryDate.IsZero() {
		if !visa.ExpiryDate.After(visa.IssueDate) {
			return crud.Invalid("expiry_date", "expiry date must be after issue date")
		}
		if visa.DurationDays == 0 {
			visa.DurationDays = visa.IssueDate.DaysUntil(visa.ExpiryDate)
		}
	}
	if visa.UnitCost < 0 || visa.ServiceFee < 0 {
		return crud.Invalid("unit_cost", "costs cannot be negative")
	}
	if visa.Status == "" {
		visa.Status = model.VisaProcessing
	}
	switch visa.Status {
	case model.VisaProcessing, model.VisaApproved, model.VisaRejected,
		model.VisaIssued, model.VisaExpired, model.VisaReleased:
	default:
		return crud.Invalid("status", "unknown status: %s", visa.Status)
	}

	unique, err := uniqueColumn(db, &model.Visa{}, "visa_number", visa.VisaNumber, visa.ID)
	if err != nil {
		return err
	}
	if !unique {
		return crud.Invalid("visa_number", "visa number already registered: %s", visa.VisaNumber)
	}
	return nil
}

// visaSpec maps visas to tabular rows for bulk transfer
var visaSpec = &bulk.Spec[model.Visa]{
	Entity: "visas",
	Headers: []string{
		"id", "customer_id", "passport_id", "visa_type", "visa_number",
		"issuing_country", "issue_date", "expiry_date", "duration_days",
		"unit_cost", "service_fee", "total_cost", "status",
	},
	Row: func(visa *model.Visa) []string {
		return []string{
			strconv.FormatUint(uint64(visa.ID), 10),
			strconv.FormatUint(uint64(visa.CustomerID), 10),
			bulk.FormatFK(visa.PassportID),
			string(visa.VisaType),
			visa.VisaNumber,
			visa.IssuingCountry,
			bulk.FormatDate(visa.IssueDate),
			bulk.FormatDate(visa.ExpiryDate),
			strconv.Itoa(visa.DurationDays),
			strconv.FormatFloat(visa.UnitCost, 'f', 2, 64),
			strconv.FormatFloat(visa.ServiceFee, 'f', 2, 64),
			strconv.FormatFloat(visa.TotalCost, 'f', 2, 64),
			string(visa.Status),
		}
	},
	FromRow: func(db *gorm.DB, actor *tenancy.Actor, row map[string]string) (*model.Visa, error) {
		visa := &model.Visa{
			VisaType:       model.VisaType(row["visa_type"]),
			VisaNumber:     row["visa_number"],
			IssuingCountry: row["issuing_country"],
			Status:         model.VisaStatus(row["status"]),
		}
		if visa.VisaNumber == "" {
			return nil, crud.Invalid("visa_number", "visa number is required")
		}

		customerID, err := bulk.ResolveFK(db, &model.Customer{}, row, "customer_id")
		if err != nil {
			return nil, err
		}
		if customerID == nil {
			return nil, crud.Invalid("customer_id", "customer not found: %s", row["customer_id"])
		}
		visa.CustomerID = *customerID
		if _, err := customerInScope(db, actor, visa.CustomerID); err != nil {
			return nil, crud.Invalid("customer_id", "customer not found: %d", visa.CustomerID)
		}

		if visa.PassportID, err = bulk.ResolveFK(db, &model.Passport{}, row, "passport_id"); err != nil {
			return nil, err
		}
		if visa.IssueDate, err = bulk.ParseDateField(row, "issue_date"); err != nil {
			return nil, err
		}
		if visa.ExpiryDate, err = bulk.ParseDateField(row, "expiry_date"); err != nil {
			return nil, err
		}
		if visa.DurationDays, err = bulk.ParseIntField(row, "duration_days"); err != nil {
			return nil, err
		}
		if visa.UnitCost, err = bulk.ParseFloatField(row, "unit_cost"); err != nil {
			return nil, err
		}
		if visa.ServiceFee, err = bulk.ParseFloatField(row, "service_fee"); err != nil {
			return nil, err
		}
		if visa.Status == "" {
			visa.Status = model.VisaProcessing
		}
		visa.CreatedBy = actor.UserID
		visa.UpdatedBy = actor.UserID
		return visa, nil
	},
}

// ExportVisas streams the actor's visas as CSV or XLSX
func ExportVisas(c echo.Context) error {
	items, _, err := scopedAll[model.Visa](c, Visas.Scope, Visas.DefaultOrder)
	if err != nil {
		return err
	}
	return exportResponse(c, visaSpec, items)
}

// ImportVisas runs the all-or-nothing visa import
func ImportVisas(c echo.Context) error {
	return importUpload(c, visaSpec)
}
