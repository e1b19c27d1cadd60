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

// Invoices is the CRUD resource for billing. Line items are saved with the
// invoice; the total is always recomputed server-side.
var Invoices = &crud.Resource[model.Invoice]{
	Name:             "invoice",
	Searchable:       []string{"invoices.invoice_number"},
	Filterable:       []string{"status", "customer_id"},
	Scope:            tenancy.Direct("invoices"),
	DefaultOrder:     "invoices.issue_date DESC",
	SaveAssociations: true,
	Preload:          []string{"Items"},
	Validate:         validateInvoice,
	BeforeSave: func(tx *gorm.DB, actor *tenancy.Actor, invoice *model.Invoice, op crud.Op) error {
		if op == crud.OpUpdate {
			// replace, not merge: the payload's item list is the whole list
			if err := tx.Where("invoice_id = ?", invoice.ID).
				Delete(&model.InvoiceItem{}).Error; err != nil {
				return err
			}
			for i := range invoice.Items {
				invoice.Items[i].ID = 0
				invoice.Items[i].InvoiceID = invoice.ID
			}
		}
		invoice.RecomputeTotal()
		return nil
	},
	AfterCommit: func(op crud.Op, actor *tenancy.Actor, invoice *model.Invoice) {
		prometheus.RecordEntityOperation("invoice", string(op))
	},
}

func validateInvoice(db *gorm.DB, actor *tenancy.Actor, invoice *model.Invoice, op crud.Op) error {
	forceTenant(actor, &invoice.ClientID)

	if invoice.InvoiceNumber == "" {
		return crud.Invalid("invoice_number", "invoice number is required")
	}
	if invoice.CustomerID == 0 {
		return crud.Invalid("customer_id", "customer is required")
	}
	customer, err := customerInScope(db, actor, invoice.CustomerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return crud.Invalid("customer_id", "customer not found: %d", invoice.CustomerID)
		}
		return err
	}
	if invoice.ClientID == 0 {
		invoice.ClientID = customer.ClientID
	}
	if invoice.ClientID != customer.ClientID {
		return crud.Invalid("customer_id", "customer belongs to a different client")
	}

	if invoice.IssueDate.IsZero() {
		invoice.IssueDate = model.DateOf(time.Now())
	}
	if invoice.DueDate.IsZero() {
		invoice.DueDate = invoice.IssueDate
	}
	if invoice.DueDate.Before(invoice.IssueDate) {
		return crud.Invalid("due_date", "due date cannot precede issue date")
	}

	for i := range invoice.Items {
		item := &invoice.Items[i]
		if item.Quantity <= 0 || item.UnitPrice <= 0 {
			return crud.Invalid("items", "item %d: quantity and unit price must be positive", i+1)
		}
		if item.TaxRate < 0 {
			return crud.Invalid("items", "item %d: tax rate cannot be negative", i+1)
		}
	}

	if op == crud.OpCreate {
		invoice.Status = model.InvoiceDraft
		invoice.PaidAmount = 0
		invoice.PaymentDate = nil
	} else {
		// status moves through the transition endpoint only
		var current model.Invoice
		if err := db.First(&current, invoice.ID).Error; err != nil {
			return err
		}
		invoice.Status = current.Status
		invoice.PaidAmount = current.PaidAmount
		invoice.PaymentDate = current.PaymentDate
	}

	unique, err := uniqueColumn(db, &model.Invoice{}, "invoice_number", invoice.InvoiceNumber, invoice.ID)
	if err != nil {
		return err
	}
	if !unique {
		return crud.Invalid("invoice_number", "invoice number already registered: %s", invoice.InvoiceNumber)
	}
	return nil
}

type invoiceStatusRequest struct {
	Status model.InvoiceStatus `json:"status"`
}

// InvoiceTransition handles POST /invoices/:id/status. Marking paid stamps
// the payment date and settles the paid amount.
func InvoiceTransition(c echo.Context) error {
	actor := tenancy.ActorFromEcho(c)
	if actor == nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}
	if !actor.CanWrite() {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "permission denied"})
	}

	var req invoiceStatusRequest
	if err := c.Bind(&req); err != nil || req.Status == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "status is required"})
	}
	return applyInvoiceTransition(c, actor, req.Status)
}

// MarkInvoicePaid handles POST /invoices/:id/pay
func MarkInvoicePaid(c echo.Context) error {
	actor := tenancy.ActorFromEcho(c)
	if actor == nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}
	if !actor.CanWrite() {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "permission denied"})
	}
	return applyInvoiceTransition(c, actor, model.InvoicePaid)
}

func applyInvoiceTransition(c echo.Context, actor *tenancy.Actor, target model.InvoiceStatus) error {
	invoice, err := Invoices.Fetch(c, actor)
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "invoice not found"})
	}

	db := database.GetDB()
	if err := tenancy.Authorize(db, actor, invoice); err != nil {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "permission denied"})
	}

	from := invoice.Status
	if err := invoice.Transition(target, time.Now()); err != nil {
		prometheus.InvalidTransitionCounter.WithLabelValues("invoice").Inc()
		return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
	}
	invoice.UpdatedBy = actor.UserID

	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Customer", "Items").Save(invoice).Error; err != nil {
			return err
		}
		audit.Record(tx, actor.UserID, "invoice", invoice.ID,
			"invoice_status_change", string(from)+" -> "+string(target), c.RealIP())
		return nil
	})
	if err != nil {
		logger.FromContext(c).Error("invoice transition failed",
			zap.Uint("invoice_id", invoice.ID),
			zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}

	switch target {
	case model.InvoiceSent:
		event.Publish(event.InvoiceSent, invoice)
	case model.InvoicePaid:
		event.Publish(event.InvoicePaid, invoice)
	}
	prometheus.RecordEntityOperation("invoice", "status_change")
	return c.JSON(http.StatusOK, invoice)
}

// OverdueSweep handles POST /invoices/overdue-sweep: every sent invoice whose
// due date has passed flips to overdue. Superadmin runs it across tenants;
// tenant admins sweep their own book.
func OverdueSweep(c echo.Context) error {
	actor := tenancy.ActorFromEcho(c)
	if actor == nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}
	if !actor.CanWrite() {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "permission denied"})
	}

	db := database.GetDB()
	today := model.DateOf(time.Now())

	var candidates []model.Invoice
	query := Invoices.Scope(db.Model(&model.Invoice{}), actor)
	if err := query.Where("status = ? AND due_date < ?", model.InvoiceSent, today).
		Find(&candidates).Error; err != nil {
		return internalListError(c, "invoice", err)
	}

	flipped := 0
	err := db.Transaction(func(tx *gorm.DB) error {
		for i := range candidates {
			invoice := &candidates[i]
			if err := invoice.Transition(model.InvoiceOverdue, time.Now()); err != nil {
				continue
			}
			invoice.UpdatedBy = actor.UserID
			if err := tx.Omit("Customer", "Items").Save(invoice).Error; err != nil {
				return err
			}
			audit.Record(tx, actor.UserID, "invoice", invoice.ID,
				"invoice_status_change", "sent -> overdue", c.RealIP())
			flipped++
		}
		return nil
	})
	if err != nil {
		return internalListError(c, "invoice", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"overdue": flipped})
}
