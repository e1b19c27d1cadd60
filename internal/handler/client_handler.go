package handler

import (
	"net/http"

	"datapro-service/internal/crud"
	"datapro-service/internal/model"
	"datapro-service/internal/tenancy"
	"datapro-service/pkg/database"
	"datapro-service/prometheus"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

// Clients is the CRUD resource for tenant organizations. Tenant users see
// only their own client row; creating and deleting tenants is wired behind
// superadmin-only routes.
var Clients = &crud.Resource[model.Client]{
	Name:         "client",
	Searchable:   []string{"clients.company_name", "clients.contact_person", "clients.email"},
	Filterable:   []string{"status"},
	Scope:        tenancy.SelfClient(),
	DefaultOrder: "clients.company_name ASC",
	Validate:     validateClient,
	AfterCommit: func(op crud.Op, actor *tenancy.Actor, client *model.Client) {
		prometheus.RecordEntityOperation("client", string(op))
	},
}

func validateClient(db *gorm.DB, actor *tenancy.Actor, client *model.Client, op crud.Op) error {
	if client.CompanyName == "" {
		return crud.Invalid("company_name", "company name is required")
	}
	if client.Email != "" && !validEmail(client.Email) {
		return crud.Invalid("email", "invalid email address")
	}
	if client.Status == "" {
		client.Status = model.ClientActive
	}
	switch client.Status {
	case model.ClientActive, model.ClientInactive, model.ClientPending, model.ClientSuspended:
	default:
		return crud.Invalid("status", "unknown status: %s", client.Status)
	}

	unique, err := uniqueColumn(db, &model.Client{}, "company_name", client.CompanyName, client.ID)
	if err != nil {
		return err
	}
	if !unique {
		return crud.Invalid("company_name", "company name already registered: %s", client.CompanyName)
	}

	// Only superadmins flip the verification flag
	if !actor.IsSuperAdmin() && op == crud.OpUpdate {
		var current model.Client
		if err := db.First(&current, client.ID).Error; err == nil {
			client.IsVerified = current.IsVerified
		}
	}
	return nil
}

// ClientStats reports per-tenant record counts for the dashboard
func ClientStats(c echo.Context) error {
	actor := tenancy.ActorFromEcho(c)
	if actor == nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	client, err := Clients.Fetch(c, actor)
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "client not found"})
	}

	db := database.GetDB()
	counts := echo.Map{}
	for name, mdl := range map[string]interface{}{
		"customers": &model.Customer{},
		"users":     &model.User{},
		"vehicles":  &model.Vehicle{},
		"invoices":  &model.Invoice{},
	} {
		var n int64
		if err := db.Model(mdl).Where("client_id = ?", client.ID).Count(&n).Error; err != nil {
			return err
		}
		counts[name] = n
	}
	return c.JSON(http.StatusOK, echo.Map{
		"client_id":    client.ID,
		"company_name": client.CompanyName,
		"counts":       counts,
	})
}
