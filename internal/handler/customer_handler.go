package handler

import (
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

// Customers is the CRUD resource for tenant customers
var Customers = &crud.Resource[model.Customer]{
	Name:         "customer",
	Searchable:   []string{"customers.first_name", "customers.last_name", "customers.email"},
	Filterable:   []string{"status"},
	Scope:        tenancy.Direct("customers"),
	DefaultOrder: "customers.created_at DESC",
	Validate:     validateCustomer,
	AfterCommit: func(op crud.Op, actor *tenancy.Actor, customer *model.Customer) {
		prometheus.RecordEntityOperation("customer", string(op))
		if op == crud.OpCreate {
			event.Publish(event.CustomerCreated, customer)
		}
	},
}

func validateCustomer(db *gorm.DB, actor *tenancy.Actor, customer *model.Customer, op crud.Op) error {
	forceTenant(actor, &customer.ClientID)

	if customer.FirstName == "" {
		return crud.Invalid("first_name", "first name is required")
	}
	if customer.LastName == "" {
		return crud.Invalid("last_name", "last name is required")
	}
	if customer.Email != "" && !validEmail(customer.Email) {
		return crud.Invalid("email", "invalid email address")
	}
	if customer.ClientID == 0 {
		return crud.Invalid("client_id", "client is required")
	}
	if customer.Status == "" {
		customer.Status = model.CustomerActive
	}
	return nil
}

// customerSpec maps customers to tabular rows for bulk transfer
var customerSpec = &bulk.Spec[model.Customer]{
	Entity: "customers",
	Headers: []string{
		"id", "client_id", "first_name", "last_name", "email",
		"phone", "address", "date_of_birth", "nationality", "status",
	},
	Row: func(customer *model.Customer) []string {
		return []string{
			strconv.FormatUint(uint64(customer.ID), 10),
			strconv.FormatUint(uint64(customer.ClientID), 10),
			customer.FirstName,
			customer.LastName,
			customer.Email,
			customer.Phone,
			customer.Address,
			bulk.FormatDatePtr(customer.DateOfBirth),
			customer.Nationality,
			string(customer.Status),
		}
	},
	FromRow: func(db *gorm.DB, actor *tenancy.Actor, row map[string]string) (*model.Customer, error) {
		customer := &model.Customer{
			FirstName:   row["first_name"],
			LastName:    row["last_name"],
			Email:       row["email"],
			Phone:       row["phone"],
			Address:     row["address"],
			Nationality: row["nationality"],
			Status:      model.CustomerStatus(row["status"]),
		}

		dob, err := bulk.ParseDatePtrField(row, "date_of_birth")
		if err != nil {
			return nil, err
		}
		customer.DateOfBirth = dob

		if clientID, err := bulk.ResolveFK(db, &model.Client{}, row, "client_id"); err != nil {
			return nil, err
		} else if clientID != nil {
			customer.ClientID = *clientID
		}
		forceTenant(actor, &customer.ClientID)

		if customer.FirstName == "" {
			return nil, crud.Invalid("first_name", "first name is required")
		}
		if customer.Email != "" && !validEmail(customer.Email) {
			return nil, crud.Invalid("email", "invalid email address: %s", customer.Email)
		}
		if customer.Status == "" {
			customer.Status = model.CustomerActive
		}
		customer.CreatedBy = actor.UserID
		customer.UpdatedBy = actor.UserID
		return customer, nil
	},
}

// ExportCustomers streams the actor's customers as CSV or XLSX
func ExportCustomers(c echo.Context) error {
	items, _, err := scopedAll[model.Customer](c, Customers.Scope, Customers.DefaultOrder)
	if err != nil {
		return err
	}
	return exportResponse(c, customerSpec, items)
}

// ImportCustomers runs the all-or-nothing customer import
func ImportCustomers(c echo.Context) error {
	return importUpload(c, customerSpec)
}
