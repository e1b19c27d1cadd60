package tenancy

import (
	"fmt"

	"datapro-service/internal/model"

	"gorm.io/gorm"
)

// ScopeFunc narrows a query to the rows the actor is authorized to see.
// A non-superadmin with no tenant assignment gets an always-empty result,
// never an error.
type ScopeFunc func(db *gorm.DB, actor *Actor) *gorm.DB

// emptyResult is a condition no row satisfies. Used for tenant-less actors.
func emptyResult(db *gorm.DB) *gorm.DB {
	return db.Where("1 = 0")
}

// Unscoped passes every row through. Only for resources that are not tenant
// data, such as the audit log behind a superadmin-only route.
func Unscoped() ScopeFunc {
	return func(db *gorm.DB, actor *Actor) *gorm.DB {
		return db
	}
}

// Direct scopes by the client_id column on the entity's own table
func Direct(table string) ScopeFunc {
	return func(db *gorm.DB, actor *Actor) *gorm.DB {
		if actor.IsSuperAdmin() {
			return db
		}
		if actor.ClientID == nil {
			return emptyResult(db)
		}
		return db.Where(fmt.Sprintf("%s.client_id = ?", table), *actor.ClientID)
	}
}

// SelfClient scopes the clients table itself: a tenant user sees only its own
// client row.
func SelfClient() ScopeFunc {
	return func(db *gorm.DB, actor *Actor) *gorm.DB {
		if actor.IsSuperAdmin() {
			return db
		}
		if actor.ClientID == nil {
			return emptyResult(db)
		}
		return db.Where("clients.id = ?", *actor.ClientID)
	}
}

// ViaCustomer scopes through the owning customer, for entities that carry a
// customer_id instead of a client_id (passports, visas).
func ViaCustomer(table string) ScopeFunc {
	return func(db *gorm.DB, actor *Actor) *gorm.DB {
		if actor.IsSuperAdmin() {
			return db
		}
		if actor.ClientID == nil {
			return emptyResult(db)
		}
		customers := db.Session(&gorm.Session{NewDB: true}).
			Model(&model.Customer{}).
			Select("id").
			Where("client_id = ?", *actor.ClientID)
		return db.Where(fmt.Sprintf("%s.customer_id IN (?)", table), customers)
	}
}

// ViaPassport scopes passport extensions: extension -> passport -> customer
func ViaPassport(table string) ScopeFunc {
	return func(db *gorm.DB, actor *Actor) *gorm.DB {
		if actor.IsSuperAdmin() {
			return db
		}
		if actor.ClientID == nil {
			return emptyResult(db)
		}
		customers := db.Session(&gorm.Session{NewDB: true}).
			Model(&model.Customer{}).
			Select("id").
			Where("client_id = ?", *actor.ClientID)
		passports := db.Session(&gorm.Session{NewDB: true}).
			Model(&model.Passport{}).
			Select("id").
			Where("customer_id IN (?)", customers)
		return db.Where(fmt.Sprintf("%s.passport_id IN (?)", table), passports)
	}
}

// OwnUser scopes the users table: superadmins see everyone, client admins see
// their tenant's users, everyone else sees only themselves.
func OwnUser() ScopeFunc {
	return func(db *gorm.DB, actor *Actor) *gorm.DB {
		if actor.IsSuperAdmin() {
			return db
		}
		if actor.IsClientAdmin() {
			if actor.ClientID == nil {
				return emptyResult(db)
			}
			return db.Where("users.client_id = ?", *actor.ClientID)
		}
		return db.Where("users.id = ?", actor.UserID)
	}
}
