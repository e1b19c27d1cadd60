package handler

import (
	"datapro-service/internal/crud"
	"datapro-service/internal/event"
	"datapro-service/internal/model"
	"datapro-service/internal/tenancy"
	"datapro-service/prometheus"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Users is the CRUD resource for accounts. Superadmins manage everyone,
// client admins manage their tenant, everyone else sees only themselves.
var Users = &crud.Resource[model.User]{
	Name:         "user",
	Searchable:   []string{"users.email", "users.first_name", "users.last_name"},
	Filterable:   []string{"role"},
	Scope:        tenancy.OwnUser(),
	DefaultOrder: "users.email ASC",
	Validate:     validateUser,
	BeforeSave: func(tx *gorm.DB, actor *tenancy.Actor, user *model.User, op crud.Op) error {
		// An empty password on update keeps the stored hash
		if user.Password == "" && op == crud.OpUpdate {
			var current model.User
			if err := tx.Select("password").First(&current, user.ID).Error; err != nil {
				return err
			}
			user.Password = current.Password
			return nil
		}
		hashed, err := bcrypt.GenerateFromPassword([]byte(user.Password), bcrypt.DefaultCost)
		if err != nil {
			return err
		}
		user.Password = string(hashed)
		return nil
	},
	AfterCommit: func(op crud.Op, actor *tenancy.Actor, user *model.User) {
		prometheus.RecordEntityOperation("user", string(op))
		if op == crud.OpCreate {
			event.Publish(event.UserCreated, user)
		}
	},
}

func validateUser(db *gorm.DB, actor *tenancy.Actor, user *model.User, op crud.Op) error {
	if !validEmail(user.Email) {
		return crud.Invalid("email", "invalid email address")
	}
	if op == crud.OpCreate && len(user.Password) < 8 {
		return crud.Invalid("password", "password must be at least 8 characters")
	}

	switch user.Role {
	case "":
		user.Role = model.RoleStaff
	case model.RoleSuperAdmin, model.RoleClientAdmin, model.RoleStaff, model.RoleCustomer:
	default:
		return crud.Invalid("role", "unknown role: %s", user.Role)
	}

	// Tenant admins cannot mint superadmins or move users across tenants
	if !actor.IsSuperAdmin() {
		if user.Role == model.RoleSuperAdmin {
			return tenancy.ErrPermissionDenied
		}
		user.ClientID = actor.ClientID
	}
	if user.Role != model.RoleSuperAdmin && user.ClientID == nil {
		return crud.Invalid("client_id", "client is required for tenant users")
	}

	unique, err := uniqueColumn(db, &model.User{}, "email", user.Email, user.ID)
	if err != nil {
		return err
	}
	if !unique {
		return crud.Invalid("email", "email already registered: %s", user.Email)
	}
	return nil
}
