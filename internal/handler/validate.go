package handler

import (
	"regexp"

	"datapro-service/internal/model"
	"datapro-service/internal/tenancy"

	"gorm.io/gorm"
)

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// validEmail reports whether s looks like a deliverable address
func validEmail(s string) bool {
	return emailPattern.MatchString(s)
}

// uniqueColumn checks a global uniqueness constraint, excluding the row being
// updated
func uniqueColumn(db *gorm.DB, mdl interface{}, column, value string, excludeID uint) (bool, error) {
	var count int64
	query := db.Model(mdl).Where(column+" = ?", value)
	if excludeID != 0 {
		query = query.Where("id <> ?", excludeID)
	}
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count == 0, nil
}

// forceTenant pins the client reference of a scoped entity to the actor's own
// tenant. Non-superadmins cannot choose a tenant; the JWT decides.
func forceTenant(actor *tenancy.Actor, clientID *uint) {
	if actor.IsSuperAdmin() {
		return
	}
	if actor.ClientID != nil {
		*clientID = *actor.ClientID
	}
}

// customerInScope verifies that a referenced customer exists inside the
// actor's tenant. Used by the entities that attach to customers.
func customerInScope(db *gorm.DB, actor *tenancy.Actor, customerID uint) (*model.Customer, error) {
	var customer model.Customer
	query := tenancy.Direct("customers")(db.Model(&model.Customer{}), actor)
	if err := query.First(&customer, customerID).Error; err != nil {
		return nil, err
	}
	return &customer, nil
}
