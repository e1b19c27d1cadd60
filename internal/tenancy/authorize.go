package tenancy

import (
	"fmt"

	"datapro-service/internal/model"

	"gorm.io/gorm"
)

// ownerClient resolves the tenant an object belongs to, following the
// customer (and passport) links where the object has no client column of its
// own. A nil result means the object is not tenant data.
func ownerClient(db *gorm.DB, entity interface{}) (*uint, error) {
	switch e := entity.(type) {
	case *model.Client:
		return &e.ID, nil
	case *model.Customer:
		return &e.ClientID, nil
	case *model.Vehicle:
		return &e.ClientID, nil
	case *model.TransportService:
		return &e.ClientID, nil
	case *model.Invoice:
		return &e.ClientID, nil
	case *model.User:
		return e.ClientID, nil
	case *model.Passport:
		return customerClient(db, e.CustomerID)
	case *model.Visa:
		return customerClient(db, e.CustomerID)
	case *model.PassportExtension:
		var passport model.Passport
		if err := db.Select("customer_id").First(&passport, e.PassportID).Error; err != nil {
			return nil, err
		}
		return customerClient(db, passport.CustomerID)
	default:
		return nil, fmt.Errorf("no tenant resolution for %T", entity)
	}
}

func customerClient(db *gorm.DB, customerID uint) (*uint, error) {
	var customer model.Customer
	if err := db.Select("client_id").First(&customer, customerID).Error; err != nil {
		return nil, err
	}
	return &customer.ClientID, nil
}

// Authorize re-validates object-level ownership before a mutation, regardless
// of how the object reference was obtained. Mutating an object outside the
// actor's tenant is an explicit permission failure, not a silent no-op.
func Authorize(db *gorm.DB, actor *Actor, entity interface{}) error {
	if actor.IsSuperAdmin() {
		return nil
	}
	if actor.ClientID == nil {
		return ErrPermissionDenied
	}

	owner, err := ownerClient(db, entity)
	if err != nil {
		return err
	}
	if owner == nil || *owner != *actor.ClientID {
		return ErrPermissionDenied
	}
	return nil
}
