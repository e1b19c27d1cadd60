// Package crud implements the list/create/retrieve/update/delete cycle once,
// parameterized by per-entity descriptors: field search set, validation,
// tenant scoping rule and post-commit hooks. Entity handlers register a
// Resource and add only their entity-specific actions on top.
package crud

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"datapro-service/internal/audit"
	"datapro-service/internal/tenancy"
	"datapro-service/pkg/database"
	"datapro-service/pkg/logger"
	"datapro-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Op identifies the mutation a hook is running for
type Op string

const (
	OpCreate Op = "create"
	OpUpdate Op = "update"
	OpDelete Op = "delete"
)

const (
	defaultPerPage = 20
	maxPerPage     = 100
)

// Resource describes one entity to the generic engine
type Resource[T any] struct {
	// Name is the singular snake-case entity name used in audit entries,
	// log lines and error messages.
	Name string

	// Searchable lists the columns matched by the free-text ?search= filter
	Searchable []string

	// Filterable lists the columns that may be constrained by exact-match
	// query parameters, e.g. ?status=scheduled
	Filterable []string

	// Scope narrows every query to the actor's tenant
	Scope tenancy.ScopeFunc

	// DefaultOrder is the ORDER BY applied to listings
	DefaultOrder string

	// Validate checks the object before create and update. Returning a
	// *ValidationError maps to a 400 with the field message.
	Validate func(db *gorm.DB, actor *tenancy.Actor, obj *T, op Op) error

	// BeforeSave runs inside the write transaction before the row is saved
	BeforeSave func(tx *gorm.DB, actor *tenancy.Actor, obj *T, op Op) error

	// AfterCommit runs once the write transaction has committed. This is
	// where entity handlers publish domain events.
	AfterCommit func(op Op, actor *tenancy.Actor, obj *T)

	// SaveAssociations makes create/update persist nested association
	// slices (used by invoices for their line items)
	SaveAssociations bool

	// Preload lists the associations loaded on reads
	Preload []string
}

// List handles GET / with pagination, free-text search and tenant scoping
func (r *Resource[T]) List(c echo.Context) error {
	actor := tenancy.ActorFromEcho(c)
	if actor == nil {
		return unauthenticated(c)
	}

	page, _ := strconv.Atoi(c.QueryParam("page"))
	if page < 1 {
		page = 1
	}
	perPage, _ := strconv.Atoi(c.QueryParam("per_page"))
	if perPage < 1 {
		perPage = defaultPerPage
	}
	if perPage > maxPerPage {
		perPage = maxPerPage
	}

	var obj T
	query := r.Scope(database.GetDB().Model(&obj), actor)

	if search := strings.TrimSpace(c.QueryParam("search")); search != "" && len(r.Searchable) > 0 {
		pattern := "%" + strings.ToLower(search) + "%"
		conditions := make([]string, len(r.Searchable))
		args := make([]interface{}, len(r.Searchable))
		for i, col := range r.Searchable {
			conditions[i] = fmt.Sprintf("LOWER(%s) LIKE ?", col)
			args[i] = pattern
		}
		query = query.Where(strings.Join(conditions, " OR "), args...)
	}

	for _, col := range r.Filterable {
		if v := c.QueryParam(col); v != "" {
			query = query.Where(fmt.Sprintf("%s = ?", col), v)
		}
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return internalError(c, r.Name, "list", err)
	}

	var items []T
	for _, assoc := range r.Preload {
		query = query.Preload(assoc)
	}
	if r.DefaultOrder != "" {
		query = query.Order(r.DefaultOrder)
	}
	if err := query.Offset((page - 1) * perPage).Limit(perPage).Find(&items).Error; err != nil {
		return internalError(c, r.Name, "list", err)
	}
	if items == nil {
		items = []T{}
	}

	return c.JSON(http.StatusOK, echo.Map{
		"items":    items,
		"total":    total,
		"page":     page,
		"per_page": perPage,
	})
}

// Get handles GET /:id. A row outside the actor's tenant reads as not found
// so existence never leaks across tenants.
func (r *Resource[T]) Get(c echo.Context) error {
	actor := tenancy.ActorFromEcho(c)
	if actor == nil {
		return unauthenticated(c)
	}

	obj, err := r.Fetch(c, actor)
	if err != nil {
		return r.respondError(c, err)
	}
	return c.JSON(http.StatusOK, obj)
}

// Create handles POST /
func (r *Resource[T]) Create(c echo.Context) error {
	actor := tenancy.ActorFromEcho(c)
	if actor == nil {
		return unauthenticated(c)
	}
	if !actor.CanWrite() {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "permission denied"})
	}

	obj := new(T)
	if err := c.Bind(obj); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	setID(obj, 0)
	stampTracking(obj, actor, true)

	db := database.GetDB()
	if r.Validate != nil {
		if err := r.Validate(db, actor, obj, OpCreate); err != nil {
			return r.respondError(c, err)
		}
	}
	// The bound payload may claim any tenant; ownership is checked against
	// the actor before anything is written.
	if err := tenancy.Authorize(db, actor, obj); err != nil {
		return r.respondError(c, err)
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		if r.BeforeSave != nil {
			if err := r.BeforeSave(tx, actor, obj, OpCreate); err != nil {
				return err
			}
		}
		if err := r.save(tx, obj, OpCreate); err != nil {
			return err
		}
		audit.Record(tx, actor.UserID, r.Name, objectID(obj), r.Name+"_create", "", c.RealIP())
		return nil
	})
	if err != nil {
		return r.respondError(c, err)
	}

	if r.AfterCommit != nil {
		r.AfterCommit(OpCreate, actor, obj)
	}
	logger.FromContext(c).Info("entity created",
		zap.String("entity", r.Name),
		zap.Uint("id", objectID(obj)),
		zap.Uint("actor_id", actor.UserID))
	return c.JSON(http.StatusCreated, obj)
}

// Update handles PUT /:id
func (r *Resource[T]) Update(c echo.Context) error {
	actor := tenancy.ActorFromEcho(c)
	if actor == nil {
		return unauthenticated(c)
	}
	if !actor.CanWrite() {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "permission denied"})
	}

	obj, err := r.Fetch(c, actor)
	if err != nil {
		return r.respondError(c, err)
	}
	id := objectID(obj)

	if err := c.Bind(obj); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	// the path, not the payload, decides which row is updated
	setID(obj, id)
	stampTracking(obj, actor, false)

	db := database.GetDB()
	if r.Validate != nil {
		if err := r.Validate(db, actor, obj, OpUpdate); err != nil {
			return r.respondError(c, err)
		}
	}
	// Re-check ownership after binding: the payload may have moved the row
	// to a foreign tenant, which is a permission failure, not a no-op.
	if err := tenancy.Authorize(db, actor, obj); err != nil {
		return r.respondError(c, err)
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		if r.BeforeSave != nil {
			if err := r.BeforeSave(tx, actor, obj, OpUpdate); err != nil {
				return err
			}
		}
		if err := r.save(tx, obj, OpUpdate); err != nil {
			return err
		}
		audit.Record(tx, actor.UserID, r.Name, id, r.Name+"_update", "", c.RealIP())
		return nil
	})
	if err != nil {
		return r.respondError(c, err)
	}

	if r.AfterCommit != nil {
		r.AfterCommit(OpUpdate, actor, obj)
	}
	return c.JSON(http.StatusOK, obj)
}

// Delete handles DELETE /:id
func (r *Resource[T]) Delete(c echo.Context) error {
	actor := tenancy.ActorFromEcho(c)
	if actor == nil {
		return unauthenticated(c)
	}
	if !actor.CanWrite() {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "permission denied"})
	}

	obj, err := r.Fetch(c, actor)
	if err != nil {
		return r.respondError(c, err)
	}
	id := objectID(obj)

	db := database.GetDB()
	if err := tenancy.Authorize(db, actor, obj); err != nil {
		return r.respondError(c, err)
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(obj).Error; err != nil {
			return err
		}
		audit.Record(tx, actor.UserID, r.Name, id, r.Name+"_delete", "", c.RealIP())
		return nil
	})
	if err != nil {
		return r.respondError(c, err)
	}

	if r.AfterCommit != nil {
		r.AfterCommit(OpDelete, actor, obj)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": r.Name + " deleted"})
}

// Fetch loads the row named by the :id path parameter within the actor's
// scope. Cross-tenant rows come back as gorm.ErrRecordNotFound.
func (r *Resource[T]) Fetch(c echo.Context, actor *tenancy.Actor) (*T, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return nil, Invalid("id", "invalid %s id", r.Name)
	}

	obj := new(T)
	var probe T
	query := r.Scope(database.GetDB().Model(&probe), actor)
	for _, assoc := range r.Preload {
		query = query.Preload(assoc)
	}
	if err := query.First(obj, uint(id)).Error; err != nil {
		return nil, err
	}
	return obj, nil
}

func (r *Resource[T]) save(tx *gorm.DB, obj *T, op Op) error {
	if !r.SaveAssociations {
		tx = tx.Omit(clause.Associations)
	} else if op == OpCreate {
		tx = tx.Session(&gorm.Session{FullSaveAssociations: true})
	}
	if op == OpCreate {
		return tx.Create(obj).Error
	}
	return tx.Save(obj).Error
}

func (r *Resource[T]) respondError(c echo.Context, err error) error {
	var validation *ValidationError
	switch {
	case errors.As(err, &validation):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": validation.Message, "field": validation.Field})
	case errors.Is(err, tenancy.ErrPermissionDenied):
		prometheus.PermissionDeniedCounter.WithLabelValues(r.Name).Inc()
		return c.JSON(http.StatusForbidden, echo.Map{"error": "permission denied"})
	case errors.Is(err, gorm.ErrRecordNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": r.Name + " not found"})
	default:
		return internalError(c, r.Name, "save", err)
	}
}

func unauthenticated(c echo.Context) error {
	return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
}

func internalError(c echo.Context, name, op string, err error) error {
	logger.FromContext(c).Error("database operation failed",
		zap.String("entity", name),
		zap.String("operation", op),
		zap.Error(err))
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
}

// objectID reads the primary key off any model struct
func objectID(obj interface{}) uint {
	v := reflect.ValueOf(obj)
	for v.Kind() == reflect.Ptr {
		v = v.Elem()
	}
	f := v.FieldByName("ID")
	if !f.IsValid() {
		return 0
	}
	return uint(f.Uint())
}

// setID writes the primary key on any model struct
func setID(obj interface{}, id uint) {
	v := reflect.ValueOf(obj)
	for v.Kind() == reflect.Ptr {
		v = v.Elem()
	}
	f := v.FieldByName("ID")
	if f.IsValid() && f.CanSet() {
		f.SetUint(uint64(id))
	}
}

// stampTracking fills the created_by/updated_by columns where the model has
// them
func stampTracking(obj interface{}, actor *tenancy.Actor, isCreate bool) {
	v := reflect.ValueOf(obj)
	for v.Kind() == reflect.Ptr {
		v = v.Elem()
	}
	if isCreate {
		if f := v.FieldByName("CreatedBy"); f.IsValid() && f.CanSet() && f.Kind() == reflect.Uint {
			f.SetUint(uint64(actor.UserID))
		}
	}
	if f := v.FieldByName("UpdatedBy"); f.IsValid() && f.CanSet() && f.Kind() == reflect.Uint {
		f.SetUint(uint64(actor.UserID))
	}
}
