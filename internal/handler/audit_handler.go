package handler

import (
	"net/http"
	"strconv"

	"datapro-service/internal/model"
	"datapro-service/internal/tenancy"
	"datapro-service/pkg/database"

	"github.com/labstack/echo/v4"
)

// ListAuditLog handles GET /audit-log. The log is read-only and mounted
// behind the superadmin guard; there is no create, update or delete surface.
func ListAuditLog(c echo.Context) error {
	actor := tenancy.ActorFromEcho(c)
	if actor == nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	page, _ := strconv.Atoi(c.QueryParam("page"))
	if page < 1 {
		page = 1
	}
	perPage, _ := strconv.Atoi(c.QueryParam("per_page"))
	if perPage < 1 {
		perPage = 50
	}
	if perPage > 200 {
		perPage = 200
	}

	query := database.GetDB().Model(&model.AuditLog{})
	if entity := c.QueryParam("entity"); entity != "" {
		query = query.Where("entity = ?", entity)
	}
	if action := c.QueryParam("action"); action != "" {
		query = query.Where("action = ?", action)
	}
	if actorID := c.QueryParam("actor_id"); actorID != "" {
		query = query.Where("actor_id = ?", actorID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return internalListError(c, "audit_log", err)
	}

	var entries []model.AuditLog
	if err := query.Order("created_at DESC").
		Offset((page - 1) * perPage).Limit(perPage).
		Find(&entries).Error; err != nil {
		return internalListError(c, "audit_log", err)
	}
	if entries == nil {
		entries = []model.AuditLog{}
	}
	return c.JSON(http.StatusOK, echo.Map{
		"items":    entries,
		"total":    total,
		"page":     page,
		"per_page": perPage,
	})
}
