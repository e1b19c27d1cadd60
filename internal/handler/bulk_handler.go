package handler

import (
	"fmt"
	"net/http"
	"strings"

	"datapro-service/internal/bulk"
	"datapro-service/internal/tenancy"
	"datapro-service/pkg/database"
	"datapro-service/pkg/logger"
	"datapro-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// exportResponse streams a scoped export in the requested format. The format
// defaults to csv; ?format=xlsx produces a spreadsheet.
func exportResponse[T any](c echo.Context, spec *bulk.Spec[T], items []T) error {
	format := c.QueryParam("format")
	if format == "" {
		format = "csv"
	}

	header := c.Response().Header()
	switch format {
	case "csv":
		header.Set(echo.HeaderContentType, "text/csv")
		header.Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%s", spec.Filename("csv")))
		c.Response().WriteHeader(http.StatusOK)
		return spec.ExportCSV(c.Response(), items)
	case "xlsx":
		header.Set(echo.HeaderContentType, xlsxContentType)
		header.Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%s", spec.Filename("xlsx")))
		c.Response().WriteHeader(http.StatusOK)
		return spec.ExportXLSX(c.Response(), items)
	default:
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unsupported format: " + format})
	}
}

// importUpload accepts a multipart file upload and runs the all-or-nothing
// import for the entity. Any row failure aborts the batch and reports one
// aggregated error.
func importUpload[T any](c echo.Context, spec *bulk.Spec[T]) error {
	log := logger.FromContext(c)
	actor := tenancy.ActorFromEcho(c)
	if actor == nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}
	if !actor.CanWrite() {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "permission denied"})
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "file upload is required"})
	}
	src, err := fileHeader.Open()
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "failed to read uploaded file"})
	}
	defer src.Close()

	var rows []map[string]string
	if strings.HasSuffix(strings.ToLower(fileHeader.Filename), ".xlsx") {
		rows, err = bulk.ParseXLSX(src)
	} else {
		rows, err = bulk.ParseCSV(src)
	}
	if err != nil {
		prometheus.BulkImportCounter.WithLabelValues(spec.Entity, "failure").Inc()
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	count, err := spec.Import(database.GetDB(), actor, rows)
	if err != nil {
		log.Warn("bulk import aborted",
			zap.String("entity", spec.Entity),
			zap.Error(err))
		prometheus.BulkImportCounter.WithLabelValues(spec.Entity, "failure").Inc()
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	log.Info("bulk import completed",
		zap.String("entity", spec.Entity),
		zap.Int("count", count),
		zap.Uint("actor_id", actor.UserID))
	prometheus.BulkImportCounter.WithLabelValues(spec.Entity, "success").Inc()
	return c.JSON(http.StatusCreated, echo.Map{
		"message": fmt.Sprintf("imported %d %s", count, spec.Entity),
		"count":   count,
	})
}

// scopedAll loads every row of a resource visible to the actor, for exports
func scopedAll[T any](c echo.Context, scope tenancy.ScopeFunc, order string) ([]T, *tenancy.Actor, error) {
	actor := tenancy.ActorFromEcho(c)
	if actor == nil {
		return nil, nil, echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}

	var probe T
	var items []T
	query := scope(database.GetDB().Model(&probe), actor)
	if order != "" {
		query = query.Order(order)
	}
	if err := query.Find(&items).Error; err != nil {
		return nil, nil, err
	}
	return items, actor, nil
}
