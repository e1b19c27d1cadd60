// Package audit writes the append-only admin action log. Failures to record
// an entry never fail the operation being recorded.
package audit

import (
	"datapro-service/internal/model"
	"datapro-service/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Record appends one audit entry on the given handle. Pass the surrounding
// transaction so the entry commits or rolls back with the mutation it
// describes.
func Record(db *gorm.DB, actorID uint, entity string, entityID uint, action, details, ip string) {
	if db == nil {
		return
	}
	entry := model.AuditLog{
		ActorID:   actorID,
		Entity:    entity,
		EntityID:  entityID,
		Action:    action,
		Details:   details,
		IPAddress: ip,
	}
	if err := db.Create(&entry).Error; err != nil {
		logger.GetLogger().Warn("failed to write audit log entry",
			zap.String("entity", entity),
			zap.String("action", action),
			zap.Error(err))
	}
}
