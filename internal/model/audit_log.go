package model

import "time"

// AuditLog is an append-only record of admin actions. Rows are never updated
// or deleted after creation.
type AuditLog struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	ActorID   uint      `json:"actor_id" gorm:"index"`
	Entity    string    `json:"entity" gorm:"type:varchar(50);not null;index"`
	EntityID  uint      `json:"entity_id"`
	Action    string    `json:"action" gorm:"type:varchar(50);not null"`
	Details   string    `json:"details,omitempty" gorm:"type:text"`
	IPAddress string    `json:"ip_address,omitempty" gorm:"type:varchar(45)"`
	CreatedAt time.Time `json:"created_at" gorm:"index"`
}
