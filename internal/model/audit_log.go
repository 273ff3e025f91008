package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AuditLog is an immutable record of a security-relevant action.
// Rows are append-only: no code path updates or deletes them.
// TenantID and UserID are nullable so that system-wide actions and
// failed logins (no resolved principal) can still be recorded.
type AuditLog struct {
	ID         string    `json:"id" gorm:"type:uuid;primaryKey"`
	TenantID   *string   `json:"tenant_id,omitempty" gorm:"type:uuid;index"`
	UserID     *string   `json:"user_id,omitempty" gorm:"type:uuid;index"`
	Action     string    `json:"action" gorm:"type:varchar(50);not null"`
	EntityType string    `json:"entity_type" gorm:"type:varchar(50)"`
	EntityID   string    `json:"entity_id" gorm:"type:varchar(64)"`
	IPAddress  string    `json:"ip_address" gorm:"type:varchar(45)"`
	CreatedAt  time.Time `json:"created_at"`
}

// TableName keeps the table name aligned with the audit_logs schema
func (AuditLog) TableName() string {
	return "audit_logs"
}

// BeforeCreate assigns a UUID primary key
func (a *AuditLog) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}
