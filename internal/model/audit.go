package model

import "time"

// Audit actions form a closed set. Anything security or admin relevant
// that mutates state gets one of these.
const (
	ActionFileUploaded           = "FILE_UPLOADED"
	ActionFileDeleted            = "FILE_DELETED"
	ActionUserDeleted            = "USER_DELETED"
	ActionUserPromoted           = "USER_PROMOTED"
	ActionUserDemoted            = "USER_DEMOTED"
	ActionEmailVerified          = "EMAIL_VERIFIED"
	ActionPasswordResetRequested = "PASSWORD_RESET_REQUESTED"
	ActionPasswordResetCompleted = "PASSWORD_RESET_COMPLETED"
)

// AuditLog rows are append-only. Nothing in the application updates or
// deletes them.
type AuditLog struct {
	ID           uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Action       string    `gorm:"not null;index" json:"action"`
	ActorID      string    `gorm:"index" json:"actor_id"`
	ResourceType string    `json:"resource_type"`
	ResourceID   string    `json:"resource_id"`
	Detail       string    `json:"detail"`
	CreatedAt    time.Time `gorm:"index" json:"created_at"`
}
