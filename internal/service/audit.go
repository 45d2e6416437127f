package service

import (
	"cedarhill/portal-api/internal/model"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Auditor appends entries to the audit trail. Writes are best-effort:
// the audited action already happened, so a failed insert is logged and
// swallowed instead of failing the operation that triggered it.
type Auditor struct {
	db *gorm.DB
}

func NewAuditor(db *gorm.DB) *Auditor {
	return &Auditor{db: db}
}

func (a *Auditor) Log(action, actorID, resourceType, resourceID, detail string) {
	entry := model.AuditLog{
		Action:       action,
		ActorID:      actorID,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		Detail:       detail,
	}

	if err := a.db.Create(&entry).Error; err != nil {
		zap.L().Error("Failed to append audit entry",
			zap.String("action", action),
			zap.Error(err),
		)
	}
}

// Latest returns the newest entries first.
func (a *Auditor) Latest(limit int) ([]model.AuditLog, error) {
	var entries []model.AuditLog

	err := a.db.
		Order("id DESC").
		Limit(limit).
		Find(&entries).
		Error
	if err != nil {
		return nil, StoreError(err)
	}

	return entries, nil
}
