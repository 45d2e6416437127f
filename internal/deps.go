package internal

import (
	"cedarhill/portal-api/internal/service"
	"cedarhill/portal-api/pkg/session"
	"cedarhill/portal-api/storage"

	"gorm.io/gorm"
)

// Deps carries everything handlers need. Built once at startup and
// passed down explicitly, nothing in here is reachable as a global.
type Deps struct {
	DB       *gorm.DB
	Accounts *service.Accounts
	Audit    *service.Auditor
	Sessions *session.Manager
	Storage  storage.Storage
}
