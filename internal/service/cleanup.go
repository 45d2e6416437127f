package service

import (
	"cedarhill/portal-api/internal/model"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ResetTokenCleanup defines a function used to periodically clear reset
// tokens whose window has passed. Expired tokens are already unusable,
// this just keeps the rows tidy.
func ResetTokenCleanup(t time.Duration, db *gorm.DB) {
	ticker := time.NewTicker(t)

	zap.L().Debug("Reset token cleanup attached", zap.Duration("tick_every", t))

	go func() {
		for range ticker.C {
			r := db.Model(model.User{}).
				Where("reset_token IS NOT NULL AND reset_expires_at < ?", time.Now()).
				Updates(map[string]any{
					"reset_token":      nil,
					"reset_expires_at": nil,
				})
			if r.Error != nil {
				zap.L().Error("Failed to clear expired reset tokens", zap.Error(r.Error))
				continue
			}

			if r.RowsAffected > 0 {
				zap.L().Debug("Cleared expired reset tokens", zap.Int64("count", r.RowsAffected))
			}
		}
	}()
}
