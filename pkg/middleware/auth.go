package middleware

import (
	"cedarhill/portal-api/internal/model"
	"cedarhill/portal-api/pkg/session"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// NewSessionAuth resolves the session cookie into a full user record
// and stores it on the context. The account is loaded fresh on every
// request, so deletions and role changes take effect immediately.
func NewSessionAuth(s *session.Manager, d *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.MustGet("requestID").(string)

		userID, ok := s.UserID(c.Request)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":     "Not logged in",
				"requestID": requestID,
			})
			return
		}

		var user model.User

		err := d.Where("id = ?", userID).First(&user).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				// The account is gone but the cookie outlived it
				if err := s.Clear(c.Writer, c.Request); err != nil {
					zap.L().Debug("Failed to clear session", zap.Error(err), zap.String("requestID", requestID))
				}

				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
					"error":     "Not logged in",
					"requestID": requestID,
				})
				return
			}

			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"error":     "Something went wrong",
				"requestID": requestID,
			})

			zap.L().Error("Failed to load session user", zap.Error(err), zap.String("requestID", requestID))
			return
		}

		c.Set("userID", user.ID)
		c.Set("user", &user)
		c.Next()
	}
}

// RequireAdmin rejects non admin users. Must run after NewSessionAuth.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.MustGet("requestID").(string)

		user := c.MustGet("user").(*model.User)
		if !user.Admin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error":     "Admin privileges required",
				"requestID": requestID,
			})
			return
		}

		c.Next()
	}
}
