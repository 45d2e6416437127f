// Package httpx maps service errors onto HTTP responses so handlers
// don't repeat the status code and payload shaping
package httpx

import (
	"cedarhill/portal-api/internal/service"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func status(k service.Kind) int {
	switch k {
	case service.KindValidation:
		return http.StatusBadRequest
	case service.KindUnauthorized:
		return http.StatusUnauthorized
	case service.KindForbidden:
		return http.StatusForbidden
	case service.KindNotFound:
		return http.StatusNotFound
	case service.KindConflict:
		return http.StatusConflict
	case service.KindRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// Fail writes the JSON error response for a failed operation. Internal
// causes are logged here and never reach the client.
func Fail(c *gin.Context, err error) {
	requestID := c.MustGet("requestID").(string)

	var svcErr *service.Error
	if !errors.As(err, &svcErr) {
		svcErr = &service.Error{
			Kind:    service.KindStore,
			Message: "something went wrong",
			Err:     err,
		}
	}

	if svcErr.Kind == service.KindStore {
		zap.L().Error("Request failed",
			zap.String("requestID", requestID),
			zap.Error(svcErr),
		)
	}

	c.JSON(status(svcErr.Kind), gin.H{
		"error":     svcErr.Message,
		"code":      svcErr.Kind,
		"requestID": requestID,
	})
}
