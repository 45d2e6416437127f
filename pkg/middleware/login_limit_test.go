package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoginLimiterAllow(t *testing.T) {
	l := NewLoginLimiter(time.Minute, 3)

	for i := range 3 {
		assert.True(t, l.Allow("1.2.3.4"), "attempt %d should pass", i+1)
	}
	assert.False(t, l.Allow("1.2.3.4"))

	// A different address gets its own window
	assert.True(t, l.Allow("5.6.7.8"))
}

func TestLoginLimiterWindowReset(t *testing.T) {
	l := NewLoginLimiter(50*time.Millisecond, 1)

	assert.True(t, l.Allow("1.2.3.4"))
	assert.False(t, l.Allow("1.2.3.4"))

	time.Sleep(60 * time.Millisecond)

	// The old window closed, the counter starts over
	assert.True(t, l.Allow("1.2.3.4"))
}

func TestLoginLimiterMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.Use(NewRequestIDMiddleware())
	router.POST("/login", NewLoginLimiter(time.Minute, 2).Middleware(), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	for range 2 {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/login", nil))
		require.Equal(t, http.StatusOK, w.Code)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/login", nil))

	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Contains(t, w.Body.String(), "rate_limited")
}
