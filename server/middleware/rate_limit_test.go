package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
)

func TestRateLimiterAllowsBurstThenRejects(t *testing.T) {
	rl := NewRateLimiter()

	allowed := 0
	for i := 0; i < 30; i++ {
		if rl.Allow("client-a") {
			allowed++
		}
	}
	// Burst of 20 passes, the rest is rejected. A token or two may refill
	// while the loop runs.
	assert.GreaterOrEqual(t, allowed, 20)
	assert.Less(t, allowed, 25)

	// Another key has its own budget.
	assert.True(t, rl.Allow("client-b"))
}

func TestRateLimiterMiddleware(t *testing.T) {
	e := echo.New()
	e.Use(NewRateLimiter().Middleware())
	e.GET("/", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })

	var lastCode int
	for i := 0; i < 30; i++ {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		lastCode = rec.Code
	}
	assert.Equal(t, http.StatusTooManyRequests, lastCode)
}
