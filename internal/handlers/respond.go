package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"ideacentral/backend/internal/services"

	"github.com/gin-gonic/gin"
)

// DefaultRequestTimeout bounds the store round trips of one request.
const DefaultRequestTimeout = 5 * time.Second

func requestContext(c *gin.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}
	return context.WithTimeout(c.Request.Context(), timeout)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrSubmitterNotFound),
		errors.Is(err, services.ErrNoReviewersAvailable),
		errors.Is(err, services.ErrIdeaNotFound),
		errors.Is(err, services.ErrUserNotFound),
		errors.Is(err, services.ErrNoneFound):
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

// respondError writes err as {"error": ...}. Internal failures are logged and
// replaced by fallback so store details do not leak to callers.
func respondError(c *gin.Context, err error, fallback string) {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		log.Printf("[Handlers] %s %s: %v", c.Request.Method, c.FullPath(), err)
		msg = fallback
	}
	c.JSON(status, gin.H{"error": msg})
}

// HealthCheck reports liveness.
func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
	})
}
