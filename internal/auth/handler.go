package auth

import (
	"context"
	"log"
	"net/http"
	"time"

	"ideacentral/backend/internal/models"

	"github.com/gin-gonic/gin"
)

// LoginPayload is what the frontend sends after the user signs in.
type LoginPayload struct {
	Name       string `json:"name" binding:"required"`
	Email      string `json:"email" binding:"required,email"`
	IsReviewer bool   `json:"is_reviewer"`
}

// UserRegistry is the part of the user repository login needs.
type UserRegistry interface {
	UpsertLogin(ctx context.Context, candidate models.User) (*models.User, bool, error)
}

// Handler serves POST /users/login.
type Handler struct {
	users   UserRegistry
	timeout time.Duration
}

func NewHandler(users UserRegistry, timeout time.Duration) *Handler {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Handler{users: users, timeout: timeout}
}

// Login finds or creates the user. An existing user is returned as stored;
// the payload never resets its counters or lists.
func (h *Handler) Login(c *gin.Context) {
	var payload LoginPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	user, created, err := h.users.UpsertLogin(ctx, models.User{
		Name:       payload.Name,
		Email:      payload.Email,
		IsReviewer: payload.IsReviewer,
	})
	if err != nil {
		log.Printf("[Auth] Login failed for %s: %v", payload.Email, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to process user data"})
		return
	}

	if created {
		log.Printf("[Auth] New user created: %s", user.Email)
		c.JSON(http.StatusCreated, gin.H{"message": "New user created", "user": user})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "User already exists", "user": user})
}
