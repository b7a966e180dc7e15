package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"ideacentral/backend/internal/models"
	"ideacentral/backend/internal/repository"
	"ideacentral/backend/internal/services"

	"github.com/gin-gonic/gin"
)

// UserHandler serves the user and leaderboard endpoints.
type UserHandler struct {
	users       *repository.UserRepository
	ideas       *repository.IdeaRepository
	leaderboard *services.LeaderboardService
	timeout     time.Duration
}

// NewUserHandler creates a new user handler
func NewUserHandler(users *repository.UserRepository, ideas *repository.IdeaRepository, leaderboard *services.LeaderboardService, timeout time.Duration) *UserHandler {
	return &UserHandler{users: users, ideas: ideas, leaderboard: leaderboard, timeout: timeout}
}

// ListUsers handles GET /users
func (h *UserHandler) ListUsers(c *gin.Context) {
	ctx, cancel := requestContext(c, h.timeout)
	defer cancel()

	users, err := h.users.List(ctx)
	if err != nil {
		respondError(c, err, "Failed to fetch users")
		return
	}
	c.JSON(http.StatusOK, users)
}

// GetUser handles GET /users/:email
func (h *UserHandler) GetUser(c *gin.Context) {
	ctx, cancel := requestContext(c, h.timeout)
	defer cancel()

	user, err := h.users.FindByEmail(ctx, c.Param("email"))
	if err != nil {
		respondError(c, err, "Failed to fetch user")
		return
	}
	if user == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}
	c.JSON(http.StatusOK, user)
}

// UpdateUser handles PUT /users/:email
func (h *UserHandler) UpdateUser(c *gin.Context) {
	var patch models.UserPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid payload: " + err.Error()})
		return
	}

	ctx, cancel := requestContext(c, h.timeout)
	defer cancel()

	matched, err := h.users.UpdateProfile(ctx, c.Param("email"), patch)
	if err != nil {
		respondError(c, err, "Failed to update user")
		return
	}
	if !matched {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}
	// Names are part of the cached leaderboard rows.
	if patch.Name != nil {
		h.leaderboard.Invalidate(ctx)
	}
	c.JSON(http.StatusOK, gin.H{"message": "User updated successfully"})
}

// GetUserIdeas handles GET /users/:email/ideas
func (h *UserHandler) GetUserIdeas(c *gin.Context) {
	ctx, cancel := requestContext(c, h.timeout)
	defer cancel()

	ideas, err := h.ideas.FindBySubmitter(ctx, c.Param("email"))
	if err != nil {
		respondError(c, err, "Failed to fetch ideas")
		return
	}
	if len(ideas) == 0 {
		respondError(c, services.ErrNoneFound, "")
		return
	}
	c.JSON(http.StatusOK, ideas)
}

// TopSubmitters handles GET /top-submitters?limit=N
func (h *UserHandler) TopSubmitters(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			respondError(c, fmt.Errorf("%w: limit must be a positive integer", services.ErrValidation), "")
			return
		}
		limit = n
	}

	ctx, cancel := requestContext(c, h.timeout)
	defer cancel()

	top, err := h.leaderboard.Top(ctx, limit)
	if err != nil {
		respondError(c, err, "Failed to fetch top submitters")
		return
	}
	if len(top) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "No submitters found"})
		return
	}
	c.JSON(http.StatusOK, top)
}
