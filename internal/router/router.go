package router

import (
	"time"

	"ideacentral/backend/internal/auth"
	"ideacentral/backend/internal/handlers"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// Handlers bundles everything the routes dispatch to.
type Handlers struct {
	Auth  *auth.Handler
	Users *handlers.UserHandler
	Ideas *handlers.IdeaHandler
}

// NewRouter wires the API. authMiddleware may be nil, in which case the API is open.
func NewRouter(h Handlers, corsOrigins []string, authMiddleware gin.HandlerFunc) *gin.Engine {
	r := gin.Default()

	if len(corsOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     corsOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept"},
			ExposeHeaders:    []string{"Content-Length"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	r.GET("/health", handlers.HealthCheck)

	api := r.Group("/api/v1")
	if authMiddleware != nil {
		api.Use(authMiddleware)
	}
	{
		// USER ROUTES
		api.POST("/users/login", h.Auth.Login)
		api.GET("/users", h.Users.ListUsers)
		api.GET("/users/:email", h.Users.GetUser)
		api.PUT("/users/:email", h.Users.UpdateUser)
		api.GET("/users/:email/ideas", h.Users.GetUserIdeas)
		api.GET("/top-submitters", h.Users.TopSubmitters)

		// IDEA ROUTES
		api.POST("/ideas", h.Ideas.CreateIdea)
		api.GET("/ideas", h.Ideas.ListIdeas)
		api.GET("/ideas/:ideaId", h.Ideas.GetIdea)
		api.PUT("/ideas/:ideaId", h.Ideas.UpdateIdea)
		api.POST("/ideas/:ideaId/assign", h.Ideas.AssignIdea)
		api.GET("/review-ideas", h.Ideas.GetReviewIdeas)
	}

	return r
}
