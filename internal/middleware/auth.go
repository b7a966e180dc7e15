package middleware

import (
	"context"
	"log"
	"net/http"
	"strings"

	"firebase.google.com/go/v4/auth"
	"github.com/gin-gonic/gin"
)

// A private key for context access
type contextKey string

const userContextKey = contextKey("user")

// TokenVerifier is satisfied by *auth.Client.
type TokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error)
}

// AuthMiddleware creates a middleware that verifies Firebase ID tokens.
// It authenticates callers only; it does not decide what they may change.
func AuthMiddleware(verifier TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.Request.Header.Get("Authorization")

		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header is required"})
			return
		}

		tokenString, ok := strings.CutPrefix(authHeader, "Bearer ")
		if !ok || tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header format must be Bearer {token}"})
			return
		}

		token, err := verifier.VerifyIDToken(c.Request.Context(), tokenString)
		if err != nil {
			log.Printf("Error verifying Firebase ID token: %v", err)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid auth token"})
			return
		}

		// Store the verified token claims in the context for handlers to use
		ctx := context.WithValue(c.Request.Context(), userContextKey, token)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// ForContext finds the user from the context.
func ForContext(ctx context.Context) *auth.Token {
	raw, _ := ctx.Value(userContextKey).(*auth.Token)
	return raw
}

// CallerEmail returns the email claim of the verified caller, or "anonymous"
// when the request was not authenticated.
func CallerEmail(ctx context.Context) string {
	token := ForContext(ctx)
	if token == nil {
		return "anonymous"
	}
	if email, ok := token.Claims["email"].(string); ok && email != "" {
		return email
	}
	return token.UID
}
