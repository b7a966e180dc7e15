package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"firebase.google.com/go/v4/auth"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

type fakeVerifier struct {
	tokens map[string]*auth.Token
}

func (v fakeVerifier) VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error) {
	if tok, ok := v.tokens[idToken]; ok {
		return tok, nil
	}
	return nil, errors.New("token has expired")
}

func newEngine() *gin.Engine {
	gin.SetMode(gin.TestMode)
	verifier := fakeVerifier{tokens: map[string]*auth.Token{
		"good":     {UID: "uid-1", Claims: map[string]interface{}{"email": "a@x.com"}},
		"no-email": {UID: "uid-2", Claims: map[string]interface{}{}},
	}}
	r := gin.New()
	r.Use(AuthMiddleware(verifier))
	r.GET("/whoami", func(c *gin.Context) {
		c.String(http.StatusOK, CallerEmail(c.Request.Context()))
	})
	return r
}

func TestAuthMiddleware(t *testing.T) {
	tests := []struct {
		name   string
		header string
		code   int
		body   string
	}{
		{name: "missing header", code: http.StatusUnauthorized},
		{name: "wrong scheme", header: "Token good", code: http.StatusUnauthorized},
		{name: "empty bearer", header: "Bearer ", code: http.StatusUnauthorized},
		{name: "rejected token", header: "Bearer bad", code: http.StatusUnauthorized},
		{name: "email claim", header: "Bearer good", code: http.StatusOK, body: "a@x.com"},
		{name: "uid fallback", header: "Bearer no-email", code: http.StatusOK, body: "uid-2"},
	}

	r := newEngine()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.code, w.Code)
			if tt.body != "" {
				assert.Equal(t, tt.body, w.Body.String())
			}
		})
	}
}

func TestCallerEmailAnonymous(t *testing.T) {
	assert.Equal(t, "anonymous", CallerEmail(context.Background()))
	assert.Nil(t, ForContext(context.Background()))
}
