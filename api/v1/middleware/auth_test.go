package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"a2a_registry/internal/auth"

	"github.com/gin-gonic/gin"
)

func newOptionalAuthRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/agent", AuthOptional(), func(c *gin.Context) {
		caller := GetCaller(c)
		c.JSON(http.StatusOK, gin.H{"client_id": caller.ClientID, "kind": caller.Kind})
	})
	return r
}

func TestAuthOptional_AnonymousPassesThrough(t *testing.T) {
	auth.InitJWT("test-secret")
	r := newOptionalAuthRouter()

	req := httptest.NewRequest(http.MethodGet, "/agent", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Anonymous request status = %d, want %d", w.Code, http.StatusOK)
	}
	if body := w.Body.String(); body != `{"client_id":"","kind":""}` {
		t.Errorf("Anonymous caller should be the zero Caller, got %s", body)
	}
}

func TestAuthOptional_ValidTokenResolvesCaller(t *testing.T) {
	auth.InitJWT("test-secret")
	r := newOptionalAuthRouter()

	token, err := auth.GenerateClientToken("client-9", auth.RoleClient, "acme",
		time.Now().Add(time.Hour), "test")
	if err != nil {
		t.Fatalf("Failed to generate token: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/agent", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Authenticated request status = %d, want %d", w.Code, http.StatusOK)
	}
	if body := w.Body.String(); body != `{"client_id":"client-9","kind":"service_client"}` {
		t.Errorf("Unexpected caller: %s", body)
	}
}

func TestAuthOptional_InvalidTokenRejected(t *testing.T) {
	auth.InitJWT("test-secret")
	r := newOptionalAuthRouter()

	req := httptest.NewRequest(http.MethodGet, "/agent", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("Invalid token status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}

func TestAuthOptional_MalformedHeaderRejected(t *testing.T) {
	auth.InitJWT("test-secret")
	r := newOptionalAuthRouter()

	req := httptest.NewRequest(http.MethodGet, "/agent", nil)
	req.Header.Set("Authorization", "Token abc")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("Malformed header status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}
