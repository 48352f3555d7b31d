// README: Tests for the auth middleware and role gating.
package middleware_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"souq/internal/http/middleware"
	"souq/internal/modules/account"
)

// stubVerifier is a test double for middleware.TokenVerifier.
type stubVerifier struct {
	id   uuid.UUID
	role account.Role
	err  error
}

func (s *stubVerifier) Verify(_ string) (uuid.UUID, account.Role, error) {
	return s.id, s.role, s.err
}

func newTestRouter(verifier middleware.TokenVerifier, gate ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middleware.Auth(verifier))
	handlers := append(gate, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"id":   middleware.CallerID(c).String(),
			"role": middleware.CallerRole(c),
		})
	})
	r.GET("/test", handlers...)
	return r
}

func get(r *gin.Engine, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuth_MissingHeader(t *testing.T) {
	r := newTestRouter(&stubVerifier{id: uuid.New(), role: account.RoleCustomer})
	if w := get(r, ""); w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}
}

func TestAuth_WrongScheme(t *testing.T) {
	r := newTestRouter(&stubVerifier{id: uuid.New(), role: account.RoleCustomer})
	if w := get(r, "Token sometoken"); w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}
}

func TestAuth_VerifierError(t *testing.T) {
	r := newTestRouter(&stubVerifier{err: errors.New("bad token")})
	if w := get(r, "Bearer invalidtoken"); w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}
}

func TestAuth_ValidToken_CallerPopulated(t *testing.T) {
	id := uuid.New()
	r := newTestRouter(&stubVerifier{id: id, role: account.RoleDriver})
	w := get(r, "Bearer validtoken")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, id.String()) {
		t.Errorf("expected caller id in body, got %s", body)
	}
	if !strings.Contains(body, "driver") {
		t.Errorf("expected role driver in body, got %s", body)
	}
}

func TestRequireRole_Rejected(t *testing.T) {
	r := newTestRouter(
		&stubVerifier{id: uuid.New(), role: account.RoleCustomer},
		middleware.RequireRole(account.RoleDriver),
	)
	if w := get(r, "Bearer validtoken"); w.Code != http.StatusForbidden {
		t.Errorf("expected 403, got %d", w.Code)
	}
}

func TestRequireRole_Allowed(t *testing.T) {
	r := newTestRouter(
		&stubVerifier{id: uuid.New(), role: account.RoleDriver},
		middleware.RequireRole(account.RoleDriver),
	)
	if w := get(r, "Bearer validtoken"); w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
}

func TestRequireRole_AdminBypass(t *testing.T) {
	r := newTestRouter(
		&stubVerifier{id: uuid.New(), role: account.RoleAdmin},
		middleware.RequireRole(account.RoleDriver),
	)
	if w := get(r, "Bearer validtoken"); w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
}
