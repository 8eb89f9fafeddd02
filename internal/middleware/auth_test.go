package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"barberhub/internal/models"
)

const testSecret = "test-secret"

func signToken(t *testing.T, claims *models.Claims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return signed
}

func authRequest(t *testing.T, header string) (*httptest.ResponseRecorder, *gin.Context) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/api/alerts", nil)
	if header != "" {
		c.Request.Header.Set("Authorization", header)
	}
	AuthMiddleware(testSecret, zap.NewNop())(c)
	return w, c
}

func TestAuthMiddlewareAcceptsValidToken(t *testing.T) {
	token := signToken(t, &models.Claims{
		TenantID: "tenant-1",
		UserID:   "user-1",
		Role:     "owner",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})

	w, c := authRequest(t, "Bearer "+token)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if got := c.GetString("tenant_id"); got != "tenant-1" {
		t.Errorf("tenant_id = %q, want tenant-1", got)
	}
	if got := c.GetString("user_id"); got != "user-1" {
		t.Errorf("user_id = %q, want user-1", got)
	}
}

func TestAuthMiddlewareRejectsMissingHeader(t *testing.T) {
	w, c := authRequest(t, "")
	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
	if !c.IsAborted() {
		t.Errorf("request should be aborted")
	}
}

func TestAuthMiddlewareRejectsMalformedHeader(t *testing.T) {
	w, _ := authRequest(t, "Token abc")
	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
}

func TestAuthMiddlewareRejectsExpiredToken(t *testing.T) {
	token := signToken(t, &models.Claims{
		TenantID: "tenant-1",
		UserID:   "user-1",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	})

	w, _ := authRequest(t, "Bearer "+token)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
}

func TestAuthMiddlewareRejectsWrongSecret(t *testing.T) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &models.Claims{TenantID: "tenant-1", UserID: "user-1"})
	signed, err := token.SignedString([]byte("other-secret"))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}

	w, _ := authRequest(t, "Bearer "+signed)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
}

func TestAuthMiddlewareRejectsTokenWithoutIdentity(t *testing.T) {
	token := signToken(t, &models.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})

	w, _ := authRequest(t, "Bearer "+token)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("token without tenant/user claims should be rejected, status = %d", w.Code)
	}
}
