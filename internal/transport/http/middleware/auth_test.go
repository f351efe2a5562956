package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/avbraun/durasched/internal/transport/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func signToken(t *testing.T, key []byte) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "admin",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString(key)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func runAuth(mw gin.HandlerFunc, authHeader string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/tasks", nil)
	if authHeader != "" {
		c.Request.Header.Set("Authorization", authHeader)
	}
	mw(c)
	return rec
}

func TestAuth_ValidToken_Passes(t *testing.T) {
	key := []byte("test-admin-token")
	rec := runAuth(middleware.Auth(key), "Bearer "+signToken(t, key))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected request to pass through, got status %d", rec.Code)
	}
}

func TestAuth_MissingHeader_Returns401(t *testing.T) {
	key := []byte("test-admin-token")
	rec := runAuth(middleware.Auth(key), "")

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestAuth_WrongKey_Returns401(t *testing.T) {
	key := []byte("test-admin-token")
	rec := runAuth(middleware.Auth(key), "Bearer "+signToken(t, []byte("other-key")))

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestMaybeAuth_EmptyKey_IsNoOp(t *testing.T) {
	rec := runAuth(middleware.MaybeAuth(nil), "")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected no-op to pass through, got status %d", rec.Code)
	}
}
