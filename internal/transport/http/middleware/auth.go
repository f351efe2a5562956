package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const errUnauthorized = "Unauthorized"

// Auth validates a Bearer HS256 JWT signed with key. Single-operator mode:
// any token valid against key is accepted, there is no per-user claim.
// Callers mount this only when an admin token is configured; see
// MaybeAuth for the unconfigured case.
func Auth(key []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": errUnauthorized})
			return
		}

		rawToken := strings.TrimPrefix(header, "Bearer ")

		token, err := jwt.Parse(rawToken, func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, errors.New("unexpected signing method")
			}
			return key, nil
		})
		if err != nil || !token.Valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": errUnauthorized})
			return
		}

		c.Next()
	}
}

// MaybeAuth returns Auth(key) when key is non-empty, otherwise a no-op
// handler. This lets the router mount the same route group regardless of
// whether ADMIN_AUTH_TOKEN is set.
func MaybeAuth(key []byte) gin.HandlerFunc {
	if len(key) == 0 {
		return func(c *gin.Context) { c.Next() }
	}
	return Auth(key)
}
