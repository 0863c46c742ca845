package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// UsernameKey holds the authenticated username (the token subject).
const UsernameKey = "username"

var (
	errMissingToken   = errors.New("authorization header must be 'Bearer <token>'")
	errNoSecret       = errors.New("token validation is not configured")
	errMissingSubject = errors.New("token has no subject")
)

// BearerAuth validates HS256 bearer tokens signed with secret and stores the
// subject claim under UsernameKey. Tokens are issued elsewhere.
//
// An empty secret rejects every request with 401.
func BearerAuth(secret string) gin.HandlerFunc {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	)
	key := []byte(secret)

	return func(c *gin.Context) {
		if secret == "" {
			AbortWithError(c, http.StatusUnauthorized, "unauthorized", errNoSecret)
			return
		}

		raw, ok := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
		if !ok || strings.TrimSpace(raw) == "" {
			AbortWithError(c, http.StatusUnauthorized, "unauthorized", errMissingToken)
			return
		}

		claims := &jwt.RegisteredClaims{}
		if _, err := parser.ParseWithClaims(strings.TrimSpace(raw), claims, func(*jwt.Token) (any, error) {
			return key, nil
		}); err != nil {
			AbortWithError(c, http.StatusUnauthorized, "invalid token", err)
			return
		}
		if claims.Subject == "" {
			AbortWithError(c, http.StatusUnauthorized, "invalid token", errMissingSubject)
			return
		}

		c.Set(UsernameKey, claims.Subject)
		c.Next()
	}
}
