// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file implements bearer-token authentication. RequireAuth verifies the
// Authorization header against the application's token authenticator and
// stashes the authenticated identity in the Gin context for downstream
// middleware and handlers:
//   - "userID"   (uint)   the account primary key
//   - "username" (string) the account handle at token issue time
//
// Every failure mode (missing header, malformed scheme, bad signature,
// expired token, wrong issuer/audience) produces the same 401 response, so
// the endpoint does not leak why a token was rejected.
package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/canwegame/canwegame-api/internal/auth"
)

// TokenAuthenticator verifies a compact token string and returns its claims.
// *auth.TokenIssuer satisfies this; tests may substitute a stub.
type TokenAuthenticator interface {
	Authenticate(token string) (*auth.Claims, error)
}

// RequireAuth returns a Gin middleware that rejects requests without a valid
// bearer token. On success the identity is stored in the context; on failure
// the request is aborted with a uniform 401 envelope.
func RequireAuth(tokens TokenAuthenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			unauthorized(c)
			return
		}

		claims, err := tokens.Authenticate(token)
		if err != nil {
			unauthorized(c)
			return
		}

		c.Set("userID", claims.UserID)
		c.Set("username", claims.Username)
		c.Next()
	}
}

// bearerToken extracts the credential from an "Authorization: Bearer <token>"
// header value. The scheme comparison is case-insensitive per RFC 7235.
func bearerToken(header string) (string, bool) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", false
	}
	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	return parts[1], true
}

// unauthorized aborts with the standard 401 envelope.
func unauthorized(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"request_id": c.Writer.Header().Get(requestIDHeader),
		"code":       "unauthorized",
		"message":    "authentication required",
	})
}
