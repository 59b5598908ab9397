package middleware

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-tasuki-companion/internal/tasuki"
)

const (
	userIDKey = "userID"

	// AccessTokenParam carries the credential on websocket handshakes, where
	// browsers cannot set an Authorization header.
	AccessTokenParam = "access_token"
)

// Credentials forwards the caller's bearer token to the upstream API and
// derives the local user id from it, so local state (favorites, stored
// relationships, chat sessions, event subscriptions) is keyed by the same
// account the upstream sees. The token itself never becomes the id.
//
// Requests without a credential keep the X-User-ID / demo-user fallback and
// reach upstream with the static token.
func Credentials() gin.HandlerFunc {
	return func(c *gin.Context) {
		if tok := bearerToken(c); tok != "" {
			c.Set(userIDKey, UserIDForToken(tok))
			c.Request = c.Request.WithContext(tasuki.WithBearer(c.Request.Context(), tok))
		}
		c.Next()
	}
}

// UserIDForToken is the stable local id of the account behind tok.
func UserIDForToken(tok string) string {
	sum := sha256.Sum256([]byte(tok))
	return "u_" + hex.EncodeToString(sum[:16])
}

func bearerToken(c *gin.Context) string {
	if h := strings.TrimSpace(c.GetHeader("Authorization")); len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	if strings.EqualFold(c.GetHeader("Upgrade"), "websocket") {
		return strings.TrimSpace(c.Query(AccessTokenParam))
	}
	return ""
}
