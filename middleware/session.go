package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// SessionHeader carries the storefront session id. The browser generates it
// once and sends it on every request; all cart/checkout/payment state is
// keyed by it.
const SessionHeader = "X-Session-ID"

const sessionKey = "session_id"

// RequireSession rejects requests without a session id.
func RequireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		sid := c.GetHeader(SessionHeader)
		if sid == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "missing " + SessionHeader + " header"})
			c.Abort()
			return
		}
		c.Set(sessionKey, sid)
		c.Next()
	}
}

// SessionID returns the session id set by RequireSession.
func SessionID(c *gin.Context) string {
	return c.GetString(sessionKey)
}
