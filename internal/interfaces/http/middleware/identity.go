package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	// DefaultIdentityHeader is set by the authenticating reverse proxy.
	DefaultIdentityHeader = "HTTP_UID"
	// AnonymousUser is reported when the proxy did not identify the caller.
	AnonymousUser = "USER_NOT_FOUND"

	userKey      = "user"
	anonymousKey = "anonymous"
)

// IdentityConfig names the header carrying the caller's user id.
type IdentityConfig struct {
	Header   string
	Fallback string
}

// Identity stores the proxy-supplied user id on the context.  The portal does
// no authentication of its own.
func Identity(cfg IdentityConfig) gin.HandlerFunc {
	if cfg.Header == "" {
		cfg.Header = DefaultIdentityHeader
	}
	if cfg.Fallback == "" {
		cfg.Fallback = AnonymousUser
	}
	return func(c *gin.Context) {
		user := strings.TrimSpace(c.GetHeader(cfg.Header))
		if user == "" {
			user = cfg.Fallback
			c.Set(anonymousKey, true)
		}
		c.Set(userKey, user)
		c.Next()
	}
}

// GetUser returns the caller's user id set by Identity.
func GetUser(c *gin.Context) string {
	if u := c.GetString(userKey); u != "" {
		return u
	}
	return AnonymousUser
}

// IsAnonymous reports whether the proxy sent no user id.
func IsAnonymous(c *gin.Context) bool {
	return c.GetBool(anonymousKey)
}
