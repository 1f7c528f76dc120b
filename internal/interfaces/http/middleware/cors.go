package middleware

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

// CORSConfig controls which browser origins may call the JSON API.  The
// portal page itself is same-origin and never needs it.
type CORSConfig struct {
	// AllowedOrigins lists exact origins, "*" or, with AllowWildcard,
	// subdomain patterns such as "*.example.org".
	AllowedOrigins []string
	AllowedMethods []string
	AllowedHeaders []string
	ExposedHeaders []string
	// MaxAge is how long, in seconds, a preflight result may be cached.
	MaxAge        int
	AllowWildcard bool
}

// DefaultCORSConfig returns a config with no allowed origins.  Callers fill
// in AllowedOrigins.
func DefaultCORSConfig() CORSConfig {
	return CORSConfig{
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodOptions,
		},
		AllowedHeaders: []string{
			"Accept",
			"Content-Type",
			RequestIDHeader,
		},
		ExposedHeaders: []string{
			RequestIDHeader,
			"Content-Disposition",
			"Retry-After",
			"X-RateLimit-Limit",
			"X-RateLimit-Remaining",
			"X-RateLimit-Reset",
		},
		MaxAge: 86400,
	}
}

// CORS answers preflight requests and decorates responses for allowed
// origins.  Credentials are never allowed: identity comes from the trusted
// proxy header, which a cross-origin page must not be able to replay.
func CORS(cfg CORSConfig) gin.HandlerFunc {
	allowedMethods := strings.Join(cfg.AllowedMethods, ", ")
	allowedHeaders := strings.Join(cfg.AllowedHeaders, ", ")
	exposedHeaders := strings.Join(cfg.ExposedHeaders, ", ")
	maxAge := strconv.Itoa(cfg.MaxAge)

	exact := make(map[string]bool, len(cfg.AllowedOrigins))
	var suffixes []string
	allowAll := false
	for _, origin := range cfg.AllowedOrigins {
		switch {
		case origin == "*":
			allowAll = true
		case cfg.AllowWildcard && strings.HasPrefix(origin, "*."):
			suffixes = append(suffixes, strings.ToLower(origin[1:]))
		default:
			exact[strings.ToLower(strings.TrimSuffix(origin, "/"))] = true
		}
	}

	allowed := func(origin string) bool {
		if allowAll {
			return true
		}
		origin = strings.ToLower(origin)
		if exact[origin] {
			return true
		}
		for _, s := range suffixes {
			if strings.HasSuffix(origin, s) {
				return true
			}
		}
		return false
	}

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin == "" || !allowed(origin) {
			c.Next()
			return
		}

		h := c.Writer.Header()
		h.Add("Vary", "Origin")
		if allowAll {
			h.Set("Access-Control-Allow-Origin", "*")
		} else {
			h.Set("Access-Control-Allow-Origin", origin)
		}

		if c.Request.Method == http.MethodOptions && c.GetHeader("Access-Control-Request-Method") != "" {
			h.Add("Vary", "Access-Control-Request-Method")
			h.Add("Vary", "Access-Control-Request-Headers")
			h.Set("Access-Control-Allow-Methods", allowedMethods)
			h.Set("Access-Control-Allow-Headers", allowedHeaders)
			if cfg.MaxAge > 0 {
				h.Set("Access-Control-Max-Age", maxAge)
			}
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		if exposedHeaders != "" {
			h.Set("Access-Control-Expose-Headers", exposedHeaders)
		}
		c.Next()
	}
}
