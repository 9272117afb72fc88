package cors

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/edu-booking-api/pkg/middleware/requestid"
)

const (
	allowMethods = "GET, POST, PUT, PATCH, DELETE, OPTIONS"
	defaultAge   = 10 * time.Minute
)

var allowHeaders = strings.Join([]string{"Authorization", "Content-Type", requestid.Header}, ", ")

// Options configures the cross-origin policy for booking clients.
type Options struct {
	// AllowedOrigins lists exact origins. Empty allows any origin without credentials.
	AllowedOrigins []string
	MaxAge         time.Duration
}

// New returns the CORS middleware.
func New(opts Options) gin.HandlerFunc {
	origins := make(map[string]struct{}, len(opts.AllowedOrigins))
	for _, origin := range opts.AllowedOrigins {
		origins[normalize(origin)] = struct{}{}
	}
	wildcard := len(origins) == 0
	maxAge := opts.MaxAge
	if maxAge <= 0 {
		maxAge = defaultAge
	}
	maxAgeSeconds := strconv.Itoa(int(maxAge / time.Second))

	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Add("Vary", "Origin")

		origin := c.GetHeader("Origin")
		switch {
		case origin == "":
		case wildcard:
			h.Set("Access-Control-Allow-Origin", "*")
		case allowed(origins, origin):
			h.Set("Access-Control-Allow-Origin", origin)
			h.Set("Access-Control-Allow-Credentials", "true")
		default:
			if c.Request.Method == http.MethodOptions {
				c.AbortWithStatus(http.StatusForbidden)
				return
			}
			c.Next()
			return
		}
		h.Set("Access-Control-Expose-Headers", requestid.Header)

		if c.Request.Method == http.MethodOptions && origin != "" {
			h.Set("Access-Control-Allow-Headers", allowHeaders)
			h.Set("Access-Control-Allow-Methods", allowMethods)
			h.Set("Access-Control-Max-Age", maxAgeSeconds)
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

func allowed(origins map[string]struct{}, origin string) bool {
	_, ok := origins[normalize(origin)]
	return ok
}

func normalize(origin string) string {
	return strings.ToLower(strings.TrimRight(strings.TrimSpace(origin), "/"))
}
