package requestid

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	// Header carries the correlation ID in both directions.
	Header = "X-Request-ID"

	ginKey       = "request_id"
	maxClientLen = 128
)

type ctxKey struct{}

// Middleware tags every request with a correlation ID. A well-formed ID sent by the caller is
// kept so booking flows can be traced across the gateway; anything else is replaced.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := sanitize(c.GetHeader(Header))
		if id == "" {
			id = uuid.NewString()
		}

		c.Set(ginKey, id)
		c.Request = c.Request.WithContext(WithValue(c.Request.Context(), id))
		c.Writer.Header().Set(Header, id)

		c.Next()
	}
}

// Value returns the request ID stored in the Gin context.
func Value(c *gin.Context) string {
	if c == nil {
		return ""
	}
	if v, ok := c.Get(ginKey); ok {
		if id, ok := v.(string); ok {
			return id
		}
	}
	if c.Request != nil {
		return FromContext(c.Request.Context())
	}
	return ""
}

// WithValue stores id on ctx for code below the HTTP layer.
func WithValue(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// FromContext returns the request ID carried by ctx, or "".
func FromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}

func sanitize(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" || len(raw) > maxClientLen {
		return ""
	}
	for _, r := range raw {
		if r < 0x21 || r > 0x7e {
			return ""
		}
	}
	return raw
}
