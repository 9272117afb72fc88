package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
)

const (
	responseMetaKey  = "response_meta"
	cacheHitKey      = "cache_hit"
	processingTimeMs = "processing_time_ms"
)

// WithResponseMeta gives every request a metadata map that handlers can add to and embed in
// the response envelope.
func WithResponseMeta() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(responseMetaKey, map[string]interface{}{})
		c.Next()
	}
}

// SetMeta stores one metadata value for the current response.
func SetMeta(c *gin.Context, key string, value interface{}) {
	if c == nil {
		return
	}
	meta, ok := metaMap(c)
	if !ok {
		meta = map[string]interface{}{}
		c.Set(responseMetaKey, meta)
	}
	meta[key] = value
}

// SetCacheHit records whether the payload came from the slot cache.
func SetCacheHit(c *gin.Context, hit bool) {
	SetMeta(c, cacheHitKey, hit)
}

// SetProcessingTime records how long the handler spent since start.
func SetProcessingTime(c *gin.Context, start time.Time) {
	SetMeta(c, processingTimeMs, time.Since(start).Milliseconds())
}

// ExtractMeta returns the metadata collected so far, or nil when there is none.
func ExtractMeta(c *gin.Context) map[string]interface{} {
	if c == nil {
		return nil
	}
	meta, _ := metaMap(c)
	return meta
}

func metaMap(c *gin.Context) (map[string]interface{}, bool) {
	value, ok := c.Get(responseMetaKey)
	if !ok {
		return nil, false
	}
	meta, ok := value.(map[string]interface{})
	return meta, ok
}
