package cors

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func newEngine(opts Options) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(New(opts))
	r.GET("/slots", func(c *gin.Context) { c.Status(http.StatusOK) })
	return r
}

func do(r *gin.Engine, method, origin string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, "/slots", nil)
	if origin != "" {
		req.Header.Set("Origin", origin)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCORSAllowsListedOrigin(t *testing.T) {
	r := newEngine(Options{AllowedOrigins: []string{"https://portal.example.sch.id/"}})

	w := do(r, http.MethodGet, "https://portal.example.sch.id")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "https://portal.example.sch.id", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
	assert.Equal(t, "X-Request-ID", w.Header().Get("Access-Control-Expose-Headers"))
}

func TestCORSIgnoresUnknownOrigin(t *testing.T) {
	r := newEngine(Options{AllowedOrigins: []string{"https://portal.example.sch.id"}})

	w := do(r, http.MethodGet, "https://evil.example.com")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))

	preflight := do(r, http.MethodOptions, "https://evil.example.com")
	assert.Equal(t, http.StatusForbidden, preflight.Code)
}

func TestCORSPreflight(t *testing.T) {
	r := newEngine(Options{MaxAge: time.Hour})

	w := do(r, http.MethodOptions, "https://any.example.com")
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Credentials"))
	assert.Equal(t, "3600", w.Header().Get("Access-Control-Max-Age"))
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Headers"), "Authorization")
}
