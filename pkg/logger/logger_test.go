package logger

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/noah-isme/edu-booking-api/pkg/config"
	"github.com/noah-isme/edu-booking-api/pkg/middleware/requestid"
)

func TestNewHonoursLevel(t *testing.T) {
	l, err := New(&config.Config{Env: config.EnvProduction, Log: config.LogConfig{Level: "warn"}})
	require.NoError(t, err)
	assert.False(t, l.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, l.Core().Enabled(zapcore.WarnLevel))

	fallback, err := New(&config.Config{Env: config.EnvDevelopment, Log: config.LogConfig{Level: "loud", Format: "console"}})
	require.NoError(t, err)
	assert.True(t, fallback.Core().Enabled(zapcore.InfoLevel))
	assert.False(t, fallback.Core().Enabled(zapcore.DebugLevel))
}

func TestGinMiddlewareLevelsAndFields(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, logs := observer.New(zapcore.DebugLevel)
	r := gin.New()
	r.Use(requestid.Middleware())
	r.Use(GinMiddleware(zap.New(core), func(c *gin.Context) []zap.Field {
		return []zap.Field{zap.String("actor_id", "person-1")}
	}))
	r.GET("/providers/:id/slots", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.POST("/booking-requests", func(c *gin.Context) { c.Status(http.StatusConflict) })

	for _, req := range []*http.Request{
		httptest.NewRequest(http.MethodGet, "/providers/mentor-1/slots", nil),
		httptest.NewRequest(http.MethodPost, "/booking-requests", nil),
	} {
		r.ServeHTTP(httptest.NewRecorder(), req)
	}

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
	assert.Equal(t, "/providers/:id/slots", entries[0].ContextMap()["route"])
	assert.Equal(t, "person-1", entries[0].ContextMap()["actor_id"])
	assert.NotEmpty(t, entries[0].ContextMap()["request_id"])
	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
}

func TestFromContext(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	ctx := requestid.WithValue(context.Background(), "req-7")

	FromContext(ctx, zap.New(core)).Info("sweep")
	FromContext(context.Background(), zap.New(core)).Info("sweep")

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "req-7", entries[0].ContextMap()["request_id"])
	assert.NotContains(t, entries[1].ContextMap(), "request_id")
}
