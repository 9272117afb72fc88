package main

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/edu-booking-api/api/swagger"
	"github.com/noah-isme/edu-booking-api/internal/handler"
	"github.com/noah-isme/edu-booking-api/internal/middleware"
	"github.com/noah-isme/edu-booking-api/internal/models"
	"github.com/noah-isme/edu-booking-api/pkg/config"
	"github.com/noah-isme/edu-booking-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/edu-booking-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/edu-booking-api/pkg/middleware/requestid"
)

func newRouter(cfg *config.Config, app *application, logr *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr, actorFields))
	r.Use(corsmiddleware.New(corsmiddleware.Options{AllowedOrigins: cfg.CORS.AllowedOrigins, MaxAge: cfg.CORS.MaxAge}))
	r.Use(middleware.Metrics(app.metrics, "/metrics", "/health", "/ready"))
	r.Use(middleware.WithResponseMeta())

	metricsHandler := handler.NewMetricsHandler(app.metrics, readinessChecks(app)...)
	providerHandler := handler.NewProviderHandler(app.providers)
	availabilityHandler := handler.NewAvailabilityHandler(app.availability, app.slots)
	bookingHandler := handler.NewBookingHandler(app.bookings)
	recurringHandler := handler.NewRecurringBookingHandler(app.recurring)

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	public := api.Group("")
	public.Use(middleware.OptionalJWT(app.auth))
	public.GET("/providers/:id", providerHandler.Get)
	public.GET("/providers/:id/rules", availabilityHandler.ListRules)
	public.GET("/providers/:id/exceptions", availabilityHandler.ListExceptions)
	public.GET("/providers/:id/slots", availabilityHandler.Slots)

	secured := api.Group("")
	secured.Use(middleware.JWT(app.auth))

	secured.POST("/providers", middleware.RequireRoles(
		models.RoleMentor, models.RoleCounsellor, models.RoleTutor, models.RoleAdmin, models.RoleSuperAdmin,
	), providerHandler.Create)
	secured.POST("/providers/:id/deactivate", providerHandler.Deactivate)
	secured.PUT("/providers/:id/rules", availabilityHandler.UpsertRule)
	secured.DELETE("/rules/:id", availabilityHandler.DeactivateRule)
	secured.POST("/providers/:id/exceptions", availabilityHandler.AddException)
	secured.DELETE("/exceptions/:id", availabilityHandler.DeleteException)

	secured.POST("/booking-requests", bookingHandler.CreateRequest)
	secured.GET("/booking-requests/:id", bookingHandler.GetRequest)
	secured.POST("/booking-requests/:id/accept", bookingHandler.Accept)
	secured.POST("/booking-requests/:id/decline", bookingHandler.Decline)
	secured.GET("/providers/:id/booking-requests", bookingHandler.ListProviderRequests)
	secured.GET("/providers/:id/sessions", bookingHandler.ListProviderSessions)
	secured.GET("/sessions/:id", bookingHandler.GetSession)
	secured.POST("/sessions/:id/cancel", bookingHandler.CancelSession)
	secured.POST("/sessions/:id/complete", bookingHandler.CompleteSession)

	secured.POST("/recurring-bookings", recurringHandler.Create)
	secured.GET("/recurring-bookings/:id", recurringHandler.Get)
	secured.PATCH("/recurring-bookings/:id/status", recurringHandler.UpdateStatus)
	secured.POST("/recurring-bookings/:id/completed-sessions", recurringHandler.RecordCompletedSession)
	secured.POST("/recurring-bookings/:id/reschedules", recurringHandler.Reschedule)
	secured.GET("/recurring-bookings/:id/reschedules", recurringHandler.ListReschedules)
	secured.GET("/providers/:id/recurring-bookings", recurringHandler.ListByProvider)
	secured.POST("/reschedules/:id/approve", recurringHandler.ApproveReschedule)
	secured.POST("/reschedules/:id/reject", recurringHandler.RejectReschedule)

	persons := secured.Group("/persons/:id")
	persons.Use(middleware.SelfOrRoles("id", models.RoleAdmin, models.RoleSuperAdmin))
	persons.GET("/providers", providerHandler.ListByPerson)
	persons.GET("/booking-requests", bookingHandler.ListRequesterRequests)
	persons.GET("/recurring-bookings", recurringHandler.ListByRequester)

	admin := secured.Group("/admin")
	admin.Use(middleware.RequireRoles(models.RoleAdmin, models.RoleSuperAdmin))
	admin.GET("/metrics", metricsHandler.Snapshot)

	return r
}

func actorFields(c *gin.Context) []zap.Field {
	claims := middleware.CurrentClaims(c)
	if claims == nil {
		return nil
	}
	return []zap.Field{zap.String("actor_id", claims.UserID), zap.String("actor_role", string(claims.Role))}
}

func readinessChecks(app *application) []handler.ReadinessCheck {
	checks := []handler.ReadinessCheck{{Name: "postgres", Ping: app.db.PingContext}}
	if app.cache != nil {
		checks = append(checks, handler.ReadinessCheck{Name: "redis", Ping: app.cache.Ping})
	}
	return checks
}
