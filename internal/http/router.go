// Package httpapi wires the ops HTTP surface (Gin) to the state store and
// the scheduler. The service is notification-first; HTTP exists for probes,
// metrics, and a small read-only view over reconciled outages.
//
// Middleware order: tracing first, then request IDs, logging, recovery,
// metrics, compression, CORS.
package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	"github.com/kouranbot/outage-notifier/internal/config"
	"github.com/kouranbot/outage-notifier/internal/http/handlers"
	"github.com/kouranbot/outage-notifier/internal/http/middleware"
)

// RegisterRoutes attaches middleware and endpoints to the Gin engine.
func RegisterRoutes(r *gin.Engine, db *gorm.DB, sched handlers.ReadinessSource, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.Metrics())
	r.Use(gzip.Gzip(gzip.DefaultCompression))

	if len(cfg.CORS.AllowedOrigins) == 0 {
		r.Use(cors.New(cors.Config{
			AllowAllOrigins: true,
			AllowMethods:    []string{"GET", "OPTIONS"},
			AllowHeaders:    []string{"Origin", "Content-Type", "Accept"},
			ExposeHeaders:   []string{"X-Request-ID", "Content-Length"},
			MaxAge:          12 * time.Hour,
		}))
	} else {
		r.Use(cors.New(cors.Config{
			AllowOrigins:  cfg.CORS.AllowedOrigins,
			AllowMethods:  []string{"GET", "OPTIONS"},
			AllowHeaders:  []string{"Origin", "Content-Type", "Accept"},
			ExposeHeaders: []string{"X-Request-ID", "Content-Length"},
			MaxAge:        12 * time.Hour,
		}))
	}

	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	status := &handlers.StatusHandler{DB: db, Sched: sched}
	r.GET("/health", status.Health)
	r.GET("/ready", status.Ready)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	outages := &handlers.OutageHandler{DB: db}
	api := r.Group("/api/v1")
	{
		api.GET("/outages", outages.ListOutages)
		api.GET("/districts", outages.ListDistricts)
		api.GET("/districts/:id/localities", outages.ListLocalities)
	}
}
