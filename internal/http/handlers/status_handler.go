package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// ReadinessSource reports scheduler progress for the readiness probe.
type ReadinessSource interface {
	LastRun() (time.Time, bool)
	Running() bool
}

// StatusHandler serves the liveness and readiness endpoints.
type StatusHandler struct {
	DB    *gorm.DB
	Sched ReadinessSource
}

// Health is the liveness probe. It only proves the process is serving.
func (h *StatusHandler) Health(c *gin.Context) {
	ok(c, http.StatusOK, gin.H{"status": "ok"})
}

// Ready reports 200 once the database answers and at least one
// reconciliation cycle has completed.
func (h *StatusHandler) Ready(c *gin.Context) {
	sqlDB, err := h.DB.DB()
	if err == nil {
		err = sqlDB.PingContext(c.Request.Context())
	}
	if err != nil {
		fail(c, http.StatusServiceUnavailable, ErrCodeNotReady, "database unavailable")
		return
	}

	lastRun, ran := h.Sched.LastRun()
	if !ran {
		fail(c, http.StatusServiceUnavailable, ErrCodeNotReady, "no cycle completed yet")
		return
	}

	ok(c, http.StatusOK, gin.H{
		"status":        "ready",
		"last_cycle":    lastRun.UTC(),
		"cycle_running": h.Sched.Running(),
	})
}
