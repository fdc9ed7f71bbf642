package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/kouranbot/outage-notifier/internal/repo"
)

// OutageHandler serves the read-only view over the state store.
type OutageHandler struct {
	DB *gorm.DB
}

// ListOutages returns every outage whose window has not yet closed, ordered
// by start time. Rows past their window are filtered at read time, never
// deleted.
func (h *OutageHandler) ListOutages(c *gin.Context) {
	outages, err := repo.ListActiveOutages(c.Request.Context(), h.DB, time.Now().UTC())
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "could not list outages")
		return
	}
	ok(c, http.StatusOK, gin.H{"outages": outages, "count": len(outages)})
}

// ListDistricts returns the known districts.
func (h *OutageHandler) ListDistricts(c *gin.Context) {
	districts, err := repo.ListDistricts(c.Request.Context(), h.DB)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "could not list districts")
		return
	}
	ok(c, http.StatusOK, gin.H{"districts": districts, "count": len(districts)})
}

// ListLocalities returns the localities of one district.
func (h *OutageHandler) ListLocalities(c *gin.Context) {
	districtID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || districtID < 1 {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid district id")
		return
	}

	localities, err := repo.ListLocalities(c.Request.Context(), h.DB, districtID)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "could not list localities")
		return
	}
	ok(c, http.StatusOK, gin.H{"localities": localities, "count": len(localities)})
}
