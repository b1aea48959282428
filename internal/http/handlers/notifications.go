package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/brokeragedesk/backend/internal/service"
)

// @Summary Deadline and change notifications for the current user
// @Produce json
// @Success 200 {object} map[string]any
// @Router /api/notifications [get]
func (h *Handler) Notifications(c *gin.Context) {
	contracts, err := h.Store.ListContracts(c.Request.Context())
	if err != nil {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to load contracts", err.Error())
		return
	}
	notifications := service.BuildNotifications(contracts, currentUser(c), time.Now())
	c.JSON(http.StatusOK, gin.H{
		"notifications": notifications,
		"total":         len(notifications),
	})
}

// Summary reports per-staff counts of open contracts by mediation type.
func (h *Handler) Summary(c *gin.Context) {
	contracts, err := h.Store.ListContracts(c.Request.Context())
	if err != nil {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to load contracts", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"summary": service.BuildSummary(contracts)})
}
