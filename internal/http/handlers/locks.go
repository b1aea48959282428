package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// @Summary Active edit locks
// @Produce json
// @Success 200 {object} map[string]any
// @Router /api/locks [get]
func (h *Handler) LocksList(c *gin.Context) {
	leases, err := h.Locks.ListActive(c.Request.Context())
	if err != nil {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to list locks", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"locks": leases, "total": len(leases)})
}

// LockDelete force-releases a lock regardless of who holds it.
func (h *Handler) LockDelete(c *gin.Context) {
	resourceType := c.Param("type")
	resourceID := c.Param("id")
	if err := h.Locks.Release(c.Request.Context(), resourceType, resourceID); err != nil {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to release lock", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
