package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/brokeragedesk/backend/internal/casenumber"
	"github.com/brokeragedesk/backend/internal/db"
	"github.com/brokeragedesk/backend/internal/goals"
	"github.com/brokeragedesk/backend/internal/lock"
)

type Handler struct {
	Store     *db.Store
	Locks     *lock.Manager
	Goals     *goals.Service
	Sequencer *casenumber.Sequencer
	Validator *validator.Validate
	Logger    zerolog.Logger
}

// @Summary Health check
// @Produce json
// @Success 200 {object} map[string]any
// @Router /healthz [get]
func (h *Handler) Healthz(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()
	if err := h.Store.Ping(ctx); err != nil {
		writeError(c, http.StatusServiceUnavailable, "DB_UNAVAILABLE", "Database unavailable", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func writeError(c *gin.Context, status int, code string, message string, details any) {
	body := gin.H{
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	}
	if details != nil {
		body["error"].(gin.H)["details"] = details
	}
	c.AbortWithStatusJSON(status, body)
}

// currentUser is the opaque identity propagated by the edge; authentication
// itself lives outside this service.
func currentUser(c *gin.Context) string {
	user := c.GetString("user")
	if user == "" {
		return "unknown"
	}
	return user
}

func validCategory(category string) bool {
	switch category {
	case "sell", "buy", "investment":
		return true
	default:
		return false
	}
}
