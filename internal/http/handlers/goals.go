package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/brokeragedesk/backend/internal/goals"
	"github.com/brokeragedesk/backend/internal/models"
	"github.com/brokeragedesk/backend/internal/progress"
)

// @Summary Goals for a month, a year, or the whole document
// @Produce json
// @Success 200 {object} map[string]any
// @Router /api/goals [get]
func (h *Handler) GoalsGet(c *gin.Context) {
	doc, err := h.Goals.LoadGoals(c.Request.Context())
	if err != nil {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to load goals", err.Error())
		return
	}

	if yearKey := c.Query("year"); yearKey != "" {
		if err := goals.ValidateYearKey(yearKey); err != nil {
			writeError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error(), nil)
			return
		}
		goal := goals.GoalForYear(doc, yearKey, true)
		c.JSON(http.StatusOK, gin.H{"year": yearKey, "goal": goal})
		return
	}

	if c.Query("all") == "true" {
		c.JSON(http.StatusOK, doc)
		return
	}
	monthKey, err := goals.NormalizeMonthKey(c.Query("month"), time.Now())
	if err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error(), nil)
		return
	}
	c.JSON(http.StatusOK, gin.H{"month": monthKey, "goal": goals.GoalForMonth(doc, monthKey)})
}

// GoalsPut writes a monthly or annual goal. A "year" query selects the
// annual bucket, otherwise "month" (default: current month).
func (h *Handler) GoalsPut(c *gin.Context) {
	var body any
	if err := c.ShouldBindJSON(&body); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid goal payload", err.Error())
		return
	}

	var (
		doc models.GoalsDocument
		err error
	)
	if yearKey := c.Query("year"); yearKey != "" {
		doc, err = h.Goals.SaveGoalForYear(c.Request.Context(), yearKey, body)
	} else {
		var monthKey string
		monthKey, err = goals.NormalizeMonthKey(c.Query("month"), time.Now())
		if err == nil {
			doc, err = h.Goals.SaveGoalForMonth(c.Request.Context(), monthKey, body)
		}
	}
	if err != nil {
		h.writeGoalsError(c, err, "Failed to save goals")
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "goals": doc})
}

func (h *Handler) SalesGet(c *gin.Context) {
	doc, err := h.Goals.LoadSales(c.Request.Context())
	if err != nil {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to load sales", err.Error())
		return
	}

	if yearKey := c.Query("year"); yearKey != "" {
		if err := goals.ValidateYearKey(yearKey); err != nil {
			writeError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error(), nil)
			return
		}
		c.JSON(http.StatusOK, gin.H{"year": yearKey, "sales": goals.SalesForYear(doc, yearKey, true)})
		return
	}

	monthKey, err := goals.NormalizeMonthKey(c.Query("month"), time.Now())
	if err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error(), nil)
		return
	}
	c.JSON(http.StatusOK, gin.H{"month": monthKey, "sales": goals.SalesForMonth(doc, monthKey)})
}

func (h *Handler) SalesPut(c *gin.Context) {
	var body any
	if err := c.ShouldBindJSON(&body); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid sales payload", err.Error())
		return
	}

	var (
		doc models.SalesDocument
		err error
	)
	if yearKey := c.Query("year"); yearKey != "" {
		doc, err = h.Goals.SaveSalesForYear(c.Request.Context(), yearKey, body)
	} else {
		var monthKey string
		monthKey, err = goals.NormalizeMonthKey(c.Query("month"), time.Now())
		if err == nil {
			doc, err = h.Goals.SaveSalesForMonth(c.Request.Context(), monthKey, body)
		}
	}
	if err != nil {
		h.writeGoalsError(c, err, "Failed to save sales")
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "sales": doc})
}

// @Summary Contract counts rolled up against goals
// @Produce json
// @Success 200 {object} map[string]any
// @Router /api/goals/progress [get]
func (h *Handler) GoalProgress(c *gin.Context) {
	contracts, err := h.Store.ListContracts(c.Request.Context())
	if err != nil {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to load contracts", err.Error())
		return
	}
	doc, err := h.Goals.LoadGoals(c.Request.Context())
	if err != nil {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to load goals", err.Error())
		return
	}

	monthly := progress.BuildMonthly(contracts)
	yearly := progress.BuildYearly(monthly, doc)
	now := time.Now()

	if yearKey := c.Query("year"); yearKey != "" {
		if err := goals.ValidateYearKey(yearKey); err != nil {
			writeError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error(), nil)
			return
		}
		year := yearly[yearKey]
		if year == nil {
			year = &models.YearlyProgress{Months: []string{}}
		}
		c.JSON(http.StatusOK, gin.H{"year": yearKey, "yearly": year})
		return
	}

	if monthParam := c.Query("month"); monthParam != "" {
		monthKey, err := goals.NormalizeMonthKey(monthParam, now)
		if err != nil {
			writeError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error(), nil)
			return
		}
		month := monthly[monthKey]
		if month == nil {
			month = &models.MonthlyProgress{Staff: map[string]*models.StaffProgress{}}
		}
		c.JSON(http.StatusOK, gin.H{
			"month":    monthKey,
			"goal":     goals.GoalForMonth(doc, monthKey),
			"progress": month,
		})
		return
	}

	currentMonth := goals.CurrentMonthKey(now)
	month := monthly[currentMonth]
	if month == nil {
		month = &models.MonthlyProgress{Staff: map[string]*models.StaffProgress{}}
	}
	c.JSON(http.StatusOK, gin.H{
		"currentMonth": currentMonth,
		"monthly": gin.H{
			"goal":     goals.GoalForMonth(doc, currentMonth),
			"progress": month,
		},
		"yearly":      yearly,
		"annualGoals": annualGoals(doc),
	})
}

func annualGoals(doc models.GoalsDocument) map[string]models.Goal {
	out := map[string]models.Goal{}
	for key, goal := range doc.Annual {
		if strings.Contains(key, "-") {
			continue
		}
		out[key] = goal
	}
	return out
}

func (h *Handler) writeGoalsError(c *gin.Context, err error, msg string) {
	switch {
	case errors.Is(err, goals.ErrBadMonthKey), errors.Is(err, goals.ErrBadYearKey):
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error(), nil)
	case errors.Is(err, goals.ErrSaveConflict):
		writeError(c, http.StatusConflict, "CONFLICT", "Settings were modified concurrently, retry", nil)
	default:
		writeError(c, http.StatusInternalServerError, "DB_ERROR", msg, err.Error())
	}
}
