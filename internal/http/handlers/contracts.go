package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/brokeragedesk/backend/internal/models"
	"github.com/brokeragedesk/backend/internal/service"
)

const lockResourceContract = "contract"

// @Summary List active contracts
// @Produce json
// @Success 200 {array} models.Contract
// @Router /api/contracts [get]
func (h *Handler) ContractsActive(c *gin.Context) {
	contracts, err := h.Store.ListContracts(c.Request.Context())
	if err != nil {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to load contracts", err.Error())
		return
	}
	active := []models.Contract{}
	for _, contract := range contracts {
		if !service.IsClosedStatus(contract.DealStatus) {
			active = append(active, contract)
		}
	}
	service.SortContracts(active)
	c.JSON(http.StatusOK, active)
}

// @Summary List closed contracts
// @Produce json
// @Success 200 {array} models.Contract
// @Router /api/contracts/closed [get]
func (h *Handler) ContractsClosed(c *gin.Context) {
	contracts, err := h.Store.ListContracts(c.Request.Context())
	if err != nil {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to load contracts", err.Error())
		return
	}
	closed := []models.Contract{}
	for _, contract := range contracts {
		if service.IsClosedStatus(contract.DealStatus) {
			closed = append(closed, contract)
		}
	}
	service.SortContracts(closed)
	c.JSON(http.StatusOK, closed)
}

func (h *Handler) ContractGet(c *gin.Context) {
	contract, err := h.Store.FindContract(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to load contract", err.Error())
		return
	}
	if contract == nil {
		writeError(c, http.StatusNotFound, "NOT_FOUND", "Contract not found", nil)
		return
	}
	c.JSON(http.StatusOK, contract)
}

// @Summary Create a contract
// @Accept json
// @Produce json
// @Success 201 {object} map[string]any
// @Failure 400 {object} map[string]any
// @Router /api/contracts [post]
func (h *Handler) ContractCreate(c *gin.Context) {
	var contract models.Contract
	if err := c.ShouldBindJSON(&contract); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid contract payload", err.Error())
		return
	}
	if contract.ID == "" {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "Contract id is required", nil)
		return
	}

	exists, err := h.Store.ContractIDExists(c.Request.Context(), contract.ID, "")
	if err != nil {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to check contract id", err.Error())
		return
	}
	if exists {
		writeError(c, http.StatusBadRequest, "DUPLICATE_ID", "Contract id already in use", nil)
		return
	}

	bucket, err := service.YearMonthBucket(contract.ID)
	if err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_CONTRACT_ID", err.Error(), nil)
		return
	}

	now := time.Now()
	nowISO := now.Format(time.RFC3339)
	contract.YearMonth = bucket
	contract.SourceFile = bucket + ".json"
	if contract.CreatedAt == "" {
		contract.CreatedAt = nowISO
	}
	contract.UpdatedAt = nowISO
	if contract.StatusDate == "" {
		contract.StatusDate = contract.MediationStartDate
		if contract.StatusDate == "" {
			contract.StatusDate = now.Format("2006-01-02")
		}
	}

	if err := h.Store.SaveContract(c.Request.Context(), contract); err != nil {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to save contract", err.Error())
		return
	}
	c.JSON(http.StatusCreated, gin.H{"ok": true, "contract": contract})
}

type purchaseRequest struct {
	ID           string `json:"id"`
	Staff        string `json:"staff"`
	Type         string `json:"type"`
	PropertyType string `json:"property_type"`
	Address      string `json:"address"`
	Price        any    `json:"price"`
	Memo         string `json:"memo"`
	PurchaseDate string `json:"purchase_date"`
}

// @Summary Record a direct purchase as a contract
// @Accept json
// @Produce json
// @Success 201 {object} map[string]any
// @Router /api/purchases [post]
func (h *Handler) PurchaseCreate(c *gin.Context) {
	var req purchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid purchase payload", err.Error())
		return
	}

	if req.ID != "" {
		exists, err := h.Store.ContractIDExists(c.Request.Context(), req.ID, "")
		if err != nil {
			writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to check contract id", err.Error())
			return
		}
		if exists {
			writeError(c, http.StatusBadRequest, "DUPLICATE_ID", "Contract id already in use", nil)
			return
		}
	}

	price, ok := parsePrice(req.Price)
	if !ok {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid purchase price", nil)
		return
	}

	now := time.Now()
	purchaseDate := req.PurchaseDate
	if purchaseDate == "" {
		purchaseDate = now.Format("2006-01-02")
	}
	bucket := bucketForDate(purchaseDate, now)
	contractType := req.Type
	if contractType == "" {
		contractType = models.StatusPurchased
	}

	contract := models.Contract{
		ID:              req.ID,
		YearMonth:       bucket,
		SourceFile:      bucket + ".json",
		Staff:           req.Staff,
		ContractType:    contractType,
		DealStatus:      models.StatusPurchased,
		StatusDate:      purchaseDate,
		PropertyType:    req.PropertyType,
		PropertyAddress: req.Address,
		CurrentPrice:    price,
		Notes:           req.Memo,
		PriceHistory:    []map[string]any{},
		ChangeHistory:   []models.ChangeEntry{},
		PurchaseInfo:    &models.PurchaseInfo{Date: purchaseDate, Price: price},
		CreatedAt:       now.Format(time.RFC3339),
		UpdatedAt:       now.Format(time.RFC3339),
	}

	if err := h.Store.SaveContract(c.Request.Context(), contract); err != nil {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to save purchase", err.Error())
		return
	}
	c.JSON(http.StatusCreated, gin.H{"ok": true, "contract": contract})
}

func (h *Handler) ContractUpdate(c *gin.Context) {
	contractID := c.Param("id")

	var payload models.Contract
	if err := c.ShouldBindJSON(&payload); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid contract payload", err.Error())
		return
	}
	newID := payload.ID
	if newID == "" {
		newID = contractID
		payload.ID = contractID
	}

	exists, err := h.Store.ContractIDExists(c.Request.Context(), newID, contractID)
	if err != nil {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to check contract id", err.Error())
		return
	}
	if exists {
		writeError(c, http.StatusBadRequest, "DUPLICATE_ID", "Contract id already in use", nil)
		return
	}

	existing, err := h.Store.FindContract(c.Request.Context(), contractID)
	if err != nil {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to load contract", err.Error())
		return
	}
	if existing == nil {
		writeError(c, http.StatusNotFound, "NOT_FOUND", "Contract not found", nil)
		return
	}

	nowISO := time.Now().Format(time.RFC3339)
	user := currentUser(c)

	changes := contractChanges(*existing, payload, nowISO, user)
	payload.ChangeHistory = append(existing.ChangeHistory, changes...)

	if payload.CreatedAt == "" {
		payload.CreatedAt = existing.CreatedAt
	}
	payload.UpdatedAt = nowISO
	payload.UpdatedBy = user

	bucket, err := service.YearMonthBucket(newID)
	if err != nil {
		bucket, _ = service.YearMonthBucket(contractID)
	}
	if bucket != "" {
		payload.YearMonth = bucket
		payload.SourceFile = bucket + ".json"
	} else {
		payload.SourceFile = existing.SourceFile
	}

	if contractID != newID {
		if err := h.Store.RenameContract(c.Request.Context(), contractID, payload); err != nil {
			writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to rename contract", err.Error())
			return
		}
	} else if err := h.Store.SaveContract(c.Request.Context(), payload); err != nil {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to save contract", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "contract": payload})
}

func (h *Handler) ContractDelete(c *gin.Context) {
	contractID := c.Param("id")
	existing, err := h.Store.FindContract(c.Request.Context(), contractID)
	if err != nil {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to load contract", err.Error())
		return
	}
	if existing == nil {
		writeError(c, http.StatusNotFound, "NOT_FOUND", "Contract not found", nil)
		return
	}

	if err := h.Store.DeleteContract(c.Request.Context(), contractID); err != nil {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to delete contract", err.Error())
		return
	}
	if err := h.Locks.Release(c.Request.Context(), lockResourceContract, contractID); err != nil {
		h.Logger.Error().Err(err).Str("contract_id", contractID).Msg("failed to release lease on delete")
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

type lockRequest struct {
	User string `json:"user"`
}

// @Summary Acquire the edit lease for a contract
// @Accept json
// @Produce json
// @Success 200 {object} map[string]any
// @Failure 423 {object} map[string]any
// @Router /api/contracts/{id}/lock [post]
func (h *Handler) ContractLock(c *gin.Context) {
	contractID := c.Param("id")
	var req lockRequest
	_ = c.ShouldBindJSON(&req)
	holder := req.User
	if holder == "" {
		holder = currentUser(c)
	}

	lease, conflict, err := h.Locks.Acquire(c.Request.Context(), lockResourceContract, contractID, holder)
	if err != nil {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to acquire lease", err.Error())
		return
	}
	if conflict != nil {
		c.JSON(http.StatusLocked, gin.H{
			"locked":     true,
			"by":         conflict.Holder,
			"expires_at": conflict.ExpiresAt,
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"locked":     true,
		"by":         lease.Holder,
		"expires_at": lease.ExpiresAt,
	})
}

func (h *Handler) ContractUnlock(c *gin.Context) {
	if err := h.Locks.Release(c.Request.Context(), lockResourceContract, c.Param("id")); err != nil {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to release lease", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// contractChanges records status and price transitions for the change
// history. Only transitions to a non-empty / non-nil value count.
func contractChanges(prev, next models.Contract, date, user string) []models.ChangeEntry {
	var changes []models.ChangeEntry
	if next.DealStatus != "" && next.DealStatus != prev.DealStatus {
		changes = append(changes, models.ChangeEntry{
			Type: "status",
			From: prev.DealStatus,
			To:   next.DealStatus,
			Date: date,
			User: user,
		})
	}
	if next.CurrentPrice != nil && !equalPrice(prev.CurrentPrice, next.CurrentPrice) {
		var from any
		if prev.CurrentPrice != nil {
			from = *prev.CurrentPrice
		}
		changes = append(changes, models.ChangeEntry{
			Type: "price",
			From: from,
			To:   *next.CurrentPrice,
			Date: date,
			User: user,
		})
	}
	return changes
}

func equalPrice(a, b *float64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// parsePrice coerces the loosely-typed price field: absent values (nil, "",
// empty array) are fine, numbers and numeric strings parse, anything else is
// rejected.
func parsePrice(v any) (*float64, bool) {
	switch t := v.(type) {
	case nil:
		return nil, true
	case string:
		if strings.TrimSpace(t) == "" {
			return nil, true
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return nil, false
		}
		return &f, true
	case float64:
		return &t, true
	case int:
		f := float64(t)
		return &f, true
	case []any:
		if len(t) == 0 {
			return nil, true
		}
		return nil, false
	default:
		return nil, false
	}
}

func bucketForDate(date string, fallback time.Time) string {
	t, err := time.Parse("2006-01-02", date)
	if err != nil {
		t = fallback
	}
	return fmt.Sprintf("%d_%02d", t.Year(), int(t.Month()))
}
