package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

const (
	mastersKey         = "masters"
	customerMastersKey = "customer_masters"
	statusColorsKey    = "status_colors"

	settingSaveAttempts = 3
)

// List-valued keys in the customer masters document. Anything else in the
// payload is ignored on update.
var customerMasterKeys = []string{
	"inquiry_source_sell", "inquiry_source_buy", "property_type", "staff",
	"status_sell", "status_buy", "contact_method", "progress_status",
}

// settingsStore is the versioned document slice of the db store these
// handlers need. SaveSetting owns the JSON encoding of value.
type settingsStore interface {
	LoadSetting(ctx context.Context, key string) (json.RawMessage, int64, error)
	SaveSetting(ctx context.Context, key string, value any, expectedVersion int64) (bool, error)
}

func loadSettingObject(ctx context.Context, store settingsStore, key string) (map[string]any, int64, error) {
	raw, version, err := store.LoadSetting(ctx, key)
	if err != nil {
		return nil, 0, err
	}
	doc := map[string]any{}
	if raw != nil {
		// A document that fails to decode is treated as empty rather
		// than blocking every settings operation.
		_ = json.Unmarshal(raw, &doc)
	}
	return doc, version, nil
}

// saveSettingObject retries the versioned upsert a few times so concurrent
// writers interleave instead of erroring out. The mutated map goes to the
// store as-is; encoding it here would wrap the document in a second layer
// of JSON.
func saveSettingObject(ctx context.Context, store settingsStore, key string, mutate func(map[string]any)) (map[string]any, error) {
	for attempt := 0; attempt < settingSaveAttempts; attempt++ {
		doc, version, err := loadSettingObject(ctx, store, key)
		if err != nil {
			return nil, err
		}
		mutate(doc)
		saved, err := store.SaveSetting(ctx, key, doc, version)
		if err != nil {
			return nil, err
		}
		if saved {
			return doc, nil
		}
	}
	return nil, fmt.Errorf("setting %q: too many concurrent updates", key)
}

func (h *Handler) MastersGet(c *gin.Context) {
	doc, _, err := loadSettingObject(c.Request.Context(), h.Store, mastersKey)
	if err != nil {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to load masters", err.Error())
		return
	}
	c.JSON(http.StatusOK, doc)
}

func (h *Handler) MastersPut(c *gin.Context) {
	var payload map[string]any
	if err := c.ShouldBindJSON(&payload); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "Masters payload must be an object", err.Error())
		return
	}
	_, err := saveSettingObject(c.Request.Context(), h.Store, mastersKey, func(doc map[string]any) {
		for k := range doc {
			delete(doc, k)
		}
		for k, v := range payload {
			doc[k] = v
		}
	})
	if err != nil {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to save masters", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h *Handler) CustomerMastersGet(c *gin.Context) {
	doc, _, err := loadSettingObject(c.Request.Context(), h.Store, customerMastersKey)
	if err != nil {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to load customer masters", err.Error())
		return
	}
	for _, key := range customerMasterKeys {
		if _, ok := doc[key]; !ok {
			doc[key] = []any{}
		}
	}
	c.JSON(http.StatusOK, doc)
}

// CustomerMastersPut merges the list-valued master keys from the payload into
// the stored document. List entries are trimmed and empties dropped; a string
// value is split on commas.
func (h *Handler) CustomerMastersPut(c *gin.Context) {
	var payload map[string]any
	if err := c.ShouldBindJSON(&payload); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "Customer masters payload must be an object", err.Error())
		return
	}

	doc, err := saveSettingObject(c.Request.Context(), h.Store, customerMastersKey, func(doc map[string]any) {
		for _, key := range customerMasterKeys {
			value, ok := payload[key]
			if !ok {
				continue
			}
			switch v := value.(type) {
			case []any:
				doc[key] = cleanMasterList(v)
			case string:
				parts := make([]any, 0)
				for _, part := range strings.Split(v, ",") {
					parts = append(parts, part)
				}
				doc[key] = cleanMasterList(parts)
			}
		}
		if colors, ok := payload["status_colors"].(map[string]any); ok {
			doc["status_colors"] = colors
		}
		meta, _ := doc["meta"].(map[string]any)
		if meta == nil {
			meta = map[string]any{}
		}
		meta["updated_at"] = time.Now().Format(time.RFC3339)
		doc["meta"] = meta
	})
	if err != nil {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to save customer masters", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "masters": doc})
}

func (h *Handler) StatusColorsGet(c *gin.Context) {
	doc, _, err := loadSettingObject(c.Request.Context(), h.Store, statusColorsKey)
	if err != nil {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to load status colors", err.Error())
		return
	}
	c.JSON(http.StatusOK, doc)
}

// StatusColorsPut replaces the color map. Entries survive only when both bg
// and color are strings.
func (h *Handler) StatusColorsPut(c *gin.Context) {
	var payload map[string]any
	if err := c.ShouldBindJSON(&payload); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "Status colors payload must be an object", err.Error())
		return
	}

	cleaned := map[string]any{}
	for name, value := range payload {
		colors, ok := value.(map[string]any)
		if !ok {
			continue
		}
		bg, bgOK := colors["bg"].(string)
		fg, fgOK := colors["color"].(string)
		if !bgOK || !fgOK {
			continue
		}
		cleaned[name] = map[string]any{"bg": bg, "color": fg}
	}

	_, err := saveSettingObject(c.Request.Context(), h.Store, statusColorsKey, func(doc map[string]any) {
		for k := range doc {
			delete(doc, k)
		}
		for k, v := range cleaned {
			doc[k] = v
		}
	})
	if err != nil {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to save status colors", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "colors": cleaned})
}

func cleanMasterList(items []any) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		s := strings.TrimSpace(fmt.Sprint(item))
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
