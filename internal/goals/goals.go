// Package goals loads, saves, and resolves the process-wide goals and sales
// documents. Both are persisted whole under a fixed settings key; every read
// passes the contained records through normalization so nothing downstream
// sees malformed data.
package goals

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/brokeragedesk/backend/internal/models"
	"github.com/brokeragedesk/backend/internal/normalize"
)

const (
	goalsKey = "goals"
	salesKey = "sales"

	// Read-modify-write attempts before giving up on a version race.
	saveAttempts = 3
)

// ErrSaveConflict is returned when concurrent writers keep bumping the
// document version faster than the retry loop can follow.
var ErrSaveConflict = errors.New("settings document changed concurrently")

// SettingsStore is a key/value document store with an optimistic-concurrency
// token. LoadSetting returns a nil payload when the key is absent (version 0).
// SaveSetting replaces the whole document iff the stored version still equals
// expectedVersion, reporting false on a mismatch.
type SettingsStore interface {
	LoadSetting(ctx context.Context, key string) (json.RawMessage, int64, error)
	SaveSetting(ctx context.Context, key string, value any, expectedVersion int64) (bool, error)
}

type Service struct {
	Store SettingsStore
	Now   func() time.Time
}

func NewService(store SettingsStore) *Service {
	return &Service{Store: store, Now: time.Now}
}

// LoadGoals returns the normalized goals document. A stored document that
// predates the default/monthly/annual shape is treated as a bare goal, wrapped
// into the full shape, and persisted back before being returned.
func (s *Service) LoadGoals(ctx context.Context) (models.GoalsDocument, error) {
	for attempt := 0; attempt < saveAttempts; attempt++ {
		raw, version, err := s.Store.LoadSetting(ctx, goalsKey)
		if err != nil {
			return models.GoalsDocument{}, err
		}
		if raw == nil {
			return s.defaultGoalsDocument(), nil
		}
		doc, migrated := s.goalsFromRaw(raw)
		if !migrated {
			return doc, nil
		}
		saved, err := s.Store.SaveSetting(ctx, goalsKey, doc, version)
		if err != nil {
			return models.GoalsDocument{}, err
		}
		if saved {
			return doc, nil
		}
	}
	return models.GoalsDocument{}, ErrSaveConflict
}

// SaveGoalForMonth replaces the goal stored under monthKey. The caller's
// storeTarget is kept verbatim after normalization: monthly targets are
// authored directly.
func (s *Service) SaveGoalForMonth(ctx context.Context, monthKey string, body any) (models.GoalsDocument, error) {
	if !monthKeyRe.MatchString(monthKey) {
		return models.GoalsDocument{}, ErrBadMonthKey
	}
	return s.updateGoals(ctx, func(doc *models.GoalsDocument) {
		doc.Monthly[monthKey] = normalize.Goal(body)
	})
}

// SaveGoalForYear replaces the annual goal for yearKey. Annual store targets
// are always derived as the sum of the staff targets; whatever storeTarget the
// caller supplied is ignored.
func (s *Service) SaveGoalForYear(ctx context.Context, yearKey string, body any) (models.GoalsDocument, error) {
	if err := ValidateYearKey(yearKey); err != nil {
		return models.GoalsDocument{}, err
	}
	goal := normalize.Goal(body)
	goal.StoreTarget = 0
	for _, target := range goal.StaffTargets {
		goal.StoreTarget += target
	}
	return s.updateGoals(ctx, func(doc *models.GoalsDocument) {
		doc.Annual[yearKey] = goal
	})
}

// GoalForMonth resolves monthKey against the document: the explicit monthly
// goal if set, else the default.
func GoalForMonth(doc models.GoalsDocument, monthKey string) models.Goal {
	if g, ok := doc.Monthly[monthKey]; ok {
		return g
	}
	return normalize.Goal(doc.Default)
}

// GoalForYear resolves yearKey. With fallbackToDefault false the absence of an
// annual override is reported as nil, which is how yearly rollups distinguish
// "no override" from "zero goal".
func GoalForYear(doc models.GoalsDocument, yearKey string, fallbackToDefault bool) *models.Goal {
	if g, ok := doc.Annual[yearKey]; ok {
		return &g
	}
	if fallbackToDefault {
		g := normalize.Goal(doc.Default)
		return &g
	}
	return nil
}

// LoadSales mirrors LoadGoals for the sales document.
func (s *Service) LoadSales(ctx context.Context) (models.SalesDocument, error) {
	for attempt := 0; attempt < saveAttempts; attempt++ {
		raw, version, err := s.Store.LoadSetting(ctx, salesKey)
		if err != nil {
			return models.SalesDocument{}, err
		}
		if raw == nil {
			return s.defaultSalesDocument(), nil
		}
		doc, migrated := s.salesFromRaw(raw)
		if !migrated {
			return doc, nil
		}
		saved, err := s.Store.SaveSetting(ctx, salesKey, doc, version)
		if err != nil {
			return models.SalesDocument{}, err
		}
		if saved {
			return doc, nil
		}
	}
	return models.SalesDocument{}, ErrSaveConflict
}

func (s *Service) SaveSalesForMonth(ctx context.Context, monthKey string, body any) (models.SalesDocument, error) {
	if !monthKeyRe.MatchString(monthKey) {
		return models.SalesDocument{}, ErrBadMonthKey
	}
	return s.updateSales(ctx, func(doc *models.SalesDocument) {
		doc.Monthly[monthKey] = normalize.Sales(body)
	})
}

func (s *Service) SaveSalesForYear(ctx context.Context, yearKey string, body any) (models.SalesDocument, error) {
	if err := ValidateYearKey(yearKey); err != nil {
		return models.SalesDocument{}, err
	}
	return s.updateSales(ctx, func(doc *models.SalesDocument) {
		doc.Annual[yearKey] = normalize.Sales(body)
	})
}

func SalesForMonth(doc models.SalesDocument, monthKey string) models.SalesRecord {
	if r, ok := doc.Monthly[monthKey]; ok {
		return r
	}
	return normalize.Sales(doc.Default)
}

func SalesForYear(doc models.SalesDocument, yearKey string, fallbackToDefault bool) *models.SalesRecord {
	if r, ok := doc.Annual[yearKey]; ok {
		return &r
	}
	if fallbackToDefault {
		r := normalize.Sales(doc.Default)
		return &r
	}
	return nil
}

// updateGoals runs a read-modify-write against the stored goals document,
// retrying on version conflicts so concurrent writers never lose updates.
func (s *Service) updateGoals(ctx context.Context, mutate func(*models.GoalsDocument)) (models.GoalsDocument, error) {
	for attempt := 0; attempt < saveAttempts; attempt++ {
		raw, version, err := s.Store.LoadSetting(ctx, goalsKey)
		if err != nil {
			return models.GoalsDocument{}, err
		}
		doc := s.defaultGoalsDocument()
		if raw != nil {
			doc, _ = s.goalsFromRaw(raw)
		}

		mutate(&doc)

		saved, err := s.Store.SaveSetting(ctx, goalsKey, doc, version)
		if err != nil {
			return models.GoalsDocument{}, err
		}
		if saved {
			return doc, nil
		}
	}
	return models.GoalsDocument{}, ErrSaveConflict
}

func (s *Service) updateSales(ctx context.Context, mutate func(*models.SalesDocument)) (models.SalesDocument, error) {
	for attempt := 0; attempt < saveAttempts; attempt++ {
		raw, version, err := s.Store.LoadSetting(ctx, salesKey)
		if err != nil {
			return models.SalesDocument{}, err
		}
		doc := s.defaultSalesDocument()
		if raw != nil {
			doc, _ = s.salesFromRaw(raw)
		}

		mutate(&doc)

		saved, err := s.Store.SaveSetting(ctx, salesKey, doc, version)
		if err != nil {
			return models.SalesDocument{}, err
		}
		if saved {
			return doc, nil
		}
	}
	return models.SalesDocument{}, ErrSaveConflict
}

// goalsFromRaw decodes a stored goals payload, wrapping a legacy bare goal
// (no monthly mapping) into the full document shape. The second result says
// whether that migration happened.
func (s *Service) goalsFromRaw(raw json.RawMessage) (models.GoalsDocument, bool) {
	m := decodeObject(raw)
	if _, ok := m["monthly"]; !ok {
		legacy := normalize.Goal(m)
		return models.GoalsDocument{
			Default: legacy,
			Monthly: map[string]models.Goal{CurrentMonthKey(s.Now()): legacy},
			Annual:  map[string]models.Goal{},
		}, true
	}
	doc := models.GoalsDocument{
		Default: normalize.Goal(m["default"]),
		Monthly: map[string]models.Goal{},
		Annual:  map[string]models.Goal{},
	}
	if monthly, ok := m["monthly"].(map[string]any); ok {
		for key, g := range monthly {
			doc.Monthly[key] = normalize.Goal(g)
		}
	}
	if annual, ok := m["annual"].(map[string]any); ok {
		for key, g := range annual {
			doc.Annual[key] = normalize.Goal(g)
		}
	}
	return doc, false
}

func (s *Service) salesFromRaw(raw json.RawMessage) (models.SalesDocument, bool) {
	m := decodeObject(raw)
	if _, ok := m["monthly"]; !ok {
		legacy := normalize.Sales(m)
		return models.SalesDocument{
			Default: legacy,
			Monthly: map[string]models.SalesRecord{CurrentMonthKey(s.Now()): legacy},
			Annual:  map[string]models.SalesRecord{},
		}, true
	}
	doc := models.SalesDocument{
		Default: normalize.Sales(m["default"]),
		Monthly: map[string]models.SalesRecord{},
		Annual:  map[string]models.SalesRecord{},
	}
	if monthly, ok := m["monthly"].(map[string]any); ok {
		for key, r := range monthly {
			doc.Monthly[key] = normalize.Sales(r)
		}
	}
	if annual, ok := m["annual"].(map[string]any); ok {
		for key, r := range annual {
			doc.Annual[key] = normalize.Sales(r)
		}
	}
	return doc, false
}

func (s *Service) defaultGoalsDocument() models.GoalsDocument {
	return models.GoalsDocument{
		Default: normalize.Goal(nil),
		Monthly: map[string]models.Goal{CurrentMonthKey(s.Now()): normalize.Goal(nil)},
		Annual:  map[string]models.Goal{},
	}
}

func (s *Service) defaultSalesDocument() models.SalesDocument {
	return models.SalesDocument{
		Default: normalize.Sales(nil),
		Monthly: map[string]models.SalesRecord{CurrentMonthKey(s.Now()): normalize.Sales(nil)},
		Annual:  map[string]models.SalesRecord{},
	}
}

// decodeObject tolerates any stored payload; non-objects decode to an empty
// map so the legacy-migration path treats them as a bare (empty) record.
func decodeObject(raw json.RawMessage) map[string]any {
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil || m == nil {
		return map[string]any{}
	}
	return m
}
