package goals

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/brokeragedesk/backend/internal/models"
)

type fakeSettings struct {
	docs     map[string]json.RawMessage
	versions map[string]int64
	// saveFailures makes the next N saves report a version mismatch.
	saveFailures int
	saveCalls    int
}

func newFakeSettings() *fakeSettings {
	return &fakeSettings{
		docs:     map[string]json.RawMessage{},
		versions: map[string]int64{},
	}
}

func (f *fakeSettings) LoadSetting(_ context.Context, key string) (json.RawMessage, int64, error) {
	raw, ok := f.docs[key]
	if !ok {
		return nil, 0, nil
	}
	return raw, f.versions[key], nil
}

func (f *fakeSettings) SaveSetting(_ context.Context, key string, value any, expectedVersion int64) (bool, error) {
	f.saveCalls++
	if f.saveFailures > 0 {
		f.saveFailures--
		return false, nil
	}
	if f.versions[key] != expectedVersion {
		return false, nil
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return false, err
	}
	f.docs[key] = raw
	f.versions[key]++
	return true, nil
}

func (f *fakeSettings) set(t *testing.T, key string, doc any) {
	t.Helper()
	raw, err := json.Marshal(doc)
	if err != nil {
		t.Fatalf("marshal fixture: %v", err)
	}
	f.docs[key] = raw
	f.versions[key] = 1
}

func serviceAt(store SettingsStore, now time.Time) *Service {
	return &Service{Store: store, Now: func() time.Time { return now }}
}

var testNow = time.Date(2025, 4, 15, 9, 0, 0, 0, time.UTC)

func TestLoadGoalsAbsentReturnsDefaultDocument(t *testing.T) {
	s := serviceAt(newFakeSettings(), testNow)

	doc, err := s.LoadGoals(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if _, ok := doc.Monthly["2025-04"]; !ok {
		t.Fatalf("default document should seed the current month, got %v", doc.Monthly)
	}
	if doc.Annual == nil {
		t.Fatalf("annual map must be allocated")
	}
}

func TestLoadGoalsMigratesLegacyBareGoal(t *testing.T) {
	store := newFakeSettings()
	store.set(t, "goals", map[string]any{
		"storeTarget":  7,
		"staffTargets": map[string]int{"tanaka": 7},
	})
	s := serviceAt(store, testNow)

	doc, err := s.LoadGoals(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if doc.Default.StoreTarget != 7 {
		t.Fatalf("default storeTarget = %d, want 7", doc.Default.StoreTarget)
	}
	if doc.Monthly["2025-04"].StoreTarget != 7 {
		t.Fatalf("legacy goal should seed the current month")
	}

	// The migrated shape must have been written back.
	var persisted map[string]any
	if err := json.Unmarshal(store.docs["goals"], &persisted); err != nil {
		t.Fatalf("unmarshal persisted: %v", err)
	}
	if _, ok := persisted["monthly"]; !ok {
		t.Fatalf("migration was not persisted: %v", persisted)
	}
}

func TestSaveGoalForMonthKeepsStoreTarget(t *testing.T) {
	s := serviceAt(newFakeSettings(), testNow)

	doc, err := s.SaveGoalForMonth(context.Background(), "2025-05", map[string]any{
		"storeTarget":  float64(10),
		"staffTargets": map[string]any{"a": float64(1)},
	})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if got := doc.Monthly["2025-05"].StoreTarget; got != 10 {
		t.Fatalf("monthly storeTarget = %d, want the caller's 10", got)
	}
}

func TestSaveGoalForYearDerivesStoreTarget(t *testing.T) {
	s := serviceAt(newFakeSettings(), testNow)

	doc, err := s.SaveGoalForYear(context.Background(), "2025", map[string]any{
		"storeTarget":  float64(1),
		"staffTargets": map[string]any{"A": float64(3), "B": float64(5)},
	})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if got := doc.Annual["2025"].StoreTarget; got != 8 {
		t.Fatalf("annual storeTarget = %d, want sum of staff targets 8", got)
	}
}

func TestSaveGoalRejectsBadKeys(t *testing.T) {
	s := serviceAt(newFakeSettings(), testNow)

	if _, err := s.SaveGoalForMonth(context.Background(), "2025-4", nil); !errors.Is(err, ErrBadMonthKey) {
		t.Fatalf("expected ErrBadMonthKey, got %v", err)
	}
	if _, err := s.SaveGoalForYear(context.Background(), "25", nil); !errors.Is(err, ErrBadYearKey) {
		t.Fatalf("expected ErrBadYearKey, got %v", err)
	}
}

func TestSaveRetriesOnVersionConflict(t *testing.T) {
	store := newFakeSettings()
	store.saveFailures = 2
	s := serviceAt(store, testNow)

	if _, err := s.SaveGoalForMonth(context.Background(), "2025-05", nil); err != nil {
		t.Fatalf("save should succeed within the retry budget: %v", err)
	}
	if store.saveCalls != 3 {
		t.Fatalf("saveCalls = %d, want 3", store.saveCalls)
	}
}

func TestSaveGivesUpAfterRetryBudget(t *testing.T) {
	store := newFakeSettings()
	store.saveFailures = 10
	s := serviceAt(store, testNow)

	if _, err := s.SaveGoalForMonth(context.Background(), "2025-05", nil); !errors.Is(err, ErrSaveConflict) {
		t.Fatalf("expected ErrSaveConflict, got %v", err)
	}
}

func TestGoalForMonthFallsBackToDefault(t *testing.T) {
	doc := models.GoalsDocument{
		Default: models.Goal{StoreTarget: 4, StaffTargets: map[string]int{}, IncludeStaff: []string{}},
		Monthly: map[string]models.Goal{"2025-04": {StoreTarget: 9, StaffTargets: map[string]int{}, IncludeStaff: []string{}}},
	}
	if got := GoalForMonth(doc, "2025-04").StoreTarget; got != 9 {
		t.Fatalf("explicit month = %d, want 9", got)
	}
	if got := GoalForMonth(doc, "2025-12").StoreTarget; got != 4 {
		t.Fatalf("fallback = %d, want default 4", got)
	}
}

func TestGoalForYearDistinguishesMissingOverride(t *testing.T) {
	doc := models.GoalsDocument{
		Default: models.Goal{StoreTarget: 4, StaffTargets: map[string]int{}, IncludeStaff: []string{}},
		Annual:  map[string]models.Goal{"2025": {StoreTarget: 100, StaffTargets: map[string]int{}, IncludeStaff: []string{}}},
	}
	if g := GoalForYear(doc, "2025", false); g == nil || g.StoreTarget != 100 {
		t.Fatalf("override = %v, want storeTarget 100", g)
	}
	if g := GoalForYear(doc, "2026", false); g != nil {
		t.Fatalf("missing override must be nil, got %v", g)
	}
	if g := GoalForYear(doc, "2026", true); g == nil || g.StoreTarget != 4 {
		t.Fatalf("fallback = %v, want default 4", g)
	}
}

func TestLoadSalesMigratesLegacyRecord(t *testing.T) {
	store := newFakeSettings()
	store.set(t, "sales", map[string]any{
		"staff": map[string]float64{"a": 120},
	})
	s := serviceAt(store, testNow)

	doc, err := s.LoadSales(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if doc.Monthly["2025-04"].Store != 120 {
		t.Fatalf("legacy record should seed the current month with the staff sum, got %v", doc.Monthly["2025-04"])
	}
}

func TestNormalizeMonthKey(t *testing.T) {
	key, err := NormalizeMonthKey("", testNow)
	if err != nil || key != "2025-04" {
		t.Fatalf("empty key = (%q, %v), want current month", key, err)
	}
	if _, err := NormalizeMonthKey("2025/04", testNow); !errors.Is(err, ErrBadMonthKey) {
		t.Fatalf("expected ErrBadMonthKey, got %v", err)
	}
	if key, _ := NormalizeMonthKey("1999-12", testNow); key != "1999-12" {
		t.Fatalf("valid key should pass through, got %q", key)
	}
}

func TestMonthKeyFromDate(t *testing.T) {
	if got := MonthKeyFromDate("2025-04-10"); got != "2025-04" {
		t.Fatalf("MonthKeyFromDate = %q", got)
	}
	if got := MonthKeyFromDate("not-a-date"); got != "" {
		t.Fatalf("bad date should yield empty key, got %q", got)
	}
}
