package normalize

import (
	"reflect"
	"testing"

	"github.com/brokeragedesk/backend/internal/models"
)

func TestGoalFromMap(t *testing.T) {
	g := Goal(map[string]any{
		"storeTarget": float64(5),
		"staffTargets": map[string]any{
			"tanaka": float64(3),
			"suzuki": "-2",
			"broken": []any{"x"},
		},
		"includeStaff": []any{" tanaka ", "", 42, "suzuki"},
	})

	if g.StoreTarget != 5 {
		t.Fatalf("storeTarget = %d, want 5", g.StoreTarget)
	}
	if g.StaffTargets["tanaka"] != 3 {
		t.Fatalf("tanaka target = %d, want 3", g.StaffTargets["tanaka"])
	}
	if g.StaffTargets["suzuki"] != 0 {
		t.Fatalf("negative target should clamp to 0, got %d", g.StaffTargets["suzuki"])
	}
	if _, ok := g.StaffTargets["broken"]; ok {
		t.Fatalf("unparsable target should be dropped")
	}
	if !reflect.DeepEqual(g.IncludeStaff, []string{"tanaka", "suzuki"}) {
		t.Fatalf("includeStaff = %v", g.IncludeStaff)
	}
}

func TestGoalGarbageDegradesToEmpty(t *testing.T) {
	for _, v := range []any{nil, "goal", 42, []any{1, 2}, (*models.Goal)(nil)} {
		g := Goal(v)
		if g.StoreTarget != 0 || len(g.StaffTargets) != 0 || len(g.IncludeStaff) != 0 {
			t.Fatalf("Goal(%v) = %+v, want empty goal", v, g)
		}
		if g.StaffTargets == nil || g.IncludeStaff == nil {
			t.Fatalf("empty goal must have allocated fields")
		}
	}
}

func TestGoalIdempotent(t *testing.T) {
	first := Goal(map[string]any{
		"storeTarget":  "-10",
		"staffTargets": map[string]any{"a": float64(2)},
	})
	second := Goal(first)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("normalization not idempotent: %+v vs %+v", first, second)
	}
	if first.StoreTarget != 0 {
		t.Fatalf("negative store target should degrade to 0, got %d", first.StoreTarget)
	}
}

func TestSalesStoreFallsBackToStaffSum(t *testing.T) {
	s := Sales(map[string]any{
		"staff": map[string]any{"a": float64(100), "b": float64(50)},
	})
	if s.Store != 150 {
		t.Fatalf("store should fall back to staff sum, got %v", s.Store)
	}
}

func TestSalesZeroStoreWithStaffBreakdown(t *testing.T) {
	s := Sales(map[string]any{
		"store": float64(0),
		"staff": map[string]any{"a": float64(30)},
	})
	if s.Store != 30 {
		t.Fatalf("zero store with nonzero staff should use the sum, got %v", s.Store)
	}
}

func TestSalesExplicitStoreWins(t *testing.T) {
	s := Sales(map[string]any{
		"store": float64(500),
		"staff": map[string]any{"a": float64(30)},
	})
	if s.Store != 500 {
		t.Fatalf("explicit store should be kept, got %v", s.Store)
	}
}

func TestSalesDropsUnparsableStaff(t *testing.T) {
	s := Sales(map[string]any{
		"store": "not a number",
		"staff": map[string]any{"a": "12.5", "b": map[string]any{}, "c": float64(-4)},
	})
	if _, ok := s.Staff["b"]; ok {
		t.Fatalf("unparsable staff entry should be dropped")
	}
	if s.Staff["c"] != 0 {
		t.Fatalf("negative staff value should clamp to 0, got %v", s.Staff["c"])
	}
	if s.Store != 12.5 {
		t.Fatalf("unparsable store should fall back to staff sum, got %v", s.Store)
	}
}

func TestSalesIdempotent(t *testing.T) {
	first := Sales(map[string]any{"staff": map[string]any{"a": float64(7)}})
	second := Sales(first)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("normalization not idempotent: %+v vs %+v", first, second)
	}
}
