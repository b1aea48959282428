// Package normalize coerces untrusted goal and sales payloads into their
// canonical shapes. Nothing here returns an error: malformed fields degrade
// to zero values and invalid entries are dropped.
package normalize

import (
	"strconv"
	"strings"

	"github.com/brokeragedesk/backend/internal/models"
)

// Goal accepts a decoded JSON object, an already-typed Goal, or garbage, and
// returns a canonical Goal. Idempotent: feeding the result back in yields the
// same value.
func Goal(v any) models.Goal {
	switch g := v.(type) {
	case models.Goal:
		return cleanGoal(g)
	case *models.Goal:
		if g == nil {
			return emptyGoal()
		}
		return cleanGoal(*g)
	case map[string]any:
		out := emptyGoal()
		if n, ok := toInt(g["storeTarget"]); ok && n > 0 {
			out.StoreTarget = n
		}
		if targets, ok := g["staffTargets"].(map[string]any); ok {
			for name, raw := range targets {
				n, ok := toInt(raw)
				if !ok {
					continue
				}
				if n < 0 {
					n = 0
				}
				out.StaffTargets[name] = n
			}
		}
		out.IncludeStaff = cleanStaffList(g["includeStaff"])
		return out
	default:
		return emptyGoal()
	}
}

// Sales coerces a sales payload. Staff values must parse as numbers (negative
// values clamp to zero, unparsable entries are dropped). Store is kept when it
// parses as a non-negative number, falls back to the sum of the cleaned staff
// values when missing or unparsable, and is replaced by that sum when it is
// zero while the staff breakdown is not.
func Sales(v any) models.SalesRecord {
	switch r := v.(type) {
	case models.SalesRecord:
		return cleanSales(r)
	case *models.SalesRecord:
		if r == nil {
			return emptySales()
		}
		return cleanSales(*r)
	case map[string]any:
		out := emptySales()
		if staff, ok := r["staff"].(map[string]any); ok {
			for name, raw := range staff {
				f, ok := toFloat(raw)
				if !ok {
					continue
				}
				if f < 0 {
					f = 0
				}
				out.Staff[name] = f
			}
		}
		if f, ok := toFloat(r["store"]); ok {
			if f < 0 {
				f = 0
			}
			out.Store = f
		} else {
			out.Store = sumStaff(out.Staff)
		}
		if out.Store == 0 && len(out.Staff) > 0 {
			out.Store = sumStaff(out.Staff)
		}
		return out
	default:
		return emptySales()
	}
}

func emptyGoal() models.Goal {
	return models.Goal{StaffTargets: map[string]int{}, IncludeStaff: []string{}}
}

func emptySales() models.SalesRecord {
	return models.SalesRecord{Staff: map[string]float64{}}
}

func cleanGoal(g models.Goal) models.Goal {
	out := emptyGoal()
	if g.StoreTarget > 0 {
		out.StoreTarget = g.StoreTarget
	}
	for name, target := range g.StaffTargets {
		if target < 0 {
			target = 0
		}
		out.StaffTargets[name] = target
	}
	for _, name := range g.IncludeStaff {
		if trimmed := strings.TrimSpace(name); trimmed != "" {
			out.IncludeStaff = append(out.IncludeStaff, trimmed)
		}
	}
	return out
}

func cleanSales(r models.SalesRecord) models.SalesRecord {
	out := emptySales()
	for name, val := range r.Staff {
		if val < 0 {
			val = 0
		}
		out.Staff[name] = val
	}
	out.Store = r.Store
	if out.Store < 0 {
		out.Store = 0
	}
	if out.Store == 0 && len(out.Staff) > 0 {
		out.Store = sumStaff(out.Staff)
	}
	return out
}

func cleanStaffList(v any) []string {
	out := []string{}
	appendName := func(name string) {
		if trimmed := strings.TrimSpace(name); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	switch list := v.(type) {
	case []any:
		for _, raw := range list {
			if s, ok := raw.(string); ok {
				appendName(s)
			}
		}
	case []string:
		for _, s := range list {
			appendName(s)
		}
	}
	return out
}

func sumStaff(staff map[string]float64) float64 {
	var total float64
	for _, v := range staff {
		total += v
	}
	return total
}

func toInt(v any) (int, bool) {
	switch t := v.(type) {
	case int:
		return t, true
	case int64:
		return int(t), true
	case float64:
		return int(t), true
	case float32:
		return int(t), true
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(t))
		if err != nil {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}

func toFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}
