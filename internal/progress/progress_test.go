package progress

import (
	"testing"

	"github.com/brokeragedesk/backend/internal/models"
)

func emptyGoal() models.Goal {
	return models.Goal{StaffTargets: map[string]int{}, IncludeStaff: []string{}}
}

func TestBuildMonthlySignedEvent(t *testing.T) {
	contracts := []models.Contract{
		{ID: "R7-1-1", Staff: "tanaka", MediationStartDate: "2025-04-10"},
	}

	monthly := BuildMonthly(contracts)
	entry := monthly["2025-04"]
	if entry == nil {
		t.Fatalf("expected entry for 2025-04, got %v", monthly)
	}
	if entry.Signed != 1 || entry.Canceled != 0 || entry.Net != 1 {
		t.Fatalf("counters = %+v", entry)
	}
	sp := entry.Staff["tanaka"]
	if sp == nil || sp.Signed != 1 || sp.Net != 1 {
		t.Fatalf("staff counters = %+v", sp)
	}
}

func TestBuildMonthlyFallsBackToStatusDate(t *testing.T) {
	contracts := []models.Contract{
		{ID: "25-1-1", StatusDate: "2025-06-01"},
	}
	monthly := BuildMonthly(contracts)
	entry := monthly["2025-06"]
	if entry == nil || entry.Signed != 1 {
		t.Fatalf("status date should stand in for a missing start date: %v", monthly)
	}
	if entry.Staff[models.UnassignedStaff] == nil {
		t.Fatalf("missing staff should count under %q", models.UnassignedStaff)
	}
}

func TestBuildMonthlyCancelInOwnMonth(t *testing.T) {
	contracts := []models.Contract{
		{
			ID:                 "R7-1-1",
			Staff:              "tanaka",
			MediationStartDate: "2025-04-10",
			DealStatus:         models.StatusCanceled,
			CancelInfo:         &models.CancelInfo{Date: "2025-05-02", Reason: "buyer withdrew"},
		},
	}

	monthly := BuildMonthly(contracts)
	if got := monthly["2025-04"]; got == nil || got.Signed != 1 || got.Canceled != 0 {
		t.Fatalf("signing month = %+v", got)
	}
	if got := monthly["2025-05"]; got == nil || got.Canceled != 1 || got.Net != -1 {
		t.Fatalf("cancel month = %+v", got)
	}
}

func TestBuildMonthlyCanceledStatusWithoutCancelInfo(t *testing.T) {
	contracts := []models.Contract{
		{ID: "25-2-1", DealStatus: models.StatusCanceled, StatusDate: "2025-07-20"},
	}
	monthly := BuildMonthly(contracts)
	entry := monthly["2025-07"]
	if entry == nil || entry.Signed != 1 || entry.Canceled != 1 || entry.Net != 0 {
		t.Fatalf("same-month sign+cancel should net to zero: %+v", entry)
	}
}

func TestBuildMonthlySkipsUndatedContracts(t *testing.T) {
	monthly := BuildMonthly([]models.Contract{{ID: "no-dates"}})
	if len(monthly) != 0 {
		t.Fatalf("contract with no resolvable month must contribute nothing: %v", monthly)
	}
}

func TestBuildYearlySumsMonths(t *testing.T) {
	monthly := BuildMonthly([]models.Contract{
		{ID: "a", Staff: "tanaka", MediationStartDate: "2025-04-10"},
		{ID: "b", Staff: "suzuki", MediationStartDate: "2025-05-11"},
		{ID: "c", Staff: "tanaka", MediationStartDate: "2025-05-12",
			DealStatus: models.StatusCanceled,
			CancelInfo: &models.CancelInfo{Date: "2025-06-01"}},
	})
	doc := models.GoalsDocument{
		Default: emptyGoal(),
		Monthly: map[string]models.Goal{
			"2025-04": {StoreTarget: 3, StaffTargets: map[string]int{"tanaka": 3}, IncludeStaff: []string{"tanaka"}},
			"2025-05": {StoreTarget: 4, StaffTargets: map[string]int{"tanaka": 2, "suzuki": 2}, IncludeStaff: []string{"suzuki"}},
		},
		Annual: map[string]models.Goal{},
	}

	yearly := BuildYearly(monthly, doc)
	year := yearly["2025"]
	if year == nil {
		t.Fatalf("expected 2025 entry, got %v", yearly)
	}
	if year.Progress.Signed != 3 || year.Progress.Canceled != 1 || year.Progress.Net != 2 {
		t.Fatalf("progress = %+v", year.Progress)
	}
	if year.Goal.StoreTarget != 7 || year.MonthlyTargetTotal != 7 {
		t.Fatalf("goal = %+v, monthlyTargetTotal = %d", year.Goal, year.MonthlyTargetTotal)
	}
	if year.Goal.StaffTargets["tanaka"] != 5 {
		t.Fatalf("staff targets should sum across months: %v", year.Goal.StaffTargets)
	}
	if len(year.Goal.IncludeStaff) != 2 || year.Goal.IncludeStaff[0] != "suzuki" {
		t.Fatalf("includeStaff should be a sorted union: %v", year.Goal.IncludeStaff)
	}
	if len(year.Months) != 3 || year.Months[0] != "2025-04" {
		t.Fatalf("months = %v", year.Months)
	}
}

func TestBuildYearlyAnnualOverrideWinsForGoalOnly(t *testing.T) {
	monthly := BuildMonthly([]models.Contract{
		{ID: "a", MediationStartDate: "2025-04-10"},
	})
	doc := models.GoalsDocument{
		Default: emptyGoal(),
		Monthly: map[string]models.Goal{
			"2025-04": {StoreTarget: 3, StaffTargets: map[string]int{}, IncludeStaff: []string{}},
		},
		Annual: map[string]models.Goal{
			"2025": {StoreTarget: 50, StaffTargets: map[string]int{"tanaka": 50}, IncludeStaff: []string{}},
		},
	}

	year := BuildYearly(monthly, doc)["2025"]
	if year.Goal.StoreTarget != 50 {
		t.Fatalf("annual override should replace the month sum, got %d", year.Goal.StoreTarget)
	}
	if year.Progress.Signed != 1 {
		t.Fatalf("progress must remain the month sum, got %+v", year.Progress)
	}
	if year.MonthlyTargetTotal != 3 {
		t.Fatalf("monthlyTargetTotal keeps the month sum, got %d", year.MonthlyTargetTotal)
	}
}

func TestBuildYearlyIncludesGoalOnlyYears(t *testing.T) {
	doc := models.GoalsDocument{
		Default: emptyGoal(),
		Monthly: map[string]models.Goal{},
		Annual: map[string]models.Goal{
			"2030":    {StoreTarget: 12, StaffTargets: map[string]int{}, IncludeStaff: []string{}},
			"2030-01": {StoreTarget: 99, StaffTargets: map[string]int{}, IncludeStaff: []string{}},
		},
	}

	yearly := BuildYearly(map[string]*models.MonthlyProgress{}, doc)
	if yearly["2030"] == nil || yearly["2030"].Goal.StoreTarget != 12 {
		t.Fatalf("year with only an annual goal should appear: %v", yearly)
	}
	if _, ok := yearly["2030-01"]; ok {
		t.Fatalf("dashed annual keys are not years")
	}
}
