// Package progress reduces the contract set into month- and year-level
// signed/canceled/net counters. Everything here is a pure function over a
// snapshot loaded by the caller: results are recomputed on every call, which
// keeps them always fresh at the cost of a full scan (contract volume is small
// enough that this is the cheaper trade).
package progress

import (
	"sort"
	"strings"

	"github.com/brokeragedesk/backend/internal/goals"
	"github.com/brokeragedesk/backend/internal/models"
)

// BuildMonthly derives per-month progress from the full contract set, keyed
// by "YYYY-MM". Every contract can contribute two independent events: a
// signed event at the month of its mediation start date (status date when
// that is missing), and a canceled event at the month recorded in its cancel
// info (status date when the deal status says canceled). A contract with
// neither resolvable month contributes nothing.
func BuildMonthly(contracts []models.Contract) map[string]*models.MonthlyProgress {
	monthly := map[string]*models.MonthlyProgress{}

	ensureMonth := func(monthKey string) *models.MonthlyProgress {
		entry, ok := monthly[monthKey]
		if !ok {
			entry = &models.MonthlyProgress{Staff: map[string]*models.StaffProgress{}}
			monthly[monthKey] = entry
		}
		return entry
	}
	ensureStaff := func(entry *models.MonthlyProgress, staff string) *models.StaffProgress {
		sp, ok := entry.Staff[staff]
		if !ok {
			sp = &models.StaffProgress{}
			entry.Staff[staff] = sp
		}
		return sp
	}

	for _, contract := range contracts {
		staff := contract.Staff
		if staff == "" {
			staff = models.UnassignedStaff
		}

		signedDate := contract.MediationStartDate
		if signedDate == "" {
			signedDate = contract.StatusDate
		}
		if signedMonth := goals.MonthKeyFromDate(signedDate); signedMonth != "" {
			entry := ensureMonth(signedMonth)
			entry.Signed++
			entry.Net++
			sp := ensureStaff(entry, staff)
			sp.Signed++
			sp.Net++
		}

		cancelMonth := ""
		if contract.CancelInfo != nil {
			cancelMonth = goals.MonthKeyFromDate(contract.CancelInfo.Date)
		}
		if cancelMonth == "" && contract.DealStatus == models.StatusCanceled {
			cancelMonth = goals.MonthKeyFromDate(contract.StatusDate)
		}
		if cancelMonth != "" {
			entry := ensureMonth(cancelMonth)
			entry.Canceled++
			entry.Net--
			sp := ensureStaff(entry, staff)
			sp.Canceled++
			sp.Net--
		}
	}

	return monthly
}

// BuildYearly rolls monthly progress and monthly goals up into years. A year
// appears when any month of it has progress or a monthly goal, or when it has
// an explicit annual goal. Progress counters are always the sum of the
// months; the goal is the sum of the monthly goals unless an explicit annual
// goal overrides it.
func BuildYearly(monthly map[string]*models.MonthlyProgress, doc models.GoalsDocument) map[string]*models.YearlyProgress {
	yearly := map[string]*models.YearlyProgress{}
	includeSets := map[string]map[string]bool{}

	ensureYear := func(year string) *models.YearlyProgress {
		entry, ok := yearly[year]
		if !ok {
			entry = &models.YearlyProgress{
				Months: []string{},
				Goal:   models.Goal{StaffTargets: map[string]int{}, IncludeStaff: []string{}},
				Progress: models.MonthlyProgress{
					Staff: map[string]*models.StaffProgress{},
				},
			}
			yearly[year] = entry
			includeSets[year] = map[string]bool{}
		}
		return entry
	}

	for yearKey := range doc.Annual {
		if yearKey != "" && !strings.Contains(yearKey, "-") {
			ensureYear(yearKey)
		}
	}

	monthKeys := map[string]bool{}
	for key := range monthly {
		monthKeys[key] = true
	}
	for key := range doc.Monthly {
		monthKeys[key] = true
	}
	sortedMonths := make([]string, 0, len(monthKeys))
	for key := range monthKeys {
		sortedMonths = append(sortedMonths, key)
	}
	sort.Strings(sortedMonths)

	for _, monthKey := range sortedMonths {
		if monthKey == "" || !strings.Contains(monthKey, "-") {
			continue
		}
		year := strings.SplitN(monthKey, "-", 2)[0]
		entry := ensureYear(year)
		entry.Months = append(entry.Months, monthKey)

		monthGoal := goals.GoalForMonth(doc, monthKey)
		entry.MonthlyTargetTotal += monthGoal.StoreTarget
		entry.Goal.StoreTarget += monthGoal.StoreTarget
		for name, target := range monthGoal.StaffTargets {
			entry.Goal.StaffTargets[name] += target
		}
		for _, name := range monthGoal.IncludeStaff {
			includeSets[year][name] = true
		}

		monthProgress, ok := monthly[monthKey]
		if !ok {
			continue
		}
		entry.Progress.Signed += monthProgress.Signed
		entry.Progress.Canceled += monthProgress.Canceled
		entry.Progress.Net += monthProgress.Net
		for name, sp := range monthProgress.Staff {
			agg, ok := entry.Progress.Staff[name]
			if !ok {
				agg = &models.StaffProgress{}
				entry.Progress.Staff[name] = agg
			}
			agg.Signed += sp.Signed
			agg.Canceled += sp.Canceled
			agg.Net += sp.Net
		}
	}

	for year, entry := range yearly {
		include := make([]string, 0, len(includeSets[year]))
		for name := range includeSets[year] {
			include = append(include, name)
		}
		sort.Strings(include)
		entry.Goal.IncludeStaff = include

		// An explicit annual goal wins over the sum of months; progress
		// counters stay the true month sum either way.
		if annual := goals.GoalForYear(doc, year, false); annual != nil {
			entry.Goal = *annual
		}
	}

	return yearly
}
