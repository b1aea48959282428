package service

import (
	"testing"
	"time"

	"github.com/brokeragedesk/backend/internal/models"
)

var notifyToday = time.Date(2025, 4, 15, 12, 0, 0, 0, time.UTC)

func TestBuildNotificationsDeadlineWindow(t *testing.T) {
	contracts := []models.Contract{
		{ID: "in-window", MediationExpireDate: "2025-04-30"},
		{ID: "today", MediationExpireDate: "2025-04-15"},
		{ID: "too-far", MediationExpireDate: "2025-06-01"},
		{ID: "expired", MediationExpireDate: "2025-04-10"},
	}

	got := BuildNotifications(contracts, "tanaka", notifyToday)
	byContract := map[string]Notification{}
	for _, n := range got {
		byContract[n.ContractID] = n
	}

	if n := byContract["in-window"]; n.Type != "deadline" || n.DaysLeft != 15 {
		t.Fatalf("in-window = %+v", n)
	}
	if n := byContract["today"]; n.Type != "deadline" || n.DaysLeft != 0 {
		t.Fatalf("today = %+v", n)
	}
	if n := byContract["expired"]; n.Type != "deadline_expired" || n.DaysLeft != -5 {
		t.Fatalf("expired = %+v", n)
	}
	if _, ok := byContract["too-far"]; ok {
		t.Fatalf("deadlines beyond the window must not notify")
	}
}

func TestBuildNotificationsUsesLocalCalendarDay(t *testing.T) {
	jst := time.FixedZone("JST", 9*60*60)
	// Just past local midnight, still the previous day in UTC.
	today := time.Date(2025, 4, 15, 0, 30, 0, 0, jst)
	contracts := []models.Contract{
		{ID: "due-today", MediationExpireDate: "2025-04-15"},
		{ID: "passed-yesterday", MediationExpireDate: "2025-04-14"},
	}

	got := BuildNotifications(contracts, "tanaka", today)
	byContract := map[string]Notification{}
	for _, n := range got {
		byContract[n.ContractID] = n
	}

	if n := byContract["due-today"]; n.Type != "deadline" || n.DaysLeft != 0 {
		t.Fatalf("due-today = %+v, want deadline with 0 days left", n)
	}
	if n := byContract["passed-yesterday"]; n.Type != "deadline_expired" || n.DaysLeft != -1 {
		t.Fatalf("passed-yesterday = %+v, want expired by 1 day", n)
	}
	if n := byContract["due-today"]; n.Date != "2025-04-15" {
		t.Fatalf("notification date = %q, want the local calendar day", n.Date)
	}
}

func TestBuildNotificationsSkipsClosedContracts(t *testing.T) {
	contracts := []models.Contract{
		{ID: "closed", DealStatus: models.StatusClosed, MediationExpireDate: "2025-04-16"},
		{ID: "canceled", DealStatus: models.StatusCanceled, MediationExpireDate: "2025-04-16"},
		{ID: "purchased", DealStatus: models.StatusPurchased, MediationExpireDate: "2025-04-16"},
	}
	if got := BuildNotifications(contracts, "tanaka", notifyToday); len(got) != 0 {
		t.Fatalf("closed contracts must not notify: %+v", got)
	}
}

func TestBuildNotificationsChangesByOthersOnly(t *testing.T) {
	contracts := []models.Contract{
		{
			ID: "R7-1-1",
			ChangeHistory: []models.ChangeEntry{
				{Type: "status", From: "active", To: "closed", Date: "2025-04-14T10:00:00", User: "suzuki"},
				{Type: "price", From: 3000, To: 2800, Date: "2025-04-13", User: "tanaka"},
				{Type: "note", Date: "2025-04-12", User: "suzuki"},
			},
		},
	}

	got := BuildNotifications(contracts, "tanaka", notifyToday)
	if len(got) != 1 {
		t.Fatalf("want only the other user's status change, got %+v", got)
	}
	n := got[0]
	if n.Type != "status_change" || n.User != "suzuki" {
		t.Fatalf("notification = %+v", n)
	}
	if n.Date != "2025-04-14" {
		t.Fatalf("timestamp should be trimmed to the date, got %q", n.Date)
	}
}

func TestBuildNotificationsSortedNewestFirst(t *testing.T) {
	contracts := []models.Contract{
		{ID: "a", ChangeHistory: []models.ChangeEntry{{Type: "status", Date: "2025-04-01", User: "x"}}},
		{ID: "b", ChangeHistory: []models.ChangeEntry{{Type: "status", Date: "2025-04-10", User: "x"}}},
	}
	got := BuildNotifications(contracts, "tanaka", notifyToday)
	if len(got) != 2 || got[0].ContractID != "b" {
		t.Fatalf("expected newest first, got %+v", got)
	}
}

func TestBuildSummaryCountsByType(t *testing.T) {
	contracts := []models.Contract{
		{ID: "1", Staff: "tanaka", ContractType: models.TypeExclusive},
		{ID: "2", Staff: "tanaka", ContractType: "exclusive_sole"},
		{ID: "3", Staff: "tanaka", ContractType: models.TypeSole},
		{ID: "4", Staff: "suzuki", ContractType: models.TypeGeneral},
		{ID: "5", Staff: "suzuki", ContractType: "mystery"},
		{ID: "6", ContractType: models.TypeGeneral},
		{ID: "7", Staff: "suzuki", ContractType: models.TypeSole, DealStatus: models.StatusClosed},
	}

	rows := BuildSummary(contracts)
	if len(rows) != 3 {
		t.Fatalf("rows = %+v", rows)
	}
	// Sorted by staff name.
	if rows[0].Staff != "suzuki" || rows[1].Staff != "tanaka" || rows[2].Staff != models.UnassignedStaff {
		t.Fatalf("order = %s, %s, %s", rows[0].Staff, rows[1].Staff, rows[2].Staff)
	}
	tanaka := rows[1]
	if tanaka.Exclusive != 2 || tanaka.Sole != 1 || tanaka.Total != 3 {
		t.Fatalf("tanaka = %+v", tanaka)
	}
	suzuki := rows[0]
	if suzuki.General != 1 || suzuki.Total != 2 {
		t.Fatalf("unknown type should count toward total only: %+v", suzuki)
	}
}
