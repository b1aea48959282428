package casenumber

import (
	"context"
	"testing"

	"github.com/brokeragedesk/backend/internal/models"
)

type fakeStore struct {
	customers []models.Customer
	updates   map[string]string
}

func (f *fakeStore) LoadCustomers(context.Context, string, int) ([]models.Customer, error) {
	return f.customers, nil
}

func (f *fakeStore) UpdateCaseNumber(_ context.Context, customerID, caseNumber string) error {
	if f.updates == nil {
		f.updates = map[string]string{}
	}
	f.updates[customerID] = caseNumber
	return nil
}

func TestPrefix(t *testing.T) {
	cases := map[string]string{
		models.CategorySell:       "S",
		models.CategoryBuy:        "B",
		models.CategoryInvestment: "R",
		"something-else":          "X",
	}
	for category, want := range cases {
		if got := Prefix(category); got != want {
			t.Fatalf("Prefix(%q) = %q, want %q", category, got, want)
		}
	}
}

func TestYearSuffix(t *testing.T) {
	if got := YearSuffix(2025); got != "25" {
		t.Fatalf("YearSuffix(2025) = %q", got)
	}
	if got := YearSuffix(2100); got != "00" {
		t.Fatalf("YearSuffix(2100) = %q", got)
	}
	if got := YearSuffix(1999); got != "1999" {
		t.Fatalf("pre-2000 years keep full digits, got %q", got)
	}
}

func TestGenerateFirstOfPartition(t *testing.T) {
	got := Generate(models.CategorySell, 2025, "2025-01-15", nil)
	if got != "S250001" {
		t.Fatalf("Generate = %q, want S250001", got)
	}
}

func TestGenerateRanksByInquiryDate(t *testing.T) {
	existing := []models.Customer{
		{ID: "a", InquiryDate: "2025-01-10", CaseNumber: "S250001"},
		{ID: "b", InquiryDate: "2025-03-01", CaseNumber: "S250002"},
		{ID: "no-date"},
	}

	// Later than everything dated.
	if got := Generate(models.CategorySell, 2025, "2025-04-01", existing); got != "S250003" {
		t.Fatalf("Generate = %q, want S250003", got)
	}
	// Between the two dated records.
	if got := Generate(models.CategorySell, 2025, "2025-02-01", existing); got != "S250002" {
		t.Fatalf("Generate = %q, want S250002", got)
	}
	// Equal dates rank after the existing one.
	if got := Generate(models.CategorySell, 2025, "2025-01-10", existing); got != "S250002" {
		t.Fatalf("Generate for tied date = %q, want S250002", got)
	}
}

func TestReassignRewritesRankOrder(t *testing.T) {
	store := &fakeStore{customers: []models.Customer{
		{ID: "c", InquiryDate: "2025-03-01", CaseNumber: "B250007", CreatedAt: "t3"},
		{ID: "a", InquiryDate: "2025-01-10", CaseNumber: "B250002", CreatedAt: "t1"},
		{ID: "undated", CaseNumber: "weird", CreatedAt: "t0"},
		{ID: "b", InquiryDate: "2025-01-10", CaseNumber: "B250001", CreatedAt: "t2"},
	}}
	seq := &Sequencer{Store: store}

	count, err := seq.Reassign(context.Background(), models.CategoryBuy, 2025)
	if err != nil {
		t.Fatalf("reassign: %v", err)
	}
	if count != 4 {
		t.Fatalf("count = %d, want 4", count)
	}

	want := map[string]string{
		"b":       "B250001", // same date as a, smaller current suffix
		"a":       "B250002",
		"c":       "B250003",
		"undated": "B250004", // no inquiry date sorts last
	}
	for id, caseNumber := range want {
		if store.updates[id] != caseNumber {
			t.Fatalf("updates[%s] = %s, want %s (all: %v)", id, store.updates[id], caseNumber, store.updates)
		}
	}
}

func TestReassignEmptyPartition(t *testing.T) {
	seq := &Sequencer{Store: &fakeStore{}}
	count, err := seq.Reassign(context.Background(), models.CategorySell, 2025)
	if err != nil || count != 0 {
		t.Fatalf("empty partition: count=%d err=%v", count, err)
	}
}

func TestTrailingSeq(t *testing.T) {
	if n, ok := TrailingSeq("S250012"); !ok || n != 12 {
		t.Fatalf("TrailingSeq = (%d, %v)", n, ok)
	}
	if _, ok := TrailingSeq("no-suffix"); ok {
		t.Fatalf("expected no suffix")
	}
	if _, ok := TrailingSeq("S25001"); !ok {
		t.Fatalf("a 4-digit tail inside a longer number still parses")
	}
}
