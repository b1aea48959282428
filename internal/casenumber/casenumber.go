// Package casenumber assigns sequential case numbers to customer records and
// re-derives them for a whole (category, year) partition ordered by inquiry
// date.
package casenumber

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strconv"

	"github.com/brokeragedesk/backend/internal/models"
)

var trailingSeqRe = regexp.MustCompile(`(\d{4})$`)

// Store is the slice of the customer table the sequencer needs.
type Store interface {
	LoadCustomers(ctx context.Context, category string, year int) ([]models.Customer, error)
	UpdateCaseNumber(ctx context.Context, customerID, caseNumber string) error
}

type Sequencer struct {
	Store Store
}

// Prefix maps a customer category to its case-number prefix.
func Prefix(category string) string {
	switch category {
	case models.CategorySell:
		return "S"
	case models.CategoryBuy:
		return "B"
	case models.CategoryInvestment:
		return "R"
	default:
		return "X"
	}
}

// YearSuffix is the last two digits of the year, or the literal digits for
// pre-2000 years.
func YearSuffix(year int) string {
	s := strconv.Itoa(year)
	if year >= 2000 && len(s) >= 2 {
		return s[len(s)-2:]
	}
	return s
}

// Generate picks the case number for a new record with the given inquiry
// date: its rank among the existing customers that have an inquiry date,
// ordered ascending, ties broken by position within the sorted pass.
func Generate(category string, year int, inquiryDate string, existing []models.Customer) string {
	dated := make([]models.Customer, 0, len(existing))
	for _, c := range existing {
		if c.InquiryDate != "" {
			dated = append(dated, c)
		}
	}
	sort.SliceStable(dated, func(i, j int) bool {
		return dated[i].InquiryDate < dated[j].InquiryDate
	})

	seq := 1
	for _, c := range dated {
		if c.InquiryDate <= inquiryDate {
			seq++
		} else {
			break
		}
	}

	return fmt.Sprintf("%s%s%04d", Prefix(category), YearSuffix(year), seq)
}

// Reassign re-sorts the entire partition and rewrites every case number in
// rank order starting at 1. Records without an inquiry date sort last, then
// the numeric suffix of the current case number, the case number string, and
// createdAt break ties. Idempotent; returns the number of records rewritten.
func (s *Sequencer) Reassign(ctx context.Context, category string, year int) (int, error) {
	customers, err := s.Store.LoadCustomers(ctx, category, year)
	if err != nil {
		return 0, err
	}
	if len(customers) == 0 {
		return 0, nil
	}

	sorted := make([]models.Customer, len(customers))
	copy(sorted, customers)
	sort.SliceStable(sorted, func(i, j int) bool {
		di, dj := sortDate(sorted[i]), sortDate(sorted[j])
		if di != dj {
			return di < dj
		}
		si, sj := trailingSeq(sorted[i].CaseNumber), trailingSeq(sorted[j].CaseNumber)
		if si != sj {
			return si < sj
		}
		if sorted[i].CaseNumber != sorted[j].CaseNumber {
			return sorted[i].CaseNumber < sorted[j].CaseNumber
		}
		return sorted[i].CreatedAt < sorted[j].CreatedAt
	})

	prefix := Prefix(category)
	suffix := YearSuffix(year)
	for idx, customer := range sorted {
		caseNumber := fmt.Sprintf("%s%s%04d", prefix, suffix, idx+1)
		if err := s.Store.UpdateCaseNumber(ctx, customer.ID, caseNumber); err != nil {
			return idx, err
		}
	}
	return len(sorted), nil
}

func sortDate(c models.Customer) string {
	if c.InquiryDate == "" {
		return "9999-99-99"
	}
	return c.InquiryDate
}

// TrailingSeq exposes the numeric suffix of a case number; ok is false when
// the number has no 4-digit suffix.
func TrailingSeq(caseNumber string) (int, bool) {
	m := trailingSeqRe.FindStringSubmatch(caseNumber)
	if m == nil {
		return 0, false
	}
	n, _ := strconv.Atoi(m[1])
	return n, true
}

// Records without a parsable suffix sort after everything else during a
// reassignment pass.
func trailingSeq(caseNumber string) int {
	n, ok := TrailingSeq(caseNumber)
	if !ok {
		return 9999
	}
	return n
}
