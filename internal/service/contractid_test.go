package service

import (
	"errors"
	"testing"

	"github.com/brokeragedesk/backend/internal/models"
)

func TestParseContractIDEraForm(t *testing.T) {
	parts, err := ParseContractID("R7-1-1")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if parts.Year != 2025 || parts.Month != 1 || parts.Seq != 1 {
		t.Fatalf("parts = %+v", parts)
	}
}

func TestParseContractIDTwoDigitYear(t *testing.T) {
	parts, err := ParseContractID("25-12-34")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if parts.Year != 2025 || parts.Month != 12 || parts.Seq != 34 {
		t.Fatalf("parts = %+v", parts)
	}
}

func TestParseContractIDFourDigitYearPassesThrough(t *testing.T) {
	parts, err := ParseContractID("2025-3-7")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if parts.Year != 2025 {
		t.Fatalf("year = %d", parts.Year)
	}
}

func TestParseContractIDErrors(t *testing.T) {
	cases := []struct {
		id   string
		want error
	}{
		{"R7-1", ErrContractIDFormat},
		{"R7-1-1-1", ErrContractIDFormat},
		{"Rx-1-1", ErrContractIDValue},
		{"R0-1-1", ErrContractIDYear},
		{"25-13-1", ErrContractIDMonth},
		{"25-0-1", ErrContractIDMonth},
		{"25-1-abc", ErrContractIDValue},
	}
	for _, tc := range cases {
		if _, err := ParseContractID(tc.id); !errors.Is(err, tc.want) {
			t.Fatalf("ParseContractID(%q) = %v, want %v", tc.id, err, tc.want)
		}
	}
}

func TestYearMonthBucket(t *testing.T) {
	bucket, err := YearMonthBucket("R7-4-2")
	if err != nil {
		t.Fatalf("bucket: %v", err)
	}
	if bucket != "2025_04" {
		t.Fatalf("bucket = %q, want 2025_04", bucket)
	}
	if _, err := YearMonthBucket(""); err == nil {
		t.Fatalf("empty id must not bucket")
	}
}

func TestSortContractsUnparsableLast(t *testing.T) {
	contracts := []models.Contract{
		{ID: "garbage"},
		{ID: "R7-2-1"},
		{ID: "24-12-5"},
		{ID: "R7-1-9"},
	}
	SortContracts(contracts)

	want := []string{"24-12-5", "R7-1-9", "R7-2-1", "garbage"}
	for i, id := range want {
		if contracts[i].ID != id {
			t.Fatalf("order[%d] = %s, want %s", i, contracts[i].ID, id)
		}
	}
}
