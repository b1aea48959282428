package goals

import (
	"errors"
	"fmt"
	"regexp"
	"time"
)

var (
	ErrBadMonthKey = errors.New("month key must be YYYY-MM")
	ErrBadYearKey  = errors.New("year key must be YYYY")
)

var (
	monthKeyRe = regexp.MustCompile(`^\d{4}-\d{2}$`)
	yearKeyRe  = regexp.MustCompile(`^\d{4}$`)
)

func CurrentMonthKey(now time.Time) string {
	return fmt.Sprintf("%04d-%02d", now.Year(), int(now.Month()))
}

// NormalizeMonthKey returns the current month for an empty key and rejects
// anything that is not literal "YYYY-MM".
func NormalizeMonthKey(key string, now time.Time) (string, error) {
	if key == "" {
		return CurrentMonthKey(now), nil
	}
	if !monthKeyRe.MatchString(key) {
		return "", ErrBadMonthKey
	}
	return key, nil
}

func ValidateYearKey(key string) error {
	if !yearKeyRe.MatchString(key) {
		return ErrBadYearKey
	}
	return nil
}

// MonthKeyFromDate derives "YYYY-MM" from a "YYYY-MM-DD" date string, or ""
// when the date does not parse.
func MonthKeyFromDate(date string) string {
	if date == "" {
		return ""
	}
	t, err := time.Parse("2006-01-02", date)
	if err != nil {
		return ""
	}
	return CurrentMonthKey(t)
}
