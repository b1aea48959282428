package service

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/brokeragedesk/backend/internal/models"
)

// Contract IDs look like "R7-1-1" (era year, month, sequence) or "25-1-1"
// (two-digit western year). The era form counts years from 2018.
var (
	ErrContractIDFormat = errors.New("contract id must be year-month-seq, e.g. R7-1-1")
	ErrContractIDValue  = errors.New("contract id contains a non-numeric part")
	ErrContractIDMonth  = errors.New("contract id month must be 1-12")
	ErrContractIDYear   = errors.New("contract id era year must be positive")
)

type ContractIDParts struct {
	Year  int
	Month int
	Seq   int
}

func ParseContractID(id string) (ContractIDParts, error) {
	parts := strings.Split(id, "-")
	if len(parts) != 3 {
		return ContractIDParts{}, ErrContractIDFormat
	}

	yearPart, monthPart, seqPart := parts[0], parts[1], parts[2]

	var year int
	if strings.HasPrefix(strings.ToLower(yearPart), "r") {
		eraYear, err := strconv.Atoi(yearPart[1:])
		if err != nil {
			return ContractIDParts{}, ErrContractIDValue
		}
		if eraYear <= 0 {
			return ContractIDParts{}, ErrContractIDYear
		}
		year = 2018 + eraYear
	} else {
		yearShort, err := strconv.Atoi(yearPart)
		if err != nil {
			return ContractIDParts{}, ErrContractIDValue
		}
		year = yearShort
		if yearShort < 100 {
			year = 2000 + yearShort
		}
	}

	month, err := strconv.Atoi(monthPart)
	if err != nil {
		return ContractIDParts{}, ErrContractIDValue
	}
	seq, err := strconv.Atoi(seqPart)
	if err != nil {
		return ContractIDParts{}, ErrContractIDValue
	}
	if month < 1 || month > 12 {
		return ContractIDParts{}, ErrContractIDMonth
	}

	return ContractIDParts{Year: year, Month: month, Seq: seq}, nil
}

// YearMonthBucket is the "YYYY_MM" storage bucket a contract id maps to.
func YearMonthBucket(id string) (string, error) {
	if id == "" {
		return "", ErrContractIDFormat
	}
	parts, err := ParseContractID(id)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%d_%02d", parts.Year, parts.Month), nil
}

// SortContracts orders contracts by their parsed id components; unparsable
// ids sort last.
func SortContracts(contracts []models.Contract) {
	key := func(c models.Contract) ContractIDParts {
		parts, err := ParseContractID(c.ID)
		if err != nil {
			return ContractIDParts{Year: 9999, Month: 99, Seq: 9999}
		}
		return parts
	}
	sort.SliceStable(contracts, func(i, j int) bool {
		ka, kb := key(contracts[i]), key(contracts[j])
		if ka.Year != kb.Year {
			return ka.Year < kb.Year
		}
		if ka.Month != kb.Month {
			return ka.Month < kb.Month
		}
		return ka.Seq < kb.Seq
	})
}
