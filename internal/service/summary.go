package service

import (
	"sort"

	"github.com/brokeragedesk/backend/internal/models"
)

type StaffSummary struct {
	Staff     string `json:"staff"`
	Exclusive int    `json:"exclusive"`
	Sole      int    `json:"sole"`
	General   int    `json:"general"`
	Total     int    `json:"total"`
}

// BuildSummary counts active contracts per staff member by mediation type.
// Unknown types still count toward the total.
func BuildSummary(contracts []models.Contract) []StaffSummary {
	byStaff := map[string]*StaffSummary{}

	for _, contract := range contracts {
		if isClosedStatus(contract.DealStatus) {
			continue
		}
		staff := contract.Staff
		if staff == "" {
			staff = models.UnassignedStaff
		}
		row, ok := byStaff[staff]
		if !ok {
			row = &StaffSummary{Staff: staff}
			byStaff[staff] = row
		}
		switch contract.ContractType {
		case models.TypeExclusive, "exclusive_sole":
			row.Exclusive++
		case models.TypeSole:
			row.Sole++
		case models.TypeGeneral:
			row.General++
		}
		row.Total++
	}

	rows := make([]StaffSummary, 0, len(byStaff))
	for _, row := range byStaff {
		rows = append(rows, *row)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Staff < rows[j].Staff })
	return rows
}
