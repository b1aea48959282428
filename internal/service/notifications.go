package service

import (
	"fmt"
	"sort"
	"time"

	"github.com/brokeragedesk/backend/internal/models"
)

// How many days ahead a mediation deadline starts showing up.
const deadlineWindowDays = 20

type Notification struct {
	ID         string `json:"id"`
	Type       string `json:"type"`
	ContractID string `json:"contract_id"`
	Address    string `json:"address"`
	DaysLeft   int    `json:"days_left,omitempty"`
	ExpireDate string `json:"expire_date,omitempty"`
	From       any    `json:"from,omitempty"`
	To         any    `json:"to,omitempty"`
	User       string `json:"user,omitempty"`
	Date       string `json:"date"`
	Message    string `json:"message"`
}

// BuildNotifications derives deadline and change notifications for the given
// user from the contract snapshot. Nothing is persisted; the list is
// recomputed per request.
func BuildNotifications(contracts []models.Contract, user string, today time.Time) []Notification {
	// Calendar day in the caller's zone, not a UTC day boundary.
	y, m, d := today.Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, today.Location())
	todayStr := day.Format("2006-01-02")
	notifications := []Notification{}

	for _, contract := range contracts {
		if isClosedStatus(contract.DealStatus) {
			continue
		}

		if contract.MediationExpireDate != "" {
			if expire, err := time.Parse("2006-01-02", contract.MediationExpireDate); err == nil {
				ey, em, ed := expire.Date()
				expireDay := time.Date(ey, em, ed, 0, 0, 0, 0, today.Location())
				daysLeft := int(expireDay.Sub(day) / (24 * time.Hour))
				switch {
				case daysLeft >= 0 && daysLeft <= deadlineWindowDays:
					message := fmt.Sprintf("mediation deadline for %s is in %d days", contract.ID, daysLeft)
					if daysLeft == 0 {
						message = fmt.Sprintf("mediation deadline for %s is today", contract.ID)
					}
					notifications = append(notifications, Notification{
						ID:         fmt.Sprintf("deadline_%s_%s", contract.ID, todayStr),
						Type:       "deadline",
						ContractID: contract.ID,
						Address:    contract.PropertyAddress,
						DaysLeft:   daysLeft,
						ExpireDate: contract.MediationExpireDate,
						Date:       todayStr,
						Message:    message,
					})
				case daysLeft < 0:
					notifications = append(notifications, Notification{
						ID:         fmt.Sprintf("deadline_%s_%s", contract.ID, todayStr),
						Type:       "deadline_expired",
						ContractID: contract.ID,
						Address:    contract.PropertyAddress,
						DaysLeft:   daysLeft,
						ExpireDate: contract.MediationExpireDate,
						Date:       todayStr,
						Message:    fmt.Sprintf("mediation deadline for %s passed %d days ago", contract.ID, -daysLeft),
					})
				}
			}
		}

		for _, change := range contract.ChangeHistory {
			if change.User == user {
				continue
			}
			changeDate := change.Date
			if len(changeDate) > 10 {
				changeDate = changeDate[:10]
			}
			switch change.Type {
			case "status":
				notifications = append(notifications, Notification{
					ID:         fmt.Sprintf("status_%s_%s_%v", contract.ID, changeDate, change.To),
					Type:       "status_change",
					ContractID: contract.ID,
					Address:    contract.PropertyAddress,
					From:       change.From,
					To:         change.To,
					User:       change.User,
					Date:       changeDate,
					Message:    fmt.Sprintf("status of %s changed to %v by %s", contract.ID, change.To, change.User),
				})
			case "price":
				notifications = append(notifications, Notification{
					ID:         fmt.Sprintf("price_%s_%s_%v", contract.ID, changeDate, change.To),
					Type:       "price_change",
					ContractID: contract.ID,
					Address:    contract.PropertyAddress,
					From:       change.From,
					To:         change.To,
					User:       change.User,
					Date:       changeDate,
					Message:    fmt.Sprintf("price of %s changed to %v by %s", contract.ID, change.To, change.User),
				})
			}
		}
	}

	sort.SliceStable(notifications, func(i, j int) bool {
		return notifications[i].Date > notifications[j].Date
	})
	return notifications
}

// IsClosedStatus reports whether a deal status takes the contract out of the
// active set.
func IsClosedStatus(status string) bool {
	return isClosedStatus(status)
}

func isClosedStatus(status string) bool {
	switch status {
	case models.StatusClosed, models.StatusCanceled, models.StatusPurchased:
		return true
	default:
		return false
	}
}
