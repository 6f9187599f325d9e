// Package visits derives the display state of a visit from its check-in and
// check-out fields.
package visits

import (
	"strings"

	"fieldsales-console/internal/models"
)

// Status is the derived display state of a visit.
type Status string

const (
	StatusCompleted  Status = "Completed"
	StatusCheckedOut Status = "Checked Out"
	StatusOnGoing    Status = "On Going"
	StatusAssigned   Status = "Assigned"
)

// All lists every status in evaluation order.
var All = []Status{StatusCompleted, StatusCheckedOut, StatusOnGoing, StatusAssigned}

// Derive maps the four nullable fields to exactly one status. A pair counts
// only when both its date and time are set. The checks run in a fixed order,
// so a visit with both pairs is Completed even though it also has a checkout
// pair.
func Derive(checkinDate, checkinTime, checkoutDate, checkoutTime *string) Status {
	checkin := present(checkinDate) && present(checkinTime)
	checkout := present(checkoutDate) && present(checkoutTime)

	switch {
	case checkin && checkout:
		return StatusCompleted
	case checkout:
		return StatusCheckedOut
	case checkin:
		return StatusOnGoing
	default:
		return StatusAssigned
	}
}

// Of derives the status of v.
func Of(v models.Visit) Status {
	return Derive(v.CheckinDate, v.CheckinTime, v.CheckoutDate, v.CheckoutTime)
}

// Counts tallies statuses across visits. Every status has an entry.
func Counts(list []models.Visit) map[Status]int {
	out := make(map[Status]int, len(All))
	for _, s := range All {
		out[s] = 0
	}
	for _, v := range list {
		out[Of(v)]++
	}
	return out
}

// Filter keeps the visits whose derived status is want.
func Filter(list []models.Visit, want Status) []models.Visit {
	var out []models.Visit
	for _, v := range list {
		if Of(v) == want {
			out = append(out, v)
		}
	}
	return out
}

// Parse accepts a status label case-insensitively.
func Parse(s string) (Status, bool) {
	for _, st := range All {
		if strings.EqualFold(string(st), strings.TrimSpace(s)) {
			return st, true
		}
	}
	return "", false
}

func present(s *string) bool {
	return s != nil && strings.TrimSpace(*s) != ""
}
