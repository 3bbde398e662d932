package streak

import (
	"fmt"

	"cardtracker/internal/apperr"
)

// DefaultGraceDaysPerWeek is the quota used when none is configured.
const DefaultGraceDaysPerWeek = 1

var (
	ErrGraceNotPast      = apperr.InvalidInput("grace days can only protect a day before today")
	ErrGraceDayActive    = apperr.InvalidState("day already has activity")
	ErrGraceQuotaReached = apperr.InvalidState("weekly grace-day quota exhausted")
)

// GraceDayUsage records one grace day spent to bridge a missed day.
type GraceDayUsage struct {
	CollectorID       string `json:"collector_id"`
	UsedOn            Date   `json:"used_on"`
	ProtectedDate     Date   `json:"protected_date"`
	Week              string `json:"week"`
	StreakLengthAtUse int    `json:"streak_length_at_use"`
}

// UsedInWeek counts the usages whose protected day falls in the given ISO week.
func UsedInWeek(usages []GraceDayUsage, week string) int {
	n := 0
	for _, u := range usages {
		if u.Week == week {
			n++
		}
	}
	return n
}

// RemainingInWeek returns how many grace days are still available for the
// ISO week containing d.
func RemainingInWeek(usages []GraceDayUsage, d Date, quota int) int {
	left := quota - UsedInWeek(usages, d.ISOWeek())
	if left < 0 {
		return 0
	}
	return left
}

// CheckConsume decides whether protected may be covered by a new grace day.
// When the day is already protected the existing usage is returned with a nil
// error and no new usage should be written.
func CheckConsume(existing []GraceDayUsage, active DateSet, protected, today Date, quota int) (*GraceDayUsage, error) {
	for i := range existing {
		if existing[i].ProtectedDate == protected {
			return &existing[i], nil
		}
	}
	if !protected.Before(today) {
		return nil, ErrGraceNotPast
	}
	if active.Has(protected) {
		return nil, fmt.Errorf("protecting %s: %w", protected, ErrGraceDayActive)
	}
	if RemainingInWeek(existing, protected, quota) == 0 {
		return nil, fmt.Errorf("week %s: %w", protected.ISOWeek(), ErrGraceQuotaReached)
	}
	return nil, nil
}
