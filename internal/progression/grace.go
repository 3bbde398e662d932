package progression

import (
	"context"

	"cardtracker/internal/apperr"
	"cardtracker/internal/streak"
)

// GraceOutcome is the result of ConsumeGraceDay. AlreadyUsed means the day
// was protected before this call and Usage is the stored record.
type GraceOutcome struct {
	AlreadyUsed bool                 `json:"already_used"`
	Usage       streak.GraceDayUsage `json:"usage"`
}

// GraceStatus summarizes grace-day use for the current ISO week.
type GraceStatus struct {
	Week          string                 `json:"week"`
	PerWeek       int                    `json:"per_week"`
	RemainingWeek int                    `json:"remaining_this_week"`
	Usages        []streak.GraceDayUsage `json:"usages"`
}

// GraceDays lists the collector's grace-day usages and the quota left in the
// ISO week containing today.
func (e *Engine) GraceDays(ctx context.Context, collectorID string, today streak.Date) (GraceStatus, error) {
	if e.grace == nil {
		return GraceStatus{}, apperr.InvalidState("grace days are not enabled")
	}
	usages, err := e.grace.GraceDayUsages(ctx, collectorID)
	if err != nil {
		return GraceStatus{}, err
	}
	if usages == nil {
		usages = []streak.GraceDayUsage{}
	}
	return GraceStatus{
		Week:          today.ISOWeek(),
		PerWeek:       e.graceQuota,
		RemainingWeek: streak.RemainingInWeek(usages, today, e.graceQuota),
		Usages:        usages,
	}, nil
}

// ConsumeGraceDay spends one grace day to cover protected, a past day with no
// activity. The quota is counted per ISO week of the protected day. Protecting
// an already protected day is a no-op that reports the stored usage.
func (e *Engine) ConsumeGraceDay(ctx context.Context, collectorID string, protected, today streak.Date) (GraceOutcome, error) {
	if e.grace == nil {
		return GraceOutcome{}, apperr.InvalidState("grace days are not enabled")
	}
	if protected.IsZero() {
		return GraceOutcome{}, apperr.InvalidInput("protected date is required")
	}

	window := e.streakEvalWindow()
	if span := today.DaysSince(protected) + 1; span > window {
		window = span
	}
	in, err := e.streakInput(ctx, collectorID, window, today)
	if err != nil {
		return GraceOutcome{}, err
	}

	prior, err := streak.CheckConsume(in.Grace, in.Active, protected, today, e.graceQuota)
	if err != nil {
		return GraceOutcome{}, err
	}
	if prior != nil {
		return GraceOutcome{AlreadyUsed: true, Usage: *prior}, nil
	}

	usage := streak.GraceDayUsage{
		CollectorID:   collectorID,
		UsedOn:        today,
		ProtectedDate: protected,
		Week:          protected.ISOWeek(),
	}
	in.Grace = append(in.Grace, usage)
	usage.StreakLengthAtUse = streak.CurrentStreak(in)

	stored, inserted, err := e.grace.InsertGraceDay(ctx, usage, e.graceQuota)
	if err != nil {
		return GraceOutcome{}, err
	}
	if !inserted {
		return GraceOutcome{AlreadyUsed: true, Usage: stored}, nil
	}

	e.metrics.IncGraceDaysConsumed()
	e.log.Info().
		Str("collector", collectorID).
		Stringer("protected", protected).
		Str("week", usage.Week).
		Int("streak", usage.StreakLengthAtUse).
		Msg("grace day consumed")
	return GraceOutcome{Usage: stored}, nil
}
