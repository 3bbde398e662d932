package progression

import (
	"context"

	"cardtracker/internal/events"
	"cardtracker/internal/streak"
)

// GraceStore persists grace-day usages. InsertGraceDay must enforce both the
// one-usage-per-protected-day uniqueness and the weekly quota; when the day is
// already protected it returns the stored usage with inserted == false.
type GraceStore interface {
	GraceDayUsages(ctx context.Context, collectorID string) ([]streak.GraceDayUsage, error)
	InsertGraceDay(ctx context.Context, usage streak.GraceDayUsage, quota int) (stored streak.GraceDayUsage, inserted bool, err error)
}

// Notifier is told about every badge newly written to the ledger.
type Notifier interface {
	PublishAward(ev events.BadgeAwarded) bool
}
