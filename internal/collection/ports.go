package collection

import (
	"context"
	"time"

	"cardtracker/internal/streak"
)

// Source is the collection snapshot provider.
type Source interface {
	// OwnedItems returns an apperr NotFound error for an unknown collector.
	OwnedItems(ctx context.Context, collectorID string) ([]OwnedItem, error)
	// ItemDescriptors looks up descriptors in bulk. Ids without a descriptor
	// are left out of the result.
	ItemDescriptors(ctx context.Context, itemIDs []string) (map[string]ItemDescriptor, error)
	SetReference(ctx context.Context, setID string) (SetReference, bool, error)
}

// ActivityLog is the per-collector append-only event log.
type ActivityLog interface {
	// ActivityDates returns the calendar dates, observed in loc, of every
	// item_added event at or after since.
	ActivityDates(ctx context.Context, collectorID string, since time.Time, loc *time.Location) (streak.DateSet, error)
	AppendActivity(ctx context.Context, ev ActivityEvent) error
}

// Writer records collection mutations. It is only used by the inline trigger
// path; collection management proper lives elsewhere.
type Writer interface {
	AddOwnedItem(ctx context.Context, collectorID string, item OwnedItem) error
}
