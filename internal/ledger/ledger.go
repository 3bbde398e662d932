package ledger

import (
	"context"
	"strconv"
	"time"

	"cardtracker/internal/apperr"
	"cardtracker/internal/collection"

	"github.com/google/uuid"
)

// AwardedBadge is a badge held by a collector. There is at most one per
// (CollectorID, BadgeKey).
type AwardedBadge struct {
	ID          string    `json:"id"`
	CollectorID string    `json:"collector_id"`
	BadgeKey    string    `json:"badge_key"`
	EarnedAt    time.Time `json:"earned_at"`
	Context     Context   `json:"context"`
}

// Store persists awards. InsertAward must write the award and its companion
// activity entry as one unit, and must rely on a uniqueness constraint on
// (collector, badge key) rather than on the caller: when the pair exists it
// returns the stored record with inserted == false and writes nothing.
type Store interface {
	InsertAward(ctx context.Context, badge AwardedBadge, companion collection.ActivityEvent) (stored AwardedBadge, inserted bool, err error)
	HeldKeys(ctx context.Context, collectorID string) (map[string]struct{}, error)
	ListAwards(ctx context.Context, collectorID string) ([]AwardedBadge, error)
}

// Outcome is the result of one Award call.
type Outcome struct {
	AlreadyHeld bool         `json:"already_held"`
	Badge       AwardedBadge `json:"badge"`
}

type Ledger struct {
	store Store
	now   func() time.Time
}

func New(store Store) *Ledger {
	return &Ledger{store: store, now: time.Now}
}

// WithClock replaces the clock used for EarnedAt, for tests.
func (l *Ledger) WithClock(now func() time.Time) *Ledger {
	l.now = now
	return l
}

// Award records badgeKey for collectorID exactly once. Repeated or concurrent
// calls for the same pair report AlreadyHeld and leave the stored record and
// the activity log untouched.
func (l *Ledger) Award(ctx context.Context, collectorID, badgeKey string, data Context) (Outcome, error) {
	if collectorID == "" || badgeKey == "" {
		return Outcome{}, apperr.InvalidInput("collector id and badge key are required")
	}
	if err := data.Validate(); err != nil {
		return Outcome{}, apperr.Wrap(apperr.KindInvalidInput, err, "award "+badgeKey)
	}

	now := l.now().UTC()
	badge := AwardedBadge{
		ID:          uuid.New().String(),
		CollectorID: collectorID,
		BadgeKey:    badgeKey,
		EarnedAt:    now,
		Context:     data,
	}
	companion := collection.ActivityEvent{
		ID:          uuid.New().String(),
		CollectorID: collectorID,
		Kind:        collection.ActivityBadgeEarned,
		OccurredAt:  now,
		Metadata: map[string]string{
			"badge_key": badgeKey,
			"category":  string(data.Kind),
			"metric":    strconv.Itoa(data.Metric()),
		},
	}

	stored, inserted, err := l.store.InsertAward(ctx, badge, companion)
	if err != nil {
		return Outcome{}, err
	}
	return Outcome{AlreadyHeld: !inserted, Badge: stored}, nil
}

func (l *Ledger) Held(ctx context.Context, collectorID string) (map[string]struct{}, error) {
	return l.store.HeldKeys(ctx, collectorID)
}

func (l *Ledger) List(ctx context.Context, collectorID string) ([]AwardedBadge, error) {
	return l.store.ListAwards(ctx, collectorID)
}
