package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"cardtracker/internal/apperr"
	"cardtracker/internal/collection"
	"cardtracker/internal/ledger"
	"cardtracker/internal/streak"
)

// Store keeps collections, activity, awards and grace days in memory. It
// satisfies every storage port and is what the engine tests run against.
type Store struct {
	mu sync.RWMutex

	collectors  map[string]struct{}
	owned       map[string][]collection.OwnedItem
	descriptors map[string]collection.ItemDescriptor
	sets        map[string]collection.SetReference
	activity    map[string][]collection.ActivityEvent
	awards      map[string]map[string]ledger.AwardedBadge
	grace       map[string][]streak.GraceDayUsage
}

func New() *Store {
	return &Store{
		collectors:  make(map[string]struct{}),
		owned:       make(map[string][]collection.OwnedItem),
		descriptors: make(map[string]collection.ItemDescriptor),
		sets:        make(map[string]collection.SetReference),
		activity:    make(map[string][]collection.ActivityEvent),
		awards:      make(map[string]map[string]ledger.AwardedBadge),
		grace:       make(map[string][]streak.GraceDayUsage),
	}
}

func (s *Store) AddCollector(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.collectors[strings.TrimSpace(id)] = struct{}{}
}

func (s *Store) PutDescriptor(d collection.ItemDescriptor) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d.CategoryTags = append([]string(nil), d.CategoryTags...)
	s.descriptors[d.ItemID] = d
}

func (s *Store) PutSet(ref collection.SetReference) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sets[ref.SetID] = ref
}

// AddOwnedItem merges quantities for an existing (item, variant) row and
// registers the collector if needed.
func (s *Store) AddOwnedItem(_ context.Context, collectorID string, item collection.OwnedItem) error {
	if item.ItemID == "" {
		return apperr.InvalidInput("item id is required")
	}
	if item.Quantity < 1 {
		item.Quantity = 1
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.collectors[collectorID] = struct{}{}
	rows := s.owned[collectorID]
	for i := range rows {
		if rows[i].ItemID == item.ItemID && rows[i].Variant == item.Variant {
			rows[i].Quantity += item.Quantity
			return nil
		}
	}
	s.owned[collectorID] = append(rows, item)
	return nil
}

func (s *Store) OwnedItems(_ context.Context, collectorID string) ([]collection.OwnedItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.collectors[collectorID]; !ok {
		return nil, apperr.NotFound("collector %q", collectorID)
	}
	return append([]collection.OwnedItem(nil), s.owned[collectorID]...), nil
}

func (s *Store) ItemDescriptors(_ context.Context, itemIDs []string) (map[string]collection.ItemDescriptor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]collection.ItemDescriptor, len(itemIDs))
	for _, id := range itemIDs {
		if d, ok := s.descriptors[id]; ok {
			out[id] = d
		}
	}
	return out, nil
}

func (s *Store) SetReference(_ context.Context, setID string) (collection.SetReference, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ref, ok := s.sets[setID]
	return ref, ok, nil
}

func (s *Store) AppendActivity(_ context.Context, ev collection.ActivityEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.activity[ev.CollectorID] = append(s.activity[ev.CollectorID], ev)
	return nil
}

func (s *Store) ActivityDates(_ context.Context, collectorID string, since time.Time, loc *time.Location) (streak.DateSet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.collectors[collectorID]; !ok {
		return nil, apperr.NotFound("collector %q", collectorID)
	}
	dates := streak.NewDateSet()
	for _, ev := range s.activity[collectorID] {
		if ev.Kind != collection.ActivityItemAdded || ev.OccurredAt.Before(since) {
			continue
		}
		dates.Add(streak.DateOf(ev.OccurredAt, loc))
	}
	return dates, nil
}

// Activity returns a copy of the collector's log, oldest first.
func (s *Store) Activity(collectorID string) []collection.ActivityEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]collection.ActivityEvent(nil), s.activity[collectorID]...)
}

func (s *Store) InsertAward(_ context.Context, badge ledger.AwardedBadge, companion collection.ActivityEvent) (ledger.AwardedBadge, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	held := s.awards[badge.CollectorID]
	if held == nil {
		held = make(map[string]ledger.AwardedBadge)
		s.awards[badge.CollectorID] = held
	}
	if existing, ok := held[badge.BadgeKey]; ok {
		return existing, false, nil
	}
	held[badge.BadgeKey] = badge
	s.activity[companion.CollectorID] = append(s.activity[companion.CollectorID], companion)
	return badge, true, nil
}

func (s *Store) HeldKeys(_ context.Context, collectorID string) (map[string]struct{}, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make(map[string]struct{}, len(s.awards[collectorID]))
	for k := range s.awards[collectorID] {
		keys[k] = struct{}{}
	}
	return keys, nil
}

func (s *Store) ListAwards(_ context.Context, collectorID string) ([]ledger.AwardedBadge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]ledger.AwardedBadge, 0, len(s.awards[collectorID]))
	for _, b := range s.awards[collectorID] {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].EarnedAt.Equal(out[j].EarnedAt) {
			return out[i].BadgeKey < out[j].BadgeKey
		}
		return out[i].EarnedAt.Before(out[j].EarnedAt)
	})
	return out, nil
}

func (s *Store) GraceDayUsages(_ context.Context, collectorID string) ([]streak.GraceDayUsage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]streak.GraceDayUsage(nil), s.grace[collectorID]...), nil
}

// InsertGraceDay writes usage unless its day is already protected, in which
// case the stored usage is returned. The weekly quota is re-checked under the
// lock so concurrent consumers cannot overrun it.
func (s *Store) InsertGraceDay(_ context.Context, usage streak.GraceDayUsage, quota int) (streak.GraceDayUsage, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing := s.grace[usage.CollectorID]
	for _, u := range existing {
		if u.ProtectedDate == usage.ProtectedDate {
			return u, false, nil
		}
	}
	if streak.UsedInWeek(existing, usage.Week) >= quota {
		return streak.GraceDayUsage{}, false, streak.ErrGraceQuotaReached
	}
	s.grace[usage.CollectorID] = append(existing, usage)
	return usage, true, nil
}
