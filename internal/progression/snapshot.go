package progression

import (
	"math"
	"strings"

	"cardtracker/internal/badges"
	"cardtracker/internal/collection"
)

// Snapshot is the deduplicated view of a collector's holdings that every
// count-based metric is computed from.
type Snapshot struct {
	ItemIDs     []string
	Descriptors map[string]collection.ItemDescriptor
}

// NewSnapshot dedupes items by ItemID. descriptors may be nil when only
// id-based metrics are needed.
func NewSnapshot(items []collection.OwnedItem, descriptors map[string]collection.ItemDescriptor) Snapshot {
	return Snapshot{
		ItemIDs:     collection.UniqueItemIDs(items),
		Descriptors: descriptors,
	}
}

func (s Snapshot) UniqueCount() int { return len(s.ItemIDs) }

// TagCounts counts unique items per lower-cased category tag. An item carrying
// several tags counts once for each distinct tag; items without a descriptor
// are left out.
func (s Snapshot) TagCounts() map[string]int {
	counts := make(map[string]int)
	for _, id := range s.ItemIDs {
		d, ok := s.Descriptors[id]
		if !ok {
			continue
		}
		seen := make(map[string]struct{}, len(d.CategoryTags))
		for _, tag := range d.CategoryTags {
			tag = strings.ToLower(strings.TrimSpace(tag))
			if tag == "" {
				continue
			}
			if _, dup := seen[tag]; dup {
				continue
			}
			seen[tag] = struct{}{}
			counts[tag]++
		}
	}
	return counts
}

// TargetCounts counts unique items whose display name matches each target.
func (s Snapshot) TargetCounts(targets []badges.Target) map[string]int {
	counts := make(map[string]int, len(targets))
	for _, id := range s.ItemIDs {
		d, ok := s.Descriptors[id]
		if !ok {
			continue
		}
		for _, t := range targets {
			if t.Matches(d.DisplayName) {
				counts[t.Name]++
			}
		}
	}
	return counts
}

// SetCompletion returns the owned count and rounded completion percentage for
// ref. ok is false when the set cannot be scored.
func (s Snapshot) SetCompletion(ref collection.SetReference) (owned, percent int, ok bool) {
	if !ref.Scoreable() {
		return 0, 0, false
	}
	owned = collection.CountInSet(s.ItemIDs, ref.SetID)
	return owned, percentOf(owned, ref.TotalItemCount), true
}

func percentOf(part, whole int) int {
	if whole <= 0 || part <= 0 {
		return 0
	}
	return int(math.Round(float64(part) / float64(whole) * 100))
}
