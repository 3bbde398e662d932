package collection

import (
	"strings"
	"time"
)

// OwnedItem is one row of a collector's holdings. The same ItemID may appear
// several times with different variants.
type OwnedItem struct {
	ItemID   string `json:"item_id"`
	Quantity int    `json:"quantity"`
	Variant  string `json:"variant"`
}

// ItemDescriptor carries the cached attributes of an item. CategoryTags is the
// explicit item -> tags relation; a multi-type card lists every type.
type ItemDescriptor struct {
	ItemID       string   `json:"item_id"`
	DisplayName  string   `json:"display_name"`
	CategoryTags []string `json:"category_tags"`
}

// SetReference describes a set. A TotalItemCount of zero or less means the set
// cannot be scored.
type SetReference struct {
	SetID          string `json:"set_id"`
	DisplayName    string `json:"display_name"`
	TotalItemCount int    `json:"total_item_count"`
}

func (s SetReference) Scoreable() bool { return s.TotalItemCount > 0 }

type ActivityKind string

const (
	ActivityItemAdded   ActivityKind = "item_added"
	ActivityItemRemoved ActivityKind = "item_removed"
	ActivityBadgeEarned ActivityKind = "badge_earned"
)

// ActivityEvent is an append-only entry of a collector's activity log.
type ActivityEvent struct {
	ID          string            `json:"id"`
	CollectorID string            `json:"collector_id"`
	Kind        ActivityKind      `json:"kind"`
	OccurredAt  time.Time         `json:"occurred_at"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// SetIDOf returns the set portion of a set-scoped item id ("sv1-25" -> "sv1").
// Items without a hyphen are not set-scoped and yield "".
func SetIDOf(itemID string) string {
	setID, _, ok := strings.Cut(itemID, "-")
	if !ok {
		return ""
	}
	return setID
}

// UniqueItemIDs returns the distinct item ids in first-seen order, so that
// variants and duplicate rows count once.
func UniqueItemIDs(items []OwnedItem) []string {
	seen := make(map[string]struct{}, len(items))
	ids := make([]string, 0, len(items))
	for _, it := range items {
		if _, ok := seen[it.ItemID]; ok {
			continue
		}
		seen[it.ItemID] = struct{}{}
		ids = append(ids, it.ItemID)
	}
	return ids
}

// CountInSet counts the distinct item ids that belong to setID.
func CountInSet(ids []string, setID string) int {
	prefix := setID + "-"
	n := 0
	for _, id := range ids {
		if strings.HasPrefix(id, prefix) {
			n++
		}
	}
	return n
}

// SetIDs returns the distinct set ids referenced by ids, in first-seen order.
func SetIDs(ids []string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, id := range ids {
		s := SetIDOf(id)
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
