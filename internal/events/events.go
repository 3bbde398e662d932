package events

import "time"

// BadgeAwarded is published once for every badge newly written to the ledger.
type BadgeAwarded struct {
	CollectorID string    `json:"collector_id"`
	BadgeKey    string    `json:"badge_key"`
	Category    string    `json:"category"`
	DisplayName string    `json:"display_name"`
	Description string    `json:"description"`
	Icon        string    `json:"icon"`
	Color       string    `json:"color"`
	EarnedAt    time.Time `json:"earned_at"`
}

const awardBuffer = 64

type Bus struct {
	Awards chan BadgeAwarded
}

func NewBus() *Bus {
	return &Bus{
		Awards: make(chan BadgeAwarded, awardBuffer),
	}
}

// PublishAward never blocks the award path; it reports false when the buffer
// is full and the notification was dropped.
func (b *Bus) PublishAward(ev BadgeAwarded) bool {
	select {
	case b.Awards <- ev:
		return true
	default:
		return false
	}
}
