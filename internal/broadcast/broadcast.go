package broadcast

import (
	"sync"

	"cardtracker/internal/events"
	"cardtracker/internal/metrics"
)

const subscriberBuffer = 16

// Broadcaster is the single consumer of the award bus. It copies every award
// to the subscribers interested in its collector; a subscriber registered
// for "" receives every award.
type Broadcaster struct {
	mu      sync.Mutex
	clients map[chan events.BadgeAwarded]string
	metrics *metrics.Metrics
	done    chan struct{}
}

func NewBroadcaster(bus *events.Bus, m *metrics.Metrics) *Broadcaster {
	b := &Broadcaster{
		clients: make(map[chan events.BadgeAwarded]string),
		metrics: m,
		done:    make(chan struct{}),
	}
	go func() {
		defer close(b.done)
		for ev := range bus.Awards {
			b.Publish(ev)
		}
	}()
	return b
}

// Done is closed once the bus is closed and drained.
func (b *Broadcaster) Done() <-chan struct{} { return b.done }

func (b *Broadcaster) Subscribe(collectorID string) chan events.BadgeAwarded {
	ch := make(chan events.BadgeAwarded, subscriberBuffer)
	b.mu.Lock()
	b.clients[ch] = collectorID
	b.mu.Unlock()
	return ch
}

func (b *Broadcaster) Unsubscribe(ch chan events.BadgeAwarded) {
	b.mu.Lock()
	_, ok := b.clients[ch]
	delete(b.clients, ch)
	b.mu.Unlock()
	if ok {
		close(ch)
	}
}

func (b *Broadcaster) Publish(ev events.BadgeAwarded) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for ch, collectorID := range b.clients {
		if collectorID != "" && collectorID != ev.CollectorID {
			continue
		}
		select {
		case ch <- ev:
		default:
			// slow subscriber
			b.metrics.IncNotificationDrops()
		}
	}
}
