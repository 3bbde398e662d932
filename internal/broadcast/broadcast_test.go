package broadcast

import (
	"testing"
	"time"

	"cardtracker/internal/events"
)

func TestBroadcaster_SubscribeUnsubscribe(t *testing.T) {
	b := NewBroadcaster(events.NewBus(), nil)

	ch := b.Subscribe("c1")
	b.mu.Lock()
	if len(b.clients) != 1 {
		t.Errorf("clients count = %d, want 1", len(b.clients))
	}
	b.mu.Unlock()

	b.Unsubscribe(ch)
	b.Unsubscribe(ch) // second call is a no-op

	b.mu.Lock()
	if len(b.clients) != 0 {
		t.Errorf("clients count after unsubscribe = %d, want 0", len(b.clients))
	}
	b.mu.Unlock()
	if _, ok := <-ch; ok {
		t.Error("channel should be closed")
	}
}

func TestBroadcaster_FiltersByCollector(t *testing.T) {
	b := NewBroadcaster(events.NewBus(), nil)
	mine := b.Subscribe("c1")
	other := b.Subscribe("c2")
	all := b.Subscribe("")

	b.Publish(events.BadgeAwarded{CollectorID: "c1", BadgeKey: "first_catch"})

	select {
	case ev := <-mine:
		if ev.BadgeKey != "first_catch" {
			t.Errorf("BadgeKey = %q, want %q", ev.BadgeKey, "first_catch")
		}
	case <-time.After(time.Second):
		t.Fatal("c1 subscriber timed out")
	}
	select {
	case <-all:
	case <-time.After(time.Second):
		t.Fatal("wildcard subscriber timed out")
	}
	select {
	case ev := <-other:
		t.Fatalf("c2 got %+v", ev)
	default:
	}
}

func TestBroadcaster_SkipsFullChannels(t *testing.T) {
	b := NewBroadcaster(events.NewBus(), nil)
	ch := b.Subscribe("c1")

	for i := 0; i < subscriberBuffer; i++ {
		b.Publish(events.BadgeAwarded{CollectorID: "c1"})
	}

	done := make(chan bool)
	go func() {
		b.Publish(events.BadgeAwarded{CollectorID: "c1"})
		done <- true
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Publish blocked on full channel")
	}
	b.Unsubscribe(ch)
}

func TestBroadcaster_ForwardsBus(t *testing.T) {
	bus := events.NewBus()
	b := NewBroadcaster(bus, nil)
	ch := b.Subscribe("c1")

	bus.PublishAward(events.BadgeAwarded{CollectorID: "c1", BadgeKey: "streak_3"})

	select {
	case ev := <-ch:
		if ev.BadgeKey != "streak_3" {
			t.Errorf("BadgeKey = %q, want %q", ev.BadgeKey, "streak_3")
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for forwarded award")
	}

	close(bus.Awards)
	select {
	case <-b.Done():
	case <-time.After(time.Second):
		t.Fatal("broadcaster did not stop after bus closed")
	}
}
