package wshub

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"cardtracker/internal/events"
)

func award(collectorID, key string) events.BadgeAwarded {
	return events.BadgeAwarded{CollectorID: collectorID, BadgeKey: key, DisplayName: "First Catch", EarnedAt: time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)}
}

func TestRegisterAndNotify(t *testing.T) {
	h := NewHub(nil)

	c1 := NewClient("c1", nil)
	c1b := NewClient("c1", nil)
	c2 := NewClient("c2", nil)
	h.Register(c1)
	h.Register(c1b)
	h.Register(c2)

	if got := h.Count("c1"); got != 2 {
		t.Errorf("Count(c1) = %d, want 2", got)
	}

	h.NotifyAward(award("c1", "first_catch"))

	for _, c := range []*Client{c1, c1b} {
		select {
		case data := <-c.Send:
			var got ServerMessage
			if err := json.Unmarshal(data, &got); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if got.Type != "badge" || got.BadgeKey != "first_catch" || got.DisplayName != "First Catch" {
				t.Fatalf("unexpected message: %+v", got)
			}
		case <-time.After(100 * time.Millisecond):
			t.Fatal("c1 client did not receive award")
		}
	}

	select {
	case <-c2.Send:
		t.Fatal("c2 should not receive c1's award")
	default:
	}
}

func TestNotifyCelebratesOncePerConnection(t *testing.T) {
	h := NewHub(nil)
	c := NewClient("c1", nil)
	h.Register(c)

	h.NotifyAward(award("c1", "first_catch"))
	h.NotifyAward(award("c1", "first_catch"))
	<-c.Send
	select {
	case <-c.Send:
		t.Fatal("badge celebrated twice")
	default:
	}

	c.Acknowledge("collector_10")
	h.NotifyAward(award("c1", "collector_10"))
	select {
	case <-c.Send:
		t.Fatal("acknowledged badge should not be sent")
	default:
	}
}

func TestUnregisterClosesSend(t *testing.T) {
	h := NewHub(nil)
	c := NewClient("c1", nil)
	h.Register(c)
	h.Unregister(c)
	h.Unregister(c) // no panic on double close

	if _, ok := <-c.Send; ok {
		t.Fatal("Send should be closed")
	}
	if got := h.Count("c1"); got != 0 {
		t.Errorf("Count = %d, want 0", got)
	}
	h.NotifyAward(award("c1", "first_catch"))
}

func TestNotifyDropsWhenFull(t *testing.T) {
	h := NewHub(nil)
	c := &Client{CollectorID: "c1", Send: make(chan []byte, 1), celebrated: map[string]struct{}{}}
	h.Register(c)
	c.Send <- []byte("filler")

	h.NotifyAward(award("c1", "first_catch"))

	if data := <-c.Send; string(data) != "filler" {
		t.Fatalf("expected filler, got: %s", data)
	}
	select {
	case <-c.Send:
		t.Fatal("should be empty after draining filler")
	default:
	}
}

func TestRunStopsWhenChannelCloses(t *testing.T) {
	h := NewHub(nil)
	c := NewClient("c1", nil)
	h.Register(c)

	ch := make(chan events.BadgeAwarded, 1)
	ch <- award("c1", "streak_3")
	close(ch)

	done := make(chan struct{})
	go func() {
		h.Run(context.Background(), ch)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return")
	}
	select {
	case <-c.Send:
	default:
		t.Fatal("award was not forwarded")
	}
}
