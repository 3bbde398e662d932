package wshub

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"cardtracker/internal/events"
	"cardtracker/internal/logger"
	"cardtracker/internal/metrics"

	"github.com/coder/websocket"
)

const sendBuffer = 16

// ClientMessage is the JSON structure received from clients.
type ClientMessage struct {
	Type     string `json:"t"`
	BadgeKey string `json:"badge,omitempty"`
}

// ServerMessage is the JSON structure sent to clients.
type ServerMessage struct {
	Type        string    `json:"t"`
	BadgeKey    string    `json:"badge,omitempty"`
	Category    string    `json:"category,omitempty"`
	DisplayName string    `json:"name,omitempty"`
	Description string    `json:"description,omitempty"`
	Icon        string    `json:"icon,omitempty"`
	Color       string    `json:"color,omitempty"`
	EarnedAt    time.Time `json:"earned_at,omitzero"`
}

// Client is one WebSocket connection watching a collector's awards.
type Client struct {
	CollectorID string
	Conn        *websocket.Conn
	Send        chan []byte

	mu         sync.Mutex
	celebrated map[string]struct{}
}

func NewClient(collectorID string, conn *websocket.Conn) *Client {
	return &Client{
		CollectorID: collectorID,
		Conn:        conn,
		Send:        make(chan []byte, sendBuffer),
		celebrated:  make(map[string]struct{}),
	}
}

// Acknowledge marks a badge as celebrated so it is not shown again on this
// connection.
func (c *Client) Acknowledge(badgeKey string) {
	c.mu.Lock()
	c.celebrated[badgeKey] = struct{}{}
	c.mu.Unlock()
}

// queue reports false when the badge was already celebrated or the client's
// buffer is full.
func (c *Client) queue(badgeKey string, data []byte) bool {
	c.mu.Lock()
	if _, seen := c.celebrated[badgeKey]; seen {
		c.mu.Unlock()
		return false
	}
	c.celebrated[badgeKey] = struct{}{}
	c.mu.Unlock()

	select {
	case c.Send <- data:
		return true
	default:
		return false
	}
}

// WritePump reads from the Send channel and writes to the WebSocket connection.
func (c *Client) WritePump(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-c.Send:
			if !ok {
				return
			}
			if err := c.Conn.Write(ctx, websocket.MessageText, msg); err != nil {
				return
			}
		}
	}
}

// ReadPump handles acknowledgements until the connection closes.
func (c *Client) ReadPump(ctx context.Context) error {
	for {
		_, data, err := c.Conn.Read(ctx)
		if err != nil {
			return err
		}
		var msg ClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			continue
		}
		if msg.Type == "ack" && msg.BadgeKey != "" {
			c.Acknowledge(msg.BadgeKey)
		}
	}
}

// Hub tracks connected clients per collector.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]map[*Client]struct{}
	metrics *metrics.Metrics
}

func NewHub(m *metrics.Metrics) *Hub {
	return &Hub{
		clients: make(map[string]map[*Client]struct{}),
		metrics: m,
	}
}

func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set := h.clients[c.CollectorID]
	if set == nil {
		set = make(map[*Client]struct{})
		h.clients[c.CollectorID] = set
	}
	set[c] = struct{}{}
	h.metrics.IncWSClients(1)
}

// Unregister removes a client and closes its Send channel.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.clients[c.CollectorID]
	if !ok {
		return
	}
	if _, ok := set[c]; !ok {
		return
	}
	delete(set, c)
	if len(set) == 0 {
		delete(h.clients, c.CollectorID)
	}
	close(c.Send)
	h.metrics.IncWSClients(-1)
}

// Count returns how many clients watch collectorID.
func (h *Hub) Count(collectorID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[collectorID])
}

// NotifyAward sends a celebration to every client of the award's collector.
// Non-blocking: drops if a client's channel is full.
func (h *Hub) NotifyAward(ev events.BadgeAwarded) {
	data, err := json.Marshal(ServerMessage{
		Type:        "badge",
		BadgeKey:    ev.BadgeKey,
		Category:    ev.Category,
		DisplayName: ev.DisplayName,
		Description: ev.Description,
		Icon:        ev.Icon,
		Color:       ev.Color,
		EarnedAt:    ev.EarnedAt,
	})
	if err != nil {
		logger.Error().Err(err).Msg("wshub: marshal award")
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients[ev.CollectorID] {
		c.queue(ev.BadgeKey, data)
	}
}

// Run forwards awards from ch until it is closed or ctx ends.
func (h *Hub) Run(ctx context.Context, ch <-chan events.BadgeAwarded) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-ch:
			if !ok {
				return
			}
			h.NotifyAward(ev)
		}
	}
}
