package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"log/slog"

	"github.com/google/uuid"

	"github.com/ghomren619/talk-caves/internal/chat"
	"github.com/ghomren619/talk-caves/pkg/metrics"
)

// envelope is the JSON frame exchanged with clients:
// {"event": "...", "data": {...}}
type envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

func encode(event string, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(envelope{Event: event, Data: data})
}

// Hub owns the live connections and the per-room delivery groups. It is
// the chat.Sender for the router: the router decides who hears what, the
// hub moves the bytes. Room groups here mirror store membership because
// the router calls EnterRoom/LeaveRoom on every membership change.
type Hub struct {
	id     string // instance id, used to skip our own bus messages
	log    *slog.Logger
	bus    *RedisBus // nil when running single-instance
	router *chat.Router

	mu    sync.RWMutex
	conns map[string]*Conn            // connID -> conn
	rooms map[string]map[string]*Conn // roomID -> connID -> conn
}

// NewHub sets up the hub; bus may be nil for single-instance deployments
func NewHub(logger *slog.Logger, bus *RedisBus) *Hub {
	return &Hub{
		id:    uuid.NewString(),
		log:   logger,
		bus:   bus,
		conns: map[string]*Conn{},
		rooms: map[string]map[string]*Conn{},
	}
}

// SetRouter binds the event router; must be called before ServeWS.
func (h *Hub) SetRouter(r *chat.Router) { h.router = r }

// Run forwards room frames published by other instances to local members
func (h *Hub) Run(ctx context.Context) {
	if h.bus == nil {
		<-ctx.Done()
		return
	}
	go h.bus.Subscribe(ctx, func(m BusMessage) {
		if m.Origin == h.id {
			return
		}
		h.deliver(m.RoomID, m.Frame, "")
	})
	<-ctx.Done()
}

// Send delivers a single frame to one connection.
func (h *Hub) Send(connID, event string, payload any) {
	frame, err := encode(event, payload)
	if err != nil {
		h.log.Error("ws.encode", "event", event, "err", err)
		return
	}

	h.mu.RLock()
	c := h.conns[connID]
	h.mu.RUnlock()
	if c != nil {
		c.trySend(frame)
	}
}

// Broadcast fans a frame out to a room's local members, skipping
// excludeConn, and relays it to other instances over the bus.
func (h *Hub) Broadcast(roomID, event string, payload any, excludeConn string) {
	frame, err := encode(event, payload)
	if err != nil {
		h.log.Error("ws.encode", "event", event, "err", err)
		return
	}

	h.deliver(roomID, frame, excludeConn)

	if h.bus != nil {
		// The excluded conn lives on this instance, remote members all qualify.
		err := h.bus.Publish(context.Background(), BusMessage{Origin: h.id, RoomID: roomID, Frame: frame})
		if err != nil {
			h.log.Error("ws.bus.publish", "room", roomID, "err", err)
		}
	}
}

func (h *Hub) deliver(roomID string, frame []byte, excludeConn string) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for id, c := range h.rooms[roomID] {
		if id == excludeConn {
			continue
		}
		c.trySend(frame)
	}
}

// EnterRoom adds a connection to a room's delivery group.
func (h *Hub) EnterRoom(connID, roomID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	c := h.conns[connID]
	if c == nil {
		return
	}
	if h.rooms[roomID] == nil {
		h.rooms[roomID] = map[string]*Conn{}
	}
	h.rooms[roomID][connID] = c
}

// LeaveRoom removes a connection from a room's delivery group.
func (h *Hub) LeaveRoom(connID, roomID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	delete(h.rooms[roomID], connID)
	if len(h.rooms[roomID]) == 0 {
		delete(h.rooms, roomID)
	}
}

func (h *Hub) register(c *Conn) {
	h.mu.Lock()
	h.conns[c.id] = c
	h.mu.Unlock()
	metrics.ConnectionsOpen.Inc()
}

func (h *Hub) unregister(c *Conn) {
	h.mu.Lock()
	delete(h.conns, c.id)
	h.mu.Unlock()
	metrics.ConnectionsOpen.Dec()
}

// ServeWS handles a new /ws connection for its whole lifetime
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	conn, err := Accept(w, r)
	if err != nil {
		h.log.Error("ws.accept", "err", err)
		return
	}

	c := NewConn(conn, uuid.NewString())
	h.register(c)
	h.log.Debug("ws.connected", "conn", c.id)

	// Outbound writer
	go c.WriteLoop(ctx)

	// Inbound reader: one JSON envelope per frame
	for {
		raw, ok := c.Read(ctx)
		if !ok {
			break
		}

		var env envelope
		if err := json.Unmarshal(raw, &env); err != nil || env.Event == "" {
			h.log.Debug("ws.frame.malformed", "conn", c.id)
			continue
		}
		h.router.Dispatch(c.id, env.Event, env.Data)
	}

	// Terminal event: fires exactly once, routes through the same
	// departure logic as an explicit leave.
	h.router.Disconnect(c.id)
	h.unregister(c)
	_ = c.Close()
	h.log.Debug("ws.disconnected", "conn", c.id)
}
