package chat

import (
	"encoding/json"
	"sync"
	"time"

	"log/slog"

	"github.com/ghomren619/talk-caves/internal/room"
	"github.com/ghomren619/talk-caves/pkg/metrics"
)

// Sender is the transport's delivery surface. Delivery is fire-and-forget:
// a failed send on one connection never rolls back a store mutation.
// EnterRoom/LeaveRoom keep the transport's own fanout grouping in sync
// with store membership.
type Sender interface {
	Send(connID, event string, payload any)
	Broadcast(roomID, event string, payload any, excludeConn string)
	EnterRoom(connID, roomID string)
	LeaveRoom(connID, roomID string)
}

// Router turns inbound socket events into store mutations plus the set of
// notifications the transport must deliver. A single mutex serializes
// whole events, so an existence check and the mutation that follows it
// are one critical section.
type Router struct {
	mu    sync.Mutex
	store *room.Store
	out   Sender
	log   *slog.Logger
	now   func() time.Time
}

// NewRouter wires the router to its store and transport.
func NewRouter(store *room.Store, out Sender, log *slog.Logger) *Router {
	return &Router{store: store, out: out, log: log, now: time.Now}
}

// metricLabel collapses unrecognized event names into a single label so
// clients sending arbitrary names cannot grow the counter vec unbounded.
func metricLabel(event string) string {
	switch event {
	case EventCreateRoom, EventJoinRoom, EventLeaveRoom, EventMessage, EventTyping:
		return event
	}
	return "unknown"
}

// Dispatch decodes and routes one inbound event from connID. Unknown
// events are ignored.
func (r *Router) Dispatch(connID, event string, data json.RawMessage) {
	metrics.EventsTotal.WithLabelValues(metricLabel(event)).Inc()

	switch event {
	case EventCreateRoom:
		var p CreateRoomPayload
		if err := unmarshal(data, &p); err != nil {
			r.reject(connID, ErrUsernameRequired)
			return
		}
		r.CreateRoom(connID, p)
	case EventJoinRoom:
		var p JoinRoomPayload
		if err := unmarshal(data, &p); err != nil {
			r.reject(connID, ErrInvalidJoin)
			return
		}
		r.JoinRoom(connID, p)
	case EventLeaveRoom:
		r.LeaveRoom(connID)
	case EventMessage:
		var p MessagePayload
		if err := unmarshal(data, &p); err != nil {
			r.reject(connID, ErrInvalidMessage)
			return
		}
		r.Message(connID, p)
	case EventTyping:
		var p TypingPayload
		if err := unmarshal(data, &p); err != nil {
			return // best-effort signal, dropped silently
		}
		r.Typing(connID, p)
	default:
		r.log.Debug("chat.event.unknown", "event", event, "conn", connID)
	}
}

// unmarshal tolerates an absent body; required-field checks live in the
// payload Validate methods.
func unmarshal(data json.RawMessage, v any) error {
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, v)
}

// CreateRoom makes a fresh room with the sender as its admin.
func (r *Router) CreateRoom(connID string, p CreateRoomPayload) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := p.Validate(); err != nil {
		r.reject(connID, err)
		return
	}

	roomID := r.store.CreateRoom()
	// Fresh room under the event lock, Join cannot miss it.
	_ = r.store.Join(roomID, connID, p.Username, true)
	metrics.RoomsOpen.Inc()

	r.out.EnterRoom(connID, roomID)
	r.out.Send(connID, EventRoomCreated, RoomCreated{RoomID: roomID, Admin: true})
	r.out.Broadcast(roomID, EventUserJoined, Membership{Username: p.Username, RoomID: roomID, UsersCount: 1}, "")
	r.log.Info("room.created", "room", roomID, "conn", connID)
}

// JoinRoom adds the sender to an existing room.
func (r *Router) JoinRoom(connID string, p JoinRoomPayload) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := p.Validate(); err != nil {
		r.reject(connID, err)
		return
	}
	if !r.store.Exists(p.RoomID) {
		r.reject(connID, ErrRoomNotFound)
		return
	}
	_ = r.store.Join(p.RoomID, connID, p.Username, false)
	r.out.EnterRoom(connID, p.RoomID)

	count := r.store.MemberCount(p.RoomID)
	r.out.Send(connID, EventJoinedRoom, JoinedRoom{
		RoomID:     p.RoomID,
		Admin:      r.store.IsAdmin(p.RoomID, connID),
		UsersCount: count,
	})
	r.out.Broadcast(p.RoomID, EventUserJoined, Membership{
		Username:   p.Username,
		RoomID:     p.RoomID,
		UsersCount: count,
	}, connID)
	r.log.Info("room.joined", "room", p.RoomID, "conn", connID)
}

// LeaveRoom handles an explicit leave request.
func (r *Router) LeaveRoom(connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.depart(connID)
}

// Disconnect is the terminal event for a connection. The transport fires
// it exactly once; it routes through the same departure logic as an
// explicit leave.
func (r *Router) Disconnect(connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.depart(connID)
}

// depart removes the sender from its room, reassigning admin and closing
// the room as needed. No-op when the sender has no membership, which
// makes leave and disconnect idempotent. Callers hold r.mu.
func (r *Router) depart(connID string) {
	u, ok := r.store.LookupUser(connID)
	if !ok {
		return
	}

	wasAdmin := r.store.IsAdmin(u.RoomID, connID)
	r.store.Leave(u.RoomID, connID)
	r.out.LeaveRoom(connID, u.RoomID)

	if r.store.Exists(u.RoomID) {
		r.out.Broadcast(u.RoomID, EventUserLeft, Membership{
			Username:   u.Username,
			RoomID:     u.RoomID,
			UsersCount: r.store.MemberCount(u.RoomID),
		}, connID)

		if wasAdmin {
			if _, ok := r.store.AdminOf(u.RoomID); ok {
				r.out.Broadcast(u.RoomID, EventAdminChanged, RoomRef{RoomID: u.RoomID}, "")
			}
		}
		return
	}

	// The room emptied and is already gone; the broadcast reaches no one
	// but the event name stays part of the frontend contract.
	r.out.Broadcast(u.RoomID, EventRoomClosed, RoomRef{RoomID: u.RoomID}, "")
	metrics.RoomsOpen.Dec()
	r.log.Info("room.closed", "room", u.RoomID)
}

// Message fans a chat line out to the whole room, sender included, with
// a server-side UTC timestamp.
func (r *Router) Message(connID string, p MessagePayload) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := p.Validate(); err != nil {
		r.reject(connID, err)
		return
	}
	if !r.store.Exists(p.RoomID) {
		r.reject(connID, ErrRoomNotFound)
		return
	}
	u, ok := r.store.LookupUser(connID)
	if !ok {
		r.reject(connID, ErrNotInRoom)
		return
	}

	r.out.Broadcast(p.RoomID, EventMessage, Message{
		RoomID:    p.RoomID,
		Content:   p.Content,
		Username:  u.Username,
		Timestamp: r.now().UTC().Format(time.RFC3339Nano),
	}, "")
}

// Typing relays a typing indicator to everyone else in the room. All
// failures are dropped silently; this is a high-frequency best-effort
// signal and error spam would drown real rejections.
func (r *Router) Typing(connID string, p TypingPayload) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if p.Validate() != nil {
		return
	}
	if !r.store.Exists(p.RoomID) {
		return
	}
	u, ok := r.store.LookupUser(connID)
	if !ok {
		return
	}

	r.out.Broadcast(p.RoomID, EventTyping, Typing{
		RoomID:   p.RoomID,
		Username: u.Username,
		IsTyping: *p.IsTyping,
	}, connID)
}

// reject reports a recoverable error to the offending connection only.
func (r *Router) reject(connID string, err error) {
	r.out.Send(connID, EventError, Error{Message: err.Error()})
	r.log.Debug("chat.event.rejected", "conn", connID, "reason", err.Error())
}
