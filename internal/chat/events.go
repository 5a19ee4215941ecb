package chat

import "errors"

// Inbound event names. The transport dispatches by these; disconnect is
// synthesized by the transport when a connection closes.
const (
	EventCreateRoom = "create_room"
	EventJoinRoom   = "join_room"
	EventLeaveRoom  = "leave_room"
	EventMessage    = "message"
	EventTyping     = "typing"
)

// Outbound event names.
const (
	EventRoomCreated  = "room_created"
	EventJoinedRoom   = "joined_room"
	EventUserJoined   = "user_joined"
	EventUserLeft     = "user_left"
	EventAdminChanged = "admin_changed"
	EventRoomClosed   = "room_closed"
	EventError        = "error"
)

// Rejection messages sent back to the offending connection. Never
// broadcast, never fatal.
var (
	ErrUsernameRequired = errors.New("username is required")
	ErrInvalidJoin      = errors.New("invalid join payload")
	ErrInvalidMessage   = errors.New("invalid message payload")
	ErrInvalidTyping    = errors.New("invalid typing payload")
	ErrRoomNotFound     = errors.New("room not found")
	ErrNotInRoom        = errors.New("user not in a room")
)

// CreateRoomPayload asks for a fresh room with the sender as admin.
type CreateRoomPayload struct {
	Username string `json:"username"`
}

func (p CreateRoomPayload) Validate() error {
	if p.Username == "" {
		return ErrUsernameRequired
	}
	return nil
}

// JoinRoomPayload asks to join an existing room.
type JoinRoomPayload struct {
	RoomID   string `json:"room_id"`
	Username string `json:"username"`
}

func (p JoinRoomPayload) Validate() error {
	if p.RoomID == "" || p.Username == "" {
		return ErrInvalidJoin
	}
	return nil
}

// MessagePayload carries a chat line for the sender's room.
type MessagePayload struct {
	RoomID  string `json:"room_id"`
	Content string `json:"content"`
}

func (p MessagePayload) Validate() error {
	if p.RoomID == "" || p.Content == "" {
		return ErrInvalidMessage
	}
	return nil
}

// TypingPayload is a best-effort typing indicator. IsTyping is a pointer
// so a missing field is distinguishable from false.
type TypingPayload struct {
	RoomID   string `json:"room_id"`
	IsTyping *bool  `json:"is_typing"`
}

func (p TypingPayload) Validate() error {
	if p.RoomID == "" || p.IsTyping == nil {
		return ErrInvalidTyping
	}
	return nil
}

// Outbound notification payloads. Field names are part of the wire
// contract with the frontend.

type RoomCreated struct {
	RoomID string `json:"room_id"`
	Admin  bool   `json:"admin"`
}

type JoinedRoom struct {
	RoomID     string `json:"room_id"`
	Admin      bool   `json:"admin"`
	UsersCount int    `json:"users_count"`
}

// Membership is the user_joined / user_left roster update.
type Membership struct {
	Username   string `json:"username"`
	RoomID     string `json:"room_id"`
	UsersCount int    `json:"users_count"`
}

// RoomRef is the admin_changed / room_closed payload.
type RoomRef struct {
	RoomID string `json:"room_id"`
}

type Message struct {
	RoomID    string `json:"room_id"`
	Content   string `json:"content"`
	Username  string `json:"username"`
	Timestamp string `json:"timestamp"`
}

type Typing struct {
	RoomID   string `json:"room_id"`
	Username string `json:"username"`
	IsTyping bool   `json:"is_typing"`
}

type Error struct {
	Message string `json:"message"`
}
