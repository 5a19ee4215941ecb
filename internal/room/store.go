package room

import (
	"encoding/hex"
	"errors"
	"sync"

	"github.com/google/uuid"
)

// ErrNotFound is returned by Join when the target room does not exist.
var ErrNotFound = errors.New("room not found")

// User is one connection's membership record.
type User struct {
	ConnID   string
	Username string
	RoomID   string
}

type roomState struct {
	id      string
	members map[string]User // connID -> User
	admin   string          // connID, "" when unset
}

// Store owns all room and membership state. It does no I/O; the chat
// router mutates it and the REST handlers read it, so every method takes
// the same coarse lock and every accessor returns a copy.
type Store struct {
	mu     sync.Mutex
	rooms  map[string]*roomState
	byConn map[string]User // reverse index, connID -> current membership
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		rooms:  map[string]*roomState{},
		byConn: map[string]User{},
	}
}

// newRoomID generates a short lowercase hex room code.
func newRoomID() string {
	u := uuid.New()
	return hex.EncodeToString(u[:])[:8]
}

// CreateRoom allocates a new empty room and returns its id.
func (s *Store) CreateRoom() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := newRoomID()
	s.rooms[id] = &roomState{id: id, members: map[string]User{}}
	return id
}

// Exists reports whether the room is live.
func (s *Store) Exists(roomID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.rooms[roomID]
	return ok
}

// MemberCount returns the number of members, 0 if the room does not exist.
func (s *Store) MemberCount(roomID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	rm := s.rooms[roomID]
	if rm == nil {
		return 0
	}
	return len(rm.members)
}

// AdminOf returns the admin's connID, false if the room is missing or has none.
func (s *Store) AdminOf(roomID string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rm := s.rooms[roomID]
	if rm == nil || rm.admin == "" {
		return "", false
	}
	return rm.admin, true
}

// IsAdmin reports whether connID is the room's current admin.
func (s *Store) IsAdmin(roomID, connID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	rm := s.rooms[roomID]
	return rm != nil && rm.admin == connID
}

// Join records connID as a member of the room. The joiner becomes admin
// when asAdmin is set or the room currently has no admin, so the first
// joiner of any room is always admin. Joining does not evict the
// connection from a previously joined room; callers must Leave first.
func (s *Store) Join(roomID, connID, username string, asAdmin bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rm := s.rooms[roomID]
	if rm == nil {
		return ErrNotFound
	}

	u := User{ConnID: connID, Username: username, RoomID: roomID}
	rm.members[connID] = u
	s.byConn[connID] = u

	if asAdmin || rm.admin == "" {
		rm.admin = connID
	}
	return nil
}

// Leave removes the member from the room. It is idempotent: a missing
// room or member is a no-op. If the departing member was admin, any
// remaining member is promoted (selection unspecified). The room is
// deleted in the same step the moment it has no members, so an empty
// room is never observable.
func (s *Store) Leave(roomID, connID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rm := s.rooms[roomID]
	if rm == nil {
		return
	}
	delete(rm.members, connID)
	delete(s.byConn, connID)

	if rm.admin == connID {
		rm.admin = ""
		for id := range rm.members {
			rm.admin = id
			break
		}
	}

	if len(rm.members) == 0 {
		delete(s.rooms, roomID)
	}
}

// LookupUser resolves a connection to its current membership.
func (s *Store) LookupUser(connID string) (User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.byConn[connID]
	return u, ok
}
