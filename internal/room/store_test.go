package room

import (
	"fmt"
	"testing"
)

func TestCreateRoom(t *testing.T) {
	s := NewStore()

	id := s.CreateRoom()
	if len(id) != 8 {
		t.Errorf("CreateRoom() id = %q, want 8 characters", id)
	}
	if !s.Exists(id) {
		t.Errorf("Exists(%q) = false after CreateRoom", id)
	}
	if got := s.MemberCount(id); got != 0 {
		t.Errorf("MemberCount(%q) = %d, want 0 before any join", id, got)
	}
	if _, ok := s.AdminOf(id); ok {
		t.Errorf("AdminOf(%q) set on empty room", id)
	}

	other := s.CreateRoom()
	if other == id {
		t.Errorf("CreateRoom() returned duplicate id %q", id)
	}
}

func TestExistsUnknownRoom(t *testing.T) {
	s := NewStore()
	if s.Exists("deadbeef") {
		t.Error("Exists() = true for unknown room")
	}
	if got := s.MemberCount("deadbeef"); got != 0 {
		t.Errorf("MemberCount() = %d for unknown room, want 0", got)
	}
}

func TestJoinAdminAssignment(t *testing.T) {
	tests := []struct {
		name      string
		asAdmin   bool
		wantAdmin bool
	}{
		{name: "first joiner without flag still becomes admin", asAdmin: false, wantAdmin: true},
		{name: "first joiner with flag becomes admin", asAdmin: true, wantAdmin: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewStore()
			id := s.CreateRoom()

			if err := s.Join(id, "c1", "alice", tt.asAdmin); err != nil {
				t.Fatalf("Join() unexpected error: %v", err)
			}
			if got := s.IsAdmin(id, "c1"); got != tt.wantAdmin {
				t.Errorf("IsAdmin() = %v, want %v", got, tt.wantAdmin)
			}
		})
	}
}

func TestJoinSecondMemberKeepsAdmin(t *testing.T) {
	s := NewStore()
	id := s.CreateRoom()

	if err := s.Join(id, "c1", "alice", true); err != nil {
		t.Fatalf("Join(alice) error: %v", err)
	}
	if err := s.Join(id, "c2", "bob", false); err != nil {
		t.Fatalf("Join(bob) error: %v", err)
	}

	if !s.IsAdmin(id, "c1") {
		t.Error("alice lost admin after bob joined")
	}
	if s.IsAdmin(id, "c2") {
		t.Error("bob is admin without requesting it")
	}
	if got := s.MemberCount(id); got != 2 {
		t.Errorf("MemberCount() = %d, want 2", got)
	}
}

func TestJoinRoomNotFound(t *testing.T) {
	s := NewStore()
	if err := s.Join("deadbeef", "c1", "alice", false); err != ErrNotFound {
		t.Errorf("Join() error = %v, want ErrNotFound", err)
	}
	if _, ok := s.LookupUser("c1"); ok {
		t.Error("failed Join still registered the user")
	}
}

func TestMemberCountTracksJoinsAndLeaves(t *testing.T) {
	s := NewStore()
	id := s.CreateRoom()

	for i := 0; i < 5; i++ {
		conn := fmt.Sprintf("c%d", i)
		if err := s.Join(id, conn, "user", false); err != nil {
			t.Fatalf("Join(%s) error: %v", conn, err)
		}
	}
	if got := s.MemberCount(id); got != 5 {
		t.Fatalf("MemberCount() = %d after 5 joins, want 5", got)
	}

	s.Leave(id, "c1")
	s.Leave(id, "c3")
	if got := s.MemberCount(id); got != 3 {
		t.Errorf("MemberCount() = %d after 2 leaves, want 3", got)
	}
}

func TestLeaveIdempotent(t *testing.T) {
	s := NewStore()
	id := s.CreateRoom()
	if err := s.Join(id, "c1", "alice", true); err != nil {
		t.Fatalf("Join() error: %v", err)
	}
	if err := s.Join(id, "c2", "bob", false); err != nil {
		t.Fatalf("Join() error: %v", err)
	}

	s.Leave(id, "c2")
	s.Leave(id, "c2") // second leave is a no-op
	s.Leave("deadbeef", "c1")

	if got := s.MemberCount(id); got != 1 {
		t.Errorf("MemberCount() = %d, want 1", got)
	}
	if !s.IsAdmin(id, "c1") {
		t.Error("alice lost admin to a repeated leave")
	}
}

func TestLeavePromotesRemainingMember(t *testing.T) {
	s := NewStore()
	id := s.CreateRoom()
	members := []string{"c1", "c2", "c3"}
	for i, conn := range members {
		if err := s.Join(id, conn, fmt.Sprintf("user%d", i), i == 0); err != nil {
			t.Fatalf("Join(%s) error: %v", conn, err)
		}
	}

	s.Leave(id, "c1")

	admin, ok := s.AdminOf(id)
	if !ok {
		t.Fatal("AdminOf() unset after admin departure with members remaining")
	}
	// Selection order is unspecified; only require a current member.
	if admin != "c2" && admin != "c3" {
		t.Errorf("AdminOf() = %q, promoted a non-member", admin)
	}
	if u, ok := s.LookupUser(admin); !ok || u.RoomID != id {
		t.Errorf("promoted admin %q is not a tracked member of %q", admin, id)
	}
}

func TestLeaveNonAdminKeepsAdmin(t *testing.T) {
	s := NewStore()
	id := s.CreateRoom()
	if err := s.Join(id, "c1", "alice", true); err != nil {
		t.Fatalf("Join() error: %v", err)
	}
	if err := s.Join(id, "c2", "bob", false); err != nil {
		t.Fatalf("Join() error: %v", err)
	}

	s.Leave(id, "c2")

	if admin, _ := s.AdminOf(id); admin != "c1" {
		t.Errorf("AdminOf() = %q after non-admin left, want c1", admin)
	}
}

func TestLastLeaveDeletesRoom(t *testing.T) {
	s := NewStore()
	id := s.CreateRoom()
	if err := s.Join(id, "c1", "alice", true); err != nil {
		t.Fatalf("Join() error: %v", err)
	}

	s.Leave(id, "c1")

	if s.Exists(id) {
		t.Error("room still exists after last member left")
	}
	if got := s.MemberCount(id); got != 0 {
		t.Errorf("MemberCount() = %d for deleted room, want 0", got)
	}
	if _, ok := s.LookupUser("c1"); ok {
		t.Error("departed member still resolvable via LookupUser")
	}
}

func TestLookupUser(t *testing.T) {
	s := NewStore()
	id := s.CreateRoom()
	if err := s.Join(id, "c1", "alice", true); err != nil {
		t.Fatalf("Join() error: %v", err)
	}

	u, ok := s.LookupUser("c1")
	if !ok {
		t.Fatal("LookupUser() = false for joined connection")
	}
	if u.ConnID != "c1" || u.Username != "alice" || u.RoomID != id {
		t.Errorf("LookupUser() = %+v, want {c1 alice %s}", u, id)
	}

	if _, ok := s.LookupUser("c9"); ok {
		t.Error("LookupUser() = true for unknown connection")
	}
}

// Joining a second room without leaving the first leaves a stale
// membership behind; the reverse index tracks the latest room only.
func TestJoinWithoutLeaveKeepsOldMembership(t *testing.T) {
	s := NewStore()
	a := s.CreateRoom()
	b := s.CreateRoom()

	if err := s.Join(a, "c1", "alice", true); err != nil {
		t.Fatalf("Join(a) error: %v", err)
	}
	if err := s.Join(b, "c1", "alice", false); err != nil {
		t.Fatalf("Join(b) error: %v", err)
	}

	if got := s.MemberCount(a); got != 1 {
		t.Errorf("MemberCount(a) = %d, want 1 (stale membership kept)", got)
	}
	u, ok := s.LookupUser("c1")
	if !ok || u.RoomID != b {
		t.Errorf("LookupUser() room = %q, want latest room %q", u.RoomID, b)
	}
}
