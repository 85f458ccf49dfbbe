package registry

import (
	"testing"
	"time"
)

func newTestStore() *Store {
	return NewStore([]string{"admin"})
}

func TestLoginAssignsRoleFromAdminTable(t *testing.T) {
	s := NewStore([]string{"admin", "root"})

	role, created := s.Login("root")
	if !created {
		t.Fatal("expected first login to create the user")
	}
	if role != RoleAdmin {
		t.Fatalf("expected admin role, got %q", role)
	}

	role, created = s.Login("bob")
	if !created {
		t.Fatal("expected first login to create the user")
	}
	if role != RoleUser {
		t.Fatalf("expected user role, got %q", role)
	}
}

func TestLoginIsIdempotent(t *testing.T) {
	s := newTestStore()

	s.Login("bob")
	first, _ := s.Get("bob")

	// lastActivity must move forward without creating a duplicate record.
	s.now = func() time.Time { return first.LastActivity.Add(time.Minute) }

	role, created := s.Login("bob")
	if created {
		t.Fatal("second login must not create a duplicate user")
	}
	if role != RoleUser {
		t.Fatalf("unexpected role %q", role)
	}

	second, ok := s.Get("bob")
	if !ok {
		t.Fatal("user vanished after re-login")
	}
	if !second.LastActivity.After(first.LastActivity) {
		t.Fatal("expected re-login to refresh lastActivity")
	}
}

func TestCreateRoomDuplicateAndRecreate(t *testing.T) {
	s := newTestStore()

	if err := s.CreateRoom("lab"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := s.CreateRoom("lab"); err == nil {
		t.Fatal("expected duplicate room creation to fail")
	} else if err.Message != "room exists" {
		t.Fatalf("unexpected message %q", err.Message)
	}

	if err := s.DeleteRoom("lab"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := s.CreateRoom("lab"); err != nil {
		t.Fatalf("re-creating a deleted room must succeed, got %v", err)
	}
}

func TestDeleteMissingRoom(t *testing.T) {
	s := newTestStore()

	err := s.DeleteRoom("nowhere")
	if err == nil {
		t.Fatal("expected error")
	}
	if err.Message != "room does not exist" {
		t.Fatalf("unexpected message %q", err.Message)
	}
}

func TestJoinRoomIsIdempotent(t *testing.T) {
	s := newTestStore()
	s.Login("bob")
	s.CreateRoom("lab")

	if err := s.JoinRoom("lab", "bob"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := s.JoinRoom("lab", "bob"); err != nil {
		t.Fatalf("re-join must be a no-op, got %v", err)
	}

	members, err := s.RoomMembers("lab")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(members) != 1 || members[0] != "bob" {
		t.Fatalf("unexpected members %v", members)
	}
}

func TestJoinMissingRoom(t *testing.T) {
	s := newTestStore()
	s.Login("bob")

	err := s.JoinRoom("nowhere", "bob")
	if err == nil || err.Message != "room does not exist" {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestDeleteUserCascadesMembership(t *testing.T) {
	s := newTestStore()
	s.Login("bob")
	s.CreateRoom("lab")
	s.CreateRoom("studio")
	s.JoinRoom("lab", "bob")
	s.JoinRoom("studio", "bob")

	if err := s.DeleteUser("bob"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, room := range []string{"lab", "studio"} {
		members, err := s.RoomMembers(room)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(members) != 0 {
			t.Fatalf("expected no dangling membership in %s, got %v", room, members)
		}
	}

	if _, ok := s.Get("bob"); ok {
		t.Fatal("user still registered after deletion")
	}
}

func TestLogoutRemovesUser(t *testing.T) {
	s := newTestStore()
	s.Login("bob")

	if err := s.Logout("bob"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := s.Logout("bob"); err == nil || err.Message != "user not found" {
		t.Fatalf("expected user not found, got %v", err)
	}
}

func TestTouchUpdatesStatusAndActivity(t *testing.T) {
	s := newTestStore()
	s.Login("bob")

	if err := s.Touch("bob", StatusTyping); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	u, _ := s.Get("bob")
	if u.Status != StatusTyping {
		t.Fatalf("unexpected status %q", u.Status)
	}

	if err := s.Touch("ghost", StatusActive); err == nil {
		t.Fatal("expected error for unknown user")
	}
}

func TestSweepInactiveDemotesIdleUsers(t *testing.T) {
	s := newTestStore()

	base := time.Now()
	s.now = func() time.Time { return base }

	s.Login("bob")
	s.Login("eve")

	// Only bob exceeds the threshold.
	s.now = func() time.Time { return base.Add(30 * time.Second) }
	s.Touch("eve", StatusActive)

	s.now = func() time.Time { return base.Add(time.Minute) }

	demoted := s.SweepInactive(time.Minute)
	if len(demoted) != 1 || demoted[0] != "bob" {
		t.Fatalf("unexpected demotions %v", demoted)
	}

	bob, _ := s.Get("bob")
	if bob.Status != StatusInactive {
		t.Fatalf("expected bob Inactive, got %q", bob.Status)
	}

	eve, _ := s.Get("eve")
	if eve.Status != StatusActive {
		t.Fatalf("expected eve Active, got %q", eve.Status)
	}

	// A second sweep leaves already inactive users alone.
	if demoted := s.SweepInactive(time.Minute); len(demoted) != 0 {
		t.Fatalf("expected no further demotions, got %v", demoted)
	}

	// Activity promotes bob again.
	s.Touch("bob", StatusActive)
	bob, _ = s.Get("bob")
	if bob.Status != StatusActive {
		t.Fatalf("expected bob Active after touch, got %q", bob.Status)
	}
}

func TestRoomsInfoSnapshot(t *testing.T) {
	s := newTestStore()
	s.Login("bob")
	s.Login("alice")
	s.CreateRoom("lab")
	s.CreateRoom("atelier")
	s.JoinRoom("lab", "bob")
	s.JoinRoom("lab", "alice")

	infos := s.RoomsInfo()
	if len(infos) != 2 {
		t.Fatalf("expected 2 rooms, got %d", len(infos))
	}

	// Sorted by room name, members sorted by username.
	if infos[0].Name != "atelier" || len(infos[0].Members) != 0 {
		t.Fatalf("unexpected first room %+v", infos[0])
	}
	if infos[1].Name != "lab" || len(infos[1].Members) != 2 ||
		infos[1].Members[0] != "alice" || infos[1].Members[1] != "bob" {
		t.Fatalf("unexpected second room %+v", infos[1])
	}
}

func TestConnectedInfoFiltersActive(t *testing.T) {
	s := newTestStore()
	s.Login("bob")
	s.Login("alice")
	s.Login("carol")
	s.CreateRoom("lab")
	s.JoinRoom("lab", "bob")
	s.JoinRoom("lab", "alice")
	s.JoinRoom("lab", "carol")

	s.Touch("alice", StatusTyping)
	s.Touch("carol", StatusInactive)

	presences := s.ConnectedInfo()
	if len(presences) != 1 {
		t.Fatalf("expected 1 room, got %d", len(presences))
	}

	members := presences[0].Members
	if len(members) != 1 || members[0].Username != "bob" || members[0].Status != StatusActive {
		t.Fatalf("unexpected members %+v", members)
	}
}
