package chat

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"holochat/internal/app/registry"
	"holochat/internal/app/transfer"
)

// stubConn satisfies FrameConn for dispatch tests that drive the session
// directly, without running the pumps.
type stubConn struct{}

func (stubConn) ReadFrame() (string, error) { return "", io.EOF }
func (stubConn) WriteFrame(string) error    { return nil }
func (stubConn) Ping() error                { return nil }
func (stubConn) Close() error               { return nil }
func (stubConn) RemoteAddr() string         { return "test:0" }

type fixture struct {
	store *registry.Store
	hub   *Hub
	reasm *transfer.Reassembler
}

func newFixture() *fixture {
	return &fixture{
		store: registry.NewStore([]string{"admin"}),
		hub:   NewHub(),
		reasm: transfer.NewReassembler(time.Minute),
	}
}

func (f *fixture) session() *Session {
	return NewSession(stubConn{}, f.hub, f.store, f.reasm, nil)
}

// login drives a LOGIN and consumes its response.
func (f *fixture) login(t *testing.T, s *Session, username string) {
	t.Helper()
	s.dispatch("LOGIN " + username + " secret")
	reply := nextReply(t, s)
	if !strings.HasPrefix(reply, prefixLoginSuccess) {
		t.Fatalf("login failed: %q", reply)
	}
}

func nextReply(t *testing.T, s *Session) string {
	t.Helper()
	select {
	case line, ok := <-s.send:
		if !ok {
			t.Fatal("send queue closed")
		}
		return line
	case <-time.After(time.Second):
		t.Fatal("no reply within 1s")
		return ""
	}
}

func expectNoReply(t *testing.T, s *Session) {
	t.Helper()
	select {
	case line := <-s.send:
		t.Fatalf("unexpected reply %q", line)
	default:
	}
}

func TestUnknownCommand(t *testing.T) {
	f := newFixture()
	s := f.session()

	s.dispatch("FROBNICATE now")
	if got := nextReply(t, s); got != "command not recognized" {
		t.Fatalf("unexpected reply %q", got)
	}
}

func TestLoginMissingCredentials(t *testing.T) {
	f := newFixture()
	s := f.session()

	s.dispatch("LOGIN bob")
	if got := nextReply(t, s); got != "LOGIN_ERROR missing credentials" {
		t.Fatalf("unexpected reply %q", got)
	}
	if _, ok := f.store.Get("bob"); ok {
		t.Fatal("failed login must not register the user")
	}
}

func TestCommandsAreCaseInsensitive(t *testing.T) {
	f := newFixture()
	s := f.session()

	s.dispatch("login bob hunter2")
	if got := nextReply(t, s); got != "LOGIN_SUCCESS user" {
		t.Fatalf("unexpected reply %q", got)
	}
}

func TestBoundSessionRequired(t *testing.T) {
	f := newFixture()
	s := f.session()

	for _, line := range []string{"JOIN_ROOM lab", "LOGOUT", "TYPING", "MESSAGE hi", "CREATE_ROOM lab"} {
		s.dispatch(line)
		if got := nextReply(t, s); got != "not logged in" {
			t.Fatalf("%s: unexpected reply %q", line, got)
		}
	}
}

func TestAdminScenario(t *testing.T) {
	f := newFixture()
	admin := f.session()
	bob := f.session()

	admin.dispatch("LOGIN admin x")
	if got := nextReply(t, admin); got != "LOGIN_SUCCESS admin" {
		t.Fatalf("unexpected reply %q", got)
	}

	admin.dispatch("CREATE_ROOM lab")
	if got := nextReply(t, admin); got != "room created" {
		t.Fatalf("unexpected reply %q", got)
	}

	bob.dispatch("LOGIN bob y")
	if got := nextReply(t, bob); got != "LOGIN_SUCCESS user" {
		t.Fatalf("unexpected reply %q", got)
	}

	bob.dispatch("JOIN_ROOM lab")
	if got := nextReply(t, bob); got != "joined room lab" {
		t.Fatalf("unexpected reply %q", got)
	}

	admin.dispatch("VIEW_ROOMS")
	if got := nextReply(t, admin); got != "ROOMS_INFO:\nlab: bob" {
		t.Fatalf("unexpected reply %q", got)
	}
}

func TestNonAdminCannotMutate(t *testing.T) {
	f := newFixture()
	s := f.session()
	f.login(t, s, "bob")

	for _, line := range []string{"CREATE_ROOM lab", "DELETE_ROOM lab", "DELETE_USER admin"} {
		s.dispatch(line)
		if got := nextReply(t, s); got != "no permission" {
			t.Fatalf("%s: unexpected reply %q", line, got)
		}
	}

	if infos := f.store.RoomsInfo(); len(infos) != 0 {
		t.Fatalf("denied command mutated state: %v", infos)
	}
}

func TestJoinMissingRoom(t *testing.T) {
	f := newFixture()
	s := f.session()
	f.login(t, s, "bob")

	s.dispatch("JOIN_ROOM nowhere")
	if got := nextReply(t, s); got != "room does not exist" {
		t.Fatalf("unexpected reply %q", got)
	}
}

func TestLogoutUnbindsAndRemovesUser(t *testing.T) {
	f := newFixture()
	s := f.session()
	f.login(t, s, "bob")

	s.dispatch("LOGOUT")
	if got := nextReply(t, s); got != "logged out" {
		t.Fatalf("unexpected reply %q", got)
	}

	if _, ok := f.store.Get("bob"); ok {
		t.Fatal("user still registered after logout")
	}
	if _, ok := f.hub.Lookup("bob"); ok {
		t.Fatal("session still bound after logout")
	}

	s.dispatch("LOGOUT")
	if got := nextReply(t, s); got != "not logged in" {
		t.Fatalf("unexpected reply %q", got)
	}
}

func TestTypingAndMessageUpdatePresence(t *testing.T) {
	f := newFixture()
	s := f.session()
	f.login(t, s, "bob")

	s.dispatch("TYPING")
	expectNoReply(t, s)
	if u, _ := f.store.Get("bob"); u.Status != registry.StatusTyping {
		t.Fatalf("unexpected status %q", u.Status)
	}

	s.dispatch("MESSAGE hello everyone in the lab")
	expectNoReply(t, s)
	if u, _ := f.store.Get("bob"); u.Status != registry.StatusActive {
		t.Fatalf("unexpected status %q", u.Status)
	}
}

func TestViewConnectedFiltersActive(t *testing.T) {
	f := newFixture()
	admin := f.session()
	f.login(t, admin, "admin")

	admin.dispatch("CREATE_ROOM lab")
	nextReply(t, admin)

	bob := f.session()
	f.login(t, bob, "bob")
	bob.dispatch("JOIN_ROOM lab")
	nextReply(t, bob)

	eve := f.session()
	f.login(t, eve, "eve")
	eve.dispatch("JOIN_ROOM lab")
	nextReply(t, eve)
	eve.dispatch("TYPING")

	admin.dispatch("VIEW_CONNECTED")
	if got := nextReply(t, admin); got != "CONNECTED_USERS:\nlab - Active Users: bob (Active)" {
		t.Fatalf("unexpected reply %q", got)
	}
}

func TestDeleteUserCascadesAndKicks(t *testing.T) {
	f := newFixture()
	admin := f.session()
	f.login(t, admin, "admin")
	admin.dispatch("CREATE_ROOM lab")
	nextReply(t, admin)

	bob := f.session()
	f.login(t, bob, "bob")
	bob.dispatch("JOIN_ROOM lab")
	nextReply(t, bob)

	admin.dispatch("DELETE_USER bob")
	if got := nextReply(t, admin); got != "user deleted" {
		t.Fatalf("unexpected reply %q", got)
	}

	if got := nextReply(t, bob); !strings.HasPrefix(got, prefixError) {
		t.Fatalf("expected kick line, got %q", got)
	}
	if _, ok := f.hub.Lookup("bob"); ok {
		t.Fatal("deleted user still bound in hub")
	}

	members, err := f.store.RoomMembers("lab")
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	if len(members) != 0 {
		t.Fatalf("dangling membership %v", members)
	}

	admin.dispatch("DELETE_USER bob")
	if got := nextReply(t, admin); got != "user does not exist" {
		t.Fatalf("unexpected reply %q", got)
	}
}

func TestSecondLoginDisplacesOldSession(t *testing.T) {
	f := newFixture()
	first := f.session()
	f.login(t, first, "bob")

	second := f.session()
	f.login(t, second, "bob")

	if got := nextReply(t, first); !strings.HasPrefix(got, prefixError) {
		t.Fatalf("expected kick line on old session, got %q", got)
	}

	current, ok := f.hub.Lookup("bob")
	if !ok || current != second {
		t.Fatal("hub does not point at the new session")
	}
}

// envelopeLine builds the command argument JSON for one fragment.
func envelopeLine(t *testing.T, fileName, tag string, chunk string, current, total int) string {
	t.Helper()

	raw, err := json.Marshal(Envelope{
		FileName:      fileName,
		Tag:           tag,
		ContentBase64: chunk,
		TotalChunks:   total,
		CurrentChunk:  current,
	})
	if err != nil {
		t.Fatal(err)
	}
	return string(raw)
}

func TestSendFileUserOutOfOrder(t *testing.T) {
	f := newFixture()
	alice := f.session()
	f.login(t, alice, "alice")
	bob := f.session()
	f.login(t, bob, "bob")

	payload := []byte("the quick brown fox")
	encoded := base64.StdEncoding.EncodeToString(payload)
	half := len(encoded) / 2

	alice.dispatch("SEND_FILE_USER bob " + envelopeLine(t, "notes.txt", "", encoded[half:], 2, 2))
	if got := nextReply(t, alice); got != "CHUNK_OK notes.txt 2/2" {
		t.Fatalf("unexpected ack %q", got)
	}

	alice.dispatch("SEND_FILE_USER bob " + envelopeLine(t, "notes.txt", "", encoded[:half], 1, 2))
	if got := nextReply(t, alice); got != "TRANSFER_COMPLETE notes.txt" {
		t.Fatalf("unexpected completion %q", got)
	}

	want := fmt.Sprintf("FILE_RECEIVED alice notes.txt %d", len(payload))
	if got := nextReply(t, bob); got != want {
		t.Fatalf("unexpected notice %q, want %q", got, want)
	}
}

func TestSendObjectDeliversObjectNotice(t *testing.T) {
	f := newFixture()
	alice := f.session()
	f.login(t, alice, "alice")
	bob := f.session()
	f.login(t, bob, "bob")

	payload := []byte{0x01, 0x02, 0x03, 0x04}
	encoded := base64.StdEncoding.EncodeToString(payload)

	alice.dispatch("SEND_OBJECT bob " + envelopeLine(t, "", "chair-mesh", encoded, 1, 1))
	if got := nextReply(t, alice); got != "TRANSFER_COMPLETE chair-mesh" {
		t.Fatalf("unexpected completion %q", got)
	}

	want := fmt.Sprintf("OBJECT_RECEIVED alice chair-mesh %d", len(payload))
	if got := nextReply(t, bob); got != want {
		t.Fatalf("unexpected notice %q", got)
	}
}

func TestSendFileRoomDeliversToMembers(t *testing.T) {
	f := newFixture()
	admin := f.session()
	f.login(t, admin, "admin")
	admin.dispatch("CREATE_ROOM lab")
	nextReply(t, admin)

	join := func(name string) *Session {
		s := f.session()
		f.login(t, s, name)
		s.dispatch("JOIN_ROOM lab")
		nextReply(t, s)
		return s
	}

	alice := join("alice")
	bob := join("bob")
	carol := join("carol")

	payload := []byte("room-wide document")
	encoded := base64.StdEncoding.EncodeToString(payload)

	alice.dispatch("SEND_FILE_ROOM lab " + envelopeLine(t, "doc.pdf", "", encoded, 1, 1))
	if got := nextReply(t, alice); got != "TRANSFER_COMPLETE doc.pdf" {
		t.Fatalf("unexpected completion %q", got)
	}

	want := fmt.Sprintf("FILE_RECEIVED alice doc.pdf %d", len(payload))
	for _, member := range []*Session{bob, carol} {
		if got := nextReply(t, member); got != want {
			t.Fatalf("unexpected notice %q", got)
		}
	}
	expectNoReply(t, alice)
}

func TestSendFileUserUnknownTarget(t *testing.T) {
	f := newFixture()
	alice := f.session()
	f.login(t, alice, "alice")

	alice.dispatch("SEND_FILE_USER ghost " + envelopeLine(t, "notes.txt", "", "AAAA", 1, 1))
	if got := nextReply(t, alice); got != "user does not exist" {
		t.Fatalf("unexpected reply %q", got)
	}
}

func TestSendFileMalformedChunk(t *testing.T) {
	f := newFixture()
	alice := f.session()
	f.login(t, alice, "alice")
	bob := f.session()
	f.login(t, bob, "bob")

	alice.dispatch("SEND_FILE_USER bob " + envelopeLine(t, "notes.txt", "", "AAAA", 0, 2))
	if got := nextReply(t, alice); got != "chunk index 0 out of range 1..2" {
		t.Fatalf("unexpected reply %q", got)
	}

	alice.dispatch("SEND_FILE_USER bob not-json")
	if got := nextReply(t, alice); got != "invalid transfer envelope" {
		t.Fatalf("unexpected reply %q", got)
	}
}

func TestDispatchRecoversFromPanic(t *testing.T) {
	f := newFixture()
	s := f.session()
	s.store = nil // force a nil dereference inside a handler

	s.dispatch("VIEW_ROOMS")
	if got := nextReply(t, s); !strings.HasPrefix(got, prefixError+" ") {
		t.Fatalf("expected generic error line, got %q", got)
	}
}
