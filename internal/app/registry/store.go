/*
Package registry contains the shared process-wide state of the collaboration server.

This file defines the Store, the single source of truth for users, rooms and
role assignments. Every mutation happens under one lock so concurrent sessions
and the inactivity sweep always observe each registry atomically.
*/
package registry

import (
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"holochat/internal/pkg/errs"
	"holochat/internal/pkg/logx"
)

// Store owns the user and room registries.
type Store struct {
	// mu guards users and rooms. A single lock keeps cross-table operations
	// (membership cascade on user removal) atomic.
	mu sync.RWMutex

	// users maps username to its User record.
	users map[string]*User

	// rooms maps room name to its Room record.
	rooms map[string]*Room

	// admins is the configured role table: usernames granted RoleAdmin at creation.
	admins map[string]struct{}

	// now is the clock, replaceable in tests.
	now func() time.Time

	logger zerolog.Logger
}

// NewStore constructs an empty Store with the given admin role table.
func NewStore(adminUsers []string) *Store {
	admins := make(map[string]struct{}, len(adminUsers))
	for _, name := range adminUsers {
		admins[name] = struct{}{}
	}

	return &Store{
		users:  make(map[string]*User),
		rooms:  make(map[string]*Room),
		admins: admins,
		now:    time.Now,
		logger: logx.Logger().With().Str("component", "Store").Logger(),
	}
}

// Login registers the username on first sight and refreshes its activity.
// A repeated LOGIN for the same name never creates a duplicate record.
// It returns the user's role and whether the record was created now.
func (s *Store) Login(username string) (Role, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if u, ok := s.users[username]; ok {
		u.LastActivity = s.now()
		return u.Role, false
	}

	role := RoleUser
	if _, ok := s.admins[username]; ok {
		role = RoleAdmin
	}

	s.users[username] = &User{
		Username:     username,
		Role:         role,
		Status:       StatusActive,
		LastActivity: s.now(),
	}

	s.logger.Info().Str("username", username).Str("role", string(role)).Msg("User registered.")
	return role, true
}

// Logout removes the user's registry record, cascading room membership.
func (s *Store) Logout(username string) *errs.CustomError {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[username]; !ok {
		return errs.NewError(errs.ErrUserNotFound)
	}

	s.removeUserLocked(username)
	return nil
}

// DeleteUser removes the named user on behalf of an admin, cascading membership.
func (s *Store) DeleteUser(username string) *errs.CustomError {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[username]; !ok {
		return errs.NewError(errs.ErrTargetUserNotFound)
	}

	s.removeUserLocked(username)
	return nil
}

// removeUserLocked deletes the user record and every room membership entry.
// Callers must hold mu.
func (s *Store) removeUserLocked(username string) {
	delete(s.users, username)
	for _, room := range s.rooms {
		delete(room.members, username)
	}
	s.logger.Info().Str("username", username).Msg("User removed from registry.")
}

// Role returns the user's role, reporting whether the user is registered.
func (s *Store) Role(username string) (Role, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[username]
	if !ok {
		return "", false
	}
	return u.Role, true
}

// Get returns a copy of the user record, reporting whether it exists.
func (s *Store) Get(username string) (User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[username]
	if !ok {
		return User{}, false
	}
	return *u, true
}

// Touch sets the user's presence status and refreshes its activity timestamp.
func (s *Store) Touch(username string, status Status) *errs.CustomError {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[username]
	if !ok {
		return errs.NewError(errs.ErrUserNotFound)
	}

	u.Status = status
	u.LastActivity = s.now()
	return nil
}

// CreateRoom adds an empty room under an unused name.
func (s *Store) CreateRoom(name string) *errs.CustomError {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.rooms[name]; ok {
		return errs.NewError(errs.ErrRoomExists)
	}

	s.rooms[name] = &Room{
		Name:    name,
		members: make(map[string]struct{}),
	}

	s.logger.Info().Str("room", name).Msg("Room created.")
	return nil
}

// DeleteRoom removes the named room and its membership set.
func (s *Store) DeleteRoom(name string) *errs.CustomError {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.rooms[name]; !ok {
		return errs.NewError(errs.ErrRoomNotFound)
	}

	delete(s.rooms, name)
	s.logger.Info().Str("room", name).Msg("Room deleted.")
	return nil
}

// JoinRoom adds the user to the room's membership set. Re-joining an already
// joined room is a no-op.
func (s *Store) JoinRoom(roomName, username string) *errs.CustomError {
	s.mu.Lock()
	defer s.mu.Unlock()

	room, ok := s.rooms[roomName]
	if !ok {
		return errs.NewError(errs.ErrRoomNotFound)
	}

	if _, ok := s.users[username]; !ok {
		return errs.NewError(errs.ErrUserNotFound)
	}

	room.members[username] = struct{}{}
	return nil
}

// RoomMembers returns a sorted snapshot of the room's member usernames.
func (s *Store) RoomMembers(roomName string) ([]string, *errs.CustomError) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	room, ok := s.rooms[roomName]
	if !ok {
		return nil, errs.NewError(errs.ErrRoomNotFound)
	}

	return sortedMembers(room), nil
}

// RoomsInfo returns a snapshot of every room with its member usernames,
// ordered by room name for stable output.
func (s *Store) RoomsInfo() []RoomInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	infos := make([]RoomInfo, 0, len(s.rooms))
	for _, room := range s.rooms {
		infos = append(infos, RoomInfo{
			Name:    room.Name,
			Members: sortedMembers(room),
		})
	}

	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos
}

// ConnectedInfo returns, for every room, the members whose status is Active,
// ordered by room name and member name.
func (s *Store) ConnectedInfo() []RoomPresence {
	s.mu.RLock()
	defer s.mu.RUnlock()

	presences := make([]RoomPresence, 0, len(s.rooms))
	for _, room := range s.rooms {
		presence := RoomPresence{Name: room.Name}
		for name := range room.members {
			u, ok := s.users[name]
			if !ok || u.Status != StatusActive {
				continue
			}
			presence.Members = append(presence.Members, MemberPresence{
				Username: u.Username,
				Status:   u.Status,
			})
		}

		sort.Slice(presence.Members, func(i, j int) bool {
			return presence.Members[i].Username < presence.Members[j].Username
		})
		presences = append(presences, presence)
	}

	sort.Slice(presences, func(i, j int) bool { return presences[i].Name < presences[j].Name })
	return presences
}

// SweepInactive demotes every user idle for at least threshold to Inactive and
// returns the demoted usernames. Already inactive users are left alone.
func (s *Store) SweepInactive(threshold time.Duration) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().Add(-threshold)

	var demoted []string
	for _, u := range s.users {
		if u.Status == StatusInactive {
			continue
		}
		if u.LastActivity.After(cutoff) {
			continue
		}

		u.Status = StatusInactive
		demoted = append(demoted, u.Username)
	}

	return demoted
}

// sortedMembers copies a room's membership set into a sorted slice.
// Callers must hold mu.
func sortedMembers(room *Room) []string {
	members := make([]string, 0, len(room.members))
	for name := range room.members {
		members = append(members, name)
	}
	sort.Strings(members)
	return members
}
