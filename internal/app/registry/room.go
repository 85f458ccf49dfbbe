/*
Package registry contains the shared process-wide state of the collaboration server.

This file defines the Room record and the snapshot types returned to the
VIEW_ROOMS and VIEW_CONNECTED handlers.
*/
package registry

// Room is a named, admin-created gathering of users. Membership references
// usernames in the user table; deleting a user removes it from every room so
// no membership entry ever dangles. Membership only grows — the protocol has
// no LEAVE_ROOM — until the room or the user is deleted.
type Room struct {
	Name    string
	members map[string]struct{}
}

// RoomInfo is a consistent snapshot of one room for VIEW_ROOMS.
type RoomInfo struct {
	Name    string
	Members []string
}

// MemberPresence pairs a member username with its current status.
type MemberPresence struct {
	Username string
	Status   Status
}

// RoomPresence is a consistent snapshot of one room's active members for VIEW_CONNECTED.
type RoomPresence struct {
	Name    string
	Members []MemberPresence
}
