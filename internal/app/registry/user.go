/*
Package registry contains the shared process-wide state of the collaboration server:
the user table, the room table and the role assignments, all guarded by one store.

This file defines the User record and its role and presence enumerations.
*/
package registry

import "time"

// Role is the authorization level assigned to a user at creation.
type Role string

const (
	// RoleAdmin may create and delete rooms and delete users.
	RoleAdmin Role = "admin"

	// RoleUser is the default role for everyone not listed in the admin table.
	RoleUser Role = "user"
)

// Status is the presence state of a user.
type Status string

const (
	// StatusActive marks a user who recently issued a MESSAGE or logged in.
	StatusActive Status = "Active"

	// StatusTyping marks a user who recently issued a TYPING command.
	StatusTyping Status = "Typing"

	// StatusInactive marks a user demoted by the inactivity sweep.
	// Only TYPING or MESSAGE promotes the user again.
	StatusInactive Status = "Inactive"
)

// User represents one registered participant.
// The username is the unique, case-sensitive key assigned at first LOGIN and
// immutable thereafter; the role is fixed at creation from the admin table.
type User struct {
	Username     string
	Role         Role
	Status       Status
	LastActivity time.Time
}
