/*
Package errs provides custom error types and application-level error code constants.

These error codes identify specific protocol or system errors both internally
within the server and in the inline error lines sent back to clients.
*/
package errs

// 1xxx: Command Validation Errors
const (
	// ErrMissingCredentials indicates a LOGIN command without both username and password.
	ErrMissingCredentials = 1001

	// ErrUnknownCommand indicates an inbound line whose command token is not recognized.
	ErrUnknownCommand = 1002

	// ErrMissingArgument indicates a command issued without its required argument.
	ErrMissingArgument = 1003

	// ErrNotLoggedIn indicates a command that requires a bound session was issued before LOGIN.
	ErrNotLoggedIn = 1004

	// ErrRateLimitExceeded indicates that the connection rate from one address exceeded the set limit.
	ErrRateLimitExceeded = 1005
)

// 2xxx: Room Errors
const (
	// ErrRoomExists indicates that the attempted room name for creation is already taken.
	ErrRoomExists = 2101

	// ErrRoomNotFound indicates that the named room does not exist.
	ErrRoomNotFound = 2102
)

// 3xxx: User and Permission Errors
const (
	// ErrNoPermission indicates a role check failed for an admin-only command.
	ErrNoPermission = 3001

	// ErrUserNotFound indicates the session's own user record is absent from the registry.
	ErrUserNotFound = 3002

	// ErrTargetUserNotFound indicates the user named in a command argument is not registered.
	ErrTargetUserNotFound = 3003

	// ErrUserNotConnected indicates the target user is registered but has no live session to deliver to.
	ErrUserNotConnected = 3004
)

// 4xxx: Chunk Transfer Errors
const (
	// ErrChunkIndexOutOfRange indicates a fragment index outside [1, totalChunks].
	ErrChunkIndexOutOfRange = 4001

	// ErrChunkCountMismatch indicates a fragment declaring a different totalChunks
	// than the first fragment of the same transfer.
	ErrChunkCountMismatch = 4002

	// ErrChunkEncoding indicates the reassembled payload is not valid Base64.
	ErrChunkEncoding = 4003

	// ErrEnvelopeInvalid indicates the transfer envelope JSON could not be parsed.
	ErrEnvelopeInvalid = 4004
)

// 5xxx: Internal System Errors
const (
	// ErrUnknown represents an unclassified server internal error.
	ErrUnknown = 5000
)
