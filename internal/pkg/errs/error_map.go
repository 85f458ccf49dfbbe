/*
Package errs provides custom error types and application-level error code constants.

This file defines the map from error codes to the CustomError struct. The Message
field is the exact inline error line written back to the client, so changing a
message here changes the wire protocol.
*/
package errs

import "net/http"

// errorMap stores the CustomError template corresponding to every application error code.
var errorMap = map[int]CustomError{
	// 1xxx: Command Validation Errors
	ErrMissingCredentials: {Code: ErrMissingCredentials, Message: "missing credentials"},
	ErrUnknownCommand:     {Code: ErrUnknownCommand, Message: "command not recognized"},
	ErrMissingArgument:    {Code: ErrMissingArgument, Message: "missing argument"},
	ErrNotLoggedIn:        {Code: ErrNotLoggedIn, Message: "not logged in"},
	ErrRateLimitExceeded:  {Code: ErrRateLimitExceeded, Message: "too many connections, try again later", Status: http.StatusTooManyRequests},

	// 2xxx: Room Errors
	ErrRoomExists:   {Code: ErrRoomExists, Message: "room exists"},
	ErrRoomNotFound: {Code: ErrRoomNotFound, Message: "room does not exist"},

	// 3xxx: User and Permission Errors
	ErrNoPermission:       {Code: ErrNoPermission, Message: "no permission"},
	ErrUserNotFound:       {Code: ErrUserNotFound, Message: "user not found"},
	ErrTargetUserNotFound: {Code: ErrTargetUserNotFound, Message: "user does not exist"},
	ErrUserNotConnected:   {Code: ErrUserNotConnected, Message: "user is not connected"},

	// 4xxx: Chunk Transfer Errors
	ErrChunkIndexOutOfRange: {Code: ErrChunkIndexOutOfRange, Message: "chunk index %d out of range 1..%d"},
	ErrChunkCountMismatch:   {Code: ErrChunkCountMismatch, Message: "chunk count %d does not match declared %d"},
	ErrChunkEncoding:        {Code: ErrChunkEncoding, Message: "payload is not valid base64"},
	ErrEnvelopeInvalid:      {Code: ErrEnvelopeInvalid, Message: "invalid transfer envelope"},

	// 5xxx: Internal System Errors
	ErrUnknown: {Code: ErrUnknown, Message: "internal server error", Status: http.StatusInternalServerError},
}
