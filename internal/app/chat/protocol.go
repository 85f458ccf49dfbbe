/*
Package chat contains the per-connection core of the collaboration server:
the Session, its command dispatcher, and the Hub addressing live sessions by name.

This file defines the wire formats: the machine-parseable response blocks
consumed by the presentation layer and the JSON envelope wrapping one chunk of
a file or serialized-object transfer.
*/
package chat

import (
	"encoding/json"
	"fmt"
	"strings"

	"holochat/internal/app/registry"
	"holochat/internal/pkg/errs"
)

// Machine-parseable response prefixes. The presentation layer matches on
// these exact strings, so they are part of the protocol.
const (
	prefixLoginSuccess   = "LOGIN_SUCCESS"
	prefixLoginError     = "LOGIN_ERROR"
	prefixRoomsInfo      = "ROOMS_INFO:"
	prefixConnectedUsers = "CONNECTED_USERS:"
	prefixFileReceived   = "FILE_RECEIVED"
	prefixObjectReceived = "OBJECT_RECEIVED"
	prefixChunkOK        = "CHUNK_OK"
	prefixComplete       = "TRANSFER_COMPLETE"
	prefixError          = "ERROR"
)

// helpText is the static command list returned by HELP.
const helpText = `Available commands:
LOGIN <username> <password>
LOGOUT
CREATE_ROOM <room>          (admin)
DELETE_ROOM <room>          (admin)
DELETE_USER <username>      (admin)
JOIN_ROOM <room>
VIEW_ROOMS
VIEW_CONNECTED
TYPING
MESSAGE <text>
SEND_FILE_USER <username> <envelope-json>
SEND_FILE_ROOM <room> <envelope-json>
SEND_OBJECT <username> <envelope-json>
HELP`

// Envelope is the JSON object wrapping one fragment of a chunked transfer.
// FileName names file payloads, Tag names serialized-object payloads; either
// identifies the transfer. CurrentChunk is 1-based.
type Envelope struct {
	FileName      string `json:"fileName,omitempty"`
	Tag           string `json:"tag,omitempty"`
	ContentBase64 string `json:"contentBase64"`
	TotalChunks   int    `json:"totalChunks"`
	CurrentChunk  int    `json:"currentChunk"`
}

// Label returns the transfer's display name: the file name for file sends,
// the tag for object sends.
func (e *Envelope) Label() string {
	if e.FileName != "" {
		return e.FileName
	}
	if e.Tag != "" {
		return e.Tag
	}
	return "payload"
}

// parseEnvelope decodes the chunk envelope JSON from a command argument.
func parseEnvelope(raw string) (*Envelope, *errs.CustomError) {
	var env Envelope
	if err := json.Unmarshal([]byte(raw), &env); err != nil {
		return nil, errs.NewError(errs.ErrEnvelopeInvalid)
	}
	if env.ContentBase64 == "" {
		return nil, errs.NewError(errs.ErrEnvelopeInvalid)
	}
	return &env, nil
}

// formatRoomsInfo renders the VIEW_ROOMS response block:
// one "<room>: <comma-joined usernames>" line per room.
func formatRoomsInfo(infos []registry.RoomInfo) string {
	var b strings.Builder
	b.WriteString(prefixRoomsInfo)
	for _, info := range infos {
		b.WriteString("\n")
		b.WriteString(info.Name)
		b.WriteString(": ")
		b.WriteString(strings.Join(info.Members, ", "))
	}
	return b.String()
}

// formatConnectedUsers renders the VIEW_CONNECTED response block:
// one "<room> - Active Users: <name (status)>, ..." line per room.
func formatConnectedUsers(presences []registry.RoomPresence) string {
	var b strings.Builder
	b.WriteString(prefixConnectedUsers)
	for _, presence := range presences {
		entries := make([]string, 0, len(presence.Members))
		for _, member := range presence.Members {
			entries = append(entries, fmt.Sprintf("%s (%s)", member.Username, member.Status))
		}

		b.WriteString("\n")
		b.WriteString(presence.Name)
		b.WriteString(" - Active Users: ")
		b.WriteString(strings.Join(entries, ", "))
	}
	return b.String()
}
