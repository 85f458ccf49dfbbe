/*
Package chat contains the per-connection core of the collaboration server.

This file implements the command dispatcher: one inbound line is split into a
case-insensitive command token and free-form argument text, validated against
the session's state, and applied to the registries. Every response goes to the
session's own connection; the only cross-session writes are transfer delivery
notices addressed through the Hub.
*/
package chat

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"holochat/internal/app/registry"
	"holochat/internal/pkg/errs"
)

// archiveTimeout bounds each payload-archive call issued from dispatch.
const archiveTimeout = 10 * time.Second

// downloadURLValidity is how long an archived payload's presigned URL works.
const downloadURLValidity = 5 * time.Minute

// dispatch routes one inbound line. Any panic escaping a handler is reported
// as a generic error line; the connection stays open.
func (s *Session) dispatch(line string) {
	defer func() {
		if rec := recover(); rec != nil {
			s.logger.Error().
				Interface("panic", rec).
				Str("line_command", firstToken(line)).
				Msg("Recovered from panic during dispatch.")

			s.reply(fmt.Sprintf("%s %v", prefixError, rec))
		}
	}()

	command, args := splitCommand(line)

	switch strings.ToUpper(command) {
	case "LOGIN":
		s.handleLogin(args)
	case "LOGOUT":
		s.handleLogout()
	case "CREATE_ROOM":
		s.handleCreateRoom(args)
	case "DELETE_ROOM":
		s.handleDeleteRoom(args)
	case "JOIN_ROOM":
		s.handleJoinRoom(args)
	case "DELETE_USER":
		s.handleDeleteUser(args)
	case "VIEW_ROOMS":
		s.reply(formatRoomsInfo(s.store.RoomsInfo()))
	case "VIEW_CONNECTED":
		s.reply(formatConnectedUsers(s.store.ConnectedInfo()))
	case "TYPING":
		s.handlePresence(registry.StatusTyping, "")
	case "MESSAGE":
		s.handlePresence(registry.StatusActive, args)
	case "SEND_FILE_USER":
		s.handleSendToUser(args, prefixFileReceived)
	case "SEND_FILE_ROOM":
		s.handleSendToRoom(args)
	case "SEND_OBJECT":
		s.handleSendToUser(args, prefixObjectReceived)
	case "HELP":
		s.reply(helpText)
	default:
		s.reply(errs.NewError(errs.ErrUnknownCommand).Message)
	}
}

// handleLogin binds the session to a username. Credentials are accepted
// unconditionally; the password is required but never verified. The role
// comes from the configured admin table, fixed at the user's creation.
func (s *Session) handleLogin(args string) {
	fields := strings.Fields(args)
	if len(fields) < 2 {
		s.reply(prefixLoginError + " " + errs.NewError(errs.ErrMissingCredentials).Message)
		return
	}

	username := fields[0]

	role, created := s.store.Login(username)

	if old := s.hub.Bind(username, s); old != nil {
		old.Kick("session replaced by a new connection")
	}

	if s.username != "" && s.username != username {
		// Rebinding to a different name releases the old binding but leaves
		// the old user registered, same as a plain disconnect would.
		s.hub.Unbind(s.username, s)
	}

	s.username = username
	s.logger = s.logger.With().Str("username", username).Logger()

	s.logger.Info().Bool("created", created).Str("role", string(role)).Msg("Session bound.")
	s.reply(prefixLoginSuccess + " " + string(role))
}

// handleLogout removes the bound user from the registry and unbinds the session.
func (s *Session) handleLogout() {
	if !s.requireBound() {
		return
	}

	if err := s.store.Logout(s.username); err != nil {
		s.reply(err.Message)
		return
	}

	s.hub.Unbind(s.username, s)
	s.logger.Info().Msg("User logged out.")

	s.username = ""
	s.roomName = ""
	s.reply("logged out")
}

func (s *Session) handleCreateRoom(args string) {
	roomName, ok := s.requireAdminWithArg(args)
	if !ok {
		return
	}

	if err := s.store.CreateRoom(roomName); err != nil {
		s.reply(err.Message)
		return
	}
	s.reply("room created")
}

func (s *Session) handleDeleteRoom(args string) {
	roomName, ok := s.requireAdminWithArg(args)
	if !ok {
		return
	}

	if err := s.store.DeleteRoom(roomName); err != nil {
		s.reply(err.Message)
		return
	}
	s.reply("room deleted")
}

func (s *Session) handleJoinRoom(args string) {
	if !s.requireBound() {
		return
	}

	roomName := strings.TrimSpace(args)
	if roomName == "" {
		s.reply(errs.NewError(errs.ErrMissingArgument).Message)
		return
	}

	if err := s.store.JoinRoom(roomName, s.username); err != nil {
		s.reply(err.Message)
		return
	}

	s.roomName = roomName
	s.reply("joined room " + roomName)
}

// handleDeleteUser removes the named user, cascading room membership, and
// kicks the victim's live session if there is one.
func (s *Session) handleDeleteUser(args string) {
	target, ok := s.requireAdminWithArg(args)
	if !ok {
		return
	}

	if err := s.store.DeleteUser(target); err != nil {
		s.reply(err.Message)
		return
	}

	if victim, ok := s.hub.Lookup(target); ok && victim != s {
		s.hub.Unbind(target, victim)
		victim.Kick("removed by an administrator")
	}

	if target == s.username {
		s.hub.Unbind(s.username, s)
		s.username = ""
		s.roomName = ""
	}

	s.reply("user deleted")
}

// handlePresence applies TYPING and MESSAGE: both refresh activity, MESSAGE
// additionally carries free text. Message text is logged, not forwarded —
// this protocol version has no fan-out.
func (s *Session) handlePresence(status registry.Status, text string) {
	if !s.requireBound() {
		return
	}

	if err := s.store.Touch(s.username, status); err != nil {
		s.reply(err.Message)
		return
	}

	if status == registry.StatusActive && text != "" {
		s.logger.Info().Str("room", s.roomName).Str("text", text).Msg("Message received.")
	}
}

// handleSendToUser processes SEND_FILE_USER and SEND_OBJECT: one envelope
// fragment addressed to a named user, fed into the reassembler. On completion
// the recipient gets a notice line and the sender a completion ack.
func (s *Session) handleSendToUser(args string, noticePrefix string) {
	if !s.requireBound() {
		return
	}

	target, raw := splitCommand(args)
	if target == "" || raw == "" {
		s.reply(errs.NewError(errs.ErrMissingArgument).Message)
		return
	}

	if _, ok := s.store.Get(target); !ok {
		s.reply(errs.NewError(errs.ErrTargetUserNotFound).Message)
		return
	}

	env, customErr := parseEnvelope(raw)
	if customErr != nil {
		s.reply(customErr.Message)
		return
	}

	transferID := transferKey(s.username, "user", target, env.Label())

	payload, done, customErr := s.reasm.Add(transferID, env.CurrentChunk, env.TotalChunks, env.ContentBase64)
	if customErr != nil {
		s.reply(customErr.Message)
		return
	}

	if !done {
		s.reply(fmt.Sprintf("%s %s %d/%d", prefixChunkOK, env.Label(), env.CurrentChunk, env.TotalChunks))
		return
	}

	notice := s.buildNotice(noticePrefix, env.Label(), payload)
	if !s.hub.Deliver(target, notice) {
		s.reply(errs.NewError(errs.ErrUserNotConnected).Message)
		return
	}

	s.reply(prefixComplete + " " + env.Label())
}

// handleSendToRoom processes SEND_FILE_ROOM: as handleSendToUser, but the
// completed payload notice goes to every connected member of the room except
// the sender. Members without a live session are skipped.
func (s *Session) handleSendToRoom(args string) {
	if !s.requireBound() {
		return
	}

	roomName, raw := splitCommand(args)
	if roomName == "" || raw == "" {
		s.reply(errs.NewError(errs.ErrMissingArgument).Message)
		return
	}

	members, customErr := s.store.RoomMembers(roomName)
	if customErr != nil {
		s.reply(customErr.Message)
		return
	}

	env, customErr := parseEnvelope(raw)
	if customErr != nil {
		s.reply(customErr.Message)
		return
	}

	transferID := transferKey(s.username, "room", roomName, env.Label())

	payload, done, customErr := s.reasm.Add(transferID, env.CurrentChunk, env.TotalChunks, env.ContentBase64)
	if customErr != nil {
		s.reply(customErr.Message)
		return
	}

	if !done {
		s.reply(fmt.Sprintf("%s %s %d/%d", prefixChunkOK, env.Label(), env.CurrentChunk, env.TotalChunks))
		return
	}

	notice := s.buildNotice(prefixFileReceived, env.Label(), payload)
	delivered := s.hub.DeliverEach(members, s.username, notice)

	s.logger.Info().
		Str("room", roomName).
		Str("label", env.Label()).
		Int("delivered", delivered).
		Msg("Room transfer delivered.")

	s.reply(prefixComplete + " " + env.Label())
}

// buildNotice formats the recipient's delivery line. File payloads go through
// the archive when one is configured, so the notice carries a presigned
// download URL; otherwise, and for object payloads, it carries the byte size.
func (s *Session) buildNotice(noticePrefix, label string, payload []byte) string {
	if s.archive != nil && noticePrefix == prefixFileReceived {
		ctx, cancel := context.WithTimeout(context.Background(), archiveTimeout)
		defer cancel()

		key := "transfers/" + uuid.NewString() + "/" + label
		if err := s.archive.Upload(ctx, key, "application/octet-stream", payload); err == nil {
			if url, err := s.archive.PresignDownload(ctx, key, downloadURLValidity); err == nil {
				return fmt.Sprintf("%s %s %s %s", noticePrefix, s.username, label, url)
			}
		}

		// Archive trouble degrades to a size notice rather than failing the transfer.
		s.logger.Warn().Str("label", label).Msg("Payload archive unavailable, delivering size notice.")
	}

	return fmt.Sprintf("%s %s %s %d", noticePrefix, s.username, label, len(payload))
}

// requireBound replies with an inline error when the session has not logged in.
func (s *Session) requireBound() bool {
	if s.username == "" {
		s.reply(errs.NewError(errs.ErrNotLoggedIn).Message)
		return false
	}
	return true
}

// requireAdminWithArg validates the common shape of admin commands: a bound
// session, an admin role, and one non-empty argument. A session whose user was
// deleted out from under it reports "user not found" instead of failing the
// connection.
func (s *Session) requireAdminWithArg(args string) (string, bool) {
	if !s.requireBound() {
		return "", false
	}

	role, ok := s.store.Role(s.username)
	if !ok {
		s.reply(errs.NewError(errs.ErrUserNotFound).Message)
		return "", false
	}

	if role != registry.RoleAdmin {
		s.reply(errs.NewError(errs.ErrNoPermission).Message)
		return "", false
	}

	arg := strings.TrimSpace(args)
	if arg == "" {
		s.reply(errs.NewError(errs.ErrMissingArgument).Message)
		return "", false
	}

	return arg, true
}

// splitCommand splits a line into its first space-separated token and the
// remainder, which keeps any embedded spaces.
func splitCommand(line string) (string, string) {
	parts := strings.SplitN(line, " ", 2)
	if len(parts) == 1 {
		return parts[0], ""
	}
	return parts[0], parts[1]
}

// firstToken returns only the command token of a line, keeping argument text
// (which may hold credentials) out of log records.
func firstToken(line string) string {
	token, _ := splitCommand(line)
	return token
}

// transferKey derives the reassembler identity for one logical transfer.
// Sender, destination kind, destination name, and payload label together keep
// concurrent transfers from different senders or to different targets apart.
func transferKey(sender, kind, destination, label string) string {
	return sender + "|" + kind + "|" + destination + "|" + label
}
