/*
Package chat contains the per-connection core of the collaboration server.

This file defines the Session, the ephemeral per-connection state binding one
FrameConn to at most one username and one room, with the read/write pump pair
managing its lifecycle.
*/
package chat

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"holochat/internal/app/registry"
	"holochat/internal/app/storage"
	"holochat/internal/app/transfer"
	"holochat/internal/pkg/logx"
)

// sendBuffer is the capacity of the per-session outbound queue.
const sendBuffer = 64

// Session represents one live connection. It is created when the transport
// accepts a connection and destroyed when the connection closes; it owns no
// registry data. A closed connection does not remove the bound user from the
// registry — only LOGOUT, DELETE_USER or the inactivity sweep changes that.
type Session struct {
	// id identifies the session in logs, independent of any username.
	id string

	conn FrameConn
	hub  *Hub

	store   *registry.Store
	reasm   *transfer.Reassembler
	archive storage.ArchiveService // nil when the payload archive is disabled

	// username bound by a successful LOGIN, empty before that.
	username string

	// roomName bound by a successful JOIN_ROOM, empty before that.
	roomName string

	// send queues outbound response lines for the write pump.
	send chan string

	// closeOnce guards the send channel against double close.
	closeOnce sync.Once

	logger zerolog.Logger
}

// NewSession constructs a Session over an accepted connection.
func NewSession(conn FrameConn, hub *Hub, store *registry.Store, reasm *transfer.Reassembler, archive storage.ArchiveService) *Session {
	id := uuid.NewString()

	return &Session{
		id:      id,
		conn:    conn,
		hub:     hub,
		store:   store,
		reasm:   reasm,
		archive: archive,
		send:    make(chan string, sendBuffer),
		logger: logx.Logger().With().
			Str("session_id", id).
			Str("remote_addr", conn.RemoteAddr()).
			Logger(),
	}
}

// Run starts the write pump and blocks in the read pump until the connection
// closes. Transports call this once per accepted connection.
func (s *Session) Run() {
	go s.writePump()
	s.readPump()
}

// readPump reads inbound frames and dispatches them in arrival order,
// preserving per-connection FIFO. It performs session cleanup on exit.
func (s *Session) readPump() {
	defer s.cleanupOnDisconnect()

	for {
		line, err := s.conn.ReadFrame()
		if err != nil {
			s.logger.Info().Err(err).Msg("Connection read ended.")
			return
		}

		if line == "" {
			continue
		}

		s.dispatch(line)
	}
}

// cleanupOnDisconnect unbinds the session from the hub and closes the
// connection. Deliberately, it does not touch the registries.
func (s *Session) cleanupOnDisconnect() {
	s.logger.Info().Str("username", s.username).Msg("Session cleanup starting.")

	if s.username != "" {
		s.hub.Unbind(s.username, s)
	}

	s.closeSend()

	if err := s.conn.Close(); err != nil {
		s.logger.Debug().Err(err).Msg("Connection close error during cleanup.")
	}
}

// writePump drains the send queue onto the connection and keeps the transport
// heartbeat alive. It terminates on write failure or when the queue closes.
func (s *Session) writePump() {
	ticker := time.NewTicker(pingPeriod)

	defer func() {
		ticker.Stop()

		if err := s.conn.Close(); err != nil {
			s.logger.Debug().Err(err).Msg("Connection close error in write pump.")
		}
	}()

	for {
		select {
		case line, ok := <-s.send:
			if !ok {
				return
			}
			if err := s.conn.WriteFrame(line); err != nil {
				s.logger.Info().Err(err).Msg("Error writing frame.")
				return
			}

		case <-ticker.C:
			if err := s.conn.Ping(); err != nil {
				s.logger.Info().Err(err).Msg("Error writing heartbeat.")
				return
			}
		}
	}
}

// reply queues one response line for this session's own connection.
// A full queue drops the line rather than blocking command dispatch.
func (s *Session) reply(line string) {
	defer func() {
		// The send channel closes during teardown; losing a late reply to a
		// dying connection is acceptable.
		if rec := recover(); rec != nil {
			s.logger.Debug().Msg("Dropped reply to closing session.")
		}
	}()

	select {
	case s.send <- line:
	default:
		s.logger.Warn().Int("queue_len", len(s.send)).Msg("Session send queue full, dropping line.")
	}
}

// Kick queues a final error line and starts connection teardown. Used when a
// newer LOGIN displaces this session or the server shuts down.
func (s *Session) Kick(reason string) {
	s.logger.Warn().Str("reason", reason).Msg("Kicking session.")

	s.reply(prefixError + " " + reason)
	s.closeSend()
}

// closeSend closes the outbound queue exactly once, letting the write pump
// flush what is already queued and then shut the connection.
func (s *Session) closeSend() {
	s.closeOnce.Do(func() {
		close(s.send)
	})
}
