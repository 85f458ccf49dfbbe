/*
Package chat contains the per-connection core of the collaboration server.

This file defines the Hub, which maps bound usernames to live sessions so a
connected client can be addressed individually by name. The registries know
nothing about connections; only the Hub does.
*/
package chat

import (
	"sync"

	"github.com/rs/zerolog"

	"holochat/internal/pkg/logx"
)

// Hub tracks which session, if any, currently speaks for each username.
type Hub struct {
	// mu protects concurrent access to the sessions map.
	mu sync.RWMutex

	// sessions maps a bound username to its live session.
	sessions map[string]*Session

	logger zerolog.Logger
}

// NewHub constructs an empty Hub.
func NewHub() *Hub {
	return &Hub{
		sessions: make(map[string]*Session),
		logger:   logx.Logger().With().Str("component", "Hub").Logger(),
	}
}

// Bind records s as the live session for username and returns the session it
// displaced, if any. The caller decides what to do with the old connection.
func (h *Hub) Bind(username string, s *Session) *Session {
	h.mu.Lock()
	defer h.mu.Unlock()

	old := h.sessions[username]
	if old == s {
		return nil
	}
	h.sessions[username] = s

	if old != nil {
		h.logger.Warn().Str("username", username).Msg("Username already bound. Displacing old session.")
	}
	return old
}

// Unbind removes the binding for username, but only if s still owns it.
// A session that was displaced by a newer connection must not unbind its
// replacement during its own cleanup.
func (h *Hub) Unbind(username string, s *Session) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if current, ok := h.sessions[username]; ok && current == s {
		delete(h.sessions, username)
	}
}

// Lookup returns the live session bound to username.
func (h *Hub) Lookup(username string) (*Session, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	s, ok := h.sessions[username]
	return s, ok
}

// Deliver queues one response line for the named client and reports whether a
// live session was there to receive it.
func (h *Hub) Deliver(username, line string) bool {
	s, ok := h.Lookup(username)
	if !ok {
		return false
	}

	s.reply(line)
	return true
}

// DeliverEach queues one response line for every named client except the one
// excluded, returning how many live sessions received it. Members without a
// live session are skipped silently.
func (h *Hub) DeliverEach(usernames []string, except, line string) int {
	delivered := 0
	for _, name := range usernames {
		if name == except {
			continue
		}
		if h.Deliver(name, line) {
			delivered++
		}
	}
	return delivered
}

// Shutdown kicks every live session. Used during graceful server shutdown.
func (h *Hub) Shutdown() {
	h.mu.Lock()
	sessions := make([]*Session, 0, len(h.sessions))
	for _, s := range h.sessions {
		sessions = append(sessions, s)
	}
	h.sessions = make(map[string]*Session)
	h.mu.Unlock()

	for _, s := range sessions {
		s.Kick("server shutting down")
	}

	h.logger.Info().Int("sessions", len(sessions)).Msg("Hub shutdown complete.")
}
