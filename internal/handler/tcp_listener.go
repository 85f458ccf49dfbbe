/*
Package handler provides the transport edges of the collaboration server.

This file contains the raw TCP listener: the same line protocol as the
WebSocket endpoint, one "\n"-terminated command per line, for clients that
speak plain sockets.
*/
package handler

import (
	"errors"
	"net"
	"sync"

	"github.com/rs/zerolog"

	"holochat/internal/app/chat"
	"holochat/internal/pkg/errs"
	"holochat/internal/pkg/limiter"
	"holochat/internal/pkg/logx"
)

// TCPListener accepts raw TCP connections and runs a Session per connection.
type TCPListener struct {
	ln          net.Listener
	rateLimiter *limiter.IPRateLimiter
	deps        *AppDeps

	wg     sync.WaitGroup
	logger zerolog.Logger
}

// StartTCPListener binds addr and begins accepting connections.
func StartTCPListener(addr string, rateLimiter *limiter.IPRateLimiter, deps *AppDeps) (*TCPListener, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}

	l := &TCPListener{
		ln:          ln,
		rateLimiter: rateLimiter,
		deps:        deps,
		logger:      logx.Logger().With().Str("component", "TCPListener").Str("addr", addr).Logger(),
	}

	l.wg.Add(1)
	go l.acceptLoop()

	l.logger.Info().Msg("TCP listener started.")
	return l, nil
}

// acceptLoop accepts connections until the listener closes.
func (l *TCPListener) acceptLoop() {
	defer l.wg.Done()

	for {
		conn, err := l.ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				l.logger.Info().Msg("TCP accept loop stopped.")
				return
			}
			l.logger.Warn().Err(err).Msg("TCP accept failed.")
			continue
		}

		if !l.rateLimiter.Allow(conn.RemoteAddr().String()) {
			l.logger.Warn().
				Str("remote_addr", conn.RemoteAddr().String()).
				Msg("TCP connection rejected: Rate limit exceeded.")

			frameConn := chat.NewTCPConn(conn)
			frameConn.WriteFrame(errs.NewError(errs.ErrRateLimitExceeded).Message)
			frameConn.Close()
			continue
		}

		session := chat.NewSession(
			chat.NewTCPConn(conn),
			l.deps.Hub,
			l.deps.Store,
			l.deps.Reassembler,
			l.deps.Archive,
		)

		l.logger.Info().Str("remote_addr", conn.RemoteAddr().String()).Msg("TCP connection established.")

		go session.Run()
	}
}

// Addr returns the bound listen address.
func (l *TCPListener) Addr() net.Addr {
	return l.ln.Addr()
}

// Close stops accepting connections and waits for the accept loop to exit.
// Established sessions keep running until their connections close.
func (l *TCPListener) Close() error {
	err := l.ln.Close()
	l.wg.Wait()
	return err
}
