/*
Package handler provides the transport edges of the collaboration server.

This file contains the WebSocket upgrade handler. A session starts entirely
unbound: identity is established in-band with LOGIN, not at upgrade time.
*/
package handler

import (
	"net/http"

	"github.com/gorilla/websocket"

	"holochat/internal/app/chat"
	"holochat/internal/pkg/errs"
	"holochat/internal/pkg/limiter"
	"holochat/internal/pkg/logx"
	"holochat/internal/pkg/resp"
)

// HandleWebSocket creates the HandlerFunc that upgrades HTTP connections and
// runs a Session over the resulting text-frame transport.
func HandleWebSocket(upgrader websocket.Upgrader, rateLimiter *limiter.IPRateLimiter, deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !rateLimiter.Allow(r.RemoteAddr) {
			logx.Warn("WebSocket connection rejected: Rate limit exceeded.", "ip", limiter.HostOnly(r.RemoteAddr))
			resp.RespondError(w, r, errs.NewError(errs.ErrRateLimitExceeded))
			return
		}

		wsConn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logx.Error(err, "Failed to upgrade connection to WebSocket")
			return
		}

		session := chat.NewSession(
			chat.NewWSConn(wsConn),
			deps.Hub,
			deps.Store,
			deps.Reassembler,
			deps.Archive,
		)

		logx.Info("WebSocket connection established.", "remote_addr", wsConn.RemoteAddr().String())

		session.Run()
	}
}
