/*
Package chat contains the per-connection core of the collaboration server.

This file defines FrameConn, the transport abstraction carrying one command
line per frame, and its two implementations: gorilla WebSocket text frames and
newline-delimited raw TCP.
*/
package chat

import (
	"bufio"
	"net"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

const (
	// timeout duration for writing one frame to the connection.
	writeWait = 10 * time.Second

	// maximum time allowed for the server to wait for a Pong message from a WebSocket client.
	pongWait = 60 * time.Second

	// pingPeriod is the frequency at which the write pump sends a heartbeat.
	pingPeriod = (pongWait * 9) / 10

	// maximum allowed size (in bytes) of an inbound frame. Sized for one
	// chunk envelope carrying a Base64 fragment.
	maxFrameSize = 64 * 1024
)

// FrameConn is one persistent, bidirectional text connection. Each frame
// carries exactly one line: an inbound command or an outbound response block.
type FrameConn interface {
	// ReadFrame blocks until the next inbound line arrives.
	ReadFrame() (string, error)

	// WriteFrame sends one response to the client.
	WriteFrame(line string) error

	// Ping sends a transport heartbeat where the transport has one.
	Ping() error

	// Close tears the connection down. Safe to call more than once.
	Close() error

	// RemoteAddr identifies the peer for logging.
	RemoteAddr() string
}

// wsConn adapts a gorilla WebSocket connection to FrameConn using the usual
// read-limit, read-deadline and pong-handler discipline.
type wsConn struct {
	conn *websocket.Conn
}

// NewWSConn wraps an upgraded WebSocket connection.
func NewWSConn(conn *websocket.Conn) FrameConn {
	conn.SetReadLimit(maxFrameSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	return &wsConn{conn: conn}
}

func (w *wsConn) ReadFrame() (string, error) {
	_, payload, err := w.conn.ReadMessage()
	if err != nil {
		return "", err
	}
	return strings.TrimRight(string(payload), "\r\n"), nil
}

func (w *wsConn) WriteFrame(line string) error {
	if err := w.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return w.conn.WriteMessage(websocket.TextMessage, []byte(line))
}

func (w *wsConn) Ping() error {
	if err := w.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return w.conn.WriteMessage(websocket.PingMessage, nil)
}

func (w *wsConn) Close() error {
	return w.conn.Close()
}

func (w *wsConn) RemoteAddr() string {
	return w.conn.RemoteAddr().String()
}

// tcpConn adapts a raw TCP connection: one "\n"-terminated line per frame.
type tcpConn struct {
	conn   net.Conn
	reader *bufio.Reader
}

// NewTCPConn wraps an accepted TCP connection.
func NewTCPConn(conn net.Conn) FrameConn {
	return &tcpConn{
		conn:   conn,
		reader: bufio.NewReaderSize(conn, maxFrameSize),
	}
}

func (t *tcpConn) ReadFrame() (string, error) {
	line, err := t.reader.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func (t *tcpConn) WriteFrame(line string) error {
	if err := t.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	_, err := t.conn.Write([]byte(line + "\n"))
	return err
}

// Ping is a no-op: plain TCP has no heartbeat frame.
func (t *tcpConn) Ping() error {
	return nil
}

func (t *tcpConn) Close() error {
	return t.conn.Close()
}

func (t *tcpConn) RemoteAddr() string {
	return t.conn.RemoteAddr().String()
}
