package ws

import (
	"context"
	"net/http"
	"time"

	"nhooyr.io/websocket"
)

// Conn wraps one client WebSocket with a buffered outbound queue so slow
// readers never block a broadcast.
type Conn struct {
	id  string
	ws  *websocket.Conn
	out chan []byte
}

// Accept upgrades HTTP to websocket (allow all origins)
func Accept(w http.ResponseWriter, r *http.Request) (*websocket.Conn, error) {
	return websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns:  []string{"*"},
		CompressionMode: websocket.CompressionDisabled,
	})
}

// NewConn wraps a WS connection under a hub-assigned connection id
func NewConn(ws *websocket.Conn, id string) *Conn {
	return &Conn{
		id:  id,
		ws:  ws,
		out: make(chan []byte, 256),
	}
}

// Read blocks until it receives a text/binary message
// Returns false if connection is closed
func (c *Conn) Read(ctx context.Context) ([]byte, bool) {
	for {
		typ, data, err := c.ws.Read(ctx)
		if err != nil {
			return nil, false
		}
		if typ == websocket.MessageText || typ == websocket.MessageBinary {
			return []byte(data), true
		}
	}
}

// WriteLoop sends outbound messages + periodic pings
// Exits when ctx is cancelled
func (c *Conn) WriteLoop(ctx context.Context) {
	p := 20 * time.Second
	t := time.NewTicker(p)
	defer t.Stop()

	for {
		select {
		case b := <-c.out:
			_ = c.ws.Write(ctx, websocket.MessageText, b)
		case <-t.C:
			_ = c.ws.Ping(ctx)
		case <-ctx.Done():
			return
		}
	}
}

// trySend enqueues a frame without blocking, dropping it if the
// connection's buffer is full.
func (c *Conn) trySend(b []byte) {
	select {
	case c.out <- b:
	default:
	}
}

// Close closes the WS connection normally
func (c *Conn) Close() error { return c.ws.Close(websocket.StatusNormalClosure, "bye") }
