package hub

import (
	"context"

	"github.com/coder/websocket"
)

// WSConn adapts a websocket connection to the Conn interface.
type WSConn struct {
	conn *websocket.Conn
}

func NewWSConn(conn *websocket.Conn) *WSConn {
	return &WSConn{conn: conn}
}

func (c *WSConn) Write(ctx context.Context, payload []byte) error {
	return c.conn.Write(ctx, websocket.MessageText, payload)
}

func (c *WSConn) CloseNow() error {
	return c.conn.CloseNow()
}

// Read blocks until the next inbound frame arrives.
func (c *WSConn) Read(ctx context.Context) ([]byte, error) {
	_, data, err := c.conn.Read(ctx)
	return data, err
}

// Close performs a websocket close handshake with the given status.
func (c *WSConn) Close(code websocket.StatusCode, reason string) error {
	return c.conn.Close(code, reason)
}
