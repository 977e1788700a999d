// The persistent device channel. Each barrier reader holds one websocket
// session, authenticated once at connect time by a device JWT. Inbound
// frames are processed in arrival order per connection; a failure on one
// connection never affects the others.
package routes

import (
	"context"
	"log/slog"
	"time"

	"github.com/coder/websocket"
	"github.com/gin-gonic/gin"

	"barrier-access-control/internal/hub"
	"barrier-access-control/internal/protocol"
)

func DeviceWS(d *Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		credential := c.Query("token")
		if credential == "" {
			credential = bearerToken(c)
		}

		wsConn, err := websocket.Accept(c.Writer, c.Request, nil)
		if err != nil {
			slog.Warn("Websocket accept failed", "error", err)
			return
		}

		claims, err := d.Tokens.DecodeDeviceJWT(credential)
		if err != nil {
			slog.Warn("Device presented invalid credential", "error", err)
			wsConn.Close(websocket.StatusPolicyViolation, "invalid credential")
			return
		}

		conn := hub.NewWSConn(wsConn)
		d.Hub.Register(conn)
		slog.Info("Device connected", "device_id", claims.DeviceID)

		readLoop(c.Request.Context(), d, conn, claims.DeviceID)
	}
}

func readLoop(ctx context.Context, d *Deps, conn *hub.WSConn, deviceID string) {
	defer func() {
		d.Hub.Unregister(conn)
		conn.CloseNow()
		slog.Info("Device disconnected", "device_id", deviceID)
	}()

	for {
		data, err := conn.Read(ctx)
		if err != nil {
			slog.Debug("Device read ended", "device_id", deviceID, "error", err)
			return
		}

		msg, err := protocol.Decode(data)
		if err != nil {
			// Malformed frames are dropped; the session survives.
			slog.Warn("Dropping malformed device message", "device_id", deviceID, "error", err)
			continue
		}

		switch m := msg.(type) {
		case protocol.AuthCard:
			if err := handleAuthCard(ctx, d, conn, m); err != nil {
				return
			}

		case protocol.BurnResponse:
			if err := d.Burn.HandleResult(ctx, m); err != nil {
				slog.Error("Failed to handle burn result", "device_id", deviceID, "error", err)
			}

		default:
			slog.Warn("Unexpected message kind from device", "device_id", deviceID, "action", msg.Action())
		}
	}
}

func handleAuthCard(ctx context.Context, d *Deps, conn *hub.WSConn, msg protocol.AuthCard) error {
	decision, err := d.Access.Authorize(ctx, msg.UID, time.Now().UTC())
	if err != nil {
		// Store trouble reads as a deny; the device still gets an answer.
		slog.Error("Card authorization failed", "uid", msg.UID, "error", err)
	}

	payload, err := protocol.Encode(protocol.AuthResponse{
		Auth:           decision.Authorized,
		BarrierOpenSec: decision.BarrierOpenSec,
	})
	if err != nil {
		return err
	}

	return d.Hub.SendTo(ctx, conn, payload)
}
