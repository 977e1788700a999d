// Device enrollment: minting the long-lived credential a reader presents
// when opening its websocket session, either as plain JSON or as a QR code
// scanned during installation.
package routes

import (
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	qrcode "github.com/skip2/go-qrcode"

	"barrier-access-control/internal/utils"
)

const QR_IMAGE_SIZE = 512

// connectURL builds the websocket URL a device should dial, preferring the
// configured base URL over the one derived from the request. Behind a
// reverse proxy the request host is not what devices can reach.
func (d *Deps) connectURL(c *gin.Context, path string) string {
	if d.Cfg.BaseURL == "" {
		return utils.WsUrlFor(c, path)
	}

	base := strings.TrimSuffix(d.Cfg.BaseURL, "/") + path
	if after, ok := strings.CutPrefix(base, "https://"); ok {
		return "wss://" + after
	}
	return "ws://" + strings.TrimPrefix(base, "http://")
}

func (d *Deps) newDeviceCredential(c *gin.Context) (deviceID string, tokenString string, err error) {
	deviceID = c.Query("device_id")
	if deviceID == "" {
		deviceID = uuid.NewString()
	}

	tokenString, err = d.Tokens.NewDeviceToken(deviceID)
	return deviceID, tokenString, err
}

func DeviceRoutes(r *gin.RouterGroup, d *Deps) {

	r.GET("/token", func(c *gin.Context) {
		deviceID, tokenString, err := d.newDeviceCredential(c)
		if err != nil {
			slog.Error("Failed to generate device token", "error", err)
			AbortWithError(c, ErrInternalServer)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"device_id": deviceID,
			"token":     tokenString,
			"ws_url":    d.connectURL(c, "/ws"),
		})
	})

	// QR image of the connection URL, scanned by the installer app
	r.GET("/qr.png", func(c *gin.Context) {
		deviceID, tokenString, err := d.newDeviceCredential(c)
		if err != nil {
			slog.Error("Failed to generate device token", "error", err)
			AbortWithError(c, ErrInternalServer)
			return
		}

		connectURL := d.connectURL(c, "/ws?token="+url.QueryEscape(tokenString))

		qrCode, err := qrcode.Encode(connectURL, qrcode.Medium, QR_IMAGE_SIZE)
		if err != nil {
			slog.Error("Failed to generate QR code", "error", err)
			AbortWithError(c, ErrInternalServer)
			return
		}

		slog.Info("Device enrollment QR generated", "device_id", deviceID)
		c.Data(http.StatusOK, "image/png", qrCode)
	})

	r.GET("/connected", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"devices": d.Hub.Len()})
	})
}
