package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"barrier-access-control/internal/access"
	"barrier-access-control/internal/barrier"
	"barrier-access-control/internal/burn"
	"barrier-access-control/internal/config"
	"barrier-access-control/internal/hub"
	"barrier-access-control/internal/storage"
	"barrier-access-control/internal/token"
)

// Deps carries the wired services the route handlers need.
type Deps struct {
	Cfg     *config.Config
	Store   storage.Provider
	Hub     *hub.Hub
	Barrier *barrier.Controller
	Burn    *burn.Coordinator
	Access  *access.Service
	Tokens  *token.Manager
}

func Register(r *gin.Engine, d *Deps) {
	r.Use(IPAccessControl(d.Cfg.AllowedNetworks))
	r.Use(securityHeaders)
	r.Use(ErrorHandler())

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	// Persistent device channel
	r.GET("/ws", DeviceWS(d))

	api := r.Group("/api")
	api.POST("/login", Login(d))

	authed := api.Group("", AuthMiddleware(d))
	authed.POST("/logout", Logout(d))

	CardRoutes(authed.Group("/cards"), d)
	BurnRoutes(authed.Group("/burn"), d)
	BarrierRoutes(authed.Group("/barrier"), d)
	DeviceRoutes(authed.Group("/devices"), d)
}
