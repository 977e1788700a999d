package routes

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"barrier-access-control/internal/burn"
)

type burnRequest struct {
	AuthoredAccess bool       `json:"authored_access"`
	ValidFrom      time.Time  `json:"valid_from" binding:"required"`
	ValidTo        *time.Time `json:"valid_to"`
}

type durationRequest struct {
	BarrierOpenSec *int `json:"barrier_open_sec" binding:"required"`
}

func BurnRoutes(r *gin.RouterGroup, d *Deps) {

	// Stage attributes and command all devices to burn the next card
	r.POST("", func(c *gin.Context) {
		var req burnRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			AbortWithError(c, ErrInvalidRequest)
			return
		}

		attrs := burn.Attributes{
			AuthoredAccess: req.AuthoredAccess,
			ValidFrom:      req.ValidFrom,
			ValidTo:        req.ValidTo,
		}

		if err := d.Burn.Initiate(c.Request.Context(), attrs); err != nil {
			AbortWithError(c, err)
			return
		}

		c.JSON(http.StatusAccepted, gin.H{
			"status":  string(d.Burn.Status()),
			"devices": d.Hub.Len(),
		})
	})

	r.GET("", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": string(d.Burn.Status())})
	})

	// Clear a terminal slot
	r.DELETE("", func(c *gin.Context) {
		if err := d.Burn.Reset(); err != nil {
			AbortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": string(d.Burn.Status())})
	})
}

func BarrierRoutes(r *gin.RouterGroup, d *Deps) {

	r.POST("/open", func(c *gin.Context) {
		if err := d.Barrier.OpenNow(c.Request.Context()); err != nil {
			AbortWithError(c, ErrInternalServer)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":           "open command sent",
			"barrier_open_sec": d.Barrier.OpenSeconds(),
			"devices":          d.Hub.Len(),
		})
	})

	r.PUT("/duration", func(c *gin.Context) {
		var req durationRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			AbortWithError(c, ErrInvalidRequest)
			return
		}

		if err := d.Barrier.SetOpenSeconds(*req.BarrierOpenSec); err != nil {
			AbortWithError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"barrier_open_sec": d.Barrier.OpenSeconds()})
	})

	r.GET("/duration", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"barrier_open_sec": d.Barrier.OpenSeconds()})
	})
}
