package routes

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"barrier-access-control/internal/storage"
)

type authorizeRequest struct {
	UID string `json:"uid" binding:"required"`
}

type updateCardRequest struct {
	AuthoredAccess *bool      `json:"authored_access"`
	ValidFrom      *time.Time `json:"valid_from"`
	// RFC 3339 timestamp; an empty string clears the upper bound,
	// a missing field leaves it unchanged.
	ValidTo *string `json:"valid_to"`
}

func CardRoutes(r *gin.RouterGroup, d *Deps) {

	// List cards with pagination
	r.GET("", func(c *gin.Context) {
		offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
		limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))

		ctx := c.Request.Context()
		cards, err := d.Store.ListCards(ctx, offset, limit)
		if err != nil {
			slog.Error("Failed to list cards", "error", err)
			AbortWithError(c, ErrInternalServer)
			return
		}

		total, err := d.Store.CountCards(ctx)
		if err != nil {
			slog.Error("Failed to count cards", "error", err)
			AbortWithError(c, ErrInternalServer)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"cards":  cards,
			"total":  total,
			"offset": offset,
		})
	})

	// Synchronous authorization check, no device involved
	r.POST("/authorize", func(c *gin.Context) {
		var req authorizeRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			AbortWithError(c, ErrInvalidRequest)
			return
		}

		decision, err := d.Access.Authorize(c.Request.Context(), req.UID, time.Now().UTC())
		if err != nil {
			slog.Error("Authorization check failed", "uid", req.UID, "error", err)
			AbortWithError(c, ErrInternalServer)
			return
		}

		c.JSON(http.StatusOK, decision)
	})

	r.PATCH("/:uid", func(c *gin.Context) {
		uid := c.Param("uid")

		var req updateCardRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			AbortWithError(c, ErrInvalidRequest)
			return
		}

		patch := storage.CardPatch{
			AuthoredAccess: req.AuthoredAccess,
			ValidFrom:      req.ValidFrom,
		}
		if req.ValidTo != nil {
			if *req.ValidTo == "" {
				patch.ClearValidTo = true
			} else {
				validTo, err := time.Parse(time.RFC3339, *req.ValidTo)
				if err != nil {
					AbortWithHTTPError(c, http.StatusBadRequest, err,
						"valid_to must be an RFC 3339 timestamp or empty", "INVALID_TIMESTAMP")
					return
				}
				patch.ValidTo = &validTo
			}
		}

		card, err := d.Store.UpdateCard(c.Request.Context(), uid, patch)
		if err != nil {
			AbortWithError(c, err)
			return
		}

		c.JSON(http.StatusOK, card)
	})

	r.DELETE("/:uid", func(c *gin.Context) {
		uid := c.Param("uid")

		if err := d.Store.DeleteCard(c.Request.Context(), uid); err != nil {
			AbortWithError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"status": "deleted", "uid": uid})
	})
}
