package http

import (
	"net/http"
	"time"

	"chatlink/internal/core/domain"
	"chatlink/internal/core/services"
	"chatlink/pkg/errors"
	"chatlink/pkg/utils"
	"chatlink/pkg/validation"

	"github.com/gin-gonic/gin"
)

// MediaHandler issues room tokens for the external media transport. The
// caller must already be authenticated; the token is bound to their user ID.
type MediaHandler struct {
	mediaTokens services.MediaTokenService
	tokenTTL    time.Duration
}

func NewMediaHandler(mediaTokens services.MediaTokenService, tokenTTL time.Duration) *MediaHandler {
	return &MediaHandler{
		mediaTokens: mediaTokens,
		tokenTTL:    tokenTTL,
	}
}

func (h *MediaHandler) SetupRoutes(router *gin.Engine, authMiddleware gin.HandlerFunc) {
	api := router.Group("/api/v1/media")
	api.Use(authMiddleware)
	{
		api.POST("/token", h.RoomToken)
	}
}

type RoomTokenRequest struct {
	// RoomID may be omitted; the server mints a fresh room then.
	RoomID string `json:"room_id" binding:"max=128"`
}

func (h *MediaHandler) RoomToken(c *gin.Context) {
	var req RoomTokenRequest
	if err := c.BindJSON(&req); err != nil {
		c.Error(errors.NewInvalidInputError("invalid request format"))
		return
	}

	if req.RoomID == "" {
		req.RoomID = utils.GenerateRoomID()
	}
	if err := validation.ValidateRoomID(req.RoomID); err != nil {
		c.Error(errors.NewInvalidInputError(err.Error()))
		return
	}

	userIDValue, exists := c.Get("user_id")
	if !exists {
		c.Error(errors.NewUnauthorizedError("missing authenticated user"))
		return
	}
	userID, ok := userIDValue.(domain.UserID)
	if !ok {
		c.Error(errors.NewUnauthorizedError("missing authenticated user"))
		return
	}

	token, err := h.mediaTokens.RoomToken(userID, req.RoomID)
	if err != nil {
		c.Error(errors.NewInternalError("failed to mint media token", err).WithContext("room_id", req.RoomID))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":      token,
		"room_id":    req.RoomID,
		"expires_in": int(h.tokenTTL / time.Second),
	})
}
