package http

import (
	"net/http"

	"chatlink/internal/core/ports"

	"github.com/gin-gonic/gin"
)

// PresenceHandler serves the online-user roster over REST. It reads the
// presence store mirror, so it works from any instance, not just the one
// holding the websocket connections.
type PresenceHandler struct {
	presenceStore ports.PresenceStore
}

func NewPresenceHandler(presenceStore ports.PresenceStore) *PresenceHandler {
	return &PresenceHandler{
		presenceStore: presenceStore,
	}
}

func (h *PresenceHandler) SetupRoutes(router *gin.Engine, authMiddleware gin.HandlerFunc) {
	api := router.Group("/api/v1")
	api.Use(authMiddleware)
	{
		api.GET("/presence", h.ListOnline)
	}
}

func (h *PresenceHandler) ListOnline(c *gin.Context) {
	users, err := h.presenceStore.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load presence"})
		return
	}

	// Empty roster serializes as [], not null
	ids := make([]string, 0, len(users))
	for _, u := range users {
		ids = append(ids, string(u))
	}

	c.JSON(http.StatusOK, gin.H{
		"online_users": ids,
		"count":        len(ids),
	})
}
