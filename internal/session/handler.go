package session

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"vidscope-backend/internal/shared/server/middleware"
	"vidscope-backend/internal/shared/server/respond"
)

// Handler exposes the session reset endpoint.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches session routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/session/reset", h.reset)
}

func (h *Handler) reset(c *gin.Context) {
	sessionID := middleware.SessionIDFromContext(c)
	result, err := h.Svc.Reset(c.Request.Context(), sessionID)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to reset session", nil)
		return
	}
	respond.JSON(c, http.StatusOK, gin.H{
		"ok":            true,
		"mediaReleased": result.MediaReleased,
	})
}
