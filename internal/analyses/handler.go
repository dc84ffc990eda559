package analyses

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"vidscope-backend/internal/shared/server/middleware"
	"vidscope-backend/internal/shared/server/respond"
	"vidscope-backend/internal/usage"
)

// Handler wires HTTP handlers to the analyses service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches analysis routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/analyses", h.startAnalysis)
	rg.GET("/analyses", h.listAnalyses)
	rg.GET("/analyses/:id", h.getAnalysis)
	rg.POST("/analyses/:id/cancel", h.cancelAnalysis)
	rg.GET("/analyses/:id/export", h.exportAnalysis)
}

type startAnalysisRequest struct {
	TaskID   string `json:"taskId"`
	Provider string `json:"provider"`
	Query    string `json:"query"`
}

func (h *Handler) startAnalysis(c *gin.Context) {
	sessionID := middleware.SessionIDFromContext(c)

	var req startAnalysisRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	if req.TaskID == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "taskId is required", nil)
		return
	}

	ctx := WithRequestID(c.Request.Context(), middleware.RequestIDFromContext(c))
	analysis, err := h.Svc.Create(ctx, CreateInput{
		SessionID: sessionID,
		TaskID:    req.TaskID,
		Provider:  req.Provider,
		Query:     req.Query,
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrUnknownTask):
			respond.Error(c, http.StatusBadRequest, "validation_error", "unknown task", []map[string]string{
				{"field": "taskId", "issue": "unknown"},
			})
		case errors.Is(err, ErrUnknownProvider):
			respond.Error(c, http.StatusBadRequest, "validation_error", "unknown provider", []map[string]string{
				{"field": "provider", "issue": "unknown"},
			})
		case errors.Is(err, ErrQueryRequired):
			respond.Error(c, http.StatusBadRequest, "validation_error", "query text is required for this task", []map[string]string{
				{"field": "query", "issue": "required"},
			})
		case errors.Is(err, ErrNoMedia):
			respond.Error(c, http.StatusConflict, "no_media", "Upload a video before starting an analysis.", nil)
		case errors.Is(err, ErrInFlight):
			respond.Error(c, http.StatusConflict, "analysis_in_flight", "An analysis is already running for this session.", nil)
		case errors.Is(err, usage.ErrLimitReached):
			respond.Error(c, http.StatusTooManyRequests, "limit_reached", "You've run out of credits for this period.", []map[string]string{
				{"field": "usage", "issue": "limit_reached"},
			})
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to start analysis", nil)
		}
		return
	}

	c.Set("analysisId", analysis.ID)
	respond.JSON(c, http.StatusAccepted, gin.H{
		"analysisId": analysis.ID,
		"taskId":     analysis.TaskID,
		"provider":   analysis.ProviderID,
		"status":     analysis.Status,
	})
}

func (h *Handler) getAnalysis(c *gin.Context) {
	sessionID := middleware.SessionIDFromContext(c)
	analysisID := c.Param("id")

	analysis, err := h.Svc.Get(c.Request.Context(), sessionID, analysisID)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "analysis not found", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to fetch analysis", nil)
		}
		return
	}

	respond.JSON(c, http.StatusOK, toResponse(analysis))
}

func (h *Handler) listAnalyses(c *gin.Context) {
	sessionID := middleware.SessionIDFromContext(c)

	limit := 20
	offset := 0
	if v := c.Query("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			limit = parsed
		}
	}
	if v := c.Query("offset"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			offset = parsed
		}
	}

	analyses, err := h.Svc.List(c.Request.Context(), sessionID, limit, offset)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list analyses", nil)
		return
	}

	resp := make([]gin.H, 0, len(analyses))
	for _, a := range analyses {
		resp = append(resp, toResponse(a))
	}
	respond.JSON(c, http.StatusOK, resp)
}

func (h *Handler) cancelAnalysis(c *gin.Context) {
	sessionID := middleware.SessionIDFromContext(c)
	analysisID := c.Param("id")

	analysis, err := h.Svc.Cancel(c.Request.Context(), sessionID, analysisID)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "analysis not found", nil)
		case errors.Is(err, ErrNotCancelable):
			respond.Error(c, http.StatusConflict, "not_cancelable", "analysis has already finished", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to cancel analysis", nil)
		}
		return
	}

	respond.JSON(c, http.StatusOK, toResponse(analysis))
}

func (h *Handler) exportAnalysis(c *gin.Context) {
	sessionID := middleware.SessionIDFromContext(c)
	analysisID := c.Param("id")

	buf, name, err := h.Svc.Export(c.Request.Context(), sessionID, analysisID)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "analysis not found", nil)
		case errors.Is(err, ErrNotCompleted):
			respond.Error(c, http.StatusConflict, "not_completed", "analysis has no exportable result yet", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to export analysis", nil)
		}
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	c.Data(http.StatusOK, "application/json", buf)
}

func toResponse(a Analysis) gin.H {
	resp := gin.H{
		"analysisId": a.ID,
		"mediaId":    a.MediaID,
		"taskId":     a.TaskID,
		"provider":   a.ProviderID,
		"status":     a.Status,
		"createdAt":  a.CreatedAt,
	}
	if a.Query != "" {
		resp["query"] = a.Query
	}
	if a.StartedAt != nil {
		resp["startedAt"] = a.StartedAt
	}
	if a.CompletedAt != nil {
		resp["completedAt"] = a.CompletedAt
	}
	if a.Status == StatusCompleted && a.Result != nil {
		resp["result"] = a.Result
	}
	if a.ErrorCode != "" {
		resp["errorCode"] = a.ErrorCode
		resp["errorMessage"] = a.ErrorMessage
	}
	return resp
}
