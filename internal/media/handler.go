package media

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"vidscope-backend/internal/shared/server/middleware"
	"vidscope-backend/internal/shared/server/respond"
)

// Handler wires HTTP handlers to the service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches media routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/media", h.upload)
	rg.GET("/media/current", h.current)
	rg.PATCH("/media/current/duration", h.setDuration)
}

func (h *Handler) upload(c *gin.Context) {
	sessionID := middleware.SessionIDFromContext(c)
	// One extra KiB of slack for the multipart framing around the file.
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.Svc.MaxUploadBytes+1024)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "file is required", nil)
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "unable to read file", nil)
		return
	}
	defer file.Close()

	declaredMime := fileHeader.Header.Get("Content-Type")
	m, err := h.Svc.Upload(c.Request.Context(), sessionID, fileHeader.Filename, declaredMime, fileHeader.Size, file)
	if err != nil {
		var verr *ValidationError
		switch {
		case errors.As(err, &verr):
			code := ErrorCodeWrongType
			if verr.Reason == RejectTooLarge {
				code = ErrorCodeTooLarge
			}
			respond.Error(c, http.StatusBadRequest, code, verr.Message, gin.H{"reason": verr.Reason})
		case errors.Is(err, ErrInvalidInput):
			respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to store upload", nil)
		}
		return
	}

	c.Set("mediaId", m.ID)
	respond.JSON(c, http.StatusCreated, toResponse(m))
}

func (h *Handler) current(c *gin.Context) {
	sessionID := middleware.SessionIDFromContext(c)

	m, err := h.Svc.Current(c.Request.Context(), sessionID)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "no media uploaded", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to fetch media", nil)
		}
		return
	}

	respond.JSON(c, http.StatusOK, toResponse(m))
}

type durationRequest struct {
	DurationSeconds float64 `json:"durationSeconds"`
}

func (h *Handler) setDuration(c *gin.Context) {
	sessionID := middleware.SessionIDFromContext(c)

	var req durationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}

	m, err := h.Svc.SetDuration(c.Request.Context(), sessionID, req.DurationSeconds)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidInput):
			respond.Error(c, http.StatusBadRequest, "validation_error", "durationSeconds must be positive", nil)
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "no media uploaded", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to update duration", nil)
		}
		return
	}

	respond.JSON(c, http.StatusOK, toResponse(m))
}

func toResponse(m Media) gin.H {
	resp := gin.H{
		"mediaId":    m.ID,
		"fileName":   m.FileName,
		"mimeType":   m.MimeType,
		"sizeBytes":  m.SizeBytes,
		"previewKey": m.StorageKey,
		"uploadedAt": m.CreatedAt,
	}
	if m.DurationSeconds != nil {
		resp["durationSeconds"] = *m.DurationSeconds
	}
	return resp
}
