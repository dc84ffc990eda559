package media

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"vidscope-backend/internal/shared/server/middleware"
	localstore "vidscope-backend/internal/shared/storage/object/local"
)

func setupMediaRouter(t *testing.T) (*gin.Engine, *MemoryRepo) {
	t.Helper()
	repo := NewMemoryRepo()
	svc := &Service{
		Store:          localstore.New(t.TempDir()),
		Repo:           repo,
		MaxUploadBytes: 100 << 20,
	}
	handler := NewHandler(svc)

	router := gin.New()
	router.Use(middleware.Auth("dev"))
	api := router.Group("/api/v1")
	handler.RegisterRoutes(api)

	return router, repo
}

func multipartUpload(t *testing.T, fileName, contentType, content string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", `form-data; name="file"; filename="`+fileName+`"`)
	header.Set("Content-Type", contentType)
	part, err := w.CreatePart(header)
	if err != nil {
		t.Fatalf("create part: %v", err)
	}
	if _, err := part.Write([]byte(content)); err != nil {
		t.Fatalf("write part: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return &buf, w.FormDataContentType()
}

func TestUploadVideo(t *testing.T) {
	gin.SetMode(gin.TestMode)

	router, repo := setupMediaRouter(t)

	body, contentType := multipartUpload(t, "walkthrough.mp4", "video/mp4", "fake mp4 bytes")
	req := httptest.NewRequest(http.MethodPost, "/api/v1/media", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("X-Session-Id", "upload-session")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", resp.Code, resp.Body.String())
	}

	var created struct {
		MediaID  string `json:"mediaId"`
		FileName string `json:"fileName"`
		MimeType string `json:"mimeType"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if created.MediaID == "" {
		t.Fatal("expected mediaId, got empty")
	}
	if created.FileName != "walkthrough.mp4" {
		t.Fatalf("fileName = %q, want walkthrough.mp4", created.FileName)
	}
	if created.MimeType != "video/mp4" {
		t.Fatalf("mimeType = %q, want video/mp4", created.MimeType)
	}

	stored, err := repo.GetCurrent(req.Context(), "guest:upload-session")
	if err != nil {
		t.Fatalf("media not stored: %v", err)
	}
	if stored.ID != created.MediaID {
		t.Fatalf("stored id = %s, want %s", stored.ID, created.MediaID)
	}
}

func TestUploadRejectsNonVideo(t *testing.T) {
	gin.SetMode(gin.TestMode)

	router, _ := setupMediaRouter(t)

	body, contentType := multipartUpload(t, "photo.png", "image/png", "not a video")
	req := httptest.NewRequest(http.MethodPost, "/api/v1/media", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("X-Session-Id", "upload-session")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), ErrorCodeWrongType) {
		t.Fatalf("error body missing %s: %s", ErrorCodeWrongType, resp.Body.String())
	}
}

func TestUploadReplacesPrior(t *testing.T) {
	gin.SetMode(gin.TestMode)

	router, repo := setupMediaRouter(t)

	for _, name := range []string{"first.mp4", "second.mp4"} {
		body, contentType := multipartUpload(t, name, "video/mp4", "fake mp4 bytes")
		req := httptest.NewRequest(http.MethodPost, "/api/v1/media", body)
		req.Header.Set("Content-Type", contentType)
		req.Header.Set("X-Session-Id", "upload-session")
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)
		if resp.Code != http.StatusCreated {
			t.Fatalf("upload %s: expected 201, got %d", name, resp.Code)
		}
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/media/current", nil)
	req.Header.Set("X-Session-Id", "upload-session")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), "second.mp4") {
		t.Fatalf("current media is not the replacement: %s", resp.Body.String())
	}

	current, err := repo.GetCurrent(req.Context(), "guest:upload-session")
	if err != nil {
		t.Fatalf("GetCurrent: %v", err)
	}
	if current.FileName != "second.mp4" {
		t.Fatalf("current fileName = %q, want second.mp4", current.FileName)
	}
}

func TestCurrentWithoutUpload(t *testing.T) {
	gin.SetMode(gin.TestMode)

	router, _ := setupMediaRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/media/current", nil)
	req.Header.Set("X-Session-Id", "empty-session")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", resp.Code)
	}
}

func TestSetDuration(t *testing.T) {
	gin.SetMode(gin.TestMode)

	router, _ := setupMediaRouter(t)

	body, contentType := multipartUpload(t, "clip.mp4", "video/mp4", "fake mp4 bytes")
	req := httptest.NewRequest(http.MethodPost, "/api/v1/media", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("X-Session-Id", "upload-session")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusCreated {
		t.Fatalf("upload: expected 201, got %d", resp.Code)
	}

	patch := httptest.NewRequest(http.MethodPatch, "/api/v1/media/current/duration",
		strings.NewReader(`{"durationSeconds": 42.5}`))
	patch.Header.Set("Content-Type", "application/json")
	patch.Header.Set("X-Session-Id", "upload-session")
	patched := httptest.NewRecorder()
	router.ServeHTTP(patched, patch)
	if patched.Code != http.StatusOK {
		t.Fatalf("patch duration: expected 200, got %d: %s", patched.Code, patched.Body.String())
	}

	var updated struct {
		DurationSeconds float64 `json:"durationSeconds"`
	}
	if err := json.NewDecoder(patched.Body).Decode(&updated); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if updated.DurationSeconds != 42.5 {
		t.Fatalf("durationSeconds = %v, want 42.5", updated.DurationSeconds)
	}
}
