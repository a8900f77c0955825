package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mvibe/marketplace/internal/middleware"
	"github.com/mvibe/marketplace/internal/services"
	"github.com/mvibe/marketplace/internal/storage"
	"github.com/mvibe/marketplace/pkg/logger"
	"github.com/mvibe/marketplace/pkg/response"
	"gorm.io/gorm"
)

// multipart framing allowance on top of the file size cap
const formOverhead = 1 << 20

// UploadHandler stores screenshot images and attaches them to projects.
type UploadHandler struct {
	store          storage.ObjectStore
	projectService *services.ProjectService
	hub            *services.SSEHub
	maxBytes       int64
}

func NewUploadHandler(db *gorm.DB, store storage.ObjectStore, hub *services.SSEHub, maxBytes int64) *UploadHandler {
	return &UploadHandler{
		store:          store,
		projectService: services.NewProjectService(db),
		hub:            hub,
		maxBytes:       maxBytes,
	}
}

// saveUpload writes the multipart "file" field under the user's namespace
// and returns its public URL.
func (h *UploadHandler) saveUpload(c *gin.Context, userID string) (string, error) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBytes+formOverhead)

	fh, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return "", errUploadTooLarge
		}
		return "", response.NewBadRequest("file is required")
	}
	if fh.Size > h.maxBytes {
		return "", errUploadTooLarge
	}

	f, err := fh.Open()
	if err != nil {
		return "", err
	}
	defer f.Close()

	mt, r, err := storage.DetectImage(f)
	if err != nil {
		return "", err
	}

	key := storage.ObjectKey(userID, time.Now(), mt.Extension())
	if err := h.store.Put(c.Request.Context(), key, r, mt.String()); err != nil {
		return "", err
	}

	logger.FromGin(c).Info().Str("key", key).Int64("size", fh.Size).Msg("image uploaded")
	return h.store.PublicURL(key), nil
}

// Upload stores an image and returns its public URL.
// POST /api/uploads (multipart, field "file")
func (h *UploadHandler) Upload(c *gin.Context) {
	url, err := h.saveUpload(c, middleware.GetUserID(c))
	if err != nil {
		respondError(c, err, MsgUploadFailed)
		return
	}
	response.Created(c, gin.H{"url": url})
}

type screenshotRequest struct {
	URL string `json:"url" binding:"required"`
}

// AddScreenshot appends a screenshot, either an external URL (JSON) or an
// uploaded image (multipart). The limit is checked before anything is stored.
// POST /api/projects/:id/screenshots
func (h *UploadHandler) AddScreenshot(c *gin.Context) {
	ctx := c.Request.Context()
	userID := middleware.GetUserID(c)
	id := c.Param("id")

	var shotURL string
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		if _, err := h.projectService.CheckScreenshotCapacity(ctx, userID, id); err != nil {
			respondError(c, err, MsgUploadFailed)
			return
		}
		url, err := h.saveUpload(c, userID)
		if err != nil {
			respondError(c, err, MsgUploadFailed)
			return
		}
		shotURL = url
	} else {
		var req screenshotRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, err.Error())
			return
		}
		shotURL = req.URL
	}

	project, err := h.projectService.AddScreenshot(ctx, userID, id, shotURL)
	if err != nil {
		respondError(c, err, MsgSaveFailed)
		return
	}

	h.hub.Notify(services.EventScreenshotsChanged, project.ID, userID)
	response.Success(c, gin.H{"id": project.ID, "screenshots": project.Screenshots})
}

// RemoveScreenshot drops one screenshot by position. The stored object, if
// any, is kept.
// DELETE /api/projects/:id/screenshots/:index
func (h *UploadHandler) RemoveScreenshot(c *gin.Context) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		response.BadRequest(c, "invalid screenshot index")
		return
	}

	userID := middleware.GetUserID(c)
	project, err := h.projectService.RemoveScreenshot(c.Request.Context(), userID, c.Param("id"), index)
	if err != nil {
		respondError(c, err, MsgSaveFailed)
		return
	}

	h.hub.Notify(services.EventScreenshotsChanged, project.ID, userID)
	response.Success(c, gin.H{"id": project.ID, "screenshots": project.Screenshots})
}
