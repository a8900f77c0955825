package handlers

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mvibe/marketplace/internal/middleware"
	"github.com/mvibe/marketplace/internal/models"
	"github.com/mvibe/marketplace/internal/services"
	"github.com/mvibe/marketplace/pkg/logger"
	"github.com/mvibe/marketplace/pkg/response"
	"gorm.io/gorm"
)

type ProjectHandler struct {
	projectService *services.ProjectService
	queue          services.TaskQueue
	hub            *services.SSEHub
}

func NewProjectHandler(db *gorm.DB, queue services.TaskQueue, hub *services.SSEHub) *ProjectHandler {
	return &ProjectHandler{
		projectService: services.NewProjectService(db),
		queue:          queue,
		hub:            hub,
	}
}

// List returns every published project in the requested order. A failed
// query degrades to an empty catalog.
// GET /api/projects?sort=newest|popular
func (h *ProjectHandler) List(c *gin.Context) {
	mode, err := services.ParseSortMode(c.Query("sort"))
	if err != nil {
		respondError(c, err, "")
		return
	}

	projects, err := h.projectService.ListPublished(c.Request.Context(), mode)
	if err != nil {
		logger.FromGin(c).Error().Err(err).Msg("Error fetching projects")
		projects = []models.Project{}
	}

	response.Success(c, gin.H{
		"sort":  mode,
		"items": services.NewProjectViews(middleware.GetUserID(c), projects),
	})
}

// ListMine returns the signed-in user's projects.
// GET /api/profile/projects?sort=newest|popular
func (h *ProjectHandler) ListMine(c *gin.Context) {
	mode, err := services.ParseSortMode(c.Query("sort"))
	if err != nil {
		respondError(c, err, "")
		return
	}

	userID := middleware.GetUserID(c)
	projects, err := h.projectService.ListByOwner(c.Request.Context(), userID, mode)
	if err != nil {
		logger.FromGin(c).Error().Err(err).Msg("Error fetching user projects")
		projects = []models.Project{}
	}

	response.Success(c, gin.H{
		"sort":  mode,
		"items": services.NewProjectViews(userID, projects),
	})
}

// GetByID returns one project and counts a view when the viewer is not the owner.
// GET /api/projects/:id
func (h *ProjectHandler) GetByID(c *gin.Context) {
	project, err := h.projectService.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err, "Failed to load app")
		return
	}

	viewerID := middleware.GetUserID(c)
	if !services.IsOwner(viewerID, project) {
		h.recordView(c, project.ID, viewerID)
	}

	response.Success(c, services.NewProjectView(viewerID, project))
}

func (h *ProjectHandler) recordView(c *gin.Context, projectID, viewerID string) {
	if h.queue == nil {
		return
	}
	err := h.queue.Enqueue(c.Request.Context(), &services.ViewTask{
		ProjectID: projectID,
		ViewerID:  viewerID,
		ViewedAt:  time.Now(),
	})
	if err != nil {
		logger.FromGin(c).Warn().Err(err).Str("project_id", projectID).Msg("view not recorded")
	}
}

// Permissions tells the viewer which controls the project offers them.
// GET /api/projects/:id/permissions
func (h *ProjectHandler) Permissions(c *gin.Context) {
	project, err := h.projectService.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err, "Failed to load app")
		return
	}
	response.Success(c, services.PermissionsFor(middleware.GetUserID(c), project))
}

// Create creates a new project
// POST /api/projects
func (h *ProjectHandler) Create(c *gin.Context) {
	var req services.ProjectInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	userID := middleware.GetUserID(c)
	project, err := h.projectService.Create(c.Request.Context(), userID, &req)
	if err != nil {
		respondError(c, err, MsgSaveFailed)
		return
	}

	h.hub.Notify(services.EventProjectCreated, project.ID, userID)
	response.Created(c, services.NewProjectView(userID, project))
}

// Update updates a project
// PUT /api/projects/:id
func (h *ProjectHandler) Update(c *gin.Context) {
	var req services.ProjectInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	userID := middleware.GetUserID(c)
	project, err := h.projectService.Update(c.Request.Context(), userID, c.Param("id"), &req)
	if err != nil {
		respondError(c, err, MsgSaveFailed)
		return
	}

	h.hub.Notify(services.EventProjectUpdated, project.ID, userID)
	response.Success(c, services.NewProjectView(userID, project))
}

// Delete deletes a project once the request carries exactly confirm=true.
// DELETE /api/projects/:id?confirm=true
func (h *ProjectHandler) Delete(c *gin.Context) {
	confirmed := c.Query("confirm") == "true"

	userID := middleware.GetUserID(c)
	id := c.Param("id")
	if err := h.projectService.Delete(c.Request.Context(), userID, id, confirmed); err != nil {
		respondError(c, err, MsgDeleteFailed)
		return
	}

	h.hub.Notify(services.EventProjectDeleted, id, userID)
	response.Success(c, gin.H{"message": "app deleted", "id": id})
}
