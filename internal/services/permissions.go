package services

import "github.com/mvibe/marketplace/internal/models"

// Permissions tells a viewer which controls a project offers them.
type Permissions struct {
	CanEdit   bool `json:"can_edit"`
	CanDelete bool `json:"can_delete"`
	CanReview bool `json:"can_review"`
}

// PermissionsFor compares the viewer with the project's owner. An empty
// viewerID is an anonymous visitor.
func PermissionsFor(viewerID string, p *models.Project) Permissions {
	if viewerID == "" || p == nil {
		return Permissions{}
	}
	owner := p.UserID == viewerID
	return Permissions{
		CanEdit:   owner,
		CanDelete: owner,
		CanReview: !owner,
	}
}

// IsOwner reports whether userID owns p.
func IsOwner(userID string, p *models.Project) bool {
	return userID != "" && p != nil && p.UserID == userID
}

// ProjectView is a project as rendered for one viewer.
type ProjectView struct {
	models.Project
	CardColor   string      `json:"card_color,omitempty"`
	Permissions Permissions `json:"permissions"`
}

func NewProjectView(viewerID string, p *models.Project) ProjectView {
	return ProjectView{
		Project:     *p,
		CardColor:   p.CardColor(),
		Permissions: PermissionsFor(viewerID, p),
	}
}

func NewProjectViews(viewerID string, projects []models.Project) []ProjectView {
	views := make([]ProjectView, 0, len(projects))
	for i := range projects {
		views = append(views, NewProjectView(viewerID, &projects[i]))
	}
	return views
}
