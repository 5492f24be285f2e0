package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/sem0ark/projecthub/internal/models"
	"github.com/sem0ark/projecthub/internal/store"
	"github.com/sem0ark/projecthub/internal/utils"
)

// guard resolves the caller's role on a project and enforces the access
// policy: 404 when the project does not exist, 403 when it exists but the
// caller holds no (or an insufficient) role. On failure the response is
// already written and the bool is false.
type guard struct {
	projects *store.ProjectStore
}

func (g *guard) participant(ctx *gin.Context, projectID uint) (*models.Project, bool) {
	return g.require(ctx, projectID, false)
}

func (g *guard) owner(ctx *gin.Context, projectID uint) (*models.Project, bool) {
	return g.require(ctx, projectID, true)
}

func (g *guard) require(ctx *gin.Context, projectID uint, ownerOnly bool) (*models.Project, bool) {
	user, err := utils.GetCurrentUser(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return nil, false
	}

	project, err := g.projects.Get(ctx.Request.Context(), projectID)

	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Project not found"})
		} else {
			log.Error().Err(err).Uint("project_id", projectID).Msg("failed to fetch project")
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		}
		return nil, false
	}

	role, err := g.projects.RoleOf(ctx.Request.Context(), projectID, user.ID)

	if err != nil {
		if errors.Is(err, store.ErrNoAccess) {
			ctx.JSON(http.StatusForbidden, gin.H{"error": "You don't have access to the project"})
		} else {
			log.Error().Err(err).Uint("project_id", projectID).Msg("failed to resolve project role")
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		}
		return nil, false
	}

	if ownerOnly && role != models.RoleOwner {
		ctx.JSON(http.StatusForbidden, gin.H{"error": "You are not the project owner"})
		return nil, false
	}

	return project, true
}
