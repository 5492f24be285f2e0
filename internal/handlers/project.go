package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/sem0ark/projecthub/internal/models"
	"github.com/sem0ark/projecthub/internal/store"
	"github.com/sem0ark/projecthub/internal/types"
	"github.com/sem0ark/projecthub/internal/utils"
)

type Projects struct {
	guard
	projects *store.ProjectStore
	users    *store.UserStore
}

func NewProjects(projects *store.ProjectStore, users *store.UserStore) *Projects {
	return &Projects{
		guard:    guard{projects: projects},
		projects: projects,
		users:    users,
	}
}

type CreateProjectRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

type UpdateProjectRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

func projectResponse(project *models.Project) types.ProjectResponse {
	return types.ProjectResponse{
		ID:          project.ID,
		Name:        project.Name,
		Description: project.Description,
		LogoID:      project.LogoID,
	}
}

func (h *Projects) Create(ctx *gin.Context) {
	var body CreateProjectRequest

	if err := ctx.ShouldBindJSON(&body); err != nil {
		ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": "name is required"})
		return
	}

	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	project, err := h.projects.Create(ctx.Request.Context(), body.Name, body.Description, userID)

	if err != nil {
		log.Error().Err(err).Msg("failed to create project")
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create project"})
		return
	}

	ctx.JSON(http.StatusCreated, projectResponse(project))
}

func (h *Projects) List(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	limit, offset := pagination(ctx)

	projects, err := h.projects.ListAccessible(ctx.Request.Context(), userID, limit, offset)

	if err != nil {
		log.Error().Err(err).Msg("failed to list projects")
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve projects"})
		return
	}

	response := make([]types.ProjectResponse, 0, len(projects))

	for i := range projects {
		response = append(response, projectResponse(&projects[i]))
	}

	ctx.JSON(http.StatusOK, response)
}

func (h *Projects) Get(ctx *gin.Context) {
	projectID, ok := parseID(ctx.Param("project_id"))

	if !ok {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "Project not found"})
		return
	}

	project, ok := h.participant(ctx, projectID)

	if !ok {
		return
	}

	ctx.JSON(http.StatusOK, projectResponse(project))
}

func (h *Projects) Update(ctx *gin.Context) {
	projectID, ok := parseID(ctx.Param("project_id"))

	if !ok {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "Project not found"})
		return
	}

	if _, ok := h.participant(ctx, projectID); !ok {
		return
	}

	var body UpdateProjectRequest

	if err := ctx.ShouldBindJSON(&body); err != nil {
		ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Invalid request"})
		return
	}

	project, err := h.projects.Update(ctx.Request.Context(), projectID, store.ProjectUpdate{
		Name:        body.Name,
		Description: body.Description,
	})

	if err != nil {
		log.Error().Err(err).Uint("project_id", projectID).Msg("failed to update project")
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update project"})
		return
	}

	ctx.JSON(http.StatusOK, projectResponse(project))
}

func (h *Projects) Delete(ctx *gin.Context) {
	projectID, ok := parseID(ctx.Param("project_id"))

	if !ok {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "Project not found"})
		return
	}

	if _, ok := h.owner(ctx, projectID); !ok {
		return
	}

	if err := h.projects.Delete(ctx.Request.Context(), projectID); err != nil {
		log.Error().Err(err).Uint("project_id", projectID).Msg("failed to delete project")
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete project"})
		return
	}

	ctx.Status(http.StatusNoContent)
}

func (h *Projects) Invite(ctx *gin.Context) {
	projectID, ok := parseID(ctx.Param("project_id"))

	if !ok {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "Project not found"})
		return
	}

	login := ctx.Query("login")

	if login == "" {
		ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": "login query parameter is required"})
		return
	}

	project, ok := h.owner(ctx, projectID)

	if !ok {
		return
	}

	invitee, err := h.users.GetByLogin(ctx.Request.Context(), login)

	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		log.Error().Err(err).Str("login", login).Msg("failed to fetch invitee")
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	if err := h.projects.Grant(ctx.Request.Context(), projectID, invitee.ID); err != nil {
		if errors.Is(err, store.ErrAlreadyGranted) {
			ctx.JSON(http.StatusConflict, gin.H{"error": "Permission is already granted"})
			return
		}
		log.Error().Err(err).Uint("project_id", projectID).Msg("failed to grant access")
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{
		"message": fmt.Sprintf("Granted user %q access to project %q", invitee.Login, project.Name),
	})
}
