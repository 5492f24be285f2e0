package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/sem0ark/projecthub/internal/blob"
	"github.com/sem0ark/projecthub/internal/store"
	"github.com/sem0ark/projecthub/internal/types"
)

type Logos struct {
	guard
	projects *store.ProjectStore
	blobs    blob.Store
	logoSize int
}

func NewLogos(projects *store.ProjectStore, blobs blob.Store, logoSize int) *Logos {
	return &Logos{
		guard:    guard{projects: projects},
		projects: projects,
		blobs:    blobs,
		logoSize: logoSize,
	}
}

func (h *Logos) Download(ctx *gin.Context) {
	projectID, ok := parseID(ctx.Param("project_id"))

	if !ok {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "Project not found"})
		return
	}

	project, ok := h.participant(ctx, projectID)

	if !ok {
		return
	}

	if project.LogoID == nil {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "Project does not have a logo"})
		return
	}

	rc, size, err := h.blobs.Open(ctx.Request.Context(), *project.LogoID)

	if err != nil {
		if errors.Is(err, blob.ErrNotFound) {
			log.Warn().Str("logo_id", *project.LogoID).Msg("logo reference has no blob")
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Project does not have a logo"})
			return
		}
		log.Error().Err(err).Str("logo_id", *project.LogoID).Msg("failed to open logo blob")
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to download logo"})
		return
	}
	defer rc.Close()

	extraHeaders := map[string]string{
		"Content-Disposition": `inline; filename="logo.jpg"`,
	}

	ctx.DataFromReader(http.StatusOK, size, "image/jpeg", rc, extraHeaders)
}

// Upload replaces the project logo: the previous blob is deleted
// best-effort, the new logo ID is persisted, then the image is
// transformed and written. A failed write rolls the logo reference back
// to unset.
func (h *Logos) Upload(ctx *gin.Context) {
	projectID, ok := parseID(ctx.Param("project_id"))

	if !ok {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "Project not found"})
		return
	}

	project, ok := h.participant(ctx, projectID)

	if !ok {
		return
	}

	file, err := ctx.FormFile("file")

	if err != nil {
		ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": "file is required"})
		return
	}

	if !allowedUpload(file, types.AllowedLogoMIMETypes, types.AllowedLogoExtensions) {
		ctx.JSON(http.StatusUnprocessableEntity, gin.H{
			"error": fmt.Sprintf("Allowed file formats are: %v", types.AllowedLogoExtensions),
		})
		return
	}

	if project.LogoID != nil {
		if err := h.blobs.Delete(ctx.Request.Context(), *project.LogoID); err != nil {
			if errors.Is(err, blob.ErrNotFound) {
				log.Warn().Str("logo_id", *project.LogoID).Msg("previous logo blob already gone")
			} else {
				log.Error().Err(err).Str("logo_id", *project.LogoID).Msg("failed to delete previous logo blob")
				ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update logo"})
				return
			}
		}
	}

	logoID := uuid.NewString()

	if err := h.projects.SetLogo(ctx.Request.Context(), projectID, logoID); err != nil {
		log.Error().Err(err).Uint("project_id", projectID).Msg("failed to persist logo reference")
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update logo"})
		return
	}

	src, err := file.Open()

	if err == nil {
		defer src.Close()
		err = blob.SaveImage(ctx.Request.Context(), h.blobs, logoID, src, h.logoSize)
	}

	if err != nil {
		log.Error().Err(err).Uint("project_id", projectID).Msg("failed to store logo")

		if clearErr := h.projects.ClearLogo(ctx.Request.Context(), projectID); clearErr != nil {
			log.Error().Err(clearErr).Uint("project_id", projectID).Msg("failed to roll back logo reference")
		}

		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update logo"})
		return
	}

	ctx.Status(http.StatusCreated)
}

// Delete clears the logo. The blob goes first; when that fails with
// anything but ErrNotFound the reference is left untouched so the blob
// is not orphaned silently.
func (h *Logos) Delete(ctx *gin.Context) {
	projectID, ok := parseID(ctx.Param("project_id"))

	if !ok {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "Project not found"})
		return
	}

	project, ok := h.owner(ctx, projectID)

	if !ok {
		return
	}

	if project.LogoID == nil {
		ctx.Status(http.StatusNoContent)
		return
	}

	if err := h.blobs.Delete(ctx.Request.Context(), *project.LogoID); err != nil {
		if errors.Is(err, blob.ErrNotFound) {
			log.Warn().Str("logo_id", *project.LogoID).Msg("logo blob already gone")
		} else {
			log.Error().Err(err).Str("logo_id", *project.LogoID).Msg("failed to delete logo blob")
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete logo"})
			return
		}
	}

	if err := h.projects.ClearLogo(ctx.Request.Context(), projectID); err != nil {
		log.Error().Err(err).Uint("project_id", projectID).Msg("failed to clear logo reference")
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete logo"})
		return
	}

	ctx.Status(http.StatusNoContent)
}
