package handlers

import (
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/sem0ark/projecthub/internal/blob"
	"github.com/sem0ark/projecthub/internal/models"
	"github.com/sem0ark/projecthub/internal/store"
	"github.com/sem0ark/projecthub/internal/types"
)

type Documents struct {
	guard
	documents *store.DocumentStore
	blobs     blob.Store
}

func NewDocuments(projects *store.ProjectStore, documents *store.DocumentStore, blobs blob.Store) *Documents {
	return &Documents{
		guard:     guard{projects: projects},
		documents: documents,
		blobs:     blobs,
	}
}

func documentResponse(document *models.Document) types.DocumentResponse {
	return types.DocumentResponse{
		ID:        document.ID,
		Name:      document.Name,
		ProjectID: document.ProjectID,
	}
}

func (h *Documents) List(ctx *gin.Context) {
	projectID, ok := parseID(ctx.Param("project_id"))

	if !ok {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "Project not found"})
		return
	}

	if _, ok := h.participant(ctx, projectID); !ok {
		return
	}

	limit, offset := pagination(ctx)

	documents, err := h.documents.ListForProject(ctx.Request.Context(), projectID, limit, offset)

	if err != nil {
		log.Error().Err(err).Uint("project_id", projectID).Msg("failed to list documents")
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve documents"})
		return
	}

	response := make([]types.DocumentResponse, 0, len(documents))

	for i := range documents {
		response = append(response, documentResponse(&documents[i]))
	}

	ctx.JSON(http.StatusOK, response)
}

// Upload writes the metadata row first and the blob second. When the blob
// write fails, the fresh row is removed again so no dangling metadata
// survives the request.
func (h *Documents) Upload(ctx *gin.Context) {
	projectID, ok := parseID(ctx.Param("project_id"))

	if !ok {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "Project not found"})
		return
	}

	if _, ok := h.participant(ctx, projectID); !ok {
		return
	}

	file, err := ctx.FormFile("file")

	if err != nil {
		ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": "file is required"})
		return
	}

	if !allowedUpload(file, types.AllowedDocumentMIMETypes, types.AllowedDocumentExtensions) {
		ctx.JSON(http.StatusUnprocessableEntity, gin.H{
			"error": fmt.Sprintf("Allowed file formats are: %v", types.AllowedDocumentExtensions),
		})
		return
	}

	document, err := h.documents.Create(ctx.Request.Context(), projectID, file.Filename)

	if err != nil {
		log.Error().Err(err).Uint("project_id", projectID).Msg("failed to create document")
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create document"})
		return
	}

	if err := h.saveUpload(ctx, document.ID, file); err != nil {
		log.Error().Err(err).Str("document_id", document.ID).Msg("failed to store document blob")

		if deleteErr := h.documents.Delete(ctx.Request.Context(), document.ID); deleteErr != nil {
			log.Error().Err(deleteErr).Str("document_id", document.ID).Msg("failed to roll back document row")
		}

		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store document"})
		return
	}

	ctx.JSON(http.StatusCreated, documentResponse(document))
}

func (h *Documents) Download(ctx *gin.Context) {
	document, ok := h.loadDocument(ctx)

	if !ok {
		return
	}

	if _, ok := h.participant(ctx, document.ProjectID); !ok {
		return
	}

	rc, size, err := h.blobs.Open(ctx.Request.Context(), document.ID)

	if err != nil {
		if errors.Is(err, blob.ErrNotFound) {
			// Metadata without bytes: a crash between the row write and
			// the blob write, left for the sweeper to reconcile.
			log.Warn().Str("document_id", document.ID).Msg("document row has no blob")
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Document content not found"})
			return
		}
		log.Error().Err(err).Str("document_id", document.ID).Msg("failed to open document blob")
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to download document"})
		return
	}
	defer rc.Close()

	extraHeaders := map[string]string{
		"Content-Disposition": fmt.Sprintf("attachment; filename=%q", document.Name),
	}

	ctx.DataFromReader(http.StatusOK, size, "application/octet-stream", rc, extraHeaders)
}

// Replace renames the row (an empty client filename keeps the previous
// name), then overwrites the blob. A failed blob write leaves the old
// bytes or a partial object depending on the backend; the row keeps
// pointing at the same ID either way.
func (h *Documents) Replace(ctx *gin.Context) {
	document, ok := h.loadDocument(ctx)

	if !ok {
		return
	}

	if _, ok := h.participant(ctx, document.ProjectID); !ok {
		return
	}

	file, err := ctx.FormFile("file")

	if err != nil {
		ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": "file is required"})
		return
	}

	if !allowedUpload(file, types.AllowedDocumentMIMETypes, types.AllowedDocumentExtensions) {
		ctx.JSON(http.StatusUnprocessableEntity, gin.H{
			"error": fmt.Sprintf("Allowed file formats are: %v", types.AllowedDocumentExtensions),
		})
		return
	}

	if err := h.documents.Rename(ctx.Request.Context(), document, file.Filename); err != nil {
		log.Error().Err(err).Str("document_id", document.ID).Msg("failed to rename document")
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update document"})
		return
	}

	if err := h.saveUpload(ctx, document.ID, file); err != nil {
		log.Error().Err(err).Str("document_id", document.ID).Msg("failed to store document blob")
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store document"})
		return
	}

	ctx.JSON(http.StatusOK, documentResponse(document))
}

// Delete removes the row first and the blob second. A missing blob is
// tolerated on this cleanup path.
func (h *Documents) Delete(ctx *gin.Context) {
	document, ok := h.loadDocument(ctx)

	if !ok {
		return
	}

	if _, ok := h.owner(ctx, document.ProjectID); !ok {
		return
	}

	if err := h.documents.Delete(ctx.Request.Context(), document.ID); err != nil {
		log.Error().Err(err).Str("document_id", document.ID).Msg("failed to delete document row")
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete document"})
		return
	}

	if err := h.blobs.Delete(ctx.Request.Context(), document.ID); err != nil {
		if errors.Is(err, blob.ErrNotFound) {
			log.Warn().Str("document_id", document.ID).Msg("document blob already gone")
		} else {
			log.Error().Err(err).Str("document_id", document.ID).Msg("failed to delete document blob")
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete document"})
			return
		}
	}

	ctx.Status(http.StatusNoContent)
}

func (h *Documents) loadDocument(ctx *gin.Context) (*models.Document, bool) {
	document, err := h.documents.Get(ctx.Request.Context(), ctx.Param("document_id"))

	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Document not found"})
		} else {
			log.Error().Err(err).Msg("failed to fetch document")
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		}
		return nil, false
	}

	return document, true
}

func (h *Documents) saveUpload(ctx *gin.Context, id string, file *multipart.FileHeader) error {
	src, err := file.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	return h.blobs.Save(ctx.Request.Context(), id, src)
}
