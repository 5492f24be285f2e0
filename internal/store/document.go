package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/sem0ark/projecthub/internal/models"
	"gorm.io/gorm"
)

type DocumentStore struct {
	db *gorm.DB
}

func NewDocumentStore(db *gorm.DB) *DocumentStore {
	return &DocumentStore{db: db}
}

// Create inserts a document row with a fresh UUID, which also serves as
// the blob store key. An empty filename defaults to the generated ID.
func (s *DocumentStore) Create(ctx context.Context, projectID uint, filename string) (*models.Document, error) {
	id := uuid.NewString()

	if filename == "" {
		filename = id
	}

	document := models.Document{
		ID:        id,
		Name:      filename,
		ProjectID: projectID,
	}

	if err := s.db.WithContext(ctx).Create(&document).Error; err != nil {
		return nil, err
	}

	return &document, nil
}

func (s *DocumentStore) Get(ctx context.Context, id string) (*models.Document, error) {
	var document models.Document

	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&document).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return &document, nil
}

// Rename updates the display filename. An empty filename keeps the
// previous one, so a re-upload without a client filename is harmless.
func (s *DocumentStore) Rename(ctx context.Context, document *models.Document, filename string) error {
	if filename == "" || filename == document.Name {
		return nil
	}

	if err := s.db.WithContext(ctx).Model(document).Update("name", filename).Error; err != nil {
		return err
	}

	document.Name = filename
	return nil
}

func (s *DocumentStore) Delete(ctx context.Context, id string) error {
	result := s.db.WithContext(ctx).Delete(&models.Document{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

func (s *DocumentStore) ListForProject(ctx context.Context, projectID uint, limit, offset int) ([]models.Document, error) {
	var documents []models.Document

	err := s.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("created_at ASC, id ASC").
		Limit(limit).
		Offset(offset).
		Find(&documents).Error
	if err != nil {
		return nil, err
	}

	return documents, nil
}

// ListIDs returns every document ID, used by the reconciliation sweep.
func (s *DocumentStore) ListIDs(ctx context.Context) ([]string, error) {
	var ids []string

	if err := s.db.WithContext(ctx).Model(&models.Document{}).Pluck("id", &ids).Error; err != nil {
		return nil, err
	}

	return ids, nil
}
