package store

import (
	"context"
	"errors"

	"github.com/sem0ark/projecthub/internal/models"
	"gorm.io/gorm"
)

type ProjectStore struct {
	db *gorm.DB
}

func NewProjectStore(db *gorm.DB) *ProjectStore {
	return &ProjectStore{db: db}
}

// ProjectUpdate is a presence-aware update payload: nil fields are left
// untouched, non-nil fields are written (an empty string clears the field).
type ProjectUpdate struct {
	Name        *string
	Description *string
}

// Create inserts the project row and the creator's owner permission in one
// transaction. A project without its creator's permission must never exist.
func (s *ProjectStore) Create(ctx context.Context, name, description string, ownerID uint) (*models.Project, error) {
	project := models.Project{
		Name:        name,
		Description: description,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&project).Error; err != nil {
			return err
		}

		permission := models.Permission{
			UserID:    ownerID,
			ProjectID: project.ID,
			Role:      models.RoleOwner,
		}

		return tx.Create(&permission).Error
	})
	if err != nil {
		return nil, err
	}

	return &project, nil
}

func (s *ProjectStore) Get(ctx context.Context, id uint) (*models.Project, error) {
	var project models.Project

	if err := s.db.WithContext(ctx).First(&project, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return &project, nil
}

// ListAccessible returns projects the user holds any permission on,
// ordered by permission creation time (grant order), project ID as a
// tie-breaker.
func (s *ProjectStore) ListAccessible(ctx context.Context, userID uint, limit, offset int) ([]models.Project, error) {
	var projects []models.Project

	err := s.db.WithContext(ctx).
		Model(&models.Project{}).
		Joins("JOIN permissions ON permissions.project_id = projects.id").
		Where("permissions.user_id = ?", userID).
		Order("permissions.created_at ASC, projects.id ASC").
		Limit(limit).
		Offset(offset).
		Find(&projects).Error
	if err != nil {
		return nil, err
	}

	return projects, nil
}

func (s *ProjectStore) Update(ctx context.Context, id uint, update ProjectUpdate) (*models.Project, error) {
	project, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})

	if update.Name != nil {
		updates["name"] = *update.Name
	}

	if update.Description != nil {
		updates["description"] = *update.Description
	}

	if len(updates) == 0 {
		return project, nil
	}

	if err := s.db.WithContext(ctx).Model(project).Updates(updates).Error; err != nil {
		return nil, err
	}

	return project, nil
}

// Delete removes the project row. Permission and document rows go with it
// through the ON DELETE CASCADE constraints created at migration time.
func (s *ProjectStore) Delete(ctx context.Context, id uint) error {
	result := s.db.WithContext(ctx).Delete(&models.Project{}, id)
	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

// Grant inserts a participant permission for the user. A second grant for
// the same (user, project) pair hits the unique index and surfaces as
// ErrAlreadyGranted with no side effects.
func (s *ProjectStore) Grant(ctx context.Context, projectID, userID uint) error {
	permission := models.Permission{
		UserID:    userID,
		ProjectID: projectID,
		Role:      models.RoleParticipant,
	}

	if err := s.db.WithContext(ctx).Create(&permission).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrAlreadyGranted
		}
		return err
	}

	return nil
}

// RoleOf resolves the caller's role on a project, ErrNoAccess when no
// permission row exists.
func (s *ProjectStore) RoleOf(ctx context.Context, projectID, userID uint) (string, error) {
	var permission models.Permission

	err := s.db.WithContext(ctx).
		Where("project_id = ? AND user_id = ?", projectID, userID).
		First(&permission).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrNoAccess
		}
		return "", err
	}

	return permission.Role, nil
}

func (s *ProjectStore) SetLogo(ctx context.Context, projectID uint, logoID string) error {
	return s.db.WithContext(ctx).
		Model(&models.Project{}).
		Where("id = ?", projectID).
		Update("logo_id", logoID).Error
}

func (s *ProjectStore) ClearLogo(ctx context.Context, projectID uint) error {
	return s.db.WithContext(ctx).
		Model(&models.Project{}).
		Where("id = ?", projectID).
		Update("logo_id", nil).Error
}

// ListLogoIDs returns the logo blob IDs of all projects that have one.
func (s *ProjectStore) ListLogoIDs(ctx context.Context) ([]string, error) {
	var ids []string

	err := s.db.WithContext(ctx).
		Model(&models.Project{}).
		Where("logo_id IS NOT NULL").
		Pluck("logo_id", &ids).Error
	if err != nil {
		return nil, err
	}

	return ids, nil
}
