package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/rpupo63/devfolio-backend/models"
	"gorm.io/gorm"
)

type ProjectTagRepo struct {
	db *gorm.DB
}

func NewProjectTagRepo(db *gorm.DB) *ProjectTagRepo {
	return &ProjectTagRepo{db}
}

// FindAll returns every tag row ordered by project and position.
func (r *ProjectTagRepo) FindAll(ctx context.Context) ([]models.ProjectTag, error) {
	var rows []models.ProjectTag
	err := r.db.WithContext(ctx).Order("project_id ASC, position ASC").Find(&rows).Error
	return rows, err
}

// Replace swaps the tag rows of a project for tags, in order. tx must be the
// transaction that also writes the project.
func (r *ProjectTagRepo) Replace(tx *gorm.DB, projectID uuid.UUID, tags []string) ([]models.ProjectTag, error) {
	if err := r.DeleteByProject(tx, projectID); err != nil {
		return nil, err
	}
	rows := models.NewProjectTags(projectID, tags)
	if len(rows) == 0 {
		return rows, nil
	}
	if err := tx.Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *ProjectTagRepo) DeleteByProject(tx *gorm.DB, projectID uuid.UUID) error {
	return tx.Where("project_id = ?", projectID).Delete(&models.ProjectTag{}).Error
}

func (r *ProjectTagRepo) deleteAll(tx *gorm.DB) error {
	return tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&models.ProjectTag{}).Error
}

func byPosition(db *gorm.DB) *gorm.DB {
	return db.Order("position ASC")
}
