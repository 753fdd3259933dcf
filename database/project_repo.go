package database

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rpupo63/devfolio-backend/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ProjectFilter narrows FindMany. Zero values mean no restriction.
type ProjectFilter struct {
	Featured *bool
	// AnyTags matches projects carrying at least one of the tags.
	AnyTags []string
}

type ProjectRepo struct {
	db   *gorm.DB
	tags *ProjectTagRepo
	now  func() time.Time
}

func NewProjectRepo(db *gorm.DB, tags *ProjectTagRepo, now func() time.Time) *ProjectRepo {
	return &ProjectRepo{db: db, tags: tags, now: now}
}

// Insert assigns the id and timestamps of p and stores it with its tags.
func (r *ProjectRepo) Insert(ctx context.Context, p *models.Project) error {
	stampProject(p, r.now())
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return r.create(tx, p)
	})
}

func stampProject(p *models.Project, now time.Time) {
	p.ID = uuid.New()
	p.CreatedAt = now
	p.UpdatedAt = now
}

// create writes p as given, ids and timestamps included.
func (r *ProjectRepo) create(tx *gorm.DB, p *models.Project) error {
	if p.Tags == nil {
		p.Tags = []string{}
	}
	if err := tx.Omit(clause.Associations).Create(p).Error; err != nil {
		return err
	}
	rows, err := r.tags.Replace(tx, p.ID, p.Tags)
	if err != nil {
		return err
	}
	p.TagRows = rows
	return nil
}

// FindMany returns the matching projects, newest first.
func (r *ProjectRepo) FindMany(ctx context.Context, filter ProjectFilter) ([]models.Project, error) {
	db := r.db.WithContext(ctx)
	q := db.Model(&models.Project{}).Preload("TagRows", byPosition)
	if filter.Featured != nil {
		q = q.Where("featured = ?", *filter.Featured)
	}
	if len(filter.AnyTags) > 0 {
		tagged := db.Model(&models.ProjectTag{}).Select("project_id").Where("value IN ?", filter.AnyTags)
		q = q.Where("id IN (?)", tagged)
	}

	projects := []models.Project{}
	if err := q.Order("created_at DESC").Find(&projects).Error; err != nil {
		return nil, err
	}
	return projects, nil
}

// FindByID returns nil without error when no project has the id.
func (r *ProjectRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Project, error) {
	return r.first(r.db.WithContext(ctx), id)
}

func (r *ProjectRepo) first(tx *gorm.DB, id uuid.UUID) (*models.Project, error) {
	var project models.Project
	err := tx.Preload("TagRows", byPosition).Where("id = ?", id).First(&project).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &project, nil
}

// UpdateByID applies exactly the supplied fields and refreshes updatedAt, in
// one transaction. It returns nil without error when no project has the id.
func (r *ProjectRepo) UpdateByID(ctx context.Context, id uuid.UUID, changes models.ProjectFields) (*models.Project, error) {
	var updated *models.Project
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		project, err := r.first(tx, id)
		if err != nil || project == nil {
			return err
		}

		changes.ApplyTo(project)
		project.UpdatedAt = r.now()
		if err := tx.Omit(clause.Associations).Save(project).Error; err != nil {
			return err
		}
		if changes.Tags != nil {
			rows, err := r.tags.Replace(tx, project.ID, project.Tags)
			if err != nil {
				return err
			}
			project.TagRows = rows
		}
		updated = project
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteByID removes the project and its tags and returns what was stored.
// It returns nil without error when no project has the id.
func (r *ProjectRepo) DeleteByID(ctx context.Context, id uuid.UUID) (*models.Project, error) {
	var deleted *models.Project
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		project, err := r.first(tx, id)
		if err != nil || project == nil {
			return err
		}
		if err := r.tags.DeleteByProject(tx, id); err != nil {
			return err
		}
		if err := tx.Where("id = ?", id).Delete(&models.Project{}).Error; err != nil {
			return err
		}
		deleted = project
		return nil
	})
	if err != nil {
		return nil, err
	}
	return deleted, nil
}

func (r *ProjectRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Project{}).Count(&n).Error
	return n, err
}

func (r *ProjectRepo) deleteAll(tx *gorm.DB) error {
	if err := r.tags.deleteAll(tx); err != nil {
		return err
	}
	return tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&models.Project{}).Error
}
