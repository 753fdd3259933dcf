package database

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rpupo63/devfolio-backend/errs"
	"github.com/rpupo63/devfolio-backend/models"
	"gorm.io/gorm"
)

// SkillFilter narrows FindMany. A nil Category matches every skill.
type SkillFilter struct {
	Category *models.Category
}

type SkillRepo struct {
	db  *gorm.DB
	now func() time.Time
}

func NewSkillRepo(db *gorm.DB, now func() time.Time) *SkillRepo {
	return &SkillRepo{db: db, now: now}
}

// Insert assigns the id and timestamps of s and stores it. A taken name is
// reported as a unique constraint violation on "name".
func (r *SkillRepo) Insert(ctx context.Context, s *models.Skill) error {
	stampSkill(s, r.now())
	return r.create(r.db.WithContext(ctx), s)
}

func stampSkill(s *models.Skill, now time.Time) {
	s.ID = uuid.New()
	s.CreatedAt = now
	s.UpdatedAt = now
}

func (r *SkillRepo) create(tx *gorm.DB, s *models.Skill) error {
	return uniqueName(tx.Create(s).Error)
}

// FindMany returns the matching skills ordered by category, then name.
func (r *SkillRepo) FindMany(ctx context.Context, filter SkillFilter) ([]models.Skill, error) {
	q := r.db.WithContext(ctx).Model(&models.Skill{})
	if filter.Category != nil {
		q = q.Where("category = ?", *filter.Category)
	}

	skills := []models.Skill{}
	if err := q.Order("category ASC, name ASC").Find(&skills).Error; err != nil {
		return nil, err
	}
	return skills, nil
}

// FindByID returns nil without error when no skill has the id.
func (r *SkillRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Skill, error) {
	return r.first(r.db.WithContext(ctx), id)
}

func (r *SkillRepo) first(tx *gorm.DB, id uuid.UUID) (*models.Skill, error) {
	var skill models.Skill
	err := tx.Where("id = ?", id).First(&skill).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &skill, nil
}

// UpdateByID applies exactly the supplied fields and refreshes updatedAt.
// It returns nil without error when no skill has the id.
func (r *SkillRepo) UpdateByID(ctx context.Context, id uuid.UUID, changes models.SkillChanges) (*models.Skill, error) {
	var updated *models.Skill
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		skill, err := r.first(tx, id)
		if err != nil || skill == nil {
			return err
		}
		changes.ApplyTo(skill)
		skill.UpdatedAt = r.now()
		if err := tx.Save(skill).Error; err != nil {
			return uniqueName(err)
		}
		updated = skill
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteByID removes the skill and returns what was stored. It returns nil
// without error when no skill has the id.
func (r *SkillRepo) DeleteByID(ctx context.Context, id uuid.UUID) (*models.Skill, error) {
	var deleted *models.Skill
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		skill, err := r.first(tx, id)
		if err != nil || skill == nil {
			return err
		}
		if err := tx.Where("id = ?", id).Delete(&models.Skill{}).Error; err != nil {
			return err
		}
		deleted = skill
		return nil
	})
	if err != nil {
		return nil, err
	}
	return deleted, nil
}

func (r *SkillRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Skill{}).Count(&n).Error
	return n, err
}

func (r *SkillRepo) deleteAll(tx *gorm.DB) error {
	return tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&models.Skill{}).Error
}

func uniqueName(err error) error {
	if errs.IsDuplicateKey(err) {
		return errs.NewUniqueConstraintViolationError("skill", "name", err)
	}
	return err
}
