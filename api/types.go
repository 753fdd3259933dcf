package api

import (
	"context"

	"github.com/google/uuid"
	"github.com/rpupo63/devfolio-backend/database"
	"github.com/rpupo63/devfolio-backend/models"
)

// routeHandlers contains all the handlers for different route types
type routeHandlers struct {
	projectHandler projectHandler
	skillHandler   skillHandler
	healthHandler  healthHandler
}

// projectStore is the persistence a projectHandler needs. Lookups by id
// return nil without error when the record does not exist.
type projectStore interface {
	Insert(ctx context.Context, p *models.Project) error
	FindMany(ctx context.Context, filter database.ProjectFilter) ([]models.Project, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Project, error)
	UpdateByID(ctx context.Context, id uuid.UUID, changes models.ProjectFields) (*models.Project, error)
	DeleteByID(ctx context.Context, id uuid.UUID) (*models.Project, error)
}

type skillStore interface {
	Insert(ctx context.Context, s *models.Skill) error
	FindMany(ctx context.Context, filter database.SkillFilter) ([]models.Skill, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Skill, error)
	UpdateByID(ctx context.Context, id uuid.UUID, changes models.SkillChanges) (*models.Skill, error)
	DeleteByID(ctx context.Context, id uuid.UUID) (*models.Skill, error)
}
