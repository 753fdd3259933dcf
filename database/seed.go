package database

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rpupo63/devfolio-backend/models"
	"gorm.io/gorm"
)

//go:embed seeds/*.json
var seedFiles embed.FS

// Counts reports how many records of each collection an operation touched.
type Counts struct {
	Projects int `json:"projects"`
	Skills   int `json:"skills"`
}

// Seed clears both collections and inserts the bundled sample data, in one
// transaction. Earlier entries of the seed file come out first when listing.
func (d Database) Seed(ctx context.Context) (Counts, error) {
	var projects []models.Project
	if err := readSeed("seeds/projects.json", &projects); err != nil {
		return Counts{}, err
	}
	var skills []models.Skill
	if err := readSeed("seeds/skills.json", &skills); err != nil {
		return Counts{}, err
	}

	now := d.projectRepo.now()
	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := d.clear(tx); err != nil {
			return err
		}
		for i := range projects {
			stampProject(&projects[i], now.Add(-time.Duration(i)*time.Second))
			if err := d.projectRepo.create(tx, &projects[i]); err != nil {
				return fmt.Errorf("seed project %q: %w", projects[i].Title, err)
			}
		}
		for i := range skills {
			stampSkill(&skills[i], now)
			if err := d.skillRepo.create(tx, &skills[i]); err != nil {
				return fmt.Errorf("seed skill %q: %w", skills[i].Name, err)
			}
		}
		return nil
	})
	if err != nil {
		return Counts{}, err
	}
	return Counts{Projects: len(projects), Skills: len(skills)}, nil
}

// Reset deletes every project, tag and skill.
func (d Database) Reset(ctx context.Context) error {
	return d.db.WithContext(ctx).Transaction(d.clear)
}

func (d Database) clear(tx *gorm.DB) error {
	if err := d.projectRepo.deleteAll(tx); err != nil {
		return err
	}
	return d.skillRepo.deleteAll(tx)
}

func readSeed(name string, dst any) error {
	raw, err := seedFiles.ReadFile(name)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("decode %s: %w", name, err)
	}
	return nil
}
