package database

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/klauspost/compress/zstd"
	"github.com/rpupo63/devfolio-backend/models"
	"gorm.io/gorm"
)

const snapshotVersion = 1

// Snapshot is the content of a backup file: both collections as the API
// renders them, ids and timestamps included.
type Snapshot struct {
	Version   int              `json:"version"`
	CreatedAt time.Time        `json:"createdAt"`
	Projects  []models.Project `json:"projects"`
	Skills    []models.Skill   `json:"skills"`
}

// Counts returns the number of records in s.
func (s Snapshot) Counts() Counts {
	return Counts{Projects: len(s.Projects), Skills: len(s.Skills)}
}

// Snapshot reads both collections.
func (d Database) Snapshot(ctx context.Context) (Snapshot, error) {
	projects, err := d.projectRepo.FindMany(ctx, ProjectFilter{})
	if err != nil {
		return Snapshot{}, fmt.Errorf("read projects: %w", err)
	}
	skills, err := d.skillRepo.FindMany(ctx, SkillFilter{})
	if err != nil {
		return Snapshot{}, fmt.Errorf("read skills: %w", err)
	}
	return Snapshot{
		Version:   snapshotVersion,
		CreatedAt: d.projectRepo.now(),
		Projects:  projects,
		Skills:    skills,
	}, nil
}

// Backup writes a zstd-compressed JSON snapshot of both collections to w.
func (d Database) Backup(ctx context.Context, w io.Writer) (Counts, error) {
	snap, err := d.Snapshot(ctx)
	if err != nil {
		return Counts{}, err
	}

	zw, err := zstd.NewWriter(w)
	if err != nil {
		return Counts{}, fmt.Errorf("could not create zstd writer: %w", err)
	}
	encoder := json.NewEncoder(zw)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(snap); err != nil {
		_ = zw.Close()
		return Counts{}, fmt.Errorf("could not encode json to zstd writer: %w", err)
	}
	if err := zw.Close(); err != nil {
		return Counts{}, fmt.Errorf("could not flush zstd writer: %w", err)
	}
	return snap.Counts(), nil
}

// ReadSnapshot decodes a zstd-compressed JSON snapshot.
func ReadSnapshot(r io.Reader) (Snapshot, error) {
	zr, err := zstd.NewReader(r, zstd.WithDecoderConcurrency(1))
	if err != nil {
		return Snapshot{}, fmt.Errorf("could not create zstd reader: %w", err)
	}
	defer zr.Close()

	var snap Snapshot
	if err := json.NewDecoder(zr).Decode(&snap); err != nil {
		return Snapshot{}, fmt.Errorf("could not decode json from zstd reader: %w", err)
	}
	if snap.Version != snapshotVersion {
		return Snapshot{}, fmt.Errorf("unsupported snapshot version %d", snap.Version)
	}
	return snap, nil
}

// Restore replaces both collections with the snapshot read from r. Nothing
// changes unless every record is accepted.
func (d Database) Restore(ctx context.Context, r io.Reader) (Counts, error) {
	snap, err := ReadSnapshot(r)
	if err != nil {
		return Counts{}, err
	}

	err = d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := d.clear(tx); err != nil {
			return err
		}
		for i := range snap.Projects {
			p := &snap.Projects[i]
			if err := d.projectRepo.create(tx, p); err != nil {
				return fmt.Errorf("restore project %s: %w", p.ID, err)
			}
		}
		for i := range snap.Skills {
			s := &snap.Skills[i]
			if err := d.skillRepo.create(tx, s); err != nil {
				return fmt.Errorf("restore skill %s: %w", s.ID, err)
			}
		}
		return nil
	})
	if err != nil {
		return Counts{}, err
	}
	return snap.Counts(), nil
}
