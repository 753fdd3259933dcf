package models

import "github.com/google/uuid"

// ProjectTag is one tag of a project. Position keeps the client's ordering.
type ProjectTag struct {
	ID        uuid.UUID `json:"id" db:"id" gorm:"type:uuid;primaryKey;not null"`
	ProjectID uuid.UUID `json:"project_id" db:"project_id" gorm:"type:uuid;not null;index:idx_project_tag_project_id"`
	Position  int       `json:"position" db:"position" gorm:"not null"`
	Value     string    `json:"value" db:"value" gorm:"type:text;not null;index:idx_project_tag_value"`
}

// NewProjectTags builds the rows for tags in order.
func NewProjectTags(projectID uuid.UUID, tags []string) []ProjectTag {
	rows := make([]ProjectTag, 0, len(tags))
	for i, value := range tags {
		rows = append(rows, ProjectTag{
			ID:        uuid.New(),
			ProjectID: projectID,
			Position:  i,
			Value:     value,
		})
	}
	return rows
}
