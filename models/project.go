package models

import (
	"cmp"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/rpupo63/devfolio-backend/validation"
	"gorm.io/gorm"
)

const (
	ProjectTitleMaxLength       = 100
	ProjectDescriptionMaxLength = 1000
	ProjectMaxTags              = 10
)

// Project represents a portfolio project. Tags are persisted as ProjectTag rows.
type Project struct {
	ID          uuid.UUID    `json:"id" db:"id" gorm:"type:uuid;primaryKey;not null"`
	Title       string       `json:"title" db:"title" gorm:"type:text;not null"`
	Description string       `json:"description" db:"description" gorm:"type:text;not null"`
	URL         string       `json:"url" db:"url" gorm:"type:text;not null"`
	ImageURL    *string      `json:"imageUrl,omitempty" db:"image_url" gorm:"type:text"`
	Tags        []string     `json:"tags" gorm:"-"`
	Featured    bool         `json:"featured" db:"featured" gorm:"not null;index"`
	CreatedAt   time.Time    `json:"createdAt" db:"created_at" gorm:"not null;index;autoCreateTime:false"`
	UpdatedAt   time.Time    `json:"updatedAt" db:"updated_at" gorm:"not null;autoUpdateTime:false"`
	TagRows     []ProjectTag `json:"-" gorm:"foreignKey:ProjectID;references:ID;constraint:OnDelete:CASCADE"`
}

var projectRules = struct {
	title, description, url, imageURL, tags validation.Rule
}{
	title: validation.Rule{
		Required:  true,
		Trim:      true,
		MaxLength: ProjectTitleMaxLength,
		Messages: map[validation.Constraint]string{
			validation.Required:  "Project title is required",
			validation.MaxLength: "Title cannot exceed 100 characters",
		},
	},
	description: validation.Rule{
		Required:  true,
		Trim:      true,
		MaxLength: ProjectDescriptionMaxLength,
		Messages: map[validation.Constraint]string{
			validation.Required:  "Project description is required",
			validation.MaxLength: "Description cannot exceed 1000 characters",
		},
	},
	url: validation.Rule{
		Required: true,
		Pattern:  validation.URLPattern,
		Messages: map[validation.Constraint]string{
			validation.Required: "Project URL is required",
			validation.Pattern:  "Please provide a valid URL starting with http or https",
		},
	},
	imageURL: validation.Rule{
		Pattern: validation.URLPattern,
		Messages: map[validation.Constraint]string{
			validation.Pattern: "Please provide a valid image URL",
		},
	},
	tags: validation.Rule{
		MaxItems: ProjectMaxTags,
		Messages: map[validation.Constraint]string{
			validation.MaxItems: "Cannot add more than 10 tags",
		},
	},
}

// ProjectFields carries client-supplied project fields. A nil field was not supplied.
type ProjectFields struct {
	Title       *string
	Description *string
	URL         *string
	ImageURL    *string
	Tags        *[]string
	Featured    *bool
}

// ValidateCreate checks every field, requiring the mandatory ones, and returns
// the normalized (trimmed) fields.
func (f ProjectFields) ValidateCreate() (ProjectFields, error) {
	return f.validate(false)
}

// ValidatePatch checks only the supplied fields.
func (f ProjectFields) ValidatePatch() (ProjectFields, error) {
	return f.validate(true)
}

func (f ProjectFields) validate(partial bool) (ProjectFields, error) {
	var errs validation.Errors
	out := ProjectFields{Featured: f.Featured}

	str := func(name string, in *string, rule validation.Rule) *string {
		if partial && in == nil {
			return nil
		}
		v, fe := validation.String(name, in, rule)
		errs.Add(fe)
		if fe != nil || in == nil {
			return nil
		}
		return &v
	}

	out.Title = str("title", f.Title, projectRules.title)
	out.Description = str("description", f.Description, projectRules.description)
	out.URL = str("url", f.URL, projectRules.url)
	out.ImageURL = str("imageUrl", f.ImageURL, projectRules.imageURL)

	if !partial || f.Tags != nil {
		tags, fe := validation.Strings("tags", f.Tags, projectRules.tags)
		errs.Add(fe)
		if fe == nil && f.Tags != nil {
			out.Tags = &tags
		}
	}

	if err := errs.Err(); err != nil {
		return ProjectFields{}, err
	}
	return out, nil
}

// NewProject builds a record from validated create fields, applying defaults.
func (f ProjectFields) NewProject() Project {
	p := Project{Tags: []string{}}
	f.ApplyTo(&p)
	return p
}

// ApplyTo overwrites exactly the supplied fields of p.
func (f ProjectFields) ApplyTo(p *Project) {
	if f.Title != nil {
		p.Title = *f.Title
	}
	if f.Description != nil {
		p.Description = *f.Description
	}
	if f.URL != nil {
		p.URL = *f.URL
	}
	if f.ImageURL != nil {
		v := *f.ImageURL
		p.ImageURL = &v
	}
	if f.Tags != nil {
		p.Tags = slices.Clone(*f.Tags)
	}
	if f.Featured != nil {
		p.Featured = *f.Featured
	}
}

// Validate re-checks the whole record against the declared constraints.
func (p *Project) Validate() error {
	f := ProjectFields{
		Title:       &p.Title,
		Description: &p.Description,
		URL:         &p.URL,
		ImageURL:    p.ImageURL,
		Tags:        &p.Tags,
	}
	_, err := f.ValidateCreate()
	return err
}

// BeforeSave keeps the storage layer from accepting a record the API would reject.
func (p *Project) BeforeSave(tx *gorm.DB) error {
	return p.Validate()
}

// AfterFind rebuilds Tags from the preloaded rows in their stored order.
func (p *Project) AfterFind(tx *gorm.DB) error {
	p.syncTags()
	return nil
}

func (p *Project) syncTags() {
	rows := slices.Clone(p.TagRows)
	slices.SortStableFunc(rows, func(a, b ProjectTag) int { return cmp.Compare(a.Position, b.Position) })
	p.Tags = make([]string, 0, len(rows))
	for _, row := range rows {
		p.Tags = append(p.Tags, row.Value)
	}
}
