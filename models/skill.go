package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/rpupo63/devfolio-backend/validation"
	"gorm.io/gorm"
)

const (
	SkillNameMaxLength = 50
	MinProficiency     = 1
	MaxProficiency     = 5
)

// Skill is a named skill with a category and a 1-5 proficiency. Names are unique.
type Skill struct {
	ID          uuid.UUID `json:"id" db:"id" gorm:"type:uuid;primaryKey;not null"`
	Name        string    `json:"name" db:"name" gorm:"type:text;not null;uniqueIndex:idx_skills_name"`
	Category    Category  `json:"category" db:"category" gorm:"type:text;not null;index"`
	Proficiency int       `json:"proficiency" db:"proficiency" gorm:"not null"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at" gorm:"not null;autoCreateTime:false"`
	UpdatedAt   time.Time `json:"updatedAt" db:"updated_at" gorm:"not null;autoUpdateTime:false"`
}

var skillRules = struct {
	name, category, proficiency validation.Rule
}{
	name: validation.Rule{
		Required:  true,
		Trim:      true,
		MaxLength: SkillNameMaxLength,
		Messages: map[validation.Constraint]string{
			validation.Required:  "Skill name is required",
			validation.MaxLength: "Skill name cannot exceed 50 characters",
		},
	},
	category: validation.Rule{
		Required: true,
		OneOf:    CategoryNames(),
		Messages: map[validation.Constraint]string{
			validation.Required: "Category is required",
			validation.OneOf:    "Invalid skill category",
		},
	},
	proficiency: validation.Rule{
		Required: true,
		Min:      MinProficiency,
		Max:      MaxProficiency,
		Messages: map[validation.Constraint]string{
			validation.Required: "Proficiency level is required",
			validation.Min:      "Proficiency must be at least 1",
			validation.Max:      "Proficiency cannot exceed 5",
		},
	},
}

// CategoryRule validates a raw category name, e.g. from a query string.
func CategoryRule() validation.Rule {
	return skillRules.category
}

// SkillFields carries client-supplied skill fields. A nil field was not supplied.
// Category stays a raw string until validation turns it into a Category.
type SkillFields struct {
	Name        *string
	Category    *string
	Proficiency *int
}

// SkillChanges is a validated skill patch.
type SkillChanges struct {
	Name        *string
	Category    *Category
	Proficiency *int
}

func (f SkillFields) ValidateCreate() (SkillChanges, error) {
	return f.validate(false)
}

func (f SkillFields) ValidatePatch() (SkillChanges, error) {
	return f.validate(true)
}

func (f SkillFields) validate(partial bool) (SkillChanges, error) {
	var errs validation.Errors
	var out SkillChanges

	if !partial || f.Name != nil {
		v, fe := validation.String("name", f.Name, skillRules.name)
		errs.Add(fe)
		if fe == nil {
			out.Name = &v
		}
	}
	if !partial || f.Category != nil {
		v, fe := validation.String("category", f.Category, skillRules.category)
		errs.Add(fe)
		if fe == nil {
			c, err := ParseCategory(v)
			if err != nil {
				errs.Add(&validation.FieldError{Field: "category", Constraint: validation.OneOf, Message: "Invalid skill category"})
			} else {
				out.Category = &c
			}
		}
	}
	if !partial || f.Proficiency != nil {
		v, fe := validation.Int("proficiency", f.Proficiency, skillRules.proficiency)
		errs.Add(fe)
		if fe == nil {
			out.Proficiency = &v
		}
	}

	if err := errs.Err(); err != nil {
		return SkillChanges{}, err
	}
	return out, nil
}

// NewSkill builds a record from validated create changes.
func (c SkillChanges) NewSkill() Skill {
	var s Skill
	c.ApplyTo(&s)
	return s
}

// ApplyTo overwrites exactly the supplied fields of s.
func (c SkillChanges) ApplyTo(s *Skill) {
	if c.Name != nil {
		s.Name = *c.Name
	}
	if c.Category != nil {
		s.Category = *c.Category
	}
	if c.Proficiency != nil {
		s.Proficiency = *c.Proficiency
	}
}

// Validate re-checks the whole record against the declared constraints.
func (s *Skill) Validate() error {
	var errs validation.Errors
	_, fe := validation.String("name", &s.Name, skillRules.name)
	errs.Add(fe)
	if !s.Category.Valid() {
		errs.Add(&validation.FieldError{Field: "category", Constraint: validation.OneOf, Message: "Invalid skill category"})
	}
	_, fe = validation.Int("proficiency", &s.Proficiency, skillRules.proficiency)
	errs.Add(fe)
	return errs.Err()
}

// BeforeSave keeps the storage layer from accepting a record the API would reject.
func (s *Skill) BeforeSave(tx *gorm.DB) error {
	return s.Validate()
}
