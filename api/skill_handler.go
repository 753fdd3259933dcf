package api

import (
	"net/http"

	"github.com/rpupo63/devfolio-backend/database"
	"github.com/rpupo63/devfolio-backend/errs"
	"github.com/rpupo63/devfolio-backend/models"
	"github.com/rpupo63/devfolio-backend/validation"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type skillHandler struct {
	responder Responder
	logger    zerolog.Logger
	skills    skillStore
}

func newSkillHandler(skills skillStore) skillHandler {
	logger := log.With().Str("handlerName", "skillHandler").Logger()

	return skillHandler{
		responder: NewResponder(logger),
		logger:    logger,
		skills:    skills,
	}
}

func skillFields(raw rawFields) (models.SkillFields, error) {
	var f models.SkillFields
	var err error
	if f.Name, err = raw.str("name"); err != nil {
		return f, err
	}
	if f.Category, err = raw.str("category"); err != nil {
		return f, err
	}
	if f.Proficiency, err = raw.integer("proficiency"); err != nil {
		return f, err
	}
	return f, nil
}

func (h skillHandler) listSkills() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var filter database.SkillFilter
		if raw := r.URL.Query().Get("category"); raw != "" {
			name, fe := validation.String("category", &raw, models.CategoryRule())
			if fe != nil {
				h.responder.WriteError(w, errs.NewValidationError("Failed to fetch skills", validation.Errors{fe}))
				return
			}
			category, err := models.ParseCategory(name)
			if err != nil {
				h.responder.WriteError(w, errs.NewInvalidFieldError("category", "Invalid skill category"))
				return
			}
			filter.Category = &category
		}

		skills, err := h.skills.FindMany(r.Context(), filter)
		if err != nil {
			h.responder.WriteError(w, errs.NewDatabaseError("fetch", "skills", err))
			return
		}

		h.responder.WriteList(w, skills, len(skills))
	}
}

func (h skillHandler) getSkill() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		skillID, ok := pathID(r, "skillID")
		if !ok {
			h.responder.WriteError(w, errs.NewNotFound("skill"))
			return
		}

		skill, err := h.skills.FindByID(r.Context(), skillID)
		if err != nil {
			h.responder.WriteError(w, errs.NewDatabaseError("fetch", "skill", err))
			return
		}
		if skill == nil {
			h.responder.WriteError(w, errs.NewNotFound("skill"))
			return
		}

		h.responder.WriteData(w, http.StatusOK, skill, "")
	}
}

func (h skillHandler) createSkill() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw, err := decodeBody(w, r)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		fields, err := skillFields(raw)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		valid, err := fields.ValidateCreate()
		if err != nil {
			h.responder.WriteError(w, rejected("Failed to create skill", err))
			return
		}

		skill := valid.NewSkill()
		if err := h.skills.Insert(r.Context(), &skill); err != nil {
			h.responder.WriteError(w, errs.NewDatabaseError("create", "skill", err))
			return
		}

		h.logger.Info().Str("skillId", skill.ID.String()).Msg("skill created")
		h.responder.WriteData(w, http.StatusCreated, skill, "Skill created successfully")
	}
}

func (h skillHandler) updateSkill() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw, err := decodeBody(w, r)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		fields, err := skillFields(raw)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		changes, err := fields.ValidatePatch()
		if err != nil {
			h.responder.WriteError(w, rejected("Failed to update skill", err))
			return
		}

		skillID, ok := pathID(r, "skillID")
		if !ok {
			h.responder.WriteError(w, errs.NewNotFound("skill"))
			return
		}

		skill, err := h.skills.UpdateByID(r.Context(), skillID, changes)
		if err != nil {
			h.responder.WriteError(w, errs.NewDatabaseError("update", "skill", err))
			return
		}
		if skill == nil {
			h.responder.WriteError(w, errs.NewNotFound("skill"))
			return
		}

		h.responder.WriteData(w, http.StatusOK, skill, "Skill updated successfully")
	}
}

func (h skillHandler) deleteSkill() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		skillID, ok := pathID(r, "skillID")
		if !ok {
			h.responder.WriteError(w, errs.NewNotFound("skill"))
			return
		}

		skill, err := h.skills.DeleteByID(r.Context(), skillID)
		if err != nil {
			h.responder.WriteError(w, errs.NewDatabaseError("delete", "skill", err))
			return
		}
		if skill == nil {
			h.responder.WriteError(w, errs.NewNotFound("skill"))
			return
		}

		h.logger.Info().Str("skillId", skill.ID.String()).Msg("skill deleted")
		h.responder.WriteData(w, http.StatusOK, skill, "Skill deleted successfully")
	}
}
