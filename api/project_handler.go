package api

import (
	"net/http"

	"github.com/rpupo63/devfolio-backend/database"
	"github.com/rpupo63/devfolio-backend/errs"
	"github.com/rpupo63/devfolio-backend/models"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type projectHandler struct {
	responder Responder
	logger    zerolog.Logger
	projects  projectStore
}

func newProjectHandler(projects projectStore) projectHandler {
	logger := log.With().Str("handlerName", "projectHandler").Logger()

	return projectHandler{
		responder: NewResponder(logger),
		logger:    logger,
		projects:  projects,
	}
}

// projectFields reads the project fields present in the body, checking each
// one's JSON type in declaration order.
func projectFields(raw rawFields) (models.ProjectFields, error) {
	var f models.ProjectFields
	var err error
	if f.Title, err = raw.str("title"); err != nil {
		return f, err
	}
	if f.Description, err = raw.str("description"); err != nil {
		return f, err
	}
	if f.URL, err = raw.str("url"); err != nil {
		return f, err
	}
	if f.ImageURL, err = raw.str("imageUrl"); err != nil {
		return f, err
	}
	if f.Tags, err = raw.stringList("tags"); err != nil {
		return f, err
	}
	if f.Featured, err = raw.boolean("featured"); err != nil {
		return f, err
	}
	return f, nil
}

// listProjects returns the projects matching the query, newest first.
// featured=true keeps featured projects only; tags=a,b keeps projects with
// at least one of the tags.
func (h projectHandler) listProjects() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()

		var filter database.ProjectFilter
		if query.Get("featured") == "true" {
			featured := true
			filter.Featured = &featured
		}
		filter.AnyTags = splitList(query.Get("tags"))

		projects, err := h.projects.FindMany(r.Context(), filter)
		if err != nil {
			h.responder.WriteError(w, errs.NewDatabaseError("fetch", "projects", err))
			return
		}

		h.responder.WriteList(w, projects, len(projects))
	}
}

func (h projectHandler) getProject() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		projectID, ok := pathID(r, "projectID")
		if !ok {
			h.responder.WriteError(w, errs.NewNotFound("project"))
			return
		}

		project, err := h.projects.FindByID(r.Context(), projectID)
		if err != nil {
			h.responder.WriteError(w, errs.NewDatabaseError("fetch", "project", err))
			return
		}
		if project == nil {
			h.responder.WriteError(w, errs.NewNotFound("project"))
			return
		}

		h.responder.WriteData(w, http.StatusOK, project, "")
	}
}

func (h projectHandler) createProject() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw, err := decodeBody(w, r)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		fields, err := projectFields(raw)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		valid, err := fields.ValidateCreate()
		if err != nil {
			h.responder.WriteError(w, rejected("Failed to create project", err))
			return
		}

		project := valid.NewProject()
		if err := h.projects.Insert(r.Context(), &project); err != nil {
			h.responder.WriteError(w, errs.NewDatabaseError("create", "project", err))
			return
		}

		h.logger.Info().Str("projectId", project.ID.String()).Msg("project created")
		h.responder.WriteData(w, http.StatusCreated, project, "Project created successfully")
	}
}

// updateProject changes only the fields present in the body. Every supplied
// field is checked before anything is written.
func (h projectHandler) updateProject() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw, err := decodeBody(w, r)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		fields, err := projectFields(raw)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		changes, err := fields.ValidatePatch()
		if err != nil {
			h.responder.WriteError(w, rejected("Failed to update project", err))
			return
		}

		projectID, ok := pathID(r, "projectID")
		if !ok {
			h.responder.WriteError(w, errs.NewNotFound("project"))
			return
		}

		project, err := h.projects.UpdateByID(r.Context(), projectID, changes)
		if err != nil {
			h.responder.WriteError(w, errs.NewDatabaseError("update", "project", err))
			return
		}
		if project == nil {
			h.responder.WriteError(w, errs.NewNotFound("project"))
			return
		}

		h.responder.WriteData(w, http.StatusOK, project, "Project updated successfully")
	}
}

func (h projectHandler) deleteProject() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		projectID, ok := pathID(r, "projectID")
		if !ok {
			h.responder.WriteError(w, errs.NewNotFound("project"))
			return
		}

		project, err := h.projects.DeleteByID(r.Context(), projectID)
		if err != nil {
			h.responder.WriteError(w, errs.NewDatabaseError("delete", "project", err))
			return
		}
		if project == nil {
			h.responder.WriteError(w, errs.NewNotFound("project"))
			return
		}

		h.logger.Info().Str("projectId", project.ID.String()).Msg("project deleted")
		h.responder.WriteData(w, http.StatusOK, project, "Project deleted successfully")
	}
}
