package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rpupo63/devfolio-backend/database"
	"github.com/rpupo63/devfolio-backend/errs"
	"github.com/rpupo63/devfolio-backend/validation"
)

// initializeHandlers creates and returns all handlers organized in a routeHandlers struct
func initializeHandlers(db database.Database) *routeHandlers {
	return &routeHandlers{
		projectHandler: newProjectHandler(db.ProjectRepo()),
		skillHandler:   newSkillHandler(db.SkillRepo()),
		healthHandler:  newHealthHandler(),
	}
}

// pathID parses the {param} segment. ok is false when it cannot name a record.
func pathID(r *http.Request, param string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, param))
	if err != nil || id == uuid.Nil {
		return uuid.Nil, false
	}
	return id, true
}

// rejected wraps rule failures into a 400 carrying message; other errors pass through.
func rejected(message string, err error) error {
	var failures validation.Errors
	if errors.As(err, &failures) {
		return errs.NewValidationError(message, failures)
	}
	return err
}

// splitList splits a comma separated query value, dropping blank entries.
func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
