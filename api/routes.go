package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rpupo63/devfolio-backend/errs"
	"github.com/rpupo63/devfolio-backend/ratelimit"
)

// Per-client ceilings for the project routes. Skill routes and project
// creation are not limited.
var (
	projectListLimit = ratelimit.Limiter{
		Name:    "projects.list",
		Window:  time.Minute,
		Max:     20,
		Message: "Too many requests for project list from this IP, please try again later.",
	}
	projectReadLimit = ratelimit.Limiter{
		Name:    "projects.read",
		Window:  time.Minute,
		Max:     20,
		Message: "Too many requests for project details from this IP, please try again later.",
	}
	projectUpdateLimit = ratelimit.Limiter{
		Name:    "projects.update",
		Window:  time.Minute,
		Max:     10,
		Message: "Too many project updates from this IP, please try again later.",
	}
	projectDeleteLimit = ratelimit.Limiter{
		Name:    "projects.delete",
		Window:  time.Minute,
		Max:     5,
		Message: "Too many project deletions from this IP, please try again later.",
	}
)

type limitMiddleware func(http.Handler) http.Handler

type projectLimits struct {
	list, read, update, delete limitMiddleware
}

func newProjectLimits(opts ratelimit.Options) projectLimits {
	return projectLimits{
		list:   ratelimit.Middleware(projectListLimit, opts),
		read:   ratelimit.Middleware(projectReadLimit, opts),
		update: ratelimit.Middleware(projectUpdateLimit, opts),
		delete: ratelimit.Middleware(projectDeleteLimit, opts),
	}
}

// writeRateLimited is the 429 body of every limited route.
func writeRateLimited(responder Responder) ratelimit.LimitedFunc {
	return func(w http.ResponseWriter, _ *http.Request, l ratelimit.Limiter) {
		responder.WriteError(w, errs.NewRateLimitedError(l.Message))
	}
}

// setupRoutes mounts every resource under /api.
func setupRoutes(r chi.Router, handlers *routeHandlers, limits projectLimits) {
	r.Route("/api", func(r chi.Router) {
		r.Get("/health", handlers.healthHandler.health())

		// Project Handler endpoints
		r.Route("/projects", func(r chi.Router) {
			r.With(limits.list).Get("/", handlers.projectHandler.listProjects())
			r.Post("/", handlers.projectHandler.createProject())
			r.With(limits.read).Get("/{projectID}", handlers.projectHandler.getProject())
			r.With(limits.update).Put("/{projectID}", handlers.projectHandler.updateProject())
			r.With(limits.delete).Delete("/{projectID}", handlers.projectHandler.deleteProject())
		})

		// Skill Handler endpoints
		r.Route("/skills", func(r chi.Router) {
			r.Get("/", handlers.skillHandler.listSkills())
			r.Post("/", handlers.skillHandler.createSkill())
			r.Get("/{skillID}", handlers.skillHandler.getSkill())
			r.Put("/{skillID}", handlers.skillHandler.updateSkill())
			r.Delete("/{skillID}", handlers.skillHandler.deleteSkill())
		})
	})
}
