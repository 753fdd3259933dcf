package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rpupo63/devfolio-backend/config"
	"github.com/rpupo63/devfolio-backend/database"
	"github.com/rpupo63/devfolio-backend/errs"
	"github.com/rpupo63/devfolio-backend/ratelimit"
	"github.com/rs/zerolog/log"
)

type Server struct {
	*http.Server
	startupTime time.Time
}

func NewServer(cfg config.Config, db database.Database, opts ...RouterOption) Server {
	startupTime := time.Now()

	opts = append([]RouterOption{withConfig(cfg)}, opts...)
	router := newRouter(db, opts...)

	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,  // Timeout for reading the entire request
		WriteTimeout: cfg.WriteTimeout, // Timeout for writing the response
		IdleTimeout:  cfg.IdleTimeout,  // Timeout for idle connections
	}

	return Server{server, startupTime}
}

type router struct {
	config    config.Config
	limitKeys ratelimit.KeyFunc
	store     ratelimit.Store
	now       func() time.Time
}

type RouterOption func(*router)

func withConfig(c config.Config) RouterOption {
	return func(r *router) {
		r.config = c
	}
}

// WithRateLimitStore shares rate-limit counters through store instead of a
// fresh in-process store.
func WithRateLimitStore(store ratelimit.Store) RouterOption {
	return func(r *router) {
		r.store = store
	}
}

// WithClock replaces time.Now in the rate limiter headers.
func WithClock(now func() time.Time) RouterOption {
	return func(r *router) {
		r.now = now
	}
}

func withLimitKeys(fn ratelimit.KeyFunc) RouterOption {
	return func(r *router) {
		r.limitKeys = fn
	}
}

func newRouter(db database.Database, opts ...RouterOption) *chi.Mux {
	var router router
	for _, opt := range opts {
		opt(&router)
	}
	if router.store == nil {
		router.store = ratelimit.NewMemoryStore()
	}

	logger := log.With().Str("component", "http").Logger()
	responder := NewResponder(logger)

	chiRouter := chi.NewRouter()
	chiRouter.Use(middleware.RequestID)
	chiRouter.Use(logRequests(logger))
	chiRouter.Use(recoverPanics(logger))
	chiRouter.Use(corsMiddleware(router.config.Origins()))

	chiRouter.NotFound(func(w http.ResponseWriter, r *http.Request) {
		responder.WriteError(w, errs.NewApiErr(http.StatusNotFound, "Route not found"))
	})

	limits := newProjectLimits(ratelimit.Options{
		Store:    router.store,
		KeyFn:    router.limitKeys,
		OnLimit:  writeRateLimited(responder),
		Logger:   logger,
		TrustXFF: router.config.TrustProxy,
		Now:      router.now,
	})

	// Initialize all handlers
	handlers := initializeHandlers(db)

	setupRoutes(chiRouter, handlers, limits)

	return chiRouter
}

func (s Server) Start(errChannel chan<- error) {
	log.Info().Msgf("Server started on: %s", s.Addr)
	errChannel <- s.ListenAndServe()
}

// Run serves until ctx is done, then shuts down within timeout.
func (s Server) Run(ctx context.Context, timeout time.Duration) error {
	errChannel := make(chan error, 1)
	go s.Start(errChannel)

	select {
	case err := <-errChannel:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		return s.ShutdownGracefully(timeout)
	}
}

func (s Server) ShutdownGracefully(timeout time.Duration) error {
	log.Info().Dur("uptime", time.Since(s.startupTime)).Msg("Gracefully shutting down...")

	gracefullCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := s.Shutdown(gracefullCtx); err != nil {
		log.Error().Msgf("Error shutting down the server: %v", err)
		return err
	}
	log.Info().Msg("HttpServer gracefully shut down")
	return nil
}
