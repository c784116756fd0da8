package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/meltforce/strongmig/internal/config"
	"github.com/meltforce/strongmig/internal/migrator"
	"github.com/meltforce/strongmig/internal/models"
	"github.com/meltforce/strongmig/internal/schedule"
)

// maxUploadBytes caps a convert request body.
const maxUploadBytes = 16 << 20

// SetStore is the stored-set query used by GET /api/v1/sets.
type SetStore interface {
	QuerySetRecords(ctx context.Context, start, end time.Time) ([]models.SetRecord, error)
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	cfg     *config.Config
	conv    *migrator.Migrator
	catalog schedule.Catalog
	store   SetStore
	log     *slog.Logger
	apiKey  string
	router  chi.Router
}

// New creates a new Server with all routes configured. store may be nil, in
// which case /api/v1/sets is not mounted.
func New(cfg *config.Config, conv *migrator.Migrator, catalog schedule.Catalog, store SetStore, log *slog.Logger) *Server {
	s := &Server{
		cfg:     cfg,
		conv:    conv,
		catalog: catalog,
		store:   store,
		log:     log,
		apiKey:  cfg.Server.APIKey,
		router:  chi.NewRouter(),
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.Recoverer)
	s.router.Use(RequestLogging(s.log))
	s.router.Use(CORS)

	s.router.Get("/healthz", s.handleHealthz)

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Use(APIKeyAuth(s.apiKey))
		r.Post("/convert", s.handleConvert)
		r.Get("/cycles", s.handleCycles)
		if s.store != nil {
			r.Get("/sets", s.handleQuerySets)
		}
	})
}
