package api

import (
	"log/slog"
	"net/http"

	"github.com/dgallion1/gspan/internal/config"
	"github.com/dgallion1/gspan/internal/pipeline"
	"github.com/dgallion1/gspan/internal/render"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Server is the HTTP API server for gspan.
type Server struct {
	router       chi.Router
	orchestrator *pipeline.Orchestrator
	renderer     *render.Renderer
	stats        *pipeline.ParseStats
	log          *slog.Logger
	cfg          config.Config
}

// NewServer creates and configures the HTTP server.
func NewServer(orch *pipeline.Orchestrator, renderer *render.Renderer, stats *pipeline.ParseStats, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		orchestrator: orch,
		renderer:     renderer,
		stats:        stats,
		log:          log,
		cfg:          cfg,
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))
	r.Use(middleware.Recoverer)

	r.Get("/health", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Use(AuthMiddleware(s.cfg.APIKey, s.log))

		// Synchronous conversion.
		r.Post("/parse", s.handleParse)
		r.Post("/render", s.handleRender)

		r.Route("/jobs", func(r chi.Router) {
			r.Get("/", s.handleListJobs)
			r.Post("/", s.handleSubmitJob)
			r.Post("/batch", s.handleBatchSubmit)
			r.Get("/{jobID}", s.handleJobStatus)
			r.Delete("/{jobID}", s.handleDeleteJob)
		})

		r.Get("/stats/parse", s.handleParseStats)
	})

	s.router = r
}
