package http

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/riandyrn/otelchi"

	"github.com/longregen/prompttune/internal/adapters/http/handlers"
	"github.com/longregen/prompttune/internal/adapters/http/middleware"
	"github.com/longregen/prompttune/internal/config"
	"github.com/longregen/prompttune/internal/ports"
)

type Server struct {
	config     *config.Config
	router     *chi.Mux
	httpServer *http.Server
	sessions   ports.SessionManager
	lineage    ports.LineageController
	db         handlers.Pinger
	llm        handlers.CircuitReporter
}

// NewServer wires the tuning API. db and llm feed the detailed health check
// and may be nil.
func NewServer(
	cfg *config.Config,
	sessions ports.SessionManager,
	lineage ports.LineageController,
	db handlers.Pinger,
	llm handlers.CircuitReporter,
) *Server {
	s := &Server{
		config:   cfg,
		sessions: sessions,
		lineage:  lineage,
		db:       db,
		llm:      llm,
	}

	s.setupRouter()
	return s
}

func (s *Server) setupRouter() {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(chimw.Recoverer)
	r.Use(middleware.CORS(s.config.Server.CORSOrigins))
	r.Use(middleware.Metrics)
	r.Use(otelchi.Middleware("prompttune", otelchi.WithChiRoutes(r)))

	healthHandler := handlers.NewHealthHandlerWithDeps(s.db, s.llm)
	r.Get("/health", healthHandler.Handle)
	r.Get("/health/detailed", healthHandler.HandleDetailed)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(s.config.Server.APIToken))

		configHandler := handlers.NewConfigHandler(s.config)
		r.Get("/config", configHandler.GetPublicConfig)

		sessionsHandler := handlers.NewSessionsHandler(s.sessions)
		r.Post("/sessions", sessionsHandler.Create)
		r.Get("/sessions", sessionsHandler.List)
		r.Get("/sessions/{id}", sessionsHandler.Get)

		roundsHandler := handlers.NewRoundsHandler(s.lineage)
		r.Post("/sessions/{id}/rounds/first", roundsHandler.First)
		r.Post("/sessions/{id}/rounds/next", roundsHandler.Next)
	})

	s.router = r
}

func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)

	s.httpServer = &http.Server{
		Addr:        addr,
		Handler:     s.router,
		ReadTimeout: 30 * time.Second,
		// Rounds wait on the completion provider; leave room for a slow fan-out.
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  120 * time.Second,
	}

	log.Printf("Starting HTTP server on %s", addr)
	return s.httpServer.ListenAndServe()
}

func (s *Server) Stop(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}

	log.Println("Shutting down HTTP server...")
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) Router() *chi.Mux {
	return s.router
}
