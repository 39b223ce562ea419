// Package server exposes the local skill store and marketplace listings as
// a small read-only JSON API, so editors and dashboards can inspect skills
// without shelling out to the CLI.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/jingkaihe/skillet/pkg/logger"
	"github.com/jingkaihe/skillet/pkg/marketplace"
	"github.com/jingkaihe/skillet/pkg/presenter"
	"github.com/jingkaihe/skillet/pkg/skills"
)

// ServerConfig holds the configuration for the HTTP server
type ServerConfig struct {
	Host string
	Port int
}

// Validate validates the server configuration
func (c *ServerConfig) Validate() error {
	if c.Host == "" {
		return errors.New("host cannot be empty")
	}
	if c.Port < 1 || c.Port > 65535 {
		return errors.Errorf("port must be between 1 and 65535, got %d", c.Port)
	}
	return nil
}

// Server serves the read-only skill API
type Server struct {
	router      *mux.Router
	store       *skills.Store
	configStore *marketplace.ConfigStore
	resolver    *marketplace.Resolver
	config      *ServerConfig
	server      *http.Server
}

// NewServer creates a server over the given store and resolver
func NewServer(config *ServerConfig, store *skills.Store, configStore *marketplace.ConfigStore, resolver *marketplace.Resolver) (*Server, error) {
	if err := config.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid server configuration")
	}

	s := &Server{
		router:      mux.NewRouter(),
		store:       store,
		configStore: configStore,
		resolver:    resolver,
		config:      config,
	}
	s.setupRoutes()
	return s, nil
}

func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/skills", s.handleListSkills).Methods("GET")
	api.HandleFunc("/skills/{name}", s.handleGetSkill).Methods("GET")
	api.HandleFunc("/marketplace", s.handleMarketplace).Methods("GET")

	s.router.HandleFunc("/healthz", s.handleHealth).Methods("GET")
	s.router.Use(s.loggingMiddleware)
}

// Handler returns the configured router, used directly in tests
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		logger.G(r.Context()).
			WithField("method", r.Method).
			WithField("path", r.URL.Path).
			WithField("duration", time.Since(start)).
			Debug("handled request")
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSONResponse(w, map[string]string{"status": "ok"})
}

func (s *Server) handleListSkills(w http.ResponseWriter, r *http.Request) {
	refs, err := s.store.Discover(r.Context())
	if err != nil {
		s.writeErrorResponse(w, r, http.StatusInternalServerError, "failed to discover skills", err)
		return
	}
	if refs == nil {
		refs = []skills.Ref{}
	}
	s.writeJSONResponse(w, map[string]any{"skills": refs})
}

func (s *Server) handleGetSkill(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	skill, err := s.store.Find(r.Context(), name)
	if err != nil {
		s.writeErrorResponse(w, r, http.StatusInternalServerError, "failed to load skill", err)
		return
	}
	if skill == nil {
		s.writeErrorResponse(w, r, http.StatusNotFound, fmt.Sprintf("skill %q not found", name), nil)
		return
	}

	resources, _ := s.store.ListResources(skill.Directory)
	s.writeJSONResponse(w, map[string]any{
		"skill":     skill,
		"resources": resources,
	})
}

func (s *Server) handleMarketplace(w http.ResponseWriter, r *http.Request) {
	cfg, err := s.configStore.Load(r.Context())
	if err != nil {
		s.writeErrorResponse(w, r, http.StatusInternalServerError, "failed to load marketplace config", err)
		return
	}

	candidates, err := s.resolver.ListAll(r.Context(), cfg.Sources)
	if err != nil {
		// partial results are still useful; failed sources are logged upstream
		logger.G(r.Context()).WithError(err).Warn("some sources failed during marketplace listing")
	}
	if candidates == nil {
		candidates = []marketplace.Candidate{}
	}
	s.writeJSONResponse(w, map[string]any{"skills": candidates})
}

// writeJSONResponse writes a JSON response
func (s *Server) writeJSONResponse(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.G(context.TODO()).WithError(err).Error("failed to encode JSON response")
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}

// writeErrorResponse writes an error response
func (s *Server) writeErrorResponse(w http.ResponseWriter, r *http.Request, statusCode int, message string, err error) {
	if err != nil {
		logger.G(r.Context()).WithError(err).Error(message)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	response := map[string]any{
		"error":   message,
		"status":  statusCode,
		"success": false,
	}
	if err := json.NewEncoder(w).Encode(response); err != nil {
		logger.G(r.Context()).WithError(err).Error("failed to encode error response")
	}
}

// Start runs the server until the context is cancelled, then shuts down
// gracefully.
func (s *Server) Start(ctx context.Context) error {
	address := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	s.server = &http.Server{
		Addr:    address,
		Handler: s.router,
	}

	presenter.Info(fmt.Sprintf("Serving skill API on http://%s", address))

	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.G(ctx).WithError(err).Error("server error")
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return s.server.Shutdown(shutdownCtx)
}

// Stop closes the server immediately
func (s *Server) Stop() error {
	if s.server != nil {
		return s.server.Close()
	}
	return nil
}
