package api

import (
	"log/slog"
	"net/http"

	"github.com/dgallion1/lorebase/internal/config"
	"github.com/dgallion1/lorebase/internal/dedupe"
	"github.com/dgallion1/lorebase/internal/knowledge"
	"github.com/dgallion1/lorebase/internal/llm"
	"github.com/dgallion1/lorebase/internal/match"
	"github.com/dgallion1/lorebase/internal/pipeline"
	"github.com/dgallion1/lorebase/internal/promptctx"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Server is the HTTP API server for lorebase.
type Server struct {
	router       chi.Router
	orchestrator *pipeline.Orchestrator
	store        knowledge.Store
	matcher      *match.Matcher
	assembler    *promptctx.Assembler
	merger       *dedupe.Merger
	llmClient    *llm.Client
	log          *slog.Logger
	cfg          config.Config
}

// NewServer creates and configures the HTTP server.
func NewServer(orch *pipeline.Orchestrator, store knowledge.Store, merger *dedupe.Merger, llmClient *llm.Client, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		orchestrator: orch,
		store:        store,
		matcher:      match.NewMatcher(store),
		assembler:    promptctx.NewAssembler(cfg.PromptBudget),
		merger:       merger,
		llmClient:    llmClient,
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
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	// Public endpoints.
	r.Get("/health", s.handleHealth)

	// Authenticated endpoints.
	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(s.cfg.LorebaseAPIKey, s.log))

		r.Post("/api/import", s.handleImport)
		r.Get("/api/import/{jobID}/status", s.handleImportStatus)

		r.Get("/api/knowledge", s.handleKnowledgeList)
		r.Post("/api/knowledge", s.handleKnowledgeAdd)
		r.Delete("/api/knowledge/{id}", s.handleKnowledgeDelete)
		r.Post("/api/knowledge/context", s.handleContext)
		r.Get("/api/knowledge/duplicates", s.handleDuplicates)
		r.Post("/api/knowledge/duplicates/merge", s.handleDuplicatesMerge)
		r.Get("/api/knowledge/{id}/export", s.handleExport)

		r.Get("/api/stats/llm", s.handleLLMStats)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
