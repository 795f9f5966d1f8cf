// Package server is the HTTP shell around the extraction pipeline: multipart
// upload in, JSON envelope (plus screenshot URL) out, static serving of the
// generated artifacts.
package server

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"github.com/medintake/form-extractor/internal/acquire"
	"github.com/medintake/form-extractor/internal/common"
	"github.com/medintake/form-extractor/internal/export"
	"github.com/medintake/form-extractor/internal/pipeline"
	"github.com/medintake/form-extractor/internal/render"
	"github.com/medintake/form-extractor/internal/store"
)

// Submitter hands a document to the run queue and waits for its outcome.
type Submitter interface {
	Submit(ctx context.Context, doc acquire.Document) (pipeline.Outcome, error)
}

type Server struct {
	cfg      *common.Config
	queue    Submitter
	renderer render.Renderer
	store    *store.Store
	export   *export.Service
	logger   *slog.Logger
}

func New(
	cfg *common.Config,
	queue Submitter,
	renderer render.Renderer,
	st *store.Store,
	exp *export.Service,
	logger *slog.Logger,
) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if renderer == nil {
		renderer = render.Nop{}
	}
	return &Server{
		cfg:      cfg,
		queue:    queue,
		renderer: renderer,
		store:    st,
		export:   exp,
		logger:   logger,
	}
}

// Router assembles the route table with CORS and request logging applied.
func (s *Server) Router() http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/", s.handleRoot).Methods(http.MethodGet)
	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/api/extract", s.handleExtract).Methods(http.MethodPost)
	r.HandleFunc("/api/extractions", s.handleListExtractions).Methods(http.MethodGet)
	r.HandleFunc("/api/extractions/export", s.handleExportExtractions).Methods(http.MethodGet)

	r.PathPrefix("/screenshots/").Handler(
		http.StripPrefix("/screenshots/",
			http.FileServer(http.Dir(s.cfg.Paths.ScreenshotDir))))

	return cors.AllowAll().Handler(s.requestLogging(r))
}

func (s *Server) requestLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r)
		s.logger.Debug("http.request", "method", r.Method, "path", r.URL.Path)
	})
}
