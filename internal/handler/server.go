// Package handler implements the HTTP handlers for the workspace contents API.
// All handlers are methods on Server. Methods are split into domain-specific
// files (health.go, record.go, tag.go) but share the same Server struct so
// they can access its dependencies.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pkordes/blockfactory/internal/domain"
	"github.com/pkordes/blockfactory/spec"
)

// RecordServicer defines the business operations the record handlers depend on.
// Defining the interface here (in the consumer package) lets handler tests
// inject a mock without touching the database or service layer.
type RecordServicer interface {
	Create(ctx context.Context, name string, content domain.Content) (*domain.TaggedRecord, error)
	Get(ctx context.Context, name string) (*domain.TaggedRecord, error)
	List(ctx context.Context, p domain.PaginationParams) (domain.Page[*domain.TaggedRecord], error)
	Delete(ctx context.Context, name string) error
	SetContent(ctx context.Context, name string, content domain.Content) (*domain.TaggedRecord, error)
	Export(ctx context.Context, name string) (domain.Content, error)
	AddTag(ctx context.Context, name, tagID string) (*domain.TaggedRecord, error)
	RemoveTag(ctx context.Context, name, tagID string) (*domain.TaggedRecord, error)
	HasTag(ctx context.Context, name, tagID string) (bool, error)
	ListTags(ctx context.Context, name string) ([]string, error)
}

// Server holds the dependencies shared by every handler.
// Mount its Routes in main.go behind the middleware stack.
type Server struct {
	records RecordServicer
	log     *slog.Logger
}

// NewServer constructs the Server with all its dependencies.
// A nil logger falls back to slog.Default().
func NewServer(records RecordServicer, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{records: records, log: log}
}

// NewHealthHandler returns a Server for health-check-only use.
func NewHealthHandler() *Server {
	return NewServer(nil, nil)
}

// Routes returns a chi router with every API endpoint registered.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", s.GetHealth)
	r.Get("/openapi.yaml", serveOpenAPI)

	r.Route("/records", func(r chi.Router) {
		r.Get("/", s.ListRecords)
		r.Post("/", s.CreateRecord)

		r.Route("/{name}", func(r chi.Router) {
			r.Get("/", s.GetRecord)
			r.Delete("/", s.DeleteRecord)
			r.Put("/content", s.SetRecordContent)
			r.Get("/export", s.ExportRecord)

			r.Get("/tags", s.ListRecordTags)
			r.Put("/tags/{tag}", s.AddRecordTag)
			r.Get("/tags/{tag}", s.GetRecordTag)
			r.Delete("/tags/{tag}", s.RemoveRecordTag)
		})
	})

	return r
}

// serveOpenAPI writes the embedded OpenAPI document.
func serveOpenAPI(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/yaml")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(spec.OpenAPI)
}
