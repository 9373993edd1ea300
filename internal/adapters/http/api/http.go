// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/ironforge/raidlake/internal/domain/batch"
)

// Number of per-record failures returned to the producer. The full
// list is logged server-side.
const maxReportedFailures = 5

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	// Ingest runs the batch gate and lands accepted batches in bronze.
	// On rejection it returns the per-index failures.
	Ingest(ctx context.Context, records []map[string]any) (*batch.Envelope, []batch.IndexedViolations, error)
}

// Server wires HTTP routes for the ingest API.
type Server struct {
	healthHandler *HealthHandler
	statsHandler  *StatsHandler
	eventsHandler *EventsHandler
	streamHandler *StreamHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, broadcaster *Broadcaster) *Server {
	return &Server{
		healthHandler: NewHealthHandler(),
		statsHandler:  NewStatsHandler(statsProvider),
		eventsHandler: NewEventsHandler(deps),
		streamHandler: NewStreamHandler(broadcaster),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/events", MetricsMiddleware(s.eventsHandler.HandlePostEvents, "events"))
	mux.HandleFunc("/stream/events", s.streamHandler.HandleStream)
}

// acceptedResponse acknowledges a landed batch.
type acceptedResponse struct {
	Status      string `json:"status"`
	BatchID     string `json:"batch_id"`
	EventCount  int    `json:"event_count"`
	StoragePath string `json:"storage_path"`
}

// rejectionResponse carries the structured rejection detail: counts
// plus the first few per-record failures.
type rejectionResponse struct {
	Code         string                    `json:"code"`
	Message      string                    `json:"message"`
	ValidCount   int                       `json:"valid_count"`
	InvalidCount int                       `json:"invalid_count"`
	Errors       []batch.IndexedViolations `json:"errors"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}
