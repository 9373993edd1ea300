// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/ironforge/raidlake/internal/domain/batch"
)

// Request bodies above this size are rejected outright.
const maxBodyBytes = 32 << 20

// EventsHandler handles batch submissions.
type EventsHandler struct {
	deps Dependencies
}

// NewEventsHandler creates a new events handler.
func NewEventsHandler(deps Dependencies) *EventsHandler {
	return &EventsHandler{deps: deps}
}

// HandlePostEvents handles POST /events requests. The body is a JSON
// array of raw event records; the batch is accepted or rejected as a
// unit.
func (h *EventsHandler) HandlePostEvents(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_events"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	records, err := batch.Decode(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "malformed_input", WrapKind(op, ErrBadRequest, err))
		return
	}

	env, failures, err := h.deps.Ingest(r.Context(), records)
	switch {
	case err == nil:
		writeJSON(w, http.StatusCreated, acceptedResponse{
			Status:      "accepted",
			BatchID:     env.BatchID,
			EventCount:  env.EventCount,
			StoragePath: env.StoragePath,
		})
	case errors.Is(err, batch.ErrBatchRejected):
		reported := failures
		if len(reported) > maxReportedFailures {
			reported = reported[:maxReportedFailures]
		}
		writeJSON(w, http.StatusBadRequest, rejectionResponse{
			Code:         "schema_violation",
			Message:      "batch rejected: all records must be valid",
			ValidCount:   len(records) - len(failures),
			InvalidCount: len(failures),
			Errors:       reported,
		})
	case errors.Is(err, batch.ErrEmptyBatch), errors.Is(err, batch.ErrBatchTooLarge):
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", WrapKind(op, ErrInternal, err))
	}
}
