package api

import (
	"net/http"
)

// Stats is the operational snapshot served on /stats.
type Stats struct {
	Service         string `json:"service"`
	Started         bool   `json:"started"`
	UptimeSeconds   int64  `json:"uptime_seconds"`
	BatchesAccepted int64  `json:"batches_accepted"`
	BatchesRejected int64  `json:"batches_rejected"`
	EventsIngested  int64  `json:"events_ingested"`
	EventsRejected  int64  `json:"events_rejected"`
	QueueLength     int    `json:"queue_length"`
	WorkerCount     int    `json:"worker_count"`
}

// StatsProvider supplies the current snapshot.
type StatsProvider interface {
	GetStats() Stats
}

// StatsHandler serves the snapshot as JSON.
type StatsHandler struct {
	statsProvider StatsProvider
}

// NewStatsHandler creates a new stats handler.
func NewStatsHandler(statsProvider StatsProvider) *StatsHandler {
	return &StatsHandler{statsProvider: statsProvider}
}

// HandleStats handles GET /stats requests.
func (h *StatsHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, h.statsProvider.GetStats())
}
