// Package batch implements the all-or-nothing ingest gate and the bronze
// batch envelope it produces.
package batch

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ironforge/raidlake/internal/domain/event"
)

// Envelope is one accepted batch, as landed in the bronze tier.
type Envelope struct {
	BatchID         string        `json:"batch_id"`
	IngestTimestamp time.Time     `json:"ingest_timestamp"`
	EventCount      int           `json:"event_count"`
	Events          []event.Event `json:"events"`

	// StoragePath is the bronze object key the envelope was landed at.
	// Filled in by the ingest service after the write; not part of the
	// wire envelope.
	StoragePath string `json:"-"`
}

// RaidID returns the raid the batch belongs to, taken from its first
// event. Accepted batches always hold at least one event.
func (e *Envelope) RaidID() string {
	if len(e.Events) == 0 {
		return ""
	}
	return e.Events[0].RaidID
}

// IndexedViolations ties a rejected record's violations to its position
// in the submitted batch.
type IndexedViolations struct {
	Index      int              `json:"index"`
	Violations event.Violations `json:"violations"`
}

func (iv IndexedViolations) String() string {
	return fmt.Sprintf("event[%d]: %s", iv.Index, iv.Violations.Error())
}

// Gate validates a submitted batch as a whole. A batch is accepted only
// when every record in it is valid; one bad record rejects everything.
type Gate struct {
	validator *event.Validator
	maxEvents int
	now       func() time.Time
}

// GateOption configures a Gate.
type GateOption func(*Gate)

// WithMaxEvents caps the number of events a single batch may carry.
func WithMaxEvents(n int) GateOption {
	return func(g *Gate) {
		if n > 0 {
			g.maxEvents = n
		}
	}
}

// WithValidator overrides the event validator, mainly for tests that
// need a fixed clock.
func WithValidator(v *event.Validator) GateOption {
	return func(g *Gate) {
		if v != nil {
			g.validator = v
		}
	}
}

// WithGateClock overrides the time source used for ingest timestamps.
func WithGateClock(now func() time.Time) GateOption {
	return func(g *Gate) {
		if now != nil {
			g.now = now
		}
	}
}

// NewGate creates a Gate with a default validator and a 10k event cap.
func NewGate(opts ...GateOption) *Gate {
	g := &Gate{
		validator: event.NewValidator(),
		maxEvents: 10_000,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Decode parses a request body into loose records. The body must be a
// JSON array of objects; anything else is ErrMalformedInput.
func Decode(body []byte) ([]map[string]any, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("%w: body must be a JSON array: %v", ErrMalformedInput, err)
	}

	records := make([]map[string]any, len(raw))
	for i, msg := range raw {
		var rec map[string]any
		if err := json.Unmarshal(msg, &rec); err != nil {
			return nil, fmt.Errorf("%w: element %d is not an object", ErrMalformedInput, i)
		}
		records[i] = rec
	}
	return records, nil
}

// Admit validates every record and either builds an Envelope or returns
// the per-index failures. All records are validated even after the
// first failure, so callers see the full picture.
func (g *Gate) Admit(records []map[string]any) (*Envelope, []IndexedViolations, error) {
	if len(records) == 0 {
		return nil, nil, ErrEmptyBatch
	}
	if len(records) > g.maxEvents {
		return nil, nil, fmt.Errorf("%w: %d events exceeds the cap of %d", ErrBatchTooLarge, len(records), g.maxEvents)
	}

	events := make([]event.Event, 0, len(records))
	var failures []IndexedViolations
	for i, rec := range records {
		ev, violations := g.validator.Validate(rec)
		if len(violations) > 0 {
			failures = append(failures, IndexedViolations{Index: i, Violations: violations})
			continue
		}
		events = append(events, ev)
	}

	if len(failures) > 0 {
		return nil, failures, ErrBatchRejected
	}

	return &Envelope{
		BatchID:         uuid.NewString(),
		IngestTimestamp: g.now().UTC(),
		EventCount:      len(events),
		Events:          events,
	}, nil, nil
}
