package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"
)

const defaultStreamBuffer = 256

// BatchNotice is the server-sent event published for every accepted
// batch.
type BatchNotice struct {
	BatchID         string    `json:"batch_id"`
	RaidID          string    `json:"raid_id"`
	EventCount      int       `json:"event_count"`
	IngestTimestamp time.Time `json:"ingest_timestamp"`
}

// Broadcaster fans accepted-batch notices out to live stream
// connections. Subscriber lifetime is tied to connection lifetime;
// there is no ambient registry.
type Broadcaster struct {
	mu     sync.RWMutex
	subs   map[chan BatchNotice]struct{}
	buffer int
	closed bool
}

// NewBroadcaster creates a Broadcaster. buffer is the per-subscriber
// channel depth; slow subscribers drop notices instead of blocking
// ingestion.
func NewBroadcaster(buffer int) *Broadcaster {
	if buffer <= 0 {
		buffer = defaultStreamBuffer
	}
	return &Broadcaster{
		subs:   make(map[chan BatchNotice]struct{}),
		buffer: buffer,
	}
}

// Subscribe registers a new subscriber. The returned cancel function
// must be called when the connection ends.
func (b *Broadcaster) Subscribe() (<-chan BatchNotice, func()) {
	ch := make(chan BatchNotice, b.buffer)

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	b.subs[ch] = struct{}{}
	b.mu.Unlock()

	cancel := func() {
		b.mu.Lock()
		if _, ok := b.subs[ch]; ok {
			delete(b.subs, ch)
			close(ch)
		}
		b.mu.Unlock()
	}
	return ch, cancel
}

// Publish delivers a notice to every subscriber without blocking.
func (b *Broadcaster) Publish(n BatchNotice) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for ch := range b.subs {
		select {
		case ch <- n:
		default: // slow subscriber, drop
		}
	}
}

// Close shuts every subscriber channel down.
func (b *Broadcaster) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for ch := range b.subs {
		delete(b.subs, ch)
		close(ch)
	}
}

// StreamHandler serves the live batch feed over server-sent events.
type StreamHandler struct {
	broadcaster *Broadcaster
}

// NewStreamHandler creates a new stream handler.
func NewStreamHandler(broadcaster *Broadcaster) *StreamHandler {
	return &StreamHandler{broadcaster: broadcaster}
}

// HandleStream handles GET /stream/events requests.
func (h *StreamHandler) HandleStream(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming_unsupported", nil)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	notices, cancel := h.broadcaster.Subscribe()
	defer cancel()

	heartbeat := time.NewTicker(15 * time.Second)
	defer heartbeat.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-heartbeat.C:
			fmt.Fprint(w, ": heartbeat\n\n")
			flusher.Flush()
		case n, open := <-notices:
			if !open {
				return
			}
			data, err := json.Marshal(n)
			if err != nil {
				continue
			}
			fmt.Fprintf(w, "event: batch\ndata: %s\n\n", data)
			flusher.Flush()
		}
	}
}
