// Command test-events generates a synthetic raid session and submits
// it to a running ingest service in batches.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/ironforge/raidlake/internal/testevents"
)

// Default configuration constants.
const (
	defaultNumEvents = 10000
	defaultBatchSize = 500
	defaultPlayers   = 25
	defaultSeed      = 42
	defaultTimeout   = 30 * time.Second
	defaultRunBudget = 10 * time.Minute
)

func main() {
	var (
		baseURL     = flag.String("url", "http://localhost:8090", "Base URL of the ingest service")
		raidID      = flag.String("raid", "raid001", "Raid id to generate events for")
		players     = flag.Int("players", defaultPlayers, "Number of players in the raid roster")
		numEvents   = flag.Int("events", defaultNumEvents, "Number of events to generate and submit")
		batchSize   = flag.Int("batch", defaultBatchSize, "Events per POST /events request")
		seed        = flag.Int64("seed", defaultSeed, "Random seed for reproducible sessions")
		timeout     = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		rate        = flag.Float64("rate", 0, "Target events per second (0 = as fast as possible)")
		dupRate     = flag.Float64("dup-rate", 0, "Fraction of events re-emitted as duplicates")
		invalidRate = flag.Float64("invalid-rate", 0, "Fraction of events emitted invalid")
	)
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), defaultRunBudget)
	defer cancel()

	gen := testevents.New(*raidID, *players, *seed,
		testevents.WithDuplicateRate(*dupRate),
		testevents.WithInvalidRate(*invalidRate),
	)
	client := &http.Client{Timeout: *timeout}

	var sent, accepted, rejected int
	for sent < *numEvents {
		n := *batchSize
		if remaining := *numEvents - sent; remaining < n {
			n = remaining
		}
		records := gen.Batch(n)
		sent += n

		status, body, err := post(ctx, client, *baseURL+"/events", records)
		if err != nil {
			os.Stderr.WriteString("submit failed: " + err.Error() + "\n")
			os.Exit(1)
		}
		switch status {
		case http.StatusCreated:
			accepted += n
		default:
			rejected += n
			fmt.Fprintf(os.Stderr, "batch rejected (%d): %s\n", status, body)
		}

		if *rate > 0 {
			pause := time.Duration(float64(n) / *rate * float64(time.Second))
			select {
			case <-ctx.Done():
				os.Stderr.WriteString("run budget exhausted\n")
				os.Exit(1)
			case <-time.After(pause):
			}
		}
	}

	fmt.Printf("sent %d events to %s (%d accepted, %d rejected)\n",
		sent, *baseURL, accepted, rejected)
	if rejected > 0 {
		os.Exit(1)
	}
}

func post(ctx context.Context, client *http.Client, url string, records []map[string]any) (int, string, error) {
	body, err := json.Marshal(records)
	if err != nil {
		return 0, "", fmt.Errorf("encode batch: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return 0, "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return 0, "", fmt.Errorf("send batch: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return 0, "", fmt.Errorf("read response: %w", err)
	}
	return resp.StatusCode, string(respBody), nil
}
