package etl

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/ironforge/raidlake/internal/adapters/codec"
	"github.com/ironforge/raidlake/internal/adapters/storage"
	"github.com/ironforge/raidlake/internal/domain/gold"
	"github.com/ironforge/raidlake/internal/domain/silver"
	"github.com/ironforge/raidlake/pkg/logger"
	"github.com/ironforge/raidlake/pkg/metrics"
)

// State names the step a partition run is in. Failed is terminal and
// reachable from any step.
type State string

// Partition run states.
const (
	StateReadingSilver State = "reading_silver"
	StateNormalizing   State = "normalizing"
	StateAggregating   State = "aggregating"
	StateValidating    State = "validating"
	StateWriting       State = "writing"
	StateDone          State = "done"
	StateFailed        State = "failed"
)

// PartitionResult is the machine-readable outcome of one partition
// run.
type PartitionResult struct {
	Partition      storage.Partition `json:"partition"`
	State          State             `json:"state"`
	ObjectsRead    int               `json:"objects_read"`
	ObjectsSkipped int               `json:"objects_skipped"`
	RowsRead       int               `json:"rows_read"`
	RowsWritten    map[string]int    `json:"rows_written,omitempty"`
	Error          string            `json:"error,omitempty"`
}

// RunSummary aggregates a multi-partition run.
type RunSummary struct {
	Succeeded int               `json:"succeeded"`
	Failed    int               `json:"failed"`
	Results   []PartitionResult `json:"results"`
}

// GoldOrchestrator drives one silver partition through reading,
// aggregation, validation and publication. Output object names are
// deterministic per partition, so a re-run overwrites its own output.
type GoldOrchestrator struct {
	store        storage.ObjectStore
	silverBucket string
	goldBucket   string
	log          logger.Logger
}

// NewGoldOrchestrator creates a GoldOrchestrator.
func NewGoldOrchestrator(store storage.ObjectStore, silverBucket, goldBucket string) *GoldOrchestrator {
	return &GoldOrchestrator{
		store:        store,
		silverBucket: silverBucket,
		goldBucket:   goldBucket,
		log:          logger.Named("gold"),
	}
}

// RunPartition processes one partition through the full state machine.
// The returned result always describes the terminal state; err is
// non-nil exactly when that state is Failed.
func (o *GoldOrchestrator) RunPartition(ctx context.Context, p storage.Partition) (PartitionResult, error) {
	start := time.Now()
	res := PartitionResult{Partition: p, State: StateReadingSilver}

	fail := func(err error) (PartitionResult, error) {
		res.State = StateFailed
		res.Error = err.Error()
		metrics.RecordPartitionFailed()
		return res, fmt.Errorf("%w: %s: %w", ErrPartitionFailed, p, err)
	}

	rows, err := o.readSilver(ctx, p, &res)
	if err != nil {
		return fail(err)
	}

	// Partition columns are not stored in the file bodies; reattach
	// them from the path before aggregation.
	res.State = StateNormalizing
	for i := range rows {
		rows[i].RaidID = p.RaidID
		rows[i].EventDate = p.EventDate
	}

	res.State = StateAggregating
	summary, err := gold.BuildRaidSummary(rows)
	if err != nil {
		return fail(err)
	}
	stats, err := gold.BuildPlayerStats(rows, summary)
	if err != nil {
		return fail(err)
	}
	players, err := gold.BuildDimPlayers(rows)
	if err != nil {
		return fail(err)
	}
	tables := gold.Tables{
		RaidSummary: summary,
		PlayerStats: stats,
		DimPlayers:  players,
		DimRaid:     gold.BuildDimRaid(summary),
	}

	res.State = StateValidating
	if violations := gold.Validate(tables); violations != nil {
		return fail(fmt.Errorf("%w: %w", gold.ErrValidationFailed, violations))
	}

	res.State = StateWriting
	written, err := o.writeTables(ctx, p, tables)
	if err != nil {
		return fail(err)
	}
	res.RowsWritten = written

	res.State = StateDone
	metrics.RecordPartitionProcessed()
	metrics.RecordStageDuration("gold_partition", float64(time.Since(start).Milliseconds()))
	o.log.Info(ctx, "partition published",
		logger.String("partition", p.String()),
		logger.Int("rows_read", res.RowsRead),
		logger.Int("objects_read", res.ObjectsRead),
		logger.Int("objects_skipped", res.ObjectsSkipped),
	)
	return res, nil
}

// readSilver loads every part file of the partition. Individual read
// or decode failures are skipped and logged; the step fails only when
// there is nothing to read at all.
func (o *GoldOrchestrator) readSilver(ctx context.Context, p storage.Partition, res *PartitionResult) ([]silver.Record, error) {
	names, err := o.store.List(ctx, o.silverBucket, storage.SilverPartitionPrefix(p))
	if err != nil {
		return nil, fmt.Errorf("list silver objects: %w", err)
	}

	var parts []string
	for _, name := range names {
		if _, ok := storage.ParseSilverPath(name); ok {
			parts = append(parts, name)
		}
	}
	if len(parts) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoData, p)
	}

	var rows []silver.Record
	for _, name := range parts {
		data, err := o.store.Get(ctx, o.silverBucket, name)
		if err != nil {
			metrics.RecordObjectReadFailure()
			o.log.Warn(ctx, "skipping unreadable silver object",
				logger.String("object", name), logger.Error(err))
			res.ObjectsSkipped++
			continue
		}
		part, err := codec.DecodeParquet[silver.Record](data)
		if err != nil {
			metrics.RecordObjectReadFailure()
			o.log.Warn(ctx, "skipping undecodable silver object",
				logger.String("object", name), logger.Error(err))
			res.ObjectsSkipped++
			continue
		}
		rows = append(rows, part...)
		res.ObjectsRead++
	}

	if res.ObjectsRead == 0 {
		return nil, fmt.Errorf("%w: %s", ErrAllObjectsUnreadable, p)
	}
	res.RowsRead = len(rows)
	return rows, nil
}

// writeTables publishes all four tables. Object names derive from the
// partition key alone, which makes re-runs overwrite instead of
// append.
func (o *GoldOrchestrator) writeTables(ctx context.Context, p storage.Partition, t gold.Tables) (map[string]int, error) {
	fileID := fmt.Sprintf("%s-%s", p.RaidID, p.EventDate)

	type table struct {
		name string
		body []byte
		rows int
	}
	var tables []table

	summaryBody, err := codec.EncodeParquet([]gold.RaidSummary{t.RaidSummary})
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", storage.TableRaidSummary, err)
	}
	tables = append(tables, table{storage.TableRaidSummary, summaryBody, 1})

	statsBody, err := codec.EncodeParquet(t.PlayerStats)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", storage.TablePlayerRaidStats, err)
	}
	tables = append(tables, table{storage.TablePlayerRaidStats, statsBody, len(t.PlayerStats)})

	playersBody, err := codec.EncodeParquet(t.DimPlayers)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", storage.TableDimPlayer, err)
	}
	tables = append(tables, table{storage.TableDimPlayer, playersBody, len(t.DimPlayers)})

	raidBody, err := codec.EncodeParquet([]gold.DimRaid{t.DimRaid})
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", storage.TableDimRaid, err)
	}
	tables = append(tables, table{storage.TableDimRaid, raidBody, 1})

	written := make(map[string]int, len(tables))
	for _, tb := range tables {
		name := storage.GoldPath(tb.name, p, fileID)
		if err := o.store.Put(ctx, o.goldBucket, name, tb.body, "application/octet-stream"); err != nil {
			metrics.RecordObjectWriteFailure()
			return nil, fmt.Errorf("write %s: %w", name, err)
		}
		metrics.RecordGoldRowsWritten(tb.name, tb.rows)
		written[tb.name] = tb.rows
	}
	return written, nil
}

// DiscoverPartitions lists every distinct silver partition.
func (o *GoldOrchestrator) DiscoverPartitions(ctx context.Context) ([]storage.Partition, error) {
	names, err := o.store.List(ctx, o.silverBucket, storage.SilverRootPrefix())
	if err != nil {
		return nil, fmt.Errorf("list silver dataset: %w", err)
	}

	seen := map[storage.Partition]bool{}
	var partitions []storage.Partition
	for _, name := range names {
		p, ok := storage.ParseSilverPath(name)
		if !ok || seen[p] {
			continue
		}
		seen[p] = true
		partitions = append(partitions, p)
	}
	sort.Slice(partitions, func(i, j int) bool {
		if partitions[i].RaidID != partitions[j].RaidID {
			return partitions[i].RaidID < partitions[j].RaidID
		}
		return partitions[i].EventDate < partitions[j].EventDate
	})
	return partitions, nil
}

// RunAll processes every discovered partition, up to parallelism at a
// time. Partitions share no state, so each worker claims its own key.
func (o *GoldOrchestrator) RunAll(ctx context.Context, parallelism int) (RunSummary, error) {
	partitions, err := o.DiscoverPartitions(ctx)
	if err != nil {
		return RunSummary{}, err
	}
	if parallelism < 1 {
		parallelism = 1
	}

	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		summary RunSummary
	)
	work := make(chan storage.Partition)

	for i := 0; i < parallelism; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for p := range work {
				res, runErr := o.RunPartition(ctx, p)
				mu.Lock()
				summary.Results = append(summary.Results, res)
				if runErr != nil {
					summary.Failed++
				} else {
					summary.Succeeded++
				}
				mu.Unlock()
			}
		}()
	}

	for _, p := range partitions {
		work <- p
	}
	close(work)
	wg.Wait()

	sort.Slice(summary.Results, func(i, j int) bool {
		return summary.Results[i].Partition.String() < summary.Results[j].Partition.String()
	})

	if summary.Failed > 0 {
		var failed []string
		for _, r := range summary.Results {
			if r.State == StateFailed {
				failed = append(failed, r.Partition.String())
			}
		}
		return summary, fmt.Errorf("%w: %s", ErrPartitionFailed, strings.Join(failed, ", "))
	}
	return summary, nil
}
