// Package etl runs the storage-facing pipeline stages: the bronze to
// silver transform and the gold partition orchestrator.
package etl

import (
	"context"
	"fmt"

	"github.com/ironforge/raidlake/internal/adapters/codec"
	"github.com/ironforge/raidlake/internal/adapters/mq/queue"
	"github.com/ironforge/raidlake/internal/adapters/storage"
	"github.com/ironforge/raidlake/internal/domain/silver"
	"github.com/ironforge/raidlake/pkg/logger"
	"github.com/ironforge/raidlake/pkg/metrics"
)

// SilverRunner reads one landed bronze object, cleans it and writes
// the surviving rows to the silver tier, one part file per (raid_id,
// event_date) partition. It implements the worker Processor contract.
type SilverRunner struct {
	store        storage.ObjectStore
	bronzeBucket string
	silverBucket string
	transformer  *silver.Transformer
	log          logger.Logger
}

// NewSilverRunner creates a SilverRunner.
func NewSilverRunner(store storage.ObjectStore, bronzeBucket, silverBucket string, transformer *silver.Transformer) *SilverRunner {
	if transformer == nil {
		transformer = silver.NewTransformer()
	}
	return &SilverRunner{
		store:        store,
		bronzeBucket: bronzeBucket,
		silverBucket: silverBucket,
		transformer:  transformer,
		log:          logger.Named("silver"),
	}
}

// Process transforms one bronze object end to end.
func (r *SilverRunner) Process(ctx context.Context, m queue.Message) error {
	data, err := r.store.Get(ctx, r.bronzeBucket, m.ObjectName)
	if err != nil {
		metrics.RecordObjectReadFailure()
		return fmt.Errorf("read bronze object %s: %w", m.ObjectName, err)
	}

	records, err := codec.DecodeBronze(data)
	if err != nil {
		return fmt.Errorf("decode bronze object %s: %w", m.ObjectName, err)
	}

	rows, report := r.transformer.Transform(records)

	metrics.RecordSilverBatch()
	metrics.RecordDuplicatesRemoved(report.DuplicatesRemoved)
	if dropped := len(records) - report.DuplicatesRemoved - report.RowsAfterValidation; dropped > 0 {
		metrics.RecordRowsRangeDropped(dropped)
	}
	for _, diag := range report.ValidationErrors {
		r.log.Warn(ctx, "range validation dropped rows",
			logger.String("object", m.ObjectName),
			logger.String("detail", diag),
		)
	}

	partID := m.BatchID
	if partID == "" {
		if id, ok := storage.ParseBatchID(m.ObjectName); ok {
			partID = id
		} else {
			partID = "unknown"
		}
	}

	written := 0
	for partition, group := range partitionRows(rows) {
		body, err := codec.EncodeParquet(group)
		if err != nil {
			return fmt.Errorf("encode silver part for %s: %w", partition, err)
		}
		name := storage.SilverPartPath(partition, partID)
		if err := r.store.Put(ctx, r.silverBucket, name, body, "application/octet-stream"); err != nil {
			metrics.RecordObjectWriteFailure()
			return fmt.Errorf("write silver part %s: %w", name, err)
		}
		written += len(group)
	}
	metrics.RecordSilverRowsWritten(written)

	r.log.Info(ctx, "bronze batch transformed",
		logger.String("batch_id", partID),
		logger.Int("rows_in", len(records)),
		logger.Int("rows_out", written),
		logger.Int("duplicates_removed", report.DuplicatesRemoved),
	)
	return nil
}

// partitionRows splits cleaned rows by their partition key. Rows with
// no raid id or no derivable event date cannot be placed and are
// dropped.
func partitionRows(rows []silver.Record) map[storage.Partition][]silver.Record {
	groups := make(map[storage.Partition][]silver.Record)
	for _, row := range rows {
		if row.RaidID == "" || row.EventDate == "" {
			continue
		}
		p := storage.Partition{RaidID: row.RaidID, EventDate: row.EventDate}
		groups[p] = append(groups[p], row)
	}
	return groups
}
