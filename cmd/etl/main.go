// Command etl drives the batch half of the pipeline: replaying bronze
// batches into silver and publishing silver partitions as gold tables.
//
// Usage:
//
//	etl run --raid-id raid001 --event-date 2025-03-15
//	etl run --all [--parallelism 4] [--schedule "0 2 * * *"]
//	etl silver --key wow_raid_events/v1/raid_id=raid001/ingest_date=2025-03-15/batch_<id>.json
//
// Every run prints a machine-readable JSON summary on stdout and exits
// non-zero if any partition fails.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"

	eventqueue "github.com/ironforge/raidlake/internal/adapters/mq/queue"
	"github.com/ironforge/raidlake/internal/adapters/storage"
	"github.com/ironforge/raidlake/internal/config"
	"github.com/ironforge/raidlake/internal/etl"
	"github.com/ironforge/raidlake/pkg/logger"
)

const defaultParallelism = 4

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}
	if err := logger.Init(logger.WithFormat(cfg.LogFormat)); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		_ = logger.SetLevelString("info")
	}
	log := logger.Named("etl")

	store, err := storage.NewMinioStore(storage.MinioOptions{
		Endpoint:  cfg.S3Endpoint,
		AccessKey: cfg.S3AccessKey,
		SecretKey: cfg.S3SecretKey,
		UseSSL:    cfg.S3UseSSL,
	})
	if err != nil {
		log.Error(ctx, "failed to connect to object store", logger.Error(err))
		os.Exit(1)
	}
	for _, bucket := range []string{cfg.BucketBronze, cfg.BucketSilver, cfg.BucketGold} {
		if err := store.EnsureBucket(ctx, bucket); err != nil {
			log.Error(ctx, "failed to ensure bucket",
				logger.String("bucket", bucket), logger.Error(err))
			os.Exit(1)
		}
	}

	switch os.Args[1] {
	case "run":
		runGold(ctx, cfg, store)
	case "silver":
		runSilver(ctx, cfg, store)
	default:
		usage()
		os.Exit(2)
	}
}

func usage() {
	os.Stderr.WriteString(`usage:
  etl run --raid-id <id> --event-date <yyyy-mm-dd>   process one partition
  etl run --all [--parallelism N] [--schedule SPEC]  process every partition
  etl silver --key <bronze object key>               replay one bronze batch
`)
}

// runGold handles the `run` subcommand.
func runGold(ctx context.Context, cfg *config.Config, store storage.ObjectStore) {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	raidID := fs.String("raid-id", "", "raid id of the partition to process")
	eventDate := fs.String("event-date", "", "event date of the partition to process")
	all := fs.Bool("all", false, "discover and process every silver partition")
	parallelism := fs.Int("parallelism", defaultParallelism, "partitions processed concurrently with --all")
	schedule := fs.String("schedule", "", "cron spec; keep running --all on this schedule")
	_ = fs.Parse(os.Args[2:])

	orch := etl.NewGoldOrchestrator(store, cfg.BucketSilver, cfg.BucketGold)

	switch {
	case *schedule != "":
		if !*all {
			os.Stderr.WriteString("--schedule requires --all\n")
			os.Exit(2)
		}
		runScheduled(ctx, orch, *schedule, *parallelism)

	case *all:
		summary, err := orch.RunAll(ctx, *parallelism)
		printJSON(summary)
		if err != nil {
			os.Exit(1)
		}

	case *raidID != "" && *eventDate != "":
		res, err := orch.RunPartition(ctx, storage.Partition{RaidID: *raidID, EventDate: *eventDate})
		printJSON(res)
		if err != nil {
			os.Exit(1)
		}

	default:
		os.Stderr.WriteString("run needs either --all or both --raid-id and --event-date\n")
		os.Exit(2)
	}
}

// runScheduled keeps processing all partitions on a cron schedule until
// interrupted. Each tick prints its own summary; failures are logged
// but do not stop the scheduler.
func runScheduled(ctx context.Context, orch *etl.GoldOrchestrator, spec string, parallelism int) {
	log := logger.Named("etl.schedule")

	c := cron.New()
	_, err := c.AddFunc(spec, func() {
		summary, runErr := orch.RunAll(ctx, parallelism)
		printJSON(summary)
		if runErr != nil {
			log.Error(ctx, "scheduled run had failures", logger.Error(runErr))
		} else {
			log.Info(ctx, "scheduled run complete",
				logger.Int("succeeded", summary.Succeeded))
		}
	})
	if err != nil {
		os.Stderr.WriteString("invalid --schedule spec: " + err.Error() + "\n")
		os.Exit(2)
	}

	log.Info(ctx, "scheduler started", logger.String("spec", spec))
	c.Start()
	<-ctx.Done()
	<-c.Stop().Done()
	log.Info(ctx, "scheduler stopped")
}

// runSilver handles the `silver` subcommand: replay a single bronze
// object through the silver transform. Useful when the ingest queue
// dropped a batch under backpressure.
func runSilver(ctx context.Context, cfg *config.Config, store storage.ObjectStore) {
	fs := flag.NewFlagSet("silver", flag.ExitOnError)
	key := fs.String("key", "", "bronze object key to replay")
	_ = fs.Parse(os.Args[2:])

	if *key == "" {
		os.Stderr.WriteString("silver needs --key\n")
		os.Exit(2)
	}
	raidID, ingestDate, ok := storage.ParseBronzePath(*key)
	if !ok {
		os.Stderr.WriteString("--key is not a bronze object path\n")
		os.Exit(2)
	}

	batchID, _ := storage.ParseBatchID(*key)
	runner := etl.NewSilverRunner(store, cfg.BucketBronze, cfg.BucketSilver, nil)
	msg := eventqueue.Message{
		ObjectName: *key,
		RaidID:     raidID,
		IngestDate: ingestDate,
		BatchID:    batchID,
	}
	if err := runner.Process(ctx, msg); err != nil {
		printJSON(map[string]any{"object": *key, "error": err.Error()})
		os.Exit(1)
	}
	printJSON(map[string]any{"object": *key, "status": "transformed"})
}

func printJSON(v any) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to encode summary:", err)
		return
	}
	fmt.Println(string(out))
}
