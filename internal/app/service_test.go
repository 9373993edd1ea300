package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/ironforge/raidlake/internal/domain/batch"
	"github.com/ironforge/raidlake/pkg/logger"
)

func TestMain(m *testing.M) {
	_ = logger.Init(logger.WithOutput(io.Discard))
	os.Exit(m.Run())
}

type memStore struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func newMemStore() *memStore {
	return &memStore{objects: map[string][]byte{}}
}

func (s *memStore) Put(ctx context.Context, bucket, name string, data []byte, contentType string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[bucket+"/"+name] = data
	return nil
}

func (s *memStore) Get(ctx context.Context, bucket, name string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.objects[bucket+"/"+name]
	if !ok {
		return nil, fmt.Errorf("not found: %s/%s", bucket, name)
	}
	return data, nil
}

func (s *memStore) List(ctx context.Context, bucket, prefix string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var names []string
	for k := range s.objects {
		if strings.HasPrefix(k, bucket+"/"+prefix) {
			names = append(names, strings.TrimPrefix(k, bucket+"/"))
		}
	}
	return names, nil
}

func (s *memStore) EnsureBucket(ctx context.Context, bucket string) error { return nil }

func (s *memStore) bronzeObjects() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var names []string
	for k := range s.objects {
		if strings.HasPrefix(k, "bronze/") {
			names = append(names, k)
		}
	}
	return names
}

func validRecord() map[string]any {
	return map[string]any{
		"event_type":         "combat_damage",
		"timestamp":          time.Now().UTC().Add(-time.Minute).Format(time.RFC3339),
		"raid_id":            "raid001",
		"source_player_id":   "p1",
		"source_player_name": "Thrall",
		"damage_amount":      float64(1500),
	}
}

func TestServiceIngest(t *testing.T) {
	ctx := context.Background()

	Convey("Given a started ingest service", t, func() {
		store := newMemStore()
		svc := New(WithStore(store), WithWorkerCount(1), WithQueueSize(8))
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()

		Convey("When a valid batch is ingested", func() {
			notices, cancel := svc.Broadcaster().Subscribe()
			defer cancel()

			env, failures, err := svc.Ingest(ctx, []map[string]any{validRecord(), validRecord()})

			Convey("Then the batch lands in bronze", func() {
				So(err, ShouldBeNil)
				So(failures, ShouldBeNil)
				So(env.EventCount, ShouldEqual, 2)
				So(len(store.bronzeObjects()), ShouldEqual, 1)
				So(store.bronzeObjects()[0], ShouldContainSubstring, "raid_id=raid001")
				So(store.bronzeObjects()[0], ShouldContainSubstring, env.BatchID)
				So(store.bronzeObjects()[0], ShouldEqual, "bronze/"+env.StoragePath)
			})

			Convey("Then the live feed announces it", func() {
				select {
				case n := <-notices:
					So(n.BatchID, ShouldEqual, env.BatchID)
					So(n.EventCount, ShouldEqual, 2)
				case <-time.After(time.Second):
					t.Fatal("no batch notice received")
				}
			})

			Convey("Then the stats reflect the accepted batch", func() {
				stats := svc.GetStats()
				So(stats.BatchesAccepted, ShouldEqual, int64(1))
				So(stats.EventsIngested, ShouldEqual, int64(2))
			})
		})

		Convey("When a batch with one invalid record is ingested", func() {
			bad := validRecord()
			bad["damage_amount"] = float64(-5)

			env, failures, err := svc.Ingest(ctx, []map[string]any{validRecord(), bad})

			Convey("Then nothing lands and the failures are indexed", func() {
				So(errors.Is(err, batch.ErrBatchRejected), ShouldBeTrue)
				So(env, ShouldBeNil)
				So(len(failures), ShouldEqual, 1)
				So(failures[0].Index, ShouldEqual, 1)
				So(len(store.bronzeObjects()), ShouldEqual, 0)
			})

			Convey("Then the stats reflect the rejection", func() {
				stats := svc.GetStats()
				So(stats.BatchesRejected, ShouldEqual, int64(1))
				So(stats.EventsRejected, ShouldEqual, int64(1))
			})
		})

		Convey("When starting twice", func() {
			So(svc.Start(ctx), ShouldBeNil)
		})
	})

	Convey("Given a service without a store", t, func() {
		svc := New()

		So(svc.Start(ctx), ShouldNotBeNil)
	})
}
