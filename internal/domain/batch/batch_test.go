package batch

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/ironforge/raidlake/internal/domain/event"
)

var testNow = time.Date(2025, 3, 15, 20, 30, 0, 0, time.UTC)

func testGate(opts ...GateOption) *Gate {
	clock := func() time.Time { return testNow }
	base := []GateOption{
		WithValidator(event.NewValidator(event.WithClock(clock))),
		WithGateClock(clock),
	}
	return NewGate(append(base, opts...)...)
}

func damageRecord(playerID string) map[string]any {
	return map[string]any{
		"event_type":         "combat_damage",
		"timestamp":          testNow.Add(-time.Minute).Format(time.RFC3339),
		"raid_id":            "raid001",
		"source_player_id":   playerID,
		"source_player_name": "Thrall",
		"damage_amount":      float64(1500),
	}
}

func TestGateAdmit(t *testing.T) {
	Convey("Given a batch where every record is valid", t, func() {
		g := testGate()
		records := []map[string]any{damageRecord("p1"), damageRecord("p2"), damageRecord("p3")}

		Convey("When the batch is admitted", func() {
			env, failures, err := g.Admit(records)

			Convey("Then an envelope is produced", func() {
				So(err, ShouldBeNil)
				So(failures, ShouldBeNil)
				So(env.EventCount, ShouldEqual, 3)
				So(len(env.Events), ShouldEqual, 3)
				So(env.IngestTimestamp, ShouldEqual, testNow)
				So(env.RaidID(), ShouldEqual, "raid001")

				_, parseErr := uuid.Parse(env.BatchID)
				So(parseErr, ShouldBeNil)
			})
		})
	})

	Convey("Given a batch with one bad record among good ones", t, func() {
		g := testGate()
		bad := damageRecord("p2")
		bad["damage_amount"] = float64(-5)
		records := []map[string]any{damageRecord("p1"), bad, damageRecord("p3")}

		Convey("When the batch is admitted", func() {
			env, failures, err := g.Admit(records)

			Convey("Then the whole batch is rejected", func() {
				So(errors.Is(err, ErrBatchRejected), ShouldBeTrue)
				So(env, ShouldBeNil)
			})

			Convey("Then the failure names the offending index", func() {
				So(len(failures), ShouldEqual, 1)
				So(failures[0].Index, ShouldEqual, 1)
				So(failures[0].Violations.Fields(), ShouldContain, "damage_amount")
			})
		})
	})

	Convey("Given a batch with several bad records", t, func() {
		g := testGate()
		records := make([]map[string]any, 0, 4)
		for i := 0; i < 4; i++ {
			rec := damageRecord("p1")
			rec["raid_id"] = "nope"
			records = append(records, rec)
		}

		Convey("When the batch is admitted", func() {
			_, failures, err := g.Admit(records)

			Convey("Then every failure is reported, not just the first", func() {
				So(errors.Is(err, ErrBatchRejected), ShouldBeTrue)
				So(len(failures), ShouldEqual, 4)
			})
		})
	})

	Convey("Given an empty batch", t, func() {
		g := testGate()

		Convey("When the batch is admitted", func() {
			_, _, err := g.Admit(nil)

			So(errors.Is(err, ErrEmptyBatch), ShouldBeTrue)
		})
	})

	Convey("Given a batch over the event cap", t, func() {
		g := testGate(WithMaxEvents(2))
		records := []map[string]any{damageRecord("p1"), damageRecord("p2"), damageRecord("p3")}

		Convey("When the batch is admitted", func() {
			_, _, err := g.Admit(records)

			So(errors.Is(err, ErrBatchTooLarge), ShouldBeTrue)
		})
	})
}

func TestDecode(t *testing.T) {
	Convey("Given a JSON array of objects", t, func() {
		body := []byte(`[{"event_type":"heal","healing_amount":42.5}]`)

		Convey("When it is decoded", func() {
			records, err := Decode(body)

			Convey("Then numbers come back as float64", func() {
				So(err, ShouldBeNil)
				So(len(records), ShouldEqual, 1)
				So(records[0]["healing_amount"], ShouldEqual, 42.5)
			})
		})
	})

	Convey("Given a body that is not an array", t, func() {
		_, err := Decode([]byte(`{"events": []}`))

		So(errors.Is(err, ErrMalformedInput), ShouldBeTrue)
	})

	Convey("Given an array holding a non-object", t, func() {
		_, err := Decode([]byte(`[42]`))

		So(errors.Is(err, ErrMalformedInput), ShouldBeTrue)
	})
}
