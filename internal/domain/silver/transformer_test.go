package silver

import (
	"strings"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func rawDamage(eventID string) map[string]any {
	return map[string]any{
		"event_id":            eventID,
		"event_type":          "combat_damage",
		"timestamp":           "2025-03-15T20:00:00Z",
		"raid_id":             "raid001",
		"source_player_id":    "p1",
		"source_player_name":  "Thrall",
		"damage_amount":       float64(1500),
		"ingestion_timestamp": "2025-03-15T20:00:02Z",
	}
}

func TestTransformerStages(t *testing.T) {
	tr := NewTransformer()

	Convey("Given a batch with duplicated event ids", t, func() {
		records := []map[string]any{rawDamage("e1"), rawDamage("e2"), rawDamage("e1")}

		Convey("When the batch is transformed", func() {
			rows, report := tr.Transform(records)

			Convey("Then the first occurrence wins", func() {
				So(len(rows), ShouldEqual, 2)
				So(report.DuplicatesRemoved, ShouldEqual, 1)
				So(report.RowsAfterValidation, ShouldEqual, 2)
			})
		})
	})

	Convey("Given rows with out-of-range health percentages", t, func() {
		good := rawDamage("e1")
		bad := rawDamage("e2")
		bad["target_entity_health_pct_after"] = float64(150)
		missing := rawDamage("e3")
		missing["target_entity_health_pct_after"] = nil

		Convey("When the batch is transformed", func() {
			rows, report := tr.Transform([]map[string]any{good, bad, missing})

			Convey("Then only the out-of-range row is dropped", func() {
				So(len(rows), ShouldEqual, 2)
				So(report.RowsAfterValidation, ShouldEqual, 2)
			})

			Convey("Then the violation is reported per field with a count", func() {
				So(len(report.ValidationErrors), ShouldEqual, 1)
				So(report.ValidationErrors[0], ShouldContainSubstring, "target_entity_health_pct_after")
				So(report.ValidationErrors[0], ShouldContainSubstring, "1")
			})
		})
	})

	Convey("Given unparseable values", t, func() {
		rec := rawDamage("e1")
		rec["damage_amount"] = "lots"
		rec["source_player_level"] = "max"

		Convey("When the batch is transformed", func() {
			rows, _ := tr.Transform([]map[string]any{rec})

			Convey("Then the row survives with blanked fields", func() {
				So(len(rows), ShouldEqual, 1)
				So(rows[0].DamageAmount, ShouldBeNil)
				So(rows[0].SourcePlayerLevel, ShouldBeNil)
			})
		})
	})

	Convey("Given a well-formed row", t, func() {
		rec := rawDamage("e1")

		Convey("When the batch is transformed", func() {
			rows, _ := tr.Transform([]map[string]any{rec})
			row := rows[0]

			Convey("Then the ingest latency is derived in milliseconds", func() {
				So(row.IngestLatencyMS, ShouldEqual, 2000)
			})

			Convey("Then the event date comes from the event timestamp", func() {
				So(row.EventDate, ShouldEqual, "2025-03-15")
			})

			Convey("Then the timestamp is parsed to UTC", func() {
				So(row.Timestamp, ShouldEqual, time.Date(2025, 3, 15, 20, 0, 0, 0, time.UTC))
			})
		})
	})

	Convey("Given a massive hit and a normal hit", t, func() {
		big := rawDamage("e1")
		big["damage_amount"] = float64(25_000)
		small := rawDamage("e2")

		Convey("When the batch is transformed", func() {
			rows, _ := tr.Transform([]map[string]any{big, small})

			So(rows[0].IsMassiveHit, ShouldBeTrue)
			So(rows[1].IsMassiveHit, ShouldBeFalse)
		})
	})

	Convey("Given a heal at the massive-hit threshold", t, func() {
		rec := rawDamage("e1")
		rec["event_type"] = "heal"
		rec["damage_amount"] = float64(50_000)

		Convey("When the batch is transformed", func() {
			rows, _ := tr.Transform([]map[string]any{rec})

			Convey("Then only combat_damage rows can be massive hits", func() {
				So(rows[0].IsMassiveHit, ShouldBeFalse)
			})
		})
	})

	Convey("Given a row with no ingestion timestamp", t, func() {
		rec := rawDamage("e1")
		delete(rec, "ingestion_timestamp")

		Convey("When the batch is transformed", func() {
			rows, _ := tr.Transform([]map[string]any{rec})

			Convey("Then the latency defaults to 0", func() {
				So(rows[0].IngestLatencyMS, ShouldEqual, 0)
			})
		})
	})

	Convey("Given a custom massive-hit threshold", t, func() {
		custom := NewTransformer(WithMassiveHitThreshold(1000))
		rows, _ := custom.Transform([]map[string]any{rawDamage("e1")})

		So(rows[0].IsMassiveHit, ShouldBeTrue)
	})

	Convey("Given whitespace-padded identifiers", t, func() {
		rec := rawDamage("e1")
		rec["source_player_name"] = "  Thrall  "

		rows, _ := tr.Transform([]map[string]any{rec})

		So(rows[0].SourcePlayerName, ShouldEqual, strings.TrimSpace("  Thrall  "))
	})
}
