package storage

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestLayout(t *testing.T) {
	Convey("Given a bronze batch", t, func() {
		path := BronzeBatchPath("raid001", "2025-03-15", "123e4567-e89b-12d3-a456-426614174000")

		Convey("Then the path is Hive-partitioned by raid and ingest date", func() {
			So(path, ShouldEqual,
				"wow_raid_events/v1/raid_id=raid001/ingest_date=2025-03-15/batch_123e4567-e89b-12d3-a456-426614174000.json")
		})

		Convey("Then the batch id round-trips through the name", func() {
			id, ok := ParseBatchID(path)
			So(ok, ShouldBeTrue)
			So(id, ShouldEqual, "123e4567-e89b-12d3-a456-426614174000")
		})

		Convey("Then the raid and ingest date round-trip too", func() {
			raidID, ingestDate, ok := ParseBronzePath(path)
			So(ok, ShouldBeTrue)
			So(raidID, ShouldEqual, "raid001")
			So(ingestDate, ShouldEqual, "2025-03-15")
		})
	})

	Convey("Given a silver part file", t, func() {
		p := Partition{RaidID: "raid042", EventDate: "2025-03-16"}
		path := SilverPartPath(p, "abc")

		Convey("Then the partition key is reconstructed from the path alone", func() {
			parsed, ok := ParseSilverPath(path)
			So(ok, ShouldBeTrue)
			So(parsed, ShouldResemble, p)
		})

		Convey("Then non-parquet objects under the prefix are ignored", func() {
			_, ok := ParseSilverPath("wow_raid_events/v1/raid_id=raid042/event_date=2025-03-16/_SUCCESS")
			So(ok, ShouldBeFalse)
		})
	})

	Convey("Given an object name without a batch marker", t, func() {
		_, ok := ParseBatchID("wow_raid_events/v1/raid_id=raid001/ingest_date=2025-03-15/notes.txt")
		So(ok, ShouldBeFalse)
	})

	Convey("Given the four gold tables", t, func() {
		p := Partition{RaidID: "raid001", EventDate: "2025-03-15"}

		Convey("Then each table has its own partition scheme", func() {
			So(GoldPath(TableDimPlayer, p, "f1"), ShouldEqual, "dim_player/player_id=all/f1.parquet")
			So(GoldPath(TableDimRaid, p, "f1"), ShouldEqual, "dim_raid/raid_id=raid001/f1.parquet")
			So(GoldPath(TableRaidSummary, p, "f1"), ShouldEqual,
				"fact_raid_summary/raid_id=raid001/event_date=2025-03-15/f1.parquet")
			So(GoldPath(TablePlayerRaidStats, p, "f1"), ShouldEqual,
				"fact_player_raid_stats/raid_id=raid001/event_date=2025-03-15/f1.parquet")
		})
	})
}
