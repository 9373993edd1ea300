package gold

import (
	"errors"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func validTables() Tables {
	return Tables{
		RaidSummary: RaidSummary{
			RaidID:       "raid001",
			EventDate:    "2025-03-15",
			DurationMS:   120_000,
			TotalDamage:  50_000,
			TotalHealing: 20_000,
			NPlayers:     3,
			NTanks:       1,
			NHealers:     1,
			NDPS:         1,
			RaidDPS:      416.6,
			RaidHPS:      166.6,
			BossMinHPPct: 0,
			RaidOutcome:  OutcomeSuccess,
		},
		PlayerStats: []PlayerStats{{
			RaidID:      "raid001",
			EventDate:   "2025-03-15",
			PlayerID:    "p1",
			PlayerName:  "Thrall",
			PlayerClass: "shaman",
			PlayerRole:  "dps",
			DamageTotal: 50_000,
			DamageEvents: 10,
			CritEvents:  2,
			CritRate:    0.2,
			DPS:         416.6,
			DamageShare: 1.0,
		}},
		DimPlayers: []DimPlayer{{
			PlayerID:      "p1",
			PlayerName:    "Thrall",
			PlayerClass:   "shaman",
			PlayerRole:    "dps",
			FirstSeenDate: "2025-03-15",
			LastSeenDate:  "2025-03-15",
			TotalRaids:    1,
		}},
		DimRaid: DimRaid{
			RaidID:           "raid001",
			EventDate:        "2025-03-15",
			BossName:         DefaultBossName,
			Difficulty:       DefaultDifficulty,
			RaidSize:         3,
			DurationTargetMS: DefaultDurationTargetMS,
		},
	}
}

func TestValidate(t *testing.T) {
	Convey("Given four well-formed tables", t, func() {
		So(Validate(validTables()), ShouldBeNil)
	})

	Convey("Given role counts exceeding the player count", t, func() {
		tables := validTables()
		tables.RaidSummary.NDPS = 10

		Convey("When the tables are validated", func() {
			violations := Validate(tables)

			Convey("Then the composition invariant is reported", func() {
				So(violations, ShouldNotBeNil)
				found := false
				for _, v := range violations {
					if v.Table == "fact_raid_summary" && v.Field == "n_players" {
						found = true
					}
				}
				So(found, ShouldBeTrue)
			})

			Convey("Then the cross-table sentinel matches through errors.Is", func() {
				So(errors.Is(violations, ErrCrossTableInvariant), ShouldBeTrue)
			})
		})
	})

	Convey("Given a row-level violation only", t, func() {
		tables := validTables()
		tables.PlayerStats[0].CritRate = 1.5

		Convey("When the tables are validated", func() {
			violations := Validate(tables)

			Convey("Then the cross-table sentinel does not match", func() {
				So(violations, ShouldNotBeNil)
				So(errors.Is(violations, ErrCrossTableInvariant), ShouldBeFalse)
			})
		})
	})

	Convey("Given violations spread across several tables", t, func() {
		tables := validTables()
		tables.RaidSummary.BossMinHPPct = 150
		tables.PlayerStats[0].CritRate = 1.5
		tables.DimPlayers[0].PlayerName = "Thisnameiswaytoolong"
		tables.DimRaid.Difficulty = "Impossible"

		Convey("When the tables are validated", func() {
			violations := Validate(tables)

			Convey("Then every violation is accumulated, not just the first", func() {
				So(len(violations), ShouldEqual, 4)
				seen := map[string]bool{}
				for _, v := range violations {
					seen[v.Table] = true
				}
				So(seen["fact_raid_summary"], ShouldBeTrue)
				So(seen["fact_player_raid_stats"], ShouldBeTrue)
				So(seen["dim_player"], ShouldBeTrue)
				So(seen["dim_raid"], ShouldBeTrue)
			})
		})
	})

	Convey("Given a malformed raid id", t, func() {
		tables := validTables()
		tables.RaidSummary.RaidID = "dungeon-1"

		violations := Validate(tables)

		So(violations, ShouldNotBeNil)
		So(violations[0].Field, ShouldEqual, "raid_id")
	})

	Convey("Given a player row with an out-of-range share", t, func() {
		tables := validTables()
		tables.PlayerStats[0].DamageShare = 1.2

		violations := Validate(tables)

		found := false
		for _, v := range violations {
			if v.Field == "damage_share" {
				found = true
			}
		}
		So(found, ShouldBeTrue)
	})

	Convey("Given dimension dates out of order", t, func() {
		tables := validTables()
		tables.DimPlayers[0].FirstSeenDate = "2025-03-20"

		violations := Validate(tables)

		found := false
		for _, v := range violations {
			if v.Table == "dim_player" && v.Field == "first_seen_date" {
				found = true
			}
		}
		So(found, ShouldBeTrue)
	})
}
