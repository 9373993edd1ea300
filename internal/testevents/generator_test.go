package testevents

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/ironforge/raidlake/internal/domain/event"
)

func TestGenerator(t *testing.T) {
	Convey("Given a seeded generator", t, func() {
		gen := New("raid042", 25, 1)

		Convey("When generating a batch", func() {
			records := gen.Batch(500)

			Convey("Then every record passes validation", func() {
				v := event.NewValidator()
				for i, rec := range records {
					_, violations := v.Validate(rec)
					if len(violations) > 0 {
						t.Fatalf("record %d invalid: %v (record: %v)", i, violations, rec)
					}
				}
				So(len(records), ShouldEqual, 500)
			})

			Convey("Then the mix contains damage, heals and resource ticks", func() {
				counts := map[string]int{}
				for _, rec := range records {
					counts[rec["event_type"].(string)]++
				}
				So(counts["combat_damage"], ShouldBeGreaterThan, 0)
				So(counts["heal"], ShouldBeGreaterThan, 0)
				So(counts["mana_regeneration"], ShouldBeGreaterThan, 0)
			})

			Convey("Then damage events stay within plausible bounds", func() {
				for _, rec := range records {
					if rec["event_type"] != "combat_damage" {
						continue
					}
					dmg := rec["damage_amount"].(float64)
					So(dmg, ShouldBeGreaterThanOrEqualTo, 5000)
					So(dmg, ShouldBeLessThanOrEqualTo, 50000)
				}
			})
		})

		Convey("When generating with the same seed twice", func() {
			a := New("raid042", 25, 7)
			b := New("raid042", 25, 7)

			ra := a.Batch(20)
			rb := b.Batch(20)

			Convey("Then the sessions match apart from generated ids", func() {
				So(len(ra), ShouldEqual, len(rb))
				for i := range ra {
					So(ra[i]["event_type"], ShouldEqual, rb[i]["event_type"])
					So(ra[i]["source_player_id"], ShouldEqual, rb[i]["source_player_id"])
				}
			})
		})

		Convey("When duplicate injection is on", func() {
			g := New("raid042", 10, 3, WithDuplicateRate(0.3))
			records := g.Batch(200)

			Convey("Then some event ids repeat", func() {
				seen := map[string]int{}
				for _, rec := range records {
					seen[rec["event_id"].(string)]++
				}
				So(len(seen), ShouldBeLessThan, len(records))
			})
		})

		Convey("When invalid injection is on", func() {
			g := New("raid042", 10, 3, WithInvalidRate(0.2))
			records := g.Batch(200)

			Convey("Then some records fail validation", func() {
				v := event.NewValidator()
				var bad int
				for _, rec := range records {
					if _, violations := v.Validate(rec); len(violations) > 0 {
						bad++
					}
				}
				So(bad, ShouldBeGreaterThan, 0)
			})
		})

		Convey("When asking for an oversized roster", func() {
			g := New("raid001", 99, 1)

			Convey("Then the roster is capped at the raid limit", func() {
				So(len(g.roster), ShouldEqual, 40)
			})
		})

		Convey("Then the roster has at least one tank and one healer", func() {
			var tanks, healers int
			for _, p := range gen.roster {
				switch p.Role {
				case "tank":
					tanks++
				case "healer":
					healers++
				}
			}
			So(tanks, ShouldBeGreaterThanOrEqualTo, 1)
			So(healers, ShouldBeGreaterThanOrEqualTo, 1)
		})
	})
}
