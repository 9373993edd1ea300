package event

import (
	"testing"
	"time"

	"github.com/google/uuid"
	. "github.com/smartystreets/goconvey/convey"
)

var testNow = time.Date(2025, 3, 15, 20, 30, 0, 0, time.UTC)

func fixedClock() time.Time { return testNow }

func validDamageRecord() map[string]any {
	return map[string]any{
		"event_type":         "combat_damage",
		"timestamp":          testNow.Add(-time.Minute).Format(time.RFC3339),
		"raid_id":            "raid001",
		"source_player_id":   "player-123",
		"source_player_name": "Thrall",
		"damage_amount":      float64(1500),
		"is_critical_hit":    true,
		"critical_multiplier": 2.0,
	}
}

func violationFor(vs Violations, field string) (Violation, bool) {
	for _, v := range vs {
		if v.Field == field {
			return v, true
		}
	}
	return Violation{}, false
}

func TestValidatorAcceptsWellFormedEvents(t *testing.T) {
	v := NewValidator(WithClock(fixedClock))

	Convey("Given a well-formed combat_damage record", t, func() {
		rec := validDamageRecord()

		Convey("When it is validated", func() {
			e, violations := v.Validate(rec)

			Convey("Then it passes and carries a damage payload", func() {
				So(violations, ShouldBeNil)
				So(e.Type, ShouldEqual, TypeCombatDamage)
				So(e.RaidID, ShouldEqual, "raid001")

				p, ok := e.Payload.(DamagePayload)
				So(ok, ShouldBeTrue)
				So(p.Amount, ShouldEqual, 1500)
				So(p.Critical, ShouldBeTrue)
				So(p.CritMultiplier, ShouldEqual, 2.0)
			})

			Convey("Then a UUID event_id is generated", func() {
				_, err := uuid.Parse(e.ID)
				So(err, ShouldBeNil)
			})

			Convey("Then technical metadata is defaulted", func() {
				So(e.Meta.SourceSystem, ShouldEqual, defaultSourceName)
				So(e.Meta.IngestedAt, ShouldEqual, testNow)
			})
		})
	})

	Convey("Given a record with an explicit event_id", t, func() {
		rec := validDamageRecord()
		id := uuid.NewString()
		rec["event_id"] = id

		Convey("When it is validated", func() {
			e, violations := v.Validate(rec)

			Convey("Then the id is preserved", func() {
				So(violations, ShouldBeNil)
				So(e.ID, ShouldEqual, id)
			})
		})
	})

	Convey("Given a heal record", t, func() {
		rec := validDamageRecord()
		rec["event_type"] = "heal"
		delete(rec, "damage_amount")
		rec["healing_amount"] = float64(900)

		Convey("When it is validated", func() {
			e, violations := v.Validate(rec)

			Convey("Then it carries a heal payload", func() {
				So(violations, ShouldBeNil)
				p, ok := e.Payload.(HealPayload)
				So(ok, ShouldBeTrue)
				So(p.Amount, ShouldEqual, 900)
			})
		})
	})

	Convey("Given a mana_regeneration record", t, func() {
		rec := map[string]any{
			"event_type":            "mana_regeneration",
			"timestamp":             testNow.Add(-time.Second).Format(time.RFC3339),
			"raid_id":               "raid042",
			"source_player_id":      "player-7",
			"source_player_name":    "Jaina",
			"resource_type":         "mana",
			"resource_amount_before": float64(4000),
			"resource_amount_after":  float64(4250),
		}

		Convey("When it is validated", func() {
			e, violations := v.Validate(rec)

			Convey("Then it carries a regen payload", func() {
				So(violations, ShouldBeNil)
				p, ok := e.Payload.(RegenPayload)
				So(ok, ShouldBeTrue)
				So(p.Resource, ShouldEqual, ResourceMana)
				So(*p.AmountBefore, ShouldEqual, 4000)
				So(*p.AmountAfter, ShouldEqual, 4250)
			})
		})
	})
}

func TestValidatorRejectsBadRecords(t *testing.T) {
	v := NewValidator(WithClock(fixedClock))

	Convey("Given a damage record with a negative amount", t, func() {
		rec := validDamageRecord()
		rec["damage_amount"] = float64(-5)

		Convey("When it is validated", func() {
			_, violations := v.Validate(rec)

			Convey("Then damage_amount is reported exactly once", func() {
				So(violations, ShouldNotBeNil)
				count := 0
				for _, viol := range violations {
					if viol.Field == "damage_amount" {
						count++
					}
				}
				So(count, ShouldEqual, 1)
			})
		})
	})

	Convey("Given a combat_damage record without damage_amount", t, func() {
		rec := validDamageRecord()
		delete(rec, "damage_amount")

		Convey("When it is validated", func() {
			_, violations := v.Validate(rec)

			Convey("Then the conditional requirement fires", func() {
				viol, found := violationFor(violations, "damage_amount")
				So(found, ShouldBeTrue)
				So(viol.Reason, ShouldContainSubstring, "combat_damage")
			})
		})
	})

	Convey("Given a heal record without healing_amount", t, func() {
		rec := validDamageRecord()
		rec["event_type"] = "heal"
		delete(rec, "damage_amount")

		Convey("When it is validated", func() {
			_, violations := v.Validate(rec)

			_, found := violationFor(violations, "healing_amount")
			So(found, ShouldBeTrue)
		})
	})

	Convey("Given a mana_regeneration record without resource_type", t, func() {
		rec := validDamageRecord()
		rec["event_type"] = "mana_regeneration"

		Convey("When it is validated", func() {
			_, violations := v.Validate(rec)

			_, found := violationFor(violations, "resource_type")
			So(found, ShouldBeTrue)
		})
	})

	Convey("Given a record with a future timestamp", t, func() {
		rec := validDamageRecord()
		rec["timestamp"] = testNow.Add(time.Hour).Format(time.RFC3339)

		Convey("When it is validated", func() {
			_, violations := v.Validate(rec)

			viol, found := violationFor(violations, "timestamp")
			So(found, ShouldBeTrue)
			So(viol.Reason, ShouldContainSubstring, "future")
		})
	})

	Convey("Given a record with an explicit null timestamp", t, func() {
		rec := validDamageRecord()
		rec["timestamp"] = nil

		Convey("When it is validated", func() {
			_, violations := v.Validate(rec)

			Convey("Then the null counts as missing, never as a zero time", func() {
				So(len(violations), ShouldBeGreaterThan, 0)
				viol, found := violationFor(violations, "timestamp")
				So(found, ShouldBeTrue)
				So(viol.Reason, ShouldContainSubstring, "required")
			})
		})
	})

	Convey("Given a record with an unknown field", t, func() {
		rec := validDamageRecord()
		rec["totally_made_up"] = "value"

		Convey("When it is validated", func() {
			_, violations := v.Validate(rec)

			viol, found := violationFor(violations, "totally_made_up")
			So(found, ShouldBeTrue)
			So(viol.Reason, ShouldContainSubstring, "unknown field")
		})
	})

	Convey("Given a record violating several constraints at once", t, func() {
		rec := validDamageRecord()
		rec["raid_id"] = "dungeon-5"
		rec["source_player_name"] = "Thisnameiswaytoolong"
		rec["source_player_level"] = float64(99)

		Convey("When it is validated", func() {
			_, violations := v.Validate(rec)

			Convey("Then every violation is reported", func() {
				So(len(violations), ShouldBeGreaterThanOrEqualTo, 3)
				fields := violations.Fields()
				So(fields, ShouldContain, "raid_id")
				So(fields, ShouldContain, "source_player_name")
				So(fields, ShouldContain, "source_player_level")
			})
		})
	})

	Convey("Given a record missing every required field", t, func() {
		rec := map[string]any{}

		Convey("When it is validated", func() {
			_, violations := v.Validate(rec)

			fields := violations.Fields()
			So(fields, ShouldContain, "event_type")
			So(fields, ShouldContain, "timestamp")
			So(fields, ShouldContain, "raid_id")
			So(fields, ShouldContain, "source_player_id")
			So(fields, ShouldContain, "source_player_name")
		})
	})

	Convey("Given out-of-range numeric fields", t, func() {
		cases := map[string]any{
			"damage_amount":                   float64(2_000_000),
			"critical_multiplier":             float64(7),
			"target_entity_health_pct_before": float64(150),
		}
		for field, value := range cases {
			rec := validDamageRecord()
			rec[field] = value

			_, violations := v.Validate(rec)

			_, found := violationFor(violations, field)
			So(found, ShouldBeTrue)
		}
	})

	Convey("Given a malformed event_id", t, func() {
		rec := validDamageRecord()
		rec["event_id"] = "not-a-uuid"

		Convey("When it is validated", func() {
			_, violations := v.Validate(rec)

			_, found := violationFor(violations, "event_id")
			So(found, ShouldBeTrue)
		})
	})

	Convey("Given an unknown enum value", t, func() {
		rec := validDamageRecord()
		rec["source_player_class"] = "necromancer"

		Convey("When it is validated", func() {
			_, violations := v.Validate(rec)

			_, found := violationFor(violations, "source_player_class")
			So(found, ShouldBeTrue)
		})
	})
}
