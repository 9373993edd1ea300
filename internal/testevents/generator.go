// Package testevents generates plausible raid telemetry for load
// testing the ingest API and seeding local environments.
package testevents

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
)

type ability struct {
	id     string
	name   string
	school string
}

type classProfile struct {
	class    string
	role     string
	resource string
	damage   []ability
	heals    []ability
	critRate float64
}

// A trimmed set of class kits, enough to exercise every role and
// school.
var profiles = []classProfile{
	{
		class: "warrior", role: "tank", resource: "rage", critRate: 0.12,
		damage: []ability{
			{"war_001", "Shield Slam", "physical"},
			{"war_002", "Revenge", "physical"},
			{"war_003", "Thunder Clap", "physical"},
		},
	},
	{
		class: "paladin", role: "healer", resource: "mana", critRate: 0.05,
		damage: []ability{{"pal_001", "Holy Shock", "holy"}},
		heals: []ability{
			{"pal_101", "Holy Light", "holy"},
			{"pal_102", "Divine Light", "holy"},
			{"pal_103", "Word of Glory", "holy"},
		},
	},
	{
		class: "priest", role: "healer", resource: "mana", critRate: 0.05,
		heals: []ability{
			{"pri_101", "Greater Heal", "holy"},
			{"pri_102", "Circle of Healing", "holy"},
			{"pri_103", "Renew", "holy"},
		},
	},
	{
		class: "mage", role: "dps", resource: "mana", critRate: 0.18,
		damage: []ability{
			{"mag_001", "Frostbolt", "frost"},
			{"mag_002", "Fireball", "fire"},
			{"mag_003", "Arcane Blast", "arcane"},
		},
	},
	{
		class: "warlock", role: "dps", resource: "mana", critRate: 0.15,
		damage: []ability{
			{"wlk_001", "Shadow Bolt", "shadow"},
			{"wlk_002", "Chaos Bolt", "chaos"},
			{"wlk_003", "Corruption", "shadow"},
		},
	},
	{
		class: "hunter", role: "dps", resource: "focus", critRate: 0.15,
		damage: []ability{
			{"hnt_001", "Aimed Shot", "physical"},
			{"hnt_002", "Arcane Shot", "arcane"},
			{"hnt_003", "Explosive Shot", "fire"},
		},
	},
	{
		class: "rogue", role: "dps", resource: "energy", critRate: 0.2,
		damage: []ability{
			{"rog_001", "Sinister Strike", "physical"},
			{"rog_002", "Eviscerate", "physical"},
			{"rog_003", "Rupture", "physical"},
		},
	},
}

var playerNames = []string{
	"Thrall", "Jaina", "Varian", "Sylvanas", "Anduin", "Garrosh",
	"Tyrande", "Malfurion", "Velen", "Uther", "Arthas", "Illidan",
	"Khadgar", "Rexxar", "Cairne", "Vol", "Baine", "Chen",
	"Lorthemar", "Genn", "Moira", "Muradin", "Falstad", "Alleria",
	"Turalyon", "Liadrin", "Yrel", "Draka", "Durotan", "Nazgrim",
	"Zekhan", "Talanji", "Rokhan", "Geyah", "Aggra", "Broll",
	"Valeera", "Maiev", "Akama", "Drekthar",
}

// Player is one roster slot.
type Player struct {
	ID      string
	Name    string
	Class   string
	Role    string
	Level   int
	profile classProfile
}

// Generator produces raid sessions and event batches from a seeded
// random source, so runs are reproducible.
type Generator struct {
	rng    *rand.Rand
	raidID string
	roster []Player
	boss   string
	bossHP float64
	clock  time.Time

	// Injection knobs for exercising dedup and rejection paths.
	dupRate     float64
	invalidRate float64
	emitted     []map[string]any
}

// Option configures a Generator.
type Option func(*Generator)

// WithDuplicateRate makes the generator occasionally re-emit an earlier
// record verbatim, event_id included, to exercise silver deduplication.
func WithDuplicateRate(rate float64) Option {
	return func(g *Generator) {
		if rate >= 0 && rate <= 1 {
			g.dupRate = rate
		}
	}
}

// WithInvalidRate makes the generator occasionally emit a record that
// fails validation, to exercise the all-or-nothing gate.
func WithInvalidRate(rate float64) Option {
	return func(g *Generator) {
		if rate >= 0 && rate <= 1 {
			g.invalidRate = rate
		}
	}
}

// New creates a Generator for one raid with nPlayers participants.
// Roster split follows the usual raid composition: roughly one tank
// per ten players, two healers per ten, the rest dps.
func New(raidID string, nPlayers int, seed int64, opts ...Option) *Generator {
	if nPlayers < 3 {
		nPlayers = 3
	}
	if nPlayers > 40 {
		nPlayers = 40
	}
	g := &Generator{
		rng:    rand.New(rand.NewSource(seed)),
		raidID: raidID,
		boss:   "boss-001",
		bossHP: 100,
		// Start well in the past so even long sessions never emit
		// events with future timestamps.
		clock: time.Now().UTC().Add(-6 * time.Hour),
	}

	nTanks := max(1, nPlayers*8/100)
	nHealers := max(1, nPlayers*20/100)
	for i := 0; i < nPlayers; i++ {
		role := "dps"
		if i < nTanks {
			role = "tank"
		} else if i < nTanks+nHealers {
			role = "healer"
		}
		profile := g.pickProfile(role)
		g.roster = append(g.roster, Player{
			ID:      fmt.Sprintf("player-%s-%03d", raidID, i+1),
			Name:    playerNames[i%len(playerNames)],
			Class:   profile.class,
			Role:    role,
			Level:   85 + g.rng.Intn(6),
			profile: profile,
		})
	}

	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *Generator) pickProfile(role string) classProfile {
	var candidates []classProfile
	for _, p := range profiles {
		if p.role == role {
			candidates = append(candidates, p)
		}
	}
	return candidates[g.rng.Intn(len(candidates))]
}

// Batch produces n wire-shaped event records. The mix is mostly
// damage and healing, with occasional deaths and resource ticks, and
// the boss health drifts downward as damage lands.
func (g *Generator) Batch(n int) []map[string]any {
	records := make([]map[string]any, 0, n)
	for i := 0; i < n; i++ {
		if len(g.emitted) > 0 && g.rng.Float64() < g.dupRate {
			records = append(records, g.emitted[g.rng.Intn(len(g.emitted))])
			continue
		}
		if g.rng.Float64() < g.invalidRate {
			records = append(records, g.invalidEvent())
			continue
		}

		g.clock = g.clock.Add(time.Duration(g.rng.Intn(900)+100) * time.Millisecond)
		roll := g.rng.Float64()
		var rec map[string]any
		switch {
		case roll < 0.55:
			rec = g.damageEvent()
		case roll < 0.80:
			rec = g.healEvent()
		case roll < 0.90:
			rec = g.regenEvent()
		case roll < 0.97:
			rec = g.spellCastEvent()
		default:
			rec = g.deathEvent()
		}
		records = append(records, rec)
		g.emitted = append(g.emitted, rec)
	}
	return records
}

// invalidEvent produces a record the validator must reject: a
// combat_damage event with a negative damage amount.
func (g *Generator) invalidEvent() map[string]any {
	p := g.attacker()
	rec := g.base(p, "combat_damage")
	rec["damage_amount"] = -1.0
	return rec
}

func (g *Generator) base(p Player, eventType string) map[string]any {
	return map[string]any{
		"event_id":            uuid.NewString(),
		"event_type":          eventType,
		"timestamp":           g.clock.Format(time.RFC3339Nano),
		"raid_id":             g.raidID,
		"encounter_id":        "encounter-001",
		"source_player_id":    p.ID,
		"source_player_name":  p.Name,
		"source_player_role":  p.Role,
		"source_player_class": p.Class,
		"source_player_level": p.Level,
		"ingestion_timestamp": g.clock.Add(time.Duration(g.rng.Intn(2000)) * time.Millisecond).Format(time.RFC3339Nano),
		"server_latency_ms":   g.rng.Intn(120),
	}
}

func (g *Generator) attacker() Player {
	for {
		p := g.roster[g.rng.Intn(len(g.roster))]
		if len(p.profile.damage) > 0 {
			return p
		}
	}
}

func (g *Generator) healer() Player {
	for {
		p := g.roster[g.rng.Intn(len(g.roster))]
		if len(p.profile.heals) > 0 {
			return p
		}
	}
}

func (g *Generator) damageEvent() map[string]any {
	p := g.attacker()
	ab := p.profile.damage[g.rng.Intn(len(p.profile.damage))]

	damage := clamp(g.rng.NormFloat64()*3000+15000, 5000, 50000)
	crit := g.rng.Float64() < p.profile.critRate

	before := g.bossHP
	g.bossHP = clamp(g.bossHP-damage/12000, 0, 100)

	rec := g.base(p, "combat_damage")
	rec["ability_id"] = ab.id
	rec["ability_name"] = ab.name
	rec["ability_school"] = ab.school
	rec["damage_amount"] = damage
	rec["is_critical_hit"] = crit
	if crit {
		rec["critical_multiplier"] = 1.3 + g.rng.Float64()*0.7
	}
	rec["target_entity_id"] = g.boss
	rec["target_entity_name"] = "Garalon"
	rec["target_entity_type"] = "boss"
	rec["target_entity_health_pct_before"] = before
	rec["target_entity_health_pct_after"] = g.bossHP
	return rec
}

func (g *Generator) healEvent() map[string]any {
	p := g.healer()
	ab := p.profile.heals[g.rng.Intn(len(p.profile.heals))]
	target := g.roster[g.rng.Intn(len(g.roster))]

	healing := clamp(g.rng.NormFloat64()*2000+8500, 2000, 25000)
	crit := g.rng.Float64() < p.profile.critRate

	rec := g.base(p, "heal")
	rec["ability_id"] = ab.id
	rec["ability_name"] = ab.name
	rec["ability_school"] = ab.school
	rec["healing_amount"] = healing
	rec["is_critical_hit"] = crit
	if crit {
		rec["critical_multiplier"] = 1.2 + g.rng.Float64()*0.6
	}
	rec["target_entity_id"] = target.ID
	rec["target_entity_name"] = target.Name
	rec["target_entity_type"] = "player"
	return rec
}

func (g *Generator) regenEvent() map[string]any {
	p := g.roster[g.rng.Intn(len(g.roster))]
	before := g.rng.Float64() * 80000
	rec := g.base(p, "mana_regeneration")
	rec["resource_type"] = p.profile.resource
	rec["resource_amount_before"] = before
	rec["resource_amount_after"] = before + g.rng.Float64()*5000
	rec["resource_regeneration_rate"] = g.rng.Float64() * 400
	return rec
}

func (g *Generator) spellCastEvent() map[string]any {
	p := g.roster[g.rng.Intn(len(g.roster))]
	rec := g.base(p, "spell_cast")
	return rec
}

func (g *Generator) deathEvent() map[string]any {
	killer := g.attacker()
	victim := g.roster[g.rng.Intn(len(g.roster))]
	rec := g.base(killer, "player_death")
	rec["target_entity_id"] = victim.ID
	rec["target_entity_name"] = victim.Name
	rec["target_entity_type"] = "player"
	return rec
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
