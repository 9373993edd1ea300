package gold

import (
	"fmt"
	"math"
	"regexp"
	"strings"
	"time"
)

var raidIDPattern = regexp.MustCompile(`^raid\d{3}$`)

var allowedRoles = map[string]bool{
	"tank": true, "healer": true, "dps": true, UnknownSentinel: true,
}

var allowedDifficulties = map[string]bool{
	"Normal": true, "Heroic": true, "Mythic": true,
}

// RowViolation is one violated constraint in one row of one output
// table.
type RowViolation struct {
	Table  string `json:"table"`
	Row    int    `json:"row"`
	Field  string `json:"field"`
	Reason string `json:"reason"`

	// Kind tags the violation with a sentinel error kind where one
	// applies. Not part of the serialized report.
	Kind error `json:"-"`
}

func (v RowViolation) String() string {
	return fmt.Sprintf("%s[%d].%s: %s", v.Table, v.Row, v.Field, v.Reason)
}

// RowViolations is the complete set of violations found across all
// four tables. Validation never stops at the first problem.
type RowViolations []RowViolation

// Error implements error by joining every violation.
func (vs RowViolations) Error() string {
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = v.String()
	}
	return "gold validation: " + strings.Join(parts, "; ")
}

// Is lets errors.Is match the sentinel kinds carried by individual
// violations, so callers can tell cross-table failures apart from
// row-level ones.
func (vs RowViolations) Is(target error) bool {
	for _, v := range vs {
		if v.Kind == target {
			return true
		}
	}
	return false
}

// Validate checks every row of all four tables before anything is
// published. Any violation fails the whole partition; writes are
// all-or-nothing.
func Validate(t Tables) RowViolations {
	c := &checker{}

	c.raidSummary(t.RaidSummary)
	for i, p := range t.PlayerStats {
		c.playerStats(i, p)
	}
	for i, p := range t.DimPlayers {
		c.dimPlayer(i, p)
	}
	c.dimRaid(t.DimRaid)

	return c.violations
}

type checker struct {
	violations RowViolations
}

func (c *checker) fail(table string, row int, field, reason string) {
	c.violations = append(c.violations, RowViolation{Table: table, Row: row, Field: field, Reason: reason})
}

func (c *checker) raidSummary(s RaidSummary) {
	const table = "fact_raid_summary"
	c.checkRaidID(table, 0, s.RaidID)
	c.checkDate(table, 0, "event_date", s.EventDate)
	c.nonNegFloat(table, 0, "duration_ms", s.DurationMS)
	c.nonNegFloat(table, 0, "total_damage", s.TotalDamage)
	c.nonNegFloat(table, 0, "total_healing", s.TotalHealing)
	c.nonNegInt(table, 0, "total_player_deaths", s.TotalPlayerDeaths)
	if s.NPlayers < 1 || s.NPlayers > 40 {
		c.fail(table, 0, "n_players", "must be between 1 and 40")
	}
	c.nonNegInt(table, 0, "n_tanks", s.NTanks)
	c.nonNegInt(table, 0, "n_healers", s.NHealers)
	c.nonNegInt(table, 0, "n_dps", s.NDPS)
	c.nonNegFloat(table, 0, "raid_dps", s.RaidDPS)
	c.nonNegFloat(table, 0, "raid_hps", s.RaidHPS)
	if s.BossMinHPPct < 0 || s.BossMinHPPct > 100 {
		c.fail(table, 0, "boss_min_hp_pct", "must be between 0 and 100")
	}
	if s.RaidOutcome != OutcomeSuccess && s.RaidOutcome != OutcomeWipe {
		c.fail(table, 0, "raid_outcome", fmt.Sprintf("must be %q or %q", OutcomeSuccess, OutcomeWipe))
	}
	if sum := s.NTanks + s.NHealers + s.NDPS; sum > s.NPlayers {
		c.violations = append(c.violations, RowViolation{
			Table: table, Field: "n_players",
			Reason: fmt.Sprintf("role counts sum to %d which exceeds n_players %d", sum, s.NPlayers),
			Kind:   ErrCrossTableInvariant,
		})
	}
}

func (c *checker) playerStats(row int, p PlayerStats) {
	const table = "fact_player_raid_stats"
	c.checkRaidID(table, row, p.RaidID)
	c.checkDate(table, row, "event_date", p.EventDate)
	if p.PlayerID == "" {
		c.fail(table, row, "player_id", "must not be empty")
	}
	if len(p.PlayerName) < 1 || len(p.PlayerName) > 12 {
		c.fail(table, row, "player_name", "must be 1-12 characters")
	}
	if p.PlayerClass == "" {
		c.fail(table, row, "player_class", "must not be empty")
	}
	if !allowedRoles[p.PlayerRole] {
		c.fail(table, row, "player_role", fmt.Sprintf("unknown role %q", p.PlayerRole))
	}
	c.nonNegFloat(table, row, "damage_total", p.DamageTotal)
	c.nonNegFloat(table, row, "healing_total", p.HealingTotal)
	c.nonNegInt(table, row, "damage_events", p.DamageEvents)
	c.nonNegInt(table, row, "healing_events", p.HealingEvents)
	c.nonNegInt(table, row, "player_deaths", p.PlayerDeaths)
	c.nonNegFloat(table, row, "total_damage_received", p.TotalDamageReceived)
	c.nonNegInt(table, row, "crit_events", p.CritEvents)
	if p.CritRate < 0 || p.CritRate > 1 {
		c.fail(table, row, "crit_rate", "must be between 0 and 1")
	}
	c.nonNegFloat(table, row, "dps", p.DPS)
	c.nonNegFloat(table, row, "hps", p.HPS)
	if p.DamageShare < 0 || p.DamageShare > 1 {
		c.fail(table, row, "damage_share", "must be between 0 and 1")
	}
	if p.HealingShare < 0 || p.HealingShare > 1 {
		c.fail(table, row, "healing_share", "must be between 0 and 1")
	}
}

func (c *checker) dimPlayer(row int, p DimPlayer) {
	const table = "dim_player"
	if p.PlayerID == "" {
		c.fail(table, row, "player_id", "must not be empty")
	}
	if len(p.PlayerName) < 1 || len(p.PlayerName) > 12 {
		c.fail(table, row, "player_name", "must be 1-12 characters")
	}
	if p.PlayerClass == "" {
		c.fail(table, row, "player_class", "must not be empty")
	}
	if !allowedRoles[p.PlayerRole] {
		c.fail(table, row, "player_role", fmt.Sprintf("unknown role %q", p.PlayerRole))
	}
	c.checkDate(table, row, "first_seen_date", p.FirstSeenDate)
	c.checkDate(table, row, "last_seen_date", p.LastSeenDate)
	if p.FirstSeenDate != "" && p.LastSeenDate != "" && p.FirstSeenDate > p.LastSeenDate {
		c.fail(table, row, "first_seen_date", "must not be after last_seen_date")
	}
	if p.TotalRaids < 1 {
		c.fail(table, row, "total_raids", "must be >= 1")
	}
}

func (c *checker) dimRaid(r DimRaid) {
	const table = "dim_raid"
	c.checkRaidID(table, 0, r.RaidID)
	c.checkDate(table, 0, "event_date", r.EventDate)
	if r.BossName == "" {
		c.fail(table, 0, "boss_name", "must not be empty")
	}
	if !allowedDifficulties[r.Difficulty] {
		c.fail(table, 0, "difficulty", fmt.Sprintf("unknown difficulty %q", r.Difficulty))
	}
	if r.RaidSize < 1 || r.RaidSize > 40 {
		c.fail(table, 0, "raid_size", "must be between 1 and 40")
	}
	c.nonNegFloat(table, 0, "duration_target_ms", r.DurationTargetMS)
}

func (c *checker) checkRaidID(table string, row int, raidID string) {
	if !raidIDPattern.MatchString(raidID) {
		c.fail(table, row, "raid_id", `must match ^raid\d{3}$`)
	}
}

func (c *checker) checkDate(table string, row int, field, value string) {
	if value == "" {
		c.fail(table, row, field, "must not be empty")
		return
	}
	if _, err := time.Parse("2006-01-02", value); err != nil {
		c.fail(table, row, field, "must be a YYYY-MM-DD date")
	}
}

func (c *checker) nonNegFloat(table string, row int, field string, v float64) {
	if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		c.fail(table, row, field, "must be a finite value >= 0")
	}
}

func (c *checker) nonNegInt(table string, row int, field string, v int64) {
	if v < 0 {
		c.fail(table, row, field, "must be >= 0")
	}
}
