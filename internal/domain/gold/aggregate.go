package gold

import (
	"math"
	"time"

	"github.com/ironforge/raidlake/internal/domain/silver"
)

// Event types as they appear in cleaned rows.
const (
	typeCombatDamage = "combat_damage"
	typeHeal         = "heal"
	typePlayerDeath  = "player_death"
)

// BuildRaidSummary aggregates one partition's cleaned rows into a
// single fact_raid_summary row.
func BuildRaidSummary(rows []silver.Record) (RaidSummary, error) {
	if len(rows) == 0 {
		return RaidSummary{}, ErrEmptyPartition
	}

	s := RaidSummary{
		RaidID:       rows[0].RaidID,
		BossMinHPPct: 100.0,
	}

	var minTS, maxTS time.Time
	players := map[string]bool{}
	roles := map[string]map[string]bool{}
	bossSeen := false

	for _, row := range rows {
		if !row.Timestamp.IsZero() {
			if minTS.IsZero() || row.Timestamp.Before(minTS) {
				minTS = row.Timestamp
			}
			if maxTS.IsZero() || row.Timestamp.After(maxTS) {
				maxTS = row.Timestamp
			}
		}
		if row.EventDate != "" && (s.EventDate == "" || row.EventDate < s.EventDate) {
			s.EventDate = row.EventDate
		}

		if row.SourcePlayerID != "" {
			players[row.SourcePlayerID] = true
			if row.SourcePlayerRole != "" {
				if roles[row.SourcePlayerRole] == nil {
					roles[row.SourcePlayerRole] = map[string]bool{}
				}
				roles[row.SourcePlayerRole][row.SourcePlayerID] = true
			}
		}

		switch row.EventType {
		case typeCombatDamage:
			if row.DamageAmount != nil {
				s.TotalDamage += *row.DamageAmount
			}
		case typeHeal:
			if row.HealingAmount != nil {
				s.TotalHealing += *row.HealingAmount
			}
		case typePlayerDeath:
			s.TotalPlayerDeaths++
		}

		if row.TargetEntityType == "boss" && row.TargetHealthAfter != nil {
			if !bossSeen || *row.TargetHealthAfter < s.BossMinHPPct {
				s.BossMinHPPct = *row.TargetHealthAfter
			}
			bossSeen = true
		}
	}

	if !minTS.IsZero() {
		s.DurationMS = float64(maxTS.Sub(minTS).Milliseconds())
	}
	s.NPlayers = int64(len(players))
	s.NTanks = int64(len(roles["tank"]))
	s.NHealers = int64(len(roles["healer"]))
	s.NDPS = int64(len(roles["dps"]))

	// Explicit zero-duration guard. Never NaN or Inf.
	if seconds := s.DurationMS / 1000.0; seconds > 0 {
		s.RaidDPS = s.TotalDamage / seconds
		s.RaidHPS = s.TotalHealing / seconds
	}

	s.RaidOutcome = outcome(s)
	return s, nil
}

// outcome applies the two-condition success rule: a clean kill within
// the time budget, or a near-kill without a catastrophic death count.
func outcome(s RaidSummary) string {
	cleanKill := s.BossMinHPPct == 0.0 && s.DurationMS <= DefaultDurationTargetMS
	nearKill := s.BossMinHPPct < 10.0 && s.TotalPlayerDeaths <= s.NPlayers
	if cleanKill || nearKill {
		return OutcomeSuccess
	}
	return OutcomeWipe
}

// BuildPlayerStats aggregates one partition's cleaned rows into one
// fact_player_raid_stats row per authoring player. Deaths and damage
// received are attributed by target: the target of a player_death
// event is the player that died.
func BuildPlayerStats(rows []silver.Record, summary RaidSummary) ([]PlayerStats, error) {
	if len(rows) == 0 {
		return nil, ErrEmptyPartition
	}

	var order []string
	byPlayer := map[string]*PlayerStats{}
	deathsByTarget := map[string]int64{}
	receivedByTarget := map[string]float64{}

	for _, row := range rows {
		switch row.EventType {
		case typePlayerDeath:
			if row.TargetEntityID != "" {
				deathsByTarget[row.TargetEntityID]++
			}
		case typeCombatDamage:
			if row.TargetEntityID != "" && row.DamageAmount != nil {
				receivedByTarget[row.TargetEntityID] += *row.DamageAmount
			}
		}

		if row.SourcePlayerID == "" {
			continue
		}
		p := byPlayer[row.SourcePlayerID]
		if p == nil {
			p = &PlayerStats{
				RaidID:      summary.RaidID,
				EventDate:   summary.EventDate,
				PlayerID:    row.SourcePlayerID,
				PlayerName:  row.SourcePlayerName,
				PlayerClass: row.SourcePlayerClass,
				PlayerRole:  row.SourcePlayerRole,
			}
			byPlayer[row.SourcePlayerID] = p
			order = append(order, row.SourcePlayerID)
		}

		switch row.EventType {
		case typeCombatDamage:
			p.DamageEvents++
			if row.DamageAmount != nil {
				p.DamageTotal += *row.DamageAmount
			}
			if row.IsCriticalHit {
				p.CritEvents++
			}
		case typeHeal:
			p.HealingEvents++
			if row.HealingAmount != nil {
				p.HealingTotal += *row.HealingAmount
			}
			if row.IsCriticalHit {
				p.CritEvents++
			}
		}
	}

	seconds := summary.DurationMS / 1000.0
	stats := make([]PlayerStats, 0, len(order))
	for _, id := range order {
		p := byPlayer[id]
		p.PlayerDeaths = deathsByTarget[id]
		p.TotalDamageReceived = receivedByTarget[id]

		if total := p.DamageEvents + p.HealingEvents; total > 0 {
			p.CritRate = round6(float64(p.CritEvents) / float64(total))
		}
		if seconds > 0 {
			p.DPS = p.DamageTotal / seconds
			p.HPS = p.HealingTotal / seconds
		}
		if summary.TotalDamage > 0 {
			p.DamageShare = p.DamageTotal / summary.TotalDamage
		}
		if summary.TotalHealing > 0 {
			p.HealingShare = p.HealingTotal / summary.TotalHealing
		}
		stats = append(stats, *p)
	}
	return stats, nil
}

func round6(v float64) float64 {
	return math.Round(v*1e6) / 1e6
}
