// Package gold builds and validates the four analytical output tables:
// dim_player, dim_raid, fact_raid_summary and fact_player_raid_stats.
package gold

// Raid outcomes.
const (
	OutcomeSuccess = "success"
	OutcomeWipe    = "wipe"
)

// Defaults for fields an external enrichment system fills in later.
const (
	DefaultBossName         = "Unknown Boss"
	DefaultDifficulty       = "Normal"
	DefaultDurationTargetMS = 360_000.0
	UnknownSentinel         = "unknown"
)

// RaidSummary is one fact_raid_summary row: macro KPIs for a single
// raid partition. raid_id and event_date live in the partition path,
// not in the file body.
type RaidSummary struct {
	RaidID            string  `json:"raid_id" parquet:"-"`
	EventDate         string  `json:"event_date" parquet:"-"`
	DurationMS        float64 `json:"duration_ms" parquet:"duration_ms"`
	TotalDamage       float64 `json:"total_damage" parquet:"total_damage"`
	TotalHealing      float64 `json:"total_healing" parquet:"total_healing"`
	TotalPlayerDeaths int64   `json:"total_player_deaths" parquet:"total_player_deaths"`
	NPlayers          int64   `json:"n_players" parquet:"n_players"`
	NTanks            int64   `json:"n_tanks" parquet:"n_tanks"`
	NHealers          int64   `json:"n_healers" parquet:"n_healers"`
	NDPS              int64   `json:"n_dps" parquet:"n_dps"`
	RaidDPS           float64 `json:"raid_dps" parquet:"raid_dps"`
	RaidHPS           float64 `json:"raid_hps" parquet:"raid_hps"`
	BossMinHPPct      float64 `json:"boss_min_hp_pct" parquet:"boss_min_hp_pct"`
	RaidOutcome       string  `json:"raid_outcome" parquet:"raid_outcome"`
}

// PlayerStats is one fact_player_raid_stats row: micro KPIs for one
// player in one raid partition. Identity fields are denormalized on
// purpose so dashboards can skip joins.
type PlayerStats struct {
	RaidID              string  `json:"raid_id" parquet:"-"`
	EventDate           string  `json:"event_date" parquet:"-"`
	PlayerID            string  `json:"player_id" parquet:"player_id"`
	PlayerName          string  `json:"player_name" parquet:"player_name"`
	PlayerClass         string  `json:"player_class" parquet:"player_class"`
	PlayerRole          string  `json:"player_role" parquet:"player_role"`
	DamageTotal         float64 `json:"damage_total" parquet:"damage_total"`
	HealingTotal        float64 `json:"healing_total" parquet:"healing_total"`
	DamageEvents        int64   `json:"damage_events" parquet:"damage_events"`
	HealingEvents       int64   `json:"healing_events" parquet:"healing_events"`
	PlayerDeaths        int64   `json:"player_deaths" parquet:"player_deaths"`
	TotalDamageReceived float64 `json:"total_damage_received" parquet:"total_damage_received"`
	CritEvents          int64   `json:"crit_events" parquet:"crit_events"`
	CritRate            float64 `json:"crit_rate" parquet:"crit_rate"`
	DPS                 float64 `json:"dps" parquet:"dps"`
	HPS                 float64 `json:"hps" parquet:"hps"`
	DamageShare         float64 `json:"damage_share" parquet:"damage_share"`
	HealingShare        float64 `json:"healing_share" parquet:"healing_share"`
}

// DimPlayer is one dim_player row. Partition-scoped: total_raids is
// always 1 per processed partition; historical accumulation is the
// caller's concern.
type DimPlayer struct {
	PlayerID      string `json:"player_id" parquet:"player_id"`
	PlayerName    string `json:"player_name" parquet:"player_name"`
	PlayerClass   string `json:"player_class" parquet:"player_class"`
	PlayerRole    string `json:"player_role" parquet:"player_role"`
	FirstSeenDate string `json:"first_seen_date" parquet:"first_seen_date"`
	LastSeenDate  string `json:"last_seen_date" parquet:"last_seen_date"`
	TotalRaids    int64  `json:"total_raids" parquet:"total_raids"`
}

// DimRaid is one dim_raid row. Boss name and difficulty are
// placeholders until an external enrichment source is wired in.
type DimRaid struct {
	RaidID           string  `json:"raid_id" parquet:"-"`
	EventDate        string  `json:"event_date" parquet:"event_date"`
	BossName         string  `json:"boss_name" parquet:"boss_name"`
	Difficulty       string  `json:"difficulty" parquet:"difficulty"`
	RaidSize         int64   `json:"raid_size" parquet:"raid_size"`
	DurationTargetMS float64 `json:"duration_target_ms" parquet:"duration_target_ms"`
}

// Tables bundles the four outputs for one processed partition.
type Tables struct {
	RaidSummary RaidSummary
	PlayerStats []PlayerStats
	DimPlayers  []DimPlayer
	DimRaid     DimRaid
}
