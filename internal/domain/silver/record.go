// Package silver cleans raw bronze batches into typed, deduplicated,
// range-checked rows ready for columnar storage.
package silver

import (
	"time"
)

// Record is one cleaned row. Pointer fields are nil when the source
// value was missing or unparseable; cleaning never fails a row over a
// bad value, it blanks it.
type Record struct {
	EventID             string     `json:"event_id" parquet:"event_id"`
	EventType           string     `json:"event_type" parquet:"event_type"`
	Timestamp           time.Time  `json:"timestamp" parquet:"timestamp"`
	EncounterID         string     `json:"encounter_id" parquet:"encounter_id,optional"`
	EncounterDurationMS *float64   `json:"encounter_duration_ms" parquet:"encounter_duration_ms,optional"`
	SourcePlayerID      string     `json:"source_player_id" parquet:"source_player_id"`
	SourcePlayerName    string     `json:"source_player_name" parquet:"source_player_name"`
	SourcePlayerRole    string     `json:"source_player_role" parquet:"source_player_role,optional"`
	SourcePlayerClass   string     `json:"source_player_class" parquet:"source_player_class,optional"`
	SourcePlayerLevel   *float64   `json:"source_player_level" parquet:"source_player_level,optional"`
	AbilityID           string     `json:"ability_id" parquet:"ability_id,optional"`
	AbilityName         string     `json:"ability_name" parquet:"ability_name,optional"`
	AbilitySchool       string     `json:"ability_school" parquet:"ability_school,optional"`
	DamageAmount        *float64   `json:"damage_amount" parquet:"damage_amount,optional"`
	HealingAmount       *float64   `json:"healing_amount" parquet:"healing_amount,optional"`
	IsCriticalHit       bool       `json:"is_critical_hit" parquet:"is_critical_hit"`
	CriticalMultiplier  *float64   `json:"critical_multiplier" parquet:"critical_multiplier,optional"`
	IsResisted          bool       `json:"is_resisted" parquet:"is_resisted"`
	IsBlocked           bool       `json:"is_blocked" parquet:"is_blocked"`
	IsAbsorbed          bool       `json:"is_absorbed" parquet:"is_absorbed"`
	TargetEntityID      string     `json:"target_entity_id" parquet:"target_entity_id,optional"`
	TargetEntityName    string     `json:"target_entity_name" parquet:"target_entity_name,optional"`
	TargetEntityType    string     `json:"target_entity_type" parquet:"target_entity_type,optional"`
	TargetHealthBefore  *float64   `json:"target_entity_health_pct_before" parquet:"target_entity_health_pct_before,optional"`
	TargetHealthAfter   *float64   `json:"target_entity_health_pct_after" parquet:"target_entity_health_pct_after,optional"`
	ResourceType        string     `json:"resource_type" parquet:"resource_type,optional"`
	ResourceBefore      *float64   `json:"resource_amount_before" parquet:"resource_amount_before,optional"`
	ResourceAfter       *float64   `json:"resource_amount_after" parquet:"resource_amount_after,optional"`
	ResourceRate        *float64   `json:"resource_regeneration_rate" parquet:"resource_regeneration_rate,optional"`
	IngestionTimestamp  *time.Time `json:"ingestion_timestamp" parquet:"ingestion_timestamp,optional"`
	SourceSystem        string     `json:"source_system" parquet:"source_system,optional"`
	ServerLatencyMS     *float64   `json:"server_latency_ms" parquet:"server_latency_ms,optional"`
	ClientLatencyMS     *float64   `json:"client_latency_ms" parquet:"client_latency_ms,optional"`

	// Derived during enrichment.
	IngestLatencyMS int64  `json:"ingest_latency_ms" parquet:"ingest_latency_ms"`
	IsMassiveHit    bool   `json:"is_massive_hit" parquet:"is_massive_hit"`
	EventDate       string `json:"event_date" parquet:"-"`
	RaidID          string `json:"raid_id" parquet:"-"`
}

// Report summarizes what one cleaning run did to a batch.
type Report struct {
	DuplicatesRemoved   int      `json:"duplicates_removed"`
	ValidationErrors    []string `json:"validation_errors"`
	RowsAfterValidation int      `json:"rows_after_validation"`
}
