package silver

import (
	"fmt"
	"strings"
	"time"
)

const defaultMassiveHitThreshold = 10_000.0

// Transformer turns a raw batch into cleaned rows through four ordered
// stages: type coercion, deduplication, range validation, enrichment.
// It reports anomalies instead of failing the batch.
type Transformer struct {
	massiveHitThreshold float64
}

// TransformerOption configures a Transformer.
type TransformerOption func(*Transformer)

// WithMassiveHitThreshold overrides the damage amount above which a
// combat_damage row is flagged as a massive hit.
func WithMassiveHitThreshold(threshold float64) TransformerOption {
	return func(t *Transformer) {
		if threshold > 0 {
			t.massiveHitThreshold = threshold
		}
	}
}

// NewTransformer creates a Transformer with the default 10k hit
// threshold.
func NewTransformer(opts ...TransformerOption) *Transformer {
	t := &Transformer{massiveHitThreshold: defaultMassiveHitThreshold}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Transform runs the full cleaning pipeline over one raw batch. The
// stage order is fixed; each stage consumes the previous stage's
// output.
func (t *Transformer) Transform(records []map[string]any) ([]Record, Report) {
	rows := coerceAll(records)

	rows, duplicates := dedupe(rows)
	rows, rangeErrors := filterRanges(rows)
	t.enrich(rows)

	return rows, Report{
		DuplicatesRemoved:   duplicates,
		ValidationErrors:    rangeErrors,
		RowsAfterValidation: len(rows),
	}
}

// coerceAll is stage 1: every field gets its canonical type, with
// unparseable values blanked rather than failing the row.
func coerceAll(records []map[string]any) []Record {
	rows := make([]Record, 0, len(records))
	for _, rec := range records {
		rows = append(rows, coerce(rec))
	}
	return rows
}

func coerce(rec map[string]any) Record {
	return Record{
		EventID:             looseString(rec["event_id"]),
		EventType:           looseString(rec["event_type"]),
		Timestamp:           looseTime(rec["timestamp"]),
		RaidID:              looseString(rec["raid_id"]),
		EncounterID:         looseString(rec["encounter_id"]),
		EncounterDurationMS: looseFloat(rec["encounter_duration_ms"]),
		SourcePlayerID:      looseString(rec["source_player_id"]),
		SourcePlayerName:    looseString(rec["source_player_name"]),
		SourcePlayerRole:    looseString(rec["source_player_role"]),
		SourcePlayerClass:   looseString(rec["source_player_class"]),
		SourcePlayerLevel:   looseFloat(rec["source_player_level"]),
		AbilityID:           looseString(rec["ability_id"]),
		AbilityName:         looseString(rec["ability_name"]),
		AbilitySchool:       looseString(rec["ability_school"]),
		DamageAmount:        looseFloat(rec["damage_amount"]),
		HealingAmount:       looseFloat(rec["healing_amount"]),
		IsCriticalHit:       looseBool(rec["is_critical_hit"]),
		CriticalMultiplier:  looseFloat(rec["critical_multiplier"]),
		IsResisted:          looseBool(rec["is_resisted"]),
		IsBlocked:           looseBool(rec["is_blocked"]),
		IsAbsorbed:          looseBool(rec["is_absorbed"]),
		TargetEntityID:      looseString(rec["target_entity_id"]),
		TargetEntityName:    looseString(rec["target_entity_name"]),
		TargetEntityType:    looseString(rec["target_entity_type"]),
		TargetHealthBefore:  looseFloat(rec["target_entity_health_pct_before"]),
		TargetHealthAfter:   looseFloat(rec["target_entity_health_pct_after"]),
		ResourceType:        looseString(rec["resource_type"]),
		ResourceBefore:      looseFloat(rec["resource_amount_before"]),
		ResourceAfter:       looseFloat(rec["resource_amount_after"]),
		ResourceRate:        looseFloat(rec["resource_regeneration_rate"]),
		IngestionTimestamp:  looseTimePtr(rec["ingestion_timestamp"]),
		SourceSystem:        looseString(rec["source_system"]),
		ServerLatencyMS:     looseFloat(rec["server_latency_ms"]),
		ClientLatencyMS:     looseFloat(rec["client_latency_ms"]),
	}
}

// dedupe is stage 2: first occurrence of an event id wins, later ones
// are dropped. Rows without an id are kept as-is.
func dedupe(rows []Record) ([]Record, int) {
	seen := make(map[string]bool, len(rows))
	out := rows[:0]
	removed := 0
	for _, row := range rows {
		if row.EventID != "" {
			if seen[row.EventID] {
				removed++
				continue
			}
			seen[row.EventID] = true
		}
		out = append(out, row)
	}
	return out, removed
}

// filterRanges is stage 3: drop rows whose health percentages fall
// outside [0, 100]. Rows with missing values pass. One diagnostic per
// violated field, never an error.
func filterRanges(rows []Record) ([]Record, []string) {
	counts := map[string]int{}
	out := rows[:0]
	for _, row := range rows {
		bad := false
		if outOfPct(row.TargetHealthBefore) {
			counts["target_entity_health_pct_before"]++
			bad = true
		}
		if outOfPct(row.TargetHealthAfter) {
			counts["target_entity_health_pct_after"]++
			bad = true
		}
		if !bad {
			out = append(out, row)
		}
	}

	var diags []string
	for _, field := range []string{"target_entity_health_pct_before", "target_entity_health_pct_after"} {
		if n := counts[field]; n > 0 {
			diags = append(diags, fmt.Sprintf("%s: %d row(s) outside [0, 100]", field, n))
		}
	}
	return out, diags
}

func outOfPct(v *float64) bool {
	return v != nil && (*v < 0 || *v > 100)
}

// enrich is stage 4: derived columns only, no filtering.
func (t *Transformer) enrich(rows []Record) {
	for i := range rows {
		row := &rows[i]
		if row.IngestionTimestamp != nil && !row.Timestamp.IsZero() {
			row.IngestLatencyMS = row.IngestionTimestamp.Sub(row.Timestamp).Milliseconds()
		}
		row.IsMassiveHit = row.EventType == "combat_damage" &&
			row.DamageAmount != nil && *row.DamageAmount > t.massiveHitThreshold
		if !row.Timestamp.IsZero() {
			row.EventDate = row.Timestamp.UTC().Format("2006-01-02")
		}
	}
}

func looseString(v any) string {
	s, ok := v.(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(s)
}

func looseFloat(v any) *float64 {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	default:
		return nil
	}
	return &f
}

func looseBool(v any) bool {
	b, ok := v.(bool)
	return ok && b
}

func looseTime(v any) time.Time {
	switch t := v.(type) {
	case time.Time:
		return t.UTC()
	case string:
		for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02 15:04:05"} {
			if parsed, err := time.Parse(layout, t); err == nil {
				return parsed.UTC()
			}
		}
	}
	return time.Time{}
}

func looseTimePtr(v any) *time.Time {
	t := looseTime(v)
	if t.IsZero() {
		return nil
	}
	return &t
}
