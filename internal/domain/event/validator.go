package event

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Schema constants mirrored from the producer contract.
const (
	maxDamageAmount   = 1_000_000.0
	maxHealingAmount  = 500_000.0
	minPlayerLevel    = 1
	maxPlayerLevel    = 90
	minCritMultiplier = 1.0
	maxCritMultiplier = 5.0
	maxPlayerNameLen  = 12
	defaultSourceName = "wow-raid-addon-v1.2"
)

var raidIDPattern = regexp.MustCompile(`^raid\d{3}$`)

// Validator validates one loosely-typed record against the closed event
// schema. It is pure and stateless; Validate never retries and performs
// no I/O.
type Validator struct {
	now func() time.Time
}

// ValidatorOption configures a Validator.
type ValidatorOption func(*Validator)

// WithClock overrides the time source used for the not-in-the-future
// check and for defaulted ingestion timestamps.
func WithClock(now func() time.Time) ValidatorOption {
	return func(v *Validator) {
		if now != nil {
			v.now = now
		}
	}
}

// NewValidator creates a Validator.
func NewValidator(opts ...ValidatorOption) *Validator {
	v := &Validator{now: time.Now}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Validate checks every constraint on record and returns either a fully
// typed Event or the complete list of violations. It never stops at the
// first problem.
func (v *Validator) Validate(record map[string]any) (Event, Violations) {
	if record == nil {
		return Event{}, Violations{{Field: "", Reason: "record must be an object"}}
	}
	r := newFieldReader(record)
	now := v.now().UTC()

	var e Event

	// Identity.
	if id, ok := r.optString("event_id"); ok {
		if _, err := uuid.Parse(id); err != nil {
			r.fail("event_id", "must be a valid UUID")
		} else {
			e.ID = id
		}
	} else if !r.failed("event_id") {
		e.ID = uuid.NewString()
	}

	et, _ := r.reqString("event_type")
	e.Type = Type(et)
	if et != "" && !e.Type.Valid() {
		r.fail("event_type", fmt.Sprintf("unknown event type %q", et))
	}

	if ts, ok := r.reqTime("timestamp"); ok {
		if ts.After(now) {
			r.fail("timestamp", fmt.Sprintf("cannot be in the future (got %s, now is %s)",
				ts.Format(time.RFC3339), now.Format(time.RFC3339)))
		} else {
			e.Timestamp = ts
		}
	}

	if raidID, ok := r.reqString("raid_id"); ok {
		if !raidIDPattern.MatchString(raidID) {
			r.fail("raid_id", `must match ^raid\d{3}$`)
		} else {
			e.RaidID = raidID
		}
	}

	e.EncounterID, _ = r.optString("encounter_id")
	e.EncounterDurationMS = r.optNonNegInt("encounter_duration_ms")

	// Actor.
	if id, ok := r.reqString("source_player_id"); ok {
		if id == "" {
			r.fail("source_player_id", "must not be empty")
		} else {
			e.Actor.PlayerID = id
		}
	}
	if name, ok := r.reqString("source_player_name"); ok {
		if len(name) < 1 || len(name) > maxPlayerNameLen {
			r.fail("source_player_name", fmt.Sprintf("must be 1-%d characters", maxPlayerNameLen))
		} else {
			e.Actor.PlayerName = name
		}
	}
	if role, ok := r.optString("source_player_role"); ok {
		e.Actor.Role = Role(role)
		if !e.Actor.Role.Valid() {
			r.fail("source_player_role", fmt.Sprintf("unknown role %q", role))
		}
	}
	if class, ok := r.optString("source_player_class"); ok {
		e.Actor.Class = Class(class)
		if !e.Actor.Class.Valid() {
			r.fail("source_player_class", fmt.Sprintf("unknown class %q", class))
		}
	}
	if lvl, ok := r.optInt("source_player_level"); ok {
		if lvl < minPlayerLevel || lvl > maxPlayerLevel {
			r.fail("source_player_level", fmt.Sprintf("must be between %d and %d", minPlayerLevel, maxPlayerLevel))
		} else {
			l := int(lvl)
			e.Actor.Level = &l
		}
	}

	// Ability.
	abilityID, _ := r.optString("ability_id")
	abilityName, _ := r.optString("ability_name")
	abilitySchool, hasSchool := r.optString("ability_school")
	if hasSchool && !School(abilitySchool).Valid() {
		r.fail("ability_school", fmt.Sprintf("unknown school %q", abilitySchool))
	}
	if abilityID != "" || abilityName != "" || hasSchool {
		e.Ability = &Ability{ID: abilityID, Name: abilityName, School: School(abilitySchool)}
	}

	// Quantitative fields.
	damage := r.optFloatInRange("damage_amount", 0, maxDamageAmount)
	healing := r.optFloatInRange("healing_amount", 0, maxHealingAmount)
	critical := r.optBoolDefault("is_critical_hit", false)
	critMult := r.optFloatDefault("critical_multiplier", 1.0)
	if critMult < minCritMultiplier || critMult > maxCritMultiplier {
		r.fail("critical_multiplier", fmt.Sprintf("must be between %.1f and %.1f", minCritMultiplier, maxCritMultiplier))
	}
	resisted := r.optBoolDefault("is_resisted", false)
	blocked := r.optBoolDefault("is_blocked", false)
	absorbed := r.optBoolDefault("is_absorbed", false)

	// Target.
	targetID, hasTargetID := r.optString("target_entity_id")
	targetName, hasTargetName := r.optString("target_entity_name")
	targetType, hasTargetType := r.optString("target_entity_type")
	if hasTargetType && !EntityType(targetType).Valid() {
		r.fail("target_entity_type", fmt.Sprintf("unknown entity type %q", targetType))
	}
	healthBefore := r.optFloatInRange("target_entity_health_pct_before", 0, 100)
	healthAfter := r.optFloatInRange("target_entity_health_pct_after", 0, 100)
	if hasTargetID || hasTargetName || hasTargetType || healthBefore != nil || healthAfter != nil {
		e.Target = &Target{
			EntityID:        targetID,
			EntityName:      targetName,
			EntityType:      EntityType(targetType),
			HealthPctBefore: healthBefore,
			HealthPctAfter:  healthAfter,
		}
	}

	// Resources.
	resource, hasResource := r.optString("resource_type")
	if hasResource && !Resource(resource).Valid() {
		r.fail("resource_type", fmt.Sprintf("unknown resource %q", resource))
	}
	resourceBefore := r.optFloatInRange("resource_amount_before", 0, math.MaxFloat64)
	resourceAfter := r.optFloatInRange("resource_amount_after", 0, math.MaxFloat64)
	resourceRate := r.optFloatInRange("resource_regeneration_rate", 0, math.MaxFloat64)

	// Technical metadata.
	if ts, ok := r.optTime("ingestion_timestamp"); ok {
		e.Meta.IngestedAt = ts
	} else if !r.failed("ingestion_timestamp") {
		e.Meta.IngestedAt = now
	}
	if src, ok := r.optString("source_system"); ok {
		e.Meta.SourceSystem = src
	} else {
		e.Meta.SourceSystem = defaultSourceName
	}
	e.Meta.QualityFlags = r.optStringSlice("data_quality_flags")
	e.Meta.ServerLatencyMS = r.optNonNegInt("server_latency_ms")
	e.Meta.ClientLatencyMS = r.optNonNegInt("client_latency_ms")

	// Closed schema: anything left over is rejected.
	r.rejectUnknown()

	// Type-conditional requirements. Skipped for fields that already
	// failed a basic constraint, to avoid double-reporting.
	switch e.Type {
	case TypeCombatDamage:
		if !r.failed("damage_amount") && (damage == nil || *damage <= 0) {
			r.fail("damage_amount", "required and must be > 0 for combat_damage events")
		}
	case TypeHeal:
		if !r.failed("healing_amount") && (healing == nil || *healing <= 0) {
			r.fail("healing_amount", "required and must be > 0 for heal events")
		}
	case TypeManaRegen:
		if !r.failed("resource_type") && !hasResource {
			r.fail("resource_type", "required for mana_regeneration events")
		}
	}

	if len(r.violations) > 0 {
		return Event{}, r.violations
	}

	switch e.Type {
	case TypeCombatDamage:
		e.Payload = DamagePayload{
			Amount:         *damage,
			Critical:       critical,
			CritMultiplier: critMult,
			Resisted:       resisted,
			Blocked:        blocked,
			Absorbed:       absorbed,
		}
	case TypeHeal:
		e.Payload = HealPayload{
			Amount:         *healing,
			Critical:       critical,
			CritMultiplier: critMult,
		}
	case TypePlayerDeath:
		e.Payload = DeathPayload{}
	case TypeSpellCast:
		e.Payload = SpellCastPayload{}
	case TypeBossPhase:
		e.Payload = BossPhasePayload{}
	case TypeManaRegen:
		e.Payload = RegenPayload{
			Resource:     Resource(resource),
			AmountBefore: resourceBefore,
			AmountAfter:  resourceAfter,
			Rate:         resourceRate,
		}
	}

	return e, nil
}

// fieldReader walks a loose record, consuming known fields and recording
// violations. Leftover keys are unknown fields.
type fieldReader struct {
	record     map[string]any
	used       map[string]bool
	failedKeys map[string]bool
	violations Violations
}

func newFieldReader(record map[string]any) *fieldReader {
	return &fieldReader{
		record:     record,
		used:       make(map[string]bool, len(record)),
		failedKeys: make(map[string]bool),
	}
}

func (r *fieldReader) fail(field, reason string) {
	r.failedKeys[field] = true
	r.violations = append(r.violations, Violation{Field: field, Reason: reason})
}

func (r *fieldReader) failed(field string) bool {
	return r.failedKeys[field]
}

// take marks a field as consumed. Explicit nulls count as absent.
func (r *fieldReader) take(field string) (any, bool) {
	v, ok := r.record[field]
	if ok {
		r.used[field] = true
	}
	return v, ok && v != nil
}

func (r *fieldReader) reqString(field string) (string, bool) {
	v, ok := r.take(field)
	if !ok {
		r.fail(field, "required field is missing")
		return "", false
	}
	s, ok := v.(string)
	if !ok {
		r.fail(field, "must be a string")
		return "", false
	}
	return strings.TrimSpace(s), true
}

func (r *fieldReader) optString(field string) (string, bool) {
	v, ok := r.take(field)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	if !ok {
		r.fail(field, "must be a string")
		return "", false
	}
	return strings.TrimSpace(s), true
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

func (r *fieldReader) optFloat(field string) (*float64, bool) {
	v, ok := r.take(field)
	if !ok {
		return nil, false
	}
	f, ok := asFloat(v)
	if !ok {
		r.fail(field, "must be a number")
		return nil, false
	}
	return &f, true
}

func (r *fieldReader) optFloatInRange(field string, min, max float64) *float64 {
	f, ok := r.optFloat(field)
	if !ok {
		return nil
	}
	if *f < min || *f > max {
		if max == math.MaxFloat64 {
			r.fail(field, fmt.Sprintf("must be >= %g", min))
		} else {
			r.fail(field, fmt.Sprintf("must be between %g and %g", min, max))
		}
		return nil
	}
	return f
}

func (r *fieldReader) optFloatDefault(field string, def float64) float64 {
	f, ok := r.optFloat(field)
	if !ok {
		return def
	}
	return *f
}

func (r *fieldReader) optInt(field string) (int64, bool) {
	v, ok := r.take(field)
	if !ok {
		return 0, false
	}
	f, okNum := asFloat(v)
	if !okNum || f != math.Trunc(f) {
		r.fail(field, "must be an integer")
		return 0, false
	}
	return int64(f), true
}

func (r *fieldReader) optNonNegInt(field string) *int64 {
	n, ok := r.optInt(field)
	if !ok {
		return nil
	}
	if n < 0 {
		r.fail(field, "must be >= 0")
		return nil
	}
	return &n
}

func (r *fieldReader) optBoolDefault(field string, def bool) bool {
	v, ok := r.take(field)
	if !ok {
		return def
	}
	b, okBool := v.(bool)
	if !okBool {
		r.fail(field, "must be a boolean")
		return def
	}
	return b
}

func (r *fieldReader) optTime(field string) (time.Time, bool) {
	v, ok := r.take(field)
	if !ok {
		return time.Time{}, false
	}
	return r.parseTime(field, v)
}

// reqTime treats both a missing key and an explicit null as absent, so
// a null timestamp is a violation, not a silent zero value.
func (r *fieldReader) reqTime(field string) (time.Time, bool) {
	v, ok := r.take(field)
	if !ok {
		r.fail(field, "required field is missing")
		return time.Time{}, false
	}
	return r.parseTime(field, v)
}

func (r *fieldReader) parseTime(field string, v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t.UTC(), true
	case string:
		parsed, err := time.Parse(time.RFC3339, t)
		if err != nil {
			r.fail(field, "must be an RFC 3339 timestamp")
			return time.Time{}, false
		}
		return parsed.UTC(), true
	}
	r.fail(field, "must be an RFC 3339 timestamp")
	return time.Time{}, false
}

func (r *fieldReader) optStringSlice(field string) []string {
	v, ok := r.take(field)
	if !ok {
		return nil
	}
	switch list := v.(type) {
	case []string:
		return list
	case []any:
		out := make([]string, 0, len(list))
		for _, item := range list {
			s, okStr := item.(string)
			if !okStr {
				r.fail(field, "must be a list of strings")
				return nil
			}
			out = append(out, s)
		}
		return out
	}
	r.fail(field, "must be a list of strings")
	return nil
}

// rejectUnknown records a violation for every unconsumed field.
func (r *fieldReader) rejectUnknown() {
	var unknown []string
	for key := range r.record {
		if !r.used[key] {
			unknown = append(unknown, key)
		}
	}
	sort.Strings(unknown)
	for _, key := range unknown {
		r.fail(key, "unknown field (closed schema)")
	}
}
