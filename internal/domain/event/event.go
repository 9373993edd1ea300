package event

import (
	"encoding/json"
	"time"
)

// Actor identifies the player that authored an event.
type Actor struct {
	PlayerID   string
	PlayerName string
	Role       Role  // empty when not reported
	Class      Class // empty when not reported
	Level      *int  // nil when not reported
}

// Ability describes the spell or ability behind an event.
type Ability struct {
	ID     string
	Name   string
	School School
}

// Target describes the entity on the receiving end of an event.
type Target struct {
	EntityID        string
	EntityName      string
	EntityType      EntityType
	HealthPctBefore *float64
	HealthPctAfter  *float64
}

// Meta carries technical metadata stamped by the producer and the gate.
type Meta struct {
	IngestedAt      time.Time
	SourceSystem    string
	QualityFlags    []string
	ServerLatencyMS *int64
	ClientLatencyMS *int64
}

// Payload is the tagged-union variant of an Event. Exactly one variant
// exists per event type, carrying only the fields legal for that type.
type Payload interface {
	eventPayload()
}

// DamagePayload is the combat_damage variant.
type DamagePayload struct {
	Amount         float64
	Critical       bool
	CritMultiplier float64
	Resisted       bool
	Blocked        bool
	Absorbed       bool
}

// HealPayload is the heal variant.
type HealPayload struct {
	Amount         float64
	Critical       bool
	CritMultiplier float64
}

// DeathPayload is the player_death variant. The target of the event is
// the entity that died.
type DeathPayload struct{}

// SpellCastPayload is the spell_cast variant.
type SpellCastPayload struct{}

// BossPhasePayload is the boss_phase variant.
type BossPhasePayload struct{}

// RegenPayload is the mana_regeneration variant.
type RegenPayload struct {
	Resource     Resource
	AmountBefore *float64
	AmountAfter  *float64
	Rate         *float64
}

func (DamagePayload) eventPayload()    {}
func (HealPayload) eventPayload()      {}
func (DeathPayload) eventPayload()     {}
func (SpellCastPayload) eventPayload() {}
func (BossPhasePayload) eventPayload() {}
func (RegenPayload) eventPayload()     {}

// Event is a validated raid telemetry event. It is immutable once built
// by the Validator.
type Event struct {
	ID          string
	Type        Type
	Timestamp   time.Time
	RaidID      string
	EncounterID string

	// EncounterDurationMS is producer-reported and optional.
	EncounterDurationMS *int64

	Actor   Actor
	Ability *Ability
	Target  *Target
	Payload Payload
	Meta    Meta
}

// wireEvent is the flat bronze-tier JSON shape shared with the producer.
type wireEvent struct {
	EventID             string   `json:"event_id"`
	EventType           string   `json:"event_type"`
	Timestamp           string   `json:"timestamp"`
	RaidID              string   `json:"raid_id"`
	EncounterID         string   `json:"encounter_id,omitempty"`
	EncounterDurationMS *int64   `json:"encounter_duration_ms,omitempty"`
	SourcePlayerID      string   `json:"source_player_id"`
	SourcePlayerName    string   `json:"source_player_name"`
	SourcePlayerRole    string   `json:"source_player_role,omitempty"`
	SourcePlayerClass   string   `json:"source_player_class,omitempty"`
	SourcePlayerLevel   *int     `json:"source_player_level,omitempty"`
	AbilityID           string   `json:"ability_id,omitempty"`
	AbilityName         string   `json:"ability_name,omitempty"`
	AbilitySchool       string   `json:"ability_school,omitempty"`
	DamageAmount        *float64 `json:"damage_amount,omitempty"`
	HealingAmount       *float64 `json:"healing_amount,omitempty"`
	IsCriticalHit       bool     `json:"is_critical_hit"`
	CriticalMultiplier  float64  `json:"critical_multiplier"`
	IsResisted          bool     `json:"is_resisted"`
	IsBlocked           bool     `json:"is_blocked"`
	IsAbsorbed          bool     `json:"is_absorbed"`
	TargetEntityID      string   `json:"target_entity_id,omitempty"`
	TargetEntityName    string   `json:"target_entity_name,omitempty"`
	TargetEntityType    string   `json:"target_entity_type,omitempty"`
	TargetHealthBefore  *float64 `json:"target_entity_health_pct_before,omitempty"`
	TargetHealthAfter   *float64 `json:"target_entity_health_pct_after,omitempty"`
	ResourceType        string   `json:"resource_type,omitempty"`
	ResourceBefore      *float64 `json:"resource_amount_before,omitempty"`
	ResourceAfter       *float64 `json:"resource_amount_after,omitempty"`
	ResourceRate        *float64 `json:"resource_regeneration_rate,omitempty"`
	IngestionTimestamp  string   `json:"ingestion_timestamp"`
	SourceSystem        string   `json:"source_system"`
	DataQualityFlags    []string `json:"data_quality_flags"`
	ServerLatencyMS     *int64   `json:"server_latency_ms,omitempty"`
	ClientLatencyMS     *int64   `json:"client_latency_ms,omitempty"`
}

// MarshalJSON flattens the event back into the bronze wire shape.
func (e Event) MarshalJSON() ([]byte, error) {
	w := wireEvent{
		EventID:             e.ID,
		EventType:           string(e.Type),
		Timestamp:           e.Timestamp.UTC().Format(time.RFC3339Nano),
		RaidID:              e.RaidID,
		EncounterID:         e.EncounterID,
		EncounterDurationMS: e.EncounterDurationMS,
		SourcePlayerID:      e.Actor.PlayerID,
		SourcePlayerName:    e.Actor.PlayerName,
		SourcePlayerRole:    string(e.Actor.Role),
		SourcePlayerClass:   string(e.Actor.Class),
		SourcePlayerLevel:   e.Actor.Level,
		CriticalMultiplier:  1.0,
		IngestionTimestamp:  e.Meta.IngestedAt.UTC().Format(time.RFC3339Nano),
		SourceSystem:        e.Meta.SourceSystem,
		DataQualityFlags:    e.Meta.QualityFlags,
		ServerLatencyMS:     e.Meta.ServerLatencyMS,
		ClientLatencyMS:     e.Meta.ClientLatencyMS,
	}
	if w.DataQualityFlags == nil {
		w.DataQualityFlags = []string{}
	}
	if e.Ability != nil {
		w.AbilityID = e.Ability.ID
		w.AbilityName = e.Ability.Name
		w.AbilitySchool = string(e.Ability.School)
	}
	if e.Target != nil {
		w.TargetEntityID = e.Target.EntityID
		w.TargetEntityName = e.Target.EntityName
		w.TargetEntityType = string(e.Target.EntityType)
		w.TargetHealthBefore = e.Target.HealthPctBefore
		w.TargetHealthAfter = e.Target.HealthPctAfter
	}

	switch p := e.Payload.(type) {
	case DamagePayload:
		amount := p.Amount
		w.DamageAmount = &amount
		w.IsCriticalHit = p.Critical
		w.CriticalMultiplier = p.CritMultiplier
		w.IsResisted = p.Resisted
		w.IsBlocked = p.Blocked
		w.IsAbsorbed = p.Absorbed
	case HealPayload:
		amount := p.Amount
		w.HealingAmount = &amount
		w.IsCriticalHit = p.Critical
		w.CriticalMultiplier = p.CritMultiplier
	case RegenPayload:
		w.ResourceType = string(p.Resource)
		w.ResourceBefore = p.AmountBefore
		w.ResourceAfter = p.AmountAfter
		w.ResourceRate = p.Rate
	}

	return json.Marshal(w)
}
