// Package event defines the canonical raid telemetry event schema and its
// schema-on-write validator.
package event

// Type is the closed set of supported event types. The type tag decides
// which payload variant an Event carries.
type Type string

// Supported event types.
const (
	TypeCombatDamage Type = "combat_damage"
	TypeHeal         Type = "heal"
	TypePlayerDeath  Type = "player_death"
	TypeSpellCast    Type = "spell_cast"
	TypeBossPhase    Type = "boss_phase"
	TypeManaRegen    Type = "mana_regeneration"
)

// Valid reports whether t is a known event type.
func (t Type) Valid() bool {
	switch t {
	case TypeCombatDamage, TypeHeal, TypePlayerDeath, TypeSpellCast, TypeBossPhase, TypeManaRegen:
		return true
	}
	return false
}

// Role is a player's raid role.
type Role string

// Player roles.
const (
	RoleTank   Role = "tank"
	RoleHealer Role = "healer"
	RoleDPS    Role = "dps"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleTank, RoleHealer, RoleDPS:
		return true
	}
	return false
}

// Class is a playable character class.
type Class string

// Playable classes.
const (
	ClassWarrior     Class = "warrior"
	ClassPaladin     Class = "paladin"
	ClassHunter      Class = "hunter"
	ClassRogue       Class = "rogue"
	ClassPriest      Class = "priest"
	ClassShaman      Class = "shaman"
	ClassMage        Class = "mage"
	ClassWarlock     Class = "warlock"
	ClassDruid       Class = "druid"
	ClassDeathKnight Class = "death_knight"
	ClassMonk        Class = "monk"
)

// Valid reports whether c is a known class.
func (c Class) Valid() bool {
	switch c {
	case ClassWarrior, ClassPaladin, ClassHunter, ClassRogue, ClassPriest,
		ClassShaman, ClassMage, ClassWarlock, ClassDruid, ClassDeathKnight, ClassMonk:
		return true
	}
	return false
}

// School is a damage or healing school.
type School string

// Damage/healing schools.
const (
	SchoolPhysical School = "physical"
	SchoolFire     School = "fire"
	SchoolFrost    School = "frost"
	SchoolNature   School = "nature"
	SchoolShadow   School = "shadow"
	SchoolArcane   School = "arcane"
	SchoolHoly     School = "holy"
	SchoolChaos    School = "chaos"
)

// Valid reports whether s is a known school.
func (s School) Valid() bool {
	switch s {
	case SchoolPhysical, SchoolFire, SchoolFrost, SchoolNature,
		SchoolShadow, SchoolArcane, SchoolHoly, SchoolChaos:
		return true
	}
	return false
}

// EntityType classifies a combat entity.
type EntityType string

// Entity types.
const (
	EntityPlayer      EntityType = "player"
	EntityBoss        EntityType = "boss"
	EntityAdd         EntityType = "add"
	EntityInteractive EntityType = "interactive"
)

// Valid reports whether e is a known entity type.
func (e EntityType) Valid() bool {
	switch e {
	case EntityPlayer, EntityBoss, EntityAdd, EntityInteractive:
		return true
	}
	return false
}

// Resource is a regenerating player resource.
type Resource string

// Resource kinds.
const (
	ResourceMana       Resource = "mana"
	ResourceEnergy     Resource = "energy"
	ResourceRage       Resource = "rage"
	ResourceFocus      Resource = "focus"
	ResourceRunicPower Resource = "runic_power"
)

// Valid reports whether r is a known resource kind.
func (r Resource) Valid() bool {
	switch r {
	case ResourceMana, ResourceEnergy, ResourceRage, ResourceFocus, ResourceRunicPower:
		return true
	}
	return false
}
