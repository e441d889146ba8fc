package types

// Character types.
const (
	CharacterPlayer    = "player"
	CharacterNPC       = "npc"
	CharacterCompanion = "companion"
	CharacterEnemy     = "enemy"
)

var validCharacterTypes = map[string]bool{
	CharacterPlayer:    true,
	CharacterNPC:       true,
	CharacterCompanion: true,
	CharacterEnemy:     true,
}

// IsValidCharacterType reports whether t is one of the Character constants.
func IsValidCharacterType(t string) bool {
	return validCharacterTypes[t]
}

// DefaultMaxHealth is the health a new character starts with.
const DefaultMaxHealth = 100.0

// Character is a player, NPC, companion, or enemy placed in a world.
// Intended usage has one player per world; the schema does not enforce it.
type Character struct {
	ID            int64   `json:"character_id"`
	WorldID       int64   `json:"world_id"`
	Name          string  `json:"name"`
	Type          string  `json:"type"`
	Species       string  `json:"species"`
	SkillsJSON    string  `json:"skills_json"`
	X             float64 `json:"location_x"`
	Y             float64 `json:"location_y"`
	CurrentHealth float64 `json:"current_health"`
	MaxHealth     float64 `json:"max_health"`
	StateJSON     string  `json:"state_json"`
}

// NewCharacter returns a character at the origin with full default health.
func NewCharacter(worldID int64, name, charType, species string) *Character {
	return &Character{
		WorldID:       worldID,
		Name:          name,
		Type:          charType,
		Species:       species,
		SkillsJSON:    EmptyJSONMap,
		CurrentHealth: DefaultMaxHealth,
		MaxHealth:     DefaultMaxHealth,
		StateJSON:     EmptyJSONMap,
	}
}

// Skills decodes SkillsJSON.
func (c *Character) Skills() (map[string]any, error) {
	return DecodeMap(c.SkillsJSON)
}

// SetSkills encodes m into SkillsJSON.
func (c *Character) SetSkills(m map[string]any) error {
	raw, err := EncodeMap(m)
	if err != nil {
		return err
	}
	c.SkillsJSON = raw
	return nil
}

// State decodes StateJSON.
func (c *Character) State() (map[string]any, error) {
	return DecodeMap(c.StateJSON)
}

// SetState encodes m into StateJSON.
func (c *Character) SetState(m map[string]any) error {
	raw, err := EncodeMap(m)
	if err != nil {
		return err
	}
	c.StateJSON = raw
	return nil
}

// Location returns the character position.
func (c *Character) Location() (x, y float64) {
	return c.X, c.Y
}

// IsAlive reports whether the character has health left.
func (c *Character) IsAlive() bool {
	return c.CurrentHealth > 0
}
