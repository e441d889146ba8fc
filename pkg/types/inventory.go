package types

// Condition bounds for inventory entries.
const (
	MinCondition = 0.0
	MaxCondition = 100.0
)

// Inventory binds an item instance to a character.
type Inventory struct {
	ID                   int64   `json:"inventory_id"`
	CharacterID          int64   `json:"character_id"`
	ItemInstanceID       int64   `json:"item_instance_id"`
	Quantity             int     `json:"quantity"`
	Condition            float64 `json:"condition"`
	CustomPropertiesJSON string  `json:"custom_properties_json"`

	// Filled by listings that join the instance and its template; ignored
	// on writes.
	ItemName   string `json:"item_name,omitempty"`
	CustomName string `json:"custom_name,omitempty"`
}

// NewInventory returns a single pristine entry.
func NewInventory(characterID, instanceID int64) *Inventory {
	return &Inventory{
		CharacterID:          characterID,
		ItemInstanceID:       instanceID,
		Quantity:             1,
		Condition:            MaxCondition,
		CustomPropertiesJSON: EmptyJSONMap,
	}
}

// CustomProperties decodes CustomPropertiesJSON.
func (inv *Inventory) CustomProperties() (map[string]any, error) {
	return DecodeMap(inv.CustomPropertiesJSON)
}

// SetCustomProperties encodes m into CustomPropertiesJSON.
func (inv *Inventory) SetCustomProperties(m map[string]any) error {
	raw, err := EncodeMap(m)
	if err != nil {
		return err
	}
	inv.CustomPropertiesJSON = raw
	return nil
}

// ValidCondition reports whether c is within the condition bounds.
func ValidCondition(c float64) bool {
	return c >= MinCondition && c <= MaxCondition
}
