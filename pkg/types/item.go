package types

import "time"

// Item is a template. It is never placed in the world directly; play uses
// ItemInstance copies of it.
type Item struct {
	ID                 int64  `json:"item_id"`
	WorldID            int64  `json:"world_id"`
	Name               string `json:"name"`
	Description        string `json:"description"`
	Type               string `json:"type"` // weapon, potion, key, resource, ...
	BasePropertiesJSON string `json:"base_properties_json"`
	IsUnique           bool   `json:"is_unique"` // At most one instance may exist.
}

// BaseProperties decodes BasePropertiesJSON.
func (i *Item) BaseProperties() (map[string]any, error) {
	return DecodeMap(i.BasePropertiesJSON)
}

// SetBaseProperties encodes m into BasePropertiesJSON.
func (i *Item) SetBaseProperties(m map[string]any) error {
	raw, err := EncodeMap(m)
	if err != nil {
		return err
	}
	i.BasePropertiesJSON = raw
	return nil
}

// ItemInstance is a concrete, independently mutable copy of an Item.
// CurrentPropertiesJSON holds only the overrides for this instance; the
// template's base properties are never copied into it.
type ItemInstance struct {
	ID                    int64     `json:"instance_id"`
	WorldID               int64     `json:"world_id"`
	ItemID                int64     `json:"item_id"`
	CreatedAt             time.Time `json:"created_at"`
	CustomName            string    `json:"custom_name"`
	CurrentPropertiesJSON string    `json:"current_properties_json"`
}

// CurrentProperties decodes CurrentPropertiesJSON.
func (ii *ItemInstance) CurrentProperties() (map[string]any, error) {
	return DecodeMap(ii.CurrentPropertiesJSON)
}

// SetCurrentProperties encodes m into CurrentPropertiesJSON.
func (ii *ItemInstance) SetCurrentProperties(m map[string]any) error {
	raw, err := EncodeMap(m)
	if err != nil {
		return err
	}
	ii.CurrentPropertiesJSON = raw
	return nil
}

// DisplayName returns the custom name when set, else the template name.
func (ii *ItemInstance) DisplayName(template *Item) string {
	if ii.CustomName != "" || template == nil {
		return ii.CustomName
	}
	return template.Name
}

// MergeProperties overlays instance overrides on the template's base
// properties. Neither input is modified.
func MergeProperties(template *Item, instance *ItemInstance) (map[string]any, error) {
	base, err := template.BaseProperties()
	if err != nil {
		return nil, err
	}
	overrides, err := instance.CurrentProperties()
	if err != nil {
		return nil, err
	}
	merged := make(map[string]any, len(base)+len(overrides))
	for k, v := range base {
		merged[k] = v
	}
	for k, v := range overrides {
		merged[k] = v
	}
	return merged, nil
}
