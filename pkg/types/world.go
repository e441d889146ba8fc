package types

import "time"

// World is the root aggregate. Deleting a world removes every row scoped
// to it.
type World struct {
	ID           int64     `json:"world_id"`
	Name         string    `json:"name"`       // Globally unique, required.
	Theme        string    `json:"theme"`      // Free-form genre or mood.
	CreatedAt    time.Time `json:"created_at"` // Assigned by the store.
	IsActive     bool      `json:"is_active"`
	SettingsJSON string    `json:"settings_json"` // Raw JSON object.
}

// NewWorld returns an active world with empty settings.
func NewWorld(name, theme string) *World {
	return &World{
		Name:         name,
		Theme:        theme,
		IsActive:     true,
		SettingsJSON: EmptyJSONMap,
	}
}

// Settings decodes SettingsJSON.
func (w *World) Settings() (map[string]any, error) {
	return DecodeMap(w.SettingsJSON)
}

// SetSettings encodes m into SettingsJSON. The world is left unchanged on
// error.
func (w *World) SetSettings(m map[string]any) error {
	raw, err := EncodeMap(m)
	if err != nil {
		return err
	}
	w.SettingsJSON = raw
	return nil
}
