package types

// WorldContext is the read-only snapshot of one world handed to the
// narrative collaborator. Constants are decoded to their declared types;
// JSON columns of nested entities stay as raw text.
//
// Relationships hold each relationship once even when both endpoints are
// characters of the world. Inventories has an entry only for characters
// that hold at least one item.
type WorldContext struct {
	World         *World                 `json:"world"`
	Constants     map[string]any         `json:"constants"`
	Characters    []*Character           `json:"characters"`
	Relationships []*Relationship        `json:"relationships"`
	Inventories   map[int64][]*Inventory `json:"inventories"`
}

// NewWorldContext returns a context for w with empty, non-nil collections.
func NewWorldContext(w *World) *WorldContext {
	return &WorldContext{
		World:         w,
		Constants:     map[string]any{},
		Characters:    []*Character{},
		Relationships: []*Relationship{},
		Inventories:   map[int64][]*Inventory{},
	}
}

// Character returns the character with the given id, or nil.
func (wc *WorldContext) Character(id int64) *Character {
	for _, c := range wc.Characters {
		if c.ID == id {
			return c
		}
	}
	return nil
}
