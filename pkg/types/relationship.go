package types

import "time"

// Relationship types.
const (
	RelationshipFriendship = "friendship"
	RelationshipRivalry    = "rivalry"
	RelationshipLove       = "love"
	RelationshipHatred     = "hatred"
	RelationshipAllegiance = "allegiance"
)

var validRelationshipTypes = map[string]bool{
	RelationshipFriendship: true,
	RelationshipRivalry:    true,
	RelationshipLove:       true,
	RelationshipHatred:     true,
	RelationshipAllegiance: true,
}

// IsValidRelationshipType reports whether t is one of the Relationship
// constants.
func IsValidRelationshipType(t string) bool {
	return validRelationshipTypes[t]
}

// MaxHistory is the number of interactions a relationship keeps.
const MaxHistory = 50

// InteractionTimestampKey is the record field AddInteraction stamps.
const InteractionTimestampKey = "timestamp"

// Relationship is a typed, scored edge between two distinct characters of
// the same world. A pair may hold several relationships of different types.
type Relationship struct {
	ID           int64     `json:"relationship_id"`
	WorldID      int64     `json:"world_id"`
	CharacterAID int64     `json:"character_a_id"`
	CharacterBID int64     `json:"character_b_id"`
	Type         string    `json:"relationship_type"`
	Score        float64   `json:"score"`
	HistoryJSON  string    `json:"history_json"` // Raw JSON array, oldest first.
	LastUpdated  time.Time `json:"last_updated"`
}

// NewRelationship returns a relationship with an empty history.
func NewRelationship(worldID, a, b int64, relType string, score float64) *Relationship {
	return &Relationship{
		WorldID:      worldID,
		CharacterAID: a,
		CharacterBID: b,
		Type:         relType,
		Score:        score,
		HistoryJSON:  EmptyJSONList,
	}
}

// Involves reports whether characterID is either endpoint.
func (r *Relationship) Involves(characterID int64) bool {
	return r.CharacterAID == characterID || r.CharacterBID == characterID
}

// History decodes HistoryJSON.
func (r *Relationship) History() ([]map[string]any, error) {
	return DecodeList(r.HistoryJSON)
}

// SetHistory encodes h into HistoryJSON.
func (r *Relationship) SetHistory(h []map[string]any) error {
	raw, err := EncodeList(h)
	if err != nil {
		return err
	}
	r.HistoryJSON = raw
	return nil
}

// CapHistory validates raw history text and keeps its newest MaxHistory
// entries. Text within the cap is returned unchanged.
func CapHistory(raw string) (string, error) {
	normalized, err := NormalizeList(raw)
	if err != nil {
		return "", err
	}
	history, err := DecodeList(normalized)
	if err != nil {
		return "", err
	}
	if len(history) <= MaxHistory {
		return normalized, nil
	}
	return EncodeList(history[len(history)-MaxHistory:])
}

// AddInteraction appends a copy of record stamped with now, keeps the most
// recent MaxHistory entries, and sets LastUpdated. The caller's map is not
// modified.
func (r *Relationship) AddInteraction(record map[string]any, now time.Time) error {
	history, err := r.History()
	if err != nil {
		return err
	}
	entry := make(map[string]any, len(record)+1)
	for k, v := range record {
		entry[k] = v
	}
	entry[InteractionTimestampKey] = now.UTC().Format(time.RFC3339Nano)
	history = append(history, entry)
	if len(history) > MaxHistory {
		history = history[len(history)-MaxHistory:]
	}
	if err := r.SetHistory(history); err != nil {
		return err
	}
	r.LastUpdated = now
	return nil
}
