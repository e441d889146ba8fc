// This file implements the relationships repository: typed, scored edges
// between two characters of one world.
package sqlite

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/mesh-intelligence/worldstore/pkg/types"
)

const relationshipColumns = "relationship_id, world_id, character_a_id, character_b_id, " +
	"relationship_type, score, history_json, last_updated"

// RelationshipRepository persists relationships.
type RelationshipRepository struct {
	ex  Executor
	now func() time.Time
}

// NewRelationshipRepository returns a repository bound to ex.
func NewRelationshipRepository(ex Executor) *RelationshipRepository {
	return &RelationshipRepository{ex: ex, now: time.Now}
}

// Create inserts rel and sets its ID and LastUpdated. Both endpoints must
// be distinct characters of rel.WorldID. A second relationship with the
// same world, endpoints and type returns an error wrapping
// types.ErrDuplicate.
func (r *RelationshipRepository) Create(rel *types.Relationship) (int64, error) {
	history, err := prepareRelationship(rel)
	if err != nil {
		return 0, err
	}
	var id int64
	err = r.ex.Transaction(func(tx Executor) error {
		if err := checkEndpoints(tx, rel); err != nil {
			return err
		}
		res, err := tx.Exec(
			`INSERT INTO Relationships (world_id, character_a_id, character_b_id, relationship_type, score, history_json)
VALUES (?, ?, ?, ?, ?, ?)`,
			rel.WorldID, rel.CharacterAID, rel.CharacterBID, rel.Type, rel.Score, history,
		)
		if err != nil {
			return err
		}
		if id, err = insertID(res); err != nil {
			return err
		}
		stored, err := NewRelationshipRepository(tx).Get(id)
		if err != nil {
			return err
		}
		*rel = *stored
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("creating %s relationship %d-%d: %w", rel.Type, rel.CharacterAID, rel.CharacterBID, err)
	}
	return id, nil
}

// checkEndpoints rejects endpoints that exist but belong to another world.
// Missing endpoints are left to the foreign keys.
func checkEndpoints(ex Executor, rel *types.Relationship) error {
	rows, err := ex.FetchAll(
		"SELECT character_id, world_id FROM Characters WHERE character_id IN (?, ?)",
		rel.CharacterAID, rel.CharacterBID)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var charID, worldID int64
		if err := rows.Scan(&charID, &worldID); err != nil {
			return classifyError(err)
		}
		if worldID != rel.WorldID {
			return fmt.Errorf("%w: character %d is in world %d, relationship in world %d",
				types.ErrCrossWorld, charID, worldID, rel.WorldID)
		}
	}
	return classifyError(rows.Err())
}

// Get returns the relationship with the given id, or types.ErrNotFound.
func (r *RelationshipRepository) Get(id int64) (*types.Relationship, error) {
	rel, err := fetchOne(r.ex, hydrateRelationship,
		"SELECT "+relationshipColumns+" FROM Relationships WHERE relationship_id = ?", id)
	return rel, annotate(err, "getting relationship %d", id)
}

// Find returns the relationship of relType from a to b, or
// types.ErrNotFound. Direction matters: (a, b) and (b, a) are different
// relationships.
func (r *RelationshipRepository) Find(worldID, a, b int64, relType string) (*types.Relationship, error) {
	rel, err := fetchOne(r.ex, hydrateRelationship,
		`SELECT `+relationshipColumns+` FROM Relationships
WHERE world_id = ? AND character_a_id = ? AND character_b_id = ? AND relationship_type = ?`,
		worldID, a, b, relType)
	return rel, annotate(err, "finding %s relationship %d-%d", relType, a, b)
}

// ListByCharacter returns the relationships in which the character is
// either endpoint, most recently updated first.
func (r *RelationshipRepository) ListByCharacter(characterID int64) ([]*types.Relationship, error) {
	rels, err := fetchAll(r.ex, hydrateRelationship,
		`SELECT `+relationshipColumns+` FROM Relationships
WHERE character_a_id = ? OR character_b_id = ?
ORDER BY last_updated DESC, relationship_id DESC`,
		characterID, characterID)
	if err != nil {
		return nil, fmt.Errorf("listing relationships of character %d: %w", characterID, err)
	}
	return rels, nil
}

// ListByWorldCharacters returns every relationship that has an endpoint
// among the characters of a world, most recently updated first. It is the
// bulk form of ListByCharacter over the whole world.
func (r *RelationshipRepository) ListByWorldCharacters(worldID int64) ([]*types.Relationship, error) {
	rels, err := fetchAll(r.ex, hydrateRelationship,
		`SELECT `+relationshipColumns+` FROM Relationships
WHERE character_a_id IN (SELECT character_id FROM Characters WHERE world_id = ?)
    OR character_b_id IN (SELECT character_id FROM Characters WHERE world_id = ?)
ORDER BY last_updated DESC, relationship_id DESC`,
		worldID, worldID)
	if err != nil {
		return nil, fmt.Errorf("listing relationships of world %d: %w", worldID, err)
	}
	return rels, nil
}

// UpdateScore adds delta to the score and refreshes last_updated in one
// statement, then returns the updated relationship.
func (r *RelationshipRepository) UpdateScore(id int64, delta float64) (*types.Relationship, error) {
	res, err := r.ex.Exec(
		"UPDATE Relationships SET score = score + ?, last_updated = CURRENT_TIMESTAMP WHERE relationship_id = ?",
		delta, id)
	if err != nil {
		return nil, fmt.Errorf("updating score of relationship %d: %w", id, err)
	}
	if err := requireAffected(res); err != nil {
		return nil, err
	}
	return r.Get(id)
}

// AddInteraction appends record, stamped with the current time, to the
// relationship history and keeps the newest types.MaxHistory entries. The
// read and the write happen in one transaction.
func (r *RelationshipRepository) AddInteraction(id int64, record map[string]any) (*types.Relationship, error) {
	var out *types.Relationship
	err := r.ex.Transaction(func(tx Executor) error {
		repo := &RelationshipRepository{ex: tx, now: r.now}
		rel, err := repo.Get(id)
		if err != nil {
			return err
		}
		if err := rel.AddInteraction(record, r.now()); err != nil {
			return err
		}
		if _, err := tx.Exec(
			"UPDATE Relationships SET history_json = ?, last_updated = CURRENT_TIMESTAMP WHERE relationship_id = ?",
			rel.HistoryJSON, id); err != nil {
			return err
		}
		out, err = repo.Get(id)
		return err
	})
	if err != nil {
		return nil, annotate(err, "adding interaction to relationship %d", id)
	}
	return out, nil
}

// Update rewrites type, score and history of rel and refreshes
// last_updated. History beyond types.MaxHistory keeps its newest entries.
// Endpoints and world are fixed at creation.
func (r *RelationshipRepository) Update(rel *types.Relationship) error {
	if rel == nil || rel.ID <= 0 {
		return types.ErrInvalidID
	}
	if !types.IsValidRelationshipType(rel.Type) {
		return fmt.Errorf("%w: %q", types.ErrInvalidRelationshipType, rel.Type)
	}
	history, err := types.CapHistory(rel.HistoryJSON)
	if err != nil {
		return fmt.Errorf("relationship history: %w", err)
	}
	res, err := r.ex.Exec(
		`UPDATE Relationships SET relationship_type = ?, score = ?, history_json = ?, last_updated = CURRENT_TIMESTAMP
WHERE relationship_id = ?`,
		rel.Type, rel.Score, history, rel.ID)
	if err != nil {
		return fmt.Errorf("updating relationship %d: %w", rel.ID, err)
	}
	if err := requireAffected(res); err != nil {
		return err
	}
	rel.HistoryJSON = history
	return nil
}

// Delete removes the relationship.
func (r *RelationshipRepository) Delete(id int64) error {
	res, err := r.ex.Exec("DELETE FROM Relationships WHERE relationship_id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting relationship %d: %w", id, err)
	}
	return requireAffected(res)
}

func prepareRelationship(rel *types.Relationship) (string, error) {
	if rel == nil || rel.WorldID <= 0 {
		return "", types.ErrInvalidWorldID
	}
	if rel.CharacterAID == rel.CharacterBID {
		return "", types.ErrSelfRelationship
	}
	if !types.IsValidRelationshipType(rel.Type) {
		return "", fmt.Errorf("%w: %q", types.ErrInvalidRelationshipType, rel.Type)
	}
	history, err := types.CapHistory(rel.HistoryJSON)
	if err != nil {
		return "", fmt.Errorf("relationship history: %w", err)
	}
	return history, nil
}

// hydrateRelationship scans one Relationships row.
func hydrateRelationship(s scanner) (*types.Relationship, error) {
	var (
		rel     types.Relationship
		relType sql.NullString
		score   sql.NullFloat64
		history sql.NullString
		updated timestamp
	)
	if err := s.Scan(&rel.ID, &rel.WorldID, &rel.CharacterAID, &rel.CharacterBID,
		&relType, &score, &history, &updated); err != nil {
		return nil, err
	}
	rel.Type = relType.String
	rel.Score = score.Float64
	rel.HistoryJSON = jsonOrDefault(history, types.EmptyJSONList)
	rel.LastUpdated = updated.Time
	return &rel, nil
}
