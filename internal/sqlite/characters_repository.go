// This file implements the characters repository, including position and
// health changes applied as single statements.
package sqlite

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/mesh-intelligence/worldstore/pkg/types"
)

const characterColumns = "character_id, world_id, name, type, species, skills_json, " +
	"location_x, location_y, current_health, max_health, state_json"

// CharacterRepository persists characters. Deleting a character cascades
// to its relationships and inventory and clears vehicle ownership.
type CharacterRepository struct {
	ex Executor
}

// NewCharacterRepository returns a repository bound to ex.
func NewCharacterRepository(ex Executor) *CharacterRepository {
	return &CharacterRepository{ex: ex}
}

// Create inserts c and sets its ID. An unknown world returns an error
// wrapping types.ErrConstraint.
func (r *CharacterRepository) Create(c *types.Character) (int64, error) {
	skills, state, err := prepareCharacter(c)
	if err != nil {
		return 0, err
	}
	res, err := r.ex.Exec(
		`INSERT INTO Characters (world_id, name, type, species, skills_json,
    location_x, location_y, current_health, max_health, state_json)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.WorldID, c.Name, c.Type, c.Species, skills,
		c.X, c.Y, c.CurrentHealth, c.MaxHealth, state,
	)
	if err != nil {
		return 0, fmt.Errorf("creating character %q: %w", c.Name, err)
	}
	id, err := insertID(res)
	if err != nil {
		return 0, err
	}
	c.ID = id
	c.SkillsJSON, c.StateJSON = skills, state
	return id, nil
}

// Get returns the character with the given id, or types.ErrNotFound.
func (r *CharacterRepository) Get(id int64) (*types.Character, error) {
	c, err := fetchOne(r.ex, hydrateCharacter,
		"SELECT "+characterColumns+" FROM Characters WHERE character_id = ?", id)
	return c, annotate(err, "getting character %d", id)
}

// ListByWorld returns the characters of a world ordered by name.
func (r *CharacterRepository) ListByWorld(worldID int64) ([]*types.Character, error) {
	cs, err := fetchAll(r.ex, hydrateCharacter,
		"SELECT "+characterColumns+" FROM Characters WHERE world_id = ? ORDER BY name, character_id",
		worldID)
	if err != nil {
		return nil, fmt.Errorf("listing characters of world %d: %w", worldID, err)
	}
	return cs, nil
}

// ListByType returns the characters of one type in a world, ordered by
// name.
func (r *CharacterRepository) ListByType(worldID int64, charType string) ([]*types.Character, error) {
	if !types.IsValidCharacterType(charType) {
		return nil, fmt.Errorf("%w: %q", types.ErrInvalidCharacterType, charType)
	}
	cs, err := fetchAll(r.ex, hydrateCharacter,
		"SELECT "+characterColumns+" FROM Characters WHERE world_id = ? AND type = ? ORDER BY name, character_id",
		worldID, charType)
	if err != nil {
		return nil, fmt.Errorf("listing %s characters of world %d: %w", charType, worldID, err)
	}
	return cs, nil
}

// ListNear returns the characters of a world inside the square of half
// side radius centred on (x, y), ordered by name.
func (r *CharacterRepository) ListNear(worldID int64, x, y, radius float64) ([]*types.Character, error) {
	if radius < 0 {
		return nil, fmt.Errorf("%w: radius %g", types.ErrInvalidAmount, radius)
	}
	cs, err := fetchAll(r.ex, hydrateCharacter,
		`SELECT `+characterColumns+` FROM Characters
WHERE world_id = ?
    AND location_x BETWEEN ? AND ?
    AND location_y BETWEEN ? AND ?
ORDER BY name, character_id`,
		worldID, x-radius, x+radius, y-radius, y+radius)
	if err != nil {
		return nil, fmt.Errorf("listing characters near (%g, %g): %w", x, y, err)
	}
	return cs, nil
}

// Player returns the first player character of a world, or
// types.ErrNotFound when the world has none.
func (r *CharacterRepository) Player(worldID int64) (*types.Character, error) {
	c, err := fetchOne(r.ex, hydrateCharacter,
		"SELECT "+characterColumns+" FROM Characters WHERE world_id = ? AND type = ? ORDER BY character_id LIMIT 1",
		worldID, types.CharacterPlayer)
	return c, annotate(err, "getting player of world %d", worldID)
}

// Update rewrites every mutable column of c. The world of a character
// cannot change.
func (r *CharacterRepository) Update(c *types.Character) error {
	if c == nil || c.ID <= 0 {
		return types.ErrInvalidID
	}
	skills, state, err := prepareCharacter(c)
	if err != nil {
		return err
	}
	res, err := r.ex.Exec(
		`UPDATE Characters SET name = ?, type = ?, species = ?, skills_json = ?,
    location_x = ?, location_y = ?, current_health = ?, max_health = ?, state_json = ?
WHERE character_id = ?`,
		c.Name, c.Type, c.Species, skills,
		c.X, c.Y, c.CurrentHealth, c.MaxHealth, state, c.ID,
	)
	if err != nil {
		return fmt.Errorf("updating character %d: %w", c.ID, err)
	}
	if err := requireAffected(res); err != nil {
		return err
	}
	c.SkillsJSON, c.StateJSON = skills, state
	return nil
}

// Move sets the character position.
func (r *CharacterRepository) Move(id int64, x, y float64) error {
	res, err := r.ex.Exec(
		"UPDATE Characters SET location_x = ?, location_y = ? WHERE character_id = ?", x, y, id)
	if err != nil {
		return fmt.Errorf("moving character %d: %w", id, err)
	}
	return requireAffected(res)
}

// Damage lowers current health by amount, never below zero, and returns
// the updated character.
func (r *CharacterRepository) Damage(id int64, amount float64) (*types.Character, error) {
	if amount < 0 {
		return nil, fmt.Errorf("%w: damage %g", types.ErrInvalidAmount, amount)
	}
	return r.adjustHealth(id, "MAX(0, current_health - ?)", amount, "damaging")
}

// Heal raises current health by amount, never above max health, and
// returns the updated character.
func (r *CharacterRepository) Heal(id int64, amount float64) (*types.Character, error) {
	if amount < 0 {
		return nil, fmt.Errorf("%w: heal %g", types.ErrInvalidAmount, amount)
	}
	return r.adjustHealth(id, "MIN(max_health, current_health + ?)", amount, "healing")
}

func (r *CharacterRepository) adjustHealth(id int64, expr string, amount float64, verb string) (*types.Character, error) {
	res, err := r.ex.Exec("UPDATE Characters SET current_health = "+expr+" WHERE character_id = ?", amount, id)
	if err != nil {
		return nil, fmt.Errorf("%s character %d: %w", verb, id, err)
	}
	if err := requireAffected(res); err != nil {
		return nil, err
	}
	return r.Get(id)
}

// Delete removes the character.
func (r *CharacterRepository) Delete(id int64) error {
	res, err := r.ex.Exec("DELETE FROM Characters WHERE character_id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting character %d: %w", id, err)
	}
	return requireAffected(res)
}

// prepareCharacter validates c and returns its normalized JSON columns.
func prepareCharacter(c *types.Character) (skills, state string, err error) {
	if c == nil || strings.TrimSpace(c.Name) == "" {
		return "", "", types.ErrInvalidName
	}
	if c.WorldID <= 0 {
		return "", "", types.ErrInvalidWorldID
	}
	if !types.IsValidCharacterType(c.Type) {
		return "", "", fmt.Errorf("%w: %q", types.ErrInvalidCharacterType, c.Type)
	}
	if skills, err = types.NormalizeMap(c.SkillsJSON); err != nil {
		return "", "", fmt.Errorf("character skills: %w", err)
	}
	if state, err = types.NormalizeMap(c.StateJSON); err != nil {
		return "", "", fmt.Errorf("character state: %w", err)
	}
	return skills, state, nil
}

// hydrateCharacter scans one Characters row.
func hydrateCharacter(s scanner) (*types.Character, error) {
	var (
		c                 types.Character
		charType, species sql.NullString
		skills, state     sql.NullString
		x, y, cur, top    sql.NullFloat64
	)
	if err := s.Scan(&c.ID, &c.WorldID, &c.Name, &charType, &species, &skills,
		&x, &y, &cur, &top, &state); err != nil {
		return nil, err
	}
	c.Type = charType.String
	c.Species = species.String
	c.SkillsJSON = jsonOrDefault(skills, types.EmptyJSONMap)
	c.StateJSON = jsonOrDefault(state, types.EmptyJSONMap)
	c.X, c.Y = x.Float64, y.Float64
	c.CurrentHealth, c.MaxHealth = cur.Float64, top.Float64
	return &c, nil
}
