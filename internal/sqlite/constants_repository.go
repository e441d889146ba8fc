// This file implements the world constants repository. Constants are keyed
// by (world, key); writing an existing key replaces its value.
package sqlite

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/mesh-intelligence/worldstore/pkg/types"
)

const constantColumns = "constant_id, world_id, constant_key, constant_value, data_type, description"

const upsertConstant = `INSERT INTO WorldConstants (world_id, constant_key, constant_value, data_type, description)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT(world_id, constant_key) DO UPDATE SET
    constant_value = excluded.constant_value,
    data_type = excluded.data_type,
    description = excluded.description`

// WorldConstantRepository persists world constants.
type WorldConstantRepository struct {
	ex Executor
}

// NewWorldConstantRepository returns a repository bound to ex.
func NewWorldConstantRepository(ex Executor) *WorldConstantRepository {
	return &WorldConstantRepository{ex: ex}
}

// Set inserts c or replaces the value, data type and description of the
// existing constant with the same world and key. c.ID is set to the row id
// either way. The value must coerce to the declared data type.
func (r *WorldConstantRepository) Set(c *types.WorldConstant) (int64, error) {
	if err := validateConstant(c); err != nil {
		return 0, err
	}
	err := r.ex.Transaction(func(tx Executor) error {
		if _, err := tx.Exec(upsertConstant,
			c.WorldID, c.Key, c.Value, c.EffectiveDataType(), c.Description); err != nil {
			return err
		}
		// last_insert_rowid is not updated when the upsert takes the
		// update path, so read the id back.
		row, err := tx.FetchOne(
			"SELECT constant_id FROM WorldConstants WHERE world_id = ? AND constant_key = ?",
			c.WorldID, c.Key)
		if err != nil {
			return err
		}
		return classifyError(row.Scan(&c.ID))
	})
	if err != nil {
		return 0, fmt.Errorf("setting constant %q in world %d: %w", c.Key, c.WorldID, err)
	}
	c.DataType = c.EffectiveDataType()
	return c.ID, nil
}

// SetMany upserts every constant in one transaction. Either all are
// written or none.
func (r *WorldConstantRepository) SetMany(constants []*types.WorldConstant) error {
	for _, c := range constants {
		if err := validateConstant(c); err != nil {
			return err
		}
	}
	return r.ex.Transaction(func(tx Executor) error {
		repo := NewWorldConstantRepository(tx)
		for _, c := range constants {
			if _, err := repo.Set(c); err != nil {
				return err
			}
		}
		return nil
	})
}

// Get returns the constant stored under key, or types.ErrNotFound.
func (r *WorldConstantRepository) Get(worldID int64, key string) (*types.WorldConstant, error) {
	c, err := fetchOne(r.ex, hydrateConstant,
		"SELECT "+constantColumns+" FROM WorldConstants WHERE world_id = ? AND constant_key = ?",
		worldID, key)
	return c, annotate(err, "getting constant %q in world %d", key, worldID)
}

// List returns the constants of a world ordered by key.
func (r *WorldConstantRepository) List(worldID int64) ([]*types.WorldConstant, error) {
	cs, err := fetchAll(r.ex, hydrateConstant,
		"SELECT "+constantColumns+" FROM WorldConstants WHERE world_id = ? ORDER BY constant_key",
		worldID)
	if err != nil {
		return nil, fmt.Errorf("listing constants of world %d: %w", worldID, err)
	}
	return cs, nil
}

// Values returns key to typed value for every constant of a world. A
// stored value that no longer coerces to its type is an error.
func (r *WorldConstantRepository) Values(worldID int64) (map[string]any, error) {
	cs, err := r.List(worldID)
	if err != nil {
		return nil, err
	}
	out := make(map[string]any, len(cs))
	for _, c := range cs {
		v, err := c.TypedValue()
		if err != nil {
			return nil, err
		}
		out[c.Key] = v
	}
	return out, nil
}

// Delete removes the constant stored under key.
func (r *WorldConstantRepository) Delete(worldID int64, key string) error {
	res, err := r.ex.Exec(
		"DELETE FROM WorldConstants WHERE world_id = ? AND constant_key = ?", worldID, key)
	if err != nil {
		return fmt.Errorf("deleting constant %q in world %d: %w", key, worldID, err)
	}
	return requireAffected(res)
}

func validateConstant(c *types.WorldConstant) error {
	if c == nil || strings.TrimSpace(c.Key) == "" {
		return types.ErrInvalidKey
	}
	if c.WorldID <= 0 {
		return types.ErrInvalidWorldID
	}
	if !types.IsValidDataType(c.EffectiveDataType()) {
		return fmt.Errorf("%w: %q", types.ErrInvalidDataType, c.DataType)
	}
	_, err := c.TypedValue()
	return err
}

// hydrateConstant scans one WorldConstants row.
func hydrateConstant(s scanner) (*types.WorldConstant, error) {
	var (
		c        types.WorldConstant
		dataType sql.NullString
		desc     sql.NullString
	)
	if err := s.Scan(&c.ID, &c.WorldID, &c.Key, &c.Value, &dataType, &desc); err != nil {
		return nil, err
	}
	c.DataType = dataType.String
	c.Description = desc.String
	return &c, nil
}
