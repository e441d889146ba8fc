// This file implements the worlds repository: the root aggregate that every
// other entity is scoped to.
package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/mesh-intelligence/worldstore/pkg/types"
)

const worldColumns = "world_id, name, theme, created_at, is_active, settings_json"

// WorldRepository persists worlds. Deleting a world cascades to every row
// scoped to it.
type WorldRepository struct {
	ex Executor
}

// NewWorldRepository returns a repository bound to ex.
func NewWorldRepository(ex Executor) *WorldRepository {
	return &WorldRepository{ex: ex}
}

// Create inserts w and sets its ID and CreatedAt. A taken name returns an
// error wrapping types.ErrDuplicate.
func (r *WorldRepository) Create(w *types.World) (int64, error) {
	if err := validateWorld(w); err != nil {
		return 0, err
	}
	settings, err := types.NormalizeMap(w.SettingsJSON)
	if err != nil {
		return 0, fmt.Errorf("world settings: %w", err)
	}

	res, err := r.ex.Exec(
		"INSERT INTO Worlds (name, theme, is_active, settings_json) VALUES (?, ?, ?, ?)",
		w.Name, w.Theme, w.IsActive, settings,
	)
	if err != nil {
		return 0, fmt.Errorf("creating world %q: %w", w.Name, err)
	}
	id, err := insertID(res)
	if err != nil {
		return 0, err
	}

	stored, err := r.Get(id)
	if err != nil {
		return 0, fmt.Errorf("reloading world %d: %w", id, err)
	}
	*w = *stored
	return id, nil
}

// Get returns the world with the given id, or types.ErrNotFound.
func (r *WorldRepository) Get(id int64) (*types.World, error) {
	w, err := fetchOne(r.ex, hydrateWorld,
		"SELECT "+worldColumns+" FROM Worlds WHERE world_id = ?", id)
	if err != nil {
		if errors.Is(err, types.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("getting world %d: %w", id, err)
	}
	return w, nil
}

// GetByName returns the world with the given name, or types.ErrNotFound.
func (r *WorldRepository) GetByName(name string) (*types.World, error) {
	w, err := fetchOne(r.ex, hydrateWorld,
		"SELECT "+worldColumns+" FROM Worlds WHERE name = ?", name)
	if err != nil {
		if errors.Is(err, types.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("getting world %q: %w", name, err)
	}
	return w, nil
}

// List returns every world, newest first.
func (r *WorldRepository) List() ([]*types.World, error) {
	worlds, err := fetchAll(r.ex, hydrateWorld,
		"SELECT "+worldColumns+" FROM Worlds ORDER BY created_at DESC, world_id DESC")
	if err != nil {
		return nil, fmt.Errorf("listing worlds: %w", err)
	}
	return worlds, nil
}

// Update rewrites name, theme, active flag and settings of w.
func (r *WorldRepository) Update(w *types.World) error {
	if w == nil || w.ID <= 0 {
		return types.ErrInvalidID
	}
	if err := validateWorld(w); err != nil {
		return err
	}
	settings, err := types.NormalizeMap(w.SettingsJSON)
	if err != nil {
		return fmt.Errorf("world settings: %w", err)
	}

	res, err := r.ex.Exec(
		"UPDATE Worlds SET name = ?, theme = ?, is_active = ?, settings_json = ? WHERE world_id = ?",
		w.Name, w.Theme, w.IsActive, settings, w.ID,
	)
	if err != nil {
		return fmt.Errorf("updating world %d: %w", w.ID, err)
	}
	if err := requireAffected(res); err != nil {
		return err
	}
	w.SettingsJSON = settings
	return nil
}

// Delete removes the world and, through the schema cascades, all of its
// constants, characters, relationships, items, instances, inventories and
// vehicles.
func (r *WorldRepository) Delete(id int64) error {
	res, err := r.ex.Exec("DELETE FROM Worlds WHERE world_id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting world %d: %w", id, err)
	}
	return requireAffected(res)
}

// Activate marks the world active.
func (r *WorldRepository) Activate(id int64) error {
	return r.setActive(id, true)
}

// Deactivate marks the world inactive. Its data is kept.
func (r *WorldRepository) Deactivate(id int64) error {
	return r.setActive(id, false)
}

func (r *WorldRepository) setActive(id int64, active bool) error {
	res, err := r.ex.Exec("UPDATE Worlds SET is_active = ? WHERE world_id = ?", active, id)
	if err != nil {
		return fmt.Errorf("setting world %d active=%t: %w", id, active, err)
	}
	return requireAffected(res)
}

func validateWorld(w *types.World) error {
	if w == nil {
		return types.ErrInvalidName
	}
	if strings.TrimSpace(w.Name) == "" {
		return types.ErrInvalidName
	}
	return nil
}

// hydrateWorld scans one Worlds row.
func hydrateWorld(s scanner) (*types.World, error) {
	var (
		w        types.World
		theme    sql.NullString
		created  timestamp
		settings sql.NullString
	)
	if err := s.Scan(&w.ID, &w.Name, &theme, &created, &w.IsActive, &settings); err != nil {
		return nil, err
	}
	w.Theme = theme.String
	w.CreatedAt = created.Time
	w.SettingsJSON = jsonOrDefault(settings, types.EmptyJSONMap)
	return &w, nil
}
