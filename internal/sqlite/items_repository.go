// This file implements the items repository: item templates and the
// instances created from them.
package sqlite

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/mesh-intelligence/worldstore/pkg/types"
)

const (
	itemColumns     = "item_id, world_id, name, description, type, base_properties_json, is_unique"
	instanceColumns = "instance_id, world_id, item_id, created_at, custom_name, current_properties_json"
)

// ItemRepository persists item templates and item instances.
type ItemRepository struct {
	ex Executor
}

// NewItemRepository returns a repository bound to ex.
func NewItemRepository(ex Executor) *ItemRepository {
	return &ItemRepository{ex: ex}
}

// CreateItem inserts the template and sets its ID.
func (r *ItemRepository) CreateItem(it *types.Item) (int64, error) {
	props, err := prepareItem(it)
	if err != nil {
		return 0, err
	}
	if it.WorldID <= 0 {
		return 0, types.ErrInvalidWorldID
	}
	res, err := r.ex.Exec(
		`INSERT INTO Items (world_id, name, description, type, base_properties_json, is_unique)
VALUES (?, ?, ?, ?, ?, ?)`,
		it.WorldID, it.Name, nullIfEmpty(it.Description), nullIfEmpty(it.Type), props, it.IsUnique,
	)
	if err != nil {
		return 0, fmt.Errorf("creating item %q: %w", it.Name, err)
	}
	id, err := insertID(res)
	if err != nil {
		return 0, err
	}
	it.ID = id
	it.BasePropertiesJSON = props
	return id, nil
}

// GetItem returns the template with the given id, or types.ErrNotFound.
func (r *ItemRepository) GetItem(id int64) (*types.Item, error) {
	it, err := fetchOne(r.ex, hydrateItem,
		"SELECT "+itemColumns+" FROM Items WHERE item_id = ?", id)
	return it, annotate(err, "getting item %d", id)
}

// ListItems returns the templates of a world ordered by name.
func (r *ItemRepository) ListItems(worldID int64) ([]*types.Item, error) {
	items, err := fetchAll(r.ex, hydrateItem,
		"SELECT "+itemColumns+" FROM Items WHERE world_id = ? ORDER BY name, item_id", worldID)
	if err != nil {
		return nil, fmt.Errorf("listing items of world %d: %w", worldID, err)
	}
	return items, nil
}

// UpdateItem rewrites the template. Existing instances keep their
// overrides and see the new base properties.
func (r *ItemRepository) UpdateItem(it *types.Item) error {
	if it == nil || it.ID <= 0 {
		return types.ErrInvalidID
	}
	props, err := prepareItem(it)
	if err != nil {
		return err
	}
	res, err := r.ex.Exec(
		`UPDATE Items SET name = ?, description = ?, type = ?, base_properties_json = ?, is_unique = ?
WHERE item_id = ?`,
		it.Name, nullIfEmpty(it.Description), nullIfEmpty(it.Type), props, it.IsUnique, it.ID,
	)
	if err != nil {
		return fmt.Errorf("updating item %d: %w", it.ID, err)
	}
	if err := requireAffected(res); err != nil {
		return err
	}
	it.BasePropertiesJSON = props
	return nil
}

// DeleteItem removes the template together with its instances and every
// inventory entry holding them.
func (r *ItemRepository) DeleteItem(id int64) error {
	res, err := r.ex.Exec("DELETE FROM Items WHERE item_id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting item %d: %w", id, err)
	}
	return requireAffected(res)
}

// CreateInstance inserts an instance of inst.ItemID and sets its ID and
// CreatedAt. Only the overrides in CurrentPropertiesJSON are stored; base
// properties stay on the template. A zero WorldID is taken from the
// template; any other value must match it. A unique template that already
// has an instance returns types.ErrUniqueItemInstantiated.
func (r *ItemRepository) CreateInstance(inst *types.ItemInstance) (int64, error) {
	if inst == nil || inst.ItemID <= 0 {
		return 0, types.ErrInvalidID
	}
	props, err := types.NormalizeMap(inst.CurrentPropertiesJSON)
	if err != nil {
		return 0, fmt.Errorf("instance properties: %w", err)
	}

	var id int64
	err = r.ex.Transaction(func(tx Executor) error {
		repo := NewItemRepository(tx)
		template, err := repo.GetItem(inst.ItemID)
		if err != nil {
			return err
		}
		if inst.WorldID == 0 {
			inst.WorldID = template.WorldID
		}
		if inst.WorldID != template.WorldID {
			return fmt.Errorf("%w: item %d is in world %d, instance in world %d",
				types.ErrCrossWorld, template.ID, template.WorldID, inst.WorldID)
		}
		if template.IsUnique {
			n, err := countRows(tx, "SELECT COUNT(*) FROM ItemInstances WHERE item_id = ?", template.ID)
			if err != nil {
				return err
			}
			if n > 0 {
				return fmt.Errorf("%w: %q", types.ErrUniqueItemInstantiated, template.Name)
			}
		}

		res, err := tx.Exec(
			`INSERT INTO ItemInstances (world_id, item_id, custom_name, current_properties_json)
VALUES (?, ?, ?, ?)`,
			inst.WorldID, inst.ItemID, nullIfEmpty(inst.CustomName), props,
		)
		if err != nil {
			return err
		}
		if id, err = insertID(res); err != nil {
			return err
		}
		stored, err := repo.GetInstance(id)
		if err != nil {
			return err
		}
		*inst = *stored
		return nil
	})
	if err != nil {
		return 0, annotate(err, "creating instance of item %d", inst.ItemID)
	}
	return id, nil
}

// GetInstance returns the instance with the given id, or
// types.ErrNotFound.
func (r *ItemRepository) GetInstance(id int64) (*types.ItemInstance, error) {
	inst, err := fetchOne(r.ex, hydrateInstance,
		"SELECT "+instanceColumns+" FROM ItemInstances WHERE instance_id = ?", id)
	return inst, annotate(err, "getting item instance %d", id)
}

// ListInstances returns the instances of a template in creation order.
func (r *ItemRepository) ListInstances(itemID int64) ([]*types.ItemInstance, error) {
	insts, err := fetchAll(r.ex, hydrateInstance,
		"SELECT "+instanceColumns+" FROM ItemInstances WHERE item_id = ? ORDER BY instance_id", itemID)
	if err != nil {
		return nil, fmt.Errorf("listing instances of item %d: %w", itemID, err)
	}
	return insts, nil
}

// UpdateInstance rewrites the custom name and overrides of inst.
func (r *ItemRepository) UpdateInstance(inst *types.ItemInstance) error {
	if inst == nil || inst.ID <= 0 {
		return types.ErrInvalidID
	}
	props, err := types.NormalizeMap(inst.CurrentPropertiesJSON)
	if err != nil {
		return fmt.Errorf("instance properties: %w", err)
	}
	res, err := r.ex.Exec(
		"UPDATE ItemInstances SET custom_name = ?, current_properties_json = ? WHERE instance_id = ?",
		nullIfEmpty(inst.CustomName), props, inst.ID)
	if err != nil {
		return fmt.Errorf("updating item instance %d: %w", inst.ID, err)
	}
	if err := requireAffected(res); err != nil {
		return err
	}
	inst.CurrentPropertiesJSON = props
	return nil
}

// DeleteInstance removes the instance and any inventory entry holding it.
func (r *ItemRepository) DeleteInstance(id int64) error {
	res, err := r.ex.Exec("DELETE FROM ItemInstances WHERE instance_id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting item instance %d: %w", id, err)
	}
	return requireAffected(res)
}

// EffectiveProperties returns the template base properties of an instance
// overlaid with the instance overrides. The result is computed, not
// stored.
func (r *ItemRepository) EffectiveProperties(instanceID int64) (map[string]any, error) {
	inst, err := r.GetInstance(instanceID)
	if err != nil {
		return nil, err
	}
	template, err := r.GetItem(inst.ItemID)
	if err != nil {
		return nil, err
	}
	return types.MergeProperties(template, inst)
}

func prepareItem(it *types.Item) (string, error) {
	if it == nil || strings.TrimSpace(it.Name) == "" {
		return "", types.ErrInvalidName
	}
	props, err := types.NormalizeMap(it.BasePropertiesJSON)
	if err != nil {
		return "", fmt.Errorf("item base properties: %w", err)
	}
	return props, nil
}

// countRows runs a COUNT(*) query.
func countRows(ex Executor, query string, args ...any) (int64, error) {
	row, err := ex.FetchOne(query, args...)
	if err != nil {
		return 0, err
	}
	var n int64
	if err := row.Scan(&n); err != nil {
		return 0, classifyError(err)
	}
	return n, nil
}

// hydrateItem scans one Items row.
func hydrateItem(s scanner) (*types.Item, error) {
	var (
		it       types.Item
		desc     sql.NullString
		itemType sql.NullString
		props    sql.NullString
		unique   sql.NullBool
	)
	if err := s.Scan(&it.ID, &it.WorldID, &it.Name, &desc, &itemType, &props, &unique); err != nil {
		return nil, err
	}
	it.Description = desc.String
	it.Type = itemType.String
	it.BasePropertiesJSON = jsonOrDefault(props, types.EmptyJSONMap)
	it.IsUnique = unique.Bool
	return &it, nil
}

// hydrateInstance scans one ItemInstances row.
func hydrateInstance(s scanner) (*types.ItemInstance, error) {
	var (
		inst    types.ItemInstance
		created timestamp
		name    sql.NullString
		props   sql.NullString
	)
	if err := s.Scan(&inst.ID, &inst.WorldID, &inst.ItemID, &created, &name, &props); err != nil {
		return nil, err
	}
	inst.CreatedAt = created.Time
	inst.CustomName = name.String
	inst.CurrentPropertiesJSON = jsonOrDefault(props, types.EmptyJSONMap)
	return &inst, nil
}
