// This file implements the character inventory repository.
package sqlite

import (
	"database/sql"
	"fmt"

	"github.com/mesh-intelligence/worldstore/pkg/types"
)

// Inventory reads join the instance and its template so listings carry the
// item name and the instance custom name.
const inventorySelect = `SELECT inv.inventory_id, inv.character_id, inv.item_instance_id, inv.quantity,
    inv.condition, inv.custom_properties_json, i.name, ii.custom_name
FROM Inventory inv
JOIN ItemInstances ii ON ii.instance_id = inv.item_instance_id
JOIN Items i ON i.item_id = ii.item_id`

// InventoryRepository persists the items characters hold.
type InventoryRepository struct {
	ex Executor
}

// NewInventoryRepository returns a repository bound to ex.
func NewInventoryRepository(ex Executor) *InventoryRepository {
	return &InventoryRepository{ex: ex}
}

// Add places an item instance in a character inventory and sets inv.ID.
// The instance must be in the character's world and not held anywhere
// else.
func (r *InventoryRepository) Add(inv *types.Inventory) (int64, error) {
	props, err := prepareInventory(inv)
	if err != nil {
		return 0, err
	}
	var id int64
	err = r.ex.Transaction(func(tx Executor) error {
		if err := checkInstanceFree(tx, inv.ItemInstanceID); err != nil {
			return err
		}
		if err := checkSameWorld(tx, inv.CharacterID, inv.ItemInstanceID); err != nil {
			return err
		}
		res, err := tx.Exec(
			`INSERT INTO Inventory (character_id, item_instance_id, quantity, condition, custom_properties_json)
VALUES (?, ?, ?, ?, ?)`,
			inv.CharacterID, inv.ItemInstanceID, inv.Quantity, inv.Condition, props,
		)
		if err != nil {
			return err
		}
		id, err = insertID(res)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("adding instance %d to character %d: %w", inv.ItemInstanceID, inv.CharacterID, err)
	}
	inv.ID = id
	inv.CustomPropertiesJSON = props
	return id, nil
}

// Get returns the inventory entry with the given id, or types.ErrNotFound.
func (r *InventoryRepository) Get(id int64) (*types.Inventory, error) {
	inv, err := fetchOne(r.ex, hydrateInventory, inventorySelect+" WHERE inv.inventory_id = ?", id)
	return inv, annotate(err, "getting inventory entry %d", id)
}

// ListByCharacter returns the entries held by a character ordered by item
// name.
func (r *InventoryRepository) ListByCharacter(characterID int64) ([]*types.Inventory, error) {
	invs, err := fetchAll(r.ex, hydrateInventory,
		inventorySelect+" WHERE inv.character_id = ? ORDER BY i.name, inv.inventory_id", characterID)
	if err != nil {
		return nil, fmt.Errorf("listing inventory of character %d: %w", characterID, err)
	}
	return invs, nil
}

// ListByWorld returns the inventories of every character of a world that
// holds at least one item, keyed by character id. Each list is ordered by
// item name.
func (r *InventoryRepository) ListByWorld(worldID int64) (map[int64][]*types.Inventory, error) {
	invs, err := fetchAll(r.ex, hydrateInventory,
		inventorySelect+`
JOIN Characters c ON c.character_id = inv.character_id
WHERE c.world_id = ?
ORDER BY inv.character_id, i.name, inv.inventory_id`, worldID)
	if err != nil {
		return nil, fmt.Errorf("listing inventories of world %d: %w", worldID, err)
	}
	out := make(map[int64][]*types.Inventory)
	for _, inv := range invs {
		out[inv.CharacterID] = append(out[inv.CharacterID], inv)
	}
	return out, nil
}

// UpdateQuantity sets the quantity of an entry. Quantity must be at least
// one; use Remove to drop an entry.
func (r *InventoryRepository) UpdateQuantity(id int64, quantity int) error {
	if quantity < 1 {
		return fmt.Errorf("%w: %d", types.ErrInvalidQuantity, quantity)
	}
	res, err := r.ex.Exec("UPDATE Inventory SET quantity = ? WHERE inventory_id = ?", quantity, id)
	if err != nil {
		return fmt.Errorf("updating quantity of inventory entry %d: %w", id, err)
	}
	return requireAffected(res)
}

// UpdateCondition sets the condition of an entry.
func (r *InventoryRepository) UpdateCondition(id int64, condition float64) error {
	if !types.ValidCondition(condition) {
		return fmt.Errorf("%w: %g", types.ErrInvalidCondition, condition)
	}
	res, err := r.ex.Exec("UPDATE Inventory SET condition = ? WHERE inventory_id = ?", condition, id)
	if err != nil {
		return fmt.Errorf("updating condition of inventory entry %d: %w", id, err)
	}
	return requireAffected(res)
}

// Update rewrites quantity, condition and custom properties of inv.
func (r *InventoryRepository) Update(inv *types.Inventory) error {
	if inv == nil || inv.ID <= 0 {
		return types.ErrInvalidID
	}
	props, err := prepareInventory(inv)
	if err != nil {
		return err
	}
	res, err := r.ex.Exec(
		"UPDATE Inventory SET quantity = ?, condition = ?, custom_properties_json = ? WHERE inventory_id = ?",
		inv.Quantity, inv.Condition, props, inv.ID)
	if err != nil {
		return fmt.Errorf("updating inventory entry %d: %w", inv.ID, err)
	}
	if err := requireAffected(res); err != nil {
		return err
	}
	inv.CustomPropertiesJSON = props
	return nil
}

// Remove deletes an entry. The item instance itself is kept.
func (r *InventoryRepository) Remove(id int64) error {
	res, err := r.ex.Exec("DELETE FROM Inventory WHERE inventory_id = ?", id)
	if err != nil {
		return fmt.Errorf("removing inventory entry %d: %w", id, err)
	}
	return requireAffected(res)
}

// Transfer moves an entry to another character of the same world.
func (r *InventoryRepository) Transfer(id, toCharacterID int64) error {
	err := r.ex.Transaction(func(tx Executor) error {
		inv, err := NewInventoryRepository(tx).Get(id)
		if err != nil {
			return err
		}
		if err := checkSameWorld(tx, toCharacterID, inv.ItemInstanceID); err != nil {
			return err
		}
		res, err := tx.Exec("UPDATE Inventory SET character_id = ? WHERE inventory_id = ?", toCharacterID, id)
		if err != nil {
			return err
		}
		return requireAffected(res)
	})
	return annotate(err, "transferring inventory entry %d to character %d", id, toCharacterID)
}

func prepareInventory(inv *types.Inventory) (string, error) {
	if inv == nil || inv.CharacterID <= 0 || inv.ItemInstanceID <= 0 {
		return "", types.ErrInvalidID
	}
	if inv.Quantity < 1 {
		return "", fmt.Errorf("%w: %d", types.ErrInvalidQuantity, inv.Quantity)
	}
	if !types.ValidCondition(inv.Condition) {
		return "", fmt.Errorf("%w: %g", types.ErrInvalidCondition, inv.Condition)
	}
	props, err := types.NormalizeMap(inv.CustomPropertiesJSON)
	if err != nil {
		return "", fmt.Errorf("inventory custom properties: %w", err)
	}
	return props, nil
}

// checkInstanceFree rejects an instance already held by a character or a
// vehicle.
func checkInstanceFree(ex Executor, instanceID int64) error {
	n, err := countRows(ex,
		`SELECT (SELECT COUNT(*) FROM Inventory WHERE item_instance_id = ?)
    + (SELECT COUNT(*) FROM VehicleInventory WHERE item_instance_id = ?)`,
		instanceID, instanceID)
	if err != nil {
		return err
	}
	if n > 0 {
		return fmt.Errorf("%w: instance %d", types.ErrInstanceHeld, instanceID)
	}
	return nil
}

// checkSameWorld rejects a character and an instance of different worlds.
// Missing rows are left to the foreign keys.
func checkSameWorld(ex Executor, characterID, instanceID int64) error {
	row, err := ex.FetchOne(
		`SELECT c.world_id, ii.world_id FROM Characters c, ItemInstances ii
WHERE c.character_id = ? AND ii.instance_id = ?`,
		characterID, instanceID)
	if err != nil {
		return err
	}
	var charWorld, instWorld int64
	switch err := row.Scan(&charWorld, &instWorld); {
	case err == sql.ErrNoRows:
		return nil
	case err != nil:
		return classifyError(err)
	}
	if charWorld != instWorld {
		return fmt.Errorf("%w: character %d is in world %d, instance %d in world %d",
			types.ErrCrossWorld, characterID, charWorld, instanceID, instWorld)
	}
	return nil
}

// hydrateInventory scans one row of inventorySelect.
func hydrateInventory(s scanner) (*types.Inventory, error) {
	var (
		inv        types.Inventory
		qty        sql.NullInt64
		condition  sql.NullFloat64
		props      sql.NullString
		customName sql.NullString
	)
	if err := s.Scan(&inv.ID, &inv.CharacterID, &inv.ItemInstanceID, &qty,
		&condition, &props, &inv.ItemName, &customName); err != nil {
		return nil, err
	}
	inv.Quantity = int(qty.Int64)
	inv.Condition = condition.Float64
	inv.CustomPropertiesJSON = jsonOrDefault(props, types.EmptyJSONMap)
	inv.CustomName = customName.String
	return &inv, nil
}
