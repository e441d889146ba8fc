// This file implements the vehicles repository and the vehicle cargo held
// in VehicleInventory.
package sqlite

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/mesh-intelligence/worldstore/pkg/types"
)

const (
	vehicleColumns = "vehicle_id, world_id, owner_id, type, name, components_json, " +
		"location_x, location_y, capacity, current_health, max_health"
	vehicleItemColumns = "vehicle_inv_id, vehicle_id, item_instance_id, quantity, slot"
)

// VehicleRepository persists vehicles and their cargo. Deleting the owner
// of a vehicle leaves the vehicle unowned.
type VehicleRepository struct {
	ex Executor
}

// NewVehicleRepository returns a repository bound to ex.
func NewVehicleRepository(ex Executor) *VehicleRepository {
	return &VehicleRepository{ex: ex}
}

// Create inserts v and sets its ID. An owner, when set, must be a
// character of the same world.
func (r *VehicleRepository) Create(v *types.Vehicle) (int64, error) {
	components, err := prepareVehicle(v)
	if err != nil {
		return 0, err
	}
	if v.WorldID <= 0 {
		return 0, types.ErrInvalidWorldID
	}
	var id int64
	err = r.ex.Transaction(func(tx Executor) error {
		if err := checkOwner(tx, v.WorldID, v.OwnerID); err != nil {
			return err
		}
		res, err := tx.Exec(
			`INSERT INTO Vehicles (world_id, owner_id, type, name, components_json,
    location_x, location_y, capacity, current_health, max_health)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			v.WorldID, nullInt64(v.OwnerID), v.Type, v.Name, components,
			nullFloat64(v.X), nullFloat64(v.Y), v.Capacity,
			nullFloat64(v.CurrentHealth), nullFloat64(v.MaxHealth),
		)
		if err != nil {
			return err
		}
		id, err = insertID(res)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("creating vehicle %q: %w", v.Name, err)
	}
	v.ID = id
	v.ComponentsJSON = components
	return id, nil
}

// Get returns the vehicle with the given id, or types.ErrNotFound.
func (r *VehicleRepository) Get(id int64) (*types.Vehicle, error) {
	v, err := fetchOne(r.ex, hydrateVehicle,
		"SELECT "+vehicleColumns+" FROM Vehicles WHERE vehicle_id = ?", id)
	return v, annotate(err, "getting vehicle %d", id)
}

// ListByWorld returns the vehicles of a world ordered by name.
func (r *VehicleRepository) ListByWorld(worldID int64) ([]*types.Vehicle, error) {
	vs, err := fetchAll(r.ex, hydrateVehicle,
		"SELECT "+vehicleColumns+" FROM Vehicles WHERE world_id = ? ORDER BY name, vehicle_id", worldID)
	if err != nil {
		return nil, fmt.Errorf("listing vehicles of world %d: %w", worldID, err)
	}
	return vs, nil
}

// ListByOwner returns the vehicles owned by a character ordered by name.
func (r *VehicleRepository) ListByOwner(ownerID int64) ([]*types.Vehicle, error) {
	vs, err := fetchAll(r.ex, hydrateVehicle,
		"SELECT "+vehicleColumns+" FROM Vehicles WHERE owner_id = ? ORDER BY name, vehicle_id", ownerID)
	if err != nil {
		return nil, fmt.Errorf("listing vehicles of character %d: %w", ownerID, err)
	}
	return vs, nil
}

// Update rewrites every mutable column of v.
func (r *VehicleRepository) Update(v *types.Vehicle) error {
	if v == nil || v.ID <= 0 {
		return types.ErrInvalidID
	}
	components, err := prepareVehicle(v)
	if err != nil {
		return err
	}
	err = r.ex.Transaction(func(tx Executor) error {
		if v.OwnerID != nil {
			current, err := NewVehicleRepository(tx).Get(v.ID)
			if err != nil {
				return err
			}
			if err := checkOwner(tx, current.WorldID, v.OwnerID); err != nil {
				return err
			}
		}
		res, err := tx.Exec(
			`UPDATE Vehicles SET owner_id = ?, type = ?, name = ?, components_json = ?,
    location_x = ?, location_y = ?, capacity = ?, current_health = ?, max_health = ?
WHERE vehicle_id = ?`,
			nullInt64(v.OwnerID), v.Type, v.Name, components,
			nullFloat64(v.X), nullFloat64(v.Y), v.Capacity,
			nullFloat64(v.CurrentHealth), nullFloat64(v.MaxHealth), v.ID,
		)
		if err != nil {
			return err
		}
		return requireAffected(res)
	})
	if err != nil {
		return annotate(err, "updating vehicle %d", v.ID)
	}
	v.ComponentsJSON = components
	return nil
}

// Move places the vehicle at (x, y).
func (r *VehicleRepository) Move(id int64, x, y float64) error {
	res, err := r.ex.Exec("UPDATE Vehicles SET location_x = ?, location_y = ? WHERE vehicle_id = ?", x, y, id)
	if err != nil {
		return fmt.Errorf("moving vehicle %d: %w", id, err)
	}
	return requireAffected(res)
}

// SetOwner assigns the vehicle to a character of its world. A nil owner
// clears ownership.
func (r *VehicleRepository) SetOwner(id int64, ownerID *int64) error {
	err := r.ex.Transaction(func(tx Executor) error {
		v, err := NewVehicleRepository(tx).Get(id)
		if err != nil {
			return err
		}
		if err := checkOwner(tx, v.WorldID, ownerID); err != nil {
			return err
		}
		_, err = tx.Exec("UPDATE Vehicles SET owner_id = ? WHERE vehicle_id = ?", nullInt64(ownerID), id)
		return err
	})
	return annotate(err, "setting owner of vehicle %d", id)
}

// Delete removes the vehicle and its cargo entries.
func (r *VehicleRepository) Delete(id int64) error {
	res, err := r.ex.Exec("DELETE FROM Vehicles WHERE vehicle_id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting vehicle %d: %w", id, err)
	}
	return requireAffected(res)
}

// AddItem loads an item instance into a vehicle and sets vi.ID. The
// instance must be in the vehicle's world and not held anywhere else.
func (r *VehicleRepository) AddItem(vi *types.VehicleInventory) (int64, error) {
	if vi == nil || vi.VehicleID <= 0 || vi.ItemInstanceID <= 0 {
		return 0, types.ErrInvalidID
	}
	if vi.Quantity < 1 {
		return 0, fmt.Errorf("%w: %d", types.ErrInvalidQuantity, vi.Quantity)
	}
	var id int64
	err := r.ex.Transaction(func(tx Executor) error {
		if err := checkInstanceFree(tx, vi.ItemInstanceID); err != nil {
			return err
		}
		if err := checkCargoWorld(tx, vi.VehicleID, vi.ItemInstanceID); err != nil {
			return err
		}
		res, err := tx.Exec(
			"INSERT INTO VehicleInventory (vehicle_id, item_instance_id, quantity, slot) VALUES (?, ?, ?, ?)",
			vi.VehicleID, vi.ItemInstanceID, vi.Quantity, nullString(vi.Slot))
		if err != nil {
			return err
		}
		id, err = insertID(res)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("loading instance %d into vehicle %d: %w", vi.ItemInstanceID, vi.VehicleID, err)
	}
	vi.ID = id
	return id, nil
}

// ListItems returns the cargo of a vehicle in loading order.
func (r *VehicleRepository) ListItems(vehicleID int64) ([]*types.VehicleInventory, error) {
	items, err := fetchAll(r.ex, hydrateVehicleItem,
		"SELECT "+vehicleItemColumns+" FROM VehicleInventory WHERE vehicle_id = ? ORDER BY vehicle_inv_id",
		vehicleID)
	if err != nil {
		return nil, fmt.Errorf("listing cargo of vehicle %d: %w", vehicleID, err)
	}
	return items, nil
}

// UpdateItemQuantity sets the quantity of a cargo entry.
func (r *VehicleRepository) UpdateItemQuantity(id int64, quantity int) error {
	if quantity < 1 {
		return fmt.Errorf("%w: %d", types.ErrInvalidQuantity, quantity)
	}
	res, err := r.ex.Exec("UPDATE VehicleInventory SET quantity = ? WHERE vehicle_inv_id = ?", quantity, id)
	if err != nil {
		return fmt.Errorf("updating cargo entry %d: %w", id, err)
	}
	return requireAffected(res)
}

// RemoveItem unloads a cargo entry. The item instance itself is kept.
func (r *VehicleRepository) RemoveItem(id int64) error {
	res, err := r.ex.Exec("DELETE FROM VehicleInventory WHERE vehicle_inv_id = ?", id)
	if err != nil {
		return fmt.Errorf("removing cargo entry %d: %w", id, err)
	}
	return requireAffected(res)
}

func prepareVehicle(v *types.Vehicle) (string, error) {
	if v == nil || strings.TrimSpace(v.Name) == "" {
		return "", types.ErrInvalidName
	}
	if !types.IsValidVehicleType(v.Type) {
		return "", fmt.Errorf("%w: %q", types.ErrInvalidVehicleType, v.Type)
	}
	if v.Capacity < 1 {
		return "", fmt.Errorf("%w: %d", types.ErrInvalidCapacity, v.Capacity)
	}
	components, err := types.NormalizeMap(v.ComponentsJSON)
	if err != nil {
		return "", fmt.Errorf("vehicle components: %w", err)
	}
	return components, nil
}

// checkOwner rejects an owner that exists in another world.
func checkOwner(ex Executor, worldID int64, ownerID *int64) error {
	if ownerID == nil {
		return nil
	}
	row, err := ex.FetchOne("SELECT world_id FROM Characters WHERE character_id = ?", *ownerID)
	if err != nil {
		return err
	}
	var ownerWorld int64
	switch err := row.Scan(&ownerWorld); {
	case err == sql.ErrNoRows:
		return nil
	case err != nil:
		return classifyError(err)
	}
	if ownerWorld != worldID {
		return fmt.Errorf("%w: character %d is in world %d, vehicle in world %d",
			types.ErrCrossWorld, *ownerID, ownerWorld, worldID)
	}
	return nil
}

// checkCargoWorld rejects a vehicle and an instance of different worlds.
func checkCargoWorld(ex Executor, vehicleID, instanceID int64) error {
	row, err := ex.FetchOne(
		`SELECT v.world_id, ii.world_id FROM Vehicles v, ItemInstances ii
WHERE v.vehicle_id = ? AND ii.instance_id = ?`,
		vehicleID, instanceID)
	if err != nil {
		return err
	}
	var vehicleWorld, instWorld int64
	switch err := row.Scan(&vehicleWorld, &instWorld); {
	case err == sql.ErrNoRows:
		return nil
	case err != nil:
		return classifyError(err)
	}
	if vehicleWorld != instWorld {
		return fmt.Errorf("%w: vehicle %d is in world %d, instance %d in world %d",
			types.ErrCrossWorld, vehicleID, vehicleWorld, instanceID, instWorld)
	}
	return nil
}

// hydrateVehicle scans one Vehicles row.
func hydrateVehicle(s scanner) (*types.Vehicle, error) {
	var (
		v          types.Vehicle
		owner      sql.NullInt64
		vType      sql.NullString
		components sql.NullString
		x, y       sql.NullFloat64
		capacity   sql.NullInt64
		cur, top   sql.NullFloat64
	)
	if err := s.Scan(&v.ID, &v.WorldID, &owner, &vType, &v.Name, &components,
		&x, &y, &capacity, &cur, &top); err != nil {
		return nil, err
	}
	v.OwnerID = int64Ptr(owner)
	v.Type = vType.String
	v.ComponentsJSON = jsonOrDefault(components, types.EmptyJSONMap)
	v.X, v.Y = float64Ptr(x), float64Ptr(y)
	v.Capacity = int(capacity.Int64)
	v.CurrentHealth, v.MaxHealth = float64Ptr(cur), float64Ptr(top)
	return &v, nil
}

// hydrateVehicleItem scans one VehicleInventory row.
func hydrateVehicleItem(s scanner) (*types.VehicleInventory, error) {
	var (
		vi   types.VehicleInventory
		qty  sql.NullInt64
		slot sql.NullString
	)
	if err := s.Scan(&vi.ID, &vi.VehicleID, &vi.ItemInstanceID, &qty, &slot); err != nil {
		return nil, err
	}
	vi.Quantity = int(qty.Int64)
	vi.Slot = stringPtr(slot)
	return &vi, nil
}
