package types

// Vehicle types.
const (
	VehicleMechanical = "mechanical"
	VehicleBiological = "biological"
	VehicleMagical    = "magical"
)

var validVehicleTypes = map[string]bool{
	VehicleMechanical: true,
	VehicleBiological: true,
	VehicleMagical:    true,
}

// IsValidVehicleType reports whether t is one of the Vehicle constants.
func IsValidVehicleType(t string) bool {
	return validVehicleTypes[t]
}

// Vehicle is a mobile container. Position and health are optional; the
// owner is cleared when the owning character is deleted.
type Vehicle struct {
	ID             int64    `json:"vehicle_id"`
	WorldID        int64    `json:"world_id"`
	OwnerID        *int64   `json:"owner_id"`
	Type           string   `json:"type"`
	Name           string   `json:"name"`
	ComponentsJSON string   `json:"components_json"`
	X              *float64 `json:"location_x"`
	Y              *float64 `json:"location_y"`
	Capacity       int      `json:"capacity"`
	CurrentHealth  *float64 `json:"current_health"`
	MaxHealth      *float64 `json:"max_health"`
}

// NewVehicle returns an unowned, unplaced vehicle of capacity 1.
func NewVehicle(worldID int64, name, vehicleType string) *Vehicle {
	return &Vehicle{
		WorldID:        worldID,
		Name:           name,
		Type:           vehicleType,
		ComponentsJSON: EmptyJSONMap,
		Capacity:       1,
	}
}

// Components decodes ComponentsJSON.
func (v *Vehicle) Components() (map[string]any, error) {
	return DecodeMap(v.ComponentsJSON)
}

// SetComponents encodes m into ComponentsJSON.
func (v *Vehicle) SetComponents(m map[string]any) error {
	raw, err := EncodeMap(m)
	if err != nil {
		return err
	}
	v.ComponentsJSON = raw
	return nil
}

// Location returns the position and whether the vehicle is placed.
func (v *Vehicle) Location() (x, y float64, ok bool) {
	if v.X == nil || v.Y == nil {
		return 0, 0, false
	}
	return *v.X, *v.Y, true
}

// SetLocation places the vehicle at (x, y).
func (v *Vehicle) SetLocation(x, y float64) {
	v.X, v.Y = &x, &y
}

// VehicleInventory binds an item instance to a vehicle, optionally in a
// named slot.
type VehicleInventory struct {
	ID             int64   `json:"vehicle_inv_id"`
	VehicleID      int64   `json:"vehicle_id"`
	ItemInstanceID int64   `json:"item_instance_id"`
	Quantity       int     `json:"quantity"`
	Slot           *string `json:"slot"`
}
