package sqlite

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/worldstore/pkg/types"
)

func TestVehicleCRUD(t *testing.T) {
	s := setupStore(t)
	w := seedWorld(t, s, "Eldoria")
	kael := seedCharacter(t, s, w.ID, "Kael", types.CharacterPlayer)
	repo := NewVehicleRepository(s)

	cart := types.NewVehicle(w.ID, "Cart", types.VehicleMechanical)
	cart.OwnerID = &kael.ID
	cart.Capacity = 4
	require.NoError(t, cart.SetComponents(map[string]any{"wheels": 4.0}))
	id, err := repo.Create(cart)
	require.NoError(t, err)

	got, err := repo.Get(id)
	require.NoError(t, err)
	assert.Equal(t, cart, got)
	_, _, placed := got.Location()
	assert.False(t, placed)

	require.NoError(t, repo.Move(id, 7, 8))
	got, err = repo.Get(id)
	require.NoError(t, err)
	x, y, placed := got.Location()
	assert.True(t, placed)
	assert.Equal(t, 7.0, x)
	assert.Equal(t, 8.0, y)

	hp := 50.0
	got.CurrentHealth, got.MaxHealth = &hp, &hp
	got.Name = "Old Cart"
	require.NoError(t, repo.Update(got))

	owned, err := repo.ListByOwner(kael.ID)
	require.NoError(t, err)
	require.Len(t, owned, 1)
	assert.Equal(t, "Old Cart", owned[0].Name)
	require.NotNil(t, owned[0].CurrentHealth)
	assert.Equal(t, 50.0, *owned[0].CurrentHealth)

	all, err := repo.ListByWorld(w.ID)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	require.NoError(t, repo.Delete(id))
	assert.ErrorIs(t, repo.Delete(id), types.ErrNotFound)
}

func TestVehicleRejects(t *testing.T) {
	s := setupStore(t)
	w := seedWorld(t, s, "Eldoria")
	other := seedWorld(t, s, "Elsewhere")
	stranger := seedCharacter(t, s, other.ID, "Stranger", types.CharacterNPC)
	repo := NewVehicleRepository(s)

	noCap := types.NewVehicle(w.ID, "Raft", types.VehicleMechanical)
	noCap.Capacity = 0
	foreignOwner := types.NewVehicle(w.ID, "Horse", types.VehicleBiological)
	foreignOwner.OwnerID = &stranger.ID

	tests := []struct {
		name    string
		v       *types.Vehicle
		wantErr error
	}{
		{"empty name", types.NewVehicle(w.ID, "", types.VehicleMagical), types.ErrInvalidName},
		{"unknown type", types.NewVehicle(w.ID, "Blimp", "aerial"), types.ErrInvalidVehicleType},
		{"zero capacity", noCap, types.ErrInvalidCapacity},
		{"owner in other world", foreignOwner, types.ErrCrossWorld},
		{"unknown world", types.NewVehicle(999, "Ghost Ship", types.VehicleMagical), types.ErrConstraint},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := repo.Create(tt.v)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
	assert.Equal(t, int64(0), count(t, s, TableVehicles))
}

func TestVehicleOwnerClearedOnCharacterDelete(t *testing.T) {
	s := setupStore(t)
	w := seedWorld(t, s, "Eldoria")
	kael := seedCharacter(t, s, w.ID, "Kael", types.CharacterPlayer)
	repo := NewVehicleRepository(s)

	horse := types.NewVehicle(w.ID, "Horse", types.VehicleBiological)
	_, err := repo.Create(horse)
	require.NoError(t, err)
	require.NoError(t, repo.SetOwner(horse.ID, &kael.ID))

	got, err := repo.Get(horse.ID)
	require.NoError(t, err)
	require.NotNil(t, got.OwnerID)
	assert.Equal(t, kael.ID, *got.OwnerID)

	require.NoError(t, NewCharacterRepository(s).Delete(kael.ID))
	got, err = repo.Get(horse.ID)
	require.NoError(t, err)
	assert.Nil(t, got.OwnerID)

	assert.ErrorIs(t, repo.SetOwner(9999, nil), types.ErrNotFound)
}

func TestVehicleCargo(t *testing.T) {
	s := setupStore(t)
	w := seedWorld(t, s, "Eldoria")
	kael := seedCharacter(t, s, w.ID, "Kael", types.CharacterPlayer)
	crate := seedInstance(t, s, w.ID, "Crate")
	torch := seedInstance(t, s, w.ID, "Torch")
	repo := NewVehicleRepository(s)

	cart := types.NewVehicle(w.ID, "Cart", types.VehicleMechanical)
	_, err := repo.Create(cart)
	require.NoError(t, err)

	slot := "rear"
	vi := &types.VehicleInventory{VehicleID: cart.ID, ItemInstanceID: crate.ID, Quantity: 2, Slot: &slot}
	_, err = repo.AddItem(vi)
	require.NoError(t, err)

	_, err = NewInventoryRepository(s).Add(types.NewInventory(kael.ID, torch.ID))
	require.NoError(t, err)
	_, err = repo.AddItem(&types.VehicleInventory{VehicleID: cart.ID, ItemInstanceID: torch.ID, Quantity: 1})
	assert.ErrorIs(t, err, types.ErrInstanceHeld, "instance already in a character inventory")

	_, err = NewInventoryRepository(s).Add(types.NewInventory(kael.ID, crate.ID))
	assert.ErrorIs(t, err, types.ErrInstanceHeld, "instance already in a vehicle")

	items, err := repo.ListItems(cart.ID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.NotNil(t, items[0].Slot)
	assert.Equal(t, "rear", *items[0].Slot)

	require.NoError(t, repo.UpdateItemQuantity(vi.ID, 6))
	assert.ErrorIs(t, repo.UpdateItemQuantity(vi.ID, 0), types.ErrInvalidQuantity)
	items, err = repo.ListItems(cart.ID)
	require.NoError(t, err)
	assert.Equal(t, 6, items[0].Quantity)

	require.NoError(t, repo.RemoveItem(vi.ID))
	assert.ErrorIs(t, repo.RemoveItem(vi.ID), types.ErrNotFound)
}
