package sqlite

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/worldstore/pkg/types"
)

// populate builds one of every entity kind in world w.
func populate(t *testing.T, s *Store, w *types.World) {
	t.Helper()
	kael := seedCharacter(t, s, w.ID, "Kael", types.CharacterPlayer)
	elindor := seedCharacter(t, s, w.ID, "Elindor", types.CharacterNPC)

	_, err := NewWorldConstantRepository(s).Set(types.NewConstant(w.ID, "moons", 2, ""))
	require.NoError(t, err)
	_, err = NewRelationshipRepository(s).Create(
		types.NewRelationship(w.ID, kael.ID, elindor.ID, types.RelationshipFriendship, 30))
	require.NoError(t, err)

	torch := seedInstance(t, s, w.ID, "Torch")
	crate := seedInstance(t, s, w.ID, "Crate")
	_, err = NewInventoryRepository(s).Add(types.NewInventory(kael.ID, torch.ID))
	require.NoError(t, err)

	cart := types.NewVehicle(w.ID, "Cart", types.VehicleMechanical)
	cart.OwnerID = &kael.ID
	_, err = NewVehicleRepository(s).Create(cart)
	require.NoError(t, err)
	_, err = NewVehicleRepository(s).AddItem(
		&types.VehicleInventory{VehicleID: cart.ID, ItemInstanceID: crate.ID, Quantity: 1})
	require.NoError(t, err)
}

func TestDeleteWorldCascades(t *testing.T) {
	s := setupStore(t)
	doomed := seedWorld(t, s, "Doomed")
	kept := seedWorld(t, s, "Kept")
	populate(t, s, doomed)
	populate(t, s, kept)

	before := map[string]int64{}
	for _, table := range SchemaTables() {
		before[table] = count(t, s, table)
	}

	require.NoError(t, NewWorldRepository(s).Delete(doomed.ID))

	for _, table := range SchemaTables() {
		assert.Equal(t, before[table]/2, count(t, s, table), "table %s keeps only the other world", table)
	}
}

func TestDeleteCharacterCascades(t *testing.T) {
	s := setupStore(t)
	w := seedWorld(t, s, "Eldoria")
	populate(t, s, w)

	player, err := NewCharacterRepository(s).Player(w.ID)
	require.NoError(t, err)
	require.NoError(t, NewCharacterRepository(s).Delete(player.ID))

	assert.Equal(t, int64(0), count(t, s, TableRelationships))
	assert.Equal(t, int64(0), count(t, s, TableInventory))
	assert.Equal(t, int64(1), count(t, s, TableVehicles), "vehicle survives its owner")
	assert.Equal(t, int64(2), count(t, s, TableItemInstances), "instances belong to the world")
}
