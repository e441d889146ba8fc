package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMergeProperties(t *testing.T) {
	sword := &Item{Name: "Sword"}
	require.NoError(t, sword.SetBaseProperties(map[string]any{"damage": 10.0, "weight": 3.0}))

	inst := &ItemInstance{}
	require.NoError(t, inst.SetCurrentProperties(map[string]any{"damage": 14.0, "runes": "fire"}))

	merged, err := MergeProperties(sword, inst)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"damage": 14.0, "weight": 3.0, "runes": "fire"}, merged)

	base, err := sword.BaseProperties()
	require.NoError(t, err)
	assert.Equal(t, 10.0, base["damage"], "template must not change")
}

func TestDisplayName(t *testing.T) {
	tmpl := &Item{Name: "Lantern"}
	assert.Equal(t, "Lantern", (&ItemInstance{}).DisplayName(tmpl))
	assert.Equal(t, "Old Faithful", (&ItemInstance{CustomName: "Old Faithful"}).DisplayName(tmpl))
	assert.Equal(t, "", (&ItemInstance{}).DisplayName(nil))
}

func TestVehicleLocation(t *testing.T) {
	v := NewVehicle(1, "Cart", VehicleMechanical)
	_, _, ok := v.Location()
	assert.False(t, ok)

	v.SetLocation(2, -3)
	x, y, ok := v.Location()
	assert.True(t, ok)
	assert.Equal(t, 2.0, x)
	assert.Equal(t, -3.0, y)
}
