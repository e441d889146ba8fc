// Shared fixtures for the sqlite package tests.
package sqlite

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/worldstore/pkg/types"
)

// setupStore opens a fresh data file with the schema applied. The store is
// closed when the test ends.
func setupStore(t *testing.T) *Store {
	t.Helper()
	s := NewStore(filepath.Join(t.TempDir(), "world.db"))
	require.NoError(t, s.Connect())
	require.NoError(t, InitSchema(s))
	t.Cleanup(func() { s.Close() })
	return s
}

func seedWorld(t *testing.T, ex Executor, name string) *types.World {
	t.Helper()
	w := types.NewWorld(name, "fantasy")
	_, err := NewWorldRepository(ex).Create(w)
	require.NoError(t, err)
	return w
}

func seedCharacter(t *testing.T, ex Executor, worldID int64, name, charType string) *types.Character {
	t.Helper()
	c := types.NewCharacter(worldID, name, charType, "human")
	_, err := NewCharacterRepository(ex).Create(c)
	require.NoError(t, err)
	return c
}

func seedInstance(t *testing.T, ex Executor, worldID int64, name string) *types.ItemInstance {
	t.Helper()
	repo := NewItemRepository(ex)
	it := &types.Item{WorldID: worldID, Name: name, Type: "resource"}
	_, err := repo.CreateItem(it)
	require.NoError(t, err)
	inst := &types.ItemInstance{ItemID: it.ID}
	_, err = repo.CreateInstance(inst)
	require.NoError(t, err)
	return inst
}

func count(t *testing.T, ex Executor, table string) int64 {
	t.Helper()
	n, err := TableCount(ex, table)
	require.NoError(t, err)
	return n
}
