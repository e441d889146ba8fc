package snapshot

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/worldstore/pkg/types"
)

func sampleContext(worldID int64) *types.WorldContext {
	w := types.NewWorld("Eldoria", "fantasy")
	w.ID = worldID
	wc := types.NewWorldContext(w)
	wc.Constants["world_theme"] = "fantasy"
	kael := types.NewCharacter(worldID, "Kael", types.CharacterPlayer, "elf")
	kael.ID = 1
	wc.Characters = append(wc.Characters, kael)
	wc.Inventories[kael.ID] = []*types.Inventory{types.NewInventory(kael.ID, 7)}
	return wc
}

func TestArchiveAppendList(t *testing.T) {
	a, err := NewArchive(filepath.Join(t.TempDir(), "snapshots"))
	require.NoError(t, err)
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	a.now = func() time.Time { return fixed }

	empty, err := a.List(1)
	require.NoError(t, err)
	assert.Empty(t, empty)

	first, err := a.Append(sampleContext(1), "before battle")
	require.NoError(t, err)
	second, err := a.Append(sampleContext(1), "after battle")
	require.NoError(t, err)
	_, err = a.Append(sampleContext(2), "elsewhere")
	require.NoError(t, err)

	parsed, err := uuid.Parse(first.ID)
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(7), parsed.Version())

	records, err := a.List(1)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, first.ID, records[0].ID)
	assert.Equal(t, "after battle", records[1].Label)
	assert.Equal(t, fixed, records[0].TakenAt)

	ctx := records[0].Context
	require.NotNil(t, ctx)
	assert.Equal(t, "Eldoria", ctx.World.Name)
	assert.Equal(t, "fantasy", ctx.Constants["world_theme"])
	require.Len(t, ctx.Characters, 1)
	require.Len(t, ctx.Inventories[1], 1)
	assert.Equal(t, int64(7), ctx.Inventories[1][0].ItemInstanceID)

	latest, err := a.Latest(1)
	require.NoError(t, err)
	assert.Equal(t, second.ID, latest.ID)

	_, err = a.Latest(99)
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestArchiveSkipsMalformedLines(t *testing.T) {
	a, err := NewArchive(t.TempDir())
	require.NoError(t, err)

	_, err = a.Append(sampleContext(3), "good")
	require.NoError(t, err)

	f, err := os.OpenFile(a.Path(3), os.O_APPEND|os.O_WRONLY, 0o644)
	require.NoError(t, err)
	_, err = f.WriteString("{not json\n\n{\"label\":\"no id\"}\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	records, err := a.List(3)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "good", records[0].Label)

	// The next append keeps only well-formed lines.
	_, err = a.Append(sampleContext(3), "again")
	require.NoError(t, err)
	records, err = a.List(3)
	require.NoError(t, err)
	assert.Len(t, records, 2)
}

func TestArchiveRemove(t *testing.T) {
	a, err := NewArchive(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, a.Remove(5), "missing archive is fine")
	_, err = a.Append(sampleContext(5), "x")
	require.NoError(t, err)
	require.NoError(t, a.Remove(5))

	_, err = os.Stat(a.Path(5))
	assert.True(t, os.IsNotExist(err))
}

func TestNewArchiveRequiresDir(t *testing.T) {
	_, err := NewArchive("")
	assert.Error(t, err)
}

func TestNewArchiveCreatesDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "snapshots")
	a, err := NewArchive(dir)
	require.NoError(t, err)
	assert.Equal(t, dir, a.Dir())
	assert.DirExists(t, dir)
	assert.Equal(t, filepath.Join(dir, "world-7.jsonl"), a.Path(7))
}

func TestAppendRequiresWorld(t *testing.T) {
	a, err := NewArchive(t.TempDir())
	require.NoError(t, err)
	_, err = a.Append(&types.WorldContext{}, "x")
	assert.Error(t, err)
}
