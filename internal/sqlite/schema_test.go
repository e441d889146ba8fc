package sqlite

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sqliteObjects(t *testing.T, ex Executor, kind string) []string {
	t.Helper()
	rows, err := ex.FetchAll("SELECT name FROM sqlite_master WHERE type = ? AND name NOT LIKE 'sqlite_%' ORDER BY name", kind)
	require.NoError(t, err)
	defer rows.Close()
	var names []string
	for rows.Next() {
		var n string
		require.NoError(t, rows.Scan(&n))
		names = append(names, n)
	}
	require.NoError(t, rows.Err())
	return names
}

func TestInitSchema(t *testing.T) {
	s := setupStore(t)

	assert.ElementsMatch(t, SchemaTables(), sqliteObjects(t, s, "table"))
	assert.ElementsMatch(t, []string{
		"idx_characters_world",
		"idx_characters_location",
		"idx_relationships_chars",
		"idx_inventory_character",
		"idx_items_world",
	}, sqliteObjects(t, s, "index"))
}

func TestInitSchemaIdempotent(t *testing.T) {
	s := setupStore(t)
	w := seedWorld(t, s, "Aldmere")
	seedCharacter(t, s, w.ID, "Kael", "player")

	require.NoError(t, InitSchema(s))
	require.NoError(t, InitSchema(s))

	assert.Equal(t, int64(1), count(t, s, TableWorlds))
	assert.Equal(t, int64(1), count(t, s, TableCharacters))
	assert.Len(t, sqliteObjects(t, s, "table"), len(SchemaTables()))
}

func TestTableCountUnknownTable(t *testing.T) {
	s := setupStore(t)
	_, err := TableCount(s, "Worlds; DROP TABLE Worlds")
	assert.Error(t, err)
	assert.Equal(t, int64(0), count(t, s, TableWorlds))
}
