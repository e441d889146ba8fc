package sqlite

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/worldstore/pkg/types"
)

func TestWorldCreateGet(t *testing.T) {
	s := setupStore(t)
	repo := NewWorldRepository(s)

	w := types.NewWorld("Eldoria", "fantasy")
	require.NoError(t, w.SetSettings(map[string]any{
		"rules":     []any{"magic is rare"},
		"locations": []any{"Silverwood"},
	}))
	id, err := repo.Create(w)
	require.NoError(t, err)
	assert.Positive(t, id)
	assert.Equal(t, id, w.ID)
	assert.False(t, w.CreatedAt.IsZero(), "created_at assigned by the store")

	got, err := repo.Get(id)
	require.NoError(t, err)
	assert.Equal(t, w, got)

	settings, err := got.Settings()
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"rules":     []any{"magic is rare"},
		"locations": []any{"Silverwood"},
	}, settings)

	byName, err := repo.GetByName("Eldoria")
	require.NoError(t, err)
	assert.Equal(t, id, byName.ID)
}

func TestWorldCreateValidation(t *testing.T) {
	tests := []struct {
		name    string
		world   *types.World
		wantErr error
	}{
		{"empty name", types.NewWorld("  ", "x"), types.ErrInvalidName},
		{"nil world", nil, types.ErrInvalidName},
		{"settings not an object", &types.World{Name: "Bad", SettingsJSON: "[1,2]"}, types.ErrInvalidJSON},
		{"settings not JSON", &types.World{Name: "Bad", SettingsJSON: "{oops"}, types.ErrInvalidJSON},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := setupStore(t)
			_, err := NewWorldRepository(s).Create(tt.world)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, int64(0), count(t, s, TableWorlds))
		})
	}
}

func TestWorldDuplicateName(t *testing.T) {
	s := setupStore(t)
	repo := NewWorldRepository(s)
	seedWorld(t, s, "Eldoria")

	_, err := repo.Create(types.NewWorld("Eldoria", "sci-fi"))
	assert.ErrorIs(t, err, types.ErrDuplicate)
}

func TestWorldEmptySettingsStoredAsObject(t *testing.T) {
	s := setupStore(t)
	repo := NewWorldRepository(s)

	w := &types.World{Name: "Plain"}
	_, err := repo.Create(w)
	require.NoError(t, err)
	assert.Equal(t, types.EmptyJSONMap, w.SettingsJSON)
}

func TestWorldNotFound(t *testing.T) {
	s := setupStore(t)
	repo := NewWorldRepository(s)

	_, err := repo.Get(42)
	assert.ErrorIs(t, err, types.ErrNotFound)
	_, err = repo.GetByName("nowhere")
	assert.ErrorIs(t, err, types.ErrNotFound)
	assert.ErrorIs(t, repo.Delete(42), types.ErrNotFound)
	assert.ErrorIs(t, repo.Activate(42), types.ErrNotFound)
	assert.ErrorIs(t, repo.Update(&types.World{ID: 42, Name: "x"}), types.ErrNotFound)
}

func TestWorldListNewestFirst(t *testing.T) {
	s := setupStore(t)
	repo := NewWorldRepository(s)

	empty, err := repo.List()
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)

	first := seedWorld(t, s, "First")
	second := seedWorld(t, s, "Second")

	worlds, err := repo.List()
	require.NoError(t, err)
	require.Len(t, worlds, 2)
	assert.Equal(t, second.ID, worlds[0].ID)
	assert.Equal(t, first.ID, worlds[1].ID)
}

func TestWorldUpdateAndActivation(t *testing.T) {
	s := setupStore(t)
	repo := NewWorldRepository(s)
	w := seedWorld(t, s, "Eldoria")

	w.Theme = "grimdark"
	w.SettingsJSON = `{"rules":["no magic"]}`
	require.NoError(t, repo.Update(w))

	got, err := repo.Get(w.ID)
	require.NoError(t, err)
	assert.Equal(t, "grimdark", got.Theme)
	assert.JSONEq(t, `{"rules":["no magic"]}`, got.SettingsJSON)

	w.SettingsJSON = "not json"
	assert.ErrorIs(t, repo.Update(w), types.ErrInvalidJSON)
	got, err = repo.Get(w.ID)
	require.NoError(t, err)
	assert.JSONEq(t, `{"rules":["no magic"]}`, got.SettingsJSON, "rejected update leaves row unchanged")

	require.NoError(t, repo.Deactivate(w.ID))
	got, err = repo.Get(w.ID)
	require.NoError(t, err)
	assert.False(t, got.IsActive)

	require.NoError(t, repo.Activate(w.ID))
	got, err = repo.Get(w.ID)
	require.NoError(t, err)
	assert.True(t, got.IsActive)
}

func TestWorldRejectsLossySettingsText(t *testing.T) {
	s := setupStore(t)
	repo := NewWorldRepository(s)

	w := types.NewWorld("Eldoria", "fantasy")
	w.SettingsJSON = `{"n": 12345678901234567891, "n": 2}`
	_, err := repo.Create(w)
	assert.ErrorIs(t, err, types.ErrInvalidJSON)
	assert.Equal(t, int64(0), count(t, s, TableWorlds))

	w.SettingsJSON = types.EmptyJSONMap
	_, err = repo.Create(w)
	require.NoError(t, err)
	w.SettingsJSON = `{"seed": 98765432109876543210}`
	assert.ErrorIs(t, repo.Update(w), types.ErrInvalidJSON)

	got, err := repo.Get(w.ID)
	require.NoError(t, err)
	assert.Equal(t, types.EmptyJSONMap, got.SettingsJSON)
}
