package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseWorldParams(t *testing.T) {
	tests := []struct {
		name  string
		input string
		check func(t *testing.T, p WorldParams)
	}{
		{
			name:  "json input",
			input: `{"name": "Elindor", "theme": "high fantasy", "rules": ["no iron"], "numeric_constants": [3, 9.5]}`,
			check: func(t *testing.T, p WorldParams) {
				assert.Equal(t, "Elindor", p.Name)
				assert.Equal(t, "high fantasy", p.Theme)
				assert.Equal(t, []string{"no iron"}, p.Rules)
				assert.Equal(t, []float64{3, 9.5}, p.NumericConstants)
				assert.Empty(t, p.Locations)
				assert.NotNil(t, p.Locations)
			},
		},
		{
			name: "yaml input",
			input: `name: Brasshaven
theme: steampunk
locations:
  - Gearworks
  - Lower Docks
character_names: [Ada]
`,
			check: func(t *testing.T, p WorldParams) {
				assert.Equal(t, "Brasshaven", p.Name)
				assert.Equal(t, []string{"Gearworks", "Lower Docks"}, p.Locations)
				assert.Equal(t, []string{"Ada"}, p.CharacterNames)
			},
		},
		{
			name:  "absent keys use placeholders",
			input: `{}`,
			check: func(t *testing.T, p WorldParams) {
				assert.Equal(t, DefaultWorldName, p.Name)
				assert.Equal(t, DefaultWorldTheme, p.Theme)
				assert.NotNil(t, p.NumericConstants)
				assert.NotNil(t, p.StoryElements)
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := ParseWorldParams([]byte(tt.input))
			require.NoError(t, err)
			tt.check(t, p)
		})
	}
}

func TestParseWorldParamsInvalid(t *testing.T) {
	_, err := ParseWorldParams([]byte("name: [unterminated"))
	assert.Error(t, err)
}

func TestWorldParamsSettings(t *testing.T) {
	p := WorldParams{Name: "Elindor", Rules: []string{"magic has a price"}, NumericConstants: []float64{1.5}}
	settings, err := p.Settings()
	require.NoError(t, err)

	assert.Equal(t, []any{"magic has a price"}, settings[SettingRules])
	assert.Equal(t, []any{1.5}, settings[SettingNumeric])
	assert.Equal(t, []any{}, settings[SettingLocations])
	assert.Len(t, settings, 7)

	w := NewWorld(p.Name, p.Theme)
	require.NoError(t, w.SetSettings(settings))
	back, err := w.Settings()
	require.NoError(t, err)
	assert.Equal(t, settings, back)
}
