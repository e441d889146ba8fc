package types

import (
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Placeholders for world parameters the extractor did not provide.
const (
	DefaultWorldName  = "Unnamed World"
	DefaultWorldTheme = "Undefined"
)

// Settings keys written by WorldParams.Settings.
const (
	SettingRules           = "rules"
	SettingStoryElements   = "story_elements"
	SettingConstants       = "constants"
	SettingNumeric         = "numeric_constants"
	SettingCharacterNames  = "character_names"
	SettingLocations       = "locations"
	SettingCharacteristics = "characteristics"
)

// WorldParams is the flat parameter mapping produced by the world-text
// extractor and consumed by world creation.
type WorldParams struct {
	Name             string    `json:"name" yaml:"name"`
	Theme            string    `json:"theme" yaml:"theme"`
	Rules            []string  `json:"rules" yaml:"rules"`
	StoryElements    []string  `json:"story_elements" yaml:"story_elements"`
	Constants        []string  `json:"constants" yaml:"constants"`
	NumericConstants []float64 `json:"numeric_constants" yaml:"numeric_constants"`
	CharacterNames   []string  `json:"character_names" yaml:"character_names"`
	Locations        []string  `json:"locations" yaml:"locations"`
	Characteristics  []string  `json:"characteristics" yaml:"characteristics"`
}

// ParseWorldParams decodes parameters from JSON or YAML. YAML is a superset
// of JSON, so a single decoder handles both.
func ParseWorldParams(data []byte) (WorldParams, error) {
	var p WorldParams
	if err := yaml.Unmarshal(data, &p); err != nil {
		return WorldParams{}, fmt.Errorf("parsing world parameters: %w", err)
	}
	return p.WithDefaults(), nil
}

// WithDefaults fills the placeholder name and theme and replaces nil lists
// with empty ones.
func (p WorldParams) WithDefaults() WorldParams {
	if strings.TrimSpace(p.Name) == "" {
		p.Name = DefaultWorldName
	}
	if strings.TrimSpace(p.Theme) == "" {
		p.Theme = DefaultWorldTheme
	}
	p.Rules = orEmpty(p.Rules)
	p.StoryElements = orEmpty(p.StoryElements)
	p.Constants = orEmpty(p.Constants)
	if p.NumericConstants == nil {
		p.NumericConstants = []float64{}
	}
	p.CharacterNames = orEmpty(p.CharacterNames)
	p.Locations = orEmpty(p.Locations)
	p.Characteristics = orEmpty(p.Characteristics)
	return p
}

// Settings returns the world settings map stored for these parameters.
// Values go through a JSON round trip so the map compares equal to what
// World.Settings decodes later.
func (p WorldParams) Settings() (map[string]any, error) {
	p = p.WithDefaults()
	raw, err := json.Marshal(map[string]any{
		SettingRules:           p.Rules,
		SettingStoryElements:   p.StoryElements,
		SettingConstants:       p.Constants,
		SettingNumeric:         p.NumericConstants,
		SettingCharacterNames:  p.CharacterNames,
		SettingLocations:       p.Locations,
		SettingCharacteristics: p.Characteristics,
	})
	if err != nil {
		return nil, fmt.Errorf("encoding world settings: %w", err)
	}
	return DecodeMap(string(raw))
}

func orEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
