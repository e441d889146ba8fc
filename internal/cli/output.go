package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/mesh-intelligence/worldstore/internal/world"
	"github.com/mesh-intelligence/worldstore/pkg/types"
)

func (a *app) printf(format string, args ...any) {
	fmt.Fprintf(a.stdout, format, args...)
}

// printJSON writes v as indented JSON followed by a newline.
func (a *app) printJSON(v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal JSON: %w", err)
	}
	fmt.Fprintln(a.stdout, string(out))
	return nil
}

// emit prints v as JSON in --json mode, otherwise calls text.
func (a *app) emit(v any, text func()) error {
	if a.flags.jsonMode {
		return a.printJSON(v)
	}
	text()
	return nil
}

func parseID(arg, what string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, userError("invalid %s id %q", what, arg)
	}
	return id, nil
}

func parseFloat(arg, what string) (float64, error) {
	v, err := strconv.ParseFloat(arg, 64)
	if err != nil {
		return 0, userError("invalid %s %q", what, arg)
	}
	return v, nil
}

// lookupWorld finds a world by numeric id or, failing that, by name.
func lookupWorld(m *world.Manager, arg string) (*types.World, error) {
	if id, err := strconv.ParseInt(arg, 10, 64); err == nil {
		w, err := m.Worlds.Get(id)
		if err == nil || !errors.Is(err, types.ErrNotFound) {
			return w, err
		}
	}
	w, err := m.Worlds.GetByName(arg)
	if errors.Is(err, types.ErrNotFound) {
		return nil, fmt.Errorf("world %q: %w", arg, types.ErrNotFound)
	}
	return w, err
}
