package cli

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/worldstore/internal/world"
	"github.com/mesh-intelligence/worldstore/pkg/types"
)

func newContextCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "context <world>",
		Short: "Print the aggregated context of a world",
		Long: `Print the world, its typed constants, its characters, the relationships
touching them, and the inventories of characters holding items. Use --json
for the structure handed to the narrative layer.`,
		Args: cobra.ExactArgs(1),
		RunE: run(func(cmd *cobra.Command, args []string) error {
			return a.withManager(func(m *world.Manager) error {
				w, err := lookupWorld(m, args[0])
				if err != nil {
					return err
				}
				wc, err := m.WorldContext(w.ID)
				if err != nil {
					return err
				}
				return a.emit(wc, func() { a.printContext(wc) })
			})
		}),
	}
}

func (a *app) printContext(wc *types.WorldContext) {
	a.printf("World %d: %s (%s)\n", wc.World.ID, wc.World.Name, wc.World.Theme)

	a.printf("Constants:\n")
	for _, key := range sortedKeys(wc.Constants) {
		a.printf("  %s = %v\n", key, wc.Constants[key])
	}

	a.printf("Characters:\n")
	for _, c := range wc.Characters {
		a.printf("  %d %s [%s, %s] at (%g, %g) health %g/%g\n",
			c.ID, c.Name, c.Type, c.Species, c.X, c.Y, c.CurrentHealth, c.MaxHealth)
	}

	a.printf("Relationships:\n")
	for _, r := range wc.Relationships {
		a.printf("  %d %s -> %s %s %g\n", r.ID,
			characterName(wc, r.CharacterAID), characterName(wc, r.CharacterBID), r.Type, r.Score)
	}

	a.printf("Inventories:\n")
	holders := make([]int64, 0, len(wc.Inventories))
	for id := range wc.Inventories {
		holders = append(holders, id)
	}
	sort.Slice(holders, func(i, j int) bool { return holders[i] < holders[j] })
	for _, id := range holders {
		a.printf("  %s:\n", characterName(wc, id))
		for _, inv := range wc.Inventories[id] {
			a.printf("    %s x%d (condition %g)\n", inv.ItemName, inv.Quantity, inv.Condition)
		}
	}
}

// characterName returns the name of a context character, or its id for a
// character outside the world.
func characterName(wc *types.WorldContext, id int64) string {
	if c := wc.Character(id); c != nil {
		return c.Name
	}
	return fmt.Sprintf("#%d", id)
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
