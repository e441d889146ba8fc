package cli

import (
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/worldstore/internal/world"
	"github.com/mesh-intelligence/worldstore/pkg/types"
)

func newCharacterCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "character",
		Aliases: []string{"char"},
		Short:   "Create, list, move, damage, and heal characters",
	}
	cmd.AddCommand(
		newCharacterCreateCmd(a),
		newCharacterListCmd(a),
		newCharacterMoveCmd(a),
		newCharacterHealthCmd(a, "damage", "Reduce health, not below zero"),
		newCharacterHealthCmd(a, "heal", "Restore health, not above maximum"),
	)
	return cmd
}

func newCharacterCreateCmd(a *app) *cobra.Command {
	var (
		name      string
		charType  string
		species   string
		x, y      float64
		maxHealth float64
	)
	cmd := &cobra.Command{
		Use:   "create <world>",
		Short: "Create a character in a world",
		Args:  cobra.ExactArgs(1),
		RunE: run(func(cmd *cobra.Command, args []string) error {
			return a.withManager(func(m *world.Manager) error {
				w, err := lookupWorld(m, args[0])
				if err != nil {
					return err
				}
				c := types.NewCharacter(w.ID, name, charType, species)
				c.X, c.Y = x, y
				c.MaxHealth, c.CurrentHealth = maxHealth, maxHealth
				if _, err := m.Characters.Create(c); err != nil {
					return err
				}
				return a.emit(c, func() {
					a.printf("Created %s %d: %s\n", c.Type, c.ID, c.Name)
				})
			})
		}),
	}
	cmd.Flags().StringVar(&name, "name", "", "character name (required)")
	cmd.Flags().StringVar(&charType, "type", types.CharacterNPC, "player, npc, companion, or enemy")
	cmd.Flags().StringVar(&species, "species", "", "character species")
	cmd.Flags().Float64Var(&x, "x", 0, "location x")
	cmd.Flags().Float64Var(&y, "y", 0, "location y")
	cmd.Flags().Float64Var(&maxHealth, "max-health", types.DefaultMaxHealth, "maximum and starting health")
	cmd.MarkFlagRequired("name")
	return cmd
}

func newCharacterListCmd(a *app) *cobra.Command {
	var charType string
	cmd := &cobra.Command{
		Use:   "list <world>",
		Short: "List the characters of a world by name",
		Args:  cobra.ExactArgs(1),
		RunE: run(func(cmd *cobra.Command, args []string) error {
			return a.withManager(func(m *world.Manager) error {
				w, err := lookupWorld(m, args[0])
				if err != nil {
					return err
				}
				var chars []*types.Character
				if charType != "" {
					chars, err = m.Characters.ListByType(w.ID, charType)
				} else {
					chars, err = m.Characters.ListByWorld(w.ID)
				}
				if err != nil {
					return err
				}
				return a.emit(chars, func() {
					for _, c := range chars {
						a.printf("%d\t%s\t%s\t%s\t(%g, %g)\t%g/%g\n",
							c.ID, c.Name, c.Type, c.Species, c.X, c.Y, c.CurrentHealth, c.MaxHealth)
					}
				})
			})
		}),
	}
	cmd.Flags().StringVar(&charType, "type", "", "only characters of this type")
	return cmd
}

func newCharacterMoveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "move <character> <x> <y>",
		Short: "Move a character",
		Args:  cobra.ExactArgs(3),
		RunE: run(func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "character")
			if err != nil {
				return err
			}
			x, err := parseFloat(args[1], "x")
			if err != nil {
				return err
			}
			y, err := parseFloat(args[2], "y")
			if err != nil {
				return err
			}
			return a.withManager(func(m *world.Manager) error {
				if err := m.Characters.Move(id, x, y); err != nil {
					return err
				}
				c, err := m.Characters.Get(id)
				if err != nil {
					return err
				}
				return a.emit(c, func() {
					a.printf("%s is at (%g, %g)\n", c.Name, c.X, c.Y)
				})
			})
		}),
	}
}

func newCharacterHealthCmd(a *app, use, short string) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <character> <amount>",
		Short: short,
		Args:  cobra.ExactArgs(2),
		RunE: run(func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "character")
			if err != nil {
				return err
			}
			amount, err := parseFloat(args[1], "amount")
			if err != nil {
				return err
			}
			return a.withManager(func(m *world.Manager) error {
				var c *types.Character
				if use == "heal" {
					c, err = m.Characters.Heal(id, amount)
				} else {
					c, err = m.Characters.Damage(id, amount)
				}
				if err != nil {
					return err
				}
				return a.emit(c, func() {
					a.printf("%s health %g/%g\n", c.Name, c.CurrentHealth, c.MaxHealth)
				})
			})
		}),
	}
}
