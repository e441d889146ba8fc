package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/worldstore/internal/world"
	"github.com/mesh-intelligence/worldstore/pkg/types"
)

func newConstantCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "constant",
		Short: "Set and list world constants",
	}
	cmd.AddCommand(newConstantSetCmd(a), newConstantListCmd(a))
	return cmd
}

func newConstantSetCmd(a *app) *cobra.Command {
	var (
		dataType    string
		description string
	)
	cmd := &cobra.Command{
		Use:   "set <world> <key> <value>",
		Short: "Create or replace a world constant",
		Args:  cobra.ExactArgs(3),
		RunE: run(func(cmd *cobra.Command, args []string) error {
			return a.withManager(func(m *world.Manager) error {
				w, err := lookupWorld(m, args[0])
				if err != nil {
					return err
				}
				c := &types.WorldConstant{
					WorldID:     w.ID,
					Key:         args[1],
					Value:       args[2],
					DataType:    strings.ToUpper(dataType),
					Description: description,
				}
				if _, err := m.Constants.Set(c); err != nil {
					return err
				}
				return a.emit(c, func() {
					a.printf("%s = %s (%s)\n", c.Key, c.Value, c.EffectiveDataType())
				})
			})
		}),
	}
	cmd.Flags().StringVar(&dataType, "type", types.DataTypeText, "INTEGER, REAL, TEXT, or BOOLEAN")
	cmd.Flags().StringVar(&description, "description", "", "constant description")
	return cmd
}

func newConstantListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list <world>",
		Short: "List the constants of a world by key",
		Args:  cobra.ExactArgs(1),
		RunE: run(func(cmd *cobra.Command, args []string) error {
			return a.withManager(func(m *world.Manager) error {
				w, err := lookupWorld(m, args[0])
				if err != nil {
					return err
				}
				constants, err := m.Constants.List(w.ID)
				if err != nil {
					return err
				}
				return a.emit(constants, func() {
					for _, c := range constants {
						a.printf("%s\t%s\t%s\t%s\n", c.Key, c.Value, c.EffectiveDataType(), c.Description)
					}
				})
			})
		}),
	}
}
