package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/worldstore/internal/world"
	"github.com/mesh-intelligence/worldstore/pkg/types"
)

func newWorldCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "world",
		Short: "Create, list, show, and delete worlds",
	}
	cmd.AddCommand(
		newWorldCreateCmd(a),
		newWorldListCmd(a),
		newWorldShowCmd(a),
		newWorldDeleteCmd(a),
		newWorldActiveCmd(a, "activate", true),
		newWorldActiveCmd(a, "deactivate", false),
	)
	return cmd
}

func newWorldCreateCmd(a *app) *cobra.Command {
	var (
		name       string
		theme      string
		paramsFile string
	)
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a world from flags or a parameter file",
		Long: `Create a world and seed its constants.

The --params file holds the extracted world parameters as YAML or JSON:
name, theme, rules, story_elements, constants, numeric_constants,
character_names, locations, characteristics. --name and --theme override
the file.`,
		Args: cobra.NoArgs,
		RunE: run(func(cmd *cobra.Command, args []string) error {
			var params types.WorldParams
			if paramsFile != "" {
				data, err := os.ReadFile(paramsFile)
				if err != nil {
					return userError("read params: %s", err)
				}
				if params, err = types.ParseWorldParams(data); err != nil {
					return userError("%s", err)
				}
			}
			if name != "" {
				params.Name = name
			}
			if theme != "" {
				params.Theme = theme
			}

			return a.withManager(func(m *world.Manager) error {
				w, err := m.CreateWorld(params)
				if err != nil {
					return err
				}
				return a.emit(w, func() {
					a.printf("Created world %d: %s\n", w.ID, w.Name)
				})
			})
		}),
	}
	cmd.Flags().StringVar(&name, "name", "", "world name")
	cmd.Flags().StringVar(&theme, "theme", "", "world theme")
	cmd.Flags().StringVar(&paramsFile, "params", "", "world parameter file (YAML or JSON)")
	return cmd
}

func newWorldListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List worlds, newest first",
		Args:  cobra.NoArgs,
		RunE: run(func(cmd *cobra.Command, args []string) error {
			return a.withManager(func(m *world.Manager) error {
				worlds, err := m.Worlds.List()
				if err != nil {
					return err
				}
				return a.emit(worlds, func() {
					for _, w := range worlds {
						a.printf("%d\t%s\t%s\t%s\n", w.ID, w.Name, w.Theme, activeLabel(w.IsActive))
					}
				})
			})
		}),
	}
}

func newWorldShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show <world>",
		Short: "Display a world by id or name",
		Args:  cobra.ExactArgs(1),
		RunE: run(func(cmd *cobra.Command, args []string) error {
			return a.withManager(func(m *world.Manager) error {
				w, err := lookupWorld(m, args[0])
				if err != nil {
					return err
				}
				settings, err := w.Settings()
				if err != nil {
					return err
				}
				return a.emit(w, func() {
					a.printf("World %d: %s\n", w.ID, w.Name)
					a.printf("  theme:   %s\n", w.Theme)
					a.printf("  created: %s\n", w.CreatedAt.Format("2006-01-02 15:04:05"))
					a.printf("  status:  %s\n", activeLabel(w.IsActive))
					for _, key := range sortedKeys(settings) {
						a.printf("  %s: %s\n", key, formatSetting(settings[key]))
					}
				})
			})
		}),
	}
}

func newWorldDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <world>",
		Short: "Delete a world and everything scoped to it",
		Args:  cobra.ExactArgs(1),
		RunE: run(func(cmd *cobra.Command, args []string) error {
			return a.withManager(func(m *world.Manager) error {
				w, err := lookupWorld(m, args[0])
				if err != nil {
					return err
				}
				if err := m.Worlds.Delete(w.ID); err != nil {
					return err
				}
				return a.emit(map[string]int64{"deleted": w.ID}, func() {
					a.printf("Deleted world %d: %s\n", w.ID, w.Name)
				})
			})
		}),
	}
}

func newWorldActiveCmd(a *app, use string, active bool) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <world>",
		Short: fmt.Sprintf("Mark a world %s", activeLabel(active)),
		Args:  cobra.ExactArgs(1),
		RunE: run(func(cmd *cobra.Command, args []string) error {
			return a.withManager(func(m *world.Manager) error {
				w, err := lookupWorld(m, args[0])
				if err != nil {
					return err
				}
				if active {
					err = m.Worlds.Activate(w.ID)
				} else {
					err = m.Worlds.Deactivate(w.ID)
				}
				if err != nil {
					return err
				}
				w.IsActive = active
				return a.emit(w, func() {
					a.printf("World %d is %s\n", w.ID, activeLabel(active))
				})
			})
		}),
	}
}

func activeLabel(active bool) string {
	if active {
		return "active"
	}
	return "inactive"
}

func formatSetting(v any) string {
	list, ok := v.([]any)
	if !ok {
		return fmt.Sprint(v)
	}
	parts := make([]string, len(list))
	for i, item := range list {
		parts[i] = fmt.Sprint(item)
	}
	return strings.Join(parts, ", ")
}
