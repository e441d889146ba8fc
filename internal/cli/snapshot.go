package cli

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/worldstore/internal/world"
)

func newSnapshotCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Save and list archived world states",
	}
	cmd.AddCommand(newSnapshotSaveCmd(a), newSnapshotListCmd(a))
	return cmd
}

func newSnapshotSaveCmd(a *app) *cobra.Command {
	var label string
	cmd := &cobra.Command{
		Use:   "save <world>",
		Short: "Archive the current context of a world",
		Args:  cobra.ExactArgs(1),
		RunE: run(func(cmd *cobra.Command, args []string) error {
			return a.withManager(func(m *world.Manager) error {
				w, err := lookupWorld(m, args[0])
				if err != nil {
					return err
				}
				rec, err := m.SaveWorldState(w.ID, label)
				if err != nil {
					return err
				}
				return a.emit(rec, func() {
					a.printf("Saved snapshot %s of world %d\n", rec.ID, rec.WorldID)
				})
			})
		}),
	}
	cmd.Flags().StringVar(&label, "label", "", "snapshot label")
	return cmd
}

func newSnapshotListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list <world>",
		Short: "List the snapshots of a world, oldest first",
		Args:  cobra.ExactArgs(1),
		RunE: run(func(cmd *cobra.Command, args []string) error {
			return a.withManager(func(m *world.Manager) error {
				w, err := lookupWorld(m, args[0])
				if err != nil {
					return err
				}
				records, err := m.Snapshots(w.ID)
				if err != nil {
					return err
				}
				return a.emit(records, func() {
					for _, r := range records {
						a.printf("%s\t%s\t%s\n", r.ID, r.TakenAt.Format(time.RFC3339), r.Label)
					}
				})
			})
		}),
	}
}
