package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/worldstore/internal/world"
	"github.com/mesh-intelligence/worldstore/pkg/types"
)

func newInitCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize the world store",
		Long: "Create the configuration directory with a default config.yaml, the data\n" +
			"file with the world schema, and the snapshot directory.",
		Args: cobra.NoArgs,
		RunE: run(func(cmd *cobra.Command, args []string) error {
			// The config directory and config.yaml were created while
			// resolving settings.
			if err := os.MkdirAll(filepath.Dir(a.cfg.dbPath), 0o755); err != nil {
				return fmt.Errorf("%w: create data directory: %w", types.ErrStorageUnavailable, err)
			}
			var snapshotDir string
			err := a.withManager(func(m *world.Manager) error {
				snapshotDir = m.Archive().Dir()
				return nil
			})
			if err != nil {
				return err
			}
			out := map[string]string{
				"config_dir":   a.cfg.configDir,
				"db_path":      a.cfg.dbPath,
				"snapshot_dir": snapshotDir,
			}
			return a.emit(out, func() {
				a.printf("World store initialized successfully\n")
				a.printf("  config:    %s\n", a.cfg.configDir)
				a.printf("  data:      %s\n", a.cfg.dbPath)
				a.printf("  snapshots: %s\n", snapshotDir)
			})
		}),
	}
}
