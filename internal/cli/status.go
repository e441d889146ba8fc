package cli

import (
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/worldstore/internal/sqlite"
	"github.com/mesh-intelligence/worldstore/internal/world"
)

type tableCount struct {
	Table string `json:"table"`
	Rows  int64  `json:"rows"`
}

func newStatusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the data file and row counts per table",
		Args:  cobra.NoArgs,
		RunE: run(func(cmd *cobra.Command, args []string) error {
			var counts []tableCount
			err := a.withManager(func(m *world.Manager) error {
				for _, table := range sqlite.SchemaTables() {
					n, err := sqlite.TableCount(m.Executor(), table)
					if err != nil {
						return err
					}
					counts = append(counts, tableCount{Table: table, Rows: n})
				}
				return nil
			})
			if err != nil {
				return err
			}

			out := map[string]any{"db_path": a.cfg.dbPath, "tables": counts}
			return a.emit(out, func() {
				a.printf("data: %s\n", a.cfg.dbPath)
				for _, c := range counts {
					a.printf("  %-18s %d\n", c.Table, c.Rows)
				}
			})
		}),
	}
}
