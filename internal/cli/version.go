package cli

import (
	"github.com/spf13/cobra"
)

const modulePath = "github.com/mesh-intelligence/worldstore"

// Version is the worldkeeper release. Builds may override it with
// -ldflags "-X github.com/mesh-intelligence/worldstore/internal/cli.Version=...".
var Version = "0.1.0"

func newVersionCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the worldkeeper version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.emit(map[string]string{"version": Version, "module": modulePath}, func() {
				a.printf("worldkeeper v%s\nmodule: %s\n", Version, modulePath)
			})
		},
	}
}
