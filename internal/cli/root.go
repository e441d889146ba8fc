// Package cli implements the worldkeeper command-line interface over the
// world store.
package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/worldstore/internal/config"
	"github.com/mesh-intelligence/worldstore/internal/paths"
	"github.com/mesh-intelligence/worldstore/internal/snapshot"
	"github.com/mesh-intelligence/worldstore/internal/world"
	"github.com/mesh-intelligence/worldstore/pkg/types"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// rootFlags holds global flag values accessible to all subcommands.
type rootFlags struct {
	configDir string
	dbPath    string
	logLevel  string
	jsonMode  bool
}

// settings are the resolved locations and logger for one invocation.
type settings struct {
	configDir   string
	dbPath      string
	snapshotDir string
	logger      *slog.Logger
}

// app carries the state shared by the commands of one root command.
type app struct {
	flags  rootFlags
	cfg    settings
	stdout io.Writer
	stderr io.Writer
}

// exitError carries the process exit code for an error.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func userError(format string, args ...any) error {
	return &exitError{code: exitUserError, err: fmt.Errorf(format, args...)}
}

// userErrors are the sentinels caused by bad input rather than by the
// environment.
var userErrors = []error{
	types.ErrNotFound,
	types.ErrConstraint,
	types.ErrDuplicate,
	types.ErrInvalidJSON,
	types.ErrDecode,
	types.ErrInvalidID,
	types.ErrInvalidWorldID,
	types.ErrInvalidName,
	types.ErrInvalidKey,
	types.ErrInvalidDataType,
	types.ErrInvalidConstantValue,
	types.ErrInvalidCharacterType,
	types.ErrInvalidRelationshipType,
	types.ErrInvalidVehicleType,
	types.ErrSelfRelationship,
	types.ErrCrossWorld,
	types.ErrInvalidAmount,
	types.ErrInvalidQuantity,
	types.ErrInvalidCondition,
	types.ErrInvalidCapacity,
	types.ErrUniqueItemInstantiated,
	types.ErrInstanceHeld,
	types.ErrSnapshotsDisabled,
}

// classify attaches an exit code to err. Storage failures are system
// errors even when they also wrap a constraint sentinel.
func classify(err error) error {
	if err == nil {
		return nil
	}
	var ee *exitError
	if errors.As(err, &ee) {
		return err
	}
	if errors.Is(err, types.ErrStorageUnavailable) || errors.Is(err, types.ErrStoreClosed) {
		return &exitError{code: exitSysError, err: err}
	}
	for _, sentinel := range userErrors {
		if errors.Is(err, sentinel) {
			return &exitError{code: exitUserError, err: err}
		}
	}
	return &exitError{code: exitSysError, err: err}
}

// run adapts a command body so that the error it returns carries an exit code.
func run(fn func(cmd *cobra.Command, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		return classify(fn(cmd, args))
	}
}

// NewRootCmd creates the top-level "worldkeeper" command with global flags
// and all subcommands registered. Output goes to stdout; logs and errors go
// to stderr.
func NewRootCmd(stdout, stderr io.Writer) *cobra.Command {
	a := &app{stdout: stdout, stderr: stderr}

	root := &cobra.Command{
		Use:   "worldkeeper",
		Short: "Inspect and edit persistent game worlds",
		Long: "Worldkeeper manages worlds, their constants, characters, relationships,\n" +
			"items, and snapshots stored in a single SQLite data file.",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "version" {
				return nil
			}
			return classify(a.resolve())
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	root.PersistentFlags().StringVar(&a.flags.configDir, "config-dir", "", "configuration directory (default: platform config dir/worldstore)")
	root.PersistentFlags().StringVar(&a.flags.dbPath, "db", "", "world data file (default: $(CWD)/game_world.db)")
	root.PersistentFlags().StringVar(&a.flags.logLevel, "log-level", "", "log level: debug, info, warn, error")
	root.PersistentFlags().BoolVar(&a.flags.jsonMode, "json", false, "output in JSON format")

	root.AddCommand(newVersionCmd(a))
	root.AddCommand(newInitCmd(a))
	root.AddCommand(newStatusCmd(a))
	root.AddCommand(newWorldCmd(a))
	root.AddCommand(newContextCmd(a))
	root.AddCommand(newCharacterCmd(a))
	root.AddCommand(newConstantCmd(a))
	root.AddCommand(newRelationshipCmd(a))
	root.AddCommand(newSnapshotCmd(a))

	return root
}

// Run executes the command line in args and returns the process exit code.
func Run(args []string, stdout, stderr io.Writer) int {
	root := NewRootCmd(stdout, stderr)
	root.SetArgs(args)
	err := root.Execute()
	if err == nil {
		return exitSuccess
	}
	fmt.Fprintln(stderr, "worldkeeper:", err)
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	// Flag and argument errors raised by cobra itself.
	return exitUserError
}

// Execute runs the root command against the process arguments and exits
// with the appropriate code.
func Execute() {
	os.Exit(Run(os.Args[1:], os.Stdout, os.Stderr))
}

// resolve loads the environment and config.yaml and fixes the locations
// and logger for this invocation.
func (a *app) resolve() error {
	env, err := config.LoadEnv()
	if err != nil {
		return err
	}

	configDir, err := paths.ResolveConfigDir(a.flags.configDir, env.ConfigDir)
	if err != nil {
		return fmt.Errorf("resolve config dir: %w", err)
	}
	v, err := loadConfig(configDir)
	if err != nil {
		return err
	}

	dbPath, err := paths.ResolveDBPath(a.flags.dbPath, v.GetString(cfgKeyDBPath), env.DBPath)
	if err != nil {
		return fmt.Errorf("resolve data file: %w", err)
	}
	snapshotDir, err := paths.ResolveSnapshotDir(v.GetString(cfgKeySnapshotDir), env.SnapshotDir, dbPath)
	if err != nil {
		return fmt.Errorf("resolve snapshot dir: %w", err)
	}

	level := firstSet(a.flags.logLevel, v.GetString(cfgKeyLogLevel), env.LogLevel)
	logger, err := config.NewLogger(level, env.LogFormat, a.stderr)
	if err != nil {
		return userError("%s", err)
	}

	a.cfg = settings{
		configDir:   configDir,
		dbPath:      dbPath,
		snapshotDir: snapshotDir,
		logger:      logger,
	}
	return nil
}

// open opens the world store with a snapshot archive. The caller must
// Close the manager.
func (a *app) open() (*world.Manager, error) {
	if _, err := os.Stat(filepath.Dir(a.cfg.dbPath)); err != nil {
		return nil, fmt.Errorf("%w: data directory: %w (run worldkeeper init)", types.ErrStorageUnavailable, err)
	}
	archive, err := snapshot.NewArchive(a.cfg.snapshotDir)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", types.ErrStorageUnavailable, err)
	}
	m, err := world.Open(a.cfg.dbPath, world.WithLogger(a.cfg.logger), world.WithArchive(archive))
	if err != nil {
		return nil, err
	}
	return m, nil
}

// withManager opens the store, runs fn, and closes the store.
func (a *app) withManager(fn func(m *world.Manager) error) error {
	m, err := a.open()
	if err != nil {
		return err
	}
	defer m.Close()
	return fn(m)
}

func firstSet(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
