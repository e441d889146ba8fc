// Package paths resolves the configuration directory, the world data file,
// and the snapshot directory used by worldkeeper.
package paths

import (
	"os"
	"path/filepath"
	"runtime"
)

// Default names used when no override is active.
const (
	AppDirName          = "worldstore"
	DefaultDBFileName   = "game_world.db"
	DefaultSnapshotsDir = "snapshots"
)

// platformDir holds platform-detection functions that can be overridden in tests.
var platformDir = struct {
	homeDir       func() (string, error)
	userConfigDir func() (string, error)
	getwd         func() (string, error)
}{
	homeDir:       os.UserHomeDir,
	userConfigDir: os.UserConfigDir,
	getwd:         os.Getwd,
}

// DefaultConfigDir returns the platform-specific default configuration directory.
//
// Linux:   $XDG_CONFIG_HOME/worldstore (fallback ~/.config/worldstore)
// macOS:   ~/Library/Application Support/worldstore
// Windows: %APPDATA%/worldstore
func DefaultConfigDir() (string, error) {
	switch runtime.GOOS {
	case "linux":
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, AppDirName), nil
		}
		home, err := platformDir.homeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, ".config", AppDirName), nil
	default:
		dir, err := platformDir.userConfigDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(dir, AppDirName), nil
	}
}

// ResolveConfigDir returns the configuration directory following the
// precedence chain: flag > env > DefaultConfigDir().
func ResolveConfigDir(flag, env string) (string, error) {
	if flag != "" {
		return filepath.Abs(flag)
	}
	if env != "" {
		return filepath.Abs(env)
	}
	return DefaultConfigDir()
}

// ResolveDBPath returns the world data file following the precedence chain:
// flag > config.yaml > env > $(CWD)/game_world.db.
func ResolveDBPath(flag, configYAMLValue, env string) (string, error) {
	if p := firstNonEmpty(flag, configYAMLValue, env); p != "" {
		return filepath.Abs(p)
	}
	cwd, err := platformDir.getwd()
	if err != nil {
		return "", err
	}
	return filepath.Join(cwd, DefaultDBFileName), nil
}

// ResolveSnapshotDir returns the snapshot directory following the
// precedence chain: config.yaml > env > a snapshots directory next to
// dbPath.
func ResolveSnapshotDir(configYAMLValue, env, dbPath string) (string, error) {
	if p := firstNonEmpty(configYAMLValue, env); p != "" {
		return filepath.Abs(p)
	}
	return filepath.Abs(filepath.Join(filepath.Dir(dbPath), DefaultSnapshotsDir))
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
