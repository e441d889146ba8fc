package paths

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigDir_Linux(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("linux-only test")
	}

	t.Run("uses XDG_CONFIG_HOME when set", func(t *testing.T) {
		t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg-config")
		got, err := DefaultConfigDir()
		require.NoError(t, err)
		assert.Equal(t, "/tmp/xdg-config/worldstore", got)
	})

	t.Run("falls back to ~/.config when XDG unset", func(t *testing.T) {
		t.Setenv("XDG_CONFIG_HOME", "")
		home, err := os.UserHomeDir()
		require.NoError(t, err)

		got, err := DefaultConfigDir()
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(home, ".config", "worldstore"), got)
	})

	t.Run("home lookup failure", func(t *testing.T) {
		t.Setenv("XDG_CONFIG_HOME", "")
		orig := platformDir.homeDir
		platformDir.homeDir = func() (string, error) { return "", errors.New("no home") }
		t.Cleanup(func() { platformDir.homeDir = orig })

		_, err := DefaultConfigDir()
		assert.Error(t, err)
	})
}

func TestDefaultConfigDir_Darwin(t *testing.T) {
	if runtime.GOOS != "darwin" {
		t.Skip("darwin-only test")
	}

	got, err := DefaultConfigDir()
	require.NoError(t, err)

	home, err := os.UserHomeDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "Library", "Application Support", "worldstore"), got)
}

func TestResolveConfigDir(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg-config")

	tests := []struct {
		name    string
		flag    string
		env     string
		wantSub string // substring the result must contain
	}{
		{name: "flag wins over env", flag: "/explicit/config", env: "/env/config", wantSub: "/explicit/config"},
		{name: "env wins when flag empty", env: "/env/config", wantSub: "/env/config"},
		{name: "platform default when both empty", wantSub: "worldstore"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveConfigDir(tt.flag, tt.env)
			require.NoError(t, err)
			assert.Contains(t, got, tt.wantSub)
		})
	}
}

func TestResolveDBPath(t *testing.T) {
	cwd, err := os.Getwd()
	require.NoError(t, err)

	tests := []struct {
		name          string
		flag          string
		configYAMLVal string
		env           string
		want          string
	}{
		{
			name:          "flag wins over all",
			flag:          "/flag/world.db",
			configYAMLVal: "/config/world.db",
			env:           "/env/world.db",
			want:          "/flag/world.db",
		},
		{
			name:          "config.yaml wins over env",
			configYAMLVal: "/config/world.db",
			env:           "/env/world.db",
			want:          "/config/world.db",
		},
		{
			name: "env wins when flag and config empty",
			env:  "/env/world.db",
			want: "/env/world.db",
		},
		{
			name: "CWD default when all empty",
			want: filepath.Join(cwd, DefaultDBFileName),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveDBPath(tt.flag, tt.configYAMLVal, tt.env)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveDBPath_AbsolutePath(t *testing.T) {
	got, err := ResolveDBPath("relative/world.db", "", "")
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(got), "expected absolute path, got %s", got)
}

func TestResolveDBPath_GetwdFailure(t *testing.T) {
	orig := platformDir.getwd
	platformDir.getwd = func() (string, error) { return "", errors.New("gone") }
	t.Cleanup(func() { platformDir.getwd = orig })

	_, err := ResolveDBPath("", "", "")
	assert.Error(t, err)
}

func TestResolveSnapshotDir(t *testing.T) {
	got, err := ResolveSnapshotDir("/config/snaps", "/env/snaps", "/data/world.db")
	require.NoError(t, err)
	assert.Equal(t, "/config/snaps", got)

	got, err = ResolveSnapshotDir("", "/env/snaps", "/data/world.db")
	require.NoError(t, err)
	assert.Equal(t, "/env/snaps", got)

	got, err = ResolveSnapshotDir("", "", "/data/world.db")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/data", DefaultSnapshotsDir), got)
}
