package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/worldstore/internal/config"
	"github.com/mesh-intelligence/worldstore/internal/snapshot"
	"github.com/mesh-intelligence/worldstore/pkg/types"
)

type cliEnv struct {
	t         *testing.T
	configDir string
	dbPath    string
}

func newCLIEnv(t *testing.T) *cliEnv {
	t.Helper()
	for _, key := range []string{config.EnvDB, config.EnvConfigDir, config.EnvSnapshotDir, config.EnvLogLevel, config.EnvLogFormat} {
		t.Setenv(key, "")
	}
	dir := t.TempDir()
	return &cliEnv{
		t:         t,
		configDir: filepath.Join(dir, "config"),
		dbPath:    filepath.Join(dir, "data", "game_world.db"),
	}
}

// run executes worldkeeper with the env's config dir and data file.
func (e *cliEnv) run(args ...string) (stdout, stderr string, code int) {
	e.t.Helper()
	var out, errOut bytes.Buffer
	full := append([]string{"--config-dir", e.configDir, "--db", e.dbPath}, args...)
	code = Run(full, &out, &errOut)
	return out.String(), errOut.String(), code
}

// mustRun executes args and requires success.
func (e *cliEnv) mustRun(args ...string) string {
	e.t.Helper()
	out, errOut, code := e.run(args...)
	require.Equal(e.t, exitSuccess, code, "stderr: %s", errOut)
	return out
}

func (e *cliEnv) mustJSON(target any, args ...string) {
	e.t.Helper()
	out := e.mustRun(append([]string{"--json"}, args...)...)
	require.NoError(e.t, json.Unmarshal([]byte(out), target), out)
}

func TestVersion(t *testing.T) {
	e := newCLIEnv(t)
	out := e.mustRun("version")
	assert.Contains(t, out, "worldkeeper v"+Version)
	assert.Contains(t, out, modulePath)
	assert.NoDirExists(t, e.configDir, "version does not touch configuration")
}

func TestInit(t *testing.T) {
	e := newCLIEnv(t)

	out := e.mustRun("init")
	assert.Contains(t, out, "World store initialized successfully")
	assert.FileExists(t, filepath.Join(e.configDir, configFileExt))
	assert.FileExists(t, e.dbPath)
	assert.DirExists(t, filepath.Join(filepath.Dir(e.dbPath), "snapshots"))

	var dirs map[string]string
	e.mustJSON(&dirs, "init")
	assert.Equal(t, filepath.Join(filepath.Dir(e.dbPath), "snapshots"), dirs["snapshot_dir"])

	// A second init keeps the existing configuration.
	require.NoError(t, os.WriteFile(filepath.Join(e.configDir, configFileExt), []byte("log_level: warn\n"), 0o644))
	e.mustRun("init")
	data, err := os.ReadFile(filepath.Join(e.configDir, configFileExt))
	require.NoError(t, err)
	assert.Equal(t, "log_level: warn\n", string(data))
}

func TestStatus(t *testing.T) {
	e := newCLIEnv(t)
	e.mustRun("init")
	e.mustRun("world", "create", "--name", "Eldoria")

	var status struct {
		DBPath string       `json:"db_path"`
		Tables []tableCount `json:"tables"`
	}
	e.mustJSON(&status, "status")
	assert.Equal(t, e.dbPath, status.DBPath)
	require.Len(t, status.Tables, 9)

	rows := map[string]int64{}
	for _, tc := range status.Tables {
		rows[tc.Table] = tc.Rows
	}
	assert.Equal(t, int64(1), rows["Worlds"])
	assert.Equal(t, int64(2), rows["WorldConstants"])
}

func TestWorldLifecycle(t *testing.T) {
	e := newCLIEnv(t)
	e.mustRun("init")

	params := filepath.Join(t.TempDir(), "params.yaml")
	require.NoError(t, os.WriteFile(params, []byte(`name: Eldoria
theme: high fantasy
rules:
  - magic has a price
numeric_constants: [3, 7.5]
locations: [Silverwood]
`), 0o644))

	var w types.World
	e.mustJSON(&w, "world", "create", "--params", params)
	assert.Equal(t, "Eldoria", w.Name)
	assert.Equal(t, "high fantasy", w.Theme)

	out := e.mustRun("world", "show", "Eldoria")
	assert.Contains(t, out, "rules: magic has a price")
	assert.Contains(t, out, "locations: Silverwood")

	var constants []*types.WorldConstant
	e.mustJSON(&constants, "constant", "list", fmt.Sprint(w.ID))
	keys := make([]string, 0, len(constants))
	for _, c := range constants {
		keys = append(keys, c.Key)
	}
	assert.ElementsMatch(t, []string{"constant_1", "constant_2", "world_name", "world_theme"}, keys)

	e.mustRun("world", "deactivate", "Eldoria")
	var worlds []*types.World
	e.mustJSON(&worlds, "world", "list")
	require.Len(t, worlds, 1)
	assert.False(t, worlds[0].IsActive)

	e.mustRun("world", "delete", "Eldoria")
	_, _, code := e.run("world", "show", "Eldoria")
	assert.Equal(t, exitUserError, code)
}

func TestContextWorkflow(t *testing.T) {
	e := newCLIEnv(t)
	e.mustRun("init")
	e.mustRun("world", "create", "--name", "Eldoria", "--theme", "fantasy")

	var kael, elindor types.Character
	e.mustJSON(&kael, "character", "create", "Eldoria", "--name", "Kael", "--type", "player", "--species", "human")
	e.mustJSON(&elindor, "character", "create", "Eldoria", "--name", "Elindor", "--species", "elf", "--x", "4", "--y", "2")

	var rel types.Relationship
	e.mustJSON(&rel, "relationship", "create", "Eldoria", fmt.Sprint(kael.ID), fmt.Sprint(elindor.ID), "--score", "30")
	e.mustJSON(&rel, "relationship", "adjust", fmt.Sprint(rel.ID), "10")
	assert.Equal(t, 40.0, rel.Score)
	e.mustJSON(&rel, "relationship", "interact", fmt.Sprint(rel.ID), "--event", "shared a meal", "--data", `{"place":"inn"}`)
	history, err := rel.History()
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "shared a meal", history[0]["event"])
	assert.Equal(t, "inn", history[0]["place"])

	e.mustRun("constant", "set", "Eldoria", "moons", "2", "--type", "integer")

	var hurt types.Character
	e.mustJSON(&hurt, "character", "damage", fmt.Sprint(kael.ID), "150")
	assert.Equal(t, 0.0, hurt.CurrentHealth)
	e.mustJSON(&hurt, "character", "heal", fmt.Sprint(kael.ID), "30")
	assert.Equal(t, 30.0, hurt.CurrentHealth)
	e.mustRun("character", "move", fmt.Sprint(kael.ID), "--", "1.5", "-3")

	var wc types.WorldContext
	e.mustJSON(&wc, "context", "Eldoria")
	assert.Equal(t, "Eldoria", wc.World.Name)
	assert.Equal(t, 2.0, wc.Constants["moons"], "JSON numbers decode as float64")
	require.Len(t, wc.Characters, 2)
	require.Len(t, wc.Relationships, 1)
	assert.Equal(t, 40.0, wc.Relationships[0].Score)
	p := wc.Character(kael.ID)
	require.NotNil(t, p)
	assert.Equal(t, 1.5, p.X)
	assert.Equal(t, -3.0, p.Y)

	out := e.mustRun("context", "Eldoria")
	assert.Contains(t, out, "Kael -> Elindor friendship 40")
	assert.Contains(t, out, "moons = 2")

	var rels []*types.Relationship
	e.mustJSON(&rels, "relationship", "list", "Eldoria", "--character", fmt.Sprint(elindor.ID))
	require.Len(t, rels, 1)

	var npcs []*types.Character
	e.mustJSON(&npcs, "character", "list", "Eldoria", "--type", "npc")
	require.Len(t, npcs, 1)
	assert.Equal(t, "Elindor", npcs[0].Name)
}

func TestSnapshotCommands(t *testing.T) {
	e := newCLIEnv(t)
	e.mustRun("init")
	e.mustRun("world", "create", "--name", "Eldoria")

	var rec snapshot.Record
	e.mustJSON(&rec, "snapshot", "save", "Eldoria", "--label", "chapter one")
	assert.NotEmpty(t, rec.ID)

	var records []snapshot.Record
	e.mustJSON(&records, "snapshot", "list", "Eldoria")
	require.Len(t, records, 1)
	assert.Equal(t, "chapter one", records[0].Label)
	assert.Equal(t, "Eldoria", records[0].Context.World.Name)
}

func TestConfigFileSuppliesDBPath(t *testing.T) {
	e := newCLIEnv(t)
	require.NoError(t, os.MkdirAll(e.configDir, 0o755))
	altDB := filepath.Join(t.TempDir(), "alt.db")
	require.NoError(t, os.WriteFile(filepath.Join(e.configDir, configFileExt),
		[]byte("db_path: "+altDB+"\n"), 0o644))

	var out, errOut bytes.Buffer
	code := Run([]string{"--config-dir", e.configDir, "init"}, &out, &errOut)
	require.Equal(t, exitSuccess, code, errOut.String())
	assert.FileExists(t, altDB)
}

func TestExitCodes(t *testing.T) {
	e := newCLIEnv(t)

	_, errOut, code := e.run("status")
	assert.Equal(t, exitSysError, code, "data directory missing before init")
	assert.Contains(t, errOut, "worldkeeper init")

	e.mustRun("init")

	tests := []struct {
		name string
		args []string
		want int
	}{
		{"unknown world", []string{"world", "show", "Nowhere"}, exitUserError},
		{"unknown command", []string{"teleport"}, exitUserError},
		{"missing argument", []string{"context"}, exitUserError},
		{"bad character id", []string{"character", "move", "abc", "1", "2"}, exitUserError},
		{"invalid log level", []string{"--log-level", "loud", "status"}, exitUserError},
		{"missing params file", []string{"world", "create", "--params", "/no/such/file.yaml"}, exitUserError},
		{"unknown character", []string{"character", "damage", "99", "1"}, exitUserError},
		{"negative damage", []string{"character", "damage", "--", "1", "-5"}, exitUserError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, errOut, code := e.run(tt.args...)
			assert.Equal(t, tt.want, code, "stderr: %s", errOut)
		})
	}

	e.mustRun("world", "create", "--name", "Eldoria")
	_, _, code = e.run("world", "create", "--name", "Eldoria")
	assert.Equal(t, exitUserError, code, "duplicate world name")
}

func TestClassify(t *testing.T) {
	assert.NoError(t, classify(nil))

	tests := []struct {
		err  error
		want int
	}{
		{types.ErrNotFound, exitUserError},
		{fmt.Errorf("creating: %w", types.ErrDuplicate), exitUserError},
		{fmt.Errorf("%w: disk io", types.ErrStorageUnavailable), exitSysError},
		{types.ErrStoreClosed, exitSysError},
		{errors.New("unexpected"), exitSysError},
		{userError("bad flag"), exitUserError},
	}
	for _, tt := range tests {
		var ee *exitError
		require.ErrorAs(t, classify(tt.err), &ee)
		assert.Equal(t, tt.want, ee.code, tt.err.Error())
	}
}
