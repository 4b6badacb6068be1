package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mch-analysis/internal/repository"
	"github.com/mch-analysis/internal/testutil"
	apperrors "github.com/mch-analysis/pkg/errors"
	"github.com/mch-analysis/pkg/model"
)

func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			sv.Replace(nil)
		} else {
			f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

// run executes the command line with a config rooted in a temp directory.
func run(t *testing.T, configFile string, args ...string) (stdout, stderr string, code int) {
	t.Helper()
	resetFlags(rootCmd)

	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(append([]string{"--config", configFile}, args...))
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})

	code = Execute()
	return out.String(), errOut.String(), code
}

func writeConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	return testutil.WriteFile(t, dir, "config.yaml", fmt.Sprintf(`
log:
  level: error
storage:
  type: local
  local_path: %q
database:
  type: sqlite
  path: %q
export:
  compression: none
`, filepath.Join(dir, "storage"), filepath.Join(dir, "history.db")))
}

func TestVersion(t *testing.T) {
	out, _, code := run(t, writeConfig(t), "version")
	assert.Equal(t, apperrors.ExitOK, code)
	assert.Contains(t, out, "version dev")
}

func TestProfileParse(t *testing.T) {
	cfgFile := writeConfig(t)
	dump := testutil.TempFileWithName(t, "dump.txt", testutil.VanillaDump)

	out, _, code := run(t, cfgFile, "profile", "parse", dump)
	require.Equal(t, apperrors.ExitOK, code)
	assert.Contains(t, out, "=== Profiler Results ===")
	assert.Contains(t, out, "=== Counter: ticking ===")

	out, _, code = run(t, cfgFile, "profile", "parse", dump, "--rewrite", "compact")
	require.Equal(t, apperrors.ExitOK, code)
	assert.Contains(t, out, "// Shiny numbers!\nVersion: 1.20.1\n")

	out, _, code = run(t, cfgFile, "profile", "parse", dump, "--rewrite", "vanilla")
	require.Equal(t, apperrors.ExitOK, code)
	assert.Equal(t, testutil.VanillaDump, out)
}

func TestProfileTopJSON(t *testing.T) {
	dump := testutil.TempFileWithName(t, "dump.txt", testutil.VanillaDump)

	out, _, code := run(t, writeConfig(t), "profile", "top", dump, "-n", "2", "--json")
	require.Equal(t, apperrors.ExitOK, code)

	var hotspots []model.Hotspot
	require.NoError(t, json.Unmarshal([]byte(out), &hotspots))
	require.Len(t, hotspots, 2)
	assert.Equal(t, "tick.levels.minecraft:overworld.entities", hotspots[0].Path)
	assert.Equal(t, "tick.levels.minecraft:overworld", hotspots[1].Path)
}

func TestExitCodes(t *testing.T) {
	cfgFile := writeConfig(t)

	_, stderr, code := run(t, cfgFile, "profile", "parse", filepath.Join(t.TempDir(), "missing.txt"))
	assert.Equal(t, apperrors.ExitUnavailable, code)
	assert.Contains(t, stderr, "does not exist")

	_, _, code = run(t, cfgFile, "profile", "top", "--bogus")
	assert.Equal(t, apperrors.ExitUsage, code)

	garbage := testutil.TempFileWithName(t, "dump.txt", "not a dump")
	_, _, code = run(t, cfgFile, "profile", "parse", garbage)
	assert.Equal(t, apperrors.ExitDataError, code)

	_, _, code = run(t, cfgFile, "nbt", "validate", garbage)
	assert.Equal(t, apperrors.ExitDataError, code)

	_, _, code = run(t, filepath.Join(t.TempDir(), "missing.yaml"), "version")
	assert.Equal(t, apperrors.ExitOK, code)
}

func TestProfileImportHistory(t *testing.T) {
	cfgFile := writeConfig(t)
	dir := t.TempDir()
	first := testutil.WriteFile(t, dir, "first.txt", testutil.VanillaDump)
	second := testutil.WriteFile(t, dir, "second.txt", testutil.SlowerDump)

	out, _, code := run(t, cfgFile, "profile", "import", first, second)
	require.Equal(t, apperrors.ExitOK, code, out)
	assert.Contains(t, out, "first.txt: run ")
	assert.Contains(t, out, "second.txt: run ")

	out, _, code = run(t, cfgFile, "profile", "import", first)
	require.Equal(t, apperrors.ExitOK, code)
	assert.Contains(t, out, "already imported")

	out, _, code = run(t, cfgFile, "profile", "history", "--json")
	require.Equal(t, apperrors.ExitOK, code)
	var runs []repository.ProfileRun
	require.NoError(t, json.Unmarshal([]byte(out), &runs))
	assert.Len(t, runs, 2)

	out, _, code = run(t, cfgFile, "profile", "history", "tick.levels.minecraft:overworld.entities", "--json")
	require.Equal(t, apperrors.ExitOK, code)
	var points []repository.HistoryPoint
	require.NoError(t, json.Unmarshal([]byte(out), &points))
	assert.Len(t, points, 2)

	out, _, code = run(t, cfgFile, "profile", "history")
	require.Equal(t, apperrors.ExitOK, code)
	assert.Contains(t, out, "first")
	assert.Contains(t, out, "second")
}

func TestProfileExport(t *testing.T) {
	dump := testutil.TempFileWithName(t, "dump.txt", testutil.VanillaDump)
	report := filepath.Join(t.TempDir(), "report.json")

	out, _, code := run(t, writeConfig(t), "profile", "export", dump, "-o", report, "--name", "bench")
	require.Equal(t, apperrors.ExitOK, code)
	assert.Contains(t, out, "Wrote "+report)

	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(testutil.ReadFile(t, report)), &doc))
	assert.Equal(t, "bench", doc["name"])
}

func TestNBTCommands(t *testing.T) {
	cfgFile := writeConfig(t)
	world := testutil.WriteLevel(t, []string{"vanilla"}, []string{"file/bench"})
	levelDat := filepath.Join(world, "level.dat")

	out, _, code := run(t, cfgFile, "nbt", "dump", levelDat, "--path", "Data.DataPacks", "--compact")
	require.Equal(t, apperrors.ExitOK, code)
	assert.Equal(t, "{Enabled:[\"vanilla\"],Disabled:[\"file/bench\"]}\n", out)

	out, _, code = run(t, cfgFile, "nbt", "json", levelDat)
	require.Equal(t, apperrors.ExitOK, code)
	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	assert.Contains(t, doc, "Data")

	out, _, code = run(t, cfgFile, "nbt", "validate", levelDat)
	require.Equal(t, apperrors.ExitOK, code)
	assert.Contains(t, out, "OK Compound")

	_, _, code = run(t, cfgFile, "nbt", "dump", levelDat, "--path", "Data.Missing")
	assert.Equal(t, apperrors.ExitUnavailable, code)

	_, _, code = run(t, cfgFile, "nbt", "dump", levelDat, "--path", "Data.LevelName.x")
	assert.Equal(t, apperrors.ExitUsage, code)
}

func TestLevelCommands(t *testing.T) {
	cfgFile := writeConfig(t)
	world := testutil.WriteLevel(t, []string{"vanilla", "file/bench-a"}, nil)
	testutil.WriteDataPack(t, world, "bench-a", true, map[string]string{
		"bench/functions/spawn.mcfunction": "# @benchmark\n",
	})
	testutil.WriteDataPack(t, world, "bench-b", true, nil)

	out, _, code := run(t, cfgFile, "level", "datapacks", world)
	require.Equal(t, apperrors.ExitOK, code)
	assert.Contains(t, out, "Enabled: vanilla, file/bench-a")
	assert.Contains(t, out, "    bench:spawn")

	out, _, code = run(t, cfgFile, "level", "toggle", world, "file/bench-b", "--backup")
	require.Equal(t, apperrors.ExitOK, code)
	assert.Contains(t, out, "Enabled: vanilla, file/bench-b")
	assert.Contains(t, out, "Disabled: file/bench-a")
	assert.Contains(t, out, "Previous level.dat saved as levels/")

	out, _, code = run(t, cfgFile, "level", "toggle", world, "--none", "x", "--json")
	require.Equal(t, apperrors.ExitOK, code)
	var res struct {
		After struct {
			Enabled []string `json:"enabled"`
		} `json:"after"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, []string{"vanilla"}, res.After.Enabled)

	_, _, code = run(t, cfgFile, "level", "toggle", world, "file/nope")
	assert.Equal(t, apperrors.ExitUsage, code)
}
