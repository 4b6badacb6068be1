// Package testutil provides fixtures shared by package tests: profiler dumps,
// level directories and datapacks.
package testutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mch-analysis/internal/parser/profiler"
	"github.com/mch-analysis/pkg/compression"
	"github.com/mch-analysis/pkg/model"
	"github.com/mch-analysis/pkg/nbt"
)

// VanillaDump is a dump in the layout the game server writes.
const VanillaDump = `---- Minecraft Profiler Results ----
// Shiny numbers!

Version: 1.20.1
Time span: 10003 ms
Tick span: 201 ticks
// This is approximately 20.09 ticks per second. It should be 20 ticks per second

--- BEGIN PROFILE DUMP ---

[00] tick(201/1) - 100.00%/100.00%
[01] |   levels(201/1) - 92.50%/92.50%
[02] |   |   minecraft:overworld(201/1) - 80.00%/74.00%
[03] |   |   |   #getChunk 1200/5
[03] |   |   |   entities(201/1) - 60.00%/44.40%
[02] |   |   unspecified(201/1) - 20.00%/18.50%
[01] |   connection(201/1) - 7.50%/7.50%
[00] #tickCount 201/1
--- END PROFILE DUMP ---

--- BEGIN COUNTER DUMP ---

-- Counter: ticking --
[00] root total:5/12 average: 2/6
[01] |   block ticks total:3/3 average: 1/1
[01] |   fluids total:4/4 average: 2/2


--- END COUNTER DUMP ---

`

// SlowerDump is VanillaDump with more time spent in entities.
var SlowerDump = strings.NewReplacer(
	"Time span: 10003 ms", "Time span: 10400 ms",
	"entities(201/1) - 60.00%/44.40%", "entities(201/2) - 75.00%/55.50%",
).Replace(VanillaDump)

// SampleResults parses VanillaDump.
func SampleResults(t testing.TB) *model.ProfilerResults {
	t.Helper()
	r, err := profiler.Parse(VanillaDump)
	if err != nil {
		t.Fatalf("failed to parse sample dump: %v", err)
	}
	return r
}

// LevelRoot builds a level.dat root whose Data.DataPacks holds the given lists.
func LevelRoot(enabled, disabled []string) *nbt.Compound {
	packs := nbt.NewCompound()
	packs.Set("Enabled", stringList(enabled))
	packs.Set("Disabled", stringList(disabled))

	data := nbt.NewCompound()
	data.Set("LevelName", nbt.String("bench"))
	data.Set("DataVersion", nbt.Int(3465))
	data.Set("DataPacks", packs)

	root := nbt.NewCompound()
	root.Set("Data", data)
	return root
}

func stringList(values []string) *nbt.List {
	tags := make([]nbt.Tag, len(values))
	for i, v := range values {
		tags[i] = nbt.String(v)
	}
	return nbt.MustList(tags...)
}

// WriteLevel creates a level directory holding a level.dat with the given
// datapack lists and returns the directory.
func WriteLevel(t testing.TB, enabled, disabled []string) string {
	t.Helper()
	dir := t.TempDir()
	if err := nbt.WriteRootFile(filepath.Join(dir, "level.dat"), LevelRoot(enabled, disabled), compression.LevelDefault); err != nil {
		t.Fatalf("failed to write level.dat: %v", err)
	}
	return dir
}

// WriteDataPack creates datapacks/<name> under levelDir. benchmark marks the
// pack in pack.mcmeta; functions maps "namespace/functions/path.mcfunction"
// to file content.
func WriteDataPack(t testing.TB, levelDir, name string, benchmark bool, functions map[string]string) string {
	t.Helper()
	packDir := filepath.Join(levelDir, "datapacks", name)

	meta := `{"pack": {"pack_format": 15, "description": "` + name + `"}}`
	if benchmark {
		meta = `{"pack": {"pack_format": 15, "description": "` + name + `", "mch": true}}`
	}
	WriteFile(t, packDir, "pack.mcmeta", meta)

	for rel, content := range functions {
		WriteFile(t, filepath.Join(packDir, "data"), rel, content)
	}
	return packDir
}

// TempFileWithName creates a temporary file with the given name and content.
func TempFileWithName(t testing.TB, name, content string) string {
	t.Helper()
	return WriteFile(t, t.TempDir(), name, content)
}

// WriteFile writes content to dir/filename, creating parent directories.
func WriteFile(t testing.TB, dir, filename, content string) string {
	t.Helper()
	path := filepath.Join(dir, filepath.FromSlash(filename))
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("failed to create directory: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}
	return path
}

// ReadFile reads a file and returns its contents.
func ReadFile(t testing.TB, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read file %s: %v", path, err)
	}
	return string(data)
}
