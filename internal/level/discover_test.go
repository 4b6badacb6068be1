package level

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestIsBenchmarkPack(t *testing.T) {
	tests := []struct {
		name string
		meta string
		want bool
	}{
		{"marked", `{"pack":{"pack_format":15,"mch":true}}`, true},
		{"unmarked", `{"pack":{"pack_format":15}}`, false},
		{"false", `{"pack":{"pack_format":15,"mch":false}}`, false},
		{"malformed", `{"pack":`, false},
		{"empty", ``, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsBenchmarkPack([]byte(tt.meta)))
		})
	}
}

func TestDiscoverBenchmarkPacks(t *testing.T) {
	dir := t.TempDir()
	packs := filepath.Join(dir, "datapacks")
	writeFile(t, filepath.Join(packs, "zeta", "pack.mcmeta"), `{"pack":{"pack_format":15,"mch":true}}`)
	writeFile(t, filepath.Join(packs, "alpha", "pack.mcmeta"), `{"pack":{"pack_format":15,"mch":true}}`)
	writeFile(t, filepath.Join(packs, "plain", "pack.mcmeta"), `{"pack":{"pack_format":15}}`)
	writeFile(t, filepath.Join(packs, "broken", "pack.mcmeta"), `{`)
	writeFile(t, filepath.Join(packs, "nometa", "data", "x.txt"), ``)
	writeFile(t, filepath.Join(packs, "mch.zip"), `PK`)

	got, err := DiscoverBenchmarkPacks(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"file/alpha", "file/zeta"}, got)
}

func TestDiscoverBenchmarkPacks_NoDatapacks(t *testing.T) {
	_, err := DiscoverBenchmarkPacks(t.TempDir())
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestBenchmarkFunctions(t *testing.T) {
	dir := t.TempDir()
	data := filepath.Join(dir, "datapacks", "bench", "data")
	writeFile(t, filepath.Join(data, "bench", "functions", "loop.mcfunction"), "# @benchmark\nscoreboard players add x y 1\n")
	writeFile(t, filepath.Join(data, "bench", "functions", "nested", "call.mcfunction"), "# @benchmark\r\nfunction bench:loop\n")
	writeFile(t, filepath.Join(data, "bench", "functions", "helper.mcfunction"), "say hi\n")
	writeFile(t, filepath.Join(data, "bench", "functions", "Upper.mcfunction"), "# @benchmark\n")
	writeFile(t, filepath.Join(data, "bench", "functions", "empty.mcfunction"), "")
	writeFile(t, filepath.Join(data, "bench", "tags", "functions", "tick.json"), "{}")

	got, err := BenchmarkFunctions(dir, "file/bench")
	require.NoError(t, err)
	assert.Equal(t, []string{"bench:loop", "bench:nested/call"}, got)
}

func TestBenchmarkFunctions_Errors(t *testing.T) {
	_, err := BenchmarkFunctions(t.TempDir(), "vanilla")
	assert.Error(t, err)

	got, err := BenchmarkFunctions(t.TempDir(), "file/missing")
	require.NoError(t, err)
	assert.Empty(t, got)
}
