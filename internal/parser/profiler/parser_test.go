package profiler

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mch-analysis/internal/parser"
	"github.com/mch-analysis/pkg/model"
)

func TestParse_CompactExample(t *testing.T) {
	results, err := Parse(compactDump)
	require.NoError(t, err)

	assert.Equal(t, "1.0", results.Version)
	assert.Equal(t, int64(1234), results.TimeSpan)
	assert.Equal(t, int64(56), results.TickSpan)
	assert.Equal(t, []string{"comment", "comment"}, results.Comments)
	assert.Equal(t, Compact.Name, results.Layout)
	assert.Equal(t, 0, results.Counters.Len())

	require.Equal(t, []string{"root"}, results.Profiler.Keys())
	entry, _ := results.Profiler.Get("root")
	root, ok := entry.(*model.TimeEntry)
	require.True(t, ok)
	assert.Equal(t, "root", root.Name)
	assert.Equal(t, int64(100), root.TotalCount)
	assert.Equal(t, 100.0, root.Percentage)

	require.Equal(t, []string{"child"}, root.Children.Keys())
	entry, _ = root.Children.Get("child")
	child := entry.(*model.TimeEntry)
	assert.Equal(t, int64(40), child.TotalCount)
	assert.Equal(t, 40.0, child.Percentage)
	assert.Equal(t, 40.0, child.GlobalPercentage)
	assert.Equal(t, 0, child.Children.Len())
}

func TestParse_Vanilla(t *testing.T) {
	results, err := Parse(vanillaDump)
	require.NoError(t, err)

	assert.Equal(t, Vanilla.Name, results.Layout)
	assert.Equal(t, "1.20.1", results.Version)
	assert.Equal(t, int64(10003), results.TimeSpan)
	assert.Equal(t, int64(201), results.TickSpan)
	assert.Equal(t, "Shiny numbers!", results.Comments[0])

	assert.Equal(t, []string{"tick", "tickCount"}, results.Profiler.Keys())

	entry, ok := results.Find("tick", "levels", "minecraft:overworld", "getChunk")
	require.True(t, ok)
	assert.Equal(t, &model.CounterEntry{Name: "getChunk", TotalCount: 1200, AverageCount: 5}, entry)

	entry, ok = results.Find("tick", "levels", "minecraft:overworld", "entities")
	require.True(t, ok)
	assert.InDelta(t, 44.4, entry.(*model.TimeEntry).GlobalPercentage, 1e-9)

	// a sibling after a deeper subtree is attached to the right parent
	levels, _ := results.Find("tick", "levels")
	assert.Equal(t, []string{"minecraft:overworld", "unspecified"}, levels.(*model.TimeEntry).Children.Keys())
	tick, _ := results.Find("tick")
	assert.Equal(t, []string{"levels", "connection"}, tick.(*model.TimeEntry).Children.Keys())

	top, ok := results.Profiler.Get("tickCount")
	require.True(t, ok)
	assert.Equal(t, model.KindCounter, top.Kind())

	assert.Equal(t, []string{"ticking", "blocks"}, results.Counters.Keys())
	ticking, _ := results.Counters.Get("ticking")
	assert.Equal(t, "root", ticking.Name)
	assert.Equal(t, []string{"block ticks", "fluids"}, ticking.Children.Keys())

	blockTicks, _ := ticking.Children.Get("block ticks")
	assert.Equal(t, int64(3), blockTicks.TotalSelf)
	assert.Equal(t, int64(1), blockTicks.AverageTotal)
}

func TestParseCounterLine(t *testing.T) {
	tests := []struct {
		name     string
		line     string
		wantName string
		want     [4]int64
		wantErr  error
	}{
		{"joined average", "root total:5/12 average:2/6", "root", [4]int64{5, 12, 2, 6}, nil},
		{"split average", "root total:5/12 average: 2/6", "root", [4]int64{5, 12, 2, 6}, nil},
		{"name with spaces", "block entity ticks total:1/2 average: 3/4", "block entity ticks", [4]int64{1, 2, 3, 4}, nil},
		{"empty name", "total:1/2 average: 3/4", "", [4]int64{1, 2, 3, 4}, nil},
		{"missing total prefix", "root 5/12 average: 2/6", "", [4]int64{}, parser.ErrStructuralMismatch},
		{"too few tokens", "total:5/12", "", [4]int64{}, parser.ErrStructuralMismatch},
		{"missing slash", "root total:5 average: 2/6", "", [4]int64{}, parser.ErrStructuralMismatch},
		{"bad number", "root total:5/x average: 2/6", "", [4]int64{}, parser.ErrNumericParse},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, lerr := parseCounterLine(tt.line)
			if tt.wantErr != nil {
				require.NotNil(t, lerr)
				assert.Equal(t, tt.wantErr, lerr.kind)
				return
			}
			require.Nil(t, lerr)
			assert.Equal(t, tt.wantName, got.Name)
			assert.Equal(t, tt.want, [4]int64{got.TotalSelf, got.TotalTotal, got.AverageSelf, got.AverageTotal})
		})
	}
}

func TestParse_TrailingData(t *testing.T) {
	for _, suffix := range []string{"x", "\n", " ", "--- END COUNTER DUMP ---\n\n"} {
		_, err := Parse(compactDump + suffix)
		assert.ErrorIs(t, err, parser.ErrStructuralMismatch, "suffix %q", suffix)

		_, err = Parse(vanillaDump + suffix)
		assert.ErrorIs(t, err, parser.ErrStructuralMismatch, "suffix %q", suffix)
	}
}

func TestParse_Truncated(t *testing.T) {
	for i := 0; i < len(vanillaDump); i++ {
		_, err := ParseLayout(vanillaDump[:i], Vanilla)
		require.Error(t, err, "prefix of %d bytes", i)
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		wantErr error
	}{
		{"wrong header", strings.Replace(compactDump, "Minecraft", "Minecraf", 1), parser.ErrStructuralMismatch},
		{"time span not numeric", strings.Replace(compactDump, "1234 ms", "abc ms", 1), parser.ErrNumericParse},
		{"bad percentage", strings.Replace(compactDump, "40.0%/40.0%", "4x.0%/40.0%", 1), parser.ErrNumericParse},
		{"bad indent digits", strings.Replace(compactDump, "[01]", "[0a]", 1), parser.ErrNumericParse},
		{"missing indent marker", strings.Replace(compactDump, "[01] |   child", "[01] child", 1), parser.ErrStructuralMismatch},
		{"missing percent sign", strings.Replace(compactDump, "40.0%/40.0%\n", "40.0%/40.0\n", 1), parser.ErrStructuralMismatch},
		{"bad counter average", strings.Replace(vanillaDump, "#getChunk 1200/5", "#getChunk 1200/five", 1), parser.ErrNumericParse},
		{"bad counter header", strings.Replace(vanillaDump, "-- Counter: blocks --", "-- Counter: blocks", 1), parser.ErrStructuralMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			results, err := Parse(tt.text)
			assert.Nil(t, results)
			assert.ErrorIs(t, err, tt.wantErr)

			var syntaxErr *parser.SyntaxError
			assert.True(t, errors.As(err, &syntaxErr))
		})
	}
}

func TestParse_ErrorPosition(t *testing.T) {
	text := strings.Replace(compactDump, "1234 ms", "abc ms", 1)
	_, err := Parse(text)

	var syntaxErr *parser.SyntaxError
	require.ErrorAs(t, err, &syntaxErr)
	assert.Equal(t, 4, syntaxErr.Line)
	assert.Equal(t, len("Time span: ")+1, syntaxErr.Column)
	assert.Equal(t, "abc", text[syntaxErr.Offset:syntaxErr.Offset+3])
}

func TestParse_WrongLayout(t *testing.T) {
	_, err := ParseLayout(compactDump, Vanilla)
	assert.ErrorIs(t, err, parser.ErrStructuralMismatch)

	_, err = ParseLayout(vanillaDump, Compact)
	assert.ErrorIs(t, err, parser.ErrStructuralMismatch)

	_, err = ParseLayout(legacyDump, Vanilla)
	assert.ErrorIs(t, err, parser.ErrStructuralMismatch)

	_, err = ParseLayout(vanillaDump, Legacy)
	assert.ErrorIs(t, err, parser.ErrStructuralMismatch)
}

func TestParse_Legacy(t *testing.T) {
	results, err := Parse(legacyDump)
	require.NoError(t, err)

	assert.Equal(t, Legacy.Name, results.Layout)
	assert.Equal(t, "1.16.5", results.Version)
	assert.Equal(t, int64(5000), results.TimeSpan)
	assert.Equal(t, int64(100), results.TickSpan)
	assert.Equal(t, []string{"tick"}, results.Profiler.Keys())

	require.Equal(t, []string{"ticking", "blocks"}, results.Counters.Keys())
	ticking, _ := results.Counters.Get("ticking")
	assert.Equal(t, "root", ticking.Name)
	assert.Equal(t, int64(5), ticking.TotalSelf)
	assert.Equal(t, int64(12), ticking.TotalTotal)
	assert.Equal(t, int64(6), ticking.AverageTotal)
	assert.Equal(t, []string{"block ticks", "fluids"}, ticking.Children.Keys())

	blocks, _ := results.Counters.Get("blocks")
	assert.Equal(t, int64(1), blocks.TotalSelf)
	assert.Equal(t, 0, blocks.Children.Len())
}

func TestDetectLayout(t *testing.T) {
	assert.Equal(t, Compact, DetectLayout(compactDump))
	assert.Equal(t, Vanilla, DetectLayout(vanillaDump))
	assert.Equal(t, Legacy, DetectLayout(legacyDump))
	assert.Equal(t, Vanilla, DetectLayout("garbage"))
	assert.Equal(t, Vanilla, DetectLayout(header+"\n// no newline"))
}

func TestLayoutByName(t *testing.T) {
	l, ok, err := LayoutByName("Vanilla")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, Vanilla, l)

	l, ok, err = LayoutByName("legacy")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, Legacy, l)

	_, ok, err = LayoutByName("auto")
	require.NoError(t, err)
	assert.False(t, ok)

	_, _, err = LayoutByName("fancy")
	assert.ErrorIs(t, err, parser.ErrUnknownLayout)
}

func TestParser_Parse(t *testing.T) {
	t.Run("detects layout", func(t *testing.T) {
		p := NewParser(nil)
		results, err := p.Parse(context.Background(), strings.NewReader(vanillaDump))
		require.NoError(t, err)
		assert.Equal(t, Vanilla.Name, results.Layout)
	})

	t.Run("forced layout", func(t *testing.T) {
		p := NewParser(&parser.ParseOptions{Layout: "vanilla"})
		_, err := p.Parse(context.Background(), strings.NewReader(compactDump))
		assert.ErrorIs(t, err, parser.ErrStructuralMismatch)
	})

	t.Run("unknown layout", func(t *testing.T) {
		p := NewParser(&parser.ParseOptions{Layout: "fancy"})
		_, err := p.Parse(context.Background(), strings.NewReader(compactDump))
		assert.ErrorIs(t, err, parser.ErrUnknownLayout)
	})

	t.Run("empty input", func(t *testing.T) {
		_, err := NewParser(nil).Parse(context.Background(), strings.NewReader(""))
		assert.ErrorIs(t, err, parser.ErrEmptyInput)
	})

	t.Run("input too large", func(t *testing.T) {
		p := NewParser(&parser.ParseOptions{MaxInputBytes: 10})
		_, err := p.Parse(context.Background(), strings.NewReader(compactDump))
		assert.ErrorIs(t, err, parser.ErrInputTooLarge)
	})

	t.Run("canceled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := NewParser(nil).Parse(ctx, strings.NewReader(compactDump))
		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("metadata", func(t *testing.T) {
		p := NewParser(nil)
		assert.Equal(t, FormatName, p.Name())
		assert.Contains(t, p.SupportedFormats(), "compact")
		assert.Contains(t, p.SupportedFormats(), "legacy")
	})
}
