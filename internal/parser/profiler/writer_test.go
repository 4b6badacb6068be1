package profiler

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mch-analysis/pkg/model"
)

func TestFormat_VanillaIsByteExact(t *testing.T) {
	results, err := Parse(vanillaDump)
	require.NoError(t, err)

	text, err := Format(results, Vanilla)
	require.NoError(t, err)
	assert.Equal(t, vanillaDump, text)
}

func TestFormat_LegacyIsByteExact(t *testing.T) {
	results, err := Parse(legacyDump)
	require.NoError(t, err)

	text, err := Format(results, Legacy)
	require.NoError(t, err)
	assert.Equal(t, legacyDump, text)
}

func TestFormat_RoundTrip(t *testing.T) {
	for _, src := range []string{compactDump, vanillaDump, legacyDump} {
		original, err := Parse(src)
		require.NoError(t, err)

		for _, layout := range Layouts() {
			t.Run(original.Layout+"->"+layout.Name, func(t *testing.T) {
				text, err := Format(original, layout)
				require.NoError(t, err)
				// Without counters legacy and vanilla output are identical.
				if detected := DetectLayout(text); detected != layout {
					assert.Equal(t, 0, original.Counters.Len(), "detected %s", detected.Name)
					same, err := Format(original, detected)
					require.NoError(t, err)
					assert.Equal(t, text, same)
				}

				reparsed, err := ParseLayout(text, layout)
				require.NoError(t, err)

				reparsed.Layout = original.Layout
				assert.Equal(t, original, reparsed)

				again, err := Format(reparsed, layout)
				require.NoError(t, err)
				assert.Equal(t, text, again)
			})
		}
	}
}

func TestFormat_Empty(t *testing.T) {
	results := model.NewProfilerResults()
	results.Version = "1.0"

	for _, layout := range Layouts() {
		text, err := Format(results, layout)
		require.NoError(t, err)

		back, err := ParseLayout(text, layout)
		require.NoError(t, err)
		assert.Equal(t, 0, back.Profiler.Len())
		assert.Equal(t, []string{"", ""}, back.Comments)
	}
}

func TestFormat_Rejects(t *testing.T) {
	t.Run("multi-line version", func(t *testing.T) {
		results := model.NewProfilerResults()
		results.Version = "1\n2"
		_, err := Format(results, Vanilla)
		assert.Error(t, err)
	})

	t.Run("too deep", func(t *testing.T) {
		results := model.NewProfilerResults()
		parent := model.NewTimeEntry("n", 1, 1, 100, 100)
		results.Profiler.Set("n", parent)
		for i := 0; i < 100; i++ {
			child := model.NewTimeEntry("n", 1, 1, 100, 100)
			parent.Children.Set("n", child)
			parent = child
		}

		_, err := Format(results, Vanilla)
		assert.ErrorIs(t, err, ErrTooDeep)
	})
}

func TestWrite(t *testing.T) {
	results, err := Parse(compactDump)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, results, Compact))
	assert.Contains(t, buf.String(), "[01] |   child(40/40) - 40.00%/40.00%\n")
}
