package profiler

import (
	"fmt"
	"strings"

	"github.com/mch-analysis/internal/parser"
)

// Layout captures the whitespace differences between dump producers. The literal
// grammar is the same for every layout.
type Layout struct {
	Name string
	// BlankAfterComments expects an empty line after each "// " comment line.
	BlankAfterComments bool
	// BlankBeforeProfileEnd expects an empty line between the last timing entry and
	// "--- END PROFILE DUMP ---".
	BlankBeforeProfileEnd bool
	// CounterSeparator follows the last line of each counter tree, including that
	// line's own newline.
	CounterSeparator string
}

var (
	// Vanilla is the layout written by the game server.
	Vanilla = Layout{
		Name:                  "vanilla",
		BlankAfterComments:    true,
		BlankBeforeProfileEnd: false,
		CounterSeparator:      "\n\n\n",
	}

	// Legacy is the vanilla layout with counter trees packed back to back: no
	// blank lines between trees or before "--- END COUNTER DUMP ---". Older
	// harness builds read and wrote dumps this way.
	Legacy = Layout{
		Name:                  "legacy",
		BlankAfterComments:    true,
		BlankBeforeProfileEnd: false,
		CounterSeparator:      "\n",
	}

	// Compact is the tighter layout without blank lines after comments.
	Compact = Layout{
		Name:                  "compact",
		BlankAfterComments:    false,
		BlankBeforeProfileEnd: true,
		CounterSeparator:      "\n\n",
	}
)

// Layouts returns every known layout.
func Layouts() []Layout {
	return []Layout{Vanilla, Legacy, Compact}
}

// LayoutByName looks up a layout. An empty name or "auto" returns ok=false and no
// error, meaning the caller should detect the layout.
func LayoutByName(name string) (layout Layout, ok bool, err error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "auto":
		return Layout{}, false, nil
	case Vanilla.Name:
		return Vanilla, true, nil
	case Legacy.Name:
		return Legacy, true, nil
	case Compact.Name:
		return Compact, true, nil
	default:
		return Layout{}, false, fmt.Errorf("%w: %q", parser.ErrUnknownLayout, name)
	}
}

// DetectLayout inspects the line after the first comment: a "Version: " line means
// Compact. Otherwise the counter section decides: counter trees that run straight
// into "--- END COUNTER DUMP ---" mean Legacy, anything else Vanilla. Without
// counters the two are byte-identical and Vanilla is reported. Unrecognized input
// falls back to Vanilla and is left for the parser to reject.
func DetectLayout(text string) Layout {
	rest, ok := strings.CutPrefix(text, header+"\n")
	if !ok {
		return Vanilla
	}
	nl := strings.IndexByte(rest, '\n')
	if nl < 0 {
		return Vanilla
	}
	rest = rest[nl+1:]
	if strings.HasPrefix(rest, versionPrefix) {
		return Compact
	}
	if packedCounters(text) {
		return Legacy
	}
	return Vanilla
}

// packedCounters reports whether the counter section holds at least one tree and
// its last line is followed directly by the end marker.
func packedCounters(text string) bool {
	end := strings.LastIndex(text, endCounters)
	if end < 0 {
		return false
	}
	before := text[:end]
	if strings.HasSuffix(before, beginCounters) {
		return false
	}
	return strings.HasSuffix(before, "\n") && !strings.HasSuffix(before, "\n\n")
}
