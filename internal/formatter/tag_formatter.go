package formatter

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/mch-analysis/pkg/nbt"
)

// TagFormatter renders a tag tree in stringified notation (SNBT).
type TagFormatter struct {
	// Indent is the per-level indentation. Empty renders on one line.
	Indent string
}

// Subjects returns the subjects this formatter renders.
func (f *TagFormatter) Subjects() []Subject {
	return []Subject{SubjectTag}
}

// Format writes the SNBT rendering of v followed by a newline.
func (f *TagFormatter) Format(w io.Writer, v interface{}) error {
	t, ok := v.(nbt.Tag)
	if !ok || t == nil {
		return fmt.Errorf("%w: %T", ErrUnsupportedValue, v)
	}
	_, err := io.WriteString(w, FormatSNBT(t, f.Indent)+"\n")
	return err
}

// FormatSummary returns the root type, entry count and nesting depth.
func (f *TagFormatter) FormatSummary(v interface{}) map[string]interface{} {
	t, ok := v.(nbt.Tag)
	if !ok || t == nil {
		return nil
	}

	summary := map[string]interface{}{
		"type":  t.Type().String(),
		"depth": tagDepth(t),
		"tags":  countTags(t),
	}
	if c, ok := t.(*nbt.Compound); ok {
		summary["keys"] = c.Keys()
	}
	return summary
}

// FormatSNBT renders t in stringified notation, indenting nested values by indent.
func FormatSNBT(t nbt.Tag, indent string) string {
	var b strings.Builder
	writeSNBT(&b, t, indent, 0)
	return b.String()
}

func writeSNBT(b *strings.Builder, t nbt.Tag, indent string, depth int) {
	switch v := t.(type) {
	case nbt.End:
		b.WriteString("END")
	case nbt.Byte:
		b.WriteString(strconv.FormatInt(int64(v), 10) + "b")
	case nbt.Short:
		b.WriteString(strconv.FormatInt(int64(v), 10) + "s")
	case nbt.Int:
		b.WriteString(strconv.FormatInt(int64(v), 10))
	case nbt.Long:
		b.WriteString(strconv.FormatInt(int64(v), 10) + "L")
	case nbt.Float:
		b.WriteString(formatFloat(float64(v), 32) + "f")
	case nbt.Double:
		b.WriteString(formatFloat(float64(v), 64) + "d")
	case nbt.String:
		b.WriteString(quoteSNBT(string(v)))
	case nbt.ByteArray:
		b.WriteString("[B;")
		for i, e := range v {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(strconv.FormatInt(int64(e), 10) + "B")
		}
		b.WriteByte(']')
	case nbt.IntArray:
		b.WriteString("[I;")
		for i, e := range v {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(strconv.FormatInt(int64(e), 10))
		}
		b.WriteByte(']')
	case nbt.LongArray:
		b.WriteString("[L;")
		for i, e := range v {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(strconv.FormatInt(e, 10) + "L")
		}
		b.WriteByte(']')
	case *nbt.List:
		if v.Len() == 0 {
			b.WriteString("[]")
			return
		}
		b.WriteByte('[')
		for i := 0; i < v.Len(); i++ {
			if i > 0 {
				b.WriteByte(',')
			}
			newline(b, indent, depth+1)
			writeSNBT(b, v.At(i), indent, depth+1)
		}
		newline(b, indent, depth)
		b.WriteByte(']')
	case *nbt.Compound:
		if v.Len() == 0 {
			b.WriteString("{}")
			return
		}
		b.WriteByte('{')
		first := true
		v.Range(func(name string, child nbt.Tag) bool {
			if !first {
				b.WriteByte(',')
			}
			first = false
			newline(b, indent, depth+1)
			b.WriteString(snbtKey(name))
			b.WriteByte(':')
			if indent != "" {
				b.WriteByte(' ')
			}
			writeSNBT(b, child, indent, depth+1)
			return true
		})
		newline(b, indent, depth)
		b.WriteByte('}')
	default:
		fmt.Fprintf(b, "<%T>", t)
	}
}

func newline(b *strings.Builder, indent string, depth int) {
	if indent == "" {
		return
	}
	b.WriteByte('\n')
	b.WriteString(strings.Repeat(indent, depth))
}

func formatFloat(v float64, bits int) string {
	switch {
	case math.IsNaN(v):
		return "NaN"
	case math.IsInf(v, 1):
		return "Infinity"
	case math.IsInf(v, -1):
		return "-Infinity"
	}
	s := strconv.FormatFloat(v, 'g', -1, bits)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}

func snbtKey(name string) string {
	if name == "" {
		return `""`
	}
	for _, r := range name {
		if !isBareChar(r) {
			return quoteSNBT(name)
		}
	}
	return name
}

func isBareChar(r rune) bool {
	return r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' ||
		r == '_' || r == '-' || r == '.' || r == '+'
}

func quoteSNBT(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"', '\\':
			b.WriteByte('\\')
			b.WriteRune(r)
		case '\n':
			b.WriteString(`\n`)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}

func tagDepth(t nbt.Tag) int {
	switch v := t.(type) {
	case *nbt.List:
		deepest := 0
		for i := 0; i < v.Len(); i++ {
			if d := tagDepth(v.At(i)); d > deepest {
				deepest = d
			}
		}
		return deepest + 1
	case *nbt.Compound:
		deepest := 0
		v.Range(func(_ string, child nbt.Tag) bool {
			if d := tagDepth(child); d > deepest {
				deepest = d
			}
			return true
		})
		return deepest + 1
	default:
		return 0
	}
}

func countTags(t nbt.Tag) int {
	n := 1
	switch v := t.(type) {
	case *nbt.List:
		for i := 0; i < v.Len(); i++ {
			n += countTags(v.At(i))
		}
	case *nbt.Compound:
		v.Range(func(_ string, child nbt.Tag) bool {
			n += countTags(child)
			return true
		})
	}
	return n
}
