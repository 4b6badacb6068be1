package profiler

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/mch-analysis/pkg/model"
)

// maxIndent is the deepest level the two-digit indent prefix can express.
const maxIndent = 99

// ErrTooDeep is returned when a tree is nested deeper than the indent prefix allows.
var ErrTooDeep = errors.New("profile tree nested deeper than 99 levels")

// Write renders results as a profiler dump in the given layout.
func Write(w io.Writer, r *model.ProfilerResults, layout Layout) error {
	text, err := Format(r, layout)
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, text)
	return err
}

// Format renders results as a profiler dump in the given layout. Percentages are
// written with two decimals.
func Format(r *model.ProfilerResults, layout Layout) (string, error) {
	if strings.ContainsRune(r.Version, '\n') {
		return "", fmt.Errorf("version %q spans lines", r.Version)
	}
	comments := [2]string{}
	copy(comments[:], r.Comments)
	for _, c := range comments {
		if strings.ContainsRune(c, '\n') {
			return "", fmt.Errorf("comment %q spans lines", c)
		}
	}

	var b strings.Builder
	commentEnd := "\n"
	if layout.BlankAfterComments {
		commentEnd = "\n\n"
	}

	b.WriteString(header + "\n")
	b.WriteString(commentPrefix + comments[0] + commentEnd)
	b.WriteString(versionPrefix + r.Version + "\n")
	b.WriteString(timeSpanPrefix + strconv.FormatInt(r.TimeSpan, 10) + timeSpanSuffix)
	b.WriteString(tickSpanPrefix + strconv.FormatInt(r.TickSpan, 10) + tickSpanSuffix)
	b.WriteString(commentPrefix + comments[1] + commentEnd)

	b.WriteString(beginProfile)
	var err error
	r.Profiler.Range(func(_ string, entry model.ProfilerResult) bool {
		err = writeEntry(&b, 0, entry)
		return err == nil
	})
	if err != nil {
		return "", err
	}
	if layout.BlankBeforeProfileEnd && r.Profiler.Len() > 0 {
		b.WriteString("\n")
	}
	b.WriteString(endProfile)

	b.WriteString(beginCounters)
	r.Counters.Range(func(name string, tree *model.CounterResult) bool {
		b.WriteString(counterPrefix + name + counterSuffix + "\n")
		if err = writeCounter(&b, 0, tree); err != nil {
			return false
		}
		// the last counter line already ended with a newline
		b.WriteString(strings.TrimPrefix(layout.CounterSeparator, "\n"))
		return true
	})
	if err != nil {
		return "", err
	}
	b.WriteString(endCounters)
	return b.String(), nil
}

func writeIndent(b *strings.Builder, indent int) error {
	if indent > maxIndent {
		return ErrTooDeep
	}
	fmt.Fprintf(b, "[%02d] ", indent)
	b.WriteString(strings.Repeat(indentMarker, indent))
	return nil
}

func writeEntry(b *strings.Builder, indent int, entry model.ProfilerResult) error {
	if err := writeIndent(b, indent); err != nil {
		return err
	}
	switch e := entry.(type) {
	case *model.CounterEntry:
		fmt.Fprintf(b, "%c%s %d/%d\n", counterLeafMark, e.Name, e.TotalCount, e.AverageCount)
		return nil
	case *model.TimeEntry:
		fmt.Fprintf(b, "%s(%d/%d) - %.2f%%/%.2f%%\n", e.Name, e.TotalCount, e.AverageCount, e.Percentage, e.GlobalPercentage)
		var err error
		e.Children.Range(func(_ string, child model.ProfilerResult) bool {
			err = writeEntry(b, indent+1, child)
			return err == nil
		})
		return err
	default:
		return fmt.Errorf("unsupported profile entry %T", entry)
	}
}

func writeCounter(b *strings.Builder, indent int, c *model.CounterResult) error {
	if err := writeIndent(b, indent); err != nil {
		return err
	}
	fmt.Fprintf(b, "%s %s%d/%d %s %d/%d\n", c.Name, totalTokenPrefix, c.TotalSelf, c.TotalTotal, averageToken, c.AverageSelf, c.AverageTotal)
	var err error
	c.Children.Range(func(_ string, child *model.CounterResult) bool {
		err = writeCounter(b, indent+1, child)
		return err == nil
	})
	return err
}
