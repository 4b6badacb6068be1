package formatter

import (
	"fmt"
	"io"
	"strings"

	"github.com/mch-analysis/pkg/model"
)

// CounterFormatter renders the counter trees of a profiler dump.
type CounterFormatter struct{}

// Subjects returns the subjects this formatter renders.
func (f *CounterFormatter) Subjects() []Subject {
	return []Subject{SubjectCounters}
}

// Format writes one indented block per counter tree.
func (f *CounterFormatter) Format(w io.Writer, v interface{}) error {
	r, ok := v.(*model.ProfilerResults)
	if !ok {
		return fmt.Errorf("%w: %T", ErrUnsupportedValue, v)
	}

	ew := &errWriter{w: w}
	if r.Counters.Len() == 0 {
		ew.printf("(no counters)\n")
		return ew.err
	}

	r.WalkCounters(func(path []string, c *model.CounterResult) bool {
		if len(path) == 1 {
			ew.printf("=== Counter: %s ===\n", path[0])
		}
		ew.printf("%s%s  total %d/%d  average %d/%d\n",
			strings.Repeat("  ", len(path)-1), truncateString(c.Name, maxNameWidth),
			c.TotalSelf, c.TotalTotal, c.AverageSelf, c.AverageTotal)
		return true
	})
	return ew.err
}

// FormatSummary returns the root totals per counter tree.
func (f *CounterFormatter) FormatSummary(v interface{}) map[string]interface{} {
	r, ok := v.(*model.ProfilerResults)
	if !ok {
		return nil
	}

	trees := make(map[string]interface{}, r.Counters.Len())
	r.Counters.Range(func(name string, c *model.CounterResult) bool {
		trees[name] = map[string]interface{}{
			"total":   c.TotalTotal,
			"average": c.AverageTotal,
			"nodes":   countNodes(c),
		}
		return true
	})
	return map[string]interface{}{"counters": trees}
}

func countNodes(c *model.CounterResult) int {
	n := 1
	c.Children.Range(func(_ string, child *model.CounterResult) bool {
		n += countNodes(child)
		return true
	})
	return n
}
