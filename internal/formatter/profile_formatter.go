package formatter

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"

	"github.com/mch-analysis/pkg/model"
)

// DefaultTopN is the number of hotspots listed by default.
const DefaultTopN = 10

const maxNameWidth = 80

// ProfileFormatter renders the timing tree of a profiler dump.
type ProfileFormatter struct {
	// TopN is the number of hotspots listed after the tree. Zero lists none.
	TopN int
}

// Subjects returns the subjects this formatter renders.
func (f *ProfileFormatter) Subjects() []Subject {
	return []Subject{SubjectProfile}
}

// Format writes the header, the indented timing tree and the hotspot table.
func (f *ProfileFormatter) Format(w io.Writer, v interface{}) error {
	r, ok := v.(*model.ProfilerResults)
	if !ok {
		return fmt.Errorf("%w: %T", ErrUnsupportedValue, v)
	}

	ew := &errWriter{w: w}
	ew.printf("=== Profiler Results ===\n")
	ew.printf("Version:    %s\n", r.Version)
	ew.printf("Time span:  %d ms\n", r.TimeSpan)
	ew.printf("Tick span:  %d ticks\n", r.TickSpan)
	ew.printf("Layout:     %s\n", r.Layout)
	ew.printf("\n=== Timings ===\n")

	r.Walk(func(path []string, entry model.ProfilerResult) bool {
		pad := strings.Repeat("  ", len(path)-1)
		switch e := entry.(type) {
		case *model.TimeEntry:
			ew.printf("%s%s  %6.2f%% %6.2f%%  (%d/%d)\n",
				pad, truncateString(e.Name, maxNameWidth), e.Percentage, e.GlobalPercentage, e.TotalCount, e.AverageCount)
		case *model.CounterEntry:
			ew.printf("%s#%s  %d/%d\n", pad, truncateString(e.Name, maxNameWidth), e.TotalCount, e.AverageCount)
		}
		return true
	})
	if ew.err != nil {
		return ew.err
	}

	if f.TopN <= 0 {
		return nil
	}
	hotspots := model.TopHotspots(r, f.TopN)
	if len(hotspots) == 0 {
		return nil
	}
	ew.printf("\n=== Top Hotspots ===\n")
	if ew.err != nil {
		return ew.err
	}
	return WriteHotspotTable(w, hotspots)
}

// WriteHotspotTable writes hotspots as an aligned table.
func WriteHotspotTable(w io.Writer, hotspots []model.Hotspot) error {
	table := tablewriter.NewWriter(w)
	table.Header("#", "Self %", "Global %", "Total", "Path")
	for i, h := range hotspots {
		row := []string{
			strconv.Itoa(i + 1),
			fmt.Sprintf("%.2f", h.SelfPercentage),
			fmt.Sprintf("%.2f", h.GlobalPercentage),
			strconv.FormatInt(h.TotalCount, 10),
			truncateString(h.Path, maxNameWidth),
		}
		if err := table.Append(row); err != nil {
			return fmt.Errorf("failed to append hotspot row: %w", err)
		}
	}
	return table.Render()
}

// FormatSummary returns a summary map for serialization.
func (f *ProfileFormatter) FormatSummary(v interface{}) map[string]interface{} {
	r, ok := v.(*model.ProfilerResults)
	if !ok {
		return nil
	}

	timings, counters := 0, 0
	r.Walk(func(_ []string, entry model.ProfilerResult) bool {
		if entry.Kind() == model.KindTime {
			timings++
		} else {
			counters++
		}
		return true
	})

	summary := map[string]interface{}{
		"version":        r.Version,
		"time_span_ms":   r.TimeSpan,
		"tick_span":      r.TickSpan,
		"layout":         r.Layout,
		"timing_entries": timings,
		"counter_marks":  counters,
		"counter_trees":  r.Counters.Len(),
	}
	if f.TopN > 0 {
		summary["top_hotspots"] = model.TopHotspots(r, f.TopN)
	}
	return summary
}

type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) printf(format string, args ...interface{}) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintf(ew.w, format, args...)
}
