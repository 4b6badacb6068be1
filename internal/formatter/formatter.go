// Package formatter renders decoded profiler results and tag documents for humans.
package formatter

import (
	"errors"
	"fmt"
	"io"
	"sort"
)

// Subject identifies what a formatter renders.
type Subject string

const (
	// SubjectProfile is the timing tree of a profiler dump.
	SubjectProfile Subject = "profile"
	// SubjectCounters is the counter trees of a profiler dump.
	SubjectCounters Subject = "counters"
	// SubjectTag is a binary tag document.
	SubjectTag Subject = "nbt"
)

// ErrUnsupportedValue is returned when a formatter is given a value it cannot render.
var ErrUnsupportedValue = errors.New("unsupported value for formatter")

// ResultFormatter is the interface for formatting decoded results.
type ResultFormatter interface {
	// Format writes a text rendering of v to w.
	Format(w io.Writer, v interface{}) error

	// FormatSummary returns a summary map for serialization.
	FormatSummary(v interface{}) map[string]interface{}

	// Subjects returns the subjects this formatter renders.
	Subjects() []Subject
}

// Registry manages formatter instances.
type Registry struct {
	formatters map[Subject]ResultFormatter
}

// NewRegistry creates a new formatter registry with default formatters.
func NewRegistry() *Registry {
	r := &Registry{
		formatters: make(map[Subject]ResultFormatter),
	}

	r.Register(&ProfileFormatter{TopN: DefaultTopN})
	r.Register(&CounterFormatter{})
	r.Register(&TagFormatter{Indent: "  "})

	return r
}

// Register registers a formatter.
func (r *Registry) Register(f ResultFormatter) {
	for _, s := range f.Subjects() {
		r.formatters[s] = f
	}
}

// Get returns the formatter for a subject.
func (r *Registry) Get(subject Subject) (ResultFormatter, bool) {
	f, ok := r.formatters[subject]
	return f, ok
}

// Subjects returns the registered subjects in name order.
func (r *Registry) Subjects() []Subject {
	out := make([]Subject, 0, len(r.formatters))
	for s := range r.formatters {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Format renders v with the formatter registered for subject.
func (r *Registry) Format(subject Subject, w io.Writer, v interface{}) error {
	f, ok := r.Get(subject)
	if !ok {
		return fmt.Errorf("no formatter for subject %q", subject)
	}
	return f.Format(w, v)
}

// FormatSummary returns a summary map using the formatter registered for subject.
func (r *Registry) FormatSummary(subject Subject, v interface{}) map[string]interface{} {
	f, ok := r.Get(subject)
	if !ok {
		return nil
	}
	return f.FormatSummary(v)
}

func truncateString(s string, maxLen int) string {
	r := []rune(s)
	if maxLen <= 3 || len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen-3]) + "..."
}
