// Package model defines the core data structures used throughout the application.
package model

import (
	"encoding/json"

	"github.com/mch-analysis/pkg/collections"
)

// ResultKind distinguishes the two entry shapes of the profile tree.
type ResultKind int

const (
	KindTime    ResultKind = 0 // name(total/avg) - pct%/global%
	KindCounter ResultKind = 1 // #name total/avg
)

// String returns the string representation of ResultKind.
func (k ResultKind) String() string {
	switch k {
	case KindTime:
		return "time"
	case KindCounter:
		return "counter"
	default:
		return "unknown"
	}
}

// ProfilerResults is one parsed profiler dump.
type ProfilerResults struct {
	Version  string   `json:"version"`
	TimeSpan int64    `json:"time_span_ms"`
	TickSpan int64    `json:"tick_span"`
	Comments []string `json:"comments,omitempty"`
	// Layout names the dump layout the results were read from.
	Layout   string                                          `json:"layout,omitempty"`
	Profiler *collections.OrderedMap[string, ProfilerResult] `json:"profiler"`
	Counters *collections.OrderedMap[string, *CounterResult] `json:"counters"`
}

// NewProfilerResults creates results with empty entry and counter maps.
func NewProfilerResults() *ProfilerResults {
	return &ProfilerResults{
		Profiler: collections.NewOrderedMap[string, ProfilerResult](0),
		Counters: collections.NewOrderedMap[string, *CounterResult](0),
	}
}

// ProfilerResult is an entry of the profile tree: *TimeEntry or *CounterEntry.
type ProfilerResult interface {
	GetName() string
	Kind() ResultKind
	isProfilerResult()
}

// CounterEntry is a leaf tally inside the profile tree.
type CounterEntry struct {
	Name         string `json:"name"`
	TotalCount   int64  `json:"total_count"`
	AverageCount int64  `json:"average_count"`
}

func (e *CounterEntry) GetName() string   { return e.Name }
func (e *CounterEntry) Kind() ResultKind  { return KindCounter }
func (e *CounterEntry) isProfilerResult() {}

// MarshalJSON adds the entry kind.
func (e *CounterEntry) MarshalJSON() ([]byte, error) {
	type plain CounterEntry
	return json.Marshal(struct {
		Kind string `json:"kind"`
		*plain
	}{Kind: KindCounter.String(), plain: (*plain)(e)})
}

// TimeEntry is a timing node. Percentage is the share of the parent's time,
// GlobalPercentage the share of the whole run.
type TimeEntry struct {
	Name             string                                          `json:"name"`
	TotalCount       int64                                           `json:"total_count"`
	AverageCount     int64                                           `json:"average_count"`
	Percentage       float64                                         `json:"percentage"`
	GlobalPercentage float64                                         `json:"global_percentage"`
	Children         *collections.OrderedMap[string, ProfilerResult] `json:"children,omitempty"`
}

// NewTimeEntry creates a timing node with no children.
func NewTimeEntry(name string, total, average int64, pct, globalPct float64) *TimeEntry {
	return &TimeEntry{
		Name:             name,
		TotalCount:       total,
		AverageCount:     average,
		Percentage:       pct,
		GlobalPercentage: globalPct,
		Children:         collections.NewOrderedMap[string, ProfilerResult](0),
	}
}

func (e *TimeEntry) GetName() string   { return e.Name }
func (e *TimeEntry) Kind() ResultKind  { return KindTime }
func (e *TimeEntry) isProfilerResult() {}

// MarshalJSON adds the entry kind and drops an empty child map.
func (e *TimeEntry) MarshalJSON() ([]byte, error) {
	type plain TimeEntry
	out := struct {
		Kind string `json:"kind"`
		*plain
	}{Kind: KindTime.String(), plain: (*plain)(e)}
	if e.Children.Len() == 0 {
		cp := *e
		cp.Children = nil
		out.plain = (*plain)(&cp)
	}
	return json.Marshal(out)
}

// CounterResult is a node of a counter tree. Self values exclude descendants,
// total values include them.
type CounterResult struct {
	Name         string                                          `json:"name"`
	TotalSelf    int64                                           `json:"total_self"`
	TotalTotal   int64                                           `json:"total_total"`
	AverageSelf  int64                                           `json:"average_self"`
	AverageTotal int64                                           `json:"average_total"`
	Children     *collections.OrderedMap[string, *CounterResult] `json:"children,omitempty"`
}

// NewCounterResult creates a counter node with no children.
func NewCounterResult(name string, totalSelf, totalTotal, avgSelf, avgTotal int64) *CounterResult {
	return &CounterResult{
		Name:         name,
		TotalSelf:    totalSelf,
		TotalTotal:   totalTotal,
		AverageSelf:  avgSelf,
		AverageTotal: avgTotal,
		Children:     collections.NewOrderedMap[string, *CounterResult](0),
	}
}

// Walk visits every profile entry depth-first in discovery order. path holds the
// names of the ancestors followed by the entry itself. Returning false from fn skips
// the entry's children.
func (r *ProfilerResults) Walk(fn func(path []string, entry ProfilerResult) bool) {
	walkEntries(r.Profiler, nil, fn)
}

func walkEntries(m *collections.OrderedMap[string, ProfilerResult], parent []string, fn func([]string, ProfilerResult) bool) {
	m.Range(func(name string, entry ProfilerResult) bool {
		path := append(append(make([]string, 0, len(parent)+1), parent...), name)
		if !fn(path, entry) {
			return true
		}
		if te, ok := entry.(*TimeEntry); ok {
			walkEntries(te.Children, path, fn)
		}
		return true
	})
}

// WalkCounters visits every counter node depth-first in discovery order.
func (r *ProfilerResults) WalkCounters(fn func(path []string, c *CounterResult) bool) {
	walkCounters(r.Counters, nil, fn)
}

func walkCounters(m *collections.OrderedMap[string, *CounterResult], parent []string, fn func([]string, *CounterResult) bool) {
	m.Range(func(name string, c *CounterResult) bool {
		path := append(append(make([]string, 0, len(parent)+1), parent...), name)
		if fn(path, c) {
			walkCounters(c.Children, path, fn)
		}
		return true
	})
}

// Find returns the profile entry at the given path of names.
func (r *ProfilerResults) Find(path ...string) (ProfilerResult, bool) {
	if len(path) == 0 {
		return nil, false
	}
	level := r.Profiler
	var entry ProfilerResult
	for i, name := range path {
		var ok bool
		entry, ok = level.Get(name)
		if !ok {
			return nil, false
		}
		if i == len(path)-1 {
			break
		}
		te, ok := entry.(*TimeEntry)
		if !ok {
			return nil, false
		}
		level = te.Children
	}
	return entry, true
}
