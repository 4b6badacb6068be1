package repository

import (
	"strings"
	"time"

	"github.com/mch-analysis/pkg/model"
)

// ProfileRun represents the profile_runs table: one imported profiler dump.
type ProfileRun struct {
	ID           int64          `gorm:"column:id;primaryKey;autoIncrement"`
	Name         string         `gorm:"column:name;type:varchar(255);index"`
	Digest       string         `gorm:"column:digest;type:varchar(64);index"`
	Version      string         `gorm:"column:version;type:varchar(64)"`
	Layout       string         `gorm:"column:layout;type:varchar(16)"`
	TimeSpanMS   int64          `gorm:"column:time_span_ms"`
	TickSpan     int64          `gorm:"column:tick_span"`
	EntryCount   int            `gorm:"column:entry_count"`
	CounterCount int            `gorm:"column:counter_count"`
	StorageKey   string         `gorm:"column:storage_key;type:varchar(512)"`
	CreatedAt    time.Time      `gorm:"column:created_at;index"`
	Entries      []ProfileEntry `gorm:"foreignKey:RunID;constraint:OnDelete:CASCADE"`
}

// TableName returns the table name for ProfileRun.
func (ProfileRun) TableName() string {
	return "profile_runs"
}

// ProfileEntry represents the profile_entries table: one flattened node of
// a run's profile tree or counter trees.
type ProfileEntry struct {
	ID               int64   `gorm:"column:id;primaryKey;autoIncrement"`
	RunID            int64   `gorm:"column:run_id;index:idx_entry_run_path,priority:1"`
	Path             string  `gorm:"column:path;type:varchar(1024);index:idx_entry_run_path,priority:2;index:idx_entry_path"`
	Name             string  `gorm:"column:name;type:varchar(255)"`
	Kind             string  `gorm:"column:kind;type:varchar(16)"`
	Depth            int     `gorm:"column:depth"`
	TotalCount       int64   `gorm:"column:total_count"`
	AverageCount     int64   `gorm:"column:average_count"`
	Percentage       float64 `gorm:"column:percentage"`
	GlobalPercentage float64 `gorm:"column:global_percentage"`
	SelfPercentage   float64 `gorm:"column:self_percentage"`
}

// TableName returns the table name for ProfileEntry.
func (ProfileEntry) TableName() string {
	return "profile_entries"
}

// Entry kinds stored in profile_entries.kind. Counter-tree nodes use their
// total values for TotalCount/AverageCount.
const (
	EntryKindTime         = "time"
	EntryKindCounter      = "counter"
	EntryKindCounterTotal = "counter_tree"
)

// CounterPathPrefix prefixes paths of counter-tree nodes so they never
// collide with profile paths.
const CounterPathPrefix = "#"

// HistoryPoint is the value of one profile path in one run.
type HistoryPoint struct {
	RunID            int64     `json:"run_id"`
	RunName          string    `json:"run_name"`
	CreatedAt        time.Time `json:"created_at"`
	TotalCount       int64     `json:"total_count"`
	AverageCount     int64     `json:"average_count"`
	Percentage       float64   `json:"percentage"`
	GlobalPercentage float64   `json:"global_percentage"`
}

// NewProfileRun flattens parsed results into a run with one entry per node.
func NewProfileRun(name string, results *model.ProfilerResults, createdAt time.Time) *ProfileRun {
	run := &ProfileRun{
		Name:       name,
		Version:    results.Version,
		Layout:     results.Layout,
		TimeSpanMS: results.TimeSpan,
		TickSpan:   results.TickSpan,
		CreatedAt:  createdAt,
	}

	self := make(map[string]float64)
	for _, h := range model.TopHotspots(results, 0) {
		self[h.Path] = h.SelfPercentage
	}

	results.Walk(func(path []string, entry model.ProfilerResult) bool {
		key := strings.Join(path, model.PathSeparator)
		e := ProfileEntry{
			Path:  key,
			Name:  entry.GetName(),
			Depth: len(path) - 1,
		}
		switch v := entry.(type) {
		case *model.TimeEntry:
			e.Kind = EntryKindTime
			e.TotalCount = v.TotalCount
			e.AverageCount = v.AverageCount
			e.Percentage = v.Percentage
			e.GlobalPercentage = v.GlobalPercentage
			e.SelfPercentage = self[key]
		case *model.CounterEntry:
			e.Kind = EntryKindCounter
			e.TotalCount = v.TotalCount
			e.AverageCount = v.AverageCount
		}
		run.Entries = append(run.Entries, e)
		return true
	})
	run.EntryCount = len(run.Entries)

	results.WalkCounters(func(path []string, c *model.CounterResult) bool {
		run.Entries = append(run.Entries, ProfileEntry{
			Path:         CounterPathPrefix + strings.Join(path, model.PathSeparator),
			Name:         c.Name,
			Kind:         EntryKindCounterTotal,
			Depth:        len(path) - 1,
			TotalCount:   c.TotalTotal,
			AverageCount: c.AverageTotal,
		})
		return true
	})
	run.CounterCount = len(run.Entries) - run.EntryCount

	return run
}
