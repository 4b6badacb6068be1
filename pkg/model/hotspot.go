package model

import (
	"sort"
	"strings"
)

// Hotspot is a flattened timing entry, used for top-N listings.
type Hotspot struct {
	Path             string  `json:"path"`
	Name             string  `json:"name"`
	Depth            int     `json:"depth"`
	TotalCount       int64   `json:"total_count"`
	AverageCount     int64   `json:"average_count"`
	Percentage       float64 `json:"percentage"`
	GlobalPercentage float64 `json:"global_percentage"`
	// SelfPercentage is the global share not accounted for by timing children.
	SelfPercentage float64 `json:"self_percentage"`
}

// PathSeparator joins entry names into a Hotspot path.
const PathSeparator = "."

// TopHotspots returns the n timing entries with the largest self share of the run,
// ties broken by path. n <= 0 returns all of them.
func TopHotspots(r *ProfilerResults, n int) []Hotspot {
	var out []Hotspot
	r.Walk(func(path []string, entry ProfilerResult) bool {
		te, ok := entry.(*TimeEntry)
		if !ok {
			return false
		}
		childShare := 0.0
		te.Children.Range(func(_ string, c ProfilerResult) bool {
			if ct, ok := c.(*TimeEntry); ok {
				childShare += ct.GlobalPercentage
			}
			return true
		})
		self := te.GlobalPercentage - childShare
		if self < 0 {
			self = 0
		}
		out = append(out, Hotspot{
			Path:             strings.Join(path, PathSeparator),
			Name:             te.Name,
			Depth:            len(path) - 1,
			TotalCount:       te.TotalCount,
			AverageCount:     te.AverageCount,
			Percentage:       te.Percentage,
			GlobalPercentage: te.GlobalPercentage,
			SelfPercentage:   self,
		})
		return true
	})

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].SelfPercentage != out[j].SelfPercentage {
			return out[i].SelfPercentage > out[j].SelfPercentage
		}
		return out[i].Path < out[j].Path
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}
