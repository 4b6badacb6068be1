// Package repository persists imported profiler runs so hot paths can be
// compared across runs.
package repository

import (
	"context"
	"errors"
)

// ErrRunNotFound is returned when no run has the requested ID.
var ErrRunNotFound = errors.New("profile run not found")

// ProfileRepository defines the profile history operations.
type ProfileRepository interface {
	// SaveRun stores the run and its entries, assigning IDs.
	SaveRun(ctx context.Context, run *ProfileRun) error

	// GetRun retrieves a run and its entries in insertion order.
	GetRun(ctx context.Context, id int64) (*ProfileRun, error)

	// ListRuns retrieves the newest runs first, without entries.
	ListRuns(ctx context.Context, limit int) ([]*ProfileRun, error)

	// FindByDigest retrieves the newest run imported from identical dump bytes.
	FindByDigest(ctx context.Context, digest string) (*ProfileRun, error)

	// EntryHistory returns the values of one path across the latest runs, oldest first.
	EntryHistory(ctx context.Context, path string, limit int) ([]HistoryPoint, error)

	// DeleteRun removes a run and its entries.
	DeleteRun(ctx context.Context, id int64) error
}
