package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// entryBatchSize bounds the rows per INSERT when saving run entries.
const entryBatchSize = 500

// GormProfileRepository implements ProfileRepository using GORM.
type GormProfileRepository struct {
	db *gorm.DB
}

// NewGormProfileRepository creates a new GormProfileRepository.
func NewGormProfileRepository(db *gorm.DB) *GormProfileRepository {
	return &GormProfileRepository{db: db}
}

// SaveRun stores the run row and then its entries in one transaction.
func (r *GormProfileRepository) SaveRun(ctx context.Context, run *ProfileRun) error {
	if run == nil {
		return fmt.Errorf("run is nil")
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Entries").Create(run).Error; err != nil {
			return fmt.Errorf("failed to save run: %w", err)
		}

		if len(run.Entries) == 0 {
			return nil
		}
		for i := range run.Entries {
			run.Entries[i].ID = 0
			run.Entries[i].RunID = run.ID
		}
		if err := tx.CreateInBatches(run.Entries, entryBatchSize).Error; err != nil {
			return fmt.Errorf("failed to save entries of run %d: %w", run.ID, err)
		}
		return nil
	})
}

// GetRun retrieves a run by its ID, entries included.
func (r *GormProfileRepository) GetRun(ctx context.Context, id int64) (*ProfileRun, error) {
	var run ProfileRun

	err := r.db.WithContext(ctx).
		Preload("Entries", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Where("id = ?", id).
		First(&run).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %d", ErrRunNotFound, id)
		}
		return nil, fmt.Errorf("failed to get run: %w", err)
	}

	return &run, nil
}

// ListRuns retrieves the newest runs first. limit <= 0 lists all of them.
func (r *GormProfileRepository) ListRuns(ctx context.Context, limit int) ([]*ProfileRun, error) {
	var runs []*ProfileRun

	q := r.db.WithContext(ctx).Order("created_at DESC").Order("id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&runs).Error; err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}

	return runs, nil
}

// FindByDigest retrieves the newest run with the given dump digest.
func (r *GormProfileRepository) FindByDigest(ctx context.Context, digest string) (*ProfileRun, error) {
	var run ProfileRun

	err := r.db.WithContext(ctx).
		Where("digest = ?", digest).
		Order("id DESC").
		First(&run).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: digest %s", ErrRunNotFound, digest)
		}
		return nil, fmt.Errorf("failed to find run: %w", err)
	}

	return &run, nil
}

// EntryHistory returns the values of path in the latest runs that contain it,
// oldest first. limit <= 0 returns every run.
func (r *GormProfileRepository) EntryHistory(ctx context.Context, path string, limit int) ([]HistoryPoint, error) {
	var points []HistoryPoint

	q := r.db.WithContext(ctx).
		Table("profile_entries AS e").
		Select("e.run_id, r.name AS run_name, r.created_at, e.total_count, e.average_count, e.percentage, e.global_percentage").
		Joins("JOIN profile_runs AS r ON r.id = e.run_id").
		Where("e.path = ?", path).
		Order("r.created_at DESC").
		Order("r.id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Scan(&points).Error; err != nil {
		return nil, fmt.Errorf("failed to query history of %q: %w", path, err)
	}

	for i, j := 0, len(points)-1; i < j; i, j = i+1, j-1 {
		points[i], points[j] = points[j], points[i]
	}
	return points, nil
}

// DeleteRun removes a run and its entries.
func (r *GormProfileRepository) DeleteRun(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("run_id = ?", id).Delete(&ProfileEntry{}).Error; err != nil {
			return fmt.Errorf("failed to delete entries of run %d: %w", id, err)
		}

		res := tx.Where("id = ?", id).Delete(&ProfileRun{})
		if res.Error != nil {
			return fmt.Errorf("failed to delete run: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: %d", ErrRunNotFound, id)
		}
		return nil
	})
}
