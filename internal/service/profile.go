package service

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"github.com/mch-analysis/internal/formatter"
	"github.com/mch-analysis/internal/parser"
	"github.com/mch-analysis/internal/parser/profiler"
	"github.com/mch-analysis/internal/repository"
	"github.com/mch-analysis/internal/storage"
	apperrors "github.com/mch-analysis/pkg/errors"
	"github.com/mch-analysis/pkg/model"
	"github.com/mch-analysis/pkg/parallel"
	"github.com/mch-analysis/pkg/telemetry"
)

// ParseReport parses a profiler dump. An empty layout uses the configured one.
func (s *Service) ParseReport(ctx context.Context, r io.Reader, layout string) (results *model.ProfilerResults, err error) {
	ctx, span := telemetry.StartSpan(ctx, "service.ParseReport", attribute.String("layout", layout))
	defer func() { telemetry.EndSpan(span, err) }()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p, err := s.parserFor(layout)
	if err != nil {
		return nil, err
	}

	results, err = p.Parse(ctx, r)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, apperrors.Wrap(apperrors.CodeParseError, "failed to parse profiler dump", err)
	}

	s.logger.Debug("Parsed profiler dump (version %s, layout %s, %d entries)",
		results.Version, results.Layout, results.Profiler.Len())
	return results, nil
}

// ParseReportFile parses the profiler dump stored at path.
func (s *Service) ParseReportFile(ctx context.Context, path, layout string) (*model.ProfilerResults, error) {
	f, err := openInput(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return s.ParseReport(ctx, f, layout)
}

func (s *Service) parserFor(layout string) (parser.Parser, error) {
	if layout == "" {
		layout = s.config.Profiler.Layout
	}
	l, forced, err := profiler.LayoutByName(layout)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInvalidInput, "invalid dump layout", err)
	}

	name := profiler.FormatName
	if forced {
		name = l.Name
	}
	p, ok := s.parsers.Get(name)
	if !ok {
		return nil, apperrors.New(apperrors.CodeInvalidInput, fmt.Sprintf("no parser registered for %q", name))
	}
	return p, nil
}

// ImportOptions controls ImportReport.
type ImportOptions struct {
	// Name labels the run. Empty derives it from the dump digest.
	Name string
	// Layout forces a dump layout. Empty uses the configured one.
	Layout string
	// Force imports the dump even when identical bytes were imported before.
	Force bool
}

// ImportResult is the outcome of one import.
type ImportResult struct {
	Run     *repository.ProfileRun
	Results *model.ProfilerResults
	// Duplicate is set when an earlier run with the same digest was returned instead.
	Duplicate bool
}

// ImportReport parses a dump, archives it to storage when storage is
// initialized and records it in the history database.
func (s *Service) ImportReport(ctx context.Context, data []byte, opts ImportOptions) (result *ImportResult, err error) {
	ctx, span := telemetry.StartSpan(ctx, "service.ImportReport",
		attribute.String("name", opts.Name), attribute.Int("bytes", len(data)))
	defer func() { telemetry.EndSpan(span, err) }()

	if err := s.requireHistory(); err != nil {
		return nil, err
	}

	sum := sha256.Sum256(data)
	digest := hex.EncodeToString(sum[:])
	span.SetAttributes(attribute.String("digest", digest))

	if !opts.Force {
		existing, err := s.profiles.FindByDigest(ctx, digest)
		switch {
		case err == nil:
			s.logger.Info("Dump already imported as run %d (%s)", existing.ID, existing.Name)
			return &ImportResult{Run: existing, Duplicate: true}, nil
		case !errors.Is(err, repository.ErrRunNotFound):
			return nil, apperrors.Wrap(apperrors.CodeDatabaseError, "failed to look up dump digest", err)
		}
	}

	results, err := s.ParseReport(ctx, bytes.NewReader(data), opts.Layout)
	if err != nil {
		return nil, err
	}

	name := opts.Name
	if name == "" {
		name = "run-" + digest[:12]
	}
	now := s.clock.Now().UTC()

	run := repository.NewProfileRun(name, results, now)
	run.Digest = digest

	if s.storage != nil {
		key := storage.ObjectKey(storage.KindDump, now, fmt.Sprintf("%s-%s.txt", name, digest[:12]))
		if err := s.storage.Upload(ctx, key, bytes.NewReader(data)); err != nil {
			return nil, apperrors.Wrapf(apperrors.CodeStorageError, err, "failed to archive dump %s", name)
		}
		run.StorageKey = key
	}

	if err := s.profiles.SaveRun(ctx, run); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeDatabaseError, "failed to save profile run", err)
	}

	s.logger.WithFields(map[string]interface{}{
		"run":     run.ID,
		"entries": run.EntryCount,
		"key":     run.StorageKey,
	}).Info("Imported profiler dump %s", name)
	return &ImportResult{Run: run, Results: results}, nil
}

// ImportReportFiles imports several dump files concurrently. Each file is named
// after its base name without extension unless opts.Name is set, in which case
// the base name is appended to it. Results are in path order.
func (s *Service) ImportReportFiles(ctx context.Context, paths []string, opts ImportOptions) []parallel.TaskResult[string, *ImportResult] {
	pool := parallel.NewWorkerPool[string, *ImportResult](parallel.DefaultPoolConfig())
	results := pool.ExecuteFunc(ctx, paths, func(ctx context.Context, path string) (*ImportResult, error) {
		data, err := readInput(path)
		if err != nil {
			return nil, err
		}
		fileOpts := opts
		base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		if opts.Name != "" {
			fileOpts.Name = opts.Name + "-" + base
		} else {
			fileOpts.Name = base
		}
		return s.ImportReport(ctx, data, fileOpts)
	})

	metrics := pool.Metrics()
	s.logger.Info("Imported %d/%d dumps (%d failed, %d skipped) in %s",
		metrics.CompletedTasks, metrics.TotalTasks, metrics.FailedTasks, metrics.SkippedTasks, metrics.TotalDuration)
	return results
}

// GetRun returns one stored run with its entries.
func (s *Service) GetRun(ctx context.Context, id int64) (run *repository.ProfileRun, err error) {
	ctx, span := telemetry.StartSpan(ctx, "service.GetRun", attribute.Int64("run", id))
	defer func() { telemetry.EndSpan(span, err) }()

	if err := s.requireHistory(); err != nil {
		return nil, err
	}
	run, err = s.profiles.GetRun(ctx, id)
	if err != nil {
		return nil, historyError(err, fmt.Sprintf("failed to get run %d", id))
	}
	return run, nil
}

// ListRuns returns the newest runs first. limit <= 0 returns all of them.
func (s *Service) ListRuns(ctx context.Context, limit int) (runs []*repository.ProfileRun, err error) {
	ctx, span := telemetry.StartSpan(ctx, "service.ListRuns", attribute.Int("limit", limit))
	defer func() { telemetry.EndSpan(span, err) }()

	if err := s.requireHistory(); err != nil {
		return nil, err
	}
	runs, err = s.profiles.ListRuns(ctx, limit)
	if err != nil {
		return nil, historyError(err, "failed to list runs")
	}
	return runs, nil
}

// History returns the values of one entry path across the latest runs, oldest first.
func (s *Service) History(ctx context.Context, path string, limit int) (points []repository.HistoryPoint, err error) {
	ctx, span := telemetry.StartSpan(ctx, "service.History", attribute.String("path", path))
	defer func() { telemetry.EndSpan(span, err) }()

	if path == "" {
		return nil, apperrors.New(apperrors.CodeInvalidInput, "entry path is required")
	}
	if err := s.requireHistory(); err != nil {
		return nil, err
	}
	points, err = s.profiles.EntryHistory(ctx, path, limit)
	if err != nil {
		return nil, historyError(err, "failed to load entry history")
	}
	return points, nil
}

// DeleteRun removes a run and, when storage is initialized, its archived dump.
func (s *Service) DeleteRun(ctx context.Context, id int64) (err error) {
	ctx, span := telemetry.StartSpan(ctx, "service.DeleteRun", attribute.Int64("run", id))
	defer func() { telemetry.EndSpan(span, err) }()

	if err := s.requireHistory(); err != nil {
		return err
	}
	run, err := s.profiles.GetRun(ctx, id)
	if err != nil {
		return historyError(err, fmt.Sprintf("failed to get run %d", id))
	}
	if err := s.profiles.DeleteRun(ctx, id); err != nil {
		return historyError(err, fmt.Sprintf("failed to delete run %d", id))
	}

	if s.storage != nil && run.StorageKey != "" {
		if err := s.storage.Delete(ctx, run.StorageKey); err != nil {
			s.logger.Warn("Failed to delete archived dump %s: %v", run.StorageKey, err)
		}
	}
	return nil
}

// FormatReport renders v with the formatter registered for subject.
func (s *Service) FormatReport(w io.Writer, subject formatter.Subject, v interface{}) error {
	if err := s.formatters.Format(subject, w, v); err != nil {
		if errors.Is(err, formatter.ErrUnsupportedValue) {
			return apperrors.Wrap(apperrors.CodeInvalidInput, "cannot format value", err)
		}
		return apperrors.Wrap(apperrors.CodeUnknown, "failed to format output", err)
	}
	return nil
}

func historyError(err error, message string) error {
	if errors.Is(err, repository.ErrRunNotFound) {
		return apperrors.Wrap(apperrors.CodeNotFound, message, err)
	}
	return apperrors.Wrap(apperrors.CodeDatabaseError, message, err)
}

func openInput(path string) (*os.File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, inputError(path, err)
	}
	return f, nil
}

func readInput(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, inputError(path, err)
	}
	return data, nil
}

func inputError(path string, err error) error {
	if errors.Is(err, fs.ErrNotExist) {
		return apperrors.Wrapf(apperrors.CodeNotFound, err, "input %s does not exist", path)
	}
	return apperrors.Wrapf(apperrors.CodeInvalidInput, err, "failed to read %s", path)
}
