package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"slices"

	"go.opentelemetry.io/otel/attribute"

	"github.com/mch-analysis/internal/level"
	"github.com/mch-analysis/internal/storage"
	apperrors "github.com/mch-analysis/pkg/errors"
	"github.com/mch-analysis/pkg/telemetry"
)

// DataPackInfo describes the datapack state of a world.
type DataPackInfo struct {
	level.DataPacks
	// Benchmark lists the benchmark packs found under datapacks/.
	Benchmark []string `json:"benchmark"`
	// Functions maps each benchmark pack to its benchmark functions.
	Functions map[string][]string `json:"functions"`
}

// ListDataPacks reports the datapack selection of the world in levelDir and the
// benchmark packs and functions available to it.
func (s *Service) ListDataPacks(ctx context.Context, levelDir string) (info *DataPackInfo, err error) {
	ctx, span := telemetry.StartSpan(ctx, "service.ListDataPacks", attribute.String("level", levelDir))
	defer func() { telemetry.EndSpan(span, err) }()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	st, err := s.loadLevel(levelDir)
	if err != nil {
		return nil, err
	}
	current, err := st.DataPacks()
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeDecodeError, "malformed Data.DataPacks", err)
	}

	packs, err := s.benchmarkPacks(levelDir, nil)
	if err != nil {
		return nil, err
	}

	info = &DataPackInfo{DataPacks: current, Benchmark: packs, Functions: make(map[string][]string, len(packs))}
	for _, pack := range packs {
		functions, err := level.BenchmarkFunctions(levelDir, pack)
		if err != nil {
			return nil, apperrors.Wrapf(apperrors.CodeInvalidInput, err, "failed to list functions of %s", pack)
		}
		info.Functions[pack] = functions
	}
	return info, nil
}

// ToggleOptions controls ToggleDataPack.
type ToggleOptions struct {
	// LevelDir is the world directory holding level.dat.
	LevelDir string
	// Pack is the benchmark pack to enable. Empty disables all of them.
	Pack string
	// BenchmarkPacks overrides discovery of the benchmark packs.
	BenchmarkPacks []string
	// Backup uploads the previous level.dat to storage before overwriting it.
	Backup bool
}

// ToggleResult reports a datapack toggle.
type ToggleResult struct {
	Before    level.DataPacks `json:"before"`
	After     level.DataPacks `json:"after"`
	BackupKey string          `json:"backup_key,omitempty"`
}

// ToggleDataPack enables one benchmark pack of a world and disables the others,
// rewriting level.dat in place.
func (s *Service) ToggleDataPack(ctx context.Context, opts ToggleOptions) (res *ToggleResult, err error) {
	ctx, span := telemetry.StartSpan(ctx, "service.ToggleDataPack",
		attribute.String("level", opts.LevelDir), attribute.String("pack", opts.Pack))
	defer func() { telemetry.EndSpan(span, err) }()

	if opts.Backup {
		if err := s.requireStorage(); err != nil {
			return nil, err
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	st, err := s.loadLevel(opts.LevelDir)
	if err != nil {
		return nil, err
	}

	packs, err := s.benchmarkPacks(opts.LevelDir, opts.BenchmarkPacks)
	if err != nil {
		return nil, err
	}
	if opts.Pack != "" && !slices.Contains(packs, opts.Pack) {
		return nil, apperrors.New(apperrors.CodeInvalidInput,
			fmt.Sprintf("%q is not a benchmark pack of this world (have %v)", opts.Pack, packs))
	}

	before, err := st.DataPacks()
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeDecodeError, "malformed Data.DataPacks", err)
	}
	res = &ToggleResult{Before: before}

	if opts.Backup {
		var buf bytes.Buffer
		if err := st.Write(&buf); err != nil {
			return nil, apperrors.Wrap(apperrors.CodeEncodeError, "failed to encode level backup", err)
		}
		now := s.clock.Now().UTC()
		name := fmt.Sprintf("%s-%d.dat", filepath.Base(filepath.Clean(opts.LevelDir)), now.Unix())
		key := storage.ObjectKey(storage.KindLevel, now, name)
		if err := s.storage.Upload(ctx, key, &buf); err != nil {
			return nil, apperrors.Wrapf(apperrors.CodeStorageError, err, "failed to back up %s", level.FileName)
		}
		res.BackupKey = key
	}

	res.After, err = st.SetBenchmarkPack(packs, opts.Pack)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeDecodeError, "failed to update Data.DataPacks", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := st.Save(opts.LevelDir, s.config.NBT.Level()); err != nil {
		return nil, apperrors.Wrapf(apperrors.CodeEncodeError, err, "failed to write %s", level.FileName)
	}

	s.logger.Info("Benchmark pack of %s set to %q", opts.LevelDir, opts.Pack)
	return res, nil
}

func (s *Service) loadLevel(levelDir string) (*level.Storage, error) {
	if levelDir == "" {
		return nil, apperrors.New(apperrors.CodeInvalidInput, "level directory is required")
	}
	st, err := level.Load(levelDir, s.logger)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, apperrors.Wrapf(apperrors.CodeNotFound, err, "no %s in %s", level.FileName, levelDir)
		}
		return nil, apperrors.Wrap(apperrors.CodeDecodeError, "failed to load level storage", err)
	}
	return st, nil
}

func (s *Service) benchmarkPacks(levelDir string, given []string) ([]string, error) {
	if len(given) > 0 {
		return given, nil
	}
	packs, err := level.DiscoverBenchmarkPacks(levelDir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, apperrors.Wrap(apperrors.CodeInvalidInput, "failed to discover benchmark packs", err)
	}
	return packs, nil
}
