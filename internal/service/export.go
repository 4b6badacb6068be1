package service

import (
	"bytes"
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/mch-analysis/internal/formatter"
	"github.com/mch-analysis/internal/storage"
	"github.com/mch-analysis/pkg/compression"
	apperrors "github.com/mch-analysis/pkg/errors"
	"github.com/mch-analysis/pkg/model"
	"github.com/mch-analysis/pkg/telemetry"
	"github.com/mch-analysis/pkg/writer"
)

// Report is the exported JSON document of one parsed dump.
type Report struct {
	Name        string                 `json:"name"`
	GeneratedAt time.Time              `json:"generated_at"`
	Summary     map[string]interface{} `json:"summary"`
	Hotspots    []model.Hotspot        `json:"hotspots"`
	Results     *model.ProfilerResults `json:"results"`
}

// ExportOptions controls ExportReport.
type ExportOptions struct {
	// Name labels the report and its storage object.
	Name string
	// OutputPath writes the report to a local file when set.
	OutputPath string
	// Upload publishes the report to the initialized storage.
	Upload bool
}

// ExportResult describes where a report was written.
type ExportResult struct {
	Report      *Report
	Compression string
	Path        string
	Stats       *writer.WriteResult
	Key         string
	URL         string
}

// BuildReport assembles the export document of results.
func (s *Service) BuildReport(name string, results *model.ProfilerResults) *Report {
	return &Report{
		Name:        name,
		GeneratedAt: s.clock.Now().UTC(),
		Summary:     s.formatters.FormatSummary(formatter.SubjectProfile, results),
		Hotspots:    model.TopHotspots(results, s.config.Profiler.TopN),
		Results:     results,
	}
}

// ExportReport writes results as JSON, compressed per the export configuration,
// to a local file and/or the artifact storage.
func (s *Service) ExportReport(ctx context.Context, results *model.ProfilerResults, opts ExportOptions) (res *ExportResult, err error) {
	ctx, span := telemetry.StartSpan(ctx, "service.ExportReport",
		attribute.String("name", opts.Name), attribute.Bool("upload", opts.Upload))
	defer func() { telemetry.EndSpan(span, err) }()

	if results == nil {
		return nil, apperrors.New(apperrors.CodeInvalidInput, "no results to export")
	}
	if opts.OutputPath == "" && !opts.Upload {
		return nil, apperrors.New(apperrors.CodeInvalidInput, "export needs an output path or upload")
	}
	if opts.Upload {
		if err := s.requireStorage(); err != nil {
			return nil, err
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	name := opts.Name
	if name == "" {
		name = "report"
	}
	kind := s.config.Export.Type()
	report := s.BuildReport(name, results)
	res = &ExportResult{Report: report, Compression: kind.String()}

	if opts.OutputPath != "" {
		stats, err := s.writeReportFile(report, kind, opts.OutputPath)
		if err != nil {
			return nil, apperrors.Wrapf(apperrors.CodeEncodeError, err, "failed to write report to %s", opts.OutputPath)
		}
		res.Path = opts.OutputPath
		res.Stats = stats
		if stats != nil {
			s.logger.Info("Wrote %s (%d bytes, %.1f%% of %d bytes JSON)",
				opts.OutputPath, stats.CompressedSize, stats.CompressionPct, stats.JSONSize)
		}
	}

	if opts.Upload {
		var buf bytes.Buffer
		if err := s.encodeReport(report, kind, &buf); err != nil {
			return nil, apperrors.Wrap(apperrors.CodeEncodeError, "failed to encode report", err)
		}
		key := storage.ObjectKey(storage.KindReport, report.GeneratedAt, name+reportExtension(kind))
		if err := s.storage.Upload(ctx, key, &buf); err != nil {
			return nil, apperrors.Wrapf(apperrors.CodeStorageError, err, "failed to upload report %s", key)
		}
		res.Key = key
		res.URL = s.storage.GetURL(key)
		s.logger.Info("Uploaded report to %s", key)
	}

	return res, nil
}

func (s *Service) writeReportFile(report *Report, kind compression.Type, path string) (*writer.WriteResult, error) {
	if kind == compression.TypeNone {
		return nil, s.jsonWriter().WriteToFile(report, path)
	}
	return writer.NewCompressedWriter[*Report](kind).WriteToFileWithStats(report, path)
}

func (s *Service) encodeReport(report *Report, kind compression.Type, buf *bytes.Buffer) error {
	if kind == compression.TypeNone {
		return s.jsonWriter().Write(report, buf)
	}
	return writer.NewCompressedWriter[*Report](kind).Write(report, buf)
}

func (s *Service) jsonWriter() *writer.JSONWriter[*Report] {
	if s.config.Export.Pretty {
		return writer.NewPrettyJSONWriter[*Report]()
	}
	return writer.NewJSONWriter[*Report]()
}

func reportExtension(kind compression.Type) string {
	switch kind {
	case compression.TypeGzip:
		return ".json.gz"
	case compression.TypeZstd:
		return ".json.zst"
	default:
		return ".json"
	}
}
