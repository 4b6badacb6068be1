package service

import (
	"context"
	"io"

	"go.opentelemetry.io/otel/attribute"

	apperrors "github.com/mch-analysis/pkg/errors"
	"github.com/mch-analysis/pkg/nbt"
	"github.com/mch-analysis/pkg/telemetry"
)

// DecodeDocument reads a gzip-compressed tag document and returns its root compound.
func (s *Service) DecodeDocument(ctx context.Context, r io.Reader) (root *nbt.Compound, err error) {
	ctx, span := telemetry.StartSpan(ctx, "service.DecodeDocument")
	defer func() { telemetry.EndSpan(span, err) }()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	root, err = nbt.ReadRoot(r)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeDecodeError, "failed to decode tag document", err)
	}
	return root, nil
}

// DecodeDocumentFile decodes the tag document stored at path.
func (s *Service) DecodeDocumentFile(ctx context.Context, path string) (*nbt.Compound, error) {
	f, err := openInput(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	root, err := s.DecodeDocument(ctx, f)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("Decoded %s (%d root entries)", path, root.Len())
	return root, nil
}

// DecodeTag decodes a bare, uncompressed tag stream (type byte then payload).
func (s *Service) DecodeTag(ctx context.Context, data []byte) (tag nbt.Tag, err error) {
	ctx, span := telemetry.StartSpan(ctx, "service.DecodeTag", attribute.Int("bytes", len(data)))
	defer func() { telemetry.EndSpan(span, err) }()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	tag, err = nbt.Decode(data)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeDecodeError, "failed to decode tag", err)
	}
	return tag, nil
}

// EncodeDocument writes root as a gzip-compressed tag document at the configured level.
func (s *Service) EncodeDocument(ctx context.Context, w io.Writer, root *nbt.Compound) (err error) {
	ctx, span := telemetry.StartSpan(ctx, "service.EncodeDocument")
	defer func() { telemetry.EndSpan(span, err) }()

	if err := ctx.Err(); err != nil {
		return err
	}
	if root == nil {
		return apperrors.New(apperrors.CodeInvalidInput, "root compound is required")
	}
	if err := nbt.WriteRootLevel(w, root, s.config.NBT.Level()); err != nil {
		return apperrors.Wrap(apperrors.CodeEncodeError, "failed to encode tag document", err)
	}
	return nil
}

// EncodeDocumentFile writes root to path, replacing any existing file.
// The document is validated first so a failed encode leaves path untouched.
func (s *Service) EncodeDocumentFile(ctx context.Context, path string, root *nbt.Compound) (err error) {
	ctx, span := telemetry.StartSpan(ctx, "service.EncodeDocumentFile", attribute.String("path", path))
	defer func() { telemetry.EndSpan(span, err) }()

	if err := ctx.Err(); err != nil {
		return err
	}
	if root == nil {
		return apperrors.New(apperrors.CodeInvalidInput, "root compound is required")
	}
	if err := nbt.Validate(root); err != nil {
		return apperrors.Wrap(apperrors.CodeEncodeError, "invalid tag document", err)
	}
	if err := nbt.WriteRootFile(path, root, s.config.NBT.Level()); err != nil {
		return apperrors.Wrapf(apperrors.CodeEncodeError, err, "failed to write %s", path)
	}
	return nil
}
