package nbt

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/mch-analysis/pkg/compression"
)

// rootName is the name written for the root entry. Readers ignore it.
const rootName = ""

// nestedPrefix opens a document whose unnamed outer compound holds the root under
// the empty name. A named root cannot start this way: a name of length 0x0A00
// would have to begin with a NUL byte, which modified UTF-8 never produces.
var nestedPrefix = []byte{byte(TypeCompound), byte(TypeCompound), 0x00, 0x00}

// WriteRoot writes root as a gzip-compressed document: a Compound type byte, an
// empty name, then the compound payload (0A 00 00 <payload>).
//
// Unlike the benchmark harness's own writer, no End byte follows the payload. That
// writer emits 0A 00 00 <payload> 00; ReadRoot accepts both forms, so files written
// by either side can be read back by the other.
func WriteRoot(w io.Writer, root *Compound) error {
	return WriteRootLevel(w, root, compression.LevelDefault)
}

// WriteRootLevel is WriteRoot with an explicit gzip level.
func WriteRootLevel(w io.Writer, root *Compound, level compression.Level) error {
	if root == nil {
		return ErrNilTag
	}
	gz, err := compression.NewWriter(w, compression.TypeGzip, level)
	if err != nil {
		return err
	}
	if err := NewEncoder(gz).EncodeNamed(rootName, root); err != nil {
		gz.Close()
		return fmt.Errorf("failed to encode root: %w", err)
	}
	if err := gz.Close(); err != nil {
		return fmt.Errorf("failed to finish gzip stream: %w", err)
	}
	return nil
}

// ReadRoot reads a gzip-compressed document and returns its root compound.
//
// Besides the named-root layout written by WriteRoot, ReadRoot accepts the nested
// layout where the document is an unnamed compound whose only entry, keyed by the
// empty string, holds the root. A single End byte after the root is allowed; any
// other trailing data is rejected with ErrTrailingData. The stream is always read
// to its end so that a damaged gzip checksum or size is reported.
func ReadRoot(r io.Reader) (*Compound, error) {
	gz, err := compression.NewReader(r, compression.TypeGzip)
	if err != nil {
		return nil, err
	}
	defer gz.Close()

	br := bufio.NewReader(gz)
	var root *Compound
	if head, _ := br.Peek(len(nestedPrefix)); bytes.Equal(head, nestedPrefix) {
		root, err = readNestedRoot(br)
	} else {
		root, err = readNamedRoot(br)
	}
	if err != nil {
		return nil, err
	}
	if err := finishRoot(br); err != nil {
		return nil, err
	}
	return root, nil
}

func readNamedRoot(r io.Reader) (*Compound, error) {
	_, tag, err := NewDecoder(r).DecodeNamed()
	if err != nil {
		return nil, fmt.Errorf("failed to decode root: %w", truncated(err))
	}
	root, ok := tag.(*Compound)
	if !ok {
		return nil, fmt.Errorf("%w: got %s", ErrNotCompound, tag.Type())
	}
	return root, nil
}

func readNestedRoot(r io.Reader) (*Compound, error) {
	tag, err := NewDecoder(r).Decode()
	if err != nil {
		return nil, fmt.Errorf("failed to decode root: %w", truncated(err))
	}
	outer := tag.(*Compound)
	if outer.Len() != 1 {
		return nil, fmt.Errorf("%w: envelope holds %d entries", ErrNotCompound, outer.Len())
	}
	return outer.GetCompound(rootName)
}

// finishRoot drains the decompressed stream after the root tag. Reading to EOF is
// what makes the gzip reader verify its trailer.
func finishRoot(r io.Reader) error {
	rest, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("failed to finish gzip stream: %w", err)
	}
	switch {
	case len(rest) == 0:
		return nil
	case len(rest) == 1 && rest[0] == byte(TypeEnd):
		return nil
	default:
		return fmt.Errorf("%w: %d bytes", ErrTrailingData, len(rest))
	}
}

// ReadRootFile reads the document stored at path.
func ReadRootFile(path string) (*Compound, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadRoot(f)
}

// WriteRootFile writes root to path, replacing any existing file.
func WriteRootFile(path string, root *Compound, level compression.Level) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteRootLevel(f, root, level); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
