// Package parser defines the interfaces for parsing profiler dumps.
package parser

import (
	"context"
	"io"
	"sort"

	"github.com/mch-analysis/pkg/model"
)

// Parser is the interface for parsing profiler dumps.
type Parser interface {
	// Parse reads the whole dump from the reader and parses it.
	Parse(ctx context.Context, reader io.Reader) (*model.ProfilerResults, error)

	// SupportedFormats returns the formats supported by this parser.
	SupportedFormats() []string

	// Name returns the name of this parser.
	Name() string
}

// ParserFactory is a function that creates a new Parser instance.
type ParserFactory func(opts ...ParserOption) (Parser, error)

// ParserOption is a function that configures a Parser.
type ParserOption func(interface{})

// Registry holds registered parsers.
type Registry struct {
	parsers map[string]Parser
}

// NewRegistry creates a new parser Registry.
func NewRegistry() *Registry {
	return &Registry{
		parsers: make(map[string]Parser),
	}
}

// Register registers a parser with the given format name.
func (r *Registry) Register(format string, parser Parser) {
	r.parsers[format] = parser
}

// Get returns a parser for the given format.
func (r *Registry) Get(format string) (Parser, bool) {
	parser, ok := r.parsers[format]
	return parser, ok
}

// Formats returns the registered format names, sorted.
func (r *Registry) Formats() []string {
	formats := make([]string, 0, len(r.parsers))
	for f := range r.parsers {
		formats = append(formats, f)
	}
	sort.Strings(formats)
	return formats
}

// ParseOptions holds common parsing options.
type ParseOptions struct {
	// Layout forces a dump layout by name. Empty means detect it from the input.
	Layout string

	// MaxInputBytes rejects inputs larger than this. 0 means no limit.
	MaxInputBytes int64
}

// DefaultParseOptions returns default parsing options.
func DefaultParseOptions() *ParseOptions {
	return &ParseOptions{
		Layout:        "",
		MaxInputBytes: 64 << 20,
	}
}
