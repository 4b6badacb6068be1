package profiler

import (
	"github.com/mch-analysis/internal/parser"
)

// Factory creates new profiler dump parsers.
type Factory struct{}

// NewFactory creates a new Factory.
func NewFactory() *Factory {
	return &Factory{}
}

// Create creates a new profiler dump parser with the given options.
func (f *Factory) Create(opts ...parser.ParserOption) (parser.Parser, error) {
	parserOpts := parser.DefaultParseOptions()

	for _, opt := range opts {
		opt(parserOpts)
	}

	if _, _, err := LayoutByName(parserOpts.Layout); err != nil {
		return nil, err
	}
	return NewParser(parserOpts), nil
}

// RegisterWithRegistry registers the profiler dump parser under its format name and
// one layout-pinned parser per layout. opts apply to every registered parser.
func RegisterWithRegistry(registry *parser.Registry, opts ...parser.ParserOption) {
	factory := NewFactory()
	base := opts[:len(opts):len(opts)]
	p, _ := factory.Create(base...)
	registry.Register(FormatName, p)
	for _, layout := range Layouts() {
		pinned, _ := factory.Create(append(base, WithLayoutOption(layout.Name))...)
		registry.Register(layout.Name, pinned)
	}
}

// WithLayoutOption returns a parser option that forces a dump layout.
func WithLayoutOption(name string) parser.ParserOption {
	return func(opts interface{}) {
		if o, ok := opts.(*parser.ParseOptions); ok {
			o.Layout = name
		}
	}
}

// WithMaxInputBytesOption returns a parser option that limits the input size.
func WithMaxInputBytesOption(n int64) parser.ParserOption {
	return func(opts interface{}) {
		if o, ok := opts.(*parser.ParseOptions); ok {
			o.MaxInputBytes = n
		}
	}
}
