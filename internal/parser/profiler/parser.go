// Package profiler parses and writes the text dump produced by the game's built-in
// profiler ("---- Minecraft Profiler Results ----").
//
// The dump is parsed as one string with a cursor. Tree lines carry a "[NN] " indent
// prefix; a node's children are found by peeking at the indent of the next line and
// rewinding when it is not one level deeper.
package profiler

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/mch-analysis/internal/parser"
	"github.com/mch-analysis/pkg/collections"
	"github.com/mch-analysis/pkg/model"
)

const (
	header           = "---- Minecraft Profiler Results ----"
	commentPrefix    = "// "
	versionPrefix    = "Version: "
	timeSpanPrefix   = "Time span: "
	timeSpanSuffix   = " ms\n"
	tickSpanPrefix   = "Tick span: "
	tickSpanSuffix   = " ticks\n"
	beginProfile     = "--- BEGIN PROFILE DUMP ---\n\n"
	endProfile       = "--- END PROFILE DUMP ---\n\n"
	beginCounters    = "--- BEGIN COUNTER DUMP ---\n\n"
	endCounters      = "--- END COUNTER DUMP ---\n\n"
	sectionPrefix    = "---"
	counterPrefix    = "-- Counter: "
	counterSuffix    = " --"
	counterLeafMark  = '#'
	totalTokenPrefix = "total:"
	averageToken     = "average:"
)

// FormatName is the registry name of the dump format.
const FormatName = "mc-profile"

// Parser implements parser.Parser for profiler dumps.
type Parser struct {
	opts *parser.ParseOptions
}

// NewParser creates a new profiler dump parser.
func NewParser(opts *parser.ParseOptions) *Parser {
	if opts == nil {
		opts = parser.DefaultParseOptions()
	}
	return &Parser{opts: opts}
}

// Name returns the name of this parser.
func (p *Parser) Name() string {
	return FormatName
}

// SupportedFormats returns the formats supported by this parser.
func (p *Parser) SupportedFormats() []string {
	return []string{FormatName, Vanilla.Name, Legacy.Name, Compact.Name}
}

// Parse reads the complete dump from reader and parses it.
func (p *Parser) Parse(ctx context.Context, reader io.Reader) (*model.ProfilerResults, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	src := reader
	if p.opts.MaxInputBytes > 0 {
		src = io.LimitReader(reader, p.opts.MaxInputBytes+1)
	}
	data, err := io.ReadAll(src)
	if err != nil {
		return nil, fmt.Errorf("failed to read profiler dump: %w", err)
	}
	if len(data) == 0 {
		return nil, parser.ErrEmptyInput
	}
	if p.opts.MaxInputBytes > 0 && int64(len(data)) > p.opts.MaxInputBytes {
		return nil, fmt.Errorf("%w: more than %d bytes", parser.ErrInputTooLarge, p.opts.MaxInputBytes)
	}

	layout, forced, err := LayoutByName(p.opts.Layout)
	if err != nil {
		return nil, err
	}
	if !forced {
		layout = DetectLayout(string(data))
	}
	return parseText(ctx, string(data), layout)
}

// Parse parses a complete dump, detecting its layout.
func Parse(text string) (*model.ProfilerResults, error) {
	return parseText(context.Background(), text, DetectLayout(text))
}

// ParseLayout parses a complete dump in the given layout.
func ParseLayout(text string, layout Layout) (*model.ProfilerResults, error) {
	return parseText(context.Background(), text, layout)
}

type state struct {
	ctx    context.Context
	c      cursor
	layout Layout
}

func parseText(ctx context.Context, text string, layout Layout) (*model.ProfilerResults, error) {
	s := &state{ctx: ctx, c: cursor{text: text}, layout: layout}
	results, err := s.parseResults()
	if err != nil {
		return nil, err
	}
	return results, nil
}

func (s *state) parseResults() (*model.ProfilerResults, error) {
	c := &s.c
	results := model.NewProfilerResults()
	results.Layout = s.layout.Name

	if err := c.expect(header + "\n"); err != nil {
		return nil, err
	}
	comment, err := s.parseComment()
	if err != nil {
		return nil, err
	}
	results.Comments = append(results.Comments, comment)

	if err := c.expect(versionPrefix); err != nil {
		return nil, err
	}
	if results.Version, err = c.readUntil('\n'); err != nil {
		return nil, err
	}
	if err := c.expect("\n" + timeSpanPrefix); err != nil {
		return nil, err
	}
	if results.TimeSpan, err = c.parseLong(); err != nil {
		return nil, err
	}
	if err := c.expect(timeSpanSuffix + tickSpanPrefix); err != nil {
		return nil, err
	}
	if results.TickSpan, err = c.parseLong(); err != nil {
		return nil, err
	}
	if err := c.expect(tickSpanSuffix); err != nil {
		return nil, err
	}
	if comment, err = s.parseComment(); err != nil {
		return nil, err
	}
	results.Comments = append(results.Comments, comment)

	if err := s.parseProfileSection(results.Profiler); err != nil {
		return nil, err
	}
	if err := s.parseCounterSection(results.Counters); err != nil {
		return nil, err
	}

	if !c.eof() {
		return nil, c.mismatch("unexpected trailing data %q", c.preview(16))
	}
	return results, nil
}

// parseComment consumes "// text\n" and, in layouts that have one, the blank line after it.
func (s *state) parseComment() (string, error) {
	c := &s.c
	if err := c.expect(commentPrefix); err != nil {
		return "", err
	}
	text, err := c.readUntil('\n')
	if err != nil {
		return "", err
	}
	lit := "\n"
	if s.layout.BlankAfterComments {
		lit = "\n\n"
	}
	if err := c.expect(lit); err != nil {
		return "", err
	}
	return text, nil
}

func (s *state) parseProfileSection(entries *collections.OrderedMap[string, model.ProfilerResult]) error {
	c := &s.c
	if err := c.expect(beginProfile); err != nil {
		return err
	}
	for !c.startsWith(sectionPrefix) && !(s.layout.BlankBeforeProfileEnd && c.startsWith("\n"+sectionPrefix)) {
		if err := s.ctx.Err(); err != nil {
			return err
		}
		entry, err := s.parseEntry()
		if err != nil {
			return err
		}
		entries.Set(entry.GetName(), entry)
		if err := c.expect("\n"); err != nil {
			return err
		}
	}
	if s.layout.BlankBeforeProfileEnd && entries.Len() > 0 {
		if err := c.expect("\n"); err != nil {
			return err
		}
	}
	return c.expect(endProfile)
}

// parseEntry parses one timing entry and its children. The cursor is left on the
// newline that ends the entry's last line.
func (s *state) parseEntry() (model.ProfilerResult, error) {
	c := &s.c
	indent, err := c.parseIndent()
	if err != nil {
		return nil, err
	}

	if ch, _ := c.peek(); ch == counterLeafMark {
		c.pos++
		name, err := c.readUntil(' ')
		if err != nil {
			return nil, err
		}
		c.pos++
		total, err := c.parseLong()
		if err != nil {
			return nil, err
		}
		if err := c.expect("/"); err != nil {
			return nil, err
		}
		at := c.pos
		raw, err := c.readUntil('\n')
		if err != nil {
			return nil, err
		}
		average, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, c.numeric(at, "invalid average count %q", raw)
		}
		return &model.CounterEntry{Name: name, TotalCount: total, AverageCount: average}, nil
	}

	name, err := c.readUntil('(')
	if err != nil {
		return nil, err
	}
	c.pos++
	total, err := c.parseLong()
	if err != nil {
		return nil, err
	}
	if err := c.expect("/"); err != nil {
		return nil, err
	}
	average, err := c.parseLong()
	if err != nil {
		return nil, err
	}
	if err := c.expect(") - "); err != nil {
		return nil, err
	}
	pct, err := c.parsePercentage()
	if err != nil {
		return nil, err
	}
	if err := c.expect("/"); err != nil {
		return nil, err
	}
	globalPct, err := c.parsePercentage()
	if err != nil {
		return nil, err
	}

	entry := model.NewTimeEntry(name, total, average, pct, globalPct)
	for {
		next, ok, err := c.peekIndent()
		if err != nil {
			return nil, err
		}
		if !ok || next != indent+1 {
			break
		}
		c.pos++ // newline ending the current line
		child, err := s.parseEntry()
		if err != nil {
			return nil, err
		}
		entry.Children.Set(child.GetName(), child)
	}
	return entry, nil
}

func (s *state) parseCounterSection(counters *collections.OrderedMap[string, *model.CounterResult]) error {
	c := &s.c
	if err := c.expect(beginCounters); err != nil {
		return err
	}
	for !c.startsWith(sectionPrefix) {
		if err := s.ctx.Err(); err != nil {
			return err
		}
		if err := c.expect(counterPrefix); err != nil {
			return err
		}
		line, err := c.readUntil('\n')
		if err != nil {
			return err
		}
		name, ok := strings.CutSuffix(line, counterSuffix)
		if !ok {
			return c.mismatch("expected counter header to end with %q", counterSuffix)
		}
		c.pos++
		tree, err := s.parseCounter()
		if err != nil {
			return err
		}
		counters.Set(name, tree)
		if err := c.expect(s.layout.CounterSeparator); err != nil {
			return err
		}
	}
	return c.expect(endCounters)
}

// parseCounter parses one counter line and its children. The cursor is left on the
// newline that ends the last line.
func (s *state) parseCounter() (*model.CounterResult, error) {
	c := &s.c
	indent, err := c.parseIndent()
	if err != nil {
		return nil, err
	}
	at := c.pos
	line, err := c.readUntil('\n')
	if err != nil {
		return nil, err
	}
	node, lerr := parseCounterLine(line)
	if lerr != nil {
		return nil, parser.NewSyntaxError(c.text, at, lerr.kind, lerr.msg)
	}

	for {
		next, ok, err := c.peekIndent()
		if err != nil {
			return nil, err
		}
		if !ok || next != indent+1 {
			break
		}
		c.pos++
		child, err := s.parseCounter()
		if err != nil {
			return nil, err
		}
		node.Children.Set(child.Name, child)
	}
	return node, nil
}

type lineError struct {
	kind error
	msg  string
}

// parseCounterLine splits "name total:S/T average: S/T" on spaces. The joined form
// "average:S/T" is accepted as well. The name may itself contain spaces.
func parseCounterLine(line string) (*model.CounterResult, *lineError) {
	tokens := strings.Split(line, " ")

	var totalTok, averageTok string
	var nameTokens []string
	switch n := len(tokens); {
	case n >= 3 && tokens[n-2] == averageToken:
		totalTok, averageTok, nameTokens = tokens[n-3], tokens[n-1], tokens[:n-3]
	case n >= 2 && strings.HasPrefix(tokens[n-1], averageToken) && len(tokens[n-1]) > len(averageToken):
		totalTok, averageTok, nameTokens = tokens[n-2], tokens[n-1][len(averageToken):], tokens[:n-2]
	default:
		return nil, &lineError{parser.ErrStructuralMismatch, fmt.Sprintf("expected \"total:S/T average: S/T\" in %q", line)}
	}

	rawTotal, ok := strings.CutPrefix(totalTok, totalTokenPrefix)
	if !ok {
		return nil, &lineError{parser.ErrStructuralMismatch, fmt.Sprintf("expected %q, found %q", totalTokenPrefix, totalTok)}
	}
	totalSelf, totalTotal, lerr := parsePair(rawTotal)
	if lerr != nil {
		return nil, lerr
	}
	avgSelf, avgTotal, lerr := parsePair(averageTok)
	if lerr != nil {
		return nil, lerr
	}
	return model.NewCounterResult(strings.Join(nameTokens, " "), totalSelf, totalTotal, avgSelf, avgTotal), nil
}

func parsePair(tok string) (int64, int64, *lineError) {
	a, b, ok := strings.Cut(tok, "/")
	if !ok {
		return 0, 0, &lineError{parser.ErrStructuralMismatch, fmt.Sprintf("expected \"S/T\", found %q", tok)}
	}
	x, err := strconv.ParseInt(a, 10, 64)
	if err != nil {
		return 0, 0, &lineError{parser.ErrNumericParse, fmt.Sprintf("invalid count %q", a)}
	}
	y, err := strconv.ParseInt(b, 10, 64)
	if err != nil {
		return 0, 0, &lineError{parser.ErrNumericParse, fmt.Sprintf("invalid count %q", b)}
	}
	return x, y, nil
}
