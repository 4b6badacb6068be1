package profiler

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mch-analysis/internal/parser"
)

// indentMarker is repeated once per nesting level after the "[NN] " prefix.
const indentMarker = "|   "

// cursor is a byte offset into the complete dump text.
type cursor struct {
	text string
	pos  int
}

func (c *cursor) eof() bool {
	return c.pos >= len(c.text)
}

func (c *cursor) peek() (byte, bool) {
	if c.eof() {
		return 0, false
	}
	return c.text[c.pos], true
}

func (c *cursor) startsWith(prefix string) bool {
	return strings.HasPrefix(c.text[c.pos:], prefix)
}

func (c *cursor) mismatch(format string, args ...any) error {
	return parser.NewSyntaxError(c.text, c.pos, parser.ErrStructuralMismatch, fmt.Sprintf(format, args...))
}

func (c *cursor) numeric(at int, format string, args ...any) error {
	return parser.NewSyntaxError(c.text, at, parser.ErrNumericParse, fmt.Sprintf(format, args...))
}

// expect consumes lit or fails without moving.
func (c *cursor) expect(lit string) error {
	if !c.startsWith(lit) {
		return c.mismatch("expected %q, found %q", lit, c.preview(len(lit)))
	}
	c.pos += len(lit)
	return nil
}

// readUntil returns the text up to delim and leaves the cursor on delim. Reaching the
// end of the line (for any delim other than '\n') or the end of input fails.
func (c *cursor) readUntil(delim byte) (string, error) {
	start := c.pos
	for i := start; i < len(c.text); i++ {
		ch := c.text[i]
		if ch == delim {
			c.pos = i
			return c.text[start:i], nil
		}
		if ch == '\n' {
			return "", c.mismatch("expected %q before end of line", delim)
		}
	}
	return "", c.mismatch("expected %q before end of input", delim)
}

// parseLong consumes a run of decimal digits.
func (c *cursor) parseLong() (int64, error) {
	start := c.pos
	end := start
	for end < len(c.text) && isDigit(c.text[end]) {
		end++
	}
	if end == start {
		return 0, c.numeric(start, "expected digits, found %q", c.preview(1))
	}
	v, err := strconv.ParseInt(c.text[start:end], 10, 64)
	if err != nil {
		return 0, c.numeric(start, "invalid integer %q: %v", c.text[start:end], err)
	}
	c.pos = end
	return v, nil
}

// parsePercentage consumes a decimal number and the '%' that terminates it.
func (c *cursor) parsePercentage() (float64, error) {
	start := c.pos
	raw, err := c.readUntil('%')
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, c.numeric(start, "invalid percentage %q", raw)
	}
	c.pos++
	return v, nil
}

// parseIndent consumes "[NN] " and NN indent markers.
func (c *cursor) parseIndent() (int, error) {
	if err := c.expect("["); err != nil {
		return 0, err
	}
	indent, err := c.indentDigits(c.pos)
	if err != nil {
		return 0, err
	}
	c.pos += 2
	if err := c.expect("] "); err != nil {
		return 0, err
	}
	for i := 0; i < indent; i++ {
		if err := c.expect(indentMarker); err != nil {
			return 0, err
		}
	}
	return indent, nil
}

// peekIndent reports the indent of the line after the current one. ok is false when
// there is no following line or it does not start with '['. The cursor is always
// restored to where it was.
func (c *cursor) peekIndent() (indent int, ok bool, err error) {
	saved := c.pos
	defer func() { c.pos = saved }()

	nl := strings.IndexByte(c.text[c.pos:], '\n')
	if nl < 0 {
		return 0, false, nil
	}
	c.pos += nl + 1
	if ch, more := c.peek(); !more || ch != '[' {
		return 0, false, nil
	}
	indent, err = c.indentDigits(c.pos + 1)
	if err != nil {
		return 0, false, err
	}
	return indent, true, nil
}

func (c *cursor) indentDigits(at int) (int, error) {
	if at+2 > len(c.text) || !isDigit(c.text[at]) || !isDigit(c.text[at+1]) {
		end := min(at+2, len(c.text))
		return 0, c.numeric(at, "invalid indent %q", c.text[at:end])
	}
	return int(c.text[at]-'0')*10 + int(c.text[at+1]-'0'), nil
}

// preview returns up to n bytes at the cursor for error messages.
func (c *cursor) preview(n int) string {
	if c.eof() {
		return "<EOF>"
	}
	end := min(c.pos+max(n, 1), len(c.text))
	return c.text[c.pos:end]
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}
