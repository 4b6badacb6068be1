package parser

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrStructuralMismatch is returned when an expected literal or delimiter is not
	// found at the cursor.
	ErrStructuralMismatch = errors.New("structural mismatch")

	// ErrNumericParse is returned when a digit run or percentage is not a valid number.
	ErrNumericParse = errors.New("numeric parse failure")

	// ErrEmptyInput is returned when the input is empty.
	ErrEmptyInput = errors.New("empty input")

	// ErrInputTooLarge is returned when the input exceeds the configured limit.
	ErrInputTooLarge = errors.New("input too large")

	// ErrUnsupportedFormat is returned when the format is not supported.
	ErrUnsupportedFormat = errors.New("unsupported format")

	// ErrUnknownLayout is returned when a forced layout name is not known.
	ErrUnknownLayout = errors.New("unknown dump layout")
)

// SyntaxError locates a parse failure in the input. Err is ErrStructuralMismatch
// or ErrNumericParse.
type SyntaxError struct {
	Offset int
	Line   int
	Column int
	Msg    string
	Err    error
}

// NewSyntaxError builds a SyntaxError for the byte offset of text.
func NewSyntaxError(text string, offset int, kind error, msg string) *SyntaxError {
	if offset > len(text) {
		offset = len(text)
	}
	before := text[:offset]
	line := strings.Count(before, "\n") + 1
	col := offset - strings.LastIndexByte(before, '\n')
	return &SyntaxError{Offset: offset, Line: line, Column: col, Msg: msg, Err: kind}
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%v at line %d, column %d: %s", e.Err, e.Line, e.Column, e.Msg)
}

func (e *SyntaxError) Unwrap() error {
	return e.Err
}
