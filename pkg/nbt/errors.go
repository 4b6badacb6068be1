package nbt

import "errors"

var (
	// ErrUnknownType is returned when a type byte is outside the known ordinals.
	ErrUnknownType = errors.New("nbt: unknown tag type")

	// ErrMixedList is returned when a list member does not match the declared element type.
	ErrMixedList = errors.New("nbt: list elements must share one type")

	// ErrInvalidList is returned for a non-empty list whose element type is End.
	ErrInvalidList = errors.New("nbt: non-empty list declared with End element type")

	// ErrStringTooLong is returned when an encoded string exceeds 65535 bytes.
	ErrStringTooLong = errors.New("nbt: encoded string exceeds 65535 bytes")

	// ErrMalformedString is returned when string bytes are not valid modified UTF-8.
	ErrMalformedString = errors.New("nbt: malformed modified UTF-8 string")

	// ErrNegativeLength is returned when an array or list declares a negative length.
	ErrNegativeLength = errors.New("nbt: negative length")

	// ErrNotCompound is returned when a root document does not start with a compound.
	ErrNotCompound = errors.New("nbt: root tag is not a compound")

	// ErrTrailingData is returned when a root document continues past its root tag.
	ErrTrailingData = errors.New("nbt: trailing data after root tag")

	// ErrTooDeep is returned when nesting exceeds MaxDepth.
	ErrTooDeep = errors.New("nbt: nesting too deep")

	// ErrEndValue is returned when End is stored as a compound entry.
	ErrEndValue = errors.New("nbt: End cannot be stored as a named value")

	// ErrNilTag is returned when a nil tag is handed to the encoder.
	ErrNilTag = errors.New("nbt: nil tag")
)
