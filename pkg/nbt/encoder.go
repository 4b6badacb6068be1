package nbt

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"unicode/utf8"
)

// Encoder writes type-tagged values to a byte stream.
type Encoder struct {
	w       *bufio.Writer
	byteBuf [8]byte
	strBuf  []byte
}

// NewEncoder creates an encoder writing to w. Each Encode call flushes.
func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{w: bufio.NewWriterSize(w, readChunk)}
}

// Encode writes the type byte of t followed by its payload. The whole tree is
// validated first, so a failing Encode writes nothing.
func (e *Encoder) Encode(t Tag) error {
	if err := Validate(t); err != nil {
		return err
	}
	if err := e.w.WriteByte(byte(t.Type())); err != nil {
		return err
	}
	if err := e.writePayload(t); err != nil {
		return err
	}
	return e.w.Flush()
}

// EncodeNamed writes a type byte, name and payload, the layout of a compound entry
// and of a document root.
func (e *Encoder) EncodeNamed(name string, t Tag) error {
	if err := Validate(t); err != nil {
		return err
	}
	if !utf8.ValidString(name) {
		return fmt.Errorf("name: %w", ErrMalformedString)
	}
	if mutf8Len(name) > maxStringLen {
		return fmt.Errorf("name: %w", ErrStringTooLong)
	}
	if err := e.w.WriteByte(byte(t.Type())); err != nil {
		return err
	}
	if err := e.writeString(name); err != nil {
		return err
	}
	if err := e.writePayload(t); err != nil {
		return err
	}
	return e.w.Flush()
}

// Encode returns the type-tagged encoding of t.
func Encode(t Tag) ([]byte, error) {
	var buf bytes.Buffer
	if err := NewEncoder(&buf).Encode(t); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Validate checks that a tree can be encoded: no nil tags, homogeneous lists,
// strings and names that are valid UTF-8 within the length limit, nesting within
// MaxDepth.
func Validate(t Tag) error {
	return validate(t, 0)
}

func validate(t Tag, depth int) error {
	if t == nil {
		return ErrNilTag
	}
	switch v := t.(type) {
	case String:
		if !utf8.ValidString(string(v)) {
			return ErrMalformedString
		}
		if mutf8Len(string(v)) > maxStringLen {
			return ErrStringTooLong
		}
	case *List:
		if v == nil {
			return ErrNilTag
		}
		if depth+1 > MaxDepth {
			return fmt.Errorf("%w: limit %d", ErrTooDeep, MaxDepth)
		}
		if err := v.Validate(); err != nil {
			return err
		}
		for i, elem := range v.tags {
			if err := validate(elem, depth+1); err != nil {
				return fmt.Errorf("list element %d: %w", i, err)
			}
		}
	case *Compound:
		if v == nil {
			return ErrNilTag
		}
		if depth+1 > MaxDepth {
			return fmt.Errorf("%w: limit %d", ErrTooDeep, MaxDepth)
		}
		var err error
		v.Range(func(name string, child Tag) bool {
			if !utf8.ValidString(name) {
				err = fmt.Errorf("name %q: %w", name, ErrMalformedString)
				return false
			}
			if mutf8Len(name) > maxStringLen {
				err = fmt.Errorf("name: %w", ErrStringTooLong)
				return false
			}
			if child != nil && child.Type() == TypeEnd {
				err = fmt.Errorf("tag %q: %w", name, ErrEndValue)
				return false
			}
			if cerr := validate(child, depth+1); cerr != nil {
				err = fmt.Errorf("tag %q: %w", name, cerr)
				return false
			}
			return true
		})
		return err
	}
	return nil
}

func (e *Encoder) writePayload(t Tag) error {
	switch v := t.(type) {
	case End:
		return nil
	case Byte:
		return e.w.WriteByte(byte(v))
	case Short:
		return e.writeUint16(uint16(v))
	case Int:
		return e.writeUint32(uint32(v))
	case Long:
		return e.writeUint64(uint64(v))
	case Float:
		return e.writeUint32(math.Float32bits(float32(v)))
	case Double:
		return e.writeUint64(math.Float64bits(float64(v)))
	case ByteArray:
		if err := e.writeUint32(uint32(len(v))); err != nil {
			return err
		}
		for _, b := range v {
			if err := e.w.WriteByte(byte(b)); err != nil {
				return err
			}
		}
		return nil
	case String:
		return e.writeString(string(v))
	case *List:
		return e.writeList(v)
	case *Compound:
		return e.writeCompound(v)
	case IntArray:
		if err := e.writeUint32(uint32(len(v))); err != nil {
			return err
		}
		for _, x := range v {
			if err := e.writeUint32(uint32(x)); err != nil {
				return err
			}
		}
		return nil
	case LongArray:
		if err := e.writeUint32(uint32(len(v))); err != nil {
			return err
		}
		for _, x := range v {
			if err := e.writeUint64(uint64(x)); err != nil {
				return err
			}
		}
		return nil
	default:
		return fmt.Errorf("%w: %T", ErrUnknownType, t)
	}
}

func (e *Encoder) writeUint16(v uint16) error {
	binary.BigEndian.PutUint16(e.byteBuf[:2], v)
	_, err := e.w.Write(e.byteBuf[:2])
	return err
}

func (e *Encoder) writeUint32(v uint32) error {
	binary.BigEndian.PutUint32(e.byteBuf[:4], v)
	_, err := e.w.Write(e.byteBuf[:4])
	return err
}

func (e *Encoder) writeUint64(v uint64) error {
	binary.BigEndian.PutUint64(e.byteBuf[:8], v)
	_, err := e.w.Write(e.byteBuf[:8])
	return err
}

func (e *Encoder) writeString(s string) error {
	e.strBuf = appendMUTF8(e.strBuf[:0], s)
	if len(e.strBuf) > maxStringLen {
		return ErrStringTooLong
	}
	if err := e.writeUint16(uint16(len(e.strBuf))); err != nil {
		return err
	}
	_, err := e.w.Write(e.strBuf)
	return err
}

func (e *Encoder) writeList(l *List) error {
	if err := e.w.WriteByte(byte(l.ElemType())); err != nil {
		return err
	}
	if err := e.writeUint32(uint32(len(l.tags))); err != nil {
		return err
	}
	for _, t := range l.tags {
		if err := e.writePayload(t); err != nil {
			return err
		}
	}
	return nil
}

func (e *Encoder) writeCompound(c *Compound) error {
	var err error
	c.Range(func(name string, t Tag) bool {
		if err = e.w.WriteByte(byte(t.Type())); err != nil {
			return false
		}
		if err = e.writeString(name); err != nil {
			return false
		}
		err = e.writePayload(t)
		return err == nil
	})
	if err != nil {
		return err
	}
	return e.w.WriteByte(byte(TypeEnd))
}
