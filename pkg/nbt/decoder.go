package nbt

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
)

// MaxDepth bounds how deeply lists and compounds may nest.
const MaxDepth = 512

// readChunk caps each allocation made on behalf of a declared length so a corrupt
// header cannot request gigabytes before the stream runs dry.
const readChunk = 64 * 1024

type byteReader interface {
	io.Reader
	io.ByteReader
}

// Decoder reads type-tagged values from a byte stream.
// If the source does not implement io.ByteReader it is buffered, so the decoder may
// read past the end of the value it returns.
type Decoder struct {
	r       byteReader
	byteBuf [8]byte
	depth   int
}

// NewDecoder creates a decoder reading from r.
func NewDecoder(r io.Reader) *Decoder {
	br, ok := r.(byteReader)
	if !ok {
		br = bufio.NewReaderSize(r, readChunk)
	}
	return &Decoder{r: br}
}

// Decode reads one type byte followed by its payload. A stream that is empty returns
// io.EOF; a stream that ends inside a value returns an error wrapping io.ErrUnexpectedEOF.
func (d *Decoder) Decode() (Tag, error) {
	t, err := d.readType()
	if err != nil {
		return nil, err
	}
	tag, err := d.readPayload(t)
	if err != nil {
		return nil, truncated(err)
	}
	return tag, nil
}

// DecodeNamed reads a type byte, a name and a payload, the layout used for compound
// entries and for the root of a document. An End type byte yields End{} and no name.
func (d *Decoder) DecodeNamed() (string, Tag, error) {
	t, err := d.readType()
	if err != nil {
		return "", nil, err
	}
	if t == TypeEnd {
		return "", End{}, nil
	}
	name, err := d.readString()
	if err != nil {
		return "", nil, fmt.Errorf("failed to read tag name: %w", truncated(err))
	}
	tag, err := d.readPayload(t)
	if err != nil {
		return "", nil, fmt.Errorf("tag %q: %w", name, truncated(err))
	}
	return name, tag, nil
}

// Decode reads a single type-tagged value from b and rejects trailing bytes.
func Decode(b []byte) (Tag, error) {
	r := bytes.NewReader(b)
	tag, err := NewDecoder(r).Decode()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("empty input: %w", io.ErrUnexpectedEOF)
		}
		return nil, err
	}
	if r.Len() > 0 {
		return nil, fmt.Errorf("nbt: %d trailing bytes after value", r.Len())
	}
	return tag, nil
}

func (d *Decoder) readType() (Type, error) {
	b, err := d.r.ReadByte()
	if err != nil {
		return 0, err
	}
	t := Type(b)
	if !t.Valid() {
		return 0, fmt.Errorf("%w: %d", ErrUnknownType, b)
	}
	return t, nil
}

func (d *Decoder) readPayload(t Type) (Tag, error) {
	switch t {
	case TypeEnd:
		return End{}, nil
	case TypeByte:
		b, err := d.r.ReadByte()
		return Byte(int8(b)), err
	case TypeShort:
		v, err := d.readUint16()
		return Short(int16(v)), err
	case TypeInt:
		v, err := d.readUint32()
		return Int(int32(v)), err
	case TypeLong:
		v, err := d.readUint64()
		return Long(int64(v)), err
	case TypeFloat:
		v, err := d.readUint32()
		return Float(math.Float32frombits(v)), err
	case TypeDouble:
		v, err := d.readUint64()
		return Double(math.Float64frombits(v)), err
	case TypeByteArray:
		return d.readByteArray()
	case TypeString:
		s, err := d.readString()
		return String(s), err
	case TypeList:
		return d.readList()
	case TypeCompound:
		return d.readCompound()
	case TypeIntArray:
		return d.readIntArray()
	case TypeLongArray:
		return d.readLongArray()
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownType, byte(t))
	}
}

func (d *Decoder) readUint16() (uint16, error) {
	if _, err := io.ReadFull(d.r, d.byteBuf[:2]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(d.byteBuf[:2]), nil
}

func (d *Decoder) readUint32() (uint32, error) {
	if _, err := io.ReadFull(d.r, d.byteBuf[:4]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(d.byteBuf[:4]), nil
}

func (d *Decoder) readUint64() (uint64, error) {
	if _, err := io.ReadFull(d.r, d.byteBuf[:8]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(d.byteBuf[:8]), nil
}

func (d *Decoder) readLength() (int, error) {
	v, err := d.readUint32()
	if err != nil {
		return 0, err
	}
	n := int32(v)
	if n < 0 {
		return 0, fmt.Errorf("%w: %d", ErrNegativeLength, n)
	}
	return int(n), nil
}

// readBytes reads exactly n bytes, growing the buffer in chunks.
func (d *Decoder) readBytes(n int) ([]byte, error) {
	buf := make([]byte, 0, min(n, readChunk))
	for len(buf) < n {
		step := min(n-len(buf), readChunk)
		start := len(buf)
		buf = append(buf, make([]byte, step)...)
		if _, err := io.ReadFull(d.r, buf[start:]); err != nil {
			return nil, err
		}
	}
	return buf, nil
}

func (d *Decoder) readString() (string, error) {
	n, err := d.readUint16()
	if err != nil {
		return "", err
	}
	b, err := d.readBytes(int(n))
	if err != nil {
		return "", err
	}
	return decodeMUTF8(b)
}

func (d *Decoder) readByteArray() (ByteArray, error) {
	n, err := d.readLength()
	if err != nil {
		return nil, err
	}
	b, err := d.readBytes(n)
	if err != nil {
		return nil, err
	}
	out := make(ByteArray, n)
	for i, v := range b {
		out[i] = int8(v)
	}
	return out, nil
}

func (d *Decoder) readIntArray() (IntArray, error) {
	n, err := d.readLength()
	if err != nil {
		return nil, err
	}
	out := make(IntArray, 0, min(n, readChunk))
	for i := 0; i < n; i++ {
		v, err := d.readUint32()
		if err != nil {
			return nil, err
		}
		out = append(out, int32(v))
	}
	return out, nil
}

func (d *Decoder) readLongArray() (LongArray, error) {
	n, err := d.readLength()
	if err != nil {
		return nil, err
	}
	out := make(LongArray, 0, min(n, readChunk))
	for i := 0; i < n; i++ {
		v, err := d.readUint64()
		if err != nil {
			return nil, err
		}
		out = append(out, int64(v))
	}
	return out, nil
}

func (d *Decoder) enter() error {
	d.depth++
	if d.depth > MaxDepth {
		return fmt.Errorf("%w: limit %d", ErrTooDeep, MaxDepth)
	}
	return nil
}

func (d *Decoder) readList() (*List, error) {
	if err := d.enter(); err != nil {
		return nil, err
	}
	defer func() { d.depth-- }()

	elemType, err := d.readType()
	if err != nil {
		return nil, err
	}
	n, err := d.readLength()
	if err != nil {
		return nil, err
	}
	if n > 0 && elemType == TypeEnd {
		return nil, fmt.Errorf("%w: length %d", ErrInvalidList, n)
	}

	if n == 0 {
		// an empty list carries no element type regardless of what was declared
		return &List{elemType: TypeEnd}, nil
	}
	l := &List{elemType: elemType, tags: make([]Tag, 0, min(n, readChunk))}
	for i := 0; i < n; i++ {
		t, err := d.readPayload(elemType)
		if err != nil {
			return nil, fmt.Errorf("list element %d: %w", i, err)
		}
		l.tags = append(l.tags, t)
	}
	return l, nil
}

func (d *Decoder) readCompound() (*Compound, error) {
	if err := d.enter(); err != nil {
		return nil, err
	}
	defer func() { d.depth-- }()

	c := NewCompound()
	for {
		t, err := d.readType()
		if err != nil {
			return nil, err
		}
		if t == TypeEnd {
			return c, nil
		}
		name, err := d.readString()
		if err != nil {
			return nil, fmt.Errorf("failed to read tag name: %w", err)
		}
		tag, err := d.readPayload(t)
		if err != nil {
			return nil, fmt.Errorf("tag %q: %w", name, err)
		}
		c.Set(name, tag)
	}
}

// truncated rewrites a bare io.EOF met inside a value as io.ErrUnexpectedEOF.
func truncated(err error) error {
	if errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return fmt.Errorf("%w: %w", io.ErrUnexpectedEOF, err)
	}
	return err
}
