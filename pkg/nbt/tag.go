// Package nbt implements the recursive, type-tagged binary format used for persisted
// world and entity state.
//
// # Model
//
// A Tag is one of thirteen closed variants. Scalars are plain named Go types
// (Byte, Short, Int, Long, Float, Double, String) and arrays are named slices.
// The two containers, *List and *Compound, hold their children by composition and
// expose explicit accessors:
//
//	root := nbt.NewCompound()
//	root.Set("Name", nbt.String("world"))
//	root.Set("Seed", nbt.Long(-42))
//	packs, _ := nbt.NewList(nbt.String("vanilla"), nbt.String("file/mch"))
//	root.Set("Enabled", packs)
//
// # Codec
//
// Encode/Decode write and read a single type-tagged value. WriteRoot/ReadRoot handle
// the gzip-compressed document envelope used by files such as level.dat.
package nbt

import "fmt"

// Type is the one-byte discriminator written before every tag.
// The ordinals are part of the wire format and must never change.
type Type byte

const (
	TypeEnd       Type = 0
	TypeByte      Type = 1
	TypeShort     Type = 2
	TypeInt       Type = 3
	TypeLong      Type = 4
	TypeFloat     Type = 5
	TypeDouble    Type = 6
	TypeByteArray Type = 7
	TypeString    Type = 8
	TypeList      Type = 9
	TypeCompound  Type = 10
	TypeIntArray  Type = 11
	TypeLongArray Type = 12
)

var typeNames = [...]string{
	TypeEnd:       "End",
	TypeByte:      "Byte",
	TypeShort:     "Short",
	TypeInt:       "Int",
	TypeLong:      "Long",
	TypeFloat:     "Float",
	TypeDouble:    "Double",
	TypeByteArray: "ByteArray",
	TypeString:    "String",
	TypeList:      "List",
	TypeCompound:  "Compound",
	TypeIntArray:  "IntArray",
	TypeLongArray: "LongArray",
}

// Valid reports whether t is one of the known ordinals.
func (t Type) Valid() bool {
	return int(t) < len(typeNames)
}

// String returns the variant name.
func (t Type) String() string {
	if t.Valid() {
		return typeNames[t]
	}
	return fmt.Sprintf("Type(%d)", byte(t))
}

// Tag is a node of a tag tree. The set of implementations is closed.
type Tag interface {
	// Type returns the discriminator written on the wire.
	Type() Type
	isTag()
}

type (
	// End marks the end of a compound. As a value it only appears as the element
	// type of an empty list.
	End struct{}
	// Byte is a signed 8-bit integer.
	Byte int8
	// Short is a signed 16-bit integer.
	Short int16
	// Int is a signed 32-bit integer.
	Int int32
	// Long is a signed 64-bit integer.
	Long int64
	// Float is an IEEE-754 single.
	Float float32
	// Double is an IEEE-754 double.
	Double float64
	// ByteArray is an ordered sequence of signed bytes.
	ByteArray []int8
	// String is text, written length-prefixed in modified UTF-8.
	String string
	// IntArray is an ordered sequence of signed 32-bit integers.
	IntArray []int32
	// LongArray is an ordered sequence of signed 64-bit integers.
	LongArray []int64
)

func (End) Type() Type       { return TypeEnd }
func (Byte) Type() Type      { return TypeByte }
func (Short) Type() Type     { return TypeShort }
func (Int) Type() Type       { return TypeInt }
func (Long) Type() Type      { return TypeLong }
func (Float) Type() Type     { return TypeFloat }
func (Double) Type() Type    { return TypeDouble }
func (ByteArray) Type() Type { return TypeByteArray }
func (String) Type() Type    { return TypeString }
func (IntArray) Type() Type  { return TypeIntArray }
func (LongArray) Type() Type { return TypeLongArray }

func (End) isTag()       {}
func (Byte) isTag()      {}
func (Short) isTag()     {}
func (Int) isTag()       {}
func (Long) isTag()      {}
func (Float) isTag()     {}
func (Double) isTag()    {}
func (ByteArray) isTag() {}
func (String) isTag()    {}
func (IntArray) isTag()  {}
func (LongArray) isTag() {}
