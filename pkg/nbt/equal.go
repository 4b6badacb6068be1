package nbt

import (
	"math"
	"slices"
)

// Equal reports whether two trees hold the same values. Compounds compare as
// mappings, so entry order is ignored. Floats compare by bit pattern, which makes a
// NaN equal to itself after a round trip.
func Equal(a, b Tag) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if a.Type() != b.Type() {
		return false
	}
	switch x := a.(type) {
	case End:
		return true
	case Byte, Short, Int, Long, String:
		return a == b
	case Float:
		return math.Float32bits(float32(x)) == math.Float32bits(float32(b.(Float)))
	case Double:
		return math.Float64bits(float64(x)) == math.Float64bits(float64(b.(Double)))
	case ByteArray:
		return slices.Equal(x, b.(ByteArray))
	case IntArray:
		return slices.Equal(x, b.(IntArray))
	case LongArray:
		return slices.Equal(x, b.(LongArray))
	case *List:
		y := b.(*List)
		if x.Len() != y.Len() || x.ElemType() != y.ElemType() {
			return false
		}
		for i := 0; i < x.Len(); i++ {
			if !Equal(x.At(i), y.At(i)) {
				return false
			}
		}
		return true
	case *Compound:
		y := b.(*Compound)
		if x.Len() != y.Len() {
			return false
		}
		eq := true
		x.Range(func(name string, t Tag) bool {
			other, ok := y.Get(name)
			eq = ok && Equal(t, other)
			return eq
		})
		return eq
	}
	return false
}
