package nbt

import "fmt"

// List is an ordered sequence of tags that all share one element type.
// An empty list has element type TypeEnd.
type List struct {
	elemType Type
	tags     []Tag
}

// NewList builds a list from elems, inferring the element type from the first one.
// It fails with ErrMixedList if any member has a different type.
func NewList(elems ...Tag) (*List, error) {
	l := &List{elemType: TypeEnd}
	for _, e := range elems {
		if err := l.Append(e); err != nil {
			return nil, err
		}
	}
	return l, nil
}

// MustList is like NewList but panics on a type mismatch. Intended for literals in tests.
func MustList(elems ...Tag) *List {
	l, err := NewList(elems...)
	if err != nil {
		panic(err)
	}
	return l
}

func (*List) Type() Type { return TypeList }
func (*List) isTag()     {}

// ElemType returns the type written for the elements; TypeEnd when the list is empty.
func (l *List) ElemType() Type {
	if l == nil || len(l.tags) == 0 {
		return TypeEnd
	}
	return l.elemType
}

// Len returns the number of elements.
func (l *List) Len() int {
	if l == nil {
		return 0
	}
	return len(l.tags)
}

// At returns the element at index i.
func (l *List) At(i int) Tag {
	return l.tags[i]
}

// Tags returns a copy of the elements.
func (l *List) Tags() []Tag {
	if l == nil {
		return nil
	}
	out := make([]Tag, len(l.tags))
	copy(out, l.tags)
	return out
}

// Append adds t to the end of the list after checking it matches the element type.
func (l *List) Append(t Tag) error {
	if t == nil {
		return ErrNilTag
	}
	if t.Type() == TypeEnd {
		return fmt.Errorf("%w: End cannot be a list element", ErrMixedList)
	}
	if len(l.tags) == 0 {
		l.elemType = t.Type()
	} else if t.Type() != l.elemType {
		return fmt.Errorf("%w: have %s, list holds %s", ErrMixedList, t.Type(), l.elemType)
	}
	l.tags = append(l.tags, t)
	return nil
}

// Validate checks every element against the element type. Lists built through
// NewList and Append are always valid; this guards lists assembled by the decoder
// or mutated through other means before encoding.
func (l *List) Validate() error {
	if len(l.tags) == 0 {
		return nil
	}
	if l.elemType == TypeEnd {
		return ErrInvalidList
	}
	for i, t := range l.tags {
		if t == nil {
			return fmt.Errorf("element %d: %w", i, ErrNilTag)
		}
		if t.Type() != l.elemType {
			return fmt.Errorf("%w: element %d is %s, list holds %s", ErrMixedList, i, t.Type(), l.elemType)
		}
	}
	return nil
}
