package nbt

import (
	"fmt"

	"github.com/mch-analysis/pkg/collections"
)

// Compound is a set of uniquely named tags. Iteration and encoding follow insertion
// order; overwriting a key keeps its original position.
type Compound struct {
	entries *collections.OrderedMap[string, Tag]
}

// NewCompound creates an empty compound.
func NewCompound() *Compound {
	return &Compound{entries: collections.NewOrderedMap[string, Tag](0)}
}

func (*Compound) Type() Type { return TypeCompound }
func (*Compound) isTag()     {}

func (c *Compound) ensure() {
	if c.entries == nil {
		c.entries = collections.NewOrderedMap[string, Tag](0)
	}
}

// Set stores t under name. A later Set for the same name replaces the value.
func (c *Compound) Set(name string, t Tag) {
	c.ensure()
	c.entries.Set(name, t)
}

// Get returns the tag stored under name.
func (c *Compound) Get(name string) (Tag, bool) {
	if c == nil {
		return nil, false
	}
	return c.entries.Get(name)
}

// Has reports whether name is present.
func (c *Compound) Has(name string) bool {
	if c == nil {
		return false
	}
	return c.entries.Has(name)
}

// Delete removes name and reports whether it was present.
func (c *Compound) Delete(name string) bool {
	if c == nil {
		return false
	}
	return c.entries.Delete(name)
}

// Len returns the number of entries.
func (c *Compound) Len() int {
	if c == nil {
		return 0
	}
	return c.entries.Len()
}

// Keys returns entry names in insertion order.
func (c *Compound) Keys() []string {
	if c == nil {
		return nil
	}
	return c.entries.Keys()
}

// Range calls fn for each entry in insertion order until fn returns false.
func (c *Compound) Range(fn func(name string, t Tag) bool) {
	if c == nil {
		return
	}
	c.entries.Range(fn)
}

// GetCompound returns the compound stored under name.
func (c *Compound) GetCompound(name string) (*Compound, error) {
	t, err := c.lookup(name, TypeCompound)
	if err != nil {
		return nil, err
	}
	return t.(*Compound), nil
}

// GetList returns the list stored under name.
func (c *Compound) GetList(name string) (*List, error) {
	t, err := c.lookup(name, TypeList)
	if err != nil {
		return nil, err
	}
	return t.(*List), nil
}

// GetString returns the string stored under name.
func (c *Compound) GetString(name string) (string, error) {
	t, err := c.lookup(name, TypeString)
	if err != nil {
		return "", err
	}
	return string(t.(String)), nil
}

// GetInt returns the int stored under name.
func (c *Compound) GetInt(name string) (int32, error) {
	t, err := c.lookup(name, TypeInt)
	if err != nil {
		return 0, err
	}
	return int32(t.(Int)), nil
}

// GetLong returns the long stored under name.
func (c *Compound) GetLong(name string) (int64, error) {
	t, err := c.lookup(name, TypeLong)
	if err != nil {
		return 0, err
	}
	return int64(t.(Long)), nil
}

func (c *Compound) lookup(name string, want Type) (Tag, error) {
	t, ok := c.Get(name)
	if !ok {
		return nil, &MissingError{Name: name}
	}
	if t.Type() != want {
		return nil, &TypeMismatchError{Name: name, Want: want, Got: t.Type()}
	}
	return t, nil
}

// MissingError reports a compound lookup for an absent name.
type MissingError struct {
	Name string
}

func (e *MissingError) Error() string {
	return fmt.Sprintf("nbt: no tag named %q", e.Name)
}

// TypeMismatchError reports a compound lookup that found a tag of another type.
type TypeMismatchError struct {
	Name string
	Want Type
	Got  Type
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("nbt: tag %q is %s, want %s", e.Name, e.Got, e.Want)
}
