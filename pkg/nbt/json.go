package nbt

import "encoding/json"

// MarshalJSON encodes the list as a JSON array of its elements.
func (l *List) MarshalJSON() ([]byte, error) {
	if l == nil || len(l.tags) == 0 {
		return []byte("[]"), nil
	}
	return json.Marshal(l.tags)
}

// MarshalJSON encodes the compound as a JSON object with entries in insertion order.
// Numeric widths are not preserved.
func (c *Compound) MarshalJSON() ([]byte, error) {
	if c == nil || c.entries == nil {
		return []byte("{}"), nil
	}
	return c.entries.MarshalJSON()
}
