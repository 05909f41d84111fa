package values

import (
	"encoding/json"
	"fmt"
)

// Fixed codes shared by every table.
const (
	CodeFalse   = -1
	CodeUnknown = -2
	CodeTrue    = -3

	// firstAllocated is the code handed to the first categorical value
	// that is not one of the fixed entries. Later values count down.
	firstAllocated = -10
)

// Entry is one value-to-code mapping in a Codec table.
type Entry struct {
	Value Value `json:"value"`
	Code  int   `json:"code"`
}

// Codec maps booleans, unknowns and categorical text to negative integer
// codes and back. The table only grows: codes are never removed or
// renumbered, so a table persisted after training stays valid when it is
// reloaded for prediction. A Codec is not safe for concurrent Encode calls.
type Codec struct {
	entries []Entry
	index   map[Value]int
	next    int
}

// NewCodec returns a table holding only the fixed entries.
func NewCodec() *Codec {
	c := &Codec{
		index: make(map[Value]int),
		next:  firstAllocated,
	}
	c.add(Bool(false), CodeFalse)
	c.add(Unknown(), CodeUnknown)
	c.add(Bool(true), CodeTrue)
	return c
}

func (c *Codec) add(v Value, code int) {
	c.index[v] = code
	c.entries = append(c.entries, Entry{Value: v, Code: code})
}

// Encode returns the code for v. Booleans, text and unknown go through the
// table, allocating a new code the first time a value is seen. Numbers pass
// through unchanged.
func (c *Codec) Encode(v Value) float64 {
	if v.Kind() == KindNumber {
		return v.Float()
	}
	if code, ok := c.index[v]; ok {
		return float64(code)
	}
	code := c.next
	c.next--
	c.add(v, code)
	return float64(code)
}

// Decode returns the value whose code is code, or unknown when no entry
// matches.
func (c *Codec) Decode(code float64) Value {
	for _, e := range c.entries {
		if float64(e.Code) == code {
			return e.Value
		}
	}
	return Unknown()
}

// Len returns the number of entries in the table.
func (c *Codec) Len() int {
	return len(c.entries)
}

// Entries returns a copy of the table in allocation order.
func (c *Codec) Entries() []Entry {
	out := make([]Entry, len(c.entries))
	copy(out, c.entries)
	return out
}

// Clone returns an independent copy of the table.
func (c *Codec) Clone() *Codec {
	out := &Codec{index: make(map[Value]int, len(c.index)), next: c.next}
	for _, e := range c.entries {
		out.add(e.Value, e.Code)
	}
	return out
}

// MarshalJSON writes the table as an ordered list of entries.
func (c *Codec) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.entries)
}

// UnmarshalJSON restores a persisted table. Allocation resumes below the
// smallest stored code so reloaded tables never hand out a used code.
func (c *Codec) UnmarshalJSON(data []byte) error {
	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return fmt.Errorf("values: decoding codec table: %w", err)
	}

	loaded := &Codec{index: make(map[Value]int, len(entries)), next: firstAllocated}
	codes := make(map[int]Value, len(entries))
	for _, e := range entries {
		if e.Value.Kind() == KindNumber {
			return fmt.Errorf("values: codec entry %d holds a number", e.Code)
		}
		if _, dup := loaded.index[e.Value]; dup {
			return fmt.Errorf("values: codec value %s appears twice", e.Value)
		}
		if prev, dup := codes[e.Code]; dup {
			return fmt.Errorf("values: codec code %d used by %s and %s", e.Code, prev, e.Value)
		}
		codes[e.Code] = e.Value
		loaded.add(e.Value, e.Code)
		if e.Code <= loaded.next {
			loaded.next = e.Code - 1
		}
	}

	for v, code := range map[Value]int{Bool(false): CodeFalse, Unknown(): CodeUnknown, Bool(true): CodeTrue} {
		if got, ok := loaded.index[v]; !ok || got != code {
			return fmt.Errorf("values: codec table does not map %s to %d", v, code)
		}
	}

	*c = *loaded
	return nil
}
