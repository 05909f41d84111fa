// Package values holds the tagged domain value used by the results pipeline
// and the codec that maps those values to numeric codes for predictors.
package values

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Kind identifies which case of a Value is populated.
type Kind int

const (
	KindUnknown Kind = iota
	KindBool
	KindNumber
	KindText
)

func (k Kind) String() string {
	switch k {
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindText:
		return "text"
	default:
		return "unknown"
	}
}

// Value is one cell of a characteristics or results row: a boolean, a
// number, a piece of text, or unknown. The zero Value is unknown.
type Value struct {
	kind Kind
	b    bool
	n    float64
	s    string
}

func Unknown() Value            { return Value{} }
func Bool(b bool) Value         { return Value{kind: KindBool, b: b} }
func Number(n float64) Value    { return Value{kind: KindNumber, n: n} }
func Text(s string) Value       { return Value{kind: KindText, s: s} }
func (v Value) Kind() Kind      { return v.kind }
func (v Value) IsUnknown() bool { return v.kind == KindUnknown }

// AsBool returns the boolean and whether v holds one.
func (v Value) AsBool() (bool, bool) {
	return v.b, v.kind == KindBool
}

// AsNumber returns the number and whether v holds one.
func (v Value) AsNumber() (float64, bool) {
	return v.n, v.kind == KindNumber
}

// AsText returns the text and whether v holds text.
func (v Value) AsText() (string, bool) {
	return v.s, v.kind == KindText
}

// Truthy reports whether v is the boolean true.
func (v Value) Truthy() bool {
	return v.kind == KindBool && v.b
}

// Float returns the number held by v, or 0 for any other kind.
func (v Value) Float() float64 {
	if v.kind == KindNumber {
		return v.n
	}
	return 0
}

// String returns the text held by v, or its printed form for other kinds.
func (v Value) String() string {
	switch v.kind {
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindNumber:
		return strconv.FormatFloat(v.n, 'g', -1, 64)
	case KindText:
		return v.s
	default:
		return "unknown"
	}
}

// Equal reports whether two values have the same kind and content.
func (v Value) Equal(other Value) bool {
	return v == other
}

// Parse converts a raw cell from the contest files into a Value, following
// the spellings those files use for booleans and unknowns.
func Parse(raw string) Value {
	switch raw {
	case "TRUE", "True", "Yes", "OK":
		return Bool(true)
	case "FALSE", "False", "None":
		return Bool(false)
	case "Unknown":
		return Unknown()
	}
	if i, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return Number(float64(i))
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return Number(f)
	}
	return Text(raw)
}

// MarshalJSON encodes v as a JSON bool, number, string or null.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindBool:
		return json.Marshal(v.b)
	case KindNumber:
		return json.Marshal(v.n)
	case KindText:
		return json.Marshal(v.s)
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON decodes a JSON bool, number, string or null.
func (v *Value) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch x := raw.(type) {
	case nil:
		*v = Unknown()
	case bool:
		*v = Bool(x)
	case float64:
		*v = Number(x)
	case string:
		*v = Text(x)
	default:
		return fmt.Errorf("values: unsupported JSON value %s", string(data))
	}
	return nil
}
