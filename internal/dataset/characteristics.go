package dataset

import (
	"fmt"
	"sort"
	"strings"

	"github.com/mcc4mcc/mcc4mcc/internal/values"
)

// Characteristic names derived from the model type column.
const (
	PlaceTransition = "Place/Transition"
	Colored         = "Colored"
)

// CharacteristicColumns is the fixed column order of the characteristics file.
var CharacteristicColumns = []string{
	"Id",
	"Type",
	"Fixed size",
	"Parameterised",
	"Connected",
	"Conservative",
	"Deadlock",
	"Extended Free Choice",
	"Live",
	"Loop Free",
	"Marked Graph",
	"Nested Units",
	"Ordinary",
	"Quasi Live",
	"Reversible",
	"Safe",
	"Simple Free Choice",
	"Sink Place",
	"Sink Transition",
	"Source Place",
	"Source Transition",
	"State Machine",
	"Strongly Connected",
	"Sub-Conservative",
	"Origin",
	"Submitter",
	"Year",
}

// droppedCharacteristics are read but not kept once the type flags exist.
var droppedCharacteristics = map[string]bool{
	"Id":         true,
	"Type":       true,
	"Fixed size": true,
	"Origin":     true,
	"Submitter":  true,
	"Year":       true,
}

// StructuralProperties are the tri-state properties that the model archive's
// verdict document also reports, in a stable order.
var StructuralProperties = []string{
	"Ordinary",
	"Simple Free Choice",
	"Extended Free Choice",
	"State Machine",
	"Marked Graph",
	"Connected",
	"Strongly Connected",
	"Source Place",
	"Sink Place",
	"Source Transition",
	"Sink Transition",
	"Loop Free",
	"Conservative",
	"Sub-Conservative",
	"Nested Units",
	"Safe",
	"Deadlock",
	"Reversible",
	"Quasi Live",
	"Live",
}

// Characteristic is the structural description of one model. It is built
// once when the characteristics file is loaded and never changed.
type Characteristic struct {
	id         string
	properties map[string]values.Value
}

// NewCharacteristic builds a record from already-derived properties.
func NewCharacteristic(id string, properties map[string]values.Value) *Characteristic {
	props := make(map[string]values.Value, len(properties))
	for k, v := range properties {
		props[k] = v
	}
	return &Characteristic{id: id, properties: props}
}

// ID returns the model identifier.
func (c *Characteristic) ID() string { return c.id }

// Get returns the named property, or unknown if the model does not have it.
func (c *Characteristic) Get(name string) values.Value {
	return c.properties[name]
}

// Names returns the property names in sorted order.
func (c *Characteristic) Names() []string {
	names := make([]string, 0, len(c.properties))
	for k := range c.properties {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Properties returns a copy of all properties.
func (c *Characteristic) Properties() map[string]values.Value {
	out := make(map[string]values.Value, len(c.properties))
	for k, v := range c.properties {
		out[k] = v
	}
	return out
}

// Characteristics maps model identifiers to their records.
type Characteristics map[string]*Characteristic

// LoadCharacteristics reads the model characteristics file.
func LoadCharacteristics(path string) (Characteristics, error) {
	rows, err := ReadRows(path, CharacteristicColumns)
	if err != nil {
		return nil, err
	}
	return ParseCharacteristics(rows)
}

// ParseCharacteristics converts positional rows into records. The type
// column yields the Place/Transition and Colored flags and is then dropped
// together with the other descriptive columns.
func ParseCharacteristics(rows []Row) (Characteristics, error) {
	result := make(Characteristics, len(rows))
	for i, row := range rows {
		id := row["Id"]
		if id == "" {
			return nil, fmt.Errorf("characteristics: row %d has no Id", i+1)
		}
		props := make(map[string]values.Value, len(CharacteristicColumns))
		for _, column := range CharacteristicColumns {
			if droppedCharacteristics[column] {
				continue
			}
			props[column] = values.Parse(row[column])
		}
		kind := row["Type"]
		props[PlaceTransition] = values.Bool(strings.Contains(kind, "PT"))
		props[Colored] = values.Bool(strings.Contains(kind, "COLORED"))
		result[id] = &Characteristic{id: id, properties: props}
	}
	return result, nil
}
