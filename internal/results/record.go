package results

import (
	"sort"

	"github.com/mcc4mcc/mcc4mcc/internal/dataset"
)

// Record is one valid historical run after normalization. Records are
// built by Normalize and only read afterwards.
type Record struct {
	Year        int
	Tool        string
	Instance    string
	Examination string
	Memory      float64
	Time        float64

	// Model is the characteristics record of the instance's model.
	Model    *dataset.Characteristic
	Surprise bool

	// Techniques holds one entry per tag of the dataset vocabulary.
	Techniques map[string]bool

	RelativeTime   float64
	RelativeMemory float64
}

// Stats counts how the input rows were disposed of.
type Stats struct {
	Read         int `json:"read"`
	WrongYear    int `json:"wrong_year"`
	Excluded     int `json:"excluded"`
	Invalid      int `json:"invalid"`
	UnknownModel int `json:"unknown_model"`
	Retained     int `json:"retained"`
}

// Dataset is the output of the normalizer.
type Dataset struct {
	Records    []*Record
	Techniques *Vocabulary
	Stats      Stats
}

// Examinations returns the distinct examinations in sorted order.
func (d *Dataset) Examinations() []string {
	return d.distinct(func(r *Record) string { return r.Examination })
}

// Tools returns the distinct tools in sorted order.
func (d *Dataset) Tools() []string {
	return d.distinct(func(r *Record) string { return r.Tool })
}

// Instances returns the distinct instances in sorted order.
func (d *Dataset) Instances() []string {
	return d.distinct(func(r *Record) string { return r.Instance })
}

func (d *Dataset) distinct(key func(*Record) string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, r := range d.Records {
		k := key(r)
		if !seen[k] {
			seen[k] = true
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}

// Filter returns a dataset holding the records that satisfy keep, in their
// original order. The vocabulary is shared.
func (d *Dataset) Filter(keep func(*Record) bool) *Dataset {
	out := &Dataset{Techniques: d.Techniques, Stats: d.Stats}
	for _, r := range d.Records {
		if keep(r) {
			out.Records = append(out.Records, r)
		}
	}
	out.Stats.Retained = len(out.Records)
	return out
}
