package dataset

import (
	"github.com/mcc4mcc/mcc4mcc/internal/values"
)

// ResultColumns is the fixed column order of the contest results file.
var ResultColumns = []string{
	"Year",
	"Tool",
	"Instance",
	"Examination",
	"Cores",
	"Time OK",
	"Memory OK",
	"Results",
	"Techniques",
	"Memory",
	"CPU Time",
	"Clock Time",
	"IO Time",
	"Status",
	"Id",
}

// RawResult is one row of the results file before validation.
type RawResult struct {
	Year        int
	Tool        string
	Instance    string
	Examination string
	TimeOK      values.Value
	MemoryOK    values.Value
	Results     string
	Techniques  string
	Memory      float64
	CPUTime     float64
	ClockTime   float64
	IOTime      float64
	Status      string
}

// LoadResults reads the contest results file.
func LoadResults(path string) ([]RawResult, error) {
	rows, err := ReadRows(path, ResultColumns)
	if err != nil {
		return nil, err
	}
	return ParseResults(rows), nil
}

// ParseResults converts positional rows into raw results. Cells that do not
// hold a number where one is expected read as zero; validity is decided
// later by the normalizer.
func ParseResults(rows []Row) []RawResult {
	out := make([]RawResult, 0, len(rows))
	for _, row := range rows {
		out = append(out, RawResult{
			Year:        int(values.Parse(row["Year"]).Float()),
			Tool:        row["Tool"],
			Instance:    row["Instance"],
			Examination: row["Examination"],
			TimeOK:      values.Parse(row["Time OK"]),
			MemoryOK:    values.Parse(row["Memory OK"]),
			Results:     row["Results"],
			Techniques:  row["Techniques"],
			Memory:      values.Parse(row["Memory"]).Float(),
			CPUTime:     values.Parse(row["CPU Time"]).Float(),
			ClockTime:   values.Parse(row["Clock Time"]).Float(),
			IOTime:      values.Parse(row["IO Time"]).Float(),
			Status:      row["Status"],
		})
	}
	return out
}
