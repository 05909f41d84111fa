package artifacts

import (
	"encoding/json"
	"fmt"

	"github.com/go-viper/mapstructure/v2"
	"github.com/mcc4mcc/mcc4mcc/internal/training"
)

// Score table keys other than examination names.
const (
	keyAlgorithm   = "Algorithm"
	keyIsTool      = "Is-Tool"
	keyIsAlgorithm = "Is-Algorithm"
)

// scoreRow is the decoded shape of one score table entry: three fixed keys
// and one number per examination.
type scoreRow struct {
	Algorithm   string         `mapstructure:"Algorithm"`
	IsTool      bool           `mapstructure:"Is-Tool"`
	IsAlgorithm bool           `mapstructure:"Is-Algorithm"`
	Scores      map[string]any `mapstructure:",remain"`
}

func encodeScores(entries []training.ScoreEntry) ([]byte, error) {
	rows := make([]map[string]any, 0, len(entries))
	for _, e := range entries {
		row := make(map[string]any, len(e.Scores)+3)
		for exam, score := range e.Scores {
			row[exam] = score
		}
		row[keyAlgorithm] = e.Algorithm
		row[keyIsTool] = e.IsTool
		row[keyIsAlgorithm] = e.IsAlgorithm
		rows = append(rows, row)
	}
	return json.MarshalIndent(rows, "", "  ")
}

func decodeScores(data []byte) ([]training.ScoreEntry, error) {
	var raw []map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decoding score table: %w", err)
	}

	entries := make([]training.ScoreEntry, 0, len(raw))
	for i, r := range raw {
		var row scoreRow
		if err := mapstructure.Decode(r, &row); err != nil {
			return nil, fmt.Errorf("decoding score table entry %d: %w", i, err)
		}
		entry := training.ScoreEntry{
			Algorithm:   row.Algorithm,
			IsTool:      row.IsTool,
			IsAlgorithm: row.IsAlgorithm,
			Scores:      make(map[string]float64, len(row.Scores)),
		}
		for exam, v := range row.Scores {
			score, ok := v.(float64)
			if !ok {
				return nil, fmt.Errorf("score table entry %d: score for %s is %T, not a number", i, exam, v)
			}
			entry.Scores[exam] = score
		}
		entries = append(entries, entry)
	}
	return entries, nil
}
