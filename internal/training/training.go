// Package training builds the knowledge the selection engine consumes: the
// lookup of historically best tools and the trained predictors, together
// with per-examination scores used to pick a predictor.
package training

import (
	"context"
	"sort"

	"github.com/mcc4mcc/mcc4mcc/internal/results"
	"github.com/mcc4mcc/mcc4mcc/internal/values"
)

// Predictor maps an encoded feature vector to an encoded tool name.
type Predictor interface {
	// Algorithm names the learning algorithm that produced the predictor.
	Algorithm() string

	// Predict returns the code of the predicted tool.
	Predict(features map[string]float64) (float64, error)
}

// KnownEntry is one historically observed tool with its measurements.
// Time and Memory are nil when the entry was not taken from history, as
// with a tool forced on the command line.
type KnownEntry struct {
	Tool   string   `json:"Tool"`
	Time   *float64 `json:"Time"`
	Memory *float64 `json:"Memory"`
}

// KnownLookup is keyed by examination, then by instance or model name.
// Each list is ordered best first.
type KnownLookup map[string]map[string][]KnownEntry

// Lookup returns the entries for an instance, falling back to its model.
func (k KnownLookup) Lookup(examination, instance, model string) ([]KnownEntry, bool) {
	byID, ok := k[examination]
	if !ok {
		return nil, false
	}
	if entries, ok := byID[instance]; ok && len(entries) > 0 {
		return entries, true
	}
	if entries, ok := byID[model]; ok && len(entries) > 0 {
		return entries, true
	}
	return nil, false
}

// ScoreEntry is one row of the score table: either a tool or a learning
// algorithm, with its score per examination.
type ScoreEntry struct {
	Algorithm   string
	IsTool      bool
	IsAlgorithm bool
	Scores      map[string]float64
}

// Score returns the entry's score for examination, zero when absent.
func (e ScoreEntry) Score(examination string) float64 {
	return e.Scores[examination]
}

// BestAlgorithm returns the learning algorithm with the highest score for
// examination. Ties go to the name that sorts first.
func BestAlgorithm(entries []ScoreEntry, examination string) (string, bool) {
	candidates := make([]ScoreEntry, 0, len(entries))
	for _, e := range entries {
		if e.IsAlgorithm {
			candidates = append(candidates, e)
		}
	}
	if len(candidates) == 0 {
		return "", false
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		si, sj := candidates[i].Score(examination), candidates[j].Score(examination)
		if si != sj {
			return si > sj
		}
		return candidates[i].Algorithm < candidates[j].Algorithm
	})
	return candidates[0].Algorithm, true
}

// Knowledge is everything a training run produces.
type Knowledge struct {
	Known      KnownLookup
	Predictors []Predictor
	Scores     []ScoreEntry
	Values     *values.Codec
	MaxScore   int
}

// Options tune a training run.
type Options struct {
	// Forget lists characteristics left out of the feature vectors.
	Forget []string
	// Duplicates keeps repeated (features, tool) samples.
	Duplicates bool
	// Algorithms selects the learning algorithms to fit. Empty fits all.
	Algorithms []string
}

// Trainer turns a normalized dataset into knowledge.
type Trainer interface {
	Train(ctx context.Context, ds *results.Dataset, opts Options) (*Knowledge, error)
}
