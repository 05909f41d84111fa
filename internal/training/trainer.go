package training

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/mcc4mcc/mcc4mcc/internal/results"
	"github.com/mcc4mcc/mcc4mcc/internal/values"
)

// ReferenceTrainer fits the simple predictors of this package. It stands in
// for an external learning library and keeps the extract/run cycle usable
// end to end.
type ReferenceTrainer struct {
	logger *slog.Logger
}

// NewReferenceTrainer creates a trainer. A nil logger uses slog.Default.
func NewReferenceTrainer(logger *slog.Logger) *ReferenceTrainer {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReferenceTrainer{logger: logger}
}

// Train builds the known lookup, fits every requested algorithm and scores
// both the tools and the algorithms per examination.
func (t *ReferenceTrainer) Train(ctx context.Context, ds *results.Dataset, opts Options) (*Knowledge, error) {
	algorithms := opts.Algorithms
	if len(algorithms) == 0 {
		algorithms = Algorithms
	}
	for _, a := range algorithms {
		if !slices.Contains(Algorithms, a) {
			return nil, fmt.Errorf("training: unknown algorithm %q", a)
		}
	}

	codec := values.NewCodec()
	features := keptFeatures(opts.Forget)
	pairs := winners(ds)
	samples := buildSamples(pairs, features, codec, opts.Duplicates)
	t.logger.Debug("Built training samples", "pairs", len(pairs), "samples", len(samples), "features", len(features))

	knowledge := &Knowledge{
		Known:    BuildKnown(ds),
		Values:   codec,
		MaxScore: len(pairs),
	}

	solved := solvedBy(ds)
	examinations := ds.Examinations()

	for _, algorithm := range algorithms {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("training: %w", err)
		}

		var (
			p   Predictor
			err error
		)
		switch algorithm {
		case AlgorithmMajority:
			p, err = fitMajority(features, samples)
		case AlgorithmNearest:
			p, err = fitNearest(features, samples)
		}
		if err != nil {
			return nil, fmt.Errorf("training: fitting %s: %w", algorithm, err)
		}
		knowledge.Predictors = append(knowledge.Predictors, p)

		entry := ScoreEntry{Algorithm: algorithm, IsAlgorithm: true, Scores: zeroScores(examinations)}
		for _, w := range pairs {
			code, err := p.Predict(w.features(codec))
			if err != nil {
				return nil, fmt.Errorf("training: scoring %s: %w", algorithm, err)
			}
			tool, _ := codec.Decode(code).AsText()
			if solved[solvedKey{w.record.Examination, w.record.Instance, tool}] {
				entry.Scores[w.record.Examination]++
			}
		}
		knowledge.Scores = append(knowledge.Scores, entry)
	}

	for _, tool := range ds.Tools() {
		entry := ScoreEntry{Algorithm: tool, IsTool: true, Scores: zeroScores(examinations)}
		for key := range solved {
			if key.tool == tool {
				entry.Scores[key.examination]++
			}
		}
		knowledge.Scores = append(knowledge.Scores, entry)
	}

	return knowledge, nil
}

// winner is the fastest record of one (examination, instance) pair.
type winner struct {
	record *results.Record
}

func (w winner) features(codec *values.Codec) map[string]float64 {
	return BuildFeatures(w.record.Examination, w.record.Model.Get, codec)
}

// winners returns the first record with the lowest relative time for each
// pair, in order of first appearance.
func winners(ds *results.Dataset) []winner {
	type pairKey struct{ examination, instance string }
	index := make(map[pairKey]int)
	var out []winner
	for _, r := range ds.Records {
		key := pairKey{r.Examination, r.Instance}
		i, ok := index[key]
		if !ok {
			index[key] = len(out)
			out = append(out, winner{record: r})
			continue
		}
		if r.RelativeTime < out[i].record.RelativeTime {
			out[i].record = r
		}
	}
	return out
}

func buildSamples(pairs []winner, features []string, codec *values.Codec, duplicates bool) []Sample {
	samples := make([]Sample, 0, len(pairs))
	seen := make(map[string]bool)
	for _, w := range pairs {
		s := Sample{
			Vector: vectorOf(w.features(codec), features),
			Label:  codec.Encode(values.Text(w.record.Tool)),
		}
		if !duplicates {
			key := fmt.Sprint(s.Vector, s.Label)
			if seen[key] {
				continue
			}
			seen[key] = true
		}
		samples = append(samples, s)
	}
	return samples
}

type solvedKey struct {
	examination string
	instance    string
	tool        string
}

func solvedBy(ds *results.Dataset) map[solvedKey]bool {
	solved := make(map[solvedKey]bool)
	for _, r := range ds.Records {
		solved[solvedKey{r.Examination, r.Instance, r.Tool}] = true
	}
	return solved
}

func zeroScores(examinations []string) map[string]float64 {
	scores := make(map[string]float64, len(examinations))
	for _, e := range examinations {
		scores[e] = 0
	}
	return scores
}
