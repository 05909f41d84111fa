// Package artifacts persists the output of training under a prefix derived
// from the training configuration, and loads it back for selection.
package artifacts

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mcc4mcc/mcc4mcc/internal/training"
	"github.com/mcc4mcc/mcc4mcc/internal/values"
	"github.com/santhosh-tekuri/jsonschema/v6"
)

// KnownName is the artifact holding the known-best lookup.
func KnownName(prefix string) string { return prefix + "-known.json" }

// LearnedName is the artifact holding the score table.
func LearnedName(prefix string) string { return prefix + "-learned.json" }

// ValuesName is the artifact holding the value codec table.
func ValuesName(prefix string) string { return prefix + "-values.json" }

// PredictorName is the artifact holding one trained predictor.
func PredictorName(prefix, algorithm string) string {
	return prefix + "-learned." + algorithm + ".json"
}

// Artifacts is the persisted knowledge loaded for selection.
type Artifacts struct {
	Prefix string
	Known  training.KnownLookup
	Scores []training.ScoreEntry
	Values *values.Codec
}

// Save writes every artifact of k under prefix.
func Save(ctx context.Context, store Store, prefix string, k *training.Knowledge) error {
	known, err := json.MarshalIndent(k.Known, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding known lookup: %w", err)
	}
	if err := store.Write(ctx, KnownName(prefix), known); err != nil {
		return err
	}

	scores, err := encodeScores(k.Scores)
	if err != nil {
		return fmt.Errorf("encoding score table: %w", err)
	}
	if err := store.Write(ctx, LearnedName(prefix), scores); err != nil {
		return err
	}

	table, err := json.MarshalIndent(k.Values, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding value table: %w", err)
	}
	if err := store.Write(ctx, ValuesName(prefix), table); err != nil {
		return err
	}

	for _, p := range k.Predictors {
		data, err := training.MarshalPredictor(p)
		if err != nil {
			return err
		}
		if err := store.Write(ctx, PredictorName(prefix, p.Algorithm()), data); err != nil {
			return err
		}
	}
	return nil
}

// Load reads and validates the known lookup, score table and value table
// stored under prefix.
func Load(ctx context.Context, store Store, prefix string) (*Artifacts, error) {
	a := &Artifacts{Prefix: prefix}

	data, err := readValid(ctx, store, KnownName(prefix), knownSchema)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(data, &a.Known); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", KnownName(prefix), err)
	}

	data, err = readValid(ctx, store, LearnedName(prefix), learnedSchema)
	if err != nil {
		return nil, err
	}
	if a.Scores, err = decodeScores(data); err != nil {
		return nil, fmt.Errorf("%s: %w", LearnedName(prefix), err)
	}

	data, err = readValid(ctx, store, ValuesName(prefix), valuesSchema)
	if err != nil {
		return nil, err
	}
	a.Values = values.NewCodec()
	if err := json.Unmarshal(data, a.Values); err != nil {
		return nil, fmt.Errorf("%s: %w", ValuesName(prefix), err)
	}

	return a, nil
}

// LoadPredictor reads the predictor trained with algorithm under prefix.
func LoadPredictor(ctx context.Context, store Store, prefix, algorithm string) (training.Predictor, error) {
	name := PredictorName(prefix, algorithm)
	data, err := store.Read(ctx, name)
	if err != nil {
		return nil, err
	}
	p, err := training.UnmarshalPredictor(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	if p.Algorithm() != algorithm {
		return nil, fmt.Errorf("%s holds a %s predictor", name, p.Algorithm())
	}
	return p, nil
}

func readValid(ctx context.Context, store Store, name string, schema *jsonschema.Schema) ([]byte, error) {
	data, err := store.Read(ctx, name)
	if err != nil {
		return nil, err
	}
	if err := validate(schema, name, data); err != nil {
		return nil, err
	}
	return data, nil
}

// Predictors loads predictors stored under one prefix on demand.
type Predictors struct {
	Store  Store
	Prefix string
}

// Predictor implements selection.PredictorSource.
func (p Predictors) Predictor(ctx context.Context, algorithm string) (training.Predictor, error) {
	return LoadPredictor(ctx, p.Store, p.Prefix, algorithm)
}
