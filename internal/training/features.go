package training

import (
	"github.com/mcc4mcc/mcc4mcc/internal/dataset"
	"github.com/mcc4mcc/mcc4mcc/internal/values"
)

// ExaminationFeature is the feature holding the encoded examination name.
const ExaminationFeature = "Examination"

// FeatureNames lists every feature a predictor may use, in vector order.
func FeatureNames() []string {
	names := []string{ExaminationFeature, dataset.PlaceTransition, dataset.Colored}
	return append(names, dataset.StructuralProperties...)
}

// BuildFeatures encodes the examination and the structural characteristics
// returned by get into a feature map. Absent characteristics encode as
// unknown. The same codec must be used for training and prediction.
func BuildFeatures(examination string, get func(name string) values.Value, codec *values.Codec) map[string]float64 {
	features := make(map[string]float64, len(dataset.StructuralProperties)+3)
	features[ExaminationFeature] = codec.Encode(values.Text(examination))
	for _, name := range FeatureNames()[1:] {
		features[name] = codec.Encode(get(name))
	}
	return features
}

// keptFeatures returns FeatureNames without the forgotten ones.
func keptFeatures(forget []string) []string {
	drop := make(map[string]bool, len(forget))
	for _, f := range forget {
		drop[f] = true
	}
	var kept []string
	for _, name := range FeatureNames() {
		if !drop[name] {
			kept = append(kept, name)
		}
	}
	return kept
}

func vectorOf(features map[string]float64, names []string) []float64 {
	vec := make([]float64, len(names))
	for i, name := range names {
		v, ok := features[name]
		if !ok {
			v = values.CodeUnknown
		}
		vec[i] = v
	}
	return vec
}
