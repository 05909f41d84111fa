package training

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
)

// Learning algorithms provided by the reference trainer.
const (
	AlgorithmMajority = "majority"
	AlgorithmNearest  = "nearest"
)

// Algorithms lists the supported learning algorithms.
var Algorithms = []string{AlgorithmMajority, AlgorithmNearest}

// ErrNoSamples is returned when fitting a predictor without training samples.
var ErrNoSamples = errors.New("training: no samples")

// Sample is one training example: the encoded features of a model under an
// examination, labelled with the encoded fastest tool.
type Sample struct {
	Vector []float64 `json:"vector"`
	Label  float64   `json:"label"`
}

// MajorityPredictor predicts, for each examination, the tool that was
// fastest most often. Unseen examinations get the overall most frequent tool.
type MajorityPredictor struct {
	ByExamination map[string]float64 `json:"by_examination"`
	Fallback      float64            `json:"fallback"`
}

func (p *MajorityPredictor) Algorithm() string { return AlgorithmMajority }

func (p *MajorityPredictor) Predict(features map[string]float64) (float64, error) {
	exam, ok := features[ExaminationFeature]
	if ok {
		if label, ok := p.ByExamination[codeKey(exam)]; ok {
			return label, nil
		}
	}
	return p.Fallback, nil
}

func fitMajority(features []string, samples []Sample) (*MajorityPredictor, error) {
	if len(samples) == 0 {
		return nil, ErrNoSamples
	}
	examIndex := indexOf(features, ExaminationFeature)

	perExam := make(map[string]map[float64]int)
	overall := make(map[float64]int)
	firstSeen := make(map[float64]int)
	for i, s := range samples {
		overall[s.Label]++
		if _, ok := firstSeen[s.Label]; !ok {
			firstSeen[s.Label] = i
		}
		if examIndex < 0 {
			continue
		}
		key := codeKey(s.Vector[examIndex])
		if perExam[key] == nil {
			perExam[key] = make(map[float64]int)
		}
		perExam[key][s.Label]++
	}

	p := &MajorityPredictor{
		ByExamination: make(map[string]float64, len(perExam)),
		Fallback:      mostFrequent(overall, firstSeen),
	}
	for key, counts := range perExam {
		p.ByExamination[key] = mostFrequent(counts, firstSeen)
	}
	return p, nil
}

// mostFrequent picks the label with the highest count; ties go to the label
// seen first in the samples.
func mostFrequent(counts map[float64]int, firstSeen map[float64]int) float64 {
	labels := make([]float64, 0, len(counts))
	for l := range counts {
		labels = append(labels, l)
	}
	sort.Slice(labels, func(i, j int) bool {
		if counts[labels[i]] != counts[labels[j]] {
			return counts[labels[i]] > counts[labels[j]]
		}
		return firstSeen[labels[i]] < firstSeen[labels[j]]
	})
	return labels[0]
}

// NearestPredictor predicts the label of the training sample whose encoded
// features differ from the query in the fewest positions. Samples for the
// query's examination are preferred when there are any.
type NearestPredictor struct {
	Features []string `json:"features"`
	Samples  []Sample `json:"samples"`
}

func (p *NearestPredictor) Algorithm() string { return AlgorithmNearest }

func (p *NearestPredictor) Predict(features map[string]float64) (float64, error) {
	if len(p.Samples) == 0 {
		return 0, ErrNoSamples
	}
	query := vectorOf(features, p.Features)
	examIndex := indexOf(p.Features, ExaminationFeature)

	pool := p.Samples
	if examIndex >= 0 {
		var same []Sample
		for _, s := range p.Samples {
			if s.Vector[examIndex] == query[examIndex] {
				same = append(same, s)
			}
		}
		if len(same) > 0 {
			pool = same
		}
	}

	best, bestDistance := 0, -1
	for i, s := range pool {
		d := hamming(query, s.Vector)
		if bestDistance < 0 || d < bestDistance {
			best, bestDistance = i, d
		}
	}
	return pool[best].Label, nil
}

func fitNearest(features []string, samples []Sample) (*NearestPredictor, error) {
	if len(samples) == 0 {
		return nil, ErrNoSamples
	}
	return &NearestPredictor{Features: features, Samples: samples}, nil
}

func hamming(a, b []float64) int {
	d := 0
	for i := range a {
		if i >= len(b) || a[i] != b[i] {
			d++
		}
	}
	return d
}

func indexOf(names []string, name string) int {
	for i, n := range names {
		if n == name {
			return i
		}
	}
	return -1
}

func codeKey(code float64) string {
	return strconv.FormatFloat(code, 'g', -1, 64)
}

// envelope is the serialized form of a predictor.
type envelope struct {
	Algorithm string          `json:"algorithm"`
	Model     json.RawMessage `json:"model"`
}

// MarshalPredictor serializes a predictor produced by this package.
func MarshalPredictor(p Predictor) ([]byte, error) {
	model, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("training: encoding %s predictor: %w", p.Algorithm(), err)
	}
	return json.Marshal(envelope{Algorithm: p.Algorithm(), Model: model})
}

// UnmarshalPredictor restores a predictor written by MarshalPredictor.
func UnmarshalPredictor(data []byte) (Predictor, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("training: decoding predictor: %w", err)
	}

	var p Predictor
	switch env.Algorithm {
	case AlgorithmMajority:
		p = &MajorityPredictor{}
	case AlgorithmNearest:
		p = &NearestPredictor{}
	default:
		return nil, fmt.Errorf("training: unknown algorithm %q", env.Algorithm)
	}
	if err := json.Unmarshal(env.Model, p); err != nil {
		return nil, fmt.Errorf("training: decoding %s predictor: %w", env.Algorithm, err)
	}
	return p, nil
}
