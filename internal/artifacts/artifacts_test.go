package artifacts

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/mcc4mcc/mcc4mcc/internal/training"
	"github.com/mcc4mcc/mcc4mcc/internal/values"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func float(f float64) *float64 { return &f }

func sampleKnowledge() *training.Knowledge {
	codec := values.NewCodec()
	tapaal := codec.Encode(values.Text("tapaal"))
	codec.Encode(values.Text("ReachabilityDeadlock"))

	return &training.Knowledge{
		Known: training.KnownLookup{
			"ReachabilityDeadlock": {
				"Philosophers-PT-000005": {
					{Tool: "tapaal", Time: float(1.5), Memory: float(30)},
					{Tool: "lola", Time: float(2), Memory: float(25)},
				},
			},
		},
		Predictors: []training.Predictor{
			&training.MajorityPredictor{ByExamination: map[string]float64{}, Fallback: tapaal},
		},
		Scores: []training.ScoreEntry{
			{Algorithm: "majority", IsAlgorithm: true, Scores: map[string]float64{"ReachabilityDeadlock": 4}},
			{Algorithm: "tapaal", IsTool: true, Scores: map[string]float64{"ReachabilityDeadlock": 3}},
		},
		Values:   codec,
		MaxScore: 5,
	}
}

func TestFingerprint(t *testing.T) {
	a := Fingerprint([]string{"Colored", "Live"}, []string{"lola"})
	b := Fingerprint([]string{"Live", "Colored"}, []string{"lola"})
	assert.Equal(t, a, b, "order within a list must not matter")
	assert.Len(t, a, 16)

	assert.NotEqual(t, a, Fingerprint([]string{"Colored", "Live", "lola"}, nil))
	assert.NotEqual(t, Fingerprint([]string{"a"}, nil), Fingerprint(nil, []string{"a"}))
	assert.Equal(t, DefaultPrefix(), Fingerprint([]string{}, []string{}))
}

func TestDirStore(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "nested")
	s := NewDirStore(dir)

	_, err := s.Read(ctx, "missing.json")
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Write(ctx, "a.json", []byte("[]")))
	data, err := s.Read(ctx, "a.json")
	require.NoError(t, err)
	assert.Equal(t, "[]", string(data))

	require.Error(t, s.Write(ctx, "../escape.json", nil))
	_, err = s.Read(ctx, "")
	require.Error(t, err)
}

func TestSaveLoad(t *testing.T) {
	ctx := context.Background()
	s := NewDirStore(t.TempDir())
	k := sampleKnowledge()
	prefix := DefaultPrefix()

	require.NoError(t, Save(ctx, s, prefix, k))

	for _, name := range []string{KnownName(prefix), LearnedName(prefix), ValuesName(prefix), PredictorName(prefix, "majority")} {
		assert.FileExists(t, filepath.Join(s.Dir(), name))
	}

	a, err := Load(ctx, s, prefix)
	require.NoError(t, err)
	assert.Equal(t, prefix, a.Prefix)
	assert.Equal(t, k.Known, a.Known)
	assert.ElementsMatch(t, k.Scores, a.Scores)
	assert.Equal(t, k.Values.Entries(), a.Values.Entries())

	p, err := LoadPredictor(ctx, s, prefix, "majority")
	require.NoError(t, err)
	code, err := p.Predict(map[string]float64{})
	require.NoError(t, err)
	assert.Equal(t, values.Text("tapaal"), a.Values.Decode(code))

	_, err = Predictors{Store: s, Prefix: prefix}.Predictor(ctx, "nearest")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestLoad_MissingArtifacts(t *testing.T) {
	_, err := Load(context.Background(), NewDirStore(t.TempDir()), DefaultPrefix())
	require.ErrorIs(t, err, ErrNotFound)
}

func TestLoad_SchemaViolations(t *testing.T) {
	tests := []struct {
		name     string
		artifact func(prefix string) string
		content  string
	}{
		{"known entry without tool", KnownName, `{"RD": {"m": [{"Time": 1}]}}`},
		{"known is a list", KnownName, `[]`},
		{"score without flags", LearnedName, `[{"Algorithm": "x", "RD": 1}]`},
		{"score is text", LearnedName, `[{"Algorithm": "x", "Is-Tool": true, "Is-Algorithm": false, "RD": "high"}]`},
		{"positive code", ValuesName, `[{"value": true, "code": 3}]`},
		{"number value", ValuesName, `[{"value": 4, "code": -10}]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			s := NewDirStore(t.TempDir())
			prefix := DefaultPrefix()
			require.NoError(t, Save(ctx, s, prefix, sampleKnowledge()))
			require.NoError(t, os.WriteFile(filepath.Join(s.Dir(), tt.artifact(prefix)), []byte(tt.content), 0644))

			_, err := Load(ctx, s, prefix)
			var schemaErr *SchemaError
			require.ErrorAs(t, err, &schemaErr)
			assert.Equal(t, tt.artifact(prefix), schemaErr.Artifact)
			assert.NotEmpty(t, schemaErr.Violations)
		})
	}
}

func TestLoad_InvalidJSON(t *testing.T) {
	ctx := context.Background()
	s := NewDirStore(t.TempDir())
	prefix := DefaultPrefix()
	require.NoError(t, Save(ctx, s, prefix, sampleKnowledge()))
	require.NoError(t, os.WriteFile(filepath.Join(s.Dir(), KnownName(prefix)), []byte("{"), 0644))

	_, err := Load(ctx, s, prefix)
	require.ErrorContains(t, err, "not valid JSON")
}

func TestSplitContainerURL(t *testing.T) {
	service, container, err := splitContainerURL("https://acct.blob.core.windows.net/mcc4mcc/")
	require.NoError(t, err)
	assert.Equal(t, "https://acct.blob.core.windows.net/", service)
	assert.Equal(t, "mcc4mcc", container)

	for _, bad := range []string{"acct.blob.core.windows.net/x", "https://acct.blob.core.windows.net/", "https://acct.blob.core.windows.net/a/b"} {
		_, _, err := splitContainerURL(bad)
		assert.Error(t, err, bad)
	}
}
