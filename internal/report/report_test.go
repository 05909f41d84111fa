package report

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/mcc4mcc/mcc4mcc/internal/history"
	"github.com/mcc4mcc/mcc4mcc/internal/smoketest"
	"github.com/mcc4mcc/mcc4mcc/internal/training"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTable_Render(t *testing.T) {
	tbl := &Table{Header: []string{"Name", "Score"}}
	tbl.Append("tapaal", "12")
	tbl.Append("漢字", "3")

	var buf bytes.Buffer
	require.NoError(t, tbl.Render(&buf))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "Name    Score", lines[0])
	assert.Equal(t, strings.Repeat("─", 13), lines[1])
	assert.Equal(t, "tapaal  12", lines[2])
	assert.Equal(t, "漢字    3", lines[3], "wide runes count twice")
}

func TestTable_Truncates(t *testing.T) {
	tbl := &Table{Header: []string{"Instance", "X"}, MaxWidth: 8}
	tbl.Append("Philosophers-PT-000005", "y")

	var buf bytes.Buffer
	require.NoError(t, tbl.Render(&buf))
	assert.Contains(t, buf.String(), "Philoso…  y")
}

func TestRankings(t *testing.T) {
	entries := []training.ScoreEntry{
		{Algorithm: "majority", IsAlgorithm: true, Scores: map[string]float64{"RD": 3, "SS": 0}},
		{Algorithm: "lola", IsTool: true, Scores: map[string]float64{"RD": 3, "SS": 2}},
		{Algorithm: "tapaal", IsTool: true, Scores: map[string]float64{"RD": 5}},
	}

	got := Rankings(entries, []string{"SS", "RD"})
	require.Len(t, got, 2)

	assert.Equal(t, "RD", got[0].Examination)
	assert.Equal(t, []RankedScore{
		{Name: "tapaal", Score: 5},
		{Name: "majority", Score: 3, IsAlgorithm: true},
		{Name: "lola", Score: 3},
	}, got[0].Entries)

	assert.Equal(t, "SS", got[1].Examination)
	assert.Equal(t, []RankedScore{{Name: "lola", Score: 2}}, got[1].Entries)
}

func TestWriteScores(t *testing.T) {
	var buf bytes.Buffer
	rankings := []Ranking{{Examination: "RD", Entries: []RankedScore{{Name: "nearest", Score: 1234, IsAlgorithm: true}}}}
	require.NoError(t, WriteScores(&buf, rankings, 2000))

	out := buf.String()
	assert.Contains(t, out, "nearest")
	assert.Contains(t, out, "algorithm")
	assert.Contains(t, out, "1,234")
	assert.Contains(t, out, "61.7%")
}

func TestWriteSmokeTests(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteSmokeTests(&buf, []smoketest.Result{
		{Examination: "RD", Tool: "lola", Instance: "P-PT-1", Passed: true},
		{Examination: "RD", Tool: "tapaal", Instance: "P-PT-1", Err: errors.New("boom")},
		{Examination: "SS", Tool: "lola", Skipped: true},
	}))

	out := buf.String()
	assert.Contains(t, out, "passed")
	assert.Contains(t, out, "failed")
	assert.Contains(t, out, "no instance")
}

func TestWriteRuns(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteRuns(&buf, []history.RunSummary{
		{Examination: "RD", Instance: "P-PT-1", Policy: "learned", Outcome: "succeeded", Tool: "lola", Attempts: 1, StartedAt: time.Now()},
		{Examination: "RD", Instance: "P-PT-2", Policy: "known"},
	}))

	out := buf.String()
	assert.Contains(t, out, "succeeded")
	assert.Contains(t, out, "running")
}
