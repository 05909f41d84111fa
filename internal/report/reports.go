package report

import (
	"io"
	"sort"
	"strconv"
	"time"

	"github.com/mcc4mcc/mcc4mcc/internal/history"
	"github.com/mcc4mcc/mcc4mcc/internal/smoketest"
	"github.com/mcc4mcc/mcc4mcc/internal/training"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.English)

// Ranking is one examination's scores, best first, omitting zero scores.
type Ranking struct {
	Examination string
	Entries     []RankedScore
}

// RankedScore is a tool or algorithm with its score.
type RankedScore struct {
	Name        string
	Score       float64
	IsAlgorithm bool
}

// Rankings orders the score table per examination. Within an examination,
// higher scores come first and ties are broken by name, descending.
func Rankings(entries []training.ScoreEntry, examinations []string) []Ranking {
	exams := make([]string, len(examinations))
	copy(exams, examinations)
	sort.Strings(exams)

	out := make([]Ranking, 0, len(exams))
	for _, exam := range exams {
		r := Ranking{Examination: exam}
		for _, e := range entries {
			if score := e.Score(exam); score > 0 {
				r.Entries = append(r.Entries, RankedScore{Name: e.Algorithm, Score: score, IsAlgorithm: e.IsAlgorithm})
			}
		}
		sort.SliceStable(r.Entries, func(i, j int) bool {
			if r.Entries[i].Score != r.Entries[j].Score {
				return r.Entries[i].Score > r.Entries[j].Score
			}
			return r.Entries[i].Name > r.Entries[j].Name
		})
		out = append(out, r)
	}
	return out
}

// WriteScores renders the rankings with each score as a share of maxScore.
func WriteScores(w io.Writer, rankings []Ranking, maxScore int) error {
	t := &Table{Header: []string{"Examination", "Name", "Kind", "Score", "Share"}, MaxWidth: 40}
	for _, r := range rankings {
		for _, e := range r.Entries {
			kind := "tool"
			if e.IsAlgorithm {
				kind = "algorithm"
			}
			share := "—"
			if maxScore > 0 {
				share = printer.Sprintf("%.1f%%", 100*e.Score/float64(maxScore))
			}
			t.Append(r.Examination, e.Name, kind, printer.Sprintf("%.0f", e.Score), share)
		}
	}
	return t.Render(w)
}

// WriteSmokeTests renders one row per tested tool.
func WriteSmokeTests(w io.Writer, res []smoketest.Result) error {
	t := &Table{Header: []string{"Examination", "Tool", "Instance", "Result"}, MaxWidth: 48}
	for _, r := range res {
		status := "✅ passed"
		switch {
		case r.Skipped:
			status = "— no instance"
		case !r.Passed:
			status = "❌ failed"
		}
		t.Append(r.Examination, r.Tool, r.Instance, status)
	}
	return t.Render(w)
}

// WriteRuns renders history runs, newest first.
func WriteRuns(w io.Writer, runs []history.RunSummary) error {
	t := &Table{Header: []string{"Started", "Examination", "Instance", "Policy", "Outcome", "Tool", "Attempts"}, MaxWidth: 40}
	for _, r := range runs {
		outcome := r.Outcome
		if outcome == "" {
			outcome = "running"
		}
		tool := r.Tool
		if tool == "" {
			tool = "—"
		}
		t.Append(r.StartedAt.Local().Format(time.DateTime), r.Examination, r.Instance, r.Policy, outcome, tool, strconv.Itoa(r.Attempts))
	}
	return t.Render(w)
}
