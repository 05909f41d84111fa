package history

import (
	"context"
	"fmt"
	"strings"

	"github.com/mcc4mcc/mcc4mcc/internal/results"
)

// ExportDataset replaces the results table with the records of ds. Each
// technique becomes a 0/1 column named after the tag.
func (s *Store) ExportDataset(ctx context.Context, ds *results.Dataset) error {
	tags := ds.Techniques.Tags()

	columns := []string{
		"year INTEGER", "tool TEXT", "instance TEXT", "model TEXT", "examination TEXT",
		"time REAL", "memory REAL", "relative_time REAL", "relative_memory REAL", "surprise INTEGER",
	}
	for _, tag := range tags {
		columns = append(columns, quote(tag)+" INTEGER")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin export: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `DROP TABLE IF EXISTS results`); err != nil {
		return fmt.Errorf("drop results: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "CREATE TABLE results ("+strings.Join(columns, ", ")+")"); err != nil {
		return fmt.Errorf("create results: %w", err)
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", 10+len(tags)), ", ")
	stmt, err := tx.PrepareContext(ctx, "INSERT INTO results VALUES ("+placeholders+")")
	if err != nil {
		return fmt.Errorf("prepare export: %w", err)
	}
	defer stmt.Close()

	for _, r := range ds.Records {
		model := ""
		if r.Model != nil {
			model = r.Model.ID()
		}
		args := []any{
			r.Year, r.Tool, r.Instance, model, r.Examination,
			r.Time, r.Memory, r.RelativeTime, r.RelativeMemory, boolInt(r.Surprise),
		}
		for _, tag := range tags {
			args = append(args, boolInt(r.Techniques[tag]))
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("export %s/%s/%s: %w", r.Examination, r.Instance, r.Tool, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit export: %w", err)
	}
	return nil
}

// quote makes a technique tag usable as a column name. Tags only hold
// uppercase letters and underscores.
func quote(tag string) string {
	return `"technique_` + strings.ToLower(tag) + `"`
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
