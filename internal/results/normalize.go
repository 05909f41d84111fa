// Package results turns raw contest runs into the normalized dataset used
// for training: invalid runs are dropped, techniques and models attached,
// and each run's time and memory expressed relative to the best run on the
// same examination and instance.
package results

import (
	"fmt"
	"log/slog"
	"math"
	"regexp"
	"slices"
	"strings"

	"github.com/mcc4mcc/mcc4mcc/internal/dataset"
)

// surprisePrefix marks instances that were not published before the contest.
const surprisePrefix = "S_"

// inconclusive result codes reported by runs that gave no answer.
var inconclusive = map[string]bool{
	"DNC": true,
	"DNF": true,
	"CC":  true,
}

var techniquePattern = regexp.MustCompile(`[A-Z_]+`)

// DefaultRenaming merges tool variants that were submitted under several names.
var DefaultRenaming = map[string]string{
	"tapaalPAR": "tapaal",
	"tapaalSEQ": "tapaal",
	"tapaalEXP": "tapaal",
	"sift":      "tina",
	"tedd":      "tina",
}

// Config selects which rows are kept and how tools are renamed.
type Config struct {
	// Year keeps only rows from that year. Zero keeps every year.
	Year int
	// Exclude lists tools whose rows are dropped, by their raw name.
	Exclude []string
	// Renaming maps tool aliases to a canonical name.
	Renaming map[string]string
}

// Validate checks that renaming is idempotent: no alias may map onto a name
// that is itself renamed.
func (c Config) Validate() error {
	return ValidateRenaming(c.Renaming)
}

// ValidateRenaming reports an error if applying table twice could differ
// from applying it once.
func ValidateRenaming(table map[string]string) error {
	for from, to := range table {
		if next, ok := table[to]; ok && next != to {
			return fmt.Errorf("renaming %q to %q is not final: %q is renamed to %q", from, to, to, next)
		}
	}
	return nil
}

// Rename returns the canonical name of tool.
func Rename(tool string, table map[string]string) string {
	if to, ok := table[tool]; ok {
		return to
	}
	return tool
}

// Valid reports whether a run finished normally within its time and memory
// bounds with a conclusive answer.
func Valid(row dataset.RawResult) bool {
	return row.TimeOK.Truthy() &&
		row.MemoryOK.Truthy() &&
		row.Status == "normal" &&
		!inconclusive[row.Results]
}

// ModelOf returns the model part of an instance identifier: everything
// before its last two hyphen-separated tokens.
func ModelOf(instance string) (string, bool) {
	parts := strings.Split(instance, "-")
	if len(parts) < 3 {
		return "", false
	}
	model := strings.Join(parts[:len(parts)-2], "-")
	if model == "" {
		return "", false
	}
	return model, true
}

// Techniques extracts the technique tags named in a techniques cell.
func Techniques(cell string) []string {
	return techniquePattern.FindAllString(cell, -1)
}

// Normalizer accumulates the state of one normalization: the technique
// vocabulary grows as rows are scanned and is final once Normalize returns.
// Each call to Normalize starts a fresh vocabulary.
type Normalizer struct {
	cfg             Config
	characteristics dataset.Characteristics
	logger          *slog.Logger

	vocabulary *Vocabulary
}

// NewNormalizer creates a normalizer over a characteristics lookup.
func NewNormalizer(cfg Config, characteristics dataset.Characteristics, logger *slog.Logger) (*Normalizer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Normalizer{
		cfg:             cfg,
		characteristics: characteristics,
		logger:          logger,
	}, nil
}

// Normalize runs every pass over rows and returns the records in input
// order. It needs the whole input: the vocabulary and the per-pair best
// values are only known after all rows are scanned.
func (n *Normalizer) Normalize(rows []dataset.RawResult) *Dataset {
	n.vocabulary = NewVocabulary()
	ds := &Dataset{Techniques: n.vocabulary}
	ds.Stats.Read = len(rows)

	missing := make(map[string]bool)
	for _, row := range rows {
		if n.cfg.Year != 0 && row.Year != n.cfg.Year {
			ds.Stats.WrongYear++
			continue
		}
		if slices.Contains(n.cfg.Exclude, row.Tool) {
			ds.Stats.Excluded++
			continue
		}
		if !Valid(row) {
			ds.Stats.Invalid++
			continue
		}
		record, model, ok := n.enrich(row)
		if !ok {
			ds.Stats.UnknownModel++
			if !missing[model] {
				missing[model] = true
				n.logger.Warn("No characteristics for model, dropping its results", "model", model, "instance", row.Instance)
			}
			continue
		}
		ds.Records = append(ds.Records, record)
	}
	ds.Stats.Retained = len(ds.Records)

	n.backfill(ds.Records)
	computeRelative(ds.Records)

	n.logger.Debug("Normalized results",
		"read", ds.Stats.Read,
		"retained", ds.Stats.Retained,
		"invalid", ds.Stats.Invalid,
		"techniques", n.vocabulary.Len())
	return ds
}

// enrich derives techniques, the surprise flag and the model of one valid
// row. Renaming comes last so it cannot affect the other derivations.
func (n *Normalizer) enrich(row dataset.RawResult) (*Record, string, bool) {
	record := &Record{
		Year:        row.Year,
		Tool:        row.Tool,
		Instance:    row.Instance,
		Examination: row.Examination,
		Memory:      row.Memory,
		Time:        row.ClockTime,
		Techniques:  make(map[string]bool),
	}

	if strings.HasPrefix(record.Instance, surprisePrefix) {
		record.Surprise = true
		record.Instance = strings.TrimPrefix(record.Instance, surprisePrefix)
	}

	model, ok := ModelOf(record.Instance)
	if !ok {
		return nil, record.Instance, false
	}
	chars, ok := n.characteristics[model]
	if !ok {
		return nil, model, false
	}
	record.Model = chars

	// Only retained rows extend the vocabulary.
	for _, tag := range Techniques(row.Techniques) {
		n.vocabulary.Add(tag)
		record.Techniques[tag] = true
	}

	record.Tool = Rename(record.Tool, n.cfg.Renaming)
	return record, model, true
}

// backfill gives every record an explicit false for tags it did not report.
// Tags found late in the scan are unknown to earlier records until now.
func (n *Normalizer) backfill(records []*Record) {
	tags := n.vocabulary.Tags()
	for _, r := range records {
		for _, tag := range tags {
			if _, ok := r.Techniques[tag]; !ok {
				r.Techniques[tag] = false
			}
		}
	}
}

type pair struct {
	examination string
	instance    string
}

// atLeastOne treats zero measurements as one so ratios stay defined.
func atLeastOne(x float64) float64 {
	if x == 0 {
		return 1
	}
	return x
}

func computeRelative(records []*Record) {
	bestTime := make(map[pair]float64)
	bestMemory := make(map[pair]float64)
	for _, r := range records {
		key := pair{r.Examination, r.Instance}
		t := atLeastOne(r.Time)
		m := atLeastOne(r.Memory)
		if best, ok := bestTime[key]; !ok || t < best {
			bestTime[key] = t
		}
		if best, ok := bestMemory[key]; !ok || m < best {
			bestMemory[key] = m
		}
	}

	for _, r := range records {
		key := pair{r.Examination, r.Instance}
		r.RelativeTime = math.Min(atLeastOne(r.Time)/bestTime[key], math.MaxFloat32)
		r.RelativeMemory = math.Min(atLeastOne(r.Memory)/bestMemory[key], math.MaxFloat32)
	}
}

// Normalize is a convenience wrapper building a Normalizer and running it.
func Normalize(rows []dataset.RawResult, characteristics dataset.Characteristics, cfg Config, logger *slog.Logger) (*Dataset, error) {
	n, err := NewNormalizer(cfg, characteristics, logger)
	if err != nil {
		return nil, err
	}
	return n.Normalize(rows), nil
}
