// Package selection picks the verification tools to run on a model and
// runs them in order until one succeeds.
//
// A run moves through the states of State: the input is resolved to a
// model directory, known and learned candidates are gathered, the policy
// picks one candidate list, and its tools are executed one after the
// other.
package selection

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/mcc4mcc/mcc4mcc/internal/execution"
	"github.com/mcc4mcc/mcc4mcc/internal/modelinput"
	"github.com/mcc4mcc/mcc4mcc/internal/training"
	"github.com/mcc4mcc/mcc4mcc/internal/values"
)

var (
	// ErrDoNotCompete is returned when no candidate list applies.
	ErrDoNotCompete = errors.New("do not compete")
	// ErrCannotCompute is returned when every candidate failed.
	ErrCannotCompute = errors.New("cannot compute")
)

// DefaultTimeConfinement is the wall-clock limit in seconds passed to tools.
const DefaultTimeConfinement = 3600

// State is a step of a selection run.
type State int

const (
	StateResolveInput State = iota
	StateResolveCandidates
	StateDecidePolicy
	StateExecute
	StateSucceeded
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateResolveInput:
		return "resolve-input"
	case StateResolveCandidates:
		return "resolve-candidates"
	case StateDecidePolicy:
		return "decide-policy"
	case StateExecute:
		return "execute"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Candidate is a tool proposed for the run. Time and Memory come from
// history and are nil for forced or predicted tools.
type Candidate = training.KnownEntry

//go:generate go tool mockgen -destination=mock_executor_test.go -package=selection github.com/mcc4mcc/mcc4mcc/internal/execution Executor
//go:generate go tool mockgen -destination=mock_predictor_test.go -package=selection github.com/mcc4mcc/mcc4mcc/internal/training Predictor
//go:generate go tool mockgen -source=engine.go -destination=mock_engine_test.go -package=selection

// PredictorSource loads the predictor trained with an algorithm.
type PredictorSource interface {
	Predictor(ctx context.Context, algorithm string) (training.Predictor, error)
}

// Knowledge is what training left behind for selection.
type Knowledge struct {
	Known      training.KnownLookup
	Scores     []training.ScoreEntry
	Values     *values.Codec
	Predictors PredictorSource
}

// Attempt is one executed candidate.
type Attempt struct {
	Ordinal  int
	Tool     string
	ExitCode int
	Err      error
}

// Recorder receives every attempt as it completes.
type Recorder interface {
	RecordAttempt(ctx context.Context, a Attempt) error
}

// Config holds the per-run choices.
type Config struct {
	Policy      Policy
	Examination string
	// Instance overrides the instance name derived from the input.
	Instance string
	// Tool forces a single known candidate.
	Tool string
	// Algorithm forces the learning algorithm used for the prediction.
	Algorithm       string
	TimeConfinement int
}

// Outcome describes a finished run.
type Outcome struct {
	State     State
	Instance  string
	Model     string
	Algorithm string
	Known     []Candidate
	Learned   []Candidate
	// Distance is the known time of the learned tool divided by the best
	// known time, when both are available.
	Distance *float64
	Attempts []Attempt
	// Tool is the candidate that succeeded.
	Tool string
}

// Engine drives selection runs.
type Engine struct {
	cfg       Config
	knowledge *Knowledge
	executor  execution.Executor
	recorder  Recorder
	output    io.Writer
	logger    *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithRecorder sends every attempt to r.
func WithRecorder(r Recorder) Option {
	return func(e *Engine) { e.recorder = r }
}

// WithOutput copies every line printed by the tools to w. Lines are then
// logged at debug level only.
func WithOutput(w io.Writer) Option {
	return func(e *Engine) { e.output = w }
}

// WithLogger sets the engine logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// New creates an engine. The examination is required.
func New(cfg Config, knowledge *Knowledge, executor execution.Executor, opts ...Option) (*Engine, error) {
	if cfg.Examination == "" {
		return nil, errors.New("selection: examination is required")
	}
	if knowledge == nil {
		knowledge = &Knowledge{}
	}
	if cfg.TimeConfinement <= 0 {
		cfg.TimeConfinement = DefaultTimeConfinement
	}
	e := &Engine{
		cfg:       cfg,
		knowledge: knowledge,
		executor:  executor,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Run resolves the model at path and executes candidates until one
// succeeds. The returned outcome is non-nil whenever the input resolved,
// including when the error is ErrDoNotCompete or ErrCannotCompute.
func (e *Engine) Run(ctx context.Context, path string) (*Outcome, error) {
	in, err := modelinput.Resolve(path, e.cfg.Instance)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := in.Close(); err != nil {
			e.logger.Warn("Failed to remove extracted model", "error", err)
		}
	}()
	e.logger.Info("Resolved input", "instance", in.Instance, "model", in.Model, "dir", in.Dir)

	return e.RunInput(ctx, in)
}

// RunInput runs the selection on an already resolved model.
func (e *Engine) RunInput(ctx context.Context, in *modelinput.Input) (*Outcome, error) {
	out := &Outcome{State: StateResolveCandidates, Instance: in.Instance, Model: in.Model}

	out.Known = e.knownCandidates(in)
	out.Learned, out.Algorithm = e.learnedCandidates(ctx, in)
	e.logger.Info("Candidates", "known", toolNames(out.Known), "learned", toolNames(out.Learned))
	out.Distance = e.distance(out.Known, out.Learned)

	out.State = StateDecidePolicy
	list, ok := e.choose(out.Known, out.Learned)
	if !ok {
		out.State = StateFailed
		e.logger.Error("DO_NOT_COMPETE", "examination", e.cfg.Examination, "instance", in.Instance, "policy", e.cfg.Policy)
		return out, ErrDoNotCompete
	}

	out.State = StateExecute
	for i, c := range list {
		if err := ctx.Err(); err != nil {
			out.State = StateFailed
			return out, err
		}
		attempt := e.execute(ctx, in, i, c)
		out.Attempts = append(out.Attempts, attempt)
		e.record(ctx, attempt)
		if attempt.Err == nil && attempt.ExitCode == 0 {
			out.State = StateSucceeded
			out.Tool = c.Tool
			return out, nil
		}
	}

	out.State = StateFailed
	if err := ctx.Err(); err != nil {
		return out, err
	}
	e.logger.Error("CANNOT_COMPUTE", "examination", e.cfg.Examination, "instance", in.Instance, "tried", len(out.Attempts))
	return out, ErrCannotCompute
}

func (e *Engine) knownCandidates(in *modelinput.Input) []Candidate {
	if e.cfg.Tool != "" {
		return []Candidate{{Tool: e.cfg.Tool}}
	}
	entries, ok := e.knowledge.Known.Lookup(e.cfg.Examination, in.Instance, in.Model)
	if !ok {
		e.logger.Warn("No known information",
			"examination", e.cfg.Examination, "instance", in.Instance, "model", in.Model)
		return nil
	}
	known := make([]Candidate, len(entries))
	copy(known, entries)
	return known
}

// learnedCandidates predicts a tool from the model's structure. Every
// failure along the way is a warning and yields no learned candidate.
func (e *Engine) learnedCandidates(ctx context.Context, in *modelinput.Input) ([]Candidate, string) {
	algorithm := e.cfg.Algorithm
	if algorithm == "" {
		best, ok := training.BestAlgorithm(e.knowledge.Scores, e.cfg.Examination)
		if !ok {
			e.logger.Warn("No learned information", "examination", e.cfg.Examination)
			return nil, ""
		}
		algorithm = best
	}
	e.logger.Info("Using algorithm", "algorithm", algorithm)

	if e.knowledge.Predictors == nil || e.knowledge.Values == nil {
		e.logger.Warn("No learned information", "examination", e.cfg.Examination, "algorithm", algorithm)
		return nil, algorithm
	}
	predictor, err := e.knowledge.Predictors.Predictor(ctx, algorithm)
	if err != nil {
		e.logger.Warn("Cannot load predictor", "algorithm", algorithm, "error", err)
		return nil, algorithm
	}

	chars, err := modelinput.ReadCharacteristics(in.Dir, e.logger)
	if err != nil {
		e.logger.Warn("Cannot read model characteristics", "error", err)
		return nil, algorithm
	}
	e.logger.Debug("Model characteristics", "characteristics", chars)

	// Encoding may allocate codes for unseen values; keep the loaded table intact.
	codec := e.knowledge.Values.Clone()
	features := training.BuildFeatures(e.cfg.Examination, func(name string) values.Value { return chars[name] }, codec)
	code, err := predictor.Predict(features)
	if err != nil {
		e.logger.Warn("Prediction failed", "algorithm", algorithm, "error", err)
		return nil, algorithm
	}
	tool, ok := codec.Decode(code).AsText()
	if !ok || tool == "" {
		e.logger.Warn("Prediction is not a tool", "algorithm", algorithm, "code", code)
		return nil, algorithm
	}
	return []Candidate{{Tool: tool}}, algorithm
}

// distance compares the learned tool with the best known one. It is only
// logged.
func (e *Engine) distance(known, learned []Candidate) *float64 {
	if e.cfg.Tool != "" || len(known) == 0 || len(learned) == 0 {
		return nil
	}
	best := known[0]
	for _, k := range known {
		if k.Tool != learned[0].Tool {
			continue
		}
		if k.Time == nil || best.Time == nil || *best.Time == 0 {
			return nil
		}
		d := *k.Time / *best.Time
		e.logger.Info("Learned tool distance", "learned", k.Tool, "best", best.Tool, "distance", d)
		return &d
	}
	return nil
}

// choose applies the policy. A forced tool only stands in for the known
// candidates, and runs under PreferLearned when nothing was predicted.
func (e *Engine) choose(known, learned []Candidate) ([]Candidate, bool) {
	if list, ok := e.cfg.Policy.choose(known, learned); ok {
		return list, true
	}
	if e.cfg.Tool != "" && e.cfg.Policy == PreferLearned {
		return known, true
	}
	return nil, false
}

func (e *Engine) execute(ctx context.Context, in *modelinput.Input, ordinal int, c Candidate) Attempt {
	attempt := Attempt{Ordinal: ordinal, Tool: c.Tool, ExitCode: -1}
	logger := e.logger.With("tool", c.Tool, "instance", in.Instance)
	logger.Info("Running tool", "examination", e.cfg.Examination)

	res, err := e.executor.Run(ctx, &execution.Request{
		Tool:            c.Tool,
		Examination:     e.cfg.Examination,
		Instance:        in.Instance,
		Dir:             in.Dir,
		TimeConfinement: e.cfg.TimeConfinement,
		Output:          e.printer(logger),
	})
	switch {
	case errors.Is(err, execution.ErrImageNotFound):
		logger.Warn("Docker image does not exist")
		attempt.Err = err
	case err != nil:
		logger.Error("Tool execution failed", "error", err)
		attempt.Err = err
	case res == nil:
		attempt.Err = errors.New("executor returned no result")
	default:
		attempt.ExitCode = res.ExitCode
		if !res.Success() {
			logger.Warn("Tool failed", "exit_code", res.ExitCode)
		}
	}
	return attempt
}

func (e *Engine) printer(logger *slog.Logger) func(string) {
	if e.output == nil {
		return func(line string) { logger.Info(line) }
	}
	return func(line string) {
		logger.Debug(line)
		fmt.Fprintln(e.output, line) //nolint:errcheck
	}
}

func (e *Engine) record(ctx context.Context, a Attempt) {
	if e.recorder == nil {
		return
	}
	if err := e.recorder.RecordAttempt(ctx, a); err != nil {
		e.logger.Warn("Failed to record attempt", "tool", a.Tool, "error", err)
	}
}

func toolNames(cs []Candidate) []string {
	names := make([]string, len(cs))
	for i, c := range cs {
		names[i] = c.Tool
	}
	return names
}
