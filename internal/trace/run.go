// Package trace replays loop-nest programs into stack-distance oracles
// and collects reuse-distance histograms.
package trace

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	oteltrace "go.opentelemetry.io/otel/trace"

	"github.com/staticrd/staticrd/internal/diag"
	"github.com/staticrd/staticrd/internal/eventlog"
	"github.com/staticrd/staticrd/internal/hist"
	"github.com/staticrd/staticrd/internal/layout"
	"github.com/staticrd/staticrd/internal/lru"
	"github.com/staticrd/staticrd/internal/metrics"
	"github.com/staticrd/staticrd/internal/tree"
)

// Result is everything one completed trace produces.
type Result struct {
	RunID     string
	Name      string
	Selection lru.Selection
	Hist      *hist.Histogram
	Distances *eventlog.Log[Access]
	Addresses *eventlog.Log[int]
	// Layout is the base table used, nil when every base was explicit.
	Layout      *layout.Table
	Diagnostics []diag.Diagnostic
}

// Algorithm is the name of the oracle that produced the result.
func (r *Result) Algorithm() string {
	return r.Selection.Label()
}

type options struct {
	log         zerolog.Logger
	metrics     *metrics.Metrics
	table       *layout.Table
	assignBases bool
	strict      bool
	eventLogs   bool
	name        string
	oracle      lru.Oracle
}

// Option configures Run.
type Option func(*options)

// WithLogger sets the logger. The default discards everything.
func WithLogger(log zerolog.Logger) Option {
	return func(o *options) { o.log = log }
}

// WithMetrics records trace and access counters.
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *options) { o.metrics = m }
}

// WithLayout supplies a precomputed base table; Run will not compute one.
func WithLayout(t *layout.Table) Option {
	return func(o *options) { o.table = t }
}

// WithoutBaseAssignment requires every access to carry an explicit base.
func WithoutBaseAssignment() Option {
	return func(o *options) { o.assignBases = false }
}

// WithStrictSelector makes an unknown algorithm name an error.
func WithStrictSelector() Option {
	return func(o *options) { o.strict = true }
}

// WithoutEventLogs skips the address and distance logs; the returned
// logs are empty.
func WithoutEventLogs() Option {
	return func(o *options) { o.eventLogs = false }
}

// WithOracle traces into oracle instead of building one from the
// selector, which then only labels the run.
func WithOracle(oracle lru.Oracle) Option {
	return func(o *options) { o.oracle = oracle }
}

// WithName labels the run.
func WithName(name string) Option {
	return func(o *options) { o.name = name }
}

func buildOptions(opts []Option) options {
	o := options{
		log:         zerolog.Nop(),
		assignBases: true,
		eventLogs:   true,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Run traces root with a fresh oracle chosen by selector. Fatal errors
// return no result.
func Run(ctx context.Context, root tree.Node, selector string, opts ...Option) (*Result, error) {
	o := buildOptions(opts)
	start := time.Now()

	_, span := otel.Tracer("staticrd/trace").Start(ctx, "trace.Run",
		oteltrace.WithAttributes(
			attribute.String("trace.selector", selector),
			attribute.String("trace.name", o.name),
		),
	)
	defer span.End()

	fail := func(alg string, err error) (*Result, error) {
		span.RecordError(err)
		span.SetStatus(codes.Error, "trace failed")
		o.metrics.ObserveTrace(alg, metrics.OutcomeError, time.Since(start))
		o.log.Error().Err(err).Str("name", o.name).Str("selector", selector).Msg("trace failed")
		return nil, err
	}

	reporter := diag.NewReporter(diag.StageSelect)
	oracle, sel, err := o.selectOracle(selector)
	if err != nil {
		return fail(sel.Label(), errors.Wrap(err, "select oracle"))
	}
	if sel.Fallback {
		o.log.Warn().
			Str("selector", selector).
			Str("algorithm", sel.Label()).
			Msg("unknown stack-distance algorithm, using default")
		reporter.Add(diag.Diagnostic{
			Severity: diag.SeverityWarning,
			Code:     diag.CodeUnknownAlgorithm,
			Message:  fmt.Sprintf("unknown algorithm %q, using %s", selector, sel.Label()),
		}.WithHelp("known algorithms: " + knownAlgorithms()))
	}

	table := o.table
	if table == nil && o.assignBases {
		table, err = layout.Assign(root)
		if err != nil {
			return fail(sel.Label(), errors.Wrap(err, "assign array bases"))
		}
	}

	o.log.Debug().Str("name", o.name).Str("algorithm", sel.Label()).Msg("trace started")
	if e := o.log.Trace(); e.Enabled() {
		e.Str("program", tree.String(root)).Msg("tracing")
	}

	in := NewInterpreter(oracle, NewResolver(table))
	in.record = o.eventLogs
	in.counters = o.metrics.ForAlgorithm(sel.Label())

	if err := in.Exec(root); err != nil {
		return fail(sel.Label(), errors.Wrap(err, "interpret"))
	}

	res := &Result{
		RunID:       uuid.New().String(),
		Name:        o.name,
		Selection:   sel,
		Hist:        in.Histogram(),
		Distances:   in.Distances(),
		Addresses:   in.Addresses(),
		Layout:      table,
		Diagnostics: reporter.Diagnostics(),
	}

	elapsed := time.Since(start)
	o.metrics.ObserveTrace(sel.Label(), metrics.OutcomeOK, elapsed)
	span.SetAttributes(
		attribute.String("trace.algorithm", sel.Label()),
		attribute.Int("trace.accesses", res.Hist.Total()),
		attribute.Int("trace.buckets", res.Hist.Len()),
	)
	span.SetStatus(codes.Ok, "trace complete")
	o.log.Info().
		Str("run", res.RunID).
		Str("name", o.name).
		Str("algorithm", sel.Label()).
		Int("accesses", res.Hist.Total()).
		Int("buckets", res.Hist.Len()).
		Dur("elapsed", elapsed).
		Msg("trace complete")

	return res, nil
}

// Program is a named tree for batch runs.
type Program struct {
	Name string
	Root tree.Node
}

// RunBatch traces independent programs concurrently, each with its own
// oracle, histogram and index vector. Results keep the order of
// programs. The first failing program, in program order, is returned
// as the error. WithOracle is rejected since oracles are not shared.
func RunBatch(ctx context.Context, programs []Program, selector string, opts ...Option) ([]*Result, error) {
	if buildOptions(opts).oracle != nil {
		return nil, errors.New("batch runs build their own oracles; WithOracle is not allowed")
	}
	results := make([]*Result, len(programs))
	errs := make([]error, len(programs))

	var wg sync.WaitGroup
	for i, p := range programs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			runOpts := append(append([]Option{}, opts...), WithName(p.Name))
			results[i], errs[i] = Run(ctx, p.Root, selector, runOpts...)
		}()
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			return nil, errors.Wrapf(err, "program %d", i)
		}
	}
	return results, nil
}

func (o *options) selectOracle(selector string) (lru.Oracle, lru.Selection, error) {
	if o.oracle == nil {
		return lru.Select(selector, o.strict)
	}
	label := selector
	if label == "" {
		label = "custom"
	}
	return o.oracle, lru.Selection{Requested: selector, Algorithm: lru.Algorithm(label)}, nil
}

func knownAlgorithms() string {
	names := make([]string, 0, 4)
	for _, a := range lru.Algorithms() {
		names = append(names, string(a))
	}
	return strings.Join(names, ", ")
}
