// Package ingest feeds pre-recorded address traces straight into a
// stack-distance oracle, bypassing the statement tree.
package ingest

import (
	"context"
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/staticrd/staticrd/internal/diag"
	"github.com/staticrd/staticrd/internal/hist"
	"github.com/staticrd/staticrd/internal/lru"
	"github.com/staticrd/staticrd/internal/metrics"
)

// Stats summarises one ingestion.
type Stats struct {
	Rows     int
	Accepted int
	Skipped  int
}

type options struct {
	log      zerolog.Logger
	metrics  *metrics.Metrics
	reporter *diag.Reporter
	header   bool
}

// Option configures Run.
type Option func(*options)

// WithLogger sets the logger. The default discards everything.
func WithLogger(log zerolog.Logger) Option {
	return func(o *options) { o.log = log }
}

// WithMetrics counts accepted and skipped rows.
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *options) { o.metrics = m }
}

// WithReporter collects a diagnostic for every skipped row.
func WithReporter(r *diag.Reporter) Option {
	return func(o *options) { o.reporter = r }
}

// WithoutHeader treats the first row as data.
func WithoutHeader() Option {
	return func(o *options) { o.header = false }
}

// Run reads one address per row from the first CSV column of r and
// returns the resulting histogram. Rows that do not parse as a
// non-negative integer are skipped with a warning naming their line.
// Malformed CSV is a fatal error.
func Run(ctx context.Context, r io.Reader, source string, oracle lru.Oracle, opts ...Option) (*hist.Histogram, Stats, error) {
	o := options{log: zerolog.Nop(), header: true}
	for _, opt := range opts {
		opt(&o)
	}

	_, span := otel.Tracer("staticrd/ingest").Start(ctx, "ingest.Run",
		trace.WithAttributes(attribute.String("ingest.source", source)),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
	defer span.End()

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.ReuseRecord = true

	h := hist.New()
	var stats Stats
	started := false
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "malformed csv")
			return nil, stats, errors.Wrapf(err, "read %s", source)
		}
		first := !started
		started = true
		if first && o.header {
			continue
		}
		stats.Rows++

		field := ""
		if len(record) > 0 {
			field = strings.TrimSpace(record[0])
		}
		addr, err := strconv.ParseInt(field, 10, 64)
		if err != nil || addr < 0 {
			line, _ := reader.FieldPos(0)
			stats.Skipped++
			o.metrics.ObserveRow(true)
			o.skip(source, line, field)
			continue
		}

		h.AddDist(oracle.Access(int(addr)))
		stats.Accepted++
		o.metrics.ObserveRow(false)
	}

	span.SetAttributes(
		attribute.Int("ingest.accepted", stats.Accepted),
		attribute.Int("ingest.skipped", stats.Skipped),
	)
	span.SetStatus(codes.Ok, "ingest complete")
	o.log.Info().
		Str("source", source).
		Int("accepted", stats.Accepted).
		Int("skipped", stats.Skipped).
		Msg("ingest complete")
	return h, stats, nil
}

func (o *options) skip(source string, row int, field string) {
	o.log.Warn().Str("source", source).Int("row", row).Str("value", field).Msg("could not parse address, row skipped")
	if o.reporter == nil {
		return
	}
	pos := diag.Position{Source: source, Row: row}
	if field == "" {
		o.reporter.Warning(diag.CodeEmptyRow, pos, "empty address field")
		return
	}
	o.reporter.Add(diag.Diagnostic{
		Stage:    diag.StageIngest,
		Severity: diag.SeverityWarning,
		Code:     diag.CodeUnparseableRow,
		Message:  "could not parse address " + strconv.Quote(field),
		Pos:      pos,
	}.WithNote("row skipped"))
}

// RunFile opens path and ingests it.
func RunFile(ctx context.Context, path string, oracle lru.Oracle, opts ...Option) (*hist.Histogram, Stats, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, Stats{}, errors.Wrap(err, "open trace")
	}
	defer f.Close()
	return Run(ctx, f, path, oracle, opts...)
}
