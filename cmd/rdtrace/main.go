package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/staticrd/staticrd/internal/config"
	"github.com/staticrd/staticrd/internal/diag"
	"github.com/staticrd/staticrd/internal/export"
	"github.com/staticrd/staticrd/internal/ingest"
	"github.com/staticrd/staticrd/internal/kernels"
	"github.com/staticrd/staticrd/internal/logging"
	"github.com/staticrd/staticrd/internal/lru"
	"github.com/staticrd/staticrd/internal/metrics"
	"github.com/staticrd/staticrd/internal/trace"
)

type app struct {
	cfg      config.Config
	log      zerolog.Logger
	registry *prometheus.Registry
	metrics  *metrics.Metrics
}

func main() {
	configPath := flag.String("config", "", "YAML configuration file")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: rdtrace [-config file] <command> [options]\n")
		fmt.Fprintf(os.Stderr, "\nCommands:\n")
		fmt.Fprintf(os.Stderr, "  trace           Trace built-in kernels and print reuse-distance histograms\n")
		fmt.Fprintf(os.Stderr, "  ingest <file>   Build a histogram from a CSV address trace\n")
		fmt.Fprintf(os.Stderr, "  kernels         List built-in kernels\n")
		fmt.Fprintf(os.Stderr, "\nOptions:\n")
		flag.PrintDefaults()
	}

	flag.Parse()

	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(1)
	}

	command := flag.Arg(0)
	args := flag.Args()[1:]

	if command == "kernels" {
		runKernels()
		return
	}

	a, err := newApp(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "rdtrace: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	switch command {
	case "trace":
		err = a.runTrace(ctx, args)
	case "ingest":
		err = a.runIngest(ctx, args)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		flag.Usage()
		os.Exit(1)
	}
	a.reportMetrics()
	if err != nil {
		a.log.Error().Err(err).Str("command", command).Msg("failed")
		os.Exit(1)
	}
}

func newApp(path string) (*app, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	log, err := logging.New(logging.Options{Level: cfg.Log.Level, Pretty: cfg.Log.Pretty})
	if err != nil {
		return nil, err
	}
	a := &app{cfg: cfg, log: log}
	if cfg.Metrics.Enabled {
		a.registry = prometheus.NewRegistry()
		a.metrics = metrics.New(a.registry)
	}
	return a, nil
}

func runKernels() {
	for _, name := range kernels.Names() {
		k, _ := kernels.Get(name)
		fmt.Printf("  %-12s %s\n", name, k.Desc)
	}
}

func (a *app) runTrace(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("trace", flag.ExitOnError)
	kernel := fs.String("kernel", a.cfg.Trace.Kernel, "kernel name, comma-separated list, or \"all\"")
	n := fs.Int("n", a.cfg.Trace.Size, "problem size")
	alg := fs.String("alg", a.cfg.Trace.Algorithm, "stack-distance algorithm selector, e.g. Olken or Scale,0.5,64")
	strict := fs.Bool("strict", a.cfg.Trace.Strict, "reject unknown algorithm names")
	save := fs.Bool("save", false, "save results to the configured output")
	fs.Parse(args)

	names := strings.Split(*kernel, ",")
	if *kernel == "all" {
		names = kernels.Names()
	}
	programs := make([]trace.Program, 0, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		root, err := kernels.Lookup(name, *n)
		if err != nil {
			return err
		}
		programs = append(programs, trace.Program{Name: fmt.Sprintf("%s%d", name, *n), Root: root})
	}

	opts := []trace.Option{trace.WithLogger(a.log), trace.WithMetrics(a.metrics)}
	if *strict {
		opts = append(opts, trace.WithStrictSelector())
	}
	if !a.cfg.Trace.AssignBases {
		opts = append(opts, trace.WithoutBaseAssignment())
	}
	if !a.cfg.Trace.EventLogs {
		opts = append(opts, trace.WithoutEventLogs())
	}

	results, err := trace.RunBatch(ctx, programs, *alg, opts...)
	if err != nil {
		return err
	}

	f := diag.NewFormatter(os.Stderr)
	for _, res := range results {
		f.FormatAll(res.Diagnostics)
		fmt.Printf("# %s (%s)\n%s\n\n", res.Name, res.Algorithm(), res.Hist)
	}

	if !*save {
		return nil
	}
	sink, closeSink, err := a.openSink()
	if err != nil {
		return err
	}
	defer closeSink()
	for _, res := range results {
		m, err := export.Save(ctx, sink, export.FromResult(res))
		if err != nil {
			return errors.Wrapf(err, "save %s", res.Name)
		}
		a.log.Info().Str("run", m.RunID).Strs("keys", m.Keys).Msg("saved")
	}
	return nil
}

func (a *app) runIngest(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("ingest", flag.ExitOnError)
	alg := fs.String("alg", a.cfg.Trace.Algorithm, "stack-distance algorithm selector")
	strict := fs.Bool("strict", a.cfg.Trace.Strict, "reject unknown algorithm names")
	save := fs.Bool("save", false, "save the histogram to the configured output")
	fs.Parse(args)

	if fs.NArg() < 1 {
		return errors.New("usage: rdtrace ingest [-alg sel] <file.csv>")
	}
	path := fs.Arg(0)

	oracle, sel, err := lru.Select(*alg, *strict)
	if err != nil {
		return err
	}
	if sel.Fallback {
		a.log.Warn().Str("selector", *alg).Str("algorithm", sel.Label()).Msg("unknown stack-distance algorithm, using default")
	}

	rep := diag.NewReporter(diag.StageIngest)
	opts := []ingest.Option{
		ingest.WithLogger(a.log),
		ingest.WithMetrics(a.metrics),
		ingest.WithReporter(rep),
	}
	if !a.cfg.Ingest.Header {
		opts = append(opts, ingest.WithoutHeader())
	}
	h, stats, err := ingest.RunFile(ctx, path, oracle, opts...)
	if err != nil {
		return err
	}
	diag.NewFormatter(os.Stderr).FormatAll(rep.Diagnostics())
	fmt.Printf("# %s (%s): %d accepted, %d skipped\n%s\n", path, sel.Label(), stats.Accepted, stats.Skipped, h)

	if !*save {
		return nil
	}
	sink, closeSink, err := a.openSink()
	if err != nil {
		return err
	}
	defer closeSink()
	name := a.cfg.Output.Name
	if name == "" {
		name = "ingest"
	}
	_, err = export.Save(ctx, sink, export.Report{
		RunID:     uuid.New().String(),
		Name:      name,
		Algorithm: sel.Label(),
		Selector:  *alg,
		Hist:      h,
		Created:   time.Now().UTC(),
	})
	return err
}

func (a *app) openSink() (export.Sink, func(), error) {
	if a.cfg.Output.Store != "" {
		s, err := export.OpenBadger(a.cfg.Output.Store)
		if err != nil {
			return nil, nil, err
		}
		return s, func() {
			if err := s.Close(); err != nil {
				a.log.Warn().Err(err).Msg("close store")
			}
		}, nil
	}
	return export.NewDirSink(a.cfg.Output.Dir), func() {}, nil
}

func (a *app) reportMetrics() {
	if a.registry == nil {
		return
	}
	totals, err := metrics.Totals(a.registry)
	if err != nil {
		a.log.Warn().Err(err).Msg("gather metrics")
		return
	}
	e := a.log.Info()
	for name, v := range totals {
		e = e.Float64(name, v)
	}
	e.Msg("metrics")
}
