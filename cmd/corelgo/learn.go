package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/hupe1980/corelgo"
	"github.com/hupe1980/corelgo/blobstore"
	"github.com/hupe1980/corelgo/codec"
	"github.com/hupe1980/corelgo/dataset"
	"github.com/hupe1980/corelgo/resource"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

type learnFlags struct {
	sourceFlags

	regularization   float64
	maxNodes         int
	ordering         string
	curiosity        string
	ablation         int
	cache            string
	cacheMaxBytes    int64
	timeLimit        time.Duration
	maxIterations    uint64
	progressInterval uint64

	fairness     string
	beta         float64
	epsilon      float64
	majorityRule string
	minorityRule string

	memoryLimit int64
	output      string
	format      string
	metricsAddr string
}

func newLearnCmd(g *globalFlags) *cobra.Command {
	f := &learnFlags{}
	cmd := &cobra.Command{
		Use:   "learn",
		Short: "Search for the optimal rule list of a dataset",
		Example: `  corelgo learn --dir ./data --rules compas.out --labels compas.label -c 0.005
  corelgo learn --s3-bucket datasets --s3-prefix compas/ --rules compas.out.zst --labels compas.label.zst
  corelgo learn --config run.yaml --fairness statistical_parity --beta 0.5 -o report.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runLearn(cmd, g, f)
		},
	}
	fs := cmd.Flags()
	f.bind(fs)
	cmd.MarkFlagsMutuallyExclusive("dir", "s3-bucket", "minio-endpoint")
	fs.Float64VarP(&f.regularization, "regularization", "c", corelgo.DefaultRegularization, "penalty per rule")
	fs.IntVarP(&f.maxNodes, "max-nodes", "n", corelgo.DefaultMaxNodes, "node budget of the search tree")
	fs.StringVar(&f.ordering, "ordering", corelgo.DefaultOrdering.String(), "frontier ordering (bfs, curious, lower_bound, objective, dfs)")
	fs.StringVar(&f.curiosity, "curiosity", "captured", "curiosity policy (captured, lower_bound, objective)")
	fs.IntVar(&f.ablation, "ablation", 0, "disable a bound (1 support, 2 lookahead, 3 equivalent points)")
	fs.StringVar(&f.cache, "cache", corelgo.DefaultCacheKind.String(), "permutation cache (none, captured, prefix)")
	fs.Int64Var(&f.cacheMaxBytes, "cache-max-bytes", 0, "bound the permutation cache, 0 for unbounded")
	fs.DurationVar(&f.timeLimit, "time-limit", 0, "stop the search after this long")
	fs.Uint64Var(&f.maxIterations, "max-iterations", 0, "stop the search after this many iterations")
	fs.Uint64Var(&f.progressInterval, "progress-interval", corelgo.DefaultProgressInterval, "iterations between progress reports")
	fs.StringVar(&f.fairness, "fairness", "", "fairness metric (statistical_parity, predictive_parity, predictive_equality, equal_opportunity, equalized_odds, conditional_use_accuracy_equality)")
	fs.Float64Var(&f.beta, "beta", 0, "weight of the fairness penalty")
	fs.Float64Var(&f.epsilon, "epsilon", 0, "reject lists whose unfairness exceeds this, 0 to disable")
	fs.StringVar(&f.majorityRule, "majority-rule", "", "rule naming the majority group")
	fs.StringVar(&f.minorityRule, "minority-rule", "", "rule naming the protected group")
	fs.Int64Var(&f.memoryLimit, "memory-limit", 0, "memory budget of the search in bytes")
	fs.StringVarP(&f.output, "output", "o", "", "write the report to this file instead of stdout")
	fs.StringVar(&f.format, "format", "", "report format (text, json, go-json, yaml); defaults from --output")
	fs.StringVar(&f.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address while learning")
	return cmd
}

// apply merges the set flags into cfg.
func (f *learnFlags) apply(fs *pflag.FlagSet, cfg *fileConfig) {
	f.sourceFlags.apply(fs, cfg)

	l := &cfg.Learn
	if fs.Changed("regularization") {
		l.Regularization = &f.regularization
	}
	if fs.Changed("max-nodes") {
		l.MaxNodes = &f.maxNodes
	}
	if fs.Changed("ordering") {
		l.Ordering = f.ordering
	}
	if fs.Changed("curiosity") {
		l.Curiosity = f.curiosity
	}
	if fs.Changed("ablation") {
		l.Ablation = f.ablation
	}
	if fs.Changed("cache") {
		l.Cache = f.cache
	}
	if fs.Changed("cache-max-bytes") {
		l.CacheMaxBytes = f.cacheMaxBytes
	}
	if fs.Changed("time-limit") {
		l.TimeLimit = f.timeLimit
	}
	if fs.Changed("max-iterations") {
		l.MaxIterations = f.maxIterations
	}
	if fs.Changed("progress-interval") {
		l.ProgressInterval = &f.progressInterval
	}

	for _, name := range []string{"fairness", "beta", "epsilon", "majority-rule", "minority-rule"} {
		if fs.Changed(name) && l.Fairness == nil {
			l.Fairness = &corelgo.FairnessConfig{}
		}
	}
	if fc := l.Fairness; fc != nil {
		if fs.Changed("fairness") {
			fc.Metric = f.fairness
		}
		if fs.Changed("beta") {
			fc.Beta = f.beta
		}
		if fs.Changed("epsilon") {
			fc.Epsilon = f.epsilon
		}
		if fs.Changed("majority-rule") {
			fc.MajorityRule = f.majorityRule
		}
		if fs.Changed("minority-rule") {
			fc.MinorityRule = f.minorityRule
		}
	}

	if fs.Changed("memory-limit") {
		cfg.Resources.MemoryLimitBytes = f.memoryLimit
	}
	if fs.Changed("output") {
		cfg.Output.Path = f.output
	}
	if fs.Changed("format") {
		cfg.Output.Format = f.format
	}
	if fs.Changed("metrics-addr") {
		cfg.Metrics.Addr = f.metricsAddr
	}
}

func runLearn(cmd *cobra.Command, g *globalFlags, f *learnFlags) error {
	cfg, err := loadFileConfig(f.config)
	if err != nil {
		return err
	}
	f.apply(cmd.Flags(), &cfg)

	logger, err := g.logger(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	opts, err := cfg.Learn.Options()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rc := resource.NewController(cfg.Resources)
	ds, err := loadDataset(ctx, cfg, rc, logger)
	if err != nil {
		return err
	}

	opts = append(opts, corelgo.WithLogger(logger), corelgo.WithResourceController(rc))
	if cfg.Metrics.Addr != "" {
		collector, shutdown, err := serveMetrics(cfg.Metrics, logger)
		if err != nil {
			return err
		}
		defer shutdown()
		opts = append(opts, corelgo.WithMetricsCollector(collector))
	}

	// An interrupt ends the search early; the best list so far is still
	// reported.
	res, err := corelgo.Learn(ctx, ds, opts...)
	if err != nil {
		return err
	}
	return writeReport(context.WithoutCancel(ctx), cmd.OutOrStdout(), cfg.Output, res)
}

func loadDataset(ctx context.Context, cfg fileConfig, rc *resource.Controller, logger *corelgo.Logger) (*dataset.Dataset, error) {
	source := cfg.Source.describe()
	store, err := cfg.Source.open(ctx)
	if err != nil {
		logger.LogLoad(ctx, source, 0, 0, err)
		return nil, err
	}
	ds, err := dataset.Load(ctx, store, cfg.Files,
		dataset.WithResourceController(rc),
		dataset.WithLogger(logger.Logger),
	)
	if err != nil {
		logger.LogLoad(ctx, source, 0, 0, err)
		return nil, err
	}
	logger.LogLoad(ctx, source, len(ds.Rules), ds.NSamples(), nil)
	return ds, nil
}

func writeReport(ctx context.Context, w io.Writer, out outputConfig, res *corelgo.Result) error {
	data, err := encodeReport(out, res)
	if err != nil {
		return err
	}
	if out.Path == "" || out.Path == "-" {
		_, err = w.Write(data)
		return err
	}
	dir, name := filepath.Split(out.Path)
	if dir == "" {
		dir = "."
	}
	return blobstore.Put(ctx, blobstore.NewLocalStore(dir), name, data)
}

func encodeReport(out outputConfig, res *corelgo.Result) ([]byte, error) {
	format := strings.ToLower(out.Format)
	if format == "" {
		if out.Path == "" || out.Path == "-" {
			format = "text"
		} else {
			format = codec.ForFile(out.Path).Name()
		}
	}
	if format == "text" {
		return []byte(formatText(res)), nil
	}
	c, ok := codec.ByName(format)
	if !ok {
		return nil, fmt.Errorf("unknown report format %q", out.Format)
	}
	data, err := c.Marshal(res.Report())
	if err != nil {
		return nil, err
	}
	if len(data) > 0 && data[len(data)-1] != '\n' {
		data = append(data, '\n')
	}
	return data, nil
}

func formatText(res *corelgo.Result) string {
	var sb strings.Builder
	if !res.Feasible() {
		sb.WriteString("no rule list satisfies the fairness tolerance\n")
	} else {
		sb.WriteString(res.String())
		sb.WriteString("\n\n")
		fmt.Fprintf(&sb, "objective:  %.6f\n", res.Objective)
		fmt.Fprintf(&sb, "accuracy:   %.4f\n", res.Accuracy)
		if res.Unfairness != 0 {
			fmt.Fprintf(&sb, "unfairness: %.4f\n", res.Unfairness)
		}
	}
	fmt.Fprintf(&sb, "optimal:    %t (%s)\n", res.Optimal, res.Reason)
	fmt.Fprintf(&sb, "iterations: %d, nodes: %d, elapsed: %s\n",
		res.Stats.Iterations, res.Stats.NodesCreated, res.Stats.Elapsed.Round(time.Millisecond))
	return sb.String()
}
