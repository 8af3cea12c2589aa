package main

import (
	"flag"
	"fmt"
	"io"
	"path/filepath"
	"strconv"

	"github.com/YuminosukeSato/boostflow/config"
	"github.com/YuminosukeSato/boostflow/core/dataset"
	"github.com/YuminosukeSato/boostflow/core/rng"
	"github.com/YuminosukeSato/boostflow/datasets"
	"github.com/YuminosukeSato/boostflow/engine/gbdt"
	"github.com/YuminosukeSato/boostflow/metrics"
	"github.com/YuminosukeSato/boostflow/pipeline"
	"github.com/YuminosukeSato/boostflow/pkg/errors"
	"github.com/YuminosukeSato/boostflow/pkg/log"
	"github.com/YuminosukeSato/boostflow/report"
)

func newFlagSet(name string, stderr io.Writer) (*flag.FlagSet, *string) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	level := fs.String("log-level", "info", "debug, info, warn or error")
	return fs, level
}

func parse(fs *flag.FlagSet, level *string, args []string, stderr io.Writer) error {
	if err := fs.Parse(args); err != nil {
		return err
	}
	return log.SetupLoggerTo(stderr, *level)
}

func runGen(args []string, stdout, stderr io.Writer) error {
	fs, level := newFlagSet("gen", stderr)
	out := fs.String("out", "", "output CSV path (required)")
	kind := fs.String("kind", "regression", "regression or distribution")
	rows := fs.Int("rows", 1000, "number of rows")
	features := fs.Int("features", 4, "feature columns (regression)")
	targets := fs.Int("targets", 2, "target columns (regression)")
	noise := fs.Float64("noise", 0.05, "noise standard deviation (regression)")
	draws := fs.Int("draws", 200, "samples per row (distribution)")
	quantiles := fs.Int("quantiles", 9, "quantile features (distribution)")
	seed := fs.Uint64("seed", 1, "random seed")
	if err := parse(fs, level, args, stderr); err != nil {
		return err
	}
	if *out == "" {
		return errors.NewInvalidParameter("gen", "out", "required")
	}

	src := rng.NewSplitMix64(*seed)
	var (
		x, y dataset.Matrix
		err  error
	)
	switch *kind {
	case "regression":
		x, y, err = datasets.Regression(*rows, *features, *targets, *noise, src)
	case "distribution":
		x, y, err = datasets.DistributionParams(*rows, *draws, *quantiles, src)
	default:
		return errors.NewInvalidParameter("gen", "kind", "unknown dataset kind "+strconv.Quote(*kind))
	}
	if err != nil {
		return err
	}
	if err := datasets.WriteCSV(*out, nil, x, y); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "wrote %d rows (%d features, %d targets) to %s\n", x.Rows, x.Cols, y.Cols, *out)
	return nil
}

func runTrain(args []string, stdout, stderr io.Writer) error {
	fs, level := newFlagSet("train", stderr)
	cfgPath := fs.String("config", "", "YAML training config (required)")
	data := fs.String("data", "", "CSV dataset; a synthetic one is generated when empty")
	targets := fs.Int("targets", 2, "number of trailing target columns in -data")
	rows := fs.Int("rows", 1000, "rows of the synthetic dataset")
	if err := parse(fs, level, args, stderr); err != nil {
		return err
	}
	if *cfgPath == "" {
		return errors.NewInvalidParameter("train", "config", "required")
	}
	cfg, err := config.Load(*cfgPath)
	if err != nil {
		return err
	}

	x, y, err := loadOrGenerate(*data, *targets, *rows, cfg.Training.Seed)
	if err != nil {
		return err
	}

	opts := []pipeline.Option{
		pipeline.WithSeed(cfg.Training.Seed),
		pipeline.WithDefaultFormat(cfg.ModelFormat()),
	}
	if cfg.Training.LegacyRNG {
		opts = append(opts, pipeline.WithLegacyRNG())
	}
	ctx := pipeline.NewContext(gbdt.New(), opts...)
	defer ctx.Close()

	var trainOpts []pipeline.TrainOption
	if cfg.Training.AtomicSave {
		trainOpts = append(trainOpts, pipeline.WithAtomicPersist())
	}
	res, err := ctx.TrainAndEvaluate(x, y, cfg.Training.TrainRatio, toParams(cfg.Engine),
		cfg.Output.ModelsDir, cfg.Training.ModelName, trainOpts...)
	if err != nil {
		return err
	}

	rec := report.Record{
		SampleSize: res.RowsTrain,
		DataSize:   x.Rows,
		Elapsed:    res.Elapsed,
		RMSE:       res.RMSE,
		ModelPath:  res.ModelPath,
	}
	if cfg.Output.MetricsFile != "" {
		if err := report.NewMetricsLog(cfg.Output.MetricsFile, y.Cols).Append(rec); err != nil {
			return err
		}
	}
	if cfg.Output.PlotDir != "" {
		if err := writePlots(ctx, cfg.Output.PlotDir, res); err != nil {
			return err
		}
	}
	fmt.Fprintf(stdout, "model %s\n%s", filepath.Base(res.ModelPath), report.Summary(rec))
	return nil
}

func writePlots(ctx *pipeline.Context, dir string, res *pipeline.TrainResult) error {
	pred, err := ctx.Predict(res.Split.XTest, res.Split.YTest.Cols, res.ModelPath)
	if err != nil {
		return err
	}
	for k := 0; k < pred.Cols; k++ {
		if err := report.PlotPredictions(report.PlotPath(dir, res.ModelPath, k), pred, res.Split.YTest, k); err != nil {
			return err
		}
	}
	return nil
}

func runPredict(args []string, stdout, stderr io.Writer) error {
	fs, level := newFlagSet("predict", stderr)
	model := fs.String("model", "", "persisted model (required)")
	data := fs.String("data", "", "CSV dataset (required)")
	targets := fs.Int("targets", 2, "number of trailing target columns in -data")
	out := fs.String("out", "", "write features and predictions to this CSV")
	if err := parse(fs, level, args, stderr); err != nil {
		return err
	}
	if *model == "" || *data == "" {
		return errors.NewInvalidParameter("predict", "model/data", "both are required")
	}

	x, y, header, err := datasets.ReadCSV(*data, *targets)
	if err != nil {
		return err
	}
	ctx := pipeline.NewContext(gbdt.New())
	defer ctx.Close()

	pred, err := ctx.Predict(x, y.Cols, *model)
	if err != nil {
		return err
	}
	rmse, err := metrics.RMSEColumns(pred, y)
	if err != nil {
		return err
	}
	if *out != "" {
		if err := datasets.WriteCSV(*out, header, x, pred); err != nil {
			return err
		}
	}
	fmt.Fprintf(stdout, "predicted %d rows, RMSE %s\n", pred.Rows, report.FormatRMSE(rmse))
	return nil
}

func loadOrGenerate(path string, targets, rows int, seed uint64) (dataset.Matrix, dataset.Matrix, error) {
	if path != "" {
		x, y, _, err := datasets.ReadCSV(path, targets)
		return x, y, err
	}
	if seed == 0 {
		seed = rng.NewEntropySeed()
	}
	return datasets.Regression(rows, 4, targets, 0.05, rng.NewSplitMix64(seed))
}

func toParams(kv config.EngineParams) []pipeline.Param {
	out := make([]pipeline.Param, len(kv))
	for i, p := range kv {
		out[i] = pipeline.P(p.Key, p.Value)
	}
	return out
}
