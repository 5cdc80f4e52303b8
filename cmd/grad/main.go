// Command grad trains a feed-forward image classifier from the
// command line.
//
// Data sources, by precedence: -csv, -data (an IDX directory laid out
// like the MNIST distribution), or -synthetic. With no source given a
// synthetic dataset is generated so the binary runs out of the box.
//
//	grad -data ./mnist -epochs 10 -lr 0.001 -batch 64
//	grad -synthetic -samples 2048 -save run.grad
package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/grad-ml/grad/internal/autodiff"
	"github.com/grad-ml/grad/internal/backend/cpu"
	"github.com/grad-ml/grad/internal/dataset"
	"github.com/grad-ml/grad/internal/nn"
	"github.com/grad-ml/grad/internal/optim"
	"github.com/grad-ml/grad/internal/train"
)

type backend = *autodiff.AutodiffBackend[*cpu.CPUBackend]

type options struct {
	lr        float64
	batch     int
	epochs    int
	dataDir   string
	csvPath   string
	synthetic bool
	samples   int
	seed      int64
	savePath  string
	resume    string
	metrics   string
	quiet     bool
}

func main() {
	opts := parseFlags()

	logger := newLogger(opts.quiet)

	if err := run(opts, logger); err != nil {
		logger.Error().Err(err).Msg("training failed")
		os.Exit(1)
	}
}

func parseFlags() options {
	var opts options

	flag.Float64Var(&opts.lr, "lr", 1e-3, "learning rate")
	flag.IntVar(&opts.batch, "batch", 64, "batch size")
	flag.IntVar(&opts.epochs, "epochs", 10, "number of epochs")
	flag.StringVar(&opts.dataDir, "data", "", "directory with IDX files (MNIST layout)")
	flag.StringVar(&opts.csvPath, "csv", "", "CSV dataset file (label,pixel,... rows)")
	flag.BoolVar(&opts.synthetic, "synthetic", false, "use a generated synthetic dataset")
	flag.IntVar(&opts.samples, "samples", 2048, "synthetic sample count")
	flag.Int64Var(&opts.seed, "seed", 0, "shuffle and synthetic data seed")
	flag.StringVar(&opts.savePath, "save", "", "write a checkpoint here after training")
	flag.StringVar(&opts.resume, "resume", "", "resume from a checkpoint file")
	flag.StringVar(&opts.metrics, "metrics", "", "serve Prometheus metrics on this address (e.g. :9090)")
	flag.BoolVar(&opts.quiet, "quiet", false, "suppress diagnostic logging")
	flag.Parse()

	if opts.lr <= 0 {
		fatalf("learning rate must be positive, got %g", opts.lr)
	}
	if opts.batch <= 0 {
		fatalf("batch size must be positive, got %d", opts.batch)
	}
	if opts.epochs <= 0 {
		fatalf("epoch count must be positive, got %d", opts.epochs)
	}

	return opts
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "grad: "+format+"\n", args...)
	os.Exit(2)
}

func newLogger(quiet bool) zerolog.Logger {
	if quiet {
		return zerolog.Nop()
	}
	writer := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly}
	return zerolog.New(writer).With().Timestamp().Logger()
}

func run(opts options, logger zerolog.Logger) error {
	b := autodiff.New(cpu.New())

	trainData, testData, source, err := loadData(opts)
	if err != nil {
		return err
	}

	logger.Info().
		Str("source", source).
		Int("train_samples", trainData.Samples).
		Int("test_samples", testData.Samples).
		Int("features", trainData.Features).
		Int("classes", trainData.Classes).
		Msg("dataset loaded")

	model := buildModel(b, trainData.Features, trainData.Classes)
	optimizer := optim.NewSGD(model.Parameters(), optim.SGDConfig{LR: float32(opts.lr)}, b)

	startEpoch := 0
	if opts.resume != "" {
		checkpoint, err := nn.LoadCheckpoint[backend](opts.resume, b, model, optimizer)
		if err != nil {
			return fmt.Errorf("failed to resume from %s: %w", opts.resume, err)
		}
		startEpoch = checkpoint.Epoch
		logger.Info().
			Str("path", opts.resume).
			Int("epoch", checkpoint.Epoch).
			Float64("loss", checkpoint.Loss).
			Msg("resumed from checkpoint")
	}

	trainer := train.NewTrainer[backend](model, optimizer, b, train.Config{
		LR:        float32(opts.lr),
		BatchSize: opts.batch,
		Epochs:    opts.epochs,
		Shuffle:   true,
		Seed:      opts.seed,
	})
	trainer.SetLogger(logger)

	if opts.metrics != "" {
		metrics := train.NewMetrics()
		trainer.SetMetrics(metrics)

		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.Handler())
		go func() {
			logger.Info().Str("addr", opts.metrics).Msg("serving metrics")
			if err := http.ListenAndServe(opts.metrics, mux); err != nil {
				logger.Error().Err(err).Msg("metrics server stopped")
			}
		}()
	}

	trainer.Fit(trainData, testData)

	if opts.savePath != "" {
		checkpoint := &nn.Checkpoint[backend]{
			Model:     model,
			Optimizer: optimizer,
			Epoch:     startEpoch + opts.epochs,
			Metadata: map[string]any{
				"run_id": trainer.RunID(),
				"source": source,
			},
		}
		if err := checkpoint.Save(opts.savePath); err != nil {
			return fmt.Errorf("failed to save checkpoint: %w", err)
		}
		logger.Info().Str("path", opts.savePath).Msg("checkpoint saved")
	}

	return nil
}

// buildModel constructs the tutorial topology: two 512-wide hidden
// ReLU layers over flattened input.
func buildModel(b backend, features, classes int) *nn.Sequential[backend] {
	return nn.NewSequential[backend](
		nn.NewFlatten[backend](),
		nn.NewLinear(features, 512, b),
		nn.NewReLU[backend](),
		nn.NewLinear(512, 512, b),
		nn.NewReLU[backend](),
		nn.NewLinear(512, classes, b),
	)
}

func loadData(opts options) (trainData, testData *dataset.Dataset, source string, err error) {
	switch {
	case opts.csvPath != "":
		data, err := dataset.LoadCSV(opts.csvPath)
		if err != nil {
			return nil, nil, "", err
		}
		trainData, testData = data.Split(0.9)
		return trainData, testData, "csv:" + opts.csvPath, nil

	case opts.dataDir != "":
		trainData, err = loadIDXPair(opts.dataDir, "train-images-idx3-ubyte", "train-labels-idx1-ubyte")
		if err != nil {
			return nil, nil, "", err
		}
		testData, err = loadIDXPair(opts.dataDir, "t10k-images-idx3-ubyte", "t10k-labels-idx1-ubyte")
		if err != nil {
			return nil, nil, "", err
		}
		return trainData, testData, "idx:" + opts.dataDir, nil

	default:
		data := dataset.Synthetic(dataset.SyntheticConfig{
			Samples: opts.samples,
			Seed:    opts.seed,
		})
		trainData, testData = data.Split(0.8)
		return trainData, testData, "synthetic", nil
	}
}

// loadIDXPair finds an IDX image/label pair in dir, accepting both
// plain and .gz filenames.
func loadIDXPair(dir, imagesBase, labelsBase string) (*dataset.Dataset, error) {
	imagesPath, err := findFile(dir, imagesBase)
	if err != nil {
		return nil, err
	}
	labelsPath, err := findFile(dir, labelsBase)
	if err != nil {
		return nil, err
	}
	return dataset.LoadIDX(imagesPath, labelsPath)
}

func findFile(dir, base string) (string, error) {
	for _, name := range []string{base, base + ".gz"} {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	return "", fmt.Errorf("no %s or %s.gz in %s", base, base, dir)
}
