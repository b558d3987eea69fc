package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jamesainslie/parbench/pkg/parbench/config"
	"github.com/jamesainslie/parbench/pkg/parbench/harness"
	"github.com/jamesainslie/parbench/pkg/parbench/logging"
	"github.com/jamesainslie/parbench/pkg/parbench/output"
	"github.com/jamesainslie/parbench/pkg/parbench/tuner"
	"github.com/jamesainslie/parbench/pkg/parbench/types"
	"github.com/jamesainslie/parbench/pkg/parbench/workload"
	"github.com/spf13/cobra"
)

var logger = logging.Get("cli")

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a benchmark",
	Long: `Run one benchmark and print its report.

The matrix workload multiplies two size x size matrices, one work item per
result row. In static mode each worker gets one contiguous block of rows
and a private result buffer that is summed after the run; in streaming mode
free workers pull one row at a time and write straight into the result.

The image workload converts every image under --input to grayscale, blurs
it and writes it below --out-dir.

Checkpoints take a resource sample when a given number of items has
completed: --checkpoint 10:first --checkpoint 50%:half --checkpoint -10:tail`,
	Args: cobra.NoArgs,
	RunE: runBench,
}

func init() {
	f := runCmd.Flags()
	f.IntP("workers", "w", 0, "worker goroutines (0 = one per logical core)")
	f.IntP("size", "s", 0, "matrix dimension")
	f.StringP("mode", "m", "", "dispatch mode: static or streaming")
	f.StringP("output", "o", "", "report format: "+fmt.Sprint(output.Available()))
	f.String("workload", "", "workload: matrix or image")
	f.String("fill", "", "matrix inputs: ones or random")
	f.Uint64("seed", 0, "seed for random matrix inputs")
	f.String("input", "", "image workload input directory")
	f.String("out-dir", "", "image workload output directory")
	f.Float64("sigma", 0, "image workload blur sigma (0 = no blur)")
	f.Bool("verify", false, "check the result against a single-threaded reference")
	f.StringSlice("checkpoint", nil, "checkpoint AT[:LABEL], repeatable (replaces configured checkpoints)")

	for key, flag := range map[string]string{
		"workers":      "workers",
		"size":         "size",
		"mode":         "mode",
		"output":       "output",
		"workload":     "workload",
		"fill":         "fill",
		"seed":         "seed",
		"image.input":  "input",
		"image.output": "out-dir",
		"image.sigma":  "sigma",
		"verify":       "verify",
	} {
		_ = settings.BindPFlag(key, f.Lookup(flag))
	}

	rootCmd.AddCommand(runCmd)
}

func runBench(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if cmd.Flags().Changed("checkpoint") {
		values, _ := cmd.Flags().GetStringSlice("checkpoint")
		specs, err := parseCheckpointFlags(values)
		if err != nil {
			return fmt.Errorf("invalid --checkpoint: %w", err)
		}
		cfg.Checkpoints = specs
	}

	if err := initLogging(cfg, cmd); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	defer func() { _ = logging.Close() }()

	formatter, err := output.Get(cfg.Output)
	if err != nil {
		return fmt.Errorf("unknown output format %q: available formats are %v", cfg.Output, output.Available())
	}

	mode, err := types.ParseMode(cfg.Mode)
	if err != nil {
		return err
	}

	resources, err := tuner.Detect()
	if err != nil {
		logger.Warn("failed to detect system resources, using defaults", "err", err)
		resources = tuner.SystemResources{CPUCores: 4}
	}
	workers := tuner.ResolveWorkers(resources, cfg.Workers)
	logger.Debug("system resources",
		"cores", resources.CPUCores,
		"total_ram", types.FormatSize(uint64(max(resources.TotalRAM, 0))),
		"available_ram", types.FormatSize(uint64(max(resources.AvailableRAM, 0))),
		"workers", workers)

	w, err := buildWorkload(cmd, cfg, mode, workers, resources)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := harness.Options{
		Workload:    w,
		Mode:        mode,
		Workers:     workers,
		Checkpoints: cfg.Checkpoints,
		Cores:       resources.CPUCores,
		Verify:      cfg.Verify,
	}
	if !getQuiet() {
		opts.OnCheckpoint = func(cs harness.CheckpointSample) {
			printInfo(cmd, "  %-12s %6d items  %s", cs.Checkpoint.Label, cs.Count, cs.Delta.Wall)
		}
	}

	h, err := harness.New(opts)
	if err != nil {
		return err
	}

	printInfo(cmd, "Running %s, %s mode, %d workers...", w.Name(), mode, workers)

	report, err := h.Run(ctx)
	if err != nil {
		fmt.Fprint(cmd.ErrOrStderr(), output.FormatError(err, cfg.Output == "pretty"))
		return err
	}

	var buf bytes.Buffer
	if err := formatter.Format(&buf, report); err != nil {
		return fmt.Errorf("failed to format output: %w", err)
	}
	_, err = cmd.OutOrStdout().Write(buf.Bytes())
	return err
}

// buildWorkload constructs the configured workload and warns when a matrix
// run is unlikely to fit in memory.
func buildWorkload(cmd *cobra.Command, cfg *config.Config, mode types.Mode, workers int, resources tuner.SystemResources) (workload.Workload, error) {
	switch cfg.Workload {
	case config.WorkloadMatrix:
		need := tuner.EstimateMatrixBytes(cfg.Size, workers, mode)
		if !tuner.FitsInMemory(resources, need) {
			printWarning(cmd, "matrix run needs about %s but only %s is available",
				types.FormatSize(uint64(need)), types.FormatSize(uint64(resources.AvailableRAM)))
		}
		return workload.NewMatrix(workload.MatrixOptions{
			Size: cfg.Size,
			Fill: workload.Fill(cfg.Fill),
			Seed: cfg.Seed,
		}), nil

	case config.WorkloadImage:
		return workload.NewImage(workload.ImageOptions{
			Input:      cfg.Image.Input,
			Output:     cfg.Image.Output,
			Sigma:      cfg.Image.Sigma,
			Extensions: cfg.Image.Extensions,
		}), nil

	default:
		return nil, fmt.Errorf("unknown workload %q", cfg.Workload)
	}
}
