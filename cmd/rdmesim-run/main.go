package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/stat"

	"github.com/daniacca/rdmesim/internal/rdme"
)

func main() {
	var (
		modelFile    = flag.String("model-file", "", "path to model JSON or YAML file (required)")
		realizations = flag.Int("realizations", 1, "number of independent realizations")
		seed         = flag.Int64("seed", 1, "base random seed; realization k uses seed+k")
		workers      = flag.Int("workers", 0, "concurrent realizations (0 = GOMAXPROCS)")
		report       = flag.Int("report", 0, "report level: 0 silent, 1 frame progress, 2 diagnostics")
		tspan        = flag.String("tspan", "", "comma-separated output times, overriding the model's tspan")
		out          = flag.String("out", "", "path to write trajectories as JSON (optional)")
	)
	flag.Parse()

	if *modelFile == "" {
		fmt.Fprintf(os.Stderr, "error: --model-file is required\n")
		flag.Usage()
		os.Exit(1)
	}

	cfg, err := rdme.LoadModelConfig(*modelFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error loading model: %v\n", err)
		os.Exit(1)
	}

	model, init, err := rdme.BuildModelFromConfig(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error building model: %v\n", err)
		os.Exit(1)
	}

	times := cfg.Tspan
	if *tspan != "" {
		times, err = parseTspan(*tspan)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error parsing --tspan: %v\n", err)
			os.Exit(1)
		}
	}
	if len(times) == 0 {
		fmt.Fprintf(os.Stderr, "error: model has no tspan and --tspan was not given\n")
		os.Exit(1)
	}

	var opts []rdme.Option
	if *report > 0 {
		opts = append(opts, rdme.WithLogger(newStderrLogger()), rdme.WithReportLevel(*report))
	}

	ens := &rdme.Ensemble{
		Model:        model,
		Init:         init,
		Times:        times,
		Realizations: *realizations,
		Seed:         *seed,
		Workers:      *workers,
		Opts:         opts,
	}

	trajs, err := ens.Run(context.Background())
	if err != nil {
		reportFault(err)
		os.Exit(1)
	}

	printSummary(cfg, times, trajs)

	if *out != "" {
		if err := writeTrajectories(*out, trajs); err != nil {
			fmt.Fprintf(os.Stderr, "error writing output: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Wrote %d trajectories to %s\n", len(trajs), *out)
	}
}

func parseTspan(s string) ([]float64, error) {
	parts := strings.Split(s, ",")
	times := make([]float64, 0, len(parts))
	for _, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, fmt.Errorf("bad output time %q: %w", p, err)
		}
		times = append(times, v)
	}
	return times, nil
}

// reportFault names the fault class so a failing run is diagnosable from the
// exit message alone.
func reportFault(err error) {
	var badProp *rdme.BadPropensityError
	var negCount *rdme.NegativeCountError
	switch {
	case errors.As(err, &badProp):
		fmt.Fprintf(os.Stderr, "simulation fault (bad propensity): %v\n", err)
	case errors.As(err, &negCount):
		fmt.Fprintf(os.Stderr, "simulation fault (inconsistent state): %v\n", err)
	default:
		fmt.Fprintf(os.Stderr, "simulation failed: %v\n", err)
	}
}

func printSummary(cfg rdme.ModelConfig, times []float64, trajs []*rdme.Trajectory) {
	final := len(times) - 1
	fmt.Printf("Simulation finished (model=%s, realizations=%d, t=%g)\n", cfg.Name, len(trajs), times[final])
	fmt.Println("Final-frame species totals (mean ± stddev across realizations):")

	sample := make([]float64, len(trajs))
	for s, sp := range cfg.Species {
		for k, tr := range trajs {
			sample[k] = float64(tr.TotalPerSpecies(final)[s])
		}
		mean, std := stat.MeanStdDev(sample, nil)
		if len(sample) == 1 {
			std = 0
		}
		fmt.Printf("  %s: %.3f ± %.3f\n", sp.Name, mean, std)
	}
}

func writeTrajectories(path string, trajs []*rdme.Trajectory) error {
	data, err := json.MarshalIndent(trajs, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding trajectories: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
