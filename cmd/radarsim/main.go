// Command radarsim runs the synthetic radar simulator and re-derives target
// clusters from its point log.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/banshee-data/radarsim/internal/config"
	"github.com/banshee-data/radarsim/internal/security"
	"github.com/banshee-data/radarsim/internal/version"
)

func main() {
	flag.Usage = printUsage
	flag.Parse()

	if flag.NArg() < 1 {
		printUsage()
		os.Exit(1)
	}

	command := flag.Arg(0)
	args := flag.Args()[1:]

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var err error
	switch command {
	case "simulate":
		err = handleSimulate(ctx, args)
	case "cluster":
		err = handleCluster(ctx, args)
	case "animate":
		err = handleAnimate(ctx, args)
	case "version":
		fmt.Println(version.String())
	case "help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
	if err != nil {
		stop()
		log.Fatalf("%s: %v", command, err)
	}
}

func printUsage() {
	fmt.Println(`radarsim - synthetic 2-D radar simulator and DBSCAN reconstruction

Usage: radarsim <command> [options]

Commands:
  simulate   Run the tick loop and append every frame to the point log
  cluster    Cluster the whole point log once
  animate    Cluster the point log window by window
  version    Show build information
  help       Show this help message

Common Flags:
  -config <file>   JSON or YAML parameter file (default: built-in defaults)

Examples:
  radarsim simulate -ticks 200 -seed 1 -out all_points_data.txt -plot frames/
  radarsim cluster -in all_points_data.txt -eps 0.5 -min-samples 5 -html clusters.html
  radarsim animate -in all_points_data.txt -step 10 -pause 500ms -tui`)
}

// loadConfig reads path, or the built-in defaults when path is empty.
func loadConfig(path string) (*config.SimConfig, error) {
	if path == "" {
		return config.DefaultSimConfig(), nil
	}
	return config.LoadSimConfig(path)
}

// applyOverrides copies the flags that were set on the command line into
// cfg and validates the result. The flag set's name selects the subcommand,
// so -eps on animate sets window_eps and on cluster sets eps.
func applyOverrides(fs *flag.FlagSet, cfg *config.SimConfig) error {
	window := fs.Name() == "animate"
	fs.Visit(func(f *flag.Flag) {
		if getter, ok := f.Value.(flag.Getter); ok {
			setField(cfg, f.Name, getter.Get(), window)
		}
	})
	return cfg.Validate()
}

func setField(cfg *config.SimConfig, name string, v any, window bool) {
	switch name {
	case "targets":
		n := v.(int)
		cfg.TargetCount = &n
	case "noise":
		n := v.(int)
		cfg.NoiseBudget = &n
	case "sigma":
		f := v.(float64)
		cfg.NoiseSigma = &f
	case "policy":
		s := v.(string)
		cfg.NoiseCountPolicy = &s
	case "clutter":
		n := v.(int)
		cfg.ClutterCount = &n
	case "range":
		f := v.(float64)
		cfg.RangeMax = &f
	case "speed":
		f := v.(float64)
		cfg.MaxSpeed = &f
	case "ticks":
		n := v.(int)
		cfg.Ticks = &n
	case "interval":
		s := v.(string)
		cfg.TickInterval = &s
	case "seed":
		n := v.(uint64)
		cfg.Seed = &n
	case "out", "in":
		s := v.(string)
		cfg.LogPath = &s
	case "eps":
		f := v.(float64)
		if window {
			cfg.WindowEps = &f
		} else {
			cfg.Eps = &f
		}
	case "min-samples":
		n := v.(int)
		if window {
			cfg.WindowMinSamples = &n
		} else {
			cfg.MinSamples = &n
		}
	case "standardize":
		b := v.(bool)
		if window {
			cfg.WindowStandardize = &b
		} else {
			cfg.Standardize = &b
		}
	case "step":
		n := v.(int)
		cfg.WindowStep = &n
	case "pause":
		s := v.(string)
		cfg.WindowPause = &s
	}
}

// validateOutputs rejects output paths outside the working and temp
// directories. Empty paths are skipped.
func validateOutputs(paths ...string) error {
	for _, p := range paths {
		if p == "" {
			continue
		}
		if err := security.ValidateOutputPath(p); err != nil {
			return err
		}
	}
	return nil
}
