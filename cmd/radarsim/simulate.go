package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/banshee-data/radarsim/internal/config"
	"github.com/banshee-data/radarsim/internal/framelog"
	"github.com/banshee-data/radarsim/internal/fsutil"
	"github.com/banshee-data/radarsim/internal/render"
	"github.com/banshee-data/radarsim/internal/sim"
	"github.com/banshee-data/radarsim/internal/timeutil"
)

type outputOptions struct {
	plotDir  string
	htmlPath string
	tui      bool
}

func (o *outputOptions) register(fs *flag.FlagSet) {
	fs.StringVar(&o.plotDir, "plot", "", "Write PNG plots into this directory")
	fs.StringVar(&o.htmlPath, "html", "", "Write an HTML chart page to this file")
	fs.BoolVar(&o.tui, "tui", false, "Draw live in the terminal (q to quit)")
}

type simulateOptions struct {
	cfg   *config.SimConfig
	out   outputOptions
	noLog bool
}

func handleSimulate(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("simulate", flag.ExitOnError)
	configPath := fs.String("config", "", "Parameter file (.json, .yaml)")
	def := config.DefaultSimConfig()
	fs.Int("targets", def.GetTargetCount(), "Number of simultaneous targets")
	fs.Int("noise", def.GetNoiseBudget(), "Upper bound of the per-target noise draw")
	fs.Float64("sigma", def.GetNoiseSigma(), "Noise standard deviation")
	fs.String("policy", def.GetNoiseCountPolicy(), "Noise count policy: truncate or round")
	fs.Int("clutter", def.GetClutterCount(), "Clutter points per frame")
	fs.Float64("range", def.GetRangeMax(), "Observation half-width")
	fs.Float64("speed", def.GetMaxSpeed(), "Maximum per-axis target speed per tick")
	fs.Int("ticks", def.GetTicks(), "Number of ticks (0 runs until interrupted)")
	fs.String("interval", def.GetTickInterval().String(), "Pause between ticks")
	fs.Uint64("seed", def.GetSeed(), "Random seed (0 seeds from the clock)")
	fs.String("out", def.GetLogPath(), "Point log to append to")
	noLog := fs.Bool("no-log", false, "Do not write the point log")
	var out outputOptions
	out.register(fs)
	fs.Parse(args)

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}
	if err := applyOverrides(fs, cfg); err != nil {
		return err
	}
	logPath := cfg.GetLogPath()
	if *noLog {
		logPath = ""
	}
	if err := validateOutputs(logPath, out.plotDir, out.htmlPath); err != nil {
		return err
	}

	stats, err := runSimulate(ctx, fsutil.OSFileSystem{}, timeutil.RealClock{}, simulateOptions{cfg: cfg, out: out, noLog: *noLog})
	if err != nil {
		return err
	}
	log.Printf("simulate: %d ticks, %d targets spawned, %d culled, %d noise points, %d sink errors",
		stats.Ticks, stats.Spawned, stats.Culled, stats.NoisePoints, stats.SinkErrors)
	return nil
}

// stepperConfig maps the parameter file onto the stepper. A zero seed is
// replaced with one derived from clock.
func stepperConfig(cfg *config.SimConfig, clock timeutil.Clock) (sim.Config, error) {
	policy, err := sim.ParseCountPolicy(cfg.GetNoiseCountPolicy())
	if err != nil {
		return sim.Config{}, err
	}
	seed := cfg.GetSeed()
	if seed == 0 {
		seed = uint64(clock.Now().UnixNano())
		log.Printf("simulate: seeding from clock, seed=%d", seed)
	}
	return sim.Config{
		Params: sim.Params{
			TargetCount: cfg.GetTargetCount(),
			RangeMax:    cfg.GetRangeMax(),
			MaxSpeed:    cfg.GetMaxSpeed(),
		},
		NoiseBudget:  cfg.GetNoiseBudget(),
		NoiseSigma:   cfg.GetNoiseSigma(),
		NoisePolicy:  policy,
		ClutterCount: cfg.GetClutterCount(),
		Seed:         seed,
		Interval:     cfg.GetTickInterval(),
		Clock:        clock,
	}, nil
}

func runSimulate(ctx context.Context, fsys fsutil.FileSystem, clock timeutil.Clock, opts simulateOptions) (sim.Stats, error) {
	scfg, err := stepperConfig(opts.cfg, clock)
	if err != nil {
		return sim.Stats{}, err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	stepper := sim.NewStepper(scfg)
	var closers []io.Closer
	defer func() {
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i].Close(); err != nil {
				log.Printf("simulate: close: %v", err)
			}
		}
	}()

	runID := uuid.NewString()
	if !opts.noLog {
		w, err := framelog.NewWriter(fsys, opts.cfg.GetLogPath(), runID, clock)
		if err != nil {
			return sim.Stats{}, err
		}
		closers = append(closers, w)
		stepper.AddSink(w)
		log.Printf("simulate: run %s appending to %s", runID, opts.cfg.GetLogPath())
	}

	rangeMax := opts.cfg.GetRangeMax()
	if opts.out.plotDir != "" {
		pr, err := render.NewPlotRenderer(fsys, opts.out.plotDir, rangeMax)
		if err != nil {
			return sim.Stats{}, err
		}
		stepper.AddSink(pr)
	}
	if opts.out.htmlPath != "" {
		cr := render.NewChartRenderer(fsys, opts.out.htmlPath, runID, rangeMax)
		closers = append(closers, cr)
		stepper.AddSink(cr)
	}
	if opts.out.tui {
		tr, err := render.OpenTerminal(rangeMax)
		if err != nil {
			return sim.Stats{}, err
		}
		closers = append(closers, tr)
		stepper.AddSink(tr)
		go tr.WatchQuit(ctx, cancel)
	}

	start := clock.Now()
	err = stepper.Run(ctx, opts.cfg.GetTicks())
	if err != nil && !errors.Is(err, context.Canceled) {
		return stepper.Stats(), fmt.Errorf("simulation stopped: %w", err)
	}
	log.Printf("simulate: finished in %s", clock.Since(start).Round(time.Millisecond))
	return stepper.Stats(), nil
}
