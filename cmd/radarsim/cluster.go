package main

import (
	"context"
	"errors"
	"flag"
	"io"
	"log"

	"github.com/google/uuid"

	"github.com/banshee-data/radarsim/internal/cluster"
	"github.com/banshee-data/radarsim/internal/config"
	"github.com/banshee-data/radarsim/internal/framelog"
	"github.com/banshee-data/radarsim/internal/fsutil"
	"github.com/banshee-data/radarsim/internal/render"
	"github.com/banshee-data/radarsim/internal/timeutil"
)

// renderers fans a window out to several renderers.
type renderers []cluster.WindowRenderer

func (rs renderers) RenderWindow(w *cluster.Window) error {
	var errs []error
	for _, r := range rs {
		if err := r.RenderWindow(w); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// openRenderers builds the window renderers selected by out. The returned
// closers must be closed by the caller.
func openRenderers(fsys fsutil.FileSystem, out outputOptions) (renderers, []io.Closer, error) {
	var rs renderers
	var closers []io.Closer
	if out.plotDir != "" {
		pr, err := render.NewPlotRenderer(fsys, out.plotDir, 0)
		if err != nil {
			return nil, nil, err
		}
		rs = append(rs, pr)
	}
	if out.htmlPath != "" {
		cr := render.NewChartRenderer(fsys, out.htmlPath, uuid.NewString(), 0)
		rs = append(rs, cr)
		closers = append(closers, cr)
	}
	if out.tui {
		tr, err := render.OpenTerminal(0)
		if err != nil {
			closeAll(closers)
			return nil, nil, err
		}
		rs = append(rs, tr)
		closers = append(closers, tr)
	}
	return rs, closers, nil
}

func closeAll(closers []io.Closer) {
	for i := len(closers) - 1; i >= 0; i-- {
		if err := closers[i].Close(); err != nil {
			log.Printf("close: %v", err)
		}
	}
}

func loadStore(fsys fsutil.FileSystem, path string) *framelog.Store {
	store := framelog.LoadFile(fsys, path)
	log.Printf("loaded %d points (%d targets, %d frames, %d skipped) from %s",
		store.Len(), store.TargetCount, store.FrameCount(), store.Skipped, path)
	return store
}

func reconstructionFlags(name string) (*flag.FlagSet, *string, *outputOptions) {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	configPath := fs.String("config", "", "Parameter file (.json, .yaml)")
	fs.String("in", config.DefaultSimConfig().GetLogPath(), "Point log to read")
	out := &outputOptions{}
	out.register(fs)
	return fs, configPath, out
}

func clusterFlags() (*flag.FlagSet, *string, *outputOptions) {
	fs, configPath, out := reconstructionFlags("cluster")
	def := config.DefaultSimConfig()
	fs.Float64("eps", def.GetEps(), "DBSCAN neighbourhood radius")
	fs.Int("min-samples", def.GetMinSamples(), "DBSCAN minimum neighbourhood size")
	fs.Bool("standardize", def.GetStandardize(), "Standardize coordinates before clustering")
	return fs, configPath, out
}

func handleCluster(ctx context.Context, args []string) error {
	fs, configPath, out := clusterFlags()
	fs.Parse(args)

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}
	if err := applyOverrides(fs, cfg); err != nil {
		return err
	}
	if err := validateOutputs(out.plotDir, out.htmlPath); err != nil {
		return err
	}
	_, err = runCluster(ctx, fsutil.OSFileSystem{}, cfg, *out)
	return err
}

func runCluster(ctx context.Context, fsys fsutil.FileSystem, cfg *config.SimConfig, out outputOptions) (*cluster.Window, error) {
	store := loadStore(fsys, cfg.GetLogPath())
	engine := cluster.NewEngine(cluster.Params{
		Eps:         cfg.GetEps(),
		MinSamples:  cfg.GetMinSamples(),
		Standardize: cfg.GetStandardize(),
	})
	w := cluster.ClusterAll(store, engine, timeutil.RealClock{})
	log.Printf("cluster: %d clusters, %d noise points in %s", w.Summary.Clusters, w.Summary.Noise, w.Elapsed)

	rs, closers, err := openRenderers(fsys, out)
	if err != nil {
		return w, err
	}
	defer closeAll(closers)
	if err := rs.RenderWindow(w); err != nil {
		return w, err
	}
	if out.tui {
		// Keep the drawing on screen until the user quits.
		waitCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		for _, r := range rs {
			if tr, ok := r.(*render.TerminalRenderer); ok {
				tr.WatchQuit(waitCtx, cancel)
			}
		}
	}
	return w, nil
}

func animateFlags() (*flag.FlagSet, *string, *outputOptions) {
	fs, configPath, out := reconstructionFlags("animate")
	def := config.DefaultSimConfig()
	fs.Float64("eps", def.GetWindowEps(), "DBSCAN neighbourhood radius per window")
	fs.Int("min-samples", def.GetWindowMinSamples(), "DBSCAN minimum neighbourhood size per window")
	fs.Bool("standardize", def.GetWindowStandardize(), "Standardize each window before clustering")
	fs.Int("step", def.GetWindowStep(), "Points per window")
	fs.String("pause", def.GetWindowPause().String(), "Pause between windows")
	return fs, configPath, out
}

func handleAnimate(ctx context.Context, args []string) error {
	fs, configPath, out := animateFlags()
	fs.Parse(args)

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}
	if err := applyOverrides(fs, cfg); err != nil {
		return err
	}
	if err := validateOutputs(out.plotDir, out.htmlPath); err != nil {
		return err
	}
	n, err := runAnimate(ctx, fsutil.OSFileSystem{}, timeutil.RealClock{}, cfg, *out)
	log.Printf("animate: %d windows processed", n)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func runAnimate(ctx context.Context, fsys fsutil.FileSystem, clock timeutil.Clock, cfg *config.SimConfig, out outputOptions) (int, error) {
	store := loadStore(fsys, cfg.GetLogPath())

	rs, closers, err := openRenderers(fsys, out)
	if err != nil {
		return 0, err
	}
	defer closeAll(closers)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	for _, r := range rs {
		if tr, ok := r.(*render.TerminalRenderer); ok {
			go tr.WatchQuit(ctx, cancel)
		}
	}

	a := &cluster.Animator{
		Step: cfg.GetWindowStep(),
		Engine: cluster.NewEngine(cluster.Params{
			Eps:         cfg.GetWindowEps(),
			MinSamples:  cfg.GetWindowMinSamples(),
			Standardize: cfg.GetWindowStandardize(),
		}),
		Pause:    cfg.GetWindowPause(),
		Clock:    clock,
		Renderer: rs,
	}
	return a.Run(ctx, store)
}
