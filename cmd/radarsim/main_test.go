package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/radarsim/internal/config"
	"github.com/banshee-data/radarsim/internal/framelog"
	"github.com/banshee-data/radarsim/internal/fsutil"
	"github.com/banshee-data/radarsim/internal/monitoring"
	"github.com/banshee-data/radarsim/internal/timeutil"
)

func TestMain(m *testing.M) {
	log.SetOutput(io.Discard)
	monitoring.SetLogger(nil)
	os.Exit(m.Run())
}

func TestApplyOverrides(t *testing.T) {
	fs := flag.NewFlagSet("simulate", flag.ContinueOnError)
	fs.Int("ticks", 200, "")
	fs.String("out", "all_points_data.txt", "")
	fs.Uint64("seed", 0, "")
	require.NoError(t, fs.Parse([]string{"-ticks", "7", "-seed", "9"}))

	cfg := config.DefaultSimConfig()
	require.NoError(t, applyOverrides(fs, cfg))

	assert.Equal(t, 7, cfg.GetTicks())
	assert.Equal(t, uint64(9), cfg.GetSeed())
	assert.Equal(t, "all_points_data.txt", cfg.GetLogPath(), "unset flags keep the config value")
}

func TestApplyOverrides_ClusterSetsWholeLogParams(t *testing.T) {
	fs, _, _ := clusterFlags()
	require.NoError(t, fs.Parse([]string{"-eps", "2", "-min-samples", "9", "-standardize"}))

	cfg := config.DefaultSimConfig()
	require.NoError(t, applyOverrides(fs, cfg))

	def := config.DefaultSimConfig()
	assert.Equal(t, 2.0, cfg.GetEps())
	assert.Equal(t, 9, cfg.GetMinSamples())
	assert.True(t, cfg.GetStandardize())
	assert.Equal(t, def.GetWindowEps(), cfg.GetWindowEps())
	assert.Equal(t, def.GetWindowMinSamples(), cfg.GetWindowMinSamples())
	assert.Equal(t, def.GetWindowStandardize(), cfg.GetWindowStandardize())
}

func TestApplyOverrides_AnimateSetsWindowParams(t *testing.T) {
	fs, _, _ := animateFlags()
	require.NoError(t, fs.Parse([]string{"-eps", "0.7", "-min-samples", "4", "-standardize=false", "-step", "25"}))

	cfg := config.DefaultSimConfig()
	require.NoError(t, applyOverrides(fs, cfg))

	def := config.DefaultSimConfig()
	assert.Equal(t, 0.7, cfg.GetWindowEps())
	assert.Equal(t, 4, cfg.GetWindowMinSamples())
	assert.False(t, cfg.GetWindowStandardize())
	assert.Equal(t, 25, cfg.GetWindowStep())
	assert.Equal(t, def.GetEps(), cfg.GetEps())
	assert.Equal(t, def.GetMinSamples(), cfg.GetMinSamples())
	assert.Equal(t, def.GetStandardize(), cfg.GetStandardize())
}

func TestFlagDefaultsMatchConfig(t *testing.T) {
	def := config.DefaultSimConfig()
	defaultOf := func(fs *flag.FlagSet, name string) string {
		t.Helper()
		f := fs.Lookup(name)
		require.NotNil(t, f, name)
		return f.DefValue
	}

	cfs, _, _ := clusterFlags()
	assert.Equal(t, fmt.Sprint(def.GetEps()), defaultOf(cfs, "eps"))
	assert.Equal(t, fmt.Sprint(def.GetMinSamples()), defaultOf(cfs, "min-samples"))
	assert.Equal(t, fmt.Sprint(def.GetStandardize()), defaultOf(cfs, "standardize"))
	assert.Equal(t, def.GetLogPath(), defaultOf(cfs, "in"))

	afs, _, _ := animateFlags()
	assert.Equal(t, fmt.Sprint(def.GetWindowEps()), defaultOf(afs, "eps"))
	assert.Equal(t, fmt.Sprint(def.GetWindowMinSamples()), defaultOf(afs, "min-samples"))
	assert.Equal(t, "true", defaultOf(afs, "standardize"))
	assert.Equal(t, fmt.Sprint(def.GetWindowStep()), defaultOf(afs, "step"))
	assert.Equal(t, def.GetWindowPause().String(), defaultOf(afs, "pause"))
}

func TestApplyOverrides_Invalid(t *testing.T) {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	fs.Int("ticks", 200, "")
	require.NoError(t, fs.Parse([]string{"-ticks", "-1"}))
	assert.Error(t, applyOverrides(fs, config.DefaultSimConfig()))
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := loadConfig("")
	require.NoError(t, err)
	assert.Equal(t, 10, cfg.GetTargetCount())
}

func TestStepperConfig_SeedFromClock(t *testing.T) {
	clock := timeutil.NewMockClock(time.Unix(1234, 0))
	scfg, err := stepperConfig(config.DefaultSimConfig(), clock)
	require.NoError(t, err)
	assert.Equal(t, uint64(time.Unix(1234, 0).UnixNano()), scfg.Seed)
	assert.Equal(t, 50*time.Millisecond, scfg.Interval)
}

func smallConfig() *config.SimConfig {
	cfg := config.DefaultSimConfig()
	ticks, targets, noise, clutter := 5, 3, 20, 5
	seed := uint64(3)
	logPath := "points.txt"
	cfg.Ticks = &ticks
	cfg.TargetCount = &targets
	cfg.NoiseBudget = &noise
	cfg.ClutterCount = &clutter
	cfg.Seed = &seed
	cfg.LogPath = &logPath
	return cfg
}

func TestSimulateThenReconstruct(t *testing.T) {
	ctx := context.Background()
	fsys := fsutil.NewMemoryFileSystem()
	clock := timeutil.NewMockClock(time.Unix(0, 0))
	cfg := smallConfig()

	stats, err := runSimulate(ctx, fsys, clock, simulateOptions{cfg: cfg, out: outputOptions{htmlPath: "sim.html"}})
	require.NoError(t, err)
	assert.Equal(t, 5, stats.Ticks)
	assert.Len(t, clock.Sleeps(), 4)
	assert.True(t, fsys.Exists("sim.html"))

	store := framelog.LoadFile(fsys, "points.txt")
	assert.Equal(t, 15, store.TargetCount)
	assert.Equal(t, 5, store.FrameCount())
	assert.Zero(t, store.Skipped)

	w, err := runCluster(ctx, fsys, cfg, outputOptions{plotDir: "plots"})
	require.NoError(t, err)
	assert.Len(t, w.Labels, store.Len())
	assert.True(t, fsys.Exists("plots/window-00000.png"))

	n, err := runAnimate(ctx, fsys, clock, cfg, outputOptions{})
	require.NoError(t, err)
	assert.Equal(t, store.Len()/cfg.GetWindowStep(), n)
}

func TestSimulate_NoLog(t *testing.T) {
	fsys := fsutil.NewMemoryFileSystem()
	_, err := runSimulate(context.Background(), fsys, timeutil.NewMockClock(time.Unix(0, 0)),
		simulateOptions{cfg: smallConfig(), noLog: true})
	require.NoError(t, err)
	assert.Empty(t, fsys.Files())
}

func TestAnimate_MissingLog(t *testing.T) {
	cfg := smallConfig()
	n, err := runAnimate(context.Background(), fsutil.NewMemoryFileSystem(), timeutil.NewMockClock(time.Unix(0, 0)), cfg, outputOptions{})
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestValidateOutputs(t *testing.T) {
	assert.NoError(t, validateOutputs("", "all_points_data.txt", "plots"))
	assert.Error(t, validateOutputs("/proc/radarsim-should-not-exist/out.html"))
}
