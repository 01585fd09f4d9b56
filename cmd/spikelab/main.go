// Package main provides the CLI entrypoint for spikelab.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/spikelab/spikelab/internal/config"
	"github.com/spikelab/spikelab/internal/engine"
	"github.com/spikelab/spikelab/internal/model"
	"github.com/spikelab/spikelab/internal/plot"
	"github.com/spikelab/spikelab/internal/schedule"
	"github.com/spikelab/spikelab/internal/stats"
	"github.com/spikelab/spikelab/internal/statsui"
	"github.com/spikelab/spikelab/internal/store"
	"github.com/spikelab/spikelab/internal/tui"
)

const (
	defaultDecay        = 0.01
	defaultThresholdDec = 0.01
	defaultMinThreshold = 1.0
	defaultMagnitude    = 0.5
	defaultRefractory   = 5
	defaultTickMs       = 100
	defaultChartHeight  = 12
	defaultCurveWindow  = 10
	defaultRunTicks     = 1000
	defaultRunStimEvery = 12
	defaultRunSeed      = 1
)

var (
	simDecay        float64
	simThresholdDec float64
	simMinThreshold float64
	simMagnitude    float64
	simRefractory   int
	simTickMs       int
	simChartHeight  int

	statsSince       string
	statsLast        int
	statsCurveWindow int
	statsPlain       bool

	runTicks     int
	runStimEvery int
	runSchedule  string
	runPoisson   float64
	runSeed      int64
	runNoSave    bool
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "spikelab",
		Short:         "Interactive leaky integrate-and-fire neuron in the terminal",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE:          runSimulateCmd,
	}

	rootCmd.Flags().Float64Var(&simDecay, "decay", defaultDecay, "membrane potential decay per tick")
	rootCmd.Flags().Float64Var(&simThresholdDec, "threshold-decay", defaultThresholdDec, "threshold relaxation per tick")
	rootCmd.Flags().Float64Var(&simMinThreshold, "min-threshold", defaultMinThreshold, "threshold floor")
	rootCmd.Flags().Float64Var(&simMagnitude, "magnitude", defaultMagnitude, "default stimulus magnitude")
	rootCmd.Flags().IntVar(&simRefractory, "refractory", defaultRefractory, "refractory period in ticks")
	rootCmd.Flags().IntVar(&simTickMs, "tick-ms", defaultTickMs, "milliseconds per simulation tick")
	rootCmd.Flags().IntVar(&simChartHeight, "chart-height", defaultChartHeight, "chart height in rows")

	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newStatsCmd())
	rootCmd.AddCommand(newRunCmd())

	return rootCmd
}

func runSimulateCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}

	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()

	neuron := engine.New(paramsFromConfig(cfg))
	model := tui.NewModel(cfg, st, neuron)
	program := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	return nil
}

// buildConfig merges defaults, the config file, and explicit flags.
// Flags set on the command line win over file values.
func buildConfig(cmd *cobra.Command) (model.Config, error) {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return model.Config{}, fmt.Errorf("failed to load config: %w", err)
	}
	sim := fileCfg.Simulation
	applyFloatConfig(cmd, "decay", &simDecay, sim.DecayRate)
	applyFloatConfig(cmd, "threshold-decay", &simThresholdDec, sim.ThresholdDecayRate)
	applyFloatConfig(cmd, "min-threshold", &simMinThreshold, sim.MinThreshold)
	applyFloatConfig(cmd, "magnitude", &simMagnitude, sim.SpikeMagnitude)
	applyIntConfig(cmd, "refractory", &simRefractory, sim.RefractoryPeriod)
	applyIntConfig(cmd, "tick-ms", &simTickMs, sim.TickMs)
	applyIntConfig(cmd, "chart-height", &simChartHeight, sim.ChartHeight)

	cfg := model.Config{
		DecayRate:          simDecay,
		ThresholdDecayRate: simThresholdDec,
		MinThreshold:       simMinThreshold,
		SpikeMagnitude:     simMagnitude,
		RefractoryPeriod:   simRefractory,
		TickMs:             simTickMs,
		ChartHeight:        simChartHeight,
	}
	if err := validateConfig(cfg); err != nil {
		return model.Config{}, err
	}
	return cfg, nil
}

func paramsFromConfig(cfg model.Config) engine.Params {
	return engine.Params{
		DecayRate:          cfg.DecayRate,
		ThresholdDecayRate: cfg.ThresholdDecayRate,
		MinThreshold:       cfg.MinThreshold,
		SpikeMagnitude:     cfg.SpikeMagnitude,
		RefractoryPeriod:   cfg.RefractoryPeriod,
	}
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := config.DefaultConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	if len(parts) == 0 {
		return fmt.Errorf("editor command is empty")
	}
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

func newStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show session stats",
		RunE:  runStatsCmd,
	}
	cmd.Flags().StringVar(&statsSince, "since", "", "start date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&statsLast, "last", 0, "limit to last N sessions")
	cmd.Flags().IntVar(&statsCurveWindow, "curve-window", defaultCurveWindow, "moving average window")
	cmd.Flags().BoolVar(&statsPlain, "plain", false, "print stats to stdout instead of the TUI")
	return cmd
}

func runStatsCmd(cmd *cobra.Command, _ []string) error {
	var sinceTime *time.Time
	if statsSince != "" {
		parsed, err := time.ParseInLocation("2006-01-02", statsSince, time.Local)
		if err != nil {
			return fmt.Errorf("invalid --since value: %w", err)
		}
		sinceTime = &parsed
	}

	cfg := model.StatsConfig{
		Since:       sinceTime,
		Last:        statsLast,
		CurveWindow: statsCurveWindow,
	}

	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()

	if statsPlain {
		return printPlainStats(cmd, st, cfg)
	}

	model := statsui.NewModel(st, cfg)
	program := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run stats TUI: %w", err)
	}
	return nil
}

func printPlainStats(cmd *cobra.Command, st *store.Store, cfg model.StatsConfig) error {
	report, err := stats.BuildReport(context.Background(), st, cfg)
	if err != nil {
		return fmt.Errorf("failed to load stats: %w", err)
	}
	out := cmd.OutOrStdout()
	if len(report.Sessions) == 0 {
		if _, err := fmt.Fprintln(out, "No sessions found."); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
		return nil
	}
	if err := stats.RenderSummary(out, report.Sessions); err != nil {
		return fmt.Errorf("failed to render summary: %w", err)
	}
	if _, err := fmt.Fprintln(out); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	if err := stats.RenderSessionTable(out, report.Sessions, report.SpikeTicks); err != nil {
		return fmt.Errorf("failed to render sessions: %w", err)
	}
	if len(report.Sessions) >= 2 {
		if _, err := fmt.Fprintln(out); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
		if err := stats.RenderRateCurves(out, report.Sessions, report.SpikeTicks, cfg.CurveWindow); err != nil {
			return fmt.Errorf("failed to render curves: %w", err)
		}
	}
	return nil
}

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a headless simulation with a stimulus schedule",
		Args:  cobra.NoArgs,
		RunE:  runHeadlessCmd,
	}
	cmd.Flags().Float64Var(&simDecay, "decay", defaultDecay, "membrane potential decay per tick")
	cmd.Flags().Float64Var(&simThresholdDec, "threshold-decay", defaultThresholdDec, "threshold relaxation per tick")
	cmd.Flags().Float64Var(&simMinThreshold, "min-threshold", defaultMinThreshold, "threshold floor")
	cmd.Flags().IntVar(&simRefractory, "refractory", defaultRefractory, "refractory period in ticks")
	cmd.Flags().IntVar(&simChartHeight, "chart-height", defaultChartHeight, "chart height in rows")
	cmd.Flags().IntVar(&runTicks, "ticks", defaultRunTicks, "number of ticks to simulate")
	cmd.Flags().IntVar(&runStimEvery, "stim-every", defaultRunStimEvery, "stimulate every N ticks")
	cmd.Flags().Float64Var(&simMagnitude, "magnitude", defaultMagnitude, "stimulus magnitude")
	cmd.Flags().StringVar(&runSchedule, "schedule", "", "path to a schedule file (tick magnitude per line)")
	cmd.Flags().Float64Var(&runPoisson, "poisson", 0, "per-tick stimulus probability (overrides --stim-every)")
	cmd.Flags().Int64Var(&runSeed, "seed", defaultRunSeed, "random seed for --poisson")
	cmd.Flags().BoolVar(&runNoSave, "no-save", false, "do not record the run as a session")
	return cmd
}

func runHeadlessCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}
	if runTicks <= 0 {
		return fmt.Errorf("--ticks must be > 0")
	}

	events, err := buildSchedule(cfg)
	if err != nil {
		return err
	}

	startedAt := time.Now()
	neuron := engine.New(paramsFromConfig(cfg))
	next := 0
	for t := 1; t <= runTicks; t++ {
		neuron.Tick()
		for next < len(events) && events[next].Tick <= t {
			neuron.Stimulate(events[next].Magnitude)
			next++
		}
	}
	endedAt := time.Now()

	out := cmd.OutOrStdout()
	if err := renderRunChart(out, neuron, cfg); err != nil {
		return err
	}
	rate := stats.FiringRate(neuron.SpikeCount(), neuron.Time())
	if _, err := fmt.Fprintf(out, "\nTicks: %d  Spikes: %d  Rate/1k: %.2f\n",
		neuron.Time(), neuron.SpikeCount(), rate); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	if mean := stats.MeanISI(neuron.SpikeTimes()); mean > 0 {
		if _, err := fmt.Fprintf(out, "Mean ISI: %.1f ticks\n", mean); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}

	if runNoSave {
		return nil
	}
	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()
	session := model.SessionStats{
		StartedAt:          startedAt,
		EndedAt:            endedAt,
		Ticks:              neuron.Time(),
		SpikeCount:         neuron.SpikeCount(),
		DecayRate:          cfg.DecayRate,
		ThresholdDecayRate: cfg.ThresholdDecayRate,
		MinThreshold:       cfg.MinThreshold,
		SpikeMagnitude:     cfg.SpikeMagnitude,
		DurationMs:         endedAt.Sub(startedAt).Milliseconds(),
	}
	if _, err := st.InsertSession(context.Background(), session, neuron.SpikeTimes()); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

func buildSchedule(cfg model.Config) ([]schedule.Event, error) {
	if runSchedule != "" {
		events, err := schedule.Load(runSchedule)
		if err != nil {
			return nil, fmt.Errorf("failed to load schedule: %w", err)
		}
		return events, nil
	}
	if runPoisson > 0 {
		if runPoisson > 1 {
			return nil, fmt.Errorf("--poisson must be between 0 and 1")
		}
		return schedule.Poisson(runPoisson, runTicks, cfg.SpikeMagnitude, runSeed), nil
	}
	if runStimEvery <= 0 {
		return nil, fmt.Errorf("--stim-every must be > 0")
	}
	return schedule.Regular(runStimEvery, runTicks, cfg.SpikeMagnitude), nil
}

func renderRunChart(w io.Writer, neuron *engine.Neuron, cfg model.Config) error {
	samples := neuron.Samples()
	if len(samples) < 2 {
		return nil
	}
	potentials := make([]float64, len(samples))
	thresholds := make([]float64, len(samples))
	for i, s := range samples {
		potentials[i] = s.Potential
		thresholds[i] = s.Threshold
	}
	markers := make([]int, 0, 20)
	first := samples[0].Time
	for _, t := range neuron.SpikeTimes() {
		if idx := t - first; idx >= 0 && idx < len(samples) {
			markers = append(markers, idx)
		}
	}
	chart := plot.Chart{
		Title: "Membrane Potential",
		Series: []plot.Series{
			{Name: "potential", Values: potentials},
			{Name: "threshold", Values: thresholds},
		},
		Markers: markers,
		YMin:    0,
		YMax:    neuron.DisplayCeiling(),
		Width:   plot.WidthFor(0),
		Height:  cfg.ChartHeight,
	}
	if err := plot.Render(w, chart); err != nil {
		return fmt.Errorf("failed to render chart: %w", err)
	}
	return nil
}

func applyFloatConfig(cmd *cobra.Command, name string, target, value *float64) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyIntConfig(cmd *cobra.Command, name string, target, value *int) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func defaultConfigTemplate() string {
	return fmt.Sprintf(`# spikelab configuration
# Uncomment a value to enable it. CLI flags override config values.

[simulation]
# decay-rate = %.2f            # Membrane potential decay per tick
# threshold-decay-rate = %.2f  # Threshold relaxation per tick
# min-threshold = %.1f          # Threshold floor
# spike-magnitude = %.1f        # Default stimulus magnitude
# refractory-period = %d        # Refractory period in ticks
# tick-ms = %d                # Milliseconds per simulation tick
# chart-height = %d            # Chart height in rows
`,
		defaultDecay,
		defaultThresholdDec,
		defaultMinThreshold,
		defaultMagnitude,
		defaultRefractory,
		defaultTickMs,
		defaultChartHeight,
	)
}

func validateConfig(cfg model.Config) error {
	if cfg.DecayRate < 0 {
		return fmt.Errorf("--decay must be >= 0")
	}
	if cfg.ThresholdDecayRate < 0 {
		return fmt.Errorf("--threshold-decay must be >= 0")
	}
	if cfg.MinThreshold < 0 {
		return fmt.Errorf("--min-threshold must be >= 0")
	}
	if cfg.SpikeMagnitude <= 0 {
		return fmt.Errorf("--magnitude must be > 0")
	}
	if cfg.RefractoryPeriod < 0 {
		return fmt.Errorf("--refractory must be >= 0")
	}
	if cfg.TickMs <= 0 {
		return fmt.Errorf("--tick-ms must be > 0")
	}
	if cfg.ChartHeight < 4 {
		return fmt.Errorf("--chart-height must be >= 4")
	}
	return nil
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
