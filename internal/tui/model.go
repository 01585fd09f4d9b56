// Package tui provides the Bubble Tea simulation interface.
package tui

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/spikelab/spikelab/internal/engine"
	"github.com/spikelab/spikelab/internal/model"
	"github.com/spikelab/spikelab/internal/plot"
	"github.com/spikelab/spikelab/internal/store"
)

type tickMsg time.Time

type paramField struct {
	name string
	step float64
}

var paramFields = []paramField{
	{name: "decay", step: 0.005},
	{name: "thr-decay", step: 0.005},
	{name: "thr-floor", step: 0.1},
	{name: "magnitude", step: 0.1},
	{name: "refractory", step: 1},
}

var (
	titleStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	footerStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	selectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A")).Bold(true)
	paramStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#B0B0B0"))
	spikeStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F")).Bold(true)
	pausedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A"))
)

// Model implements the Bubble Tea simulation UI.
type Model struct {
	config model.Config
	store  *store.Store
	neuron *engine.Neuron

	running    bool
	paramIndex int
	startedAt  time.Time

	magInputMode bool
	magInput     textinput.Model

	width  int
	height int
}

// NewModel constructs a simulation TUI model.
func NewModel(cfg model.Config, st *store.Store, neuron *engine.Neuron) *Model {
	input := textinput.New()
	input.Prompt = "Magnitude: "
	input.Placeholder = "0.5"
	input.CharLimit = 16
	input.Cursor.SetMode(cursor.CursorBlink)
	return &Model{
		config:    cfg,
		store:     st,
		neuron:    neuron,
		running:   true,
		startedAt: time.Now(),
		magInput:  input,
	}
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return m.tickCmd()
}

func (m *Model) tickCmd() tea.Cmd {
	interval := time.Duration(m.config.TickMs) * time.Millisecond
	return tea.Tick(interval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case tickMsg:
		if m.running {
			m.neuron.Tick()
		}
		// Always reschedule so pause/resume keeps a single timer chain.
		return m, m.tickCmd()
	case tea.KeyMsg:
		if m.magInputMode {
			return m.updateMagInput(msg)
		}
		return m.updateKeys(msg)
	default:
		return m, nil
	}
}

func (m *Model) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		m.saveSession()
		return m, tea.Quit
	case " ":
		m.neuron.Stimulate(m.neuron.Params.SpikeMagnitude)
		return m, nil
	case "s":
		m.magInputMode = true
		m.magInput.SetValue("")
		return m, m.magInput.Focus()
	case "p":
		m.running = !m.running
		return m, nil
	case "r":
		m.neuron.Reset()
		m.startedAt = time.Now()
		return m, nil
	case "tab":
		m.paramIndex = (m.paramIndex + 1) % len(paramFields)
		return m, nil
	case "shift+tab":
		m.paramIndex = (m.paramIndex + len(paramFields) - 1) % len(paramFields)
		return m, nil
	case "+", "=":
		m.adjustParam(1)
		return m, nil
	case "-", "_":
		m.adjustParam(-1)
		return m, nil
	default:
		return m, nil
	}
}

func (m *Model) updateMagInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.magInputMode = false
		m.magInput.Blur()
		return m, nil
	case tea.KeyEnter:
		m.magInputMode = false
		m.magInput.Blur()
		if magnitude, ok := parseMagnitude(m.magInput.Value()); ok {
			m.neuron.Stimulate(magnitude)
		}
		return m, nil
	}
	var cmd tea.Cmd
	m.magInput, cmd = m.magInput.Update(msg)
	return m, cmd
}

// parseMagnitude accepts any finite float; malformed input is dropped.
func parseMagnitude(raw string) (float64, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

func (m *Model) adjustParam(direction int) {
	field := paramFields[m.paramIndex]
	p := &m.neuron.Params
	switch field.name {
	case "decay":
		p.DecayRate = clampRate(p.DecayRate + float64(direction)*field.step)
	case "thr-decay":
		p.ThresholdDecayRate = clampRate(p.ThresholdDecayRate + float64(direction)*field.step)
	case "thr-floor":
		p.MinThreshold = clampRate(p.MinThreshold + float64(direction)*field.step)
	case "magnitude":
		p.SpikeMagnitude = clampRate(p.SpikeMagnitude + float64(direction)*field.step)
	case "refractory":
		p.RefractoryPeriod += direction
		if p.RefractoryPeriod < 0 {
			p.RefractoryPeriod = 0
		}
	}
}

func clampRate(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}

// View implements tea.Model.
func (m *Model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("spikelab"))
	b.WriteString("\n\n")
	b.WriteString(m.renderChart())
	b.WriteString("\n")
	b.WriteString(m.renderParams())
	b.WriteString("\n")
	b.WriteString(m.renderStatus())
	b.WriteString("\n")
	if m.magInputMode {
		b.WriteString(m.magInput.View())
	} else {
		b.WriteString(m.renderHelp())
	}
	return b.String()
}

func (m *Model) renderChart() string {
	samples := m.neuron.Samples()
	if len(samples) < 2 {
		return "Collecting data...\n"
	}
	potentials := make([]float64, len(samples))
	thresholds := make([]float64, len(samples))
	for i, s := range samples {
		potentials[i] = s.Potential
		thresholds[i] = s.Threshold
	}
	chart := plot.Chart{
		Title: "Membrane Potential",
		Series: []plot.Series{
			{Name: "potential", Values: potentials},
			{Name: "threshold", Values: thresholds},
		},
		Markers: m.spikeMarkers(samples),
		YMin:    0,
		YMax:    m.neuron.DisplayCeiling(),
		Width:   plot.WidthFor(m.width),
		Height:  m.config.ChartHeight,
	}
	var buf bytes.Buffer
	if err := plot.Render(&buf, chart); err != nil {
		return fmt.Sprintf("Failed to render chart: %v\n", err)
	}
	return buf.String()
}

// spikeMarkers maps spike times into indexes of the visible sample window.
func (m *Model) spikeMarkers(samples []model.Sample) []int {
	spikes := m.neuron.SpikeTimes()
	if len(spikes) == 0 {
		return nil
	}
	first := samples[0].Time
	markers := make([]int, 0, len(spikes))
	for _, t := range spikes {
		idx := t - first
		if idx >= 0 && idx < len(samples) {
			markers = append(markers, idx)
		}
	}
	return markers
}

func (m *Model) renderParams() string {
	p := m.neuron.Params
	values := []string{
		fmt.Sprintf("decay %.3f", p.DecayRate),
		fmt.Sprintf("thr-decay %.3f", p.ThresholdDecayRate),
		fmt.Sprintf("thr-floor %.2f", p.MinThreshold),
		fmt.Sprintf("magnitude %.2f", p.SpikeMagnitude),
		fmt.Sprintf("refractory %d", p.RefractoryPeriod),
	}
	parts := make([]string, len(values))
	for i, v := range values {
		if i == m.paramIndex {
			parts[i] = selectedStyle.Render("[" + v + "]")
		} else {
			parts[i] = paramStyle.Render(" " + v + " ")
		}
	}
	return strings.Join(parts, " ")
}

func (m *Model) renderStatus() string {
	segments := []string{
		fmt.Sprintf("t=%d", m.neuron.Time()),
		fmt.Sprintf("V=%.3f", m.neuron.Potential()),
		fmt.Sprintf("thr=%.3f", m.neuron.Threshold()),
		fmt.Sprintf("spikes=%d", m.neuron.SpikeCount()),
	}
	line := footerStyle.Render(strings.Join(segments, "  "))
	if m.neuron.Refractory() {
		line += "  " + spikeStyle.Render("REFRACTORY")
	}
	if !m.running {
		line += "  " + pausedStyle.Render("PAUSED")
	}
	return line
}

func (m *Model) renderHelp() string {
	help := "space: stimulate  s: custom  p: pause  r: reset  tab: select  +/-: adjust  q: quit"
	if m.width > 0 {
		help = truncate(help, m.width)
	}
	return footerStyle.Render(help)
}

func truncate(s string, width int) string {
	if runewidth.StringWidth(s) <= width {
		return s
	}
	return runewidth.Truncate(s, width, "…")
}

func (m *Model) saveSession() {
	if m.neuron.Time() == 0 {
		return
	}
	endedAt := time.Now()
	p := m.neuron.Params
	stats := model.SessionStats{
		StartedAt:          m.startedAt,
		EndedAt:            endedAt,
		Ticks:              m.neuron.Time(),
		SpikeCount:         m.neuron.SpikeCount(),
		DecayRate:          p.DecayRate,
		ThresholdDecayRate: p.ThresholdDecayRate,
		MinThreshold:       p.MinThreshold,
		SpikeMagnitude:     p.SpikeMagnitude,
		DurationMs:         endedAt.Sub(m.startedAt).Milliseconds(),
	}
	ctx := context.Background()
	if _, err := m.store.InsertSession(ctx, stats, m.neuron.SpikeTimes()); err != nil {
		logErrf("failed to save session: %v\n", err)
	}
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
