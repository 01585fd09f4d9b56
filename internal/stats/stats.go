// Package stats contains firing statistics calculations and reporting.
package stats

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/spikelab/spikelab/internal/model"
	"github.com/spikelab/spikelab/internal/plot"
)

const sparkChars = " .:-=+*#%@"

// FiringRate computes spikes per 1000 ticks for a session.
func FiringRate(spikeCount, ticks int) float64 {
	if ticks <= 0 {
		return 0
	}
	return float64(spikeCount) / float64(ticks) * 1000
}

// MeanISI computes the mean inter-spike interval in ticks. Fewer than
// two spikes yield 0.
func MeanISI(spikeTicks []int) float64 {
	if len(spikeTicks) < 2 {
		return 0
	}
	total := 0
	for i := 1; i < len(spikeTicks); i++ {
		total += spikeTicks[i] - spikeTicks[i-1]
	}
	return float64(total) / float64(len(spikeTicks)-1)
}

// MovingAverage computes a rolling mean over the provided window size.
func MovingAverage(values []float64, window int) []float64 {
	if window <= 1 || len(values) == 0 {
		out := make([]float64, len(values))
		copy(out, values)
		return out
	}
	out := make([]float64, len(values))
	var sum float64
	for i := 0; i < len(values); i++ {
		sum += values[i]
		if i >= window {
			sum -= values[i-window]
		}
		den := float64(i + 1)
		if i >= window {
			den = float64(window)
		}
		out[i] = sum / den
	}
	return out
}

// Sparkline renders a single-line ASCII sparkline for the values.
func Sparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}
	minVal := values[0]
	maxVal := values[0]
	for _, v := range values[1:] {
		if v < minVal {
			minVal = v
		}
		if v > maxVal {
			maxVal = v
		}
	}
	if math.Abs(maxVal-minVal) < 1e-9 {
		return strings.Repeat(string(sparkChars[len(sparkChars)/2]), len(values))
	}
	var b strings.Builder
	for _, v := range values {
		pos := (v - minVal) / (maxVal - minVal)
		idx := int(math.Round(pos * float64(len(sparkChars)-1)))
		if idx < 0 {
			idx = 0
		}
		if idx >= len(sparkChars) {
			idx = len(sparkChars) - 1
		}
		b.WriteByte(sparkChars[idx])
	}
	return b.String()
}

// RenderSummary prints a summary for the selected sessions.
func RenderSummary(w io.Writer, sessions []model.SessionAggregate) error {
	if len(sessions) == 0 {
		_, err := fmt.Fprintln(w, "No sessions found.")
		return err
	}
	var totalSpikes, totalTicks int
	bestRate := 0.0
	var rateSum float64
	for _, s := range sessions {
		totalSpikes += s.SpikeCount
		totalTicks += s.Ticks
		rate := FiringRate(s.SpikeCount, s.Ticks)
		rateSum += rate
		if rate > bestRate {
			bestRate = rate
		}
	}
	count := float64(len(sessions))
	if _, err := fmt.Fprintln(w, "Summary"); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Sessions: %d\n", len(sessions)); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Total ticks: %d\n", totalTicks); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Total spikes: %d\n", totalSpikes); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Avg rate: %.2f spikes/1k ticks\n", rateSum/count); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Best rate: %.2f spikes/1k ticks\n", bestRate); err != nil {
		return err
	}
	if _, err := fmt.Fprintln(w, ""); err != nil {
		return err
	}
	return nil
}

// RenderSessionTable prints one row per session with firing metrics.
func RenderSessionTable(w io.Writer, sessions []model.SessionAggregate, spikeTicks map[int64][]int) error {
	if len(sessions) == 0 {
		_, err := fmt.Fprintln(w, "No sessions found.")
		return err
	}
	if _, err := fmt.Fprintln(w, "Sessions"); err != nil {
		return err
	}
	headers := []string{"Ended", "Ticks", "Spikes", "Rate/1k", "Mean ISI"}
	rows := make([][]string, 0, len(sessions))
	for _, s := range sessions {
		isi := MeanISI(spikeTicks[s.SessionID])
		isiLabel := "-"
		if isi > 0 {
			isiLabel = fmt.Sprintf("%.1f", isi)
		}
		rows = append(rows, []string{
			s.EndedAt.Format("2006-01-02 15:04"),
			fmt.Sprintf("%d", s.Ticks),
			fmt.Sprintf("%d", s.SpikeCount),
			fmt.Sprintf("%.2f", FiringRate(s.SpikeCount, s.Ticks)),
			isiLabel,
		})
	}
	rightAlign := map[int]bool{1: true, 2: true, 3: true, 4: true}
	for _, line := range formatTable(headers, rows, rightAlign) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintln(w, ""); err != nil {
		return err
	}
	return nil
}

// RenderRateCurves prints firing-rate and mean-ISI curves across sessions.
func RenderRateCurves(w io.Writer, sessions []model.SessionAggregate, spikeTicks map[int64][]int, window int) error {
	return RenderRateCurvesWithSize(w, sessions, spikeTicks, window, 0, 10, false)
}

// RenderRateCurvesWithSize prints the curves sized to a given total width.
func RenderRateCurvesWithSize(w io.Writer, sessions []model.SessionAggregate, spikeTicks map[int64][]int, window, totalWidth, height int, useColor bool) error {
	if len(sessions) == 0 {
		return nil
	}
	rates := make([]float64, len(sessions))
	isis := make([]float64, len(sessions))
	for i, s := range sessions {
		rates[i] = FiringRate(s.SpikeCount, s.Ticks)
		isis[i] = MeanISI(spikeTicks[s.SessionID])
	}
	rates = MovingAverage(rates, window)
	isis = MovingAverage(isis, window)

	yMax := 0.0
	for _, v := range rates {
		yMax = math.Max(yMax, v)
	}
	for _, v := range isis {
		yMax = math.Max(yMax, v)
	}

	width := 0
	if totalWidth > 0 {
		width = plot.WidthFor(totalWidth)
	}
	return plot.RenderWithColor(w, plot.Chart{
		Title: "Firing Across Sessions",
		Series: []plot.Series{
			{Name: "rate/1k", Values: rates},
			{Name: "mean ISI", Values: isis},
		},
		YMin:   0,
		YMax:   yMax,
		Width:  width,
		Height: height,
	}, useColor)
}
