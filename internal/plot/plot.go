// Package plot renders braille time-series charts for the terminal.
package plot

import (
	"fmt"
	"io"
	"math"
	"os"
	"strings"
	"unicode/utf8"

	"golang.org/x/term"
)

// Series is a named line of values sharing the chart's y-range.
type Series struct {
	Name   string
	Values []float64
}

// Chart describes one rendered plot. All series share the [YMin, YMax]
// range so their values stay directly comparable; Markers are x indices
// (into the longest series) drawn as vertical lines.
type Chart struct {
	Title   string
	Series  []Series
	Markers []int
	YMin    float64
	YMax    float64
	Width   int
	Height  int
}

type lineStyle struct {
	name   string
	period int
	on     int
}

type ansiColor struct {
	name string
	code string
}

const (
	defaultHeight       = 10
	minWidth            = 10
	axisLabelWidth      = 6
	axisSeparator       = " │ "
	markerLegendName    = "spike"
	colorReset          = "\x1b[0m"
	terminalWidthBackup = 80
)

var lineStyles = []lineStyle{
	{name: "solid", period: 1, on: 1},
	{name: "dashed", period: 6, on: 3},
	{name: "dotted", period: 4, on: 1},
}

var seriesColors = []ansiColor{
	{name: "cyan", code: "\x1b[36m"},
	{name: "yellow", code: "\x1b[33m"},
	{name: "green", code: "\x1b[32m"},
	{name: "blue", code: "\x1b[34m"},
}

var markerColor = ansiColor{name: "red", code: "\x1b[31m"}

// Render draws the chart to w.
func Render(w io.Writer, c Chart) error {
	return RenderWithColor(w, c, false)
}

// RenderWithColor draws the chart to w, optionally forcing color output.
func RenderWithColor(w io.Writer, c Chart, forceColor bool) error {
	series := filterSeries(c.Series)
	maxLen := maxSeriesLen(series)
	if maxLen == 0 {
		return nil
	}

	height := c.Height
	if height <= 0 {
		height = defaultHeight
	}
	width := c.Width
	if width <= 0 {
		width = autoWidth()
	}
	if width < minWidth {
		width = minWidth
	}

	yMin, yMax := c.YMin, c.YMax
	if yMax-yMin < 1e-9 {
		yMax = yMin + 1
	}

	scaled := make([]Series, 0, len(series))
	for _, s := range series {
		scaled = append(scaled, Series{Name: s.Name, Values: resample(s.Values, width)})
	}

	// Marker layer goes last so lines win the color contest per cell.
	layers := make([][][]uint8, 0, len(scaled)+1)
	for range scaled {
		layers = append(layers, makeCells(height, width))
	}
	for si, s := range scaled {
		style := lineStyles[si%len(lineStyles)]
		prevX, prevY := -1, -1
		for x, v := range s.Values {
			row := valueToRow(v, yMin, yMax, height*4)
			px, py := x*2, row
			if prevX >= 0 {
				drawLine(prevX, prevY, px, py, func(dx, dy int) {
					if style.shouldPlot(dx) {
						setBrailleDot(layers[si], dx, dy)
					}
				})
			} else if style.shouldPlot(px) {
				setBrailleDot(layers[si], px, py)
			}
			prevX, prevY = px, py
		}
	}
	markerLayer := makeCells(height, width)
	hasMarkers := drawMarkers(markerLayer, c.Markers, maxLen, width, height)
	layers = append(layers, markerLayer)

	useColor := shouldUseColor(w, forceColor)
	axisLabels := makeAxisLabels(height, yMin, yMax)

	if c.Title != "" {
		if _, err := fmt.Fprintln(w, c.Title); err != nil {
			return err
		}
	}
	for y := 0; y < height; y++ {
		prefix := fmt.Sprintf("%*s%s", axisLabelWidth, axisLabels[y], axisSeparator)
		var row strings.Builder
		row.WriteString(prefix)
		for x := 0; x < width; x++ {
			mask, layerIdx := composeCell(layers, x, y)
			ch := brailleFromMask(mask)
			if useColor && layerIdx >= 0 {
				row.WriteString(layerColor(layerIdx, len(scaled)).code)
				row.WriteRune(ch)
				row.WriteString(colorReset)
			} else {
				row.WriteRune(ch)
			}
		}
		if _, err := fmt.Fprintln(w, row.String()); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintln(w, renderLegend(scaled, hasMarkers, useColor)); err != nil {
		return err
	}
	return nil
}

// WidthFor computes a plot width that fits within the total available width.
func WidthFor(totalWidth int) int {
	if totalWidth <= 0 {
		return minWidth
	}
	axisWidth := axisLabelWidth + utf8.RuneCountInString(axisSeparator)
	plotWidth := totalWidth - axisWidth
	if plotWidth < minWidth {
		plotWidth = minWidth
	}
	return plotWidth
}

func autoWidth() int {
	return WidthFor(terminalWidth())
}

func terminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return terminalWidthBackup
	}
	return width
}

func shouldUseColor(w io.Writer, force bool) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	if force {
		return true
	}
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(file.Fd()))
}

func filterSeries(series []Series) []Series {
	out := make([]Series, 0, len(series))
	for _, s := range series {
		if len(s.Values) == 0 {
			continue
		}
		out = append(out, s)
	}
	return out
}

func maxSeriesLen(series []Series) int {
	maxLen := 0
	for _, s := range series {
		if len(s.Values) > maxLen {
			maxLen = len(s.Values)
		}
	}
	return maxLen
}

func layerColor(layerIdx, seriesN int) ansiColor {
	if layerIdx >= seriesN {
		return markerColor
	}
	return seriesColors[layerIdx%len(seriesColors)]
}

func makeAxisLabels(height int, yMin, yMax float64) []string {
	labels := make([]string, height)
	if height <= 0 {
		return labels
	}
	labels[0] = axisLabel(yMax)
	if height > 2 {
		labels[height/2] = axisLabel(yMin + (yMax-yMin)/2)
	}
	if height > 1 {
		labels[height-1] = axisLabel(yMin)
	}
	return labels
}

func axisLabel(v float64) string {
	label := fmt.Sprintf("%.1f", v)
	if utf8.RuneCountInString(label) > axisLabelWidth {
		label = fmt.Sprintf("%.0f", v)
	}
	return label
}

func drawMarkers(cells [][]uint8, markers []int, domain, width, height int) bool {
	if len(markers) == 0 || domain <= 0 {
		return false
	}
	drawn := false
	for _, idx := range markers {
		if idx < 0 || idx >= domain {
			continue
		}
		x := idx
		if domain > 1 {
			x = idx * (width - 1) / (domain - 1)
		}
		for y := 0; y < height*4; y++ {
			if y%2 == 0 {
				setBrailleDot(cells, x*2, y)
			}
		}
		drawn = true
	}
	return drawn
}

func makeCells(height, width int) [][]uint8 {
	cells := make([][]uint8, height)
	for y := 0; y < height; y++ {
		cells[y] = make([]uint8, width)
	}
	return cells
}

func composeCell(layers [][][]uint8, x, y int) (uint8, int) {
	var mask uint8
	layerIdx := -1
	for i, cells := range layers {
		if y < 0 || y >= len(cells) || x < 0 || x >= len(cells[y]) {
			continue
		}
		cellMask := cells[y][x]
		if cellMask == 0 {
			continue
		}
		if layerIdx == -1 {
			layerIdx = i
		}
		mask |= cellMask
	}
	return mask, layerIdx
}

func (ls lineStyle) shouldPlot(x int) bool {
	if ls.period <= 1 {
		return true
	}
	if x < 0 {
		x = -x
	}
	return x%ls.period < ls.on
}

func resample(values []float64, width int) []float64 {
	if len(values) == 0 || width <= 0 {
		return nil
	}
	if len(values) == width {
		out := make([]float64, len(values))
		copy(out, values)
		return out
	}
	out := make([]float64, width)
	if len(values) > width {
		for i := 0; i < width; i++ {
			start := int(float64(i) * float64(len(values)) / float64(width))
			end := int(float64(i+1) * float64(len(values)) / float64(width))
			if end <= start {
				end = start + 1
			}
			if end > len(values) {
				end = len(values)
			}
			var sum float64
			for _, v := range values[start:end] {
				sum += v
			}
			out[i] = sum / float64(end-start)
		}
		return out
	}
	if width == 1 || len(values) == 1 {
		for i := range out {
			out[i] = values[0]
		}
		return out
	}
	for i := 0; i < width; i++ {
		pos := float64(i) * float64(len(values)-1) / float64(width-1)
		idx := int(math.Floor(pos))
		if idx >= len(values)-1 {
			out[i] = values[len(values)-1]
			continue
		}
		frac := pos - float64(idx)
		out[i] = values[idx]*(1-frac) + values[idx+1]*frac
	}
	return out
}

func valueToRow(v, yMin, yMax float64, height int) int {
	if height <= 1 {
		return 0
	}
	pos := (v - yMin) / (yMax - yMin)
	row := int(math.Round((1 - pos) * float64(height-1)))
	if row < 0 {
		row = 0
	}
	if row >= height {
		row = height - 1
	}
	return row
}

func renderLegend(series []Series, hasMarkers, useColor bool) string {
	parts := make([]string, 0, len(series)+1)
	marker := brailleFromMask(0x01)
	for i, s := range series {
		styleName := lineStyles[i%len(lineStyles)].name
		label := fmt.Sprintf("%c %s (%s)", marker, s.Name, styleName)
		if useColor {
			label = seriesColors[i%len(seriesColors)].code + label + colorReset
		}
		parts = append(parts, label)
	}
	if hasMarkers {
		label := fmt.Sprintf("%c %s", brailleFromMask(0x47), markerLegendName)
		if useColor {
			label = markerColor.code + label + colorReset
		}
		parts = append(parts, label)
	}
	return "Legend: " + strings.Join(parts, "  ")
}

func drawLine(x0, y0, x1, y1 int, plot func(x, y int)) {
	dx := int(math.Abs(float64(x1 - x0)))
	sx := -1
	if x0 < x1 {
		sx = 1
	}
	dy := -int(math.Abs(float64(y1 - y0)))
	sy := -1
	if y0 < y1 {
		sy = 1
	}
	err := dx + dy
	for {
		plot(x0, y0)
		if x0 == x1 && y0 == y1 {
			break
		}
		e2 := 2 * err
		if e2 >= dy {
			if x0 == x1 {
				break
			}
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			if y0 == y1 {
				break
			}
			err += dx
			y0 += sy
		}
	}
}

func setBrailleDot(cells [][]uint8, x, y int) {
	if y < 0 || x < 0 {
		return
	}
	cellY := y / 4
	cellX := x / 2
	if cellY < 0 || cellY >= len(cells) {
		return
	}
	if cellX < 0 || cellX >= len(cells[cellY]) {
		return
	}
	cells[cellY][cellX] |= brailleDotMask(x%2, y%4)
}

func brailleDotMask(x, y int) uint8 {
	switch {
	case x == 0 && y == 0:
		return 0x01
	case x == 0 && y == 1:
		return 0x02
	case x == 0 && y == 2:
		return 0x04
	case x == 0 && y == 3:
		return 0x40
	case x == 1 && y == 0:
		return 0x08
	case x == 1 && y == 1:
		return 0x10
	case x == 1 && y == 2:
		return 0x20
	case x == 1 && y == 3:
		return 0x80
	default:
		return 0
	}
}

func brailleFromMask(mask uint8) rune {
	return rune(0x2800 + int(mask))
}
