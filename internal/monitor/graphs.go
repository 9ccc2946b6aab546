package monitor

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Braille cells are a 2x4 dot matrix. Unicode braille starts at U+2800
// and each dot is one bit:
//
//	col 0  col 1
//	  1      4     row 0
//	  2      5     row 1
//	  3      6     row 2
//	  7      8     row 3
const brailleBase = '⠀'

// brailleDots maps [row][col] to the bit for that dot.
var brailleDots = [4][2]uint8{
	{0, 3},
	{1, 4},
	{2, 5},
	{6, 7},
}

var sparklineBlocks = []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

// Scale controls how a series maps onto graph height.
type Scale int

const (
	// ScalePercent pins the range to 0-100 and colours by threshold.
	ScalePercent Scale = iota
	// ScaleAuto fits the range to the data, from zero to the series max.
	// Used for rates and load averages.
	ScaleAuto
)

// bounds returns the value range for data under s.
func bounds(data []float64, s Scale) (lo, hi float64) {
	if s == ScalePercent || len(data) == 0 {
		return 0, 100
	}
	for _, v := range data {
		if v > hi {
			hi = v
		}
	}
	return 0, hi
}

// normalizeValue maps val into [0, 1] given lo and hi. A flat range maps to 0.5.
func normalizeValue(val, lo, hi float64) float64 {
	if hi > lo {
		return (val - lo) / (hi - lo)
	}
	return 0.5
}

func clampInt(val, maxVal int) int {
	if val < 0 {
		return 0
	}
	if val > maxVal {
		return maxVal
	}
	return val
}

// RenderBrailleGraph draws data as a braille area chart width cells wide and
// height rows tall. Each cell holds two samples. Short series are
// right-aligned so the newest sample is always at the right edge.
// Percent series are coloured per column by threshold; auto-scaled series
// use color.
func RenderBrailleGraph(data []float64, width, height int, s Scale, color lipgloss.Color) string {
	if len(data) == 0 || width <= 0 || height <= 0 {
		return ""
	}

	lo, hi := bounds(data, s)
	totalDots := height * 4
	points := width * 2

	samples := data
	if len(data) > points {
		samples = resampleData(data, points)
	}

	grid := make([][]rune, height)
	for i := range grid {
		grid[i] = make([]rune, width)
		for j := range grid[i] {
			grid[i][j] = brailleBase
		}
	}
	colMax := make([]float64, width)

	offset := points - len(samples)
	if offset < 0 {
		offset = 0
	}

	for i, val := range samples {
		col := (i + offset) / 2
		if col >= width {
			continue
		}
		if val > colMax[col] {
			colMax[col] = val
		}
		sub := (i + offset) % 2
		dots := clampInt(int(normalizeValue(val, lo, hi)*float64(totalDots)), totalDots)
		for d := 0; d < dots; d++ {
			row := height - 1 - d/4
			grid[row][col] |= rune(1 << brailleDots[3-d%4][sub])
		}
	}

	lines := make([]string, height)
	for r, row := range grid {
		var b strings.Builder
		for c, ch := range row {
			fg := color
			if s == ScalePercent {
				fg = MetricColor(colMax[c])
			}
			b.WriteString(lipgloss.NewStyle().Foreground(fg).Render(string(ch)))
		}
		lines[r] = b.String()
	}
	return strings.Join(lines, "\n")
}

// RenderSparkline draws a single-row block sparkline, coloured by the most
// recent value for percent series.
func RenderSparkline(data []float64, width int, s Scale) string {
	if len(data) == 0 || width <= 0 {
		return ""
	}

	lo, hi := bounds(data, s)
	samples := data
	if len(data) > width {
		samples = resampleData(data, width)
	}

	var b strings.Builder
	b.WriteString(strings.Repeat(" ", width-len(samples)))
	for _, v := range samples {
		idx := clampInt(int(normalizeValue(v, lo, hi)*float64(len(sparklineBlocks)-1)), len(sparklineBlocks)-1)
		b.WriteRune(sparklineBlocks[idx])
	}

	color := ColorGraph
	if s == ScalePercent {
		color = MetricColor(data[len(data)-1])
	}
	return lipgloss.NewStyle().Foreground(color).Render(b.String())
}

// resampleData fits data to size points. Downsampling keeps each bucket's
// maximum so short spikes stay visible; upsampling interpolates linearly.
func resampleData(data []float64, size int) []float64 {
	if len(data) == 0 || size <= 0 {
		return nil
	}
	if len(data) == size {
		return data
	}

	out := make([]float64, size)
	if len(data) == 1 {
		for i := range out {
			out[i] = data[0]
		}
		return out
	}

	if len(data) > size {
		bucket := float64(len(data)) / float64(size)
		for i := range out {
			start := int(float64(i) * bucket)
			end := int(float64(i+1) * bucket)
			if end > len(data) {
				end = len(data)
			}
			if start >= end {
				start = end - 1
			}
			peak := data[start]
			for _, v := range data[start+1 : end] {
				if v > peak {
					peak = v
				}
			}
			out[i] = peak
		}
		return out
	}

	step := float64(len(data)-1) / float64(size-1)
	for i := range out {
		pos := float64(i) * step
		idx := int(pos)
		if idx >= len(data)-1 {
			out[i] = data[len(data)-1]
			continue
		}
		frac := pos - float64(idx)
		out[i] = data[idx]*(1-frac) + data[idx+1]*frac
	}
	return out
}
