package chart

import (
	"bytes"
	"fmt"
	"os"

	gochart "github.com/wcharczuk/go-chart/v2"
)

// Figures are always drawn at the fixed default size; the contract does not
// let synthesized code choose dimensions.
const (
	figureWidth  = 800
	figureHeight = 600
)

// Figure is a pending chart built by the sandbox's plotting primitives.
type Figure struct {
	kind   string
	labels []string
	values []float64
	title  string
}

func newFigure(kind string, labels []string, values []float64) (*Figure, error) {
	if len(labels) == 0 {
		return nil, fmt.Errorf("%s: no data points", kind)
	}
	if len(labels) != len(values) {
		return nil, fmt.Errorf("%s: %d labels but %d values", kind, len(labels), len(values))
	}
	return &Figure{kind: kind, labels: labels, values: values}, nil
}

// writePNG renders the figure into a byte buffer and persists it at path.
func (f *Figure) writePNG(path string) error {
	var buf bytes.Buffer
	if err := f.render(&buf); err != nil {
		return fmt.Errorf("rendering %s chart: %w", f.kind, err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("writing chart image: %w", err)
	}
	return nil
}

func (f *Figure) render(buf *bytes.Buffer) error {
	switch f.kind {
	case "pie":
		pie := gochart.PieChart{
			Title:  f.title,
			Width:  figureWidth,
			Height: figureHeight,
			Values: f.chartValues(),
		}
		return pie.Render(gochart.PNG, buf)

	case "bar":
		bar := gochart.BarChart{
			Title:  f.title,
			Width:  figureWidth,
			Height: figureHeight,
			Bars:   f.chartValues(),
		}
		return bar.Render(gochart.PNG, buf)

	case "line":
		xs := make([]float64, len(f.values))
		ticks := make([]gochart.Tick, len(f.labels))
		for i, label := range f.labels {
			xs[i] = float64(i)
			ticks[i] = gochart.Tick{Value: float64(i), Label: label}
		}
		line := gochart.Chart{
			Title:  f.title,
			Width:  figureWidth,
			Height: figureHeight,
			XAxis:  gochart.XAxis{Ticks: ticks},
			Series: []gochart.Series{
				gochart.ContinuousSeries{XValues: xs, YValues: f.values},
			},
		}
		return line.Render(gochart.PNG, buf)

	default:
		return fmt.Errorf("unknown figure kind %q", f.kind)
	}
}

func (f *Figure) chartValues() []gochart.Value {
	values := make([]gochart.Value, len(f.values))
	for i := range f.values {
		values[i] = gochart.Value{Label: f.labels[i], Value: f.values[i]}
	}
	return values
}
