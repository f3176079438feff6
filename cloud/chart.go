package cloud

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/paulmach/orb"
	"github.com/samber/lo"
)

// ChartOptions controls the interactive HTML chart
type ChartOptions struct {
	Width      int
	Height     int
	Range      RangeConfig
	Colors     Palette
	AssetsHost string // empty uses the go-echarts CDN
}

// NewChartOptions derives chart options from the configuration
func NewChartOptions(cfg *Config) (ChartOptions, error) {
	palette, err := cfg.Render.Palette()
	if err != nil {
		return ChartOptions{}, err
	}
	return ChartOptions{
		Width:  cfg.Render.Width,
		Height: cfg.Render.Height,
		Range:  cfg.Range,
		Colors: palette,
	}, nil
}

// RenderChart writes a self-contained ECharts page plotting both clouds
// of the frame, titled with the distance
func RenderChart(w io.Writer, frame Frame, o ChartOptions) error {
	scatter := charts.NewScatter()

	initOpts := opts.Initialization{
		PageTitle: "chamferview",
		Width:     fmt.Sprintf("%dpx", o.Width),
		Height:    fmt.Sprintf("%dpx", o.Height),
	}
	if o.AssetsHost != "" {
		initOpts.AssetsHost = o.AssetsHost
	}

	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(initOpts),
		charts.WithTitleOpts(opts.Title{
			Title:    frame.Title,
			Subtitle: fmt.Sprintf("mode=%s/%s generation=%d", frame.DataMode, frame.EditMode, frame.Generation),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Right: "10"}),
		charts.WithXAxisOpts(opts.XAxis{Type: "value", Min: o.Range.Min, Max: o.Range.Max}),
		charts.WithYAxisOpts(opts.YAxis{Type: "value", Min: o.Range.Min, Max: o.Range.Max}),
	)

	scatter.AddSeries(LayerReference, scatterData(frame.Reference),
		charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 8}),
		charts.WithItemStyleOpts(opts.ItemStyle{Color: hexOf(o.Colors.Reference.R, o.Colors.Reference.G, o.Colors.Reference.B)}),
	)
	scatter.AddSeries(LayerMovable, scatterData(frame.Movable),
		charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 8}),
		charts.WithItemStyleOpts(opts.ItemStyle{Color: hexOf(o.Colors.Movable.R, o.Colors.Movable.G, o.Colors.Movable.B)}),
	)

	if err := scatter.Render(w); err != nil {
		return fmt.Errorf("rendering chart: %w", err)
	}
	return nil
}

func scatterData(c PointCloud) []opts.ScatterData {
	return lo.Map(c, func(p orb.Point, _ int) opts.ScatterData {
		return opts.ScatterData{Value: []interface{}{p[0], p[1]}}
	})
}

func hexOf(r, g, b uint8) string {
	return colorful.Color{R: float64(r) / 255, G: float64(g) / 255, B: float64(b) / 255}.Hex()
}
