package cloud

import (
	"image/color"
	"image/png"
	"io"

	"github.com/paulmach/orb"
	"github.com/tdewolff/canvas"
	"github.com/tdewolff/canvas/renderers/rasterizer"
	"github.com/tdewolff/canvas/renderers/svg"
)

// VectorRenderer draws a frame with tdewolff/canvas, as SVG or as a
// rasterized PNG
type VectorRenderer struct {
	Width       float64 // canvas width in mm
	Height      float64 // canvas height in mm
	PointRadius float64 // marker radius in mm
	Bound       orb.Bound
	Colors      Palette
	Resolution  canvas.Resolution // Resolution for PNG output
}

// NewVectorRenderer creates a vector renderer whose PNG output at the
// default 96 DPI matches the configured pixel size
func NewVectorRenderer(cfg *Config) (*VectorRenderer, error) {
	palette, err := cfg.Render.Palette()
	if err != nil {
		return nil, err
	}
	const mmPerPx = 25.4 / 96
	return &VectorRenderer{
		Width:       float64(cfg.Render.Width) * mmPerPx,
		Height:      float64(cfg.Render.Height) * mmPerPx,
		PointRadius: cfg.Render.PointRadius * mmPerPx,
		Bound:       cfg.InteractionLayer().Bound,
		Colors:      palette,
		Resolution:  canvas.DPI(96),
	}, nil
}

// canvasRenderer is an interface that both svg and rasterizer renderers implement
type canvasRenderer interface {
	RenderPath(path *canvas.Path, style canvas.Style, m canvas.Matrix)
}

// RenderToSVG writes the frame as an SVG to the provided writer
func (r *VectorRenderer) RenderToSVG(w io.Writer, frame Frame) error {
	svgRenderer := svg.New(w, r.Width, r.Height, nil)
	r.renderToCanvas(svgRenderer, frame)

	// Close writes the closing tags
	return svgRenderer.Close()
}

// RenderToPNG writes the frame as a PNG to the provided writer
func (r *VectorRenderer) RenderToPNG(w io.Writer, frame Frame) error {
	rast := rasterizer.New(r.Width, r.Height, r.Resolution, canvas.DefaultColorSpace)
	r.renderToCanvas(rast, frame)
	return png.Encode(w, rast)
}

// toCanvas maps world coordinates to canvas millimeters, y pointing up
func (r *VectorRenderer) toCanvas(p orb.Point) (float64, float64) {
	sx := r.Width / (r.Bound.Max[0] - r.Bound.Min[0])
	sy := r.Height / (r.Bound.Max[1] - r.Bound.Min[1])
	return (p[0] - r.Bound.Min[0]) * sx, (p[1] - r.Bound.Min[1]) * sy
}

func (r *VectorRenderer) renderToCanvas(renderer canvasRenderer, frame Frame) {
	bgStyle := canvas.DefaultStyle
	bgStyle.Fill = canvas.Paint{Color: r.Colors.Background}
	renderer.RenderPath(canvas.Rectangle(r.Width, r.Height), bgStyle, canvas.Identity)

	// Axes
	ox, oy := r.toCanvas(orb.Point{0, 0})
	axisStyle := canvas.DefaultStyle
	axisStyle.Fill = canvas.Paint{Color: canvas.Transparent}
	axisStyle.Stroke = canvas.Paint{Color: r.Colors.Axis}
	axisStyle.StrokeWidth = 0.3
	axisStyle.Dashes = []float64{2.0, 2.0}
	axes := &canvas.Path{}
	axes.MoveTo(0, oy)
	axes.LineTo(r.Width, oy)
	axes.MoveTo(ox, 0)
	axes.LineTo(ox, r.Height)
	renderer.RenderPath(axes, axisStyle, canvas.Identity)

	r.renderPoints(renderer, frame.Reference, r.Colors.Reference)
	r.renderPoints(renderer, frame.Movable, r.Colors.Movable)

	if frame.EditMode == Rotate {
		hx, hy := r.toCanvas(frame.Handle)

		armStyle := canvas.DefaultStyle
		armStyle.Fill = canvas.Paint{Color: canvas.Transparent}
		armStyle.Stroke = canvas.Paint{Color: r.Colors.Handle}
		armStyle.StrokeWidth = 0.5
		arm := &canvas.Path{}
		arm.MoveTo(ox, oy)
		arm.LineTo(hx, hy)
		renderer.RenderPath(arm, armStyle, canvas.Identity)

		handleStyle := canvas.DefaultStyle
		handleStyle.Fill = canvas.Paint{Color: r.Colors.Handle}
		handleStyle.Stroke = canvas.Paint{Color: canvas.Black}
		handleStyle.StrokeWidth = 0.2
		renderer.RenderPath(canvas.Circle(r.PointRadius*1.5).Translate(hx, hy), handleStyle, canvas.Identity)
	}
}

func (r *VectorRenderer) renderPoints(renderer canvasRenderer, points PointCloud, c color.RGBA) {
	style := canvas.DefaultStyle
	style.Fill = canvas.Paint{Color: c}
	style.Stroke = canvas.Paint{Color: canvas.Transparent}
	for _, p := range points {
		cx, cy := r.toCanvas(p)
		renderer.RenderPath(canvas.Circle(r.PointRadius).Translate(cx, cy), style, canvas.Identity)
	}
}
