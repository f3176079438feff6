package cloud

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/paulmach/orb"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// Palette holds the colors shared by every renderer
type Palette struct {
	Background color.RGBA
	Axis       color.RGBA
	Text       color.RGBA
	Reference  color.RGBA
	Movable    color.RGBA
	Handle     color.RGBA
}

// Palette parses the configured hex colors
func (rc RenderConfig) Palette() (Palette, error) {
	ref, err := parseHexColor("render.referenceColor", rc.ReferenceColor)
	if err != nil {
		return Palette{}, err
	}
	mov, err := parseHexColor("render.movableColor", rc.MovableColor)
	if err != nil {
		return Palette{}, err
	}
	handle, err := parseHexColor("render.handleColor", rc.HandleColor)
	if err != nil {
		return Palette{}, err
	}
	return Palette{
		Background: color.RGBA{255, 255, 255, 255},
		Axis:       color.RGBA{200, 200, 200, 255},
		Text:       color.RGBA{0, 0, 0, 255},
		Reference:  ref,
		Movable:    mov,
		Handle:     handle,
	}, nil
}

// parseHexColor accepts "#RRGGBB", "#RGB" or the same without the leading #
func parseHexColor(option, hex string) (color.RGBA, error) {
	s := strings.TrimSpace(hex)
	if !strings.HasPrefix(s, "#") {
		s = "#" + s
	}
	c, err := colorful.Hex(s)
	if err != nil {
		return color.RGBA{}, &ConfigurationError{Option: option, Value: hex, Reason: "not a hex color"}
	}
	r, g, b := c.RGB255()
	return color.RGBA{r, g, b, 255}, nil
}

// SceneRenderer draws a frame as a raster image: reference points, movable
// points, the rotate handle and the distance title
type SceneRenderer struct {
	Width       int
	Height      int
	PointRadius int
	Bound       orb.Bound // world range mapped onto the image
	Colors      Palette
}

// NewSceneRenderer creates a raster renderer for the configured range
func NewSceneRenderer(cfg *Config) (*SceneRenderer, error) {
	palette, err := cfg.Render.Palette()
	if err != nil {
		return nil, err
	}
	radius := int(math.Round(cfg.Render.PointRadius))
	if radius < 1 {
		radius = 1
	}
	return &SceneRenderer{
		Width:       cfg.Render.Width,
		Height:      cfg.Render.Height,
		PointRadius: radius,
		Bound:       cfg.InteractionLayer().Bound,
		Colors:      palette,
	}, nil
}

// toPixel maps world coordinates to image pixels, y pointing down
func (r *SceneRenderer) toPixel(p orb.Point) (int, int) {
	w := r.Bound.Max[0] - r.Bound.Min[0]
	h := r.Bound.Max[1] - r.Bound.Min[1]
	x := (p[0] - r.Bound.Min[0]) / w * float64(r.Width)
	y := float64(r.Height) - (p[1]-r.Bound.Min[1])/h*float64(r.Height)
	return int(math.Round(x)), int(math.Round(y))
}

// Render draws the frame onto a new image
func (r *SceneRenderer) Render(frame Frame) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, r.Width, r.Height))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i] = r.Colors.Background.R
		img.Pix[i+1] = r.Colors.Background.G
		img.Pix[i+2] = r.Colors.Background.B
		img.Pix[i+3] = 255
	}

	// Axes through the origin
	ox, oy := r.toPixel(orb.Point{0, 0})
	drawLine(img, 0, oy, r.Width-1, oy, r.Colors.Axis)
	drawLine(img, ox, 0, ox, r.Height-1, r.Colors.Axis)

	for _, p := range frame.Reference {
		x, y := r.toPixel(p)
		drawCircle(img, x, y, r.PointRadius, r.Colors.Reference)
	}
	for _, p := range frame.Movable {
		x, y := r.toPixel(p)
		drawCircle(img, x, y, r.PointRadius, r.Colors.Movable)
	}

	if frame.EditMode == Rotate {
		hx, hy := r.toPixel(frame.Handle)
		drawLine(img, ox, oy, hx, hy, r.Colors.Handle)
		drawCircle(img, hx, hy, r.PointRadius+2, r.Colors.Handle)
	}

	drawText(img, 10, 20, frame.Title, r.Colors.Text)
	return img
}

// SavePNG renders the frame and writes it to a PNG file
func (r *SceneRenderer) SavePNG(path string, frame Frame) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	if err := png.Encode(f, r.Render(frame)); err != nil {
		return fmt.Errorf("encoding PNG: %w", err)
	}
	return nil
}

func drawCircle(img *image.RGBA, cx, cy, radius int, c color.RGBA) {
	for dy := -radius; dy <= radius; dy++ {
		for dx := -radius; dx <= radius; dx++ {
			if dx*dx+dy*dy <= radius*radius {
				x, y := cx+dx, cy+dy
				if x >= 0 && x < img.Bounds().Max.X && y >= 0 && y < img.Bounds().Max.Y {
					img.Set(x, y, c)
				}
			}
		}
	}
}

// drawLine draws a 1px line with Bresenham's algorithm
func drawLine(img *image.RGBA, x0, y0, x1, y1 int, c color.RGBA) {
	dx := absInt(x1 - x0)
	dy := -absInt(y1 - y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	err := dx + dy
	b := img.Bounds()
	for {
		if x0 >= b.Min.X && x0 < b.Max.X && y0 >= b.Min.Y && y0 < b.Max.Y {
			img.Set(x0, y0, c)
		}
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func drawText(img *image.RGBA, x, y int, text string, c color.RGBA) {
	face := basicfont.Face7x13
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(c),
		Face: face,
		Dot:  fixed.Point26_6{X: fixed.I(x), Y: fixed.I(y)},
	}
	d.DrawString(text)
}
