package render

import (
	"image"
	"io"
	"math"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"

	"CanvasBoard/internal/element"
)

// arrowHeadLen is the length of the two head segments, scaled with the
// stroke width for thick arrows.
const arrowHeadLen = 12.0

// Raster renders elements into an in-memory RGBA image via fogleman/gg.
// Used for PNG export of a canvas.
type Raster struct {
	dc   *gg.Context
	font *truetype.Font
}

// NewRaster returns a white canvas of the given pixel size.
func NewRaster(width, height int) (*Raster, error) {
	f, err := truetype.Parse(goregular.TTF)
	if err != nil {
		return nil, err
	}
	dc := gg.NewContext(width, height)
	dc.SetRGB(1, 1, 1)
	dc.Clear()
	return &Raster{dc: dc, font: f}, nil
}

// DrawShape implements Renderer for line, rectangle, circle and arrow.
func (r *Raster) DrawShape(e element.Element) {
	r.applyStyle(e)
	switch e.Type {
	case element.KindLine:
		r.dc.DrawLine(e.X1, e.Y1, e.X2, e.Y2)
		r.dc.Stroke()
	case element.KindArrow:
		r.dc.DrawLine(e.X1, e.Y1, e.X2, e.Y2)
		r.dc.Stroke()
		r.drawArrowHead(e)
	case element.KindRectangle:
		// Coordinates may be unnormalized; gg wants origin + size.
		x := math.Min(e.X1, e.X2)
		y := math.Min(e.Y1, e.Y2)
		r.dc.DrawRectangle(x, y, math.Abs(e.X2-e.X1), math.Abs(e.Y2-e.Y1))
		r.fillAndStroke(e)
	case element.KindCircle:
		cx, cy := (e.X1+e.X2)/2, (e.Y1+e.Y2)/2
		r.dc.DrawEllipse(cx, cy, math.Abs(e.X2-e.X1)/2, math.Abs(e.Y2-e.Y1)/2)
		r.fillAndStroke(e)
	}
}

// DrawStroke implements Renderer for freehand brush polylines.
func (r *Raster) DrawStroke(e element.Element) {
	if len(e.Points) == 0 {
		return
	}
	r.applyStyle(e)
	if len(e.Points) == 1 {
		r.dc.DrawPoint(e.Points[0].X, e.Points[0].Y, math.Max(e.Size/2, 1))
		r.dc.Fill()
		return
	}
	r.dc.MoveTo(e.Points[0].X, e.Points[0].Y)
	for _, p := range e.Points[1:] {
		r.dc.LineTo(p.X, p.Y)
	}
	r.dc.Stroke()
}

// DrawText implements Renderer for text elements.
func (r *Raster) DrawText(e element.Element) {
	size := e.Size
	if size <= 0 {
		size = 16
	}
	face := truetype.NewFace(r.font, &truetype.Options{
		Size:    size,
		Hinting: font.HintingFull,
	})
	r.dc.SetFontFace(face)
	r.dc.SetHexColor(strokeOrDefault(e))
	r.dc.DrawString(e.Text, e.X1, e.Y1+size)
}

// Image returns the rendered canvas.
func (r *Raster) Image() image.Image { return r.dc.Image() }

// EncodePNG writes the rendered canvas as PNG.
func (r *Raster) EncodePNG(w io.Writer) error { return r.dc.EncodePNG(w) }

func (r *Raster) applyStyle(e element.Element) {
	r.dc.SetHexColor(strokeOrDefault(e))
	width := e.Size
	if width <= 0 {
		width = 1
	}
	r.dc.SetLineWidth(width)
}

func (r *Raster) fillAndStroke(e element.Element) {
	if e.Fill != "" {
		r.dc.SetHexColor(e.Fill)
		r.dc.FillPreserve()
		r.dc.SetHexColor(strokeOrDefault(e))
	}
	r.dc.Stroke()
}

func (r *Raster) drawArrowHead(e element.Element) {
	angle := math.Atan2(e.Y2-e.Y1, e.X2-e.X1)
	length := arrowHeadLen + e.Size
	for _, spread := range []float64{math.Pi / 6, -math.Pi / 6} {
		a := angle + math.Pi - spread
		r.dc.DrawLine(e.X2, e.Y2, e.X2+length*math.Cos(a), e.Y2+length*math.Sin(a))
		r.dc.Stroke()
	}
}

func strokeOrDefault(e element.Element) string {
	if e.Stroke == "" {
		return "#000000"
	}
	return e.Stroke
}
