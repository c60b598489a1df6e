// Package export writes a canvas out as a PDF document.
package export

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/jung-kurt/gofpdf"

	"CanvasBoard/internal/element"
)

// pdfScale maps canvas pixels to millimetres on an A4 page.
const pdfScale = 0.25

// PDF renders the element collection into an A4 PDF at path. Elements
// without a recognized type are skipped.
func PDF(path string, els []element.Element) error {
	p := gofpdf.New("L", "mm", "A4", "")
	p.AddPage()
	p.SetFont("Helvetica", "", 12)

	for _, e := range els {
		if !e.Valid() {
			continue
		}
		r, g, b := hexToRGB(e.Stroke)
		p.SetDrawColor(r, g, b)
		p.SetLineWidth(math.Max(e.Size*pdfScale, 0.2))
		switch e.Type {
		case element.KindLine:
			p.Line(e.X1*pdfScale, e.Y1*pdfScale, e.X2*pdfScale, e.Y2*pdfScale)
		case element.KindArrow:
			p.Line(e.X1*pdfScale, e.Y1*pdfScale, e.X2*pdfScale, e.Y2*pdfScale)
			drawArrowHead(p, e)
		case element.KindRectangle:
			x := math.Min(e.X1, e.X2) * pdfScale
			y := math.Min(e.Y1, e.Y2) * pdfScale
			p.Rect(x, y, math.Abs(e.X2-e.X1)*pdfScale, math.Abs(e.Y2-e.Y1)*pdfScale, "D")
		case element.KindCircle:
			cx := (e.X1 + e.X2) / 2 * pdfScale
			cy := (e.Y1 + e.Y2) / 2 * pdfScale
			p.Ellipse(cx, cy, math.Abs(e.X2-e.X1)/2*pdfScale, math.Abs(e.Y2-e.Y1)/2*pdfScale, 0, "D")
		case element.KindBrush:
			for i := 1; i < len(e.Points); i++ {
				p.Line(
					e.Points[i-1].X*pdfScale, e.Points[i-1].Y*pdfScale,
					e.Points[i].X*pdfScale, e.Points[i].Y*pdfScale,
				)
			}
		case element.KindText:
			p.SetTextColor(r, g, b)
			p.SetFontSize(math.Max(e.Size*pdfScale*2.8, 6))
			p.Text(e.X1*pdfScale, e.Y1*pdfScale+e.Size*pdfScale, e.Text)
		}
	}
	if err := p.OutputFileAndClose(path); err != nil {
		return fmt.Errorf("write pdf %s: %w", path, err)
	}
	return nil
}

func drawArrowHead(p *gofpdf.Fpdf, e element.Element) {
	angle := math.Atan2(e.Y2-e.Y1, e.X2-e.X1)
	length := (12 + e.Size) * pdfScale
	for _, spread := range []float64{math.Pi / 6, -math.Pi / 6} {
		a := angle + math.Pi - spread
		p.Line(
			e.X2*pdfScale, e.Y2*pdfScale,
			e.X2*pdfScale+length*math.Cos(a), e.Y2*pdfScale+length*math.Sin(a),
		)
	}
}

// hexToRGB parses "#rrggbb" (or "#rgb"); anything else is black.
func hexToRGB(s string) (int, int, int) {
	s = strings.TrimPrefix(s, "#")
	if len(s) == 3 {
		s = string([]byte{s[0], s[0], s[1], s[1], s[2], s[2]})
	}
	if len(s) != 6 {
		return 0, 0, 0
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return 0, 0, 0
	}
	return int(v >> 16 & 0xff), int(v >> 8 & 0xff), int(v & 0xff)
}
