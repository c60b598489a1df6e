package render

import (
	"bytes"
	"image/color"
	"testing"

	"CanvasBoard/internal/element"
)

type recordingRenderer struct {
	shapes, strokes, texts int
}

func (r *recordingRenderer) DrawShape(element.Element)  { r.shapes++ }
func (r *recordingRenderer) DrawStroke(element.Element) { r.strokes++ }
func (r *recordingRenderer) DrawText(element.Element)   { r.texts++ }

func TestDrawDispatchesByType(t *testing.T) {
	rec := &recordingRenderer{}
	Draw(rec, []element.Element{
		{Type: element.KindLine},
		{Type: element.KindRectangle},
		{Type: element.KindCircle},
		{Type: element.KindArrow},
		{Type: element.KindBrush, Points: []element.Point{{X: 1, Y: 1}}},
		{Type: element.KindText, Text: "hi"},
		{Type: "junk"},
		{},
	})
	if rec.shapes != 4 {
		t.Errorf("shapes = %d, want 4", rec.shapes)
	}
	if rec.strokes != 1 {
		t.Errorf("strokes = %d, want 1", rec.strokes)
	}
	if rec.texts != 1 {
		t.Errorf("texts = %d, want 1", rec.texts)
	}
}

func TestRasterRendersAllKinds(t *testing.T) {
	r, err := NewRaster(200, 200)
	if err != nil {
		t.Fatalf("NewRaster: %v", err)
	}
	Draw(r, []element.Element{
		{Type: element.KindLine, X1: 10, Y1: 10, X2: 190, Y2: 10, Stroke: "#e03131", Size: 3},
		{Type: element.KindArrow, X1: 10, Y1: 30, X2: 190, Y2: 60, Stroke: "#000000", Size: 2},
		{Type: element.KindRectangle, X1: 150, Y1: 150, X2: 20, Y2: 80, Stroke: "#1971c2", Fill: "#f08c00", Size: 2},
		{Type: element.KindCircle, X1: 40, Y1: 100, X2: 120, Y2: 180, Stroke: "#2f9e44", Size: 2},
		{Type: element.KindBrush, Points: []element.Point{{X: 10, Y: 190}, {X: 50, Y: 170}, {X: 90, Y: 195}}, Stroke: "#000000", Size: 4},
		{Type: element.KindText, X1: 20, Y1: 60, Text: "hello", Stroke: "#000000", Size: 12},
	})

	var buf bytes.Buffer
	if err := r.EncodePNG(&buf); err != nil {
		t.Fatalf("EncodePNG: %v", err)
	}
	if buf.Len() == 0 {
		t.Fatal("empty PNG output")
	}

	// The line runs along y=10 in red; something there must not be
	// white anymore.
	img := r.Image()
	c := color.NRGBAModel.Convert(img.At(100, 10)).(color.NRGBA)
	if c.R == 255 && c.G == 255 && c.B == 255 {
		t.Errorf("pixel on the line is still white: %+v", c)
	}
}

func TestRasterSinglePointStroke(t *testing.T) {
	r, err := NewRaster(50, 50)
	if err != nil {
		t.Fatalf("NewRaster: %v", err)
	}
	// A click without a drag leaves a one-sample stroke; it still
	// renders as a dot instead of vanishing.
	r.DrawStroke(element.Element{Type: element.KindBrush, Points: []element.Point{{X: 25, Y: 25}}, Stroke: "#000000", Size: 6})
	img := r.Image()
	c := color.NRGBAModel.Convert(img.At(25, 25)).(color.NRGBA)
	if c.R == 255 && c.G == 255 && c.B == 255 {
		t.Errorf("single-point stroke left no mark: %+v", c)
	}
}
