package ui

import (
	"context"
	"image/color"
	"math"
	"strconv"
	"strings"
	stdsync "sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"

	"CanvasBoard/internal/board"
	"CanvasBoard/internal/drawing"
	"CanvasBoard/internal/element"
)

// BoardWidget is the interactive canvas surface. It forwards pointer
// gestures to the controller and redraws from the element snapshots
// the controller pushes back.
type BoardWidget struct {
	widget.BaseWidget
	ctrl *board.Controller

	mu       stdsync.RWMutex
	elements []element.Element
	dragging bool

	// OnTextAt asks the window layer to open a text entry at the
	// given canvas position when the text tool starts a gesture.
	OnTextAt func(x, y float64)
}

var _ fyne.Widget = (*BoardWidget)(nil)
var _ fyne.Draggable = (*BoardWidget)(nil)
var _ desktop.Mouseable = (*BoardWidget)(nil)

// NewBoardWidget wires the widget to its controller. The controller's
// element change notifications drive redraws.
func NewBoardWidget(ctrl *board.Controller) *BoardWidget {
	b := &BoardWidget{ctrl: ctrl}
	b.ExtendBaseWidget(b)
	ctrl.OnElementsChanged = func(els []element.Element) {
		b.mu.Lock()
		b.elements = els
		b.mu.Unlock()
		fyne.Do(func() { b.Refresh() })
	}
	return b
}

func (b *BoardWidget) MouseDown(e *desktop.MouseEvent) {
	if e.Button != desktop.MouseButtonPrimary {
		return
	}
	b.dragging = true
	x, y := float64(e.Position.X), float64(e.Position.Y)
	b.ctrl.PointerDown(x, y)
	if b.ctrl.Phase() == drawing.PhaseWriting && b.OnTextAt != nil {
		b.OnTextAt(x, y)
	}
}

func (b *BoardWidget) MouseUp(e *desktop.MouseEvent) {
	if e.Button != desktop.MouseButtonPrimary || !b.dragging {
		return
	}
	b.dragging = false
	b.ctrl.PointerUp(context.Background())
}

func (b *BoardWidget) Dragged(e *fyne.DragEvent) {
	if b.dragging {
		b.ctrl.PointerMove(float64(e.Position.X), float64(e.Position.Y))
	}
}

func (b *BoardWidget) DragEnd()                       {}
func (b *BoardWidget) MouseIn(*desktop.MouseEvent)    {}
func (b *BoardWidget) MouseOut()                      {}
func (b *BoardWidget) MouseMoved(*desktop.MouseEvent) {}

func (b *BoardWidget) CreateRenderer() fyne.WidgetRenderer {
	r := &boardRenderer{board: b}
	r.background = canvas.NewRectangle(color.White)
	return r
}

type boardRenderer struct {
	board      *BoardWidget
	background *canvas.Rectangle
}

// Objects rebuilds the draw list from raw element geometry on every
// refresh; nothing is cached between frames, so undo/redo needs no
// invalidation step.
func (r *boardRenderer) Objects() []fyne.CanvasObject {
	r.board.mu.RLock()
	els := r.board.elements
	r.board.mu.RUnlock()

	objects := []fyne.CanvasObject{r.background}
	for _, e := range els {
		switch e.Type {
		case element.KindLine:
			objects = append(objects, strokeLine(e, e.X1, e.Y1, e.X2, e.Y2))
		case element.KindArrow:
			objects = append(objects, strokeLine(e, e.X1, e.Y1, e.X2, e.Y2))
			objects = append(objects, arrowHead(e)...)
		case element.KindRectangle:
			rect := canvas.NewRectangle(color.Transparent)
			rect.StrokeColor = hexToColor(e.Stroke)
			rect.StrokeWidth = float32(e.Size)
			if e.Fill != "" {
				rect.FillColor = hexToColor(e.Fill)
			}
			rect.Move(fyne.NewPos(float32(math.Min(e.X1, e.X2)), float32(math.Min(e.Y1, e.Y2))))
			rect.Resize(fyne.NewSize(float32(math.Abs(e.X2-e.X1)), float32(math.Abs(e.Y2-e.Y1))))
			objects = append(objects, rect)
		case element.KindCircle:
			circ := canvas.NewCircle(color.Transparent)
			circ.StrokeColor = hexToColor(e.Stroke)
			circ.StrokeWidth = float32(e.Size)
			if e.Fill != "" {
				circ.FillColor = hexToColor(e.Fill)
			}
			circ.Move(fyne.NewPos(float32(math.Min(e.X1, e.X2)), float32(math.Min(e.Y1, e.Y2))))
			circ.Resize(fyne.NewSize(float32(math.Abs(e.X2-e.X1)), float32(math.Abs(e.Y2-e.Y1))))
			objects = append(objects, circ)
		case element.KindBrush:
			for i := 1; i < len(e.Points); i++ {
				objects = append(objects, strokeLine(e,
					e.Points[i-1].X, e.Points[i-1].Y, e.Points[i].X, e.Points[i].Y))
			}
		case element.KindText:
			txt := canvas.NewText(e.Text, hexToColor(e.Stroke))
			txt.TextSize = float32(math.Max(e.Size*4, 12))
			txt.Move(fyne.NewPos(float32(e.X1), float32(e.Y1)))
			objects = append(objects, txt)
		}
	}
	return objects
}

func (r *boardRenderer) Refresh()              { canvas.Refresh(r.board) }
func (r *boardRenderer) Destroy()              {}
func (r *boardRenderer) Layout(size fyne.Size) { r.background.Resize(size) }
func (r *boardRenderer) MinSize() fyne.Size    { return fyne.NewSize(600, 400) }

func strokeLine(e element.Element, x1, y1, x2, y2 float64) *canvas.Line {
	seg := canvas.NewLine(hexToColor(e.Stroke))
	seg.StrokeWidth = float32(math.Max(e.Size, 1))
	seg.Position1 = fyne.NewPos(float32(x1), float32(y1))
	seg.Position2 = fyne.NewPos(float32(x2), float32(y2))
	return seg
}

func arrowHead(e element.Element) []fyne.CanvasObject {
	angle := math.Atan2(e.Y2-e.Y1, e.X2-e.X1)
	length := 12 + e.Size
	var objs []fyne.CanvasObject
	for _, spread := range []float64{math.Pi / 6, -math.Pi / 6} {
		a := angle + math.Pi - spread
		objs = append(objs, strokeLine(e, e.X2, e.Y2,
			e.X2+length*math.Cos(a), e.Y2+length*math.Sin(a)))
	}
	return objs
}

// hexToColor parses "#rrggbb"; anything unparsable renders black.
func hexToColor(s string) color.Color {
	s = strings.TrimPrefix(s, "#")
	if len(s) == 3 {
		s = string([]byte{s[0], s[0], s[1], s[1], s[2], s[2]})
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil || len(s) != 6 {
		return color.Black
	}
	return color.NRGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 255}
}
