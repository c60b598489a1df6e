// Package drawing turns pointer gestures into element edits.
package drawing

import (
	"fmt"
	"log"

	"CanvasBoard/internal/element"
	"CanvasBoard/internal/history"
)

// Phase is the current drawing-action phase. Exactly one phase is
// active at a time; transitions are driven only by pointer gestures and
// the selected tool.
type Phase int

const (
	PhaseNone Phase = iota
	PhaseDrawing
	PhaseErasing
	PhaseWriting
)

func (p Phase) String() string {
	switch p {
	case PhaseNone:
		return "NONE"
	case PhaseDrawing:
		return "DRAWING"
	case PhaseErasing:
		return "ERASING"
	case PhaseWriting:
		return "WRITING"
	}
	return fmt.Sprintf("Phase(%d)", int(p))
}

// Tool is the selected drawing tool. Every tool except the eraser maps
// onto an element kind.
type Tool string

const (
	ToolLine      Tool = "line"
	ToolRectangle Tool = "rectangle"
	ToolCircle    Tool = "circle"
	ToolArrow     Tool = "arrow"
	ToolBrush     Tool = "brush"
	ToolEraser    Tool = "eraser"
	ToolText      Tool = "text"
)

func (t Tool) kind() element.Kind {
	return element.Kind(t)
}

// Style is the stroke/fill/size applied to new elements.
type Style struct {
	Stroke string
	Fill   string
	Size   float64
}

// Machine owns the live element collection and the per-gesture history
// pushes. It is not safe for concurrent use; the owner serializes
// pointer events, text commits and remote replacements.
type Machine struct {
	elements []element.Element
	hist     *history.Log
	tool     Tool
	phase    Phase
	style    Style

	// OnChange fires after every mutation of the live collection,
	// including per-move updates. Used to broadcast full state.
	OnChange func(els []element.Element)
}

// NewMachine returns a machine with an empty collection and a history
// log seeded with the empty snapshot.
func NewMachine() *Machine {
	return &Machine{
		hist:  history.New(nil),
		tool:  ToolBrush,
		style: Style{Stroke: "#000000", Size: 2},
	}
}

// Elements returns a deep copy of the live collection.
func (m *Machine) Elements() []element.Element {
	return element.CloneAll(m.elements)
}

// History exposes the log for undo/redo and reseeding.
func (m *Machine) History() *history.Log { return m.hist }

// Phase returns the active drawing phase.
func (m *Machine) Phase() Phase { return m.phase }

// Tool returns the selected tool.
func (m *Machine) Tool() Tool { return m.tool }

// SetTool selects the active tool. Ignored mid-gesture.
func (m *Machine) SetTool(t Tool) {
	if m.phase != PhaseNone {
		return
	}
	m.tool = t
}

// SetStyle updates the style for subsequently created elements.
func (m *Machine) SetStyle(s Style) { m.style = s }

// Reset clears the live collection and reseeds history with els. Used
// when a canvas is loaded or the canvas identity changes.
func (m *Machine) Reset(els []element.Element) {
	m.elements = element.FilterValid(els)
	m.hist.Reset(m.elements)
	m.phase = PhaseNone
	m.notify()
}

// ReplaceLive swaps in a remote-origin collection without touching
// history, so a peer's edits do not pollute the local undo stack.
// Remote updates may land at any moment, including mid-gesture: when a
// DRAWING or WRITING gesture is active its in-progress element is
// carried over on top of the remote set, so the gesture keeps a valid
// last element to extend.
func (m *Machine) ReplaceLive(els []element.Element) {
	next := element.FilterValid(els)
	if m.phase == PhaseDrawing || m.phase == PhaseWriting {
		pending := m.elements[len(m.elements)-1].Clone()
		pending.ID = len(next)
		next = append(next, pending)
	}
	m.elements = next
	m.notify()
}

// Undo moves history back one snapshot and materializes it.
func (m *Machine) Undo() {
	if els, ok := m.hist.Undo(); ok {
		m.elements = els
		m.notify()
	}
}

// Redo moves history forward one snapshot and materializes it.
func (m *Machine) Redo() {
	if els, ok := m.hist.Redo(); ok {
		m.elements = els
		m.notify()
	}
}

// PointerDown starts a gesture. With the eraser it performs one erase
// pass and enters ERASING; with the text tool it appends an uncommitted
// text element and enters WRITING; otherwise it appends a zero-length
// element of the tool's kind and enters DRAWING.
func (m *Machine) PointerDown(x, y float64) {
	if m.phase != PhaseNone {
		// A gesture is already active; most commonly a pending text
		// element still waiting for its commit. Starting another one
		// would strand it in the collection forever.
		return
	}
	switch m.tool {
	case ToolEraser:
		m.eraseAt(x, y)
		m.hist.Push(m.elements)
		m.phase = PhaseErasing
	case ToolText:
		m.appendNew(x, y)
		m.phase = PhaseWriting
	default:
		m.appendNew(x, y)
		m.phase = PhaseDrawing
	}
	m.notify()
}

// PointerMove extends the gesture. While DRAWING it rewrites the last
// element's terminal geometry (or appends a brush sample); while
// ERASING it repeats the erase pass, pushing history whenever the
// element set changes. History is amortized per gesture, not per move
// event, so a single stroke costs one snapshot.
func (m *Machine) PointerMove(x, y float64) {
	switch m.phase {
	case PhaseDrawing:
		m.extendLast(x, y)
		m.notify()
	case PhaseErasing:
		if m.eraseAt(x, y) {
			m.hist.Push(m.elements)
			m.notify()
		}
	}
}

// PointerUp ends the gesture. A finished DRAWING gesture pushes the
// finalized collection; every other phase just returns to NONE.
func (m *Machine) PointerUp() {
	if m.phase == PhaseDrawing {
		m.hist.Push(m.elements)
	}
	if m.phase != PhaseWriting {
		m.phase = PhaseNone
	}
	m.notify()
}

// CommitText writes the entered string into the pending text element
// and finishes the gesture. If the last element is not a text element
// this is a warned no-op; the caller wired the text input wrong.
func (m *Machine) CommitText(text string) {
	if n := len(m.elements); n == 0 || m.elements[n-1].Type != element.KindText {
		log.Printf("[drawing] text commit without a pending text element, ignoring")
		m.phase = PhaseNone
		return
	}
	last := m.elements[len(m.elements)-1].Clone()
	last.Text = text
	// Approximate extent so erasing by bounding box works before any
	// renderer has measured the string.
	last.X2 = last.X1 + float64(len(text))*last.Size*0.6
	last.Y2 = last.Y1 + last.Size*1.4
	m.elements[len(m.elements)-1] = last
	m.hist.Push(m.elements)
	m.phase = PhaseNone
	m.notify()
}

func (m *Machine) appendNew(x, y float64) {
	e := element.New(len(m.elements), x, y, x, y, element.Options{
		Type:   m.tool.kind(),
		Stroke: m.style.Stroke,
		Fill:   m.style.Fill,
		Size:   m.style.Size,
	})
	m.elements = append(m.elements, e)
}

// extendLast rewrites the in-progress element, which is always the last
// entry while a gesture is active. Seeing any other kind there means
// the state machine itself is broken, so fail loudly.
func (m *Machine) extendLast(x, y float64) {
	last := m.elements[len(m.elements)-1].Clone()
	switch last.Type {
	case element.KindBrush:
		last.Points = append(last.Points, element.Point{X: x, Y: y})
	case element.KindLine, element.KindRectangle, element.KindCircle, element.KindArrow:
		last.X2 = x
		last.Y2 = y
	default:
		panic(fmt.Sprintf("drawing: move while DRAWING on element type %q", last.Type))
	}
	m.elements[len(m.elements)-1] = last
}

// eraseAt filters out every element near the pointer and reports
// whether anything was removed.
func (m *Machine) eraseAt(x, y float64) bool {
	kept := m.elements[:0:0]
	for _, e := range m.elements {
		if !element.IsPointNear(e, x, y) {
			kept = append(kept, e)
		}
	}
	changed := len(kept) != len(m.elements)
	m.elements = kept
	return changed
}

func (m *Machine) notify() {
	if m.OnChange != nil {
		m.OnChange(m.Elements())
	}
}
