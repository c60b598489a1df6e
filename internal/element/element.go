package element

// Kind is the closed set of drawing primitive types.
type Kind string

const (
	KindLine      Kind = "line"
	KindRectangle Kind = "rectangle"
	KindCircle    Kind = "circle"
	KindArrow     Kind = "arrow"
	KindBrush     Kind = "brush"
	KindText      Kind = "text"
)

// recognized reports whether k is one of the known element kinds.
// Anything else (including the zero value left by a null or junk wire
// entry) is treated as corrupt and filtered before storage, rendering
// or transmission.
func (k Kind) recognized() bool {
	switch k {
	case KindLine, KindRectangle, KindCircle, KindArrow, KindBrush, KindText:
		return true
	}
	return false
}

// Point is one sample of a freehand stroke.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Element is one drawing primitive on a canvas. Identity is the
// positional index in the collection, not a stable UUID. Elements are
// value-like: mutation happens on copies, never in place on anything
// shared with a history snapshot.
type Element struct {
	ID     int     `json:"id"`
	Type   Kind    `json:"type"`
	X1     float64 `json:"x1"`
	Y1     float64 `json:"y1"`
	X2     float64 `json:"x2"`
	Y2     float64 `json:"y2"`
	Points []Point `json:"points,omitempty"`
	Text   string  `json:"text,omitempty"`
	Stroke string  `json:"stroke"`
	Fill   string  `json:"fill,omitempty"`
	Size   float64 `json:"size"`
}

// Options carries the style of a new element.
type Options struct {
	Type   Kind
	Stroke string
	Fill   string
	Size   float64
}

// New constructs an element at the given bounding coordinates.
// Coordinates are stored as given, not normalized: x1 > x2 and
// y1 > y2 are legal and must render correctly. A brush element starts
// with a single sample at the anchor point.
func New(id int, x1, y1, x2, y2 float64, opts Options) Element {
	e := Element{
		ID:     id,
		Type:   opts.Type,
		X1:     x1,
		Y1:     y1,
		X2:     x2,
		Y2:     y2,
		Stroke: opts.Stroke,
		Fill:   opts.Fill,
		Size:   opts.Size,
	}
	if opts.Type == KindBrush {
		e.Points = []Point{{X: x1, Y: y1}}
	}
	return e
}

// Valid reports whether the element carries a recognized type.
func (e Element) Valid() bool {
	return e.Type.recognized()
}

// Clone returns a deep copy of the element. The point sequence is the
// only nested mutable structure.
func (e Element) Clone() Element {
	c := e
	if e.Points != nil {
		c.Points = make([]Point, len(e.Points))
		copy(c.Points, e.Points)
	}
	return c
}

// CloneAll deep-copies a whole collection.
func CloneAll(els []Element) []Element {
	out := make([]Element, len(els))
	for i, e := range els {
		out[i] = e.Clone()
	}
	return out
}

// FilterValid drops every element without a recognized type and
// deep-copies the survivors. It never returns nil.
func FilterValid(els []Element) []Element {
	out := make([]Element, 0, len(els))
	for _, e := range els {
		if e.Valid() {
			out = append(out, e.Clone())
		}
	}
	return out
}
