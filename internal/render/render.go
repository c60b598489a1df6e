// Package render defines the capability the drawing core needs from a
// rendering backend, plus a raster implementation used for image
// export. Renderables are always recomputed from raw element geometry,
// so nothing breaks when cached draw objects vanish across undo/redo.
package render

import "CanvasBoard/internal/element"

// Renderer draws one validated element at a time.
type Renderer interface {
	// DrawShape renders a line, rectangle, circle or arrow from its
	// bounding coordinates.
	DrawShape(e element.Element)
	// DrawStroke renders a freehand brush polyline.
	DrawStroke(e element.Element)
	// DrawText renders a text element at its anchor point.
	DrawText(e element.Element)
}

// Draw walks a collection in z-order (append order) and dispatches each
// element to the renderer. Elements without a recognized type are
// skipped rather than trusted to the backend.
func Draw(r Renderer, els []element.Element) {
	for _, e := range els {
		switch e.Type {
		case element.KindBrush:
			r.DrawStroke(e)
		case element.KindText:
			r.DrawText(e)
		case element.KindLine, element.KindRectangle, element.KindCircle, element.KindArrow:
			r.DrawShape(e)
		}
	}
}
