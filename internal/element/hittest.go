package element

import "math"

// nearTolerance is the hit-test band in canvas units around lines,
// edges and stroke polylines when erasing.
const nearTolerance = 5.0

// IsPointNear reports whether (px, py) is close enough to the element
// for an erase hit. The test is type specific: a tolerance band around
// the segment for line and arrow, around each edge for rectangle, the
// ellipse boundary for circle, the polyline for brush strokes, and
// bounding-box containment for text. Unrecognized elements never match.
func IsPointNear(e Element, px, py float64) bool {
	switch e.Type {
	case KindLine, KindArrow:
		return segmentDistance(px, py, e.X1, e.Y1, e.X2, e.Y2) <= nearTolerance
	case KindRectangle:
		return nearRectangleEdge(e, px, py)
	case KindCircle:
		return nearEllipseBoundary(e, px, py)
	case KindBrush:
		return nearPolyline(e.Points, px, py)
	case KindText:
		return insideBox(e, px, py)
	}
	return false
}

// segmentDistance is the distance from point p to the closed segment ab.
func segmentDistance(px, py, ax, ay, bx, by float64) float64 {
	dx, dy := bx-ax, by-ay
	lenSq := dx*dx + dy*dy
	if lenSq == 0 {
		return math.Hypot(px-ax, py-ay)
	}
	t := ((px-ax)*dx + (py-ay)*dy) / lenSq
	t = math.Max(0, math.Min(1, t))
	cx, cy := ax+t*dx, ay+t*dy
	return math.Hypot(px-cx, py-cy)
}

func nearRectangleEdge(e Element, px, py float64) bool {
	return segmentDistance(px, py, e.X1, e.Y1, e.X2, e.Y1) <= nearTolerance ||
		segmentDistance(px, py, e.X2, e.Y1, e.X2, e.Y2) <= nearTolerance ||
		segmentDistance(px, py, e.X2, e.Y2, e.X1, e.Y2) <= nearTolerance ||
		segmentDistance(px, py, e.X1, e.Y2, e.X1, e.Y1) <= nearTolerance
}

// nearEllipseBoundary tests against the ellipse inscribed in the
// element's bounding box. The point's normalized radius is compared to
// 1 with the tolerance scaled by the smaller semi-axis, so thin
// ellipses keep a usable hit band.
func nearEllipseBoundary(e Element, px, py float64) bool {
	cx, cy := (e.X1+e.X2)/2, (e.Y1+e.Y2)/2
	rx, ry := math.Abs(e.X2-e.X1)/2, math.Abs(e.Y2-e.Y1)/2
	if rx == 0 && ry == 0 {
		return math.Hypot(px-cx, py-cy) <= nearTolerance
	}
	minAxis := math.Min(math.Max(rx, 1), math.Max(ry, 1))
	nx := (px - cx) / math.Max(rx, 1)
	ny := (py - cy) / math.Max(ry, 1)
	r := math.Hypot(nx, ny)
	return math.Abs(r-1) <= nearTolerance/minAxis
}

func nearPolyline(points []Point, px, py float64) bool {
	if len(points) == 0 {
		return false
	}
	if len(points) == 1 {
		return math.Hypot(px-points[0].X, py-points[0].Y) <= nearTolerance
	}
	for i := 0; i < len(points)-1; i++ {
		if segmentDistance(px, py, points[i].X, points[i].Y, points[i+1].X, points[i+1].Y) <= nearTolerance {
			return true
		}
	}
	return false
}

func insideBox(e Element, px, py float64) bool {
	minX, maxX := math.Min(e.X1, e.X2), math.Max(e.X1, e.X2)
	minY, maxY := math.Min(e.Y1, e.Y2), math.Max(e.Y1, e.Y2)
	return px >= minX && px <= maxX && py >= minY && py <= maxY
}
