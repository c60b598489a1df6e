package sync

import "CanvasBoard/internal/element"

// Event names on the realtime channel.
const (
	EventJoinCanvas    = "joinCanvas"
	EventDrawingUpdate = "drawingUpdate"
	EventLoadCanvas    = "loadCanvas"
	EventReceiveUpdate = "receiveDrawingUpdate"
	EventUnauthorized  = "unauthorized"
)

// Message is the JSON envelope for every frame on the realtime
// channel, in both directions. Updates carry the full element
// collection, never a delta, so delivery may be at-most-once and
// unordered: last write wins per canvas room.
type Message struct {
	Event    string            `json:"event"`
	CanvasID string            `json:"canvasId,omitempty"`
	Elements []element.Element `json:"elements,omitempty"`
	Message  string            `json:"message,omitempty"`
}
