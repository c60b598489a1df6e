// Package board orchestrates the canvas surface: it feeds pointer
// gestures to the drawing machine, reconciles remote-origin updates
// with local state, and drives the REST and realtime collaborators.
package board

import (
	"context"
	"log"
	stdsync "sync"
	"time"

	"CanvasBoard/internal/api"
	"CanvasBoard/internal/drawing"
	"CanvasBoard/internal/element"
	"CanvasBoard/internal/sync"
)

const defaultNoticeTTL = 4 * time.Second

// Store is the slice of the REST client the controller needs.
type Store interface {
	Load(ctx context.Context, canvasID string) ([]element.Element, error)
	Update(ctx context.Context, canvasID string, els []element.Element)
	Create(ctx context.Context) (string, error)
	Delete(ctx context.Context, canvasID string) error
	Share(ctx context.Context, canvasID, email string) error
}

// Realtime is the slice of the sync channel the controller needs.
type Realtime interface {
	JoinRoom(canvasID string, h sync.RoomHandlers) error
	LeaveRoom(canvasID string)
	BroadcastUpdate(canvasID string, els []element.Element)
}

var _ Store = (*api.Client)(nil)
var _ Realtime = (*sync.Channel)(nil)

// Controller owns one canvas session at a time. All machine access is
// serialized through its mutex, whether it originates from the UI
// thread (pointer events) or the channel read loop (remote updates).
type Controller struct {
	api     Store
	channel Realtime
	machine *drawing.Machine

	// NoticeTTL is how long a transient banner stays up.
	NoticeTTL time.Duration

	// OnElementsChanged fires after every change to the live
	// collection with a deep copy of it. The UI redraws from this.
	OnElementsChanged func(els []element.Element)
	// OnNotice shows (or, with "", clears) a transient banner.
	OnNotice func(text string)
	// OnDenied shows the blocking authorization-denied alert.
	OnDenied func(text string)

	mu       stdsync.Mutex
	canvasID string
	// gen stamps each canvas session; async completions check it
	// before applying results so a late load for a previous canvas is
	// discarded instead of clobbering the new one.
	gen uint64

	// Side-reference to the last known (canvas, elements) pair. Kept
	// in step on every collection change so the final broadcast on a
	// canvas switch can still see pre-switch state.
	lastCanvasID string
	lastElements []element.Element

	noticeMu    stdsync.Mutex
	noticeTimer *time.Timer
}

// NewController wires a controller around its collaborators.
func NewController(client Store, channel Realtime, machine *drawing.Machine) *Controller {
	c := &Controller{
		api:       client,
		channel:   channel,
		machine:   machine,
		NoticeTTL: defaultNoticeTTL,
	}
	machine.OnChange = c.elementsChanged
	return c
}

// elementsChanged runs with c.mu held (every machine mutation happens
// inside a locked controller method).
func (c *Controller) elementsChanged(els []element.Element) {
	c.lastCanvasID = c.canvasID
	c.lastElements = els
	if c.OnElementsChanged != nil {
		c.OnElementsChanged(els)
	}
}

// CanvasID returns the identity of the active canvas session.
func (c *Controller) CanvasID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.canvasID
}

// Elements returns a deep copy of the live collection.
func (c *Controller) Elements() []element.Element {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.machine.Elements()
}

// SetCanvas switches the session to a new canvas identity. The
// previous canvas's last known elements are broadcast one final time
// under the OLD identity, live state is cleared synchronously so no
// frame shows stale content, the persisted elements are fetched and
// seeded into history, and the new sync room is joined.
func (c *Controller) SetCanvas(ctx context.Context, canvasID string) {
	c.mu.Lock()
	prevID := c.lastCanvasID
	prevEls := c.lastElements
	c.gen++
	gen := c.gen
	c.canvasID = canvasID
	c.machine.Reset(nil)
	c.mu.Unlock()

	if prevID != "" && prevID != canvasID && len(prevEls) > 0 {
		c.channel.BroadcastUpdate(prevID, prevEls)
	}
	if prevID != "" && prevID != canvasID {
		c.channel.LeaveRoom(prevID)
	}

	go c.loadAndSeed(ctx, canvasID, gen)

	err := c.channel.JoinRoom(canvasID, sync.RoomHandlers{
		OnLoad:   func(els []element.Element) { c.applyRemote(gen, els, true) },
		OnUpdate: func(els []element.Element) { c.applyRemote(gen, els, false) },
		OnDenied: func(message string) { c.denied(gen, message) },
	})
	if err != nil {
		log.Printf("[board] join %s: %v", canvasID, err)
		c.notice("Realtime sync unavailable")
	}
}

func (c *Controller) loadAndSeed(ctx context.Context, canvasID string, gen uint64) {
	els, err := c.api.Load(ctx, canvasID)
	if err != nil {
		log.Printf("[board] load %s: %v", canvasID, err)
		c.notice("Could not load canvas")
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen {
		// The user already navigated away; this result is stale.
		return
	}
	c.machine.Reset(els)
}

// applyRemote reconciles an inbound collection. A load resets history
// to a single snapshot of it; a peer update only replaces live
// elements, keeping the local undo stack free of remote edits.
func (c *Controller) applyRemote(gen uint64, els []element.Element, isLoad bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen {
		return
	}
	if isLoad {
		c.machine.Reset(els)
	} else {
		c.machine.ReplaceLive(els)
	}
}

func (c *Controller) denied(gen uint64, message string) {
	c.mu.Lock()
	stale := gen != c.gen
	c.mu.Unlock()
	if stale {
		return
	}
	if message == "" {
		message = "You are not authorized to edit this canvas"
	}
	log.Printf("[board] canvas access denied: %s", message)
	if c.OnDenied != nil {
		c.OnDenied(message)
	}
}

// PointerDown forwards a gesture start.
func (c *Controller) PointerDown(x, y float64) {
	c.mu.Lock()
	c.machine.PointerDown(x, y)
	c.mu.Unlock()
}

// PointerMove forwards a gesture move and broadcasts the live state.
func (c *Controller) PointerMove(x, y float64) {
	c.mu.Lock()
	c.machine.PointerMove(x, y)
	id, els := c.canvasID, c.machine.Elements()
	c.mu.Unlock()
	c.broadcast(id, els)
}

// PointerUp finishes the gesture, broadcasts and persists.
func (c *Controller) PointerUp(ctx context.Context) {
	c.mu.Lock()
	c.machine.PointerUp()
	id, els := c.canvasID, c.machine.Elements()
	c.mu.Unlock()
	c.broadcast(id, els)
	c.persist(ctx, id, els)
}

// CommitText finishes a text gesture, broadcasts and persists.
func (c *Controller) CommitText(ctx context.Context, text string) {
	c.mu.Lock()
	c.machine.CommitText(text)
	id, els := c.canvasID, c.machine.Elements()
	c.mu.Unlock()
	c.broadcast(id, els)
	c.persist(ctx, id, els)
}

// Undo steps history back, then broadcasts and persists the result so
// peers converge on what the user now sees.
func (c *Controller) Undo(ctx context.Context) {
	c.mu.Lock()
	c.machine.Undo()
	id, els := c.canvasID, c.machine.Elements()
	c.mu.Unlock()
	c.broadcast(id, els)
	c.persist(ctx, id, els)
}

// Redo steps history forward, then broadcasts and persists.
func (c *Controller) Redo(ctx context.Context) {
	c.mu.Lock()
	c.machine.Redo()
	id, els := c.canvasID, c.machine.Elements()
	c.mu.Unlock()
	c.broadcast(id, els)
	c.persist(ctx, id, els)
}

// SetTool selects the drawing tool.
func (c *Controller) SetTool(t drawing.Tool) {
	c.mu.Lock()
	c.machine.SetTool(t)
	c.mu.Unlock()
}

// SetStyle updates stroke, fill and size for new elements.
func (c *Controller) SetStyle(s drawing.Style) {
	c.mu.Lock()
	c.machine.SetStyle(s)
	c.mu.Unlock()
}

// Phase returns the machine's current gesture phase.
func (c *Controller) Phase() drawing.Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.machine.Phase()
}

// CreateCanvas makes a new canvas and switches to it.
func (c *Controller) CreateCanvas(ctx context.Context) {
	id, err := c.api.Create(ctx)
	if err != nil {
		log.Printf("[board] create canvas: %v", err)
		c.notice("Could not create canvas")
		return
	}
	c.notice("Canvas created")
	c.SetCanvas(ctx, id)
}

// DeleteCanvas removes the active canvas.
func (c *Controller) DeleteCanvas(ctx context.Context) {
	id := c.CanvasID()
	if id == "" {
		return
	}
	if err := c.api.Delete(ctx, id); err != nil {
		log.Printf("[board] delete canvas %s: %v", id, err)
		c.notice("Could not delete canvas")
		return
	}
	c.notice("Canvas deleted")
}

// ShareCanvas grants another user access to the active canvas.
func (c *Controller) ShareCanvas(ctx context.Context, email string) {
	id := c.CanvasID()
	if id == "" {
		return
	}
	if err := c.api.Share(ctx, id, email); err != nil {
		log.Printf("[board] share canvas %s: %v", id, err)
		c.notice("Could not share canvas")
		return
	}
	c.notice("Canvas shared with " + email)
}

func (c *Controller) broadcast(canvasID string, els []element.Element) {
	if canvasID == "" {
		return
	}
	c.channel.BroadcastUpdate(canvasID, els)
}

func (c *Controller) persist(ctx context.Context, canvasID string, els []element.Element) {
	if canvasID == "" {
		return
	}
	go c.api.Update(ctx, canvasID, els)
}

// notice raises a transient banner that clears itself after NoticeTTL.
func (c *Controller) notice(text string) {
	if c.OnNotice == nil {
		return
	}
	c.OnNotice(text)
	c.noticeMu.Lock()
	defer c.noticeMu.Unlock()
	if c.noticeTimer != nil {
		c.noticeTimer.Stop()
	}
	c.noticeTimer = time.AfterFunc(c.NoticeTTL, func() { c.OnNotice("") })
}
