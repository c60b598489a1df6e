// Package sync maintains the single realtime connection to the board
// server and the room membership for the active canvas.
package sync

import (
	"log"
	"net/http"
	stdsync "sync"
	"time"

	"github.com/gorilla/websocket"

	"CanvasBoard/internal/element"
	"CanvasBoard/internal/session"
)

const (
	// defaultJoinDelay absorbs eventual-consistency lag on just-created
	// canvases: the room may not exist server-side at navigation time.
	defaultJoinDelay = 500 * time.Millisecond
	// defaultRetryDelay spaces the single retry after an unauthorized
	// join reply. One retry, fixed delay, no backoff. This conflates a
	// timing race with a real access denial; kept for compatibility
	// with the established protocol behavior.
	defaultRetryDelay = time.Second
)

// RoomHandlers receives inbound events for one canvas room.
type RoomHandlers struct {
	// OnLoad delivers the initial full state for the room.
	OnLoad func(els []element.Element)
	// OnUpdate delivers a peer's full-state drawing update.
	OnUpdate func(els []element.Element)
	// OnDenied fires exactly once when the join is terminally refused.
	OnDenied func(message string)
}

// Channel is the one realtime connection of the process. It is created
// lazily, carries the session credential, and is rebuilt only on
// explicit credential rotation or transport drop. No other component
// may hold a second connection.
type Channel struct {
	url  string
	sess *session.Session

	// JoinDelay and RetryDelay default to the protocol constants;
	// tests shorten them.
	JoinDelay  time.Duration
	RetryDelay time.Duration

	mu       stdsync.Mutex
	conn     *websocket.Conn
	writeMu  stdsync.Mutex
	canvasID string
	handlers RoomHandlers
	gen      uint64
	retried  bool
	denied   bool
}

// NewChannel returns an unconnected channel for the given websocket
// URL, e.g. "ws://host:8080/ws".
func NewChannel(url string, sess *session.Session) *Channel {
	return &Channel{
		url:        url,
		sess:       sess,
		JoinDelay:  defaultJoinDelay,
		RetryDelay: defaultRetryDelay,
	}
}

// Connect is idempotent: it returns immediately when a live connection
// exists, otherwise it dials with the current credential and starts the
// read loop.
func (c *Channel) Connect() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connectLocked()
}

func (c *Channel) connectLocked() error {
	if c.conn != nil {
		return nil
	}
	header := http.Header{}
	if token := c.sess.Token(); token != "" {
		header.Set("Authorization", "Bearer "+token)
	}
	conn, _, err := websocket.DefaultDialer.Dial(c.url, header)
	if err != nil {
		return err
	}
	c.conn = conn
	go c.readLoop(conn)
	log.Printf("[sync] connected to %s", c.url)
	return nil
}

// ForceReconnect tears down and discards the current connection so the
// next Connect picks up a fresh credential. Called after login/logout.
func (c *Channel) ForceReconnect() {
	c.mu.Lock()
	conn := c.conn
	c.conn = nil
	c.mu.Unlock()
	if conn != nil {
		conn.Close()
		log.Printf("[sync] connection discarded for credential rotation")
	}
}

// JoinRoom makes canvasID the active room. Handlers registered for a
// previous canvas are dropped first, so rapid canvas switching cannot
// cause duplicate delivery. The join frame itself is sent after a fixed
// short delay (see defaultJoinDelay); an unauthorized reply is retried
// exactly once, and a second refusal is terminal: OnDenied fires once
// and local broadcasting stays suppressed for this room.
func (c *Channel) JoinRoom(canvasID string, h RoomHandlers) error {
	c.mu.Lock()
	if err := c.connectLocked(); err != nil {
		c.mu.Unlock()
		return err
	}
	c.gen++
	gen := c.gen
	c.canvasID = canvasID
	c.handlers = h
	c.retried = false
	c.denied = false
	delay := c.JoinDelay
	c.mu.Unlock()

	time.AfterFunc(delay, func() { c.sendJoin(canvasID, gen) })
	return nil
}

// LeaveRoom deregisters the room's handlers and invalidates any pending
// join or retry timers for it.
func (c *Channel) LeaveRoom(canvasID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.canvasID != canvasID {
		return
	}
	c.gen++
	c.canvasID = ""
	c.handlers = RoomHandlers{}
}

// BroadcastUpdate sends the full current element collection for a
// canvas, fire-and-forget. No acknowledgment is awaited. Suppressed
// after a terminal authorization denial.
func (c *Channel) BroadcastUpdate(canvasID string, els []element.Element) {
	c.mu.Lock()
	conn := c.conn
	denied := c.denied
	c.mu.Unlock()
	if conn == nil || denied {
		return
	}
	c.write(conn, Message{
		Event:    EventDrawingUpdate,
		CanvasID: canvasID,
		Elements: element.FilterValid(els),
	})
}

// Denied reports whether the active room is in terminal read-only mode.
func (c *Channel) Denied() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.denied
}

func (c *Channel) sendJoin(canvasID string, gen uint64) {
	c.mu.Lock()
	if gen != c.gen || c.conn == nil {
		// The canvas changed (or the connection dropped) while the
		// timer was pending; this join is stale.
		c.mu.Unlock()
		return
	}
	conn := c.conn
	c.mu.Unlock()
	c.write(conn, Message{Event: EventJoinCanvas, CanvasID: canvasID})
}

func (c *Channel) write(conn *websocket.Conn, msg Message) {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := conn.WriteJSON(msg); err != nil {
		log.Printf("[sync] write %s: %v", msg.Event, err)
	}
}

func (c *Channel) readLoop(conn *websocket.Conn) {
	for {
		var msg Message
		if err := conn.ReadJSON(&msg); err != nil {
			c.mu.Lock()
			if c.conn == conn {
				c.conn = nil
			}
			c.mu.Unlock()
			log.Printf("[sync] connection closed: %v", err)
			return
		}
		c.dispatch(conn, msg)
	}
}

func (c *Channel) dispatch(conn *websocket.Conn, msg Message) {
	c.mu.Lock()
	if c.conn != conn {
		c.mu.Unlock()
		return
	}
	h := c.handlers
	canvasID := c.canvasID
	gen := c.gen

	switch msg.Event {
	case EventLoadCanvas:
		c.mu.Unlock()
		if h.OnLoad != nil {
			h.OnLoad(element.FilterValid(msg.Elements))
		}
	case EventReceiveUpdate:
		c.mu.Unlock()
		if h.OnUpdate != nil {
			h.OnUpdate(element.FilterValid(msg.Elements))
		}
	case EventUnauthorized:
		if c.denied {
			c.mu.Unlock()
			return
		}
		if !c.retried {
			c.retried = true
			delay := c.RetryDelay
			c.mu.Unlock()
			log.Printf("[sync] join %s unauthorized, retrying once", canvasID)
			time.AfterFunc(delay, func() { c.sendJoin(canvasID, gen) })
			return
		}
		c.denied = true
		c.mu.Unlock()
		log.Printf("[sync] join %s unauthorized twice, room is read-only", canvasID)
		if h.OnDenied != nil {
			h.OnDenied(msg.Message)
		}
	default:
		c.mu.Unlock()
		log.Printf("[sync] unknown event %q", msg.Event)
	}
}
