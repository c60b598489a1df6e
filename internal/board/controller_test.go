package board

import (
	"context"
	stdsync "sync"
	"testing"
	"time"

	"CanvasBoard/internal/drawing"
	"CanvasBoard/internal/element"
	"CanvasBoard/internal/sync"
)

type broadcastCall struct {
	canvasID string
	elements []element.Element
}

type fakeRealtime struct {
	mu         stdsync.Mutex
	broadcasts []broadcastCall
	joined     []string
	left       []string
	handlers   map[string]sync.RoomHandlers
}

func newFakeRealtime() *fakeRealtime {
	return &fakeRealtime{handlers: map[string]sync.RoomHandlers{}}
}

func (f *fakeRealtime) JoinRoom(canvasID string, h sync.RoomHandlers) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.joined = append(f.joined, canvasID)
	f.handlers[canvasID] = h
	return nil
}

func (f *fakeRealtime) LeaveRoom(canvasID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.left = append(f.left, canvasID)
	delete(f.handlers, canvasID)
}

func (f *fakeRealtime) BroadcastUpdate(canvasID string, els []element.Element) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.broadcasts = append(f.broadcasts, broadcastCall{canvasID, element.CloneAll(els)})
}

func (f *fakeRealtime) broadcastLog() []broadcastCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]broadcastCall, len(f.broadcasts))
	copy(out, f.broadcasts)
	return out
}

type fakeStore struct {
	mu      stdsync.Mutex
	byID    map[string][]element.Element
	loadErr error
	// loadGate, when set, delays Load until released; simulates a slow
	// remote fetch racing a canvas switch.
	loadGate chan struct{}
	updates  []broadcastCall
}

func newFakeStore() *fakeStore {
	return &fakeStore{byID: map[string][]element.Element{}}
}

func (f *fakeStore) Load(ctx context.Context, canvasID string) ([]element.Element, error) {
	if f.loadGate != nil {
		<-f.loadGate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	return element.CloneAll(f.byID[canvasID]), nil
}

func (f *fakeStore) Update(ctx context.Context, canvasID string, els []element.Element) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates = append(f.updates, broadcastCall{canvasID, element.CloneAll(els)})
}

func (f *fakeStore) Create(ctx context.Context) (string, error) { return "created-1", nil }
func (f *fakeStore) Delete(ctx context.Context, id string) error { return nil }
func (f *fakeStore) Share(ctx context.Context, id, email string) error { return nil }

func newTestController() (*Controller, *fakeStore, *fakeRealtime) {
	store := newFakeStore()
	rt := newFakeRealtime()
	ctrl := NewController(store, rt, drawing.NewMachine())
	return ctrl, store, rt
}

// waitFor polls until cond holds or the deadline passes.
func waitFor(t *testing.T, cond func() bool, what string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestSetCanvasLoadsAndJoins(t *testing.T) {
	ctrl, store, rt := newTestController()
	store.byID["a"] = []element.Element{{Type: element.KindLine, X2: 7}}

	ctrl.SetCanvas(context.Background(), "a")
	waitFor(t, func() bool { return len(ctrl.Elements()) == 1 }, "load to seed elements")

	rt.mu.Lock()
	joined := append([]string(nil), rt.joined...)
	rt.mu.Unlock()
	if len(joined) != 1 || joined[0] != "a" {
		t.Errorf("joined rooms = %v, want [a]", joined)
	}
}

// TestSwitchBroadcastsPreSwitchStateUnderOldIdentity covers the race
// where the user navigates away mid-gesture: canvas A's last known
// elements must go out exactly once, tagged with A, not B.
func TestSwitchBroadcastsPreSwitchStateUnderOldIdentity(t *testing.T) {
	ctrl, store, rt := newTestController()
	store.byID["a"] = []element.Element{{Type: element.KindLine}}

	ctrl.SetCanvas(context.Background(), "a")
	waitFor(t, func() bool { return len(ctrl.Elements()) == 1 }, "canvas a load")

	ctrl.SetTool(drawing.ToolRectangle)
	ctrl.PointerDown(10, 10)
	ctrl.PointerMove(50, 50)
	// No PointerUp: the gesture is still in flight when we switch.

	ctrl.SetCanvas(context.Background(), "b")

	log := rt.broadcastLog()
	if len(log) == 0 {
		t.Fatal("no broadcasts at all")
	}
	// The switch itself adds the farewell broadcast: A's last known
	// state, in-flight rectangle included, tagged with A's identity.
	last := log[len(log)-1]
	if last.canvasID != "a" {
		t.Fatalf("final broadcast tagged %q, want a: %+v", last.canvasID, log)
	}
	if len(last.elements) != 2 {
		t.Fatalf("final broadcast carries %d elements, want line + in-flight rectangle", len(last.elements))
	}
	if last.elements[1].Type != element.KindRectangle || last.elements[1].X2 != 50 {
		t.Errorf("final broadcast = %+v, want the in-flight rectangle last", last.elements)
	}

	rt.mu.Lock()
	left := append([]string(nil), rt.left...)
	rt.mu.Unlock()
	if len(left) != 1 || left[0] != "a" {
		t.Errorf("left rooms = %v, want [a]", left)
	}
	if ctrl.CanvasID() != "b" {
		t.Errorf("canvas = %q, want b", ctrl.CanvasID())
	}
	if got := len(ctrl.Elements()); got != 0 {
		t.Errorf("canvas b started with %d stale elements", got)
	}
}

func TestSwitchClearsSynchronously(t *testing.T) {
	ctrl, store, _ := newTestController()
	store.byID["a"] = []element.Element{{Type: element.KindLine}}
	store.loadGate = make(chan struct{})
	defer close(store.loadGate)

	ctrl.SetCanvas(context.Background(), "a")
	// The load has not completed, but the surface is already empty: no
	// frame may show a previous canvas's elements.
	if got := len(ctrl.Elements()); got != 0 {
		t.Errorf("surface shows %d elements before load completes", got)
	}
}

// TestStaleLoadIsDiscarded pins the generation guard: a load that
// finishes after the user already switched away must not clobber the
// new canvas.
func TestStaleLoadIsDiscarded(t *testing.T) {
	ctrl, store, _ := newTestController()
	store.byID["a"] = []element.Element{{Type: element.KindLine}}
	store.byID["b"] = []element.Element{{Type: element.KindCircle}, {Type: element.KindCircle}}
	gate := make(chan struct{})
	store.loadGate = gate

	ctrl.SetCanvas(context.Background(), "a")
	ctrl.SetCanvas(context.Background(), "b")
	close(gate) // both loads finish now, a's after b was selected

	waitFor(t, func() bool { return len(ctrl.Elements()) == 2 }, "canvas b elements")
	// Give a's stale load a chance to misbehave, then re-check.
	time.Sleep(50 * time.Millisecond)
	els := ctrl.Elements()
	if len(els) != 2 || els[0].Type != element.KindCircle {
		t.Errorf("stale load overwrote canvas b: %+v", els)
	}
}

func TestRemoteUpdateReplacesLiveWithoutHistory(t *testing.T) {
	ctrl, store, rt := newTestController()
	store.byID["a"] = []element.Element{{Type: element.KindRectangle}}
	ctrl.SetCanvas(context.Background(), "a")
	waitFor(t, func() bool { return len(ctrl.Elements()) == 1 }, "canvas a load")

	ctrl.SetTool(drawing.ToolLine)
	ctrl.PointerDown(0, 0)
	ctrl.PointerMove(10, 0)
	ctrl.PointerUp(context.Background())

	rt.mu.Lock()
	h := rt.handlers["a"]
	rt.mu.Unlock()

	h.OnUpdate([]element.Element{{Type: element.KindCircle}})
	els := ctrl.Elements()
	if len(els) != 1 || els[0].Type != element.KindCircle {
		t.Fatalf("live = %+v, want the remote circle", els)
	}

	// The peer's edit never entered the undo stack: undo walks back to
	// the pre-line snapshot, redo recovers the local line.
	ctrl.Undo(context.Background())
	els = ctrl.Elements()
	if len(els) != 1 || els[0].Type != element.KindRectangle {
		t.Fatalf("undo = %+v, want the loaded rectangle", els)
	}
	ctrl.Redo(context.Background())
	els = ctrl.Elements()
	if len(els) != 2 || els[1].Type != element.KindLine {
		t.Errorf("redo = %+v, want rectangle + local line", els)
	}
}

// TestRemoteUpdateMidGesture covers a peer update arriving between
// pointer down and the next move. The gesture must keep going on top
// of the remote state instead of crashing.
func TestRemoteUpdateMidGesture(t *testing.T) {
	ctrl, store, rt := newTestController()
	store.byID["a"] = []element.Element{{Type: element.KindRectangle}}
	ctrl.SetCanvas(context.Background(), "a")
	waitFor(t, func() bool { return len(ctrl.Elements()) == 1 }, "canvas a load")

	rt.mu.Lock()
	h := rt.handlers["a"]
	rt.mu.Unlock()

	ctrl.SetTool(drawing.ToolLine)
	ctrl.PointerDown(0, 0)
	h.OnUpdate(nil)
	ctrl.PointerMove(10, 0)
	ctrl.PointerUp(context.Background())

	els := ctrl.Elements()
	if len(els) != 1 || els[0].Type != element.KindLine || els[0].X2 != 10 {
		t.Fatalf("live after mid-gesture update = %+v, want the finished line", els)
	}

	// Same arrival point, but the remote set ends in a non-extendable
	// element; the gesture still finishes on its own element.
	ctrl.PointerDown(20, 20)
	h.OnUpdate([]element.Element{{Type: element.KindText, Text: "hi"}})
	ctrl.PointerMove(40, 40)
	ctrl.PointerUp(context.Background())

	els = ctrl.Elements()
	if len(els) != 2 || els[1].Type != element.KindLine || els[1].X2 != 40 {
		t.Fatalf("live = %+v, want remote text + finished line", els)
	}
}

func TestRemoteLoadResetsHistory(t *testing.T) {
	ctrl, store, rt := newTestController()
	store.byID["a"] = []element.Element{{Type: element.KindRectangle}}
	ctrl.SetCanvas(context.Background(), "a")
	waitFor(t, func() bool { return len(ctrl.Elements()) == 1 }, "canvas a load")

	rt.mu.Lock()
	h := rt.handlers["a"]
	rt.mu.Unlock()

	h.OnLoad([]element.Element{{Type: element.KindLine}, {Type: element.KindCircle}})
	if got := len(ctrl.Elements()); got != 2 {
		t.Fatalf("live after remote load = %d elements, want 2", got)
	}
	// The load reseeded history with a single snapshot; undo has
	// nowhere to go.
	ctrl.Undo(context.Background())
	if got := len(ctrl.Elements()); got != 2 {
		t.Errorf("undo walked past the loaded snapshot: now %d elements", got)
	}
}

func TestDeniedNoticeFiresOnce(t *testing.T) {
	ctrl, _, rt := newTestController()
	denials := 0
	ctrl.OnDenied = func(string) { denials++ }
	ctrl.SetCanvas(context.Background(), "a")

	rt.mu.Lock()
	h := rt.handlers["a"]
	rt.mu.Unlock()
	h.OnDenied("forbidden")

	if denials != 1 {
		t.Errorf("denial notices = %d, want 1", denials)
	}
}

func TestGestureBroadcastsAndPersists(t *testing.T) {
	ctrl, store, rt := newTestController()
	ctrl.SetCanvas(context.Background(), "a")

	ctrl.SetTool(drawing.ToolBrush)
	ctrl.PointerDown(0, 0)
	ctrl.PointerMove(5, 5)
	ctrl.PointerUp(context.Background())

	log := rt.broadcastLog()
	if len(log) < 2 {
		t.Fatalf("broadcasts = %d, want one per move and one on up", len(log))
	}
	for _, b := range log {
		if b.canvasID != "a" {
			t.Errorf("broadcast tagged %q, want a", b.canvasID)
		}
	}

	waitFor(t, func() bool {
		store.mu.Lock()
		defer store.mu.Unlock()
		return len(store.updates) == 1
	}, "persist on pointer up")
}

func TestTransientNoticeAutoClears(t *testing.T) {
	ctrl, store, _ := newTestController()
	ctrl.NoticeTTL = 20 * time.Millisecond

	var mu stdsync.Mutex
	var texts []string
	ctrl.OnNotice = func(text string) {
		mu.Lock()
		texts = append(texts, text)
		mu.Unlock()
	}

	store.mu.Lock()
	store.loadErr = context.DeadlineExceeded
	store.mu.Unlock()
	ctrl.SetCanvas(context.Background(), "a")

	waitFor(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(texts) >= 2 && texts[len(texts)-1] == ""
	}, "banner to raise and auto-clear")
	mu.Lock()
	defer mu.Unlock()
	if texts[0] == "" {
		t.Errorf("first notice empty, want a failure banner: %v", texts)
	}
}

func TestCreateCanvasSwitchesToIt(t *testing.T) {
	ctrl, _, rt := newTestController()
	ctrl.CreateCanvas(context.Background())
	waitFor(t, func() bool { return ctrl.CanvasID() == "created-1" }, "switch to created canvas")
	rt.mu.Lock()
	defer rt.mu.Unlock()
	if len(rt.joined) == 0 || rt.joined[len(rt.joined)-1] != "created-1" {
		t.Errorf("joined = %v, want created-1 last", rt.joined)
	}
}
