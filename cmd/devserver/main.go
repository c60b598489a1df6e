// Command devserver is a local stand-in for the remote canvas service:
// the REST persistence endpoints plus the realtime websocket rooms the
// client expects. In-memory only; it exists so the client can be run
// and demoed without the production backend.
package main

import (
	"encoding/json"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"CanvasBoard/internal/discover"
	"CanvasBoard/internal/element"
	syncchan "CanvasBoard/internal/sync"
)

func main() {
	if err := mainInner(); err != nil {
		slog.Error(err.Error())
		os.Exit(1)
	}
}

func mainInner() error {
	addrVar := flag.String("addr", "0.0.0.0:8080", "the address to listen on")
	announceVar := flag.Bool("announce", true, "advertise the server via mDNS")
	flag.Parse()

	s := newServer()

	if *announceVar {
		if _, portStr, ok := strings.Cut(*addrVar, ":"); ok {
			if port, err := strconv.Atoi(portStr); err == nil {
				if mdnsServer, err := discover.Advertise(port); err != nil {
					slog.Warn("mDNS advertise failed", "err", err)
				} else {
					defer mdnsServer.Shutdown()
				}
			}
		}
	}

	r := mux.NewRouter()
	r.HandleFunc("/canvases/load/{id}", s.load).Methods(http.MethodGet)
	r.HandleFunc("/canvases/update", s.update).Methods(http.MethodPut)
	r.HandleFunc("/canvases/create", s.create).Methods(http.MethodPost)
	r.HandleFunc("/canvases/share", s.share).Methods(http.MethodPost)
	r.HandleFunc("/canvases/{id}", s.delete).Methods(http.MethodDelete)
	r.HandleFunc("/ws", s.ws)

	slog.Info("listening", "addr", *addrVar)
	return http.ListenAndServe(*addrVar, r)
}

type server struct {
	mu       sync.Mutex
	canvases map[string][]element.Element
	// room membership: canvas id -> connections joined to it
	rooms    map[string]map[*wsClient]bool
	upgrader websocket.Upgrader
}

type wsClient struct {
	conn    *websocket.Conn
	writeMu sync.Mutex
}

func (c *wsClient) send(msg syncchan.Message) {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := c.conn.WriteJSON(msg); err != nil {
		slog.Warn("write failed", "err", err)
	}
}

func newServer() *server {
	return &server{
		canvases: map[string][]element.Element{"default": {}},
		rooms:    map[string]map[*wsClient]bool{},
	}
}

func (s *server) load(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	s.mu.Lock()
	els, ok := s.canvases[id]
	if !ok {
		// Auto-create on first load; the client treats a brand-new
		// canvas identity as an empty canvas.
		els = []element.Element{}
		s.canvases[id] = els
	}
	out := element.CloneAll(els)
	s.mu.Unlock()
	writeJSON(w, map[string]any{"elements": out})
}

func (s *server) update(w http.ResponseWriter, r *http.Request) {
	var body struct {
		CanvasID string            `json:"canvasId"`
		Elements []element.Element `json:"elements"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	s.mu.Lock()
	s.canvases[body.CanvasID] = element.FilterValid(body.Elements)
	s.mu.Unlock()
	w.WriteHeader(http.StatusOK)
}

func (s *server) create(w http.ResponseWriter, r *http.Request) {
	id := uuid.NewString()
	s.mu.Lock()
	s.canvases[id] = []element.Element{}
	s.mu.Unlock()
	writeJSON(w, map[string]string{"canvasId": id})
}

func (s *server) delete(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	s.mu.Lock()
	delete(s.canvases, id)
	s.mu.Unlock()
	w.WriteHeader(http.StatusNoContent)
}

func (s *server) share(w http.ResponseWriter, r *http.Request) {
	// No accounts in the dev server; sharing always succeeds.
	w.WriteHeader(http.StatusOK)
}

func (s *server) ws(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("upgrade failed", "err", err)
		return
	}
	client := &wsClient{conn: conn}
	defer s.dropClient(client)
	for {
		var msg syncchan.Message
		if err := conn.ReadJSON(&msg); err != nil {
			return
		}
		switch msg.Event {
		case syncchan.EventJoinCanvas:
			s.join(client, msg.CanvasID)
		case syncchan.EventDrawingUpdate:
			s.broadcast(client, msg.CanvasID, msg.Elements)
		}
	}
}

func (s *server) join(client *wsClient, canvasID string) {
	s.mu.Lock()
	els, ok := s.canvases[canvasID]
	if !ok {
		s.mu.Unlock()
		client.send(syncchan.Message{
			Event:   syncchan.EventUnauthorized,
			Message: "unknown canvas " + canvasID,
		})
		return
	}
	if s.rooms[canvasID] == nil {
		s.rooms[canvasID] = map[*wsClient]bool{}
	}
	s.rooms[canvasID][client] = true
	out := element.CloneAll(els)
	s.mu.Unlock()
	client.send(syncchan.Message{Event: syncchan.EventLoadCanvas, Elements: out})
}

func (s *server) broadcast(from *wsClient, canvasID string, els []element.Element) {
	filtered := element.FilterValid(els)
	s.mu.Lock()
	s.canvases[canvasID] = filtered
	peers := make([]*wsClient, 0, len(s.rooms[canvasID]))
	for c := range s.rooms[canvasID] {
		if c != from {
			peers = append(peers, c)
		}
	}
	s.mu.Unlock()
	for _, c := range peers {
		c.send(syncchan.Message{Event: syncchan.EventReceiveUpdate, Elements: filtered})
	}
}

func (s *server) dropClient(client *wsClient) {
	s.mu.Lock()
	for _, room := range s.rooms {
		delete(room, client)
	}
	s.mu.Unlock()
	client.conn.Close()
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("encode failed", "err", err)
	}
}
