package server

import (
	"bufio"
	"log/slog"
	"net/http"
	"sync"
	"time"
)

// LiveReloadHub manages SSE clients and broadcasts build ids to them.
type LiveReloadHub struct {
	mu      sync.RWMutex
	nextID  int
	clients map[int]*lrClient
	closed  bool
	last    string
	ping    time.Duration
}

type lrClient struct {
	id   int
	ch   chan string
	done chan struct{}
}

// NewLiveReloadHub returns an empty hub.
func NewLiveReloadHub() *LiveReloadHub {
	return &LiveReloadHub{clients: map[int]*lrClient{}, ping: 30 * time.Second}
}

// ServeHTTP implements the SSE endpoint at /livereload.
func (h *LiveReloadHub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	closed := h.closed
	h.mu.RUnlock()
	if closed {
		http.Error(w, "livereload shutting down", http.StatusServiceUnavailable)
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "stream unsupported", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	client := &lrClient{ch: make(chan string, 8), done: make(chan struct{})}
	h.mu.Lock()
	client.id = h.nextID
	h.nextID++
	h.clients[client.id] = client
	current := h.last
	h.mu.Unlock()
	defer h.removeClient(client.id)

	bw := bufio.NewWriter(w)
	send := func(s string) bool {
		if _, err := bw.WriteString(s); err != nil {
			slog.Debug("livereload write", "error", err)
			return false
		}
		if err := bw.Flush(); err != nil {
			return false
		}
		flusher.Flush()
		return true
	}

	hello := ": connected\n\n"
	if current != "" {
		hello += event(current)
	}
	if !send(hello) {
		return
	}

	hb := time.NewTicker(h.ping)
	defer hb.Stop()
	for {
		select {
		case <-r.Context().Done():
			return
		case <-client.done:
			return
		case <-hb.C:
			if !send(": ping\n\n") {
				return
			}
		case id := <-client.ch:
			if !send(event(id)) {
				return
			}
		}
	}
}

func event(id string) string {
	return "data: {\"build\":\"" + id + "\"}\n\n"
}

func (h *LiveReloadHub) removeClient(id int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if c, ok := h.clients[id]; ok {
		delete(h.clients, id)
		close(c.done)
	}
}

// Clients returns the number of connected browsers.
func (h *LiveReloadHub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Broadcast sends id to every client. Clients whose buffers are full are
// dropped; they reconnect on their own.
func (h *LiveReloadHub) Broadcast(id string) {
	h.mu.Lock()
	if h.closed || id == "" || id == h.last {
		h.mu.Unlock()
		return
	}
	h.last = id
	snapshot := make([]*lrClient, 0, len(h.clients))
	for _, c := range h.clients {
		snapshot = append(snapshot, c)
	}
	h.mu.Unlock()

	dropped := 0
	for _, c := range snapshot {
		select {
		case c.ch <- id:
		default:
			dropped++
			h.removeClient(c.id)
		}
	}
	slog.Debug("livereload broadcast", "build", id, "clients", len(snapshot), "dropped", dropped)
}

// Shutdown disconnects all clients and rejects new ones.
func (h *LiveReloadHub) Shutdown() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	clients := h.clients
	h.clients = map[int]*lrClient{}
	h.mu.Unlock()
	for _, c := range clients {
		close(c.done)
	}
}

// LiveReloadScript is served at /livereload.js. The first event only sets
// the baseline; later ones reload the page.
const LiveReloadScript = `(() => {
  if (window.__DOCSITE_LR__) return;
  window.__DOCSITE_LR__ = true;
  function connect() {
    const es = new EventSource('/livereload');
    let current = null;
    es.onmessage = (e) => {
      try {
        const p = JSON.parse(e.data);
        if (current === null) { current = p.build; return; }
        if (p.build && p.build !== current) { location.reload(); }
      } catch (_) {}
    };
    es.onerror = () => { es.close(); setTimeout(connect, 2000); };
  }
  connect();
})();
`
