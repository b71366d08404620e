package avatar

import (
	"encoding/json"
	log "log/slog"
	"net/http"
	"sync"
	"time"

	ws "github.com/gorilla/websocket"
)

const (
	sendBuffer   = 8
	writeTimeout = time.Second
)

type viewer struct {
	conn *ws.Conn
	send chan []byte
}

// Hub fans frames out to WebSocket viewers. A viewer that cannot keep up
// loses frames; Publish never waits on the network.
type Hub struct {
	upgrader ws.Upgrader

	mu      sync.Mutex
	viewers map[*viewer]struct{}
}

func NewHub() *Hub {
	return &Hub{
		upgrader: ws.Upgrader{
			// The page is served from the same process; any local origin is fine.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		viewers: make(map[*viewer]struct{}),
	}
}

func (h *Hub) Publish(f Frame) {
	data, err := json.Marshal(f)
	if err != nil {
		log.Error("Failed to encode frame", "err", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	for v := range h.viewers {
		select {
		case v.send <- data:
		default:
		}
	}
}

func (h *Hub) Viewers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.viewers)
}

func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn("Failed to upgrade viewer", "err", err)
		return
	}

	v := &viewer{conn: conn, send: make(chan []byte, sendBuffer)}

	h.mu.Lock()
	h.viewers[v] = struct{}{}
	h.mu.Unlock()

	log.Debug("Viewer connected", "remote", r.RemoteAddr)

	go h.readLoop(v)
	h.writeLoop(v)
}

// readLoop only exists to notice the viewer going away.
func (h *Hub) readLoop(v *viewer) {
	for {
		if _, _, err := v.conn.ReadMessage(); err != nil {
			h.drop(v)
			return
		}
	}
}

func (h *Hub) writeLoop(v *viewer) {
	defer v.conn.Close()

	for data := range v.send {
		_ = v.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := v.conn.WriteMessage(ws.TextMessage, data); err != nil {
			if !isClosed(err) {
				log.Debug("Viewer write failed", "err", err)
			}
			h.drop(v)
			return
		}
	}
}

func (h *Hub) drop(v *viewer) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.viewers[v]; ok {
		delete(h.viewers, v)
		close(v.send)
	}
}

// Close disconnects every viewer.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for v := range h.viewers {
		delete(h.viewers, v)
		close(v.send)
	}
}

func isClosed(err error) bool {
	return ws.IsCloseError(err,
		ws.CloseNormalClosure,
		ws.CloseGoingAway,
		ws.CloseAbnormalClosure)
}
