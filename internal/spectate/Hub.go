package spectate

import (
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/Mshel/llmsnake/internal/game"
)

const (
	writeWait      = 5 * time.Second
	clientBuffer   = 16
	maxMessageSize = 512
)

// Hub fans msgpack encoded frames out to websocket spectators. It is a game.FrameSink,
// so Publish runs on the game loop goroutine and never blocks on a slow spectator.
type Hub struct {
	mu       sync.Mutex
	clients  map[*client]struct{}
	latest   []byte
	closed   bool
	upgrader websocket.Upgrader
	logger   *log.Logger
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

var _ game.FrameSink = (*Hub)(nil)

func NewHub(logger *log.Logger) *Hub {
	if logger == nil {
		logger = log.Default()
	}
	return &Hub{
		clients:  make(map[*client]struct{}),
		upgrader: websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }},
		logger:   logger.WithPrefix("spectate"),
	}
}

func (h *Hub) Publish(frame game.Frame) {
	data, err := msgpack.Marshal(&frame)
	if err != nil {
		h.logger.Error("Could not encode frame.", "tick", frame.Tick, "err", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.latest = data
	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			h.logger.Debug("Spectator lagging, frame dropped.", "remote", c.conn.RemoteAddr(), "tick", frame.Tick)
		}
	}
}

// ServeHTTP upgrades the request and streams frames until the spectator disconnects.
// A new spectator first receives the most recent frame.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("Websocket upgrade failed.", "remote", r.RemoteAddr, "err", err)
		return
	}

	c := &client{conn: conn, send: make(chan []byte, clientBuffer)}
	if !h.add(c) {
		_ = conn.Close()
		return
	}
	h.logger.Info("Spectator joined.", "remote", conn.RemoteAddr(), "spectators", h.Count())

	go c.writeLoop()
	c.readLoop()

	h.remove(c)
	h.logger.Info("Spectator left.", "remote", conn.RemoteAddr(), "spectators", h.Count())
}

func (h *Hub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Close disconnects every spectator and refuses new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
	}
}

func (h *Hub) add(c *client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	if h.latest != nil {
		c.send <- h.latest
	}
	h.clients[c] = struct{}{}
	return true
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
}

func (c *client) writeLoop() {
	defer c.conn.Close()
	for data := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.BinaryMessage, data); err != nil {
			return
		}
	}
	_ = c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
}

// Spectators only watch; reading just notices when they leave.
func (c *client) readLoop() {
	c.conn.SetReadLimit(maxMessageSize)
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}
