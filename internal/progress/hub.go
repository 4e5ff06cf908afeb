package progress

import (
	"encoding/json"
	"net"
	"net/http"
	"strconv"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/lawnchairsociety/mysterydungeon-randomizer/internal/antispam"
	"github.com/lawnchairsociety/mysterydungeon-randomizer/internal/config"
	"github.com/lawnchairsociety/mysterydungeon-randomizer/internal/logger"
)

// sendBuffer is how many events may queue for a slow client before it is
// dropped
const sendBuffer = 32

// Hub broadcasts progress events as JSON to connected WebSocket clients.
// It implements Status and http.Handler.
type Hub struct {
	config   config.ProgressConfig
	upgrader websocket.Upgrader
	limiter  *antispam.Limiter

	mu      sync.Mutex
	clients map[*hubClient]bool
	last    []byte // most recent event, sent to clients that join late
}

type hubClient struct {
	conn *websocket.Conn
	send chan []byte
}

// NewHub creates a hub that accepts connections allowed by cfg
func NewHub(cfg config.ProgressConfig) *Hub {
	h := &Hub{
		config:  cfg,
		clients: make(map[*hubClient]bool),
		limiter: antispam.NewLimiter(antispam.ConfigFromYAML(cfg.MaxConnectsPerMinute, 60)),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			allowed := h.config.IsOriginAllowed(origin, r.Host)
			if !allowed {
				logger.Warning("Progress connection rejected - origin not allowed",
					"origin", origin,
					"host", r.Host,
					"remote_addr", r.RemoteAddr)
			}
			return allowed
		},
	}
	return h
}

// ServeHTTP upgrades the request and streams events until the client leaves
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	if result := h.limiter.Allow(host); !result.Allowed {
		logger.Warning("Progress connection throttled", "remote_addr", r.RemoteAddr, "wait_seconds", result.WaitSeconds)
		w.Header().Set("Retry-After", strconv.Itoa(result.WaitSeconds))
		http.Error(w, "too many connection attempts", http.StatusTooManyRequests)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Error("Progress upgrade failed", "error", err)
		return
	}
	if h.config.MaxMessageSize > 0 {
		conn.SetReadLimit(h.config.MaxMessageSize)
	}

	client := &hubClient{conn: conn, send: make(chan []byte, sendBuffer)}
	h.mu.Lock()
	h.clients[client] = true
	if h.last != nil {
		client.send <- h.last
	}
	h.mu.Unlock()
	logger.Debug("Progress client connected", "remote_addr", r.RemoteAddr)

	go client.writeLoop()

	// Clients only listen; reading detects when they go away
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	h.remove(client)
}

func (c *hubClient) writeLoop() {
	defer c.conn.Close()
	for msg := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}
	c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}

func (h *Hub) remove(c *hubClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[c] {
		delete(h.clients, c)
		close(c.send)
	}
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Update broadcasts a progress step
func (h *Hub) Update(step, message string, current, total int) {
	h.broadcast(Event{Step: step, Message: message, Current: current, Total: total})
}

// Done broadcasts the end of the run
func (h *Hub) Done(err error) {
	event := Event{Step: "done", Done: true}
	if err != nil {
		event.Error = err.Error()
	}
	h.broadcast(event)
}

func (h *Hub) broadcast(event Event) {
	msg, err := json.Marshal(event)
	if err != nil {
		logger.Error("Failed to encode progress event", "error", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.last = msg
	for c := range h.clients {
		select {
		case c.send <- msg:
		default:
			logger.Warning("Dropping slow progress client", "remote_addr", c.conn.RemoteAddr().String())
			delete(h.clients, c)
			close(c.send)
		}
	}
}

// Close disconnects every client
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
	}
}
