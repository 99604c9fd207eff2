package api

import (
	"context"
	"encoding/json"
	"net/http"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/nerrad567/aerial-hk/internal/infrastructure/config"
	"github.com/nerrad567/aerial-hk/internal/infrastructure/logging"
	"github.com/nerrad567/aerial-hk/internal/telemetry"
)

// WebSocket message types.
const (
	WSTypeSubscribe   = "subscribe"
	WSTypeUnsubscribe = "unsubscribe"
	WSTypePing        = "ping"
	WSTypePong        = "pong"
	WSTypeEvent       = "event"
	WSTypeAck         = "ack"
	WSTypeError       = "error"

	// WSKindAll subscribes a watcher to every telemetry kind.
	WSKindAll = "*"
)

const (
	// watcherQueue is how many encoded events a slow watcher may lag by
	// before events are dropped for it.
	watcherQueue = 256

	defaultMaxMessageSize = 4096
	defaultPingInterval   = 30 * time.Second
	defaultPongTimeout    = 10 * time.Second
)

// WSMessage is every frame exchanged with a watcher. Watchers send
// subscribe, unsubscribe and ping; the server sends event, ack, pong and
// error.
type WSMessage struct {
	Type  string   `json:"type"`
	ID    string   `json:"id,omitempty"`
	Kind  string   `json:"kind,omitempty"`
	Kinds []string `json:"kinds,omitempty"`
	At    string   `json:"at,omitempty"`
	Data  any      `json:"data,omitempty"`
	Error string   `json:"error,omitempty"`
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The stream is read-only, so any origin may watch.
	CheckOrigin: func(*http.Request) bool { return true },
}

// Hub relays telemetry events to connected watchers. It implements
// telemetry.Broadcaster.
type Hub struct {
	maxMessage   int64
	pingInterval time.Duration
	pongTimeout  time.Duration
	logger       *logging.Logger

	mu       sync.RWMutex
	watchers map[*watcher]struct{}
	dropped  atomic.Uint64
}

// NewHub creates a hub. Zero settings in cfg fall back to defaults.
func NewHub(cfg config.WebSocketConfig, logger *logging.Logger) *Hub {
	h := &Hub{
		maxMessage:   defaultMaxMessageSize,
		pingInterval: defaultPingInterval,
		pongTimeout:  defaultPongTimeout,
		logger:       logger,
		watchers:     make(map[*watcher]struct{}),
	}
	if cfg.MaxMessageSize > 0 {
		h.maxMessage = int64(cfg.MaxMessageSize)
	}
	if cfg.PingInterval > 0 {
		h.pingInterval = time.Duration(cfg.PingInterval) * time.Second
	}
	if cfg.PongTimeout > 0 {
		h.pongTimeout = time.Duration(cfg.PongTimeout) * time.Second
	}
	return h
}

// Run waits for ctx and then disconnects every watcher.
func (h *Hub) Run(ctx context.Context) {
	<-ctx.Done()

	h.mu.Lock()
	watchers := h.watchers
	h.watchers = make(map[*watcher]struct{})
	h.mu.Unlock()

	for w := range watchers {
		w.stop()
	}
}

// Broadcast encodes one event and queues it for every watcher subscribed
// to kind. It never blocks: a watcher whose queue is full misses the event.
func (h *Hub) Broadcast(kind string, payload any) {
	data, err := json.Marshal(WSMessage{
		Type: WSTypeEvent,
		Kind: kind,
		At:   time.Now().UTC().Format(time.RFC3339Nano),
		Data: payload,
	})
	if err != nil {
		h.logger.Error("encoding websocket event", "kind", kind, "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for w := range h.watchers {
		if w.wants(kind) && !w.offer(data) {
			h.dropped.Add(1)
		}
	}
}

// ClientCount returns the number of connected watchers.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.watchers)
}

// Dropped returns how many events were skipped for slow watchers.
func (h *Hub) Dropped() uint64 {
	return h.dropped.Load()
}

func (h *Hub) add(w *watcher) {
	h.mu.Lock()
	h.watchers[w] = struct{}{}
	n := len(h.watchers)
	h.mu.Unlock()
	h.logger.Debug("watcher connected", "remote", w.conn.RemoteAddr().String(), "watchers", n)
}

func (h *Hub) remove(w *watcher) {
	h.mu.Lock()
	delete(h.watchers, w)
	n := len(h.watchers)
	h.mu.Unlock()
	w.stop()
	h.logger.Debug("watcher disconnected", "remote", w.conn.RemoteAddr().String(), "watchers", n)
}

// watcher is one WebSocket connection. It starts with no subscriptions.
type watcher struct {
	hub   *Hub
	conn  *websocket.Conn
	queue chan []byte
	done  chan struct{}
	once  sync.Once

	mu    sync.RWMutex
	kinds map[string]bool
}

// handleWebSocket upgrades the request and serves the watcher until either
// side hangs up.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	hub := s.Hub()
	wt := &watcher{
		hub:   hub,
		conn:  conn,
		queue: make(chan []byte, watcherQueue),
		done:  make(chan struct{}),
		kinds: make(map[string]bool),
	}
	hub.add(wt)

	go wt.write()
	go wt.read()
}

func (w *watcher) wants(kind string) bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.kinds[WSKindAll] || w.kinds[kind]
}

func (w *watcher) offer(data []byte) bool {
	select {
	case <-w.done:
		return true
	case w.queue <- data:
		return true
	default:
		return false
	}
}

// stop asks the writer to say goodbye and close the connection, which in
// turn ends the reader.
func (w *watcher) stop() {
	w.once.Do(func() { close(w.done) })
}

func (w *watcher) read() {
	defer w.hub.remove(w)

	deadline := w.hub.pingInterval + w.hub.pongTimeout
	w.conn.SetReadLimit(w.hub.maxMessage)
	w.conn.SetReadDeadline(time.Now().Add(deadline)) //nolint:errcheck // reset on every pong
	w.conn.SetPongHandler(func(string) error {
		return w.conn.SetReadDeadline(time.Now().Add(deadline))
	})

	for {
		_, data, err := w.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				w.hub.logger.Debug("watcher read failed", "error", err)
			}
			return
		}
		// Browsers may not answer protocol pings, so any frame counts as alive.
		w.conn.SetReadDeadline(time.Now().Add(deadline)) //nolint:errcheck // best effort
		w.handle(data)
	}
}

func (w *watcher) write() {
	ping := time.NewTicker(w.hub.pingInterval)
	defer func() {
		ping.Stop()
		w.stop()
		w.conn.Close() //nolint:errcheck // unblocks the reader
	}()

	for {
		select {
		case <-w.done:
			bye := websocket.FormatCloseMessage(websocket.CloseGoingAway, "")
			w.conn.WriteControl(websocket.CloseMessage, bye, time.Now().Add(time.Second)) //nolint:errcheck // peer may be gone
			return
		case data := <-w.queue:
			w.conn.SetWriteDeadline(time.Now().Add(w.hub.pongTimeout)) //nolint:errcheck // write reports failure
			if err := w.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ping.C:
			if err := w.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(w.hub.pongTimeout)); err != nil {
				return
			}
		}
	}
}

func (w *watcher) handle(data []byte) {
	var msg WSMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		w.reply(WSMessage{Type: WSTypeError, Error: "invalid JSON message"})
		return
	}

	switch msg.Type {
	case WSTypePing:
		w.reply(WSMessage{Type: WSTypePong, ID: msg.ID})
	case WSTypeSubscribe, WSTypeUnsubscribe:
		if bad := unknownKinds(msg.Kinds); len(bad) > 0 {
			w.reply(WSMessage{Type: WSTypeError, ID: msg.ID, Kinds: bad, Error: "unknown kinds"})
			return
		}
		w.mu.Lock()
		for _, k := range msg.Kinds {
			if msg.Type == WSTypeSubscribe {
				w.kinds[k] = true
			} else {
				delete(w.kinds, k)
			}
		}
		w.mu.Unlock()
		w.reply(WSMessage{Type: WSTypeAck, ID: msg.ID, Kinds: msg.Kinds})
	default:
		w.reply(WSMessage{Type: WSTypeError, ID: msg.ID, Error: "unknown message type: " + msg.Type})
	}
}

// unknownKinds returns the entries of kinds that are neither a telemetry
// kind nor the wildcard.
func unknownKinds(kinds []string) []string {
	known := telemetry.Kinds()
	var bad []string
	for _, k := range kinds {
		if k != WSKindAll && !slices.Contains(known, k) {
			bad = append(bad, k)
		}
	}
	return bad
}

func (w *watcher) reply(msg WSMessage) {
	msg.At = time.Now().UTC().Format(time.RFC3339Nano)
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}
	w.offer(data)
}
