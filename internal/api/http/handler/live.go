package handler

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/dtroode/chatstation-server/internal/logger"
	"github.com/dtroode/chatstation-server/internal/model"
)

const maxInboundFrame = 4096

// LiveConfig tunes live connections.
type LiveConfig struct {
	QueueSize     int
	PingInterval  time.Duration
	PongWait      time.Duration
	WriteWait     time.Duration
	AllowedOrigin string
}

type inboundEvent struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

type outboundEvent struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

type newMessagePayload struct {
	Title string     `json:"title"`
	Data  messageDTO `json:"data"`
}

type connectedPayload struct {
	Email string `json:"email"`
}

type errorPayload struct {
	Message string `json:"message"`
}

func toOutboundEvent(ev model.Event) outboundEvent {
	switch ev.Name {
	case model.EventSendMessage:
		payload := newMessagePayload{Title: ev.Title}
		if ev.Message != nil {
			payload.Data = toMessageDTO(*ev.Message)
		}
		return outboundEvent{Event: ev.Name, Data: payload}
	case model.EventConnected:
		return outboundEvent{Event: ev.Name, Data: connectedPayload{Email: ev.Email}}
	default:
		return outboundEvent{Event: model.EventError, Data: errorPayload{Message: ev.Error}}
	}
}

// liveConn is the registry handle for one websocket. Push only enqueues;
// writeLoop is the sole writer of data frames.
type liveConn struct {
	ws        *websocket.Conn
	send      chan model.Event
	done      chan struct{}
	closeOnce sync.Once
}

func newLiveConn(ws *websocket.Conn, queueSize int) *liveConn {
	return &liveConn{
		ws:   ws,
		send: make(chan model.Event, queueSize),
		done: make(chan struct{}),
	}
}

func (c *liveConn) Push(ev model.Event) error {
	select {
	case <-c.done:
		return model.ErrConnectionClosed
	default:
	}

	select {
	case c.send <- ev:
		return nil
	case <-c.done:
		return model.ErrConnectionClosed
	default:
		return model.ErrPushQueueFull
	}
}

func (c *liveConn) close() {
	c.closeOnce.Do(func() {
		close(c.done)
		_ = c.ws.Close()
	})
}

// Live upgrades authenticated requests to websockets and registers them for
// push delivery once the client announces itself.
type Live struct {
	registry       model.PresenceRegistry
	contextManager model.ContextManager
	logger         *logger.Logger
	cfg            LiveConfig
	upgrader       websocket.Upgrader

	mu    sync.Mutex
	conns map[*liveConn]struct{}
}

func NewLive(registry model.PresenceRegistry, contextManager model.ContextManager, cfg LiveConfig, logger *logger.Logger) *Live {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 16
	}
	if cfg.PingInterval <= 0 {
		cfg.PingInterval = 30 * time.Second
	}
	if cfg.PongWait <= 0 {
		cfg.PongWait = 60 * time.Second
	}
	if cfg.WriteWait <= 0 {
		cfg.WriteWait = 10 * time.Second
	}

	h := &Live{
		registry:       registry,
		contextManager: contextManager,
		logger:         logger,
		cfg:            cfg,
		conns:          make(map[*liveConn]struct{}),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.checkOrigin,
	}
	return h
}

func (h *Live) checkOrigin(r *http.Request) bool {
	if h.cfg.AllowedOrigin == "" || h.cfg.AllowedOrigin == "*" {
		return true
	}
	origin := r.Header.Get("Origin")
	return origin == "" || origin == h.cfg.AllowedOrigin
}

// Connect handles GET /ws.
func (h *Live) Connect(w http.ResponseWriter, r *http.Request) {
	user, ok := h.contextManager.GetUserFromContext(r.Context())
	if !ok {
		http.Error(w, msgUnauthorized, http.StatusUnauthorized)
		return
	}

	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "user_id", user.ID, "error", err.Error())
		return
	}

	conn := newLiveConn(ws, h.cfg.QueueSize)
	h.track(conn)
	defer h.untrack(conn)

	log := h.logger.With("user_id", user.ID)
	log.Debug("live connection opened")

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		h.writeLoop(conn, log)
	}()

	registered := h.readLoop(conn, user, log)

	if registered {
		h.registry.Remove(user.Email, conn)
	}
	conn.close()
	<-writerDone
	log.Debug("live connection closed")
}

// readLoop returns whether the connection was registered for push.
func (h *Live) readLoop(conn *liveConn, user model.User, log *logger.Logger) bool {
	registered := false

	conn.ws.SetReadLimit(maxInboundFrame)
	_ = conn.ws.SetReadDeadline(time.Now().Add(h.cfg.PongWait))
	conn.ws.SetPongHandler(func(string) error {
		return conn.ws.SetReadDeadline(time.Now().Add(h.cfg.PongWait))
	})

	for {
		_, data, err := conn.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Debug("live connection read failed", "error", err.Error())
			}
			return registered
		}
		_ = conn.ws.SetReadDeadline(time.Now().Add(h.cfg.PongWait))

		var in inboundEvent
		if err := json.Unmarshal(data, &in); err != nil {
			h.pushError(conn, log, "malformed event")
			continue
		}

		switch in.Event {
		case model.EventConnected:
			var email string
			if err := json.Unmarshal(in.Data, &email); err != nil || email != user.Email {
				h.pushError(conn, log, "connected email does not match the authenticated user")
				continue
			}
			h.registry.Set(user.Email, conn)
			registered = true
			if err := conn.Push(model.Event{Name: model.EventConnected, Email: user.Email}); err != nil {
				log.Warn("failed to acknowledge live connection", "error", err.Error())
			}
		default:
			h.pushError(conn, log, "unknown event")
		}
	}
}

func (h *Live) pushError(conn *liveConn, log *logger.Logger, message string) {
	if err := conn.Push(model.Event{Name: model.EventError, Error: message}); err != nil {
		log.Warn("failed to push live error", "error", err.Error())
	}
}

func (h *Live) writeLoop(conn *liveConn, log *logger.Logger) {
	ticker := time.NewTicker(h.cfg.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-conn.done:
			return
		case ev := <-conn.send:
			_ = conn.ws.SetWriteDeadline(time.Now().Add(h.cfg.WriteWait))
			if err := conn.ws.WriteJSON(toOutboundEvent(ev)); err != nil {
				log.Debug("live write failed", "event", ev.Name, "error", err.Error())
				conn.close()
				return
			}
		case <-ticker.C:
			_ = conn.ws.SetWriteDeadline(time.Now().Add(h.cfg.WriteWait))
			if err := conn.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				conn.close()
				return
			}
		}
	}
}

func (h *Live) track(conn *liveConn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.conns[conn] = struct{}{}
}

func (h *Live) untrack(conn *liveConn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.conns, conn)
}

// CloseAll sends a going-away close frame to every open connection and
// closes it. The server calls it on shutdown since hijacked connections are
// not tracked by http.Server.
func (h *Live) CloseAll() {
	h.mu.Lock()
	conns := make([]*liveConn, 0, len(h.conns))
	for c := range h.conns {
		conns = append(conns, c)
	}
	h.mu.Unlock()

	msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down")
	for _, c := range conns {
		_ = c.ws.WriteControl(websocket.CloseMessage, msg, time.Now().Add(h.cfg.WriteWait))
		c.close()
	}
}

// Len returns the number of open live connections.
func (h *Live) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.conns)
}
