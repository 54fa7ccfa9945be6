package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"worldsim/internal/events"
	"worldsim/internal/world"
)

const (
	sendBuffer   = 64
	writeTimeout = 5 * time.Second
	readTimeout  = 5 * time.Minute
)

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub fans engine notifications out to every connected client and routes
// their choices back into the runner.
type Hub struct {
	runner   *world.Runner
	logger   *slog.Logger
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*client]struct{}
}

var _ events.Listener = (*Hub)(nil)

// NewHub registers the hub as a scheduler listener, so it must be called
// before the runner starts.
func NewHub(runner *world.Runner, logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	h := &Hub{
		runner: runner,
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		clients: make(map[*client]struct{}),
	}
	runner.Scheduler().AddListener(h)
	return h
}

func (h *Hub) Triggered(ev *events.ActiveEvent) {
	frame := eventFrame(ev)
	h.broadcast(ServerMessage{Type: TypeTriggered, Tick: ev.Tick, Event: &frame})
}

func (h *Hub) Resolved(r events.Resolution) {
	h.broadcast(ServerMessage{Type: TypeResolved, Tick: r.Tick, Resolution: resolvedFrame(r)})
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *Hub) broadcast(msg ServerMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("encoding ws frame", "type", msg.Type, "error", err)
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			h.logger.Warn("dropping ws frame", "type", msg.Type, "remote", c.conn.RemoteAddr().String())
		}
	}
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
	}
}

// Handle upgrades the request, sends the active events and then serves the
// connection until it closes.
func (h *Hub) Handle(rw http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(rw, r, nil)
	if err != nil {
		h.logger.Warn("ws upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	initial, err := h.activeFrame(ctx)
	if err != nil {
		h.logger.Warn("ws initial state", "remote", r.RemoteAddr, "error", err)
		return
	}

	c := &client{conn: conn, send: make(chan []byte, sendBuffer)}
	c.send <- initial
	h.register(c)
	defer h.unregister(c)

	writerDone := make(chan struct{})
	go h.writeLoop(c, writerDone)
	h.logger.Info("ws client connected", "remote", r.RemoteAddr)

	for {
		_ = conn.SetReadDeadline(time.Now().Add(readTimeout))
		_, payload, err := conn.ReadMessage()
		if err != nil {
			break
		}
		var msg ClientMessage
		if err := json.Unmarshal(payload, &msg); err != nil {
			h.reply(c, ServerMessage{Type: TypeError, Error: "malformed message"})
			continue
		}
		if msg.Type != TypeChoose {
			h.reply(c, ServerMessage{Type: TypeError, Error: "unknown message type " + msg.Type})
			continue
		}
		if err := h.choose(ctx, msg); err != nil {
			h.reply(c, ServerMessage{Type: TypeError, Error: err.Error()})
		}
	}

	h.unregister(c)
	select {
	case <-writerDone:
	case <-time.After(500 * time.Millisecond):
	}
	h.logger.Info("ws client disconnected", "remote", r.RemoteAddr)
}

func (h *Hub) choose(ctx context.Context, msg ClientMessage) error {
	return h.runner.Submit(ctx, func(w *world.World) error {
		_, err := h.runner.Resolver().ResolveByID(msg.EventID, msg.Choice, w)
		return err
	})
}

func (h *Hub) activeFrame(ctx context.Context) ([]byte, error) {
	msg := ServerMessage{Type: TypeActive, Events: make([]EventFrame, 0)}
	err := h.runner.Submit(ctx, func(w *world.World) error {
		msg.Tick = w.CurrentTick()
		for _, ev := range h.runner.Scheduler().Active() {
			msg.Events = append(msg.Events, eventFrame(ev))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return json.Marshal(msg)
}

func (h *Hub) reply(c *client, msg ServerMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; !ok {
		return
	}
	select {
	case c.send <- data:
	default:
	}
}

func (h *Hub) writeLoop(c *client, done chan<- struct{}) {
	defer close(done)
	for data := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			return
		}
	}
	_ = c.conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye"), time.Now().Add(time.Second))
}
