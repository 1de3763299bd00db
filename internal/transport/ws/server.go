// Package ws serves the control panel feed: a JSON snapshot of every
// controllable and a WebSocket that pushes value changes and accepts
// addressed writes.
package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ocfkit/ocf/internal/core/controllable"
	"github.com/ocfkit/ocf/internal/core/directory"
	"github.com/ocfkit/ocf/internal/core/events/bus"
	"github.com/ocfkit/ocf/internal/core/observability/log"
	"github.com/ocfkit/ocf/internal/core/value"
)

var (
	ErrServerAlreadyRunning = errors.New("websocket server is already running")
	ErrServerNotRunning     = errors.New("websocket server is not running")
)

const (
	sendBuffer   = 256
	writeTimeout = 5 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// Inbox runs jobs on the tick goroutine.
type Inbox interface {
	Post(job func()) error
	Call(ctx context.Context, fn func() error) error
}

// Inbound is a write sent by a panel.
type Inbound struct {
	Address string `json:"address"`
	Values  []any  `json:"values"`
}

// Outbound is pushed to every panel.
type Outbound struct {
	Type      string `json:"type"`
	ID        string `json:"id"`
	Attribute string `json:"attribute,omitempty"`
	Value     string `json:"value,omitempty"`
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

type Server struct {
	dir    *directory.Directory
	inbox  Inbox
	logger log.Log

	mu      sync.Mutex
	clients map[*client]struct{}
	subs    []bus.Subscription

	httpServer *http.Server
	running    atomic.Bool
}

func NewServer(dir *directory.Directory, in Inbox, logger log.Log) *Server {
	if logger == nil {
		logger = log.Nop()
	}
	return &Server{
		dir:     dir,
		inbox:   in,
		logger:  logger.With(log.String("component", "ws")),
		clients: make(map[*client]struct{}),
	}
}

// Handler routes GET /controllables and /ws.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /controllables", s.handleSnapshot)
	mux.HandleFunc("/ws", s.handleWebSocket)
	return mux
}

// Attach forwards value and membership changes from b to connected panels.
// Handlers run on the publishing goroutine and never block on a client.
func (s *Server) Attach(b bus.EventBus) error {
	handlers := map[string]bus.EventHandler{
		controllable.EventValueChanged:     s.onValueChanged,
		directory.EventControllableAdded:   s.onMembership("added"),
		directory.EventControllableRemoved: s.onMembership("removed"),
	}
	for typ, h := range handlers {
		sub, err := b.Subscribe(typ, h)
		if err != nil {
			return err
		}
		s.subs = append(s.subs, sub)
	}
	return nil
}

func (s *Server) Detach() {
	for _, sub := range s.subs {
		_ = sub.Cancel()
	}
	s.subs = nil
}

// ListenAndServe blocks until ctx is done or the listener fails.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	if !s.running.CompareAndSwap(false, true) {
		_ = ln.Close()
		return ErrServerAlreadyRunning
	}
	defer s.running.Store(false)

	srv := &http.Server{Handler: s.Handler(), ReadHeaderTimeout: 5 * time.Second}
	s.mu.Lock()
	s.httpServer = srv
	s.mu.Unlock()

	s.logger.Info("Panel feed listening", log.String("addr", ln.Addr().String()))

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()
	return s.Shutdown(shutdownCtx)
}

// Shutdown stops the HTTP server and disconnects every panel.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	srv := s.httpServer
	s.httpServer = nil
	clients := make([]*client, 0, len(s.clients))
	for c := range s.clients {
		clients = append(clients, c)
	}
	s.mu.Unlock()

	if srv == nil {
		return ErrServerNotRunning
	}
	err := srv.Shutdown(ctx)
	for _, c := range clients {
		_ = c.conn.Close()
	}
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Clients returns the number of connected panels.
func (s *Server) Clients() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	var views []ControllableView
	err := s.inbox.Call(r.Context(), func() error {
		views = make([]ControllableView, 0, s.dir.Len())
		for _, c := range s.dir.All() {
			views = append(views, View(c))
		}
		return nil
	})
	if err != nil {
		s.logger.Warn("Snapshot failed", log.Error(err))
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err = json.NewEncoder(w).Encode(views); err != nil {
		s.logger.Debug("Failed to write snapshot", log.Error(err))
	}
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Debug("WebSocket upgrade failed", log.Error(err))
		return
	}

	c := &client{conn: conn, send: make(chan []byte, sendBuffer)}
	s.mu.Lock()
	s.clients[c] = struct{}{}
	s.mu.Unlock()
	s.logger.Debug("Panel connected", log.String("remote", conn.RemoteAddr().String()))

	go s.writeLoop(c)
	s.readLoop(c)
}

func (s *Server) readLoop(c *client) {
	defer s.disconnect(c)
	for {
		var msg Inbound
		if err := c.conn.ReadJSON(&msg); err != nil {
			var closeErr *websocket.CloseError
			if !errors.As(err, &closeErr) && !errors.Is(err, net.ErrClosed) {
				s.logger.Debug("Panel read failed", log.Error(err))
			}
			return
		}
		if msg.Address == "" {
			continue
		}

		raw := make([]value.Value, 0, len(msg.Values))
		for _, x := range msg.Values {
			if v, ok := value.Of(x); ok {
				raw = append(raw, v)
			}
		}
		address := msg.Address
		if err := s.inbox.Post(func() { _ = s.dir.Route(address, raw) }); err != nil {
			s.logger.Warn("Dropped panel message", log.String("address", address), log.Error(err))
		}
	}
}

func (s *Server) writeLoop(c *client) {
	for msg := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			_ = c.conn.Close()
			for range c.send {
			}
			return
		}
	}
}

func (s *Server) disconnect(c *client) {
	s.mu.Lock()
	if _, ok := s.clients[c]; ok {
		delete(s.clients, c)
		close(c.send)
	}
	s.mu.Unlock()
	_ = c.conn.Close()
}

func (s *Server) broadcast(msg Outbound) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for c := range s.clients {
		select {
		case c.send <- data:
		default:
			s.logger.Debug("Panel too slow, dropping update", log.String("remote", c.conn.RemoteAddr().String()))
		}
	}
}

func (s *Server) onValueChanged(ev bus.Event) error {
	change, ok := ev.Data().(controllable.Change)
	if !ok {
		return nil
	}
	c, ok := s.dir.Get(change.Controllable)
	if !ok {
		return nil
	}
	a, ok := c.Attribute(change.Attribute)
	if !ok {
		return nil
	}
	s.broadcast(Outbound{
		Type:      "changed",
		ID:        change.Controllable,
		Attribute: change.Attribute,
		Value:     a.Value().String(),
	})
	return nil
}

func (s *Server) onMembership(kind string) bus.EventHandler {
	return func(ev bus.Event) error {
		s.broadcast(Outbound{Type: kind, ID: ev.Source()})
		return nil
	}
}
