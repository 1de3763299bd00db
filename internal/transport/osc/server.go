package osc

import (
	"context"
	"errors"
	"net"
	"sync"
	"sync/atomic"

	gosc "github.com/hypebeast/go-osc/osc"

	"github.com/ocfkit/ocf/internal/core/observability/log"
	"github.com/ocfkit/ocf/internal/core/value"
)

var (
	ErrServerAlreadyRunning = errors.New("osc server is already running")
	ErrServerNotListening   = errors.New("osc server is not listening")
)

// maxPacketSize bounds a single UDP datagram.
const maxPacketSize = 65535

// Router receives messages on the tick goroutine.
type Router interface {
	Route(address string, raw []value.Value) error
}

// Poster hands a job to the tick goroutine.
type Poster interface {
	Post(job func()) error
}

// Server receives OSC over UDP. Packets are parsed on the reading goroutine
// and routed through the poster, preserving arrival order.
type Server struct {
	addr   string
	poster Poster
	router Router
	logger log.Log

	mu      sync.Mutex
	conn    net.PacketConn
	running atomic.Bool

	received atomic.Uint64
	dropped  atomic.Uint64
}

var _ gosc.Dispatcher = (*Server)(nil)

func NewServer(addr string, poster Poster, router Router, logger log.Log) *Server {
	if logger == nil {
		logger = log.Nop()
	}
	return &Server{
		addr:   addr,
		poster: poster,
		router: router,
		logger: logger.With(log.String("component", "osc_server")),
	}
}

// Listen binds the UDP socket. It is separate from Serve so callers know the
// port is open before they start serving.
func (s *Server) Listen() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn != nil {
		return ErrServerAlreadyRunning
	}
	conn, err := net.ListenPacket("udp", s.addr)
	if err != nil {
		return err
	}
	s.conn = conn
	s.logger.Info("OSC server listening", log.String("addr", conn.LocalAddr().String()))
	return nil
}

// Addr returns the bound address, nil before Listen.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil {
		return nil
	}
	return s.conn.LocalAddr()
}

// Connected reports whether the server is reading packets.
func (s *Server) Connected() bool {
	return s.running.Load()
}

// Serve reads packets until ctx is done or Close is called.
func (s *Server) Serve(ctx context.Context) error {
	s.mu.Lock()
	conn := s.conn
	s.mu.Unlock()
	if conn == nil {
		return ErrServerNotListening
	}
	if !s.running.CompareAndSwap(false, true) {
		return ErrServerAlreadyRunning
	}
	defer s.running.Store(false)

	stop := context.AfterFunc(ctx, func() { _ = s.Close() })
	defer stop()

	buf := make([]byte, maxPacketSize)
	for {
		n, from, err := conn.ReadFrom(buf)
		if err != nil {
			if errors.Is(err, net.ErrClosed) || ctx.Err() != nil {
				return nil
			}
			return err
		}

		packet, err := gosc.ParsePacket(string(buf[:n]))
		if err != nil {
			s.logger.Debug("Malformed OSC packet", log.String("from", from.String()), log.Error(err))
			continue
		}
		s.Dispatch(packet)
	}
}

// Dispatch posts one routing job per message of the packet.
func (s *Server) Dispatch(packet gosc.Packet) {
	for _, msg := range Messages(packet) {
		s.received.Add(1)
		address, raw := msg.Address, Values(msg.Arguments)
		err := s.poster.Post(func() {
			_ = s.router.Route(address, raw)
		})
		if err != nil {
			s.dropped.Add(1)
			s.logger.Warn("Dropped OSC message", log.String("address", address), log.Error(err))
		}
	}
}

func (s *Server) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil {
		return nil
	}
	err := s.conn.Close()
	s.conn = nil
	return err
}

// Received counts messages handed to the poster or dropped.
func (s *Server) Received() uint64 { return s.received.Load() }

func (s *Server) Dropped() uint64 { return s.dropped.Load() }
