package chat

import (
	"errors"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"
	"time"
)

const (
	defaultWriteTimeout = 5 * time.Second
	acceptRetryDelay    = 50 * time.Millisecond
)

// Server accepts presence connections and owns the service lifecycle.
type Server struct {
	addr           string
	logger         *slog.Logger
	roster         *Roster
	writeTimeout   time.Duration
	outboundBuffer int

	listener net.Listener
	running  atomic.Bool
	stopOnce sync.Once
	done     chan struct{}
	wg       sync.WaitGroup
}

// Option configures a Server.
type Option func(*Server)

// WithWriteTimeout bounds every write to a single client. Zero disables the bound.
func WithWriteTimeout(d time.Duration) Option {
	return func(s *Server) {
		s.writeTimeout = d
	}
}

// WithOutboundBuffer sets how many notifications may wait for one slow client.
func WithOutboundBuffer(n int) Option {
	return func(s *Server) {
		s.outboundBuffer = n
	}
}

func NewServer(addr string, logger *slog.Logger, opts ...Option) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		addr:           addr,
		logger:         logger,
		roster:         NewRoster(logger),
		writeTimeout:   defaultWriteTimeout,
		outboundBuffer: defaultOutboundBuffer,
		done:           make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start binds the listening socket and starts accepting in the background.
// A bind failure is returned and the server does not serve.
func (s *Server) Start() error {
	select {
	case <-s.done:
		return ErrServerClosed
	default:
	}

	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	s.listener = ln
	s.running.Store(true)

	s.wg.Add(1)
	go s.acceptLoop(ln)

	s.logger.Info("server started", "addr", ln.Addr().String())
	return nil
}

// Addr is the bound address, nil before Start.
func (s *Server) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

func (s *Server) Running() bool { return s.running.Load() }

func (s *Server) Roster() *Roster { return s.roster }

// Done is closed once Shutdown has run.
func (s *Server) Done() <-chan struct{} { return s.done }

// Shutdown stops accepting and disconnects every session. Only the first call
// has an effect; it may come from a KILL session and a signal handler at once.
func (s *Server) Shutdown() {
	s.stopOnce.Do(func() {
		s.logger.Info("shutting down")
		s.running.Store(false)

		if s.listener != nil {
			if err := s.listener.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
				s.logger.Warn("listener close failed", "error", err)
			}
		}
		s.roster.DisconnectAll()
		close(s.done)
	})
}

// Stop shuts the server down and waits for the accept loop and every session.
// Sessions must not call it.
func (s *Server) Stop() {
	s.Shutdown()
	s.wg.Wait()
	s.logger.Info("shutdown complete")
}

func (s *Server) acceptLoop(ln net.Listener) {
	defer s.wg.Done()
	for {
		conn, err := ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) || !s.running.Load() {
				// listener closed by Shutdown
				return
			}
			s.logger.Warn("accept failed", "error", err)
			time.Sleep(acceptRetryDelay)
			continue
		}

		s.logger.Info("client connected", "addr", conn.RemoteAddr().String())

		s.roster.Broadcast(SomeoneArrived)
		session := NewSession(NewConnChannel(conn, s.writeTimeout), s.roster, s, SessionOptions{
			OutboundBuffer: s.outboundBuffer,
			Logger:         s.logger.With("addr", conn.RemoteAddr().String()),
		})

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			session.Run()
		}()
	}
}
