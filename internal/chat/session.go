package chat

import (
	"errors"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

const defaultOutboundBuffer = 64

type SessionOptions struct {
	// ID defaults to a random UUID.
	ID string
	// OutboundBuffer is the number of notifications queued before new ones are dropped.
	OutboundBuffer int
	Logger         *slog.Logger
}

// Session is one client's server-side state and command loop.
//
// Only the goroutine running Run mutates the name; other goroutines read it
// through Name. Outbound lines go through a bounded queue drained by a
// dedicated writer so Send never blocks the caller.
type Session struct {
	id        string
	channel   Channel
	roster    *Roster
	lifecycle Shutdowner
	logger    *slog.Logger

	mu    sync.RWMutex
	name  string
	state atomic.Int32

	out        chan string
	quit       chan struct{}
	quitOnce   sync.Once
	writerDone chan struct{}
	startOnce  sync.Once
	exitOnce   sync.Once

	registered bool
}

func NewSession(ch Channel, roster *Roster, lifecycle Shutdowner, opts SessionOptions) *Session {
	if opts.ID == "" {
		opts.ID = uuid.NewString()
	}
	if opts.OutboundBuffer <= 0 {
		opts.OutboundBuffer = defaultOutboundBuffer
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Session{
		id:         opts.ID,
		channel:    ch,
		roster:     roster,
		lifecycle:  lifecycle,
		logger:     logger.With("session_id", opts.ID),
		name:       AnonymousName,
		out:        make(chan string, opts.OutboundBuffer),
		quit:       make(chan struct{}),
		writerDone: make(chan struct{}),
	}
}

func (s *Session) ID() string { return s.id }

func (s *Session) Name() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.name
}

func (s *Session) setName(name string) {
	s.mu.Lock()
	s.name = name
	s.mu.Unlock()
}

func (s *Session) State() SessionState {
	return SessionState(s.state.Load())
}

// Run executes the session until the peer leaves, the channel fails or the
// session is disconnected. It releases every resource before returning.
func (s *Session) Run() {
	s.startWriter()
	defer s.exit()

	if !s.onConnect() {
		return
	}

	for s.State() == StateActive {
		line, err := s.channel.ReadLine()
		if err != nil {
			// EOF and read errors both end the session.
			if s.State() == StateActive {
				s.logger.Debug("read loop ended", "error", err)
			}
			return
		}
		if !s.HandleLine(line) {
			return
		}
	}
}

func (s *Session) onConnect() bool {
	if err := s.roster.Register(s); err != nil {
		s.logger.Info("session rejected", "error", err)
		return false
	}
	s.registered = true

	if !s.state.CompareAndSwap(int32(StateConnecting), int32(StateActive)) {
		// Disconnected between registration and activation.
		return false
	}
	s.reply(WelcomeBanner...)
	return true
}

// HandleLine executes one client line and reports whether the loop should continue.
func (s *Session) HandleLine(line string) bool {
	cmd := Decode(line)
	start := time.Now()
	defer func() {
		CommandsTotal.WithLabelValues(cmd.Kind.String()).Inc()
		CommandDuration.WithLabelValues(cmd.Kind.String()).Observe(time.Since(start).Seconds())
	}()

	switch cmd.Kind {
	case CommandHello:
		name := cmd.Arg
		if name == "" {
			name = AnonymousName
		}
		s.setName(name)
		s.logger.Info("user introduced", "name", name)
		s.roster.Broadcast(Arrival(name))
	case CommandSay:
		s.roster.Broadcast(Said(s.Name(), cmd.Arg))
	case CommandWho:
		s.reply(RosterListing(s.roster.Names())...)
	case CommandBye:
		s.roster.Broadcast(Leaving(s.Name()))
		s.state.Store(int32(StateTerminated))
		return false
	case CommandKill:
		s.logger.Info("kill requested", "name", s.Name())
		s.reply(KillAck)
		if s.lifecycle != nil {
			s.lifecycle.Shutdown()
		}
		s.state.Store(int32(StateTerminated))
		return false
	default:
		s.reply(UsageHint)
	}
	return true
}

// Send queues line for delivery without blocking.
func (s *Session) Send(line string) error {
	select {
	case <-s.quit:
		return ErrSessionClosed
	case <-s.writerDone:
		return ErrSessionClosed
	default:
	}

	select {
	case s.out <- line:
		return nil
	default:
		return ErrSlowConsumer
	}
}

// Disconnect terminates the session from outside its loop. Queued lines are
// flushed before the channel closes. Safe to call more than once.
func (s *Session) Disconnect() {
	s.state.Store(int32(StateTerminated))
	s.stopWriter()
}

func (s *Session) reply(lines ...string) {
	for _, line := range lines {
		if err := s.Send(line); err != nil {
			if errors.Is(err, ErrSlowConsumer) {
				NotificationsDropped.WithLabelValues(dropSlowConsumer).Inc()
			}
			s.logger.Debug("reply not queued", "error", err)
			return
		}
	}
}

func (s *Session) exit() {
	s.exitOnce.Do(func() {
		s.state.Store(int32(StateTerminated))

		// Unregister first so the departing session is not part of its own notice.
		if s.registered && s.roster.Unregister(s) {
			s.roster.Broadcast(Left(s.Name()))
		}

		s.stopWriter()
		<-s.writerDone
		if err := s.channel.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			s.logger.Debug("channel close failed", "error", err)
		}
		s.logger.Info("session closed", "name", s.Name())
	})
}
