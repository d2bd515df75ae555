package chat

import (
	"errors"
	"log/slog"
	"sync"

	"github.com/samber/lo"
)

// Roster is the shared registry of connected participants.
//
// Membership changes and snapshots are serialized by mu. Delivery happens
// outside the lock over a snapshot, so a slow recipient never blocks
// registration or another broadcast.
type Roster struct {
	mu           sync.Mutex
	participants []Participant // registration order
	closed       bool
	logger       *slog.Logger
}

func NewRoster(logger *slog.Logger) *Roster {
	if logger == nil {
		logger = slog.Default()
	}
	return &Roster{logger: logger}
}

// Register adds p. It fails with ErrRosterClosed once DisconnectAll has run.
func (r *Roster) Register(p Participant) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return ErrRosterClosed
	}
	if lo.Contains(r.participants, p) {
		return nil
	}
	r.participants = append(r.participants, p)
	ConnectedSessions.Set(float64(len(r.participants)))

	r.logger.Debug("participant registered", "session_id", p.ID())
	return nil
}

// Unregister removes p and reports whether it was present.
func (r *Roster) Unregister(p Participant) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	before := len(r.participants)
	r.participants = lo.Without(r.participants, p)
	if len(r.participants) == before {
		return false
	}
	ConnectedSessions.Set(float64(len(r.participants)))

	r.logger.Debug("participant unregistered", "session_id", p.ID())
	return true
}

// Snapshot returns a copy of the membership at the moment of the call.
func (r *Roster) Snapshot() []Participant {
	r.mu.Lock()
	defer r.mu.Unlock()

	snapshot := make([]Participant, len(r.participants))
	copy(snapshot, r.participants)
	return snapshot
}

// Names is the WHO projection of a snapshot.
func (r *Roster) Names() []string {
	return lo.Map(r.Snapshot(), func(p Participant, _ int) string {
		return p.Name()
	})
}

func (r *Roster) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.participants)
}

// Broadcast queues line for every participant registered when the call starts
// and returns how many accepted it. A refusal only affects that recipient.
func (r *Roster) Broadcast(line string) int {
	delivered := 0
	for _, p := range r.Snapshot() {
		if err := p.Send(line); err != nil {
			r.logDeliveryFailure(p, err)
			continue
		}
		delivered++
	}
	return delivered
}

// DisconnectAll closes the roster to newcomers and asks every member to leave.
func (r *Roster) DisconnectAll() {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()

	snapshot := r.Snapshot()
	r.logger.Info("disconnecting participants", "count", len(snapshot))
	for _, p := range snapshot {
		p.Disconnect()
	}
}

func (r *Roster) logDeliveryFailure(p Participant, err error) {
	switch {
	case errors.Is(err, ErrSessionClosed):
		// Recipient is already on its way out.
		r.logger.Debug("skipping closed participant", "session_id", p.ID())
	case errors.Is(err, ErrSlowConsumer):
		NotificationsDropped.WithLabelValues(dropSlowConsumer).Inc()
		r.logger.Warn("notification dropped for slow participant",
			"session_id", p.ID(), "name", p.Name())
	default:
		r.logger.Warn("notification delivery failed",
			"session_id", p.ID(), "name", p.Name(), "error", err)
	}
}
