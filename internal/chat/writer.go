package chat

import (
	"errors"
	"net"
)

func (s *Session) startWriter() {
	s.startOnce.Do(func() {
		go s.writeLoop()
	})
}

func (s *Session) stopWriter() {
	s.quitOnce.Do(func() {
		close(s.quit)
	})
}

// writeLoop owns all writes to the channel. It closes the channel on exit,
// which unblocks a read loop still waiting on the peer.
func (s *Session) writeLoop() {
	defer close(s.writerDone)
	defer func() {
		_ = s.channel.Close()
	}()

	for {
		select {
		case line := <-s.out:
			if !s.write(line) {
				return
			}
		case <-s.quit:
			s.flush()
			return
		}
	}
}

// flush writes whatever is still queued, stopping at the first failure.
func (s *Session) flush() {
	for {
		select {
		case line := <-s.out:
			if !s.write(line) {
				return
			}
		default:
			return
		}
	}
}

func (s *Session) write(line string) bool {
	err := s.channel.WriteLine(line)
	if err == nil {
		return true
	}
	NotificationsDropped.WithLabelValues(dropWriteError).Inc()
	if errors.Is(err, net.ErrClosed) {
		s.logger.Debug("write after close", "error", err)
	} else {
		s.logger.Warn("write failed, closing session", "error", err)
	}
	return false
}
