//go:generate go run go.uber.org/mock/mockgen -source=channel.go -destination=../mocks/mock_channel.go -package=mocks
package chat

import (
	"bufio"
	"fmt"
	"io"
	"net"
	"strings"
	"sync"
	"time"
)

// Channel is a line-oriented duplex text stream.
type Channel interface {
	// ReadLine blocks until a full line arrives. The terminator is stripped.
	ReadLine() (string, error)
	// WriteLine writes one line and flushes it.
	WriteLine(line string) error
	// Close is idempotent.
	Close() error
}

type connChannel struct {
	conn         net.Conn
	reader       *bufio.Reader
	writeTimeout time.Duration

	wmu       sync.Mutex
	closeOnce sync.Once
	closeErr  error
}

// NewConnChannel wraps conn. A positive writeTimeout bounds every WriteLine.
func NewConnChannel(conn net.Conn, writeTimeout time.Duration) Channel {
	return &connChannel{
		conn:         conn,
		reader:       bufio.NewReader(conn),
		writeTimeout: writeTimeout,
	}
}

func (c *connChannel) ReadLine() (string, error) {
	return readLine(c.reader)
}

func (c *connChannel) WriteLine(line string) error {
	c.wmu.Lock()
	defer c.wmu.Unlock()

	if c.writeTimeout > 0 {
		if err := c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout)); err != nil {
			return fmt.Errorf("write: %w", err)
		}
	}
	if _, err := io.WriteString(c.conn, line+"\n"); err != nil {
		return fmt.Errorf("write: %w", err)
	}
	return nil
}

func (c *connChannel) Close() error {
	c.closeOnce.Do(func() {
		c.closeErr = c.conn.Close()
	})
	return c.closeErr
}

func readLine(r *bufio.Reader) (string, error) {
	line, err := r.ReadString('\n')
	if err == nil {
		return strings.TrimRight(line, "\r\n"), nil
	}
	if err == io.EOF && line != "" {
		// last line without newline
		return strings.TrimRight(line, "\r\n"), nil
	}
	if err == io.EOF {
		return "", io.EOF
	}
	return "", fmt.Errorf("read: %w", err)
}
