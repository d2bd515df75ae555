// Package client is a driver for the presence protocol: it connects, introduces
// the user with HELLO and listens for server notifications concurrently.
package client

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"sync"

	"github.com/andy6609/presence-server/internal/chat"
)

const notificationBuffer = 256

type Client struct {
	name    string
	channel chat.Channel
	logger  *slog.Logger

	notifications chan string
	done          chan struct{}
	closeOnce     sync.Once
}

// Dial connects to addr and sends HELLO name once the listener is running.
func Dial(ctx context.Context, addr, name string, logger *slog.Logger) (*Client, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}

	c := &Client{
		name:          name,
		channel:       chat.NewConnChannel(conn, 0),
		logger:        logger.With("name", name),
		notifications: make(chan string, notificationBuffer),
		done:          make(chan struct{}),
	}
	go c.listen()

	if err := c.Send("HELLO " + name); err != nil {
		c.Close()
		return nil, err
	}
	return c, nil
}

// Notifications yields server lines until the connection ends, then closes.
func (c *Client) Notifications() <-chan string { return c.notifications }

// Done is closed when the client is closed locally.
func (c *Client) Done() <-chan struct{} { return c.done }

func (c *Client) Name() string { return c.name }

// Send writes one raw protocol line.
func (c *Client) Send(line string) error {
	if err := c.channel.WriteLine(line); err != nil {
		return fmt.Errorf("send %q: %w", line, err)
	}
	return nil
}

func (c *Client) Say(message string) error { return c.Send("SAY " + message) }

func (c *Client) Who() error { return c.Send("WHO") }

func (c *Client) Kill() error { return c.Send("KILL") }

// Bye announces the departure and closes the connection.
func (c *Client) Bye() error {
	c.logger.Info("disconnect requested")
	err := c.Send("BYE")
	c.Close()
	return err
}

func (c *Client) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
		_ = c.channel.Close()
	})
}

func (c *Client) listen() {
	defer close(c.notifications)
	for {
		line, err := c.channel.ReadLine()
		if err != nil {
			select {
			case <-c.done:
			default:
				c.logger.Debug("notification stream ended", "error", err)
			}
			return
		}
		select {
		case c.notifications <- line:
		case <-c.done:
			return
		}
	}
}
