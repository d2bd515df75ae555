package client_test

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/andy6609/presence-server/internal/chat"
	"github.com/andy6609/presence-server/internal/client"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

func startServer(t *testing.T) (*chat.Server, string) {
	t.Helper()
	srv := chat.NewServer("127.0.0.1:0", logs.GetLoggerFromLevel(slog.LevelDebug))
	require.NoError(t, srv.Start())
	t.Cleanup(srv.Stop)
	return srv, srv.Addr().String()
}

func dial(t *testing.T, addr, name string) *client.Client {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	c, err := client.Dial(ctx, addr, name, logs.GetLoggerFromLevel(slog.LevelDebug))
	require.NoError(t, err)
	t.Cleanup(c.Close)
	expect(t, c, chat.Arrival(name))
	return c
}

func expect(t *testing.T, c *client.Client, want string) {
	t.Helper()
	deadline := time.NewTimer(2 * time.Second)
	defer deadline.Stop()
	for {
		select {
		case line, ok := <-c.Notifications():
			if !ok {
				t.Fatalf("%s: connection closed while waiting for %q", c.Name(), want)
			}
			if line == want {
				return
			}
		case <-deadline.C:
			t.Fatalf("%s: timeout waiting for %q", c.Name(), want)
		}
	}
}

func expectClosed(t *testing.T, c *client.Client) {
	t.Helper()
	deadline := time.NewTimer(2 * time.Second)
	defer deadline.Stop()
	for {
		select {
		case _, ok := <-c.Notifications():
			if !ok {
				return
			}
		case <-deadline.C:
			t.Fatalf("%s: connection still open", c.Name())
		}
	}
}

func TestClient_PresenceScenario(t *testing.T) {
	_, addr := startServer(t)

	alice := dial(t, addr, "Alice")
	bob := dial(t, addr, "Bob")
	expect(t, alice, "Bob is in the room.")

	// When Alice talks
	require.NoError(t, alice.Say("hi"))

	// Then both see it
	expect(t, alice, "Alice says: hi")
	expect(t, bob, "Alice says: hi")

	// When Bob asks who is there
	require.NoError(t, bob.Who())
	expect(t, bob, chat.RosterHeader)
	expect(t, bob, " - Alice")
	expect(t, bob, " - Bob")

	// When Alice leaves
	require.NoError(t, alice.Bye())

	// Then Bob is told twice and WHO only lists him
	expect(t, bob, "Alice is about to leave the room.")
	expect(t, bob, "Alice has left the room.")
	require.NoError(t, bob.Who())
	expect(t, bob, chat.RosterHeader)
	expect(t, bob, " - Bob")
}

func TestClient_KillClosesEveryConnection(t *testing.T) {
	srv, addr := startServer(t)

	alice := dial(t, addr, "Alice")
	bob := dial(t, addr, "Bob")

	require.NoError(t, bob.Kill())
	expect(t, bob, chat.KillAck)

	expectClosed(t, alice)
	expectClosed(t, bob)
	<-srv.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	_, err := client.Dial(ctx, addr, "Carol", nil)
	require.Error(t, err)
}

func TestClient_CloseIsIdempotent(t *testing.T) {
	_, addr := startServer(t)
	c := dial(t, addr, "Alice")

	c.Close()
	c.Close()

	select {
	case <-c.Done():
	default:
		t.Fatal("done not closed")
	}
	expectClosed(t, c)
}
