package chat

import (
	"bufio"
	"io"
	"net"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestConnChannel_ReadLine(t *testing.T) {
	req := require.New(t)
	server, client := net.Pipe()
	ch := NewConnChannel(server, 0)
	t.Cleanup(func() { _ = ch.Close() })

	go func() {
		_, _ = io.WriteString(client, "HELLO Alice\r\nSAY hi\nWHO")
		_ = client.Close()
	}()

	for _, want := range []string{"HELLO Alice", "SAY hi", "WHO"} {
		line, err := ch.ReadLine()
		req.NoError(err)
		req.Equal(want, line)
	}

	_, err := ch.ReadLine()
	req.ErrorIs(err, io.EOF)
}

func TestConnChannel_WriteLineTerminatesAndFlushes(t *testing.T) {
	req := require.New(t)
	server, client := net.Pipe()
	ch := NewConnChannel(server, time.Second)
	t.Cleanup(func() {
		_ = ch.Close()
		_ = client.Close()
	})

	got := make(chan string, 1)
	go func() {
		line, _ := bufio.NewReader(client).ReadString('\n')
		got <- line
	}()

	req.NoError(ch.WriteLine("Alice says: hi"))
	req.Equal("Alice says: hi\n", <-got)
}

func TestConnChannel_WriteTimeout(t *testing.T) {
	server, client := net.Pipe()
	ch := NewConnChannel(server, 20*time.Millisecond)
	t.Cleanup(func() {
		_ = ch.Close()
		_ = client.Close()
	})

	// Given a peer that never reads
	start := time.Now()
	err := ch.WriteLine("anyone there?")

	// Then the write gives up on its deadline
	require.ErrorIs(t, err, os.ErrDeadlineExceeded)
	require.Less(t, time.Since(start), time.Second)
}

func TestConnChannel_CloseIsIdempotent(t *testing.T) {
	req := require.New(t)
	server, client := net.Pipe()
	t.Cleanup(func() { _ = client.Close() })
	ch := NewConnChannel(server, 0)

	req.NoError(ch.Close())
	req.NoError(ch.Close())

	_, err := ch.ReadLine()
	req.Error(err)
	req.Error(ch.WriteLine("late"))
}
