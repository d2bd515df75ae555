package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/andy6609/presence-server/internal/chat"
	"github.com/andy6609/presence-server/internal/client"
	"github.com/gookit/color"
	"github.com/kelseyhightower/envconfig"
	"github.com/mama165/sdk-go/logs"
)

const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

type Config struct {
	Addr     string `envconfig:"PRESENCE_ADDR" default:"localhost:9907"`
	Name     string `envconfig:"PRESENCE_NAME" required:"true"`
	Colours  bool   `envconfig:"PRESENCE_COLOURS" default:"true"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"WARN"`
}

func main() {
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Client error: %v\n", err)
	}
	os.Exit(code)
}

func run() (int, error) {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dialCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	c, err := client.Dial(dialCtx, config.Addr, config.Name, log)
	cancel()
	if err != nil {
		return exitRuntime, err
	}
	defer c.Close()

	// Forward stdin verbatim; the server owns the grammar.
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			if err := c.Send(scanner.Text()); err != nil {
				log.Warn("send failed", "error", err)
				return
			}
		}
		_ = c.Bye()
	}()

	for {
		select {
		case <-ctx.Done():
			_ = c.Bye()
			return exitOK, nil
		case line, ok := <-c.Notifications():
			if !ok {
				return exitOK, nil
			}
			fmt.Println(render(line, config.Colours))
		}
	}
}

func render(line string, colours bool) string {
	if !colours {
		return line
	}
	switch {
	case strings.Contains(line, " says: "):
		return color.FgWhite.Render(line)
	case line == chat.KillAck || line == chat.UsageHint:
		return color.FgRed.Render(line)
	case strings.HasSuffix(line, "the room.") || line == chat.SomeoneArrived:
		return color.New(color.FgGreen, color.OpItalic).Render(line)
	default:
		return color.FgCyan.Render(line)
	}
}
