package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/andy6609/presence-server/internal/chat"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	req := require.New(t)

	config, err := loadConfig("")

	req.NoError(err)
	req.Equal(chat.DefaultPort, config.Port)
	req.Equal(64, config.OutboundBuffer)
	req.Equal(5*time.Second, config.WriteTimeout)
	req.Equal(":9907", config.Addr())
}

func TestLoadConfig_FromEnvironment(t *testing.T) {
	req := require.New(t)
	t.Setenv("PRESENCE_HOST", "127.0.0.1")
	t.Setenv("PRESENCE_PORT", "10000")
	t.Setenv("PRESENCE_WRITE_TIMEOUT", "250ms")
	t.Setenv("PRESENCE_METRICS_ADDR", "")
	t.Setenv("LOG_LEVEL", "DEBUG")

	config, err := loadConfig("")

	req.NoError(err)
	req.Equal("127.0.0.1:10000", config.Addr())
	req.Equal(250*time.Millisecond, config.WriteTimeout)
	req.Equal("DEBUG", config.LogLevel)
}

func TestLoadConfig_FromDotenvFile(t *testing.T) {
	req := require.New(t)
	path := filepath.Join(t.TempDir(), ".env")
	req.NoError(os.WriteFile(path, []byte("PRESENCE_OUTBOUND_BUFFER=8\n"), 0o600))
	t.Cleanup(func() { _ = os.Unsetenv("PRESENCE_OUTBOUND_BUFFER") })

	config, err := loadConfig(path)

	req.NoError(err)
	req.Equal(8, config.OutboundBuffer)
}

func TestLoadConfig_Rejects(t *testing.T) {
	tests := map[string]struct {
		key, value string
	}{
		"port out of range":  {"PRESENCE_PORT", "70000"},
		"empty queue":        {"PRESENCE_OUTBOUND_BUFFER", "0"},
		"no write timeout":   {"PRESENCE_WRITE_TIMEOUT", "0s"},
		"unknown log level":  {"LOG_LEVEL", "LOUD"},
		"port is not a port": {"PRESENCE_PORT", "abc"},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)

			_, err := loadConfig("")

			require.Error(t, err)
		})
	}
}
