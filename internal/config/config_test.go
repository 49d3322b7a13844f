package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	t.Run("Defaults fill missing keys", func(t *testing.T) {
		// Given: a file that only sets the log level
		path := writeConfig(t, "log-level: debug\n")

		// When: it is loaded
		conf, err := Load(path)
		require.NoError(t, err)

		// Then: everything else comes from the defaults
		assert.Equal(t, "debug", conf.LogLevel)
		assert.Equal(t, "8080", conf.SocketPort)
		assert.Equal(t, Game{BoardSize: 3, CountdownTicks: 3, CountdownInterval: time.Second, HintLimit: 1, MaxBoardSize: 9}, conf.Game)
		assert.Equal(t, Bot{NormalDepth: 6, HardDepth: 8}, conf.Bot)
		assert.Equal(t, 30*time.Second, conf.WebSocket.PingInterval)
		assert.False(t, conf.Redis.Enabled)
	})

	t.Run("File values", func(t *testing.T) {
		path := writeConfig(t, `
game:
  board-size: 5
  countdown-interval: 250ms
redis:
  enabled: true
  host: cache
`)

		conf, err := Load(path)
		require.NoError(t, err)

		assert.Equal(t, 5, conf.Game.BoardSize)
		assert.Equal(t, 250*time.Millisecond, conf.Game.CountdownInterval)
		assert.True(t, conf.Redis.Enabled)
		assert.Equal(t, "cache:6379", conf.Redis.GetRedisAddr())
	})

	t.Run("Environment overrides the file", func(t *testing.T) {
		path := writeConfig(t, "game:\n  hint-limit: 1\n")
		t.Setenv("GAME_HINT_LIMIT", "4")

		conf, err := Load(path)
		require.NoError(t, err)

		assert.Equal(t, 4, conf.Game.HintLimit)
	})

	t.Run("Invalid values are rejected", func(t *testing.T) {
		for name, content := range map[string]string{
			"small board":    "game:\n  board-size: 2\n",
			"board over max": "game:\n  board-size: 12\n  max-board-size: 10\n",
			"negative hints": "game:\n  hint-limit: -1\n",
			"negative depth": "bot:\n  hard-depth: -1\n",
		} {
			t.Run(name, func(t *testing.T) {
				_, err := Load(writeConfig(t, content))
				require.ErrorIs(t, err, ErrInvalidConfig)
			})
		}
	})

	t.Run("Missing file", func(t *testing.T) {
		assert.Panics(t, func() {
			MustLoad(filepath.Join(t.TempDir(), "absent.yml"))
		})
	})
}
