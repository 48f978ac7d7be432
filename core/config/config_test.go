package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func unsetEnv(t *testing.T, key string) {
	t.Helper()
	t.Setenv(key, "")
	require.NoError(t, os.Unsetenv(key))
}

func TestLoadRequiresToken(t *testing.T) {
	unsetEnv(t, "BOT_TOKEN")

	cfg, err := Load("")

	require.ErrorIs(t, err, ErrMissingToken)
	assert.Nil(t, cfg)
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("BOT_TOKEN", "123:abc")
	unsetEnv(t, "PORT")

	cfg, err := Load("")

	require.NoError(t, err)
	assert.Equal(t, "123:abc", cfg.Telegram.Token)
	assert.Equal(t, DefaultPort, cfg.Health.Port)
	assert.Equal(t, ":10000", cfg.Health.Addr())
	assert.Equal(t, DefaultLongPollTimeoutSeconds, cfg.Telegram.LongPollTimeoutSeconds)
	require.NotNil(t, cfg.Telegram.DropPendingUpdates)
	assert.True(t, *cfg.Telegram.DropPendingUpdates)
	require.NotNil(t, cfg.Health.WebhookEndpoint)
	assert.True(t, *cfg.Health.WebhookEndpoint)
	assert.Equal(t, DefaultBot().Buttons, cfg.Bot.Buttons)
}

func TestLoadPortFromEnv(t *testing.T) {
	t.Setenv("BOT_TOKEN", "123:abc")
	t.Setenv("PORT", "8081")

	cfg, err := Load("")

	require.NoError(t, err)
	assert.Equal(t, 8081, cfg.Health.Port)
}

func TestLoadInvalidPort(t *testing.T) {
	t.Setenv("BOT_TOKEN", "123:abc")
	t.Setenv("PORT", "not-a-number")

	_, err := Load("")

	require.Error(t, err)
}

func TestLoadYAMLThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	data := `
telegram:
  token: from-file
  drop_pending_updates: false
health:
  port: 9000
  metrics_path: /metrics
bot:
  prompt: "Choose first"
  buttons:
    - - label: Alpha
        id: a
      - label: Beta
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))
	t.Setenv("BOT_TOKEN", "from-env")
	unsetEnv(t, "PORT")

	cfg, err := Load(path)

	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Telegram.Token)
	assert.Equal(t, 9000, cfg.Health.Port)
	assert.Equal(t, "/metrics", cfg.Health.MetricsPath)
	assert.False(t, *cfg.Telegram.DropPendingUpdates)
	assert.Equal(t, "Choose first", cfg.Bot.Prompt)
	assert.Equal(t, [][]ButtonConfig{{{Label: "Alpha", ID: "a"}, {Label: "Beta", ID: "Beta"}}}, cfg.Bot.Buttons)
}

func TestNormalizeRejectsBadMetricsPath(t *testing.T) {
	for _, p := range []string{"metrics", "/", "/webhook"} {
		cfg := &Config{Telegram: TelegramConfig{Token: "t"}, Health: HealthConfig{MetricsPath: p}}
		assert.Error(t, Normalize(cfg), p)
	}
}

func TestNormalizeSelectedNeedsVerb(t *testing.T) {
	cfg := &Config{Telegram: TelegramConfig{Token: "t"}, Bot: BotConfig{Selected: "no verb"}}

	require.NoError(t, Normalize(cfg))

	assert.Equal(t, DefaultBot().Selected, cfg.Bot.Selected)
}

func TestNormalizeRejectsLongButtonID(t *testing.T) {
	long := strings.Repeat("x", 65)
	cfg := &Config{
		Telegram: TelegramConfig{Token: "t"},
		Bot:      BotConfig{Buttons: [][]ButtonConfig{{{Label: long}}}},
	}

	require.Error(t, Normalize(cfg))
}

func TestNormalizeRejectsDuplicateButtonID(t *testing.T) {
	cfg := &Config{
		Telegram: TelegramConfig{Token: "t"},
		Bot: BotConfig{Buttons: [][]ButtonConfig{
			{{Label: "Same"}, {Label: "Other", ID: "o"}},
			{{Label: "Same"}},
		}},
	}

	err := Normalize(cfg)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate button id")
}
