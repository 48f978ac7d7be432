package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// ErrMissingToken is returned when no Telegram token is configured.
var ErrMissingToken = errors.New("config: BOT_TOKEN is required")

const (
	// DefaultPort is the liveness port used when PORT is not set.
	DefaultPort = 10000
	// DefaultLongPollTimeoutSeconds is the long poll timeout used when none is configured.
	DefaultLongPollTimeoutSeconds = 10
	// DefaultShutdownTimeoutSeconds bounds how long in-flight probes may drain.
	DefaultShutdownTimeoutSeconds = 10

	// Telegram rejects callback_data longer than this.
	maxCallbackIDLen = 64
)

// TelegramConfig holds settings of the Telegram client.
type TelegramConfig struct {
	Token string `yaml:"token" envconfig:"BOT_TOKEN"`
	// APIURL overrides the Bot API base URL; empty -> telebot default.
	APIURL string `yaml:"api_url" envconfig:"TELEGRAM_API_URL"`
	// LongPollTimeoutSeconds defines long polling timeout; 0 -> default
	LongPollTimeoutSeconds int   `yaml:"longpoll_timeout_seconds" envconfig:"TELEGRAM_LONGPOLL_TIMEOUT_SECONDS"`
	DropPendingUpdates     *bool `yaml:"drop_pending_updates" envconfig:"TELEGRAM_DROP_PENDING_UPDATES"`
}

// HealthConfig describes the liveness HTTP listener.
type HealthConfig struct {
	Listen          string `yaml:"listen" envconfig:"HEALTH_LISTEN"`
	Port            int    `yaml:"port" envconfig:"PORT"`
	WebhookEndpoint *bool  `yaml:"webhook_endpoint" envconfig:"HEALTH_WEBHOOK_ENDPOINT"`
	// MetricsPath mounts the Prometheus handler when non-empty.
	MetricsPath            string `yaml:"metrics_path" envconfig:"HEALTH_METRICS_PATH"`
	ShutdownTimeoutSeconds int    `yaml:"shutdown_timeout_seconds" envconfig:"HEALTH_SHUTDOWN_TIMEOUT_SECONDS"`
}

// LoggingConfig defines logging related configuration.
type LoggingConfig struct {
	Level       string `yaml:"level" envconfig:"LOG_LEVEL"`
	Format      string `yaml:"format" envconfig:"LOG_FORMAT"`
	KeysOrder   string `yaml:"keys_order" envconfig:"LOG_KEYS_ORDER"`
	DebugSample string `yaml:"debug_sample" envconfig:"LOG_DEBUG_SAMPLE"`
	Dir         string `yaml:"dir" envconfig:"LOG_DIR"`
	File        string `yaml:"file" envconfig:"LOG_FILE"`
	// Profile indicates environment profile such as "debug" or "prod".
	Profile string `yaml:"profile" envconfig:"LOG_PROFILE"`
}

// ButtonConfig is a single inline button: the visible label and the opaque
// callback id stored as the user's prefix.
type ButtonConfig struct {
	Label string `yaml:"label"`
	ID    string `yaml:"id"`
}

// BotConfig carries the texts and the button grid shown to users.
type BotConfig struct {
	Greeting string           `yaml:"greeting"`
	Help     string           `yaml:"help"`
	Prompt   string           `yaml:"prompt"`
	Selected string           `yaml:"selected"`
	Buttons  [][]ButtonConfig `yaml:"buttons"`
}

// Config aggregates the whole process configuration.
type Config struct {
	Telegram TelegramConfig `yaml:"telegram"`
	Health   HealthConfig   `yaml:"health"`
	Logging  LoggingConfig  `yaml:"logging"`
	Bot      BotConfig      `yaml:"bot" ignored:"true"`
}

// Load reads configuration from an optional YAML file and environment variables.
// An empty path skips the file layer.
func Load(path string) (*Config, error) {
	var cfg Config

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("config: failed to parse YAML config: %w", err)
		}
	}
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("config: failed to process env: %w", err)
	}

	if err := Normalize(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Normalize validates required fields and fills defaults.
func Normalize(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config: nil config")
	}

	cfg.Telegram.Token = strings.TrimSpace(cfg.Telegram.Token)
	if cfg.Telegram.Token == "" {
		return ErrMissingToken
	}
	if cfg.Telegram.LongPollTimeoutSeconds < 0 {
		return fmt.Errorf("config: telegram.longpoll_timeout_seconds must be >= 0")
	}
	if cfg.Telegram.LongPollTimeoutSeconds == 0 {
		cfg.Telegram.LongPollTimeoutSeconds = DefaultLongPollTimeoutSeconds
	}
	if cfg.Telegram.DropPendingUpdates == nil {
		cfg.Telegram.DropPendingUpdates = boolPtr(true)
	}

	if cfg.Health.Port == 0 {
		cfg.Health.Port = DefaultPort
	}
	if cfg.Health.Port < 0 || cfg.Health.Port > 65535 {
		return fmt.Errorf("config: invalid port %d; allowed: 1-65535", cfg.Health.Port)
	}
	cfg.Health.Listen = strings.TrimSpace(cfg.Health.Listen)
	if cfg.Health.WebhookEndpoint == nil {
		cfg.Health.WebhookEndpoint = boolPtr(true)
	}
	if cfg.Health.ShutdownTimeoutSeconds < 0 {
		return fmt.Errorf("config: health.shutdown_timeout_seconds must be >= 0")
	}
	if cfg.Health.ShutdownTimeoutSeconds == 0 {
		cfg.Health.ShutdownTimeoutSeconds = DefaultShutdownTimeoutSeconds
	}
	mp := strings.TrimSpace(cfg.Health.MetricsPath)
	if mp != "" {
		if !strings.HasPrefix(mp, "/") || mp == "/" || mp == "/webhook" {
			return fmt.Errorf("config: invalid health.metrics_path %q", cfg.Health.MetricsPath)
		}
	}
	cfg.Health.MetricsPath = mp

	return normalizeBot(&cfg.Bot)
}

// Addr returns the host:port the liveness listener binds to.
func (h HealthConfig) Addr() string {
	return fmt.Sprintf("%s:%d", h.Listen, h.Port)
}

func normalizeBot(b *BotConfig) error {
	def := DefaultBot()
	if strings.TrimSpace(b.Greeting) == "" {
		b.Greeting = def.Greeting
	}
	if strings.TrimSpace(b.Help) == "" {
		b.Help = def.Help
	}
	if strings.TrimSpace(b.Prompt) == "" {
		b.Prompt = def.Prompt
	}
	if !strings.Contains(b.Selected, "%s") {
		b.Selected = def.Selected
	}

	rows := make([][]ButtonConfig, 0, len(b.Buttons))
	seen := make(map[string]struct{})
	for _, row := range b.Buttons {
		kept := make([]ButtonConfig, 0, len(row))
		for _, btn := range row {
			btn.Label = strings.TrimSpace(btn.Label)
			btn.ID = strings.TrimSpace(btn.ID)
			if btn.Label == "" {
				continue
			}
			if btn.ID == "" {
				btn.ID = btn.Label
			}
			if len(btn.ID) > maxCallbackIDLen {
				return fmt.Errorf("config: button id %q exceeds %d bytes", btn.ID, maxCallbackIDLen)
			}
			if _, dup := seen[btn.ID]; dup {
				return fmt.Errorf("config: duplicate button id %q", btn.ID)
			}
			seen[btn.ID] = struct{}{}
			kept = append(kept, btn)
		}
		if len(kept) > 0 {
			rows = append(rows, kept)
		}
	}
	if len(rows) == 0 {
		rows = def.Buttons
	}
	b.Buttons = rows
	return nil
}

// DefaultBot returns the built-in texts and the 2x2 button grid.
func DefaultBot() BotConfig {
	return BotConfig{
		Greeting: "Hi! Pick a button, then send me a message and I will prefix it with your choice.",
		Help:     "Pick a button under /start, then send any text. The next message gets your selection as a prefix.",
		Prompt:   "Select a button first.",
		Selected: "Selected: %s. Now send a message.",
		Buttons: [][]ButtonConfig{
			{{Label: "Button 1", ID: "Button 1"}, {Label: "Button 2", ID: "Button 2"}},
			{{Label: "Button 3", ID: "Button 3"}, {Label: "Button 4", ID: "Button 4"}},
		},
	}
}

func boolPtr(v bool) *bool { return &v }
