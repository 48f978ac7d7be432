package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/m3rciful/prefixbot/core/bootstrap"
	coreconfig "github.com/m3rciful/prefixbot/core/config"
	"github.com/m3rciful/prefixbot/core/logger"
	"github.com/m3rciful/prefixbot/core/supervisor"
	coretelegram "github.com/m3rciful/prefixbot/core/telegram"
)

// Options describe how to load configuration, bootstrap the app, and run it.
type Options struct {
	// ConfigEnvVar names the variable holding the YAML path; default CONFIG_PATH.
	ConfigEnvVar string
	// DefaultConfigPath is used when the variable is unset and the file exists.
	DefaultConfigPath string
	// EnvFiles are loaded into the environment first; default ".env".
	EnvFiles []string

	LoadConfig func(path string) (*coreconfig.Config, error)
	Telegram   func(*coreconfig.Config) (coretelegram.RunOptions, error)
	LoggerInit func(*coreconfig.Config) error

	ShutdownLogger func() error
	// Context is the parent of the signal context; default context.Background.
	Context context.Context
}

// Run loads configuration, builds the liveness server and the update loop,
// and supervises both until SIGINT or SIGTERM. It returns nil on a clean
// shutdown and an error when startup or a component fails.
func Run(opts Options) error {
	if opts.Telegram == nil {
		return fmt.Errorf("cmd: Telegram is required")
	}
	loadConfig := opts.LoadConfig
	if loadConfig == nil {
		loadConfig = coreconfig.Load
	}

	envFiles := opts.EnvFiles
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	loadEnvFiles(envFiles)

	cfgPath := resolveConfigPath(opts.ConfigEnvVar, opts.DefaultConfigPath)
	if cfgPath != "" {
		log.Printf("loading config: %s", cfgPath)
	}
	cfg, err := loadConfig(cfgPath)
	if err != nil {
		return fmt.Errorf("cmd: failed to load config: %w", err)
	}

	app, err := bootstrap.Run(bootstrap.Options{
		Config:     cfg,
		LoggerInit: opts.LoggerInit,
		Telegram:   opts.Telegram,
	})
	if err != nil {
		return fmt.Errorf("cmd: bootstrap failed: %w", err)
	}

	shutdownLogger := opts.ShutdownLogger
	if shutdownLogger == nil {
		shutdownLogger = logger.Shutdown
	}
	defer func() {
		if err := shutdownLogger(); err != nil {
			log.Printf("logger shutdown error: %v", err)
		}
	}()

	parent := opts.Context
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	err = supervisor.New(app.Components()...).Run(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Component("app").LogAttrs(context.Background(), slog.LevelError, "app failed",
			slog.String("event", "failed"),
			slog.String("status", "fail"),
			slog.String("err", err.Error()),
		)
		return err
	}
	logger.Component("app").LogAttrs(context.Background(), slog.LevelInfo, "app stopped",
		slog.String("event", "stopped"),
		slog.String("status", "ok"),
	)
	return nil
}

// loadEnvFiles loads existing files; a missing .env is normal in production.
func loadEnvFiles(files []string) {
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			log.Printf("env file %s: %v", f, err)
		}
	}
}

func resolveConfigPath(envVar, fallback string) string {
	if envVar == "" {
		envVar = "CONFIG_PATH"
	}
	if p := os.Getenv(envVar); p != "" {
		return p
	}
	if fallback == "" {
		return ""
	}
	if _, err := os.Stat(fallback); err != nil {
		return ""
	}
	return fallback
}
