package bootstrap

import (
	"fmt"
	"time"

	coreconfig "github.com/m3rciful/prefixbot/core/config"
	"github.com/m3rciful/prefixbot/core/health"
	"github.com/m3rciful/prefixbot/core/logger"
	"github.com/m3rciful/prefixbot/core/supervisor"
	coretelegram "github.com/m3rciful/prefixbot/core/telegram"
)

// Options control the bootstrap pipeline.
type Options struct {
	Config *coreconfig.Config

	LoggerInit func(*coreconfig.Config) error
	// Telegram builds the update loop options of the application.
	Telegram func(*coreconfig.Config) (coretelegram.RunOptions, error)
}

// Result exposes the components built by the bootstrap pipeline.
type Result struct {
	Health     *health.Server
	UpdateLoop *coretelegram.UpdateLoop
}

// Components lists the parts to hand to the supervisor.
func (r *Result) Components() []supervisor.Component {
	return []supervisor.Component{r.UpdateLoop, r.Health}
}

// Run initializes the logger and builds the liveness server and the update loop.
// Nothing is bound or contacted yet.
func Run(opts Options) (*Result, error) {
	if opts.Config == nil {
		return nil, fmt.Errorf("bootstrap: nil config provided")
	}
	if opts.Telegram == nil {
		return nil, fmt.Errorf("bootstrap: Telegram options builder is required")
	}
	cfg := opts.Config

	loggerInit := opts.LoggerInit
	if loggerInit == nil {
		loggerInit = logger.InitLogger
	}
	if err := loggerInit(cfg); err != nil {
		return nil, fmt.Errorf("bootstrap: logger init failed: %w", err)
	}

	runOpts, err := opts.Telegram(cfg)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: telegram options build failed: %w", err)
	}
	if runOpts.Config == nil {
		runOpts.Config = cfg
	}
	loop, err := coretelegram.NewUpdateLoop(runOpts)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: %w", err)
	}

	webhook := cfg.Health.WebhookEndpoint == nil || *cfg.Health.WebhookEndpoint
	srv := health.New(health.Options{
		Addr:            cfg.Health.Addr(),
		Webhook:         webhook,
		MetricsPath:     cfg.Health.MetricsPath,
		ShutdownTimeout: time.Duration(cfg.Health.ShutdownTimeoutSeconds) * time.Second,
	})

	return &Result{Health: srv, UpdateLoop: loop}, nil
}
