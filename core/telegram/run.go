package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	coreconfig "github.com/m3rciful/prefixbot/core/config"
	"github.com/m3rciful/prefixbot/core/logger"
	"github.com/m3rciful/prefixbot/core/metrics"
	tghelpers "github.com/m3rciful/prefixbot/core/telegram/helpers"
	"github.com/m3rciful/prefixbot/core/telegram/tgerr"

	tele "gopkg.in/telebot.v4"
)

// ErrLoopStopped is returned when the client stops polling on its own.
var ErrLoopStopped = errors.New("telegram: update loop stopped unexpectedly")

// RunOptions controls the behaviour of the UpdateLoop.
type RunOptions struct {
	Config   *coreconfig.Config
	Registry *Registry

	Middlewares []Middleware
	Routes      []Route

	// Poller replaces the long poller built from Config.
	Poller tele.Poller
	// Offline skips the getMe call on start.
	Offline bool

	OnStart func(ctx context.Context, rt Runtime) error
	OnStop  func(ctx context.Context, rt Runtime) error
}

// Runtime exposes runtime components to lifecycle hooks.
type Runtime struct {
	Bot      *tele.Bot
	Me       *tele.User
	Registry *Registry
}

// UpdateLoop long-polls Telegram and dispatches updates one at a time.
type UpdateLoop struct {
	opts RunOptions
	gate dispatchGate
}

// NewUpdateLoop validates opts and returns a loop ready to Run.
func NewUpdateLoop(opts RunOptions) (*UpdateLoop, error) {
	if opts.Config == nil {
		return nil, fmt.Errorf("telegram: nil config provided")
	}
	if opts.Config.Telegram.Token == "" {
		return nil, coreconfig.ErrMissingToken
	}
	if opts.Registry == nil {
		opts.Registry = NewRegistry()
	}
	return &UpdateLoop{opts: opts}, nil
}

// Name implements the supervisor component contract.
func (l *UpdateLoop) Name() string { return "telegram" }

// Run connects the client, drops the pending backlog if configured, and polls
// until ctx is done. ready is called once polling has started. On shutdown
// the in-flight update is allowed to finish before polling stops.
func (l *UpdateLoop) Run(ctx context.Context, ready func()) error {
	cfg := l.opts.Config
	reg := l.opts.Registry
	reg.Freeze()

	longPoll := time.Duration(cfg.Telegram.LongPollTimeoutSeconds) * time.Second
	poller := l.opts.Poller
	if poller == nil {
		poller = BuildPoller(PollerOptions{LongPollTimeoutSeconds: cfg.Telegram.LongPollTimeoutSeconds})
	}

	buildStart := time.Now()
	bot, err := tele.NewBot(tele.Settings{
		Token:       cfg.Telegram.Token,
		URL:         cfg.Telegram.APIURL,
		Poller:      poller,
		Client:      BuildHTTPClient(longPoll),
		Synchronous: true,
		Offline:     l.opts.Offline,
		OnError:     onError,
	})
	if err != nil {
		return fmt.Errorf("telegram: bot initialization failed: %w", tgerr.Sanitize(err))
	}
	logger.LogEvent(ctx, logger.TG, slog.LevelInfo, "mode",
		slog.String("status", "ok"),
		slog.String("mode", "polling"),
		slog.String("username", bot.Me.Username),
		slog.Duration("longpoll_timeout", longPoll),
		slog.Duration("duration", time.Since(buildStart)),
	)

	if err := ctx.Err(); err != nil {
		return err
	}
	if cfg.Telegram.DropPendingUpdates == nil || *cfg.Telegram.DropPendingUpdates {
		dropPending(ctx, bot)
	}

	bot.Use(l.gate.middleware)
	for _, mw := range l.opts.Middlewares {
		if mw.Use == nil {
			continue
		}
		bot.Use(mw.Use)
	}
	for _, route := range l.opts.Routes {
		if route.Endpoint == nil || route.Handler == nil {
			continue
		}
		bot.Handle(route.Endpoint, route.Handler)
	}
	logger.LogEvent(ctx, logger.TWire, slog.LevelInfo, "complete",
		slog.String("status", "ok"),
		slog.Int("middlewares", len(l.opts.Middlewares)),
		slog.Int("routes", len(l.opts.Routes)),
		slog.Int("commands", reg.Len()),
	)

	InitBotCommands(ctx, bot, reg)

	rt := Runtime{Bot: bot, Me: bot.Me, Registry: reg}
	if l.opts.OnStart != nil {
		if err := l.opts.OnStart(ctx, rt); err != nil {
			return fmt.Errorf("telegram: start hook: %w", err)
		}
	}

	// a sibling may have failed while the client was being set up
	if err := ctx.Err(); err != nil {
		return err
	}

	runDone := make(chan struct{})
	go func() {
		bot.Start()
		close(runDone)
	}()
	ready()

	select {
	case <-ctx.Done():
		l.stop(cfg, bot)
		<-runDone
	case <-runDone:
		return ErrLoopStopped
	}

	if l.opts.OnStop != nil {
		if err := l.opts.OnStop(context.WithoutCancel(ctx), rt); err != nil {
			return fmt.Errorf("telegram: stop hook: %w", err)
		}
	}
	return nil
}

func (l *UpdateLoop) stop(cfg *coreconfig.Config, bot *tele.Bot) {
	start := time.Now()
	timeout := time.Duration(cfg.Health.ShutdownTimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = time.Duration(coreconfig.DefaultShutdownTimeoutSeconds) * time.Second
	}
	drainCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	status := "ok"
	if err := l.gate.close(drainCtx); err != nil {
		status = "cancelled"
	}
	bot.Stop()
	logger.LogEvent(context.Background(), logger.TG, slog.LevelInfo, "stopped",
		slog.String("status", status),
		slog.Duration("duration", time.Since(start)),
	)
}

func dropPending(ctx context.Context, bot *tele.Bot) {
	if err := bot.RemoveWebhook(true); err != nil {
		logger.LogEvent(ctx, logger.TG, slog.LevelWarn, "delete_webhook",
			slog.String("status", "fail"),
			slog.String("err_kind", tgerr.Classify(err)),
			slog.String("err", tgerr.Redact(err)),
		)
		return
	}
	logger.LogEvent(ctx, logger.TG, slog.LevelInfo, "delete_webhook",
		slog.String("status", "ok"),
		slog.Bool("drop_pending_updates", true),
	)
}

// onError receives handler errors with their context and poller errors with
// a nil context. Neither stops the loop.
func onError(err error, c tele.Context) {
	if err == nil {
		return
	}
	class := tgerr.Classify(err)
	metrics.TelegramErrors.WithLabelValues(class).Inc()

	if c == nil {
		logger.LogEvent(context.Background(), logger.TG, slog.LevelWarn, "poll.failed",
			slog.String("status", "fail"),
			slog.String("err_kind", class),
			slog.String("err", logger.SanitizeLimit(tgerr.Redact(err), 256)),
		)
		return
	}
	logger.LogEvent(tghelpers.BuildContext(c), logger.TG, slog.LevelError, "update.failed",
		slog.String("status", "fail"),
		slog.String("outcome", "dropped"),
		slog.String("err_kind", class),
		slog.String("err", logger.SanitizeLimit(tgerr.Redact(err), 256)),
	)
}
