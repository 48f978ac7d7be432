package bot

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/m3rciful/prefixbot/core/config"
	"github.com/m3rciful/prefixbot/core/logger"
	"github.com/m3rciful/prefixbot/core/metrics"
	tg "github.com/m3rciful/prefixbot/core/telegram"
	"github.com/m3rciful/prefixbot/core/telegram/router"
	"github.com/m3rciful/prefixbot/core/telegram/state"
)

// RunOptions assembles the update loop of the bot: a fresh session memory,
// the command registry and the tagged router.
func RunOptions(cfg *config.Config) (tg.RunOptions, error) {
	if cfg == nil {
		return tg.RunOptions{}, fmt.Errorf("bot: nil config")
	}
	memory := state.NewMemory()
	h := New(cfg.Bot, memory)
	reg := tg.NewRegistry()
	if err := h.Register(reg); err != nil {
		return tg.RunOptions{}, fmt.Errorf("bot: register commands: %w", err)
	}
	r := router.New(reg, router.Options{Callback: h.Callback, Text: h.Text})

	return tg.RunOptions{
		Config:      cfg,
		Registry:    reg,
		Middlewares: tg.DefaultMiddlewares(),
		Routes:      r.Routes(),
		OnStart: func(_ context.Context, rt tg.Runtime) error {
			if rt.Me != nil {
				r.SetBotUsername(rt.Me.Username)
			}
			return nil
		},
		OnStop: func(ctx context.Context, _ tg.Runtime) error {
			// selections live only as long as the process
			logger.LogEvent(ctx, logger.TG, slog.LevelInfo, "selections.discarded",
				slog.String("status", "ok"),
				slog.Int("count", memory.Len()),
			)
			metrics.PendingSelections.Set(0)
			return nil
		},
	}, nil
}
