package router

import (
	"log/slog"
	"strings"
	"time"

	"github.com/m3rciful/prefixbot/core/logger"
	"github.com/m3rciful/prefixbot/core/metrics"
	tghelpers "github.com/m3rciful/prefixbot/core/telegram/helpers"
	"github.com/m3rciful/prefixbot/core/telegram/middleware"
	"github.com/m3rciful/prefixbot/core/telegram/tgerr"

	tele "gopkg.in/telebot.v4"
)

func handleWithSummary(c tele.Context, ev Event, handlerName string, start time.Time, h tele.HandlerFunc, extras ...slog.Attr) error {
	tghelpers.WithHandler(c, handlerName)
	err := h(c)
	logHandlerSummary(c, ev, handlerName, start, err, extras...)
	return err
}

func logHandlerSummary(c tele.Context, ev Event, handlerName string, start time.Time, err error, extras ...slog.Attr) {
	ctx := tghelpers.WithHandler(c, handlerName)
	msgs, kb := middleware.GetCounters(c)
	took := time.Since(start)

	status := logger.Status(err)
	metrics.UpdatesTotal.WithLabelValues(ev.Kind.String(), status).Inc()
	metrics.HandlerDuration.WithLabelValues(ev.Kind.String()).Observe(took.Seconds())

	attrs := []slog.Attr{
		slog.String("status", status),
		slog.String("kind", ev.Kind.String()),
		slog.String("handler", handlerName),
		slog.String("outcome", status),
		slog.Int("messages", msgs),
		slog.Bool("kb", kb),
		slog.Duration("duration", took),
	}
	if err != nil {
		attrs = append(attrs, slog.String("err_kind", tgerr.Classify(err)))
	}
	attrs = append(attrs, extras...)
	logger.LogEvent(ctx, logger.TG, slog.LevelInfo, "handler.handled", attrs...)
}

func dropUpdate(c tele.Context, ev Event, start time.Time, reason string) {
	metrics.UpdatesTotal.WithLabelValues(ev.Kind.String(), "dropped").Inc()
	if !logger.ShouldSampleDebug() {
		return
	}
	attrs := []slog.Attr{
		slog.String("status", "skip"),
		slog.String("kind", ev.Kind.String()),
		slog.String("outcome", "dropped"),
		slog.String("reason", reason),
		slog.Duration("duration", time.Since(start)),
	}
	if ev.Command != "" {
		attrs = append(attrs, slog.String("command", logger.SanitizeLimit(ev.Command, 64)))
	}
	logger.LogEvent(tghelpers.BuildContext(c), logger.TG, slog.LevelDebug, "update.dropped", attrs...)
}

func normalizeHandlerName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "unknown"
	}
	name = strings.TrimPrefix(name, "/")
	name = strings.ReplaceAll(name, " ", "_")
	return strings.ToLower(name)
}
