package middleware

import (
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/m3rciful/prefixbot/core/logger"
	"github.com/m3rciful/prefixbot/core/metrics"
	tghelpers "github.com/m3rciful/prefixbot/core/telegram/helpers"
	"github.com/m3rciful/prefixbot/core/telegram/tgerr"

	tele "gopkg.in/telebot.v4"
)

// RecoverMiddleware turns a handler panic into an error wrapping tgerr.ErrPanic,
// so the update is dropped and the loop keeps running.
func RecoverMiddleware(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) (err error) {
		defer func() {
			if r := recover(); r != nil {
				metrics.HandlerPanics.Inc()
				logger.LogEvent(tghelpers.BuildContext(c), logger.TG, slog.LevelError, "tg.panic",
					slog.String("status", "fail"),
					slog.String("err", fmt.Sprint(r)),
					slog.String("stack", string(debug.Stack())),
				)
				err = fmt.Errorf("%w: %v", tgerr.ErrPanic, r)
			}
		}()
		return next(c)
	}
}
