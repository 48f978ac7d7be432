package bot

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/m3rciful/prefixbot/core/config"
	"github.com/m3rciful/prefixbot/core/logger"
	"github.com/m3rciful/prefixbot/core/metrics"
	tg "github.com/m3rciful/prefixbot/core/telegram"
	"github.com/m3rciful/prefixbot/core/telegram/callbacks"
	"github.com/m3rciful/prefixbot/core/telegram/helpers"
	"github.com/m3rciful/prefixbot/core/telegram/state"
	"github.com/m3rciful/prefixbot/core/telegram/tgerr"

	tele "gopkg.in/telebot.v4"
)

var (
	// ErrNoSender is returned for updates without a user to key the selection by.
	ErrNoSender = errors.New("bot: update has no sender")
	// ErrUnknownButton is returned for callback data outside the button grid.
	ErrUnknownButton = errors.New("bot: unknown button")
)

// Handlers implements the bot commands, button callbacks and text replies.
type Handlers struct {
	texts   config.BotConfig
	buttons Buttons
	memory  state.Store
	reg     *tg.Registry
}

// New returns handlers reading and writing selections in memory.
func New(cfg config.BotConfig, memory state.Store) *Handlers {
	return &Handlers{
		texts:   cfg,
		buttons: NewButtons(cfg.Buttons),
		memory:  memory,
	}
}

// Register adds /start and /help to reg.
func (h *Handlers) Register(reg *tg.Registry) error {
	h.reg = reg
	if err := reg.Register("/start", tg.Command{Handler: h.Start, Description: "Show the buttons"}); err != nil {
		return err
	}
	return reg.Register("/help", tg.Command{Handler: h.Help, Description: "How to use the bot"})
}

// Start greets the user and shows the buttons.
func (h *Handlers) Start(c tele.Context) error {
	return c.Send(h.texts.Greeting, h.buttons.Markup())
}

// Help replies with the help text and the command list.
func (h *Handlers) Help(c tele.Context) error {
	var b strings.Builder
	b.WriteString(h.texts.Help)
	if h.reg != nil {
		if cmds := h.reg.ListCommands(true); len(cmds) > 0 {
			b.WriteString("\n")
			for _, cmd := range cmds {
				fmt.Fprintf(&b, "\n%s - %s", cmd.Text, cmd.Description)
			}
		}
	}
	return c.Send(b.String())
}

// Callback acknowledges a button press, stores its id as the user's prefix
// and confirms the choice in the originating message.
func (h *Handlers) Callback(c tele.Context) error {
	user := c.Sender()
	if user == nil || c.Callback() == nil {
		return ErrNoSender
	}
	id := callbacks.CallbackKey(c)
	btn, ok := h.buttons.Lookup(id)
	if !ok {
		_ = c.Respond(&tele.CallbackResponse{Text: "Unsupported action"})
		return fmt.Errorf("%w: %q", ErrUnknownButton, id)
	}
	if err := c.Respond(); err != nil {
		// an expired query cannot be answered; the selection still counts
		logger.LogEvent(helpers.BuildContext(c), logger.TG, slog.LevelWarn, "callback.ack",
			slog.String("status", "fail"),
			slog.String("err_kind", tgerr.Classify(err)),
			slog.String("err", tgerr.Redact(err)),
		)
	}

	h.memory.Put(user.ID, btn.ID)
	metrics.PendingSelections.Set(float64(h.memory.Len()))

	return c.Edit(fmt.Sprintf(h.texts.Selected, btn.Label))
}

// Text prefixes the message with the pending selection and clears it, or
// asks the user to pick a button first. The buttons are shown either way.
// A selection is only consumed once the prefixed reply went out.
func (h *Handlers) Text(c tele.Context) error {
	user := c.Sender()
	if user == nil {
		return ErrNoSender
	}
	prefix, ok := h.memory.Peek(user.ID)
	if !ok {
		return c.Send(h.texts.Prompt, h.buttons.Markup())
	}
	if err := c.Send(prefix+": "+c.Text(), h.buttons.Markup()); err != nil {
		return fmt.Errorf("bot: send prefixed text: %w", err)
	}
	h.memory.Take(user.ID)
	metrics.PendingSelections.Set(float64(h.memory.Len()))
	return nil
}
