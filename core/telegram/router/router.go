package router

import (
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	tg "github.com/m3rciful/prefixbot/core/telegram"
	"github.com/m3rciful/prefixbot/core/telegram/callbacks"

	tele "gopkg.in/telebot.v4"
)

// Kind tags an inbound update with the handler family it belongs to.
type Kind int

const (
	KindUnknown Kind = iota
	KindCommand
	KindCallback
	KindText
)

func (k Kind) String() string {
	switch k {
	case KindCommand:
		return "command"
	case KindCallback:
		return "callback"
	case KindText:
		return "text"
	default:
		return "unknown"
	}
}

// Event is the classified form of an update.
type Event struct {
	Kind Kind
	// Command is the lower-cased "/name" without the @mention.
	Command string
	// Mention is the bot username a command was addressed to, if any.
	Mention    string
	Payload    string
	CallbackID string
	Text       string
}

// Classify tags the update carried by c. Callback queries win over the
// message they are attached to; edited messages and media are unknown.
func Classify(c tele.Context) Event {
	upd := c.Update()
	switch {
	case upd.Callback != nil:
		key, payload := callbacks.ParseCallbackData(upd.Callback)
		return Event{Kind: KindCallback, CallbackID: key, Payload: payload}
	case upd.Message != nil && upd.Message.Text != "":
		text := upd.Message.Text
		if name, mention, payload, ok := parseCommand(text); ok {
			return Event{Kind: KindCommand, Command: name, Mention: mention, Payload: payload}
		}
		return Event{Kind: KindText, Text: text}
	}
	return Event{Kind: KindUnknown}
}

func parseCommand(text string) (name, mention, payload string, ok bool) {
	if !strings.HasPrefix(text, "/") {
		return "", "", "", false
	}
	head, rest, _ := strings.Cut(text, " ")
	head, mention, _ = strings.Cut(head, "@")
	if len(head) < 2 {
		return "", "", "", false
	}
	return strings.ToLower(head), mention, strings.TrimSpace(rest), true
}

// Options wires the non-command handlers.
type Options struct {
	Callback tele.HandlerFunc
	Text     tele.HandlerFunc
}

// Router dispatches every update to exactly one handler chosen by its Kind.
type Router struct {
	reg      *tg.Registry
	callback tele.HandlerFunc
	text     tele.HandlerFunc
	username atomic.Value
}

// New builds a Router over a command registry.
func New(reg *tg.Registry, opts Options) *Router {
	if reg == nil {
		reg = tg.NewRegistry()
	}
	return &Router{reg: reg, callback: opts.Callback, text: opts.Text}
}

// SetBotUsername enables dropping commands addressed to other bots.
func (r *Router) SetBotUsername(name string) {
	r.username.Store(strings.TrimPrefix(strings.TrimSpace(name), "@"))
}

func (r *Router) botUsername() string {
	name, _ := r.username.Load().(string)
	return name
}

// Routes returns the telebot endpoints feeding Dispatch. Unknown commands
// reach OnText in telebot, so no per-command endpoints are registered.
func (r *Router) Routes() []tg.Route {
	return []tg.Route{
		{Endpoint: tele.OnText, Handler: r.Dispatch},
		{Endpoint: tele.OnCallback, Handler: r.Dispatch},
	}
}

// Dispatch classifies the update and runs its handler. Unknown commands and
// unhandled kinds are dropped without a reply. Handler errors are returned
// to the caller after being summarised.
func (r *Router) Dispatch(c tele.Context) error {
	start := time.Now()
	ev := Classify(c)

	switch ev.Kind {
	case KindCommand:
		if ev.Mention != "" {
			if own := r.botUsername(); own != "" && !strings.EqualFold(own, ev.Mention) {
				dropUpdate(c, ev, start, "other_bot")
				return nil
			}
		}
		name, cmd, ok := r.reg.Lookup(ev.Command)
		if !ok {
			dropUpdate(c, ev, start, "unknown_command")
			return nil
		}
		return handleWithSummary(c, ev, "command."+normalizeHandlerName(name), start, cmd.Handler,
			slog.String("command", name))
	case KindCallback:
		if r.callback == nil {
			dropUpdate(c, ev, start, "no_handler")
			return nil
		}
		return handleWithSummary(c, ev, "callback", start, r.callback,
			slog.String("cb_key", ev.CallbackID))
	case KindText:
		if r.text == nil {
			dropUpdate(c, ev, start, "no_handler")
			return nil
		}
		return handleWithSummary(c, ev, "text", start, r.text)
	default:
		dropUpdate(c, ev, start, "unhandled_kind")
		return nil
	}
}
