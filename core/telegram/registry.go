package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/m3rciful/prefixbot/core/logger"
	"github.com/m3rciful/prefixbot/core/telegram/tgerr"

	tele "gopkg.in/telebot.v4"
)

// ErrRegistryFrozen is returned by Register after Freeze.
var ErrRegistryFrozen = errors.New("telegram: registry is frozen")

// Command represents a bot command with its handler, description, and metadata.
type Command struct {
	Handler     tele.HandlerFunc
	Description string
	Hidden      bool
	Aliases     []string
}

// Registry maps command names to handlers. It is filled at startup and
// becomes read-only after Freeze.
type Registry struct {
	mu       sync.RWMutex
	commands map[string]Command
	frozen   bool
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{commands: make(map[string]Command)}
}

// Register adds a command. Names must start with "/" and be unique
// across names and aliases.
func (r *Registry) Register(name string, cmd Command) error {
	if r == nil {
		return fmt.Errorf("telegram: nil registry")
	}
	name = strings.ToLower(strings.TrimSpace(name))
	if len(name) < 2 || name[0] != '/' {
		return fmt.Errorf("telegram: invalid command name %q", name)
	}
	if cmd.Handler == nil || strings.TrimSpace(cmd.Description) == "" {
		return fmt.Errorf("telegram: command %s needs a handler and a description", name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.frozen {
		return fmt.Errorf("%w: cannot register %s", ErrRegistryFrozen, name)
	}
	if _, _, ok := r.lookupLocked(name); ok {
		return fmt.Errorf("telegram: duplicate command %s", name)
	}
	for _, alias := range cmd.Aliases {
		if _, _, ok := r.lookupLocked(alias); ok {
			return fmt.Errorf("telegram: alias %s of %s already registered", alias, name)
		}
	}
	r.commands[name] = cmd
	return nil
}

// Freeze makes the registry immutable.
func (r *Registry) Freeze() {
	r.mu.Lock()
	r.frozen = true
	r.mu.Unlock()
}

// Frozen reports whether Freeze was called.
func (r *Registry) Frozen() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.frozen
}

// Lookup finds a command by name or alias, with or without the leading slash,
// and returns the canonical name.
func (r *Registry) Lookup(name string) (string, Command, bool) {
	if r == nil {
		return "", Command{}, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.lookupLocked(name)
}

func (r *Registry) lookupLocked(name string) (string, Command, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	if !strings.HasPrefix(name, "/") {
		name = "/" + name
	}
	if cmd, ok := r.commands[name]; ok {
		return name, cmd, true
	}
	for key, cmd := range r.commands {
		for _, alias := range cmd.Aliases {
			if alias == name || "/"+alias == name {
				return key, cmd, true
			}
		}
	}
	return "", Command{}, false
}

// Len returns the number of registered commands.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.commands)
}

// ListCommands returns the commands sorted by name, optionally without hidden ones.
func (r *Registry) ListCommands(visibleOnly bool) []tele.Command {
	r.mu.RLock()
	defer r.mu.RUnlock()
	list := make([]tele.Command, 0, len(r.commands))
	for name, meta := range r.commands {
		if visibleOnly && meta.Hidden {
			continue
		}
		list = append(list, tele.Command{Text: name, Description: meta.Description})
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Text < list[j].Text })
	return list
}

// CommandSetter publishes the command menu. *tele.Bot satisfies it.
type CommandSetter interface {
	SetCommands(opts ...interface{}) error
}

// InitBotCommands publishes the visible commands to the Telegram command menu.
// Failures are logged only.
func InitBotCommands(ctx context.Context, bot CommandSetter, reg *Registry) {
	cmds := reg.ListCommands(true)
	if len(cmds) == 0 {
		return
	}
	if err := bot.SetCommands(cmds); err != nil {
		logger.LogEvent(ctx, logger.TWire, slog.LevelWarn, "register.commands.set_failed",
			slog.String("status", "fail"),
			slog.String("err_kind", tgerr.Classify(err)),
			slog.String("err", tgerr.Redact(err)),
		)
		return
	}
	logger.LogEvent(ctx, logger.TWire, slog.LevelInfo, "register.commands.set",
		slog.String("status", "ok"),
		slog.Int("commands", len(cmds)),
	)
}
