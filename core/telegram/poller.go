package telegram

import (
	"time"

	tele "gopkg.in/telebot.v4"
)

// DefaultAllowedUpdates limits getUpdates to the kinds the router handles.
var DefaultAllowedUpdates = []string{"message", "callback_query"}

// PollerOptions configures BuildPoller.
type PollerOptions struct {
	LongPollTimeoutSeconds int
	AllowedUpdates         []string
}

// BuildPoller returns a long poller. Webhook delivery is not supported: the
// HTTP port belongs to the liveness responder.
func BuildPoller(opts PollerOptions) *tele.LongPoller {
	timeoutSec := opts.LongPollTimeoutSeconds
	if timeoutSec <= 0 {
		timeoutSec = 10
	}
	allowed := opts.AllowedUpdates
	if len(allowed) == 0 {
		allowed = DefaultAllowedUpdates
	}
	return &tele.LongPoller{
		Timeout:        time.Duration(timeoutSec) * time.Second,
		AllowedUpdates: allowed,
	}
}
