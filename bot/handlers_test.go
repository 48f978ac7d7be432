package bot

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/prefixbot/core/config"
	tg "github.com/m3rciful/prefixbot/core/telegram"
	"github.com/m3rciful/prefixbot/core/telegram/router"
	"github.com/m3rciful/prefixbot/core/telegram/state"
	"github.com/m3rciful/prefixbot/core/telegram/teletest"
)

type fixture struct {
	h      *Handlers
	memory *state.Memory
	router *router.Router
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	memory := state.NewMemory()
	h := New(config.DefaultBot(), memory)
	reg := tg.NewRegistry()
	require.NoError(t, h.Register(reg))
	reg.Freeze()
	return fixture{
		h:      h,
		memory: memory,
		router: router.New(reg, router.Options{Callback: h.Callback, Text: h.Text}),
	}
}

func TestStartShowsButtons(t *testing.T) {
	f := newFixture(t)
	c := teletest.Text(1, "/start")

	require.NoError(t, f.router.Dispatch(c))

	require.Len(t, c.Sent, 1)
	assert.Equal(t, config.DefaultBot().Greeting, c.Sent[0].Text)
	require.NotNil(t, c.Sent[0].Markup)
	require.Len(t, c.Sent[0].Markup.InlineKeyboard, 2)
	assert.Equal(t, "Button 1", c.Sent[0].Markup.InlineKeyboard[0][0].Text)
	assert.Equal(t, "Button 1", c.Sent[0].Markup.InlineKeyboard[0][0].Data)
	assert.Equal(t, "Button 4", c.Sent[0].Markup.InlineKeyboard[1][1].Data)
}

func TestHelpListsCommands(t *testing.T) {
	f := newFixture(t)
	c := teletest.Text(1, "/help")

	require.NoError(t, f.router.Dispatch(c))

	require.Len(t, c.Sent, 1)
	assert.Contains(t, c.Sent[0].Text, config.DefaultBot().Help)
	assert.Contains(t, c.Sent[0].Text, "/start - ")
	assert.Contains(t, c.Sent[0].Text, "/help - ")
}

func TestCallbackThenTextPrefixesOnce(t *testing.T) {
	f := newFixture(t)

	cb := teletest.Callback(5, "Button 2")
	require.NoError(t, f.router.Dispatch(cb))
	require.Len(t, cb.Responses, 1)
	require.Len(t, cb.Edits, 1)
	assert.Equal(t, "Selected: Button 2. Now send a message.", cb.Edits[0].Text)

	first := teletest.Text(5, "hello world")
	require.NoError(t, f.router.Dispatch(first))
	require.Len(t, first.Sent, 1)
	assert.Equal(t, "Button 2: hello world", first.Sent[0].Text)
	assert.NotNil(t, first.Sent[0].Markup)

	second := teletest.Text(5, "again")
	require.NoError(t, f.router.Dispatch(second))
	require.Len(t, second.Sent, 1)
	assert.Equal(t, config.DefaultBot().Prompt, second.Sent[0].Text)
	assert.NotNil(t, second.Sent[0].Markup)
}

func TestNewSelectionOverwrites(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.router.Dispatch(teletest.Callback(5, "Button 1")))
	require.NoError(t, f.router.Dispatch(teletest.Callback(5, "Button 3")))

	assert.Equal(t, 1, f.memory.Len())
	got, ok := f.memory.Peek(5)
	require.True(t, ok)
	assert.Equal(t, "Button 3", got)
}

func TestSelectionsArePerUser(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.router.Dispatch(teletest.Callback(1, "Button 1")))

	other := teletest.Text(2, "hi")
	require.NoError(t, f.router.Dispatch(other))
	mine := teletest.Text(1, "hi")
	require.NoError(t, f.router.Dispatch(mine))

	assert.Equal(t, config.DefaultBot().Prompt, other.Sent[0].Text)
	assert.Equal(t, "Button 1: hi", mine.Sent[0].Text)
}

func TestFailedReplyKeepsSelection(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.router.Dispatch(teletest.Callback(5, "Button 1")))

	long := teletest.Text(5, strings.Repeat("a", 4096))
	long.SendErr = tele.ErrTooLongMessage
	require.ErrorIs(t, f.router.Dispatch(long), tele.ErrTooLongMessage)

	got, ok := f.memory.Peek(5)
	require.True(t, ok)
	assert.Equal(t, "Button 1", got)

	retry := teletest.Text(5, "short")
	require.NoError(t, f.router.Dispatch(retry))
	assert.Equal(t, "Button 1: short", retry.Sent[0].Text)
	assert.Equal(t, 0, f.memory.Len())
}

func TestExpiredCallbackStillSelects(t *testing.T) {
	f := newFixture(t)
	cb := teletest.Callback(5, "Button 4")
	cb.RespondErr = tele.ErrQueryTooOld

	require.NoError(t, f.router.Dispatch(cb))

	got, ok := f.memory.Peek(5)
	require.True(t, ok)
	assert.Equal(t, "Button 4", got)
	require.Len(t, cb.Edits, 1)
}

func TestUnknownButtonRejected(t *testing.T) {
	f := newFixture(t)
	c := teletest.Callback(1, "forged")

	err := f.router.Dispatch(c)

	require.ErrorIs(t, err, ErrUnknownButton)
	assert.Equal(t, 0, f.memory.Len())
	require.Len(t, c.Responses, 1)
	assert.Equal(t, "Unsupported action", c.Responses[0].Text)
	assert.Empty(t, c.Edits)
}

func TestUnknownCommandNoReply(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.router.Dispatch(teletest.Callback(1, "Button 1")))
	c := teletest.Text(1, "/unknown")

	require.NoError(t, f.router.Dispatch(c))

	assert.Empty(t, c.Sent)
	_, pending := f.memory.Peek(1)
	assert.True(t, pending)
}

func TestMalformedUpdateDoesNotBreakNeighbours(t *testing.T) {
	f := newFixture(t)
	start := teletest.Text(1, "/start")
	malformed := teletest.New(tele.Update{Message: &tele.Message{Text: "no sender"}})
	help := teletest.Text(1, "/help")

	require.NoError(t, f.router.Dispatch(start))
	require.ErrorIs(t, f.router.Dispatch(malformed), ErrNoSender)
	require.NoError(t, f.router.Dispatch(help))

	assert.Equal(t, 2, len(start.Sent)+len(malformed.Sent)+len(help.Sent))
}

func TestCustomButtons(t *testing.T) {
	cfg := config.DefaultBot()
	cfg.Buttons = [][]config.ButtonConfig{{{Label: "Alpha", ID: "a"}}}
	h := New(cfg, state.NewMemory())

	cb := teletest.Callback(1, "a")
	require.NoError(t, h.Callback(cb))
	txt := teletest.Text(1, "x")
	require.NoError(t, h.Text(txt))

	assert.Equal(t, "Selected: Alpha. Now send a message.", cb.Edits[0].Text)
	assert.Equal(t, "a: x", txt.Sent[0].Text)
}
