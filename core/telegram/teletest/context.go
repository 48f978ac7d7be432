// Package teletest provides an in-memory tele.Context for handler tests.
package teletest

import (
	"fmt"
	"sync/atomic"

	tele "gopkg.in/telebot.v4"
)

var nextUpdateID atomic.Int64

// Reply is one outgoing message or edit recorded by Context.
type Reply struct {
	Text   string
	Markup *tele.ReplyMarkup
}

// Context implements the parts of tele.Context used by update handlers.
// Calling any other method panics on the nil embedded interface.
type Context struct {
	tele.Context

	Upd       tele.Update
	Store     map[string]any
	Sent      []Reply
	Edits     []Reply
	Responses []*tele.CallbackResponse

	// SendErr is returned by Send, Reply and Edit when set.
	SendErr error
	// RespondErr is returned by Respond when set.
	RespondErr error
}

// New wraps an update.
func New(upd tele.Update) *Context {
	if upd.ID == 0 {
		upd.ID = int(nextUpdateID.Add(1))
	}
	return &Context{Upd: upd, Store: make(map[string]any)}
}

// Text builds a private-chat text message from userID.
func Text(userID int64, text string) *Context {
	return New(tele.Update{Message: message(userID, text)})
}

// Callback builds a callback query from userID carrying data.
func Callback(userID int64, data string) *Context {
	return New(tele.Update{Callback: &tele.Callback{
		ID:      fmt.Sprintf("cb-%d", nextUpdateID.Load()+1),
		Sender:  &tele.User{ID: userID},
		Message: message(userID, "keyboard"),
		Data:    data,
	}})
}

func message(userID int64, text string) *tele.Message {
	return &tele.Message{
		ID:     1,
		Sender: &tele.User{ID: userID, Username: fmt.Sprintf("user%d", userID)},
		Chat:   &tele.Chat{ID: userID, Type: tele.ChatPrivate},
		Text:   text,
	}
}

func (c *Context) Update() tele.Update { return c.Upd }

func (c *Context) Message() *tele.Message {
	switch {
	case c.Upd.Message != nil:
		return c.Upd.Message
	case c.Upd.Callback != nil:
		return c.Upd.Callback.Message
	}
	return nil
}

func (c *Context) Callback() *tele.Callback { return c.Upd.Callback }

func (c *Context) Sender() *tele.User {
	switch {
	case c.Upd.Callback != nil:
		return c.Upd.Callback.Sender
	case c.Upd.Message != nil:
		return c.Upd.Message.Sender
	}
	return nil
}

func (c *Context) Chat() *tele.Chat {
	if m := c.Message(); m != nil {
		return m.Chat
	}
	return nil
}

func (c *Context) Recipient() tele.Recipient { return c.Chat() }

func (c *Context) Text() string {
	if m := c.Message(); m != nil {
		return m.Text
	}
	return ""
}

func (c *Context) Send(what any, opts ...any) error {
	if c.SendErr != nil {
		return c.SendErr
	}
	c.Sent = append(c.Sent, record(what, opts))
	return nil
}

func (c *Context) Reply(what any, opts ...any) error { return c.Send(what, opts...) }

func (c *Context) Edit(what any, opts ...any) error {
	if c.SendErr != nil {
		return c.SendErr
	}
	c.Edits = append(c.Edits, record(what, opts))
	return nil
}

func (c *Context) Respond(resp ...*tele.CallbackResponse) error {
	if c.RespondErr != nil {
		return c.RespondErr
	}
	if len(resp) == 0 {
		c.Responses = append(c.Responses, &tele.CallbackResponse{})
		return nil
	}
	c.Responses = append(c.Responses, resp[0])
	return nil
}

func (c *Context) Get(key string) any { return c.Store[key] }

func (c *Context) Set(key string, val any) { c.Store[key] = val }

func record(what any, opts []any) Reply {
	r := Reply{Text: fmt.Sprint(what)}
	for _, o := range opts {
		switch v := o.(type) {
		case *tele.ReplyMarkup:
			r.Markup = v
		case *tele.SendOptions:
			if v != nil {
				r.Markup = v.ReplyMarkup
			}
		}
	}
	return r
}
