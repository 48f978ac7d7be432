package teletest

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path"
	"sync"
	"testing"

	tele "gopkg.in/telebot.v4"
)

// APICall is one Bot API request received by API.
type APICall struct {
	Method string
	Params map[string]any
}

// API is a fake Bot API server answering every method with success.
type API struct {
	*httptest.Server

	mu    sync.Mutex
	calls []APICall
}

// NewAPI starts a fake Bot API server closed with the test.
func NewAPI(t *testing.T) *API {
	t.Helper()
	api := &API{}
	api.Server = httptest.NewServer(http.HandlerFunc(api.serve))
	t.Cleanup(api.Close)
	return api
}

func (a *API) serve(w http.ResponseWriter, r *http.Request) {
	method := path.Base(r.URL.Path)
	params := map[string]any{}
	if body, err := io.ReadAll(r.Body); err == nil && len(body) > 0 {
		_ = json.Unmarshal(body, &params)
	}
	a.mu.Lock()
	a.calls = append(a.calls, APICall{Method: method, Params: params})
	a.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	switch method {
	case "sendMessage", "editMessageText":
		_, _ = io.WriteString(w, `{"ok":true,"result":{"message_id":10,"date":0,"chat":{"id":1,"type":"private"}}}`)
	default:
		_, _ = io.WriteString(w, `{"ok":true,"result":true}`)
	}
}

// Calls returns the received calls of method, or all calls when method is "".
func (a *API) Calls(method string) []APICall {
	a.mu.Lock()
	defer a.mu.Unlock()
	var out []APICall
	for _, c := range a.calls {
		if method == "" || c.Method == method {
			out = append(out, c)
		}
	}
	return out
}

// Poller hands a fixed list of updates to the bot, then idles until stopped.
type Poller struct {
	Updates []tele.Update
}

// Poll implements tele.Poller.
func (p *Poller) Poll(_ *tele.Bot, dest chan tele.Update, stop chan struct{}) {
	for _, u := range p.Updates {
		select {
		case dest <- u:
		case <-stop:
			return
		}
	}
	<-stop
}

// TextUpdate builds a private text message update.
func TextUpdate(id int, userID int64, text string) tele.Update {
	return tele.Update{ID: id, Message: message(userID, text)}
}

// CallbackUpdate builds a callback query update.
func CallbackUpdate(id int, userID int64, data string) tele.Update {
	return tele.Update{ID: id, Callback: &tele.Callback{
		ID:      "cb",
		Sender:  &tele.User{ID: userID},
		Message: message(userID, "keyboard"),
		Data:    data,
	}}
}
