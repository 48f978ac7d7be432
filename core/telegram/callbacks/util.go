package callbacks

import (
	"strings"

	tele "gopkg.in/telebot.v4"
)

// MaxDataLen is the Bot API limit for callback_data, in bytes.
const MaxDataLen = 64

// ParseCallbackData splits Telebot's "\f<unique>|<payload>" encoding.
// Plain data without the \f marker is returned whole as the key.
func ParseCallbackData(cb *tele.Callback) (string, string) {
	if cb == nil {
		return "", ""
	}
	if cb.Unique != "" {
		return cb.Unique, cb.Data
	}
	raw, encoded := strings.CutPrefix(cb.Data, "\f")
	if !encoded {
		return strings.TrimSpace(raw), ""
	}
	key, payload, _ := strings.Cut(raw, "|")
	return strings.TrimSpace(key), payload
}

// CallbackKey returns the callback key of the current update, or "".
func CallbackKey(c tele.Context) string {
	key, _ := ParseCallbackData(c.Callback())
	return key
}
