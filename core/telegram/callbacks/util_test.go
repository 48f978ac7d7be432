package callbacks

import (
	"testing"

	"github.com/stretchr/testify/assert"
	tele "gopkg.in/telebot.v4"
)

func TestParseCallbackData(t *testing.T) {
	tests := []struct {
		name        string
		cb          *tele.Callback
		wantKey     string
		wantPayload string
	}{
		{name: "nil", cb: nil},
		{name: "plain", cb: &tele.Callback{Data: "Button 1"}, wantKey: "Button 1"},
		{name: "plain with pipe", cb: &tele.Callback{Data: "a|b"}, wantKey: "a|b"},
		{name: "encoded", cb: &tele.Callback{Data: "\fpick|Button 2"}, wantKey: "pick", wantPayload: "Button 2"},
		{name: "encoded no payload", cb: &tele.Callback{Data: "\fpick"}, wantKey: "pick"},
		{name: "unique set", cb: &tele.Callback{Unique: "pick", Data: "x"}, wantKey: "pick", wantPayload: "x"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key, payload := ParseCallbackData(tt.cb)
			assert.Equal(t, tt.wantKey, key)
			assert.Equal(t, tt.wantPayload, payload)
		})
	}
}
