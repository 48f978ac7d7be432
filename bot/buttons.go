package bot

import (
	"github.com/m3rciful/prefixbot/core/config"
	"github.com/m3rciful/prefixbot/core/telegram/keyboard"

	tele "gopkg.in/telebot.v4"
)

// Button is one inline button: the visible label and the callback id stored
// as the user's prefix.
type Button struct {
	Label string
	ID    string
}

// Buttons is the fixed button grid shown under bot replies.
type Buttons struct {
	rows [][]Button
	byID map[string]Button
}

// NewButtons builds the grid from normalized configuration rows.
func NewButtons(rows [][]config.ButtonConfig) Buttons {
	b := Buttons{byID: make(map[string]Button)}
	for _, row := range rows {
		r := make([]Button, 0, len(row))
		for _, btn := range row {
			item := Button{Label: btn.Label, ID: btn.ID}
			r = append(r, item)
			b.byID[item.ID] = item
		}
		b.rows = append(b.rows, r)
	}
	return b
}

// Lookup finds a button by callback id.
func (b Buttons) Lookup(id string) (Button, bool) {
	btn, ok := b.byID[id]
	return btn, ok
}

// Markup renders the grid as a fresh inline keyboard.
func (b Buttons) Markup() *tele.ReplyMarkup {
	rows := make([][]keyboard.InlineBtn, 0, len(b.rows))
	for _, row := range b.rows {
		r := make([]keyboard.InlineBtn, 0, len(row))
		for _, btn := range row {
			r = append(r, keyboard.InlineBtn{Text: btn.Label, Data: btn.ID})
		}
		rows = append(rows, r)
	}
	return keyboard.InlineButtonsRows(rows...)
}
