package keyboard

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInlineButtonsRows(t *testing.T) {
	markup := InlineButtonsRows(
		[]InlineBtn{{Text: "A", Data: "a"}, {Text: "B", Data: "b"}},
		nil,
		[]InlineBtn{{Text: "C", Data: "c"}},
	)

	require.Len(t, markup.InlineKeyboard, 2)
	assert.Len(t, markup.InlineKeyboard[0], 2)
	assert.Equal(t, "b", markup.InlineKeyboard[0][1].Data)
	assert.Equal(t, "C", markup.InlineKeyboard[1][0].Text)
	assert.Empty(t, markup.InlineKeyboard[1][0].Unique)
}

func TestInlineButtonsRowsFreshMarkup(t *testing.T) {
	row := []InlineBtn{{Text: "A", Data: "a"}}

	first := InlineButtonsRows(row)
	first.InlineKeyboard[0][0].Data = "changed"
	second := InlineButtonsRows(row)

	assert.Equal(t, "a", second.InlineKeyboard[0][0].Data)
}
