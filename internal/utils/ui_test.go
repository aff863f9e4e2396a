package utils

import (
	"testing"

	"github.com/go-telegram/bot/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BatmanBruc/gembot/types"
)

func TestBuildInlineKeyboardSkipsEmptyRows(t *testing.T) {
	markup := BuildInlineKeyboard(
		[]Button{{Text: "a", CallbackData: "A"}, {Text: "b", CallbackData: "B"}},
		nil,
		[]Button{{Text: "c", CallbackData: "C"}},
	)
	require.Len(t, markup.InlineKeyboard, 2)
	assert.Len(t, markup.InlineKeyboard[0], 2)
	assert.Equal(t, "C", markup.InlineKeyboard[1][0].CallbackData)
}

func TestMainMenu(t *testing.T) {
	markup := MainMenu()
	require.Len(t, markup.InlineKeyboard, 2)
	assert.Equal(t, types.CallbackNewConversation, markup.InlineKeyboard[0][0].CallbackData)
	assert.Equal(t, types.CallbackImageDescription, markup.InlineKeyboard[0][1].CallbackData)
	assert.Equal(t, "PAGE#1", markup.InlineKeyboard[1][0].CallbackData)
}

func TestHistoryPage(t *testing.T) {
	nav := []models.InlineKeyboardButton{{Text: "· 1 ·", CallbackData: "PAGE#1"}}
	markup := HistoryPage(nav)
	require.Len(t, markup.InlineKeyboard, 2)
	assert.Equal(t, "PAGE#1", markup.InlineKeyboard[0][0].CallbackData)
	assert.Equal(t, types.CallbackStartAgain, markup.InlineKeyboard[1][0].CallbackData)

	assert.Len(t, HistoryPage(nil).InlineKeyboard, 1)
}
