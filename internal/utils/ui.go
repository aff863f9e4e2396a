package utils

import (
	"github.com/go-telegram/bot/models"

	"github.com/BatmanBruc/gembot/internal/messages"
	"github.com/BatmanBruc/gembot/types"
)

type Button struct {
	Text         string
	CallbackData string
}

// BuildInlineKeyboard lays out each slice of buttons as its own row.
func BuildInlineKeyboard(rows ...[]Button) *models.InlineKeyboardMarkup {
	keyboard := make([][]models.InlineKeyboardButton, 0, len(rows))
	for _, row := range rows {
		if len(row) == 0 {
			continue
		}
		line := make([]models.InlineKeyboardButton, 0, len(row))
		for _, button := range row {
			line = append(line, models.InlineKeyboardButton{
				Text:         button.Text,
				CallbackData: button.CallbackData,
			})
		}
		keyboard = append(keyboard, line)
	}
	return &models.InlineKeyboardMarkup{InlineKeyboard: keyboard}
}

func MainMenu() *models.InlineKeyboardMarkup {
	return BuildInlineKeyboard(
		[]Button{
			{Text: messages.ButtonNewConversation, CallbackData: types.CallbackNewConversation},
			{Text: messages.ButtonImageDescription, CallbackData: types.CallbackImageDescription},
		},
		[]Button{{Text: messages.ButtonChatHistory, CallbackData: types.CallbackPagePrefix + "1"}},
	)
}

func RestartMenu() *models.InlineKeyboardMarkup {
	return BuildInlineKeyboard(
		[]Button{{Text: messages.ButtonNewConversation, CallbackData: types.CallbackNewConversation}},
		[]Button{{Text: messages.ButtonImageDescription, CallbackData: types.CallbackImageDescription}},
		[]Button{{Text: messages.ButtonChatHistory, CallbackData: types.CallbackPagePrefix + "1"}},
		[]Button{{Text: messages.ButtonStartAgain, CallbackData: types.CallbackStartAgain}},
	)
}

func FarewellMenu() *models.InlineKeyboardMarkup {
	return BuildInlineKeyboard(
		[]Button{{Text: messages.ButtonNewConversation, CallbackData: types.CallbackNewConversation}},
		[]Button{{Text: messages.ButtonImageDescription, CallbackData: types.CallbackImageDescription}},
		[]Button{{Text: messages.ButtonRefresh, CallbackData: types.CallbackStartAgain}},
	)
}

func ReturnToMenu() *models.InlineKeyboardMarkup {
	return BuildInlineKeyboard([]Button{{Text: messages.ButtonReturnToMenu, CallbackData: types.CallbackStartAgain}})
}

func BackToMenu() *models.InlineKeyboardMarkup {
	return BuildInlineKeyboard([]Button{{Text: messages.ButtonBackToMenu, CallbackData: types.CallbackStartAgain}})
}

func SaveOrDiscard() *models.InlineKeyboardMarkup {
	return BuildInlineKeyboard(
		[]Button{{Text: messages.ButtonSaveAndBack, CallbackData: types.CallbackStartAgainSave}},
		[]Button{{Text: messages.ButtonBackWithoutSave, CallbackData: types.CallbackStartAgain}},
	)
}

func ConversationActions() *models.InlineKeyboardMarkup {
	return BuildInlineKeyboard(
		[]Button{{Text: messages.ButtonContinue, CallbackData: types.CallbackNewConversation}},
		[]Button{{Text: messages.ButtonDelete, CallbackData: types.CallbackDeleteConversation}},
		[]Button{{Text: messages.ButtonBackToMenu, CallbackData: types.CallbackStartAgain}},
	)
}

// HistoryPage puts the page navigation row above the back button.
func HistoryPage(navigation []models.InlineKeyboardButton) *models.InlineKeyboardMarkup {
	markup := BackToMenu()
	if len(navigation) > 0 {
		markup.InlineKeyboard = append([][]models.InlineKeyboardButton{navigation}, markup.InlineKeyboard...)
	}
	return markup
}
