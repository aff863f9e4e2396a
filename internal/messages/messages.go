package messages

import (
	"fmt"
	"strings"
)

const (
	Greeting            = "Hi. It's Gemini Chat Bot. You can ask me anything and talk to me about what you want"
	WaitForResponse     = "Wait for response processing..."
	EmptyHistory        = "You have not any chat history"
	Farewell            = "Until next time!"
	StartConversation   = "You asked for a conversation. OK, Let's start conversation!"
	ContinueChat        = "You asked for a continue conversation. OK, Let's go!"
	ImageDescription    = "You asked for Image description. OK, Send your image with caption!"
	ConversationDeleted = "Conversation history deleted successfully. Back to menu Start new Conversation"
	ProviderFallback    = "Couldn't reach out to the provider. Try again..."
	StorageFailure      = "Something went wrong. Please try again later."
	Unauthorized        = "Sorry, this bot is private."
	NotFound            = "Conversation not found. Pick an id from the list."
	HistoryHeader       = "Your conversations:\n\n"
)

// Button labels.
const (
	ButtonNewConversation  = "Start New Conversation"
	ButtonImageDescription = "Image Description"
	ButtonChatHistory      = "Chat History"
	ButtonStartAgain       = "Start Again"
	ButtonReturnToMenu     = "Return to menu"
	ButtonBackToMenu       = "Back to menu"
	ButtonSaveAndBack      = "Save and Back to menu"
	ButtonBackWithoutSave  = "Back to menu without saving"
	ButtonContinue         = "Continue Conversations"
	ButtonDelete           = "Delete Conversation"
	ButtonDone             = "Done"
	ButtonRefresh          = "Refresh"
)

// PageItem is one listed conversation.
type PageItem struct {
	ConversationID string
	Title          string
}

// PageContent renders a page of conversations numbered from start+1.
func PageContent(items []PageItem, start int) string {
	var sb strings.Builder
	sb.WriteString(HistoryHeader)
	for i, item := range items {
		fmt.Fprintf(&sb, "%d. *Title*: %s\n*ConversationID*: /%s\n\n", start+i+1, strings.TrimSpace(item.Title), item.ConversationID)
	}
	return sb.String()
}

func ConversationFound(conversationID, title string) string {
	return fmt.Sprintf("Conversation %s retrieved and title is: %s", conversationID, strings.TrimSpace(title))
}

func DefaultTitle(conversationID string) string {
	return "Conversation " + conversationID
}
