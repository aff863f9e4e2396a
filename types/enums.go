package types

type ChatState string

const (
	StateChoosing            ChatState = "choosing"
	StateImageChoice         ChatState = "image_choice"
	StateConversation        ChatState = "conversation"
	StateConversationHistory ChatState = "conversation_history"
)

func (s ChatState) Valid() bool {
	switch s {
	case StateChoosing, StateImageChoice, StateConversation, StateConversationHistory:
		return true
	}
	return false
}

type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// Callback payloads carried by inline buttons.
const (
	CallbackNewConversation    = "New_Conversation"
	CallbackImageDescription   = "Image_Description"
	CallbackEndConversation    = "End_Conversation"
	CallbackDone               = "Done"
	CallbackStartAgain         = "Start_Again"
	CallbackStartAgainSave     = "Start_Again_SAVE"
	CallbackDeleteConversation = "Delete_Conversation"
	CallbackPagePrefix         = "PAGE#"
)
