package types

type EventKind string

const (
	EventCommand  EventKind = "command"
	EventCallback EventKind = "callback"
	EventText     EventKind = "text"
	EventPhoto    EventKind = "photo"
	EventUnknown  EventKind = "unknown"
)

type PhotoRef struct {
	FileID   string
	FileSize int
	Width    int
	Height   int
}

// Event is an inbound update reduced to what the conversation flow needs.
type Event struct {
	Kind      EventKind
	UserID    int64
	ChatID    int64
	MessageID int

	// Text is the message text, the command or the photo caption.
	Text string

	CallbackID   string
	CallbackData string

	Photo *PhotoRef
}
