package types

import "errors"

var (
	ErrSessionNotFound        = errors.New("session not found")
	ErrConversationNotFound   = errors.New("conversation not found")
	ErrInvalidConversationID  = errors.New("invalid conversation id")
	ErrUnauthorized           = errors.New("unauthorized user")
	ErrUnsupportedStoreDriver = errors.New("unsupported store driver")
)
