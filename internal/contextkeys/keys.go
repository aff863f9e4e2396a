package contextkeys

import (
	"context"

	"github.com/BatmanBruc/gembot/types"
)

type eventKey struct{}
type requestIDKey struct{}

func WithEvent(ctx context.Context, event *types.Event) context.Context {
	return context.WithValue(ctx, eventKey{}, event)
}

func GetEvent(ctx context.Context) (*types.Event, bool) {
	v, ok := ctx.Value(eventKey{}).(*types.Event)
	return v, ok && v != nil
}

func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

func GetRequestID(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(requestIDKey{}).(string)
	return v, ok
}
