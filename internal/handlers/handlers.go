package handlers

import (
	"context"
	"errors"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"

	"github.com/BatmanBruc/gembot/internal/contextkeys"
	"github.com/BatmanBruc/gembot/internal/scheduler"
	"github.com/BatmanBruc/gembot/types"
)

// Submitter queues work on a per-user lane.
type Submitter interface {
	Submit(key int64, job scheduler.Job) error
}

type Dispatcher interface {
	Dispatch(ctx context.Context, event *types.Event) error
}

type Handlers struct {
	scheduler  Submitter
	controller Dispatcher
	log        *zap.SugaredLogger
}

func NewHandlers(s Submitter, controller Dispatcher, log *zap.SugaredLogger) *Handlers {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Handlers{
		scheduler:  s,
		controller: controller,
		log:        log,
	}
}

// MainHandler hands the analysed event to the user's lane so updates of one
// user are processed strictly in order.
func (bh *Handlers) MainHandler(ctx context.Context, _ *bot.Bot, update *models.Update) {
	event, ok := contextkeys.GetEvent(ctx)
	if !ok {
		bh.log.Warnw("Event not found in context", "update_id", update.ID)
		return
	}
	reqID, _ := contextkeys.GetRequestID(ctx)

	err := bh.scheduler.Submit(event.UserID, func(jobCtx context.Context) {
		err := bh.controller.Dispatch(jobCtx, event)
		switch {
		case err == nil:
		case errors.Is(err, types.ErrUnauthorized):
			bh.log.Debugw("Rejected update", "user_id", event.UserID, "request_id", reqID)
		default:
			bh.log.Errorw("Failed to handle update", "user_id", event.UserID, "kind", event.Kind, "request_id", reqID, "error", err)
		}
	})
	if err != nil {
		bh.log.Warnw("Failed to queue update", "user_id", event.UserID, "request_id", reqID, "error", err)
	}
}
