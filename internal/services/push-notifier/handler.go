package notifier

import (
	"context"
	"fmt"

	"github.com/thisday-app/pushgate/internal/domain/device"
	"github.com/thisday-app/pushgate/internal/domain/notification"
	"github.com/thisday-app/pushgate/internal/domain/profile"
	"github.com/thisday-app/pushgate/internal/obs"
	"go.uber.org/zap"
)

// Handler orchestrates one fan-out batch: resolve endpoints, resolve the
// actor, compose, sign, dispatch. Dependencies are injected so tests swap in
// fakes without global state.
type Handler struct {
	Devices  device.Repo
	Profiles profile.Repo
	Creds    notification.CredentialSource
	Out      notification.BatchDispatcher
	Log      *zap.Logger
}

// HandleEvent runs the batch for one event.
//
// Zero endpoints is a clean no-op: the signer and dispatcher are never
// touched. A missing actor profile or a signing failure aborts before any
// delivery attempt; per-endpoint failures only show up in the summary.
func (h *Handler) HandleEvent(ctx context.Context, ev notification.Event) (notification.BatchSummary, error) {
	mEventsHandled.Inc()
	log := obs.WithTrace(ctx, h.Log).With(
		zap.String("recipient_id", ev.RecipientID),
		zap.String("actor_id", ev.ActorID),
		zap.String("kind", string(ev.Kind)),
	)

	endpoints, err := h.Devices.ListByUser(ctx, ev.RecipientID, device.PlatformIOS)
	if err != nil {
		return notification.BatchSummary{}, fmt.Errorf("list endpoints: %w", err)
	}
	mBatchSize.Observe(float64(len(endpoints)))
	if len(endpoints) == 0 {
		mEventsNoDevice.Inc()
		log.Info("no registered endpoints; nothing to deliver")
		return notification.BatchSummary{}, nil
	}

	actor, err := h.Profiles.GetByID(ctx, ev.ActorID)
	if err != nil {
		return notification.BatchSummary{}, fmt.Errorf("get actor profile: %w", err)
	}

	msg := Compose(ev.Kind, *actor)

	bearer, err := h.Creds.Bearer()
	if err != nil {
		return notification.BatchSummary{}, fmt.Errorf("sign credential: %w", err)
	}

	sum := h.Out.Dispatch(ctx, bearer, msg, ev, endpoints)
	log.Info("batch settled",
		zap.Int("sent", sum.Sent),
		zap.Int("total", sum.Total),
		zap.Int("failed", sum.Total-sum.Sent),
	)
	return sum, nil
}
