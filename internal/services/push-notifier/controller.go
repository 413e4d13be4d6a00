package notifier

import (
	"context"

	"github.com/thisday-app/pushgate/internal/domain/notification"
	kafkax "github.com/thisday-app/pushgate/internal/repository/kafka"
	"go.uber.org/zap"
)

// Controller drives the same use case from the notification event stream.
// Batch failures are logged, never returned: the event is committed either
// way, because delivery problems must not stall or replay the stream.
type Controller struct {
	Log *zap.Logger
	Sub *kafkax.Consumer
	UC  *Handler
}

func (c *Controller) Run(ctx context.Context) error {
	handler := kafkax.EventHandler(c.Log, func(ctx context.Context, ev notification.Event) error {
		sum, err := c.UC.HandleEvent(ctx, ev)
		if err != nil {
			c.Log.Warn("push batch aborted", zap.Error(err))
			return nil
		}
		c.Log.Info("push batch done",
			zap.String("summary", sum.Message()),
			zap.Int("failed", sum.Total-sum.Sent),
		)
		return nil
	})
	return c.Sub.Consume(ctx, handler)
}
