package kafka

import (
	"context"
	"encoding/json"

	"github.com/thisday-app/pushgate/internal/domain/notification"
	"go.uber.org/zap"
)

// EventHandler decodes notification events off the wire and forwards them.
// Malformed messages are logged and committed: a poison message must not
// wedge the partition.
func EventHandler(log *zap.Logger, handle func(ctx context.Context, ev notification.Event) error) Handler {
	return func(ctx context.Context, key, value []byte) error {
		var ev notification.Event
		if err := json.Unmarshal(value, &ev); err != nil {
			log.Warn("drop undecodable event", zap.ByteString("key", key), zap.Error(err))
			return nil
		}
		if ev.RecipientID == "" {
			log.Warn("drop event without recipient_id", zap.ByteString("key", key))
			return nil
		}
		return handle(ctx, ev)
	}
}
