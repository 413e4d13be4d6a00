package outbox

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/thisday-app/pushgate/internal/domain/notification"
	"github.com/thisday-app/pushgate/internal/domain/outbox"
	"github.com/thisday-app/pushgate/internal/obs/retry"
)

// Publisher is the outbound side of the relay. *kafka.Producer satisfies it.
type Publisher interface {
	PublishJSON(ctx context.Context, key []byte, v any) error
}

var (
	handlerLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "relay_handler_latency_seconds",
		Help:    "Latency of relay handlers (publish).",
		Buckets: prometheus.DefBuckets,
	}, []string{"kind"})
	handlerErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "relay_handler_errors_total",
		Help: "Errors in relay handlers (after retries).",
	}, []string{"kind"})
)

func instrument(kind string, h outbox.KindHandler, pol retry.Policy) outbox.KindHandler {
	if pol.Name == "" {
		pol.Name = "relay_" + kind
	}
	return func(ctx context.Context, data []byte) error {
		start := time.Now()
		err := retry.Do(ctx, func() error { return h(ctx, data) }, pol)
		handlerLatency.WithLabelValues(kind).Observe(time.Since(start).Seconds())
		if err != nil {
			handlerErrors.WithLabelValues(kind).Inc()
		}
		return err
	}
}

// MakeGlobalHandler routes outbox rows to the push event topic. The payload
// stored in the outbox row is already the wire-format notification event.
func MakeGlobalHandler(pub Publisher, pol retry.Policy) outbox.GlobalHandler {
	return func(kind outbox.Kind) (outbox.KindHandler, error) {
		switch kind {
		case outbox.KindNotificationCreated:
			base := func(ctx context.Context, data []byte) error {
				var ev notification.Event
				if err := json.Unmarshal(data, &ev); err != nil {
					return fmt.Errorf("unmarshal notification event: %w", err)
				}
				return pub.PublishJSON(ctx, []byte(ev.RecipientID), ev)
			}
			return instrument("notification_created", base, pol), nil
		default:
			return nil, fmt.Errorf("unsupported outbox kind: %d", kind)
		}
	}
}
