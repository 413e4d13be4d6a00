package notifier

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/thisday-app/pushgate/internal/domain/device"
	"github.com/thisday-app/pushgate/internal/domain/notification"
	"go.uber.org/zap"
)

// GatewayClient is the unary per-device delivery operation of the push
// gateway. *apns.Client satisfies it.
type GatewayClient interface {
	Push(ctx context.Context, bearer, deviceToken string, payload []byte) error
}

var _ notification.BatchDispatcher = (*Dispatcher)(nil)

// Dispatcher fans one composed message out to every endpoint concurrently
// and settles all attempts. One endpoint's failure never cancels a sibling;
// batch success policy belongs to the caller.
type Dispatcher struct {
	Gateway GatewayClient
	Log     *zap.Logger
}

type apsAlert struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

type aps struct {
	Alert apsAlert `json:"alert"`
	Sound string   `json:"sound"`
	Badge int      `json:"badge"`
}

// pushPayload carries the alert plus the custom fields the client uses for
// deep-linking into the tapped post or profile.
type pushPayload struct {
	APS     aps               `json:"aps"`
	Type    notification.Kind `json:"type"`
	PostID  string            `json:"post_id,omitempty"`
	ActorID string            `json:"actor_id"`
}

func (d *Dispatcher) Dispatch(ctx context.Context, bearer string, msg notification.Message, ev notification.Event, endpoints []device.Endpoint) notification.BatchSummary {
	sum := notification.BatchSummary{Total: len(endpoints)}
	if len(endpoints) == 0 {
		return sum
	}

	payload, err := json.Marshal(pushPayload{
		APS: aps{
			Alert: apsAlert{Title: msg.Title, Body: msg.Body},
			Sound: "default",
			Badge: 1,
		},
		Type:    ev.Kind,
		PostID:  ev.PostID,
		ActorID: ev.ActorID,
	})
	if err != nil {
		// Settle every endpoint as failed rather than panic.
		for _, ep := range endpoints {
			sum.Outcomes = append(sum.Outcomes, notification.DeliveryOutcome{Token: ep.Token, Err: err.Error()})
			sum.Errors = append(sum.Errors, err.Error())
		}
		return sum
	}

	outcomes := make([]notification.DeliveryOutcome, len(endpoints))
	var wg sync.WaitGroup
	for i, ep := range endpoints {
		wg.Add(1)
		go func(i int, ep device.Endpoint) {
			defer wg.Done()
			out := notification.DeliveryOutcome{Token: ep.Token}
			if err := d.Gateway.Push(ctx, bearer, ep.Token, payload); err != nil {
				out.Err = err.Error()
			} else {
				out.Succeeded = true
			}
			outcomes[i] = out
		}(i, ep)
	}
	wg.Wait()

	for _, out := range outcomes {
		if out.Succeeded {
			sum.Sent++
			mDeliveriesSent.Inc()
			continue
		}
		mDeliveriesFailed.Inc()
		sum.Errors = append(sum.Errors, out.Err)
		if d.Log != nil {
			d.Log.Warn("push delivery failed",
				zap.String("device_token", out.Token),
				zap.String("detail", out.Err),
			)
		}
	}
	sum.Outcomes = outcomes
	return sum
}
