package notification

import (
	"context"

	"github.com/thisday-app/pushgate/internal/domain/device"
)

// CredentialSource yields a bearer token accepted by the push gateway.
// One token covers an entire fan-out batch.
type CredentialSource interface {
	Bearer() (string, error)
}

// BatchDispatcher fans a composed message out to every endpoint and settles
// all attempts before returning. It never fails as a whole.
type BatchDispatcher interface {
	Dispatch(ctx context.Context, bearer string, msg Message, ev Event, endpoints []device.Endpoint) BatchSummary
}
