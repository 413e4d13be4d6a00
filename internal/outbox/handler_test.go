package outbox

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thisday-app/pushgate/internal/domain/notification"
	"github.com/thisday-app/pushgate/internal/domain/outbox"
	"github.com/thisday-app/pushgate/internal/obs/retry"
)

type fakePublisher struct {
	calls    int
	failFor  int
	lastKey  []byte
	lastBody any
}

func (p *fakePublisher) PublishJSON(_ context.Context, key []byte, v any) error {
	p.calls++
	p.lastKey = key
	p.lastBody = v
	if p.calls <= p.failFor {
		return errors.New("broker unavailable")
	}
	return nil
}

func testPolicy(attempts int) retry.Policy {
	return retry.Policy{
		Name:     "test",
		Attempts: attempts,
		Backoff:  retry.ExpoJitter{Base: time.Millisecond, Max: 5 * time.Millisecond},
	}
}

func TestGlobalHandler_PublishesKeyedByRecipient(t *testing.T) {
	pub := &fakePublisher{}
	dispatch := MakeGlobalHandler(pub, testPolicy(1))

	h, err := dispatch(outbox.KindNotificationCreated)
	require.NoError(t, err)

	data := []byte(`{"recipient_id":"u1","actor_id":"u2","type":"like","post_id":"p1"}`)
	require.NoError(t, h(context.Background(), data))

	assert.Equal(t, 1, pub.calls)
	assert.Equal(t, []byte("u1"), pub.lastKey)
	ev, ok := pub.lastBody.(notification.Event)
	require.True(t, ok)
	assert.Equal(t, notification.KindLike, ev.Kind)
}

func TestGlobalHandler_RetriesTransientPublishFailure(t *testing.T) {
	pub := &fakePublisher{failFor: 2}
	dispatch := MakeGlobalHandler(pub, testPolicy(3))

	h, err := dispatch(outbox.KindNotificationCreated)
	require.NoError(t, err)

	data := []byte(`{"recipient_id":"u1","actor_id":"u2","type":"follow"}`)
	require.NoError(t, h(context.Background(), data))
	assert.Equal(t, 3, pub.calls)
}

func TestGlobalHandler_BadPayloadFailsWithoutPublish(t *testing.T) {
	pub := &fakePublisher{}
	dispatch := MakeGlobalHandler(pub, testPolicy(1))

	h, err := dispatch(outbox.KindNotificationCreated)
	require.NoError(t, err)
	require.Error(t, h(context.Background(), []byte(`{broken`)))
	assert.Equal(t, 0, pub.calls)
}

func TestGlobalHandler_UnknownKind(t *testing.T) {
	dispatch := MakeGlobalHandler(&fakePublisher{}, testPolicy(1))
	_, err := dispatch(outbox.Kind(42))
	require.Error(t, err)
}
