package notifier

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thisday-app/pushgate/internal/domain/device"
	"github.com/thisday-app/pushgate/internal/domain/notification"
	"github.com/thisday-app/pushgate/internal/domain/profile"
	"go.uber.org/zap"
)

type fakeDevices struct {
	calls     int
	endpoints []device.Endpoint
	err       error
}

func (f *fakeDevices) ListByUser(context.Context, string, string) ([]device.Endpoint, error) {
	f.calls++
	return f.endpoints, f.err
}

type fakeProfiles struct {
	calls int
	prof  *profile.Profile
	err   error
}

func (f *fakeProfiles) GetByID(context.Context, string) (*profile.Profile, error) {
	f.calls++
	return f.prof, f.err
}

type fakeCreds struct {
	calls  int
	bearer string
	err    error
}

func (f *fakeCreds) Bearer() (string, error) {
	f.calls++
	return f.bearer, f.err
}

type fakeDispatcher struct {
	calls      int
	lastBearer string
	lastMsg    notification.Message
	lastEv     notification.Event
	lastEps    []device.Endpoint
	sum        notification.BatchSummary
}

func (f *fakeDispatcher) Dispatch(_ context.Context, bearer string, msg notification.Message, ev notification.Event, eps []device.Endpoint) notification.BatchSummary {
	f.calls++
	f.lastBearer = bearer
	f.lastMsg = msg
	f.lastEv = ev
	f.lastEps = eps
	return f.sum
}

func newHandler(d *fakeDevices, p *fakeProfiles, c *fakeCreds, out *fakeDispatcher) *Handler {
	return &Handler{Devices: d, Profiles: p, Creds: c, Out: out, Log: zap.NewNop()}
}

func TestHandler_ZeroEndpointsShortCircuits(t *testing.T) {
	devices := &fakeDevices{}
	profiles := &fakeProfiles{prof: &profile.Profile{Username: "jane"}}
	creds := &fakeCreds{bearer: "jwt"}
	out := &fakeDispatcher{}

	h := newHandler(devices, profiles, creds, out)
	sum, err := h.HandleEvent(context.Background(), notification.Event{
		RecipientID: "u1", ActorID: "u2", Kind: notification.KindLike,
	})

	require.NoError(t, err)
	assert.Equal(t, 0, sum.Total)
	assert.Equal(t, 0, sum.Sent)
	assert.Equal(t, 1, devices.calls)
	assert.Equal(t, 0, profiles.calls, "profile lookup is pointless with nothing to deliver")
	assert.Equal(t, 0, creds.calls, "signer must not run for an empty batch")
	assert.Equal(t, 0, out.calls, "dispatcher must not run for an empty batch")
}

func TestHandler_ActorNotFoundAbortsBeforeDispatch(t *testing.T) {
	devices := &fakeDevices{endpoints: []device.Endpoint{{Token: "abc"}}}
	profiles := &fakeProfiles{err: profile.ErrNotFound}
	creds := &fakeCreds{bearer: "jwt"}
	out := &fakeDispatcher{}

	h := newHandler(devices, profiles, creds, out)
	_, err := h.HandleEvent(context.Background(), notification.Event{
		RecipientID: "u1", ActorID: "u2", Kind: notification.KindFollow,
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, profile.ErrNotFound)
	assert.Equal(t, 0, creds.calls)
	assert.Equal(t, 0, out.calls)
}

func TestHandler_SigningFailureAbortsBeforeDispatch(t *testing.T) {
	devices := &fakeDevices{endpoints: []device.Endpoint{{Token: "abc"}}}
	profiles := &fakeProfiles{prof: &profile.Profile{Username: "jane"}}
	creds := &fakeCreds{err: errors.New("bad key material")}
	out := &fakeDispatcher{}

	h := newHandler(devices, profiles, creds, out)
	_, err := h.HandleEvent(context.Background(), notification.Event{
		RecipientID: "u1", ActorID: "u2", Kind: notification.KindFollow,
	})

	require.Error(t, err)
	assert.Equal(t, 1, creds.calls)
	assert.Equal(t, 0, out.calls, "no deliveries may happen without a credential")
}

func TestHandler_FollowScenario(t *testing.T) {
	devices := &fakeDevices{endpoints: []device.Endpoint{{Token: "abc", Platform: device.PlatformIOS}}}
	profiles := &fakeProfiles{prof: &profile.Profile{Username: "jane", DisplayName: ""}}
	creds := &fakeCreds{bearer: "jwt"}
	out := &fakeDispatcher{sum: notification.BatchSummary{Total: 1, Sent: 1}}

	h := newHandler(devices, profiles, creds, out)
	sum, err := h.HandleEvent(context.Background(), notification.Event{
		RecipientID: "u1", ActorID: "u2", Kind: notification.KindFollow,
	})

	require.NoError(t, err)
	assert.Equal(t, "Sent 1/1 push notifications", sum.Message())
	require.Equal(t, 1, out.calls)
	assert.Equal(t, "jwt", out.lastBearer)
	assert.Equal(t, notification.Message{Title: "New Follower", Body: "jane started following you"}, out.lastMsg)
	assert.Equal(t, []device.Endpoint{{Token: "abc", Platform: device.PlatformIOS}}, out.lastEps)
}

func TestHandler_NoDeduplicationAcrossInvocations(t *testing.T) {
	devices := &fakeDevices{endpoints: []device.Endpoint{{Token: "abc"}}}
	profiles := &fakeProfiles{prof: &profile.Profile{Username: "jane"}}
	creds := &fakeCreds{bearer: "jwt"}
	out := &fakeDispatcher{sum: notification.BatchSummary{Total: 1, Sent: 1}}

	h := newHandler(devices, profiles, creds, out)
	ev := notification.Event{RecipientID: "u1", ActorID: "u2", Kind: notification.KindLike, PostID: "p1"}

	_, err := h.HandleEvent(context.Background(), ev)
	require.NoError(t, err)
	_, err = h.HandleEvent(context.Background(), ev)
	require.NoError(t, err)

	assert.Equal(t, 2, out.calls, "identical events produce two independent batches")
}

func TestHandler_DirectoryErrorPropagates(t *testing.T) {
	devices := &fakeDevices{err: errors.New("connection refused")}
	h := newHandler(devices, &fakeProfiles{}, &fakeCreds{}, &fakeDispatcher{})

	_, err := h.HandleEvent(context.Background(), notification.Event{RecipientID: "u1", ActorID: "u2"})
	require.Error(t, err)
	assert.NotErrorIs(t, err, profile.ErrNotFound)
}
