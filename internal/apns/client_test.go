package apns

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_PushHeadersAndBody(t *testing.T) {
	var gotPath, gotAuth, gotTopic, gotType, gotPriority string
	var gotBody []byte
	gw := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("authorization")
		gotTopic = r.Header.Get("apns-topic")
		gotType = r.Header.Get("apns-push-type")
		gotPriority = r.Header.Get("apns-priority")
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer gw.Close()

	c := NewClient(ClientConfig{Host: gw.URL, Topic: "app.thisday.ios", Timeout: 2 * time.Second})
	err := c.Push(context.Background(), "jwt-token", "device-abc", []byte(`{"aps":{}}`))
	require.NoError(t, err)

	assert.Equal(t, "/3/device/device-abc", gotPath)
	assert.Equal(t, "bearer jwt-token", gotAuth)
	assert.Equal(t, "app.thisday.ios", gotTopic)
	assert.Equal(t, "alert", gotType)
	assert.Equal(t, "10", gotPriority)
	assert.Equal(t, `{"aps":{}}`, string(gotBody))
}

func TestClient_NonSuccessStatusCapturesBody(t *testing.T) {
	gw := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusGone)
		_, _ = w.Write([]byte(`{"reason":"Unregistered"}`))
	}))
	defer gw.Close()

	c := NewClient(ClientConfig{Host: gw.URL, Topic: "app.thisday.ios"})
	err := c.Push(context.Background(), "jwt", "dead-token", []byte(`{}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "410")
	assert.Contains(t, err.Error(), "Unregistered")
}

func TestClient_TimeoutIsBounded(t *testing.T) {
	gw := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(5 * time.Second):
		}
	}))
	defer gw.Close()

	c := NewClient(ClientConfig{Host: gw.URL, Topic: "app.thisday.ios", Timeout: 100 * time.Millisecond})
	start := time.Now()
	err := c.Push(context.Background(), "jwt", "slow-token", []byte(`{}`))
	require.Error(t, err)
	assert.Less(t, time.Since(start), 2*time.Second, "an unresponsive gateway must not stall the batch")
}

func TestHostForEnv(t *testing.T) {
	assert.Equal(t, HostProduction, HostForEnv("production"))
	assert.Equal(t, HostProduction, HostForEnv("Production"))
	assert.Equal(t, HostSandbox, HostForEnv("sandbox"))
	assert.Equal(t, HostSandbox, HostForEnv(""))
}
