package apns

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"
)

const (
	HostProduction = "https://api.push.apple.com"
	HostSandbox    = "https://api.sandbox.push.apple.com"
)

// HostForEnv maps the configured environment flag to a gateway host.
// Anything other than "production" stays on the sandbox.
func HostForEnv(env string) string {
	if strings.EqualFold(env, "production") {
		return HostProduction
	}
	return HostSandbox
}

type ClientConfig struct {
	Host    string
	Topic   string // app bundle identifier
	Timeout time.Duration
}

// Client issues one delivery request per device token. APNs has no batch
// endpoint; fan-out concurrency is the dispatcher's job.
type Client struct {
	http  *http.Client
	host  string
	topic string
}

func NewClient(cfg ClientConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   timeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		TLSClientConfig: &tls.Config{
			MinVersion: tls.VersionTLS12,
		},
	}
	return &Client{
		http:  &http.Client{Timeout: timeout, Transport: transport},
		host:  strings.TrimRight(cfg.Host, "/"),
		topic: cfg.Topic,
	}
}

// Push delivers one alert payload to one device token. A non-2xx status is
// returned as an error carrying the gateway's response body, so the caller
// can record it as the endpoint's failure detail.
func (c *Client) Push(ctx context.Context, bearer, deviceToken string, payload []byte) error {
	url := c.host + "/3/device/" + deviceToken
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("authorization", "bearer "+bearer)
	req.Header.Set("apns-topic", c.topic)
	req.Header.Set("apns-push-type", "alert")
	req.Header.Set("apns-priority", "10")
	req.Header.Set("content-type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return fmt.Errorf("apns status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return nil
}
