// Package apns talks to the Apple Push Notification service: provider-token
// signing and the per-device HTTP/2 delivery endpoint.
package apns

import (
	"crypto/ecdsa"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// APNs rejects provider tokens older than an hour; refreshing well before
// that keeps a long-lived process inside the window.
const defaultRefreshInterval = 40 * time.Minute

type SignerConfig struct {
	KeyID           string
	TeamID          string
	PrivateKey      string // PEM; literal \n sequences are normalized
	RefreshInterval time.Duration
}

// Signer produces ES256 provider tokens (header {alg, kid}, claims
// {iss, iat}). One token covers a whole fan-out batch and is reused across
// batches until the refresh interval elapses.
type Signer struct {
	keyID   string
	teamID  string
	key     *ecdsa.PrivateKey
	refresh time.Duration
	now     func() time.Time

	mu       sync.Mutex
	bearer   string
	issuedAt time.Time
}

func NewSigner(cfg SignerConfig) (*Signer, error) {
	key, err := jwt.ParseECPrivateKeyFromPEM([]byte(NormalizePEM(cfg.PrivateKey)))
	if err != nil {
		return nil, fmt.Errorf("parse signing key: %w", err)
	}
	refresh := cfg.RefreshInterval
	if refresh <= 0 {
		refresh = defaultRefreshInterval
	}
	return &Signer{
		keyID:   cfg.KeyID,
		teamID:  cfg.TeamID,
		key:     key,
		refresh: refresh,
		now:     time.Now,
	}, nil
}

func (s *Signer) Bearer() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if s.bearer != "" && now.Sub(s.issuedAt) < s.refresh {
		return s.bearer, nil
	}

	tok := jwt.NewWithClaims(jwt.SigningMethodES256, jwt.MapClaims{
		"iss": s.teamID,
		"iat": now.Unix(),
	})
	tok.Header["kid"] = s.keyID

	signed, err := tok.SignedString(s.key)
	if err != nil {
		return "", fmt.Errorf("sign provider token: %w", err)
	}
	s.bearer = signed
	s.issuedAt = now
	return signed, nil
}

// NormalizePEM turns literal \n sequences into newlines. Key material set
// through environment variables often arrives single-line.
func NormalizePEM(key string) string {
	return strings.ReplaceAll(key, `\n`, "\n")
}
