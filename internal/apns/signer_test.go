package apns

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"encoding/base64"
	"encoding/json"
	"encoding/pem"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testKeyPEM(t *testing.T) (*ecdsa.PrivateKey, string) {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	der, err := x509.MarshalECPrivateKey(key)
	require.NoError(t, err)
	block := pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: der})
	return key, string(block)
}

func decodeSegment(t *testing.T, seg string) map[string]any {
	t.Helper()
	raw, err := base64.RawURLEncoding.DecodeString(seg)
	require.NoError(t, err)
	var out map[string]any
	require.NoError(t, json.Unmarshal(raw, &out))
	return out
}

func TestSigner_TokenStructure(t *testing.T) {
	key, pemStr := testKeyPEM(t)
	frozen := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	s, err := NewSigner(SignerConfig{KeyID: "ABC123DEFG", TeamID: "TEAM456789", PrivateKey: pemStr})
	require.NoError(t, err)
	s.now = func() time.Time { return frozen }

	tok, err := s.Bearer()
	require.NoError(t, err)

	parts := strings.Split(tok, ".")
	require.Len(t, parts, 3)

	header := decodeSegment(t, parts[0])
	assert.Equal(t, "ES256", header["alg"])
	assert.Equal(t, "ABC123DEFG", header["kid"])

	claims := decodeSegment(t, parts[1])
	assert.Equal(t, "TEAM456789", claims["iss"])
	assert.EqualValues(t, frozen.Unix(), claims["iat"])

	// Signature segment is valid unpadded base64url and verifies.
	sig, err := base64.RawURLEncoding.DecodeString(parts[2])
	require.NoError(t, err)
	assert.NotEmpty(t, sig)

	parsed, err := jwt.Parse(tok, func(*jwt.Token) (any, error) {
		return &key.PublicKey, nil
	}, jwt.WithValidMethods([]string{"ES256"}))
	require.NoError(t, err)
	assert.True(t, parsed.Valid)
}

func TestSigner_NormalizesEscapedNewlines(t *testing.T) {
	_, pemStr := testKeyPEM(t)
	escaped := strings.ReplaceAll(pemStr, "\n", `\n`)

	s, err := NewSigner(SignerConfig{KeyID: "K", TeamID: "T", PrivateKey: escaped})
	require.NoError(t, err)

	tok, err := s.Bearer()
	require.NoError(t, err)
	assert.Len(t, strings.Split(tok, "."), 3)
}

func TestSigner_BadKeyMaterial(t *testing.T) {
	_, err := NewSigner(SignerConfig{KeyID: "K", TeamID: "T", PrivateKey: "not a key"})
	require.Error(t, err)
}

func TestSigner_ReusesTokenUntilRefreshInterval(t *testing.T) {
	_, pemStr := testKeyPEM(t)
	clock := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	s, err := NewSigner(SignerConfig{KeyID: "K", TeamID: "T", PrivateKey: pemStr, RefreshInterval: 40 * time.Minute})
	require.NoError(t, err)
	s.now = func() time.Time { return clock }

	first, err := s.Bearer()
	require.NoError(t, err)

	clock = clock.Add(10 * time.Minute)
	second, err := s.Bearer()
	require.NoError(t, err)
	assert.Equal(t, first, second, "token is reused inside the refresh window")

	clock = clock.Add(41 * time.Minute)
	third, err := s.Bearer()
	require.NoError(t, err)
	assert.NotEqual(t, first, third, "token is re-signed after the window elapses")
}
