package push

import (
	"context"
	"crypto/ecdh"
	"crypto/rand"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/diagnosis/party-hub/internal/domain"
	"github.com/diagnosis/party-hub/pkg/config"
)

func TestKeysPreferEnvironment(t *testing.T) {
	pub, priv, err := Keys(config.PushConfig{PublicKey: " pub ", PrivateKey: "priv", PublicKeyFile: "/does/not/exist"})
	require.NoError(t, err)
	assert.Equal(t, "pub", pub)
	assert.Equal(t, "priv", priv)
}

func TestKeysFromFiles(t *testing.T) {
	dir := t.TempDir()
	pubFile := filepath.Join(dir, "public_vapid_key.pem")
	privFile := filepath.Join(dir, "private_vapid_key.pem")
	require.NoError(t, os.WriteFile(pubFile, []byte("pub-key\n"), 0o600))
	require.NoError(t, os.WriteFile(privFile, []byte("priv-key\n"), 0o600))

	pub, priv, err := Keys(config.PushConfig{PublicKeyFile: pubFile, PrivateKeyFile: privFile})
	require.NoError(t, err)
	assert.Equal(t, "pub-key", pub)
	assert.Equal(t, "priv-key", priv)
}

func TestNewWithoutKeys(t *testing.T) {
	dir := t.TempDir()
	_, err := New(config.PushConfig{PublicKeyFile: filepath.Join(dir, "a"), PrivateKeyFile: filepath.Join(dir, "b")})
	assert.ErrorIs(t, err, ErrNotConfigured)
}

// browserKeys returns a subscription key pair as a browser would.
func browserKeys(t *testing.T) (p256dh, auth string) {
	t.Helper()
	key, err := ecdh.P256().GenerateKey(rand.Reader)
	require.NoError(t, err)
	secret := make([]byte, 16)
	_, err = rand.Read(secret)
	require.NoError(t, err)
	return base64.RawURLEncoding.EncodeToString(key.PublicKey().Bytes()),
		base64.RawURLEncoding.EncodeToString(secret)
}

func TestSendMapsStatus(t *testing.T) {
	pub, priv, err := GenerateKeys()
	require.NoError(t, err)
	p256dh, auth := browserKeys(t)

	tests := []struct {
		name   string
		status int
		check  func(t *testing.T, err error)
	}{
		{"created", http.StatusCreated, func(t *testing.T, err error) { assert.NoError(t, err) }},
		{"gone", http.StatusGone, func(t *testing.T, err error) { assert.ErrorIs(t, err, ErrGone) }},
		{"server error", http.StatusInternalServerError, func(t *testing.T, err error) {
			assert.Error(t, err)
			assert.NotErrorIs(t, err, ErrGone)
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "aes128gcm", r.Header.Get("Content-Encoding"))
				assert.Contains(t, r.Header.Get("Authorization"), "vapid")
				w.WriteHeader(tt.status)
			}))
			defer srv.Close()

			s, err := New(config.PushConfig{PublicKey: pub, PrivateKey: priv, Subject: "mailto:party@example.com"})
			require.NoError(t, err)
			err = s.Send(context.Background(), domain.PushTarget{GuestID: "g1", Endpoint: srv.URL, P256dh: p256dh, Auth: auth},
				Payload{Message: "hi", URL: "/i1"})
			tt.check(t, err)
		})
	}
}
