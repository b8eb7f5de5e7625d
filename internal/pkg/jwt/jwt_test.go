package jwt

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testKey(t *testing.T) *rsa.PrivateKey {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	return key
}

func TestGenerateAndVerify(t *testing.T) {
	key := testKey(t)
	gen := NewGenerator(key, "panel", "panel-web", "k1", time.Hour)
	ver := NewVerifier(&key.PublicKey, "panel", "panel-web")

	token, jti, err := gen.GenerateAccessToken(42, []string{"admin"}, []string{"domains-view"}, "web")
	require.NoError(t, err)
	assert.NotEmpty(t, jti)

	claims, err := ver.VerifyAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), claims.UserID)
	assert.Equal(t, jti, claims.ID)
	assert.True(t, claims.HasRole("admin"))
	assert.True(t, claims.HasPermission("domains-view"))
	assert.False(t, claims.HasPermission("backup-run"))
}

func TestVerify_Rejects(t *testing.T) {
	key := testKey(t)
	gen := NewGenerator(key, "panel", "panel-web", "", time.Hour)

	token, _, err := gen.GenerateAccessToken(1, nil, nil, "")
	require.NoError(t, err)

	_, err = NewVerifier(&key.PublicKey, "other", "panel-web").Verify(token)
	assert.Error(t, err, "wrong issuer")

	_, err = NewVerifier(&key.PublicKey, "panel", "other").Verify(token)
	assert.Error(t, err, "wrong audience")

	_, err = NewVerifier(&testKey(t).PublicKey, "panel", "panel-web").Verify(token)
	assert.Error(t, err, "wrong key")

	expired := NewGenerator(key, "panel", "panel-web", "", time.Hour)
	expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	old, _, err := expired.GenerateAccessToken(1, nil, nil, "")
	require.NoError(t, err)
	_, err = NewVerifier(&key.PublicKey, "panel", "panel-web").Verify(old)
	assert.Error(t, err, "expired")
}

func TestLoadAndBuild(t *testing.T) {
	key := testKey(t)
	dir := t.TempDir()

	privPath := filepath.Join(dir, "private.pem")
	pubPath := filepath.Join(dir, "public.pem")

	pubDER, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(privPath, pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(key),
	}), 0o600))
	require.NoError(t, os.WriteFile(pubPath, pem.EncodeToMemory(&pem.Block{
		Type:  "PUBLIC KEY",
		Bytes: pubDER,
	}), 0o644))

	m, err := LoadAndBuild(Config{PrivPath: privPath, PubPath: pubPath, Issuer: "i", Audience: "a", TTL: time.Minute, KID: "panel-key"})
	require.NoError(t, err)
	assert.Equal(t, time.Minute, m.Generator.TTL())
	assert.Equal(t, "panel-key", m.KeyID)

	derived, err := LoadAndBuild(Config{PrivPath: privPath, Issuer: "i", Audience: "a", TTL: time.Minute})
	require.NoError(t, err)
	assert.Len(t, derived.KeyID, 16)
	token, _, err := derived.Generator.GenerateAccessToken(3, nil, nil, "")
	require.NoError(t, err)
	_, err = m.Verifier.Verify(token)
	assert.NoError(t, err, "derived public key verifies tokens from the same pair")

	otherDER, err := x509.MarshalPKIXPublicKey(&testKey(t).PublicKey)
	require.NoError(t, err)
	otherPath := filepath.Join(dir, "other.pem")
	require.NoError(t, os.WriteFile(otherPath, pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: otherDER}), 0o644))
	_, err = LoadAndBuild(Config{PrivPath: privPath, PubPath: otherPath})
	assert.ErrorIs(t, err, ErrKeyMismatch)

	require.NoError(t, os.WriteFile(pubPath, []byte("not pem"), 0o644))
	_, err = LoadAndBuild(Config{PrivPath: privPath, PubPath: pubPath})
	assert.Error(t, err)
}
