package auth

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/require"
)

func newAuth(t *testing.T) Authenticator {
	t.Helper()
	a, err := New(Options{})
	require.NoError(t, err)
	return a
}

func TestPublicKey_IsValidDER(t *testing.T) {
	a := newAuth(t)
	pub, err := x509.ParsePKIXPublicKey(a.PublicKey())
	require.NoError(t, err)
	_, ok := pub.(*rsa.PublicKey)
	require.True(t, ok)
}

func TestNewVerifyToken(t *testing.T) {
	a := newAuth(t)
	t1, err := a.NewVerifyToken()
	require.NoError(t, err)
	require.Len(t, t1, VerifyTokenLen)
	t2, err := a.NewVerifyToken()
	require.NoError(t, err)
	require.NotEqual(t, t1, t2)
}

// Simulates the client side: encrypt token and secret with the
// server's public key, then let the server verify and decrypt.
func TestVerifyAndDecrypt(t *testing.T) {
	a := newAuth(t)
	pub, err := x509.ParsePKIXPublicKey(a.PublicKey())
	require.NoError(t, err)
	rsaPub := pub.(*rsa.PublicKey)

	token, err := a.NewVerifyToken()
	require.NoError(t, err)
	encToken, err := rsa.EncryptPKCS1v15(rand.Reader, rsaPub, token)
	require.NoError(t, err)

	ok, err := a.Verify(encToken, token)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = a.Verify(encToken, []byte{1, 2, 3, 4})
	require.NoError(t, err)
	require.False(t, ok)

	secret := make([]byte, 16)
	_, err = rand.Read(secret)
	require.NoError(t, err)
	encSecret, err := rsa.EncryptPKCS1v15(rand.Reader, rsaPub, secret)
	require.NoError(t, err)

	got, err := a.DecryptSharedSecret(encSecret)
	require.NoError(t, err)
	require.Equal(t, secret, got)
}

func TestVerify_GarbageCiphertext(t *testing.T) {
	a := newAuth(t)
	_, err := a.Verify([]byte("not a ciphertext"), []byte{1, 2, 3, 4})
	require.Error(t, err)
}

func TestGenerateServerID(t *testing.T) {
	a := newAuth(t)
	id, err := a.GenerateServerID([]byte("sharedsecret1234"))
	require.NoError(t, err)
	require.NotEmpty(t, id)
	// Deterministic for the same secret, never zero-padded.
	id2, err := a.GenerateServerID([]byte("sharedsecret1234"))
	require.NoError(t, err)
	require.Equal(t, id, id2)
	require.NotEqual(t, byte('0'), id[0])
}

func TestAuthenticateJoin(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "bob", r.URL.Query().Get("username"))
		require.NotEmpty(t, r.URL.Query().Get("serverId"))
		_, _ = w.Write([]byte(`{"id":"af74a02d19cb445bb07f6866a861f783","name":"bob","properties":[]}`))
	}))
	defer srv.Close()

	base, err := url.Parse(srv.URL)
	require.NoError(t, err)
	a, err := New(Options{HasJoinedURLFn: CustomHasJoinedURL(base)})
	require.NoError(t, err)

	resp, err := a.AuthenticateJoin(context.Background(), "serverid", "bob", "")
	require.NoError(t, err)
	require.True(t, resp.OnlineMode())

	gp, err := resp.GameProfile()
	require.NoError(t, err)
	require.Equal(t, "bob", gp.Name)
	require.Equal(t, "af74a02d19cb445bb07f6866a861f783", gp.ID.Undashed())
}

func TestAuthenticateJoin_NoContentIsOffline(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	base, err := url.Parse(srv.URL)
	require.NoError(t, err)
	a, err := New(Options{HasJoinedURLFn: CustomHasJoinedURL(base)})
	require.NoError(t, err)

	resp, err := a.AuthenticateJoin(context.Background(), "serverid", "ghost", "")
	require.NoError(t, err)
	require.False(t, resp.OnlineMode())
	_, err = resp.GameProfile()
	require.Error(t, err)
}
