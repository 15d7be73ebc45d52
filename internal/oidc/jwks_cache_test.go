package oidc

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

func rsaJWK(pub *rsa.PublicKey, kid string) map[string]string {
	n := base64.RawURLEncoding.EncodeToString(pub.N.Bytes())
	e := base64.RawURLEncoding.EncodeToString(big.NewInt(int64(pub.E)).Bytes())
	return map[string]string{
		"kty": "RSA",
		"n":   n,
		"e":   e,
		"kid": kid,
		"alg": "RS256",
		"use": "sig",
	}
}

func newJWKSServer(t *testing.T, keys ...map[string]string) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var hits atomic.Int32
	body, err := json.Marshal(map[string]any{"keys": keys})
	require.NoError(t, err)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(body)
	}))
	return srv, &hits
}

func TestJWKSCache_Lookup_FindsRegisteredKid(t *testing.T) {
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	srv, hits := newJWKSServer(t, rsaJWK(&priv.PublicKey, "kid-1"))
	defer srv.Close()

	c := newJWKSCache(srv.Client(), srv.URL)

	key, err := c.lookup(context.Background(), "kid-1")
	require.NoError(t, err)
	require.NotNil(t, key)
	require.Equal(t, int32(1), hits.Load())

	// Second lookup for the same kid hits the warm cache, no refetch.
	_, err = c.lookup(context.Background(), "kid-1")
	require.NoError(t, err)
	require.Equal(t, int32(1), hits.Load())
}

func TestJWKSCache_Lookup_UnknownKidErrors(t *testing.T) {
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	srv, _ := newJWKSServer(t, rsaJWK(&priv.PublicKey, "kid-1"))
	defer srv.Close()

	c := newJWKSCache(srv.Client(), srv.URL)

	_, err = c.lookup(context.Background(), "does-not-exist")
	require.Error(t, err)
}
