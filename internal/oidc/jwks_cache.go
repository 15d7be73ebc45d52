package oidc

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/lestrrat-go/jwx/v3/jwk"
)

// jwksFetchTimeout bounds a single JWKS HTTP round trip (§5: JWKS fetch
// deadline ≤ 2s).
const jwksFetchTimeout = 2 * time.Second

// jwksCache is a process-scoped, kid-keyed cache over the configured JWKS
// endpoint. It refreshes atomically: concurrent lookups on a cache miss
// share one in-flight fetch rather than issuing N requests. A refresh
// failure never evicts keys already cached; they stay until their TTL
// elapses.
type jwksCache struct {
	client  *http.Client
	jwksURL string

	mu         sync.Mutex
	keys       map[string]jwk.Key
	fetchedAt  time.Time
	refreshing chan struct{}
}

func newJWKSCache(client *http.Client, jwksURL string) *jwksCache {
	if client == nil {
		client = http.DefaultClient
	}
	return &jwksCache{client: client, jwksURL: jwksURL}
}

// lookup returns the key for kid, refreshing the set if it is stale or
// the kid is unknown. It fails when a needed refresh fails or the kid is
// still absent afterwards; a key past its TTL is never returned.
func (c *jwksCache) lookup(ctx context.Context, kid string) (jwk.Key, error) {
	c.mu.Lock()
	key, ok := c.keys[kid]
	stale := time.Since(c.fetchedAt) > jwksCacheTTL
	c.mu.Unlock()

	if ok && !stale {
		return key, nil
	}

	if err := c.refresh(ctx); err != nil {
		return nil, err
	}

	c.mu.Lock()
	key, ok = c.keys[kid]
	stale = time.Since(c.fetchedAt) > jwksCacheTTL
	c.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("kid %q not present in JWKS", kid)
	}
	if stale {
		return nil, fmt.Errorf("JWKS refresh failed and cached key %q is past its TTL", kid)
	}
	return key, nil
}

// refresh fetches the JWKS once, coalescing concurrent callers onto the
// same in-flight request.
func (c *jwksCache) refresh(ctx context.Context) error {
	c.mu.Lock()
	if c.refreshing != nil {
		done := c.refreshing
		c.mu.Unlock()
		<-done
		return nil
	}
	done := make(chan struct{})
	c.refreshing = done
	c.mu.Unlock()

	fetchCtx, cancel := context.WithTimeout(ctx, jwksFetchTimeout)
	defer cancel()

	set, err := jwk.Fetch(fetchCtx, c.jwksURL, jwk.WithHTTPClient(c.client))

	c.mu.Lock()
	defer func() {
		c.refreshing = nil
		close(done)
		c.mu.Unlock()
	}()

	if err != nil {
		return fmt.Errorf("fetch JWKS: %w", err)
	}

	keys := make(map[string]jwk.Key)
	for i := 0; i < set.Len(); i++ {
		key, ok := set.Key(i)
		if !ok {
			continue
		}
		keys[key.KeyID()] = key
	}
	c.keys = keys
	c.fetchedAt = time.Now()
	return nil
}
