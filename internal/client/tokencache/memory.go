package tokencache

import (
	"sync"
)

// MemCache is an in-memory Cache, handy for tests and throwaway sessions
type MemCache struct {
	mu       sync.Mutex
	pair     *Pair
	username string
}

func NewMemCache() *MemCache {
	return &MemCache{}
}

func (c *MemCache) Store(access string, refresh string) (Pair, error) {
	expiry, err := DeriveExpiry(access)
	if err != nil {
		return Pair{}, err
	}

	pair := Pair{
		AccessToken:       access,
		RefreshToken:      refresh,
		AccessTokenExpiry: expiry,
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.pair = &pair

	return pair, nil
}

func (c *MemCache) Load() (Pair, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.pair == nil {
		return Pair{}, ErrNoTokens
	}
	return *c.pair, nil
}

func (c *MemCache) Clear() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.pair = nil
	c.username = ""
	return nil
}

func (c *MemCache) SetUsername(username string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.username = username
	return nil
}

func (c *MemCache) Username() (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.username, nil
}
