package tokencache

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

const (
	tokensFile   = "tokens.json"
	usernameFile = "username"
)

// FileCache keeps the pair in a JSON file under dir plus a plain file for
// the username, mirroring the browser demo's localStorage entries.
// Safe for concurrent use within one process, there is no cross process lock
type FileCache struct {
	mu  sync.Mutex
	dir string
}

func NewFileCache(dir string) (*FileCache, error) {
	if dir == "" {
		return nil, errors.New("cache dir must not be empty")
	}

	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("can't create cache dir: %w", err)
	}

	return &FileCache{dir: dir}, nil
}

func (c *FileCache) Store(access string, refresh string) (Pair, error) {
	expiry, err := DeriveExpiry(access)
	if err != nil {
		return Pair{}, err
	}

	pair := Pair{
		AccessToken:       access,
		RefreshToken:      refresh,
		AccessTokenExpiry: expiry,
	}

	data, err := json.Marshal(pair)
	if err != nil {
		return Pair{}, fmt.Errorf("can't encode token pair: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := os.WriteFile(filepath.Join(c.dir, tokensFile), data, 0o600); err != nil {
		return Pair{}, fmt.Errorf("can't write token pair: %w", err)
	}

	return pair, nil
}

func (c *FileCache) Load() (Pair, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	data, err := os.ReadFile(filepath.Join(c.dir, tokensFile))
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return Pair{}, ErrNoTokens
	case err != nil:
		return Pair{}, fmt.Errorf("can't read token pair: %w", err)
	}

	var pair Pair
	if err := json.Unmarshal(data, &pair); err != nil {
		return Pair{}, fmt.Errorf("can't decode token pair: %w", err)
	}

	return pair, nil
}

func (c *FileCache) Clear() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, name := range []string{tokensFile, usernameFile} {
		err := os.Remove(filepath.Join(c.dir, name))
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("can't remove %s: %w", name, err)
		}
	}

	return nil
}

func (c *FileCache) SetUsername(username string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := os.WriteFile(filepath.Join(c.dir, usernameFile), []byte(username), 0o600); err != nil {
		return fmt.Errorf("can't write username: %w", err)
	}
	return nil
}

func (c *FileCache) Username() (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	data, err := os.ReadFile(filepath.Join(c.dir, usernameFile))
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return "", nil
	case err != nil:
		return "", fmt.Errorf("can't read username: %w", err)
	}

	return strings.TrimSpace(string(data)), nil
}
