package errcache

import (
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
)

// ErrCache remembers recent failures by key. A zero expiration disables it:
// Set becomes a no-op and Get never returns an error.
type ErrCache struct {
	cache      *cache.Cache
	expiration time.Duration
	mu         sync.Mutex
}

func NewErrCache(expiration time.Duration) *ErrCache {
	return &ErrCache{cache: cache.New(expiration, expiration*2), expiration: expiration}
}

func (e *ErrCache) Resize(expiration time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if expiration <= 0 {
		e.cache.Flush()
	}
	e.cache = cache.NewFrom(expiration, expiration*2, e.cache.Items())
	e.expiration = expiration
}

func (e *ErrCache) Enabled() bool {
	if e == nil {
		return false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.expiration > 0
}

func (e *ErrCache) Get(key string) error {
	if e == nil {
		return nil
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.expiration <= 0 {
		return nil
	}
	if err, ok := e.cache.Get(key); ok {
		return err.(error)
	}
	return nil
}

func (e *ErrCache) Set(key string, err error) {
	if e == nil || err == nil {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.expiration <= 0 {
		return
	}
	e.cache.Set(key, err, cache.DefaultExpiration)
}

// Forget drops a remembered failure, eg after the key was created.
func (e *ErrCache) Forget(key string) {
	if e == nil {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cache.Delete(key)
}
