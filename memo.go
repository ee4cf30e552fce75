package krb5keep

import (
	"time"

	"github.com/patrickmn/go-cache"
)

// Cleanup interval for the in-memory credential memo
const memoCleanupInterval = 1 * time.Minute

// credMemo keeps the last parsed cache credential in memory so a scheduler
// tick that finds a still-valid ticket does not re-read and re-parse the
// cache file. Entries expire exactly when their ticket leaves the Valid
// state, so a memo hit always means "still valid".
type credMemo struct {
	c *cache.Cache
}

func newCredMemo() *credMemo {
	return &credMemo{
		c: cache.New(cache.NoExpiration, memoCleanupInterval),
	}
}

// Get returns the memoized credential for a cache path, or nil.
func (m *credMemo) Get(path string) *Credential {
	if val, found := m.c.Get(path); found {
		if cred, ok := val.(*Credential); ok {
			return cred
		}
	}
	return nil
}

// Set memoizes a credential for its remaining validity. Credentials already
// outside the Valid state are not memoized.
func (m *credMemo) Set(path string, cred *Credential) {
	ttl := cred.EndTime().Sub(cred.ctx.Now())
	if ttl <= 0 {
		return
	}
	m.c.Set(path, cred, ttl)
}

// Invalidate drops the memo entry for a cache path.
func (m *credMemo) Invalidate(path string) {
	m.c.Delete(path)
}
