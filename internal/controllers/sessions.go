package controllers

import (
	"strconv"
	"time"

	"github.com/patrickmn/go-cache"
)

// SessionStore keeps one session per operator, dropping sessions that stay
// idle longer than the TTL
type SessionStore struct {
	cache *cache.Cache
}

// NewSessionStore creates a session store with the given idle expiry
func NewSessionStore(ttl time.Duration) *SessionStore {
	if ttl <= 0 {
		ttl = 2 * time.Hour
	}
	c := cache.New(ttl, ttl/2)
	c.OnEvicted(func(_ string, v interface{}) {
		if s, ok := v.(*Session); ok {
			s.mu.Lock()
			s.reset()
			s.mu.Unlock()
		}
	})
	return &SessionStore{cache: c}
}

func sessionKey(operatorID int64) string {
	return strconv.FormatInt(operatorID, 10)
}

// Get returns the operator's session, creating it on first use, and
// refreshes its expiry
func (st *SessionStore) Get(operatorID int64) *Session {
	key := sessionKey(operatorID)
	if v, found := st.cache.Get(key); found {
		st.cache.SetDefault(key, v)
		return v.(*Session)
	}

	s := newSession(operatorID)
	if err := st.cache.Add(key, s, cache.DefaultExpiration); err != nil {
		// Another request created it first
		if v, found := st.cache.Get(key); found {
			return v.(*Session)
		}
	}
	return s
}

// Lookup returns the operator's session without creating one
func (st *SessionStore) Lookup(operatorID int64) (*Session, bool) {
	v, found := st.cache.Get(sessionKey(operatorID))
	if !found {
		return nil, false
	}
	return v.(*Session), true
}

// Count returns the number of live sessions
func (st *SessionStore) Count() int {
	return st.cache.ItemCount()
}
