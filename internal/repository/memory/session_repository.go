package memory

import (
	"time"

	"pdf-assistant-be/pkg/store"

	"github.com/patrickmn/go-cache"
)

// SessionRepository keeps active sessions in process memory. A session that
// sees no traffic for the TTL simply expires; nothing persists beyond that.
type SessionRepository struct {
	cache *cache.Cache
}

func NewSessionRepository(ttl, purgeInterval time.Duration) *SessionRepository {
	c := cache.New(ttl, purgeInterval)
	return &SessionRepository{
		cache: c,
	}
}

func (r *SessionRepository) Save(session *store.Session) {
	r.cache.Set(session.ID, session, cache.DefaultExpiration)
}

// Get returns the session and refreshes its expiration so an active
// conversation never times out mid-flow.
func (r *SessionRepository) Get(sessionID string) (*store.Session, bool) {
	if x, found := r.cache.Get(sessionID); found {
		sess := x.(*store.Session)
		r.cache.Set(sessionID, sess, cache.DefaultExpiration)
		return sess, true
	}
	return nil, false
}

func (r *SessionRepository) Delete(sessionID string) {
	r.cache.Delete(sessionID)
}
