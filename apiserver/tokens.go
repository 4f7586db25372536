package apiserver

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"shokken/model"
)

// tokenStore は発行済みベアラートークンをメモリに保持します。
// トークンは uuid で、TTL を過ぎると検証時に破棄されます。
type tokenStore struct {
	mu     sync.Mutex
	ttl    time.Duration
	tokens map[string]tokenEntry
}

type tokenEntry struct {
	user    model.User
	expires time.Time
}

func newTokenStore(ttl time.Duration) *tokenStore {
	return &tokenStore{
		ttl:    ttl,
		tokens: make(map[string]tokenEntry),
	}
}

// issue は新しいトークンを発行します。
func (t *tokenStore) issue(user model.User) string {
	token := uuid.NewString()
	t.mu.Lock()
	t.tokens[token] = tokenEntry{user: user, expires: time.Now().Add(t.ttl)}
	t.mu.Unlock()
	return token
}

// lookup はトークンを検証し、対応する利用者を返します。
func (t *tokenStore) lookup(token string) (model.User, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	entry, ok := t.tokens[token]
	if !ok {
		return model.User{}, false
	}
	if time.Now().After(entry.expires) {
		delete(t.tokens, token)
		return model.User{}, false
	}
	return entry.user, true
}

// revoke はトークンを失効させます。
func (t *tokenStore) revoke(token string) {
	t.mu.Lock()
	delete(t.tokens, token)
	t.mu.Unlock()
}
