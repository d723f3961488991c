package gateway

import (
	"crypto/rand"
	"encoding/base64"
	"sync"
	"time"
)

const (
	tokenTTL      = time.Hour
	maxLiveTokens = 1024
)

// tokenRegistry issues short-lived tokens that let the web decorator
// act as a chat player without platform credentials.
type tokenRegistry struct {
	mu     sync.Mutex
	tokens map[string]tokenEntry
}

type tokenEntry struct {
	playerID string
	expires  time.Time
}

func newTokenRegistry() *tokenRegistry {
	return &tokenRegistry{tokens: make(map[string]tokenEntry)}
}

// Issue mints a one-hour token for the player. The registry is bounded;
// expired entries are collected on every issue.
func (r *tokenRegistry) Issue(playerID string) (string, error) {
	var raw [32]byte
	if _, err := rand.Read(raw[:]); err != nil {
		return "", err
	}
	token := base64.RawURLEncoding.EncodeToString(raw[:])

	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	for t, e := range r.tokens {
		if now.After(e.expires) {
			delete(r.tokens, t)
		}
	}
	if len(r.tokens) >= maxLiveTokens {
		// Drop the soonest-expiring entry rather than refusing.
		var oldest string
		var oldestAt time.Time
		for t, e := range r.tokens {
			if oldest == "" || e.expires.Before(oldestAt) {
				oldest, oldestAt = t, e.expires
			}
		}
		delete(r.tokens, oldest)
	}
	r.tokens[token] = tokenEntry{playerID: playerID, expires: now.Add(tokenTTL)}
	return token, nil
}

// Resolve returns the player behind a token, or "" when the token is
// unknown or expired.
func (r *tokenRegistry) Resolve(token string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.tokens[token]
	if !ok || time.Now().After(e.expires) {
		delete(r.tokens, token)
		return ""
	}
	return e.playerID
}
