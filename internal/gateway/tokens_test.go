package gateway

import (
	"testing"
	"time"
)

func TestTokenIssueAndResolve(t *testing.T) {
	reg := newTokenRegistry()
	tok, err := reg.Issue("alice")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if tok == "" {
		t.Fatal("empty token")
	}
	if got := reg.Resolve(tok); got != "alice" {
		t.Fatalf("Resolve = %q, want alice", got)
	}
	if got := reg.Resolve("no-such-token"); got != "" {
		t.Fatalf("Resolve(unknown) = %q, want empty", got)
	}

	tok2, err := reg.Issue("alice")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if tok2 == tok {
		t.Fatal("tokens must be unique per issue")
	}
}

func TestTokenExpiry(t *testing.T) {
	reg := newTokenRegistry()
	tok, err := reg.Issue("bob")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	reg.mu.Lock()
	e := reg.tokens[tok]
	e.expires = time.Now().Add(-time.Minute)
	reg.tokens[tok] = e
	reg.mu.Unlock()

	if got := reg.Resolve(tok); got != "" {
		t.Fatalf("Resolve(expired) = %q, want empty", got)
	}
}
