// Package entropy provides true randomness via random.org for the hatch
// and blessing draws. Falls back to crypto/rand when the API is
// unavailable or unconfigured.
package entropy

import (
	"bytes"
	"crypto/rand"
	"encoding/binary"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"
)

// Source provides random draws from random.org with a local pool.
// A nil Source is valid and uses crypto/rand for everything.
type Source struct {
	apiKey string
	client *http.Client

	mu   sync.Mutex
	pool []float64
}

// NewSource creates a random.org-backed source. Returns nil if apiKey
// is empty; a nil source still serves draws from crypto/rand.
func NewSource(apiKey string) *Source {
	if apiKey == "" {
		return nil
	}
	return &Source{
		apiKey: apiKey,
		client: &http.Client{Timeout: 15 * time.Second},
	}
}

// Float returns a random float64 in [0, 1). Uses the pool, refilling
// from random.org when low. Falls back to crypto/rand on API failure.
func (s *Source) Float() float64 {
	if s == nil {
		return cryptoRandFloat()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.pool) < 10 {
		s.refill()
	}

	if len(s.pool) == 0 {
		return cryptoRandFloat()
	}

	val := s.pool[0]
	s.pool = s.pool[1:]
	return val
}

// Intn returns a uniform int in [0, n). Panics if n <= 0, matching
// math/rand.
func (s *Source) Intn(n int) int {
	if n <= 0 {
		panic("entropy: Intn called with non-positive n")
	}
	v := int(s.Float() * float64(n))
	if v >= n {
		v = n - 1
	}
	return v
}

func (s *Source) refill() {
	req := map[string]any{
		"jsonrpc": "2.0",
		"method":  "generateDecimalFractions",
		"params": map[string]any{
			"apiKey":        s.apiKey,
			"n":             100,
			"decimalPlaces": 6,
		},
		"id": 1,
	}

	body, err := json.Marshal(req)
	if err != nil {
		slog.Debug("random.org marshal failed", "error", err)
		return
	}

	resp, err := s.client.Post("https://api.random.org/json-rpc/4/invoke", "application/json", bytes.NewReader(body))
	if err != nil {
		slog.Debug("random.org fetch failed", "error", err)
		return
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		slog.Debug("random.org read failed", "error", err)
		return
	}

	var result struct {
		Result struct {
			Random struct {
				Data []float64 `json:"data"`
			} `json:"random"`
		} `json:"result"`
		Error *struct {
			Message string `json:"message"`
		} `json:"error"`
	}

	if err := json.Unmarshal(respBody, &result); err != nil {
		slog.Debug("random.org parse failed", "error", err)
		return
	}

	if result.Error != nil {
		slog.Debug("random.org API error", "error", result.Error.Message)
		return
	}

	s.pool = append(s.pool, result.Result.Random.Data...)
	slog.Debug("random.org pool refilled", "count", len(result.Result.Random.Data))
}

// Enabled reports whether draws come from random.org.
func (s *Source) Enabled() bool {
	return s != nil && s.apiKey != ""
}

// cryptoRandFloat generates a random float64 using crypto/rand.
func cryptoRandFloat() float64 {
	var buf [8]byte
	_, err := rand.Read(buf[:])
	if err != nil {
		// This should never happen but return 0.5 as a safe default.
		return 0.5
	}
	// Use only 53 bits for a uniform float64 in [0, 1).
	n := binary.LittleEndian.Uint64(buf[:]) >> 11
	return float64(n) / float64(1<<53)
}
