// Package api provides the HTTP admin plane for the rookery.
// GET endpoints are public (read-only observation).
// POST endpoints require a bearer token.
package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/talgya/rookery/internal/game"
)

// Server serves realm state and admin operations over HTTP.
type Server struct {
	Engine   *game.Engine
	Addr     string
	AdminKey string // Bearer token for POST endpoints. Empty = POST disabled.
}

// Start begins serving the HTTP API in a goroutine.
func (s *Server) Start() {
	refreshLimiter := NewRateLimiter(10, time.Hour)

	mux := http.NewServeMux()

	// Public endpoints.
	mux.HandleFunc("/api/v1/status", s.handleStatus)
	mux.HandleFunc("/api/v1/realm", s.handleRealm)
	mux.HandleFunc("/api/v1/species", s.handleSpecies)
	mux.HandleFunc("/api/v1/defeated", s.handleDefeated)

	// Admin endpoints (POST, require bearer token).
	mux.HandleFunc("/api/v1/purge", s.adminOnly(s.handlePurge))
	mux.HandleFunc("/api/v1/boon", s.adminOnly(s.handleBoon))
	mux.HandleFunc("/api/v1/images/refresh", s.adminOnly(RateLimitMiddleware(refreshLimiter, s.handleImageRefresh)))

	slog.Info("HTTP API starting", "addr", s.Addr, "admin_auth", s.AdminKey != "")

	go func() {
		if err := http.ListenAndServe(s.Addr, mux); err != nil {
			slog.Error("HTTP server error", "error", err)
		}
	}()
}

// checkBearerToken returns true if the request has a valid admin bearer token.
func (s *Server) checkBearerToken(r *http.Request) bool {
	auth := r.Header.Get("Authorization")
	return strings.HasPrefix(auth, "Bearer ") && strings.TrimPrefix(auth, "Bearer ") == s.AdminKey
}

// adminOnly wraps a handler to require bearer token auth and POST.
func (s *Server) adminOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if s.AdminKey == "" {
			http.Error(w, "admin endpoints disabled (no admin token set)", http.StatusForbidden)
			return
		}
		if !s.checkBearerToken(r) {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next(w, r)
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	adv, err := s.Engine.CurrentAdversary(ctx)
	if err != nil {
		http.Error(w, "adversary unavailable", http.StatusInternalServerError)
		return
	}
	exploration, err := s.Engine.ExplorationTotals(ctx)
	if err != nil {
		http.Error(w, "exploration unavailable", http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string]any{
		"day":         s.Engine.Clock().Today(),
		"until_reset": s.Engine.Clock().UntilReset().String(),
		"adversary": map[string]any{
			"name":           adv.Name,
			"tier":           adv.Tier,
			"resilience":     adv.Resilience,
			"max_resilience": adv.MaxResilience,
		},
		"exploration": exploration,
	})
}

func (s *Server) handleRealm(w http.ResponseWriter, r *http.Request) {
	msgs, err := s.Engine.RealmLog(r.Context(), 50)
	if err != nil {
		http.Error(w, "realm log unavailable", http.StatusInternalServerError)
		return
	}
	writeJSON(w, msgs)
}

func (s *Server) handleSpecies(w http.ResponseWriter, r *http.Request) {
	rows, err := s.Engine.ManifestedSpeciesList(r.Context())
	if err != nil {
		http.Error(w, "species unavailable", http.StatusInternalServerError)
		return
	}
	writeJSON(w, rows)
}

func (s *Server) handleDefeated(w http.ResponseWriter, r *http.Request) {
	rows, err := s.Engine.DefeatedLog(r.Context(), 50)
	if err != nil {
		http.Error(w, "defeated log unavailable", http.StatusInternalServerError)
		return
	}
	writeJSON(w, rows)
}

func (s *Server) handlePurge(w http.ResponseWriter, r *http.Request) {
	var req struct {
		OlderThanDays int `json:"older_than_days"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	if req.OlderThanDays < 1 {
		http.Error(w, "older_than_days must be >= 1", http.StatusBadRequest)
		return
	}
	cutoff := s.Engine.Clock().Now().AddDate(0, 0, -req.OlderThanDays).Format(game.DayFormat)
	n, err := s.Engine.PurgeDaily(r.Context(), cutoff)
	if err != nil {
		slog.Error("purge failed", "error", err)
		http.Error(w, "purge failed", http.StatusInternalServerError)
		return
	}
	slog.Info("daily records purged", "before", cutoff, "rows", n)
	writeJSON(w, map[string]any{"purged": n, "before": cutoff})
}

func (s *Server) handleBoon(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Player string `json:"player"` // empty = fleet-wide
		Kind   string `json:"kind"`
		Amount int    `json:"amount"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	if err := s.Engine.GrantBoon(r.Context(), req.Player, req.Kind, req.Amount); err != nil {
		http.Error(w, fmt.Sprintf("boon failed: %v", err), http.StatusBadRequest)
		return
	}
	scope := req.Player
	if scope == "" {
		scope = "fleet"
	}
	slog.Info("boon granted", "scope", scope, "kind", req.Kind, "amount", req.Amount)
	writeJSON(w, map[string]any{"granted": req.Kind, "amount": req.Amount, "scope": scope})
}

func (s *Server) handleImageRefresh(w http.ResponseWriter, r *http.Request) {
	n, err := s.Engine.RefreshSpeciesImages(r.Context())
	if err != nil {
		http.Error(w, fmt.Sprintf("refresh failed: %v", err), http.StatusBadGateway)
		return
	}
	writeJSON(w, map[string]any{"updated": n})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("write response", "error", err)
	}
}
