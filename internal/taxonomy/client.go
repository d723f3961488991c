// Package taxonomy resolves free-text species queries against the
// iNaturalist taxa API. Results are cached; failures surface as errors
// the engine maps to its external-unavailable class.
package taxonomy

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/talgya/rookery/internal/game"
)

const defaultBaseURL = "https://api.inaturalist.org/v1"

// Client queries the taxa endpoint. A nil Client reports the service
// unconfigured on every call.
type Client struct {
	baseURL string
	client  *http.Client

	mu    sync.Mutex
	cache map[string]*game.TaxonomyRecord
}

// NewClient creates a taxonomy client. An empty baseURL selects the
// public iNaturalist API.
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 8 * time.Second},
		cache:   make(map[string]*game.TaxonomyRecord),
	}
}

// Lookup resolves a query to its best taxon match.
func (c *Client) Lookup(ctx context.Context, query string) (*game.TaxonomyRecord, error) {
	key := strings.ToLower(strings.TrimSpace(query))

	c.mu.Lock()
	if rec, ok := c.cache[key]; ok {
		c.mu.Unlock()
		return rec, nil
	}
	c.mu.Unlock()

	u := fmt.Sprintf("%s/taxa?q=%s&per_page=1", c.baseURL, url.QueryEscape(query))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("taxonomy request: %w", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("taxonomy call: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read taxonomy response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("taxonomy API error %d", resp.StatusCode)
	}

	var parsed struct {
		Results []struct {
			Name                string `json:"name"`
			PreferredCommonName string `json:"preferred_common_name"`
			IconicTaxonName     string `json:"iconic_taxon_name"`
			ObservationsCount   int    `json:"observations_count"`
			DefaultPhoto        struct {
				MediumURL string `json:"medium_url"`
			} `json:"default_photo"`
		} `json:"results"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("parse taxonomy: %w", err)
	}
	if len(parsed.Results) == 0 {
		return nil, fmt.Errorf("no taxon found for %q", query)
	}

	hit := parsed.Results[0]
	common := hit.PreferredCommonName
	if common == "" {
		common = hit.Name
	}
	rec := &game.TaxonomyRecord{
		ScientificName: hit.Name,
		CommonName:     common,
		IconicTaxon:    hit.IconicTaxonName,
		Observations:   hit.ObservationsCount,
		PhotoURL:       hit.DefaultPhoto.MediumURL,
	}

	c.mu.Lock()
	c.cache[key] = rec
	c.mu.Unlock()

	slog.Debug("taxonomy resolved", "query", query, "scientific", rec.ScientificName, "taxon", rec.IconicTaxon)
	return rec, nil
}
