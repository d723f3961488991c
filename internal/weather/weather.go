// Package weather provides the daily realm forecast. A configured
// client reads real conditions from OpenWeatherMap; without one the
// forecast degrades to a smooth synthetic climate so the daily
// announcement never goes silent.
package weather

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	opensimplex "github.com/ojrac/opensimplex-go"
)

// Client fetches weather data from OpenWeatherMap.
type Client struct {
	apiKey   string
	location string
	client   *http.Client

	mu          sync.Mutex
	cached      *Conditions
	cachedAt    time.Time
	cacheTTL    time.Duration
	lastFailAt  time.Time
	failBackoff time.Duration
}

// NewClient creates a weather API client. Returns nil if apiKey is
// empty; callers fall back to the synthetic forecast.
func NewClient(apiKey, location string) *Client {
	if apiKey == "" {
		return nil
	}
	if location == "" {
		location = "Sydney,AU"
	}
	return &Client{
		apiKey:   apiKey,
		location: location,
		client:   &http.Client{Timeout: 10 * time.Second},
		cacheTTL: 30 * time.Minute,
	}
}

// Conditions holds parsed weather data.
type Conditions struct {
	Temp        float64 `json:"temp"` // Celsius
	Description string  `json:"description"`
	WindSpeed   float64 `json:"wind_speed"` // m/s
	IsStorm     bool    `json:"is_storm"`
	IsRain      bool    `json:"is_rain"`
}

// Fetch retrieves current conditions, using cache if fresh. Repeated
// failures back off up to ten minutes and serve the stale cache.
func (c *Client) Fetch() (*Conditions, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cached != nil && time.Since(c.cachedAt) < c.cacheTTL {
		return c.cached, nil
	}

	if c.failBackoff > 0 && time.Since(c.lastFailAt) < c.failBackoff {
		if c.cached != nil {
			return c.cached, nil
		}
		return nil, fmt.Errorf("weather API backoff (%s remaining)", c.failBackoff-time.Since(c.lastFailAt))
	}

	conditions, err := c.fetchFromAPI()
	if err != nil {
		c.lastFailAt = time.Now()
		if c.failBackoff == 0 {
			c.failBackoff = 1 * time.Minute
		} else if c.failBackoff < 10*time.Minute {
			c.failBackoff *= 2
		}
		if c.cached != nil {
			return c.cached, nil
		}
		return nil, err
	}

	c.cached = conditions
	c.cachedAt = time.Now()
	c.failBackoff = 0
	return conditions, nil
}

func (c *Client) fetchFromAPI() (*Conditions, error) {
	apiURL := fmt.Sprintf("https://api.openweathermap.org/data/2.5/weather?q=%s&appid=%s&units=metric",
		url.QueryEscape(c.location), c.apiKey)

	resp, err := c.client.Get(apiURL)
	if err != nil {
		return nil, fmt.Errorf("weather API call: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read weather response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("weather API error %d: %s", resp.StatusCode, string(body))
	}

	var owm struct {
		Main struct {
			Temp float64 `json:"temp"`
		} `json:"main"`
		Weather []struct {
			Main        string `json:"main"`
			Description string `json:"description"`
		} `json:"weather"`
		Wind struct {
			Speed float64 `json:"speed"`
		} `json:"wind"`
	}
	if err := json.Unmarshal(body, &owm); err != nil {
		return nil, fmt.Errorf("parse weather: %w", err)
	}

	conditions := &Conditions{
		Temp:      owm.Main.Temp,
		WindSpeed: owm.Wind.Speed,
	}
	if len(owm.Weather) > 0 {
		conditions.Description = owm.Weather[0].Description
		main := strings.ToLower(owm.Weather[0].Main)
		conditions.IsRain = main == "rain" || main == "drizzle"
		conditions.IsStorm = main == "thunderstorm" || conditions.WindSpeed > 15
	}

	slog.Debug("weather fetched", "temp", conditions.Temp, "desc", conditions.Description)
	return conditions, nil
}

// Forecaster produces the daily realm forecast line from a real client
// when available, otherwise from a seeded noise field so consecutive
// days drift believably.
type Forecaster struct {
	client *Client
	noise  opensimplex.Noise
}

// NewForecaster wires a forecaster. client may be nil.
func NewForecaster(client *Client, seed int64) *Forecaster {
	return &Forecaster{
		client: client,
		noise:  opensimplex.NewNormalized(seed),
	}
}

// Forecast renders the announcement line for the given day key
// (YYYY-MM-DD).
func (f *Forecaster) Forecast(day string) string {
	if f.client != nil {
		if c, err := f.client.Fetch(); err == nil {
			return describe(c)
		}
	}
	return f.synthetic(day)
}

func describe(c *Conditions) string {
	switch {
	case c.IsStorm:
		return fmt.Sprintf("A storm rolls over the rookery (%.0f°C, wind %.0f m/s). Keep the eggs warm!", c.Temp, c.WindSpeed)
	case c.IsRain:
		return fmt.Sprintf("Rain on the canopy today, %.0f°C. Good weather for seeds.", c.Temp)
	case c.Temp >= 30:
		return fmt.Sprintf("A scorcher at %.0f°C. The birds shelter in the shade.", c.Temp)
	case c.Temp <= 5:
		return fmt.Sprintf("A cold snap at %.0f°C. Brooding counts double in spirit.", c.Temp)
	default:
		return fmt.Sprintf("%s, %.0f°C. A fine day for foraging.", capitalize(c.Description), c.Temp)
	}
}

// synthetic samples a slow noise field keyed by the day so the offline
// forecast changes daily but never jumps wildly.
func (f *Forecaster) synthetic(day string) string {
	t, err := time.Parse("2006-01-02", day)
	if err != nil {
		t = time.Now()
	}
	x := float64(t.Unix()) / 86400.0
	temp := 8 + 22*f.noise.Eval2(x*0.05, 0)
	wet := f.noise.Eval2(x*0.11, 17)
	switch {
	case wet > 0.75:
		return fmt.Sprintf("Steady rain across the realm, around %.0f°C.", temp)
	case wet > 0.6:
		return fmt.Sprintf("Scattered showers, around %.0f°C.", temp)
	default:
		return fmt.Sprintf("Clear skies over the rookery, around %.0f°C.", temp)
	}
}

func capitalize(s string) string {
	if s == "" {
		return "Fair weather"
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
