package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"HousingAlerts/internal/domain"
	"HousingAlerts/internal/ports"
)

// ErrNoResult is returned when the service knows no place for the postal code and city.
var ErrNoResult = errors.New("no geocoding result")

type cached struct {
	point domain.GeoPoint
	found bool
}

// Client resolves Swiss postal codes through a Nominatim-compatible search API.
// Results, misses included, are cached per postal code and city; requests are spaced by interval.
type Client struct {
	endpoint string
	email    string
	interval time.Duration
	http     *http.Client

	mu    sync.Mutex
	last  time.Time
	cache map[string]cached
	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

var _ ports.Geocoder = (*Client)(nil)

// NewClient creates a reusable HTTP client. A non-positive interval defaults to one second.
func NewClient(endpoint, email string, interval time.Duration) *Client {
	if interval <= 0 {
		interval = time.Second
	}
	return &Client{
		endpoint: strings.TrimSuffix(endpoint, "/"),
		email:    email,
		interval: interval,
		http:     &http.Client{Timeout: 10 * time.Second},
		cache:    map[string]cached{},
		now:      time.Now,
		sleep:    sleepCtx,
	}
}

// Locate returns the coordinates of postalCode/city.
func (c *Client) Locate(ctx context.Context, postalCode, city string) (domain.GeoPoint, error) {
	key := strings.ToLower(strings.TrimSpace(postalCode) + "|" + strings.TrimSpace(city))

	c.mu.Lock()
	defer c.mu.Unlock()

	if hit, ok := c.cache[key]; ok {
		if !hit.found {
			return domain.GeoPoint{}, ErrNoResult
		}
		return hit.point, nil
	}

	if err := c.waitTurn(ctx); err != nil {
		return domain.GeoPoint{}, err
	}

	query := url.Values{}
	query.Set("postalcode", postalCode)
	query.Set("city", city)
	query.Set("countrycodes", "ch")
	query.Set("format", "jsonv2")
	query.Set("limit", "1")

	var places []struct {
		Lat string `json:"lat"`
		Lon string `json:"lon"`
	}
	if err := c.get(ctx, "/search", query, &places); err != nil {
		return domain.GeoPoint{}, err
	}

	if len(places) == 0 {
		c.cache[key] = cached{}
		return domain.GeoPoint{}, ErrNoResult
	}

	lat, errLat := strconv.ParseFloat(places[0].Lat, 64)
	lng, errLng := strconv.ParseFloat(places[0].Lon, 64)
	if errLat != nil || errLng != nil {
		return domain.GeoPoint{}, fmt.Errorf("invalid coordinates %q,%q", places[0].Lat, places[0].Lon)
	}

	point := domain.GeoPoint{Lat: lat, Lng: lng}
	c.cache[key] = cached{point: point, found: true}
	return point, nil
}

// waitTurn must be called with mu held.
func (c *Client) waitTurn(ctx context.Context) error {
	if !c.last.IsZero() {
		if wait := c.interval - c.now().Sub(c.last); wait > 0 {
			if err := c.sleep(ctx, wait); err != nil {
				return err
			}
		}
	}
	c.last = c.now()
	return nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+path+"?"+query.Encode(), nil)
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	agent := "HousingAlerts/1.0"
	if c.email != "" {
		agent += " (" + c.email + ")"
	}
	req.Header.Set("User-Agent", agent)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		closeErr := resp.Body.Close()
		if closeErr != nil {
			return fmt.Errorf("unexpected status %s, close body: %v", resp.Status, closeErr)
		}
		return fmt.Errorf("unexpected status %s", resp.Status)
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		_ = resp.Body.Close()
		return fmt.Errorf("decode response: %w", err)
	}

	if err := resp.Body.Close(); err != nil {
		return fmt.Errorf("close response body: %w", err)
	}

	return nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
