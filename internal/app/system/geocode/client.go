// internal/app/system/geocode/client.go

// Package geocode resolves street addresses to coordinates through a
// Nominatim-compatible search API and backfills inquiry locations.
package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/dalemusser/dispatchhub/internal/app/system/metrics"
	"github.com/dalemusser/dispatchhub/internal/domain/models"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	// DefaultEndpoint is the public Nominatim search endpoint.
	DefaultEndpoint = "https://nominatim.openstreetmap.org/search"
	// DefaultUserAgent identifies the backend to the geocoding service.
	DefaultUserAgent = "dispatchhub/1.0"
	// DefaultInterval is the minimum spacing between requests.
	DefaultInterval = time.Second
)

// minLimit is the slowest the limiter backs off to after repeated 429s.
var minLimit = rate.Every(time.Minute)

var (
	// ErrNoResults means the service returned an empty result list.
	ErrNoResults = errors.New("geocode: no results")
	// ErrRateLimited means the service answered 429 Too Many Requests.
	ErrRateLimited = errors.New("geocode: rate limited by service")
)

// Options configures a Client. Zero values select the defaults.
type Options struct {
	Endpoint   string
	UserAgent  string
	Interval   time.Duration
	HTTPClient *http.Client
	Logger     *zap.Logger
	Metrics    metrics.Recorder
}

// Client is a rate-limited geocoding client. One token bucket is shared by
// every call made through the same Client.
type Client struct {
	httpClient *http.Client
	endpoint   string
	userAgent  string
	limiter    *rate.Limiter
	log        *zap.Logger
	metrics    metrics.Recorder
}

// NewClient returns a Client for opts.
func NewClient(opts Options) *Client {
	c := &Client{
		httpClient: opts.HTTPClient,
		endpoint:   opts.Endpoint,
		userAgent:  opts.UserAgent,
		log:        opts.Logger,
		metrics:    opts.Metrics,
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	if c.endpoint == "" {
		c.endpoint = DefaultEndpoint
	}
	if c.userAgent == "" {
		c.userAgent = DefaultUserAgent
	}
	if c.log == nil {
		c.log = zap.NewNop()
	}
	if c.metrics == nil {
		c.metrics = metrics.Nop{}
	}
	interval := opts.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	c.limiter = rate.NewLimiter(rate.Every(interval), 1)
	return c
}

// Limit returns the current request rate.
func (c *Client) Limit() rate.Limit {
	return c.limiter.Limit()
}

type searchResult struct {
	Lat string `json:"lat"`
	Lon string `json:"lon"`
}

// Geocode looks up query and returns the first match. It blocks until the
// rate limiter admits the request or ctx is done.
func (c *Client) Geocode(ctx context.Context, query string) (models.Location, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return models.Location{}, fmt.Errorf("geocode: wait for rate limiter: %w", err)
	}

	reqURL, err := url.Parse(c.endpoint)
	if err != nil {
		return models.Location{}, fmt.Errorf("geocode: parse endpoint: %w", err)
	}
	q := reqURL.Query()
	q.Set("q", query)
	q.Set("format", "json")
	q.Set("limit", "1")
	reqURL.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL.String(), nil)
	if err != nil {
		return models.Location{}, fmt.Errorf("geocode: build request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.RecordGeocode("transport_error")
		return models.Location{}, fmt.Errorf("geocode: request: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		c.metrics.RecordGeocode("rate_limited")
		c.backOff()
		return models.Location{}, ErrRateLimited
	case resp.StatusCode != http.StatusOK:
		c.metrics.RecordGeocode("http_error")
		return models.Location{}, fmt.Errorf("geocode: service returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.metrics.RecordGeocode("read_error")
		return models.Location{}, fmt.Errorf("geocode: read response: %w", err)
	}
	var results []searchResult
	if err := json.Unmarshal(body, &results); err != nil {
		c.metrics.RecordGeocode("decode_error")
		return models.Location{}, fmt.Errorf("geocode: decode response: %w", err)
	}
	if len(results) == 0 {
		c.metrics.RecordGeocode("no_results")
		return models.Location{}, ErrNoResults
	}

	lat, err := strconv.ParseFloat(results[0].Lat, 64)
	if err != nil {
		c.metrics.RecordGeocode("decode_error")
		return models.Location{}, fmt.Errorf("geocode: parse lat %q: %w", results[0].Lat, err)
	}
	lon, err := strconv.ParseFloat(results[0].Lon, 64)
	if err != nil {
		c.metrics.RecordGeocode("decode_error")
		return models.Location{}, fmt.Errorf("geocode: parse lon %q: %w", results[0].Lon, err)
	}
	c.metrics.RecordGeocode("ok")
	return models.Location{Latitude: lat, Longitude: lon}, nil
}

// backOff halves the request rate, never going below minLimit.
func (c *Client) backOff() {
	next := c.limiter.Limit() / 2
	if next < minLimit {
		next = minLimit
	}
	c.limiter.SetLimit(next)
	c.log.Warn("geocoding service rate limited us; slowing down",
		zap.Float64("requests_per_second", float64(next)))
}
