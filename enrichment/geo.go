package enrichment

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/netip"
	"strings"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"

	"pixeltrack/api/metrics"
	"pixeltrack/api/models"
)

var (
	ErrInvalidIP    = errors.New("geoip: malformed ip address")
	ErrUnroutableIP = errors.New("geoip: ip address is not publicly routable")
)

// GeoLocator resolves an IP address to a location. Implementations may
// return (nil, nil) when the address is valid but has no known location.
type GeoLocator interface {
	Lookup(ctx context.Context, ip string) (*models.GeoLocation, error)
}

// ipapiResponse mirrors the fields we read from https://ipapi.co/<ip>/json/.
type ipapiResponse struct {
	CountryName string   `json:"country_name"`
	Region      string   `json:"region"`
	City        string   `json:"city"`
	Latitude    *float64 `json:"latitude"`
	Longitude   *float64 `json:"longitude"`
	Error       bool     `json:"error"`
	Reason      string   `json:"reason"`
}

// IPAPIClient looks up locations with the ipapi.co JSON API through a
// circuit breaker.
type IPAPIClient struct {
	baseURL string
	http    *http.Client
	cb      *gobreaker.CircuitBreaker[*models.GeoLocation]
}

// NewIPAPIClient creates a client for baseURL (normally https://ipapi.co).
// The breaker opens after 5 consecutive failures and retries after a minute.
func NewIPAPIClient(baseURL string, timeout time.Duration) *IPAPIClient {
	cb := gobreaker.NewCircuitBreaker[*models.GeoLocation](gobreaker.Settings{
		Name:        "geoip",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(_ string, _, to gobreaker.State) {
			metrics.GeoIPBreakerState.Set(float64(to))
		},
	})

	return &IPAPIClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		cb:      cb,
	}
}

// Lookup implements GeoLocator.
func (c *IPAPIClient) Lookup(ctx context.Context, ip string) (*models.GeoLocation, error) {
	addr, err := netip.ParseAddr(strings.TrimSpace(ip))
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidIP, ip)
	}
	addr = addr.Unmap()
	if !addr.IsGlobalUnicast() || addr.IsPrivate() {
		return nil, fmt.Errorf("%w: %s", ErrUnroutableIP, addr)
	}

	return c.cb.Execute(func() (*models.GeoLocation, error) {
		return c.fetch(ctx, addr.String())
	})
}

func (c *IPAPIClient) fetch(ctx context.Context, ip string) (*models.GeoLocation, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/"+ip+"/json/", http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("geoip: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("geoip: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("geoip: unexpected status %d", resp.StatusCode)
	}

	var data ipapiResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("geoip: decode response: %w", err)
	}
	if data.Error {
		return nil, fmt.Errorf("geoip: %s", data.Reason)
	}

	return &models.GeoLocation{
		Country:   orUnknown(data.CountryName),
		Region:    orUnknown(data.Region),
		City:      orUnknown(data.City),
		Latitude:  data.Latitude,
		Longitude: data.Longitude,
	}, nil
}

func orUnknown(s string) string {
	if s == "" {
		return models.Unknown
	}
	return s
}
