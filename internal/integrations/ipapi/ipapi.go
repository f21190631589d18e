package ipapi

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/Dan9191/weather-service/internal/config"
	"github.com/beevik/etree"
	"github.com/sirupsen/logrus"
)

// Coordinates holds a resolved approximate location.
// Both fields are nil when resolution failed; they are never set singly.
type Coordinates struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

const providerName = "ip-api"

// Cache is the optional cache-aside store for resolved coordinates
type Cache interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}) error
}

// Recorder counts outbound provider calls. May be nil.
type Recorder interface {
	RecordUpstream(provider, outcome string)
}

// Resolver maps client IP addresses to approximate coordinates via ip-api.com.
// Geolocation is cosmetic metadata: every failure path degrades to nil
// coordinates and Resolve never returns an error.
type Resolver struct {
	baseURL string
	client  *http.Client
	cache   Cache // may be nil
	rec     Recorder
	log     *logrus.Logger
}

// NewResolver initializes a new geolocation resolver.
// cache and rec may be nil; without a cache every lookup goes to the provider.
func NewResolver(cfg *config.Config, cache Cache, rec Recorder, log *logrus.Logger) *Resolver {
	return &Resolver{
		baseURL: cfg.GeoAPIURL,
		client: &http.Client{
			Timeout: 5 * time.Second,
		},
		cache: cache,
		rec:   rec,
		log:   log,
	}
}

// Resolve looks up the approximate coordinates of an IP address.
// Cache errors fall through to a provider call; provider errors yield nil
// coordinates for this request. There are no retries.
func (r *Resolver) Resolve(ctx context.Context, ip string) Coordinates {
	if ip == "" {
		return Coordinates{}
	}

	if r.cache != nil {
		var cached Coordinates
		hit, err := r.cache.Get(ctx, ip, &cached)
		if err != nil {
			r.log.Warnf("geolocation cache get failed for %s: %v", ip, err)
		} else if hit {
			return cached
		}
	}

	coords, err := r.lookup(ctx, ip)
	if err != nil {
		r.record("failure")
		r.log.Warnf("geolocation lookup failed for %s: %v", ip, err)
		return Coordinates{}
	}
	r.record("success")

	if r.cache != nil {
		if err := r.cache.Set(ctx, ip, coords); err != nil {
			r.log.Warnf("geolocation cache set failed for %s: %v", ip, err)
		}
	}
	return coords
}

// record notes the call outcome when a recorder is configured
func (r *Resolver) record(outcome string) {
	if r.rec != nil {
		r.rec.RecordUpstream(providerName, outcome)
	}
}

// lookup calls the ip-api XML endpoint and parses the response
func (r *Resolver) lookup(ctx context.Context, ip string) (Coordinates, error) {
	url := fmt.Sprintf("%s/xml/%s", r.baseURL, ip)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Coordinates{}, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return Coordinates{}, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Coordinates{}, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Coordinates{}, fmt.Errorf("failed to read response: %w", err)
	}

	return parseXMLResponse(body)
}

// parseXMLResponse extracts the status and coordinates from an ip-api
// XML document: <query><status>success</status><lat>..</lat><lon>..</lon></query>
func parseXMLResponse(rawBody []byte) (Coordinates, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(rawBody); err != nil {
		return Coordinates{}, fmt.Errorf("failed to parse XML: %w", err)
	}

	status := doc.FindElement("//query/status")
	if status == nil || status.Text() != "success" {
		return Coordinates{}, fmt.Errorf("provider reported failure")
	}

	latElem := doc.FindElement("//query/lat")
	lonElem := doc.FindElement("//query/lon")
	if latElem == nil || lonElem == nil {
		return Coordinates{}, fmt.Errorf("coordinates not found in XML")
	}

	lat, err := strconv.ParseFloat(latElem.Text(), 64)
	if err != nil {
		return Coordinates{}, fmt.Errorf("failed to parse latitude: %w", err)
	}
	lon, err := strconv.ParseFloat(lonElem.Text(), 64)
	if err != nil {
		return Coordinates{}, fmt.Errorf("failed to parse longitude: %w", err)
	}

	return Coordinates{Latitude: &lat, Longitude: &lon}, nil
}
