package weatherstack

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/Dan9191/weather-service/internal/config"
	"github.com/Dan9191/weather-service/internal/models"
	"github.com/sirupsen/logrus"
)

const providerName = "weatherstack"

// Recorder counts outbound provider calls. May be nil.
type Recorder interface {
	RecordUpstream(provider, outcome string)
}

// Client handles integration with the weatherstack API
type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
	rec     Recorder
	log     *logrus.Logger
}

// NewClient initializes a new weatherstack client. rec may be nil.
func NewClient(cfg *config.Config, rec Recorder, log *logrus.Logger) *Client {
	return &Client{
		baseURL: cfg.WeatherAPIURL,
		apiKey:  cfg.WeatherAPIKey,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		rec: rec,
		log: log,
	}
}

// record notes the call outcome when a recorder is configured
func (c *Client) record(outcome string) {
	if c.rec != nil {
		c.rec.RecordUpstream(providerName, outcome)
	}
}

// buildRequestURL creates the current-conditions URL for a query
// (a city name or a "lat,lon" pair)
func (c *Client) buildRequestURL(query string) string {
	params := url.Values{}
	params.Set("access_key", c.apiKey)
	params.Set("query", query)
	return fmt.Sprintf("%s/current?%s", c.baseURL, params.Encode())
}

// Current fetches current weather conditions for the query and returns the
// provider's payload verbatim. The call is attempted exactly once; any
// failure is surfaced as a models.UpstreamError.
func (c *Client) Current(ctx context.Context, query string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.buildRequestURL(query), nil)
	if err != nil {
		c.record("failure")
		return nil, &models.UpstreamError{Provider: providerName, Detail: err.Error(), Err: err}
	}

	resp, err := c.client.Do(req)
	if err != nil {
		c.record("failure")
		return nil, &models.UpstreamError{Provider: providerName, Detail: err.Error(), Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.record("failure")
		return nil, &models.UpstreamError{Provider: providerName, Detail: err.Error(), Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		c.record("failure")
		detail := fmt.Sprintf("unexpected status code %d: %s", resp.StatusCode, string(body))
		return nil, &models.UpstreamError{Provider: providerName, Detail: detail}
	}

	c.record("success")
	c.log.Debugf("weatherstack response for %q: %s", query, string(body))
	return body, nil
}
