// Package klaviyo is a minimal read-only client for the Klaviyo
// reporting API: campaign listings and per-campaign engagement metrics.
package klaviyo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

const (
	// DefaultBaseURL is the production Klaviyo API endpoint.
	DefaultBaseURL = "https://a.klaviyo.com/api"

	// DefaultRevision is the API version sent in the revision header.
	DefaultRevision = "2024-10-15"

	defaultTimeout = 30 * time.Second
)

// campaignFields is the sparse fieldset requested from the campaign
// listing endpoint.
const campaignFields = "name,status,send_time"

// APIError is a non-success response from the Klaviyo API. Transport
// failures are folded into the same type with StatusCode 0.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("klaviyo API unreachable: %s", e.Body)
	}
	return fmt.Sprintf("klaviyo API error (%d): %s", e.StatusCode, e.Body)
}

// Filter restricts a campaign listing by send time. Nil bounds are
// unbounded.
type Filter struct {
	Start *time.Time
	End   *time.Time
}

// Config configures a Client. The zero value is usable; defaults point
// at the production API.
type Config struct {
	BaseURL  string
	Revision string
	Timeout  time.Duration
	MaxPages int // pages of campaign listings to follow; 0 or 1 = first page only
}

// Client issues authenticated requests to the Klaviyo API. The
// credential is supplied per call because each tenant account carries
// its own private key.
type Client struct {
	baseURL    string
	revision   string
	maxPages   int
	httpClient *http.Client
}

// NewClient creates a Klaviyo API client.
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Revision == "" {
		cfg.Revision = DefaultRevision
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.MaxPages < 1 {
		cfg.MaxPages = 1
	}
	return &Client{
		baseURL:  cfg.BaseURL,
		revision: cfg.Revision,
		maxPages: cfg.MaxPages,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

// get performs an authenticated GET against rawURL and decodes the JSON
// body into result.
func (c *Client) get(ctx context.Context, rawURL, apiKey string, result any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Authorization", "Klaviyo-API-Key "+apiKey)
	req.Header.Set("revision", c.revision)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &APIError{StatusCode: 0, Body: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &APIError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// FetchCampaigns lists campaigns visible to the given credential,
// restricted by the filter's send-time bounds. Follows pagination links
// up to the configured page limit.
func (c *Client) FetchCampaigns(ctx context.Context, apiKey string, filter Filter) ([]Campaign, error) {
	q := url.Values{}
	q.Set("fields[campaign]", campaignFields)
	if filter.Start != nil {
		q.Add("filter", fmt.Sprintf("greater-or-equal(send_time,%s)", filter.Start.UTC().Format(time.RFC3339)))
	}
	if filter.End != nil {
		q.Add("filter", fmt.Sprintf("less-or-equal(send_time,%s)", filter.End.UTC().Format(time.RFC3339)))
	}

	next := c.baseURL + "/campaigns?" + q.Encode()

	var campaigns []Campaign
	for page := 0; next != "" && page < c.maxPages; page++ {
		var list CampaignList
		if err := c.get(ctx, next, apiKey, &list); err != nil {
			return nil, err
		}
		campaigns = append(campaigns, list.Data...)
		next = list.Links.Next
	}

	return campaigns, nil
}

// FetchCampaignMetrics fetches the engagement counters for one campaign
// message.
func (c *Client) FetchCampaignMetrics(ctx context.Context, campaignID, apiKey string) (*MetricRecord, error) {
	var resp CampaignMetrics
	u := c.baseURL + "/campaign-messages/" + url.PathEscape(campaignID) + "/metrics"
	if err := c.get(ctx, u, apiKey, &resp); err != nil {
		return nil, err
	}
	return &resp.Data, nil
}
