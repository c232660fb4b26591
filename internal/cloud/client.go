// Package cloud provides a read-mostly client for the stack cloud API.
// Authentication uses an organization-bound API key sent as HTTP basic
// auth with an empty password.
package cloud

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

const defaultTimeout = 30 * time.Second

// Base URLs per region.
const (
	baseURLEU = "https://api.terramate.io"
	baseURLUS = "https://us.api.terramate.io"
)

// Client is the cloud API client.
type Client struct {
	httpClient *http.Client
	baseURL    *url.URL
	apiKey     string
	userAgent  string

	Organizations  *OrganizationsService
	Stacks         *StacksService
	Drifts         *DriftsService
	Deployments    *DeploymentsService
	ReviewRequests *ReviewRequestsService
}

// Option configures a Client.
type Option func(*Client) error

// NewClient creates a cloud API client authenticated with apiKey.
func NewClient(apiKey string, userAgent string, opts ...Option) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required")
	}

	base, err := url.Parse(baseURLEU)
	if err != nil {
		return nil, fmt.Errorf("parsing default base URL: %w", err)
	}

	c := &Client{
		httpClient: &http.Client{Timeout: defaultTimeout},
		baseURL:    base,
		apiKey:     apiKey,
		userAgent:  userAgent,
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}

	c.Organizations = &OrganizationsService{client: c}
	c.Stacks = &StacksService{client: c}
	c.Drifts = &DriftsService{client: c}
	c.Deployments = &DeploymentsService{client: c}
	c.ReviewRequests = &ReviewRequestsService{client: c}

	return c, nil
}

// WithRegion selects the API base URL by region shortcut ("eu" or "us").
func WithRegion(region string) Option {
	return func(c *Client) error {
		var base string
		switch region {
		case "", "eu":
			base = baseURLEU
		case "us":
			base = baseURLUS
		default:
			return fmt.Errorf("invalid region %q (want \"eu\" or \"us\")", region)
		}
		u, err := url.Parse(base)
		if err != nil {
			return err
		}
		c.baseURL = u
		return nil
	}
}

// WithBaseURL overrides the API base URL. Mainly for tests.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) error {
		u, err := url.Parse(baseURL)
		if err != nil {
			return fmt.Errorf("invalid base URL: %w", err)
		}
		c.baseURL = u
		return nil
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) error {
		if httpClient == nil {
			return fmt.Errorf("HTTP client cannot be nil")
		}
		c.httpClient = httpClient
		return nil
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) error {
		c.httpClient.Timeout = timeout
		return nil
	}
}

func (c *Client) newRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	u, err := c.baseURL.Parse(path)
	if err != nil {
		return nil, fmt.Errorf("parsing path %q: %w", path, err)
	}

	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encoding request body: %w", err)
		}
		r = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), r)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(c.apiKey, "")
	return req, nil
}

// do executes req and decodes the JSON response into v (when v is
// non-nil). API errors are returned as *APIError.
func (c *Client) do(req *http.Request, v any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return newAPIError(resp)
	}
	if resp.StatusCode == http.StatusNoContent || v == nil {
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}
