// Package ads is a minimal client for the Google Ads reporting API. It executes GAQL
// queries through the REST searchStream endpoint and exposes the results as a lazy
// row cursor.
package ads

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	infrahttp "github.com/jonesrussell/sitelink-report/infrastructure/http"
	infralogger "github.com/jonesrussell/sitelink-report/infrastructure/logger"
)

const (
	// DefaultBaseURL is the public Google Ads REST endpoint.
	DefaultBaseURL = "https://googleads.googleapis.com"
	// DefaultAPIVersion is the API version used when none is configured.
	DefaultAPIVersion = "v17"
)

// Config configures the reporting client. Authentication is outside this package:
// AccessToken is a pre-issued OAuth2 bearer token.
type Config struct {
	BaseURL         string
	APIVersion      string
	DeveloperToken  string
	AccessToken     string
	LoginCustomerID string
	Timeout         time.Duration
}

// Client executes GAQL queries against customer accounts.
type Client struct {
	http            *http.Client
	baseURL         string
	version         string
	loginCustomerID string
	logger          infralogger.Logger
}

// NewClient creates a reporting client. A nil httpClient builds one from cfg.
func NewClient(cfg Config, httpClient *http.Client, logger infralogger.Logger) *Client {
	if httpClient == nil {
		httpClient = infrahttp.NewClient(&infrahttp.ClientConfig{
			Timeout: cfg.Timeout,
			Headers: map[string]string{
				"Authorization":     bearer(cfg.AccessToken),
				"developer-token":   cfg.DeveloperToken,
				"login-customer-id": NormalizeCustomerID(cfg.LoginCustomerID),
			},
		})
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	version := cfg.APIVersion
	if version == "" {
		version = DefaultAPIVersion
	}

	return &Client{
		http:            httpClient,
		baseURL:         strings.TrimRight(baseURL, "/"),
		version:         version,
		loginCustomerID: NormalizeCustomerID(cfg.LoginCustomerID),
		logger:          logger,
	}
}

func bearer(token string) string {
	if token == "" {
		return ""
	}
	return "Bearer " + token
}

// NormalizeCustomerID strips the dashes of the "123-456-7890" display form.
func NormalizeCustomerID(id string) string {
	return strings.ReplaceAll(strings.TrimSpace(id), "-", "")
}

type searchRequest struct {
	Query string `json:"query"`
}

// Search executes query against customerID and returns a cursor over the streamed
// results. The caller must Close the returned Rows.
func (c *Client) Search(ctx context.Context, customerID, query string) (Rows, error) {
	customerID = NormalizeCustomerID(customerID)
	if customerID == "" {
		return nil, ErrNoCustomerID
	}

	payload, err := json.Marshal(searchRequest{Query: strings.TrimSpace(query)})
	if err != nil {
		return nil, fmt.Errorf("marshal search request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/%s/customers/%s/googleAds:searchStream", c.baseURL, c.version, customerID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create search request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	c.logger.Debug("Executing search stream",
		infralogger.String("customer_id", customerID),
		infralogger.String("endpoint", endpoint),
	)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search stream request: %w", err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		defer resp.Body.Close()
		body, readErr := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
		if readErr != nil {
			return nil, fmt.Errorf("read error response: %w", readErr)
		}
		apiErr := parseAPIError(resp.StatusCode, body)
		if apiErr.Status == "" {
			apiErr.Status = http.StatusText(resp.StatusCode)
		}
		return nil, apiErr
	}

	return newStreamRows(resp.Body), nil
}
