package razorpay

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

const (
	// BaseURL is the Razorpay API base URL
	BaseURL = "https://api.razorpay.com"
	// DefaultTimeout bounds every gateway call
	DefaultTimeout = 10 * time.Second
	// DefaultDialTimeout is the timeout for establishing TCP connections
	DefaultDialTimeout = 5 * time.Second
	// DefaultRequestsPerSecond keeps us under the account rate limit
	DefaultRequestsPerSecond = 20
)

// ErrMissingCredentials is returned when key id or secret is not configured
var ErrMissingCredentials = errors.New("razorpay credentials are not configured")

// Client talks to the Razorpay REST API. It performs no retries.
type Client struct {
	keyID         string
	keySecret     string
	webhookSecret string
	baseURL       string
	httpClient    *http.Client
	limiter       *rate.Limiter
}

// Config holds configuration for the Razorpay client
type Config struct {
	KeyID             string
	KeySecret         string
	WebhookSecret     string
	BaseURL           string
	Timeout           time.Duration
	RequestsPerSecond float64
}

// NewClient creates a new Razorpay API client
func NewClient(config Config) *Client {
	if config.BaseURL == "" {
		config.BaseURL = BaseURL
	}
	if config.Timeout == 0 {
		config.Timeout = DefaultTimeout
	}
	if config.RequestsPerSecond <= 0 {
		config.RequestsPerSecond = DefaultRequestsPerSecond
	}

	transport := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout: DefaultDialTimeout,
		}).DialContext,
		TLSHandshakeTimeout:   DefaultDialTimeout,
		ResponseHeaderTimeout: config.Timeout,
		MaxIdleConnsPerHost:   10,
	}

	return &Client{
		keyID:         config.KeyID,
		keySecret:     config.KeySecret,
		webhookSecret: config.WebhookSecret,
		baseURL:       config.BaseURL,
		httpClient: &http.Client{
			Timeout:   config.Timeout,
			Transport: transport,
		},
		limiter: rate.NewLimiter(rate.Limit(config.RequestsPerSecond), int(config.RequestsPerSecond)),
	}
}

// IsConfigured reports whether API credentials are present
func (c *Client) IsConfigured() bool {
	return c.keyID != "" && c.keySecret != ""
}

// KeyID returns the public key id the checkout widget needs
func (c *Client) KeyID() string {
	return c.keyID
}

// doRequest performs an authenticated JSON request against the Razorpay API
func (c *Client) doRequest(ctx context.Context, method, endpoint string, body interface{}, result interface{}) error {
	if !c.IsConfigured() {
		return ErrMissingCredentials
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter wait cancelled: %w", err)
	}

	var reqBody io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewBuffer(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.SetBasicAuth(c.keyID, c.keySecret)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var envelope struct {
			Error APIError `json:"error"`
		}
		if err := json.Unmarshal(respBody, &envelope); err != nil || envelope.Error.Code == "" {
			return &APIError{
				StatusCode:  resp.StatusCode,
				Code:        "UNKNOWN",
				Description: string(respBody),
			}
		}
		envelope.Error.StatusCode = resp.StatusCode
		return &envelope.Error
	}

	if result != nil {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

// APIError represents a Razorpay API error response
type APIError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
	Field       string `json:"field,omitempty"`
	Source      string `json:"source,omitempty"`
	Reason      string `json:"reason,omitempty"`
	StatusCode  int    `json:"-"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	return fmt.Sprintf("razorpay API error (status %d): %s: %s", e.StatusCode, e.Code, e.Description)
}
