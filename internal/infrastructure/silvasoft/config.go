package silvasoft

import (
	"errors"
	"net/url"
	"strings"
	"time"
)

// Config holds configuration for the Silvasoft REST API
type Config struct {
	// BaseURL is the API root, e.g. https://rest-api.silvasoft.nl
	BaseURL string
	// APIKey is sent in the ApiKey header
	APIKey string
	// Username is sent in the Username header
	Username string
	// Timeout is the HTTP request timeout
	Timeout time.Duration
	// RequestsPerSecond is the sustained rate of outbound requests
	RequestsPerSecond float64
	// Burst is how many requests may go out back to back
	Burst int
	// RetryAttempts is the number of listproducts attempts when rate limited
	RetryAttempts int
	// RetryDelay is the wait between rate-limited listproducts attempts
	RetryDelay time.Duration
	// PageSize is the listproducts page size
	PageSize int
}

const (
	DefaultTimeout       = 30 * time.Second
	DefaultRetryAttempts = 5
	DefaultRetryDelay    = 5 * time.Second
	DefaultPageSize      = 100
	DefaultBurst         = 1
)

// DefaultRequestsPerSecond allows one request every 1.4 seconds.
const DefaultRequestsPerSecond = 1 / 1.4

// Errors for Silvasoft configuration
var (
	ErrConfigMissingBaseURL  = errors.New("silvasoft: api url is required")
	ErrConfigInvalidBaseURL  = errors.New("silvasoft: api url is invalid")
	ErrConfigMissingAPIKey   = errors.New("silvasoft: api key is required")
	ErrConfigMissingUsername = errors.New("silvasoft: api user is required")
	ErrConfigInvalidRate     = errors.New("silvasoft: requests per second must be positive")
)

// NewConfig creates a configuration with defaults
func NewConfig(baseURL, apiKey, username string) *Config {
	return &Config{
		BaseURL:           baseURL,
		APIKey:            apiKey,
		Username:          username,
		Timeout:           DefaultTimeout,
		RequestsPerSecond: DefaultRequestsPerSecond,
		Burst:             DefaultBurst,
		RetryAttempts:     DefaultRetryAttempts,
		RetryDelay:        DefaultRetryDelay,
		PageSize:          DefaultPageSize,
	}
}

// Validate checks the required fields and fills in defaults for the rest
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return ErrConfigMissingBaseURL
	}
	u, err := url.Parse(c.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return ErrConfigInvalidBaseURL
	}
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")
	if c.APIKey == "" {
		return ErrConfigMissingAPIKey
	}
	if c.Username == "" {
		return ErrConfigMissingUsername
	}
	if c.RequestsPerSecond < 0 {
		return ErrConfigInvalidRate
	}
	if c.RequestsPerSecond == 0 {
		c.RequestsPerSecond = DefaultRequestsPerSecond
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.Burst <= 0 {
		c.Burst = DefaultBurst
	}
	if c.RetryAttempts <= 0 {
		c.RetryAttempts = DefaultRetryAttempts
	}
	if c.RetryDelay < 0 {
		c.RetryDelay = DefaultRetryDelay
	}
	if c.PageSize <= 0 {
		c.PageSize = DefaultPageSize
	}
	return nil
}
