package service

import (
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/deeplooplabs/ai-client/hook"
)

// DefaultBaseURL is the public OpenAI API endpoint
const DefaultBaseURL = "https://api.openai.com/v1"

// Config contains the service configuration
type Config struct {
	// BaseURL is the base URL for the API, including the version prefix
	BaseURL string

	// APIKey is the bearer token sent with every call
	APIKey string

	// Organization and Project scope the calls when set
	Organization string
	Project      string

	// HTTPClient is the HTTP client to use (optional)
	HTTPClient *http.Client

	// Timeout is the total request timeout (optional, default: 60s)
	Timeout time.Duration

	// ConnectTimeout is the dial timeout (optional, default: 10s)
	ConnectTimeout time.Duration

	// ReadTimeout bounds the wait for response headers (optional, default: 30s)
	ReadTimeout time.Duration

	// ConnectionPool settings
	MaxIdleConns        int           // Maximum idle connections (default: 100)
	MaxConnsPerHost     int           // Maximum connections per host (default: 10)
	IdleConnTimeout     time.Duration // Idle connection timeout (default: 90s)
	MaxIdleConnsPerHost int           // Maximum idle connections per host (default: 10)

	// Tracing wraps the default transport with OpenTelemetry instrumentation
	Tracing bool

	// Retry configuration
	RetryConfig *RetryConfig

	// Hooks are called around every call (optional)
	Hooks *hook.Registry

	// Metrics collects call metrics (optional, default: unregistered collectors)
	Metrics *Metrics

	// Logger receives per-call debug and retry lines (optional, default: slog.Default())
	Logger *slog.Logger
}

// DefaultConfig returns a default service configuration
func DefaultConfig() *Config {
	return &Config{
		BaseURL:             DefaultBaseURL,
		Timeout:             60 * time.Second,
		ConnectTimeout:      10 * time.Second,
		ReadTimeout:         30 * time.Second,
		MaxIdleConns:        100,
		MaxConnsPerHost:     10,
		IdleConnTimeout:     90 * time.Second,
		MaxIdleConnsPerHost: 10,
		Tracing:             true,
		RetryConfig:         DefaultRetryConfig(),
	}
}

// NewConfig creates a default configuration authenticating with apiKey
func NewConfig(apiKey string) *Config {
	return DefaultConfig().WithAPIKey(apiKey)
}

// WithBaseURL sets the base URL
func (c *Config) WithBaseURL(baseURL string) *Config {
	c.BaseURL = strings.TrimRight(baseURL, "/")
	return c
}

// WithAPIKey sets the API key
func (c *Config) WithAPIKey(apiKey string) *Config {
	c.APIKey = apiKey
	return c
}

// WithOrganization sets the OpenAI-Organization header value
func (c *Config) WithOrganization(org string) *Config {
	c.Organization = org
	return c
}

// WithProject sets the OpenAI-Project header value
func (c *Config) WithProject(project string) *Config {
	c.Project = project
	return c
}

// WithTimeout sets the timeout
func (c *Config) WithTimeout(timeout time.Duration) *Config {
	c.Timeout = timeout
	return c
}

// WithConnectTimeout sets the connection timeout
func (c *Config) WithConnectTimeout(timeout time.Duration) *Config {
	c.ConnectTimeout = timeout
	return c
}

// WithReadTimeout sets the read timeout
func (c *Config) WithReadTimeout(timeout time.Duration) *Config {
	c.ReadTimeout = timeout
	return c
}

// WithConnectionPool sets the connection pool parameters
func (c *Config) WithConnectionPool(maxIdleConns, maxConnsPerHost, maxIdleConnsPerHost int, idleConnTimeout time.Duration) *Config {
	c.MaxIdleConns = maxIdleConns
	c.MaxConnsPerHost = maxConnsPerHost
	c.MaxIdleConnsPerHost = maxIdleConnsPerHost
	c.IdleConnTimeout = idleConnTimeout
	return c
}

// WithTracing enables or disables transport instrumentation
func (c *Config) WithTracing(enabled bool) *Config {
	c.Tracing = enabled
	return c
}

// WithRetryConfig sets the retry configuration
func (c *Config) WithRetryConfig(retryConfig *RetryConfig) *Config {
	c.RetryConfig = retryConfig
	return c
}

// WithHTTPClient sets the HTTP client
func (c *Config) WithHTTPClient(client *http.Client) *Config {
	c.HTTPClient = client
	return c
}

// WithHooks sets the hook registry
func (c *Config) WithHooks(hooks *hook.Registry) *Config {
	c.Hooks = hooks
	return c
}

// WithMetrics sets the metrics collectors
func (c *Config) WithMetrics(metrics *Metrics) *Config {
	c.Metrics = metrics
	return c
}

// WithLogger sets the logger
func (c *Config) WithLogger(logger *slog.Logger) *Config {
	c.Logger = logger
	return c
}

// GetHTTPClient returns the HTTP client, creating a default one if not set
func (c *Config) GetHTTPClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}

	dialer := &net.Dialer{
		Timeout:   c.ConnectTimeout,
		KeepAlive: 30 * time.Second,
	}
	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		MaxIdleConns:          c.MaxIdleConns,
		MaxConnsPerHost:       c.MaxConnsPerHost,
		MaxIdleConnsPerHost:   c.MaxIdleConnsPerHost,
		IdleConnTimeout:       c.IdleConnTimeout,
		ResponseHeaderTimeout: c.ReadTimeout,
		TLSHandshakeTimeout:   10 * time.Second,
	}

	var rt http.RoundTripper = transport
	if c.Tracing {
		rt = otelhttp.NewTransport(transport)
	}

	return &http.Client{
		Timeout:   c.Timeout,
		Transport: rt,
	}
}
