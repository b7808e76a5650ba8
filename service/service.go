package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	aiclient "github.com/deeplooplabs/ai-client"
	"github.com/deeplooplabs/ai-client/hook"
)

// assistantsBeta is the OpenAI-Beta header value required by the assistants endpoints
const assistantsBeta = "assistants=v2"

// ErrMissingID is returned when an operation is called with an empty object ID
var ErrMissingID = errors.New("missing object id")

// ErrNilRequest is returned when an operation is called with a nil request
var ErrNilRequest = errors.New("nil request")

// Service calls the OpenAI API. It is safe for concurrent use.
type Service struct {
	config  *Config
	client  *http.Client
	stream  *http.Client
	hooks   *hook.Registry
	metrics *Metrics
	logger  *slog.Logger
}

// New creates a service from config. A nil config uses DefaultConfig.
func New(config *Config) *Service {
	if config == nil {
		config = DefaultConfig()
	}
	if config.BaseURL == "" {
		config.BaseURL = DefaultBaseURL
	}

	client := config.GetHTTPClient()
	// Streams may outlive Timeout; they are bounded by the transport's
	// header timeout and the caller's context.
	stream := *client
	stream.Timeout = 0

	s := &Service{
		config:  config,
		client:  client,
		stream:  &stream,
		hooks:   config.Hooks,
		metrics: config.Metrics,
		logger:  config.Logger,
	}
	if s.hooks == nil {
		s.hooks = hook.NewRegistry()
	}
	if s.metrics == nil {
		s.metrics = NewMetrics("", nil)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// Config returns the service configuration
func (s *Service) Config() *Config {
	return s.config
}

// call describes one API operation
type call struct {
	operation string
	method    string
	path      string
	query     url.Values
	body      any
	beta      bool
	stream    bool
}

// pathf formats an endpoint path, escaping each id. It fails on empty ids.
func pathf(format string, ids ...string) (string, error) {
	args := make([]any, len(ids))
	for i, id := range ids {
		if id == "" {
			return "", ErrMissingID
		}
		args[i] = url.PathEscape(id)
	}
	return fmt.Sprintf(format, args...), nil
}

// do sends c and decodes the response body into out
func (s *Service) do(ctx context.Context, c call, out any) error {
	resp, rc, err := s.send(ctx, c)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		err = fmt.Errorf("read response: %w", err)
		s.fail(ctx, rc, resp.StatusCode, "read", err)
		return err
	}

	if err := json.Unmarshal(data, out); err != nil {
		err = fmt.Errorf("decode response: %w", err)
		s.fail(ctx, rc, resp.StatusCode, "decode", err)
		return err
	}

	s.finish(ctx, rc, resp.StatusCode)
	return nil
}

// send runs the request hooks, sends c with retries and returns the response
// of a successful call. The caller owns the body and must call finish or fail.
func (s *Service) send(ctx context.Context, c call) (*http.Response, *aiclient.Context, error) {
	rc := aiclient.NewContext(c.operation, c.method, c.path)
	s.metrics.ActiveRequests.Inc()

	var payload []byte
	if c.body != nil {
		var err error
		if payload, err = json.Marshal(c.body); err != nil {
			err = fmt.Errorf("marshal request: %w", err)
			s.fail(ctx, rc, 0, "encode", err)
			return nil, nil, err
		}
	}

	apiKey, err := s.apiKey(ctx, rc)
	if err != nil {
		err = fmt.Errorf("resolve api key: %w", err)
		s.fail(ctx, rc, 0, "credential", err)
		return nil, nil, err
	}

	for _, h := range s.hooks.RequestHooks() {
		if err := h.BeforeRequest(ctx, rc); err != nil {
			err = fmt.Errorf("hook %s: %w", h.Name(), err)
			s.fail(ctx, rc, 0, "hook", err)
			return nil, nil, err
		}
	}

	endpoint := s.config.BaseURL + c.path
	if len(c.query) > 0 {
		endpoint += "?" + c.query.Encode()
	}

	attempt := func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, c.method, endpoint, bytes.NewReader(payload))
		if err != nil {
			return nil, fmt.Errorf("create request: %w", err)
		}
		s.setHeaders(req, rc, c, apiKey, payload != nil)
		if c.stream {
			return s.stream.Do(req)
		}
		return s.client.Do(req)
	}
	onRetry := func(n, status int, err error) {
		s.metrics.recordRetry(c.operation, status)
		s.logger.WarnContext(ctx, "retrying api call",
			"operation", c.operation,
			"attempt", n,
			"status", status,
			"error", err,
			"request_id", rc.RequestID,
		)
	}

	resp, err := retryWithBackoff(ctx, s.config.RetryConfig, attempt, onRetry)
	if err != nil {
		err = fmt.Errorf("send request: %w", err)
		s.fail(ctx, rc, 0, "transport", err)
		return nil, nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		body, _ := io.ReadAll(resp.Body)
		apiErr := aiclient.ParseErrorResponse(resp.StatusCode, resp.Header.Get("X-Request-Id"), body)
		s.fail(ctx, rc, resp.StatusCode, errorType(apiErr), apiErr)
		return nil, nil, apiErr
	}

	return resp, rc, nil
}

func (s *Service) apiKey(ctx context.Context, rc *aiclient.Context) (string, error) {
	for _, h := range s.hooks.CredentialHooks() {
		key, err := h.APIKey(ctx, rc)
		if err != nil {
			return "", err
		}
		if key != "" {
			return key, nil
		}
	}
	return s.config.APIKey, nil
}

func (s *Service) setHeaders(req *http.Request, rc *aiclient.Context, c call, apiKey string, hasBody bool) {
	if hasBody {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.stream {
		req.Header.Set("Accept", "text/event-stream")
	} else {
		req.Header.Set("Accept", "application/json")
	}
	if apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+apiKey)
	}
	if s.config.Organization != "" {
		req.Header.Set("OpenAI-Organization", s.config.Organization)
	}
	if s.config.Project != "" {
		req.Header.Set("OpenAI-Project", s.config.Project)
	}
	if c.beta {
		req.Header.Set("OpenAI-Beta", assistantsBeta)
	}
	req.Header.Set("X-Client-Request-Id", rc.RequestID)

	for k, v := range rc.Header {
		req.Header[k] = v
	}
}

// finish records a successful call
func (s *Service) finish(ctx context.Context, rc *aiclient.Context, status int) {
	s.metrics.ActiveRequests.Dec()
	s.metrics.observe(rc.Operation, status, rc.Elapsed().Seconds())
	for _, h := range s.hooks.RequestHooks() {
		h.AfterResponse(ctx, rc, status)
	}
	s.logger.DebugContext(ctx, "api call",
		"operation", rc.Operation,
		"status", status,
		"duration", rc.Elapsed(),
		"request_id", rc.RequestID,
	)
}

// fail records a failed call
func (s *Service) fail(ctx context.Context, rc *aiclient.Context, status int, errType string, err error) {
	s.metrics.ActiveRequests.Dec()
	s.metrics.observe(rc.Operation, status, rc.Elapsed().Seconds())
	s.metrics.ErrorsTotal.WithLabelValues(rc.Operation, errType).Inc()
	if status != 0 {
		for _, h := range s.hooks.RequestHooks() {
			h.AfterResponse(ctx, rc, status)
		}
	}
	for _, h := range s.hooks.ErrorHooks() {
		h.OnError(ctx, rc, err)
	}
	s.logger.DebugContext(ctx, "api call failed",
		"operation", rc.Operation,
		"status", status,
		"error", err,
		"request_id", rc.RequestID,
	)
}

func errorType(err *aiclient.APIError) string {
	if err.Type != "" {
		return err.Type
	}
	return strings.ToLower(strings.ReplaceAll(http.StatusText(err.StatusCode), " ", "_"))
}
