package e2e

import (
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	openailib "github.com/sashabaranov/go-openai"

	"github.com/deeplooplabs/ai-client/hook"
	"github.com/deeplooplabs/ai-client/service"
)

// TestAPIKey is the key the mock API accepts
const TestAPIKey = "sk-e2e-test"

// TestEnvironment provides a mock API server with the client service and an
// independent go-openai client pointed at it
type TestEnvironment struct {
	Server  *httptest.Server
	Mock    *MockOpenAI
	Service *service.Service
	Metrics *service.Metrics
	Hooks   *hook.Registry
	Client  *openailib.Client
	T       *testing.T
}

// NewTestEnvironment creates a new test environment with all necessary components
func NewTestEnvironment(t *testing.T) *TestEnvironment {
	t.Helper()

	mock := NewMockOpenAI(TestAPIKey)
	server := httptest.NewServer(mock.Handler())
	t.Cleanup(server.Close)

	hooks := hook.NewRegistry()
	metrics := service.NewMetrics("e2e", prometheus.NewRegistry())
	svc := service.New(service.NewConfig(TestAPIKey).
		WithBaseURL(server.URL + "/v1").
		WithRetryConfig(service.NoRetry()).
		WithHooks(hooks).
		WithMetrics(metrics))

	config := openailib.DefaultConfig(TestAPIKey)
	config.BaseURL = server.URL + "/v1"

	return &TestEnvironment{
		Server:  server,
		Mock:    mock,
		Service: svc,
		Metrics: metrics,
		Hooks:   hooks,
		Client:  openailib.NewClientWithConfig(config),
		T:       t,
	}
}

// NewServiceWithKey returns a service against the environment's server
// authenticating with apiKey
func (env *TestEnvironment) NewServiceWithKey(apiKey string) *service.Service {
	return service.New(service.NewConfig(apiKey).
		WithBaseURL(env.Server.URL + "/v1").
		WithRetryConfig(service.NoRetry()))
}
