package s3

import (
	"context"
	"net/http"
	"net/url"
	"sync"
	"testing"

	"golang.org/x/time/rate"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tinybirdco/s3gate/pkg/logging"
)

func mustParseURL(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return u
}

func TestNewClientConfig(t *testing.T) {
	factory := NewClientFactory(logging.NewNop())
	filter := NewHostAllowList("s3.example.com")
	getThrottler := rate.NewLimiter(rate.Limit(100), 100)
	putThrottler := rate.NewLimiter(rate.Limit(10), 10)

	cfg := factory.NewClientConfig("eu-west-1", filter, 10, true, true, getThrottler, putThrottler)

	assert.Equal(t, "eu-west-1", cfg.Region)
	assert.Equal(t, 10, cfg.MaxRedirects)
	assert.True(t, cfg.EnableRequestsLogging)
	assert.True(t, cfg.ForDiskS3)
	// Shared by reference, not copied.
	assert.Same(t, filter, cfg.HostFilter.(*HostAllowList))
	assert.Same(t, getThrottler, cfg.GetThrottler.(*rate.Limiter))
	assert.Same(t, putThrottler, cfg.PutThrottler.(*rate.Limiter))
}

func TestRequestsLoggingToggleIsConcurrencySafe(t *testing.T) {
	factory := NewClientFactory(logging.NewNop())

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func(enabled bool) {
			defer wg.Done()
			factory.SetRequestsLogging(enabled)
		}(i%2 == 0)
		go func() {
			defer wg.Done()
			_ = factory.RequestsLoggingEnabled()
		}()
	}
	wg.Wait()

	factory.SetRequestsLogging(true)
	assert.True(t, factory.RequestsLoggingEnabled())
	factory.SetRequestsLogging(false)
	assert.False(t, factory.RequestsLoggingEnabled())
}

func TestRedirectPolicyEnforcesLimit(t *testing.T) {
	cfg := ClientConfig{MaxRedirects: 2}
	policy := redirectPolicy(cfg)

	req := &http.Request{URL: mustParseURL(t, "https://s3.example.com/bucket/key")}
	via := []*http.Request{req, req}

	assert.NoError(t, policy(req, via))

	via = append(via, req)
	err := policy(req, via)
	require.Error(t, err)
	var redirectErr *RedirectLimitError
	require.ErrorAs(t, err, &redirectErr)
	assert.Equal(t, 2, redirectErr.Limit)
	assert.False(t, IsRetryableError(err))
}

func TestRedirectPolicyChecksHostFilter(t *testing.T) {
	cfg := ClientConfig{
		MaxRedirects: 10,
		HostFilter:   NewHostAllowList("s3.example.com"),
	}
	policy := redirectPolicy(cfg)

	allowed := &http.Request{URL: mustParseURL(t, "https://s3.example.com/bucket/key")}
	assert.NoError(t, policy(allowed, nil))

	denied := &http.Request{URL: mustParseURL(t, "https://attacker.example.net/bucket/key")}
	assert.Error(t, policy(denied, nil))
}

func TestNewClientRejectsFilteredEndpointBeforeConnecting(t *testing.T) {
	factory := NewClientFactory(logging.NewNop())
	cfg := factory.NewClientConfig("us-east-1", NewHostAllowList("s3.example.com"), 10, false, false, nil, nil)
	cfg.Endpoint = "https://minio.internal:9000"

	_, err := factory.NewClient(context.Background(), cfg, false, "key", "secret", "", nil, false, false)
	assert.Error(t, err)
}

func TestNewClientWithStaticCredentials(t *testing.T) {
	factory := NewClientFactory(logging.NewNop())
	cfg := factory.NewClientConfig("us-east-1", AllowAllHosts(), 10, false, false, nil, nil)
	cfg.Endpoint = "https://s3.example.com"

	client, err := factory.NewClient(context.Background(), cfg, true, "AKIAEXAMPLE", "secret", "", nil, false, false)
	require.NoError(t, err)
	require.NotNil(t, client)
}

func TestHostAllowList(t *testing.T) {
	filter := NewHostAllowList("s3.example.com", ".trusted.example.org")

	assert.NoError(t, filter.Check(mustParseURL(t, "https://s3.example.com/bucket")))
	assert.NoError(t, filter.Check(mustParseURL(t, "https://S3.EXAMPLE.COM/bucket")))
	assert.NoError(t, filter.Check(mustParseURL(t, "https://bucket.trusted.example.org/key")))
	assert.Error(t, filter.Check(mustParseURL(t, "https://elsewhere.example.net/bucket")))
	assert.Error(t, filter.Check(mustParseURL(t, "https://example.com/bucket")))

	empty := NewHostAllowList()
	assert.Error(t, empty.Check(mustParseURL(t, "https://s3.example.com/bucket")))
}

func TestThrottledTransportThrottlerSelection(t *testing.T) {
	getThrottler := rate.NewLimiter(rate.Inf, 0)
	putThrottler := rate.NewLimiter(rate.Inf, 0)
	tr := &throttledTransport{getThrottler: getThrottler, putThrottler: putThrottler}

	assert.Same(t, getThrottler, tr.throttlerFor(http.MethodGet).(*rate.Limiter))
	assert.Same(t, getThrottler, tr.throttlerFor(http.MethodHead).(*rate.Limiter))
	assert.Same(t, putThrottler, tr.throttlerFor(http.MethodPut).(*rate.Limiter))
	assert.Same(t, putThrottler, tr.throttlerFor(http.MethodPost).(*rate.Limiter))
	assert.Same(t, putThrottler, tr.throttlerFor(http.MethodDelete).(*rate.Limiter))
	assert.Nil(t, tr.throttlerFor(http.MethodOptions))
}
