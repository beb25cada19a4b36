package s3

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sync/atomic"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/tinybirdco/s3gate/pkg/logging"
)

const (
	defaultRegion   = "us-east-1"
	httpTimeout     = 10 * time.Minute
	maxIdleConns    = 100
	idleConnTimeout = 90 * time.Second
	sdkMaxAttempts  = 3
)

// ClientConfig is the transient bundle of transport options a client is built
// from. The throttlers and the host filter are shared with the caller, never
// owned or mutated here.
type ClientConfig struct {
	// Region overrides region resolution. Empty falls back to us-east-1;
	// the SDK rediscovers the proper region from body-bearing error
	// responses.
	Region string

	// Endpoint is a custom endpoint URL (scheme included) for S3-compatible
	// services. Empty means AWS.
	Endpoint string

	// HostFilter rejects endpoints outside the operator-approved set. It is
	// consulted for every outgoing request, redirect targets included, before
	// any connection attempt.
	HostFilter RemoteHostFilter

	// MaxRedirects bounds automatic redirect following. Exceeding it
	// surfaces a *RedirectLimitError, which is fatal and non-retryable.
	MaxRedirects int

	// EnableRequestsLogging turns on per-request debug logging for clients
	// built from this config regardless of the factory-wide toggle.
	EnableRequestsLogging bool

	// ForDiskS3 tags the client's requests with the disk backend metrics
	// category. It does not change any success or failure contract.
	ForDiskS3 bool

	GetThrottler Throttler
	PutThrottler Throttler
}

// ClientFactory builds object store clients. The host owns exactly one
// factory and passes it by reference to anything that constructs clients;
// its request-logging toggle may be flipped at runtime and is observed by
// every client, including ones built earlier, without locking.
type ClientFactory struct {
	logger          logging.Interface
	requestsLogging atomic.Bool
}

func NewClientFactory(logger logging.Interface) *ClientFactory {
	return &ClientFactory{logger: logger}
}

// SetRequestsLogging flips per-request debug logging for all clients built by
// this factory. Safe to call concurrently with client construction.
func (f *ClientFactory) SetRequestsLogging(enabled bool) {
	f.requestsLogging.Store(enabled)
}

// RequestsLoggingEnabled reports the current state of the toggle.
func (f *ClientFactory) RequestsLoggingEnabled() bool {
	return f.requestsLogging.Load()
}

// NewClientConfig assembles a client configuration. The throttlers may be
// nil, which disables throttling for the corresponding request class.
func (f *ClientFactory) NewClientConfig(
	region string,
	hostFilter RemoteHostFilter,
	maxRedirects int,
	enableRequestsLogging bool,
	forDiskS3 bool,
	getThrottler Throttler,
	putThrottler Throttler,
) ClientConfig {
	return ClientConfig{
		Region:                region,
		HostFilter:            hostFilter,
		MaxRedirects:          maxRedirects,
		EnableRequestsLogging: enableRequestsLogging,
		ForDiskS3:             forDiskS3,
		GetThrottler:          getThrottler,
		PutThrottler:          putThrottler,
	}
}

// NewClient builds one client bound to the given configuration and
// credentials. When useEnvironmentCredentials is true, explicit key material
// is ignored and the ambient credential chain resolves instead. When
// useInsecureIMDSRequest is false, tokenless instance-metadata fallback is
// disabled.
func (f *ClientFactory) NewClient(
	ctx context.Context,
	cfg ClientConfig,
	isVirtualHostedStyle bool,
	accessKeyID string,
	secretAccessKey string,
	sseCustomerKeyBase64 string,
	headers []HTTPHeaderEntry,
	useEnvironmentCredentials bool,
	useInsecureIMDSRequest bool,
) (*Client, error) {
	if cfg.HostFilter != nil && cfg.Endpoint != "" {
		endpointURL, err := url.Parse(cfg.Endpoint)
		if err != nil {
			return nil, fmt.Errorf("s3: invalid endpoint %q: %w", cfg.Endpoint, err)
		}
		if err := cfg.HostFilter.Check(endpointURL); err != nil {
			return nil, err
		}
	}

	region := cfg.Region
	if region == "" {
		region = defaultRegion
	}

	httpClient := &http.Client{
		Timeout: httpTimeout,
		Transport: &throttledTransport{
			base: &http.Transport{
				MaxIdleConns:        maxIdleConns,
				MaxIdleConnsPerHost: maxIdleConns,
				IdleConnTimeout:     idleConnTimeout,
			},
			headers:         headers,
			hostFilter:      cfg.HostFilter,
			getThrottler:    cfg.GetThrottler,
			putThrottler:    cfg.PutThrottler,
			requestsLogging: &f.requestsLogging,
			alwaysLog:       cfg.EnableRequestsLogging,
			logger:          f.logger,
			backend:         backendLabel(cfg.ForDiskS3),
		},
		CheckRedirect: redirectPolicy(cfg),
	}

	configOpts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(region),
		awsconfig.WithHTTPClient(httpClient),
		awsconfig.WithEC2IMDSv1FallbackDisabled(!useInsecureIMDSRequest),
	}
	if !useEnvironmentCredentials && accessKeyID != "" {
		configOpts = append(configOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(accessKeyID, secretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, configOpts...)
	if err != nil {
		return nil, fmt.Errorf("s3: failed to load client configuration: %w", err)
	}
	awsCfg.RetryMode = aws.RetryModeStandard
	awsCfg.RetryMaxAttempts = sdkMaxAttempts

	sdkClient := awss3.NewFromConfig(awsCfg, func(o *awss3.Options) {
		o.UsePathStyle = !isVirtualHostedStyle
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})

	client, err := newClientWrapper(sdkClient, sseCustomerKeyBase64)
	if err != nil {
		return nil, err
	}

	f.logger.WithField("region", region).
		WithField("endpoint", cfg.Endpoint).
		WithField("virtual_hosted_style", isVirtualHostedStyle).
		Info("object store client created")
	return client, nil
}

// redirectPolicy bounds automatic redirect following and re-checks the host
// filter against every redirect target before it is contacted.
func redirectPolicy(cfg ClientConfig) func(req *http.Request, via []*http.Request) error {
	return func(req *http.Request, via []*http.Request) error {
		if len(via) > cfg.MaxRedirects {
			return &RedirectLimitError{Limit: cfg.MaxRedirects, URL: req.URL.String()}
		}
		if cfg.HostFilter != nil {
			if err := cfg.HostFilter.Check(req.URL); err != nil {
				return err
			}
		}
		return nil
	}
}
