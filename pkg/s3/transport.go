package s3

import (
	"net/http"
	"sync/atomic"

	"github.com/tinybirdco/s3gate/pkg/logging"
)

// throttledTransport is the http.RoundTripper installed into every client the
// factory builds. It checks the host filter against every outgoing request,
// injects the configured headers, consults the GET/PUT throttlers before a
// request leaves the process, counts requests per backend and optionally logs
// each exchange.
type throttledTransport struct {
	base       http.RoundTripper
	headers    []HTTPHeaderEntry
	hostFilter RemoteHostFilter

	getThrottler Throttler
	putThrottler Throttler

	// requestsLogging points at the factory's toggle so clients built before
	// a flip still observe the new value. alwaysLog is the per-client
	// override from the configuration.
	requestsLogging *atomic.Bool
	alwaysLog       bool

	logger  logging.Interface
	backend string
}

func (t *throttledTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	// The SDK derives the host for default-endpoint clients, so the filter
	// must run here, before any dial, not only at client construction.
	if t.hostFilter != nil {
		if err := t.hostFilter.Check(req.URL); err != nil {
			return nil, err
		}
	}

	if len(t.headers) > 0 {
		req = req.Clone(req.Context())
		for _, h := range t.headers {
			req.Header.Set(h.Name, h.Value)
		}
	}

	if th := t.throttlerFor(req.Method); th != nil {
		if err := th.WaitN(req.Context(), 1); err != nil {
			return nil, err
		}
	}

	requestsTotal.WithLabelValues(req.Method, t.backend).Inc()

	resp, err := t.base.RoundTrip(req)
	if err != nil {
		requestErrorsTotal.WithLabelValues(req.Method, t.backend).Inc()
		if t.shouldLog() {
			t.logger.WithError(err).
				WithField("method", req.Method).
				WithField("host", req.URL.Host).
				Debug("object store request failed")
		}
		return nil, err
	}

	if t.shouldLog() {
		t.logger.WithField("method", req.Method).
			WithField("host", req.URL.Host).
			WithField("status", resp.StatusCode).
			Debug("object store request")
	}
	return resp, nil
}

func (t *throttledTransport) throttlerFor(method string) Throttler {
	switch method {
	case http.MethodGet, http.MethodHead:
		return t.getThrottler
	case http.MethodPut, http.MethodPost, http.MethodDelete:
		return t.putThrottler
	default:
		return nil
	}
}

func (t *throttledTransport) shouldLog() bool {
	return t.alwaysLog || (t.requestsLogging != nil && t.requestsLogging.Load())
}
