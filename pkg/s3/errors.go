package s3

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/aws/smithy-go"
	smithyhttp "github.com/aws/smithy-go/transport/http"
)

// Kind is the closed set of error categories this package reports. Provider
// error codes are translated into a Kind exactly once, at the point the
// provider call fails; callers branch on the Kind (or the predicates below)
// instead of re-parsing provider codes.
type Kind int

const (
	KindUnknown Kind = iota
	KindNotFound
	KindBucketNotFound
	KindAccessDenied
	KindInvalidArgument
	KindThrottled
	KindTimeout
	KindInternal
	KindUnavailable
	KindNetwork
	KindRedirectLimit
)

var kindNames = map[Kind]string{
	KindUnknown:         "Unknown",
	KindNotFound:        "NotFound",
	KindBucketNotFound:  "BucketNotFound",
	KindAccessDenied:    "AccessDenied",
	KindInvalidArgument: "InvalidArgument",
	KindThrottled:       "Throttled",
	KindTimeout:         "Timeout",
	KindInternal:        "Internal",
	KindUnavailable:     "Unavailable",
	KindNetwork:         "Network",
	KindRedirectLimit:   "RedirectLimit",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "Unknown"
}

// Retryable reports whether an error of this kind is transient. Transport
// level failures (throttling, timeouts, server-side errors) are retryable;
// semantic failures (not-found, access-denied, invalid arguments) are
// authoritative and never retried.
func (k Kind) Retryable() bool {
	switch k {
	case KindThrottled, KindTimeout, KindInternal, KindUnavailable, KindNetwork:
		return true
	default:
		return false
	}
}

// Error wraps a failed provider call. The message always carries the
// operation, bucket and key so provider-side failures are diagnosable without
// the caller re-deriving context.
type Error struct {
	Op     string
	Bucket string
	Key    string
	Code   string
	Kind   Kind
	Err    error
}

func (e *Error) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("s3: %s failed for bucket %q key %q: %s: %v", e.Op, e.Bucket, e.Key, e.Code, e.Err)
	}
	return fmt.Sprintf("s3: %s failed for bucket %q key %q: %v", e.Op, e.Bucket, e.Key, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Retryable reports whether the wrapped failure is transient.
func (e *Error) Retryable() bool { return e.Kind.Retryable() }

// ParseError reports a malformed or invalid object-store location string.
// It is fatal to the calling operation and never retried.
type ParseError struct {
	URI    string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("s3: invalid URI %q: %s", e.URI, e.Reason)
}

// RedirectLimitError reports that a request exceeded the configured redirect
// budget. Fatal, non-retryable.
type RedirectLimitError struct {
	Limit int
	URL   string
}

func (e *RedirectLimitError) Error() string {
	return fmt.Sprintf("s3: exceeded %d redirects (last target %s)", e.Limit, e.URL)
}

// awsCodeKinds is the single adaptation point from provider error codes to
// the closed Kind set.
var awsCodeKinds = map[string]Kind{
	"NoSuchKey":                   KindNotFound,
	"NotFound":                    KindNotFound,
	"404":                         KindNotFound,
	"NoSuchBucket":                KindBucketNotFound,
	"AccessDenied":                KindAccessDenied,
	"InvalidAccessKeyId":          KindAccessDenied,
	"SignatureDoesNotMatch":       KindAccessDenied,
	"InvalidArgument":             KindInvalidArgument,
	"InvalidRequest":              KindInvalidArgument,
	"MissingParameter":            KindInvalidArgument,
	"SlowDown":                    KindThrottled,
	"Throttling":                  KindThrottled,
	"ThrottlingException":         KindThrottled,
	"TooManyRequests":             KindThrottled,
	"RequestLimitExceeded":        KindThrottled,
	"RequestTimeout":              KindTimeout,
	"RequestTimeoutException":     KindTimeout,
	"InternalError":               KindInternal,
	"InternalFailure":             KindInternal,
	"InternalServiceError":        KindInternal,
	"ServiceUnavailable":          KindUnavailable,
	"ServiceUnavailableException": KindUnavailable,
	"503":                         KindUnavailable,
}

var httpStatusKinds = map[int]Kind{
	404: KindNotFound,
	403: KindAccessDenied,
	400: KindInvalidArgument,
	408: KindTimeout,
	429: KindThrottled,
	500: KindInternal,
	502: KindUnavailable,
	503: KindUnavailable,
	504: KindUnavailable,
}

// classify translates a provider error into (code, kind). The provider code
// wins when present; otherwise the HTTP status and finally the transport
// error shape decide.
func classify(err error) (string, Kind) {
	var redirectErr *RedirectLimitError
	if errors.As(err, &redirectErr) {
		return "", KindRedirectLimit
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		code := apiErr.ErrorCode()
		if kind, ok := awsCodeKinds[code]; ok {
			return code, kind
		}
		var respErr *smithyhttp.ResponseError
		if errors.As(err, &respErr) {
			if kind, ok := httpStatusKinds[respErr.HTTPStatusCode()]; ok {
				return code, kind
			}
		}
		return code, KindUnknown
	}

	var respErr *smithyhttp.ResponseError
	if errors.As(err, &respErr) {
		if kind, ok := httpStatusKinds[respErr.HTTPStatusCode()]; ok {
			return "", kind
		}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return "", KindTimeout
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return "", KindTimeout
		}
		return "", KindNetwork
	}

	return "", KindUnknown
}

// wrapError classifies err once and wraps it with operation context. A nil
// err returns nil.
func wrapError(op, bucket, key string, err error) error {
	if err == nil {
		return nil
	}
	var wrapped *Error
	if errors.As(err, &wrapped) {
		return err
	}
	code, kind := classify(err)
	return &Error{Op: op, Bucket: bucket, Key: key, Code: code, Kind: kind, Err: err}
}

// IsRetryableError reports whether the failure is transient and worth
// re-issuing by an upstream retry loop. This package never retries itself.
func IsRetryableError(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Retryable()
	}
	_, kind := classify(err)
	return kind.Retryable()
}

// IsNotFoundError reports whether the failure is an authoritative "object
// does not exist" answer. Distinct from retryability: a not-found result is
// never retried, but callers may treat it as a valid outcome rather than a
// failure.
func IsNotFoundError(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == KindNotFound
	}
	_, kind := classify(err)
	return kind == KindNotFound
}
