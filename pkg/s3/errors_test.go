package s3

import (
	"errors"
	"fmt"
	"net"
	"testing"

	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func apiError(code string) error {
	return &smithy.GenericAPIError{Code: code, Message: "simulated"}
}

func TestKindRetryable(t *testing.T) {
	retryable := []Kind{KindThrottled, KindTimeout, KindInternal, KindUnavailable, KindNetwork}
	for _, k := range retryable {
		assert.True(t, k.Retryable(), k.String())
	}

	fatal := []Kind{KindUnknown, KindNotFound, KindBucketNotFound, KindAccessDenied, KindInvalidArgument, KindRedirectLimit}
	for _, k := range fatal {
		assert.False(t, k.Retryable(), k.String())
	}
}

func TestClassifyProviderCodes(t *testing.T) {
	tests := []struct {
		code string
		kind Kind
	}{
		{"NoSuchKey", KindNotFound},
		{"NotFound", KindNotFound},
		{"NoSuchBucket", KindBucketNotFound},
		{"AccessDenied", KindAccessDenied},
		{"InvalidArgument", KindInvalidArgument},
		{"SlowDown", KindThrottled},
		{"Throttling", KindThrottled},
		{"RequestTimeout", KindTimeout},
		{"InternalError", KindInternal},
		{"ServiceUnavailable", KindUnavailable},
		{"SomethingNovel", KindUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			code, kind := classify(apiError(tt.code))
			assert.Equal(t, tt.code, code)
			assert.Equal(t, tt.kind, kind)
		})
	}
}

func TestClassifyTransportErrors(t *testing.T) {
	_, kind := classify(&net.DNSError{IsTimeout: true})
	assert.Equal(t, KindTimeout, kind)

	_, kind = classify(&net.DNSError{})
	assert.Equal(t, KindNetwork, kind)

	_, kind = classify(&RedirectLimitError{Limit: 10, URL: "https://elsewhere.example.com"})
	assert.Equal(t, KindRedirectLimit, kind)
}

func TestIsRetryableError(t *testing.T) {
	assert.True(t, IsRetryableError(wrapError("HeadObject", "b", "k", apiError("SlowDown"))))
	assert.True(t, IsRetryableError(wrapError("HeadObject", "b", "k", apiError("InternalError"))))
	assert.False(t, IsRetryableError(wrapError("HeadObject", "b", "k", apiError("NoSuchKey"))))
	assert.False(t, IsRetryableError(wrapError("HeadObject", "b", "k", apiError("AccessDenied"))))

	// Also classifies errors that skipped wrapping.
	assert.True(t, IsRetryableError(apiError("Throttling")))
}

func TestIsNotFoundError(t *testing.T) {
	assert.True(t, IsNotFoundError(wrapError("HeadObject", "b", "k", apiError("NoSuchKey"))))
	assert.False(t, IsNotFoundError(wrapError("HeadObject", "b", "k", apiError("NoSuchBucket"))))
	assert.False(t, IsNotFoundError(wrapError("HeadObject", "b", "k", apiError("SlowDown"))))
	assert.False(t, IsNotFoundError(nil))
}

func TestErrorMessageCarriesContext(t *testing.T) {
	err := wrapError("HeadObject", "mybucket", "data/file.csv", apiError("AccessDenied"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HeadObject")
	assert.Contains(t, err.Error(), "mybucket")
	assert.Contains(t, err.Error(), "data/file.csv")
	assert.Contains(t, err.Error(), "AccessDenied")
}

func TestWrapErrorIdempotent(t *testing.T) {
	inner := wrapError("HeadObject", "b", "k", apiError("NoSuchKey"))
	outer := wrapError("GetObjectInfo", "b", "k", inner)
	assert.Same(t, inner, outer)

	assert.NoError(t, wrapError("HeadObject", "b", "k", nil))
}

func TestWrapErrorUnwraps(t *testing.T) {
	cause := apiError("NoSuchKey")
	err := wrapError("HeadObject", "b", "k", fmt.Errorf("request failed: %w", cause))

	var e *Error
	require.True(t, errors.As(err, &e))
	assert.Equal(t, KindNotFound, e.Kind)
	assert.True(t, errors.Is(err, cause))
}
