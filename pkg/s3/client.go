package s3

import (
	"context"
	"crypto/md5"
	"encoding/base64"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
)

// ObjectAPI is the transport abstraction the metadata layer queries: a
// metadata-only HEAD lookup plus the body-bearing GET and LIST calls. It is
// satisfied by both *Client and a raw *s3.Client, and by test stubs.
type ObjectAPI interface {
	HeadObject(ctx context.Context, params *awss3.HeadObjectInput, optFns ...func(*awss3.Options)) (*awss3.HeadObjectOutput, error)
	GetObject(ctx context.Context, params *awss3.GetObjectInput, optFns ...func(*awss3.Options)) (*awss3.GetObjectOutput, error)
	ListObjectsV2(ctx context.Context, params *awss3.ListObjectsV2Input, optFns ...func(*awss3.Options)) (*awss3.ListObjectsV2Output, error)
}

var _ ObjectAPI = (*awss3.Client)(nil)

// Client binds an SDK client to the per-client request options the factory
// resolved: server-side-encryption customer key material is applied to every
// request that supports it.
type Client struct {
	api ObjectAPI

	sseCustomerKey    string
	sseCustomerKeyMD5 string
}

// newClientWrapper derives the SSE-C key MD5 once so request paths only copy
// strings. An empty key disables SSE-C entirely.
func newClientWrapper(api ObjectAPI, sseCustomerKeyBase64 string) (*Client, error) {
	c := &Client{api: api}
	if sseCustomerKeyBase64 == "" {
		return c, nil
	}

	rawKey, err := base64.StdEncoding.DecodeString(sseCustomerKeyBase64)
	if err != nil {
		return nil, fmt.Errorf("s3: invalid server-side encryption customer key: %w", err)
	}
	sum := md5.Sum(rawKey)
	c.sseCustomerKey = sseCustomerKeyBase64
	c.sseCustomerKeyMD5 = base64.StdEncoding.EncodeToString(sum[:])
	return c, nil
}

const sseCustomerAlgorithm = "AES256"

func (c *Client) HeadObject(ctx context.Context, params *awss3.HeadObjectInput, optFns ...func(*awss3.Options)) (*awss3.HeadObjectOutput, error) {
	if c.sseCustomerKey != "" {
		// Copy so the caller's input survives reuse across clients.
		p := *params
		p.SSECustomerAlgorithm = aws.String(sseCustomerAlgorithm)
		p.SSECustomerKey = aws.String(c.sseCustomerKey)
		p.SSECustomerKeyMD5 = aws.String(c.sseCustomerKeyMD5)
		params = &p
	}
	return c.api.HeadObject(ctx, params, optFns...)
}

func (c *Client) GetObject(ctx context.Context, params *awss3.GetObjectInput, optFns ...func(*awss3.Options)) (*awss3.GetObjectOutput, error) {
	if c.sseCustomerKey != "" {
		p := *params
		p.SSECustomerAlgorithm = aws.String(sseCustomerAlgorithm)
		p.SSECustomerKey = aws.String(c.sseCustomerKey)
		p.SSECustomerKeyMD5 = aws.String(c.sseCustomerKeyMD5)
		params = &p
	}
	return c.api.GetObject(ctx, params, optFns...)
}

func (c *Client) ListObjectsV2(ctx context.Context, params *awss3.ListObjectsV2Input, optFns ...func(*awss3.Options)) (*awss3.ListObjectsV2Output, error) {
	return c.api.ListObjectsV2(ctx, params, optFns...)
}
