package s3

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
)

// ObjectInfo describes an object as reported by a metadata-only lookup.
// Values are produced fresh per query and never cached here.
type ObjectInfo struct {
	Size         uint64
	LastModified time.Time
}

type objectSettings struct {
	versionID string
	forDiskS3 bool
}

// ObjectOption adjusts a single metadata query.
type ObjectOption func(*objectSettings)

// WithVersionID targets a specific object version.
func WithVersionID(versionID string) ObjectOption {
	return func(s *objectSettings) { s.versionID = versionID }
}

// ForDiskS3 tags the query with the disk backend metrics category. The
// success and failure contract is unchanged.
func ForDiskS3() ObjectOption {
	return func(s *objectSettings) { s.forDiskS3 = true }
}

// headObject is the single lookup primitive every metadata query goes
// through.
//
// A HEAD request returns no response body even on failure. When a request is
// sent without the proper region in the endpoint, the error body of a
// body-bearing request (GetObject, ListObjectsV2) is what lets the SDK
// determine the correct region and re-issue the call; with HEAD that signal
// does not exist, so the error is surfaced as-is. Callers whose region may be
// ambiguous must route first contact through a body-bearing request before
// relying on these lookups.
func headObject(ctx context.Context, client ObjectAPI, bucket, key string, s objectSettings) (*awss3.HeadObjectOutput, error) {
	input := &awss3.HeadObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	}
	if s.versionID != "" {
		input.VersionId = aws.String(s.versionID)
	}

	out, err := client.HeadObject(ctx, input)
	if err != nil {
		metadataLookupsTotal.WithLabelValues("HeadObject", backendLabel(s.forDiskS3), "error").Inc()
		return nil, wrapError("HeadObject", bucket, key, err)
	}
	metadataLookupsTotal.WithLabelValues("HeadObject", backendLabel(s.forDiskS3), "ok").Inc()
	return out, nil
}

func applyObjectOptions(opts []ObjectOption) objectSettings {
	var s objectSettings
	for _, o := range opts {
		o(&s)
	}
	return s
}

// GetObjectInfo returns the object's size and last-modification time. Every
// failure, not-found included, is returned as a classified error.
func GetObjectInfo(ctx context.Context, client ObjectAPI, bucket, key string, opts ...ObjectOption) (*ObjectInfo, error) {
	out, err := headObject(ctx, client, bucket, key, applyObjectOptions(opts))
	if err != nil {
		return nil, err
	}
	info := &ObjectInfo{
		Size:         uint64(aws.ToInt64(out.ContentLength)),
		LastModified: aws.ToTime(out.LastModified),
	}
	return info, nil
}

// GetObjectSize returns the object's size. Strict: assumes the object exists.
func GetObjectSize(ctx context.Context, client ObjectAPI, bucket, key string, opts ...ObjectOption) (uint64, error) {
	info, err := GetObjectInfo(ctx, client, bucket, key, opts...)
	if err != nil {
		return 0, err
	}
	return info.Size, nil
}

// GetObjectMetadata returns the object's custom metadata key-value set.
// Strict: assumes the object exists.
func GetObjectMetadata(ctx context.Context, client ObjectAPI, bucket, key string, opts ...ObjectOption) (map[string]string, error) {
	out, err := headObject(ctx, client, bucket, key, applyObjectOptions(opts))
	if err != nil {
		return nil, err
	}
	metadata := make(map[string]string, len(out.Metadata))
	for k, v := range out.Metadata {
		metadata[k] = v
	}
	return metadata, nil
}

// ObjectExists reports whether the object exists. Absence is a valid answer,
// not a failure: a not-found lookup returns (false, nil). Any other failure
// returns (false, err) with the error classified as usual.
func ObjectExists(ctx context.Context, client ObjectAPI, bucket, key string, opts ...ObjectOption) (bool, error) {
	_, err := headObject(ctx, client, bucket, key, applyObjectOptions(opts))
	if err != nil {
		if IsNotFoundError(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// CheckObjectExists reports whether the object exists and always yields the
// classified error for inspection, not-found included. The existence answer
// is authoritative only when err is nil or IsNotFoundError(err) holds; for
// any other error the object's state is unknown.
func CheckObjectExists(ctx context.Context, client ObjectAPI, bucket, key string, opts ...ObjectOption) (bool, error) {
	_, err := headObject(ctx, client, bucket, key, applyObjectOptions(opts))
	if err != nil {
		return false, err
	}
	return true, nil
}
