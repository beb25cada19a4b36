package s3

import (
	"net/url"
	"regexp"
	"strings"
)

// URI represents an object-store location.
//
// Two dialects are accepted:
//
//	s3://bucket/key
//	http(s)://endpoint/bucket/key
//
// The native scheme is always path-style. For HTTP(S) locations the
// addressing style is detected from the host: a host of the form
// "bucket.s3.example.com" is virtual-hosted and Endpoint is the host with the
// bucket prefix stripped, otherwise the first path segment is the bucket and
// Endpoint is the full host.
type URI struct {
	Raw         string
	Endpoint    string
	Bucket      string
	Key         string
	VersionID   string
	StorageName string

	IsVirtualHostedStyle bool
}

// storageNames maps the recognized S3-compatible service labels, as they
// appear in virtual-hosted host names, to the store they identify.
var storageNames = map[string]string{
	"s3":  "S3",
	"cos": "COSN",
	"obs": "OBS",
	"oss": "OSS",
}

// serviceLabel matches the leading service label of an endpoint host,
// e.g. "s3" in "s3.us-west-2.amazonaws.com" or "s3-us-west-2.amazonaws.com".
var serviceLabel = regexp.MustCompile(`^([a-z0-9]+)[.-]`)

// bucketName is the strict store-side bucket grammar: lowercase letters,
// digits, dots and hyphens, starting and ending with a letter or digit.
var bucketName = regexp.MustCompile(`^[a-z0-9][a-z0-9.-]*[a-z0-9]$`)

const (
	minBucketLength = 3
	maxBucketLength = 63
)

// ParseURI parses and validates an object-store location string.
// Invalid locations, including invalid bucket names, return a *ParseError.
func ParseURI(raw string) (*URI, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, &ParseError{URI: raw, Reason: err.Error()}
	}

	out := &URI{
		Raw:       raw,
		VersionID: u.Query().Get("versionId"),
	}

	switch strings.ToLower(u.Scheme) {
	case "s3":
		out.Bucket = u.Host
		out.Key = strings.TrimPrefix(u.Path, "/")
		out.StorageName = "S3"
		if out.Bucket == "" {
			return nil, &ParseError{URI: raw, Reason: "missing bucket name"}
		}
		if err := ValidateBucket(out.Bucket, raw); err != nil {
			return nil, err
		}
		return out, nil

	case "http", "https":
		return parseEndpointURI(u, out)

	default:
		return nil, &ParseError{URI: raw, Reason: "unsupported scheme " + u.Scheme}
	}
}

func parseEndpointURI(u *url.URL, out *URI) (*URI, error) {
	host := u.Host
	if host == "" {
		return nil, &ParseError{URI: out.Raw, Reason: "missing host"}
	}
	path := strings.TrimPrefix(u.Path, "/")

	// Virtual-hosted style: the bucket is a host prefix and the remainder
	// starts with a recognized service label.
	if bucket, rest, ok := strings.Cut(host, "."); ok && bucket != "" {
		if m := serviceLabel.FindStringSubmatch(rest); m != nil {
			if name, recognized := storageNames[m[1]]; recognized {
				out.Bucket = bucket
				out.Endpoint = rest
				out.Key = path
				out.StorageName = name
				out.IsVirtualHostedStyle = true
				if err := ValidateBucket(out.Bucket, out.Raw); err != nil {
					return nil, err
				}
				return out, nil
			}
		}
	}

	// Path style against a custom endpoint: the first path segment is the
	// bucket. Bucket grammar is the endpoint's business here, so only the
	// relaxed rules apply.
	out.Endpoint = host
	out.StorageName = "S3"
	bucket, key, _ := strings.Cut(path, "/")
	if bucket == "" {
		return nil, &ParseError{URI: out.Raw, Reason: "missing bucket name"}
	}
	if len(bucket) > maxBucketLength {
		return nil, &ParseError{URI: out.Raw, Reason: "bucket name longer than 63 characters"}
	}
	out.Bucket = bucket
	out.Key = key
	return out, nil
}

// ValidateBucket checks a bucket name against the store's naming rules:
// 3 to 63 characters, lowercase letters, digits, dots and hyphens, no leading
// or trailing dot or hyphen, no adjacent dots.
func ValidateBucket(bucket, raw string) error {
	if len(bucket) < minBucketLength {
		return &ParseError{URI: raw, Reason: "bucket name shorter than 3 characters"}
	}
	if len(bucket) > maxBucketLength {
		return &ParseError{URI: raw, Reason: "bucket name longer than 63 characters"}
	}
	if !bucketName.MatchString(bucket) {
		return &ParseError{URI: raw, Reason: "bucket name contains invalid characters"}
	}
	if strings.Contains(bucket, "..") {
		return &ParseError{URI: raw, Reason: "bucket name contains adjacent dots"}
	}
	return nil
}
