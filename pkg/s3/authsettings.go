package s3

import (
	"strings"

	"github.com/spf13/viper"
)

// HTTPHeaderEntry is a single header sent with every request of a client.
// Order is preserved, so repeated loads of the same profile compare equal.
type HTTPHeaderEntry struct {
	Name  string
	Value string
}

// AuthSettings is the mergeable bag of credential and behavior options loaded
// from a named configuration profile. The optional booleans distinguish
// "explicitly set to false" from "not configured" so profile overlays do not
// clobber a global default.
type AuthSettings struct {
	AccessKeyID          string
	SecretAccessKey      string
	Region               string
	SSECustomerKeyBase64 string

	Headers []HTTPHeaderEntry

	UseEnvironmentCredentials *bool
	UseInsecureIMDSRequest    *bool
}

// Recognized profile keys. Anything else under the profile is ignored for
// forward compatibility.
const (
	accessKeyIDKey               = "access_key_id"
	secretAccessKeyKey           = "secret_access_key"
	regionKey                    = "region"
	sseCustomerKeyBase64Key      = "server_side_encryption_customer_key_base64"
	headersKey                   = "headers"
	useEnvironmentCredentialsKey = "use_environment_credentials"
	useInsecureIMDSRequestKey    = "use_insecure_imds_request"
)

// LoadAuthSettings reads the recognized keys of a named profile from the
// configuration. A missing profile yields zero settings, which a later
// UpdateFrom can still overlay.
func LoadAuthSettings(v *viper.Viper, profile string) AuthSettings {
	s := AuthSettings{}
	sub := v.Sub(profile)
	if sub == nil {
		return s
	}

	s.AccessKeyID = sub.GetString(accessKeyIDKey)
	s.SecretAccessKey = sub.GetString(secretAccessKeyKey)
	s.Region = sub.GetString(regionKey)
	s.SSECustomerKeyBase64 = sub.GetString(sseCustomerKeyBase64Key)

	for _, entry := range sub.GetStringSlice(headersKey) {
		name, value, ok := strings.Cut(entry, ":")
		if !ok {
			continue
		}
		s.Headers = append(s.Headers, HTTPHeaderEntry{
			Name:  strings.TrimSpace(name),
			Value: strings.TrimSpace(value),
		})
	}

	if sub.IsSet(useEnvironmentCredentialsKey) {
		b := sub.GetBool(useEnvironmentCredentialsKey)
		s.UseEnvironmentCredentials = &b
	}
	if sub.IsSet(useInsecureIMDSRequestKey) {
		b := sub.GetBool(useInsecureIMDSRequestKey)
		s.UseInsecureIMDSRequest = &b
	}

	return s
}

// UpdateFrom overlays the fields present in from onto s. A string field is
// present when non-empty, headers when non-empty, an optional boolean when
// set. Unset fields in from leave s untouched; applying the same overlay
// twice is a no-op.
func (s *AuthSettings) UpdateFrom(from AuthSettings) {
	if from.AccessKeyID != "" {
		s.AccessKeyID = from.AccessKeyID
	}
	if from.SecretAccessKey != "" {
		s.SecretAccessKey = from.SecretAccessKey
	}
	if from.Region != "" {
		s.Region = from.Region
	}
	if from.SSECustomerKeyBase64 != "" {
		s.SSECustomerKeyBase64 = from.SSECustomerKeyBase64
	}
	if len(from.Headers) != 0 {
		s.Headers = append([]HTTPHeaderEntry(nil), from.Headers...)
	}
	if from.UseEnvironmentCredentials != nil {
		b := *from.UseEnvironmentCredentials
		s.UseEnvironmentCredentials = &b
	}
	if from.UseInsecureIMDSRequest != nil {
		b := *from.UseInsecureIMDSRequest
		s.UseInsecureIMDSRequest = &b
	}
}

// Equal reports structural equality, comparing optional booleans by value.
func (s AuthSettings) Equal(other AuthSettings) bool {
	if s.AccessKeyID != other.AccessKeyID ||
		s.SecretAccessKey != other.SecretAccessKey ||
		s.Region != other.Region ||
		s.SSECustomerKeyBase64 != other.SSECustomerKeyBase64 {
		return false
	}
	if len(s.Headers) != len(other.Headers) {
		return false
	}
	for i := range s.Headers {
		if s.Headers[i] != other.Headers[i] {
			return false
		}
	}
	return equalBoolPtr(s.UseEnvironmentCredentials, other.UseEnvironmentCredentials) &&
		equalBoolPtr(s.UseInsecureIMDSRequest, other.UseInsecureIMDSRequest)
}

func equalBoolPtr(a, b *bool) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
