package s3

import (
	"bytes"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func viperFromYAML(t *testing.T, doc string) *viper.Viper {
	t.Helper()
	v := viper.New()
	v.SetConfigType("yaml")
	require.NoError(t, v.ReadConfig(bytes.NewBufferString(doc)))
	return v
}

func TestLoadAuthSettings(t *testing.T) {
	v := viperFromYAML(t, `
s3:
  profiles:
    backup:
      access_key_id: AKIAEXAMPLE
      secret_access_key: secret
      region: eu-west-1
      server_side_encryption_customer_key_base64: a2V5a2V5a2V5a2V5a2V5a2V5a2V5a2V5a2V5a2V5a2U=
      headers:
        - "X-Custom-One: first"
        - "X-Custom-Two: second"
      use_environment_credentials: false
      unrecognized_key: ignored
`)

	s := LoadAuthSettings(v, "s3.profiles.backup")
	assert.Equal(t, "AKIAEXAMPLE", s.AccessKeyID)
	assert.Equal(t, "secret", s.SecretAccessKey)
	assert.Equal(t, "eu-west-1", s.Region)
	assert.Equal(t, "a2V5a2V5a2V5a2V5a2V5a2V5a2V5a2V5a2V5a2V5a2U=", s.SSECustomerKeyBase64)
	require.Len(t, s.Headers, 2)
	assert.Equal(t, HTTPHeaderEntry{Name: "X-Custom-One", Value: "first"}, s.Headers[0])
	assert.Equal(t, HTTPHeaderEntry{Name: "X-Custom-Two", Value: "second"}, s.Headers[1])
	require.NotNil(t, s.UseEnvironmentCredentials)
	assert.False(t, *s.UseEnvironmentCredentials)
	assert.Nil(t, s.UseInsecureIMDSRequest)
}

func TestLoadAuthSettingsMissingProfile(t *testing.T) {
	v := viper.New()
	s := LoadAuthSettings(v, "s3.profiles.nope")
	assert.True(t, s.Equal(AuthSettings{}))
}

func TestLoadAuthSettingsRoundTrip(t *testing.T) {
	doc := `
profile:
  access_key_id: AKIAEXAMPLE
  secret_access_key: secret
  region: us-east-2
  server_side_encryption_customer_key_base64: c3NlLWtleQ==
  use_environment_credentials: true
  use_insecure_imds_request: false
`
	first := LoadAuthSettings(viperFromYAML(t, doc), "profile")
	second := LoadAuthSettings(viperFromYAML(t, doc), "profile")
	assert.True(t, first.Equal(second))
}

func TestUpdateFromOverlaysOnlyPresentFields(t *testing.T) {
	base := AuthSettings{
		AccessKeyID:     "base-key",
		SecretAccessKey: "base-secret",
		Region:          "us-east-1",
		Headers:         []HTTPHeaderEntry{{Name: "X-Base", Value: "yes"}},
	}

	useEnv := true
	override := AuthSettings{
		Region:                    "eu-central-1",
		UseEnvironmentCredentials: &useEnv,
	}

	base.UpdateFrom(override)

	assert.Equal(t, "base-key", base.AccessKeyID)
	assert.Equal(t, "base-secret", base.SecretAccessKey)
	assert.Equal(t, "eu-central-1", base.Region)
	assert.Equal(t, []HTTPHeaderEntry{{Name: "X-Base", Value: "yes"}}, base.Headers)
	require.NotNil(t, base.UseEnvironmentCredentials)
	assert.True(t, *base.UseEnvironmentCredentials)
}

func TestUpdateFromNeverClears(t *testing.T) {
	useEnv := false
	base := AuthSettings{
		AccessKeyID:               "base-key",
		SecretAccessKey:           "base-secret",
		SSECustomerKeyBase64:      "c3NlLWtleQ==",
		Headers:                   []HTTPHeaderEntry{{Name: "X-Base", Value: "yes"}},
		UseEnvironmentCredentials: &useEnv,
	}

	base.UpdateFrom(AuthSettings{})

	assert.Equal(t, "base-key", base.AccessKeyID)
	assert.Equal(t, "base-secret", base.SecretAccessKey)
	assert.Equal(t, "c3NlLWtleQ==", base.SSECustomerKeyBase64)
	require.Len(t, base.Headers, 1)
	require.NotNil(t, base.UseEnvironmentCredentials)
	assert.False(t, *base.UseEnvironmentCredentials)
}

func TestUpdateFromIdempotent(t *testing.T) {
	useEnv := true
	override := AuthSettings{
		AccessKeyID:               "override-key",
		Region:                    "ap-southeast-2",
		Headers:                   []HTTPHeaderEntry{{Name: "X-Override", Value: "1"}},
		UseEnvironmentCredentials: &useEnv,
	}

	once := AuthSettings{AccessKeyID: "base", SecretAccessKey: "secret"}
	once.UpdateFrom(override)

	twice := AuthSettings{AccessKeyID: "base", SecretAccessKey: "secret"}
	twice.UpdateFrom(override)
	twice.UpdateFrom(override)

	assert.True(t, once.Equal(twice))
}

func TestAuthSettingsEqual(t *testing.T) {
	a := AuthSettings{AccessKeyID: "k", Headers: []HTTPHeaderEntry{{Name: "H", Value: "v"}}}
	b := AuthSettings{AccessKeyID: "k", Headers: []HTTPHeaderEntry{{Name: "H", Value: "v"}}}
	assert.True(t, a.Equal(b))

	setTrue, setFalse := true, false
	a.UseInsecureIMDSRequest = &setTrue
	b.UseInsecureIMDSRequest = &setFalse
	assert.False(t, a.Equal(b))

	b.UseInsecureIMDSRequest = &setTrue
	assert.True(t, a.Equal(b))
}
