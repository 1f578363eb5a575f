package server_test

import (
	"testing"

	"github.com/jfrog/frogbot-installer/server"
	"github.com/stretchr/testify/assert"
)

func TestSSLSecrets_Validate(t *testing.T) {
	assert.NoError(t, server.SSLSecrets{}.Validate())
	assert.NoError(t, server.SSLSecrets{CertFile: "cert", KeyFile: "key"}.Validate())
	assert.EqualError(t, server.SSLSecrets{CertFile: "cert"}.Validate(), "both ssl key and certificate are required")
	assert.EqualError(t, server.SSLSecrets{KeyFile: "key"}.Validate(), "both ssl key and certificate are required")
}

func TestGithubSecrets_Validate(t *testing.T) {
	cases := []struct {
		description string
		secrets     server.GithubSecrets
		expErr      string
	}{
		{
			"app key",
			server.GithubSecrets{AppID: 1, AppKey: "key"},
			"",
		},
		{
			"app key file",
			server.GithubSecrets{AppID: 1, AppKeyFile: "key"},
			"",
		},
		{
			"no app id",
			server.GithubSecrets{AppKey: "key"},
			"Github: app ID is required",
		},
		{
			"no key",
			server.GithubSecrets{AppID: 1},
			"Github: either app key or app key file should be set together with app ID",
		},
		{
			"both keys",
			server.GithubSecrets{AppID: 1, AppKey: "key", AppKeyFile: "key"},
			"Github: app key and app key file are mutually exclusive",
		},
	}
	for _, c := range cases {
		t.Run(c.description, func(t *testing.T) {
			err := c.secrets.Validate()
			if c.expErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.EqualError(t, err, c.expErr)
		})
	}
}

func TestGithubSecrets_PrivateKey(t *testing.T) {
	assert.Equal(t, "inline", server.GithubSecrets{AppKey: "inline"}.PrivateKey())
	assert.Equal(t, "from-file", server.GithubSecrets{AppKeyFile: "from-file"}.PrivateKey())
}
