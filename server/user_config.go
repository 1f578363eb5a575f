package server

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/alecthomas/kong"
	kongyaml "github.com/alecthomas/kong-yaml"
	"github.com/jfrog/frogbot-installer/server/logging"
)

type ConfigFlag string

func (c ConfigFlag) BeforeResolve(kongCli *kong.Kong, ctx *kong.Context, trace *kong.Path) error {
	path := string(ctx.FlagValue(trace.Flag).(ConfigFlag))
	if path == "" {
		return nil
	}
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".yaml", ".yml":
		kong.Configuration(kongyaml.Loader).Apply(kongCli)
	case ".json":
		kong.Configuration(kong.JSON).Apply(kongCli)
	default:
		return fmt.Errorf("no loader for config with extension %q found", ext)
	}
	resolver, err := kongCli.LoadConfig(path)
	if err != nil {
		return err
	}
	ctx.AddResolver(resolver)
	return nil
}

// URL object without schema
type Schemeless struct {
	*url.URL
}

func (s *Schemeless) Decode(ctx *kong.DecodeContext) error {
	var rawUrl string
	err := ctx.Scan.PopValueInto("string", &rawUrl)
	if err != nil {
		return err
	}
	parsedUrl, err := url.Parse(rawUrl)
	if err != nil {
		return err
	}
	if parsedUrl.Host == "" {
		parsedUrl, err = url.Parse(fmt.Sprintf("//%s", rawUrl))
		if err != nil {
			return err
		}
	}
	parsedUrl.Scheme = ""
	*s = Schemeless{parsedUrl}
	return nil
}

func (s *Schemeless) String() string {
	if s != nil && s.URL != nil {
		return s.URL.String()
	}
	return ""
}

// HTTPS serving secrets
type SSLSecrets struct {
	CertFile string `help:"${help_ssl_cert_file}"`
	KeyFile  string `help:"${help_ssl_key_file}"`
}

func (s SSLSecrets) Validate() error {
	if (s.KeyFile == "") != (s.CertFile == "") {
		return fmt.Errorf("both ssl key and certificate are required")
	}
	return nil
}

// GitHub App secrets
type GithubSecrets struct {
	Hostname      Schemeless `default:"github.com" help:"${help_gh_hostname}"`
	AppID         int64      `help:"${help_gh_app_id}"`
	AppKey        string     `help:"${help_gh_app_key}"`
	AppKeyFile    string     `type:"filecontent" help:"${help_gh_app_key_file}"`
	WebhookSecret string     `help:"${help_gh_webhook_secret}"` // nolint: gosec
}

func (s GithubSecrets) Validate() error {
	if s.AppID == 0 {
		return fmt.Errorf("Github: app ID is required")
	}
	if s.AppKey == "" && s.AppKeyFile == "" {
		return fmt.Errorf("Github: either app key or app key file should be set together with app ID")
	}
	if s.AppKey != "" && s.AppKeyFile != "" {
		return fmt.Errorf("Github: app key and app key file are mutually exclusive")
	}
	return nil
}

// PrivateKey is the app key, whichever way it was provided.
func (s GithubSecrets) PrivateKey() string {
	if s.AppKeyFile != "" {
		return s.AppKeyFile
	}
	return s.AppKey
}

type UserConfig struct {
	Config                 ConfigFlag       `help:"${help_config}"`
	LogLevel               logging.LogLevel `default:"info" help:"${help_log_level}"`
	Port                   int              `default:"3000" help:"${help_port}"`
	StatsNamespace         string           `default:"frogbot_installer" help:"${help_stats_namespace}"`
	StatsdAddress          string           `help:"${help_statsd_address}"`
	PullRequestBody        string           `name:"pull-request-body-file" type:"filecontent" help:"${help_pull_request_body_file}"`
	GithubRequestTimeout   time.Duration    `name:"gh-request-timeout" default:"30s" help:"${help_gh_request_timeout}"`
	PlatformRequestTimeout time.Duration    `default:"30s" help:"${help_platform_request_timeout}"`
	WsHandshakeTimeout     time.Duration    `name:"ws-handshake-timeout" default:"30s" help:"${help_ws_handshake_timeout}"`
	ShutdownTimeout        time.Duration    `default:"30s" help:"${help_shutdown_timeout}"`
	SSLSecrets             `kong:"embed,prefix='ssl-'"`
	GithubSecrets          `kong:"embed,prefix='gh-'"`
}
