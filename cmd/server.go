// Copyright 2017 HootSuite Media Inc.
//
// Licensed under the Apache License, Version 2.0 (the License);
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//    http://www.apache.org/licenses/LICENSE-2.0
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an AS IS BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
// Modified hereafter by contributors to jfrog/frogbot-installer.

package cmd

import (
	"fmt"

	"github.com/alecthomas/kong"
	"github.com/jfrog/frogbot-installer/server"
	"github.com/palantir/go-githubapp/githubapp"
	"github.com/pkg/errors"
)

const (
	githubDotCom    = "github.com"
	githubAPIDotCom = "api.github.com"
)

type Context struct {
	Version string
}

type VersionCmd struct{}

func (cmd *VersionCmd) Run(ctx Context) error {
	fmt.Printf("frogbot-installer %s\n", ctx.Version)
	return nil
}

type ServerCmd struct {
	server.UserConfig `kong:"embed"`
}

var CLI struct {
	Version VersionCmd `cmd:"version" help:"Print the current installer version"`
	Server  ServerCmd  `cmd:"server" help:"Start the Frogbot installer server"`
}

var FlagsVars = kong.Vars{
	"help_config":          "Path to yaml or json config file where flag values can also be set.",
	"help_gh_app_id":       "GitHub App Id used to authenticate as the app and its installations.",
	"help_gh_app_key":      "The GitHub App's private key.",
	"help_gh_app_key_file": "A path to a file containing the GitHub App's private key.",
	"help_gh_hostname": "Hostname of your Github Enterprise installation. " +
		"If using github.com, no need to set.",
	"help_gh_request_timeout": "Timeout applied to every GitHub API request.",
	"help_gh_webhook_secret": "Secret used to validate GitHub webhooks " +
		"(see https://developer.github.com/webhooks/securing/).\n" +
		"SECURITY WARNING: If not specified, the installer won't be able to validate that the incoming webhook call " +
		"came from GitHub. This means that an attacker could spoof calls to the installer " +
		"and cause it to open pull requests on your repositories.",
	"help_log_level":                "Log level. Either debug, info, warn, or error.",
	"help_platform_request_timeout": "Timeout applied to the JFrog platform credential check.",
	"help_port":                     "Port to bind to.",
	"help_pull_request_body_file":   "Path to a markdown template used as the body of the Frogbot pull request.",
	"help_shutdown_timeout":         "How long to wait for in-flight requests and installations when stopping.",
	"help_ssl_cert_file": "File containing x509 Certificate used for serving HTTPS. " +
		"If the cert is signed by a CA, the file should be the concatenation of the server's certificate, " +
		"any intermediates, and the CA's certificate.",
	"help_ssl_key_file":         "File containing x509 private key.",
	"help_stats_namespace":      "Namespace for aggregating stats.",
	"help_statsd_address":       "host:port of a statsd agent. Stats are discarded when unset.",
	"help_ws_handshake_timeout": "How long a progress websocket may take to identify its client.",
}

func (cmd *ServerCmd) Validate() error {
	if err := cmd.UserConfig.SSLSecrets.Validate(); err != nil {
		return err
	}
	if err := cmd.UserConfig.GithubSecrets.Validate(); err != nil {
		return err
	}
	if cmd.UserConfig.Port <= 0 {
		return fmt.Errorf("port must be positive, got %d", cmd.UserConfig.Port)
	}
	return nil
}

func (cmd *ServerCmd) Run(ctx Context) error {
	srv, err := server.NewServer(cmd.UserConfig, cmd.createGHAppConfig())
	if err != nil {
		return errors.Wrap(err, "initializing server")
	}
	return srv.Start()
}

func (cmd *ServerCmd) createGHAppConfig() githubapp.Config {
	webURL, v3APIURL, v4APIURL := githubURLs(cmd.UserConfig.GithubSecrets.Hostname.Host)
	appConfig := githubapp.Config{
		WebURL:   webURL,
		V3APIURL: v3APIURL,
		V4APIURL: v4APIURL,
	}
	appConfig.App.IntegrationID = cmd.UserConfig.GithubSecrets.AppID
	appConfig.App.WebhookSecret = cmd.UserConfig.GithubSecrets.WebhookSecret
	appConfig.App.PrivateKey = cmd.UserConfig.GithubSecrets.PrivateKey()
	return appConfig
}

// githubURLs resolves the web, REST and GraphQL endpoints for a GitHub host.
func githubURLs(hostname string) (string, string, string) {
	if hostname == "" || hostname == githubDotCom {
		return "https://" + githubDotCom, "https://" + githubAPIDotCom, "https://" + githubAPIDotCom + "/graphql"
	}
	return "https://" + hostname, "https://" + hostname + "/api/v3", "https://" + hostname + "/api/graphql"
}
