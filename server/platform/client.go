// Package platform talks to the JFrog Platform the installed workflows will
// report to.
package platform

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/go-cleanhttp"
	"github.com/hashicorp/go-retryablehttp"
	key "github.com/jfrog/frogbot-installer/server/context"
	"github.com/jfrog/frogbot-installer/server/logging"
	"github.com/pkg/errors"
)

const (
	versionPath = "artifactory/api/system/version"
	maxRetries  = 2
)

// Client validates platform credentials. It is safe for concurrent use.
type Client struct {
	http   *retryablehttp.Client
	logger logging.Logger
}

func NewClient(timeout time.Duration, logger logging.Logger) *Client {
	httpClient := retryablehttp.NewClient()
	httpClient.HTTPClient = cleanhttp.DefaultPooledClient()
	httpClient.HTTPClient.Timeout = timeout
	httpClient.RetryMax = maxRetries
	httpClient.RetryWaitMin = 100 * time.Millisecond
	httpClient.RetryWaitMax = time.Second
	httpClient.Logger = &leveledLogger{logger: logger}
	return &Client{
		http:   httpClient,
		logger: logger,
	}
}

// Validate succeeds when accessToken can read the platform's version.
func (c *Client) Validate(ctx context.Context, platformURL string, accessToken string) error {
	url := fmt.Sprintf("%s/%s", strings.TrimSuffix(platformURL, "/"), versionPath)
	req, err := retryablehttp.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return errors.Wrap(err, "building version request")
	}
	req = req.WithContext(ctx)
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrap(err, "requesting platform version")
	}
	defer resp.Body.Close() // nolint: errcheck
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("not ok status requesting platform version: %s", resp.Status)
	}
	c.logger.DebugContext(ctx, "validated platform credentials", map[string]interface{}{
		"platform": platformURL,
	})
	return nil
}

// leveledLogger routes retryablehttp's logs through our logger.
type leveledLogger struct {
	logger logging.Logger
}

func fields(keysAndValues []interface{}) map[string]interface{} {
	f := make(map[string]interface{}, len(keysAndValues)/2)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		f[fmt.Sprint(keysAndValues[i])] = keysAndValues[i+1]
	}
	if err, ok := f["error"]; ok {
		delete(f, "error")
		f[key.ErrKey.String()] = fmt.Sprint(err)
	}
	return f
}

func (l *leveledLogger) Error(msg string, keysAndValues ...interface{}) {
	l.logger.Error(msg, fields(keysAndValues))
}

func (l *leveledLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Info(msg, fields(keysAndValues))
}

func (l *leveledLogger) Debug(msg string, keysAndValues ...interface{}) {
	l.logger.Debug(msg, fields(keysAndValues))
}

func (l *leveledLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.logger.Warn(msg, fields(keysAndValues))
}
