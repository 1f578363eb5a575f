package github

import (
	"fmt"
	"net/http"

	"github.com/jfrog/frogbot-installer/server/metrics"
	"github.com/palantir/go-githubapp/githubapp"
	"github.com/uber-go/tally/v4"
)

type roundTripperFunc func(*http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}

// ClientMetrics records latency and status class of every request made by
// clients of the client creator.
func ClientMetrics(scope tally.Scope) githubapp.ClientMiddleware {
	return func(next http.RoundTripper) http.RoundTripper {
		return roundTripperFunc(func(r *http.Request) (*http.Response, error) {
			timer := scope.Timer(metrics.ExecutionTimeMetric).Start()
			defer timer.Stop()

			resp, err := next.RoundTrip(r)
			if err != nil {
				scope.Counter(metrics.ExecutionErrorMetric).Inc(1)
				return resp, err
			}
			scope.Tagged(map[string]string{
				metrics.StatusTag: fmt.Sprintf("%dxx", resp.StatusCode/100),
			}).Counter(metrics.ExecutionSuccessMetric).Inc(1)
			return resp, nil
		})
	}
}
