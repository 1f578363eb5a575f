package metrics_test

import (
	"testing"

	"github.com/jfrog/frogbot-installer/server/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/uber-go/tally/v4"
)

func TestNewScope_NoAddress(t *testing.T) {
	scope, closer, err := metrics.NewScope(metrics.Config{Namespace: "frogbot"})
	assert.NoError(t, err)
	assert.Equal(t, tally.NoopScope, scope)
	assert.NoError(t, closer.Close())
}

func TestNewScope_Statsd(t *testing.T) {
	scope, closer, err := metrics.NewScope(metrics.Config{
		StatsdAddress: "127.0.0.1:8125",
		Namespace:     "frogbot",
	})
	assert.NoError(t, err)
	scope.SubScope("installer").Counter(metrics.ExecutionSuccessMetric).Inc(1)
	assert.NoError(t, closer.Close())
}
