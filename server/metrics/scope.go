package metrics

import (
	"io"
	"sort"
	"strings"
	"time"

	"github.com/cactus/go-statsd-client/statsd"
	"github.com/pkg/errors"
	"github.com/uber-go/tally/v4"
	tallystatsd "github.com/uber-go/tally/v4/statsd"
)

const (
	reportInterval      = time.Second
	DefaultTagSeparator = ","
)

type Config struct {
	StatsdAddress string
	Namespace     string

	// TagSeparator joins influx style tags onto the metric name. Defaults to
	// DefaultTagSeparator.
	TagSeparator string
}

// NewScope returns a root scope reporting to statsd. When no statsd address
// is configured the scope records nothing.
func NewScope(cfg Config) (tally.Scope, io.Closer, error) {
	if cfg.StatsdAddress == "" {
		return tally.NoopScope, noopCloser{}, nil
	}

	client, err := statsd.NewClientWithConfig(&statsd.ClientConfig{
		Address:       cfg.StatsdAddress,
		UseBuffered:   true,
		FlushInterval: reportInterval,
	})
	if err != nil {
		return nil, nil, errors.Wrap(err, "initializing statsd client")
	}

	scope, closer := tally.NewRootScope(tally.ScopeOptions{
		Prefix:   cfg.Namespace,
		Reporter: newTaggedReporter(tallystatsd.NewReporter(client, tallystatsd.Options{}), cfg.TagSeparator),
	}, reportInterval)
	return scope, closer, nil
}

type noopCloser struct{}

func (noopCloser) Close() error { return nil }

// taggedReporter folds tally tags into the statsd metric name since plain
// statsd has no tag support.
type taggedReporter struct {
	tally.StatsReporter

	separator string
}

func newTaggedReporter(delegate tally.StatsReporter, separator string) *taggedReporter {
	if separator == "" {
		separator = DefaultTagSeparator
	}
	return &taggedReporter{StatsReporter: delegate, separator: separator}
}

// name appends tags sorted by key so a series always maps to one name.
func (r *taggedReporter) name(name string, tags map[string]string) string {
	if len(tags) == 0 {
		return name
	}
	keys := make([]string, 0, len(tags))
	for k := range tags {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(name)
	for _, k := range keys {
		b.WriteString(r.separator)
		b.WriteString(sanitizeTag(k))
		b.WriteByte('=')
		b.WriteString(sanitizeTag(tags[k]))
	}
	return b.String()
}

func (r *taggedReporter) ReportCounter(name string, tags map[string]string, value int64) {
	r.StatsReporter.ReportCounter(r.name(name, tags), nil, value)
}

func (r *taggedReporter) ReportGauge(name string, tags map[string]string, value float64) {
	r.StatsReporter.ReportGauge(r.name(name, tags), nil, value)
}

func (r *taggedReporter) ReportTimer(name string, tags map[string]string, interval time.Duration) {
	r.StatsReporter.ReportTimer(r.name(name, tags), nil, interval)
}

func (r *taggedReporter) ReportHistogramValueSamples(name string, tags map[string]string, buckets tally.Buckets, lower, upper float64, samples int64) {
	r.StatsReporter.ReportHistogramValueSamples(r.name(name, tags), nil, buckets, lower, upper, samples)
}

func (r *taggedReporter) ReportHistogramDurationSamples(name string, tags map[string]string, buckets tally.Buckets, lower, upper time.Duration, samples int64) {
	r.StatsReporter.ReportHistogramDurationSamples(r.name(name, tags), nil, buckets, lower, upper, samples)
}

var tagReplacer = strings.NewReplacer(".", "_", ":", "_", "|", "_", "-", "_", "=", "_", ",", "_", " ", "_")

// sanitizeTag keeps repository names and error kinds from breaking the
// statsd line protocol.
func sanitizeTag(s string) string {
	return tagReplacer.Replace(s)
}
