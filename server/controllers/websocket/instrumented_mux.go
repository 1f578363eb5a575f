package websocket

import (
	"net/http"
	"sync/atomic"

	"github.com/jfrog/frogbot-installer/server/metrics"
	"github.com/pkg/errors"
	"github.com/uber-go/tally/v4"
)

type InstrumentedMultiplexor struct {
	Handler

	numWsConnections int64
	NumWsConnections tally.Gauge
	Rejected         tally.Counter
}

func NewInstrumentedMultiplexor(handler Handler, statsScope tally.Scope) Handler {
	scope := statsScope.SubScope("progress").SubScope("websocket")
	return &InstrumentedMultiplexor{
		Handler:          handler,
		NumWsConnections: scope.Gauge(metrics.WebsocketConnections),
		Rejected:         scope.Counter(metrics.WebsocketRejected),
	}
}

func (i *InstrumentedMultiplexor) Handle(w http.ResponseWriter, r *http.Request) error {
	i.NumWsConnections.Update(float64(atomic.AddInt64(&i.numWsConnections, 1)))
	defer func() {
		i.NumWsConnections.Update(float64(atomic.AddInt64(&i.numWsConnections, -1)))
	}()

	err := i.Handler.Handle(w, r)
	if errors.Is(err, ErrInvalidHandshake) {
		i.Rejected.Inc(1)
	}
	return err
}
