// Package progress routes installation progress events to whichever client
// is watching a session.
package progress

import (
	"context"
	"sync"

	key "github.com/jfrog/frogbot-installer/server/context"
	"github.com/jfrog/frogbot-installer/server/logging"
	"github.com/jfrog/frogbot-installer/server/metrics"
	"github.com/jfrog/frogbot-installer/server/models"
	"github.com/uber-go/tally/v4"
)

// Transport receives events for a single session. Deliver must not block and
// reports false when the event was not accepted.
type Transport interface {
	Deliver(event models.ProgressEvent) bool
}

// Registry maps session keys to the transport currently attached to them.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]Transport

	logger logging.Logger
	scope  tally.Scope
}

func NewRegistry(logger logging.Logger, scope tally.Scope) *Registry {
	return &Registry{
		sessions: make(map[string]Transport),
		logger:   logger,
		scope:    scope.SubScope("progress"),
	}
}

// Attach replaces any transport previously attached under sessionKey.
func (r *Registry) Attach(sessionKey string, transport Transport) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[sessionKey] = transport
}

// Detach is a noop unless transport is the one attached under sessionKey.
func (r *Registry) Detach(sessionKey string, transport Transport) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if current, ok := r.sessions[sessionKey]; ok && current == transport {
		delete(r.sessions, sessionKey)
	}
}

func (r *Registry) Send(sessionKey string, event models.ProgressEvent) {
	r.mu.RLock()
	transport, ok := r.sessions[sessionKey]
	r.mu.RUnlock()

	if !ok {
		r.scope.Counter(metrics.ProgressNoPeer).Inc(1)
		return
	}

	if !transport.Deliver(event) {
		r.scope.Counter(metrics.ProgressDropped).Inc(1)
		ctx := context.WithValue(context.Background(), key.SessionKey, sessionKey)
		r.logger.WarnContext(ctx, "dropped progress event", map[string]interface{}{
			"status": event.Stage.String(),
		})
		return
	}
	r.scope.Counter(metrics.ProgressSent).Inc(1)
}
