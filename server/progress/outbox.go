package progress

import (
	"sync"

	"github.com/jfrog/frogbot-installer/server/models"
)

// Outbox is a bounded Transport drained by a single consumer.
type Outbox struct {
	events    chan models.ProgressEvent
	done      chan struct{}
	closeOnce sync.Once
}

func NewOutbox(size int) *Outbox {
	return &Outbox{
		events: make(chan models.ProgressEvent, size),
		done:   make(chan struct{}),
	}
}

// Deliver drops the event when the outbox is full or closed.
func (o *Outbox) Deliver(event models.ProgressEvent) bool {
	select {
	case <-o.done:
		return false
	default:
	}

	select {
	case o.events <- event:
		return true
	default:
		return false
	}
}

func (o *Outbox) Events() <-chan models.ProgressEvent {
	return o.events
}

// Done is closed once the outbox stops accepting events.
func (o *Outbox) Done() <-chan struct{} {
	return o.done
}

func (o *Outbox) Close() {
	o.closeOnce.Do(func() {
		close(o.done)
	})
}
