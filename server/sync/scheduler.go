// Package sync runs work that must outlive the request which triggered it.
package sync

import (
	"context"
	"sync"

	key "github.com/jfrog/frogbot-installer/server/context"
	"github.com/jfrog/frogbot-installer/server/logging"
)

type Executor func(ctx context.Context) error

// AsyncScheduler runs executors in the background with the logging fields of
// the scheduling context but none of its deadlines.
type AsyncScheduler struct {
	Logger logging.Logger

	wg sync.WaitGroup
}

func NewAsyncScheduler(logger logging.Logger) *AsyncScheduler {
	return &AsyncScheduler{Logger: logger}
}

func (s *AsyncScheduler) Schedule(ctx context.Context, f Executor) error {
	background := key.CopyFields(context.Background(), ctx)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := f(background); err != nil {
			s.Logger.ErrorContext(background, err.Error())
		}
	}()
	return nil
}

// Shutdown waits for scheduled executors to finish or ctx to expire.
func (s *AsyncScheduler) Shutdown(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

type SynchronousScheduler struct {
	Logger logging.Logger
}

func (s *SynchronousScheduler) Schedule(ctx context.Context, f Executor) error {
	err := f(ctx)
	if err != nil {
		s.Logger.ErrorContext(ctx, err.Error())
	}
	return err
}
