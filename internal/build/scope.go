package build

import (
	"sync"
	"sync/atomic"
)

// RenderScope runs deferred render and copy tasks on a bounded set of
// workers. Task failures are recorded on a shared flag instead of being
// returned, so one failing render does not short-circuit its siblings; the
// build is reported as failed if the flag was ever set.
type RenderScope struct {
	wg     sync.WaitGroup
	sem    chan struct{}
	failed atomic.Bool
}

// NewRenderScope creates a scope running at most workers tasks at a time.
func NewRenderScope(workers int) *RenderScope {
	if workers < 1 {
		workers = 1
	}
	return &RenderScope{sem: make(chan struct{}, workers)}
}

// Spawn schedules a task. Tasks must record their own failures via Fail.
func (s *RenderScope) Spawn(task func()) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.sem <- struct{}{}
		defer func() { <-s.sem }()
		task()
	}()
}

// Fail marks the build as failed.
func (s *RenderScope) Fail() {
	s.failed.Store(true)
}

// Wait blocks until every spawned task has finished.
func (s *RenderScope) Wait() {
	s.wg.Wait()
}

// Failed reports whether any task recorded a failure.
func (s *RenderScope) Failed() bool {
	return s.failed.Load()
}
