package pipeline

import (
	"context"
	"log"
	"sync/atomic"
	"time"
)

// Runner is a single background worker slot for pipeline runs. A trigger
// starts a run only when none is in flight, so repeated triggers cannot
// stack concurrent runs.
type Runner struct {
	pipe    *Pipeline
	running atomic.Bool
}

// NewRunner creates a runner for the given pipeline.
func NewRunner(pipe *Pipeline) *Runner {
	return &Runner{pipe: pipe}
}

// Running reports whether a run is currently in flight.
func (r *Runner) Running() bool {
	return r.running.Load()
}

// TryStart launches a pipeline run in the background and returns
// immediately. Returns false when a run is already in flight.
func (r *Runner) TryStart() bool {
	if !r.running.CompareAndSwap(false, true) {
		return false
	}

	go func() {
		defer r.running.Store(false)

		start := time.Now()
		result := r.pipe.Run(context.Background())
		for _, step := range result.Steps {
			if step.Err != nil {
				log.Printf("Pipeline step %s failed: %v", step.Name, step.Err)
			} else {
				log.Printf("Pipeline step %s: %s", step.Name, step.Summary)
			}
		}
		log.Printf("Pipeline run finished in %s", time.Since(start).Round(time.Millisecond))
	}()
	return true
}
