package jobs

import (
	"context"
	"log"
	"sync"
	"time"
)

// JobProcessor drains whatever work is pending when called.
type JobProcessor interface {
	ProcessJobs(ctx context.Context) error
}

// Worker drives a JobProcessor from a ticker. Uploads queued with async
// processing call Trigger so they don't wait a full interval.
type Worker struct {
	processor JobProcessor
	interval  time.Duration

	wake     chan struct{}
	quit     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

func NewWorker(processor JobProcessor, interval time.Duration) *Worker {
	return &Worker{
		processor: processor,
		interval:  interval,
		wake:      make(chan struct{}, 1),
		quit:      make(chan struct{}),
		done:      make(chan struct{}),
	}
}

// Start blocks, polling until ctx is cancelled or Stop is called.
func (w *Worker) Start(ctx context.Context) {
	defer close(w.done)

	tick := time.NewTicker(w.interval)
	defer tick.Stop()

	log.Printf("worker: polling every %v", w.interval)
	for {
		select {
		case <-ctx.Done():
			log.Println("worker: context cancelled")
			return
		case <-w.quit:
			log.Println("worker: stop requested")
			return
		case <-tick.C:
		case <-w.wake:
		}
		if err := w.processor.ProcessJobs(ctx); err != nil {
			log.Printf("worker: processing jobs: %v", err)
		}
	}
}

// Trigger requests an immediate poll. Triggers that arrive while one is
// already pending are merged.
func (w *Worker) Trigger() {
	select {
	case w.wake <- struct{}{}:
	default:
	}
}

// Stop ends the loop and waits for an in-flight poll to return. It is safe to
// call more than once.
func (w *Worker) Stop() {
	w.stopOnce.Do(func() { close(w.quit) })
	<-w.done
	log.Println("worker: stopped")
}
