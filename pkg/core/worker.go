package core

import (
	"sync"
	"time"
)

type Worker struct {
	timer *time.Timer
	done  chan struct{}
	once  sync.Once
}

// NewWorker run f after d and repeat it after the duration returned by f,
// zero or negative duration finish the worker
func NewWorker(d time.Duration, f func() time.Duration) *Worker {
	w := &Worker{timer: time.NewTimer(d), done: make(chan struct{})}

	go func() {
		for {
			select {
			case <-w.timer.C:
				if d = f(); d > 0 {
					w.timer.Reset(d)
					continue
				}
			case <-w.done:
				w.timer.Stop()
			}
			return
		}
	}()

	return w
}

// Do - instant timer run
func (w *Worker) Do() {
	if w == nil {
		return
	}
	w.timer.Reset(0)
}

func (w *Worker) Stop() {
	if w == nil {
		return
	}
	w.once.Do(func() {
		close(w.done)
	})
}
