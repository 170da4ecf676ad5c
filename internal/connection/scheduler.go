package connection

import (
	"sync"
	"time"
)

// Timer is a scheduled task that can be cancelled.
type Timer interface {
	Stop()
}

// Scheduler runs deferred and recurring tasks. Callbacks run on the
// scheduler's goroutine; the manager only uses them to enqueue work.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
	Every(d time.Duration, f func()) Timer
}

// NewScheduler returns a Scheduler backed by the time package.
func NewScheduler() Scheduler {
	return clock{}
}

type clock struct{}

type stopFunc func()

func (f stopFunc) Stop() { f() }

func (clock) AfterFunc(d time.Duration, f func()) Timer {
	t := time.AfterFunc(d, f)
	return stopFunc(func() { t.Stop() })
}

func (clock) Every(d time.Duration, f func()) Timer {
	ticker := time.NewTicker(d)
	done := make(chan struct{})

	go func() {
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				f()
			}
		}
	}()

	var once sync.Once
	return stopFunc(func() {
		once.Do(func() {
			ticker.Stop()
			close(done)
		})
	})
}
