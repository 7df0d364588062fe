package session

import (
	"sync"
	"time"
)

// repeater runs fn once per interval until stopped. It is an owned resource:
// whichever component starts it is responsible for stopping it on teardown.
// Stop is idempotent and does not wait for an in-flight fn call; fn itself
// must tolerate one stale invocation after Stop.
type repeater struct {
	stop     chan struct{}
	stopOnce sync.Once
}

// startRepeater starts a repeater ticking fn at the given interval.
func startRepeater(interval time.Duration, fn func()) *repeater {
	r := &repeater{stop: make(chan struct{})}
	go func() {
		t := time.NewTicker(interval)
		defer t.Stop()
		for {
			select {
			case <-r.stop:
				return
			case <-t.C:
				fn()
			}
		}
	}()
	return r
}

// Stop halts the repeater. Safe to call multiple times or on nil.
func (r *repeater) Stop() {
	if r == nil {
		return
	}
	r.stopOnce.Do(func() { close(r.stop) })
}
