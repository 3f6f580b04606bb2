// Package notifytest provides a Notifier double that records deliveries.
package notifytest

import (
	"context"
	"sync"

	"custodian/internal/notify"
)

// Recorder records every message and returns a configurable result.
type Recorder struct {
	mu       sync.Mutex
	messages []notify.Message
	fail     bool
	panics   bool
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

// FailDeliveries makes subsequent sends report failure.
func (r *Recorder) FailDeliveries(fail bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fail = fail
}

// PanicOnSend makes subsequent sends panic.
func (r *Recorder) PanicOnSend(p bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.panics = p
}

func (r *Recorder) Send(_ context.Context, msg notify.Message) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, msg)
	if r.panics {
		panic("notifier exploded")
	}
	return !r.fail
}

// Messages returns a copy of every recorded attempt, failed ones included.
func (r *Recorder) Messages() []notify.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]notify.Message, len(r.messages))
	copy(out, r.messages)
	return out
}

func (r *Recorder) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.messages)
}

func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = nil
}
