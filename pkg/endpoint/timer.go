package endpoint

import (
	"time"
)

// Timer is the boundary to the runtime's timer service: Schedule arranges
// for msg to re-enter the endpoint as a timeout event after d.
type Timer interface {
	Schedule(d time.Duration, msg any)
}

// TimerFunc adapts a function to the Timer interface.
type TimerFunc func(d time.Duration, msg any)

// Schedule calls f.
func (f TimerFunc) Schedule(d time.Duration, msg any) { f(d, msg) }

// afterFuncTimer is the default timer: it posts the timeout event from a
// time.AfterFunc goroutine. Runtimes that serialize endpoint events on one
// context must replace it with a timer that routes through their mailbox.
type afterFuncTimer[M any] struct {
	ep *Endpoint[M]
}

func (t *afterFuncTimer[M]) Schedule(d time.Duration, msg any) {
	time.AfterFunc(d, func() {
		if err := t.ep.TimeoutEvent(msg); err != nil {
			t.ep.log.WithError(err).Debug("timeout event produced no delivery")
		}
	})
}
