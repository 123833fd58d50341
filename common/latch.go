package common

import (
	"time"

	"github.com/sasha-s/go-deadlock"
)

// EngineLatch serializes the sessions of one engine instance. Holding it
// is one cooperative timeslice: nothing else touches the schema cache,
// the statement cache or storage until it is released.
type EngineLatch struct {
	mutex deadlock.Mutex
}

func NewEngineLatch() *EngineLatch {
	return new(EngineLatch)
}

func (l *EngineLatch) Lock() {
	l.mutex.Lock()
}

func (l *EngineLatch) Unlock() {
	l.mutex.Unlock()
}

// ConfigureDeadlockDetection switches go-deadlock lock order and timeout
// checks on or off for every latch of the process.
func ConfigureDeadlockDetection(enable bool) {
	deadlock.Opts.Disable = !enable
	if enable {
		deadlock.Opts.DeadlockTimeout = 30 * time.Second
		deadlock.Opts.OnPotentialDeadlock = func() {
			RuntimeStack()
			panic("potential deadlock on engine latch")
		}
	}
}
