package pipeline

// WakeLock keeps the device awake for the duration of one invocation. It is
// acquired on entry and released on every exit path, including panics and
// budget exhaustion.
type WakeLock interface {
	Acquire()
	Release()
}

// NopWakeLock is the WakeLock used where the host provides no such
// primitive, e.g. server deployments and tests.
type NopWakeLock struct{}

func (NopWakeLock) Acquire() {}
func (NopWakeLock) Release() {}

var _ WakeLock = NopWakeLock{}
