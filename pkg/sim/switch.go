package sim

import "sync/atomic"

// Switch simulates a digital input which can be toggled from any goroutine.
type Switch struct {
	active int32
}

// Active implements device.Input.
func (s *Switch) Active() bool {
	return atomic.LoadInt32(&s.active) != 0
}

// Press activates the switch.
func (s *Switch) Press() {
	atomic.StoreInt32(&s.active, 1)
}

// Release deactivates the switch.
func (s *Switch) Release() {
	atomic.StoreInt32(&s.active, 0)
}
