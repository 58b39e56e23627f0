package sim

import (
	"math"
	"sync"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/laserctl/pkg/l0/device"
)

// Stepper simulates a focus stepper motor implementing device.Motion.
// Each Advance moves at most one step, and not faster than StepInterval.
type Stepper struct {
	StepsPerRev  int
	StepInterval time.Duration
	Clock        device.Clock
	// Step and Dir are driven like a step/dir driver, optional.
	Step device.Output
	Dir  device.Output

	lock      sync.RWMutex
	position  int
	remaining int
	dir       device.Direction
	lastStep  time.Time
	running   bool
}

// NewStepper creates a Stepper.
func NewStepper(stepsPerRev int, interval time.Duration, clock device.Clock) *Stepper {
	if clock == nil {
		clock = device.SystemClock
	}
	return &Stepper{StepsPerRev: stepsPerRev, StepInterval: interval, Clock: clock}
}

// StepsOf converts degrees to steps, rounding to the nearest step.
func (s *Stepper) StepsOf(degrees int) int {
	return int(math.Round(float64(degrees) * float64(s.StepsPerRev) / 360))
}

// Rotate implements device.Motion.
func (s *Stepper) Rotate(dir device.Direction, degrees int) {
	steps := s.StepsOf(degrees)
	s.lock.Lock()
	s.dir, s.remaining, s.running = dir, steps, true
	s.lock.Unlock()
	if s.Dir != nil {
		s.Dir.Set(dir == device.CounterClockwise)
	}
	glog.V(2).Infof("stepper: rotate %s %d degrees (%d steps)", dir, degrees, steps)
}

// Advance implements device.Motion.
func (s *Stepper) Advance() bool {
	s.lock.Lock()
	defer s.lock.Unlock()
	if !s.running || s.remaining <= 0 {
		s.running = false
		return true
	}
	now := s.Clock.Now()
	if s.StepInterval > 0 && !s.lastStep.IsZero() && now.Sub(s.lastStep) < s.StepInterval {
		return false
	}
	s.lastStep = now
	s.position += int(s.dir)
	s.remaining--
	if s.Step != nil {
		s.Step.Set(true)
		s.Step.Set(false)
	}
	if s.remaining == 0 {
		s.running = false
		return true
	}
	return false
}

// Stop implements device.Motion.
func (s *Stepper) Stop() {
	s.lock.Lock()
	remaining := s.remaining
	s.remaining, s.running = 0, false
	s.lock.Unlock()
	glog.V(2).Infof("stepper: stopped, %d steps not taken", remaining)
}

// Position returns the physical position in steps.
func (s *Stepper) Position() int {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.position
}

// Degrees returns the physical position in degrees.
func (s *Stepper) Degrees() float64 {
	return float64(s.Position()) * 360 / float64(s.StepsPerRev)
}

// Remaining returns the steps left of in-flight motion.
func (s *Stepper) Remaining() int {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.remaining
}

// Running indicates motion is in flight.
func (s *Stepper) Running() bool {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.running
}
