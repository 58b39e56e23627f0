package device

import "time"

// Output drives a digital output line.
type Output interface {
	Set(high bool)
}

// PWM drives a pulse-width modulated output, duty is 0-255.
type PWM interface {
	SetDuty(duty int)
}

// Input reads a digital input line.
type Input interface {
	Active() bool
}

// Direction is the rotation direction.
type Direction int

// Directions
const (
	Clockwise        Direction = 1
	CounterClockwise Direction = -1
)

// DirectionOf selects the direction from the sign of degrees.
func DirectionOf(degrees int) Direction {
	if degrees < 0 {
		return CounterClockwise
	}
	return Clockwise
}

// String implements fmt.Stringer.
func (d Direction) String() string {
	if d == CounterClockwise {
		return "ccw"
	}
	return "cw"
}

// Motion is the stepper motion primitive.
type Motion interface {
	// Rotate requests a rotation, replacing any in-flight motion.
	Rotate(dir Direction, degrees int)
	// Advance advances in-flight motion by one quantum and
	// reports whether the motion has completed.
	Advance() (done bool)
	// Stop aborts in-flight motion immediately.
	Stop()
}

// Clock provides time for firing.
type Clock interface {
	Now() time.Time
	Sleep(time.Duration)
}

// Hardware aggregates the hardware primitives used by Controller.
type Hardware struct {
	// Beam is the laser output of the fixed-output variant.
	Beam Output
	// BeamPWM is the laser output of the variable-duty variant.
	BeamPWM PWM
	// ArmLamp indicates the armed state, optional.
	ArmLamp Output
	// Motion drives the focus stepper.
	Motion Motion
	// Clock times the fire hold.
	Clock Clock
	// Abort is polled during fire hold if enabled, optional.
	Abort Input
}

type systemClock struct{}

func (systemClock) Now() time.Time        { return time.Now() }
func (systemClock) Sleep(d time.Duration) { time.Sleep(d) }

// SystemClock uses the time package.
var SystemClock Clock = systemClock{}
