package sim

import (
	"github.com/robotalks/laserctl/pkg/l0/device"
)

// Board is a simulated controller board wired per the device pins.
type Board struct {
	Beam    *Pin
	ArmLamp *Pin
	StepPin *Pin
	DirPin  *Pin
	Abort   *Switch
	Stepper *Stepper
	Clock   device.Clock
}

// NewBoard creates a Board. clock defaults to the system clock.
func NewBoard(conf *device.Config, clock device.Clock) *Board {
	if clock == nil {
		clock = device.SystemClock
	}
	b := &Board{
		Beam:    NewPin("beam", conf.Pins.Beam),
		ArmLamp: NewPin("arm", conf.Pins.ArmLamp),
		StepPin: NewPin("step", conf.Pins.Step),
		DirPin:  NewPin("dir", conf.Pins.Dir),
		Abort:   &Switch{},
		Clock:   clock,
	}
	b.Stepper = NewStepper(conf.StepsPerRev, conf.StepInterval, clock)
	b.Stepper.Step, b.Stepper.Dir = b.StepPin, b.DirPin
	return b
}

// Hardware wires the board for the variant.
func (b *Board) Hardware(v device.Variant) device.Hardware {
	hw := device.Hardware{
		ArmLamp: b.ArmLamp,
		Motion:  b.Stepper,
		Clock:   b.Clock,
		Abort:   b.Abort,
	}
	if v.VariableDuty {
		hw.BeamPWM = b.Beam
	} else {
		hw.Beam = b.Beam
	}
	return hw
}
