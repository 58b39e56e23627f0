package device

import (
	"errors"
	"time"

	"github.com/golang/glog"

	fx "github.com/robotalks/laserctl/pkg/framework"
	"github.com/robotalks/laserctl/pkg/l0/command"
	"github.com/robotalks/laserctl/pkg/l0/status"
)

// LaserState is the state of the laser.
type LaserState struct {
	Armed     bool
	DutyCycle int
}

// StepperState is the state of the focus stepper.
type StepperState struct {
	// Position is the tracked position in degrees. It's updated when
	// a rotation is requested, not when it completes.
	Position int
	Running  bool
}

// Snapshot is a copy of the device state.
type Snapshot struct {
	Variant string
	Laser   LaserState
	Stepper StepperState
}

// Controller is the device state machine. It must only be
// used from the loop goroutine.
type Controller struct {
	Config  Config
	Variant Variant
	HW      Hardware
	Status  status.Sink

	laser   LaserState
	stepper StepperState
	changed bool
}

// NewController creates a Controller.
func NewController(conf *Config, hw Hardware, sink status.Sink) (*Controller, error) {
	v, err := conf.Validate()
	if err != nil {
		return nil, err
	}
	if v.VariableDuty && hw.BeamPWM == nil {
		return nil, errors.New("variable-duty variant requires PWM beam output")
	}
	if !v.VariableDuty && hw.Beam == nil {
		return nil, errors.New("fixed-output variant requires beam output")
	}
	if hw.Motion == nil {
		return nil, errors.New("focus motion required")
	}
	if hw.Clock == nil {
		hw.Clock = SystemClock
	}
	return &Controller{
		Config:  *conf,
		Variant: v,
		HW:      hw,
		Status:  sink,
		changed: true,
	}, nil
}

// AddToLoop implements LoopAdder.
func (c *Controller) AddToLoop(l *fx.Loop) {
	l.AddController(fx.PrLvAcuate, fx.ControlFunc(func(fx.ControlContext) error {
		c.Poll()
		return nil
	}))
}

// Snapshot returns a copy of current state.
func (c *Controller) Snapshot() Snapshot {
	return Snapshot{Variant: c.Variant.Name, Laser: c.laser, Stepper: c.stepper}
}

// TakeChanged reports whether state changed since last call.
func (c *Controller) TakeChanged() bool {
	changed := c.changed
	c.changed = false
	return changed
}

// Supports implements command.Operations.
func (c *Controller) Supports(op byte) bool {
	if op == command.OpDutyCycle {
		return c.Variant.VariableDuty
	}
	return true
}

// EmergencyStop implements command.Operations.
// It's safe from any state and idempotent.
func (c *Controller) EmergencyStop() {
	c.deenergize()
	c.setArmLamp(false)
	c.laser = LaserState{}
	c.changed = true
	c.emit(c.Variant.EmergencyStopCode, "EMERGENCY STOP")
	if c.stepper.Running {
		c.HW.Motion.Stop()
		c.stepper.Running = false
		glog.Warningf("focus motion aborted, tracked position %d may be wrong", c.stepper.Position)
		c.emit(status.CodePositionLost, "FOCUS POSITION LOST")
	}
}

// Arm implements command.Operations.
func (c *Controller) Arm() {
	c.laser.Armed = true
	c.changed = true
	c.setArmLamp(true)
	c.emit(status.CodeArmed, "ARMED")
}

// Unarm implements command.Operations.
func (c *Controller) Unarm() {
	c.laser.Armed = false
	c.changed = true
	c.deenergize()
	c.setArmLamp(false)
	c.emit(status.CodeUnarmed, "UNARMED")
}

// SetDutyCycle implements command.Operations.
// The value is stored as given.
func (c *Controller) SetDutyCycle(n int) {
	if n < 0 || n > 254 {
		glog.Warningf("duty cycle %d out of range 0-254", n)
	}
	c.laser.DutyCycle = n
	c.changed = true
	c.emit(status.CodeDutyCycle, "DUTY CYCLE %d", n)
}

// Fire implements command.Operations. It blocks for ms milliseconds
// while the beam is energized, and nothing else on the loop runs
// meanwhile, including emergency stop.
func (c *Controller) Fire(ms int) {
	if !c.laser.Armed {
		c.emit(status.CodeNotArmed, "LASER NOT ARMED")
		return
	}
	dur := time.Duration(ms) * time.Millisecond
	if dur < 0 {
		dur = 0
	}
	c.energize()
	elapsed, aborted := c.hold(dur)
	c.deenergize()
	if aborted {
		glog.Warningf("fire aborted after %v", elapsed)
		c.emit(status.CodeFireAborted, "FIRE ABORTED AFTER %d ms", int(elapsed/time.Millisecond))
		c.EmergencyStop()
		return
	}
	if c.Variant.VariableDuty {
		c.emit(status.CodeFired, "FIRED %d ms @ %d/255", ms, c.laser.DutyCycle)
	} else {
		c.emit(status.CodeFired, "FIRED %d ms", ms)
	}
}

// FocusRotate implements command.Operations.
func (c *Controller) FocusRotate(degrees int) {
	if max := c.Config.MaxFocusRotation; degrees > max || degrees < -max {
		c.emit(status.CodeMaxRotation, "MAXIMUM FOCUS ROTATION IS %d", max)
		return
	}
	dir := DirectionOf(degrees)
	abs := degrees
	if abs < 0 {
		abs = -abs
	}
	c.HW.Motion.Rotate(dir, abs)
	c.stepper.Position += degrees
	c.stepper.Running = true
	c.changed = true
	c.emit(status.CodeFocusRotate, "FOCUS ROTATE %d", degrees)
}

// ZeroFocusPosition implements command.Operations.
func (c *Controller) ZeroFocusPosition() {
	old := c.stepper.Position
	c.stepper.Position = 0
	c.changed = true
	c.emit(c.Variant.FocusZeroedCode, "FOCUS POSITION ZEROED, WAS %d", old)
}

// Poll advances in-flight motion by one quantum.
func (c *Controller) Poll() {
	if !c.stepper.Running {
		return
	}
	if c.HW.Motion.Advance() {
		c.stepper.Running = false
		c.changed = true
		c.emit(status.CodeFocusDone, "FOCUS POSITION %d", c.stepper.Position)
	}
}

func (c *Controller) hold(dur time.Duration) (time.Duration, bool) {
	clock := c.HW.Clock
	poll := c.Config.FireAbortPoll
	if poll <= 0 || c.HW.Abort == nil {
		clock.Sleep(dur)
		return dur, false
	}
	start := clock.Now()
	for {
		elapsed := clock.Now().Sub(start)
		if elapsed >= dur {
			return elapsed, false
		}
		if c.HW.Abort.Active() {
			return elapsed, true
		}
		step := poll
		if remains := dur - elapsed; remains < step {
			step = remains
		}
		clock.Sleep(step)
	}
}

func (c *Controller) energize() {
	if c.Variant.VariableDuty {
		c.HW.BeamPWM.SetDuty(c.laser.DutyCycle)
	} else {
		c.HW.Beam.Set(true)
	}
}

func (c *Controller) deenergize() {
	if c.HW.BeamPWM != nil {
		c.HW.BeamPWM.SetDuty(0)
	}
	if c.HW.Beam != nil {
		c.HW.Beam.Set(false)
	}
}

func (c *Controller) setArmLamp(on bool) {
	if c.HW.ArmLamp != nil {
		c.HW.ArmLamp.Set(on)
	}
}

func (c *Controller) emit(code status.Code, format string, args ...interface{}) {
	c.Status.Emit(status.New(code, format, args...))
}
