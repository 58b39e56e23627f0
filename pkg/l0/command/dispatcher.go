package command

import (
	"github.com/golang/glog"

	"github.com/robotalks/laserctl/pkg/l0/status"
)

// Operations are the device operations commands are dispatched to.
type Operations interface {
	// Supports indicates the opcode is supported by the device.
	Supports(op byte) bool

	EmergencyStop()
	Arm()
	Unarm()
	SetDutyCycle(n int)
	Fire(ms int)
	FocusRotate(degrees int)
	ZeroFocusPosition()
}

// Usage describes an opcode in help output.
type Usage struct {
	Op   byte
	Args string
	Help string
}

// Usages lists all opcodes in help order.
var Usages = []Usage{
	{OpEmergencyStop, "", "emergency stop"},
	{OpArm, "", "arm laser"},
	{OpUnarm, "", "unarm laser"},
	{OpDutyCycle, "<0-254>", "set duty cycle"},
	{OpFire, "<ms>", "fire laser"},
	{OpFocus, "<+/-degrees>", "rotate focus"},
	{OpZeroFocus, "", "zero focus position"},
	{OpHelp, "", "print help"},
}

// String formats the usage as a help line.
func (u Usage) String() string {
	return string(u.Op) + u.Args + " - " + u.Help
}

// Dispatcher dispatches command lines to Operations.
type Dispatcher struct {
	Ops    Operations
	Status status.Sink
}

// NewDispatcher creates a Dispatcher.
func NewDispatcher(ops Operations, sink status.Sink) *Dispatcher {
	return &Dispatcher{Ops: ops, Status: sink}
}

// HandleLine implements line.Handler.
func (d *Dispatcher) HandleLine(line []byte) {
	d.Dispatch(line)
}

// HandleOverflow implements line.Handler.
func (d *Dispatcher) HandleOverflow() {
	glog.Warning("command line overflow")
	d.Status.Emit(status.New(status.CodeOverflow, "OVERFLOW"))
}

// Dispatch parses and executes a line. It returns false if the
// line is rejected as unknown.
func (d *Dispatcher) Dispatch(line []byte) bool {
	cmd, ok := Parse(line)
	if !ok || !d.supports(cmd.Op) {
		glog.V(2).Infof("unknown command %q", line)
		d.Status.Emit(status.New(status.CodeUnknownCommand, "UNKNOWN COMMAND"))
		return false
	}
	glog.V(2).Infof("command %c %d", cmd.Op, cmd.Arg)
	switch cmd.Op {
	case OpEmergencyStop:
		d.Ops.EmergencyStop()
	case OpArm:
		d.Ops.Arm()
	case OpUnarm:
		d.Ops.Unarm()
	case OpDutyCycle:
		d.Ops.SetDutyCycle(cmd.Arg)
	case OpFire:
		d.Ops.Fire(cmd.Arg)
	case OpFocus:
		d.Ops.FocusRotate(cmd.Arg)
	case OpZeroFocus:
		d.Ops.ZeroFocusPosition()
	case OpHelp:
		d.help()
	}
	return true
}

func (d *Dispatcher) supports(op byte) bool {
	if op == OpHelp {
		return true
	}
	for _, u := range Usages {
		if u.Op == op {
			return d.Ops.Supports(op)
		}
	}
	return false
}

func (d *Dispatcher) help() {
	for _, u := range Usages {
		if d.supports(u.Op) {
			d.Status.Emit(status.New(status.CodeHelp, u.String()))
		}
	}
	d.Status.Emit(status.New(status.CodeOK, "OK"))
}
