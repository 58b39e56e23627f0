package laser

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/abiosoft/ishell"

	"github.com/robotalks/laserctl/pkg/cli/sh"
	"github.com/robotalks/laserctl/pkg/l0/command"
)

// Line formats a command line.
func Line(op byte, arg ...int) string {
	if len(arg) == 0 {
		return string(op)
	}
	return string(op) + strconv.Itoa(arg[0])
}

func intArg(c *ishell.Context, name string) (int, bool) {
	if len(c.Args) < 1 {
		c.Err(fmt.Errorf("%s required", name))
		return 0, false
	}
	val, err := strconv.Atoi(c.Args[0])
	if err != nil {
		c.Err(fmt.Errorf("Invalid %s: %v", name, err))
		return 0, false
	}
	return val, true
}

func simple(op byte) func(c *ishell.Context) {
	return sh.MustBeConnected(func(c *ishell.Context) {
		sh.DoCommand(c, Line(op), 0)
	})
}

var (
	// EmergencyStopCmd stops everything.
	EmergencyStopCmd = ishell.Cmd{
		Name:    "estop",
		Aliases: []string{"e", "stop"},
		Help:    "emergency stop",
		Func:    simple(command.OpEmergencyStop),
	}

	// ArmCmd arms the laser.
	ArmCmd = ishell.Cmd{
		Name:    "arm",
		Aliases: []string{"a"},
		Help:    "arm laser",
		Func:    simple(command.OpArm),
	}

	// UnarmCmd unarms the laser.
	UnarmCmd = ishell.Cmd{
		Name:    "unarm",
		Aliases: []string{"u"},
		Help:    "unarm laser",
		Func:    simple(command.OpUnarm),
	}

	// DutyCmd sets the duty cycle.
	DutyCmd = ishell.Cmd{
		Name:    "duty",
		Aliases: []string{"d"},
		Help:    "DUTY(0-254)",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			if val, ok := intArg(c, "DUTY"); ok {
				sh.DoCommand(c, Line(command.OpDutyCycle, val), 0)
			}
		}),
	}

	// FireCmd fires the laser.
	FireCmd = ishell.Cmd{
		Name:    "fire",
		Aliases: []string{"f"},
		Help:    "DURATION(ms)",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			if val, ok := intArg(c, "DURATION"); ok {
				var hold time.Duration
				if val > 0 {
					hold = time.Duration(val) * time.Millisecond
				}
				sh.DoCommand(c, Line(command.OpFire, val), hold)
			}
		}),
	}

	// FocusCmd rotates the focus.
	FocusCmd = ishell.Cmd{
		Name:    "focus",
		Aliases: []string{"p"},
		Help:    "+/-DEGREES",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			if val, ok := intArg(c, "DEGREES"); ok {
				sh.DoCommand(c, Line(command.OpFocus, val), 0)
			}
		}),
	}

	// ZeroCmd zeros the focus position.
	ZeroCmd = ishell.Cmd{
		Name:    "zero",
		Aliases: []string{"z"},
		Help:    "zero focus position",
		Func:    simple(command.OpZeroFocus),
	}

	// UsageCmd asks the controller for its commands.
	UsageCmd = ishell.Cmd{
		Name:    "usage",
		Aliases: []string{"h"},
		Help:    "list controller commands",
		Func:    simple(command.OpHelp),
	}

	// RawCmd sends a raw command line.
	RawCmd = ishell.Cmd{
		Name:    "raw",
		Aliases: []string{"r"},
		Help:    "LINE",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			sh.DoCommand(c, strings.Join(c.Args, " "), 0)
		}),
	}
)

func init() {
	sh.AddCmds(
		&EmergencyStopCmd,
		&ArmCmd,
		&UnarmCmd,
		&DutyCmd,
		&FireCmd,
		&FocusCmd,
		&ZeroCmd,
		&UsageCmd,
		&RawCmd,
	)
}
