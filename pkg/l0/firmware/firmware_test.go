package firmware_test

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	fx "github.com/robotalks/laserctl/pkg/framework"
	"github.com/robotalks/laserctl/pkg/l0/device"
	"github.com/robotalks/laserctl/pkg/l0/firmware"
	"github.com/robotalks/laserctl/pkg/l0/port"
	"github.com/robotalks/laserctl/pkg/l0/status"
	"github.com/robotalks/laserctl/pkg/sim"
)

type source struct {
	bytes.Buffer
}

func (s *source) ReadByte() (byte, error) {
	if s.Len() == 0 {
		return 0, port.ErrNoData
	}
	return s.Buffer.ReadByte()
}

type testEnv struct {
	t     *testing.T
	src   source
	rec   status.Recorder
	out   bytes.Buffer
	beam  *sim.Pin
	clock *sim.ManualClock
	fw    *firmware.Firmware
	loop  *fx.Loop
}

func newTestEnv(t *testing.T, variant string) *testEnv {
	e := &testEnv{
		t:     t,
		beam:  sim.NewPin("beam", 9),
		clock: sim.NewManualClock(time.Unix(0, 0)),
	}
	conf := firmware.NewConfig()
	conf.Contact = "test"
	devConf := device.NewConfig()
	devConf.Variant = variant
	devConf.MaxFocusRotation = 1440
	devConf.FireAbortPoll = 0
	hw := device.Hardware{
		Motion: sim.NewStepper(360, 0, e.clock),
		Clock:  e.clock,
	}
	if variant == "fixed" {
		hw.Beam = e.beam
	} else {
		hw.BeamPWM = e.beam
	}
	fw, err := firmware.New(conf, devConf, hw, &e.src, &e.rec, status.NewWriter(&e.out))
	require.NoError(t, err)
	e.fw = fw
	e.loop = fx.NewLoop().Add(fw)
	return e
}

func (e *testEnv) send(s string) *testEnv {
	e.src.WriteString(s)
	return e
}

func (e *testEnv) iterate(n int) *testEnv {
	for i := 0; i < n; i++ {
		e.loop.Iterate(context.Background())
	}
	return e
}

func (e *testEnv) drain() *testEnv {
	for i := 0; e.src.Len() > 0 || e.fw.Controller.Snapshot().Stepper.Running; i++ {
		require.True(e.t, i < 100000, "never settles")
		e.loop.Iterate(context.Background())
	}
	return e
}

func (e *testEnv) expect(lines ...string) *testEnv {
	e.t.Helper()
	if len(lines) == 0 {
		assert.Empty(e.t, e.rec.Lines)
	} else {
		assert.Equal(e.t, lines, e.rec.Strings())
	}
	e.rec.Reset()
	return e
}

const banner = "100 Laser Controller, v" + firmware.Version + ", test"

func TestBannerOnce(t *testing.T) {
	e := newTestEnv(t, "pwm")
	e.iterate(1).expect(banner)
	e.iterate(5).expect()
}

func TestPartialLineNotDispatched(t *testing.T) {
	e := newTestEnv(t, "pwm")
	e.send("f100").iterate(10).expect(banner)
	e.send(strings.Repeat("a", 74)).iterate(10).expect()
	e.send("\n").iterate(1).expect("530 LASER NOT ARMED")
}

func TestArmDutyFire(t *testing.T) {
	e := newTestEnv(t, "pwm")
	e.send("a\nd100\nf50\n")
	e.iterate(1).expect(banner, "207 ARMED")
	e.iterate(1).expect("206 DUTY CYCLE 100")
	e.iterate(1).expect("205 FIRED 50 ms @ 100/255")
	assert.Equal(t, 50*time.Millisecond, e.clock.Slept())
	assert.False(t, e.beam.High())
}

func TestFireUnarmed(t *testing.T) {
	e := newTestEnv(t, "pwm")
	e.iterate(1).expect(banner)
	e.send("f50\n").drain().expect("530 LASER NOT ARMED")
	assert.Zero(t, e.beam.Changes())
}

func TestFocusBound(t *testing.T) {
	e := newTestEnv(t, "pwm")
	e.iterate(1).expect(banner)
	e.send("p2000\n").drain().expect("521 MAXIMUM FOCUS ROTATION IS 1440")
	assert.Zero(t, e.fw.Controller.Snapshot().Stepper.Position)
}

func TestFocusCompletesThroughLoop(t *testing.T) {
	e := newTestEnv(t, "pwm")
	e.iterate(1).expect(banner)
	e.send("p90\n").iterate(1).expect("204 FOCUS ROTATE 90")
	e.iterate(88).expect()
	e.iterate(1).expect("200 FOCUS POSITION 90")
}

func TestCommandsInterleaveWithMotion(t *testing.T) {
	e := newTestEnv(t, "pwm")
	e.iterate(1).expect(banner)
	e.send("p-45\nz\na\n").drain().expect(
		"204 FOCUS ROTATE -45",
		"209 FOCUS POSITION ZEROED, WAS -45",
		"207 ARMED",
		"200 FOCUS POSITION 0",
	)
}

func TestEmergencyStopWhileMoving(t *testing.T) {
	e := newTestEnv(t, "pwm")
	e.iterate(1).expect(banner)
	e.send("a\nd30\np720\n").iterate(3).expect("207 ARMED", "206 DUTY CYCLE 30", "204 FOCUS ROTATE 720")
	e.send("e\n").iterate(1).expect("520 EMERGENCY STOP", "522 FOCUS POSITION LOST")
	e.send("e\n").iterate(1).expect("520 EMERGENCY STOP")
	snap := e.fw.Controller.Snapshot()
	assert.Equal(t, device.LaserState{}, snap.Laser)
	assert.False(t, snap.Stepper.Running)
}

func TestOverflowRecovery(t *testing.T) {
	e := newTestEnv(t, "pwm")
	e.iterate(1).expect(banner)
	e.send(strings.Repeat("x", 100)+"\na\n").drain().expect("510 OVERFLOW", "207 ARMED")
	assert.True(t, e.fw.Controller.Snapshot().Laser.Armed)
}

func TestOverflowOncePerLine(t *testing.T) {
	e := newTestEnv(t, "pwm")
	e.iterate(1).expect(banner)
	e.send(strings.Repeat("y", 80)).drain().expect("510 OVERFLOW")
	e.send(strings.Repeat("y", 40)).drain().expect()
	e.send("\nh\n").iterate(1)
	require.Len(t, e.rec.Lines, 9)
	assert.Equal(t, "203 OK", e.rec.Lines[8].String())
}

func TestUnknownCommands(t *testing.T) {
	e := newTestEnv(t, "pwm")
	e.iterate(1).expect(banner)
	e.send("\nx\nA\n").drain().expect(
		"501 UNKNOWN COMMAND",
		"501 UNKNOWN COMMAND",
		"501 UNKNOWN COMMAND",
	)
}

func TestFixedVariantThroughLoop(t *testing.T) {
	e := newTestEnv(t, "fixed")
	e.iterate(1).expect(banner)
	e.send("d100\na\nf10\nz\ne\n").drain().expect(
		"501 UNKNOWN COMMAND",
		"207 ARMED",
		"205 FIRED 10 ms",
		"201 FOCUS POSITION ZEROED, WAS 0",
		"521 EMERGENCY STOP",
	)
}

func TestHelp(t *testing.T) {
	e := newTestEnv(t, "fixed")
	e.iterate(1).expect(banner)
	e.send("h\n").iterate(1)
	codes := e.rec.Codes()
	require.Len(t, codes, 8)
	for _, c := range codes[:7] {
		assert.Equal(t, status.CodeHelp, c)
	}
	assert.Equal(t, status.CodeOK, codes[7])
	for _, l := range e.rec.Lines {
		assert.False(t, strings.HasPrefix(l.Text, "d"))
	}
}

func TestStatusWriterOutput(t *testing.T) {
	e := newTestEnv(t, "pwm")
	e.send("a\n").iterate(1)
	assert.Equal(t, banner+"\n207 ARMED\n", e.out.String())
}

func TestConfigValidate(t *testing.T) {
	conf := firmware.NewConfig()
	require.NoError(t, conf.Validate())
	conf.Version = "one"
	assert.Error(t, conf.Validate())
	conf = firmware.NewConfig()
	conf.Capacity = 1
	assert.Error(t, conf.Validate())
}

func TestTransportsRequired(t *testing.T) {
	conf := firmware.NewConfig()
	conf.Port = ""
	conf.WebsocketAddr = ""
	_, err := conf.Transports(port.New(0))
	assert.Error(t, err)

	conf.WebsocketAddr = "localhost:0"
	runnables, err := conf.Transports(port.New(0))
	require.NoError(t, err)
	require.Len(t, runnables, 1)
	assert.IsType(t, &port.WebsocketServer{}, runnables[0])
}
