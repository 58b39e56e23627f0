package msgs

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robotalks/laserctl/pkg/l0/device"
	"github.com/robotalks/laserctl/pkg/l0/status"
)

func TestStatusEventFromLine(t *testing.T) {
	ts := time.Unix(1500000000, 42)
	ev := NewStatusEvent(status.New(status.CodeFired, "FIRED %d ms @ %d/255", 50, 100), 7, ts)
	data, err := Encode(ev)
	require.NoError(t, err)
	decoded, err := DecodeStatusEvent(data)
	require.NoError(t, err)
	assert.Equal(t, ev, decoded)
	assert.Equal(t, "205 FIRED 50 ms @ 100/255", decoded.Line().String())
	assert.True(t, ts.Equal(decoded.Time()))
}

func TestDeviceStateKeepsNegativeValues(t *testing.T) {
	st := NewDeviceState(device.Snapshot{
		Variant: "pwm",
		Laser:   device.LaserState{Armed: true, DutyCycle: -3},
		Stepper: device.StepperState{Position: -720, Running: true},
	})
	data, err := Encode(st)
	require.NoError(t, err)
	decoded, err := DecodeDeviceState(data)
	require.NoError(t, err)
	assert.Equal(t, int32(-720), decoded.Position)
	assert.Equal(t, int32(-3), decoded.DutyCycle)
	assert.True(t, decoded.Armed)
	assert.True(t, decoded.Running)
	assert.Equal(t, "pwm", decoded.Variant)
}

func TestDecodeGarbage(t *testing.T) {
	_, err := DecodeDeviceState([]byte{0xff, 0xff, 0xff})
	assert.Error(t, err)
}
