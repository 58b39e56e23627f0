package device

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadYAMLProfile(t *testing.T) {
	conf := NewConfig()
	require.NoError(t, conf.LoadYAML([]byte(`
variant: fixed
max_focus_rotation: 720
fire_abort_poll: 5ms
pins:
  beam: 6
`)))
	assert.Equal(t, "fixed", conf.Variant)
	assert.Equal(t, 720, conf.MaxFocusRotation)
	assert.Equal(t, 5*time.Millisecond, conf.FireAbortPoll)
	assert.Equal(t, 6, conf.Pins.Beam)
	assert.Equal(t, defaultConfig.Pins.Step, conf.Pins.Step)
	assert.Equal(t, defaultConfig.StepsPerRev, conf.StepsPerRev)

	v, err := conf.Validate()
	require.NoError(t, err)
	assert.Equal(t, VariantFixed, v)
}

func TestLoadYAMLRejectsUnknownFields(t *testing.T) {
	conf := NewConfig()
	assert.Error(t, conf.LoadYAML([]byte("varient: pwm\n")))
	assert.Error(t, conf.LoadYAML([]byte("max_focus_rotation: many\n")))
}

func TestValidate(t *testing.T) {
	conf := NewConfig()
	conf.Variant = "pwm"
	v, err := conf.Validate()
	require.NoError(t, err)
	assert.True(t, v.VariableDuty)

	conf.MaxFocusRotation = -1
	_, err = conf.Validate()
	assert.Error(t, err)

	conf = NewConfig()
	conf.Variant = "pwm"
	conf.StepsPerRev = 0
	_, err = conf.Validate()
	assert.Error(t, err)

	conf = NewConfig()
	conf.Variant = "turbo"
	_, err = conf.Validate()
	assert.IsType(t, &UnknownVariantError{}, err)
}

func TestNewConfigIsCopy(t *testing.T) {
	conf := NewConfig()
	conf.MaxFocusRotation = 1
	assert.NotEqual(t, 1, Default().MaxFocusRotation)
}

func TestVariants(t *testing.T) {
	for _, v := range Variants {
		found, err := VariantByName(v.Name)
		require.NoError(t, err)
		assert.Equal(t, v, found)
	}
	assert.NotEqual(t, VariantPWM.EmergencyStopCode, VariantFixed.EmergencyStopCode)
	assert.NotEqual(t, VariantPWM.FocusZeroedCode, VariantFixed.FocusZeroedCode)
}

func TestDirectionOf(t *testing.T) {
	assert.Equal(t, Clockwise, DirectionOf(0))
	assert.Equal(t, Clockwise, DirectionOf(5))
	assert.Equal(t, CounterClockwise, DirectionOf(-5))
	assert.Equal(t, "ccw", CounterClockwise.String())
	assert.Equal(t, "cw", Clockwise.String())
}
