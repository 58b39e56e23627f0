package env

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robotalks/laserctl/pkg/l1"
)

func TestRefDefaultsToMachineID(t *testing.T) {
	conf := NewConfig()
	conf.ID = ""
	ref := conf.Ref()
	assert.Equal(t, l1.DefaultDeviceType, ref.Type)
	assert.NotEmpty(t, ref.ID)
	assert.True(t, ref.IsValid())

	conf.ID = "bench-1"
	assert.Equal(t, "laser/bench-1", conf.Ref().Name())
}

func TestNewEnvWithoutBroker(t *testing.T) {
	conf := NewConfig()
	conf.ID = "x"
	conf.MQTTBrokerURL = ""
	conf.Description = "bench"
	e, err := conf.NewEnv(l1.DeviceMeta{Variant: "pwm"})
	require.NoError(t, err)
	assert.Nil(t, e.Publisher)
	assert.Empty(t, e.Sinks())
	assert.Equal(t, "bench", e.Info.Meta.Description)
	e.Attach(nil, nil)
}

func TestNewEnvWithBroker(t *testing.T) {
	conf := NewConfig()
	conf.ID = "x"
	conf.MQTTBrokerURL = "mqtt://localhost:1883/robo/"
	e, err := conf.NewEnv(l1.DeviceMeta{})
	require.NoError(t, err)
	require.NotNil(t, e.Publisher)
	assert.Len(t, e.Sinks(), 1)
	assert.Equal(t, "robo/", e.Publisher.Queue.TopicPrefix)
}

func TestNewEnvInvalidRef(t *testing.T) {
	conf := NewConfig()
	conf.Type = ""
	conf.ID = "x"
	_, err := conf.NewEnv(l1.DeviceMeta{})
	assert.Error(t, err)
}
