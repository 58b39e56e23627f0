// Package env sets up the telemetry environment of a controller from
// flags and environment variables.
package env

import (
	"flag"
	"fmt"

	envtags "github.com/caarlos0/env/v6"

	fx "github.com/robotalks/laserctl/pkg/framework"
	"github.com/robotalks/laserctl/pkg/l0/status"
	"github.com/robotalks/laserctl/pkg/l1"
	"github.com/robotalks/laserctl/pkg/l1/mqtt"
)

// Config provides options to publish controller telemetry.
type Config struct {
	Type        string `env:"LASER_DEVICE_TYPE"`
	ID          string `env:"LASER_DEVICE_ID"`
	Description string `env:"LASER_DESCRIPTION"`
	// MQTTBrokerURL specifies the MQTT broker to use, empty disables
	// telemetry. e.g. mqtt://host:port/topic-prefix
	MQTTBrokerURL string `env:"LASER_MQTT_URL"`
}

// DefaultBrokerURL is the broker used by monitoring tools.
const DefaultBrokerURL = "mqtt://localhost:1883/robo/"

var defaultConfig = Config{
	Type: l1.DefaultDeviceType,
}

var envErr error

func init() {
	envErr = envtags.Parse(&defaultConfig)
}

// EnvError returns the error of parsing environment variables into defaults.
func EnvError() error {
	if envErr != nil {
		return fmt.Errorf("telemetry config from env: %v", envErr)
	}
	return nil
}

// SetupFlags sets command line flags.
func SetupFlags() {
	flag.StringVar(&defaultConfig.Type, "type", defaultConfig.Type, "Device type.")
	flag.StringVar(&defaultConfig.ID, "id", defaultConfig.ID, "Device ID, default is derived from machine ID.")
	flag.StringVar(&defaultConfig.Description, "desc", defaultConfig.Description, "Device description.")
	flag.StringVar(&defaultConfig.MQTTBrokerURL, "mqtt", defaultConfig.MQTTBrokerURL, "MQTT broker URL for telemetry, empty disables.")
}

// Default gets default config.
func Default() *Config {
	return &defaultConfig
}

// NewConfig creates a Config with default configurations.
func NewConfig() *Config {
	conf := defaultConfig
	return &conf
}

// Ref returns the device reference. The ID defaults to the machine ID.
func (c *Config) Ref() l1.DeviceRef {
	ref := l1.DeviceRef{Type: c.Type, ID: c.ID}
	if ref.ID == "" {
		ref.ID = MachineID()
	}
	return ref
}

// Env is the telemetry env of a controller.
type Env struct {
	Info      l1.DeviceInfo
	Publisher *mqtt.Publisher
}

// NewEnv creates Env from config. Without a broker URL, Publisher is nil.
func (c *Config) NewEnv(meta l1.DeviceMeta) (*Env, error) {
	if meta.Description == "" {
		meta.Description = c.Description
	}
	e := &Env{Info: l1.DeviceInfo{Ref: c.Ref(), Meta: meta}}
	if !e.Info.Ref.IsValid() {
		return nil, fmt.Errorf("device type and id must be specified")
	}
	if c.MQTTBrokerURL == "" {
		return e, nil
	}
	pub, err := mqtt.NewPublisher(c.MQTTBrokerURL, e.Info)
	if err != nil {
		return nil, fmt.Errorf("create MQTT publisher error: %v", err)
	}
	e.Publisher = pub
	return e, nil
}

// Sinks returns the status sinks of the env.
func (e *Env) Sinks() []status.Sink {
	if e.Publisher == nil {
		return nil
	}
	return []status.Sink{e.Publisher}
}

// Attach sets the state source and adds the publisher to the loop.
func (e *Env) Attach(l *fx.Loop, src mqtt.StateSource) {
	if e.Publisher == nil {
		return
	}
	e.Publisher.Source = src
	l.Add(e.Publisher)
}
