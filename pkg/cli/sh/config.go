package sh

import (
	"flag"
	"fmt"
	"time"

	"github.com/caarlos0/env/v6"

	"github.com/robotalks/laserctl/pkg/l0/port"
	l1env "github.com/robotalks/laserctl/pkg/l1/env"
)

// Config provides options of the shell.
type Config struct {
	// Target is a serial device or websocket URL to connect.
	Target string `env:"LASER_LINK"`
	Baud   int    `env:"LASER_BAUD"`
	// Timeout is the time to wait for a reply, excluding fire time.
	Timeout time.Duration `env:"LASER_TIMEOUT"`
	// Require is a version constraint checked against the banner.
	Require string `env:"LASER_REQUIRE"`
	// RegistryURL is the MQTT broker to discover controllers.
	RegistryURL string `env:"LASER_MQTT_URL"`
}

var defaultConfig = Config{
	Baud:        port.DefaultBaudRate,
	Timeout:     time.Second,
	RegistryURL: l1env.DefaultBrokerURL,
}

var envErr error

func init() {
	envErr = env.Parse(&defaultConfig)
}

// EnvError returns the error of parsing environment variables into defaults.
func EnvError() error {
	if envErr != nil {
		return fmt.Errorf("shell config from env: %v", envErr)
	}
	return nil
}

// SetupFlags sets up command line flags.
func SetupFlags() {
	flag.StringVar(&defaultConfig.Target, "link", defaultConfig.Target, "Serial device or websocket URL to connect.")
	flag.IntVar(&defaultConfig.Baud, "baud", defaultConfig.Baud, "Serial baud rate.")
	flag.DurationVar(&defaultConfig.Timeout, "timeout", defaultConfig.Timeout, "Time to wait for a reply.")
	flag.StringVar(&defaultConfig.Require, "require", defaultConfig.Require, "Controller version constraint, e.g. \">= 1.0, < 2\".")
	flag.StringVar(&defaultConfig.RegistryURL, "mqtt", defaultConfig.RegistryURL, "MQTT broker URL to discover controllers.")
}

// Default gets the default config.
func Default() *Config {
	return &defaultConfig
}

// NewConfig creates a Config with default configurations.
func NewConfig() *Config {
	conf := defaultConfig
	return &conf
}
