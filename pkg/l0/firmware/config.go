package firmware

import (
	"flag"
	"fmt"
	"time"

	"github.com/Masterminds/semver"
	"github.com/caarlos0/env/v6"

	fx "github.com/robotalks/laserctl/pkg/framework"
	"github.com/robotalks/laserctl/pkg/l0/line"
	"github.com/robotalks/laserctl/pkg/l0/port"
)

// Version is the firmware version reported in the banner.
const Version = "1.2.0"

// DefaultContact is reported in the banner.
const DefaultContact = "https://github.com/robotalks/laserctl"

// Config defines the configuration of the firmware.
type Config struct {
	Version string `env:"LASER_VERSION"`
	Contact string `env:"LASER_CONTACT"`
	// Capacity is the line buffer capacity.
	Capacity int `env:"LASER_LINE_CAPACITY"`
	// Port is the serial device, "-" for stdio, empty for none.
	Port     string `env:"LASER_PORT"`
	Baud     int    `env:"LASER_BAUD"`
	RxBuffer int    `env:"LASER_RX_BUFFER"`
	// WebsocketAddr serves the link over websocket if not empty.
	WebsocketAddr string        `env:"LASER_WS_ADDR"`
	Interval      time.Duration `env:"LASER_LOOP_INTERVAL"`
	// Profile is the YAML device profile to load.
	Profile string `env:"LASER_PROFILE"`
}

var defaultConfig = Config{
	Version:  Version,
	Contact:  DefaultContact,
	Capacity: line.Capacity,
	Baud:     port.DefaultBaudRate,
	RxBuffer: port.DefaultRxBuffer,
	Interval: fx.DefaultInterval,
}

var envErr error

func init() {
	envErr = env.Parse(&defaultConfig)
}

// EnvError returns the error of parsing environment variables into defaults.
func EnvError() error {
	if envErr != nil {
		return fmt.Errorf("firmware config from env: %v", envErr)
	}
	return nil
}

// SetupFlags sets command line flags.
func SetupFlags() {
	flag.StringVar(&defaultConfig.Port, "port", defaultConfig.Port, "Serial device, - for stdio.")
	flag.IntVar(&defaultConfig.Baud, "baud", defaultConfig.Baud, "Serial baud rate.")
	flag.StringVar(&defaultConfig.WebsocketAddr, "ws-addr", defaultConfig.WebsocketAddr, "Serve the link over websocket on this address.")
	flag.IntVar(&defaultConfig.Capacity, "line-capacity", defaultConfig.Capacity, "Command line buffer capacity.")
	flag.DurationVar(&defaultConfig.Interval, "interval", defaultConfig.Interval, "Maximum idle time between loop iterations.")
	flag.StringVar(&defaultConfig.Contact, "contact", defaultConfig.Contact, "Contact reported in banner.")
	flag.StringVar(&defaultConfig.Profile, "profile", defaultConfig.Profile, "YAML device profile.")
}

// Default gets default config.
func Default() *Config {
	return &defaultConfig
}

// NewConfig creates a config with defaults.
func NewConfig() *Config {
	conf := defaultConfig
	return &conf
}

// Validate checks the config.
func (c *Config) Validate() error {
	if _, err := semver.NewVersion(c.Version); err != nil {
		return fmt.Errorf("invalid version %q: %v", c.Version, err)
	}
	if c.Capacity < 2 {
		return fmt.Errorf("line capacity too small: %d", c.Capacity)
	}
	return nil
}

// Transports creates the configured transports for p.
func (c *Config) Transports(p *port.Port) ([]fx.Runnable, error) {
	var runnables []fx.Runnable
	if c.Port != "" {
		s, err := port.NewStream(p, c.Port, c.Baud)
		if err != nil {
			return nil, err
		}
		runnables = append(runnables, s)
	}
	if c.WebsocketAddr != "" {
		runnables = append(runnables, port.NewWebsocketServer(p, c.WebsocketAddr))
	}
	if len(runnables) == 0 {
		return nil, fmt.Errorf("no transport configured")
	}
	return runnables, nil
}
