package device

import (
	"flag"
	"fmt"
	"io/ioutil"
	"time"

	"github.com/caarlos0/env/v6"
	"gopkg.in/yaml.v2"
)

// Pins are the pin assignments of a device build.
type Pins struct {
	Beam    int `yaml:"beam" env:"LASER_PIN_BEAM"`
	ArmLamp int `yaml:"arm_lamp" env:"LASER_PIN_ARM_LAMP"`
	Step    int `yaml:"step" env:"LASER_PIN_STEP"`
	Dir     int `yaml:"dir" env:"LASER_PIN_DIR"`
	Abort   int `yaml:"abort" env:"LASER_PIN_ABORT"`
}

// Config defines the configuration of the device.
type Config struct {
	Variant string `yaml:"variant" env:"LASER_VARIANT"`
	// MaxFocusRotation is the maximum degrees of a single focus request.
	MaxFocusRotation int `yaml:"max_focus_rotation" env:"LASER_MAX_FOCUS_ROTATION"`
	// FireAbortPoll enables polling the abort input during fire hold.
	// Zero keeps the hold uninterruptible.
	FireAbortPoll time.Duration `yaml:"fire_abort_poll" env:"LASER_FIRE_ABORT_POLL"`
	// StepsPerRev is the number of (micro)steps per focus revolution.
	StepsPerRev int `yaml:"steps_per_rev" env:"LASER_STEPS_PER_REV"`
	// StepInterval is the minimum time between two steps.
	StepInterval time.Duration `yaml:"step_interval" env:"LASER_STEP_INTERVAL"`
	Pins         Pins          `yaml:"pins"`
}

// Defaults
const (
	DefaultMaxFocusRotation = 1440
	DefaultStepsPerRev      = 200
)

var defaultConfig = Config{
	Variant:          VariantPWM.Name,
	MaxFocusRotation: DefaultMaxFocusRotation,
	StepsPerRev:      DefaultStepsPerRev,
	StepInterval:     2 * time.Millisecond,
	Pins: Pins{
		Beam:    9,
		ArmLamp: 13,
		Step:    2,
		Dir:     3,
		Abort:   7,
	},
}

var envErr error

func init() {
	envErr = env.Parse(&defaultConfig)
}

// EnvError returns the error of parsing environment variables into defaults.
func EnvError() error {
	if envErr != nil {
		return fmt.Errorf("device config from env: %v", envErr)
	}
	return nil
}

// SetupFlags sets command line flags.
func SetupFlags() {
	flag.StringVar(&defaultConfig.Variant, "variant", defaultConfig.Variant, "Device variant: pwm or fixed.")
	flag.IntVar(&defaultConfig.MaxFocusRotation, "max-focus", defaultConfig.MaxFocusRotation, "Maximum degrees of a single focus rotation.")
	flag.DurationVar(&defaultConfig.FireAbortPoll, "fire-abort-poll", defaultConfig.FireAbortPoll, "Poll abort input during fire hold, 0 disables.")
	flag.IntVar(&defaultConfig.StepsPerRev, "steps-per-rev", defaultConfig.StepsPerRev, "Focus stepper steps per revolution.")
	flag.DurationVar(&defaultConfig.StepInterval, "step-interval", defaultConfig.StepInterval, "Minimum interval between focus steps.")
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

// LoadFile overrides the config with a YAML profile.
func (c *Config) LoadFile(fn string) error {
	data, err := ioutil.ReadFile(fn)
	if err != nil {
		return err
	}
	return c.LoadYAML(data)
}

// LoadYAML overrides the config with YAML content.
func (c *Config) LoadYAML(data []byte) error {
	if err := yaml.UnmarshalStrict(data, c); err != nil {
		return fmt.Errorf("invalid device profile: %v", err)
	}
	return nil
}

// Validate checks the config and resolves the variant.
func (c *Config) Validate() (Variant, error) {
	v, err := VariantByName(c.Variant)
	if err != nil {
		return v, err
	}
	if c.MaxFocusRotation < 0 {
		return v, fmt.Errorf("max focus rotation must not be negative: %d", c.MaxFocusRotation)
	}
	if c.StepsPerRev <= 0 {
		return v, fmt.Errorf("steps per revolution must be positive: %d", c.StepsPerRev)
	}
	return v, nil
}
