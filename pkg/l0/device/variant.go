package device

import (
	"fmt"

	"github.com/robotalks/laserctl/pkg/l0/status"
)

// Variant is the capability set of a device build.
type Variant struct {
	Name string
	// VariableDuty indicates the laser is PWM driven with a duty cycle.
	VariableDuty bool
	// EmergencyStopCode acknowledges an emergency stop.
	EmergencyStopCode status.Code
	// FocusZeroedCode acknowledges zeroing focus position.
	FocusZeroedCode status.Code
}

// Known variants.
var (
	VariantPWM = Variant{
		Name:              "pwm",
		VariableDuty:      true,
		EmergencyStopCode: status.CodeEmergencyStop,
		FocusZeroedCode:   status.CodeFocusZeroedPWM,
	}
	VariantFixed = Variant{
		Name:              "fixed",
		EmergencyStopCode: status.CodeEmergencyStopFO,
		FocusZeroedCode:   status.CodeFocusZeroed,
	}
)

// Variants lists known variants.
var Variants = []Variant{VariantPWM, VariantFixed}

// UnknownVariantError indicates the variant name is not known.
type UnknownVariantError struct {
	Name string
}

// Error implements error.
func (e *UnknownVariantError) Error() string {
	return fmt.Sprintf("unknown device variant %q", e.Name)
}

// VariantByName finds a variant.
func VariantByName(name string) (Variant, error) {
	for _, v := range Variants {
		if v.Name == name {
			return v, nil
		}
	}
	return Variant{}, &UnknownVariantError{Name: name}
}
