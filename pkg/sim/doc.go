// Package sim provides simulated hardware for the device controller:
// digital/PWM output pins, a focus stepper driven one step per loop
// iteration, an abort switch and clocks.
package sim
