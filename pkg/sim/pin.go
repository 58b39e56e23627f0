package sim

import (
	"sync"

	"github.com/golang/glog"
)

// MaxDuty is the largest effective PWM duty.
const MaxDuty = 255

// Pin simulates an output pin which can be driven digitally or by PWM.
// Reads are safe from other goroutines (e.g. telemetry), writes come from
// the loop goroutine.
type Pin struct {
	Name   string
	Number int

	lock    sync.RWMutex
	duty    int
	changes int
}

// NewPin creates a Pin.
func NewPin(name string, number int) *Pin {
	return &Pin{Name: name, Number: number}
}

// Set implements device.Output.
func (p *Pin) Set(high bool) {
	if high {
		p.SetDuty(MaxDuty)
	} else {
		p.SetDuty(0)
	}
}

// SetDuty implements device.PWM. Values out of range are clamped
// the way an 8-bit PWM register would saturate.
func (p *Pin) SetDuty(duty int) {
	if duty < 0 {
		glog.Warningf("pin %s(%d): negative duty %d clamped", p.Name, p.Number, duty)
		duty = 0
	} else if duty > MaxDuty {
		glog.Warningf("pin %s(%d): duty %d clamped", p.Name, p.Number, duty)
		duty = MaxDuty
	}
	p.lock.Lock()
	if p.duty != duty {
		p.duty = duty
		p.changes++
	}
	p.lock.Unlock()
	glog.V(3).Infof("pin %s(%d) = %d", p.Name, p.Number, duty)
}

// High indicates the output is energized.
func (p *Pin) High() bool {
	return p.Duty() > 0
}

// Duty returns current duty.
func (p *Pin) Duty() int {
	p.lock.RLock()
	defer p.lock.RUnlock()
	return p.duty
}

// Changes returns the number of level changes.
func (p *Pin) Changes() int {
	p.lock.RLock()
	defer p.lock.RUnlock()
	return p.changes
}
