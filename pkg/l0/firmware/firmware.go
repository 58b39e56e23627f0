// Package firmware assembles the controller: bytes from a source are
// framed into lines, dispatched as commands to the device, and status
// lines are reported back to the sinks.
package firmware

import (
	"io"

	"github.com/golang/glog"

	fx "github.com/robotalks/laserctl/pkg/framework"
	"github.com/robotalks/laserctl/pkg/l0/command"
	"github.com/robotalks/laserctl/pkg/l0/device"
	"github.com/robotalks/laserctl/pkg/l0/line"
	"github.com/robotalks/laserctl/pkg/l0/port"
	"github.com/robotalks/laserctl/pkg/l0/status"
)

// Firmware owns all controller state. It must only be used
// from the loop goroutine.
type Firmware struct {
	Config     Config
	Source     io.ByteReader
	Status     status.Sink
	Reader     *line.Reader
	Dispatcher *command.Dispatcher
	Controller *device.Controller

	transports []fx.Runnable
	readErr    error
}

// New creates a Firmware reading commands from src and reporting to sinks.
func New(conf *Config, devConf *device.Config, hw device.Hardware, src io.ByteReader, sinks ...status.Sink) (*Firmware, error) {
	if err := conf.Validate(); err != nil {
		return nil, err
	}
	fw := &Firmware{
		Config: *conf,
		Source: src,
		Status: status.Tee(sinks),
		Reader: line.NewReader(conf.Capacity),
	}
	ctl, err := device.NewController(devConf, hw, fw.Status)
	if err != nil {
		return nil, err
	}
	fw.Controller = ctl
	fw.Dispatcher = command.NewDispatcher(ctl, fw.Status)
	return fw, nil
}

// NewWithPort creates a Firmware linked with p, status lines are written
// back to p before other sinks.
func NewWithPort(conf *Config, devConf *device.Config, hw device.Hardware, p *port.Port, sinks ...status.Sink) (*Firmware, error) {
	return New(conf, devConf, hw, p, append([]status.Sink{status.NewWriter(p)}, sinks...)...)
}

// AddTransports adds Runnables feeding the source.
func (f *Firmware) AddTransports(runnables ...fx.Runnable) *Firmware {
	f.transports = append(f.transports, runnables...)
	return f
}

// Banner creates the startup banner.
func (f *Firmware) Banner() status.Line {
	return status.New(status.CodeBanner, "Laser Controller, v%s, %s", f.Config.Version, f.Config.Contact)
}

// AddToLoop implements LoopAdder.
func (f *Firmware) AddToLoop(l *fx.Loop) {
	l.PreRunAt(fx.PrLvTop, fx.ControlFunc(func(fx.ControlContext) error {
		f.Status.Emit(f.Banner())
		return nil
	}))
	l.AddController(fx.PrLvSense, fx.ControlFunc(f.ingest))
	l.Add(f.Controller)
	l.AddRunnable(f.transports...)
}

func (f *Firmware) ingest(fx.ControlContext) error {
	err := f.Reader.Feed(f.Source, f.Dispatcher)
	if err != nil && err != f.readErr {
		glog.Warningf("command source: %v", err)
	}
	f.readErr = err
	return nil
}
