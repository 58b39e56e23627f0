package main

//go-build: CGO_ENABLED=0

import (
	"flag"
	"log"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/golang/glog"

	fx "github.com/robotalks/laserctl/pkg/framework"
	"github.com/robotalks/laserctl/pkg/l0/device"
	"github.com/robotalks/laserctl/pkg/l0/firmware"
	"github.com/robotalks/laserctl/pkg/l0/port"
	"github.com/robotalks/laserctl/pkg/l1"
	env "github.com/robotalks/laserctl/pkg/l1/env"
	"github.com/robotalks/laserctl/pkg/sim"
)

func init() {
	firmware.SetupFlags()
	device.SetupFlags()
	env.SetupFlags()
}

func linkURL(addr string) string {
	if addr == "" {
		return ""
	}
	host, p, err := net.SplitHostPort(addr)
	if err != nil {
		return ""
	}
	if host == "" {
		if host, err = os.Hostname(); err != nil {
			return ""
		}
	}
	return "ws://" + net.JoinHostPort(host, p) + port.DefaultWebsocketPath
}

// pressAbortOn presses the abort switch on SIGUSR1 and releases it on SIGUSR2.
func pressAbortOn(sw *sim.Switch) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGUSR1, syscall.SIGUSR2)
	go func() {
		for sig := range sigCh {
			if sig == syscall.SIGUSR1 {
				glog.Warning("abort pressed")
				sw.Press()
			} else {
				glog.Info("abort released")
				sw.Release()
			}
		}
	}()
}

func main() {
	flag.Parse()
	var errs fx.AggregatedError
	errs.Add(firmware.EnvError())
	errs.Add(device.EnvError())
	errs.Add(env.EnvError())
	if err := errs.Aggregate(); err != nil {
		log.Fatalln(err)
	}

	fwConf := firmware.NewConfig()
	devConf := device.NewConfig()
	if fwConf.Profile != "" {
		if err := devConf.LoadFile(fwConf.Profile); err != nil {
			log.Fatalln(err)
		}
	}
	variant, err := devConf.Validate()
	if err != nil {
		log.Fatalln(err)
	}

	board := sim.NewBoard(devConf, nil)
	pressAbortOn(board.Abort)

	p := port.New(fwConf.RxBuffer)
	transports, err := fwConf.Transports(p)
	if err != nil {
		log.Fatalln(err)
	}

	tel, err := env.NewConfig().NewEnv(l1.DeviceMeta{
		Description: "Laser Controller",
		Variant:     variant.Name,
		Version:     fwConf.Version,
		Link:        linkURL(fwConf.WebsocketAddr),
	})
	if err != nil {
		log.Fatalln(err)
	}

	fw, err := firmware.NewWithPort(fwConf, devConf, board.Hardware(variant), p, tel.Sinks()...)
	if err != nil {
		log.Fatalln(err)
	}
	fw.AddTransports(transports...)

	loop := fx.NewLoop()
	loop.Interval = fwConf.Interval
	loop.Add(fw)
	tel.Attach(loop, fw.Controller)

	glog.Infof("laser controller %s (%s) v%s", tel.Info.Ref.Name(), variant.Name, fwConf.Version)
	runner := fx.NewRunner().HandleSignals()
	runner.Go(fx.NamedRun("loop", loop))
	if err := runner.Wait(); err != nil {
		log.Fatalln(err)
	}
}
