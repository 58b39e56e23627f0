package mqtt

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/golang/glog"
	"github.com/golang/protobuf/proto"

	fx "github.com/robotalks/laserctl/pkg/framework"
	"github.com/robotalks/laserctl/pkg/l0/device"
	"github.com/robotalks/laserctl/pkg/l0/status"
	"github.com/robotalks/laserctl/pkg/l1"
	"github.com/robotalks/laserctl/pkg/l1/msgs"
)

// Topic suffixes under <prefix><type>/<id>/.
const (
	TopicMeta   = "meta"
	TopicStatus = "status"
	TopicState  = "state"
)

// DefaultEventBuffer is the default number of status events buffered
// while publishing.
const DefaultEventBuffer = 64

// PublishTimeout bounds the wait for a publish to complete.
var PublishTimeout = 2 * time.Second

// StateSource provides device state snapshots.
type StateSource interface {
	TakeChanged() bool
	Snapshot() device.Snapshot
}

// Publisher mirrors status lines and device state to MQTT. Emit and the
// loop controller never block, publishing happens in Run.
type Publisher struct {
	Queue  *Queue
	Info   l1.DeviceInfo
	Source StateSource

	metaJSON []byte
	seq      uint64
	events   chan *msgs.StatusEvent
	states   chan *msgs.DeviceState
	dropped  uint64
}

// TopicOf returns the topic relative to the queue prefix.
func TopicOf(ref l1.DeviceRef, suffix string) string {
	return ref.Name() + "/" + suffix
}

// NewPublisher creates a Publisher.
func NewPublisher(brokerURL string, info l1.DeviceInfo) (*Publisher, error) {
	meta, err := json.Marshal(&info.Meta)
	if err != nil {
		return nil, err
	}
	opts, topicPrefix, err := ClientOptionsFromURL(brokerURL)
	if err != nil {
		return nil, err
	}
	opts.SetBinaryWill(topicPrefix+TopicOf(info.Ref, TopicMeta), nil, 1, true)
	if opts.ClientID == "" {
		opts.SetClientID("laserctl:" + info.Ref.Name())
	}
	p := &Publisher{
		Queue:    NewQueue(opts, topicPrefix),
		Info:     info,
		metaJSON: meta,
		events:   make(chan *msgs.StatusEvent, DefaultEventBuffer),
		states:   make(chan *msgs.DeviceState, 1),
	}
	p.Queue.OnConnect = func(*Queue) { p.publishMeta() }
	return p, nil
}

// Emit implements status.Sink.
func (p *Publisher) Emit(l status.Line) {
	ev := msgs.NewStatusEvent(l, atomic.AddUint64(&p.seq, 1), time.Now())
	select {
	case p.events <- ev:
	default:
		if atomic.AddUint64(&p.dropped, 1) == 1 {
			glog.Warning("telemetry: status events dropped")
		}
	}
}

// Dropped returns the number of dropped status events.
func (p *Publisher) Dropped() uint64 {
	return atomic.LoadUint64(&p.dropped)
}

// AddToLoop implements LoopAdder.
func (p *Publisher) AddToLoop(l *fx.Loop) {
	l.AddController(fx.PrLvPostProc, fx.ControlFunc(p.syncState))
	l.AddRunnable(p)
}

// Name implements Named.
func (p *Publisher) Name() string {
	return "mqtt:" + p.Info.Ref.Name()
}

// Run implements Runnable.
func (p *Publisher) Run(ctx context.Context) error {
	p.Queue.Connect()
	for {
		select {
		case <-ctx.Done():
			p.wait(p.Queue.PubWith(TopicOf(p.Info.Ref, TopicMeta), nil, 1, true), TopicMeta)
			p.Queue.Close()
			return nil
		case ev := <-p.events:
			p.publish(TopicStatus, ev, false)
		case st := <-p.states:
			p.publish(TopicState, st, true)
		}
	}
}

func (p *Publisher) syncState(fx.ControlContext) error {
	if p.Source == nil || !p.Source.TakeChanged() {
		return nil
	}
	st := msgs.NewDeviceState(p.Source.Snapshot())
	// keep only the latest state
	for {
		select {
		case p.states <- st:
			return nil
		default:
		}
		select {
		case <-p.states:
		default:
		}
	}
}

func (p *Publisher) publish(suffix string, msg proto.Message, retain bool) {
	data, err := msgs.Encode(msg)
	if err != nil {
		glog.Errorf("telemetry: encode %s: %v", suffix, err)
		return
	}
	if !p.Queue.Client.IsConnected() {
		glog.V(2).Infof("telemetry: not connected, %s dropped", suffix)
		return
	}
	qos := byte(0)
	if retain {
		qos = 1
	}
	p.wait(p.Queue.PubWith(TopicOf(p.Info.Ref, suffix), data, qos, retain), suffix)
}

func (p *Publisher) publishMeta() {
	p.Queue.PubWith(TopicOf(p.Info.Ref, TopicMeta), p.metaJSON, 1, true)
}

func (p *Publisher) wait(token paho.Token, what string) {
	if !token.WaitTimeout(PublishTimeout) {
		glog.Warningf("telemetry: publish %s timeout", what)
	} else if err := token.Error(); err != nil {
		glog.Warningf("telemetry: publish %s: %v", what, err)
	}
}
