package msgs

import (
	"time"

	"github.com/golang/protobuf/proto"

	"github.com/robotalks/laserctl/pkg/l0/device"
	"github.com/robotalks/laserctl/pkg/l0/status"
)

// StatusEvent mirrors a status line.
type StatusEvent struct {
	Code      int32  `protobuf:"varint,1,opt,name=code,proto3" json:"code,omitempty"`
	Text      string `protobuf:"bytes,2,opt,name=text,proto3" json:"text,omitempty"`
	Seq       uint64 `protobuf:"varint,3,opt,name=seq,proto3" json:"seq,omitempty"`
	Timestamp int64  `protobuf:"varint,4,opt,name=timestamp,proto3" json:"timestamp,omitempty"`
}

// Reset implements proto.Message.
func (m *StatusEvent) Reset() { *m = StatusEvent{} }

// String implements proto.Message.
func (m *StatusEvent) String() string { return proto.CompactTextString(m) }

// ProtoMessage implements proto.Message.
func (*StatusEvent) ProtoMessage() {}

// NewStatusEvent creates a StatusEvent from a status line.
func NewStatusEvent(l status.Line, seq uint64, t time.Time) *StatusEvent {
	return &StatusEvent{
		Code:      int32(l.Code),
		Text:      l.Text,
		Seq:       seq,
		Timestamp: t.UnixNano(),
	}
}

// Line converts back to the status line.
func (m *StatusEvent) Line() status.Line {
	return status.Line{Code: status.Code(m.Code), Text: m.Text}
}

// Time returns the timestamp.
func (m *StatusEvent) Time() time.Time {
	return time.Unix(0, m.Timestamp)
}

// DeviceState is a snapshot of the controller.
type DeviceState struct {
	Variant   string `protobuf:"bytes,1,opt,name=variant,proto3" json:"variant,omitempty"`
	Armed     bool   `protobuf:"varint,2,opt,name=armed,proto3" json:"armed,omitempty"`
	DutyCycle int32  `protobuf:"zigzag32,3,opt,name=duty_cycle,json=dutyCycle,proto3" json:"duty_cycle,omitempty"`
	Position  int32  `protobuf:"zigzag32,4,opt,name=position,proto3" json:"position,omitempty"`
	Running   bool   `protobuf:"varint,5,opt,name=running,proto3" json:"running,omitempty"`
}

// Reset implements proto.Message.
func (m *DeviceState) Reset() { *m = DeviceState{} }

// String implements proto.Message.
func (m *DeviceState) String() string { return proto.CompactTextString(m) }

// ProtoMessage implements proto.Message.
func (*DeviceState) ProtoMessage() {}

// NewDeviceState creates a DeviceState from a snapshot.
func NewDeviceState(s device.Snapshot) *DeviceState {
	return &DeviceState{
		Variant:   s.Variant,
		Armed:     s.Laser.Armed,
		DutyCycle: int32(s.Laser.DutyCycle),
		Position:  int32(s.Stepper.Position),
		Running:   s.Stepper.Running,
	}
}

// Encode serializes a message.
func Encode(msg proto.Message) ([]byte, error) {
	return proto.Marshal(msg)
}

// DecodeStatusEvent deserializes a StatusEvent.
func DecodeStatusEvent(data []byte) (*StatusEvent, error) {
	var m StatusEvent
	if err := proto.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// DecodeDeviceState deserializes a DeviceState.
func DecodeDeviceState(data []byte) (*DeviceState, error) {
	var m DeviceState
	if err := proto.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return &m, nil
}
