// Package l1 defines how laser controllers are presented on the
// telemetry network.
package l1

// DefaultDeviceType is the device type of laser controllers.
const DefaultDeviceType = "laser"

// DeviceRef is a reference to a controller instance.
type DeviceRef struct {
	// Type is the device type.
	Type string `json:"type"`
	// ID is unique ID of the device.
	ID string `json:"id"`
}

// Name retrieves the name from ref.
func (r DeviceRef) Name() string {
	return r.Type + "/" + r.ID
}

// IsValid indicates DeviceRef is valid.
func (r DeviceRef) IsValid() bool {
	return r.Type != "" && r.ID != ""
}

// DeviceMeta provides metadata of a controller.
type DeviceMeta struct {
	Description string `json:"description,omitempty"`
	Variant     string `json:"variant,omitempty"`
	Version     string `json:"version,omitempty"`
	// Link is where the command link can be reached, e.g. a websocket URL.
	Link   string            `json:"link,omitempty"`
	Labels map[string]string `json:"labels,omitempty"`
}

// DeviceInfo provides information of a controller.
type DeviceInfo struct {
	Ref  DeviceRef  `json:"ref"`
	Meta DeviceMeta `json:"meta"`
}
