// Package msgs defines telemetry messages. Messages are encoded as
// protobuf, see laser.proto for the schema.
package msgs
