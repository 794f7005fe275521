package types

import (
	"errors"
	"fmt"
	"hash/fnv"
)

// ErrDeviceNotFound is returned when a device selector matches no
// input-capable device.
var ErrDeviceNotFound = errors.New("input device not found")

// Device describes an input-capable audio device as reported by a backend.
type Device struct {
	ID      string
	Name    string
	Default bool
}

// DeviceID derives a stable opaque identifier from a device name. Backends
// use it so that callers can reference devices without depending on the
// backend's own (often unstable) indexing.
func DeviceID(name string) string {
	h := fnv.New64a()
	h.Write([]byte(name))
	return fmt.Sprintf("%x", h.Sum64())
}
