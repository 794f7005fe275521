package audio

import (
	"errors"
	"fmt"

	"github.com/dictate-go/audio/pkg/audio/types"
)

var (
	// ErrAlreadyRecording is returned by Session.Start while a recording
	// cycle is in progress.
	ErrAlreadyRecording = errors.New("already recording")

	// ErrNotRecording is returned by Session.Stop when no recording cycle
	// is in progress.
	ErrNotRecording = errors.New("not currently recording")

	// ErrDeviceNotFound is returned when the device selector matches no
	// input-capable device.
	ErrDeviceNotFound = types.ErrDeviceNotFound
)

// UnsupportedConfigurationError is returned by Session.Start when the
// configuration granted by the capture device cannot be recorded.
type UnsupportedConfigurationError struct {
	SampleRate types.SampleRate
}

func (e UnsupportedConfigurationError) Error() string {
	return fmt.Sprintf(
		"unusual sample rate: %d Hz, expected range: %d-%d Hz",
		e.SampleRate, types.MinSupportedSampleRate, types.MaxSupportedSampleRate,
	)
}
