package types

// SampleRate is a sampling frequency in Hz.
type SampleRate uint32

// Channel is an amount of audio channels.
type Channel uint16

const (
	// MinSupportedSampleRate and MaxSupportedSampleRate bound the sample
	// rates a capture device is allowed to negotiate.
	MinSupportedSampleRate = SampleRate(8000)
	MaxSupportedSampleRate = SampleRate(192000)
)

// IsSupported reports whether the sample rate is within the range the
// recording pipeline accepts from a capture device.
func (r SampleRate) IsSupported() bool {
	return r >= MinSupportedSampleRate && r <= MaxSupportedSampleRate
}
