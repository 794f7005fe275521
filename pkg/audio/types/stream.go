package types

import (
	"context"
	"io"
)

// StreamConfig is the effective configuration a capture backend granted:
// the sample rate, channel count and native sample format the hardware
// will actually deliver. The consumer adapts to whatever was granted.
type StreamConfig struct {
	SampleRate SampleRate
	Channels   Channel
	Format     PCMFormat
}

// BlockFunc is invoked by a capture backend for every delivered block of
// native-format samples. It runs on a context outside of the consumer's
// control (possibly a real-time thread) and therefore must not block
// indefinitely, and must not retain the block past its return.
type BlockFunc func(block Block)

// CaptureStream is a live capture resource. It is created quiescent;
// blocks start flowing after Start and are guaranteed to have stopped
// flowing by the time Close returns.
type CaptureStream interface {
	io.Closer
	Start(onBlock BlockFunc) error
}

// CaptureBackend abstracts an audio input API (PortAudio, PulseAudio, ...).
type CaptureBackend interface {
	io.Closer

	Ping(ctx context.Context) error
	Devices(ctx context.Context) ([]Device, error)

	// OpenInput negotiates a stream configuration for the device matching
	// selector (empty selects the default input) and returns the stream
	// not yet started, together with the granted configuration.
	OpenInput(ctx context.Context, selector string) (CaptureStream, StreamConfig, error)
}
