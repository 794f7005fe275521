// Package dummy is a capture backend that produces no audio on its own:
// it is the terminal fallback when no real backend answers, and a test
// harness that lets blocks be injected by hand via Feed.
package dummy

import (
	"context"
	"sync"

	"github.com/dictate-go/audio/pkg/audio/types"
)

// DefaultConfig is what the backend "negotiates" unless told otherwise.
var DefaultConfig = types.StreamConfig{
	SampleRate: 48000,
	Channels:   1,
	Format:     types.PCMFormatS16LE,
}

const deviceName = "dummy input"

type Backend struct {
	config types.StreamConfig

	locker  sync.Mutex
	onBlock types.BlockFunc
}

var _ types.CaptureBackend = (*Backend)(nil)

func NewBackend(config types.StreamConfig) *Backend {
	return &Backend{
		config: config,
	}
}

func (b *Backend) Ping(context.Context) error {
	return nil
}

func (b *Backend) Devices(context.Context) ([]types.Device, error) {
	return []types.Device{{
		ID:      types.DeviceID(deviceName),
		Name:    deviceName,
		Default: true,
	}}, nil
}

func (b *Backend) OpenInput(
	ctx context.Context,
	selector string,
) (types.CaptureStream, types.StreamConfig, error) {
	if selector != "" && selector != deviceName && selector != types.DeviceID(deviceName) {
		return nil, types.StreamConfig{}, types.ErrDeviceNotFound
	}
	return &Stream{backend: b}, b.config, nil
}

func (b *Backend) Close() error {
	return nil
}

// Feed synchronously delivers a block to the started stream, mimicking a
// hardware callback. It is a no-op while no stream is started; it never
// runs concurrently with Stream.Close returning (the same lock guards
// both), which is exactly the quiescence the session relies on.
func (b *Backend) Feed(block types.Block) {
	b.locker.Lock()
	defer b.locker.Unlock()
	if b.onBlock == nil {
		return
	}
	b.onBlock(block)
}

type Stream struct {
	backend *Backend
}

var _ types.CaptureStream = (*Stream)(nil)

func (s *Stream) Start(onBlock types.BlockFunc) error {
	s.backend.locker.Lock()
	defer s.backend.locker.Unlock()
	s.backend.onBlock = onBlock
	return nil
}

func (s *Stream) Close() error {
	s.backend.locker.Lock()
	defer s.backend.locker.Unlock()
	s.backend.onBlock = nil
	return nil
}
