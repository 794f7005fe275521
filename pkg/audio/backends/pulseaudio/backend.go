package pulseaudio

import (
	"context"
	"fmt"

	"github.com/jfreymuth/pulse"

	"github.com/dictate-go/audio/pkg/audio/types"
)

type Backend struct {
	PulseClient *pulse.Client
}

var _ types.CaptureBackend = (*Backend)(nil)

func NewBackend() (*Backend, error) {
	c, err := pulse.NewClient()
	if err != nil {
		return nil, fmt.Errorf("unable to open a client to Pulse: %w", err)
	}
	return &Backend{
		PulseClient: c,
	}, nil
}

func (b *Backend) Close() error {
	b.PulseClient.Close()
	return nil
}

func (b *Backend) Ping(context.Context) error {
	_, err := b.PulseClient.DefaultSource()
	return err
}

// Devices reports the default source only: Pulse routing is expected to be
// managed with Pulse's own tooling, so one well-known entry is enough here.
func (b *Backend) Devices(context.Context) ([]types.Device, error) {
	src, err := b.PulseClient.DefaultSource()
	if err != nil {
		return nil, fmt.Errorf("unable to query the default source: %w", err)
	}
	return []types.Device{{
		ID:      types.DeviceID(src.Name()),
		Name:    src.Name(),
		Default: true,
	}}, nil
}

func (b *Backend) OpenInput(
	ctx context.Context,
	selector string,
) (types.CaptureStream, types.StreamConfig, error) {
	src, err := b.PulseClient.DefaultSource()
	if err != nil {
		return nil, types.StreamConfig{}, fmt.Errorf("unable to query the default source: %w", err)
	}
	if selector != "" && selector != src.Name() && selector != types.DeviceID(src.Name()) {
		return nil, types.StreamConfig{}, types.ErrDeviceNotFound
	}

	cfg := types.StreamConfig{
		SampleRate: types.SampleRate(src.SampleRate()),
		Channels:   1,
		Format:     types.PCMFormatFloat32LE,
	}
	return newCaptureStream(b.PulseClient, cfg), cfg, nil
}
