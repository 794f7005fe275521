package portaudio

import (
	"context"
	"strings"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/gordonklaus/portaudio"

	"github.com/dictate-go/audio/pkg/audio/types"
)

// maxCaptureChannels caps negotiation: anything beyond stereo is downmixed
// to mono later anyway, so there is no point capturing more.
const maxCaptureChannels = 2

type Backend struct{}

var _ types.CaptureBackend = (*Backend)(nil)

func NewBackend() (*Backend, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, err
	}
	return &Backend{}, nil
}

func (*Backend) Close() error {
	return portaudio.Terminate()
}

func (*Backend) Ping(
	ctx context.Context,
) error {
	info, err := portaudio.DefaultInputDevice()
	if err != nil {
		return err
	}
	logger.Debugf(ctx, "device info: %#+v", info)

	if devices, err := portaudio.Devices(); err == nil {
		for idx, device := range devices {
			logger.Tracef(ctx, "devices[%d]: %#+v", idx, device)
		}
	}
	return nil
}

func (*Backend) Devices(
	ctx context.Context,
) ([]types.Device, error) {
	infos, err := portaudio.Devices()
	if err != nil {
		return nil, err
	}
	defaultInput, _ := portaudio.DefaultInputDevice()

	var devices []types.Device
	for _, info := range infos {
		if info.MaxInputChannels <= 0 {
			continue
		}
		devices = append(devices, types.Device{
			ID:      types.DeviceID(info.Name),
			Name:    info.Name,
			Default: defaultInput != nil && info.Name == defaultInput.Name,
		})
	}
	return devices, nil
}

func (b *Backend) OpenInput(
	ctx context.Context,
	selector string,
) (types.CaptureStream, types.StreamConfig, error) {
	info, err := b.findInput(ctx, selector)
	if err != nil {
		return nil, types.StreamConfig{}, err
	}

	channels := info.MaxInputChannels
	if channels > maxCaptureChannels {
		channels = maxCaptureChannels
	}
	cfg := types.StreamConfig{
		SampleRate: types.SampleRate(info.DefaultSampleRate),
		Channels:   types.Channel(channels),
		Format:     types.PCMFormatFloat32LE,
	}
	logger.Debugf(ctx, "negotiated with %q: %d Hz, %d channel(s), %s", info.Name, cfg.SampleRate, cfg.Channels, cfg.Format)

	return newCaptureStream(ctx, info, cfg), cfg, nil
}

// findInput resolves a device selector the forgiving way: an empty
// selector means the default input, otherwise the opaque ID wins, then an
// exact name match, then a case-insensitive substring match.
func (b *Backend) findInput(
	ctx context.Context,
	selector string,
) (*portaudio.DeviceInfo, error) {
	if selector == "" {
		return portaudio.DefaultInputDevice()
	}

	infos, err := portaudio.Devices()
	if err != nil {
		return nil, err
	}

	var inputs []*portaudio.DeviceInfo
	for _, info := range infos {
		if info.MaxInputChannels > 0 {
			inputs = append(inputs, info)
		}
	}

	for _, info := range inputs {
		if types.DeviceID(info.Name) == selector || info.Name == selector {
			return info, nil
		}
	}
	for _, info := range inputs {
		if strings.Contains(strings.ToLower(info.Name), strings.ToLower(selector)) {
			logger.Debugf(ctx, "selector %q matched %q by substring", selector, info.Name)
			return info, nil
		}
	}

	return nil, types.ErrDeviceNotFound
}
