package portaudio

import (
	"context"
	"fmt"
	"time"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/gordonklaus/portaudio"
	"github.com/hashicorp/go-multierror"

	"github.com/dictate-go/audio/pkg/audio/types"
)

const (
	CaptureBufferSize = time.Millisecond * 100
)

// CaptureStream delivers blocks straight from the PortAudio callback
// thread. The slice handed to the callback is owned by PortAudio, which is
// fine: a BlockFunc must not retain the block anyway.
type CaptureStream struct {
	ctx             context.Context
	device          *portaudio.DeviceInfo
	config          types.StreamConfig
	framesPerBuffer int
	stream          *portaudio.Stream
}

var _ types.CaptureStream = (*CaptureStream)(nil)

func newCaptureStream(
	ctx context.Context,
	device *portaudio.DeviceInfo,
	config types.StreamConfig,
) *CaptureStream {
	framesPerBuffer := int(CaptureBufferSize.Seconds() * float64(config.SampleRate))
	logger.Debugf(ctx, "newCaptureStream: %q, %d, %d, %s(%d)", device.Name, config.SampleRate, config.Channels, CaptureBufferSize, framesPerBuffer)
	return &CaptureStream{
		ctx:             ctx,
		device:          device,
		config:          config,
		framesPerBuffer: framesPerBuffer,
	}
}

func (s *CaptureStream) Start(onBlock types.BlockFunc) error {
	params := portaudio.HighLatencyParameters(s.device, nil)
	params.Input.Channels = int(s.config.Channels)
	params.SampleRate = float64(s.config.SampleRate)
	params.FramesPerBuffer = s.framesPerBuffer

	stream, err := portaudio.OpenStream(params, func(in []float32) {
		onBlock(types.Block{
			Format: types.PCMFormatFloat32LE,
			F32:    in,
		})
	})
	if err != nil {
		return fmt.Errorf("unable to open the stream: %w", err)
	}

	if err := stream.Start(); err != nil {
		if closeErr := stream.Close(); closeErr != nil {
			logger.Errorf(s.ctx, "unable to close the unstarted stream: %v", closeErr)
		}
		return fmt.Errorf("unable to start the stream: %w", err)
	}

	s.stream = stream
	return nil
}

// Close aborts the stream; when it returns the callback is no longer
// being invoked.
func (s *CaptureStream) Close() error {
	if s.stream == nil {
		return nil
	}

	var mErr *multierror.Error
	if err := s.stream.Abort(); err != nil {
		mErr = multierror.Append(mErr, fmt.Errorf("unable to abort the stream: %w", err))
	}
	if err := s.stream.Close(); err != nil {
		mErr = multierror.Append(mErr, fmt.Errorf("unable to close the stream: %w", err))
	}
	s.stream = nil
	return mErr.ErrorOrNil()
}
