package audio

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/hashicorp/go-multierror"
	"github.com/xaionaro-go/observability"

	"github.com/dictate-go/audio/pkg/audio/peakmeter"
	"github.com/dictate-go/audio/pkg/audio/types"
	"github.com/dictate-go/audio/pkg/audio/wavfile"
)

// PeakFunc receives throttled per-block peak amplitudes while recording.
type PeakFunc = peakmeter.Sink

// peakQueueDepth bounds the peak path; the capture callback drops peaks
// instead of blocking when the meter cannot keep up.
const peakQueueDepth = 64

// Session owns the lifecycle of capture-to-file operations. It runs many
// sequential recording cycles, but at most one at a time: Start negotiates
// a stream configuration with the capture backend, converts every delivered
// block to canonical mono 16-bit samples, appends them to a WAV file and
// feeds a throttled peak meter; Stop quiesces the stream and finalizes the
// file.
//
// Start, Stop, IsRecording and Close may be called from any goroutine. The
// block callback runs on a context owned by the backend (possibly a
// real-time thread) and never blocks on anything unbounded.
type Session struct {
	backend types.CaptureBackend

	// ctx is the context Start was called with; kept only so that the
	// capture callback and teardown have something to log against.
	ctx context.Context

	lifecycleLocker sync.Mutex
	recording       atomic.Bool
	capturing       atomic.Bool
	stream          types.CaptureStream
	outputPath      string
	channels        int
	peakChan        chan int16

	// sinkLocker serializes the capture callback against finalization. It
	// is held only for per-block critical sections, and there is a single
	// writer (the callback) versus a single finalizer (Stop), so it is
	// uncontended in practice.
	sinkLocker sync.Mutex
	sink       *wavfile.Writer
	writeErr   error
	scratch    []int16
}

func NewSession(backend types.CaptureBackend) *Session {
	return &Session{
		backend: backend,
	}
}

// Start begins a recording cycle on the device matching deviceSelector
// (empty selects the default input), writing canonical mono 16-bit audio
// at the negotiated sample rate to outputPath. onPeak (optional) is
// invoked asynchronously with throttled peak amplitudes, in capture order.
//
// Returns ErrAlreadyRecording when a cycle is in progress and an
// UnsupportedConfigurationError when the device negotiated a sample rate
// outside the supported range.
func (s *Session) Start(
	ctx context.Context,
	deviceSelector string,
	outputPath string,
	onPeak PeakFunc,
) (_err error) {
	logger.Debugf(ctx, "Start(%q, %q)", deviceSelector, outputPath)
	defer func() { logger.Debugf(ctx, "/Start: %v", _err) }()

	s.lifecycleLocker.Lock()
	defer s.lifecycleLocker.Unlock()

	if s.recording.Load() {
		return ErrAlreadyRecording
	}

	stream, cfg, err := s.backend.OpenInput(ctx, deviceSelector)
	if err != nil {
		return fmt.Errorf("unable to open an input stream: %w", err)
	}
	logger.Debugf(ctx, "granted config: %d Hz, %d channel(s), %s", cfg.SampleRate, cfg.Channels, cfg.Format)

	if !cfg.SampleRate.IsSupported() {
		if err := stream.Close(); err != nil {
			logger.Errorf(ctx, "unable to close the rejected stream: %v", err)
		}
		return UnsupportedConfigurationError{SampleRate: cfg.SampleRate}
	}

	sink, err := wavfile.Create(outputPath, cfg.SampleRate)
	if err != nil {
		if err := stream.Close(); err != nil {
			logger.Errorf(ctx, "unable to close the stream: %v", err)
		}
		return fmt.Errorf("unable to create the output file: %w", err)
	}

	sinkFn := onPeak
	if sinkFn == nil {
		sinkFn = func(int16) {}
	}
	meter := peakmeter.New(sinkFn)
	peakChan := make(chan int16, peakQueueDepth)
	observability.Go(ctx, func() {
		meter.Run(ctx, peakChan)
	})

	s.ctx = ctx
	s.stream = stream
	s.outputPath = outputPath
	s.channels = int(cfg.Channels)
	s.peakChan = peakChan
	s.sinkLocker.Lock()
	s.sink = sink
	s.writeErr = nil
	s.sinkLocker.Unlock()

	s.capturing.Store(true)
	if err := stream.Start(s.handleBlock); err != nil {
		s.capturing.Store(false)
		if closeErr := stream.Close(); closeErr != nil {
			logger.Errorf(ctx, "unable to close the stream: %v", closeErr)
		}
		s.stream = nil
		s.sinkLocker.Lock()
		close(s.peakChan)
		s.peakChan = nil
		if closeErr := s.sink.Close(); closeErr != nil {
			logger.Errorf(ctx, "unable to close the output file: %v", closeErr)
		}
		s.sink = nil
		s.sinkLocker.Unlock()
		s.outputPath = ""
		return fmt.Errorf("unable to start the capture stream: %w", err)
	}

	s.recording.Store(true)
	return nil
}

// Stop halts the capture, finalizes the output file and returns its path.
// The capture resource is fully released before finalization runs, so
// after Stop returns no further mutation of the file can occur.
//
// A write failure that silently halted the capture is surfaced here; in
// that case the (truncated, but finalized) file path is still returned
// alongside the error.
func (s *Session) Stop() (string, error) {
	s.lifecycleLocker.Lock()
	defer s.lifecycleLocker.Unlock()
	return s.stopLocked()
}

func (s *Session) stopLocked() (_ string, _err error) {
	ctx := s.ctx
	if ctx == nil {
		ctx = context.Background()
	}
	logger.Debugf(ctx, "Stop")
	defer func() { logger.Debugf(ctx, "/Stop: %v", _err) }()

	if !s.recording.Load() {
		return "", ErrNotRecording
	}

	s.capturing.Store(false)

	var mErr *multierror.Error

	// Releasing the stream first guarantees the callback can no longer
	// run, so finalization cannot race against a late write.
	if err := s.stream.Close(); err != nil {
		mErr = multierror.Append(mErr, fmt.Errorf("unable to close the capture stream: %w", err))
	}
	s.stream = nil

	s.sinkLocker.Lock()
	close(s.peakChan)
	s.peakChan = nil
	if s.writeErr != nil {
		mErr = multierror.Append(mErr, fmt.Errorf("the capture was halted early: %w", s.writeErr))
		s.writeErr = nil
	}
	if err := s.sink.Close(); err != nil {
		mErr = multierror.Append(mErr, fmt.Errorf("unable to finalize the output file: %w", err))
	}
	s.sink = nil
	s.sinkLocker.Unlock()

	outputPath := s.outputPath
	s.outputPath = ""
	s.recording.Store(false)

	return outputPath, mErr.ErrorOrNil()
}

// Devices lists the input-capable devices of the underlying backend.
func (s *Session) Devices(ctx context.Context) ([]types.Device, error) {
	return s.backend.Devices(ctx)
}

// IsRecording is a non-blocking snapshot of the lifecycle state.
func (s *Session) IsRecording() bool {
	return s.recording.Load()
}

// BytesWritten returns the amount of bytes written to the output file of
// the recording cycle in progress, or zero when idle.
func (s *Session) BytesWritten() uint64 {
	s.sinkLocker.Lock()
	defer s.sinkLocker.Unlock()
	if s.sink == nil {
		return 0
	}
	return s.sink.BytesWritten()
}

// Close tears the session down. If a recording cycle is in progress it is
// stopped best-effort (errors are logged, not propagated), then the
// backend is released.
func (s *Session) Close() error {
	s.lifecycleLocker.Lock()
	defer s.lifecycleLocker.Unlock()

	if s.recording.Load() {
		if _, err := s.stopLocked(); err != nil {
			ctx := s.ctx
			if ctx == nil {
				ctx = context.Background()
			}
			logger.Errorf(ctx, "unable to stop the recording during teardown: %v", err)
		}
	}
	return s.backend.Close()
}

// handleBlock is the capture callback. The capturing flag is the single
// source of truth for whether any work is allowed; it is checked before
// anything else on every invocation.
func (s *Session) handleBlock(block types.Block) {
	if !s.capturing.Load() {
		return
	}

	s.sinkLocker.Lock()
	defer s.sinkLocker.Unlock()
	if s.sink == nil || s.writeErr != nil {
		return
	}

	s.scratch = appendBlockAsI16(s.scratch[:0], block)
	mono := downmixToMono(s.scratch, s.channels)
	if len(mono) == 0 {
		return
	}

	select {
	case s.peakChan <- blockPeak(mono):
	default:
		// the meter is a lossy decimator anyway
	}

	if err := s.sink.WriteSamples(mono); err != nil {
		// There is no channel to report an error back from here; halt the
		// capture and surface the error on the next Stop.
		s.writeErr = err
		s.capturing.Store(false)
		logger.Errorf(s.ctx, "unable to write samples, halting the capture: %v", err)
	}
}
