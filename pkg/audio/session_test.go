package audio

import (
	"context"
	"math"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dictate-go/audio/pkg/audio/backends/dummy"
	"github.com/dictate-go/audio/pkg/audio/resample"
	"github.com/dictate-go/audio/pkg/audio/types"
	"github.com/dictate-go/audio/pkg/audio/wavfile"
)

func TestSessionLifecycle(t *testing.T) {
	ctx := context.Background()

	t.Run("StopBeforeStart", func(t *testing.T) {
		s := NewSession(dummy.NewBackend(dummy.DefaultConfig))
		defer s.Close()
		_, err := s.Stop()
		require.ErrorIs(t, err, ErrNotRecording)
		assert.False(t, s.IsRecording())
	})

	t.Run("StartWhileRecording", func(t *testing.T) {
		s := NewSession(dummy.NewBackend(dummy.DefaultConfig))
		defer s.Close()
		path := filepath.Join(t.TempDir(), "a.wav")

		require.NoError(t, s.Start(ctx, "", path, nil))
		assert.True(t, s.IsRecording())

		err := s.Start(ctx, "", filepath.Join(t.TempDir(), "b.wav"), nil)
		require.ErrorIs(t, err, ErrAlreadyRecording)

		got, err := s.Stop()
		require.NoError(t, err)
		assert.Equal(t, path, got)
		assert.False(t, s.IsRecording())
	})

	t.Run("UnsupportedSampleRate", func(t *testing.T) {
		s := NewSession(dummy.NewBackend(types.StreamConfig{
			SampleRate: 4000,
			Channels:   1,
			Format:     types.PCMFormatS16LE,
		}))
		defer s.Close()

		err := s.Start(ctx, "", filepath.Join(t.TempDir(), "a.wav"), nil)
		var cfgErr UnsupportedConfigurationError
		require.ErrorAs(t, err, &cfgErr)
		assert.EqualValues(t, 4000, cfgErr.SampleRate)
		assert.False(t, s.IsRecording())
	})

	t.Run("UnknownDevice", func(t *testing.T) {
		s := NewSession(dummy.NewBackend(dummy.DefaultConfig))
		defer s.Close()
		err := s.Start(ctx, "no such device", filepath.Join(t.TempDir(), "a.wav"), nil)
		require.ErrorIs(t, err, ErrDeviceNotFound)
	})

	t.Run("SequentialCycles", func(t *testing.T) {
		s := NewSession(dummy.NewBackend(dummy.DefaultConfig))
		defer s.Close()
		dir := t.TempDir()
		for _, name := range []string{"first.wav", "second.wav"} {
			path := filepath.Join(dir, name)
			require.NoError(t, s.Start(ctx, "", path, nil))
			got, err := s.Stop()
			require.NoError(t, err)
			assert.Equal(t, path, got)
		}
	})
}

func TestNewSessionAutoFallsBackToDummy(t *testing.T) {
	ctx := context.Background()

	// no backend registers itself in this test binary, so the walk comes
	// up empty and the silent dummy takes over
	s := NewSessionAuto(ctx)
	defer s.Close()

	path := filepath.Join(t.TempDir(), "fallback.wav")
	require.NoError(t, s.Start(ctx, "", path, nil))
	got, err := s.Stop()
	require.NoError(t, err)
	assert.Equal(t, path, got)
}

func TestSessionWritesCanonicalMonoFile(t *testing.T) {
	ctx := context.Background()
	backend := dummy.NewBackend(types.StreamConfig{
		SampleRate: 44100,
		Channels:   2,
		Format:     types.PCMFormatS16LE,
	})
	s := NewSession(backend)
	defer s.Close()

	path := filepath.Join(t.TempDir(), "stereo-capture.wav")
	require.NoError(t, s.Start(ctx, "", path, nil))
	assert.Zero(t, s.BytesWritten())

	backend.Feed(types.Block{
		Format: types.PCMFormatS16LE,
		S16:    []int16{1000, 2000, -500, 500},
	})
	assert.Greater(t, s.BytesWritten(), uint64(0))
	backend.Feed(types.Block{
		Format: types.PCMFormatS16LE,
		S16:    []int16{-100, -101},
	})

	got, err := s.Stop()
	require.NoError(t, err)
	require.Equal(t, path, got)

	samples, rate, channels, err := wavfile.ReadFile(path)
	require.NoError(t, err)
	assert.EqualValues(t, 44100, rate, "the negotiated input rate is kept")
	assert.EqualValues(t, 1, channels, "the output is always mono")
	assert.Equal(t, []int16{1500, 0, -101}, samples)
}

func TestSessionForwardsPeaks(t *testing.T) {
	ctx := context.Background()
	backend := dummy.NewBackend(dummy.DefaultConfig)
	s := NewSession(backend)
	defer s.Close()

	var peaksMu sync.Mutex
	var peaks []int16
	path := filepath.Join(t.TempDir(), "peaks.wav")
	require.NoError(t, s.Start(ctx, "", path, func(peak int16) {
		peaksMu.Lock()
		defer peaksMu.Unlock()
		peaks = append(peaks, peak)
	}))

	backend.Feed(types.Block{
		Format: types.PCMFormatS16LE,
		S16:    []int16{10, -1500, 1500, 3},
	})

	_, err := s.Stop()
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		peaksMu.Lock()
		defer peaksMu.Unlock()
		return len(peaks) > 0
	}, time.Second, 10*time.Millisecond)

	peaksMu.Lock()
	defer peaksMu.Unlock()
	assert.Equal(t, int16(-1500), peaks[0], "the first peak is always forwarded")
}

func TestSessionIgnoresBlocksAfterStop(t *testing.T) {
	ctx := context.Background()
	backend := dummy.NewBackend(dummy.DefaultConfig)
	s := NewSession(backend)
	defer s.Close()

	path := filepath.Join(t.TempDir(), "late.wav")
	require.NoError(t, s.Start(ctx, "", path, nil))
	backend.Feed(types.Block{Format: types.PCMFormatS16LE, S16: []int16{1, 2, 3}})
	_, err := s.Stop()
	require.NoError(t, err)

	// a misbehaving backend delivering after Stop must be a no-op
	backend.Feed(types.Block{Format: types.PCMFormatS16LE, S16: []int16{9, 9, 9}})

	samples, _, _, err := wavfile.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []int16{1, 2, 3}, samples)
}

func TestSessionSurfacesWriteFailureAtStop(t *testing.T) {
	ctx := context.Background()
	backend := dummy.NewBackend(dummy.DefaultConfig)
	s := NewSession(backend)
	defer s.Close()

	path := filepath.Join(t.TempDir(), "halted.wav")
	require.NoError(t, s.Start(ctx, "", path, nil))
	backend.Feed(types.Block{Format: types.PCMFormatS16LE, S16: []int16{1, 2, 3}})

	// yank the file out from under the encoder; the next write must fail
	require.NoError(t, s.sink.Close())
	backend.Feed(types.Block{Format: types.PCMFormatS16LE, S16: []int16{4, 5, 6}})
	assert.False(t, s.capturing.Load(), "a failed write halts the capture")
	backend.Feed(types.Block{Format: types.PCMFormatS16LE, S16: []int16{7, 8, 9}})

	got, err := s.Stop()
	require.ErrorContains(t, err, "halted early")
	assert.Equal(t, path, got, "the path comes back even alongside the error")
	assert.False(t, s.IsRecording())

	samples, _, _, err := wavfile.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []int16{1, 2, 3}, samples, "nothing past the failure made it to disk")
}

func TestSessionCloseWhileRecordingFinalizes(t *testing.T) {
	ctx := context.Background()
	backend := dummy.NewBackend(dummy.DefaultConfig)
	s := NewSession(backend)

	path := filepath.Join(t.TempDir(), "teardown.wav")
	require.NoError(t, s.Start(ctx, "", path, nil))
	backend.Feed(types.Block{Format: types.PCMFormatS16LE, S16: []int16{5, 6, 7}})

	require.NoError(t, s.Close())
	assert.False(t, s.IsRecording())

	samples, rate, channels, err := wavfile.ReadFile(path)
	require.NoError(t, err)
	assert.EqualValues(t, 48000, rate)
	assert.EqualValues(t, 1, channels)
	assert.Equal(t, []int16{5, 6, 7}, samples)
}

// Records two seconds from a 48 kHz device, then converts the result to
// the 16 kHz mono contract downstream consumers expect.
func TestRecordThenConvertScenario(t *testing.T) {
	ctx := context.Background()
	const (
		captureRate = 48000
		targetRate  = 16000
		blockFrames = 4800 // 100ms
		blockCount  = 20   // 2s total
	)
	backend := dummy.NewBackend(types.StreamConfig{
		SampleRate: captureRate,
		Channels:   1,
		Format:     types.PCMFormatFloat32LE,
	})
	s := NewSession(backend)
	defer s.Close()

	dir := t.TempDir()
	capturePath := filepath.Join(dir, "capture.wav")
	convertedPath := filepath.Join(dir, "converted.wav")

	require.NoError(t, s.Start(ctx, "", capturePath, nil))
	block := make([]float32, blockFrames)
	for i := 0; i < blockCount; i++ {
		for j := range block {
			n := i*blockFrames + j
			block[j] = float32(0.5 * math.Sin(2*math.Pi*440*float64(n)/captureRate))
		}
		backend.Feed(types.Block{Format: types.PCMFormatFloat32LE, F32: block})
	}
	got, err := s.Stop()
	require.NoError(t, err)
	require.Equal(t, capturePath, got)

	captured, rate, channels, err := wavfile.ReadFile(capturePath)
	require.NoError(t, err)
	require.EqualValues(t, captureRate, rate)
	require.EqualValues(t, 1, channels)
	require.Len(t, captured, blockFrames*blockCount)

	require.NoError(t, resample.ConvertWAVFile(ctx, capturePath, convertedPath, targetRate, 1))

	converted, rate, channels, err := wavfile.ReadFile(convertedPath)
	require.NoError(t, err)
	assert.EqualValues(t, targetRate, rate)
	assert.EqualValues(t, 1, channels)
	assert.InDelta(t, 32000, len(converted), 4)
}
