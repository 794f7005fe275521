// Package wavfile is a thin layer over the RIFF/WAVE container: it creates
// canonical capture files (mono, signed 16-bit PCM) and reads them back for
// offline processing.
package wavfile

import (
	"fmt"
	"io"
	"os"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/hashicorp/go-multierror"
	"github.com/xaionaro-go/datacounter"

	"github.com/dictate-go/audio/pkg/audio/types"
)

const (
	bitDepth     = 16
	wavFormatPCM = 1
)

// Writer appends canonical mono 16-bit samples to a WAV file. The header
// is finalized (sizes patched) on Close; a file that was never closed is
// truncated from a standard reader's point of view.
type Writer struct {
	file    *os.File
	counter *countingWriteSeeker
	encoder *wav.Encoder
	buffer  goaudio.IntBuffer
}

// Create opens path for writing mono signed 16-bit PCM at the given
// sample rate. The header goes out together with the first samples.
func Create(path string, rate types.SampleRate) (*Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("unable to create %q: %w", path, err)
	}
	counter := newCountingWriteSeeker(f)
	return &Writer{
		file:    f,
		counter: counter,
		encoder: wav.NewEncoder(counter, int(rate), bitDepth, 1, wavFormatPCM),
		buffer: goaudio.IntBuffer{
			Format: &goaudio.Format{
				NumChannels: 1,
				SampleRate:  int(rate),
			},
			SourceBitDepth: bitDepth,
		},
	}, nil
}

// WriteSamples appends the samples in the order given.
func (w *Writer) WriteSamples(samples []int16) error {
	if cap(w.buffer.Data) < len(samples) {
		w.buffer.Data = make([]int, len(samples))
	}
	w.buffer.Data = w.buffer.Data[:len(samples)]
	for i, s := range samples {
		w.buffer.Data[i] = int(s)
	}
	if err := w.encoder.Write(&w.buffer); err != nil {
		return fmt.Errorf("unable to write %d samples: %w", len(samples), err)
	}
	return nil
}

// BytesWritten returns the amount of bytes written to the file so far.
func (w *Writer) BytesWritten() uint64 {
	return w.counter.Count()
}

// Close finalizes the header and closes the file.
func (w *Writer) Close() error {
	var mErr *multierror.Error
	if err := w.encoder.Close(); err != nil {
		mErr = multierror.Append(mErr, fmt.Errorf("unable to finalize the WAV header: %w", err))
	}
	if err := w.file.Close(); err != nil {
		mErr = multierror.Append(mErr, fmt.Errorf("unable to close the file: %w", err))
	}
	return mErr.ErrorOrNil()
}

// ReadFile decodes a whole 16-bit PCM WAV file into interleaved samples.
// Any other bit depth is rejected rather than narrowed into garbage.
func ReadFile(path string) ([]int16, types.SampleRate, types.Channel, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("unable to open %q: %w", path, err)
	}
	defer f.Close()

	d := wav.NewDecoder(f)
	if !d.IsValidFile() {
		return nil, 0, 0, fmt.Errorf("%q is not a valid WAV file", path)
	}
	if d.BitDepth != bitDepth {
		return nil, 0, 0, fmt.Errorf("%q has a bit depth of %d, expected %d", path, d.BitDepth, bitDepth)
	}
	buf, err := d.FullPCMBuffer()
	if err != nil {
		return nil, 0, 0, fmt.Errorf("unable to decode %q: %w", path, err)
	}

	samples := make([]int16, len(buf.Data))
	for i, v := range buf.Data {
		samples[i] = int16(v)
	}
	return samples,
		types.SampleRate(buf.Format.SampleRate),
		types.Channel(buf.Format.NumChannels),
		nil
}

// WriteFile writes interleaved 16-bit samples as a complete WAV file.
func WriteFile(
	path string,
	rate types.SampleRate,
	channels types.Channel,
	samples []int16,
) (_err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("unable to create %q: %w", path, err)
	}
	defer func() {
		if err := f.Close(); err != nil && _err == nil {
			_err = fmt.Errorf("unable to close %q: %w", path, err)
		}
	}()

	enc := wav.NewEncoder(f, int(rate), bitDepth, int(channels), wavFormatPCM)
	buf := goaudio.IntBuffer{
		Format: &goaudio.Format{
			NumChannels: int(channels),
			SampleRate:  int(rate),
		},
		SourceBitDepth: bitDepth,
		Data:           make([]int, len(samples)),
	}
	for i, s := range samples {
		buf.Data[i] = int(s)
	}
	if err := enc.Write(&buf); err != nil {
		return fmt.Errorf("unable to write %d samples: %w", len(samples), err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("unable to finalize the WAV header: %w", err)
	}
	return nil
}

// countingWriteSeeker counts the bytes going into the backend while still
// satisfying the io.WriteSeeker the WAV encoder requires for header patching.
type countingWriteSeeker struct {
	*datacounter.WriterCounter
	backend io.Seeker
}

var _ io.WriteSeeker = (*countingWriteSeeker)(nil)

func newCountingWriteSeeker(backend io.WriteSeeker) *countingWriteSeeker {
	return &countingWriteSeeker{
		WriterCounter: datacounter.NewWriterCounter(backend),
		backend:       backend,
	}
}

func (w *countingWriteSeeker) Seek(offset int64, whence int) (int64, error) {
	return w.backend.Seek(offset, whence)
}
