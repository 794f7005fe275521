package pulseaudio

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/jfreymuth/pulse"
	"github.com/jfreymuth/pulse/proto"

	"github.com/dictate-go/audio/pkg/audio/types"
)

type CaptureStream struct {
	client      *pulse.Client
	config      types.StreamConfig
	pulseStream *pulse.RecordStream
}

var _ types.CaptureStream = (*CaptureStream)(nil)

func newCaptureStream(
	client *pulse.Client,
	config types.StreamConfig,
) *CaptureStream {
	return &CaptureStream{
		client: client,
		config: config,
	}
}

func (s *CaptureStream) Start(onBlock types.BlockFunc) error {
	stream, err := s.client.NewRecord(
		newBlockWriter(onBlock),
		pulse.RecordSampleRate(int(s.config.SampleRate)),
		pulse.RecordChannels(proto.ChannelMap{proto.ChannelMono}),
	)
	if err != nil {
		return fmt.Errorf("unable to initialize a record stream: %w", err)
	}

	stream.Start()
	if stream.Error() != nil {
		return fmt.Errorf("an error occurred starting the record stream: %w", stream.Error())
	}

	s.pulseStream = stream
	return nil
}

// Close stops the stream; Pulse stops pushing data before Stop returns,
// so no block callback runs afterwards.
func (s *CaptureStream) Close() (err error) {
	defer func() {
		r := recover()
		if r != nil {
			err = fmt.Errorf("got a panic: %v", r)
		}
	}()
	if s.pulseStream == nil {
		return nil
	}
	s.pulseStream.Stop()
	s.pulseStream.Close()
	s.pulseStream = nil
	return
}

// blockWriter adapts the pull-style pulse.Writer to the block-callback
// contract: every chunk of raw little-endian float32 bytes becomes one
// block. A push is not guaranteed to end on a sample boundary, so a
// trailing partial sample is carried over to the next push. The scratch
// slice is reused between pushes.
type blockWriter struct {
	onBlock types.BlockFunc
	scratch []float32
	rem     [4]byte
	remLen  int
}

var _ pulse.Writer = (*blockWriter)(nil)

func newBlockWriter(onBlock types.BlockFunc) *blockWriter {
	return &blockWriter{
		onBlock: onBlock,
	}
}

func (w *blockWriter) Format() byte {
	return proto.FormatFloat32LE
}

func (w *blockWriter) Write(p []byte) (int, error) {
	total := len(p)

	var carried float32
	haveCarried := false
	if w.remLen > 0 {
		n := copy(w.rem[w.remLen:], p)
		w.remLen += n
		p = p[n:]
		if w.remLen < len(w.rem) {
			return total, nil
		}
		carried = math.Float32frombits(binary.LittleEndian.Uint32(w.rem[:]))
		haveCarried = true
		w.remLen = 0
	}

	n := len(p) / 4
	if tail := len(p) % 4; tail != 0 {
		w.remLen = copy(w.rem[:], p[len(p)-tail:])
		p = p[:len(p)-tail]
	}

	count := n
	if haveCarried {
		count++
	}
	if count == 0 {
		return total, nil
	}

	if cap(w.scratch) < count {
		w.scratch = make([]float32, 0, count)
	}
	w.scratch = w.scratch[:0]
	if haveCarried {
		w.scratch = append(w.scratch, carried)
	}
	for i := 0; i < n; i++ {
		w.scratch = append(w.scratch, math.Float32frombits(binary.LittleEndian.Uint32(p[i*4:])))
	}
	w.onBlock(types.Block{
		Format: types.PCMFormatFloat32LE,
		F32:    w.scratch,
	})
	return total, nil
}
