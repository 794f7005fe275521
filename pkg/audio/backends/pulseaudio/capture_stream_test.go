package pulseaudio

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dictate-go/audio/pkg/audio/types"
)

func floatBytes(samples ...float32) []byte {
	raw := make([]byte, 0, len(samples)*4)
	for _, s := range samples {
		raw = binary.LittleEndian.AppendUint32(raw, math.Float32bits(s))
	}
	return raw
}

func TestBlockWriterReassemblesSplitSamples(t *testing.T) {
	samples := []float32{0.25, -0.5, 1}
	raw := floatBytes(samples...)

	t.Run("SplitMidSample", func(t *testing.T) {
		var got []float32
		w := newBlockWriter(func(b types.Block) {
			require.Equal(t, types.PCMFormatFloat32LE, b.Format)
			got = append(got, b.F32...)
		})

		n, err := w.Write(raw[:6])
		require.NoError(t, err)
		assert.Equal(t, 6, n)
		n, err = w.Write(raw[6:])
		require.NoError(t, err)
		assert.Equal(t, len(raw)-6, n)

		assert.Equal(t, samples, got)
	})

	t.Run("ByteAtATime", func(t *testing.T) {
		var got []float32
		w := newBlockWriter(func(b types.Block) {
			got = append(got, b.F32...)
		})

		for i := range raw {
			n, err := w.Write(raw[i : i+1])
			require.NoError(t, err)
			assert.Equal(t, 1, n)
		}

		assert.Equal(t, samples, got)
	})
}
