package audio

import (
	"fmt"
	"math"

	"github.com/dictate-go/audio/pkg/audio/types"
)

// appendBlockAsI16 converts a native-format block to the canonical signed
// 16-bit representation (round-to-nearest, saturating) and appends the
// result to dst. The channel layout of the block is preserved.
func appendBlockAsI16(dst []int16, b types.Block) []int16 {
	switch b.Format {
	case types.PCMFormatU8:
		for _, v := range b.U8 {
			dst = append(dst, (int16(v)-128)<<8)
		}
	case types.PCMFormatS16LE:
		dst = append(dst, b.S16...)
	case types.PCMFormatS32LE:
		for _, v := range b.S32 {
			dst = append(dst, s32ToI16(v))
		}
	case types.PCMFormatFloat32LE:
		for _, v := range b.F32 {
			dst = append(dst, f64ToI16(float64(v)))
		}
	case types.PCMFormatFloat64LE:
		for _, v := range b.F64 {
			dst = append(dst, f64ToI16(v))
		}
	default:
		panic(fmt.Errorf("unexpected format: %v", b.Format))
	}
	return dst
}

// downmixToMono collapses interleaved multi-channel samples into one mono
// sample per frame by averaging the channels. The average is computed in
// int32 to avoid overflow and saturated back to the 16-bit range. The
// operation is performed in place; the shortened slice is returned.
func downmixToMono(samples []int16, channels int) []int16 {
	if channels <= 1 {
		return samples
	}
	frames := len(samples) / channels
	for frame := 0; frame < frames; frame++ {
		var sum int32
		for ch := 0; ch < channels; ch++ {
			sum += int32(samples[frame*channels+ch])
		}
		samples[frame] = clampI32ToI16(int32(math.Round(float64(sum) / float64(channels))))
	}
	return samples[:frames]
}

// blockPeak returns the maximum-magnitude sample of the block; ties are
// broken by the first occurrence.
func blockPeak(samples []int16) int16 {
	var peak int16
	var peakMagnitude int32
	for _, v := range samples {
		m := int32(v)
		if m < 0 {
			m = -m
		}
		if m > peakMagnitude {
			peakMagnitude = m
			peak = v
		}
	}
	return peak
}

func f64ToI16(v float64) int16 {
	if v > 1 {
		v = 1
	} else if v < -1 {
		v = -1
	}
	return clampI32ToI16(int32(math.Round(v * 32768)))
}

func s32ToI16(v int32) int16 {
	return clampI32ToI16(int32((int64(v) + (1 << 15)) >> 16))
}

func clampI32ToI16(v int32) int16 {
	if v > math.MaxInt16 {
		return math.MaxInt16
	}
	if v < math.MinInt16 {
		return math.MinInt16
	}
	return int16(v)
}
