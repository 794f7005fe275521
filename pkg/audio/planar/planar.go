// Package planar converts between the interleaved 16-bit representation
// stored in files and the channel-separated normalized float64 planes the
// offline engine works on.
package planar

import (
	"fmt"

	"github.com/dictate-go/audio/pkg/audio/types"
)

// Planarize de-interleaves 16-bit samples into one plane per channel,
// normalizing every sample into [-1, 1] (divided by 32768). All planes
// come out equal length.
func Planarize(channels types.Channel, samples []int16) ([][]float64, error) {
	if channels == 0 {
		return nil, fmt.Errorf("expected at least one channel")
	}
	if len(samples)%int(channels) != 0 {
		return nil, fmt.Errorf("expected a sample count that is a multiple of %d, but received %d", channels, len(samples))
	}

	frames := len(samples) / int(channels)
	planes := make([][]float64, channels)
	for ch := range planes {
		planes[ch] = make([]float64, frames)
	}
	for frame := 0; frame < frames; frame++ {
		for ch := 0; ch < int(channels); ch++ {
			planes[ch][frame] = float64(samples[frame*int(channels)+ch]) / 32768
		}
	}
	return planes, nil
}

// Unplanarize interleaves per-channel planes back into a flat sequence of
// frames, quantizing every normalized sample to 16 bits: clamped to
// [-1, 1], scaled by 32767, truncated toward zero.
func Unplanarize(planes [][]float64) ([]int16, error) {
	if len(planes) == 0 {
		return nil, fmt.Errorf("expected at least one channel")
	}
	frames := len(planes[0])
	for ch, plane := range planes {
		if len(plane) != frames {
			return nil, fmt.Errorf("the lengths of channels 0 and %d are not equal: %d != %d", ch, frames, len(plane))
		}
	}

	samples := make([]int16, 0, frames*len(planes))
	for frame := 0; frame < frames; frame++ {
		for ch := range planes {
			samples = append(samples, QuantizeI16(planes[ch][frame]))
		}
	}
	return samples, nil
}

// QuantizeI16 converts one normalized sample to 16-bit signed: clamp to
// [-1, 1], scale by 32767, truncate toward zero.
func QuantizeI16(v float64) int16 {
	if v > 1 {
		v = 1
	} else if v < -1 {
		v = -1
	}
	return int16(v * 32767)
}
