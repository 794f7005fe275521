// Package resample is the offline conversion engine: band-limited
// sample-rate conversion and channel-layout conversion over fully-buffered
// channel-separated float64 signals.
package resample

import (
	"context"
	"errors"
	"math"
	"sync"

	"github.com/mjibson/go-dsp/window"
	"github.com/xaionaro-go/observability"

	"github.com/dictate-go/audio/pkg/audio/types"
)

var (
	ErrNoChannels = errors.New("expected at least one channel")
	ErrEmptyInput = errors.New("empty input")
	ErrZeroRate   = errors.New("sample rates must be positive")
)

const (
	// filterCutoff places the low-pass edge at 0.95 of the effective
	// Nyquist frequency, leaving headroom for the finite filter's
	// transition band.
	filterCutoff = 0.95

	// kernelHalfWidth is the amount of input samples consulted on each
	// side of the interpolation point at unity ratio; downsampling widens
	// it by 1/ratio together with the sinc itself.
	kernelHalfWidth = 32

	// kernelPhases is the oversampling of the precomputed coefficient
	// table; intermediate offsets are linearly interpolated.
	kernelPhases = 128
)

// Resample converts every channel independently from inRate to outRate
// using windowed-sinc interpolation. Channels are processed in parallel
// (they have no cross-channel data dependency). All output channels come
// out equal length: per-channel rounding discrepancies are trimmed to the
// shortest. When inRate == outRate the input is returned untouched, so an
// unchanged-rate conversion introduces no filter artifacts.
func Resample(
	ctx context.Context,
	planes [][]float64,
	inRate, outRate types.SampleRate,
) ([][]float64, error) {
	if inRate == 0 || outRate == 0 {
		return nil, ErrZeroRate
	}
	if len(planes) == 0 {
		return nil, ErrNoChannels
	}
	for _, plane := range planes {
		if len(plane) == 0 {
			return nil, ErrEmptyInput
		}
	}

	if inRate == outRate {
		return planes, nil
	}

	ratio := float64(outRate) / float64(inRate)
	kernel := designKernel(ratio)

	results := make([][]float64, len(planes))
	var wg sync.WaitGroup
	for ch := range planes {
		wg.Add(1)
		observability.Go(ctx, func() {
			defer wg.Done()
			results[ch] = resampleChannel(planes[ch], ratio, kernel)
		})
	}
	wg.Wait()

	shortest := len(results[0])
	for _, plane := range results {
		if len(plane) < shortest {
			shortest = len(plane)
		}
	}
	for ch := range results {
		results[ch] = results[ch][:shortest]
	}
	return results, nil
}

func resampleChannel(in []float64, ratio float64, kernel *firKernel) []float64 {
	out := make([]float64, int(math.Round(float64(len(in))*ratio)))
	for j := range out {
		pos := float64(j) / ratio
		n0 := int(math.Floor(pos))
		frac := pos - float64(n0)

		var acc float64
		for k := -kernel.halfWidth + 1; k <= kernel.halfWidth; k++ {
			idx := n0 + k
			if idx < 0 || idx >= len(in) {
				continue
			}
			acc += in[idx] * kernel.at(float64(k)-frac)
		}
		out[j] = acc
	}
	return out
}

// firKernel is a precomputed windowed-sinc coefficient table. The
// continuous impulse response is cutoff*sinc(cutoff*x) (unit DC gain)
// tapered by a Hann window over [-halfWidth, halfWidth].
type firKernel struct {
	coeffs    []float64
	center    int
	halfWidth int
}

func designKernel(ratio float64) *firKernel {
	cutoff := filterCutoff
	halfWidth := kernelHalfWidth
	if ratio < 1 {
		// when downsampling the output Nyquist is the lower one; the sinc
		// widens by 1/ratio, so the window must widen with it or the
		// truncation eats into the passband gain
		cutoff *= ratio
		halfWidth = int(math.Ceil(float64(kernelHalfWidth) / ratio))
	}

	n := 2*halfWidth*kernelPhases + 1
	coeffs := make([]float64, n)
	center := n / 2
	for i := range coeffs {
		x := float64(i-center) / kernelPhases
		coeffs[i] = cutoff * sinc(cutoff*x)
	}
	taper := window.Hann(n)
	for i := range coeffs {
		coeffs[i] *= taper[i]
	}
	return &firKernel{
		coeffs:    coeffs,
		center:    center,
		halfWidth: halfWidth,
	}
}

// at evaluates the kernel at a fractional offset in units of input
// samples, linearly interpolating between table entries.
func (k *firKernel) at(x float64) float64 {
	pos := float64(k.center) + x*kernelPhases
	idx := int(math.Floor(pos))
	if idx < 0 || idx+1 >= len(k.coeffs) {
		return 0
	}
	frac := pos - float64(idx)
	return k.coeffs[idx]*(1-frac) + k.coeffs[idx+1]*frac
}

func sinc(x float64) float64 {
	if x == 0 {
		return 1
	}
	px := math.Pi * x
	return math.Sin(px) / px
}
