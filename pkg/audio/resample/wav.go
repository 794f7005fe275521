package resample

import (
	"context"
	"fmt"

	"github.com/facebookincubator/go-belt/tool/logger"

	"github.com/dictate-go/audio/pkg/audio/planar"
	"github.com/dictate-go/audio/pkg/audio/types"
	"github.com/dictate-go/audio/pkg/audio/wavfile"
)

// ConvertWAVFile reads a whole 16-bit PCM WAV file, converts it to the
// target sample rate and channel layout, and writes the result with a
// canonical header. The header always describes the channels actually
// written, so a pass-through on an unsupported channel mapping still
// produces a coherent file.
func ConvertWAVFile(
	ctx context.Context,
	inputPath string,
	outputPath string,
	outRate types.SampleRate,
	outChannels types.Channel,
) (_err error) {
	logger.Debugf(ctx, "ConvertWAVFile(%q, %q, %d, %d)", inputPath, outputPath, outRate, outChannels)
	defer func() { logger.Debugf(ctx, "/ConvertWAVFile: %v", _err) }()

	samples, inRate, inChannels, err := wavfile.ReadFile(inputPath)
	if err != nil {
		return fmt.Errorf("unable to read the input: %w", err)
	}
	logger.Debugf(ctx, "input: %d Hz, %d channel(s), %d samples", inRate, inChannels, len(samples))

	planes, err := planar.Planarize(inChannels, samples)
	if err != nil {
		return fmt.Errorf("unable to de-interleave the input: %w", err)
	}

	planes, err = Resample(ctx, planes, inRate, outRate)
	if err != nil {
		return fmt.Errorf("unable to resample from %d Hz to %d Hz: %w", inRate, outRate, err)
	}

	planes = ConvertChannels(planes, int(outChannels))

	out, err := planar.Unplanarize(planes)
	if err != nil {
		return fmt.Errorf("unable to interleave the output: %w", err)
	}

	if err := wavfile.WriteFile(outputPath, outRate, types.Channel(len(planes)), out); err != nil {
		return fmt.Errorf("unable to write the output: %w", err)
	}
	logger.Debugf(ctx, "output: %d Hz, %d channel(s), %d frames", outRate, len(planes), len(planes[0]))
	return nil
}
