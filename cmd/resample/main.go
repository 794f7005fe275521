package main

import (
	"context"

	"github.com/facebookincubator/go-belt"
	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/facebookincubator/go-belt/tool/logger/implementation/logrus"
	"github.com/spf13/pflag"

	"github.com/dictate-go/audio/pkg/audio/resample"
	"github.com/dictate-go/audio/pkg/audio/types"
)

func main() {
	loggerLevel := logger.LevelInfo
	pflag.Var(&loggerLevel, "log-level", "Log level")
	inputFlag := pflag.String("input", "", "input WAV path")
	outputFlag := pflag.String("output", "", "output WAV path")
	rateFlag := pflag.Uint32("rate", 16000, "target sample rate in Hz")
	channelsFlag := pflag.Uint16("channels", 1, "target channel count")
	pflag.Parse()

	l := logrus.Default().WithLevel(loggerLevel)
	ctx := logger.CtxWithLogger(context.Background(), l)
	logger.Default = func() logger.Logger {
		return l
	}
	defer belt.Flush(ctx)

	if *inputFlag == "" || *outputFlag == "" {
		pflag.Usage()
		return
	}

	err := resample.ConvertWAVFile(
		ctx,
		*inputFlag,
		*outputFlag,
		types.SampleRate(*rateFlag),
		types.Channel(*channelsFlag),
	)
	if err != nil {
		logger.Fatalf(ctx, "unable to convert: %v", err)
	}
}
