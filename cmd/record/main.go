package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/facebookincubator/go-belt"
	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/facebookincubator/go-belt/tool/logger/implementation/logrus"
	"github.com/spf13/pflag"
	"github.com/xaionaro-go/observability"

	"github.com/dictate-go/audio/pkg/audio"
	_ "github.com/dictate-go/audio/pkg/audio/backends/portaudio"
	_ "github.com/dictate-go/audio/pkg/audio/backends/pulseaudio"
)

func main() {
	loggerLevel := logger.LevelInfo
	pflag.Var(&loggerLevel, "log-level", "Log level")
	deviceFlag := pflag.String("device", "", "input device ID or name (the default input when empty)")
	listDevicesFlag := pflag.Bool("list-devices", false, "list input devices and exit")
	outputFlag := pflag.String("output", "recording.wav", "output WAV path")
	pflag.Parse()

	l := logrus.Default().WithLevel(loggerLevel)
	ctx := logger.CtxWithLogger(context.Background(), l)
	logger.Default = func() logger.Logger {
		return l
	}
	defer belt.Flush(ctx)

	session := audio.NewSessionAuto(ctx)
	defer session.Close()

	if *listDevicesFlag {
		devices, err := session.Devices(ctx)
		assertNoError(err)
		for _, device := range devices {
			suffix := ""
			if device.Default {
				suffix = " (default)"
			}
			fmt.Printf("%s  %s%s\n", device.ID, device.Name, suffix)
		}
		return
	}

	logger.Infof(ctx, "recording to %q, press Ctrl+C to stop...", *outputFlag)
	err := session.Start(ctx, *deviceFlag, *outputFlag, func(peak int16) {
		fmt.Fprintf(os.Stderr, "\rpeak: %6d", peak)
	})
	assertNoError(err)

	observability.Go(ctx, func() {
		t := time.NewTicker(time.Second)
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				logger.Debugf(ctx, "written: %d", session.BytesWritten())
			}
		}
	})

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt)
	<-sigChan
	fmt.Fprintln(os.Stderr)

	path, err := session.Stop()
	assertNoError(err)
	fmt.Println(path)
}

func assertNoError(err error) {
	if err != nil {
		panic(err)
	}
}
