package audio

import (
	"context"
	"fmt"
	"sync"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/hashicorp/go-multierror"

	"github.com/dictate-go/audio/pkg/audio/backends/dummy"
	"github.com/dictate-go/audio/pkg/audio/registry"
)

var (
	lastUsableCaptureFactory       registry.CaptureBackendFactory
	lastUsableCaptureFactoryLocker sync.Mutex
)

// NewSessionAuto builds a Session on the first capture backend that
// initializes and answers a Ping, trying the factory that worked last time
// before the registry's priority order. When no backend is usable the
// session is backed by a dummy that produces no audio.
func NewSessionAuto(ctx context.Context) *Session {
	var mErr *multierror.Error
	for _, factory := range captureFactoryCandidates() {
		backend, err := factory.NewCaptureBackend()
		if err != nil {
			logger.Debugf(ctx, "initializing a backend via %T: %v", factory, err)
			mErr = multierror.Append(mErr, fmt.Errorf("unable to initialize a backend via %T: %w", factory, err))
			continue
		}
		if err := backend.Ping(ctx); err != nil {
			logger.Debugf(ctx, "pinging %T: %v", backend, err)
			mErr = multierror.Append(mErr, fmt.Errorf("unable to ping %T: %w", backend, err))
			if closeErr := backend.Close(); closeErr != nil {
				logger.Errorf(ctx, "unable to close the unusable backend %T: %v", backend, closeErr)
			}
			continue
		}

		lastUsableCaptureFactoryLocker.Lock()
		lastUsableCaptureFactory = factory
		lastUsableCaptureFactoryLocker.Unlock()
		return NewSession(backend)
	}

	logger.Infof(ctx, "no capture backend is usable, falling back to a silent dummy: %v", mErr.ErrorOrNil())
	return NewSession(dummy.NewBackend(dummy.DefaultConfig))
}

// captureFactoryCandidates is the registry order with the previously
// usable factory (if any) moved to the front.
func captureFactoryCandidates() []registry.CaptureBackendFactory {
	lastUsableCaptureFactoryLocker.Lock()
	last := lastUsableCaptureFactory
	lastUsableCaptureFactoryLocker.Unlock()

	factories := registry.CaptureFactories()
	if last == nil {
		return factories
	}
	ordered := make([]registry.CaptureBackendFactory, 0, len(factories)+1)
	ordered = append(ordered, last)
	for _, factory := range factories {
		if factory != last {
			ordered = append(ordered, factory)
		}
	}
	return ordered
}
