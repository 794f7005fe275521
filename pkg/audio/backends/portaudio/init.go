package portaudio

import (
	"github.com/dictate-go/audio/pkg/audio/registry"
	"github.com/dictate-go/audio/pkg/audio/types"
)

const (
	Priority = 60
)

func init() {
	registry.RegisterCaptureFactory(Priority, CaptureBackendFactory{})
}

type CaptureBackendFactory struct{}

func (CaptureBackendFactory) NewCaptureBackend() (types.CaptureBackend, error) {
	return NewBackend()
}
