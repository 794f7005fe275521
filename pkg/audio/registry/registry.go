// Package registry tracks the available capture backend factories, ordered
// by priority. Backends register themselves from init().
package registry

import (
	"fmt"
	"reflect"
	"sort"

	"github.com/dictate-go/audio/pkg/audio/types"
)

// CaptureBackendFactory constructs a capture backend. Construction may fail
// (a missing host API, no daemon to talk to); callers probe further with
// Ping.
type CaptureBackendFactory interface {
	NewCaptureBackend() (types.CaptureBackend, error)
}

type registeredCaptureFactory struct {
	priority int
	factory  CaptureBackendFactory
}

var (
	captureFactories    []registeredCaptureFactory
	captureFactoryTypes = map[reflect.Type]struct{}{}
)

// RegisterCaptureFactory adds a factory; a higher priority means the
// backend is tried earlier. Registering the same factory type twice is a
// programming error.
func RegisterCaptureFactory(priority int, factory CaptureBackendFactory) {
	t := reflect.TypeOf(factory)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if _, ok := captureFactoryTypes[t]; ok {
		panic(fmt.Errorf("a capture backend factory of type %v is already registered", t))
	}
	captureFactoryTypes[t] = struct{}{}

	at := sort.Search(len(captureFactories), func(i int) bool {
		return captureFactories[i].priority < priority
	})
	captureFactories = append(captureFactories, registeredCaptureFactory{})
	copy(captureFactories[at+1:], captureFactories[at:])
	captureFactories[at] = registeredCaptureFactory{
		priority: priority,
		factory:  factory,
	}
}

// CaptureFactories returns the registered factories, highest priority first.
func CaptureFactories() []CaptureBackendFactory {
	out := make([]CaptureBackendFactory, 0, len(captureFactories))
	for _, r := range captureFactories {
		out = append(out, r.factory)
	}
	return out
}
