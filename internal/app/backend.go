package app

import (
	"errors"
	"fmt"

	"github.com/vk/millgrid/internal/config"
	"github.com/vk/millgrid/internal/kernel"
	"github.com/vk/millgrid/internal/kernel/memkernel"
	"github.com/vk/millgrid/internal/kernel/native"
)

// ErrNativeUnavailable is returned when the native backend is configured in a
// binary built without the kernel library.
var ErrNativeUnavailable = errors.New("native kernel is not linked into this binary (build with cgo and -tags l1kernel)")

// newBackend returns the kernel boundary named by the configuration.
func newBackend(name string) (kernel.Native, error) {
	switch name {
	case config.BackendMemory:
		return memkernel.New(), nil
	case config.BackendNative:
		if !native.Available {
			return nil, ErrNativeUnavailable
		}
		return native.New(), nil
	default:
		return nil, fmt.Errorf("unknown kernel backend %q", name)
	}
}
