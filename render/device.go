// Package render integrates the user shader system with a host
// application built on the gpucontext ecosystem. The host owns the GPU
// device; this package extracts it and wraps it in the capability
// interface the hook core consumes.
package render

import (
	"errors"
	"fmt"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/usershader/backend/native"
	"github.com/gogpu/usershader/backend/software"
	"github.com/gogpu/usershader/gpu"
)

// Package errors.
var (
	// ErrNoHALDevice is returned when a provider does not expose HAL
	// device access.
	ErrNoHALDevice = errors.New("render: provider does not expose a HAL device")
)

// DeviceHandle provides GPU device access from the host application.
//
// The host (e.g. a gogpu.App) implements DeviceHandle and passes it in,
// so lookup textures are created on the same device the renderer
// samples them from. The hook core receives the device from the host;
// it never creates one.
//
// DeviceHandle is an alias for gpucontext.DeviceProvider, providing a
// package-local name for the interface while maintaining full
// compatibility with the gpucontext ecosystem.
type DeviceHandle = gpucontext.DeviceProvider

// NativeGPU extracts the shared HAL device and queue from a host
// provider and returns a GPU backend bound to them. Providers that
// expose HAL access implement HalDevice() any and HalQueue() any
// returning hal.Device and hal.Queue.
func NativeGPU(h DeviceHandle) (gpu.GPU, error) {
	type halProvider interface {
		HalDevice() any
		HalQueue() any
	}
	hp, ok := h.(halProvider)
	if !ok {
		return nil, ErrNoHALDevice
	}

	device, ok := hp.HalDevice().(hal.Device)
	if !ok || device == nil {
		return nil, fmt.Errorf("%w: HalDevice is not hal.Device", ErrNoHALDevice)
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok || queue == nil {
		return nil, fmt.Errorf("%w: HalQueue is not hal.Queue", ErrNoHALDevice)
	}

	return native.New(device, queue, nil)
}

// FallbackGPU returns a GPU for h, falling back to the in-memory
// software backend when the provider has no HAL device. Hosts that
// only need parsing and GLSL emission, e.g. shader linting, can run
// without a GPU this way.
func FallbackGPU(h DeviceHandle) gpu.GPU {
	if h != nil {
		if g, err := NativeGPU(h); err == nil {
			return g
		}
	}
	return software.New()
}
