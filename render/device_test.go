package render

import (
	"errors"
	"testing"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"

	"github.com/gogpu/usershader/backend/software"
)

// nullHandle is a DeviceHandle with no GPU behind it.
type nullHandle struct{}

func (nullHandle) Device() gpucontext.Device   { return nil }
func (nullHandle) Queue() gpucontext.Queue     { return nil }
func (nullHandle) Adapter() gpucontext.Adapter { return nil }
func (nullHandle) SurfaceFormat() gputypes.TextureFormat {
	return gputypes.TextureFormatUndefined
}

var _ DeviceHandle = nullHandle{}

// bogusHalHandle claims HAL access but hands back values of the wrong
// type.
type bogusHalHandle struct{ nullHandle }

func (bogusHalHandle) HalDevice() any { return 42 }
func (bogusHalHandle) HalQueue() any  { return "queue" }

func TestNativeGPUNoHALAccess(t *testing.T) {
	if _, err := NativeGPU(nullHandle{}); !errors.Is(err, ErrNoHALDevice) {
		t.Errorf("NativeGPU(nullHandle) = %v, want %v", err, ErrNoHALDevice)
	}
}

func TestNativeGPUBogusHAL(t *testing.T) {
	if _, err := NativeGPU(bogusHalHandle{}); !errors.Is(err, ErrNoHALDevice) {
		t.Errorf("NativeGPU(bogusHalHandle) = %v, want %v", err, ErrNoHALDevice)
	}
}

func TestFallbackGPU(t *testing.T) {
	for _, h := range []DeviceHandle{nil, nullHandle{}, bogusHalHandle{}} {
		g := FallbackGPU(h)
		if g == nil {
			t.Fatal("FallbackGPU() = nil")
		}
		if _, ok := g.(*software.GPU); !ok {
			t.Errorf("FallbackGPU() = %T, want *software.GPU", g)
		}
	}
}
