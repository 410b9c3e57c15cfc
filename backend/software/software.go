// Package software implements the GPU capability interface entirely in
// memory. Textures keep their texel payload in a byte slice, so tests
// and tools can inspect uploads without a GPU. It is also the fallback
// for CPU-only hosts that only need parsing and GLSL emission.
package software

import (
	"errors"
	"fmt"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/usershader/gpu"
)

// Backend errors.
var (
	// ErrInvalidSize is returned for a width below 1 or a negative
	// height or depth. A zero height or depth marks a texture of lower
	// dimensionality and is accepted.
	ErrInvalidSize = errors.New("software: invalid texture size")

	// ErrNilFormat is returned when creating a texture without a format.
	ErrNilFormat = errors.New("software: nil texture format")

	// ErrDataSize is returned when the payload length does not match
	// the texture dimensions.
	ErrDataSize = errors.New("software: payload size mismatch")
)

// formats is the backend's format table. Names follow the conventional
// short spellings user shaders use in FORMAT directives.
var formats = []*gpu.Fmt{
	{Name: "r8", Format: gputypes.TextureFormatR8Unorm, TexelSize: 1, Caps: gpu.CapSampleable | gpu.CapLinear},
	{Name: "rg8", Format: gputypes.TextureFormatRG8Unorm, TexelSize: 2, Caps: gpu.CapSampleable | gpu.CapLinear},
	{Name: "rgba8", Format: gputypes.TextureFormatRGBA8Unorm, TexelSize: 4, Caps: gpu.CapSampleable | gpu.CapLinear},
	{Name: "bgra8", Format: gputypes.TextureFormatBGRA8Unorm, TexelSize: 4, Caps: gpu.CapSampleable | gpu.CapLinear},
	{Name: "r16f", Format: gputypes.TextureFormatR16Float, TexelSize: 2, Caps: gpu.CapSampleable | gpu.CapLinear},
	{Name: "rg16f", Format: gputypes.TextureFormatRG16Float, TexelSize: 4, Caps: gpu.CapSampleable | gpu.CapLinear},
	{Name: "rgba16f", Format: gputypes.TextureFormatRGBA16Float, TexelSize: 8, Caps: gpu.CapSampleable | gpu.CapLinear},
	{Name: "r32f", Format: gputypes.TextureFormatR32Float, TexelSize: 4, Caps: gpu.CapSampleable},
	{Name: "rg32f", Format: gputypes.TextureFormatRG32Float, TexelSize: 8, Caps: gpu.CapSampleable},
	{Name: "rgba32f", Format: gputypes.TextureFormatRGBA32Float, TexelSize: 16, Caps: gpu.CapSampleable},
}

// GPU is an in-memory gpu.GPU. The zero value is not usable; call New.
type GPU struct {
	limits gpu.Limits
}

// New returns a software GPU with WebGPU default texture limits.
func New() *GPU {
	return &GPU{
		limits: gpu.Limits{
			MaxTex1DDim: 8192,
			MaxTex2DDim: 8192,
			MaxTex3DDim: 2048,
		},
	}
}

// NewWithLimits returns a software GPU with the given limits. Tests
// use it to provoke size-limit failures cheaply.
func NewWithLimits(limits gpu.Limits) *GPU {
	return &GPU{limits: limits}
}

// Formats enumerates the backend's texture formats.
func (g *GPU) Formats() []*gpu.Fmt { return formats }

// Limits returns the texture size limits.
func (g *GPU) Limits() gpu.Limits { return g.limits }

// CreateTexture validates the parameters and retains a copy of the
// payload so callers can read it back through Data.
func (g *GPU) CreateTexture(params *gpu.TexParams) (gpu.Texture, error) {
	if params.Format == nil {
		return nil, ErrNilFormat
	}
	if params.W < 1 || params.H < 0 || params.D < 0 {
		return nil, fmt.Errorf("%w: %dx%dx%d", ErrInvalidSize, params.W, params.H, params.D)
	}

	texels := params.W * max(params.H, 1) * max(params.D, 1)
	want := texels * params.Format.TexelSize
	if params.Data != nil && len(params.Data) != want {
		return nil, fmt.Errorf("%w: got %d bytes, expected %d", ErrDataSize, len(params.Data), want)
	}

	t := &Texture{params: *params}
	if params.Data != nil {
		t.data = make([]byte, len(params.Data))
		copy(t.data, params.Data)
	}
	t.params.Data = nil
	return t, nil
}

// Texture is a software texture: its creation parameters plus a copy
// of the uploaded texels.
type Texture struct {
	params    gpu.TexParams
	data      []byte
	destroyed bool
}

// Params returns the parameters the texture was created with.
func (t *Texture) Params() gpu.TexParams { return t.params }

// Data returns the uploaded texel bytes, or nil after Destroy.
func (t *Texture) Data() []byte {
	if t.destroyed {
		return nil
	}
	return t.data
}

// Destroyed reports whether Destroy has been called.
func (t *Texture) Destroyed() bool { return t.destroyed }

// Destroy releases the texel storage. Destroy is idempotent.
func (t *Texture) Destroy() {
	t.destroyed = true
	t.data = nil
}
