// Package native implements the GPU capability interface over
// gogpu/wgpu's HAL layer. It creates and uploads lookup textures on a
// hal.Device shared with the host renderer; the host binds the
// resulting hal textures when it assembles the final shaders.
package native

import (
	"errors"
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/types"

	"github.com/gogpu/usershader/gpu"
)

// Backend errors.
var (
	// ErrNilDevice is returned when creating a backend without a HAL
	// device or queue.
	ErrNilDevice = errors.New("native: nil HAL device or queue")

	// ErrNilFormat is returned when creating a texture without a format.
	ErrNilFormat = errors.New("native: nil texture format")

	// ErrUnsupportedFormat is returned for a format the HAL mapping
	// does not cover.
	ErrUnsupportedFormat = errors.New("native: unsupported texture format")
)

// formats is the backend's format table, sharing names and texel
// layouts with the software backend.
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

// convertFormat maps a canonical format to its HAL equivalent.
func convertFormat(f gputypes.TextureFormat) (types.TextureFormat, error) {
	switch f {
	case gputypes.TextureFormatR8Unorm:
		return types.TextureFormatR8Unorm, nil
	case gputypes.TextureFormatRG8Unorm:
		return types.TextureFormatRG8Unorm, nil
	case gputypes.TextureFormatRGBA8Unorm:
		return types.TextureFormatRGBA8Unorm, nil
	case gputypes.TextureFormatBGRA8Unorm:
		return types.TextureFormatBGRA8Unorm, nil
	case gputypes.TextureFormatR16Float:
		return types.TextureFormatR16Float, nil
	case gputypes.TextureFormatRG16Float:
		return types.TextureFormatRG16Float, nil
	case gputypes.TextureFormatRGBA16Float:
		return types.TextureFormatRGBA16Float, nil
	case gputypes.TextureFormatR32Float:
		return types.TextureFormatR32Float, nil
	case gputypes.TextureFormatRG32Float:
		return types.TextureFormatRG32Float, nil
	case gputypes.TextureFormatRGBA32Float:
		return types.TextureFormatRGBA32Float, nil
	}
	return types.TextureFormatUndefined, fmt.Errorf("%w: %v", ErrUnsupportedFormat, f)
}

// GPU is a gpu.GPU over a HAL device and queue shared with the host.
type GPU struct {
	device hal.Device
	queue  hal.Queue
	limits gpu.Limits
}

// New wraps a HAL device and queue. If limits is nil, WebGPU default
// limits are assumed.
func New(device hal.Device, queue hal.Queue, limits *types.Limits) (*GPU, error) {
	if device == nil || queue == nil {
		return nil, ErrNilDevice
	}

	var lim types.Limits
	if limits != nil {
		lim = *limits
	} else {
		lim = types.DefaultLimits()
	}

	return &GPU{
		device: device,
		queue:  queue,
		limits: gpu.Limits{
			MaxTex1DDim: int(lim.MaxTextureDimension1D),
			MaxTex2DDim: int(lim.MaxTextureDimension2D),
			MaxTex3DDim: int(lim.MaxTextureDimension3D),
		},
	}, nil
}

// Formats enumerates the backend's texture formats.
func (g *GPU) Formats() []*gpu.Fmt { return formats }

// Limits returns the device's texture size limits.
func (g *GPU) Limits() gpu.Limits { return g.limits }

// CreateTexture creates a HAL texture and, if params.Data is set,
// uploads the texels through the queue.
func (g *GPU) CreateTexture(params *gpu.TexParams) (gpu.Texture, error) {
	if params.Format == nil {
		return nil, ErrNilFormat
	}
	halFormat, err := convertFormat(params.Format.Format)
	if err != nil {
		return nil, err
	}

	dimension := types.TextureDimension1D
	switch {
	case params.D > 0:
		dimension = types.TextureDimension3D
	case params.H > 0:
		dimension = types.TextureDimension2D
	}

	w := uint32(params.W)
	h := uint32(max(params.H, 1))
	d := uint32(max(params.D, 1))

	desc := &hal.TextureDescriptor{
		Label: "usershader_lut",
		Size: hal.Extent3D{
			Width:              w,
			Height:             h,
			DepthOrArrayLayers: d,
		},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     dimension,
		Format:        halFormat,
		Usage:         types.TextureUsageTextureBinding | types.TextureUsageCopyDst,
	}

	tex, err := g.device.CreateTexture(desc)
	if err != nil {
		return nil, fmt.Errorf("native: creating texture: %w", err)
	}

	if params.Data != nil {
		dst := &hal.ImageCopyTexture{
			Texture:  tex,
			MipLevel: 0,
			Origin:   hal.Origin3D{},
			Aspect:   types.TextureAspectAll,
		}
		layout := &hal.ImageDataLayout{
			Offset:       0,
			BytesPerRow:  w * uint32(params.Format.TexelSize),
			RowsPerImage: h,
		}
		g.queue.WriteTexture(dst, params.Data, layout, &desc.Size)
	}

	t := &Texture{device: g.device, tex: tex, params: *params}
	t.params.Data = nil
	return t, nil
}

// Texture is a HAL-backed texture handle.
type Texture struct {
	device    hal.Device
	tex       hal.Texture
	params    gpu.TexParams
	destroyed bool
}

// Params returns the parameters the texture was created with.
func (t *Texture) Params() gpu.TexParams { return t.params }

// Hal returns the underlying HAL texture, for the host renderer to
// bind. Nil after Destroy.
func (t *Texture) Hal() hal.Texture {
	if t.destroyed {
		return nil
	}
	return t.tex
}

// Destroy releases the HAL texture. Destroy is idempotent.
func (t *Texture) Destroy() {
	if t.destroyed {
		return
	}
	t.destroyed = true
	t.device.DestroyTexture(t.tex)
	t.tex = nil
}
