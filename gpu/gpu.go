// Package gpu defines the capability interface the user shader system
// consumes from a GPU backend.
//
// The hook core never talks to a graphics API directly. It enumerates
// texture formats, checks size limits, and creates or destroys lookup
// textures through the [GPU] interface. Backends live under backend/:
// backend/software keeps texels in memory (tests, tools, CPU-only
// hosts), backend/native maps onto gogpu/wgpu.
package gpu

import "github.com/gogpu/gputypes"

// FmtCaps is a bitmask of format capabilities.
type FmtCaps uint32

// Format capability bits.
const (
	// CapSampleable indicates the format can be bound as a sampled
	// texture.
	CapSampleable FmtCaps = 1 << iota

	// CapLinear indicates the format supports linear filtering.
	CapLinear
)

// Fmt describes one texture format a backend can create. Formats are
// matched by exact Name against FORMAT directives in shader documents.
type Fmt struct {
	// Name is the textual format name, e.g. "rgba8" or "r32f".
	Name string

	// Format is the canonical WebGPU format this entry maps to.
	Format gputypes.TextureFormat

	// TexelSize is the size of one texel in bytes.
	TexelSize int

	// Caps describes what the format supports.
	Caps FmtCaps

	// Opaque marks formats with no defined in-memory representation.
	// Opaque formats cannot be initialized from payload data.
	Opaque bool
}

// Limits are the backend's texture size limits, per dimensionality.
type Limits struct {
	MaxTex1DDim int
	MaxTex2DDim int
	MaxTex3DDim int
}

// SampleMode selects the texture sampling filter.
type SampleMode uint8

// Sampling filters.
const (
	SampleNearest SampleMode = iota
	SampleLinear
)

// AddressMode selects out-of-range texture coordinate handling.
type AddressMode uint8

// Address modes.
const (
	AddressClamp AddressMode = iota
	AddressRepeat
	AddressMirror
)

// TexParams describes a texture to create. D and H are zero for
// textures of lower dimensionality.
type TexParams struct {
	W, H, D     int
	Format      *Fmt
	SampleMode  SampleMode
	AddressMode AddressMode
	Sampleable  bool

	// Data holds the initial texel payload, tightly packed. May be
	// nil for an uninitialized texture.
	Data []byte
}

// Texture is a GPU texture handle.
type Texture interface {
	// Params returns the parameters the texture was created with.
	// The Data field is not retained and reads back as nil unless the
	// backend documents otherwise.
	Params() TexParams

	// Destroy releases the texture. Destroy is idempotent.
	Destroy()
}

// GPU is the capability interface consumed by the hook core.
type GPU interface {
	// Formats enumerates the available texture formats.
	Formats() []*Fmt

	// Limits returns the texture size limits.
	Limits() Limits

	// CreateTexture creates (and, if params.Data is set, uploads) a
	// texture.
	CreateTexture(params *TexParams) (Texture, error)
}

// FormatByName returns the format with the given name, or nil.
func FormatByName(g GPU, name string) *Fmt {
	for _, f := range g.Formats() {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// Rect is an axis-aligned rectangle in texel coordinates. X1/Y1 may be
// smaller than X0/Y0 for flipped rects; W and H are signed accordingly.
type Rect struct {
	X0, Y0, X1, Y1 float32
}

// W returns the signed width of the rect.
func (r Rect) W() float32 { return r.X1 - r.X0 }

// H returns the signed height of the rect.
func (r Rect) H() float32 { return r.Y1 - r.Y0 }
