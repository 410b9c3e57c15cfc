// Package shader implements the shader buffer a hook pass is spliced
// into: a GLSL fragment under assembly, with separate header and main
// sections, named texture binds, sampled descriptors, typed input
// variables, and the compute/output-size negotiation protocol.
//
// The buffer does not compile or validate GLSL. The host renderer
// collects the sections, binds and variables after all hooks have run
// and assembles the final shader itself.
package shader

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gogpu/usershader/gpu"
)

// Errors returned by shader buffer operations.
var (
	// ErrNilTexture is returned when binding a nil texture.
	ErrNilTexture = errors.New("shader: nil texture")
)

// Ident is a generated GLSL identifier, unique within one shader.
type Ident string

// Signature describes what a shader expects as input.
type Signature uint8

// Input signatures.
const (
	// SigNone is a shader that samples its own inputs and takes no
	// implicit input color.
	SigNone Signature = iota

	// SigColor is a shader that receives the previous stage's color.
	SigColor
)

// VarType is the GLSL type of an input variable.
type VarType uint8

// Variable types.
const (
	VarInt VarType = iota
	VarFloat
	VarVec2
)

// GLSLName returns the GLSL type name.
func (t VarType) GLSLName() string {
	switch t {
	case VarInt:
		return "int"
	case VarFloat:
		return "float"
	case VarVec2:
		return "vec2"
	}
	return "float"
}

// Var is a typed input variable. Scalar values use Data[0]; VarInt
// values are stored rounded in Data[0].
type Var struct {
	Type VarType
	Name string
	Data [2]float32

	// Dynamic marks values that change every frame, so the host
	// should not bake them into specialization constants.
	Dynamic bool
}

// IntVar returns an integer variable.
func IntVar(name string, v int, dynamic bool) Var {
	return Var{Type: VarInt, Name: name, Data: [2]float32{float32(v)}, Dynamic: dynamic}
}

// FloatVar returns a float variable.
func FloatVar(name string, v float64, dynamic bool) Var {
	return Var{Type: VarFloat, Name: name, Data: [2]float32{float32(v)}, Dynamic: dynamic}
}

// Vec2Var returns a vec2 variable.
func Vec2Var(name string, x, y float32) Var {
	return Var{Type: VarVec2, Name: name, Data: [2]float32{x, y}}
}

// TextureBind records a texture bound with full position/size/pt
// identifiers.
type TextureBind struct {
	Tex     gpu.Texture
	SrcRect gpu.Rect

	Sampler Ident
	Pos     Ident
	Size    Ident
	Pt      Ident
}

// Descriptor records a plainly bound sampled texture.
type Descriptor struct {
	Tex   gpu.Texture
	Ident Ident
}

// BoundVar is a declared variable together with its identifier.
type BoundVar struct {
	Var   Var
	Ident Ident
}

// Shader is a GLSL fragment under assembly.
type Shader struct {
	namer namer

	header strings.Builder
	main   strings.Builder

	binds []TextureBind
	descs []Descriptor
	vars  []BoundVar

	compute          bool
	blockW, blockH   int
	sized            bool
	sig              Signature
	outW, outH       int
}

// New returns an empty shader buffer.
func New() *Shader {
	s := &Shader{}
	s.namer.init()
	return s
}

// BindTexture binds a texture under a descriptive base name and
// returns identifiers for the sampler, the normalized sampling
// position, the texture size, and the pixel delta (1/size).
func (s *Shader) BindTexture(tex gpu.Texture, base string, rect gpu.Rect) (id, pos, size, pt Ident, err error) {
	if tex == nil {
		return "", "", "", "", ErrNilTexture
	}

	id = s.namer.next(base)
	pos = s.namer.next(base + "_pos")
	size = s.namer.next(base + "_size")
	pt = s.namer.next(base + "_pt")

	s.binds = append(s.binds, TextureBind{
		Tex:     tex,
		SrcRect: rect,
		Sampler: id,
		Pos:     pos,
		Size:    size,
		Pt:      pt,
	})
	return id, pos, size, pt, nil
}

// Desc binds a texture as a plain sampled descriptor and returns its
// identifier.
func (s *Shader) Desc(base string, tex gpu.Texture) Ident {
	id := s.namer.next(base)
	s.descs = append(s.descs, Descriptor{Tex: tex, Ident: id})
	return id
}

// Var declares an input variable and returns its identifier.
func (s *Shader) Var(v Var) Ident {
	id := s.namer.next(v.Name)
	s.vars = append(s.vars, BoundVar{Var: v, Ident: id})
	return id
}

// TryCompute requests that the shader execute as a compute pass with
// the given workgroup (block) size. It reports false if the shader is
// already committed to a conflicting mode or block size.
func (s *Shader) TryCompute(blockW, blockH int) bool {
	if blockW < 1 || blockH < 1 {
		return false
	}
	if s.compute {
		return s.blockW == blockW && s.blockH == blockH
	}
	if s.main.Len() > 0 {
		// Fragment code has already been emitted.
		return false
	}
	s.compute = true
	s.blockW, s.blockH = blockW, blockH
	return true
}

// Require commits the shader to an input signature and output size.
// It reports false if the shader is already committed to a different
// signature or size.
func (s *Shader) Require(sig Signature, w, h int) bool {
	if w < 1 || h < 1 {
		return false
	}
	if s.sized {
		return s.sig == sig && s.outW == w && s.outH == h
	}
	s.sized = true
	s.sig = sig
	s.outW, s.outH = w, h
	return true
}

// Headerf appends formatted text to the header section.
func (s *Shader) Headerf(format string, args ...any) {
	fmt.Fprintf(&s.header, format, args...)
}

// Mainf appends formatted text to the main section.
func (s *Shader) Mainf(format string, args ...any) {
	fmt.Fprintf(&s.main, format, args...)
}

// HeaderString appends raw text to the header section.
func (s *Shader) HeaderString(text string) {
	s.header.WriteString(text)
}

// Header returns the accumulated header section.
func (s *Shader) Header() string { return s.header.String() }

// Main returns the accumulated main section.
func (s *Shader) Main() string { return s.main.String() }

// Binds returns the textures bound so far, in bind order.
func (s *Shader) Binds() []TextureBind { return s.binds }

// Descriptors returns the plain sampled descriptors, in bind order.
func (s *Shader) Descriptors() []Descriptor { return s.descs }

// Vars returns the declared variables, in declaration order.
func (s *Shader) Vars() []BoundVar { return s.vars }

// IsCompute reports whether the shader was committed to compute mode.
func (s *Shader) IsCompute() bool { return s.compute }

// BlockSize returns the compute workgroup size, or zeros for fragment
// shaders.
func (s *Shader) BlockSize() (w, h int) { return s.blockW, s.blockH }

// OutputSize returns the committed output size, or zeros if Require
// has not succeeded yet.
func (s *Shader) OutputSize() (w, h int) { return s.outW, s.outH }
