package usershader

import "github.com/gogpu/usershader/szexp"

// Capacity limits of the pass descriptor. These match the on-disk
// format and must not be raised.
const (
	// MaxHooks is the maximum number of HOOK directives per pass.
	MaxHooks = 16

	// MaxBinds is the maximum number of BIND directives per pass.
	MaxBinds = 16
)

// Transform is a 2x2 linear map with a translation, applied column
// major: y = Mat*x + C.
type Transform struct {
	Mat [2][2]float32
	C   [2]float32
}

// identityTransform returns the identity transform.
func identityTransform() Transform {
	return Transform{Mat: [2][2]float32{{1, 0}, {0, 1}}}
}

// Pass is one parsed user shader pass. The zero value is not valid;
// passes are produced by the document parser with the format's
// defaults filled in.
type Pass struct {
	// Desc is the human-readable description from DESC.
	Desc string

	// HookTex lists the textual stage names the pass hooks, in
	// document order. Any match triggers the pass.
	HookTex []string

	// BindTex lists the texture names the pass binds in its body.
	BindTex []string

	// SaveTex is the name the pass's output is saved under, or empty.
	SaveTex string

	// Body is the raw GLSL text of the pass.
	Body string

	// Offset is the output placement transform from OFFSET. It is
	// parsed and stored but not applied at dispatch time.
	Offset Transform

	// Components is the requested component count, or 0.
	Components int

	// Width, Height and Cond are the output size and execution
	// condition expressions. Defaults: HOOKED.w, HOOKED.h, 1.
	Width  szexp.Expr
	Height szexp.Expr
	Cond   szexp.Expr

	// IsCompute marks compute passes. BlockW/BlockH give the block
	// size; ThreadsW/ThreadsH give the workgroup size in the four
	// argument form of COMPUTE and are zero otherwise.
	IsCompute          bool
	BlockW, BlockH     int
	ThreadsW, ThreadsH int
}
