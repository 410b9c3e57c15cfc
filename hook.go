package usershader

import (
	"github.com/gogpu/usershader/gpu"
	"github.com/gogpu/usershader/stage"
)

// LutTexture is an auxiliary lookup texture parsed from a //!TEXTURE
// block. The hook owns the texture and destroys it on teardown.
type LutTexture struct {
	Name string
	Tex  gpu.Texture
}

// RegisteredPass is a pass together with the stage set it executes at,
// resolved from its HOOK directives at registration time.
type RegisteredPass struct {
	ExecStages stage.Stage
	Pass       Pass
}

// passTexture is a dynamic binding entry: a texture saved during the
// current frame, addressable by name from later passes.
type passTexture struct {
	name string
	tex  HookTex
}

// Hook is a parsed user shader document: an ordered list of passes,
// the lookup textures they reference, and the per-frame execution
// state. A Hook is built once by [Parse] and is immutable afterwards
// except for the state mutated by Reset, Hook and Save.
//
// A Hook is not safe for concurrent use. All entry points are expected
// to be called from a single renderer thread.
type Hook struct {
	gpu gpu.GPU

	passes      []RegisteredPass
	lutTextures []LutTexture

	// saveStages is the union of stages whose outputs some pass wants
	// to bind. The host must offer these stages to the hook even if no
	// pass executes there.
	saveStages stage.Stage

	passTextures []passTexture

	frameCount int
	prngState  [4]uint64
}

// registerPass resolves a pass's stage names and appends it.
func (h *Hook) registerPass(p Pass) {
	rp := RegisteredPass{Pass: p}
	for _, name := range p.HookTex {
		rp.ExecStages |= stage.FromName(name)
	}
	for _, name := range p.BindTex {
		h.saveStages |= stage.FromName(name)
		if name == "HOOKED" {
			h.saveStages |= rp.ExecStages
		}
	}

	Logger().Info("registering hook pass",
		"desc", p.Desc,
		"stages", rp.ExecStages,
		"save", p.SaveTex,
		"compute", p.IsCompute)
	h.passes = append(h.passes, rp)
}

// registerTexture appends a lookup texture.
func (h *Hook) registerTexture(t LutTexture) {
	Logger().Info("registering lookup texture", "name", t.Name)
	h.lutTextures = append(h.lutTextures, t)
}

// Stages returns the set of pipeline stages the host must call the
// hook at: every stage some pass executes at, plus every stage whose
// input some pass binds.
func (h *Hook) Stages() stage.Stage {
	s := h.saveStages
	for i := range h.passes {
		s |= h.passes[i].ExecStages
	}
	return s
}

// Passes returns the registered passes in document order.
func (h *Hook) Passes() []RegisteredPass { return h.passes }

// Textures returns the lookup textures in document order.
func (h *Hook) Textures() []LutTexture { return h.lutTextures }

// Reset clears the per-frame pass texture table. The host calls it
// once per frame before the first hook invocation. Frame count and
// PRNG state persist across frames.
func (h *Hook) Reset() {
	h.passTextures = h.passTextures[:0]
}

// Destroy releases the hook's lookup textures. Destroy is idempotent.
func (h *Hook) Destroy() {
	for i := range h.lutTextures {
		if h.lutTextures[i].Tex != nil {
			h.lutTextures[i].Tex.Destroy()
		}
	}
	h.lutTextures = nil
}
