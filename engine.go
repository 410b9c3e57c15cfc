package usershader

import (
	"fmt"

	"github.com/gogpu/usershader/gpu"
	"github.com/gogpu/usershader/shader"
	"github.com/gogpu/usershader/stage"
	"github.com/gogpu/usershader/szexp"
	"github.com/gogpu/usershader/video"
)

// HookTex is a texture as handed around by the renderer: the handle,
// its source crop rectangle, and its color representation.
type HookTex struct {
	Tex     gpu.Texture
	SrcRect gpu.Rect
	Repr    video.ColorRepr
}

// Params are the inputs to one hook invocation.
type Params struct {
	// Stage is the pipeline stage being hooked. Exactly one bit set.
	Stage stage.Stage

	// Tex is the current input texture at this stage.
	Tex HookTex

	// SrcRect and DstRect are the overall source and target
	// rectangles of the frame.
	SrcRect gpu.Rect
	DstRect gpu.Rect

	// Sh is the shader buffer the pass is spliced into.
	Sh *shader.Shader

	// Count is the zero-based index of this invocation within the
	// current stage. It starts at 0 and the host increments it after
	// every invocation that returned StatusAgain.
	Count int
}

// SaveParams are the inputs to the save callback.
type SaveParams struct {
	Stage stage.Stage
	Tex   HookTex
	Count int
}

// Status is the bitmask a hook invocation reports back to the host.
type Status uint8

// Status bits. A zero status means the stage is done.
const (
	// StatusSave asks the host to call Save with the pass's output.
	StatusSave Status = 1 << 0

	// StatusAgain asks the host to invoke the hook again with the
	// next count; more passes match the current stage.
	StatusAgain Status = 1 << 1
)

// selectPass walks the pass list and returns the count-th pass
// matching st, together with the total number of matching passes. One
// walk serves both so Hook can decide on StatusAgain.
func (h *Hook) selectPass(st stage.Stage, count int) (pass *RegisteredPass, totalCount int) {
	for i := range h.passes {
		if h.passes[i].ExecStages&st == 0 {
			continue
		}
		totalCount++
		if totalCount-1 < count {
			continue
		}
		if pass == nil {
			pass = &h.passes[i]
		}
	}
	return pass, totalCount
}

// lookupTex resolves expression variables for one invocation: the
// reserved names HOOKED, NATIVE_CROPPED and OUTPUT, then the dynamic
// pass texture table.
func (h *Hook) lookupTex(p *Params) szexp.LookupFunc {
	return func(name string) (w, ht float32, ok bool) {
		switch name {
		case "HOOKED":
			tp := p.Tex.Tex.Params()
			return float32(tp.W), float32(tp.H), true
		case "NATIVE_CROPPED":
			return p.SrcRect.W(), p.SrcRect.H(), true
		case "OUTPUT":
			return p.DstRect.W(), p.DstRect.H(), true
		}
		for i := range h.passTextures {
			if h.passTextures[i].name == name {
				tp := h.passTextures[i].tex.Tex.Params()
				return float32(tp.W), float32(tp.H), true
			}
		}
		return 0, 0, false
	}
}

// Hook executes the next pass matching p.Stage, if any, emitting its
// binding preamble and body into p.Sh. It returns the status bits the
// host should act on, or an error that aborts the frame's use of this
// hook. A zero status with a nil error means no pass ran and none
// remain.
func (h *Hook) Hook(p *Params) (Status, error) {
	stageName := stage.Name(p.Stage)

	// Save the input texture if a later pass binds it, but only once
	// per stage entry.
	if p.Count == 0 && h.saveStages&p.Stage != 0 {
		Logger().Debug("saving input texture for binding", "name", stageName)
		h.passTextures = append(h.passTextures, passTexture{name: stageName, tex: p.Tex})
	}

	pass, totalCount := h.selectPass(p.Stage, p.Count)
	if pass == nil {
		return 0, nil
	}

	hook := &pass.Pass
	var ret Status

	Logger().Debug("executing hook pass",
		"count", p.Count,
		"total", totalCount,
		"stage", stageName,
		"desc", hook.Desc)

	lookup := h.lookupTex(p)

	run, err := szexp.Eval(&hook.Cond, lookup)
	if err != nil {
		err = fmt.Errorf("usershader: evaluating WHEN: %w", err)
		Logger().Error("hook pass failed", "desc", hook.Desc, "err", err)
		return 0, err
	}

	if run != 0 {
		if err := h.execPass(p, hook, stageName, lookup); err != nil {
			Logger().Error("hook pass failed", "desc", hook.Desc, "err", err)
			return 0, err
		}
		if hook.SaveTex != "" {
			ret |= StatusSave
		}
	} else {
		Logger().Debug("skipping pass, condition is zero", "desc", hook.Desc)
	}

	if p.Count+1 < totalCount {
		ret |= StatusAgain
	}
	return ret, nil
}

// execPass runs steps that only happen when the pass's condition
// holds: compute dispatch, size negotiation, texture binds, the
// global preamble, and the body splice.
func (h *Hook) execPass(p *Params, hook *Pass, stageName string, lookup szexp.LookupFunc) error {
	sh := p.Sh

	if hook.IsCompute {
		if !sh.TryCompute(hook.BlockW, hook.BlockH) {
			return ErrComputeDispatch
		}
	}

	outW, err := szexp.Eval(&hook.Width, lookup)
	if err != nil {
		return fmt.Errorf("usershader: evaluating WIDTH: %w", err)
	}
	outH, err := szexp.Eval(&hook.Height, lookup)
	if err != nil {
		return fmt.Errorf("usershader: evaluating HEIGHT: %w", err)
	}

	if !sh.Require(shader.SigNone, int(outW), int(outH)) {
		return ErrSizeRequirement
	}

binds:
	for _, name := range hook.BindTex {
		if name == "" {
			continue
		}

		if name == "HOOKED" {
			if err := bindHookTex(sh, stageName, &p.Tex); err != nil {
				return err
			}
			// The _map alias dangles: no stage-named _map macro is
			// ever defined, so expanding HOOKED_map is a GLSL error.
			for _, suffix := range [...]string{
				"raw", "pos", "size", "rot", "off", "pt", "map", "mul", "tex", "texOff",
			} {
				sh.Headerf("#define HOOKED_%s %s_%s \n", suffix, stageName, suffix)
			}
			continue
		}

		for i := range h.lutTextures {
			if h.lutTextures[i].Name == name {
				id := sh.Desc("hook_lut", h.lutTextures[i].Tex)
				sh.Headerf("#define %s %s \n", name, id)
				continue binds
			}
		}

		for i := range h.passTextures {
			if h.passTextures[i].name == name {
				if err := bindHookTex(sh, name, &h.passTextures[i].tex); err != nil {
					return err
				}
				continue binds
			}
		}

		// Unresolved binds are skipped without error; the undefined
		// macro surfaces as a GLSL compile error if the body uses it.
		Logger().Debug("skipping unresolved bind", "name", name)
	}

	h.frameCount++
	frame := sh.Var(shader.IntVar("frame", h.frameCount, true))
	sh.Headerf("#define frame %s \n", frame)

	random := sh.Var(shader.FloatVar("random", prngStep(&h.prngState), true))
	sh.Headerf("#define random %s \n", random)

	inSize := sh.Var(shader.Vec2Var("input_size", p.SrcRect.W(), p.SrcRect.H()))
	sh.Headerf("#define input_size %s \n", inSize)

	dstSize := sh.Var(shader.Vec2Var("target_size", p.DstRect.W(), p.DstRect.H()))
	sh.Headerf("#define target_size %s \n", dstSize)

	texOff := sh.Var(shader.Vec2Var("tex_offset", p.Tex.SrcRect.X0, p.Tex.SrcRect.Y0))
	sh.Headerf("#define tex_offset %s \n", texOff)

	sh.HeaderString(hook.Body)

	if hook.IsCompute {
		sh.Mainf("hook(); \n")
	} else {
		sh.Mainf("vec4 color = hook(); \n")
	}

	return nil
}

// bindHookTex binds htex under the logical name and emits the full
// macro preamble user shaders rely on. The macro names are part of the
// format's compatibility contract.
func bindHookTex(sh *shader.Shader, name string, htex *HookTex) error {
	id, pos, size, pt, err := sh.BindTexture(htex.Tex, "hook_tex", htex.SrcRect)
	if err != nil {
		return err
	}

	sh.Headerf("#define %s_raw %s \n", name, id)
	sh.Headerf("#define %s_pos %s \n", name, pos)
	sh.Headerf("#define %s_size %s \n", name, size)
	sh.Headerf("#define %s_pt %s \n", name, pt)

	off := sh.Var(shader.Vec2Var("offset", htex.SrcRect.X0, htex.SrcRect.Y0))
	sh.Headerf("#define %s_off %s \n", name, off)

	repr := htex.Repr
	scale := repr.Normalize()
	sh.Headerf("#define %s_mul %f \n", name, scale)

	// mpv compatibility macro.
	sh.Headerf("#define %s_rot mat2(1.0, 0.0, 0.0, 1.0) \n", name)

	sh.Headerf("#define %s_tex(pos) (%f * vec4(texture(%s, pos))) \n", name, scale, id)
	sh.Headerf("#define %s_texOff(off) (%s_tex(%s + %s * vec2(off))) \n", name, name, pos, pt)

	return nil
}

// Save records a pass's output texture under the pass's SAVE name.
// The host calls it after a Hook invocation returned StatusSave, with
// the same stage and count.
func (h *Hook) Save(p *SaveParams) {
	pass, _ := h.selectPass(p.Stage, p.Count)
	if pass == nil || pass.Pass.SaveTex == "" {
		Logger().Warn("save callback without a matching saving pass",
			"stage", stage.Name(p.Stage),
			"count", p.Count)
		return
	}

	Logger().Debug("saving output texture",
		"name", pass.Pass.SaveTex,
		"stage", stage.Name(p.Stage))
	h.passTextures = append(h.passTextures, passTexture{name: pass.Pass.SaveTex, tex: p.Tex})
}
