// Package usershader parses and executes mpv-style user shader hooks
// for a GPU video renderer.
//
// # Overview
//
// A user shader is a text document of //! header blocks: shader passes
// that hook named pipeline stages, and auxiliary lookup textures with
// inline hex payloads. Parsing a document yields a [Hook] that the
// surrounding renderer drives at each pipeline stage. Each invocation
// selects the next matching pass, evaluates its size and condition
// expressions, binds input textures with the conventional macro
// preamble (NAME_tex, NAME_pos, NAME_pt, ...), splices the user's GLSL
// body into a shader buffer, and signals save/repeat state back.
//
// # Quick Start
//
//	import "github.com/gogpu/usershader"
//
//	hook, err := usershader.Parse(gpuBackend, document)
//	if err != nil {
//		return err
//	}
//	defer hook.Destroy()
//
//	// Per frame:
//	hook.Reset()
//	for count := 0; ; count++ {
//		status, err := hook.Hook(&usershader.Params{
//			Stage: stage.RGBOverlay,
//			Tex:   input,
//			Sh:    sh,
//			Count: count,
//		})
//		if err != nil {
//			return err
//		}
//		if status&usershader.StatusSave != 0 {
//			// render sh to a texture, then:
//			hook.Save(&usershader.SaveParams{Stage: stage.RGBOverlay, Tex: result, Count: count})
//		}
//		if status&usershader.StatusAgain == 0 {
//			break
//		}
//	}
//
// # Architecture
//
// The module is organized into:
//   - Root package: document parser, pass registry, execution engine
//   - szexp: the RPN size/condition expression language
//   - stage: pipeline stage bitset and name mapping
//   - gpu: the capability interface backends implement
//   - shader: the GLSL shader buffer passes are spliced into
//   - video: color representation metadata
//   - backend/software, backend/native: gpu implementations
//   - render: integration with a host gpucontext device
//
// The package never compiles or validates GLSL; it emits fragments the
// host renderer assembles into complete shaders.
package usershader
