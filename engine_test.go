package usershader

import (
	"errors"
	"strings"
	"testing"

	"github.com/gogpu/usershader/backend/software"
	"github.com/gogpu/usershader/gpu"
	"github.com/gogpu/usershader/shader"
	"github.com/gogpu/usershader/stage"
	"github.com/gogpu/usershader/szexp"
	"github.com/gogpu/usershader/video"
)

func newHookTex(t *testing.T, g gpu.GPU, w, h int) HookTex {
	t.Helper()
	tex, err := g.CreateTexture(&gpu.TexParams{
		W: w, H: h, Format: gpu.FormatByName(g, "rgba8"), Sampleable: true,
	})
	if err != nil {
		t.Fatalf("CreateTexture() = %v", err)
	}
	t.Cleanup(tex.Destroy)
	return HookTex{
		Tex:     tex,
		SrcRect: gpu.Rect{X1: float32(w), Y1: float32(h)},
		Repr: video.ColorRepr{
			Levels: video.LevelsFull,
			Alpha:  video.AlphaIndependent,
			Bits:   video.BitDepth{ColorDepth: 8, SampleDepth: 8},
		},
	}
}

func newParams(st stage.Stage, tex HookTex, count int) *Params {
	return &Params{
		Stage:   st,
		Tex:     tex,
		SrcRect: tex.SrcRect,
		DstRect: tex.SrcRect,
		Sh:      shader.New(),
		Count:   count,
	}
}

func findVar(sh *shader.Shader, name string) (shader.Var, bool) {
	for _, bv := range sh.Vars() {
		if bv.Var.Name == name {
			return bv.Var, true
		}
	}
	return shader.Var{}, false
}

func TestHookMinimalPass(t *testing.T) {
	g := software.New()
	h := mustParse(t, g, "//!HOOK MAIN\nvec4 hook() { return vec4(1.0); }\n")
	in := newHookTex(t, g, 640, 480)

	p := newParams(stage.RGBOverlay, in, 0)
	status, err := h.Hook(p)
	if err != nil {
		t.Fatalf("Hook() = %v", err)
	}
	if status != 0 {
		t.Errorf("status = %v, want 0", status)
	}

	if got := p.Sh.Main(); got != "vec4 color = hook(); \n" {
		t.Errorf("Main() = %q", got)
	}
	if !strings.Contains(p.Sh.Header(), "vec4 hook()") {
		t.Errorf("Header() = %q, missing pass body", p.Sh.Header())
	}
	if w, ht := p.Sh.OutputSize(); w != 640 || ht != 480 {
		t.Errorf("OutputSize() = %dx%d, want 640x480", w, ht)
	}
}

func TestHookWrongStage(t *testing.T) {
	g := software.New()
	h := mustParse(t, g, "//!HOOK MAIN\nvoid hook() {}\n")
	in := newHookTex(t, g, 640, 480)

	p := newParams(stage.LumaInput, in, 0)
	status, err := h.Hook(p)
	if err != nil || status != 0 {
		t.Errorf("Hook() = (%v, %v), want (0, nil)", status, err)
	}
	if p.Sh.Header() != "" || p.Sh.Main() != "" {
		t.Error("shader should be untouched when no pass matches")
	}
}

func TestHookGlobalDefines(t *testing.T) {
	g := software.New()
	h := mustParse(t, g, "//!HOOK MAIN\nvec4 hook() { return vec4(float(frame)); }\n")
	in := newHookTex(t, g, 640, 480)

	p := newParams(stage.RGBOverlay, in, 0)
	if _, err := h.Hook(p); err != nil {
		t.Fatalf("Hook() = %v", err)
	}

	header := p.Sh.Header()
	for _, name := range []string{"frame", "random", "input_size", "target_size", "tex_offset"} {
		if !strings.Contains(header, "#define "+name+" ") {
			t.Errorf("Header() missing %s define", name)
		}
		if _, ok := findVar(p.Sh, name); !ok {
			t.Errorf("Vars() missing %s", name)
		}
	}

	size, _ := findVar(p.Sh, "input_size")
	if size.Data != [2]float32{640, 480} {
		t.Errorf("input_size = %v, want [640 480]", size.Data)
	}
}

func TestHookBindHooked(t *testing.T) {
	g := software.New()
	h := mustParse(t, g, "//!HOOK MAIN\n//!BIND HOOKED\nvec4 hook() { return HOOKED_texOff(vec2(0.0)); }\n")
	in := newHookTex(t, g, 640, 480)

	p := newParams(stage.RGBOverlay, in, 0)
	if _, err := h.Hook(p); err != nil {
		t.Fatalf("Hook() = %v", err)
	}

	header := p.Sh.Header()
	for _, want := range []string{
		"#define MAIN_raw ",
		"#define MAIN_pos ",
		"#define MAIN_size ",
		"#define MAIN_pt ",
		"#define MAIN_off ",
		"#define MAIN_mul 1.000000 \n",
		"#define MAIN_rot mat2(1.0, 0.0, 0.0, 1.0) \n",
		"#define MAIN_tex(pos) ",
		"#define MAIN_texOff(off) ",
		"#define HOOKED_raw MAIN_raw \n",
		"#define HOOKED_map MAIN_map \n",
		"#define HOOKED_texOff MAIN_texOff \n",
	} {
		if !strings.Contains(header, want) {
			t.Errorf("Header() missing %q", want)
		}
	}

	binds := p.Sh.Binds()
	if len(binds) != 1 || binds[0].Tex != in.Tex {
		t.Errorf("Binds() = %v, want the input texture", binds)
	}
}

func TestHookWidthExpression(t *testing.T) {
	g := software.New()
	doc := "//!HOOK MAIN\n//!WIDTH HOOKED.w 2 *\n//!HEIGHT HOOKED.h 2 *\nvoid hook() {}\n"
	h := mustParse(t, g, doc)
	in := newHookTex(t, g, 640, 480)

	p := newParams(stage.RGBOverlay, in, 0)
	if _, err := h.Hook(p); err != nil {
		t.Fatalf("Hook() = %v", err)
	}
	if w, ht := p.Sh.OutputSize(); w != 1280 || ht != 960 {
		t.Errorf("OutputSize() = %dx%d, want 1280x960", w, ht)
	}
}

func TestHookWhenSkips(t *testing.T) {
	g := software.New()
	h := mustParse(t, g, "//!HOOK MAIN\n//!WHEN 0\n//!SAVE MID\nvoid hook() {}\n")
	in := newHookTex(t, g, 640, 480)

	p := newParams(stage.RGBOverlay, in, 0)
	status, err := h.Hook(p)
	if err != nil {
		t.Fatalf("Hook() = %v", err)
	}
	// A skipped pass must not request a save.
	if status != 0 {
		t.Errorf("status = %v, want 0", status)
	}
	if p.Sh.Header() != "" || p.Sh.Main() != "" {
		t.Error("skipped pass should not emit any code")
	}
}

func TestHookWhenCondition(t *testing.T) {
	g := software.New()
	h := mustParse(t, g, "//!HOOK MAIN\n//!WHEN OUTPUT.w HOOKED.w >\nvoid hook() {}\n")
	in := newHookTex(t, g, 640, 480)

	// Not upscaling: skipped.
	p := newParams(stage.RGBOverlay, in, 0)
	if _, err := h.Hook(p); err != nil {
		t.Fatalf("Hook() = %v", err)
	}
	if p.Sh.Main() != "" {
		t.Error("pass should be skipped when not upscaling")
	}

	// Upscaling: runs.
	p = newParams(stage.RGBOverlay, in, 0)
	p.DstRect = gpu.Rect{X1: 1920, Y1: 1080}
	if _, err := h.Hook(p); err != nil {
		t.Fatalf("Hook() = %v", err)
	}
	if p.Sh.Main() == "" {
		t.Error("pass should run when upscaling")
	}
}

func TestHookWhenEvalError(t *testing.T) {
	g := software.New()
	h := mustParse(t, g, "//!HOOK MAIN\n//!WHEN NOSUCH.w\nvoid hook() {}\n")
	in := newHookTex(t, g, 640, 480)

	if _, err := h.Hook(newParams(stage.RGBOverlay, in, 0)); !errors.Is(err, szexp.ErrUnknownVariable) {
		t.Errorf("Hook() = %v, want %v", err, szexp.ErrUnknownVariable)
	}
}

func TestHookAgainChain(t *testing.T) {
	g := software.New()
	doc := "//!HOOK OUTPUT\n//!DESC first\nvoid hook() {}\n" +
		"//!HOOK OUTPUT\n//!DESC second\nvoid hook() {}\n" +
		"//!HOOK OUTPUT\n//!DESC third\nvoid hook() {}\n"
	h := mustParse(t, g, doc)
	in := newHookTex(t, g, 1920, 1080)

	for count := 0; count < 3; count++ {
		status, err := h.Hook(newParams(stage.Output, in, count))
		if err != nil {
			t.Fatalf("Hook(count=%d) = %v", count, err)
		}
		wantAgain := count < 2
		if got := status&StatusAgain != 0; got != wantAgain {
			t.Errorf("Hook(count=%d) again = %v, want %v", count, got, wantAgain)
		}
	}
}

func TestHookAgainIgnoresCondition(t *testing.T) {
	// A later pass keeps the chain alive even when the current one is
	// condition-skipped.
	g := software.New()
	doc := "//!HOOK OUTPUT\n//!WHEN 0\nvoid hook() {}\n" +
		"//!HOOK OUTPUT\nvoid hook() {}\n"
	h := mustParse(t, g, doc)
	in := newHookTex(t, g, 1920, 1080)

	status, err := h.Hook(newParams(stage.Output, in, 0))
	if err != nil {
		t.Fatalf("Hook() = %v", err)
	}
	if status&StatusAgain == 0 {
		t.Error("skipped pass should still report a pending pass")
	}
}

func TestHookSaveAndBind(t *testing.T) {
	g := software.New()
	doc := "//!HOOK LUMA\n//!SAVE MID\nvec4 hook() { return vec4(0.5); }\n" +
		"//!HOOK CHROMA\n//!BIND MID\nvec4 hook() { return MID_tex(MID_pos); }\n"
	h := mustParse(t, g, doc)
	h.Reset()

	luma := newHookTex(t, g, 640, 480)
	chroma := newHookTex(t, g, 320, 240)

	status, err := h.Hook(newParams(stage.LumaInput, luma, 0))
	if err != nil {
		t.Fatalf("Hook(LUMA) = %v", err)
	}
	if status&StatusSave == 0 {
		t.Fatal("saving pass did not request a save")
	}

	mid := newHookTex(t, g, 640, 480)
	h.Save(&SaveParams{Stage: stage.LumaInput, Tex: mid, Count: 0})

	p := newParams(stage.ChromaInput, chroma, 0)
	if _, err := h.Hook(p); err != nil {
		t.Fatalf("Hook(CHROMA) = %v", err)
	}
	if !strings.Contains(p.Sh.Header(), "#define MID_raw ") {
		t.Error("saved texture was not bound by the later pass")
	}
}

func TestHookImplicitSave(t *testing.T) {
	// Binding a stage name saves that stage's input even when no pass
	// executes there.
	g := software.New()
	h := mustParse(t, g, "//!HOOK CHROMA\n//!BIND LUMA\nvec4 hook() { return LUMA_tex(LUMA_pos); }\n")
	h.Reset()

	luma := newHookTex(t, g, 640, 480)
	chroma := newHookTex(t, g, 320, 240)

	if st := h.Stages(); st&stage.LumaInput == 0 {
		t.Fatal("Stages() must include the bound input stage")
	}

	status, err := h.Hook(newParams(stage.LumaInput, luma, 0))
	if err != nil || status != 0 {
		t.Fatalf("Hook(LUMA) = (%v, %v), want (0, nil)", status, err)
	}

	p := newParams(stage.ChromaInput, chroma, 0)
	if _, err := h.Hook(p); err != nil {
		t.Fatalf("Hook(CHROMA) = %v", err)
	}
	if !strings.Contains(p.Sh.Header(), "#define LUMA_raw ") {
		t.Error("bound input stage was not available to the pass")
	}
}

func TestHookUnresolvedBind(t *testing.T) {
	g := software.New()
	h := mustParse(t, g, "//!HOOK MAIN\n//!BIND NOSUCH\nvoid hook() {}\n")
	in := newHookTex(t, g, 640, 480)

	p := newParams(stage.RGBOverlay, in, 0)
	if _, err := h.Hook(p); err != nil {
		t.Fatalf("Hook() = %v", err)
	}
	if strings.Contains(p.Sh.Header(), "NOSUCH_raw") {
		t.Error("unresolved bind should not emit defines")
	}
	if p.Sh.Main() == "" {
		t.Error("pass should still run with an unresolved bind")
	}
}

func TestHookBindLut(t *testing.T) {
	g := software.New()
	doc := "//!TEXTURE LUT\n//!FORMAT rgba8\ndeadbeef\n" +
		"//!HOOK MAIN\n//!BIND LUT\nvec4 hook() { return texture(LUT, vec2(0.5)); }\n"
	h := mustParse(t, g, doc)
	in := newHookTex(t, g, 640, 480)

	p := newParams(stage.RGBOverlay, in, 0)
	if _, err := h.Hook(p); err != nil {
		t.Fatalf("Hook() = %v", err)
	}
	if !strings.Contains(p.Sh.Header(), "#define LUT ") {
		t.Error("lookup texture was not bound")
	}
	descs := p.Sh.Descriptors()
	if len(descs) != 1 || descs[0].Tex != h.Textures()[0].Tex {
		t.Errorf("Descriptors() = %v, want the lookup texture", descs)
	}
}

func TestHookCompute(t *testing.T) {
	g := software.New()
	h := mustParse(t, g, "//!HOOK MAIN\n//!COMPUTE 16 16\nvoid hook() {}\n")
	in := newHookTex(t, g, 640, 480)

	p := newParams(stage.RGBOverlay, in, 0)
	if _, err := h.Hook(p); err != nil {
		t.Fatalf("Hook() = %v", err)
	}
	if !p.Sh.IsCompute() {
		t.Error("IsCompute() = false")
	}
	if w, ht := p.Sh.BlockSize(); w != 16 || ht != 16 {
		t.Errorf("BlockSize() = %dx%d, want 16x16", w, ht)
	}
	if got := p.Sh.Main(); got != "hook(); \n" {
		t.Errorf("Main() = %q, want %q", got, "hook(); \n")
	}
}

func TestHookComputeConflict(t *testing.T) {
	g := software.New()
	doc := "//!HOOK MAIN\n//!COMPUTE 16 16\nvoid hook() {}\n" +
		"//!HOOK MAIN\n//!COMPUTE 8 8\nvoid hook() {}\n"
	h := mustParse(t, g, doc)
	in := newHookTex(t, g, 640, 480)

	p := newParams(stage.RGBOverlay, in, 0)
	if _, err := h.Hook(p); err != nil {
		t.Fatalf("Hook(count=0) = %v", err)
	}

	// Splicing the second pass into the same shader must fail.
	p.Count = 1
	if _, err := h.Hook(p); !errors.Is(err, ErrComputeDispatch) {
		t.Errorf("Hook(count=1) = %v, want %v", err, ErrComputeDispatch)
	}
}

func TestHookSizeConflict(t *testing.T) {
	g := software.New()
	doc := "//!HOOK MAIN\nvoid hook() {}\n" +
		"//!HOOK MAIN\n//!WIDTH HOOKED.w 2 *\nvoid hook() {}\n"
	h := mustParse(t, g, doc)
	in := newHookTex(t, g, 640, 480)

	p := newParams(stage.RGBOverlay, in, 0)
	if _, err := h.Hook(p); err != nil {
		t.Fatalf("Hook(count=0) = %v", err)
	}

	p.Count = 1
	if _, err := h.Hook(p); !errors.Is(err, ErrSizeRequirement) {
		t.Errorf("Hook(count=1) = %v, want %v", err, ErrSizeRequirement)
	}
}

func TestHookFrameCounter(t *testing.T) {
	g := software.New()
	h := mustParse(t, g, "//!HOOK MAIN\nvoid hook() {}\n")
	in := newHookTex(t, g, 640, 480)

	for want := 1; want <= 3; want++ {
		h.Reset()
		p := newParams(stage.RGBOverlay, in, 0)
		if _, err := h.Hook(p); err != nil {
			t.Fatalf("Hook() = %v", err)
		}
		frame, ok := findVar(p.Sh, "frame")
		if !ok {
			t.Fatal("Vars() missing frame")
		}
		if got := int(frame.Data[0]); got != want {
			t.Errorf("frame = %d, want %d", got, want)
		}
		if !frame.Dynamic {
			t.Error("frame variable must be dynamic")
		}
	}
}

func TestHookRandomDeterministic(t *testing.T) {
	g := software.New()
	doc := "//!HOOK MAIN\nvoid hook() {}\n"

	sample := func() float32 {
		h := mustParse(t, g, doc)
		in := newHookTex(t, g, 640, 480)
		p := newParams(stage.RGBOverlay, in, 0)
		if _, err := h.Hook(p); err != nil {
			t.Fatalf("Hook() = %v", err)
		}
		random, ok := findVar(p.Sh, "random")
		if !ok {
			t.Fatal("Vars() missing random")
		}
		return random.Data[0]
	}

	a, b := sample(), sample()
	if a != b {
		t.Errorf("first random draw differs between hooks: %v vs %v", a, b)
	}
	if a < 0 || a >= 1 {
		t.Errorf("random = %v, want [0, 1)", a)
	}
}

func TestReset(t *testing.T) {
	g := software.New()
	doc := "//!HOOK LUMA\n//!SAVE MID\nvoid hook() {}\n" +
		"//!HOOK CHROMA\n//!BIND MID\nvoid hook() {}\n"
	h := mustParse(t, g, doc)
	h.Reset()

	luma := newHookTex(t, g, 640, 480)
	chroma := newHookTex(t, g, 320, 240)

	if _, err := h.Hook(newParams(stage.LumaInput, luma, 0)); err != nil {
		t.Fatalf("Hook(LUMA) = %v", err)
	}
	h.Save(&SaveParams{Stage: stage.LumaInput, Tex: luma, Count: 0})

	// A new frame forgets the saved texture.
	h.Reset()
	p := newParams(stage.ChromaInput, chroma, 0)
	if _, err := h.Hook(p); err != nil {
		t.Fatalf("Hook(CHROMA) = %v", err)
	}
	if strings.Contains(p.Sh.Header(), "MID_raw") {
		t.Error("saved texture survived Reset")
	}
}

func TestSaveWithoutMatchingPass(t *testing.T) {
	g := software.New()
	h := mustParse(t, g, "//!HOOK MAIN\nvoid hook() {}\n")
	in := newHookTex(t, g, 640, 480)

	// No pass saves at OUTPUT; the call is ignored.
	h.Save(&SaveParams{Stage: stage.Output, Tex: in, Count: 0})

	p := newParams(stage.RGBOverlay, in, 0)
	if _, err := h.Hook(p); err != nil {
		t.Fatalf("Hook() = %v", err)
	}
}
