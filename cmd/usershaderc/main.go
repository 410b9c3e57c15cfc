// Command usershaderc parses an mpv-style user shader document and
// reports the passes and textures it registers. With -stage it also
// drives the hook against a placeholder input texture and prints the
// GLSL each pass emits.
package main

import (
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"

	"github.com/gogpu/usershader"
	"github.com/gogpu/usershader/backend/software"
	"github.com/gogpu/usershader/gpu"
	"github.com/gogpu/usershader/shader"
	"github.com/gogpu/usershader/stage"
	"github.com/gogpu/usershader/video"
)

func main() {
	var (
		stageName = flag.String("stage", "", "emit GLSL for this pipeline stage (e.g. MAIN)")
		width     = flag.Int("width", 1920, "placeholder input width")
		height    = flag.Int("height", 1080, "placeholder input height")
		output    = flag.String("o", "", "write emitted GLSL to this file instead of stdout")
		verbose   = flag.Bool("v", false, "enable debug logging")
	)
	flag.Parse()

	if flag.NArg() != 1 {
		log.Fatalf("usage: usershaderc [flags] shader.hook")
	}

	if *verbose {
		usershader.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})))
	}

	text, err := os.ReadFile(flag.Arg(0))
	if err != nil {
		log.Fatalf("Failed to read document: %v", err)
	}

	g := software.New()
	hook, err := usershader.Parse(g, string(text))
	if err != nil {
		log.Fatalf("Failed to parse document: %v", err)
	}
	defer hook.Destroy()

	for i, rp := range hook.Passes() {
		fmt.Printf("pass %d: %s\n", i, rp.Pass.Desc)
		fmt.Printf("  hooks: %s\n", strings.Join(rp.Pass.HookTex, " "))
		if len(rp.Pass.BindTex) > 0 {
			fmt.Printf("  binds: %s\n", strings.Join(rp.Pass.BindTex, " "))
		}
		if rp.Pass.SaveTex != "" {
			fmt.Printf("  save:  %s\n", rp.Pass.SaveTex)
		}
		if rp.Pass.IsCompute {
			fmt.Printf("  compute: %dx%d\n", rp.Pass.BlockW, rp.Pass.BlockH)
		}
	}
	for _, t := range hook.Textures() {
		p := t.Tex.Params()
		fmt.Printf("texture %s: %dx%dx%d %s\n", t.Name, p.W, p.H, p.D, p.Format.Name)
	}

	if *stageName == "" {
		return
	}
	st := stage.FromName(*stageName)
	if st == 0 {
		log.Fatalf("Unknown stage %q", *stageName)
	}

	fmt_ := gpu.FormatByName(g, "rgba8")
	input, err := g.CreateTexture(&gpu.TexParams{
		W: *width, H: *height, Format: fmt_, Sampleable: true,
	})
	if err != nil {
		log.Fatalf("Failed to create placeholder texture: %v", err)
	}
	defer input.Destroy()

	rect := gpu.Rect{X1: float32(*width), Y1: float32(*height)}
	htex := usershader.HookTex{
		Tex:     input,
		SrcRect: rect,
		Repr: video.ColorRepr{
			Levels: video.LevelsFull,
			Alpha:  video.AlphaIndependent,
			Bits:   video.BitDepth{ColorDepth: 8, SampleDepth: 8},
		},
	}

	var glsl strings.Builder
	hook.Reset()
	for count := 0; ; count++ {
		sh := shader.New()
		status, err := hook.Hook(&usershader.Params{
			Stage:   st,
			Tex:     htex,
			SrcRect: rect,
			DstRect: rect,
			Sh:      sh,
			Count:   count,
		})
		if err != nil {
			log.Fatalf("Hook failed: %v", err)
		}

		if sh.Header() != "" || sh.Main() != "" {
			fmt.Fprintf(&glsl, "// pass %d\n%s%s\n", count, sh.Header(), sh.Main())
		}
		if status&usershader.StatusSave != 0 {
			hook.Save(&usershader.SaveParams{Stage: st, Tex: htex, Count: count})
		}
		if status&usershader.StatusAgain == 0 {
			break
		}
	}

	if *output == "" {
		fmt.Print(glsl.String())
		return
	}
	if err := os.WriteFile(*output, []byte(glsl.String()), 0o644); err != nil {
		log.Fatalf("Failed to write output: %v", err)
	}
	log.Printf("GLSL written to %s", *output)
}
