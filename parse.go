package usershader

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/gogpu/usershader/gpu"
	"github.com/gogpu/usershader/szexp"
)

// Parse builds a hook from a user shader document. The document is a
// sequence of //! header blocks: pass blocks (HOOK, BIND, SAVE, DESC,
// OFFSET, WIDTH, HEIGHT, WHEN, COMPONENTS, COMPUTE followed by a GLSL
// body) and TEXTURE blocks (TEXTURE, SIZE, FORMAT, FILTER, BORDER
// followed by a hex payload). Text before the first header is ignored.
//
// Lookup textures are created on g during parsing. On failure Parse
// destroys everything it created and returns a nil hook.
func Parse(g gpu.GPU, text string) (*Hook, error) {
	h := &Hook{gpu: g, prngState: prngSeed}

	idx := strings.Index(text, "//!")
	if idx < 0 {
		Logger().Error("parsing user shader failed", "err", ErrNoHeaders)
		return nil, ErrNoHeaders
	}
	rest := text[idx:]

	for len(rest) > 0 {
		if strings.HasPrefix(rest, "//!TEXTURE") {
			t, residue, err := parseTexture(g, rest)
			if err != nil {
				Logger().Error("parsing user shader failed", "err", err)
				h.Destroy()
				return nil, err
			}
			rest = residue
			h.registerTexture(t)
			continue
		}

		p, residue, err := parsePass(rest)
		if err != nil {
			Logger().Error("parsing user shader failed", "err", err)
			h.Destroy()
			return nil, err
		}
		rest = residue
		h.registerPass(p)
	}

	return h, nil
}

// parsePass consumes one pass block from the head of body and returns
// the descriptor and the unconsumed remainder.
func parsePass(body string) (Pass, string, error) {
	p := Pass{
		Desc:   "(unknown)",
		Offset: identityTransform(),
		Width:  szexp.VarWExpr("HOOKED"),
		Height: szexp.VarHExpr("HOOKED"),
		Cond:   szexp.ConstExpr(1),
	}

	for {
		line, rest := getLine(body)
		cmd, ok := strings.CutPrefix(strings.TrimSpace(line), "//!")
		if !ok {
			break
		}
		body = rest

		// HOOK must be tried before any command it is a prefix of.
		switch {
		case eat(&cmd, "HOOK"):
			if len(p.HookTex) == MaxHooks {
				return Pass{}, "", fmt.Errorf("%w: passes may only hook up to %d textures", ErrTooManyHooks, MaxHooks)
			}
			p.HookTex = append(p.HookTex, strings.TrimSpace(cmd))

		case eat(&cmd, "BIND"):
			if len(p.BindTex) == MaxBinds {
				return Pass{}, "", fmt.Errorf("%w: passes may only bind up to %d textures", ErrTooManyBinds, MaxBinds)
			}
			p.BindTex = append(p.BindTex, strings.TrimSpace(cmd))

		case eat(&cmd, "SAVE"):
			p.SaveTex = strings.TrimSpace(cmd)

		case eat(&cmd, "DESC"):
			p.Desc = strings.TrimSpace(cmd)

		case eat(&cmd, "OFFSET"):
			var ox, oy float32
			if n, _ := fmt.Sscanf(cmd, "%f %f", &ox, &oy); n != 2 {
				return Pass{}, "", fmt.Errorf("%w: OFFSET %q", ErrBadDirective, strings.TrimSpace(cmd))
			}
			p.Offset.C[0], p.Offset.C[1] = ox, oy

		case eat(&cmd, "WIDTH"):
			e, err := szexp.Parse(cmd)
			if err != nil {
				return Pass{}, "", fmt.Errorf("usershader: parsing WIDTH: %w", err)
			}
			p.Width = e

		case eat(&cmd, "HEIGHT"):
			e, err := szexp.Parse(cmd)
			if err != nil {
				return Pass{}, "", fmt.Errorf("usershader: parsing HEIGHT: %w", err)
			}
			p.Height = e

		case eat(&cmd, "WHEN"):
			e, err := szexp.Parse(cmd)
			if err != nil {
				return Pass{}, "", fmt.Errorf("usershader: parsing WHEN: %w", err)
			}
			p.Cond = e

		case eat(&cmd, "COMPONENTS"):
			if n, _ := fmt.Sscanf(cmd, "%d", &p.Components); n != 1 {
				return Pass{}, "", fmt.Errorf("%w: COMPONENTS %q", ErrBadDirective, strings.TrimSpace(cmd))
			}

		case eat(&cmd, "COMPUTE"):
			n, _ := fmt.Sscanf(cmd, "%d %d %d %d", &p.BlockW, &p.BlockH, &p.ThreadsW, &p.ThreadsH)
			if n != 2 && n != 4 {
				return Pass{}, "", fmt.Errorf("%w: COMPUTE %q", ErrBadDirective, strings.TrimSpace(cmd))
			}
			p.IsCompute = true

		default:
			return Pass{}, "", fmt.Errorf("%w: %q", ErrUnknownCommand, strings.TrimSpace(line))
		}
	}

	p.Body, body = splitBlock(body)

	if len(p.HookTex) == 0 {
		Logger().Warn("pass has no hooked textures and will never run", "desc", p.Desc)
	}

	return p, body, nil
}

// parseTexture consumes one TEXTURE block from the head of body,
// creates and uploads the texture, and returns the unconsumed
// remainder.
func parseTexture(g gpu.GPU, body string) (LutTexture, string, error) {
	name := "USER_TEX"
	params := gpu.TexParams{W: 1, H: 1, Sampleable: true}

	for {
		line, rest := getLine(body)
		cmd, ok := strings.CutPrefix(strings.TrimSpace(line), "//!")
		if !ok {
			break
		}
		body = rest

		switch {
		case eat(&cmd, "TEXTURE"):
			name = strings.TrimSpace(cmd)

		case eat(&cmd, "SIZE"):
			dims, _ := fmt.Sscanf(cmd, "%d %d %d", &params.W, &params.H, &params.D)
			limits := g.Limits()
			var lim int
			switch dims {
			case 1:
				lim = limits.MaxTex1DDim
			case 2:
				lim = limits.MaxTex2DDim
			case 3:
				lim = limits.MaxTex3DDim
			default:
				return LutTexture{}, "", fmt.Errorf("%w: SIZE %q", ErrBadDirective, strings.TrimSpace(cmd))
			}
			if dims >= 3 && (params.D < 1 || params.D > lim) {
				return LutTexture{}, "", fmt.Errorf("%w: %d > %d", ErrSizeLimit, params.D, lim)
			}
			if dims >= 2 && (params.H < 1 || params.H > lim) {
				return LutTexture{}, "", fmt.Errorf("%w: %d > %d", ErrSizeLimit, params.H, lim)
			}
			if params.W < 1 || params.W > lim {
				return LutTexture{}, "", fmt.Errorf("%w: %d > %d", ErrSizeLimit, params.W, lim)
			}
			if dims < 3 {
				params.D = 0
			}
			if dims < 2 {
				params.H = 0
			}

		case eat(&cmd, "FORMAT "):
			fname := strings.TrimSpace(cmd)
			params.Format = gpu.FormatByName(g, fname)
			if params.Format == nil || params.Format.Opaque {
				params.Format = nil
				return LutTexture{}, "", fmt.Errorf("%w: %q", ErrUnknownFormat, fname)
			}
			if params.Format.Caps&gpu.CapSampleable == 0 {
				return LutTexture{}, "", fmt.Errorf("%w: %q is not sampleable", ErrUnknownFormat, fname)
			}

		case eat(&cmd, "FILTER"):
			switch strings.TrimSpace(cmd) {
			case "LINEAR":
				params.SampleMode = gpu.SampleLinear
			case "NEAREST":
				params.SampleMode = gpu.SampleNearest
			default:
				return LutTexture{}, "", fmt.Errorf("%w: FILTER %q", ErrBadDirective, strings.TrimSpace(cmd))
			}

		case eat(&cmd, "BORDER"):
			switch strings.TrimSpace(cmd) {
			case "CLAMP":
				params.AddressMode = gpu.AddressClamp
			case "REPEAT":
				params.AddressMode = gpu.AddressRepeat
			case "MIRROR":
				params.AddressMode = gpu.AddressMirror
			default:
				return LutTexture{}, "", fmt.Errorf("%w: BORDER %q", ErrBadDirective, strings.TrimSpace(cmd))
			}

		default:
			return LutTexture{}, "", fmt.Errorf("%w: %q", ErrUnknownCommand, strings.TrimSpace(line))
		}
	}

	if params.Format == nil {
		return LutTexture{}, "", ErrNoFormat
	}
	if params.SampleMode == gpu.SampleLinear && params.Format.Caps&gpu.CapLinear == 0 {
		return LutTexture{}, "", fmt.Errorf("%w: %q", ErrFormatFilter, params.Format.Name)
	}

	// The remainder up to the next header is the payload: hex digits
	// on a single logical line.
	hexText, rest := splitBlock(body)
	data, err := hex.DecodeString(strings.TrimSpace(hexText))
	if err != nil {
		return LutTexture{}, "", fmt.Errorf("%w: %v", ErrPayloadHex, err)
	}

	texels := params.W * max(params.H, 1) * max(params.D, 1)
	want := texels * params.Format.TexelSize
	if len(data) != want {
		return LutTexture{}, "", fmt.Errorf("%w: got %d bytes, expected %d", ErrPayloadSize, len(data), want)
	}

	params.Data = data
	tex, err := g.CreateTexture(&params)
	if err != nil {
		return LutTexture{}, "", fmt.Errorf("usershader: uploading texture %q: %w", name, err)
	}

	return LutTexture{Name: name, Tex: tex}, rest, nil
}

// getLine returns the first line of s, newline included, and the rest.
func getLine(s string) (line, rest string) {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i+1], s[i+1:]
	}
	return s, ""
}

// eat strips prefix from *s and reports whether it was present.
func eat(s *string, prefix string) bool {
	rest, ok := strings.CutPrefix(*s, prefix)
	if ok {
		*s = rest
	}
	return ok
}

// splitBlock splits s at the next header marker. The marker stays at
// the head of the remainder so the next block parser sees its own
// header.
func splitBlock(s string) (head, rest string) {
	if i := strings.Index(s, "//!"); i >= 0 {
		return s[:i], s[i:]
	}
	return s, ""
}
