// Command lutgen converts an image file into a //!TEXTURE block ready
// to paste into a user shader document. PNG, JPEG and BMP inputs are
// decoded; the texels are converted and optionally rescaled to the
// requested format's layout before hex encoding.
package main

import (
	"encoding/hex"
	"flag"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"log"
	"os"
	"strings"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
)

func main() {
	var (
		format = flag.String("format", "rgba8", "texture format: rgba8, bgra8 or r8")
		name   = flag.String("name", "USER_TEX", "TEXTURE name")
		filter = flag.String("filter", "LINEAR", "FILTER mode: LINEAR or NEAREST")
		width  = flag.Int("width", 0, "rescale to this width (0 keeps the source width)")
		height = flag.Int("height", 0, "rescale to this height (0 keeps the source height)")
		output = flag.String("o", "", "write the block to this file instead of stdout")
	)
	flag.Parse()

	if flag.NArg() != 1 {
		log.Fatalf("usage: lutgen [flags] image.png")
	}

	f, err := os.Open(flag.Arg(0))
	if err != nil {
		log.Fatalf("Failed to open image: %v", err)
	}
	defer f.Close()

	src, _, err := image.Decode(f)
	if err != nil {
		log.Fatalf("Failed to decode image: %v", err)
	}

	w, h := src.Bounds().Dx(), src.Bounds().Dy()
	if *width > 0 {
		w = *width
	}
	if *height > 0 {
		h = *height
	}

	data, err := convert(src, *format, w, h)
	if err != nil {
		log.Fatalf("Failed to convert image: %v", err)
	}

	var block strings.Builder
	fmt.Fprintf(&block, "//!TEXTURE %s\n", *name)
	fmt.Fprintf(&block, "//!SIZE %d %d\n", w, h)
	fmt.Fprintf(&block, "//!FORMAT %s\n", *format)
	fmt.Fprintf(&block, "//!FILTER %s\n", *filter)
	fmt.Fprintf(&block, "%s\n", hex.EncodeToString(data))

	if *output == "" {
		fmt.Print(block.String())
		return
	}
	if err := os.WriteFile(*output, []byte(block.String()), 0o644); err != nil {
		log.Fatalf("Failed to write output: %v", err)
	}
	log.Printf("Texture block written to %s (%dx%d %s, %d bytes)", *output, w, h, *format, len(data))
}

// convert rescales src to w x h and returns tightly packed texels in
// the requested format's layout.
func convert(src image.Image, format string, w, h int) ([]byte, error) {
	rect := image.Rect(0, 0, w, h)

	switch format {
	case "rgba8", "bgra8":
		dst := image.NewNRGBA(rect)
		draw.ApproxBiLinear.Scale(dst, rect, src, src.Bounds(), draw.Src, nil)
		data := make([]byte, 4*w*h)
		for y := 0; y < h; y++ {
			copy(data[y*4*w:], dst.Pix[y*dst.Stride:y*dst.Stride+4*w])
		}
		if format == "bgra8" {
			for i := 0; i < len(data); i += 4 {
				data[i], data[i+2] = data[i+2], data[i]
			}
		}
		return data, nil

	case "r8":
		dst := image.NewGray(rect)
		draw.ApproxBiLinear.Scale(dst, rect, src, src.Bounds(), draw.Src, nil)
		data := make([]byte, w*h)
		for y := 0; y < h; y++ {
			copy(data[y*w:], dst.Pix[y*dst.Stride:y*dst.Stride+w])
		}
		return data, nil
	}

	return nil, fmt.Errorf("unsupported format %q", format)
}
