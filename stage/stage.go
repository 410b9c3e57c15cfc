// Package stage defines the pipeline stages at which user shader
// passes may hook into the surrounding video renderer, and the mapping
// between stage flags and the textual names used in shader documents.
package stage

// Stage is a bitset of pipeline stages. A pass may hook several stages
// at once; the renderer tests membership with a bitwise AND.
type Stage uint16

// Pipeline stages, in pipeline order. The *Input stages refer to the
// raw planes before any processing; the remaining stages are points in
// the scaling and color pipeline.
const (
	RGBInput Stage = 1 << iota
	LumaInput
	ChromaInput
	AlphaInput
	XYZInput
	ChromaScaled
	AlphaScaled
	Native
	RGB        // after conversion to RGB, before sub-pixel work
	RGBOverlay // after overlay merging
	Linear
	Sigmoid
	PreKernel
	PostKernel
	Scaled
	Output
)

// FromName maps a textual stage name from a shader document to its
// stage flag. Unknown names map to the empty set, so a pass hooking an
// unrecognized stage simply never runs.
func FromName(name string) Stage {
	switch name {
	case "RGB":
		return RGBInput
	case "LUMA":
		return LumaInput
	case "CHROMA":
		return ChromaInput
	case "ALPHA":
		return AlphaInput
	case "XYZ":
		return XYZInput
	case "CHROMA_SCALED":
		return ChromaScaled
	case "ALPHA_SCALED":
		return AlphaScaled
	case "NATIVE":
		return Native
	case "MAINPRESUB":
		return RGB
	case "MAIN":
		return RGBOverlay
	case "LINEAR":
		return Linear
	case "SIGMOID":
		return Sigmoid
	case "PREKERNEL":
		return PreKernel
	case "POSTKERNEL":
		return PostKernel
	case "SCALED":
		return Scaled
	case "OUTPUT":
		return Output
	}
	return 0
}

// Name returns the textual name for a single stage flag. It is the
// inverse of FromName for every defined stage; anything else returns
// "UNKNOWN".
func Name(s Stage) string {
	switch s {
	case RGBInput:
		return "RGB"
	case LumaInput:
		return "LUMA"
	case ChromaInput:
		return "CHROMA"
	case AlphaInput:
		return "ALPHA"
	case XYZInput:
		return "XYZ"
	case ChromaScaled:
		return "CHROMA_SCALED"
	case AlphaScaled:
		return "ALPHA_SCALED"
	case Native:
		return "NATIVE"
	case RGB:
		return "MAINPRESUB"
	case RGBOverlay:
		return "MAIN"
	case Linear:
		return "LINEAR"
	case Sigmoid:
		return "SIGMOID"
	case PreKernel:
		return "PREKERNEL"
	case PostKernel:
		return "POSTKERNEL"
	case Scaled:
		return "SCALED"
	case Output:
		return "OUTPUT"
	}
	return "UNKNOWN"
}
