package usershader

import "errors"

// Parse errors. All of them abort construction; Parse releases any
// textures created before the failure and returns nil.
var (
	// ErrNoHeaders is returned for a document with no //! header lines.
	ErrNoHeaders = errors.New("usershader: document contains no headers")

	// ErrTooManyHooks is returned when a pass hooks more than MaxHooks
	// stages.
	ErrTooManyHooks = errors.New("usershader: too many HOOK directives")

	// ErrTooManyBinds is returned when a pass binds more than MaxBinds
	// textures.
	ErrTooManyBinds = errors.New("usershader: too many BIND directives")

	// ErrUnknownCommand is returned for an unrecognized //! command.
	ErrUnknownCommand = errors.New("usershader: unrecognized command")

	// ErrBadDirective is returned when a command's arguments do not
	// parse, e.g. OFFSET with one number or COMPUTE with three.
	ErrBadDirective = errors.New("usershader: malformed directive")

	// ErrSizeLimit is returned when a TEXTURE dimension is below 1 or
	// exceeds the GPU's texture size limits.
	ErrSizeLimit = errors.New("usershader: SIZE exceeds texture size limits")

	// ErrUnknownFormat is returned for a FORMAT name the GPU does not
	// offer, or one that is opaque or not sampleable.
	ErrUnknownFormat = errors.New("usershader: unrecognized or unavailable FORMAT")

	// ErrNoFormat is returned for a TEXTURE block without a FORMAT.
	ErrNoFormat = errors.New("usershader: no FORMAT specified")

	// ErrFormatFilter is returned when FILTER LINEAR is requested for a
	// format without linear filtering support.
	ErrFormatFilter = errors.New("usershader: format cannot be linear filtered")

	// ErrPayloadHex is returned when a texture payload is not a single
	// line of hexadecimal digits.
	ErrPayloadHex = errors.New("usershader: texture payload is not valid hex")

	// ErrPayloadSize is returned when a texture payload decodes to the
	// wrong number of bytes.
	ErrPayloadSize = errors.New("usershader: texture payload size mismatch")
)

// Runtime errors. A hook invocation that returns one of these is fatal
// for the current frame's use of the hook; the hook's own state stays
// consistent.
var (
	// ErrComputeDispatch is returned when the shader buffer refuses to
	// enter compute mode with the pass's block size.
	ErrComputeDispatch = errors.New("usershader: compute dispatch refused")

	// ErrSizeRequirement is returned when the shader buffer refuses the
	// pass's output size, e.g. when resizing a non-resizable pass.
	ErrSizeRequirement = errors.New("usershader: incompatible shader size requirements")
)
