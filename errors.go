package postfx

import (
	"errors"

	"github.com/gogpu/postfx/surface"
)

// Errors returned by the orchestrator. Test with errors.Is; most are
// wrapped with the failing operation.
var (
	// ErrSurfaceUnavailable reports that no presentable image could be
	// acquired or presented. The frame is skipped; the next redraw may
	// succeed.
	ErrSurfaceUnavailable = surface.ErrUnavailable

	// ErrDeviceLost reports that the GPU device is gone. Rendering cannot
	// continue; Run closes the orchestrator and returns it.
	ErrDeviceLost = errors.New("postfx: GPU device lost")

	// ErrResourceCreation reports that a texture, view, bind group,
	// pipeline or swap chain could not be created. Fatal from New; from
	// OnResize the resize is refused and the previous resources stay in
	// use.
	ErrResourceCreation = errors.New("postfx: resource creation failed")

	// ErrClosed is returned by every trigger after OnClose.
	ErrClosed = errors.New("postfx: orchestrator closed")

	// ErrFrameInProgress is returned by OnResize while a frame is being
	// encoded, and by OnRedraw on re-entry.
	ErrFrameInProgress = errors.New("postfx: frame in progress")

	// ErrInvalidSize is returned by New for a zero width or height.
	ErrInvalidSize = errors.New("postfx: invalid size")

	// ErrUnknownEvent is returned by Handle for an unrecognized event kind.
	ErrUnknownEvent = errors.New("postfx: unknown event kind")

	// ErrIncompatibleProvider is returned by NewFromProvider when the
	// provider does not expose HAL objects or an sRGB BGRA8 surface.
	ErrIncompatibleProvider = errors.New("postfx: incompatible device provider")
)

// IsRecoverable reports whether err leaves the orchestrator usable:
// a skipped frame, a refused resize, a trigger that arrived mid-frame, or
// an unknown event. Run keeps looping on these and stops on anything else.
func IsRecoverable(err error) bool {
	if err == nil {
		return true
	}
	if errors.Is(err, ErrDeviceLost) || errors.Is(err, ErrClosed) {
		return false
	}
	return errors.Is(err, ErrSurfaceUnavailable) ||
		errors.Is(err, ErrResourceCreation) ||
		errors.Is(err, ErrFrameInProgress) ||
		errors.Is(err, ErrUnknownEvent)
}
