// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package surface

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// PresentMode specifies how acquired images are queued for display.
type PresentMode uint8

const (
	// PresentModeMailbox keeps one image queued and replaces it with newer
	// frames. Low latency without tearing (triple buffering).
	PresentModeMailbox PresentMode = iota

	// PresentModeFifo waits for vertical blank. Frames are never dropped.
	PresentModeFifo

	// PresentModeImmediate presents without waiting. May tear.
	PresentModeImmediate
)

// String returns the lower-case name of the mode.
func (m PresentMode) String() string {
	switch m {
	case PresentModeMailbox:
		return "mailbox"
	case PresentModeFifo:
		return "fifo"
	case PresentModeImmediate:
		return "immediate"
	default:
		return fmt.Sprintf("PresentMode(%d)", uint8(m))
	}
}

// ParsePresentMode returns the mode with the given String name.
func ParsePresentMode(s string) (PresentMode, error) {
	switch s {
	case "mailbox":
		return PresentModeMailbox, nil
	case "fifo":
		return PresentModeFifo, nil
	case "immediate":
		return PresentModeImmediate, nil
	}
	return 0, fmt.Errorf("surface: unknown present mode %q", s)
}

// DefaultFormat is the swap chain format: 8-bit BGRA, sRGB encoded.
const DefaultFormat = gputypes.TextureFormatBGRA8UnormSrgb

// Config describes a swap chain.
type Config struct {
	// Width and Height are the image dimensions in pixels.
	Width  uint32
	Height uint32

	// Format is the pixel format of every image.
	Format gputypes.TextureFormat

	// PresentMode selects the presentation queueing behavior.
	PresentMode PresentMode
}

// DefaultConfig returns a config of the given size with DefaultFormat and
// PresentModeMailbox.
func DefaultConfig(width, height uint32) Config {
	return Config{
		Width:       width,
		Height:      height,
		Format:      DefaultFormat,
		PresentMode: PresentModeMailbox,
	}
}

// WithSize returns a copy with the given dimensions.
func (c Config) WithSize(width, height uint32) Config {
	c.Width = width
	c.Height = height
	return c
}

// Frame is one presentable image acquired from a Target.
//
// A Frame must be handed back exactly once, either to Present or to
// Discard.
type Frame struct {
	// Texture is the acquired image.
	Texture hal.Texture

	// View is a render-attachment view of Texture.
	View hal.TextureView

	// Index identifies the image within the target's chain.
	Index int

	// Suboptimal is set when the image can still be presented but the
	// swap chain no longer matches the window exactly.
	Suboptimal bool

	// native is the target-specific image handle.
	native any
}
