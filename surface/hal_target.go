// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package surface

import (
	"errors"
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// HALTarget presents to a window surface created by a HAL instance.
//
// The window, and therefore the hal.Surface, is owned by the caller.
// HALTarget only configures it and cycles its images.
type HALTarget struct {
	surface hal.Surface
	device  hal.Device
	format  gputypes.TextureFormat
}

// NewHALTarget wraps a window surface.
func NewHALTarget(s hal.Surface) (*HALTarget, error) {
	if s == nil {
		return nil, errors.New("surface: nil hal.Surface")
	}
	return &HALTarget{surface: s}, nil
}

// Configure configures the window swap chain.
func (t *HALTarget) Configure(device hal.Device, cfg Config) error {
	if cfg.Format == 0 {
		cfg.Format = DefaultFormat
	}
	err := t.surface.Configure(device, &hal.SurfaceConfiguration{
		Width:       cfg.Width,
		Height:      cfg.Height,
		Format:      cfg.Format,
		Usage:       gputypes.TextureUsageRenderAttachment,
		PresentMode: halPresentMode(cfg.PresentMode),
		AlphaMode:   hal.CompositeAlphaModeOpaque,
	})
	if err != nil {
		return mapSurfaceError(err)
	}
	t.device = device
	t.format = cfg.Format
	return nil
}

// Unconfigure releases the window swap chain.
func (t *HALTarget) Unconfigure(device hal.Device) {
	if device == nil {
		device = t.device
	}
	if device == nil {
		return
	}
	t.surface.Unconfigure(device)
	t.device = nil
}

// Acquire acquires the next swap chain image and creates a view of it.
func (t *HALTarget) Acquire() (*Frame, error) {
	if t.device == nil {
		return nil, fmt.Errorf("surface: window surface not configured: %w", ErrUnavailable)
	}
	acquired, err := t.surface.AcquireTexture(nil)
	if err != nil {
		return nil, mapSurfaceError(err)
	}
	view, err := t.device.CreateTextureView(acquired.Texture, &hal.TextureViewDescriptor{
		Label:  "postfx_swapchain_view",
		Format: t.format,
	})
	if err != nil {
		t.surface.DiscardTexture(acquired.Texture)
		return nil, fmt.Errorf("surface: create swap chain view: %w", err)
	}
	return &Frame{
		Texture:    acquired.Texture,
		View:       view,
		Suboptimal: acquired.Suboptimal,
		native:     acquired.Texture,
	}, nil
}

// Present queues f on queue for display and releases its view.
func (t *HALTarget) Present(queue hal.Queue, f *Frame) error {
	tex, ok := f.native.(hal.SurfaceTexture)
	if !ok {
		return ErrInvalidFrame
	}
	err := queue.Present(t.surface, tex)
	t.releaseView(f)
	if err != nil {
		return mapSurfaceError(err)
	}
	return nil
}

// Discard hands f back to the window surface without displaying it.
func (t *HALTarget) Discard(f *Frame) {
	tex, ok := f.native.(hal.SurfaceTexture)
	if !ok {
		return
	}
	t.releaseView(f)
	t.surface.DiscardTexture(tex)
}

func (t *HALTarget) releaseView(f *Frame) {
	if f.View != nil && t.device != nil {
		t.device.DestroyTextureView(f.View)
	}
	f.View = nil
	f.native = nil
}

func halPresentMode(m PresentMode) hal.PresentMode {
	switch m {
	case PresentModeFifo:
		return hal.PresentModeFifo
	case PresentModeImmediate:
		return hal.PresentModeImmediate
	default:
		return hal.PresentModeMailbox
	}
}

// mapSurfaceError folds HAL surface errors into this package's sentinels.
func mapSurfaceError(err error) error {
	switch {
	case errors.Is(err, hal.ErrSurfaceOutdated),
		errors.Is(err, hal.ErrSurfaceLost),
		errors.Is(err, hal.ErrTimeout):
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	case errors.Is(err, hal.ErrDeviceLost):
		return fmt.Errorf("%w: %w", ErrDeviceLost, err)
	}
	return err
}

// Verify HALTarget implements Target.
var _ Target = (*HALTarget)(nil)
