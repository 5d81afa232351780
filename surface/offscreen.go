// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package surface

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// ImageCount is the number of images in an Offscreen ring.
const ImageCount = 3

// offscreenUsage lets ring images be rendered to and read back.
const offscreenUsage = gputypes.TextureUsageRenderAttachment | gputypes.TextureUsageCopySrc

type offscreenImage struct {
	tex      hal.Texture
	view     hal.TextureView
	acquired bool
}

// Offscreen is a headless Target backed by a ring of ImageCount textures.
//
// Acquire hands out the images in order; Present and Discard return them.
// SetAvailable(false) makes Acquire report ErrUnavailable, the way a
// minimized window does.
type Offscreen struct {
	device    hal.Device
	images    []offscreenImage
	next      int
	available bool

	presented  uint64
	discarded  uint64
	configures uint64
	cfg        Config
}

// NewOffscreen returns an unconfigured offscreen target.
func NewOffscreen() *Offscreen {
	return &Offscreen{available: true}
}

// Configure recreates the ring at cfg's size. Outstanding images must
// have been returned.
func (o *Offscreen) Configure(device hal.Device, cfg Config) error {
	if cfg.Width == 0 || cfg.Height == 0 {
		return fmt.Errorf("surface: offscreen size %dx%d: %w", cfg.Width, cfg.Height, ErrUnavailable)
	}
	for i := range o.images {
		if o.images[i].acquired {
			return fmt.Errorf("surface: reconfigure with image %d outstanding", i)
		}
	}
	if cfg.Format == 0 {
		cfg.Format = DefaultFormat
	}

	images := make([]offscreenImage, 0, ImageCount)
	for i := 0; i < ImageCount; i++ {
		img, err := createOffscreenImage(device, cfg, i)
		if err != nil {
			destroyOffscreenImages(device, images)
			return err
		}
		images = append(images, img)
	}

	if o.device != nil {
		destroyOffscreenImages(o.device, o.images)
	}
	o.device = device
	o.images = images
	o.next = 0
	o.cfg = cfg
	o.configures++
	return nil
}

func createOffscreenImage(device hal.Device, cfg Config, i int) (offscreenImage, error) {
	label := fmt.Sprintf("postfx_swapchain_%d", i)
	tex, err := device.CreateTexture(&hal.TextureDescriptor{
		Label:         label,
		Size:          hal.Extent3D{Width: cfg.Width, Height: cfg.Height, DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        cfg.Format,
		Usage:         offscreenUsage,
	})
	if err != nil {
		return offscreenImage{}, fmt.Errorf("create %s: %w", label, err)
	}
	view, err := device.CreateTextureView(tex, &hal.TextureViewDescriptor{Label: label + "_view"})
	if err != nil {
		device.DestroyTexture(tex)
		return offscreenImage{}, fmt.Errorf("create %s view: %w", label, err)
	}
	return offscreenImage{tex: tex, view: view}, nil
}

func destroyOffscreenImages(device hal.Device, images []offscreenImage) {
	for i := range images {
		if images[i].view != nil {
			device.DestroyTextureView(images[i].view)
		}
		if images[i].tex != nil {
			device.DestroyTexture(images[i].tex)
		}
	}
}

// Unconfigure destroys the ring.
func (o *Offscreen) Unconfigure(device hal.Device) {
	if device == nil {
		device = o.device
	}
	if device != nil {
		destroyOffscreenImages(device, o.images)
	}
	o.images = nil
	o.device = nil
	o.next = 0
}

// Acquire returns the next free image of the ring.
func (o *Offscreen) Acquire() (*Frame, error) {
	if !o.available {
		return nil, fmt.Errorf("surface: offscreen target hidden: %w", ErrUnavailable)
	}
	if len(o.images) == 0 {
		return nil, fmt.Errorf("surface: offscreen target not configured: %w", ErrUnavailable)
	}
	for n := 0; n < len(o.images); n++ {
		i := (o.next + n) % len(o.images)
		if o.images[i].acquired {
			continue
		}
		o.images[i].acquired = true
		o.next = (i + 1) % len(o.images)
		return &Frame{
			Texture: o.images[i].tex,
			View:    o.images[i].view,
			Index:   i,
			native:  o,
		}, nil
	}
	return nil, fmt.Errorf("surface: all %d images in flight: %w", len(o.images), ErrUnavailable)
}

// Present returns f to the ring and counts it as displayed. Submission
// ordering on queue already guarantees the image is complete.
func (o *Offscreen) Present(_ hal.Queue, f *Frame) error {
	if err := o.release(f); err != nil {
		return err
	}
	o.presented++
	return nil
}

// Discard returns f to the ring without counting it.
func (o *Offscreen) Discard(f *Frame) {
	if o.release(f) == nil {
		o.discarded++
	}
}

func (o *Offscreen) release(f *Frame) error {
	if f == nil || f.native != o || f.Index < 0 || f.Index >= len(o.images) || !o.images[f.Index].acquired {
		return ErrInvalidFrame
	}
	o.images[f.Index].acquired = false
	return nil
}

// SetAvailable controls whether Acquire can succeed.
func (o *Offscreen) SetAvailable(available bool) {
	o.available = available
}

// Presented returns the number of frames presented.
func (o *Offscreen) Presented() uint64 { return o.presented }

// Discarded returns the number of frames discarded.
func (o *Offscreen) Discarded() uint64 { return o.discarded }

// Configures returns how many times the ring has been (re)built.
func (o *Offscreen) Configures() uint64 { return o.configures }

// Config returns the configuration of the current ring.
func (o *Offscreen) Config() Config { return o.cfg }

// Verify Offscreen implements Target.
var _ Target = (*Offscreen)(nil)
