//go:build !nogpu

package gpu

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// TextureFormat is the pixel format shared by the offscreen textures and the
// swap chain: 8-bit BGRA, sRGB encoded.
const TextureFormat = gputypes.TextureFormatBGRA8UnormSrgb

// StorageFormat is the format the compute pass sees the offscreen textures
// through. Storage images have no sRGB variant, so each texture also allows
// a linear BGRA8 view of the same bytes.
const StorageFormat = gputypes.TextureFormatBGRA8Unorm

// TextureUsage lets every offscreen texture serve as a color attachment, a
// storage image, a sampled image and a copy source/destination.
const TextureUsage = gputypes.TextureUsageRenderAttachment |
	gputypes.TextureUsageStorageBinding |
	gputypes.TextureUsageTextureBinding |
	gputypes.TextureUsageCopySrc |
	gputypes.TextureUsageCopyDst

// Texture labels. Also used by tests to tell the two textures apart.
const (
	DefaultTextureLabel   = "postfx_default"
	ProcessedTextureLabel = "postfx_processed"
)

// Texture is an offscreen color texture with its sRGB view, used for
// rendering and sampling, and its linear view, used as a storage image.
type Texture struct {
	Tex         hal.Texture
	View        hal.TextureView
	StorageView hal.TextureView
	Width       uint32
	Height      uint32
	Label       string
}

// TexturePair holds the "default" texture written by the raster pass and the
// "processed" texture written by the compute pass.
//
// A pair is never resized. A resize allocates a new pair with
// NewTexturePair and destroys the old one once nothing references it.
type TexturePair struct {
	Default   Texture
	Processed Texture

	// rendered is set after the first frame encoded against this pair.
	// Before that, neither texture has a usage to transition from.
	rendered bool
}

// NewTexturePair allocates two textures of identical size, format and usage.
// On failure every partially created resource is destroyed.
func NewTexturePair(device hal.Device, width, height uint32) (*TexturePair, error) {
	if width == 0 || height == 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidSize, width, height)
	}

	p := &TexturePair{}
	def, err := createTexture(device, DefaultTextureLabel, width, height)
	if err != nil {
		return nil, err
	}
	p.Default = def

	processed, err := createTexture(device, ProcessedTextureLabel, width, height)
	if err != nil {
		p.Destroy(device)
		return nil, err
	}
	p.Processed = processed

	slogger().Debug("postfx: texture pair created", "width", width, "height", height)
	return p, nil
}

// createTexture creates one offscreen texture and both of its views.
func createTexture(device hal.Device, label string, width, height uint32) (Texture, error) {
	tex, err := device.CreateTexture(&hal.TextureDescriptor{
		Label:         label,
		Size:          hal.Extent3D{Width: width, Height: height, DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        TextureFormat,
		Usage:         TextureUsage,
		ViewFormats:   []gputypes.TextureFormat{StorageFormat},
	})
	if err != nil {
		return Texture{}, fmt.Errorf("create %s texture: %w", label, err)
	}

	t := Texture{Tex: tex, Width: width, Height: height, Label: label}
	t.View, err = device.CreateTextureView(tex, &hal.TextureViewDescriptor{
		Label:     label + "_view",
		Format:    TextureFormat,
		Dimension: gputypes.TextureViewDimension2D,
	})
	if err != nil {
		t.destroy(device)
		return Texture{}, fmt.Errorf("create %s view: %w", label, err)
	}
	t.StorageView, err = device.CreateTextureView(tex, &hal.TextureViewDescriptor{
		Label:     label + "_storage_view",
		Format:    StorageFormat,
		Dimension: gputypes.TextureViewDimension2D,
	})
	if err != nil {
		t.destroy(device)
		return Texture{}, fmt.Errorf("create %s storage view: %w", label, err)
	}
	return t, nil
}

// Size returns the dimensions shared by both textures.
func (p *TexturePair) Size() (uint32, uint32) {
	if p == nil {
		return 0, 0
	}
	return p.Default.Width, p.Default.Height
}

// Destroy releases both textures and their views. Safe to call multiple
// times or on a partially created pair.
func (p *TexturePair) Destroy(device hal.Device) {
	if p == nil {
		return
	}
	p.Processed.destroy(device)
	p.Default.destroy(device)
	p.rendered = false
}

func (t *Texture) destroy(device hal.Device) {
	if t.StorageView != nil {
		device.DestroyTextureView(t.StorageView)
		t.StorageView = nil
	}
	if t.View != nil {
		device.DestroyTextureView(t.View)
		t.View = nil
	}
	if t.Tex != nil {
		device.DestroyTexture(t.Tex)
		t.Tex = nil
	}
	t.Width = 0
	t.Height = 0
}
