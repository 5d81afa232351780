//go:build !nogpu

package gpu

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// BindGroups binds the current texture pair to the compute and copy
// pipelines. A BindGroups value is valid only while the pair it was built
// from is alive and must be rebuilt whenever the pair is replaced.
type BindGroups struct {
	Compute hal.BindGroup
	Copy    hal.BindGroup
}

// NewBindGroups builds both bind groups against pair.
//
// The compute group binds the "default" storage view at slots 0 and 1 and
// the "processed" storage view at slot 2. The copy group binds the sRGB
// "processed" view and the pipelines' nearest sampler.
func NewBindGroups(device hal.Device, p *Pipelines, pair *TexturePair) (*BindGroups, error) {
	if !p.Ready() {
		return nil, ErrNilPipelines
	}
	if pair == nil || pair.Default.StorageView == nil || pair.Processed.StorageView == nil || pair.Processed.View == nil {
		return nil, ErrNilTexturePair
	}

	compute, err := device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:  "postfx_compute_bind",
		Layout: p.computeBindLayout,
		Entries: []gputypes.BindGroupEntry{
			{Binding: ComputeSourceBindingA, Resource: gputypes.TextureViewBinding{TextureView: pair.Default.StorageView.NativeHandle()}},
			{Binding: ComputeSourceBindingB, Resource: gputypes.TextureViewBinding{TextureView: pair.Default.StorageView.NativeHandle()}},
			{Binding: ComputeOutputBinding, Resource: gputypes.TextureViewBinding{TextureView: pair.Processed.StorageView.NativeHandle()}},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create compute bind group: %w", err)
	}

	cp, err := device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:  "postfx_copy_bind",
		Layout: p.copyBindLayout,
		Entries: []gputypes.BindGroupEntry{
			{Binding: CopyTextureBinding, Resource: gputypes.TextureViewBinding{TextureView: pair.Processed.View.NativeHandle()}},
			{Binding: CopySamplerBinding, Resource: gputypes.SamplerBinding{Sampler: p.sampler.NativeHandle()}},
		},
	})
	if err != nil {
		device.DestroyBindGroup(compute)
		return nil, fmt.Errorf("create copy bind group: %w", err)
	}

	return &BindGroups{Compute: compute, Copy: cp}, nil
}

// Destroy releases both bind groups. Safe to call multiple times.
func (g *BindGroups) Destroy(device hal.Device) {
	if g == nil {
		return
	}
	if g.Copy != nil {
		device.DestroyBindGroup(g.Copy)
		g.Copy = nil
	}
	if g.Compute != nil {
		device.DestroyBindGroup(g.Compute)
		g.Compute = nil
	}
}

// Resources is a texture pair together with the bind groups that reference
// it. It is the unit a resize replaces.
type Resources struct {
	Pair   *TexturePair
	Groups *BindGroups
}

// NewResources allocates a texture pair of the given size and builds the
// bind groups against it. Nothing is leaked on failure, and nothing that
// already exists is touched, so a failed call leaves the caller's current
// resources valid.
func NewResources(device hal.Device, p *Pipelines, width, height uint32) (*Resources, error) {
	pair, err := NewTexturePair(device, width, height)
	if err != nil {
		return nil, err
	}
	groups, err := NewBindGroups(device, p, pair)
	if err != nil {
		pair.Destroy(device)
		return nil, err
	}
	return &Resources{Pair: pair, Groups: groups}, nil
}

// Size returns the dimensions of the texture pair.
func (r *Resources) Size() (uint32, uint32) {
	if r == nil {
		return 0, 0
	}
	return r.Pair.Size()
}

// Destroy releases the bind groups first and then the textures they
// reference. Safe to call multiple times.
func (r *Resources) Destroy(device hal.Device) {
	if r == nil {
		return
	}
	r.Groups.Destroy(device)
	r.Pair.Destroy(device)
}
