//go:build !nogpu

package gpu

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// Full-screen draw: a triangle pair synthesized by the vertex shader.
const (
	FullScreenVertexCount = 6
	FullScreenInstances   = 1
)

// IndexFormat is the index format declared by the render pipelines.
// Neither pipeline binds an index buffer.
const IndexFormat = gputypes.IndexFormatUint16

// Compute bind group slots. Slots 0 and 1 both view the "default" texture.
const (
	ComputeSourceBindingA = 0
	ComputeSourceBindingB = 1
	ComputeOutputBinding  = 2
)

// Copy bind group slots.
const (
	CopyTextureBinding = 0
	CopySamplerBinding = 1
)

// Pipelines owns the three immutable pass pipelines, their layouts, the
// shader modules they were built from and the copy sampler.
//
// Pipelines are created once. A resize rebuilds only the bind groups that
// reference the offscreen textures (see NewBindGroups).
type Pipelines struct {
	device hal.Device

	rasterVS  hal.ShaderModule
	rasterFS  hal.ShaderModule
	computeCS hal.ShaderModule
	copyVS    hal.ShaderModule
	copyFS    hal.ShaderModule

	rasterLayout hal.PipelineLayout
	raster       hal.RenderPipeline

	computeBindLayout hal.BindGroupLayout
	computeLayout     hal.PipelineLayout
	compute           hal.ComputePipeline

	copyBindLayout hal.BindGroupLayout
	copyLayout     hal.PipelineLayout
	copyPipe       hal.RenderPipeline
	sampler        hal.Sampler
}

// NewPipelines creates the raster, compute and copy pipelines. On failure
// everything created so far is destroyed.
func NewPipelines(device hal.Device, shaders *ShaderSet) (*Pipelines, error) {
	if err := shaders.Validate(); err != nil {
		return nil, err
	}
	p := &Pipelines{device: device}
	if err := p.createShaderModules(shaders); err != nil {
		p.Destroy()
		return nil, err
	}
	if err := p.createRasterPipeline(); err != nil {
		p.Destroy()
		return nil, err
	}
	if err := p.createComputePipeline(); err != nil {
		p.Destroy()
		return nil, err
	}
	if err := p.createCopyPipeline(); err != nil {
		p.Destroy()
		return nil, err
	}
	slogger().Debug("postfx: pipelines created")
	return p, nil
}

func (p *Pipelines) createShaderModules(s *ShaderSet) error {
	var err error
	if p.rasterVS, err = createShaderModule(p.device, "postfx_raster_vs", s.RasterVertex); err != nil {
		return err
	}
	if p.rasterFS, err = createShaderModule(p.device, "postfx_raster_fs", s.RasterFragment); err != nil {
		return err
	}
	if p.computeCS, err = createShaderModule(p.device, "postfx_postprocess_cs", s.Compute); err != nil {
		return err
	}
	if p.copyVS, err = createShaderModule(p.device, "postfx_copy_vs", s.CopyVertex); err != nil {
		return err
	}
	if p.copyFS, err = createShaderModule(p.device, "postfx_copy_fs", s.CopyFragment); err != nil {
		return err
	}
	return nil
}

// fullScreenPrimitive is the fixed-function state shared by both render
// pipelines: triangle list, no culling.
func fullScreenPrimitive() gputypes.PrimitiveState {
	return gputypes.PrimitiveState{
		Topology: gputypes.PrimitiveTopologyTriangleList,
		CullMode: gputypes.CullModeNone,
	}
}

// replaceTarget writes fragment output unchanged. A nil blend state is
// replace blending.
func replaceTarget() []gputypes.ColorTargetState {
	return []gputypes.ColorTargetState{{
		Format:    TextureFormat,
		Blend:     nil,
		WriteMask: gputypes.ColorWriteMaskAll,
	}}
}

func (p *Pipelines) createRasterPipeline() error {
	layout, err := p.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            "postfx_raster_pipe_layout",
		BindGroupLayouts: []hal.BindGroupLayout{},
	})
	if err != nil {
		return fmt.Errorf("create raster pipeline layout: %w", err)
	}
	p.rasterLayout = layout

	pipeline, err := p.device.CreateRenderPipeline(&hal.RenderPipelineDescriptor{
		Label:  "postfx_raster_pipeline",
		Layout: p.rasterLayout,
		Vertex: hal.VertexState{
			Module:     p.rasterVS,
			EntryPoint: EntryPoint,
		},
		Fragment: &hal.FragmentState{
			Module:     p.rasterFS,
			EntryPoint: EntryPoint,
			Targets:    replaceTarget(),
		},
		Primitive: fullScreenPrimitive(),
		Multisample: gputypes.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		return fmt.Errorf("create raster pipeline: %w", err)
	}
	p.raster = pipeline
	return nil
}

// createComputePipeline builds the post-process pipeline. The layout
// declares two read-only storage views and one read-write storage view,
// all in StorageFormat.
func (p *Pipelines) createComputePipeline() error {
	storage := func(binding uint32, access gputypes.StorageTextureAccess) gputypes.BindGroupLayoutEntry {
		return gputypes.BindGroupLayoutEntry{
			Binding:    binding,
			Visibility: gputypes.ShaderStageCompute,
			StorageTexture: &gputypes.StorageTextureBindingLayout{
				Access:        access,
				Format:        StorageFormat,
				ViewDimension: gputypes.TextureViewDimension2D,
			},
		}
	}
	bindLayout, err := p.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: "postfx_compute_bind_layout",
		Entries: []gputypes.BindGroupLayoutEntry{
			storage(ComputeSourceBindingA, gputypes.StorageTextureAccessReadOnly),
			storage(ComputeSourceBindingB, gputypes.StorageTextureAccessReadOnly),
			storage(ComputeOutputBinding, gputypes.StorageTextureAccessReadWrite),
		},
	})
	if err != nil {
		return fmt.Errorf("create compute bind group layout: %w", err)
	}
	p.computeBindLayout = bindLayout

	layout, err := p.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            "postfx_compute_pipe_layout",
		BindGroupLayouts: []hal.BindGroupLayout{p.computeBindLayout},
	})
	if err != nil {
		return fmt.Errorf("create compute pipeline layout: %w", err)
	}
	p.computeLayout = layout

	pipeline, err := p.device.CreateComputePipeline(&hal.ComputePipelineDescriptor{
		Label:  "postfx_compute_pipeline",
		Layout: p.computeLayout,
		Compute: hal.ComputeState{
			Module:     p.computeCS,
			EntryPoint: EntryPoint,
		},
	})
	if err != nil {
		return fmt.Errorf("create compute pipeline: %w", err)
	}
	p.compute = pipeline
	return nil
}

// createCopyPipeline builds the pipeline that samples the processed texture
// into the swap chain image with nearest filtering and clamped addressing.
func (p *Pipelines) createCopyPipeline() error {
	bindLayout, err := p.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: "postfx_copy_bind_layout",
		Entries: []gputypes.BindGroupLayoutEntry{
			{
				Binding:    CopyTextureBinding,
				Visibility: gputypes.ShaderStageFragment,
				Texture: &gputypes.TextureBindingLayout{
					SampleType:    gputypes.TextureSampleTypeFloat,
					ViewDimension: gputypes.TextureViewDimension2D,
				},
			},
			{
				Binding:    CopySamplerBinding,
				Visibility: gputypes.ShaderStageFragment,
				Sampler:    &gputypes.SamplerBindingLayout{Type: gputypes.SamplerBindingTypeFiltering},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("create copy bind group layout: %w", err)
	}
	p.copyBindLayout = bindLayout

	layout, err := p.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            "postfx_copy_pipe_layout",
		BindGroupLayouts: []hal.BindGroupLayout{p.copyBindLayout},
	})
	if err != nil {
		return fmt.Errorf("create copy pipeline layout: %w", err)
	}
	p.copyLayout = layout

	sampler, err := p.device.CreateSampler(&hal.SamplerDescriptor{
		Label:        "postfx_copy_sampler",
		AddressModeU: gputypes.AddressModeClampToEdge,
		AddressModeV: gputypes.AddressModeClampToEdge,
		AddressModeW: gputypes.AddressModeClampToEdge,
		MagFilter:    gputypes.FilterModeNearest,
		MinFilter:    gputypes.FilterModeNearest,
		MipmapFilter: gputypes.FilterModeNearest,
	})
	if err != nil {
		return fmt.Errorf("create copy sampler: %w", err)
	}
	p.sampler = sampler

	pipeline, err := p.device.CreateRenderPipeline(&hal.RenderPipelineDescriptor{
		Label:  "postfx_copy_pipeline",
		Layout: p.copyLayout,
		Vertex: hal.VertexState{
			Module:     p.copyVS,
			EntryPoint: EntryPoint,
		},
		Fragment: &hal.FragmentState{
			Module:     p.copyFS,
			EntryPoint: EntryPoint,
			Targets:    replaceTarget(),
		},
		Primitive: fullScreenPrimitive(),
		Multisample: gputypes.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		return fmt.Errorf("create copy pipeline: %w", err)
	}
	p.copyPipe = pipeline
	return nil
}

// Destroy releases all pipeline resources in reverse creation order.
// Safe to call multiple times or on partially created pipelines.
func (p *Pipelines) Destroy() {
	if p == nil || p.device == nil {
		return
	}
	d := p.device
	if p.copyPipe != nil {
		d.DestroyRenderPipeline(p.copyPipe)
		p.copyPipe = nil
	}
	if p.sampler != nil {
		d.DestroySampler(p.sampler)
		p.sampler = nil
	}
	if p.copyLayout != nil {
		d.DestroyPipelineLayout(p.copyLayout)
		p.copyLayout = nil
	}
	if p.copyBindLayout != nil {
		d.DestroyBindGroupLayout(p.copyBindLayout)
		p.copyBindLayout = nil
	}
	if p.compute != nil {
		d.DestroyComputePipeline(p.compute)
		p.compute = nil
	}
	if p.computeLayout != nil {
		d.DestroyPipelineLayout(p.computeLayout)
		p.computeLayout = nil
	}
	if p.computeBindLayout != nil {
		d.DestroyBindGroupLayout(p.computeBindLayout)
		p.computeBindLayout = nil
	}
	if p.raster != nil {
		d.DestroyRenderPipeline(p.raster)
		p.raster = nil
	}
	if p.rasterLayout != nil {
		d.DestroyPipelineLayout(p.rasterLayout)
		p.rasterLayout = nil
	}
	for _, m := range []*hal.ShaderModule{&p.copyFS, &p.copyVS, &p.computeCS, &p.rasterFS, &p.rasterVS} {
		if *m != nil {
			d.DestroyShaderModule(*m)
			*m = nil
		}
	}
}

// Ready reports whether all three pipelines exist.
func (p *Pipelines) Ready() bool {
	return p != nil && p.raster != nil && p.compute != nil && p.copyPipe != nil
}
