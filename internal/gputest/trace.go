//go:build !nogpu

package gputest

import (
	"fmt"

	"github.com/gogpu/wgpu/hal"
)

// OpKind identifies a recorded command.
type OpKind string

// Recorded commands.
const (
	OpBeginEncoding OpKind = "begin_encoding"
	OpBeginRender   OpKind = "begin_render_pass"
	OpBeginCompute  OpKind = "begin_compute_pass"
	OpSetPipeline   OpKind = "set_pipeline"
	OpSetBindGroup  OpKind = "set_bind_group"
	OpDraw          OpKind = "draw"
	OpDispatch      OpKind = "dispatch"
	OpEndPass       OpKind = "end_pass"
	OpTransition    OpKind = "transition"
	OpEndEncoding   OpKind = "end_encoding"
	OpDiscard       OpKind = "discard_encoding"
	OpSubmit        OpKind = "submit"
)

// Op is one recorded command. Label is the pass label for pass commands.
// Args holds the numeric arguments of draws, dispatches and submissions.
type Op struct {
	Kind  OpKind
	Label string
	Args  []uint32
}

func (o Op) String() string {
	if o.Label == "" {
		return fmt.Sprintf("%s%v", o.Kind, o.Args)
	}
	return fmt.Sprintf("%s(%s)%v", o.Kind, o.Label, o.Args)
}

// Device wraps a hal.Device. It records every command encoded through
// encoders it creates, counts created and destroyed objects, and can fail
// texture creation on demand.
//
// Device is not safe for concurrent use.
type Device struct {
	hal.Device

	// Ops is the command trace, across all encoders, in recording order.
	Ops []Op

	// Descriptors of every object created, in creation order.
	TextureDescs         []hal.TextureDescriptor
	ViewDescs            []hal.TextureViewDescriptor
	BindGroupLayoutDescs []hal.BindGroupLayoutDescriptor
	BindGroupDescs       []hal.BindGroupDescriptor
	SamplerDescs         []hal.SamplerDescriptor

	// Destroyed lists the kind of every destroyed texture, view and bind
	// group ("texture", "view", "bind_group") in destruction order.
	Destroyed []string

	// FailTexture, when set, is consulted before each texture creation.
	// A non-nil return fails the creation with that error.
	FailTexture func(desc *hal.TextureDescriptor) error

	// FailBeginEncoding and FailEndEncoding, when non-nil, are returned by
	// every encoder's BeginEncoding and EndEncoding.
	FailBeginEncoding error
	FailEndEncoding   error

	// Counters of created and destroyed objects.
	TexturesCreated, TexturesDestroyed     int
	ViewsCreated, ViewsDestroyed           int
	BindGroupsCreated, BindGroupsDestroyed int
	PipelinesCreated, PipelinesDestroyed   int
	EncodersCreated, BuffersFreed          int
	EncodersDiscarded                      int
}

// Live returns the number of created but not yet destroyed objects of
// the given kind: "texture", "view" or "bind_group".
func (d *Device) Live(kind string) int {
	switch kind {
	case "texture":
		return d.TexturesCreated - d.TexturesDestroyed
	case "view":
		return d.ViewsCreated - d.ViewsDestroyed
	case "bind_group":
		return d.BindGroupsCreated - d.BindGroupsDestroyed
	}
	return 0
}

// Reset clears the command trace.
func (d *Device) Reset() {
	d.Ops = nil
}

// OpsOf returns the recorded commands of the given kind.
func (d *Device) OpsOf(kind OpKind) []Op {
	var out []Op
	for _, op := range d.Ops {
		if op.Kind == kind {
			out = append(out, op)
		}
	}
	return out
}

// Index returns the position of the first command of kind with label, or
// -1.
func (d *Device) Index(kind OpKind, label string) int {
	for i, op := range d.Ops {
		if op.Kind == kind && op.Label == label {
			return i
		}
	}
	return -1
}

func (d *Device) record(kind OpKind, label string, args ...uint32) {
	d.Ops = append(d.Ops, Op{Kind: kind, Label: label, Args: args})
}

func (d *Device) CreateTexture(desc *hal.TextureDescriptor) (hal.Texture, error) {
	if d.FailTexture != nil {
		if err := d.FailTexture(desc); err != nil {
			return nil, err
		}
	}
	tex, err := d.Device.CreateTexture(desc)
	if err != nil {
		return nil, err
	}
	d.TextureDescs = append(d.TextureDescs, *desc)
	d.TexturesCreated++
	return tex, nil
}

func (d *Device) DestroyTexture(texture hal.Texture) {
	d.TexturesDestroyed++
	d.Destroyed = append(d.Destroyed, "texture")
	d.Device.DestroyTexture(texture)
}

func (d *Device) CreateTextureView(texture hal.Texture, desc *hal.TextureViewDescriptor) (hal.TextureView, error) {
	view, err := d.Device.CreateTextureView(texture, desc)
	if err != nil {
		return nil, err
	}
	if desc != nil {
		d.ViewDescs = append(d.ViewDescs, *desc)
	}
	d.ViewsCreated++
	return &textureView{TextureView: view, handle: uintptr(0x1000 + d.ViewsCreated)}, nil
}

// textureView gives each view a distinct native handle so bind group
// entries can be matched to the view they reference.
type textureView struct {
	hal.TextureView
	handle uintptr
}

func (v *textureView) NativeHandle() uintptr { return v.handle }

func (d *Device) DestroyTextureView(view hal.TextureView) {
	d.ViewsDestroyed++
	d.Destroyed = append(d.Destroyed, "view")
	if v, ok := view.(*textureView); ok {
		view = v.TextureView
	}
	d.Device.DestroyTextureView(view)
}

func (d *Device) CreateBindGroup(desc *hal.BindGroupDescriptor) (hal.BindGroup, error) {
	group, err := d.Device.CreateBindGroup(desc)
	if err != nil {
		return nil, err
	}
	d.BindGroupDescs = append(d.BindGroupDescs, *desc)
	d.BindGroupsCreated++
	return group, nil
}

func (d *Device) DestroyBindGroup(group hal.BindGroup) {
	d.BindGroupsDestroyed++
	d.Destroyed = append(d.Destroyed, "bind_group")
	d.Device.DestroyBindGroup(group)
}

func (d *Device) CreateBindGroupLayout(desc *hal.BindGroupLayoutDescriptor) (hal.BindGroupLayout, error) {
	layout, err := d.Device.CreateBindGroupLayout(desc)
	if err == nil {
		d.BindGroupLayoutDescs = append(d.BindGroupLayoutDescs, *desc)
	}
	return layout, err
}

func (d *Device) CreateSampler(desc *hal.SamplerDescriptor) (hal.Sampler, error) {
	sampler, err := d.Device.CreateSampler(desc)
	if err == nil {
		d.SamplerDescs = append(d.SamplerDescs, *desc)
	}
	return sampler, err
}

func (d *Device) CreateRenderPipeline(desc *hal.RenderPipelineDescriptor) (hal.RenderPipeline, error) {
	p, err := d.Device.CreateRenderPipeline(desc)
	if err == nil {
		d.PipelinesCreated++
	}
	return p, err
}

func (d *Device) DestroyRenderPipeline(p hal.RenderPipeline) {
	d.PipelinesDestroyed++
	d.Device.DestroyRenderPipeline(p)
}

func (d *Device) CreateComputePipeline(desc *hal.ComputePipelineDescriptor) (hal.ComputePipeline, error) {
	p, err := d.Device.CreateComputePipeline(desc)
	if err == nil {
		d.PipelinesCreated++
	}
	return p, err
}

func (d *Device) DestroyComputePipeline(p hal.ComputePipeline) {
	d.PipelinesDestroyed++
	d.Device.DestroyComputePipeline(p)
}

func (d *Device) CreateCommandEncoder(desc *hal.CommandEncoderDescriptor) (hal.CommandEncoder, error) {
	enc, err := d.Device.CreateCommandEncoder(desc)
	if err != nil {
		return nil, err
	}
	d.EncodersCreated++
	return &encoder{CommandEncoder: enc, device: d}, nil
}

func (d *Device) FreeCommandBuffer(buf hal.CommandBuffer) {
	d.BuffersFreed++
	d.Device.FreeCommandBuffer(buf)
}

type encoder struct {
	hal.CommandEncoder
	device *Device
}

func (e *encoder) BeginEncoding(label string) error {
	e.device.record(OpBeginEncoding, label)
	if e.device.FailBeginEncoding != nil {
		return e.device.FailBeginEncoding
	}
	return e.CommandEncoder.BeginEncoding(label)
}

func (e *encoder) DiscardEncoding() {
	e.device.record(OpDiscard, "")
	e.device.EncodersDiscarded++
	e.CommandEncoder.DiscardEncoding()
}

func (e *encoder) BeginRenderPass(desc *hal.RenderPassDescriptor) hal.RenderPassEncoder {
	e.device.record(OpBeginRender, desc.Label)
	return &renderPass{RenderPassEncoder: e.CommandEncoder.BeginRenderPass(desc), device: e.device, label: desc.Label}
}

func (e *encoder) BeginComputePass(desc *hal.ComputePassDescriptor) hal.ComputePassEncoder {
	e.device.record(OpBeginCompute, desc.Label)
	return &computePass{ComputePassEncoder: e.CommandEncoder.BeginComputePass(desc), device: e.device, label: desc.Label}
}

func (e *encoder) TransitionTextures(barriers []hal.TextureBarrier) {
	e.device.record(OpTransition, "", uint32(len(barriers)))
	e.CommandEncoder.TransitionTextures(barriers)
}

func (e *encoder) EndEncoding() (hal.CommandBuffer, error) {
	e.device.record(OpEndEncoding, "")
	if e.device.FailEndEncoding != nil {
		return nil, e.device.FailEndEncoding
	}
	return e.CommandEncoder.EndEncoding()
}

type renderPass struct {
	hal.RenderPassEncoder
	device *Device
	label  string
}

func (p *renderPass) SetPipeline(pipeline hal.RenderPipeline) {
	p.device.record(OpSetPipeline, p.label)
	p.RenderPassEncoder.SetPipeline(pipeline)
}

func (p *renderPass) SetBindGroup(index uint32, group hal.BindGroup, offsets []uint32) {
	p.device.record(OpSetBindGroup, p.label, index)
	p.RenderPassEncoder.SetBindGroup(index, group, offsets)
}

func (p *renderPass) Draw(vertexCount, instanceCount, firstVertex, firstInstance uint32) {
	p.device.record(OpDraw, p.label, vertexCount, instanceCount, firstVertex, firstInstance)
	p.RenderPassEncoder.Draw(vertexCount, instanceCount, firstVertex, firstInstance)
}

func (p *renderPass) End() {
	p.device.record(OpEndPass, p.label)
	p.RenderPassEncoder.End()
}

type computePass struct {
	hal.ComputePassEncoder
	device *Device
	label  string
}

func (p *computePass) SetPipeline(pipeline hal.ComputePipeline) {
	p.device.record(OpSetPipeline, p.label)
	p.ComputePassEncoder.SetPipeline(pipeline)
}

func (p *computePass) SetBindGroup(index uint32, group hal.BindGroup, offsets []uint32) {
	p.device.record(OpSetBindGroup, p.label, index)
	p.ComputePassEncoder.SetBindGroup(index, group, offsets)
}

func (p *computePass) Dispatch(x, y, z uint32) {
	p.device.record(OpDispatch, p.label, x, y, z)
	p.ComputePassEncoder.Dispatch(x, y, z)
}

func (p *computePass) End() {
	p.device.record(OpEndPass, p.label)
	p.ComputePassEncoder.End()
}

// Queue wraps a hal.Queue, records submissions into the owning Device's
// trace and can fail them on demand.
type Queue struct {
	hal.Queue
	device *Device

	// SubmitErr, when non-nil, is returned by Submit instead of
	// submitting.
	SubmitErr error

	// Submits counts successful submissions.
	Submits int
}

func (q *Queue) Submit(buffers []hal.CommandBuffer, fence hal.Fence, value uint64) error {
	if q.SubmitErr != nil {
		return q.SubmitErr
	}
	q.device.record(OpSubmit, "", uint32(len(buffers)))
	q.Submits++
	return q.Queue.Submit(buffers, fence, value)
}
