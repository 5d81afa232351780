//go:build !nogpu

package gpu

import (
	"errors"
	"testing"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/postfx/internal/gputest"
)

func newTestPipelines(t *testing.T, device *gputest.Device) *Pipelines {
	t.Helper()
	p, err := NewPipelines(device, fakeShaderSet())
	if err != nil {
		t.Fatalf("NewPipelines: %v", err)
	}
	t.Cleanup(p.Destroy)
	return p
}

func TestNewPipelines(t *testing.T) {
	device, _ := gputest.NewTracingDevice(t)

	p := newTestPipelines(t, device)
	if !p.Ready() {
		t.Fatal("pipelines not ready")
	}
	if device.PipelinesCreated != 3 {
		t.Errorf("pipelines created = %d, want 3", device.PipelinesCreated)
	}
	if p.sampler == nil {
		t.Error("copy sampler not created")
	}
	if p.computeBindLayout == nil || p.copyBindLayout == nil {
		t.Error("bind group layouts not created")
	}
}

func TestNewPipelinesInvalidShaders(t *testing.T) {
	device, _ := gputest.NewTracingDevice(t)

	s := fakeShaderSet()
	s.Compute = []uint32{0x12345678}
	p, err := NewPipelines(device, s)
	if !errors.Is(err, ErrInvalidShader) {
		t.Fatalf("error = %v, want ErrInvalidShader", err)
	}
	if p != nil {
		t.Error("expected nil pipelines")
	}
	if device.PipelinesCreated != 0 {
		t.Errorf("pipelines created = %d, want 0", device.PipelinesCreated)
	}
}

func TestPipelinesDestroyIdempotent(t *testing.T) {
	device, _ := gputest.NewTracingDevice(t)

	p, err := NewPipelines(device, fakeShaderSet())
	if err != nil {
		t.Fatalf("NewPipelines: %v", err)
	}
	p.Destroy()
	p.Destroy()

	if p.Ready() {
		t.Error("Ready() after Destroy = true")
	}
	if device.PipelinesDestroyed != 3 {
		t.Errorf("pipelines destroyed = %d, want 3", device.PipelinesDestroyed)
	}

	var nilPipelines *Pipelines
	nilPipelines.Destroy()
	if nilPipelines.Ready() {
		t.Error("nil pipelines reported ready")
	}
}

func TestNewBindGroups(t *testing.T) {
	device, _ := gputest.NewTracingDevice(t)
	p := newTestPipelines(t, device)

	pair, err := NewTexturePair(device, 320, 240)
	if err != nil {
		t.Fatalf("NewTexturePair: %v", err)
	}
	defer pair.Destroy(device)

	groups, err := NewBindGroups(device, p, pair)
	if err != nil {
		t.Fatalf("NewBindGroups: %v", err)
	}
	if groups.Compute == nil || groups.Copy == nil {
		t.Fatal("bind group is nil")
	}
	if len(device.BindGroupDescs) != 2 {
		t.Fatalf("bind groups created = %d, want 2", len(device.BindGroupDescs))
	}

	view := func(v hal.TextureView) gputypes.TextureViewBinding {
		return gputypes.TextureViewBinding{TextureView: v.NativeHandle()}
	}
	compute := device.BindGroupDescs[0]
	wantCompute := map[uint32]gputypes.TextureViewBinding{
		ComputeSourceBindingA: view(pair.Default.StorageView),
		ComputeSourceBindingB: view(pair.Default.StorageView),
		ComputeOutputBinding:  view(pair.Processed.StorageView),
	}
	if len(compute.Entries) != len(wantCompute) {
		t.Fatalf("compute entries = %d, want %d", len(compute.Entries), len(wantCompute))
	}
	for _, e := range compute.Entries {
		got, ok := e.Resource.(gputypes.TextureViewBinding)
		if !ok || got != wantCompute[e.Binding] {
			t.Errorf("compute binding %d = %#v, want %#v", e.Binding, e.Resource, wantCompute[e.Binding])
		}
	}

	cp := device.BindGroupDescs[1]
	if len(cp.Entries) != 2 {
		t.Fatalf("copy entries = %d, want 2", len(cp.Entries))
	}
	for _, e := range cp.Entries {
		switch e.Binding {
		case CopyTextureBinding:
			if got, ok := e.Resource.(gputypes.TextureViewBinding); !ok || got != view(pair.Processed.View) {
				t.Errorf("copy texture binding = %#v, want the processed view", e.Resource)
			}
		case CopySamplerBinding:
			if _, ok := e.Resource.(gputypes.SamplerBinding); !ok {
				t.Errorf("copy sampler binding = %T, want SamplerBinding", e.Resource)
			}
		default:
			t.Errorf("unexpected copy binding %d", e.Binding)
		}
	}

	groups.Destroy(device)
	groups.Destroy(device)
	if device.BindGroupsDestroyed != 2 {
		t.Errorf("bind groups destroyed = %d, want 2", device.BindGroupsDestroyed)
	}
}

func TestBindGroupLayouts(t *testing.T) {
	device, _ := gputest.NewTracingDevice(t)
	newTestPipelines(t, device)

	if len(device.BindGroupLayoutDescs) != 2 {
		t.Fatalf("bind group layouts = %d, want 2", len(device.BindGroupLayoutDescs))
	}

	compute := device.BindGroupLayoutDescs[0]
	wantAccess := map[uint32]gputypes.StorageTextureAccess{
		ComputeSourceBindingA: gputypes.StorageTextureAccessReadOnly,
		ComputeSourceBindingB: gputypes.StorageTextureAccessReadOnly,
		ComputeOutputBinding:  gputypes.StorageTextureAccessReadWrite,
	}
	if len(compute.Entries) != len(wantAccess) {
		t.Fatalf("compute layout entries = %d, want %d", len(compute.Entries), len(wantAccess))
	}
	for _, e := range compute.Entries {
		if e.StorageTexture == nil {
			t.Errorf("compute binding %d is not a storage texture", e.Binding)
			continue
		}
		if e.StorageTexture.Access != wantAccess[e.Binding] {
			t.Errorf("compute binding %d access = %v, want %v", e.Binding, e.StorageTexture.Access, wantAccess[e.Binding])
		}
		if e.StorageTexture.Format != StorageFormat {
			t.Errorf("compute binding %d format = %v, want %v", e.Binding, e.StorageTexture.Format, StorageFormat)
		}
		if e.Visibility != gputypes.ShaderStageCompute {
			t.Errorf("compute binding %d visibility = %v", e.Binding, e.Visibility)
		}
	}

	cp := device.BindGroupLayoutDescs[1]
	if len(cp.Entries) != 2 {
		t.Fatalf("copy layout entries = %d, want 2", len(cp.Entries))
	}
	if cp.Entries[0].Binding != CopyTextureBinding || cp.Entries[0].Texture == nil {
		t.Errorf("copy binding 0 = %+v, want a sampled texture", cp.Entries[0])
	}
	if cp.Entries[1].Binding != CopySamplerBinding || cp.Entries[1].Sampler == nil {
		t.Errorf("copy binding 1 = %+v, want a sampler", cp.Entries[1])
	}
}

func TestCopySampler(t *testing.T) {
	device, _ := gputest.NewTracingDevice(t)
	newTestPipelines(t, device)

	if len(device.SamplerDescs) != 1 {
		t.Fatalf("samplers = %d, want 1", len(device.SamplerDescs))
	}
	s := device.SamplerDescs[0]
	for name, mode := range map[string]gputypes.AddressMode{"U": s.AddressModeU, "V": s.AddressModeV, "W": s.AddressModeW} {
		if mode != gputypes.AddressModeClampToEdge {
			t.Errorf("address mode %s = %v, want clamp to edge", name, mode)
		}
	}
	for name, f := range map[string]gputypes.FilterMode{"mag": s.MagFilter, "min": s.MinFilter} {
		if f != gputypes.FilterModeNearest {
			t.Errorf("%s filter = %v, want nearest", name, f)
		}
	}
}

func TestNewBindGroupsRequiresInputs(t *testing.T) {
	device, _ := gputest.NewTracingDevice(t)
	p := newTestPipelines(t, device)

	if _, err := NewBindGroups(device, nil, &TexturePair{}); !errors.Is(err, ErrNilPipelines) {
		t.Errorf("nil pipelines: error = %v, want ErrNilPipelines", err)
	}
	if _, err := NewBindGroups(device, p, nil); !errors.Is(err, ErrNilTexturePair) {
		t.Errorf("nil pair: error = %v, want ErrNilTexturePair", err)
	}
	if _, err := NewBindGroups(device, p, &TexturePair{}); !errors.Is(err, ErrNilTexturePair) {
		t.Errorf("empty pair: error = %v, want ErrNilTexturePair", err)
	}
}

func TestNewResourcesFailureLeavesNothing(t *testing.T) {
	device, _ := gputest.NewTracingDevice(t)
	p := newTestPipelines(t, device)
	errOOM := errors.New("out of memory")
	device.FailTexture = func(*hal.TextureDescriptor) error { return errOOM }

	res, err := NewResources(device, p, 1024, 768)
	if !errors.Is(err, errOOM) {
		t.Fatalf("error = %v, want wrapped errOOM", err)
	}
	if res != nil {
		t.Error("expected nil resources")
	}
	if device.Live("texture") != 0 || device.Live("bind_group") != 0 {
		t.Errorf("leaked textures=%d bind groups=%d", device.Live("texture"), device.Live("bind_group"))
	}
}

func TestResourcesDestroyOrder(t *testing.T) {
	device, _ := gputest.NewTracingDevice(t)
	p := newTestPipelines(t, device)

	res, err := NewResources(device, p, 100, 50)
	if err != nil {
		t.Fatalf("NewResources: %v", err)
	}
	if w, h := res.Size(); w != 100 || h != 50 {
		t.Errorf("Size() = %dx%d, want 100x50", w, h)
	}

	res.Destroy(device)
	res.Destroy(device)
	if device.Live("texture") != 0 || device.Live("view") != 0 || device.Live("bind_group") != 0 {
		t.Errorf("live after destroy: textures=%d views=%d groups=%d",
			device.Live("texture"), device.Live("view"), device.Live("bind_group"))
	}
	if device.BindGroupsDestroyed != 2 || device.TexturesDestroyed != 2 {
		t.Errorf("destroyed groups=%d textures=%d, want 2/2", device.BindGroupsDestroyed, device.TexturesDestroyed)
	}

	lastGroup, firstTexture := -1, -1
	for i, kind := range device.Destroyed {
		switch kind {
		case "bind_group":
			lastGroup = i
		case "texture":
			if firstTexture < 0 {
				firstTexture = i
			}
		}
	}
	if lastGroup < 0 || firstTexture < 0 || lastGroup > firstTexture {
		t.Errorf("destroy order = %v, want bind groups before textures", device.Destroyed)
	}
}
