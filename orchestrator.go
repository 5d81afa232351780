package postfx

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/postfx/internal/gpu"
	"github.com/gogpu/postfx/surface"
)

// State is the frame state of an Orchestrator.
type State uint8

const (
	// StateIdle waits for the next trigger.
	StateIdle State = iota

	// StateEncoding is recording the frame's command buffer.
	StateEncoding

	// StateSubmitted has submitted the frame and is presenting it.
	StateSubmitted

	// StateClosed is terminal. All resources are released.
	StateClosed
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateEncoding:
		return "encoding"
	case StateSubmitted:
		return "submitted"
	case StateClosed:
		return "closed"
	default:
		return fmt.Sprintf("State(%d)", uint8(s))
	}
}

// Stats counts what the orchestrator has done since creation.
type Stats struct {
	FramesSubmitted uint64
	FramesPresented uint64

	// FramesSkipped counts redraws that found no image to render into.
	FramesSkipped uint64

	// FramesDropped counts submitted frames whose image could not be
	// presented.
	FramesDropped uint64

	ResizesApplied uint64
	ResizesRefused uint64
	Suspensions    uint64
}

// drainTimeout bounds how long resize and close wait for in-flight frames.
const drainTimeout = 5 * time.Second

// pendingBuffer is a submitted command buffer awaiting reclamation.
type pendingBuffer struct {
	buf   hal.CommandBuffer
	value uint64
}

// Orchestrator drives the raster, compute and copy passes once per redraw
// and owns every GPU resource they use: the pipelines, the offscreen
// texture pair with its bind groups, and the swap chain.
//
// Orchestrator is NOT thread-safe. Deliver all triggers from one
// goroutine, or use Run.
type Orchestrator struct {
	device  hal.Device
	queue   hal.Queue
	surface *surface.Manager

	pipelines *gpu.Pipelines
	res       *gpu.Resources

	fence     hal.Fence
	submitted uint64
	pending   []pendingBuffer

	state State
	stats Stats
	label string
	log   *slog.Logger
}

// New builds the pipelines, allocates the texture pair and bind groups at
// width x height, and configures target as the swap chain.
//
// Any failure is fatal and returned wrapping ErrResourceCreation (or
// ErrDeviceLost). Nothing is leaked on failure. The device and queue
// remain owned by the caller.
func New(device hal.Device, queue hal.Queue, target surface.Target, width, height uint32, opts ...Option) (*Orchestrator, error) {
	if device == nil || queue == nil {
		return nil, errors.New("postfx: device and queue are required")
	}
	if target == nil {
		return nil, errors.New("postfx: target is required")
	}
	if width == 0 || height == 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidSize, width, height)
	}

	cfg := defaultOptions()
	for _, opt := range opts {
		opt(&cfg)
	}
	o := &Orchestrator{
		device: device,
		queue:  queue,
		label:  cfg.label,
		log:    Logger().With("renderer", cfg.label),
	}

	shaders, err := loadShaders(cfg)
	if err != nil {
		return nil, resourceError("shaders", err)
	}

	o.pipelines, err = gpu.NewPipelines(device, shaders)
	if err != nil {
		return nil, resourceError("pipelines", err)
	}

	o.res, err = gpu.NewResources(device, o.pipelines, width, height)
	if err != nil {
		o.release()
		return nil, resourceError("textures", err)
	}

	o.fence, err = device.CreateFence()
	if err != nil {
		o.release()
		return nil, resourceError("fence", err)
	}

	o.surface, err = surface.NewManager(device, queue, target, surface.Config{
		Width:       width,
		Height:      height,
		Format:      gpu.TextureFormat,
		PresentMode: cfg.presentMode,
	})
	if err != nil {
		o.release()
		return nil, surfaceError(err)
	}

	o.log.Info("postfx: started",
		"width", width, "height", height, "present_mode", cfg.presentMode.String())
	return o, nil
}

// loadShaders resolves the shader source selected by the options.
func loadShaders(cfg options) (*gpu.ShaderSet, error) {
	switch {
	case cfg.shaders != nil:
		s := &gpu.ShaderSet{
			RasterVertex:   cfg.shaders.RasterVertex,
			RasterFragment: cfg.shaders.RasterFragment,
			Compute:        cfg.shaders.Compute,
			CopyVertex:     cfg.shaders.CopyVertex,
			CopyFragment:   cfg.shaders.CopyFragment,
		}
		return s, s.Validate()
	case cfg.shaderFS != nil:
		return gpu.LoadShaderSet(cfg.shaderFS)
	default:
		return gpu.CompileShaderSet()
	}
}

// resourceError wraps a creation failure as ErrResourceCreation, or as
// ErrDeviceLost when the device is gone.
func resourceError(what string, err error) error {
	if errors.Is(err, hal.ErrDeviceLost) {
		return fmt.Errorf("%w: %s: %w", ErrDeviceLost, what, err)
	}
	return fmt.Errorf("%w: %s: %w", ErrResourceCreation, what, err)
}

// surfaceError maps a swap chain failure onto the orchestrator's errors.
func surfaceError(err error) error {
	if errors.Is(err, surface.ErrDeviceLost) || errors.Is(err, hal.ErrDeviceLost) {
		return fmt.Errorf("%w: %w", ErrDeviceLost, err)
	}
	return fmt.Errorf("%w: surface: %w", ErrResourceCreation, err)
}

// OnRedraw renders and presents one frame.
//
// When no presentable image is available the frame is skipped, the state
// stays StateIdle, and an error wrapping ErrSurfaceUnavailable is
// returned.
func (o *Orchestrator) OnRedraw() error {
	switch o.state {
	case StateClosed:
		return ErrClosed
	case StateEncoding, StateSubmitted:
		return ErrFrameInProgress
	}
	o.reclaim()

	frame, err := o.surface.Acquire()
	if err != nil {
		if errors.Is(err, surface.ErrUnavailable) {
			o.stats.FramesSkipped++
			o.log.Debug("postfx: frame skipped", "err", err)
			return fmt.Errorf("acquire: %w", err)
		}
		return fmt.Errorf("acquire: %w", surfaceError(err))
	}

	o.state = StateEncoding
	cmdBuf, err := gpu.EncodeFrame(o.device, o.pipelines, o.res, frame.View)
	if err != nil {
		o.surface.Discard(frame)
		o.state = StateIdle
		if errors.Is(err, hal.ErrDeviceLost) {
			return fmt.Errorf("encode frame: %w: %w", ErrDeviceLost, err)
		}
		return fmt.Errorf("encode frame: %w", err)
	}

	o.submitted++
	if err := o.queue.Submit([]hal.CommandBuffer{cmdBuf}, o.fence, o.submitted); err != nil {
		o.submitted--
		o.device.FreeCommandBuffer(cmdBuf)
		o.surface.Discard(frame)
		o.state = StateIdle
		if errors.Is(err, hal.ErrDeviceLost) {
			return fmt.Errorf("submit: %w: %w", ErrDeviceLost, err)
		}
		return fmt.Errorf("submit: %w", err)
	}
	o.pending = append(o.pending, pendingBuffer{buf: cmdBuf, value: o.submitted})
	o.stats.FramesSubmitted++
	o.state = StateSubmitted

	err = o.surface.Present(frame)
	o.state = StateIdle
	if err != nil {
		if errors.Is(err, surface.ErrUnavailable) {
			o.stats.FramesDropped++
			o.log.Debug("postfx: present skipped", "err", err)
			return fmt.Errorf("present: %w", err)
		}
		return fmt.Errorf("present: %w", surfaceError(err))
	}
	o.stats.FramesPresented++
	return nil
}

// reclaim frees the command buffers of frames the GPU has finished.
func (o *Orchestrator) reclaim() {
	n := 0
	for _, p := range o.pending {
		done, err := o.device.Wait(o.fence, p.value, 0)
		if err != nil || !done {
			break
		}
		o.device.FreeCommandBuffer(p.buf)
		n++
	}
	o.pending = o.pending[n:]
}

// drain waits for every submitted frame and frees its command buffer.
func (o *Orchestrator) drain() {
	if len(o.pending) == 0 {
		return
	}
	done, err := o.device.Wait(o.fence, o.submitted, drainTimeout)
	if err != nil || !done {
		o.log.Warn("postfx: wait for in-flight frames failed", "ok", done, "err", err)
	}
	for _, p := range o.pending {
		o.device.FreeCommandBuffer(p.buf)
	}
	o.pending = nil
}

// OnResize replaces the texture pair and bind groups with ones of the new
// size and reconfigures the swap chain.
//
// The new resources are built before anything is touched. If building
// them or reconfiguring the swap chain fails, the resize is refused: the
// previous resources and swap chain stay in use and an error wrapping
// ErrResourceCreation is returned, or ErrDeviceLost if the device is gone.
//
// A zero width or height suspends presentation and keeps the current
// resources.
func (o *Orchestrator) OnResize(width, height uint32) error {
	switch o.state {
	case StateClosed:
		return ErrClosed
	case StateEncoding, StateSubmitted:
		o.stats.ResizesRefused++
		return ErrFrameInProgress
	}

	if width == 0 || height == 0 {
		if err := o.surface.Resize(width, height); err != nil {
			return surfaceError(err)
		}
		o.stats.Suspensions++
		o.log.Info("postfx: presentation suspended", "width", width, "height", height)
		return nil
	}

	next, err := gpu.NewResources(o.device, o.pipelines, width, height)
	if err != nil {
		o.stats.ResizesRefused++
		err = resourceError(fmt.Sprintf("resize to %dx%d", width, height), err)
		if errors.Is(err, ErrDeviceLost) {
			o.log.Error("postfx: device lost during resize", "width", width, "height", height, "err", err)
		} else {
			o.log.Warn("postfx: resize refused", "width", width, "height", height, "err", err)
		}
		return err
	}

	// Frames in flight still reference the swap chain and the old pair.
	o.drain()

	if err := o.surface.Resize(width, height); err != nil {
		next.Destroy(o.device)
		o.stats.ResizesRefused++
		o.log.Warn("postfx: resize refused", "width", width, "height", height, "err", err)
		return fmt.Errorf("resize to %dx%d: %w", width, height, surfaceError(err))
	}

	prev := o.res
	o.res = next
	prev.Destroy(o.device)

	o.stats.ResizesApplied++
	o.log.Info("postfx: resized", "width", width, "height", height)
	return nil
}

// OnClose stops the orchestrator and releases the bind groups, textures,
// pipelines and swap chain. Every later trigger, including another
// OnClose, returns ErrClosed.
func (o *Orchestrator) OnClose() error {
	if o.state == StateClosed {
		return ErrClosed
	}
	o.release()
	o.state = StateClosed
	o.log.Info("postfx: closed",
		"frames", o.stats.FramesSubmitted, "skipped", o.stats.FramesSkipped)
	return nil
}

// Close is OnClose for use with defer. It is idempotent and always
// returns nil.
func (o *Orchestrator) Close() error {
	_ = o.OnClose()
	return nil
}

// release destroys whatever has been created, in reverse order.
func (o *Orchestrator) release() {
	o.drain()
	if o.surface != nil {
		o.surface.Release()
		o.surface = nil
	}
	if o.fence != nil {
		o.device.DestroyFence(o.fence)
		o.fence = nil
	}
	if o.res != nil {
		o.res.Destroy(o.device)
		o.res = nil
	}
	if o.pipelines != nil {
		o.pipelines.Destroy()
		o.pipelines = nil
	}
}

// State returns the current frame state.
func (o *Orchestrator) State() State {
	return o.state
}

// Stats returns the counters accumulated so far.
func (o *Orchestrator) Stats() Stats {
	return o.stats
}

// Size returns the dimensions of the offscreen textures, which match the
// swap chain except while suspended. It returns 0, 0 after close.
func (o *Orchestrator) Size() (uint32, uint32) {
	return o.res.Size()
}

// Suspended reports whether presentation is suspended by a zero-sized
// resize.
func (o *Orchestrator) Suspended() bool {
	return o.surface != nil && o.surface.Suspended()
}

// DispatchSize returns the compute workgroup counts used for a screen of
// the given size: ceil(width/7)+8, ceil(height/7)+8, 1.
func DispatchSize(width, height uint32) (x, y, z uint32) {
	return gpu.DispatchSize(width, height)
}
