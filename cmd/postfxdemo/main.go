// Command postfxdemo drives the post-processing orchestrator headless: it
// opens a device, renders a scripted sequence of redraws and resizes into
// an offscreen swap chain, and prints the resulting counters.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/noop"
	_ "github.com/gogpu/wgpu/hal/vulkan"

	"github.com/gogpu/postfx"
	"github.com/gogpu/postfx/surface"
)

// config holds the command-line settings.
type config struct {
	width, height uint32
	frames        int
	backend       string
	presentMode   surface.PresentMode
	shaderDir     string
	target        string
}

func main() {
	var (
		width     = flag.Uint("width", 800, "initial width")
		height    = flag.Uint("height", 600, "initial height")
		frames    = flag.Int("frames", 120, "redraws to render")
		backend   = flag.String("backend", "vulkan", "HAL backend: vulkan or noop")
		present   = flag.String("present", "mailbox", "present mode: mailbox, fifo or immediate")
		shaderDir = flag.String("shaders", "", "directory of precompiled SPIR-V (default: embedded WGSL)")
		target    = flag.String("target", "", "surface backend name (default: best available)")
		verbose   = flag.Bool("v", false, "debug logging")
	)
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	postfx.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	mode, err := surface.ParsePresentMode(*present)
	if err != nil {
		log.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err = run(ctx, config{
		width:       uint32(*width),
		height:      uint32(*height),
		frames:      *frames,
		backend:     *backend,
		presentMode: mode,
		shaderDir:   *shaderDir,
		target:      *target,
	})
	stop()
	if err != nil {
		log.Fatal(err)
	}
}

// run renders the scripted session. Every resource it opens is released
// before it returns.
func run(ctx context.Context, cfg config) error {
	device, queue, cleanup, err := openDevice(cfg.backend)
	if err != nil {
		return fmt.Errorf("open device: %w", err)
	}
	defer cleanup()

	var t surface.Target
	if cfg.target != "" {
		t, err = surface.NewTargetByName(cfg.target, surface.Options{})
	} else {
		t, err = surface.NewTarget(surface.Options{})
	}
	if err != nil {
		return fmt.Errorf("surface: %w", err)
	}

	opts := []postfx.Option{postfx.WithPresentMode(cfg.presentMode)}
	if cfg.shaderDir != "" {
		opts = append(opts, postfx.WithShaderDir(cfg.shaderDir))
	}
	o, err := postfx.New(device, queue, t, cfg.width, cfg.height, opts...)
	if err != nil {
		return fmt.Errorf("postfx: %w", err)
	}
	defer o.Close()

	events := make(chan postfx.Event)
	go script(ctx, events, cfg.frames, cfg.width, cfg.height)

	err = o.Run(ctx, events)
	if errors.Is(err, context.Canceled) {
		postfx.Logger().Info("postfxdemo: interrupted")
		err = nil
	}
	if err != nil {
		return fmt.Errorf("run: %w", err)
	}

	st := o.Stats()
	fmt.Printf("submitted %d, presented %d, skipped %d, dropped %d, resizes %d (refused %d)\n",
		st.FramesSubmitted, st.FramesPresented, st.FramesSkipped, st.FramesDropped,
		st.ResizesApplied, st.ResizesRefused)
	return nil
}

// script emits redraws, growing the window at a third of the run,
// minimizing it for a few frames at two thirds, and closing at the end.
func script(ctx context.Context, events chan<- postfx.Event, frames int, w, h uint32) {
	send := func(ev postfx.Event) bool {
		select {
		case events <- ev:
			return true
		case <-ctx.Done():
			return false
		}
	}
	for i := 0; i < frames; i++ {
		switch i {
		case frames / 3:
			w, h = w*5/4, h*5/4
			if !send(postfx.Resize(w, h)) {
				return
			}
		case frames * 2 / 3:
			if !send(postfx.Resize(0, 0)) {
				return
			}
		case frames*2/3 + 3:
			if !send(postfx.Resize(w, h)) {
				return
			}
		}
		if !send(postfx.Redraw()) {
			return
		}
	}
	send(postfx.Close())
}

// instanceFactory is the part of a HAL backend needed to open a device.
type instanceFactory interface {
	CreateInstance(desc *hal.InstanceDescriptor) (hal.Instance, error)
}

// openDevice opens the first adapter of the named backend, preferring a
// hardware GPU.
func openDevice(name string) (hal.Device, hal.Queue, func(), error) {
	var api instanceFactory
	switch name {
	case "vulkan":
		b, ok := hal.GetBackend(gputypes.BackendVulkan)
		if !ok {
			return nil, nil, nil, fmt.Errorf("vulkan backend not available")
		}
		api = b
	case "noop":
		api = &noop.API{}
	default:
		return nil, nil, nil, fmt.Errorf("unknown backend %q", name)
	}

	instance, err := api.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	if err != nil {
		return nil, nil, nil, fmt.Errorf("create instance: %w", err)
	}
	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		instance.Destroy()
		return nil, nil, nil, fmt.Errorf("no GPU adapters found")
	}

	selected := &adapters[0]
	for i := range adapters {
		if adapters[i].Info.DeviceType == gputypes.DeviceTypeDiscreteGPU ||
			adapters[i].Info.DeviceType == gputypes.DeviceTypeIntegratedGPU {
			selected = &adapters[i]
			break
		}
	}

	openDev, err := selected.Adapter.Open(gputypes.Features(0), gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		return nil, nil, nil, fmt.Errorf("open device: %w", err)
	}
	postfx.Logger().Info("postfxdemo: device opened", "backend", name, "adapter", selected.Info.Name)

	cleanup := func() {
		openDev.Device.Destroy()
		instance.Destroy()
	}
	return openDev.Device, openDev.Queue, cleanup, nil
}
