// Package postfx renders frames through a fixed three-pass GPU pipeline
// and presents them to a resizable swap chain.
//
// # Overview
//
// Every redraw records one command buffer with three passes in order:
//
//  1. a raster pass that draws a full-screen triangle pair into the
//     offscreen "default" texture,
//  2. a compute pass that reads "default" and writes the "processed"
//     texture (a screen-space post effect),
//  3. a copy pass that samples "processed" into the acquired swap chain
//     image, which is then presented.
//
// The recording order is the only synchronization between the passes.
//
// # Quick Start
//
//	target, _ := surface.NewTarget(surface.Options{Window: win})
//	o, err := postfx.New(device, queue, target, 800, 600)
//	if err != nil {
//	    return err
//	}
//	defer o.Close()
//
//	events := make(chan postfx.Event)
//	go pumpWindowEvents(events)
//	return o.Run(ctx, events)
//
// # Resize
//
// OnResize allocates a new texture pair and bind groups, reconfigures the
// swap chain, and only then retires the old resources. A failed resize
// leaves everything as it was. Pipelines are never rebuilt. A zero width
// or height (a minimized window) suspends presentation; redraws are
// skipped until the next non-zero resize.
//
// # Errors
//
// [ErrSurfaceUnavailable] skips a frame. [ErrResourceCreation] from
// OnResize refuses the resize. Both are recoverable, see [IsRecoverable].
// [ErrDeviceLost] is fatal.
//
// # Shaders
//
// By default the five programs are compiled at start-up from embedded
// WGSL with naga. [WithShaderDir], [WithShaderFS] and [WithShaders]
// supply precompiled SPIR-V instead.
//
// # Devices
//
// [New] takes a hal.Device and hal.Queue from github.com/gogpu/wgpu.
// [NewFromProvider] accepts a gpucontext.DeviceProvider, such as a gogpu
// application, that exposes its HAL objects.
package postfx
