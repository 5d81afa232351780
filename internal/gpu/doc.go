//go:build !nogpu

// Package gpu holds the GPU side of the post-processing renderer: the
// offscreen texture pair, the three pass pipelines with their bind group
// layouts, the bind groups that tie them together, and the per-frame
// command encoding.
//
// Resources are created on a hal.Device supplied by the caller. Nothing
// here owns the device or the queue, and nothing here submits work.
//
// # Frame layout
//
// Each frame is one command buffer with three passes:
//
//	raster  -> default texture (render attachment, cleared to black)
//	compute -> reads default, writes processed (both storage)
//	copy    -> samples processed into the swap chain image
//
// The compute dispatch covers the screen in 7x7 tiles with 8 extra
// workgroups on each axis, see [DispatchSize].
//
// # Shaders
//
// The five programs are SPIR-V. By default they are compiled at startup
// from the WGSL sources embedded under shaders/ with naga. Precompiled
// bytecode can be loaded with [LoadShaderSet].
package gpu
