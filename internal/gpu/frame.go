//go:build !nogpu

package gpu

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// Compute dispatch geometry.
const (
	// TileSize is the width and height in texels covered by one workgroup.
	TileSize = 7

	// DispatchPadding is the number of extra workgroups added on each axis.
	DispatchPadding = 8
)

// Pass labels, in recording order.
const (
	RasterPassLabel  = "postfx_raster_pass"
	ComputePassLabel = "postfx_compute_pass"
	CopyPassLabel    = "postfx_copy_pass"
)

// DispatchSize returns the workgroup counts for a screen of the given size:
// ceil(width/7)+8 by ceil(height/7)+8 by 1.
//
// The padding over-dispatches beyond the texture bounds. The post-process
// shader discards out-of-range invocations; counts are never clipped here.
func DispatchSize(width, height uint32) (x, y, z uint32) {
	x = (width+TileSize-1)/TileSize + DispatchPadding
	y = (height+TileSize-1)/TileSize + DispatchPadding
	return x, y, 1
}

// clearBlack is the load color of both render passes.
var clearBlack = gputypes.Color{R: 0, G: 0, B: 0, A: 1}

// EncodeFrame records the raster, compute and copy passes, in that order,
// into one command buffer targeting view.
//
// The recording order is what establishes the read-after-write chain:
// compute reads what raster wrote and copy reads what compute wrote.
// Usage transitions between the passes are recorded explicitly.
//
// The caller submits the returned buffer and frees it after submission.
func EncodeFrame(device hal.Device, p *Pipelines, res *Resources, view hal.TextureView) (hal.CommandBuffer, error) {
	if !p.Ready() {
		return nil, ErrNilPipelines
	}
	if res == nil || res.Pair == nil || res.Groups == nil {
		return nil, ErrNilTexturePair
	}
	if view == nil {
		return nil, ErrNilTarget
	}
	pair := res.Pair
	w, h := pair.Size()

	encoder, err := device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{
		Label: "postfx_frame_encoder",
	})
	if err != nil {
		return nil, fmt.Errorf("create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding("postfx_frame"); err != nil {
		encoder.DiscardEncoding()
		return nil, fmt.Errorf("begin encoding: %w", err)
	}

	// The previous frame left "default" bound as a storage image.
	if pair.rendered {
		encoder.TransitionTextures([]hal.TextureBarrier{{
			Texture: pair.Default.Tex,
			Usage: hal.TextureUsageTransition{
				OldUsage: gputypes.TextureUsageStorageBinding,
				NewUsage: gputypes.TextureUsageRenderAttachment,
			},
		}})
	}

	// Pass 1: rasterize the scene into "default".
	rp := encoder.BeginRenderPass(&hal.RenderPassDescriptor{
		Label: RasterPassLabel,
		ColorAttachments: []hal.RenderPassColorAttachment{{
			View:       pair.Default.View,
			LoadOp:     gputypes.LoadOpClear,
			StoreOp:    gputypes.StoreOpStore,
			ClearValue: clearBlack,
		}},
	})
	rp.SetPipeline(p.raster)
	rp.Draw(FullScreenVertexCount, FullScreenInstances, 0, 0)
	rp.End()

	processedFrom := gputypes.TextureUsageTextureBinding
	if !pair.rendered {
		processedFrom = gputypes.TextureUsageCopyDst
	}
	encoder.TransitionTextures([]hal.TextureBarrier{
		{
			Texture: pair.Default.Tex,
			Usage: hal.TextureUsageTransition{
				OldUsage: gputypes.TextureUsageRenderAttachment,
				NewUsage: gputypes.TextureUsageStorageBinding,
			},
		},
		{
			Texture: pair.Processed.Tex,
			Usage: hal.TextureUsageTransition{
				OldUsage: processedFrom,
				NewUsage: gputypes.TextureUsageStorageBinding,
			},
		},
	})

	// Pass 2: post-process "default" into "processed".
	x, y, z := DispatchSize(w, h)
	cp := encoder.BeginComputePass(&hal.ComputePassDescriptor{Label: ComputePassLabel})
	cp.SetBindGroup(0, res.Groups.Compute, nil)
	cp.SetPipeline(p.compute)
	cp.Dispatch(x, y, z)
	cp.End()

	encoder.TransitionTextures([]hal.TextureBarrier{{
		Texture: pair.Processed.Tex,
		Usage: hal.TextureUsageTransition{
			OldUsage: gputypes.TextureUsageStorageBinding,
			NewUsage: gputypes.TextureUsageTextureBinding,
		},
	}})

	// Pass 3: copy "processed" into the presentable image.
	bp := encoder.BeginRenderPass(&hal.RenderPassDescriptor{
		Label: CopyPassLabel,
		ColorAttachments: []hal.RenderPassColorAttachment{{
			View:       view,
			LoadOp:     gputypes.LoadOpClear,
			StoreOp:    gputypes.StoreOpStore,
			ClearValue: clearBlack,
		}},
	})
	bp.SetBindGroup(0, res.Groups.Copy, nil)
	bp.SetPipeline(p.copyPipe)
	bp.Draw(FullScreenVertexCount, FullScreenInstances, 0, 0)
	bp.End()

	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		encoder.DiscardEncoding()
		return nil, fmt.Errorf("end encoding: %w", err)
	}
	pair.rendered = true

	slogger().Debug("postfx: frame encoded",
		"width", w, "height", h,
		"dispatch_x", x, "dispatch_y", y)
	return cmdBuf, nil
}
