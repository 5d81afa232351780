package postfx

import (
	"io/fs"
	"os"

	"github.com/gogpu/postfx/surface"
)

// Option configures an Orchestrator during creation.
//
// Example:
//
//	// Embedded shaders, mailbox presentation
//	o, err := postfx.New(device, queue, target, 800, 600)
//
//	// Precompiled SPIR-V from disk, vsync
//	o, err := postfx.New(device, queue, target, 800, 600,
//	    postfx.WithShaderDir("shaders/spv"),
//	    postfx.WithPresentMode(surface.PresentModeFifo))
type Option func(*options)

// options holds optional configuration for Orchestrator creation.
type options struct {
	presentMode surface.PresentMode
	shaders     *Shaders
	shaderFS    fs.FS
	label       string
}

// defaultOptions returns the default orchestrator options.
func defaultOptions() options {
	return options{
		presentMode: surface.PresentModeMailbox,
		label:       "postfx",
	}
}

// Shaders holds the five SPIR-V programs, as 32-bit words, that the pass
// pipelines are built from. Every program's entry point is "main".
type Shaders struct {
	RasterVertex   []uint32
	RasterFragment []uint32
	Compute        []uint32
	CopyVertex     []uint32
	CopyFragment   []uint32
}

// WithPresentMode sets the swap chain present mode. The default is
// surface.PresentModeMailbox.
func WithPresentMode(m surface.PresentMode) Option {
	return func(o *options) {
		o.presentMode = m
	}
}

// WithShaders supplies the SPIR-V programs directly, bypassing the
// embedded WGSL sources.
func WithShaders(s *Shaders) Option {
	return func(o *options) {
		o.shaders = s
		o.shaderFS = nil
	}
}

// WithShaderFS loads precompiled SPIR-V programs from fsys. The file names
// are raster.vert.spv, raster.frag.spv, postprocess.comp.spv,
// copy.vert.spv and copy.frag.spv.
func WithShaderFS(fsys fs.FS) Option {
	return func(o *options) {
		o.shaderFS = fsys
		o.shaders = nil
	}
}

// WithShaderDir is WithShaderFS for a directory on disk.
func WithShaderDir(dir string) Option {
	return WithShaderFS(os.DirFS(dir))
}

// WithLabel sets the name the orchestrator logs under. Useful when more
// than one window is driven from the same process.
func WithLabel(label string) Option {
	return func(o *options) {
		if label != "" {
			o.label = label
		}
	}
}
