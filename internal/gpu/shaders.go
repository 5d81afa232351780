//go:build !nogpu

package gpu

import (
	_ "embed"
	"encoding/binary"
	"fmt"
	"io/fs"

	"github.com/gogpu/naga"
	"github.com/gogpu/wgpu/hal"
)

// Embedded WGSL shader sources, compiled to SPIR-V at start-up.

//go:embed shaders/raster_vert.wgsl
var rasterVertexSource string

//go:embed shaders/raster_frag.wgsl
var rasterFragmentSource string

//go:embed shaders/postprocess.wgsl
var postProcessSource string

//go:embed shaders/copy_vert.wgsl
var copyVertexSource string

//go:embed shaders/copy_frag.wgsl
var copyFragmentSource string

// EntryPoint is the entry point name of every shader program.
const EntryPoint = "main"

// spirvMagic is the first word of every SPIR-V module.
const spirvMagic = 0x07230203

// ShaderFiles maps each program to its file name for LoadShaderSet.
var ShaderFiles = struct {
	RasterVertex, RasterFragment, Compute, CopyVertex, CopyFragment string
}{
	RasterVertex:   "raster.vert.spv",
	RasterFragment: "raster.frag.spv",
	Compute:        "postprocess.comp.spv",
	CopyVertex:     "copy.vert.spv",
	CopyFragment:   "copy.frag.spv",
}

// ShaderSet holds the five SPIR-V programs the pipelines are built from.
// The bytecode is opaque to this package; only the header is checked.
type ShaderSet struct {
	RasterVertex   []uint32
	RasterFragment []uint32
	Compute        []uint32
	CopyVertex     []uint32
	CopyFragment   []uint32
}

// CompileShaderSet compiles the embedded WGSL programs with naga.
func CompileShaderSet() (*ShaderSet, error) {
	set := &ShaderSet{}
	sources := []struct {
		name string
		src  string
		dst  *[]uint32
	}{
		{"raster vertex", rasterVertexSource, &set.RasterVertex},
		{"raster fragment", rasterFragmentSource, &set.RasterFragment},
		{"post-process", postProcessSource, &set.Compute},
		{"copy vertex", copyVertexSource, &set.CopyVertex},
		{"copy fragment", copyFragmentSource, &set.CopyFragment},
	}
	for _, s := range sources {
		if s.src == "" {
			return nil, fmt.Errorf("%s shader source is empty", s.name)
		}
		spirv, err := naga.Compile(s.src)
		if err != nil {
			return nil, fmt.Errorf("compile %s shader: %w", s.name, err)
		}
		words, err := spirvWords(spirv)
		if err != nil {
			return nil, fmt.Errorf("%s shader: %w", s.name, err)
		}
		*s.dst = words
	}

	slogger().Debug("postfx: shaders compiled from WGSL")
	return set, nil
}

// LoadShaderSet reads precompiled SPIR-V programs named by ShaderFiles
// from fsys.
func LoadShaderSet(fsys fs.FS) (*ShaderSet, error) {
	set := &ShaderSet{}
	files := []struct {
		name string
		dst  *[]uint32
	}{
		{ShaderFiles.RasterVertex, &set.RasterVertex},
		{ShaderFiles.RasterFragment, &set.RasterFragment},
		{ShaderFiles.Compute, &set.Compute},
		{ShaderFiles.CopyVertex, &set.CopyVertex},
		{ShaderFiles.CopyFragment, &set.CopyFragment},
	}
	for _, f := range files {
		data, err := fs.ReadFile(fsys, f.name)
		if err != nil {
			return nil, fmt.Errorf("read shader: %w", err)
		}
		words, err := spirvWords(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", f.name, err)
		}
		*f.dst = words
	}
	if err := set.Validate(); err != nil {
		return nil, err
	}
	return set, nil
}

// Validate checks that every program is present and starts with the
// SPIR-V magic number.
func (s *ShaderSet) Validate() error {
	if s == nil {
		return fmt.Errorf("%w: nil shader set", ErrInvalidShader)
	}
	programs := []struct {
		name  string
		words []uint32
	}{
		{"raster vertex", s.RasterVertex},
		{"raster fragment", s.RasterFragment},
		{"post-process", s.Compute},
		{"copy vertex", s.CopyVertex},
		{"copy fragment", s.CopyFragment},
	}
	for _, p := range programs {
		if len(p.words) == 0 {
			return fmt.Errorf("%w: %s program is empty", ErrInvalidShader, p.name)
		}
		if p.words[0] != spirvMagic {
			return fmt.Errorf("%w: %s program has bad magic %#08x", ErrInvalidShader, p.name, p.words[0])
		}
	}
	return nil
}

// spirvWords converts little-endian SPIR-V bytes into 32-bit words.
func spirvWords(b []byte) ([]uint32, error) {
	if len(b) == 0 || len(b)%4 != 0 {
		return nil, fmt.Errorf("%w: length %d is not a positive multiple of 4", ErrInvalidShader, len(b))
	}
	words := make([]uint32, len(b)/4)
	for i := range words {
		words[i] = binary.LittleEndian.Uint32(b[i*4:])
	}
	return words, nil
}

// createShaderModule creates a HAL shader module from SPIR-V code.
func createShaderModule(device hal.Device, label string, code []uint32) (hal.ShaderModule, error) {
	module, err := device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  label,
		Source: hal.ShaderSource{SPIRV: code},
	})
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", label, err)
	}
	return module, nil
}
