//go:build !nogpu

package gpu

import "errors"

// Resource errors.
var (
	// ErrInvalidSize is returned when a texture dimension is zero.
	ErrInvalidSize = errors.New("gpu: texture dimensions must be greater than zero")

	// ErrNilPipelines is returned when bind groups are built without pipelines.
	ErrNilPipelines = errors.New("gpu: pipelines are nil")

	// ErrNilTexturePair is returned when bind groups are built without textures.
	ErrNilTexturePair = errors.New("gpu: texture pair is nil")

	// ErrNilTarget is returned when a frame is encoded without a presentable view.
	ErrNilTarget = errors.New("gpu: frame target view is nil")

	// ErrInvalidShader is returned when a shader program is empty or is not SPIR-V.
	ErrInvalidShader = errors.New("gpu: invalid SPIR-V shader")
)
