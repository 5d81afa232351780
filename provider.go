package postfx

import (
	"fmt"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/postfx/surface"
)

// halProvider is implemented by device providers that expose their HAL
// objects, such as a gogpu application.
type halProvider interface {
	HalDevice() any
	HalQueue() any
}

// NewFromProvider is New with the device and queue taken from a
// gpucontext.DeviceProvider.
//
// The provider must expose HalDevice() and HalQueue() returning a
// hal.Device and hal.Queue, and its surface format must be
// BGRA8UnormSrgb (or Undefined, for headless providers). Otherwise an
// error wrapping ErrIncompatibleProvider is returned.
func NewFromProvider(provider gpucontext.DeviceProvider, target surface.Target, width, height uint32, opts ...Option) (*Orchestrator, error) {
	device, queue, err := halFromProvider(provider)
	if err != nil {
		return nil, err
	}
	return New(device, queue, target, width, height, opts...)
}

func halFromProvider(provider gpucontext.DeviceProvider) (hal.Device, hal.Queue, error) {
	if provider == nil {
		return nil, nil, fmt.Errorf("%w: nil provider", ErrIncompatibleProvider)
	}
	if f := provider.SurfaceFormat(); f != 0 && f != surface.DefaultFormat {
		return nil, nil, fmt.Errorf("%w: surface format %v, want %v", ErrIncompatibleProvider, f, surface.DefaultFormat)
	}
	hp, ok := provider.(halProvider)
	if !ok {
		return nil, nil, fmt.Errorf("%w: provider does not expose HAL types", ErrIncompatibleProvider)
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok || device == nil {
		return nil, nil, fmt.Errorf("%w: HalDevice is not hal.Device", ErrIncompatibleProvider)
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok || queue == nil {
		return nil, nil, fmt.Errorf("%w: HalQueue is not hal.Queue", ErrIncompatibleProvider)
	}
	return device, queue, nil
}
